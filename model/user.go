// file: model/user.go

package model

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is the persisted identity record. PasswordHash is never serialised.
type User struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	Name         string            `json:"name"`
	PasswordHash string            `json:"-"`
	Role         Role              `json:"role"`
	AvatarURL    string            `json:"avatarUrl,omitempty"`
	Bio          string            `json:"bio,omitempty"`
	SocialLinks  map[string]string `json:"socialLinks,omitempty"`
	CreatedAt    time.Time         `json:"createdAt,omitempty"`
	UpdatedAt    time.Time         `json:"updatedAt,omitempty"`
}
