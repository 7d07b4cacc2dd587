package model

import "github.com/golang-jwt/jwt/v5"

type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// AppClaims is the claim set of both token kinds. Subject carries the
// principal id; Role, Email and Name are only set for configured identities.
type AppClaims struct {
	Type     TokenKind    `json:"typ"`
	Provider IdentityKind `json:"idp"`
	Role     Role         `json:"role,omitempty"`
	Email    string       `json:"email,omitempty"`
	Name     string       `json:"name,omitempty"`
	jwt.RegisteredClaims
}
