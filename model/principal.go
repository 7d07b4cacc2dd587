package model

type IdentityKind string

const (
	IdentityDatabase IdentityKind = "database"
	IdentityAdmin    IdentityKind = "admin"
)

// Principal is an authenticated identity, independent of where it is stored.
type Principal struct {
	ID    string       `json:"id"`
	Email string       `json:"email"`
	Name  string       `json:"name"`
	Role  Role         `json:"role"`
	Kind  IdentityKind `json:"-"`
	User  *User        `json:"-"`
}

// PublicUser returns the client-facing user view of the principal.
func (p *Principal) PublicUser() *User {
	if p.User != nil {
		return p.User
	}
	return &User{ID: p.ID, Email: p.Email, Name: p.Name, Role: p.Role}
}
