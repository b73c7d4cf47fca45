package domain

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole maps a stored or submitted role name to a Role. Anything
// unrecognised is a plain user.
func ParseRole(s string) Role {
	if Role(s) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

type User struct {
	ID           string
	Name         string
	Email        string // unique, case-sensitive as stored
	PasswordHash string // argon2id PHC string
	Verified     bool
	Role         Role
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal returns the snapshot a session holds for u.
func (u User) Principal() Principal {
	return Principal{
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
	}
}
