package domain

import "time"

// Role represents user role in the system
type Role string

const (
	RoleMember Role = "MEMBER"
	RoleAdmin  Role = "ADMIN"
)

// Identity is the authenticator-resolved reference to an account.
// The booking core only ever sees this, never credential material.
type Identity struct {
	UserID   uint
	Username string
	Role     Role
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// RefreshToken represents a refresh token in the domain
type RefreshToken struct {
	ID        uint
	UserID    uint
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
