package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"strings"
	"time"
)

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
// Valid values are defined as constants below.
type Role string

const (
	RoleUser   Role = "user"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleEditor, RoleAdmin:
		return true
	default:
		return false
	}
}

// Rank orders roles by privilege. Unknown roles rank below user.
func (r Role) Rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleEditor:
		return 2
	case RoleUser:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether r carries at least the privileges of min.
func (r Role) AtLeast(minRole Role) bool { return r.Rank() >= minRole.Rank() }

// ParseRole normalizes a role string and reports whether it is supported.
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if role.Valid() {
		return role, true
	}
	return "", false
}

// User is the authenticated identity carried by a session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is proof of an authenticated identity plus backend-issued credential material.
// Token fields are opaque to everything except the auth backend.
type Session struct {
	User         User      `json:"user"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the session expiry is at or before now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Profile is the role-bearing record associated one-to-one with a user.
type Profile struct {
	ID          string    `json:"id"                     db:"id"`
	Email       string    `json:"email"                  db:"email"`
	Role        Role      `json:"role"                   db:"role"`
	DisplayName *string   `json:"display_name,omitempty" db:"display_name"`
	CreatedAt   time.Time `json:"created_at"             db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"             db:"updated_at"`
}
