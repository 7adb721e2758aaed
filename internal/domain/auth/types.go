package auth

// Package auth contains domain-level types for identity, credentials and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"strings"
	"time"
)

// Role represents a team member's authorization role.
// Keep string form for easy persistence and cookies.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCore     Role = "core"
	RoleEmployee Role = "employee"
	RoleIntern   Role = "intern"
)

// Roles lists every role from most to least privileged.
var Roles = []Role{RoleAdmin, RoleCore, RoleEmployee, RoleIntern}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r.Rank() >= 0
}

// Rank orders roles by privilege; unknown roles rank -1.
func (r Role) Rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleCore:
		return 2
	case RoleEmployee:
		return 1
	case RoleIntern:
		return 0
	default:
		return -1
	}
}

// AtLeast reports whether r grants at least the privileges of min.
func (r Role) AtLeast(minRole Role) bool {
	return r.Valid() && r.Rank() >= minRole.Rank()
}

// ParseRole normalizes a role string and reports whether it is supported.
func ParseRole(v string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(v)))
	if r.Valid() {
		return r, true
	}
	return "", false
}

// Identity is the identity account as reported by the identity provider.
type Identity struct {
	ID        string // opaque provider account id (uid)
	Email     string
	ExpiresAt time.Time // absolute expiry of the current ID token
}

// Credential is the explicit handle returned by sign-in and registration.
// It is passed back to the provider for sign-out and token refresh.
type Credential struct {
	Identity     Identity
	Token        string
	RefreshToken string
	ExpiresAt    time.Time
}

// Session is the cached record for an authenticated user: the current token
// plus a snapshot of the user's profile.
// ID is an opaque session identifier.
type Session struct {
	ID           string    `json:"id"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	UserID       string    `json:"user_id"`
	DisplayID    int64     `json:"display_id,omitempty"`
	Username     string    `json:"username,omitempty"`
	Email        string    `json:"email"`
	Role         Role      `json:"role,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Credential rebuilds the provider handle held by the session.
func (s Session) Credential() Credential {
	return Credential{
		Identity:     Identity{ID: s.UserID, Email: s.Email, ExpiresAt: s.ExpiresAt},
		Token:        s.Token,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt,
	}
}

// HasProfile reports whether the profile snapshot has been attached.
func (s Session) HasProfile() bool { return s.Role != "" }
