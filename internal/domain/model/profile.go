//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/target/admin-console/internal/domain/auth"
)

const maxUsernameLen = 120

// Profile is the application-level record of a team member, keyed by the
// identity provider's account id.
type Profile struct {
	UID       string    `json:"uid"        db:"uid"        bson:"_id"`
	DisplayID int64     `json:"id"         db:"display_id" bson:"display_id"`
	Username  string    `json:"username"   db:"username"   bson:"username"`
	Email     string    `json:"email"      db:"email"      bson:"email"`
	Role      auth.Role `json:"role"       db:"role"       bson:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" bson:"updated_at"`
}

// CreateProfileRequest represents parameters to create a Profile.
type CreateProfileRequest struct {
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     auth.Role `json:"role,omitempty"`
}

// Validate normalizes and validates CreateProfileRequest. An empty role defaults to employee.
func (r *CreateProfileRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" {
		return errors.New("username is required")
	}
	if utf8.RuneCountInString(r.Username) > maxUsernameLen {
		return errors.New("username cannot exceed 120 characters")
	}
	email, err := NormalizeEmail(r.Email)
	if err != nil {
		return err
	}
	r.Email = email
	if r.Role == "" {
		r.Role = auth.RoleEmployee
	}
	if !r.Role.Valid() {
		return errors.New("invalid role")
	}
	return nil
}

// UpdateProfileRequest represents a partial profile update.
type UpdateProfileRequest struct {
	Username *string    `json:"username,omitempty"`
	Email    *string    `json:"email,omitempty"`
	Role     *auth.Role `json:"role,omitempty"`
}

// HasUpdates reports whether any field is set.
func (r *UpdateProfileRequest) HasUpdates() bool {
	return r.Username != nil || r.Email != nil || r.Role != nil
}

// Validate validates UpdateProfileRequest, ensuring at least one field is set and values are sane.
func (r *UpdateProfileRequest) Validate() error {
	if !r.HasUpdates() {
		return errors.New("at least one field must be updated")
	}
	if r.Username != nil {
		u := strings.TrimSpace(*r.Username)
		if u == "" {
			return errors.New("username cannot be empty")
		}
		if utf8.RuneCountInString(u) > maxUsernameLen {
			return errors.New("username cannot exceed 120 characters")
		}
		*r.Username = u
	}
	if r.Email != nil {
		email, err := NormalizeEmail(*r.Email)
		if err != nil {
			return err
		}
		*r.Email = email
	}
	if r.Role != nil {
		role, ok := auth.ParseRole(string(*r.Role))
		if !ok {
			return errors.New("invalid role")
		}
		*r.Role = role
	}
	return nil
}

// NormalizeEmail trims and lowercases an address and checks its syntax.
func NormalizeEmail(v string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(v))
	if email == "" {
		return "", errors.New("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", errors.New("invalid email format")
	}
	return email, nil
}

// ProfileListOptions filters the team list.
// Q matches username or email as a case-insensitive substring.
type ProfileListOptions struct {
	Q    string
	Role auth.Role
}

// Matches reports whether p satisfies the filter.
func (o ProfileListOptions) Matches(p *Profile) bool {
	if p == nil {
		return false
	}
	if o.Role != "" && p.Role != o.Role {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(o.Q))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Username), q) || strings.Contains(strings.ToLower(p.Email), q)
}

// ProfileStats summarizes the team by role.
type ProfileStats struct {
	Total     int `json:"total"`
	Admins    int `json:"admins"`
	Core      int `json:"core"`
	Employees int `json:"employees"`
	Interns   int `json:"interns"`
	// Active counts every member; there is no presence tracking.
	Active int `json:"active"`
}

// CountProfiles tallies profiles per role.
func CountProfiles(profiles []*Profile) ProfileStats {
	var s ProfileStats
	for _, p := range profiles {
		if p == nil {
			continue
		}
		s.Total++
		switch p.Role {
		case auth.RoleAdmin:
			s.Admins++
		case auth.RoleCore:
			s.Core++
		case auth.RoleEmployee:
			s.Employees++
		case auth.RoleIntern:
			s.Interns++
		}
	}
	s.Active = s.Total
	return s
}
