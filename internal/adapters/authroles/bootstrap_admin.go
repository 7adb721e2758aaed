package authroles

// Package authroles holds the static identity-to-profile rules applied during login.

import (
	"strings"

	domainauth "github.com/target/admin-console/internal/domain/auth"
	"github.com/target/admin-console/internal/domain/model"
)

// BootstrapAdmin recreates the profile of one designated administrator account.
// Every other identity is left alone.
type BootstrapAdmin struct {
	Email    string
	Username string
}

// Reconcile returns the admin profile to create when email is the bootstrap address.
func (b BootstrapAdmin) Reconcile(_ domainauth.Identity, email string) (*model.CreateProfileRequest, bool) {
	want := strings.ToLower(strings.TrimSpace(b.Email))
	if want == "" || strings.ToLower(strings.TrimSpace(email)) != want {
		return nil, false
	}
	username := strings.TrimSpace(b.Username)
	if username == "" {
		username = "Admin"
	}
	return &model.CreateProfileRequest{
		Username: username,
		Email:    want,
		Role:     domainauth.RoleAdmin,
	}, true
}
