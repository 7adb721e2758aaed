package ports

// Package ports defines interfaces (hexagonal ports) for identity and session behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/target/admin-console/internal/domain/auth"
)

// IdentityProvider authenticates identity accounts against an external or self-hosted IdP.
// Every call carries the explicit Credential handle; no provider session state is ambient.
type IdentityProvider interface {
	// SignIn verifies email/password and returns a credential for the account.
	SignIn(ctx context.Context, email, password string) (domainauth.Credential, error)

	// Register creates a new identity account and returns a credential for it.
	Register(ctx context.Context, email, password string) (domainauth.Credential, error)

	// SignOut ends the provider-side session for the credential.
	SignOut(ctx context.Context, cred domainauth.Credential) error

	// Refresh returns a current token for the credential, failing if the account was revoked.
	Refresh(ctx context.Context, cred domainauth.Credential) (domainauth.Credential, error)
}

// SessionStore persists and retrieves cached user sessions.
// Get returns an error wrapping ErrSessionNotFound when the id is unknown.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}
