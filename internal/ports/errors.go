package ports

import "errors"

// ErrSessionNotFound is returned by SessionStore.Get for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// ErrAccountExists is wrapped by IdentityProvider.Register when the email is already registered.
var ErrAccountExists = errors.New("identity account already exists")

// ErrInvalidCredentials is wrapped by IdentityProvider.SignIn for a wrong email or password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrCredentialRevoked is wrapped by IdentityProvider.Refresh when the account is gone
// or the credential was signed out.
var ErrCredentialRevoked = errors.New("credential is no longer valid")

// ErrRegistrationUnsupported is returned by providers that cannot create accounts.
var ErrRegistrationUnsupported = errors.New("identity provider does not support registration")

// RejectedError is returned by IdentityProvider.Register when the provider refuses
// the input itself, such as a password that is too short. Reason is shown to the user.
type RejectedError struct {
	Field  string
	Reason string
}

func (e *RejectedError) Error() string { return e.Reason }
