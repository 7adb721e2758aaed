package localidp

// Package localidp is a self-hosted identity provider backed by the accounts table.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/target/admin-console/internal/core"
	domainauth "github.com/target/admin-console/internal/domain/auth"
	"github.com/target/admin-console/internal/domain/model"
	"github.com/target/admin-console/internal/ports"
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 6

// Config holds configuration for the local identity provider.
type Config struct {
	SigningKey string
	Issuer     string
	TokenTTL   time.Duration
	RefreshTTL time.Duration
	// Now overrides the clock (tests).
	Now func() time.Time
}

// Provider implements ports.IdentityProvider on top of core.AccountRepository.
// Sign-out bumps the account's token version, which invalidates every refresh
// token issued before it.
type Provider struct {
	accounts   core.AccountRepository
	hasher     *Argon2
	tokens     signer
	tokenTTL   time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewProvider creates a local identity provider.
func NewProvider(accounts core.AccountRepository, cfg Config) (*Provider, error) {
	if accounts == nil {
		return nil, errors.New("account repository is required")
	}
	if cfg.SigningKey == "" {
		return nil, errors.New("signing key is required")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "admin-console"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.RefreshTTL < cfg.TokenTTL {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Provider{
		accounts:   accounts,
		hasher:     NewArgon2(),
		tokens:     signer{key: []byte(cfg.SigningKey), issuer: cfg.Issuer},
		tokenTTL:   cfg.TokenTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        cfg.Now,
	}, nil
}

// WithHasher swaps the password hasher; tests use cheap parameters.
func (p *Provider) WithHasher(h *Argon2) *Provider {
	p.hasher = h
	return p
}

// SignIn verifies the password and issues a credential.
func (p *Provider) SignIn(ctx context.Context, email, password string) (domainauth.Credential, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return domainauth.Credential{}, ports.ErrInvalidCredentials
	}

	acc, err := p.accounts.GetByEmail(ctx, email)
	if err != nil {
		return domainauth.Credential{}, fmt.Errorf("lookup account: %w", err)
	}
	if acc == nil {
		return domainauth.Credential{}, ports.ErrInvalidCredentials
	}

	ok, err := p.hasher.Verify(password, acc.PasswordHash)
	if err != nil {
		return domainauth.Credential{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return domainauth.Credential{}, ports.ErrInvalidCredentials
	}

	return p.issue(acc, "")
}

// Register creates a new account and signs it in.
func (p *Provider) Register(ctx context.Context, email, password string) (domainauth.Credential, error) {
	email = normalizeEmail(email)
	if email == "" {
		return domainauth.Credential{}, &ports.RejectedError{Field: "email", Reason: "email is required"}
	}
	if len(password) < MinPasswordLength {
		return domainauth.Credential{}, &ports.RejectedError{
			Field:  "password",
			Reason: fmt.Sprintf("password should be at least %d characters", MinPasswordLength),
		}
	}

	hash, err := p.hasher.Hash(password)
	if err != nil {
		return domainauth.Credential{}, fmt.Errorf("hash password: %w", err)
	}

	acc, err := p.accounts.Create(ctx, &model.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return domainauth.Credential{}, err
	}
	return p.issue(acc, "")
}

// SignOut revokes every outstanding token for the credential's account.
func (p *Provider) SignOut(ctx context.Context, cred domainauth.Credential) error {
	id := cred.Identity.ID
	if id == "" {
		return errors.New("credential has no account id")
	}
	if _, err := p.accounts.BumpTokenVersion(ctx, id); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	return nil
}

// Refresh issues a new ID token if the account still exists and the credential
// has not been signed out. The refresh token is used when present, the ID token
// otherwise.
func (p *Provider) Refresh(ctx context.Context, cred domainauth.Credential) (domainauth.Credential, error) {
	raw, use := cred.RefreshToken, tokenUseRefresh
	if raw == "" {
		raw, use = cred.Token, tokenUseID
	}
	if raw == "" {
		return domainauth.Credential{}, ports.ErrCredentialRevoked
	}

	claims, err := p.tokens.parse(raw, use, p.now())
	if err != nil {
		return domainauth.Credential{}, fmt.Errorf("%w: %w", ports.ErrCredentialRevoked, err)
	}

	acc, err := p.accounts.GetByID(ctx, claims.Subject)
	if err != nil {
		return domainauth.Credential{}, fmt.Errorf("lookup account: %w", err)
	}
	if acc == nil || acc.TokenVersion != claims.Version {
		return domainauth.Credential{}, ports.ErrCredentialRevoked
	}

	return p.issue(acc, cred.RefreshToken)
}

// issue signs a fresh ID token and, unless one is supplied, a refresh token.
func (p *Provider) issue(acc *model.Account, refresh string) (domainauth.Credential, error) {
	now := p.now()
	tok, exp, err := p.tokens.sign(acc.ID, acc.Email, acc.TokenVersion, tokenUseID, now, p.tokenTTL)
	if err != nil {
		return domainauth.Credential{}, err
	}
	if refresh == "" {
		refresh, _, err = p.tokens.sign(acc.ID, acc.Email, acc.TokenVersion, tokenUseRefresh, now, p.refreshTTL)
		if err != nil {
			return domainauth.Credential{}, err
		}
	}
	return domainauth.Credential{
		Identity:     domainauth.Identity{ID: acc.ID, Email: acc.Email, ExpiresAt: exp},
		Token:        tok,
		RefreshToken: refresh,
		ExpiresAt:    exp,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
