package devauth

// Package devauth provides a config-driven in-memory IdentityProvider for local development.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/target/admin-console/internal/domain/auth"
	"github.com/target/admin-console/internal/ports"
)

// Account is a seeded development identity account.
type Account struct {
	Email    string
	Password string
}

// Config controls the dev auth provider behavior.
type Config struct {
	Accounts        []Account
	SessionDuration time.Duration // default 8h when zero
}

type account struct {
	id       string
	email    string
	password string
}

// Provider implements ports.IdentityProvider with plaintext in-memory accounts.
// Tokens are opaque random strings; SignOut revokes every token of the account.
type Provider struct {
	mu              sync.Mutex
	accounts        map[string]*account // by lower-cased email
	tokens          map[string]string   // refresh token -> account id
	sessionDuration time.Duration
	now             func() time.Time
}

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	dur := cfg.SessionDuration
	if dur == 0 {
		dur = 8 * time.Hour
	}
	p := &Provider{
		accounts:        make(map[string]*account, len(cfg.Accounts)),
		tokens:          make(map[string]string),
		sessionDuration: dur,
		now:             time.Now,
	}
	for _, a := range cfg.Accounts {
		if _, err := p.addAccount(a.Email, a.Password); err != nil {
			return nil, fmt.Errorf("dev auth: seed %q: %w", a.Email, err)
		}
	}
	return p, nil
}

// SignIn checks the plaintext password of a seeded or registered account.
func (p *Provider) SignIn(_ context.Context, email, password string) (domainauth.Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acc, ok := p.accounts[key(email)]
	if !ok || acc.password != password {
		return domainauth.Credential{}, ports.ErrInvalidCredentials
	}
	return p.issueLocked(acc)
}

// Register adds an in-memory account. Accounts do not survive a restart.
func (p *Provider) Register(_ context.Context, email, password string) (domainauth.Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acc, err := p.addAccount(email, password)
	if err != nil {
		return domainauth.Credential{}, err
	}
	return p.issueLocked(acc)
}

// SignOut drops every refresh token of the credential's account.
func (p *Provider) SignOut(_ context.Context, cred domainauth.Credential) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for tok, id := range p.tokens {
		if id == cred.Identity.ID {
			delete(p.tokens, tok)
		}
	}
	return nil
}

// Refresh issues a new ID token while the refresh token is still known.
func (p *Provider) Refresh(_ context.Context, cred domainauth.Credential) (domainauth.Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id, ok := p.tokens[cred.RefreshToken]
	if !ok || id != cred.Identity.ID {
		return domainauth.Credential{}, ports.ErrCredentialRevoked
	}
	acc, ok := p.accounts[key(cred.Identity.Email)]
	if !ok || acc.id != id {
		return domainauth.Credential{}, ports.ErrCredentialRevoked
	}

	tok, err := randomString(32)
	if err != nil {
		return domainauth.Credential{}, fmt.Errorf("generate token: %w", err)
	}
	exp := p.now().Add(p.sessionDuration)
	cred.Token = tok
	cred.ExpiresAt = exp
	cred.Identity.ExpiresAt = exp
	return cred, nil
}

func (p *Provider) addAccount(email, password string) (*account, error) {
	k := key(email)
	if k == "" || password == "" {
		return nil, &ports.RejectedError{Reason: "email and password are required"}
	}
	if _, exists := p.accounts[k]; exists {
		return nil, fmt.Errorf("%w: %s", ports.ErrAccountExists, k)
	}
	acc := &account{id: uuid.NewString(), email: k, password: password}
	p.accounts[k] = acc
	return acc, nil
}

func (p *Provider) issueLocked(acc *account) (domainauth.Credential, error) {
	tok, err := randomString(32)
	if err != nil {
		return domainauth.Credential{}, fmt.Errorf("generate token: %w", err)
	}
	refresh, err := randomString(32)
	if err != nil {
		return domainauth.Credential{}, fmt.Errorf("generate refresh token: %w", err)
	}
	p.tokens[refresh] = acc.id

	exp := p.now().Add(p.sessionDuration)
	return domainauth.Credential{
		Identity:     domainauth.Identity{ID: acc.id, Email: acc.email, ExpiresAt: exp},
		Token:        tok,
		RefreshToken: refresh,
		ExpiresAt:    exp,
	}, nil
}

func key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	// Enough random bytes for at least n base64 URL chars.
	b := make([]byte, (n*3+3)/4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	return s[:n], nil
}
