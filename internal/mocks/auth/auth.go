package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	domainauth "github.com/target/admin-console/internal/domain/auth"
	"github.com/target/admin-console/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityProvider = (*MockIdentityProvider)(nil)
	_ ports.SessionStore     = (*MemorySessionStore)(nil)
)

// MockIdentityProvider simulates an IdP with deterministic ids and tokens.
// Any Func field overrides the built-in behavior for that call.
type MockIdentityProvider struct {
	SignInFunc   func(ctx context.Context, email, password string) (domainauth.Credential, error)
	RegisterFunc func(ctx context.Context, email, password string) (domainauth.Credential, error)
	SignOutFunc  func(ctx context.Context, cred domainauth.Credential) error
	RefreshFunc  func(ctx context.Context, cred domainauth.Credential) (domainauth.Credential, error)

	TokenTTL time.Duration

	mu        sync.Mutex
	passwords map[string]string // email -> password
	ids       map[string]string // email -> uid
	revoked   map[string]bool   // uid -> signed out
	tokenSeq  int

	// Calls counts invocations per method name.
	Calls map[string]int
}

// NewMockIdentityProvider creates a provider with no accounts.
func NewMockIdentityProvider() *MockIdentityProvider {
	return &MockIdentityProvider{
		TokenTTL:  time.Hour,
		passwords: map[string]string{},
		ids:       map[string]string{},
		revoked:   map[string]bool{},
		Calls:     map[string]int{},
	}
}

// AddAccount seeds an account and returns its uid ("uid-1", "uid-2", ...).
func (m *MockIdentityProvider) AddAccount(email, password string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addLocked(email, password)
}

func (m *MockIdentityProvider) addLocked(email, password string) string {
	m.ensureMaps()
	key := strings.ToLower(email)
	uid := fmt.Sprintf("uid-%d", len(m.ids)+1)
	m.passwords[key] = password
	m.ids[key] = uid
	return uid
}

func (m *MockIdentityProvider) ensureMaps() {
	if m.passwords == nil {
		m.passwords = map[string]string{}
		m.ids = map[string]string{}
		m.revoked = map[string]bool{}
	}
	if m.Calls == nil {
		m.Calls = map[string]int{}
	}
}

func (m *MockIdentityProvider) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureMaps()
	m.Calls[name]++
}

// CallCount returns how many times method was invoked.
func (m *MockIdentityProvider) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[method]
}

func (m *MockIdentityProvider) SignIn(ctx context.Context, email, password string) (domainauth.Credential, error) {
	m.record("SignIn")
	if m.SignInFunc != nil {
		return m.SignInFunc(ctx, email, password)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(email)
	pw, ok := m.passwords[key]
	if !ok || pw != password {
		return domainauth.Credential{}, ports.ErrInvalidCredentials
	}
	delete(m.revoked, m.ids[key])
	return m.issueLocked(m.ids[key], key), nil
}

func (m *MockIdentityProvider) Register(ctx context.Context, email, password string) (domainauth.Credential, error) {
	m.record("Register")
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, email, password)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureMaps()
	key := strings.ToLower(email)
	if _, exists := m.ids[key]; exists {
		return domainauth.Credential{}, fmt.Errorf("%w: %s", ports.ErrAccountExists, key)
	}
	uid := m.addLocked(key, password)
	return m.issueLocked(uid, key), nil
}

func (m *MockIdentityProvider) SignOut(ctx context.Context, cred domainauth.Credential) error {
	m.record("SignOut")
	if m.SignOutFunc != nil {
		return m.SignOutFunc(ctx, cred)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureMaps()
	m.revoked[cred.Identity.ID] = true
	return nil
}

func (m *MockIdentityProvider) Refresh(ctx context.Context, cred domainauth.Credential) (domainauth.Credential, error) {
	m.record("Refresh")
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, cred)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if cred.Identity.ID == "" || m.revoked[cred.Identity.ID] {
		return domainauth.Credential{}, ports.ErrCredentialRevoked
	}
	return m.issueLocked(cred.Identity.ID, cred.Identity.Email), nil
}

// issueLocked returns a credential with a sequential token ("token-1", "token-2", ...).
func (m *MockIdentityProvider) issueLocked(uid, email string) domainauth.Credential {
	m.tokenSeq++
	ttl := m.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	exp := time.Now().Add(ttl)
	return domainauth.Credential{
		Identity:     domainauth.Identity{ID: uid, Email: email, ExpiresAt: exp},
		Token:        fmt.Sprintf("token-%d", m.tokenSeq),
		RefreshToken: "refresh-" + uid,
		ExpiresAt:    exp,
	}
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]domainauth.Session),
	}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len reports how many sessions are stored.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
