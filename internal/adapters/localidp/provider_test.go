package localidp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/admin-console/internal/domain/model"
	"github.com/target/admin-console/internal/ports"
)

type memAccounts struct {
	mu   sync.Mutex
	byID map[string]*model.Account
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byID: map[string]*model.Account{}}
}

func (m *memAccounts) Create(_ context.Context, acc *model.Account) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if strings.EqualFold(a.Email, acc.Email) {
			return nil, fmt.Errorf("%w: %s", ports.ErrAccountExists, acc.Email)
		}
	}
	cp := *acc
	cp.TokenVersion = 1
	m.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memAccounts) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if strings.EqualFold(a.Email, email) {
			out := *a
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memAccounts) GetByID(_ context.Context, id string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	out := *a
	return &out, nil
}

func (m *memAccounts) BumpTokenVersion(_ context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return 0, fmt.Errorf("account %s not found", id)
	}
	a.TokenVersion++
	return a.TokenVersion, nil
}

func cheapHasher() *Argon2 {
	return &Argon2{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}
}

func newTestProvider(t *testing.T, now *time.Time) (*Provider, *memAccounts) {
	t.Helper()
	accounts := newMemAccounts()
	p, err := NewProvider(accounts, Config{
		SigningKey: "test-signing-key",
		TokenTTL:   time.Hour,
		RefreshTTL: 24 * time.Hour,
		Now:        func() time.Time { return *now },
	})
	require.NoError(t, err)
	return p.WithHasher(cheapHasher()), accounts
}

func TestArgon2_HashAndVerify(t *testing.T) {
	h := cheapHasher()
	encoded, err := h.Hash("s3cret!")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$"))

	ok, err := h.Verify("s3cret!", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong", encoded)
	require.NoError(t, err)
	assert.False(t, ok)

	// Parameters come from the encoded hash, not the verifier.
	ok, err = NewArgon2().Verify("s3cret!", encoded)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestArgon2_VerifyRejectsMalformed(t *testing.T) {
	h := cheapHasher()
	for _, encoded := range []string{
		"",
		"plain",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=1$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1,t=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1,t=1,p=1$!!!$aGFzaA",
	} {
		_, err := h.Verify("pw", encoded)
		assert.Error(t, err, encoded)
	}
}

func TestNewProvider_Validation(t *testing.T) {
	_, err := NewProvider(nil, Config{SigningKey: "k"})
	require.Error(t, err)

	_, err = NewProvider(newMemAccounts(), Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signing key")
}

func TestProvider_RegisterAndSignIn(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	p, _ := newTestProvider(t, &now)
	ctx := context.Background()

	cred, err := p.Register(ctx, " Nova@Spaceborn.io ", "stardust")
	require.NoError(t, err)
	assert.Equal(t, "nova@spaceborn.io", cred.Identity.Email)
	assert.NotEmpty(t, cred.Identity.ID)
	assert.NotEmpty(t, cred.Token)
	assert.NotEmpty(t, cred.RefreshToken)
	assert.Equal(t, now.Add(time.Hour), cred.ExpiresAt)

	_, err = p.Register(ctx, "nova@spaceborn.io", "another1")
	require.ErrorIs(t, err, ports.ErrAccountExists)

	signed, err := p.SignIn(ctx, "NOVA@spaceborn.io", "stardust")
	require.NoError(t, err)
	assert.Equal(t, cred.Identity.ID, signed.Identity.ID)

	_, err = p.SignIn(ctx, "nova@spaceborn.io", "wrong-password")
	require.ErrorIs(t, err, ports.ErrInvalidCredentials)

	_, err = p.SignIn(ctx, "nobody@spaceborn.io", "stardust")
	require.ErrorIs(t, err, ports.ErrInvalidCredentials)

	_, err = p.SignIn(ctx, "", "")
	require.ErrorIs(t, err, ports.ErrInvalidCredentials)
}

func TestProvider_RegisterRejectsShortPassword(t *testing.T) {
	now := time.Now()
	p, _ := newTestProvider(t, &now)

	_, err := p.Register(context.Background(), "a@b.io", "12345")
	var rejected *ports.RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "password", rejected.Field)
	assert.Equal(t, "password should be at least 6 characters", err.Error())

	_, err = p.Register(context.Background(), "  ", "123456")
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "email", rejected.Field)
}

func TestProvider_RefreshAfterExpiry(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	p, _ := newTestProvider(t, &now)
	ctx := context.Background()

	cred, err := p.Register(ctx, "nova@spaceborn.io", "stardust")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	fresh, err := p.Refresh(ctx, cred)
	require.NoError(t, err)
	assert.NotEqual(t, cred.Token, fresh.Token)
	assert.Equal(t, cred.RefreshToken, fresh.RefreshToken)
	assert.Equal(t, now.Add(time.Hour), fresh.ExpiresAt)

	// Without a refresh token the expired ID token is not enough.
	idOnly := cred
	idOnly.RefreshToken = ""
	_, err = p.Refresh(ctx, idOnly)
	require.ErrorIs(t, err, ports.ErrCredentialRevoked)

	now = now.Add(48 * time.Hour)
	_, err = p.Refresh(ctx, cred)
	require.ErrorIs(t, err, ports.ErrCredentialRevoked)
}

func TestProvider_SignOutRevokesRefresh(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	p, accounts := newTestProvider(t, &now)
	ctx := context.Background()

	cred, err := p.Register(ctx, "nova@spaceborn.io", "stardust")
	require.NoError(t, err)

	require.NoError(t, p.SignOut(ctx, cred))
	acc, err := accounts.GetByID(ctx, cred.Identity.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, acc.TokenVersion)

	_, err = p.Refresh(ctx, cred)
	require.ErrorIs(t, err, ports.ErrCredentialRevoked)

	// A new sign-in carries the new version.
	again, err := p.SignIn(ctx, "nova@spaceborn.io", "stardust")
	require.NoError(t, err)
	_, err = p.Refresh(ctx, again)
	require.NoError(t, err)
}

func TestProvider_RefreshUnknownAccount(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	p, accounts := newTestProvider(t, &now)
	ctx := context.Background()

	cred, err := p.Register(ctx, "gone@spaceborn.io", "stardust")
	require.NoError(t, err)
	delete(accounts.byID, cred.Identity.ID)

	_, err = p.Refresh(ctx, cred)
	require.ErrorIs(t, err, ports.ErrCredentialRevoked)
}

func TestSigner_RejectsForeignTokens(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	a := signer{key: []byte("key-a"), issuer: "admin-console"}
	b := signer{key: []byte("key-b"), issuer: "admin-console"}

	tok, _, err := a.sign("uid", "x@y.io", 1, tokenUseID, now, time.Hour)
	require.NoError(t, err)

	_, err = b.parse(tok, tokenUseID, now)
	require.Error(t, err)

	_, err = a.parse(tok, tokenUseRefresh, now)
	require.Error(t, err)

	claims, err := a.parse(tok, tokenUseID, now)
	require.NoError(t, err)
	assert.Equal(t, "uid", claims.Subject)
	assert.Equal(t, 1, claims.Version)
}
