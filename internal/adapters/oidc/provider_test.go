package oidc

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/admin-console/internal/domain/auth"
	"github.com/target/admin-console/internal/ports"
	"golang.org/x/oauth2"
)

// fakeIdP is a minimal OIDC server supporting the password and refresh grants.
type fakeIdP struct {
	t      *testing.T
	srv    *httptest.Server
	key    *rsa.PrivateKey
	mu     sync.Mutex
	issue  int
	revoke []string
	// refresh tokens still accepted
	valid map[string]bool
}

func newFakeIdP(t *testing.T) *fakeIdP {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	f := &fakeIdP{t: t, key: key, valid: map[string]bool{}}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/openid-configuration", f.discovery)
	mux.HandleFunc("GET /jwks", f.jwks)
	mux.HandleFunc("POST /token", f.token)
	mux.HandleFunc("GET /userinfo", f.userinfo)
	mux.HandleFunc("POST /revoke", f.revokeToken)
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeIdP) discovery(w http.ResponseWriter, _ *http.Request) {
	_ = json.NewEncoder(w).Encode(DiscoveryDocument{
		Issuer:                f.srv.URL,
		AuthorizationEndpoint: f.srv.URL + "/auth",
		TokenEndpoint:         f.srv.URL + "/token",
		UserinfoEndpoint:      f.srv.URL + "/userinfo",
		JwksURI:               f.srv.URL + "/jwks",
		RevocationEndpoint:    f.srv.URL + "/revoke",
	})
}

func (f *fakeIdP) jwks(w http.ResponseWriter, _ *http.Request) {
	_ = json.NewEncoder(w).Encode(jose.JSONWebKeySet{Keys: []jose.JSONWebKey{
		{Key: &f.key.PublicKey, Algorithm: string(jose.RS256), Use: "sig"},
	}})
}

func (f *fakeIdP) idToken() string {
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.RS256, Key: f.key}, (&jose.SignerOptions{}).WithType("JWT"))
	require.NoError(f.t, err)
	now := time.Now()
	payload, err := json.Marshal(map[string]any{
		"iss":   f.srv.URL,
		"aud":   "test-client",
		"sub":   "uid-nova",
		"email": "Nova@Spaceborn.io",
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	})
	require.NoError(f.t, err)
	obj, err := signer.Sign(payload)
	require.NoError(f.t, err)
	raw, err := obj.CompactSerialize()
	require.NoError(f.t, err)
	return raw
}

func (f *fakeIdP) token(w http.ResponseWriter, r *http.Request) {
	require.NoError(f.t, r.ParseForm())
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.PostForm.Get("grant_type") {
	case "password":
		if r.PostForm.Get("username") != "nova@spaceborn.io" || r.PostForm.Get("password") != "stardust" {
			writeOAuthError(w)
			return
		}
	case "refresh_token":
		if !f.valid[r.PostForm.Get("refresh_token")] {
			writeOAuthError(w)
			return
		}
	default:
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.issue++
	refresh := "refresh-1"
	f.valid[refresh] = true
	resp := map[string]any{
		"access_token":  "access-" + string(rune('0'+f.issue)),
		"token_type":    "Bearer",
		"expires_in":    3600,
		"refresh_token": refresh,
		"id_token":      f.idToken(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *fakeIdP) userinfo(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"sub": "uid-nova", "mail": "nova@spaceborn.io"})
}

func (f *fakeIdP) revokeToken(w http.ResponseWriter, r *http.Request) {
	require.NoError(f.t, r.ParseForm())
	f.mu.Lock()
	defer f.mu.Unlock()
	tok := r.PostForm.Get("token")
	f.revoke = append(f.revoke, tok)
	delete(f.valid, tok)
	w.WriteHeader(http.StatusOK)
}

func writeOAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"bad credentials"}`))
}

func newTestProvider(t *testing.T, f *fakeIdP, scope string) *Provider {
	t.Helper()
	p, err := NewProvider(context.Background(), ProviderConfig{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		Scope:        scope,
		DiscoveryURL: f.srv.URL + "/.well-known/openid-configuration",
	})
	require.NoError(t, err)
	return p
}

func TestNewProvider_DiscoversEndpoints(t *testing.T) {
	f := newFakeIdP(t)
	p := newTestProvider(t, f, "openid email")

	assert.Equal(t, f.srv.URL+"/token", p.config.Endpoint.TokenURL)
	assert.Equal(t, f.srv.URL+"/revoke", p.revocationURL)
	assert.True(t, p.hasOpenIDScope())
}

func TestNewProvider_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		config ProviderConfig
		errMsg string
	}{
		{"missing client ID", ProviderConfig{ClientSecret: "s", DiscoveryURL: "http://example.com"}, "client ID is required"},
		{"missing client secret", ProviderConfig{ClientID: "c", DiscoveryURL: "http://example.com"}, "client secret is required"},
		{"missing discovery URL", ProviderConfig{ClientID: "c", ClientSecret: "s"}, "discovery URL is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(context.Background(), tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestProvider_SignInWithIDToken(t *testing.T) {
	f := newFakeIdP(t)
	p := newTestProvider(t, f, "openid email offline_access")

	cred, err := p.SignIn(context.Background(), "nova@spaceborn.io", "stardust")
	require.NoError(t, err)
	assert.Equal(t, "uid-nova", cred.Identity.ID)
	assert.Equal(t, "nova@spaceborn.io", cred.Identity.Email)
	assert.Equal(t, "refresh-1", cred.RefreshToken)
	assert.Len(t, strings.Split(cred.Token, "."), 3, "ID token is used as the credential token")
}

func TestProvider_SignInWithoutOpenIDUsesUserInfo(t *testing.T) {
	f := newFakeIdP(t)
	p := newTestProvider(t, f, "email")

	cred, err := p.SignIn(context.Background(), "nova@spaceborn.io", "stardust")
	require.NoError(t, err)
	assert.Equal(t, "uid-nova", cred.Identity.ID)
	assert.Equal(t, "nova@spaceborn.io", cred.Identity.Email)
	assert.Equal(t, "access-1", cred.Token)
}

func TestProvider_SignInInvalidCredentials(t *testing.T) {
	f := newFakeIdP(t)
	p := newTestProvider(t, f, "openid")

	_, err := p.SignIn(context.Background(), "nova@spaceborn.io", "wrong")
	require.ErrorIs(t, err, ports.ErrInvalidCredentials)
	assert.Equal(t, "invalid email or password: bad credentials", err.Error())

	_, err = p.SignIn(context.Background(), "", "")
	require.ErrorIs(t, err, ports.ErrInvalidCredentials)
}

func TestProvider_RefreshAndSignOut(t *testing.T) {
	f := newFakeIdP(t)
	p := newTestProvider(t, f, "email")
	ctx := context.Background()

	cred, err := p.SignIn(ctx, "nova@spaceborn.io", "stardust")
	require.NoError(t, err)

	fresh, err := p.Refresh(ctx, cred)
	require.NoError(t, err)
	assert.Equal(t, "access-2", fresh.Token)

	require.NoError(t, p.SignOut(ctx, fresh))
	assert.Equal(t, []string{"refresh-1"}, f.revoke)

	_, err = p.Refresh(ctx, fresh)
	require.ErrorIs(t, err, ports.ErrCredentialRevoked)

	_, err = p.Refresh(ctx, domainauth.Credential{})
	require.ErrorIs(t, err, ports.ErrCredentialRevoked)
}

func TestProvider_RegisterUnsupported(t *testing.T) {
	f := newFakeIdP(t)
	p := newTestProvider(t, f, "openid")

	_, err := p.Register(context.Background(), "a@b.io", "secret1")
	require.ErrorIs(t, err, ports.ErrRegistrationUnsupported)
}

func TestGetIDTokenFromToken(t *testing.T) {
	tok := (&oauth2.Token{}).WithExtra(map[string]any{"id_token": "abc.def.ghi"})
	idTok, err := getIDTokenFromToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", idTok)

	_, err = getIDTokenFromToken((&oauth2.Token{}).WithExtra(map[string]any{"not_id": "x"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing id_token")

	_, err = getIDTokenFromToken(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil token")
}

func Test_fillFromUserInfoClaims_KeepsIDTokenFields(t *testing.T) {
	ui := UserInfo{Subject: "sub-abc", SamAccountName: "sammy", Mail: "mail@example.com"}

	var f idFields
	fillFromUserInfoClaims(&f, ui)
	assert.Equal(t, "sub-abc", f.userID)
	assert.Equal(t, "mail@example.com", f.email)

	kept := idFields{userID: "keep", email: "keep@example.com"}
	fillFromUserInfoClaims(&kept, ui)
	assert.Equal(t, "keep", kept.userID)
	assert.Equal(t, "keep@example.com", kept.email)
}
