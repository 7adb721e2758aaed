package oidc

// Package oidc provides an IdentityProvider backed by an external OIDC/OAuth2 server.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	domainauth "github.com/target/admin-console/internal/domain/auth"
	"github.com/target/admin-console/internal/ports"
	"golang.org/x/oauth2"
)

// Provider implements ports.IdentityProvider using the resource-owner password
// grant for sign-in and the refresh-token grant for token refresh.
type Provider struct {
	config     *oauth2.Config
	httpClient *http.Client

	oidcProvider  *gooidc.Provider
	verifier      *gooidc.IDTokenVerifier
	revocationURL string
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	Scope        string
	DiscoveryURL string
	HTTPClient   *http.Client // Optional, defaults to a client with a 30s timeout
}

// DiscoveryDocument represents the subset of the OIDC discovery document we read.
type DiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`
	RevocationEndpoint    string `json:"revocation_endpoint,omitempty"`
}

// NewProvider fetches the discovery document and creates a new OIDC provider.
func NewProvider(ctx context.Context, config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if config.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	p := &Provider{httpClient: httpClient}

	ctx = p.clientContext(ctx)
	issuer := strings.TrimSuffix(config.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}
	p.oidcProvider = op
	p.verifier = op.Verifier(&gooidc.Config{ClientID: config.ClientID})

	var doc DiscoveryDocument
	if err := op.Claims(&doc); err == nil {
		p.revocationURL = doc.RevocationEndpoint
	}

	p.config = &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Scopes:       strings.Fields(config.Scope),
		Endpoint:     op.Endpoint(),
	}

	return p, nil
}

func (p *Provider) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

// SignIn exchanges email and password for tokens.
func (p *Provider) SignIn(ctx context.Context, email, password string) (domainauth.Credential, error) {
	if email == "" || password == "" {
		return domainauth.Credential{}, ports.ErrInvalidCredentials
	}
	ctx = p.clientContext(ctx)

	tok, err := p.config.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		if !isInvalidGrant(err) {
			return domainauth.Credential{}, fmt.Errorf("password grant: %w", err)
		}
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.ErrorDescription != "" {
			return domainauth.Credential{}, fmt.Errorf("%w: %s", ports.ErrInvalidCredentials, re.ErrorDescription)
		}
		return domainauth.Credential{}, ports.ErrInvalidCredentials
	}
	return p.credentialFromToken(ctx, tok, "")
}

// Register is not supported; accounts are managed by the external provider.
func (p *Provider) Register(context.Context, string, string) (domainauth.Credential, error) {
	return domainauth.Credential{}, ports.ErrRegistrationUnsupported
}

// SignOut revokes the refresh token when the provider advertises a revocation endpoint.
func (p *Provider) SignOut(ctx context.Context, cred domainauth.Credential) error {
	if p.revocationURL == "" || cred.RefreshToken == "" {
		return nil
	}

	form := url.Values{}
	form.Set("token", cred.RefreshToken)
	form.Set("token_type_hint", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.revocationURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build revocation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(url.QueryEscape(p.config.ClientID), url.QueryEscape(p.config.ClientSecret))

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revoke token: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Refresh runs the refresh-token grant and returns the new credential.
func (p *Provider) Refresh(ctx context.Context, cred domainauth.Credential) (domainauth.Credential, error) {
	if cred.RefreshToken == "" {
		return domainauth.Credential{}, ports.ErrCredentialRevoked
	}
	ctx = p.clientContext(ctx)

	tok, err := p.config.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken}).Token()
	if err != nil {
		if isInvalidGrant(err) {
			return domainauth.Credential{}, fmt.Errorf("%w: %w", ports.ErrCredentialRevoked, err)
		}
		return domainauth.Credential{}, fmt.Errorf("refresh grant: %w", err)
	}
	return p.credentialFromToken(ctx, tok, cred.RefreshToken)
}

// credentialFromToken resolves the identity from the ID token, falling back to
// the userinfo endpoint for missing fields.
func (p *Provider) credentialFromToken(ctx context.Context, tok *oauth2.Token, prevRefresh string) (domainauth.Credential, error) {
	fields, rawID, err := p.extractFromIDToken(ctx, tok)
	if err != nil {
		return domainauth.Credential{}, fmt.Errorf("extract id_token: %w", err)
	}
	if fields.userID == "" || fields.email == "" {
		if err := p.fillFromUserInfo(ctx, tok.AccessToken, &fields); err != nil {
			return domainauth.Credential{}, fmt.Errorf("get user info: %w", err)
		}
	}
	if fields.userID == "" {
		return domainauth.Credential{}, errors.New("identity has no subject")
	}

	expiresAt := time.Now().Add(time.Hour)
	if !tok.Expiry.IsZero() {
		expiresAt = tok.Expiry
	}

	token := rawID
	if token == "" {
		token = tok.AccessToken
	}
	refresh := tok.RefreshToken
	if refresh == "" {
		refresh = prevRefresh
	}

	return domainauth.Credential{
		Identity: domainauth.Identity{
			ID:        fields.userID,
			Email:     strings.ToLower(fields.email),
			ExpiresAt: expiresAt,
		},
		Token:        token,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}, nil
}

// UserInfo represents the user information from the OIDC userinfo endpoint.
type UserInfo struct {
	Subject        string `json:"sub"`
	SamAccountName string `json:"samaccountname"`
	Email          string `json:"email"`
	Mail           string `json:"mail"`
}

type idFields struct {
	userID string
	email  string
}

// idTokenClaims covers both standard OIDC and AD/ADFS claim shapes.
type idTokenClaims struct {
	Sub            string `json:"sub"`
	SamAccountName string `json:"samaccountname"`
	Email          string `json:"email"`
	Mail           string `json:"mail"`
}

func (p *Provider) extractFromIDToken(ctx context.Context, tok *oauth2.Token) (idFields, string, error) {
	var f idFields
	if !p.hasOpenIDScope() {
		return f, "", nil
	}
	rawID, err := getIDTokenFromToken(tok)
	if err != nil {
		return f, "", err
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return f, "", fmt.Errorf("verify id_token: %w", err)
	}
	var claims idTokenClaims
	if err := idTok.Claims(&claims); err != nil {
		return f, "", fmt.Errorf("parse id_token claims: %w", err)
	}
	return mapIDTokenClaims(claims), rawID, nil
}

func (p *Provider) fillFromUserInfo(ctx context.Context, accessToken string, f *idFields) error {
	ui, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	if err != nil {
		return fmt.Errorf("fetch user info: %w", err)
	}
	var info UserInfo
	if err := ui.Claims(&info); err != nil {
		return fmt.Errorf("decode user info: %w", err)
	}
	fillFromUserInfoClaims(f, info)
	return nil
}

func mapIDTokenClaims(c idTokenClaims) idFields {
	return idFields{
		userID: firstNonEmpty(c.Sub, c.SamAccountName),
		email:  firstNonEmpty(c.Email, c.Mail),
	}
}

// fillFromUserInfoClaims only fills fields the ID token left empty.
func fillFromUserInfoClaims(f *idFields, ui UserInfo) {
	if f.userID == "" {
		f.userID = firstNonEmpty(ui.Subject, ui.SamAccountName)
	}
	if f.email == "" {
		f.email = firstNonEmpty(ui.Email, ui.Mail)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func (p *Provider) hasOpenIDScope() bool {
	for _, sc := range p.config.Scopes {
		if sc == "openid" {
			return true
		}
	}
	return false
}

func getIDTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	s, ok := tok.Extra("id_token").(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}

func isInvalidGrant(err error) bool {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return re.ErrorCode == "invalid_grant" || re.Response != nil && re.Response.StatusCode == http.StatusUnauthorized
	}
	return false
}
