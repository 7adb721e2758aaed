package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the identity provider backing the console.
type AuthMode string

const (
	// AuthModeLocal uses the self-hosted identity accounts stored in PostgreSQL.
	AuthModeLocal AuthMode = "local"
	// AuthModeOIDC delegates identity to an external OIDC provider.
	AuthModeOIDC AuthMode = "oidc"
	// AuthModeMock uses in-memory accounts (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "local", "oidc", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: local, oidc, mock)", v)
	}
}

// OAuthConfig contains OIDC configuration used when AUTH_MODE=oidc.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"admin-console"`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:"admin-console"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email offline_access"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
}

// LocalIdPConfig controls the self-hosted identity provider.
type LocalIdPConfig struct {
	// SigningKey signs HS256 ID tokens. Required outside dev mode.
	SigningKey string        `env:"SIGNING_KEY"`
	Issuer     string        `env:"ISSUER"      envDefault:"admin-console"`
	TokenTTL   time.Duration `env:"TOKEN_TTL"   envDefault:"1h"`
	RefreshTTL time.Duration `env:"REFRESH_TTL" envDefault:"720h"`
}

// DevAuthAccount is a seeded in-memory identity account for AUTH_MODE=mock.
type DevAuthAccount struct {
	Email    string
	Password string
}

// DevAuthConfig controls mock/dev authentication accounts.
// Accounts are encoded as "email:password" pairs separated by ';'.
type DevAuthConfig struct {
	Accounts []string `env:"ACCOUNTS" envDefault:"admin@spaceborn.io:admin123" envSeparator:";"`
}

// ParsedAccounts returns the configured accounts, skipping malformed entries.
func (c DevAuthConfig) ParsedAccounts() []DevAuthAccount {
	out := make([]DevAuthAccount, 0, len(c.Accounts))
	for _, raw := range c.Accounts {
		email, password, ok := strings.Cut(strings.TrimSpace(raw), ":")
		if !ok || email == "" || password == "" {
			continue
		}
		out = append(out, DevAuthAccount{Email: strings.TrimSpace(email), Password: password})
	}
	return out
}

// BootstrapAdminConfig identifies the administrator account whose missing profile
// is recreated on login.
type BootstrapAdminConfig struct {
	Email    string `env:"EMAIL"    envDefault:"admin@spaceborn.io"`
	Username string `env:"USERNAME" envDefault:"Admin"`
	// Password is only used by `console-admin setup-admin`.
	Password string `env:"PASSWORD"`
}

// SessionConfig controls the server-side session cache.
type SessionConfig struct {
	TTL        time.Duration `env:"TTL"         envDefault:"12h"`
	KeyPrefix  string        `env:"KEY_PREFIX"  envDefault:"console:session:"`
	CookieName string        `env:"COOKIE_NAME" envDefault:"session_id"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which identity provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"local"`

	// OAuth configuration (used when Mode=oidc).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// Local configuration (used when Mode=local).
	Local LocalIdPConfig `envPrefix:"AUTH_LOCAL_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	BootstrapAdmin BootstrapAdminConfig `envPrefix:"AUTH_BOOTSTRAP_ADMIN_"`

	Session SessionConfig `envPrefix:"SESSION_"`
}

// Sanitize normalises auth values.
func (c *AuthConfig) Sanitize() {
	c.BootstrapAdmin.Email = strings.ToLower(strings.TrimSpace(c.BootstrapAdmin.Email))
	if strings.TrimSpace(c.BootstrapAdmin.Username) == "" {
		c.BootstrapAdmin.Username = "Admin"
	}
	if c.Local.TokenTTL <= 0 {
		c.Local.TokenTTL = time.Hour
	}
	if c.Local.RefreshTTL < c.Local.TokenTTL {
		c.Local.RefreshTTL = 30 * 24 * time.Hour
	}
	if c.Session.TTL <= 0 {
		c.Session.TTL = 12 * time.Hour
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "session_id"
	}
}

// IdentitySummary reports which identity settings are configured without
// revealing secret values.
func (c *AuthConfig) IdentitySummary() map[string]string {
	present := func(v string) string {
		if strings.TrimSpace(v) == "" {
			return "missing"
		}
		return "set"
	}
	out := map[string]string{
		"auth_mode":             string(c.Mode),
		"bootstrap_admin_email": c.BootstrapAdmin.Email,
	}
	switch c.Mode {
	case AuthModeOIDC:
		out["oauth_client_id"] = c.OAuth.ClientID
		out["oauth_client_secret"] = present(c.OAuth.ClientSecret)
		out["oauth_discovery_url"] = c.OAuth.DiscoveryURL
		out["oauth_scope"] = c.OAuth.Scope
	case AuthModeLocal:
		out["local_signing_key"] = present(c.Local.SigningKey)
		out["local_issuer"] = c.Local.Issuer
	case AuthModeMock:
		out["dev_accounts"] = fmt.Sprintf("%d", len(c.DevAuth.ParsedAccounts()))
	}
	return out
}
