package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/target/admin-console/config"
	"github.com/target/admin-console/internal/adapters/authroles"
	"github.com/target/admin-console/internal/adapters/devauth"
	"github.com/target/admin-console/internal/adapters/localidp"
	"github.com/target/admin-console/internal/adapters/oidc"
	redisadapter "github.com/target/admin-console/internal/adapters/redis"
	"github.com/target/admin-console/internal/core"
	"github.com/target/admin-console/internal/observability/metrics"
	"github.com/target/admin-console/internal/ports"
	"github.com/target/admin-console/internal/service"
)

// devSigningKey signs local tokens in dev mode when no key is configured.
const devSigningKey = "admin-console-dev-signing-key"

// ProviderDeps contains the collaborators an identity provider may need.
type ProviderDeps struct {
	Auth     config.AuthConfig
	IsDev    bool
	Accounts core.AccountRepository // required for AUTH_MODE=local
	Logger   *slog.Logger
}

// BuildIdentityProvider creates the identity provider for the configured auth mode.
func BuildIdentityProvider(ctx context.Context, deps ProviderDeps) (ports.IdentityProvider, error) {
	switch deps.Auth.Mode {
	case config.AuthModeOIDC:
		prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
			ClientID:     deps.Auth.OAuth.ClientID,
			ClientSecret: deps.Auth.OAuth.ClientSecret,
			Scope:        deps.Auth.OAuth.Scope,
			DiscoveryURL: deps.Auth.OAuth.DiscoveryURL,
		})
		if err != nil {
			return nil, fmt.Errorf("create oidc provider: %w", err)
		}
		return prov, nil

	case config.AuthModeMock:
		parsed := deps.Auth.DevAuth.ParsedAccounts()
		accounts := make([]devauth.Account, 0, len(parsed))
		for _, a := range parsed {
			accounts = append(accounts, devauth.Account{Email: a.Email, Password: a.Password})
		}
		prov, err := devauth.NewProvider(devauth.Config{
			Accounts:        accounts,
			SessionDuration: deps.Auth.Session.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("create dev auth provider: %w", err)
		}
		if deps.Logger != nil {
			deps.Logger.Warn("using in-memory dev accounts; do not use in production", "accounts", len(accounts))
		}
		return prov, nil

	case config.AuthModeLocal, "":
		if deps.Accounts == nil {
			return nil, errors.New("local identity provider requires a PostgreSQL connection")
		}
		key := deps.Auth.Local.SigningKey
		if key == "" && deps.IsDev {
			key = devSigningKey
			if deps.Logger != nil {
				deps.Logger.Warn("AUTH_LOCAL_SIGNING_KEY not set; using the development signing key")
			}
		}
		prov, err := localidp.NewProvider(deps.Accounts, localidp.Config{
			SigningKey: key,
			Issuer:     deps.Auth.Local.Issuer,
			TokenTTL:   deps.Auth.Local.TokenTTL,
			RefreshTTL: deps.Auth.Local.RefreshTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("create local identity provider: %w", err)
		}
		return prov, nil

	default:
		return nil, fmt.Errorf("unsupported auth mode %q", deps.Auth.Mode)
	}
}

// AuthConfig contains configuration for the auth service.
type AuthConfig struct {
	Auth     config.AuthConfig
	Provider ports.IdentityProvider
	// Sessions overrides the Redis session store (the CLI uses a file store).
	Sessions    ports.SessionStore
	RedisClient redis.UniversalClient
	Profiles    core.ProfileRepository
	Metrics     metrics.Recorder
	Logger      *slog.Logger
}

// BuildAuthService wires the session manager around the identity provider.
func BuildAuthService(cfg AuthConfig) (*service.AuthService, error) {
	if cfg.Provider == nil {
		return nil, errors.New("identity provider is required")
	}
	if cfg.Profiles == nil {
		return nil, errors.New("profile repository is required")
	}

	sessions := cfg.Sessions
	if sessions == nil {
		if cfg.RedisClient == nil {
			return nil, errors.New("session store requires a redis client")
		}
		sessions = redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, cfg.Auth.Session.KeyPrefix)
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Provider: cfg.Provider,
		Sessions: sessions,
		Profiles: cfg.Profiles,
		Config: service.AuthServiceConfig{
			Reconciler: authroles.BootstrapAdmin{
				Email:    cfg.Auth.BootstrapAdmin.Email,
				Username: cfg.Auth.BootstrapAdmin.Username,
			},
			Observer:   service.NewLoggingObserver(cfg.Logger, cfg.Metrics),
			SessionTTL: cfg.Auth.Session.TTL,
		},
	}), nil
}
