package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/target/admin-console/config"
	"github.com/target/admin-console/internal/observability/metrics"
	"github.com/target/admin-console/internal/ports"
	"github.com/target/admin-console/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth     *service.AuthService
	Profiles *service.ProfileService
	Tasks    *service.TaskService
	Setup    *service.SetupService
	Demo     *service.DemoUsers // nil unless DEMO_ENDPOINTS_ENABLED
	Provider ports.IdentityProvider

	Observability ObservabilityContainer
	// DebugConfig is the redacted identity summary served in dev mode.
	DebugConfig map[string]string
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	Metrics       metrics.Recorder
	Handler       http.Handler // nil when the metrics endpoint is disabled
	MetricsConfig config.ObservabilityMetricsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	Stores      Stores
	RedisClient redis.UniversalClient
	// Sessions overrides the Redis session store.
	Sessions ports.SessionStore
	// Provider overrides the identity provider built from Config.Auth (tests).
	Provider ports.IdentityProvider
	Logger   *slog.Logger
}

func buildObservability(cfg config.ObservabilityMetricsConfig) ObservabilityContainer {
	if !cfg.IsEnabled() {
		return ObservabilityContainer{Metrics: metrics.Noop{}, MetricsConfig: cfg}
	}
	reg := metrics.NewRegistry()
	return ObservabilityContainer{
		Metrics:       metrics.NewCollector(reg),
		Handler:       metrics.Handler(reg),
		MetricsConfig: cfg,
	}
}

// NewServices wires the identity provider, session manager and domain services.
func NewServices(ctx context.Context, deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config
	obs := buildObservability(cfg.Observability.Metrics)

	provider := deps.Provider
	if provider == nil {
		var err error
		provider, err = BuildIdentityProvider(ctx, ProviderDeps{
			Auth:     cfg.Auth,
			IsDev:    cfg.IsDev,
			Accounts: deps.Stores.Accounts,
			Logger:   logger,
		})
		if err != nil {
			return ServiceContainer{}, err
		}
	}

	authSvc, err := BuildAuthService(AuthConfig{
		Auth:        cfg.Auth,
		Provider:    provider,
		Sessions:    deps.Sessions,
		RedisClient: deps.RedisClient,
		Profiles:    deps.Stores.Profiles,
		Metrics:     obs.Metrics,
		Logger:      logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build auth service: %w", err)
	}

	container := ServiceContainer{
		Auth:     authSvc,
		Provider: provider,
		Profiles: service.NewProfileService(service.ProfileServiceOptions{
			Repo:     deps.Stores.Profiles,
			Provider: provider,
		}),
		Tasks: service.NewTaskService(service.TaskServiceOptions{
			Repo:     deps.Stores.Tasks,
			Profiles: deps.Stores.Profiles,
		}),
		Setup: service.NewSetupService(service.SetupServiceOptions{
			Provider: provider,
			Profiles: deps.Stores.Profiles,
			Logger:   logger,
		}),
		Observability: obs,
		DebugConfig:   debugSummary(cfg),
	}
	if cfg.Demo.Enabled {
		logger.Warn("legacy demo endpoints enabled")
		container.Demo = service.NewDemoUsers()
	}
	return container, nil
}

func debugSummary(cfg *config.AppConfig) map[string]string {
	out := cfg.Auth.IdentitySummary()
	out["store_backend"] = string(cfg.Store.Backend)
	return out
}

// ServiceOrchestrationConfig contains the pieces RunServicesWithShutdown needs.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown starts the HTTP server and blocks until a shutdown
// signal is received or the server fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	errCh := make(chan error, 1)
	server := StartHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		Logger:   logger,
		ErrCh:    errCh,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case <-quit:
		logger.Info("shutting down services...")
	case runErr = <-errCh:
		logger.Error("service error", "error", runErr)
	}

	if err := ShutdownHTTPServer(ShutdownConfig{
		Context: context.Background(),
		Server:  server,
		Timeout: cfg.Config.HTTP.ShutdownTimeout,
		Logger:  logger,
	}); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}
