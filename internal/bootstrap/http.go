package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/admin-console/config"
	httpx "github.com/target/admin-console/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
	// ErrCh receives the listener error, if any.
	ErrCh chan<- error
}

// BuildHandler assembles the router from the service container.
func BuildHandler(appCfg *config.AppConfig, svcs ServiceContainer, logger *slog.Logger) http.Handler {
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}
	routerSvcs := httpx.RouterServices{
		Auth:         svcs.Auth,
		Profiles:     svcs.Profiles,
		Tasks:        svcs.Tasks,
		Demo:         svcs.Demo,
		CookieName:   appCfg.Auth.Session.CookieName,
		CookieDomain: appCfg.HTTP.CookieDomain,
		LoginLimit:   httpx.NewLoginRateLimit(appCfg.HTTP.LoginRatePerMinute, appCfg.HTTP.LoginBurst),
		Metrics:      svcs.Observability.Metrics,
		DebugConfig:  svcs.DebugConfig,
		IsDev:        appCfg.IsDev,
		Logger:       logger,
	}
	if svcs.Observability.Handler != nil {
		routerSvcs.MetricsPath = svcs.Observability.MetricsConfig.Path
		routerSvcs.MetricsHandler = svcs.Observability.Handler
	}
	return httpx.NewRouter(routerSvcs)
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	handler := BuildHandler(appCfg, cfg.Services, logger)
	return startServer(logger, handler, appCfg.HTTP.Addr, cfg.ErrCh)
}

func startServer(logger *slog.Logger, handler http.Handler, addr string, errCh chan<- error) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			if errCh != nil {
				errCh <- fmt.Errorf("http server: %w", err)
			}
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Timeout time.Duration // default 10s
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
