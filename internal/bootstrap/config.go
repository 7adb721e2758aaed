package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/target/admin-console/config"
)

// InitLogger initializes the structured logger. LOG_LEVEL=debug lowers the threshold.
func InitLogger() *slog.Logger {
	level := slog.LevelInfo
	if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}

// ValidateConfig rejects configurations that cannot run outside development.
func ValidateConfig(cfg *config.AppConfig) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	switch cfg.Auth.Mode {
	case config.AuthModeLocal:
		if cfg.Auth.Local.SigningKey == "" && !cfg.IsDev {
			return errors.New("AUTH_LOCAL_SIGNING_KEY is required when AUTH_MODE=local")
		}
	case config.AuthModeOIDC:
		if cfg.Auth.OAuth.DiscoveryURL == "" {
			return errors.New("OAUTH_DISCOVERY_URL is required when AUTH_MODE=oidc")
		}
	case config.AuthModeMock:
		if !cfg.IsDev {
			return errors.New("AUTH_MODE=mock is only allowed in development mode")
		}
	}
	return nil
}
