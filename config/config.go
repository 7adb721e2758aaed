package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Identity provider and session configuration
//   - database.go: Document store, database and cache configuration
//   - http.go: HTTP server configuration
//   - observability.go: Metrics configuration
type AppConfig struct {
	// IsDev controls development mode behavior (debug routes, relaxed cookies).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Authentication configuration
	Auth AuthConfig

	// Document store configuration
	Store    StoreConfig
	Postgres DBConfig    `envPrefix:"DB_"`
	Mongo    MongoConfig `envPrefix:"MONGO_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Demo toggles the legacy in-memory /api/users endpoints.
	Demo DemoConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Auth.Sanitize()
	c.Store.Sanitize()
	c.HTTP.Sanitize()
	c.Observability.Sanitize()

	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// UsesPostgres reports whether any configured component needs a PostgreSQL connection.
func (c *AppConfig) UsesPostgres() bool {
	return c.Store.Backend == StoreBackendPostgres || c.Auth.Mode == AuthModeLocal
}

// DemoConfig controls the legacy demo endpoints.
type DemoConfig struct {
	Enabled bool `env:"DEMO_ENDPOINTS_ENABLED" envDefault:"false"`
}
