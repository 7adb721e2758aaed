package config

import (
	"fmt"
	"strings"
)

// StoreBackend selects the document store holding profiles and tasks.
type StoreBackend string

const (
	StoreBackendPostgres StoreBackend = "postgres"
	StoreBackendMongo    StoreBackend = "mongo"
)

// UnmarshalText implements encoding.TextUnmarshaler for StoreBackend.
func (s *StoreBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "postgres", "mongo":
		*s = StoreBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid StoreBackend: %q (valid options: postgres, mongo)", v)
	}
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Backend StoreBackend `env:"STORE_BACKEND" envDefault:"postgres"`
}

// Sanitize defaults an empty backend to postgres.
func (c *StoreConfig) Sanitize() {
	if c.Backend == "" {
		c.Backend = StoreBackendPostgres
	}
}

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"console"`
	Password string `env:"PASSWORD" envDefault:"console"`
	Name     string `env:"NAME"     envDefault:"console"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// MongoConfig contains MongoDB configuration used when STORE_BACKEND=mongo.
type MongoConfig struct {
	URI      string `env:"URI"      envDefault:"mongodb://localhost:27017"`
	Database string `env:"DATABASE" envDefault:"console"`
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelPort       string   `env:"SENTINEL_PORT"        envDefault:"26379"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}
