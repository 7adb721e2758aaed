package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/target/admin-console/config"
	"github.com/target/admin-console/internal/bootstrap"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

// infra holds the open connections; Close releases whichever were opened.
type infra struct {
	db    *sql.DB
	redis redis.UniversalClient
	mongo *mongo.Client
	mdb   *mongo.Database
}

func (i *infra) Close(ctx context.Context, logger *slog.Logger) {
	if i.mongo != nil {
		if err := i.mongo.Disconnect(ctx); err != nil {
			logger.ErrorContext(ctx, "disconnect mongo failed", "error", err)
		}
	}
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			logger.ErrorContext(ctx, "close redis failed", "error", err)
		}
	}
	if i.db != nil {
		if err := i.db.Close(); err != nil {
			logger.ErrorContext(ctx, "close database failed", "error", err)
		}
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logStartupInfo(ctx, logger, &cfg)

	if err = bootstrap.ValidateConfig(&cfg); err != nil {
		return err
	}

	conns, err := initInfrastructure(ctx, &cfg, logger)
	defer conns.Close(ctx, logger)
	if err != nil {
		return err
	}

	if conns.db != nil {
		if cfg.Postgres.RunMigrationsOnStart {
			if err = bootstrap.RunMigrations(ctx, conns.db, logger); err != nil {
				return err
			}
		} else {
			logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
		}
	}

	stores, err := bootstrap.BuildStores(bootstrap.StoreDeps{
		Backend: cfg.Store.Backend,
		DB:      conns.db,
		Mongo:   conns.mdb,
	})
	if err != nil {
		return err
	}

	services, err := bootstrap.NewServices(ctx, &bootstrap.ServiceDeps{
		Config:      &cfg,
		Stores:      stores,
		RedisClient: conns.redis,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	return bootstrap.RunServicesWithShutdown(&bootstrap.ServiceOrchestrationConfig{
		Config:   &cfg,
		Services: services,
		Logger:   logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting admin console",
		"auth_mode", cfg.Auth.Mode,
		"store_backend", cfg.Store.Backend,
		"db_host", cfg.Postgres.Host,
		"db_name", cfg.Postgres.Name,
		"dev", cfg.IsDev)
}

// initInfrastructure connects the shared dependencies the configuration asks for.
// The returned infra is always non-nil so the caller can close partial connections.
func initInfrastructure(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*infra, error) {
	conns := &infra{}
	dbCfg := bootstrap.DatabaseConfig{
		DBConfig:    cfg.Postgres,
		RedisConfig: cfg.Redis,
		MongoConfig: cfg.Mongo,
		Logger:      logger,
	}

	if cfg.UsesPostgres() {
		db, err := bootstrap.ConnectDB(dbCfg)
		if err != nil {
			return conns, fmt.Errorf("connect db: %w", err)
		}
		conns.db = db
	}

	redisClient, err := bootstrap.ConnectRedis(dbCfg)
	if err != nil {
		return conns, fmt.Errorf("connect redis: %w", err)
	}
	conns.redis = redisClient

	if cfg.Store.Backend == config.StoreBackendMongo {
		client, mdb, err := bootstrap.ConnectMongo(ctx, dbCfg)
		if err != nil {
			return conns, fmt.Errorf("connect mongo: %w", err)
		}
		conns.mongo, conns.mdb = client, mdb
	}

	if conns.db == nil && conns.mdb == nil {
		return conns, errors.New("no document store connected")
	}
	return conns, nil
}
