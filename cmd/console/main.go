package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/target/admin-console/config"
	"github.com/target/admin-console/internal/adapters/filestore"
	"github.com/target/admin-console/internal/bootstrap"
	"github.com/target/admin-console/internal/cli"
	"github.com/target/admin-console/internal/service"
	"go.mongodb.org/mongo-driver/mongo"
)

var version = "dev"

func main() {
	if err := cli.Execute(version, openClient); err != nil {
		os.Exit(1) //nolint:forbidigo // CLI must propagate command failure to the shell
	}
}

// openClient runs the session manager in-process against the configured stores,
// keeping the session in a local file instead of Redis.
func openClient(ctx context.Context) (*cli.Client, error) {
	// Diagnostics stay quiet unless LOG_LEVEL=debug; commands print their own output.
	level := slog.LevelWarn
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := bootstrap.ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	path := os.Getenv("CONSOLE_SESSION_FILE")
	if path == "" {
		if path, err = filestore.DefaultPath(); err != nil {
			return nil, err
		}
	}

	var closers []io.Closer
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i].Close())
		}
		return errors.Join(errs...)
	}

	db, mdb, err := connect(ctx, &cfg, logger, &closers)
	if err != nil {
		return nil, errors.Join(err, closeAll())
	}

	stores, err := bootstrap.BuildStores(bootstrap.StoreDeps{Backend: cfg.Store.Backend, DB: db, Mongo: mdb})
	if err != nil {
		return nil, errors.Join(err, closeAll())
	}
	provider, err := bootstrap.BuildIdentityProvider(ctx, bootstrap.ProviderDeps{
		Auth:     cfg.Auth,
		IsDev:    cfg.IsDev,
		Accounts: stores.Accounts,
		Logger:   logger,
	})
	if err != nil {
		return nil, errors.Join(err, closeAll())
	}
	auth, err := bootstrap.BuildAuthService(bootstrap.AuthConfig{
		Auth:     cfg.Auth,
		Provider: provider,
		Sessions: filestore.CurrentSession{Store: filestore.NewSessionStore(path)},
		Profiles: stores.Profiles,
		Logger:   logger,
	})
	if err != nil {
		return nil, errors.Join(err, closeAll())
	}

	return &cli.Client{
		Auth: auth,
		Profiles: service.NewProfileService(service.ProfileServiceOptions{
			Repo:     stores.Profiles,
			Provider: provider,
		}),
		Tasks: service.NewTaskService(service.TaskServiceOptions{
			Repo:     stores.Tasks,
			Profiles: stores.Profiles,
		}),
		Close: closeAll,
	}, nil
}

type mongoCloser struct{ client *mongo.Client }

func (m mongoCloser) Close() error { return m.client.Disconnect(context.Background()) }

func connect(
	ctx context.Context,
	cfg *config.AppConfig,
	logger *slog.Logger,
	closers *[]io.Closer,
) (*sql.DB, *mongo.Database, error) {
	dbCfg := bootstrap.DatabaseConfig{
		DBConfig:    cfg.Postgres,
		MongoConfig: cfg.Mongo,
		Logger:      logger,
	}

	var db *sql.DB
	if cfg.UsesPostgres() {
		conn, err := bootstrap.ConnectDB(dbCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect db: %w", err)
		}
		*closers = append(*closers, conn)
		db = conn
	}

	var mdb *mongo.Database
	if cfg.Store.Backend == config.StoreBackendMongo {
		client, database, err := bootstrap.ConnectMongo(ctx, dbCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		*closers = append(*closers, mongoCloser{client})
		mdb = database
	}
	return db, mdb, nil
}
