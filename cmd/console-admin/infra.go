package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"

	"github.com/target/admin-console/config"
	"github.com/target/admin-console/internal/bootstrap"
	"github.com/target/admin-console/internal/service"
	"go.mongodb.org/mongo-driver/mongo"
)

// adminInfra holds the connections an admin command opened.
type adminInfra struct {
	db     *sql.DB
	mongo  *mongo.Client
	stores bootstrap.Stores
}

// adminServices are the services admin commands drive. No session manager is
// needed because commands talk to the identity provider directly.
type adminServices struct {
	Profiles *service.ProfileService
	Tasks    *service.TaskService
	Setup    *service.SetupService
}

func openInfra(ctx context.Context, cmdCtx *commandContext) (*adminInfra, error) {
	in := &adminInfra{}
	cfg := &cmdCtx.Config
	dbCfg := bootstrap.DatabaseConfig{
		DBConfig:    cfg.Postgres,
		MongoConfig: cfg.Mongo,
		Logger:      cmdCtx.Logger,
	}

	if cfg.UsesPostgres() {
		db, err := bootstrap.ConnectDB(dbCfg)
		if err != nil {
			return in, fmt.Errorf("connect db: %w", err)
		}
		in.db = db
	}

	var mdb *mongo.Database
	if cfg.Store.Backend == config.StoreBackendMongo {
		client, database, err := bootstrap.ConnectMongo(ctx, dbCfg)
		if err != nil {
			return in, fmt.Errorf("connect mongo: %w", err)
		}
		in.mongo, mdb = client, database
	}

	stores, err := bootstrap.BuildStores(bootstrap.StoreDeps{
		Backend: cfg.Store.Backend,
		DB:      in.db,
		Mongo:   mdb,
	})
	if err != nil {
		return in, err
	}
	in.stores = stores
	return in, nil
}

func (in *adminInfra) services(ctx context.Context, cmdCtx *commandContext) (*adminServices, error) {
	provider, err := bootstrap.BuildIdentityProvider(ctx, bootstrap.ProviderDeps{
		Auth:     cmdCtx.Config.Auth,
		IsDev:    cmdCtx.Config.IsDev,
		Accounts: in.stores.Accounts,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &adminServices{
		Profiles: service.NewProfileService(service.ProfileServiceOptions{
			Repo:     in.stores.Profiles,
			Provider: provider,
		}),
		Tasks: service.NewTaskService(service.TaskServiceOptions{
			Repo:     in.stores.Tasks,
			Profiles: in.stores.Profiles,
		}),
		Setup: service.NewSetupService(service.SetupServiceOptions{
			Provider: provider,
			Profiles: in.stores.Profiles,
			Logger:   cmdCtx.Logger,
		}),
	}, nil
}

func (in *adminInfra) Close(logger *slog.Logger) {
	if in == nil {
		return
	}
	if in.mongo != nil {
		if err := in.mongo.Disconnect(context.Background()); err != nil {
			logger.Warn("mongo disconnect failed", "error", err)
		}
	}
	if in.db != nil {
		if err := in.db.Close(); err != nil {
			logger.Warn("db close failed", "error", err)
		}
	}
}

func guardRemoteHost(cmdCtx *commandContext, allow bool, action string) (bool, error) {
	host := cmdCtx.Config.Postgres.Host
	if cmdCtx.Config.Store.Backend == config.StoreBackendMongo {
		host = mongoHost(cmdCtx.Config.Mongo.URI)
	}
	if !isLikelyRemoteHost(host) {
		return false, nil
	}
	if !allow {
		return true, fmt.Errorf(
			"refusing to run against potentially remote database host %q; re-run with --allow-remote if this is intentional",
			host,
		)
	}
	if err := requireRemoteHostConfirmation(os.Stdin, action, host); err != nil {
		return true, err
	}
	return true, nil
}

// mongoHost extracts the first host from a mongodb:// URI.
func mongoHost(uri string) string {
	rest := uri
	if _, after, ok := strings.Cut(rest, "://"); ok {
		rest = after
	}
	if _, after, ok := strings.Cut(rest, "@"); ok {
		rest = after
	}
	rest, _, _ = strings.Cut(rest, "/")
	rest, _, _ = strings.Cut(rest, ",")
	if h, _, err := net.SplitHostPort(rest); err == nil {
		return h
	}
	return rest
}

func isLikelyRemoteHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	if h == "" {
		return false
	}
	if h == "localhost" || h == "127.0.0.1" || h == "::1" {
		return false
	}
	if strings.HasSuffix(h, ".local") {
		return false
	}
	if ip := net.ParseIP(h); ip != nil {
		return !ip.IsLoopback()
	}
	return true
}

func requireRemoteHostConfirmation(in io.Reader, action, host string) error {
	if err := writef(
		os.Stderr,
		"\nWARNING: database host %q does not look like a local address.\n"+
			"This operation will %s.\n",
		host,
		action,
	); err != nil {
		return fmt.Errorf("print remote host warning: %w", err)
	}
	if err := writef(os.Stderr, "Type %q to continue or press enter to abort: ", host); err != nil {
		return fmt.Errorf("print remote host prompt: %w", err)
	}
	resp, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read confirmation: %w", err)
	}
	if strings.TrimSpace(resp) != host {
		return errors.New("aborted by user")
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
