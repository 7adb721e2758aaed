package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/target/admin-console/config"
	"github.com/target/admin-console/internal/bootstrap"
	"github.com/target/admin-console/internal/devseed"
	"github.com/target/admin-console/internal/migrate"
	"github.com/target/admin-console/internal/service"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
}

const (
	defaultMigrationTimeout = 5 * time.Minute
	defaultSetupTimeout     = time.Minute
)

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			description: "Run database migrations (\"migrate status\" lists pending ones)",
			run:         runMigrations,
		},
		"setup-admin": {
			name:        "setup-admin",
			description: "Create or repair the bootstrap administrator account and profile",
			run:         runSetupAdmin,
		},
		"db-seed": {
			name:        "db-seed",
			description: "Run migrations and seed a development team and task board",
			run:         runDBSeed,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: console-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-14s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

type migrateOptions struct {
	Timeout time.Duration
	Status  bool
}

type setupAdminOptions struct {
	Timeout  time.Duration
	Email    string
	Username string
	Password string
}

type dbSeedOptions struct {
	Timeout     time.Duration
	AllowRemote bool
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}

	return withInfra(cmdCtx, opts.Timeout, func(ctx context.Context, in *adminInfra) error {
		if in.db == nil {
			return errors.New("migrations need a PostgreSQL connection")
		}
		if opts.Status {
			statuses, statusErr := migrate.Pending(ctx, in.db)
			if statusErr != nil {
				return fmt.Errorf("migration status: %w", statusErr)
			}
			return printMigrationStatus(os.Stdout, statuses)
		}

		cmdCtx.Logger.Info("running database migrations")
		if migrateErr := bootstrap.RunMigrations(ctx, in.db, cmdCtx.Logger); migrateErr != nil {
			return migrateErr
		}
		cmdCtx.Logger.Info("migrations completed successfully")
		return nil
	})
}

func printMigrationStatus(w io.Writer, statuses []migrate.Status) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "VERSION\tSTATE\n"); err != nil {
		return err
	}
	pending := 0
	for _, s := range statuses {
		state := "applied"
		if !s.Applied {
			state = "pending"
			pending++
		}
		if err := writef(tw, "%s\t%s\n", s.Version, state); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writef(w, "\n%d of %d migrations pending\n", pending, len(statuses))
}

func runSetupAdmin(cmdCtx *commandContext, args []string) error {
	opts, err := parseSetupAdminFlags(args, cmdCtx.Config.Auth.BootstrapAdmin)
	if err != nil {
		return err
	}

	return withInfra(cmdCtx, opts.Timeout, func(ctx context.Context, in *adminInfra) error {
		svcs, svcErr := in.services(ctx, cmdCtx)
		if svcErr != nil {
			return svcErr
		}
		res, setupErr := svcs.Setup.EnsureBootstrapAdmin(ctx, service.BootstrapAdminRequest{
			Email:    opts.Email,
			Password: opts.Password,
			Username: opts.Username,
		})
		if setupErr != nil {
			return setupErr
		}
		return writef(os.Stdout, "admin %s ready (uid %s, registered=%t, profile_created=%t)\n",
			res.Email, res.UID, res.Registered, res.ProfileCreated)
	})
}

func runDBSeed(cmdCtx *commandContext, args []string) error {
	opts, err := parseDBSeedFlags(args)
	if err != nil {
		return err
	}

	if _, guardErr := guardRemoteHost(cmdCtx, opts.AllowRemote, "seed development data on the configured database"); guardErr != nil {
		return guardErr
	}

	return withInfra(cmdCtx, opts.Timeout, func(ctx context.Context, in *adminInfra) error {
		if in.db != nil {
			cmdCtx.Logger.Info("ensuring database migrations are current")
			if migrateErr := bootstrap.RunMigrations(ctx, in.db, cmdCtx.Logger); migrateErr != nil {
				return migrateErr
			}
		}

		svcs, svcErr := in.services(ctx, cmdCtx)
		if svcErr != nil {
			return svcErr
		}

		admin := cmdCtx.Config.Auth.BootstrapAdmin
		cmdCtx.Logger.Info("seeding development data")
		if seedErr := devseed.Run(ctx, devseed.Services{
			Profiles: in.stores.Profiles,
			Team:     svcs.Profiles,
			Tasks:    svcs.Tasks,
			Setup:    svcs.Setup,
		}, devseed.Admin{
			Email:    admin.Email,
			Username: admin.Username,
			Password: admin.Password,
		}, cmdCtx.Logger); seedErr != nil {
			return fmt.Errorf("seed data: %w", seedErr)
		}

		cmdCtx.Logger.Info("database seeding completed successfully", "member_password", devseed.DefaultPassword)
		return nil
	})
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := migrateOptions{
		Timeout: defaultMigrationTimeout,
	}

	fs.DurationVar(
		&opts.Timeout,
		"timeout",
		defaultMigrationTimeout,
		"Maximum duration to wait for migrations to complete",
	)

	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}

	switch rest := fs.Args(); {
	case len(rest) == 0:
	case len(rest) == 1 && rest[0] == "status":
		opts.Status = true
	default:
		return migrateOptions{}, fmt.Errorf("unexpected arguments %v (only \"status\" is supported)", rest)
	}

	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be greater than zero")
	}

	return opts, nil
}

func parseSetupAdminFlags(args []string, defaults config.BootstrapAdminConfig) (setupAdminOptions, error) {
	fs := flag.NewFlagSet("setup-admin", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := setupAdminOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultSetupTimeout, "Maximum duration for the setup")
	fs.StringVar(&opts.Email, "email", defaults.Email, "Administrator email")
	fs.StringVar(&opts.Username, "username", defaults.Username, "Administrator display name")
	fs.StringVar(
		&opts.Password,
		"password",
		defaults.Password,
		"Administrator password (defaults to AUTH_BOOTSTRAP_ADMIN_PASSWORD)",
	)

	if err := fs.Parse(args); err != nil {
		return setupAdminOptions{}, err
	}

	if opts.Timeout <= 0 {
		return setupAdminOptions{}, errors.New("--timeout must be greater than zero")
	}
	if opts.Password == "" {
		return setupAdminOptions{}, errors.New("--password or AUTH_BOOTSTRAP_ADMIN_PASSWORD is required")
	}

	return opts, nil
}

func parseDBSeedFlags(args []string) (dbSeedOptions, error) {
	fs := flag.NewFlagSet("db-seed", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := dbSeedOptions{
		Timeout: defaultMigrationTimeout,
	}

	fs.DurationVar(
		&opts.Timeout,
		"timeout",
		defaultMigrationTimeout,
		"Maximum duration to wait for seeding to complete",
	)
	fs.BoolVar(
		&opts.AllowRemote,
		"allow-remote",
		false,
		"Permit running against database hosts that do not look local",
	)

	if err := fs.Parse(args); err != nil {
		return dbSeedOptions{}, err
	}

	if opts.Timeout <= 0 {
		return dbSeedOptions{}, errors.New("--timeout must be greater than zero")
	}

	return opts, nil
}

func withInfra(
	cmdCtx *commandContext,
	timeout time.Duration,
	f func(context.Context, *adminInfra) error,
) error {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	in, err := openInfra(ctx, cmdCtx)
	defer in.Close(cmdCtx.Logger)
	if err != nil {
		return err
	}

	return f(ctx, in)
}
