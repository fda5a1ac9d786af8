// Package main is the entry point for the catalog admin CLI.
// It provides account lifecycle commands and schema migrations for
// operators, bypassing the HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/ventra/catalog-server/internal/config"
	"github.com/ventra/catalog-server/internal/lock"
	"github.com/ventra/catalog-server/internal/repository"
	"github.com/ventra/catalog-server/internal/repository/postgres"
	"github.com/ventra/catalog-server/internal/repository/sqlite"
	"github.com/ventra/catalog-server/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version":
		fmt.Printf("Catalog Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "migrate":
		runOrDie(cmdMigrate(os.Args[2:]))

	case "user":
		if len(os.Args) < 3 {
			printUsage()
			os.Exit(1)
		}
		runOrDie(cmdUser(os.Args[2], os.Args[3:]))

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runOrDie(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func cmdMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	fs.Parse(args)

	ctx := context.Background()
	cfg := config.MustLoad(*configPath)
	logger := newLogger()

	_, _, closeDB, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	fmt.Println("migrations applied")
	return nil
}

func cmdUser(sub string, args []string) error {
	fs := flag.NewFlagSet("user "+sub, flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	actor := fs.String("by", "admin-cli", "operator recorded as the disabling actor")
	reason := fs.String("reason", "", "reason recorded with the disable")

	// Subcommands that take an ID expect it as the first positional arg.
	var idArg string
	if len(args) > 0 && args[0][0] != '-' {
		idArg = args[0]
		args = args[1:]
	}
	fs.Parse(args)

	ctx := context.Background()
	cfg := config.MustLoad(*configPath)
	logger := newLogger()

	repos, _, closeDB, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	clock := service.SystemClock{}
	gate := service.NewSignupGateService(repos.SignupAttempt, lock.NewNoOpLocker(), clock, cfg.SignupGate, logger)
	users := service.NewUserService(repos.User, gate, nil, clock, logger)

	switch sub {
	case "list":
		all, err := users.List(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%-6s %-30s %-10s %s\n", "ID", "EMAIL", "DISABLED", "AUTH UID")
		for _, u := range all {
			fmt.Printf("%-6d %-30s %-10t %s\n", u.ID, u.Email, u.Disabled, u.AuthUID)
		}
		return nil

	case "disable":
		id, err := parseID(idArg)
		if err != nil {
			return err
		}
		user, err := users.Disable(ctx, id, *actor, *reason)
		if err != nil {
			return err
		}
		fmt.Printf("user %d (%s) disabled\n", user.ID, user.Email)
		return nil

	case "enable":
		id, err := parseID(idArg)
		if err != nil {
			return err
		}
		user, err := users.Enable(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("user %d (%s) enabled\n", user.ID, user.Email)
		return nil

	case "delete":
		id, err := parseID(idArg)
		if err != nil {
			return err
		}
		if err := users.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Printf("user %d deleted\n", id)
		return nil

	default:
		return fmt.Errorf("unknown user subcommand: %s", sub)
	}
}

func parseID(arg string) (int64, error) {
	if arg == "" {
		return 0, fmt.Errorf("missing user ID")
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user ID %q", arg)
	}
	return id, nil
}

func openDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*repository.Repositories, repository.DatabaseHealth, func(), error) {
	if cfg.Database.IsEmbedded() {
		db, err := sqlite.NewDB(ctx, sqlite.Config{
			Path:            cfg.Database.Path,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			JournalMode:     cfg.Database.JournalMode,
			BusyTimeout:     cfg.Database.BusyTimeout,
			SynchronousMode: cfg.Database.SynchronousMode,
		}, logger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("sqlite: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("sqlite migrate: %w", err)
		}
		return sqlite.NewRepositories(db), db, func() { db.Close() }, nil
	}

	db, err := postgres.NewDB(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("postgres: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("postgres migrate: %w", err)
	}
	return postgres.NewRepositories(db), db, func() { db.Close() }, nil
}

func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(zerolog.WarnLevel).
		With().Timestamp().Logger()
}

func printUsage() {
	fmt.Println(`Catalog Admin CLI

Usage:
  catalog-admin <command> [arguments]

Commands:
  user list                 List all accounts
  user disable <id>         Disable an account (--by, --reason)
  user enable <id>          Enable an account
  user delete <id>          Delete an account
  migrate                   Apply pending schema migrations
  version                   Print version information
  help                      Show this help message

All commands accept --config to point at a configuration file; the
CATALOG_* environment variables work as well.

Examples:
  catalog-admin user list
  catalog-admin user disable 42 --by ops@ventra.io --reason "chargeback fraud"
  catalog-admin user enable 42
  catalog-admin migrate --config ./configs/config.yaml`)
}
