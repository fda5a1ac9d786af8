// Package main is the entry point for the Ventra catalog server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ventra/catalog-server/internal/cache/memory"
	"github.com/ventra/catalog-server/internal/config"
	"github.com/ventra/catalog-server/internal/handler"
	"github.com/ventra/catalog-server/internal/lock"
	"github.com/ventra/catalog-server/internal/media"
	"github.com/ventra/catalog-server/internal/metrics"
	"github.com/ventra/catalog-server/internal/repository"
	"github.com/ventra/catalog-server/internal/repository/postgres"
	"github.com/ventra/catalog-server/internal/repository/redisdb"
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
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	logger := newLogger(cfg.Logging)

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting catalog server")

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	repos, dbHealth, closeDB, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	// Cache and locking: Redis when enabled, in-process fallbacks otherwise.
	var (
		cache  repository.Cache
		locker lock.Locker
	)
	if cfg.Redis.Enabled {
		redisClient, err := redisdb.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer redisClient.Close()
		cache = redisdb.NewCache(redisClient)
		locker = lock.NewRedisLocker(redisdb.NewLock(redisClient))
	} else {
		memCache := memory.NewCache()
		defer memCache.Stop()
		cache = memCache

		memLocker := lock.NewMemoryLocker()
		defer memLocker.Stop()
		locker = memLocker
	}

	// Media store
	mediaStore, err := media.NewS3Store(ctx, cfg.Media, logger)
	if err != nil {
		return fmt.Errorf("media store: %w", err)
	}

	// Services
	clock := service.SystemClock{}
	gate := service.NewSignupGateService(repos.SignupAttempt, locker, clock, cfg.SignupGate, logger)
	users := service.NewUserService(repos.User, gate, cache, clock, logger)
	categories := service.NewCategoryService(repos.Category, cache, locker, clock, logger)
	products := service.NewProductService(repos.Product, cache, clock, logger)
	mediaSvc := service.NewMediaService(mediaStore, cfg.Media.KeyPrefix, logger)

	// HTTP
	router := handler.NewRouter(handler.RouterConfig{
		UserHandler:     handler.NewUserHandler(users, logger),
		CategoryHandler: handler.NewCategoryHandler(categories, logger),
		ProductHandler:  handler.NewProductHandler(products, logger),
		UploadHandler:   handler.NewUploadHandler(mediaSvc, cfg.Media.MaxUploadSize, logger),
		HealthHandler:   handler.NewHealthHandler(dbHealth, logger),
		RateLimit:       cfg.RateLimit,
		MetricsEnabled:  cfg.Metrics.Enabled,
		Logger:          logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Metrics.Port),
			Handler: mux,
		}
		go func() {
			logger.Info().Str("addr", metricsServer.Addr).Str("path", cfg.Metrics.Path).Msg("metrics server listening")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server error")
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown error")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	return nil
}

// openDatabase connects to the configured backend, runs migrations and
// builds the repository set.
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

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	logger := log.Logger.Level(level)
	if cfg.Format == "console" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	return logger
}
