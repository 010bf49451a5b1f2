package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/watching-app/watching/internal/auth"
	"github.com/watching-app/watching/internal/cache"
	"github.com/watching-app/watching/internal/catalog"
	"github.com/watching-app/watching/internal/config"
	"github.com/watching-app/watching/internal/handler"
	"github.com/watching-app/watching/internal/logging"
	"github.com/watching-app/watching/internal/model"
	"github.com/watching-app/watching/internal/ratelimit"
	"github.com/watching-app/watching/internal/repository"
	"github.com/watching-app/watching/internal/router"
	"github.com/watching-app/watching/internal/service"
	"github.com/watching-app/watching/seeds"
)

const demoRecords = 5

type recordStore interface {
	service.RecordStore
	handler.Pinger
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mode := ""
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	// ------------ Record store ---------------
	store, closeStore, err := openStore(ctx, cfg, mode)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open record store")
	}
	defer closeStore()

	switch mode {
	case "migrate-down":
		logging.Info().Msg("migrations dropped")
		return
	case "seed":
		if err := seeds.Setup(ctx, store, demoRecords); err != nil {
			logging.Fatal().Err(err).Msg("failed to seed")
		}
		return
	case "":
	default:
		logging.Fatal().Str("mode", mode).Msg("unknown command, expected migrate-down or seed")
	}

	// ------------ Redis ---------------
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to parse redis url")
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	searchCache := cache.NewCache(rdb, cfg.Catalog.CacheTTL)

	// ------------ Upstreams ---------------
	oracle := model.NewClient(cfg.Oracle.BaseURL, cfg.Oracle.APIKey, model.Options{
		Model:     cfg.Oracle.Model,
		MaxTokens: cfg.Oracle.MaxTokens,
		Timeout:   cfg.Oracle.Timeout,
	})
	catalogClient := catalog.NewClient(catalog.Options{
		BaseURL:  cfg.Catalog.BaseURL,
		APIKey:   cfg.Catalog.APIKey,
		Language: cfg.Catalog.Language,
		Timeout:  cfg.Catalog.Timeout,
		Breaker:  catalog.DefaultBreakerConfig(),
	})

	// ------------ Pipeline ---------------
	svc := service.NewService(store, oracle, catalogClient, searchCache, service.Options{
		Temperature:       cfg.Oracle.Temperature,
		RepairTemperature: cfg.Oracle.RepairTemperature,
		BatchSize:         cfg.Catalog.BatchSize,
		BatchDelay:        cfg.Catalog.BatchDelay,
	})

	h := handler.NewHandler(svc, service.NewBrowse(catalogClient), map[string]handler.Pinger{
		"store": store,
		"redis": searchCache,
	})

	verifier := auth.NewVerifier(auth.Options{
		Disabled: cfg.Auth.Disabled,
		Secret:   cfg.Auth.JWTSecret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
	})

	var limitStore ratelimit.Store
	if !cfg.RateLimit.Disabled {
		limitStore = ratelimit.NewRedisStore(rdb)
	}
	limiter := ratelimit.New(limitStore, cfg.RateLimit.Requests, cfg.RateLimit.Window)

	// ---------------- Server --------------------
	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: router.Setup(h, verifier, limiter, router.Options{
			RequestTimeout:         cfg.Server.RequestTimeout,
			CORSOrigins:            cfg.Server.CORSOrigins,
			ProxyRequestsPerMinute: cfg.Server.ProxyRequestsPerMinute,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// openStore connects the configured record store and applies migrations.
// In migrate-down mode it drops them instead.
func openStore(ctx context.Context, cfg *config.Config, mode string) (recordStore, func(), error) {
	if cfg.Database.Driver == "sqlite" {
		if mode == "migrate-down" {
			return nil, nil, errors.New("migrate-down is only supported for postgres")
		}
		repo, err := repository.OpenSQLite(cfg.Database.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logging.Info().Str("path", cfg.Database.SQLitePath).Msg("using sqlite")
		return repo, func() { repo.Close() }, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.Database.PoolSize)
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := waitForDB(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("database not ready: %w", err)
	}
	logging.Info().Msg("connected to PostgreSQL")

	repo := repository.New(pool)
	if mode == "migrate-down" {
		err = repo.MigrateDown(ctx)
	} else {
		err = repo.MigrateUp(ctx)
	}
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	return repo, pool.Close, nil
}

func waitForDB(ctx context.Context, pool *pgxpool.Pool) error {
	for i := 0; i < 30; i++ {
		if err := pool.Ping(ctx); err == nil {
			return nil
		}
		logging.Info().Int("attempt", i+1).Msg("waiting for database")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return fmt.Errorf("database connection timeout after 30s")
}
