// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Stockroom HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool) and run migrations.
//  4. Connect to Redis when REDIS_URL is set.
//  5. Build the security services (tokens, passwords, limiter, audit, RBAC).
//  6. Wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/taibuivan/stockroom/internal/api"
	"github.com/taibuivan/stockroom/internal/inventory"
	"github.com/taibuivan/stockroom/internal/platform/audit"
	"github.com/taibuivan/stockroom/internal/platform/config"
	"github.com/taibuivan/stockroom/internal/platform/constants"
	"github.com/taibuivan/stockroom/internal/platform/metrics"
	"github.com/taibuivan/stockroom/internal/platform/middleware"
	"github.com/taibuivan/stockroom/internal/platform/migration"
	pgstore "github.com/taibuivan/stockroom/internal/platform/postgres"
	"github.com/taibuivan/stockroom/internal/platform/ratelimit"
	"github.com/taibuivan/stockroom/internal/platform/rbac"
	redisstore "github.com/taibuivan/stockroom/internal/platform/redis"
	"github.com/taibuivan/stockroom/internal/platform/sec"
	"github.com/taibuivan/stockroom/internal/users/access"
	"github.com/taibuivan/stockroom/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	level := new(slog.LevelVar)
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")
	level.Set(cfg.SlogLevel())

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("hash_algorithm", cfg.PasswordHashAlgorithm),
	)
	if cfg.GeneratedSecret {
		log.Warn("jwt_secret_generated", slog.String("hint", "set JWT_SECRET; tokens will not survive a restart"))
	}

	// Root context for background workers; cancelled on shutdown.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Startup deadline so misconfiguration is caught quickly.
	startupCtx, startupCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	db := pgstore.OpenDB(pool)
	defer db.Close()

	// ── 4. Redis (optional) ───────────────────────────────────────────────
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		rdb, err = redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing_redis_client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis_close_error", slog.Any("error", cerr))
			}
		}()
	}

	// ── 5. Security services ──────────────────────────────────────────────
	registry := metrics.New()

	tokenService, err := sec.NewTokenService(cfg.JWTSecret, sec.TokenOptions{
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTTL(),
		RefreshTTL: cfg.RefreshTTL(),
	})
	must(log, err, "initialize token service")

	hashPool := sec.NewWorkerPool(cfg.HashWorkers)
	defer hashPool.Close()

	passwordService := sec.NewPasswordService(sec.PasswordOptions{
		Algorithm:  cfg.HashAlgorithm(),
		BcryptCost: cfg.BcryptCost,
		Pool:       hashPool,
	})

	var limiter ratelimit.Store
	var revocations auth.RevocationStore
	if rdb != nil {
		limiter = ratelimit.NewRedisStore(rdb, cfg.RateLimitPerMinute, time.Minute)
		revocations = auth.NewRedisRevocationStore(rdb)
	} else {
		memoryLimiter := ratelimit.NewLimiter(ratelimit.Options{
			Limit:  cfg.RateLimitPerMinute,
			Window: time.Minute,
			Burst:  cfg.RateLimitBurst,
		})
		sweeperDone := memoryLimiter.StartSweeper(rootCtx, constants.RateLimitSweepInterval)
		defer func() { <-sweeperDone }()
		defer rootCancel()

		limiter = memoryLimiter
		revocations = auth.NewMemoryRevocationStore()
	}

	var auditSink audit.Sink = audit.SlogSink{}
	if rdb != nil {
		auditSink = audit.MultiSink{
			audit.SlogSink{},
			audit.NewStreamSink(rdb, constants.RedisAuditStream, constants.RedisAuditStreamMaxLen),
		}
	}
	auditLogger := audit.NewLogger(audit.Options{Sink: auditSink, Metrics: registry})

	// ── 6. Health handlers (wired with real dependency checkers) ──────────
	dependencies := api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) },
	}
	if rdb != nil {
		dependencies.CheckCache = func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }
	}
	liveness, readiness := api.NewHealthHandlers(dependencies, log)

	// ── 7. Domain Wiring ──────────────────────────────────────────────────
	userRepository := auth.NewUserRepository(db)
	roleRepository := auth.NewRoleRepository(db)
	engine := rbac.NewEngine(auth.RoleLookup(roleRepository))

	authService := auth.NewService(auth.Options{
		Users:       userRepository,
		Roles:       roleRepository,
		Revocations: revocations,
		Passwords:   passwordService,
		Tokens:      tokenService,
		Audit:       auditLogger,
		Metrics:     registry,
		DefaultRole: cfg.DefaultRole,
	})
	accessService := access.NewService(engine, userRepository, roleRepository, authService, auditLogger)

	publicPaths := append(append([]string{}, middleware.DefaultPublicPaths...), cfg.PublicPaths...)

	// ── 8. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(cfg, log,
		middleware.Options{
			Logger:         log,
			Production:     cfg.IsProduction(),
			TrustProxy:     cfg.TrustProxyHeaders,
			AllowedOrigins: cfg.AllowedOrigins,
			MaxBodyBytes:   cfg.MaxBodyBytes,
			Limiter:        limiter,
			Verifier:       tokenService,
			Subjects:       authService,
			PublicPaths:    publicPaths,
			Metrics:        registry,
		},
		api.Handlers{
			Liveness:  liveness,
			Readiness: readiness,
			Auth:      auth.NewHandler(authService),
			Access:    access.NewHandler(accessService, engine),
			Inventory: inventory.NewHandler(inventory.NewPostgresStore(db), engine),
			Metrics:   registry,
		},
	)

	// ── 9. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting_down_server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
	}

	log.Info("server_stopped")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("step", step),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
