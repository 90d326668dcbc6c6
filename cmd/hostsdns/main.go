package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/poyrazK/hostsdns/internal/adapters/api"
	"github.com/poyrazK/hostsdns/internal/adapters/repository"
	"github.com/poyrazK/hostsdns/internal/core/ports"
	"github.com/poyrazK/hostsdns/internal/core/services"
	"github.com/poyrazK/hostsdns/internal/infrastructure/config"
	"github.com/poyrazK/hostsdns/internal/infrastructure/metrics"
	"github.com/poyrazK/hostsdns/internal/infrastructure/ratelimit"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeDB(db, "api", logger)

	if err := repository.Migrate(ctx, db); err != nil {
		return err
	}

	var metricsDB *sql.DB
	if cfg.MetricsEnabled {
		metricsDB, err = sql.Open("pgx", cfg.MetricsURL)
		if err != nil {
			return fmt.Errorf("failed to open metrics database: %w", err)
		}
		defer closeDB(metricsDB, "metrics", logger)
	}

	limiter, release := newLoginLimiter(ctx, cfg, logger)
	defer release()

	handler, err := newHandler(cfg, db, metricsDB, limiter, logger)
	if err != nil {
		return err
	}
	go trackConnections(ctx, db, 15*time.Second)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serve(ctx, srv, logger)
}

// newHandler wires repositories and services into the HTTP router. metricsDB may be nil.
func newHandler(cfg *config.Config, db, metricsDB *sql.DB, limiter ports.RateLimiter, logger *slog.Logger) (http.Handler, error) {
	codec, err := services.NewTokenCodec(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}
	repo := repository.NewPostgresRepository(db)

	deps := api.Deps{
		Users: services.NewUserService(repo, codec, services.UserOptions{
			SignupsEnabled: cfg.SignupsEnabled,
			TOTPEnabled:    cfg.TOTPEnabled,
			BcryptCost:     cfg.BcryptCost,
		}),
		Zones:        services.NewZoneService(repo, logger),
		Auth:         services.NewTokenVerifier(codec, services.NewAPIKeyResolver(repo)),
		LoginLimiter: limiter,
		Features:     api.Features{Signup: cfg.SignupsEnabled, TOTP: cfg.TOTPEnabled},
		Nameservers:  cfg.Nameservers,
		Proxies:      api.TrustedProxies(cfg.TrustedProxies),
		Logger:       logger,
	}
	if metricsDB != nil {
		deps.QueryMetrics = repository.NewQueryMetricsRepository(metricsDB)
	}
	return api.NewAPIHandler(deps).Routes(), nil
}

// newLoginLimiter picks the shared Redis limiter when configured, the in-process one otherwise.
func newLoginLimiter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.RateLimiter, func()) {
	if cfg.RedisAddr != "" {
		rl := ratelimit.NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.LoginRatePerMinute, time.Minute)
		if err := rl.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, login limiter will fail open until it recovers", "addr", cfg.RedisAddr, "error", err)
		}
		return rl, func() {
			if err := rl.Close(); err != nil {
				logger.Warn("failed to close redis client", "error", err)
			}
		}
	}

	rl := ratelimit.NewMemoryLimiter(cfg.LoginRatePerMinute)
	cleanupCtx, cancel := context.WithCancel(ctx)
	go rl.RunCleanup(cleanupCtx, time.Minute)
	return rl, cancel
}

func serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("management API listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func trackConnections(ctx context.Context, db *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		metrics.DBConnectionsActive.Set(float64(db.Stats().OpenConnections))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func closeDB(db *sql.DB, name string, logger *slog.Logger) {
	if err := db.Close(); err != nil {
		logger.Warn("failed to close database", "db", name, "error", err)
	}
}
