package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"propscan_backend/internal/dedupe"
	"propscan_backend/internal/events"
	"propscan_backend/internal/geocoding"
	apphttp "propscan_backend/internal/http"
	"propscan_backend/internal/http/router"
	"propscan_backend/internal/listings"
	"propscan_backend/internal/ownership"
	"propscan_backend/internal/properties"
	"propscan_backend/internal/scheduler"
	"propscan_backend/migrations"
	"propscan_backend/platform/config"
	"propscan_backend/platform/db"
	"propscan_backend/platform/logger"
	"propscan_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	keywords, err := ownership.LoadKeywords(cfg.GetOwnershipRulesPath())
	if err != nil {
		log.Error("failed to load ownership rules", "error", err)
		panic("failed to load ownership rules: " + err.Error())
	}
	classifier := ownership.NewClassifier(keywords)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	listingsModule := listings.NewModule(pool, classifier, eventBus, val, log)
	propertiesModule := properties.NewModule(pool, listingsModule.Repository(),
		dedupe.GatesFromConfig(cfg), eventBus, val, log)
	geocodingModule := geocoding.NewModule(propertiesModule.Repository(), cfg, val, log)

	// A finished scan chains a coordinate backfill through the task queue.
	if schedulerClient, closeClient := initSchedulerClient(cfg, log); schedulerClient != nil {
		defer closeClient()
		scheduler.RegisterEventHandlers(eventBus, schedulerClient, cfg, log)
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			listingsModule,
			propertiesModule,
			geocodingModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initSchedulerClient(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; post-scan backfill chaining disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return lastErr
}
