// The ingest-worker binary consumes the normalized listing stream from
// RabbitMQ and feeds it into the listings service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"propscan_backend/internal/events"
	"propscan_backend/internal/ingest"
	listingrepo "propscan_backend/internal/listings/repository"
	listingsvc "propscan_backend/internal/listings/service"
	"propscan_backend/internal/ownership"
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
	log.Info("starting ingest worker", "env", cfg.Env, "queue", cfg.GetListingQueueName())

	if cfg.GetRabbitMQURL() == "" {
		panic("RABBITMQ_URL environment variable is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	keywords, err := ownership.LoadKeywords(cfg.GetOwnershipRulesPath())
	if err != nil {
		log.Error("failed to load ownership rules", "error", err)
		panic("failed to load ownership rules: " + err.Error())
	}

	eventBus := events.NewInMemoryBus(log)
	service := listingsvc.New(listingrepo.New(pool), ownership.NewClassifier(keywords), eventBus, log)

	consumer := ingest.NewConsumer(cfg, service, validator.New(), log)
	if err := consumer.Run(ctx); err != nil {
		log.Error("ingest consumer failed", "error", err)
		panic("ingest consumer failed: " + err.Error())
	}
	log.Info("ingest worker stopped")
}
