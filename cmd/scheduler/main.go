// The scheduler binary runs the asynq worker plus the cron registrar
// for periodic scan and backfill runs.
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"propscan_backend/internal/dedupe"
	"propscan_backend/internal/events"
	geocodeclient "propscan_backend/internal/geocoding/client"
	geocodesvc "propscan_backend/internal/geocoding/service"
	listingrepo "propscan_backend/internal/listings/repository"
	proprepo "propscan_backend/internal/properties/repository"
	propsvc "propscan_backend/internal/properties/service"
	"propscan_backend/internal/scheduler"
	"propscan_backend/platform/config"
	"propscan_backend/platform/db"
	"propscan_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	listingsRepo := listingrepo.New(pool)
	propertiesRepo := proprepo.New(pool)
	scanService := propsvc.New(propertiesRepo, listingsRepo, dedupe.GatesFromConfig(cfg), eventBus, log)

	geocoder := geocodeclient.New(cfg, log)
	backfillService := geocodesvc.New(propertiesRepo, geocoder,
		cfg.GetGeocoderMinInterval(), cfg.GetGeocoderFallbackCity(), log)

	schedulerClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() {
		_ = schedulerClient.Close()
	}()
	scheduler.RegisterEventHandlers(eventBus, schedulerClient, cfg, log)

	worker, err := scheduler.NewWorker(cfg, scanService, backfillService, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	periodic, err := scheduler.NewPeriodic(cfg, log)
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	go func() {
		defer wg.Done()
		go func() {
			<-ctx.Done()
			periodic.Shutdown()
		}()
		if err := periodic.Run(); err != nil {
			log.Error("periodic scheduler stopped", "error", err)
		}
	}()

	wg.Wait()
	log.Info("scheduler stopped")
}
