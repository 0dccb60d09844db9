// The scan binary runs one identity-resolution pass and prints the
// resulting stats. Meant for operations and debugging; production scans
// go through the API or the scheduler.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"propscan_backend/internal/dedupe"
	listingrepo "propscan_backend/internal/listings/repository"
	proprepo "propscan_backend/internal/properties/repository"
	propsvc "propscan_backend/internal/properties/service"
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
	log.Info("starting one-shot scan")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	service := propsvc.New(proprepo.New(pool), listingrepo.New(pool),
		dedupe.GatesFromConfig(cfg), nil, log)

	stats, err := service.RunScan(ctx)
	if err != nil {
		log.Error("scan failed", "error", err)
		panic("scan failed: " + err.Error())
	}

	log.Info("scan finished",
		"run_id", stats.RunID,
		"total_listings", stats.TotalListings,
		"clusters_found", stats.ClustersFound,
		"multiagency", stats.MultiagencyCount,
		"exclusive", stats.ExclusiveCount,
		"created", stats.PropertiesCreated,
		"updated", stats.PropertiesUpdated,
	)
}
