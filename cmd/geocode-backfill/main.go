// The geocode-backfill binary fills in missing coordinates on canonical
// property records, paced to the external geocoder's rate limit. Safe to
// re-run at any time: it only ever selects records still missing a
// location.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	geocodeclient "propscan_backend/internal/geocoding/client"
	geocodesvc "propscan_backend/internal/geocoding/service"
	proprepo "propscan_backend/internal/properties/repository"
	"propscan_backend/platform/config"
	"propscan_backend/platform/db"
	"propscan_backend/platform/logger"
)

func main() {
	limit := flag.Int("limit", 0, "maximum records to process (0 = all)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting geocode backfill", "limit", *limit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	geocoder := geocodeclient.New(cfg, log)
	service := geocodesvc.New(proprepo.New(pool), geocoder,
		cfg.GetGeocoderMinInterval(), cfg.GetGeocoderFallbackCity(), log)

	stats, err := service.Backfill(ctx, *limit, func(s geocodesvc.RunStats) {
		log.Info("backfill progress",
			"processed", s.Processed, "successful", s.Successful,
			"failed", s.Failed, "skipped", s.Skipped)
	})
	if err != nil {
		log.Error("backfill failed", "error", err)
		panic("backfill failed: " + err.Error())
	}

	log.Info("backfill finished",
		"run_id", stats.RunID,
		"total", stats.Total,
		"processed", stats.Processed,
		"successful", stats.Successful,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
	)
}
