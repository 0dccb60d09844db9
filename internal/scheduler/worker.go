// Package scheduler runs scan and backfill tasks off a Redis-backed
// asynq queue, either on demand or on a cron schedule.
package scheduler

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	geocodesvc "propscan_backend/internal/geocoding/service"
	propstransport "propscan_backend/internal/properties/transport"
	"propscan_backend/platform/config"
	"propscan_backend/platform/logger"
)

// ScanRunner executes one identity-resolution scan.
type ScanRunner interface {
	RunScan(ctx context.Context) (propstransport.ScanRunStats, error)
}

// BackfillRunner executes one coordinate backfill.
type BackfillRunner interface {
	Backfill(ctx context.Context, limit int, progress geocodesvc.ProgressFunc) (geocodesvc.RunStats, error)
}

// Worker consumes scheduled tasks and runs them against the same
// services the HTTP triggers use.
type Worker struct {
	server       *asynq.Server
	mux          *asynq.ServeMux
	scan         ScanRunner
	backfill     BackfillRunner
	defaultLimit int
	log          *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, scan ScanRunner, backfill BackfillRunner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:       server,
		mux:          mux,
		scan:         scan,
		backfill:     backfill,
		defaultLimit: cfg.GetGeocodeBatchLimit(),
		log:          log,
	}

	mux.HandleFunc(TaskPropertiesScan, w.handlePropertiesScan)
	mux.HandleFunc(TaskGeocodingBackfill, w.handleGeocodingBackfill)

	return w, nil
}

func (w *Worker) handlePropertiesScan(ctx context.Context, _ *asynq.Task) error {
	stats, err := w.scan.RunScan(ctx)
	if err != nil {
		return err
	}
	w.log.Info("scheduled scan finished",
		"run_id", stats.RunID,
		"total_listings", stats.TotalListings,
		"clusters_found", stats.ClustersFound,
	)
	return nil
}

func (w *Worker) handleGeocodingBackfill(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseGeocodingBackfillPayload(task)
	if err != nil {
		return err
	}

	limit := payload.Limit
	if limit <= 0 {
		limit = w.defaultLimit
	}

	stats, err := w.backfill.Backfill(ctx, limit, func(s geocodesvc.RunStats) {
		w.log.Info("scheduled backfill progress",
			"processed", s.Processed, "successful", s.Successful, "failed", s.Failed)
	})
	if err != nil {
		return err
	}
	w.log.Info("scheduled backfill finished",
		"run_id", stats.RunID,
		"processed", stats.Processed,
		"successful", stats.Successful,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
	)
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
