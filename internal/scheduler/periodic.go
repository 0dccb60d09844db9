package scheduler

import (
	"fmt"

	"github.com/hibiken/asynq"

	"propscan_backend/platform/config"
	"propscan_backend/platform/logger"
)

// Periodic registers the cron-driven scan and backfill tasks. Either
// cron spec may be empty to disable that schedule.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, log *logger.Logger) (*Periodic, error) {
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

	scheduler := asynq.NewScheduler(opt, nil)
	p := &Periodic{scheduler: scheduler, log: log}

	if spec := cfg.GetScanCronSpec(); spec != "" {
		task, err := NewPropertiesScanTask()
		if err != nil {
			return nil, err
		}
		if _, err := scheduler.Register(spec, task, asynq.Queue(queue)); err != nil {
			return nil, fmt.Errorf("register scan schedule: %w", err)
		}
		log.Info("scan schedule registered", "cron", spec)
	}

	if spec := cfg.GetGeocodeCronSpec(); spec != "" {
		task, err := NewGeocodingBackfillTask(GeocodingBackfillPayload{Limit: cfg.GetGeocodeBatchLimit()})
		if err != nil {
			return nil, err
		}
		if _, err := scheduler.Register(spec, task, asynq.Queue(queue)); err != nil {
			return nil, fmt.Errorf("register backfill schedule: %w", err)
		}
		log.Info("backfill schedule registered", "cron", spec)
	}

	return p, nil
}

// Run blocks until the scheduler stops.
func (p *Periodic) Run() error {
	return p.scheduler.Run()
}

// Shutdown stops the scheduler.
func (p *Periodic) Shutdown() {
	p.scheduler.Shutdown()
}
