package scheduler

import (
	"context"

	"propscan_backend/internal/events"
	"propscan_backend/platform/config"
	"propscan_backend/platform/logger"
)

// RegisterEventHandlers chains a geocoding backfill after every
// completed scan: new canonical records usually arrive without
// coordinates, so a scan is the natural moment to start filling them.
func RegisterEventHandlers(bus events.Bus, enqueuer BackfillEnqueuer, cfg config.SchedulerConfig, log *logger.Logger) {
	bus.Subscribe(events.ScanCompleted{}.EventName(), events.HandlerFunc(
		func(ctx context.Context, event events.Event) error {
			completed, ok := event.(events.ScanCompleted)
			if !ok {
				return nil
			}
			if completed.PropertiesCreated == 0 && completed.PropertiesUpdated == 0 {
				return nil
			}
			if err := enqueuer.EnqueueGeocodingBackfill(ctx, cfg.GetGeocodeBatchLimit()); err != nil {
				log.Error("failed to enqueue backfill after scan",
					"run_id", completed.RunID, "error", err)
				return err
			}
			log.Info("backfill enqueued after scan", "run_id", completed.RunID)
			return nil
		}))
}
