// Package service implements the coordinate backfill job and the
// address lookup passthrough.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"propscan_backend/internal/geocoding/client"
	"propscan_backend/internal/properties/repository"
	"propscan_backend/platform/logger"
)

// maxRecordedErrors bounds the error list carried in run stats so a run
// over thousands of failing records does not grow without bound.
const maxRecordedErrors = 50

// progressEvery is the record interval between progress callbacks.
const progressEvery = 10

// Geocoder is the forward-geocoding port.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]client.Result, error)
}

// PropertyStore is the slice of the properties repository the backfill
// needs: records missing coordinates, the coordinate write and the run
// history.
type PropertyStore interface {
	ListMissingCoordinates(ctx context.Context, limit int) ([]repository.SharedProperty, error)
	SetCoordinates(ctx context.Context, id uuid.UUID, latitude, longitude float64) error
	SaveGeocodingRun(ctx context.Context, run repository.GeocodingRun) (repository.GeocodingRun, error)
}

// RecordError identifies one failed record within a run.
type RecordError struct {
	PropertyID uuid.UUID `json:"propertyId"`
	Address    string    `json:"address"`
	Message    string    `json:"message"`
}

// RunStats summarizes one backfill run. processed always equals
// successful + failed + skipped.
type RunStats struct {
	RunID      uuid.UUID     `json:"runId"`
	Total      int           `json:"total"`
	Processed  int           `json:"processed"`
	Successful int           `json:"successful"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Errors     []RecordError `json:"errors,omitempty"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
}

// ProgressFunc receives running stats while a backfill is underway.
type ProgressFunc func(RunStats)

// Service runs coordinate backfills.
type Service struct {
	store        PropertyStore
	geocoder     Geocoder
	limiter      *rate.Limiter
	fallbackCity string
	logger       *logger.Logger
}

// New creates a new geocoding service. minInterval is the minimum gap
// between two calls to the external geocoder.
func New(store PropertyStore, geocoder Geocoder, minInterval time.Duration, fallbackCity string, log *logger.Logger) *Service {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if minInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(minInterval), 1)
	}
	return &Service{
		store:        store,
		geocoder:     geocoder,
		limiter:      limiter,
		fallbackCity: fallbackCity,
		logger:       log,
	}
}

// Backfill geocodes every stored property still missing coordinates,
// optionally capped by limit (<= 0 means all). Coordinates are written
// per record as soon as they are known, so partial progress survives a
// crash and a second invocation resumes where the first left off. A
// failing record never aborts the run; cancellation via ctx does.
func (s *Service) Backfill(ctx context.Context, limit int, progress ProgressFunc) (RunStats, error) {
	stats := RunStats{StartedAt: time.Now().UTC()}

	pending, err := s.store.ListMissingCoordinates(ctx, limit)
	if err != nil {
		return stats, fmt.Errorf("backfill: list pending properties: %w", err)
	}
	stats.Total = len(pending)

	log := s.logger.WithContext(ctx)
	log.Info("geocoding backfill started", "total", stats.Total)

	for _, prop := range pending {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		if !prop.HasUsableAddress() {
			stats.Skipped++
			s.recordProcessed(&stats, progress)
			continue
		}

		query := s.buildQuery(prop)

		// One call at a time, never faster than the external service's
		// minimum interval.
		if err := s.limiter.Wait(ctx); err != nil {
			return stats, err
		}

		results, err := s.geocoder.Search(ctx, query)
		switch {
		case err != nil:
			stats.Failed++
			s.recordError(&stats, prop, err.Error())
			log.Error("geocode failed", "property_id", prop.ID, "error", err)
		case len(results) == 0:
			stats.Failed++
			s.recordError(&stats, prop, "no geocode result")
			log.Info("no geocode result", "property_id", prop.ID, "query", query)
		default:
			best := results[0]
			if err := s.store.SetCoordinates(ctx, prop.ID, best.Latitude, best.Longitude); err != nil {
				stats.Failed++
				s.recordError(&stats, prop, err.Error())
				log.Error("failed to store coordinates", "property_id", prop.ID, "error", err)
			} else {
				stats.Successful++
				log.Info("property geocoded", "property_id", prop.ID,
					"lat", best.Latitude, "lon", best.Longitude)
			}
		}

		s.recordProcessed(&stats, progress)
	}

	stats.FinishedAt = time.Now().UTC()

	run, err := s.store.SaveGeocodingRun(ctx, repository.GeocodingRun{
		Total:      stats.Total,
		Processed:  stats.Processed,
		Successful: stats.Successful,
		Failed:     stats.Failed,
		Skipped:    stats.Skipped,
		StartedAt:  stats.StartedAt,
		FinishedAt: stats.FinishedAt,
	})
	if err != nil {
		return stats, err
	}
	stats.RunID = run.ID

	log.Info("geocoding backfill finished",
		"run_id", run.ID,
		"processed", stats.Processed,
		"successful", stats.Successful,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
	)
	return stats, nil
}

// Lookup forward-geocodes a free-text query for the address lookup
// endpoint.
func (s *Service) Lookup(ctx context.Context, query string) ([]client.Result, error) {
	return s.geocoder.Search(ctx, query)
}

func (s *Service) buildQuery(prop repository.SharedProperty) string {
	city := prop.City
	if city == "" {
		city = s.fallbackCity
	}
	return fmt.Sprintf("%s, %s", prop.Address, city)
}

func (s *Service) recordProcessed(stats *RunStats, progress ProgressFunc) {
	stats.Processed++
	if progress != nil && stats.Processed%progressEvery == 0 {
		progress(*stats)
	}
}

func (s *Service) recordError(stats *RunStats, prop repository.SharedProperty, msg string) {
	if len(stats.Errors) >= maxRecordedErrors {
		return
	}
	stats.Errors = append(stats.Errors, RecordError{
		PropertyID: prop.ID,
		Address:    prop.Address,
		Message:    msg,
	})
}
