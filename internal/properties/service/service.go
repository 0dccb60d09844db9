// Package service runs the identity-resolution scan and serves the
// canonical shared-property records it produces.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"propscan_backend/internal/address"
	"propscan_backend/internal/dedupe"
	"propscan_backend/internal/events"
	listingrepo "propscan_backend/internal/listings/repository"
	"propscan_backend/internal/properties/repository"
	"propscan_backend/internal/properties/transport"
	"propscan_backend/platform/apperr"
	"propscan_backend/platform/logger"
)

// Service orchestrates scan runs and property queries.
type Service struct {
	repo     repository.Repository
	listings listingrepo.Repository
	gates    dedupe.Gates
	bus      events.Bus
	logger   *logger.Logger
}

// New creates a new properties service.
func New(repo repository.Repository, listings listingrepo.Repository, gates dedupe.Gates, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		listings: listings,
		gates:    gates,
		bus:      bus,
		logger:   log,
	}
}

// RunScan executes one full identity-resolution pass: load every
// listing, cluster by similarity, aggregate each cluster into a
// canonical record and upsert it. Repeating a scan over unchanged input
// is idempotent: no duplicate records, no flag flips. Coordinates are
// never written here, so a concurrent geocoding run cannot conflict.
func (s *Service) RunScan(ctx context.Context) (transport.ScanRunStats, error) {
	startedAt := time.Now().UTC()

	all, err := s.listings.ListAll(ctx)
	if err != nil {
		return transport.ScanRunStats{}, fmt.Errorf("scan: load listings: %w", err)
	}

	candidates := make([]dedupe.Candidate, len(all))
	for i, l := range all {
		candidates[i] = dedupe.Candidate{
			Index:       i,
			Address:     address.Normalize(l.RawAddress, l.City),
			Price:       l.Price,
			SizeSqm:     l.SizeSqm,
			ImageHashes: l.ImageHashes,
		}
	}

	clusters, err := s.gates.Cluster(ctx, candidates)
	if err != nil {
		return transport.ScanRunStats{}, fmt.Errorf("scan: cluster listings: %w", err)
	}

	stats := transport.ScanRunStats{
		TotalListings: len(all),
		ClustersFound: len(clusters),
		StartedAt:     startedAt,
	}

	for _, cluster := range clusters {
		members := make([]listingrepo.Listing, len(cluster.Members))
		ids := make([]uuid.UUID, len(cluster.Members))
		for i, idx := range cluster.Members {
			members[i] = all[idx]
			ids[i] = all[idx].ID
		}

		prop := aggregateCluster(members)
		saved, created, err := s.repo.Upsert(ctx, prop)
		if err != nil {
			return transport.ScanRunStats{}, fmt.Errorf("scan: upsert property %q: %w", prop.NormalizedKey, err)
		}
		if created {
			stats.PropertiesCreated++
		} else {
			stats.PropertiesUpdated++
		}
		if saved.IsMultiagency {
			stats.MultiagencyCount++
		} else {
			stats.ExclusiveCount++
		}

		if err := s.listings.AssignToProperty(ctx, ids, saved.ID); err != nil {
			return transport.ScanRunStats{}, fmt.Errorf("scan: link listings: %w", err)
		}
	}

	stats.FinishedAt = time.Now().UTC()

	run, err := s.repo.SaveScanRun(ctx, repository.ScanRun{
		TotalListings:     stats.TotalListings,
		ClustersFound:     stats.ClustersFound,
		MultiagencyCount:  stats.MultiagencyCount,
		ExclusiveCount:    stats.ExclusiveCount,
		PropertiesCreated: stats.PropertiesCreated,
		PropertiesUpdated: stats.PropertiesUpdated,
		StartedAt:         stats.StartedAt,
		FinishedAt:        stats.FinishedAt,
	})
	if err != nil {
		return transport.ScanRunStats{}, err
	}
	stats.RunID = run.ID

	s.logger.WithContext(ctx).Info("scan run completed",
		"run_id", run.ID,
		"total_listings", stats.TotalListings,
		"clusters_found", stats.ClustersFound,
		"properties_created", stats.PropertiesCreated,
		"properties_updated", stats.PropertiesUpdated,
	)

	if s.bus != nil {
		s.bus.Publish(ctx, events.ScanCompleted{
			BaseEvent:         events.NewBaseEvent(),
			RunID:             run.ID,
			PropertiesCreated: stats.PropertiesCreated,
			PropertiesUpdated: stats.PropertiesUpdated,
		})
	}

	return stats, nil
}

// Get returns one shared property.
func (s *Service) Get(ctx context.Context, rawID string) (repository.SharedProperty, error) {
	id, err := parseID(rawID)
	if err != nil {
		return repository.SharedProperty{}, err
	}
	return s.repo.GetByID(ctx, id)
}

// List returns shared properties matching the filter.
func (s *Service) List(ctx context.Context, req transport.ListPropertiesRequest) ([]repository.SharedProperty, error) {
	return s.repo.List(ctx, repository.ListFilter{
		City:            req.City,
		MissingLocation: req.MissingLocation,
	})
}

// AdvanceStage moves a property to a later lifecycle stage. Backward and
// same-stage transitions are rejected.
func (s *Service) AdvanceStage(ctx context.Context, rawID string, stage repository.Stage) (repository.SharedProperty, error) {
	id, err := parseID(rawID)
	if err != nil {
		return repository.SharedProperty{}, err
	}
	if !repository.ValidStage(stage) {
		return repository.SharedProperty{}, apperr.Validation("unknown stage")
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.SharedProperty{}, err
	}
	if !repository.CanAdvance(current.Stage, stage) {
		return repository.SharedProperty{}, apperr.Conflict(
			fmt.Sprintf("stage cannot move from %s to %s", current.Stage, stage))
	}
	return s.repo.UpdateStage(ctx, id, stage)
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.BadRequest("invalid property id")
	}
	return id, nil
}
