// Package service implements listing ingestion and on-demand ownership
// classification.
package service

import (
	"context"
	"time"

	"propscan_backend/internal/events"
	"propscan_backend/internal/listings/repository"
	"propscan_backend/internal/listings/transport"
	"propscan_backend/internal/ownership"
	"propscan_backend/platform/logger"
	"propscan_backend/platform/phone"
	"propscan_backend/platform/sanitize"
)

// Service handles listing ingestion.
type Service struct {
	repo       repository.Repository
	classifier *ownership.Classifier
	bus        events.Bus
	logger     *logger.Logger
}

// New creates a new listings service.
func New(repo repository.Repository, classifier *ownership.Classifier, bus events.Bus, logger *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		classifier: classifier,
		bus:        bus,
		logger:     logger,
	}
}

// Ingest sanitizes, classifies and stores one listing observation.
// Ingesting the same (source, externalId) twice refreshes the stored row
// and re-runs classification on the new signals.
func (s *Service) Ingest(ctx context.Context, req transport.IngestListingRequest) (repository.Listing, error) {
	seenAt := time.Now().UTC()
	if req.SeenAt != nil {
		seenAt = req.SeenAt.UTC()
	}

	title := sanitize.Text(req.Title)
	description := sanitize.Text(req.Description)

	contactPhone := phone.NormalizeE164(req.ContactPhone)

	classification := s.classifier.Classify(ownership.Signals{
		AdvertiserLabel: req.AdvertiserLabel,
		ContactType:     req.ContactType,
		AgencyID:        req.AgencyID,
		AgencyName:      req.AgencyName,
		Title:           title,
		Description:     description,
	})

	listing := repository.Listing{
		Source:          req.Source,
		ExternalID:      req.ExternalID,
		RawAddress:      sanitize.Text(req.RawAddress),
		City:            sanitize.Text(req.City),
		Price:           req.Price,
		SizeSqm:         req.SizeSqm,
		Rooms:           req.Rooms,
		Bathrooms:       req.Bathrooms,
		Title:           title,
		Description:     description,
		ContactName:     sanitize.Text(req.ContactName),
		ContactPhone:    contactPhone,
		ContactType:     req.ContactType,
		AdvertiserLabel: req.AdvertiserLabel,
		AgencyID:        req.AgencyID,
		AgencyName:      req.AgencyName,
		ImageHashes:     req.ImageHashes,
		OwnerType:       string(classification.OwnerType),
		OwnerConfidence: string(classification.Confidence),
		OwnerAgencyName: classification.AgencyName,
		OwnerReasoning:  classification.Reasoning,
		SeenAt:          seenAt,
	}

	saved, err := s.repo.Upsert(ctx, listing)
	if err != nil {
		return repository.Listing{}, err
	}

	s.logger.WithContext(ctx).Info("listing ingested",
		"listing_id", saved.ID,
		"source", saved.Source,
		"external_id", saved.ExternalID,
		"owner_type", saved.OwnerType,
	)

	if s.bus != nil {
		s.bus.Publish(ctx, events.ListingIngested{
			BaseEvent: events.NewBaseEvent(),
			ListingID: saved.ID,
			Source:    saved.Source,
			City:      saved.City,
		})
	}

	return saved, nil
}

// Classify runs the ownership rule chain on ad-hoc signals without
// persisting anything.
func (s *Service) Classify(req transport.ClassifyRequest) ownership.Classification {
	return s.classifier.Classify(ownership.Signals{
		AdvertiserLabel: req.AdvertiserLabel,
		ContactType:     req.ContactType,
		AgencyID:        req.AgencyID,
		AgencyName:      req.AgencyName,
		Title:           sanitize.Text(req.Title),
		Description:     sanitize.Text(req.Description),
	})
}

// Get returns one stored listing.
func (s *Service) Get(ctx context.Context, id string) (repository.Listing, error) {
	parsed, err := parseID(id)
	if err != nil {
		return repository.Listing{}, err
	}
	return s.repo.GetByID(ctx, parsed)
}
