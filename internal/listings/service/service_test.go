package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"propscan_backend/internal/events"
	"propscan_backend/internal/listings/repository"
	"propscan_backend/internal/listings/transport"
	"propscan_backend/internal/ownership"
	"propscan_backend/platform/logger"
)

type fakeRepo struct {
	upserted []repository.Listing
}

func (f *fakeRepo) Upsert(_ context.Context, l repository.Listing) (repository.Listing, error) {
	l.ID = uuid.New()
	f.upserted = append(f.upserted, l)
	return l, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Listing, error) {
	return repository.Listing{ID: id}, nil
}

func (f *fakeRepo) ListAll(context.Context) ([]repository.Listing, error) {
	return f.upserted, nil
}

func (f *fakeRepo) AssignToProperty(context.Context, []uuid.UUID, uuid.UUID) error {
	return nil
}

type fakeBus struct {
	published []events.Event
}

func (f *fakeBus) Publish(_ context.Context, e events.Event) {
	f.published = append(f.published, e)
}

func (f *fakeBus) PublishSync(_ context.Context, e events.Event) error {
	f.published = append(f.published, e)
	return nil
}

func (f *fakeBus) Subscribe(string, events.Handler) {}

func newTestService(repo *fakeRepo, bus *fakeBus) *Service {
	classifier := ownership.NewClassifier(ownership.DefaultKeywords())
	return New(repo, classifier, bus, logger.New("test"))
}

func TestIngestSanitizesAndClassifies(t *testing.T) {
	repo := &fakeRepo{}
	bus := &fakeBus{}
	svc := newTestService(repo, bus)

	saved, err := svc.Ingest(context.Background(), transport.IngestListingRequest{
		Source:          "immobiliare",
		ExternalID:      "ext-1",
		RawAddress: "Via Roma 10",
		City:            "Milano",
		Price:           300000,
		SizeSqm:         80,
		Title:           "<b>Trilocale</b>   luminoso",
		Description:     "Vendita diretta dal proprietario, no agenzie.",
		ContactPhone:    "02 1234 5678",
		AdvertiserLabel: "",
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if saved.Title != "Trilocale luminoso" {
		t.Errorf("title not sanitized, got %q", saved.Title)
	}
	if !strings.HasPrefix(saved.ContactPhone, "+39") {
		t.Errorf("phone not normalized to E.164, got %q", saved.ContactPhone)
	}
	if saved.OwnerType != string(ownership.OwnerPrivate) {
		t.Errorf("OwnerType = %q, want %q", saved.OwnerType, ownership.OwnerPrivate)
	}
	if saved.OwnerConfidence != string(ownership.ConfidenceHigh) {
		t.Errorf("OwnerConfidence = %q, want %q", saved.OwnerConfidence, ownership.ConfidenceHigh)
	}

	if len(bus.published) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.published))
	}
	ev, ok := bus.published[0].(events.ListingIngested)
	if !ok {
		t.Fatalf("published event has type %T", bus.published[0])
	}
	if ev.ListingID != saved.ID || ev.City != "Milano" {
		t.Errorf("unexpected event payload: %+v", ev)
	}
}

func TestIngestKeepsUnparseablePhone(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &fakeBus{})

	saved, err := svc.Ingest(context.Background(), transport.IngestListingRequest{
		Source:       "casa_it",
		ExternalID:   "ext-2",
		RawAddress:   "Corso Garibaldi 5",
		City:         "Milano",
		Price:        100000,
		ContactPhone: "per info citofonare",
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if saved.ContactPhone != "per info citofonare" {
		t.Errorf("unparseable phone should be kept verbatim, got %q", saved.ContactPhone)
	}
}

func TestClassifyPassthrough(t *testing.T) {
	svc := newTestService(&fakeRepo{}, &fakeBus{})

	got := svc.Classify(transport.ClassifyRequest{AdvertiserLabel: "agenzia"})
	if got.OwnerType != ownership.OwnerAgency {
		t.Errorf("OwnerType = %q, want %q", got.OwnerType, ownership.OwnerAgency)
	}
	if got.Confidence != ownership.ConfidenceHigh {
		t.Errorf("Confidence = %q, want %q", got.Confidence, ownership.ConfidenceHigh)
	}
}

func TestGetRejectsMalformedID(t *testing.T) {
	svc := newTestService(&fakeRepo{}, &fakeBus{})

	if _, err := svc.Get(context.Background(), "not-a-uuid"); err == nil {
		t.Fatal("Get() with malformed id should fail")
	}
}
