package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"propscan_backend/internal/geocoding/client"
	"propscan_backend/internal/properties/repository"
	"propscan_backend/platform/logger"
)

type fakeStore struct {
	properties []repository.SharedProperty
	runs       []repository.GeocodingRun
}

func (f *fakeStore) ListMissingCoordinates(_ context.Context, limit int) ([]repository.SharedProperty, error) {
	var out []repository.SharedProperty
	for _, p := range f.properties {
		if p.Latitude == nil {
			out = append(out, p)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) SetCoordinates(_ context.Context, id uuid.UUID, latitude, longitude float64) error {
	for i := range f.properties {
		if f.properties[i].ID == id {
			lat, lon := latitude, longitude
			f.properties[i].Latitude = &lat
			f.properties[i].Longitude = &lon
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeStore) SaveGeocodingRun(_ context.Context, run repository.GeocodingRun) (repository.GeocodingRun, error) {
	run.ID = uuid.New()
	f.runs = append(f.runs, run)
	return run, nil
}

// fakeGeocoder resolves by address prefix; unknown addresses return an
// empty result list.
type fakeGeocoder struct {
	known map[string]client.Result
	calls []string
	err   error
}

func (f *fakeGeocoder) Search(_ context.Context, query string) ([]client.Result, error) {
	f.calls = append(f.calls, query)
	if f.err != nil {
		return nil, f.err
	}
	for prefix, result := range f.known {
		if strings.HasPrefix(query, prefix) {
			return []client.Result{result}, nil
		}
	}
	return nil, nil
}

func pendingProperty(address, city string) repository.SharedProperty {
	return repository.SharedProperty{ID: uuid.New(), Address: address, City: city}
}

// newTestService disables pacing so tests run instantly.
func newTestService(store *fakeStore, geocoder Geocoder) *Service {
	return New(store, geocoder, 0, "Milano", logger.New("test"))
}

func TestBackfillCountsAndWritesIncrementally(t *testing.T) {
	store := &fakeStore{properties: []repository.SharedProperty{
		pendingProperty("Via Roma 10", "Milano"),
		pendingProperty("Corso Garibaldi 5", "Milano"),
		pendingProperty("Via Inesistente 99", "Milano"),
	}}
	geocoder := &fakeGeocoder{known: map[string]client.Result{
		"Via Roma 10":       {Latitude: 45.4642, Longitude: 9.19},
		"Corso Garibaldi 5": {Latitude: 45.4721, Longitude: 9.1857},
	}}
	svc := newTestService(store, geocoder)

	stats, err := svc.Backfill(context.Background(), 0, nil)
	if err != nil {
		t.Fatalf("Backfill() error = %v", err)
	}

	if stats.Total != 3 || stats.Processed != 3 || stats.Successful != 2 || stats.Failed != 1 || stats.Skipped != 0 {
		t.Errorf("stats = %+v, want total 3 processed 3 successful 2 failed 1 skipped 0", stats)
	}
	if stats.Processed != stats.Successful+stats.Failed+stats.Skipped {
		t.Error("processed != successful + failed + skipped")
	}
	if len(stats.Errors) != 1 {
		t.Fatalf("errors = %v, want one entry", stats.Errors)
	}
	if rec := stats.Errors[0]; rec.Address != "Via Inesistente 99" || rec.PropertyID == uuid.Nil || rec.Message == "" {
		t.Errorf("error record = %+v, want property id, address and message", rec)
	}

	located := 0
	for _, p := range store.properties {
		if p.Latitude != nil && p.Longitude != nil {
			located++
		}
	}
	if located != 2 {
		t.Errorf("located records = %d, want 2", located)
	}
	if len(store.runs) != 1 {
		t.Fatalf("persisted %d runs, want 1", len(store.runs))
	}
	if stats.RunID == uuid.Nil {
		t.Error("RunID not set")
	}
}

func TestBackfillResumesWhereItLeftOff(t *testing.T) {
	store := &fakeStore{properties: []repository.SharedProperty{
		pendingProperty("Via Roma 10", "Milano"),
		pendingProperty("Corso Garibaldi 5", "Milano"),
		pendingProperty("Via Inesistente 99", "Milano"),
	}}
	geocoder := &fakeGeocoder{known: map[string]client.Result{
		"Via Roma 10":       {Latitude: 45.4642, Longitude: 9.19},
		"Corso Garibaldi 5": {Latitude: 45.4721, Longitude: 9.1857},
	}}
	svc := newTestService(store, geocoder)

	if _, err := svc.Backfill(context.Background(), 0, nil); err != nil {
		t.Fatalf("first Backfill() error = %v", err)
	}

	// Second run only sees the record that still has no location.
	second, err := svc.Backfill(context.Background(), 0, nil)
	if err != nil {
		t.Fatalf("second Backfill() error = %v", err)
	}
	if second.Total != 1 || second.Processed != 1 || second.Failed != 1 {
		t.Errorf("second run stats = %+v, want total 1 processed 1 failed 1", second)
	}
}

func TestBackfillSkipsUnusableAddress(t *testing.T) {
	store := &fakeStore{properties: []repository.SharedProperty{
		pendingProperty("", "Milano"),
		pendingProperty("Via Roma 10", "Milano"),
	}}
	geocoder := &fakeGeocoder{known: map[string]client.Result{
		"Via Roma 10": {Latitude: 45.4642, Longitude: 9.19},
	}}
	svc := newTestService(store, geocoder)

	stats, err := svc.Backfill(context.Background(), 0, nil)
	if err != nil {
		t.Fatalf("Backfill() error = %v", err)
	}
	if stats.Skipped != 1 || stats.Successful != 1 {
		t.Errorf("stats = %+v, want skipped 1 successful 1", stats)
	}
	// The skipped record must not reach the geocoder at all.
	if len(geocoder.calls) != 1 {
		t.Errorf("geocoder calls = %v, want exactly one", geocoder.calls)
	}
}

func TestBackfillFallbackCity(t *testing.T) {
	store := &fakeStore{properties: []repository.SharedProperty{
		pendingProperty("Via Roma 10", ""),
	}}
	geocoder := &fakeGeocoder{}
	svc := newTestService(store, geocoder)

	if _, err := svc.Backfill(context.Background(), 0, nil); err != nil {
		t.Fatalf("Backfill() error = %v", err)
	}
	if len(geocoder.calls) != 1 || geocoder.calls[0] != "Via Roma 10, Milano" {
		t.Errorf("geocoder calls = %v, want query with fallback city", geocoder.calls)
	}
}

func TestBackfillTransportErrorDoesNotAbortRun(t *testing.T) {
	store := &fakeStore{properties: []repository.SharedProperty{
		pendingProperty("Via Roma 10", "Milano"),
		pendingProperty("Corso Garibaldi 5", "Milano"),
	}}
	geocoder := &fakeGeocoder{err: errors.New("connection refused")}
	svc := newTestService(store, geocoder)

	stats, err := svc.Backfill(context.Background(), 0, nil)
	if err != nil {
		t.Fatalf("Backfill() error = %v", err)
	}
	if stats.Processed != 2 || stats.Failed != 2 {
		t.Errorf("stats = %+v, want both records processed and failed", stats)
	}
}

func TestBackfillHonorsLimit(t *testing.T) {
	store := &fakeStore{}
	for i := 0; i < 5; i++ {
		store.properties = append(store.properties, pendingProperty("Via Roma 10", "Milano"))
	}
	geocoder := &fakeGeocoder{known: map[string]client.Result{
		"Via Roma 10": {Latitude: 45.4642, Longitude: 9.19},
	}}
	svc := newTestService(store, geocoder)

	stats, err := svc.Backfill(context.Background(), 2, nil)
	if err != nil {
		t.Fatalf("Backfill() error = %v", err)
	}
	if stats.Total != 2 || stats.Processed != 2 {
		t.Errorf("stats = %+v, want total 2 processed 2", stats)
	}
}

func TestBackfillProgressCallback(t *testing.T) {
	store := &fakeStore{}
	for i := 0; i < 25; i++ {
		store.properties = append(store.properties, pendingProperty("Via Roma 10", "Milano"))
	}
	geocoder := &fakeGeocoder{known: map[string]client.Result{
		"Via Roma 10": {Latitude: 45.4642, Longitude: 9.19},
	}}
	svc := newTestService(store, geocoder)

	var snapshots []RunStats
	_, err := svc.Backfill(context.Background(), 0, func(s RunStats) {
		snapshots = append(snapshots, s)
	})
	if err != nil {
		t.Fatalf("Backfill() error = %v", err)
	}

	if len(snapshots) != 2 {
		t.Fatalf("progress callbacks = %d, want 2 (at 10 and 20)", len(snapshots))
	}
	if snapshots[0].Processed != 10 || snapshots[1].Processed != 20 {
		t.Errorf("callback processed counts = %d, %d, want 10 and 20",
			snapshots[0].Processed, snapshots[1].Processed)
	}
}

func TestBackfillCancelledContext(t *testing.T) {
	store := &fakeStore{properties: []repository.SharedProperty{
		pendingProperty("Via Roma 10", "Milano"),
	}}
	svc := newTestService(store, &fakeGeocoder{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Backfill(ctx, 0, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestBackfillErrorListBounded(t *testing.T) {
	store := &fakeStore{}
	for i := 0; i < maxRecordedErrors+10; i++ {
		store.properties = append(store.properties, pendingProperty("Via Sconosciuta 1", "Milano"))
	}
	svc := newTestService(store, &fakeGeocoder{})

	stats, err := svc.Backfill(context.Background(), 0, nil)
	if err != nil {
		t.Fatalf("Backfill() error = %v", err)
	}
	if stats.Failed != maxRecordedErrors+10 {
		t.Errorf("Failed = %d, want %d", stats.Failed, maxRecordedErrors+10)
	}
	if len(stats.Errors) != maxRecordedErrors {
		t.Errorf("errors recorded = %d, want cap %d", len(stats.Errors), maxRecordedErrors)
	}
}
