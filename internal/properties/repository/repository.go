// Package repository persists canonical shared properties and the run
// history of scans and coordinate backfills.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"propscan_backend/platform/apperr"
)

const propertyNotFoundMessage = "property not found"

// Stage is the lifecycle marker of a shared property. Transitions only
// move forward.
type Stage string

const (
	StageAddressFound   Stage = "address_found"
	StageOwnerFound     Stage = "owner_found"
	StageOwnerContacted Stage = "owner_contacted"
	StageResult         Stage = "result"
)

var stageOrder = map[Stage]int{
	StageAddressFound:   1,
	StageOwnerFound:     2,
	StageOwnerContacted: 3,
	StageResult:         4,
}

// ValidStage reports whether s is a known lifecycle stage.
func ValidStage(s Stage) bool {
	_, ok := stageOrder[s]
	return ok
}

// CanAdvance reports whether moving from one stage to the next is a
// forward transition.
func CanAdvance(from, to Stage) bool {
	return stageOrder[to] > stageOrder[from]
}

// SharedProperty is the canonical record for one physical property,
// merged from every listing that advertises it. Coordinates are written
// only by the geocoding backfill, never by the scan upsert.
type SharedProperty struct {
	ID                    uuid.UUID
	Address               string
	City                  string
	NormalizedKey         string
	Price                 float64
	SizeSqm               float64
	IsMultiagency         bool
	OwnerTypeSummary      string
	AgencyNames           []string
	Stage                 Stage
	InterestedBuyersCount int
	ListingCount          int
	Latitude              *float64
	Longitude             *float64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// HasUsableAddress reports whether the record carries enough address
// text to geocode.
func (p SharedProperty) HasUsableAddress() bool {
	return p.Address != ""
}

// ScanRun is one persisted dedupe scan execution.
type ScanRun struct {
	ID                uuid.UUID
	TotalListings     int
	ClustersFound     int
	MultiagencyCount  int
	ExclusiveCount    int
	PropertiesCreated int
	PropertiesUpdated int
	StartedAt         time.Time
	FinishedAt        time.Time
}

// GeocodingRun is one persisted coordinate backfill execution.
type GeocodingRun struct {
	ID         uuid.UUID
	Total      int
	Processed  int
	Successful int
	Failed     int
	Skipped    int
	StartedAt  time.Time
	FinishedAt time.Time
}

// ListFilter narrows property listings queries.
type ListFilter struct {
	City            string
	MissingLocation bool
}

// Repository is the storage port for shared properties.
type Repository interface {
	Upsert(ctx context.Context, p SharedProperty) (SharedProperty, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (SharedProperty, error)
	List(ctx context.Context, filter ListFilter) ([]SharedProperty, error)
	UpdateStage(ctx context.Context, id uuid.UUID, stage Stage) (SharedProperty, error)
	ListMissingCoordinates(ctx context.Context, limit int) ([]SharedProperty, error)
	SetCoordinates(ctx context.Context, id uuid.UUID, latitude, longitude float64) error
	SaveScanRun(ctx context.Context, run ScanRun) (ScanRun, error)
	SaveGeocodingRun(ctx context.Context, run GeocodingRun) (GeocodingRun, error)
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new shared-properties repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

const propertyColumns = `
	id, address, city, normalized_key, price, size_sqm, is_multiagency,
	owner_type_summary, agency_names, stage, interested_buyers_count,
	listing_count, latitude, longitude, created_at, updated_at`

// Upsert creates or refreshes the canonical record identified by
// (normalized_key, city). The conflict branch updates descriptive fields
// only: stage, interested_buyers_count and coordinates belong to other
// writers and survive every scan run. The second return value reports
// whether the row was created by this call.
func (r *Repo) Upsert(ctx context.Context, p SharedProperty) (SharedProperty, bool, error) {
	query := `
		INSERT INTO shared_properties (
			address, city, normalized_key, price, size_sqm, is_multiagency,
			owner_type_summary, agency_names, listing_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (normalized_key, city) DO UPDATE SET
			address = EXCLUDED.address,
			price = EXCLUDED.price,
			size_sqm = EXCLUDED.size_sqm,
			is_multiagency = EXCLUDED.is_multiagency,
			owner_type_summary = EXCLUDED.owner_type_summary,
			agency_names = EXCLUDED.agency_names,
			listing_count = EXCLUDED.listing_count,
			updated_at = now()
		RETURNING ` + propertyColumns + `, (created_at = updated_at) AS created`

	row := r.pool.QueryRow(ctx, query,
		p.Address, p.City, p.NormalizedKey, p.Price, p.SizeSqm, p.IsMultiagency,
		p.OwnerTypeSummary, p.AgencyNames, p.ListingCount,
	)

	var saved SharedProperty
	var created bool
	if err := scanProperty(row, &saved, &created); err != nil {
		return SharedProperty{}, false, fmt.Errorf("upsert shared property: %w", err)
	}
	return saved, created, nil
}

// GetByID retrieves one shared property.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (SharedProperty, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+propertyColumns+` FROM shared_properties WHERE id = $1`, id)
	var p SharedProperty
	if err := scanProperty(row, &p, nil); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SharedProperty{}, apperr.NotFound(propertyNotFoundMessage)
		}
		return SharedProperty{}, fmt.Errorf("get shared property: %w", err)
	}
	return p, nil
}

// List returns shared properties matching the filter, newest first.
func (r *Repo) List(ctx context.Context, filter ListFilter) ([]SharedProperty, error) {
	query := `SELECT ` + propertyColumns + ` FROM shared_properties WHERE 1=1`
	args := []interface{}{}

	if filter.City != "" {
		args = append(args, filter.City)
		query += fmt.Sprintf(" AND city = $%d", len(args))
	}
	if filter.MissingLocation {
		query += " AND latitude IS NULL"
	}
	query += " ORDER BY updated_at DESC, id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shared properties: %w", err)
	}
	defer rows.Close()
	return collectProperties(rows)
}

// UpdateStage moves the record to a new lifecycle stage. Transition
// validity is checked by the service.
func (r *Repo) UpdateStage(ctx context.Context, id uuid.UUID, stage Stage) (SharedProperty, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE shared_properties
		SET stage = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+propertyColumns, id, stage)

	var p SharedProperty
	if err := scanProperty(row, &p, nil); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SharedProperty{}, apperr.NotFound(propertyNotFoundMessage)
		}
		return SharedProperty{}, fmt.Errorf("update property stage: %w", err)
	}
	return p, nil
}

// ListMissingCoordinates returns records still waiting for a geocode,
// oldest first so long backlogs drain in arrival order. limit <= 0 means
// no cap.
func (r *Repo) ListMissingCoordinates(ctx context.Context, limit int) ([]SharedProperty, error) {
	query := `SELECT ` + propertyColumns + ` FROM shared_properties WHERE latitude IS NULL ORDER BY created_at, id`
	args := []interface{}{}
	if limit > 0 {
		args = append(args, limit)
		query += " LIMIT $1"
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list properties missing coordinates: %w", err)
	}
	defer rows.Close()
	return collectProperties(rows)
}

// SetCoordinates writes the geocoded location. It is the only writer of
// latitude and longitude.
func (r *Repo) SetCoordinates(ctx context.Context, id uuid.UUID, latitude, longitude float64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE shared_properties
		SET latitude = $2, longitude = $3, updated_at = now()
		WHERE id = $1`, id, latitude, longitude)
	if err != nil {
		return fmt.Errorf("set property coordinates: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(propertyNotFoundMessage)
	}
	return nil
}

// SaveScanRun records one scan execution in the run history.
func (r *Repo) SaveScanRun(ctx context.Context, run ScanRun) (ScanRun, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO scan_runs (
			total_listings, clusters_found, multiagency_count, exclusive_count,
			properties_created, properties_updated, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		run.TotalListings, run.ClustersFound, run.MultiagencyCount, run.ExclusiveCount,
		run.PropertiesCreated, run.PropertiesUpdated, run.StartedAt, run.FinishedAt,
	).Scan(&run.ID)
	if err != nil {
		return ScanRun{}, fmt.Errorf("save scan run: %w", err)
	}
	return run, nil
}

// SaveGeocodingRun records one backfill execution in the run history.
func (r *Repo) SaveGeocodingRun(ctx context.Context, run GeocodingRun) (GeocodingRun, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO geocoding_runs (
			total, processed, successful, failed, skipped, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		run.Total, run.Processed, run.Successful, run.Failed, run.Skipped,
		run.StartedAt, run.FinishedAt,
	).Scan(&run.ID)
	if err != nil {
		return GeocodingRun{}, fmt.Errorf("save geocoding run: %w", err)
	}
	return run, nil
}

func collectProperties(rows pgx.Rows) ([]SharedProperty, error) {
	var out []SharedProperty
	for rows.Next() {
		var p SharedProperty
		if err := scanProperty(rows, &p, nil); err != nil {
			return nil, fmt.Errorf("scan shared property: %w", err)
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate shared properties: %w", rows.Err())
	}
	return out, nil
}

func scanProperty(row pgx.Row, p *SharedProperty, created *bool) error {
	dest := []interface{}{
		&p.ID, &p.Address, &p.City, &p.NormalizedKey, &p.Price, &p.SizeSqm, &p.IsMultiagency,
		&p.OwnerTypeSummary, &p.AgencyNames, &p.Stage, &p.InterestedBuyersCount,
		&p.ListingCount, &p.Latitude, &p.Longitude, &p.CreatedAt, &p.UpdatedAt,
	}
	if created != nil {
		dest = append(dest, created)
	}
	return row.Scan(dest...)
}
