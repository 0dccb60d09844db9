// Package repository persists raw listings: one row per observation of a
// property on one source.
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

const listingNotFoundMessage = "listing not found"

// Listing is one observation of a property from one source. Source fields
// are immutable once ingested; only the classification columns and the
// canonical-record link are updated afterwards.
type Listing struct {
	ID              uuid.UUID
	Source          string
	ExternalID      string
	RawAddress      string
	City            string
	Price           float64
	SizeSqm         float64
	Rooms           *int
	Bathrooms       *int
	Title           string
	Description     string
	ContactName     string
	ContactPhone    string
	ContactType     string
	AdvertiserLabel string
	AgencyID        string
	AgencyName      string
	ImageHashes     []string

	OwnerType        string
	OwnerConfidence  string
	OwnerAgencyName  string
	OwnerReasoning   string
	SharedPropertyID *uuid.UUID

	SeenAt    time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository is the storage port for listings.
type Repository interface {
	Upsert(ctx context.Context, l Listing) (Listing, error)
	GetByID(ctx context.Context, id uuid.UUID) (Listing, error)
	ListAll(ctx context.Context) ([]Listing, error)
	AssignToProperty(ctx context.Context, ids []uuid.UUID, propertyID uuid.UUID) error
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new listings repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

const listingColumns = `
	id, source, external_id, raw_address, city, price, size_sqm, rooms, bathrooms,
	title, description, contact_name, contact_phone, contact_type, advertiser_label,
	agency_id, agency_name, image_hashes,
	owner_type, owner_confidence, owner_agency_name, owner_reasoning,
	shared_property_id, seen_at, created_at, updated_at`

// Upsert inserts the listing or refreshes the row for the same
// (source, external_id) observation. Re-ingesting the same listing is
// idempotent and re-runs classification upstream, so the classification
// columns are written on both paths.
func (r *Repo) Upsert(ctx context.Context, l Listing) (Listing, error) {
	query := `
		INSERT INTO listings (
			source, external_id, raw_address, city, price, size_sqm, rooms, bathrooms,
			title, description, contact_name, contact_phone, contact_type, advertiser_label,
			agency_id, agency_name, image_hashes,
			owner_type, owner_confidence, owner_agency_name, owner_reasoning, seen_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13, $14,
			$15, $16, $17,
			$18, $19, $20, $21, $22
		)
		ON CONFLICT (source, external_id) DO UPDATE SET
			raw_address = EXCLUDED.raw_address,
			city = EXCLUDED.city,
			price = EXCLUDED.price,
			size_sqm = EXCLUDED.size_sqm,
			rooms = EXCLUDED.rooms,
			bathrooms = EXCLUDED.bathrooms,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			contact_name = EXCLUDED.contact_name,
			contact_phone = EXCLUDED.contact_phone,
			contact_type = EXCLUDED.contact_type,
			advertiser_label = EXCLUDED.advertiser_label,
			agency_id = EXCLUDED.agency_id,
			agency_name = EXCLUDED.agency_name,
			image_hashes = EXCLUDED.image_hashes,
			owner_type = EXCLUDED.owner_type,
			owner_confidence = EXCLUDED.owner_confidence,
			owner_agency_name = EXCLUDED.owner_agency_name,
			owner_reasoning = EXCLUDED.owner_reasoning,
			seen_at = EXCLUDED.seen_at,
			updated_at = now()
		RETURNING ` + listingColumns

	row := r.pool.QueryRow(ctx, query,
		l.Source, l.ExternalID, l.RawAddress, l.City, l.Price, l.SizeSqm, l.Rooms, l.Bathrooms,
		l.Title, l.Description, l.ContactName, l.ContactPhone, l.ContactType, l.AdvertiserLabel,
		l.AgencyID, l.AgencyName, l.ImageHashes,
		l.OwnerType, l.OwnerConfidence, l.OwnerAgencyName, l.OwnerReasoning, l.SeenAt,
	)

	saved, err := scanListing(row)
	if err != nil {
		return Listing{}, fmt.Errorf("upsert listing: %w", err)
	}
	return saved, nil
}

// GetByID retrieves one listing.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Listing, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	l, err := scanListing(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Listing{}, apperr.NotFound(listingNotFoundMessage)
		}
		return Listing{}, fmt.Errorf("get listing by id: %w", err)
	}
	return l, nil
}

// ListAll returns every listing, ordered by id for a stable scan arena.
func (r *Repo) ListAll(ctx context.Context) ([]Listing, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+listingColumns+` FROM listings ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	var out []Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, l)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("list listings: %w", rows.Err())
	}
	return out, nil
}

// AssignToProperty links the given listings to their canonical record.
func (r *Repo) AssignToProperty(ctx context.Context, ids []uuid.UUID, propertyID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE listings
		SET shared_property_id = $2, updated_at = now()
		WHERE id = ANY($1)`, ids, propertyID)
	if err != nil {
		return fmt.Errorf("assign listings to property: %w", err)
	}
	return nil
}

func scanListing(row pgx.Row) (Listing, error) {
	var l Listing
	err := row.Scan(
		&l.ID, &l.Source, &l.ExternalID, &l.RawAddress, &l.City, &l.Price, &l.SizeSqm, &l.Rooms, &l.Bathrooms,
		&l.Title, &l.Description, &l.ContactName, &l.ContactPhone, &l.ContactType, &l.AdvertiserLabel,
		&l.AgencyID, &l.AgencyName, &l.ImageHashes,
		&l.OwnerType, &l.OwnerConfidence, &l.OwnerAgencyName, &l.OwnerReasoning,
		&l.SharedPropertyID, &l.SeenAt, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}
