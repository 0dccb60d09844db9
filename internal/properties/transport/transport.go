// Package transport defines the request and response shapes for the
// shared-properties HTTP API.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// ListPropertiesRequest filters the property list.
type ListPropertiesRequest struct {
	City            string `form:"city" validate:"omitempty,max=128"`
	MissingLocation bool   `form:"missingLocation"`
}

// UpdateStageRequest moves a property to a later lifecycle stage.
type UpdateStageRequest struct {
	Stage string `json:"stage" validate:"required,oneof=address_found owner_found owner_contacted result"`
}

// Location is a geocoded coordinate pair.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PropertyResponse is a canonical shared property as returned by the API.
type PropertyResponse struct {
	ID                    uuid.UUID `json:"id"`
	Address               string    `json:"address"`
	City                  string    `json:"city"`
	Price                 float64   `json:"price"`
	SizeSqm               float64   `json:"sizeSqm"`
	IsMultiagency         bool      `json:"isMultiagency"`
	OwnerTypeSummary      string    `json:"ownerTypeSummary"`
	AgencyNames           []string  `json:"agencyNames"`
	Stage                 string    `json:"stage"`
	InterestedBuyersCount int       `json:"interestedBuyersCount"`
	ListingCount          int       `json:"listingCount"`
	Location              *Location `json:"location,omitempty"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// ScanRunStats summarizes one dedupe scan run. It is returned to the
// caller and persisted as a run history row; nothing mutates it after
// the run finishes.
type ScanRunStats struct {
	RunID             uuid.UUID `json:"runId"`
	TotalListings     int       `json:"totalListings"`
	ClustersFound     int       `json:"clustersFound"`
	MultiagencyCount  int       `json:"multiagencyCount"`
	ExclusiveCount    int       `json:"exclusiveCount"`
	PropertiesCreated int       `json:"propertiesCreated"`
	PropertiesUpdated int       `json:"propertiesUpdated"`
	StartedAt         time.Time `json:"startedAt"`
	FinishedAt        time.Time `json:"finishedAt"`
}
