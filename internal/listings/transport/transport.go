// Package transport defines the request and response shapes for the
// listings HTTP API.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// IngestListingRequest is the payload for submitting a raw listing.
// The (source, external_id) pair identifies the observation; posting it
// again refreshes the stored row.
type IngestListingRequest struct {
	Source          string   `json:"source" validate:"required,max=64"`
	ExternalID      string   `json:"externalId" validate:"required,max=128"`
	RawAddress      string   `json:"rawAddress" validate:"required,max=512"`
	City            string   `json:"city" validate:"required,max=128"`
	Price           float64  `json:"price" validate:"required,gt=0"`
	SizeSqm         float64  `json:"sizeSqm" validate:"omitempty,gt=0"`
	Rooms           *int     `json:"rooms" validate:"omitempty,gte=0"`
	Bathrooms       *int     `json:"bathrooms" validate:"omitempty,gte=0"`
	Title           string   `json:"title" validate:"omitempty,max=512"`
	Description     string   `json:"description" validate:"omitempty,max=20000"`
	ContactName     string   `json:"contactName" validate:"omitempty,max=256"`
	ContactPhone    string   `json:"contactPhone" validate:"omitempty,max=32"`
	ContactType     string   `json:"contactType" validate:"omitempty,max=64"`
	AdvertiserLabel string   `json:"advertiserLabel" validate:"omitempty,max=64"`
	AgencyID        string   `json:"agencyId" validate:"omitempty,max=128"`
	AgencyName      string   `json:"agencyName" validate:"omitempty,max=256"`
	ImageHashes     []string `json:"imageHashes" validate:"omitempty,dive,hexadecimal,len=16"`
	SeenAt          *time.Time `json:"seenAt"`
}

// ClassifyRequest asks for an ownership classification of advertiser
// signals without storing anything.
type ClassifyRequest struct {
	AdvertiserLabel string `json:"advertiserLabel" validate:"omitempty,max=64"`
	ContactType     string `json:"contactType" validate:"omitempty,max=64"`
	AgencyID        string `json:"agencyId" validate:"omitempty,max=128"`
	AgencyName      string `json:"agencyName" validate:"omitempty,max=256"`
	Title           string `json:"title" validate:"omitempty,max=512"`
	Description     string `json:"description" validate:"omitempty,max=20000"`
}

// ClassificationResponse is the outcome of the owner classifier.
type ClassificationResponse struct {
	OwnerType  string `json:"ownerType"`
	AgencyName string `json:"agencyName,omitempty"`
	Confidence string `json:"confidence"`
	Rule       string `json:"rule"`
	Reasoning  string `json:"reasoning"`
}

// ListingResponse is the stored listing as returned by the API.
type ListingResponse struct {
	ID               uuid.UUID  `json:"id"`
	Source           string     `json:"source"`
	ExternalID       string     `json:"externalId"`
	RawAddress       string     `json:"rawAddress"`
	City             string     `json:"city"`
	Price            float64    `json:"price"`
	SizeSqm          float64    `json:"sizeSqm"`
	Rooms            *int       `json:"rooms,omitempty"`
	Bathrooms        *int       `json:"bathrooms,omitempty"`
	Title            string     `json:"title,omitempty"`
	ContactName      string     `json:"contactName,omitempty"`
	ContactPhone     string     `json:"contactPhone,omitempty"`
	AgencyName       string     `json:"agencyName,omitempty"`
	Classification   ClassificationResponse `json:"classification"`
	SharedPropertyID *uuid.UUID `json:"sharedPropertyId,omitempty"`
	SeenAt           time.Time  `json:"seenAt"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}
