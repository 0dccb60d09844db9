// Package transport defines the request and response shapes for the
// geocoding HTTP API.
package transport

// BackfillRequest caps one backfill run. Limit 0 (or absent) means
// everything still missing coordinates.
type BackfillRequest struct {
	Limit int `json:"limit" validate:"omitempty,gte=0"`
}

// LookupRequest is the forward-geocoding query.
type LookupRequest struct {
	Query string `form:"q" binding:"required,min=3"`
}

// AddressSuggestion is one forward-geocoding candidate returned to the
// caller.
type AddressSuggestion struct {
	DisplayName string  `json:"displayName"`
	Street      string  `json:"street,omitempty"`
	HouseNumber string  `json:"houseNumber,omitempty"`
	PostalCode  string  `json:"postalCode,omitempty"`
	City        string  `json:"city,omitempty"`
	Region      string  `json:"region,omitempty"`
	Country     string  `json:"country,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}
