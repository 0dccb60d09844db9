package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"propscan_backend/internal/geocoding/service"
	"propscan_backend/internal/geocoding/transport"
	"propscan_backend/platform/httpkit"
	"propscan_backend/platform/validator"
)

// Handler handles HTTP requests for geocoding operations.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a new geocoding handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Backfill runs a coordinate backfill and returns its stats. The run is
// synchronous; long backlogs should go through the scheduler instead.
// POST /api/v1/geocoding/backfill
func (h *Handler) Backfill(c *gin.Context) {
	var req transport.BackfillRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	stats, err := h.svc.Backfill(c.Request.Context(), req.Limit, nil)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, stats)
}

// Lookup forward-geocodes a free-text address.
// GET /api/v1/geocoding/address-lookup?q=
func (h *Handler) Lookup(c *gin.Context) {
	var req transport.LookupRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	results, err := h.svc.Lookup(c.Request.Context(), req.Query)
	if httpkit.HandleError(c, err) {
		return
	}

	suggestions := make([]transport.AddressSuggestion, len(results))
	for i, r := range results {
		suggestions[i] = transport.AddressSuggestion{
			DisplayName: r.DisplayName,
			Street:      r.Street,
			HouseNumber: r.HouseNumber,
			PostalCode:  r.PostalCode,
			City:        r.City,
			Region:      r.Region,
			Country:     r.Country,
			Latitude:    r.Latitude,
			Longitude:   r.Longitude,
		}
	}
	httpkit.OK(c, suggestions)
}
