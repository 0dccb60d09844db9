package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"propscan_backend/internal/properties/repository"
	"propscan_backend/internal/properties/service"
	"propscan_backend/internal/properties/transport"
	"propscan_backend/platform/httpkit"
	"propscan_backend/platform/validator"
)

// Handler handles HTTP requests for shared properties.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a new properties handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Scan runs an identity-resolution scan and returns its stats.
// POST /api/v1/properties/scan
func (h *Handler) Scan(c *gin.Context) {
	stats, err := h.svc.RunScan(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, stats)
}

// List retrieves canonical properties, optionally filtered by city or
// missing location.
// GET /api/v1/properties
func (h *Handler) List(c *gin.Context) {
	var req transport.ListPropertiesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	props, err := h.svc.List(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.PropertyResponse, len(props))
	for i, p := range props {
		out[i] = toResponse(p)
	}
	httpkit.OK(c, out)
}

// Get retrieves one canonical property.
// GET /api/v1/properties/:id
func (h *Handler) Get(c *gin.Context) {
	prop, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(prop))
}

// UpdateStage advances the property lifecycle stage.
// PATCH /api/v1/properties/:id/stage
func (h *Handler) UpdateStage(c *gin.Context) {
	var req transport.UpdateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	prop, err := h.svc.AdvanceStage(c.Request.Context(), c.Param("id"), repository.Stage(req.Stage))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(prop))
}

func toResponse(p repository.SharedProperty) transport.PropertyResponse {
	resp := transport.PropertyResponse{
		ID:                    p.ID,
		Address:               p.Address,
		City:                  p.City,
		Price:                 p.Price,
		SizeSqm:               p.SizeSqm,
		IsMultiagency:         p.IsMultiagency,
		OwnerTypeSummary:      p.OwnerTypeSummary,
		AgencyNames:           p.AgencyNames,
		Stage:                 string(p.Stage),
		InterestedBuyersCount: p.InterestedBuyersCount,
		ListingCount:          p.ListingCount,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
	if p.Latitude != nil && p.Longitude != nil {
		resp.Location = &transport.Location{Latitude: *p.Latitude, Longitude: *p.Longitude}
	}
	return resp
}
