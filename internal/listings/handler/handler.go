package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"propscan_backend/internal/listings/repository"
	"propscan_backend/internal/listings/service"
	"propscan_backend/internal/listings/transport"
	"propscan_backend/platform/httpkit"
	"propscan_backend/platform/validator"
)

// Handler handles HTTP requests for raw listings.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a new listings handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Ingest stores one listing observation.
// POST /api/v1/listings
func (h *Handler) Ingest(c *gin.Context) {
	var req transport.IngestListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	saved, err := h.svc.Ingest(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, toResponse(saved))
}

// Get retrieves one stored listing.
// GET /api/v1/listings/:id
func (h *Handler) Get(c *gin.Context) {
	listing, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toResponse(listing))
}

// Classify runs the owner classifier on ad-hoc signals.
// POST /api/v1/listings/classify
func (h *Handler) Classify(c *gin.Context) {
	var req transport.ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result := h.svc.Classify(req)
	httpkit.OK(c, transport.ClassificationResponse{
		OwnerType:  string(result.OwnerType),
		AgencyName: result.AgencyName,
		Confidence: string(result.Confidence),
		Rule:       result.Rule,
		Reasoning:  result.Reasoning,
	})
}

func toResponse(l repository.Listing) transport.ListingResponse {
	return transport.ListingResponse{
		ID:           l.ID,
		Source:       l.Source,
		ExternalID:   l.ExternalID,
		RawAddress:   l.RawAddress,
		City:         l.City,
		Price:        l.Price,
		SizeSqm:      l.SizeSqm,
		Rooms:        l.Rooms,
		Bathrooms:    l.Bathrooms,
		Title:        l.Title,
		ContactName:  l.ContactName,
		ContactPhone: l.ContactPhone,
		AgencyName:   l.AgencyName,
		Classification: transport.ClassificationResponse{
			OwnerType:  l.OwnerType,
			AgencyName: l.OwnerAgencyName,
			Confidence: l.OwnerConfidence,
			Reasoning:  l.OwnerReasoning,
		},
		SharedPropertyID: l.SharedPropertyID,
		SeenAt:           l.SeenAt,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}
