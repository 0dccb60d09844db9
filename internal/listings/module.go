// Package listings provides the raw-listings bounded context module.
// It ingests listing observations from portal feeds, sanitizes them and
// attaches an ownership classification to each one.
package listings

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"propscan_backend/internal/events"
	apphttp "propscan_backend/internal/http"
	"propscan_backend/internal/listings/handler"
	"propscan_backend/internal/listings/repository"
	"propscan_backend/internal/listings/service"
	"propscan_backend/internal/ownership"
	"propscan_backend/platform/logger"
	"propscan_backend/platform/validator"
)

// Module is the listings bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the listings module with all its dependencies.
func NewModule(pool *pgxpool.Pool, classifier *ownership.Classifier, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, classifier, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "listings"
}

// Service returns the service layer for use by other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access by the scan engine.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts listing routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/listings", m.handler.Ingest)
	ctx.V1.GET("/listings/:id", m.handler.Get)
	ctx.V1.POST("/listings/classify", m.handler.Classify)
}
