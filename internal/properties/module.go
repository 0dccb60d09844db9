// Package properties provides the shared-properties bounded context
// module: the dedupe scan engine and the canonical records it maintains.
package properties

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"propscan_backend/internal/dedupe"
	"propscan_backend/internal/events"
	apphttp "propscan_backend/internal/http"
	listingrepo "propscan_backend/internal/listings/repository"
	"propscan_backend/internal/properties/handler"
	"propscan_backend/internal/properties/repository"
	"propscan_backend/internal/properties/service"
	"propscan_backend/platform/logger"
	"propscan_backend/platform/validator"
)

// Module is the properties bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the properties module with all its dependencies.
func NewModule(pool *pgxpool.Pool, listings listingrepo.Repository, gates dedupe.Gates, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, listings, gates, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "properties"
}

// Service returns the service layer for use by the scheduler worker.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for use by the geocoding backfill.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts property routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/properties/scan", m.handler.Scan)
	ctx.V1.GET("/properties", m.handler.List)
	ctx.V1.GET("/properties/:id", m.handler.Get)
	ctx.V1.PATCH("/properties/:id/stage", m.handler.UpdateStage)
}
