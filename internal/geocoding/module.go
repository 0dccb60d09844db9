// Package geocoding provides the coordinate enrichment bounded context:
// the Nominatim client, the backfill job and the address lookup.
package geocoding

import (
	"propscan_backend/internal/geocoding/client"
	"propscan_backend/internal/geocoding/handler"
	"propscan_backend/internal/geocoding/service"
	apphttp "propscan_backend/internal/http"
	"propscan_backend/platform/config"
	"propscan_backend/platform/logger"
	"propscan_backend/platform/validator"
)

// Module is the geocoding bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the geocoding module. store is the
// shared-properties repository slice the backfill writes to.
func NewModule(store service.PropertyStore, cfg config.GeocoderConfig, val *validator.Validator, log *logger.Logger) *Module {
	geocoder := client.New(cfg, log)
	svc := service.New(store, geocoder, cfg.GetGeocoderMinInterval(), cfg.GetGeocoderFallbackCity(), log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "geocoding"
}

// Service returns the service layer for use by the scheduler worker and
// the one-shot backfill command.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts geocoding routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/geocoding/backfill", m.handler.Backfill)
	ctx.V1.GET("/geocoding/address-lookup", m.handler.Lookup)
}
