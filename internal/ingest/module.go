// Package ingest provides the adapter ingestion bounded context module.
// This file defines the module that encapsulates all ingest setup and route
// registration.
package ingest

import (
	"leadrouter_backend/internal/engagement/service"
	apphttp "leadrouter_backend/internal/http"
	"leadrouter_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the ingest bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	repo    *Repository
}

// NewModule creates and initializes the ingest module with all its dependencies.
func NewModule(pool *pgxpool.Pool, routing *service.Service, val *validator.Validator) *Module {
	repo := NewRepository(pool)
	return &Module{
		handler: NewHandler(routing, repo, val),
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "ingest"
}

// RegisterRoutes mounts ingest routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Adapter event submission (API key auth, no JWT).
	eventsGroup := ctx.V1.Group("/events")
	eventsGroup.Use(APIKeyAuthMiddleware(m.repo))
	eventsGroup.POST("", m.handler.HandleSubmitEvent)

	// Admin API key management (JWT auth + admin role).
	adminGroup := ctx.Admin.Group("/adapter-keys")
	adminGroup.POST("", m.handler.HandleCreateAPIKey)
	adminGroup.GET("", m.handler.HandleListAPIKeys)
	adminGroup.DELETE("/:keyId", m.handler.HandleRevokeAPIKey)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
