// Package engagement provides the lead routing bounded context module.
// This file defines the module that encapsulates all engagement setup and
// route registration.
package engagement

import (
	"leadrouter_backend/internal/engagement/decision"
	"leadrouter_backend/internal/engagement/executor"
	"leadrouter_backend/internal/engagement/handler"
	"leadrouter_backend/internal/engagement/repository"
	"leadrouter_backend/internal/engagement/scoring"
	"leadrouter_backend/internal/engagement/service"
	apphttp "leadrouter_backend/internal/http"
	"leadrouter_backend/platform/config"
	"leadrouter_backend/platform/events"
	"leadrouter_backend/platform/logger"
	"leadrouter_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the engagement bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the engagement module with all its
// dependencies. The scoring config is loaded once and pinned for the process
// lifetime so every apply scores identically.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, cfg *config.Config, log *logger.Logger) (*Module, error) {
	scoringCfg := scoring.Default()
	if path := cfg.GetScoringConfigPath(); path != "" {
		loaded, err := scoring.Load(path)
		if err != nil {
			return nil, err
		}
		scoringCfg = loaded
	}
	if err := scoringCfg.Validate(); err != nil {
		return nil, err
	}

	repo := repository.New(pool)
	scorer := service.NewScorer(scoringCfg)
	engine := decision.New(scoringCfg)
	exec := executor.New(repo, eventBus, log)
	svc := service.New(repo, exec, engine, scorer, eventBus, log, cfg)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "engagement"
}

// Service returns the routing service for other modules (ingest, scheduler).
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts engagement routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// All operator routes require authentication.
	m.handler.RegisterLeadRoutes(ctx.Protected.Group("/leads"))
	m.handler.RegisterReportingRoutes(ctx.Protected.Group("/reporting"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
