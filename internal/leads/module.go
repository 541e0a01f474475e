// Package leads provides the lead lifecycle bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"salescrm_backend/internal/adapters"
	"salescrm_backend/internal/audit"
	"salescrm_backend/internal/events"
	apphttp "salescrm_backend/internal/http"
	"salescrm_backend/internal/leads/distribution"
	"salescrm_backend/internal/leads/handler"
	"salescrm_backend/internal/leads/lifecycle"
	"salescrm_backend/internal/leads/policy"
	"salescrm_backend/internal/leads/repository"
	"salescrm_backend/internal/metrics"
	"salescrm_backend/platform/config"
	"salescrm_backend/platform/logger"
	"salescrm_backend/platform/phone"
	"salescrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler     *handler.Handler
	service     *lifecycle.Service
	distributor *distribution.Engine
	repo        *repository.Repository
	settings    *adapters.SettingsStore
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Publisher, val *validator.Validator, m *metrics.Metrics, cfg config.LeadsConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	settings := adapters.NewSettingsStore(pool)
	directory := adapters.NewSalesDirectory(pool)

	var (
		observer distribution.Observer
		recorder lifecycle.Recorder
	)
	if m != nil {
		observer, recorder = m, m
	}

	engine := distribution.New(repo, directory, observer, log)
	svc := lifecycle.New(lifecycle.Deps{
		Store:       repo,
		Policy:      policy.New(settings, log),
		Distributor: engine,
		Directory:   directory,
		Customers:   adapters.NewCustomerCreator(),
		Audit:       audit.NewSink(),
		Phones:      phone.NewNormalizer(cfg.GetPhoneDefaultRegion()),
		EventBus:    eventBus,
		Metrics:     recorder,
		Log:         log,
	})

	return &Module{
		handler:     handler.New(svc, engine, val),
		service:     svc,
		distributor: engine,
		repo:        repo,
		settings:    settings,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lifecycle service for the scheduler worker.
func (m *Module) Service() *lifecycle.Service {
	return m.service
}

// Repository returns the lead store for read-only consumers such as the pool reclaimer.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// Settings returns the tenant settings store.
func (m *Module) Settings() *adapters.SettingsStore {
	return m.settings
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// All leads routes require authentication and a tenant claim
	leadsGroup := ctx.Protected.Group("/leads")
	if ctx.RateLimiter != nil {
		leadsGroup.Use(ctx.RateLimiter.RateLimit())
	}
	m.handler.RegisterRoutes(leadsGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
