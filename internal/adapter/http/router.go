package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/erpledger/internal/adapter/http/handler"
	"github.com/iho/erpledger/internal/adapter/http/middleware"
	"github.com/iho/erpledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler   *handler.AccountHandler
	EntryHandler     *handler.EntryHandler
	PeriodHandler    *handler.PeriodHandler
	LedgerHandler    *handler.LedgerHandler
	HealthHandler    *handler.HealthHandler
	IdempotencyStore usecase.IdempotencyStore
	RateLimiter      *middleware.RateLimiter
	Logger           zerolog.Logger
}

// NewRouter creates a new HTTP router. Everything under /api/v1 requires the
// X-Tenant-ID header; health and metrics endpoints do not.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recovery)

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Tenant)

		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Initialize)
			r.Get("/{code}", cfg.AccountHandler.Get)
			r.Get("/{code}/balance", cfg.AccountHandler.GetBalance)
			r.Get("/{code}/movements", cfg.AccountHandler.GetMovements)
			r.Post("/{code}/postings", cfg.AccountHandler.PostTransaction)
			r.Patch("/{code}/status", cfg.AccountHandler.SetStatus)
		})

		// Journal entries
		r.Route("/journal-entries", func(r chi.Router) {
			r.Post("/", cfg.EntryHandler.Create)
			r.Get("/{id}", cfg.EntryHandler.Get)
			r.Post("/{id}/lines", cfg.EntryHandler.AddLine)
			r.Delete("/{id}/lines/{lineNumber}", cfg.EntryHandler.RemoveLine)
			r.Get("/{id}/validate", cfg.EntryHandler.Validate)
			r.Post("/{id}/submit", cfg.EntryHandler.Submit)
			r.Post("/{id}/approve", cfg.EntryHandler.Approve)
			r.Post("/{id}/reject", cfg.EntryHandler.Reject)
			r.Post("/{id}/cancel", cfg.EntryHandler.Cancel)
			r.Post("/{id}/post", cfg.EntryHandler.Post)
			r.Post("/{id}/reverse", cfg.EntryHandler.Reverse)
		})

		// Fiscal periods
		r.Route("/periods", func(r chi.Router) {
			r.Post("/", cfg.PeriodHandler.Open)
			r.Get("/{year}/{month}", cfg.PeriodHandler.Get)
			r.Post("/{year}/{month}/close", cfg.PeriodHandler.Close)
			r.Post("/{year}/{month}/reopen", cfg.PeriodHandler.Reopen)
			r.Post("/{year}/{month}/lock", cfg.PeriodHandler.Lock)
		})

		// Ledger checks
		r.Route("/ledger", func(r chi.Router) {
			r.Get("/consistency", cfg.LedgerHandler.CheckConsistency)
			r.Get("/reconciliation", cfg.LedgerHandler.Report)
			r.Get("/reconciliation/{code}", cfg.LedgerHandler.ReconcileAccount)
		})
	})

	return r
}
