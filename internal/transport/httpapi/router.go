package httpapi

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/chainbooks/chainbooks/internal/transport/httpapi/handler"
	"github.com/chainbooks/chainbooks/internal/transport/httpapi/middleware"
	"github.com/chainbooks/chainbooks/pkg/logger"
)

// Config holds router configuration
type Config struct {
	Logger         *logger.Logger
	AllowedOrigins []string
	WalletHandler  *handler.WalletHandler
	HealthHandler  *handler.HealthHandler
}

// NewRouter creates a new HTTP router
func NewRouter(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(chimiddleware.Compress(5))
	r.Use(middleware.RateLimit()) // Rate limiting: 100 req/s with burst of 20

	// Health check endpoints
	r.Get("/health", handler.GetHealth)
	r.Get("/health/live", handler.GetLiveness)
	if cfg.HealthHandler != nil {
		r.Get("/health/ready", cfg.HealthHandler.GetReadiness)
		r.Get("/health/detailed", cfg.HealthHandler.GetHealthDetailed)
	}

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.WalletHandler != nil {
			r.Route("/wallet", func(r chi.Router) {
				r.Post("/analyze", cfg.WalletHandler.Analyze)
				r.Route("/{address}", func(r chi.Router) {
					r.Get("/summary", cfg.WalletHandler.GetSummary)
					r.Get("/transactions", cfg.WalletHandler.GetTransactions)
					r.Get("/balance-sheet", cfg.WalletHandler.GetBalanceSheet)
					r.Get("/financial-statements", cfg.WalletHandler.GetFinancialStatements)
					r.Get("/tax-report", cfg.WalletHandler.GetTaxReport)
					r.Delete("/cache", cfg.WalletHandler.DeleteCache)
				})
			})
		}
	})

	return r
}
