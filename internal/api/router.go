package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lmeira/carteira-core/internal/api/handlers"
	custommiddleware "github.com/lmeira/carteira-core/internal/api/middleware"
	"github.com/lmeira/carteira-core/internal/config"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	db *sql.DB,
	portfolios handlers.PortfolioLister,
	refresher handlers.Refresher,
	cfg *config.Config,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(logger))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(db)
			r.Get("/health", systemHandler.Health)
		})

		r.Route("/portfolio", func(r chi.Router) {
			portfolioHandler := handlers.NewPortfolioHandler(portfolios, refresher)
			r.Get("/", portfolioHandler.Portfolios)

			r.Route("/{portfolioId}", func(r chi.Router) {
				r.Use(custommiddleware.ValidatePortfolioID)
				r.Get("/state", portfolioHandler.State)
				r.Post("/refresh", portfolioHandler.Refresh)
			})
		})
	})

	return r
}
