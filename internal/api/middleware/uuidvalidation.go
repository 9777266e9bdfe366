// Package middleware provides HTTP middleware for request validation and processing.
package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ValidatePortfolioID validates that the portfolioId URL parameter is present
// and is a valid UUID. Returns 400 Bad Request otherwise. Applied to every
// route that addresses a single portfolio.
func ValidatePortfolioID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		portfolioID := chi.URLParam(r, "portfolioId")

		if portfolioID == "" {
			respondValidationError(w, "portfolio ID is required")
			return
		}

		if _, err := uuid.Parse(portfolioID); err != nil {
			respondValidationError(w, "invalid portfolio ID format")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func respondValidationError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
