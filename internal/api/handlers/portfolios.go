package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lmeira/carteira-core/internal/aggregator"
	"github.com/lmeira/carteira-core/internal/apperrors"
	"github.com/lmeira/carteira-core/internal/model"
)

// PortfolioLister lists the configured portfolios for the dashboard's
// portfolio index.
type PortfolioLister interface {
	GetAllPortfolios() ([]model.Portfolio, error)
}

// Refresher is the slice of the aggregator the handlers consume: the output
// contract to the presentation layer.
type Refresher interface {
	Refresh(ctx context.Context, portfolioID string, force bool) (*model.PortfolioSnapshot, error)
	State(portfolioID string) aggregator.State
}

// PortfolioHandler handles portfolio-related HTTP requests
type PortfolioHandler struct {
	portfolios PortfolioLister
	refresher  Refresher
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolios PortfolioLister, refresher Refresher) *PortfolioHandler {
	return &PortfolioHandler{
		portfolios: portfolios,
		refresher:  refresher,
	}
}

// PortfoliosResponse represents the Portfolios get response
type PortfoliosResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Currency    string `json:"currency"`
}

// Portfolios gets basic information for every configured portfolio
func (h *PortfolioHandler) Portfolios(w http.ResponseWriter, r *http.Request) {

	portfolios, err := h.portfolios.GetAllPortfolios()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to retrieve portfolios", err.Error())
		return
	}

	response := make([]PortfoliosResponse, len(portfolios))
	for i, p := range portfolios {
		response[i] = PortfoliosResponse{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Currency:    p.Currency,
		}
	}

	respondJSON(w, http.StatusOK, response)
}

// Refresh runs a fetch cycle for one portfolio and returns the resulting
// snapshot. Within the TTL window the cached snapshot is returned unless the
// force query parameter is set.
func (h *PortfolioHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "portfolioId")
	force := r.URL.Query().Get("force") == "true"

	snapshot, err := h.refresher.Refresh(r.Context(), portfolioID, force)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrPortfolioNotFound):
			respondError(w, http.StatusNotFound, "Portfolio not found", "")
		case errors.Is(err, context.Canceled):
			// Client went away; nothing useful to write.
		default:
			respondError(w, http.StatusInternalServerError, "Failed to refresh portfolio", err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

// StateResponse represents the observable aggregation state for a portfolio.
type StateResponse struct {
	Snapshot    *model.PortfolioSnapshot `json:"snapshot"`
	Loading     bool                     `json:"loading"`
	Error       string                   `json:"error,omitempty"`
	LastUpdated *time.Time               `json:"lastUpdated,omitempty"`
}

// State returns the current snapshot, loading flag, error and last update
// time for a portfolio without triggering a refresh.
func (h *PortfolioHandler) State(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "portfolioId")

	state := h.refresher.State(portfolioID)

	response := StateResponse{
		Snapshot: state.Snapshot,
		Loading:  state.Loading,
	}
	if state.Err != nil {
		response.Error = state.Err.Error()
	}
	if !state.LastUpdated.IsZero() {
		t := state.LastUpdated
		response.LastUpdated = &t
	}

	respondJSON(w, http.StatusOK, response)
}
