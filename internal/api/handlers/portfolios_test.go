package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lmeira/carteira-core/internal/aggregator"
	"github.com/lmeira/carteira-core/internal/api/handlers"
	"github.com/lmeira/carteira-core/internal/apperrors"
	"github.com/lmeira/carteira-core/internal/model"
)

type stubLister struct {
	portfolios []model.Portfolio
	err        error
}

func (s *stubLister) GetAllPortfolios() ([]model.Portfolio, error) {
	return s.portfolios, s.err
}

type stubRefresher struct {
	snapshot  *model.PortfolioSnapshot
	err       error
	state     aggregator.State
	lastForce bool
}

func (s *stubRefresher) Refresh(_ context.Context, _ string, force bool) (*model.PortfolioSnapshot, error) {
	s.lastForce = force
	return s.snapshot, s.err
}

func (s *stubRefresher) State(_ string) aggregator.State {
	return s.state
}

func requestWithID(method, target, id string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("portfolioId", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// TestPortfolioHandler_Portfolios tests the portfolio listing endpoint.
func TestPortfolioHandler_Portfolios(t *testing.T) {
	t.Run("returns the configured portfolios", func(t *testing.T) {
		lister := &stubLister{portfolios: []model.Portfolio{
			{ID: "p1", Name: "Renda", Currency: "BRL"},
			{ID: "p2", Name: "Crescimento", Currency: "BRL"},
		}}
		h := handlers.NewPortfolioHandler(lister, &stubRefresher{})

		w := httptest.NewRecorder()
		h.Portfolios(w, httptest.NewRequest(http.MethodGet, "/api/portfolio/", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}

		var got []handlers.PortfoliosResponse
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("Expected 2 portfolios, got %d", len(got))
		}
		if got[0].Name != "Renda" {
			t.Errorf("Expected first portfolio Renda, got %s", got[0].Name)
		}
	})

	t.Run("returns 500 when the store fails", func(t *testing.T) {
		lister := &stubLister{err: errors.New("db locked")}
		h := handlers.NewPortfolioHandler(lister, &stubRefresher{})

		w := httptest.NewRecorder()
		h.Portfolios(w, httptest.NewRequest(http.MethodGet, "/api/portfolio/", nil))

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected 500, got %d", w.Code)
		}
	})
}

// TestPortfolioHandler_Refresh tests the refresh endpoint.
//
// WHY: The handler owns the error-to-status mapping the frontend depends on,
// and the force query parameter is the only way a user bypasses the TTL.
func TestPortfolioHandler_Refresh(t *testing.T) {
	t.Run("returns the snapshot", func(t *testing.T) {
		refresher := &stubRefresher{snapshot: &model.PortfolioSnapshot{PortfolioID: "p1"}}
		h := handlers.NewPortfolioHandler(&stubLister{}, refresher)

		w := httptest.NewRecorder()
		h.Refresh(w, requestWithID(http.MethodPost, "/api/portfolio/p1/refresh", "p1"))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}

		var got model.PortfolioSnapshot
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if got.PortfolioID != "p1" {
			t.Errorf("Expected snapshot for p1, got %s", got.PortfolioID)
		}
		if refresher.lastForce {
			t.Error("Expected no force without the query parameter")
		}
	})

	t.Run("passes the force query parameter through", func(t *testing.T) {
		refresher := &stubRefresher{snapshot: &model.PortfolioSnapshot{}}
		h := handlers.NewPortfolioHandler(&stubLister{}, refresher)

		w := httptest.NewRecorder()
		h.Refresh(w, requestWithID(http.MethodPost, "/api/portfolio/p1/refresh?force=true", "p1"))

		if !refresher.lastForce {
			t.Error("Expected the force flag to reach the aggregator")
		}
	})

	t.Run("maps unknown portfolio to 404", func(t *testing.T) {
		refresher := &stubRefresher{err: apperrors.ErrPortfolioNotFound}
		h := handlers.NewPortfolioHandler(&stubLister{}, refresher)

		w := httptest.NewRecorder()
		h.Refresh(w, requestWithID(http.MethodPost, "/api/portfolio/p1/refresh", "p1"))

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}
	})

	t.Run("maps other failures to 500", func(t *testing.T) {
		refresher := &stubRefresher{err: errors.New("provider down")}
		h := handlers.NewPortfolioHandler(&stubLister{}, refresher)

		w := httptest.NewRecorder()
		h.Refresh(w, requestWithID(http.MethodPost, "/api/portfolio/p1/refresh", "p1"))

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected 500, got %d", w.Code)
		}
	})
}

// TestPortfolioHandler_State tests the read-only state endpoint.
func TestPortfolioHandler_State(t *testing.T) {
	t.Run("reports the aggregation state without refreshing", func(t *testing.T) {
		updated := time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC)
		refresher := &stubRefresher{state: aggregator.State{
			Snapshot:    &model.PortfolioSnapshot{PortfolioID: "p1"},
			Loading:     true,
			LastUpdated: updated,
		}}
		h := handlers.NewPortfolioHandler(&stubLister{}, refresher)

		w := httptest.NewRecorder()
		h.State(w, requestWithID(http.MethodGet, "/api/portfolio/p1/state", "p1"))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}

		var got handlers.StateResponse
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if got.Snapshot == nil || got.Snapshot.PortfolioID != "p1" {
			t.Error("Expected the snapshot in the state response")
		}
		if !got.Loading {
			t.Error("Expected the loading flag")
		}
		if got.LastUpdated == nil || !got.LastUpdated.Equal(updated) {
			t.Errorf("Expected last-updated %v, got %v", updated, got.LastUpdated)
		}
	})

	t.Run("reports the last error as text", func(t *testing.T) {
		refresher := &stubRefresher{state: aggregator.State{Err: errors.New("provider down")}}
		h := handlers.NewPortfolioHandler(&stubLister{}, refresher)

		w := httptest.NewRecorder()
		h.State(w, requestWithID(http.MethodGet, "/api/portfolio/p1/state", "p1"))

		var got handlers.StateResponse
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if got.Error != "provider down" {
			t.Errorf("Expected the error text, got %q", got.Error)
		}
		if got.Snapshot != nil {
			t.Error("Expected no snapshot before the first successful cycle")
		}
	})
}
