package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/folio/internal/models"
	"github.com/ternarybob/folio/internal/services/cache"
)

// stubBuilder produces a fixed snapshot, optionally blocking on gate.
type stubBuilder struct {
	err  error
	gate chan struct{}
}

func (s *stubBuilder) BuildSnapshot(ctx context.Context) (*models.Snapshot, error) {
	if s.gate != nil {
		<-s.gate
	}
	if s.err != nil {
		return nil, s.err
	}
	present := 16000.0
	gain := 1500.0
	return &models.Snapshot{
		RunID:   "handler-test",
		BuiltAt: time.Now(),
		Holdings: []models.Holding{
			{Name: "HDFC Bank", PurchasePrice: 1450, Quantity: 10, Investment: 14500, PortfolioShare: 100},
		},
		TotalInvestment:   14500,
		TotalPresentValue: &present,
		TotalGainLoss:     &gain,
	}, nil
}

func newTestHandler(builder cache.Builder, requestTimeout time.Duration) *PortfolioHandler {
	cacheService := cache.NewService(builder, nil, time.Minute, arbor.NewLogger())
	return NewPortfolioHandler(cacheService, requestTimeout, arbor.NewLogger())
}

func TestGetPortfolioHandler(t *testing.T) {
	handler := newTestHandler(&stubBuilder{}, time.Second)

	t.Run("Miss builds and returns snapshot", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/portfolio", nil)
		rec := httptest.NewRecorder()

		handler.GetPortfolioHandler(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}

		var resp map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Invalid JSON response: %v", err)
		}

		if resp["success"] != true {
			t.Error("Expected success=true")
		}
		if resp["cached"] != false {
			t.Error("Expected cached=false on first build")
		}
		if resp["totalStocks"].(float64) != 1 {
			t.Errorf("Expected 1 stock, got %v", resp["totalStocks"])
		}
		if resp["totalInvestment"].(float64) != 14500 {
			t.Errorf("Expected total investment 14500, got %v", resp["totalInvestment"])
		}
	})

	t.Run("Hit serves cached snapshot", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/portfolio", nil)
		rec := httptest.NewRecorder()

		handler.GetPortfolioHandler(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}

		var resp map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Invalid JSON response: %v", err)
		}
		if resp["cached"] != true {
			t.Error("Expected cached=true on second call")
		}
	})

	t.Run("Wrong method rejected", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/portfolio", nil)
		rec := httptest.NewRecorder()

		handler.GetPortfolioHandler(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("Expected 405, got %d", rec.Code)
		}
	})
}

func TestGetPortfolioHandler_StillBuilding(t *testing.T) {
	builder := &stubBuilder{gate: make(chan struct{})}
	handler := newTestHandler(builder, 30*time.Millisecond)
	defer close(builder.gate)

	req := httptest.NewRequest("GET", "/api/portfolio", nil)
	rec := httptest.NewRecorder()

	handler.GetPortfolioHandler(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d", rec.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if resp["success"] != false {
		t.Error("Expected success=false")
	}
	if resp["error"] == "" {
		t.Error("Expected error detail in response")
	}
}

func TestGetPortfolioHandler_BuildError(t *testing.T) {
	handler := newTestHandler(&stubBuilder{err: errors.New("sheet unreadable")}, time.Second)

	req := httptest.NewRequest("GET", "/api/portfolio", nil)
	rec := httptest.NewRecorder()

	handler.GetPortfolioHandler(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}
}

func TestRefreshHandler(t *testing.T) {
	t.Run("Synchronous refresh returns snapshot", func(t *testing.T) {
		handler := newTestHandler(&stubBuilder{}, time.Second)

		req := httptest.NewRequest("POST", "/api/portfolio/refresh", strings.NewReader("{}"))
		rec := httptest.NewRecorder()

		handler.RefreshHandler(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}

		var resp map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Invalid JSON response: %v", err)
		}
		if resp["cached"] != false {
			t.Error("Expected cached=false for refreshed snapshot")
		}
	})

	t.Run("Empty body means synchronous", func(t *testing.T) {
		handler := newTestHandler(&stubBuilder{}, time.Second)

		req := httptest.NewRequest("POST", "/api/portfolio/refresh", nil)
		rec := httptest.NewRecorder()

		handler.RefreshHandler(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
	})

	t.Run("Async refresh acknowledges immediately", func(t *testing.T) {
		builder := &stubBuilder{gate: make(chan struct{})}
		handler := newTestHandler(builder, time.Second)
		defer close(builder.gate)

		req := httptest.NewRequest("POST", "/api/portfolio/refresh", strings.NewReader(`{"async": true}`))
		rec := httptest.NewRecorder()

		handler.RefreshHandler(rec, req)

		if rec.Code != http.StatusAccepted {
			t.Fatalf("Expected 202, got %d", rec.Code)
		}
	})

	t.Run("Synchronous refresh surfaces build errors", func(t *testing.T) {
		handler := newTestHandler(&stubBuilder{err: errors.New("sheet unreadable")}, time.Second)

		req := httptest.NewRequest("POST", "/api/portfolio/refresh", nil)
		rec := httptest.NewRecorder()

		handler.RefreshHandler(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("Expected 500, got %d", rec.Code)
		}
	})

	t.Run("Wrong method rejected", func(t *testing.T) {
		handler := newTestHandler(&stubBuilder{}, time.Second)

		req := httptest.NewRequest("GET", "/api/portfolio/refresh", nil)
		rec := httptest.NewRecorder()

		handler.RefreshHandler(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("Expected 405, got %d", rec.Code)
		}
	})
}
