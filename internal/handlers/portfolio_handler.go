package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/folio/internal/models"
	"github.com/ternarybob/folio/internal/services/cache"
)

// PortfolioHandler serves the enriched portfolio and the refresh trigger.
type PortfolioHandler struct {
	cache          *cache.Service
	requestTimeout time.Duration
	logger         arbor.ILogger
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(cacheService *cache.Service, requestTimeout time.Duration, logger arbor.ILogger) *PortfolioHandler {
	return &PortfolioHandler{
		cache:          cacheService,
		requestTimeout: requestTimeout,
		logger:         logger,
	}
}

// portfolioResponse is the read endpoint payload.
type portfolioResponse struct {
	Success     bool             `json:"success"`
	Data        []models.Holding `json:"data"`
	Cached      bool             `json:"cached"`
	Timestamp   string           `json:"timestamp"`
	TotalStocks int              `json:"totalStocks"`

	TotalInvestment   float64  `json:"totalInvestment"`
	TotalPresentValue *float64 `json:"totalPresentValue"`
	TotalGainLoss     *float64 `json:"totalGainLoss"`
}

// errorResponse is the read endpoint failure payload.
type errorResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error"`
}

// GetPortfolioHandler handles GET /api/portfolio. A cache miss rebuilds the
// snapshot within the request timeout; when that elapses the client gets a
// retryable 503 while the build finishes in the background.
func (h *PortfolioHandler) GetPortfolioHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	snapshot, cached, err := h.cache.GetOrBuild(ctx)
	if err == cache.ErrStillBuilding {
		WriteJSON(w, http.StatusServiceUnavailable, errorResponse{
			Success:   false,
			Message:   "Portfolio is still building, retry shortly",
			Timestamp: time.Now().Format(time.RFC3339),
			Error:     err.Error(),
		})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("Portfolio build failed")
		WriteJSON(w, http.StatusInternalServerError, errorResponse{
			Success:   false,
			Message:   "Failed to build portfolio",
			Timestamp: time.Now().Format(time.RFC3339),
			Error:     err.Error(),
		})
		return
	}

	WriteJSON(w, http.StatusOK, snapshotResponse(snapshot, cached))
}

// refreshRequest is the refresh endpoint body.
type refreshRequest struct {
	Async bool `json:"async"`
}

// RefreshHandler handles POST /api/portfolio/refresh. Synchronous mode
// blocks until the new snapshot installs and surfaces build errors;
// asynchronous mode acknowledges immediately.
func (h *PortfolioHandler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req refreshRequest
	if r.Body != nil {
		// An empty body means a synchronous refresh.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if req.Async {
		if _, err := h.cache.Refresh(r.Context(), false); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusAccepted, map[string]interface{}{
			"success": true,
			"message": "Refresh started",
		})
		return
	}

	snapshot, err := h.cache.Refresh(r.Context(), true)
	if err != nil {
		h.logger.Error().Err(err).Msg("Forced refresh failed")
		WriteJSON(w, http.StatusInternalServerError, errorResponse{
			Success:   false,
			Message:   "Refresh failed",
			Timestamp: time.Now().Format(time.RFC3339),
			Error:     err.Error(),
		})
		return
	}

	WriteJSON(w, http.StatusOK, snapshotResponse(snapshot, false))
}

// snapshotResponse shapes a snapshot for the API.
func snapshotResponse(snapshot *models.Snapshot, cached bool) portfolioResponse {
	return portfolioResponse{
		Success:           true,
		Data:              snapshot.Holdings,
		Cached:            cached,
		Timestamp:         time.Now().Format(time.RFC3339),
		TotalStocks:       len(snapshot.Holdings),
		TotalInvestment:   snapshot.TotalInvestment,
		TotalPresentValue: snapshot.TotalPresentValue,
		TotalGainLoss:     snapshot.TotalGainLoss,
	}
}
