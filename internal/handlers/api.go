package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/services/cache"
	"github.com/ternarybob/folio/internal/services/scheduler"
)

// APIHandler serves version, health and 404 responses.
type APIHandler struct {
	cache     *cache.Service
	kv        interfaces.KeyValueStorage
	scheduler *scheduler.Service
	logger    arbor.ILogger
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(cacheService *cache.Service, kv interfaces.KeyValueStorage, schedulerService *scheduler.Service) *APIHandler {
	return &APIHandler{
		cache:     cacheService,
		kv:        kv,
		scheduler: schedulerService,
		logger:    common.GetLogger(),
	}
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    common.GetVersion(),
		"build":      common.GetBuild(),
		"git_commit": common.GetGitCommit(),
	})
}

// HealthHandler returns health check status: storage key count, whether a
// snapshot is loaded, how many holdings it carries, scheduler state.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	keyCount := 0
	if h.kv != nil {
		if count, err := h.kv.Count(r.Context()); err != nil {
			h.logger.Warn().Err(err).Msg("Failed to count storage keys")
		} else {
			keyCount = count
		}
	}

	info := h.cache.Info()

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ok",
		"cache_keys":        keyCount,
		"snapshot_loaded":   info.State != cache.StateEmpty,
		"snapshot_state":    info.State,
		"refreshing":        info.Refreshing,
		"holdings":          info.Holdings,
		"scheduler_running": h.scheduler != nil && h.scheduler.IsRunning(),
	})
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "Not Found",
		"path":    r.URL.Path,
		"message": "The requested endpoint does not exist",
	})
}
