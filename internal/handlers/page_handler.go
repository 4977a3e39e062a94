package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
)

// PageHandler serves the dashboard page and its static assets.
type PageHandler struct {
	pagesDir string
	logger   arbor.ILogger
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(logger arbor.ILogger) *PageHandler {
	return &PageHandler{
		pagesDir: findPagesDir(),
		logger:   logger,
	}
}

// findPagesDir locates the pages directory
func findPagesDir() string {
	// Check common locations
	dirs := []string{
		"./pages",  // Running from project root
		"../pages", // Running from bin/
		".",        // Current directory (for deployed bin/)
	}

	for _, dir := range dirs {
		if _, err := os.Stat(filepath.Join(dir, "index.html")); err == nil {
			abs, _ := filepath.Abs(dir)
			return abs
		}
	}

	return "."
}

// IndexHandler serves the dashboard page.
func (h *PageHandler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.pagesDir, "index.html"))
}

// StaticFileHandler serves static files (CSS, JS)
func (h *PageHandler) StaticFileHandler(w http.ResponseWriter, r *http.Request) {
	staticDir := filepath.Join(h.pagesDir, "static")

	path := r.URL.Path[len("/static/"):]
	fullPath := filepath.Join(staticDir, filepath.Clean(path))

	http.ServeFile(w, r, fullPath)
}
