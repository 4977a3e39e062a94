package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Dashboard page and static assets
	mux.HandleFunc("/", s.app.PageHandler.IndexHandler)
	mux.HandleFunc("/static/", s.app.PageHandler.StaticFileHandler)

	// API routes - Portfolio
	mux.HandleFunc("/api/portfolio", s.app.PortfolioHandler.GetPortfolioHandler)
	mux.HandleFunc("/api/portfolio/refresh", s.app.PortfolioHandler.RefreshHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}
