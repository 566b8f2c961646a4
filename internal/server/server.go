package server

import (
	"log/slog"
	"net/http"

	"pricewatch/internal/handlers"
	"pricewatch/internal/services"
)

type Server struct {
	analytics   *services.Analytics
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(analytics *services.Analytics, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		analytics:   analytics,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard page
	s.mux.HandleFunc("GET /", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/products", s.apiHandlers.HandleProducts)
	s.mux.HandleFunc("GET /api/brands", s.apiHandlers.HandleBrands)
	s.mux.HandleFunc("GET /api/track", s.apiHandlers.HandleTrack)
	s.mux.HandleFunc("GET /api/diff", s.apiHandlers.HandleDiff)
	s.mux.HandleFunc("GET /api/screen", s.apiHandlers.HandleScreen)

	// Datastar SSE endpoints, one per dashboard tab
	s.mux.HandleFunc("GET /sse/tracker", s.sseHandlers.HandleTracker)
	s.mux.HandleFunc("GET /sse/diff", s.sseHandlers.HandleDiff)
	s.mux.HandleFunc("GET /sse/screen", s.sseHandlers.HandleScreen)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
