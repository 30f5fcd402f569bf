package routes

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/zatekoja/clinicdesk/internal/api/handlers"
	"github.com/zatekoja/clinicdesk/internal/api/middleware"
	"github.com/zatekoja/clinicdesk/internal/infrastructure/observability"
)

// Router holds the display server's route handlers
type Router struct {
	mux *http.ServeMux

	displayHandler *handlers.DisplayHandler

	allowedOrigins []string
	metrics        *observability.Metrics
	logger         zerolog.Logger
}

// NewRouter creates a new router
func NewRouter(
	displayHandler *handlers.DisplayHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		displayHandler: displayHandler,
		allowedOrigins: allowedOrigins,
		metrics:        metrics,
		logger:         logger,
	}
}

// SetupRoutes registers all routes and wraps them in middleware
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Display endpoints
	r.mux.HandleFunc("GET /api/display/board", r.displayHandler.GetBoard)
	r.mux.HandleFunc("GET /api/display/stream", r.displayHandler.StreamBoard)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(r.logger)(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on 304s
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
