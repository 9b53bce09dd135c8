package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"classroom-notifier/internal/handlers"
	"classroom-notifier/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Notifier     service.NotifierService
	HealthChecks map[string]handlers.HealthCheck
	// NextSweep reports the scheduler's next run; nil when none is running.
	NextSweep func(now time.Time) time.Time
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(CORS)

	searchHandler := handlers.NewSearchHandler(deps.Notifier)
	sweepHandler := handlers.NewSweepHandler(deps.Notifier)
	userHandler := handlers.NewUserHandler(deps.Notifier)
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks, deps.NextSweep)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/search", searchHandler)
		r.Method(http.MethodPost, "/sweep", sweepHandler)
		r.Post("/users", userHandler.Register)
		r.Post("/users/{id}/sync", userHandler.Sync)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	return r
}
