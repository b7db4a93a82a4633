package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"photometa-api/internal/handlers"
	"photometa-api/internal/middleware"
)

type Options struct {
	APIKeys        []string
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Setup configures and returns the HTTP router with all application routes
// and middleware.
func Setup(h *handlers.Handler, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.CORS(opts.AllowedOrigins))

	// Health check
	r.Get("/health", h.HandleHealth)

	r.Group(func(r chi.Router) {
		if opts.RateLimitRPS > 0 {
			r.Use(middleware.NewRateLimiter(rate.Limit(opts.RateLimitRPS), opts.RateLimitBurst).Limit)
		}
		r.Use(middleware.APIKeyAuth(opts.APIKeys))

		r.Get("/metadata", h.HandleMetadata)
		r.Post("/metadata", h.HandleMetadata)

		r.Get("/subjects", h.HandleListSubjects)
		r.Post("/subjects", h.HandleCreateSubject)
		r.Delete("/subjects/{id}/location", h.HandleClearSubjectLocation)
		r.Delete("/locations", h.HandleClearLocations)
	})

	return r
}
