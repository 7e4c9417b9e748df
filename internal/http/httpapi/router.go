package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"mediagw/internal/http/handlers"
	"mediagw/internal/infra"
	"mediagw/internal/middleware"
)

// NewRouter assembles the middleware chain and routes for the gateway.
func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger, lookup middleware.CountryLookup) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimiddleware.RealIP, chimiddleware.Recoverer)
	r.Use(middleware.Logger(logger))
	r.Use(metricsMiddleware)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(middleware.CORS(cfg.CORSOrigins))
	}
	r.Use(middleware.I18N(cfg.DefaultLocale, lookup))

	// Health and metrics
	r.Get("/v1/healthz", app.Health)
	r.Method(stdhttp.MethodGet, "/metrics", metricsHandler())

	r.Route("/v1/generations", func(r chi.Router) {
		if cfg.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))
		}
		r.Post("/images", app.GenerateImages)
		r.Post("/videos", app.GenerateVideos)
		r.Post("/audio", app.GenerateAudio)
		r.Post("/models3d", app.GenerateModels3D)
		r.Post("/music", app.GenerateMusic)
	})

	r.Route("/v1/jobs", func(r chi.Router) {
		r.Post("/", app.EnqueueJob)
		r.Get("/{id}", app.JobStatus)
	})

	return r
}
