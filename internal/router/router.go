package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/watching-app/watching/internal/auth"
	"github.com/watching-app/watching/internal/handler"
	"github.com/watching-app/watching/internal/logging"
	"github.com/watching-app/watching/internal/ratelimit"
)

type Options struct {
	RequestTimeout         time.Duration
	CORSOrigins            []string
	ProxyRequestsPerMinute int
}

func Setup(h *handler.Handler, verifier *auth.Verifier, limiter *ratelimit.Limiter, opts Options) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Retry-After", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(opts.RequestTimeout))

		r.With(verifier.Middleware, limiter.Middleware(auth.Identity)).
			Post("/ai-recommendations", h.CreateRecommendations)
		r.Get("/recommendation/{id}", h.GetRecommendation)

		// Catalog passthroughs
		r.Group(func(r chi.Router) {
			if opts.ProxyRequestsPerMinute > 0 {
				r.Use(httprate.LimitByIP(opts.ProxyRequestsPerMinute, time.Minute))
			}
			r.Get("/search", h.Search)
			r.Get("/popular", h.Popular)
			r.Get("/recommendations", h.Similar)
		})
	})

	return r
}
