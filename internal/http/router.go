package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/piggy/internal/http/auth"
	"github.com/MrJamesThe3rd/piggy/internal/http/export"
	"github.com/MrJamesThe3rd/piggy/internal/http/importcsv"
	"github.com/MrJamesThe3rd/piggy/internal/http/matching"
	"github.com/MrJamesThe3rd/piggy/internal/http/overview"
	"github.com/MrJamesThe3rd/piggy/internal/http/plan"
	"github.com/MrJamesThe3rd/piggy/internal/http/storage"
)

type Options struct {
	AllowedOrigins []string
	// JWTSecret enables bearer token auth on /api/v1 when set.
	JWTSecret string
	Timeout   time.Duration
}

func New(
	opts Options,
	plansV1 *plan.Handler,
	overviewV1 *overview.Handler,
	importV1 *importcsv.Handler,
	matchingV1 *matching.Handler,
	exportV1 *export.Handler,
	storageV1 *storage.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	if opts.Timeout > 0 {
		router.Use(middleware.Timeout(opts.Timeout))
	}

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(opts.JWTSecret))

		r.Route("/plans", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			plansV1.Routes(r)
		})

		r.Route("/overview", overviewV1.Routes)

		r.Route("/import", importV1.Routes)

		r.Route("/aliases", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			matchingV1.Routes(r)
		})

		r.Route("/export", exportV1.Routes)

		r.Route("/storage", storageV1.Routes)
	})

	return router
}
