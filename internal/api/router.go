// Package api exposes the journal service over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"strategy-journal/internal/journal"
	"strategy-journal/internal/observability"
)

// RouterConfig holds the router dependencies.
type RouterConfig struct {
	Service        *journal.Service
	Stream         http.Handler // optional websocket endpoint
	Logger         *zap.Logger
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter builds the HTTP handler for the service.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	h := NewHandler(cfg.Service, logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)
	r.Handle("/metrics", observability.Handler())
	if cfg.Stream != nil {
		r.Handle("/ws", cfg.Stream)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(timeout))

		r.Post("/legs/evaluate", h.EvaluateLegs)

		r.Route("/strategies", func(r chi.Router) {
			r.Get("/", h.ListStrategies)
			r.Post("/", h.CreateStrategy)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetStrategy)
				r.Patch("/", h.UpdateStrategy)
				r.Delete("/", h.DeleteStrategy)

				r.Get("/bets", h.ListBets)
				r.Post("/bets", h.CreateBet)

				r.Get("/groups", h.ListGroups)
				r.Post("/groups", h.CreateGroup)

				r.Get("/metrics", h.GetMetrics)
				r.Post("/metrics/recompute", h.RecomputeMetrics)
				r.Get("/metrics/history", h.MetricsHistory)
				r.Get("/pnl", h.PnLSeries)
			})
		})

		r.Route("/bets/{id}", func(r chi.Router) {
			r.Get("/", h.GetBet)
			r.Patch("/", h.UpdateBet)
			r.Delete("/", h.DeleteBet)
		})

		r.Route("/groups/{id}", func(r chi.Router) {
			r.Get("/", h.GetGroup)
			r.Patch("/", h.UpdateGroup)
			r.Delete("/", h.DeleteGroup)
			r.Post("/bets", h.AddGroupBet)
		})
	})

	return r
}
