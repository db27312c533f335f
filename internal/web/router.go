package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/wolfman30/salon-booking-board/internal/http/middleware"
	"github.com/wolfman30/salon-booking-board/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	Handler        *Handler
	MetricsHandler http.Handler

	// Per-client limit on the date and refresh actions. Zero disables it.
	ActionRPS   float64
	ActionBurst int
}

// NewRouter creates a Chi router with all board routes configured
func NewRouter(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	h := cfg.Handler

	r.Get("/health", h.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// websocket upgrades must not go through the compressing writer
	r.Get("/ws", h.Live)

	r.Group(func(page chi.Router) {
		page.Use(middleware.Compress(5))
		page.Get("/", h.Page)
		page.Get("/api/board", h.Snapshot)
		page.Get("/static/board.js", h.BoardJS)
	})

	r.Group(func(actions chi.Router) {
		if cfg.ActionRPS > 0 && cfg.ActionBurst > 0 {
			actions.Use(httpmiddleware.RateLimit(cfg.ActionRPS, cfg.ActionBurst))
		}
		actions.Post("/date/prev", h.PrevDay)
		actions.Post("/date/next", h.NextDay)
		actions.Post("/refresh", h.Refresh)
	})

	return r
}
