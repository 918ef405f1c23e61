package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries the HTTP-layer settings.
type RouterConfig struct {
	AllowedOrigins []string
	JWTSecret      []byte
}

// NewRouter constructs a chi router with all API endpoints registered.
func NewRouter(svc PointsService, cfg RouterConfig) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		})

		r.Route("/points", func(r chi.Router) {
			r.Use(RequireIdentity(cfg.JWTSecret))

			r.Post("/earn", h.EarnHandler)
			r.Get("/balance", h.BalanceHandler)
			r.Get("/events", h.EventsHandler)
			r.Get("/referrals", h.ReferralsHandler)
			r.Post("/referrer", h.ReferrerHandler)
		})
	})

	return r
}
