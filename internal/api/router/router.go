package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/contractor-leads/internal/chat"
	"github.com/wolfman30/contractor-leads/internal/dashboard"
	httpmiddleware "github.com/wolfman30/contractor-leads/internal/http/middleware"
	"github.com/wolfman30/contractor-leads/internal/leads"
	"github.com/wolfman30/contractor-leads/internal/site"
	"github.com/wolfman30/contractor-leads/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	LeadsHandler       *leads.Handler
	ChatHandler        *chat.Handler
	DashboardHandler   *dashboard.Handler
	SiteHandler        *site.Handler
	DashboardJWTSecret string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// IntakeLimiter throttles the public lead and chat endpoints (optional).
	IntakeLimiter *httpmiddleware.RateLimiter

	// Ready reports whether backing stores are reachable (optional).
	Ready func(ctx context.Context) error
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	throttle := func(next http.Handler) http.Handler { return next }
	if cfg.IntakeLimiter != nil {
		throttle = cfg.IntakeLimiter.Middleware
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthHandler(nil))
		public.Get("/ready", healthHandler(cfg.Ready))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}

		if cfg.LeadsHandler != nil {
			public.Get("/api/services", cfg.LeadsHandler.ListServices)
			public.With(throttle).Post("/api/leads", cfg.LeadsHandler.CreateLead)
		}
		if cfg.SiteHandler != nil {
			public.Get("/api/site", cfg.SiteHandler.ListVariants)
			public.Get("/api/site/{slug}", cfg.SiteHandler.GetVariant)
		}
		if cfg.ChatHandler != nil {
			public.Route("/api/chat", func(r chi.Router) {
				r.Get("/quick-actions", cfg.ChatHandler.HandleQuickActions)
				r.Get("/history", cfg.ChatHandler.HandleHistory)
				r.Get("/ws", cfg.ChatHandler.HandleWebSocket)
				r.Group(func(limited chi.Router) {
					limited.Use(throttle)
					limited.Post("/sessions", cfg.ChatHandler.HandleStartSession)
					limited.Post("/message", cfg.ChatHandler.HandleMessage)
					limited.Post("/quick-action", cfg.ChatHandler.HandleQuickAction)
					limited.Post("/lead", cfg.ChatHandler.HandleLead)
				})
			})
		}
	})

	// Dashboard routes (JWT with an owner or manager role)
	if cfg.DashboardHandler != nil {
		r.Route("/api/dashboard", func(dash chi.Router) {
			dash.Use(httpmiddleware.DashboardJWT(cfg.DashboardJWTSecret))
			cfg.DashboardHandler.Routes(dash)
		})
	}

	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
