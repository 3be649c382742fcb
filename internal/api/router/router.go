package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mimakeko/homehealth-assistant/internal/admin"
	"github.com/mimakeko/homehealth-assistant/internal/geo"
	httpmiddleware "github.com/mimakeko/homehealth-assistant/internal/http/middleware"
	"github.com/mimakeko/homehealth-assistant/internal/messaging"
	"github.com/mimakeko/homehealth-assistant/internal/observability/metrics"
	"github.com/mimakeko/homehealth-assistant/internal/schedule"
	"github.com/mimakeko/homehealth-assistant/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger           *logging.Logger
	Metrics          *metrics.Metrics
	Auth             *httpmiddleware.TokenAuth
	SimulateLimiter  *httpmiddleware.RateLimiter
	MessagingHandler *messaging.Handler
	ScheduleHandler  *schedule.Handler
	GeoHandler       *geo.Handler
	AdminHandler     *admin.Handler

	// MetricsHandler serves the Prometheus exposition format. The JSON
	// snapshot stays on /metrics for parity with older dashboards.
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger, cfg.Metrics))
	}

	// Public endpoints (webhooks, health checks, SMS entry points)
	r.Group(func(public chi.Router) {
		if cfg.AdminHandler != nil {
			public.Get("/", cfg.AdminHandler.Root)
			public.Get("/healthz", cfg.AdminHandler.Health)
			public.Get("/metrics", cfg.AdminHandler.MetricsJSON)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics.prom", cfg.MetricsHandler)
		}
		if cfg.MessagingHandler != nil {
			if cfg.SimulateLimiter != nil {
				public.With(httpmiddleware.RateLimit(cfg.SimulateLimiter)).
					Post("/simulate-sms", cfg.MessagingHandler.SimulateSMS)
			} else {
				public.Post("/simulate-sms", cfg.MessagingHandler.SimulateSMS)
			}
			public.Post("/send-sms", cfg.MessagingHandler.SendSMS)
			public.Post("/webhook/sms", cfg.MessagingHandler.TwilioWebhook)
		}
		// The HTML pages gate themselves so they can render the login
		// form and mint the session cookie.
		if cfg.AdminHandler != nil {
			public.Get("/debug", cfg.AdminHandler.DebugPage)
		}
		if cfg.ScheduleHandler != nil {
			public.Get("/ui/schedule", cfg.ScheduleHandler.SchedulePage)
		}
	})

	// Operator endpoints behind the debug token
	if cfg.Auth != nil {
		r.Group(func(protected chi.Router) {
			protected.Use(cfg.Auth.Middleware)
			if cfg.AdminHandler != nil {
				protected.Get("/admin", cfg.AdminHandler.AdminPage)
				protected.Get("/admin/messages", cfg.AdminHandler.Messages)
				protected.Get("/admin/intents", cfg.AdminHandler.Intents)
				protected.Get("/admin/report", cfg.AdminHandler.Report)
				protected.Get("/admin/export.csv", cfg.AdminHandler.ExportCSV)
				protected.Post("/admin/export/archive", cfg.AdminHandler.ArchiveExport)
			}
			if cfg.ScheduleHandler != nil {
				protected.Get("/schedule", cfg.ScheduleHandler.GetSchedule)
				protected.Post("/schedule/optimize", cfg.ScheduleHandler.OptimizeSchedule)
			}
			if cfg.GeoHandler != nil {
				protected.Get("/test/geocode", cfg.GeoHandler.TestGeocode)
				protected.Get("/test/distance", cfg.GeoHandler.TestDistance)
			}
		})
	}

	return r
}
