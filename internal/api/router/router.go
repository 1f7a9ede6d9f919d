// Package router wires the HTTP surface: public routing and safety
// endpoints, the admin incident API and the Prometheus metrics listener.
package router

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/brightbuddy-ai/platform/internal/http/middleware"
	approuter "github.com/brightbuddy-ai/platform/internal/router"
	"github.com/brightbuddy-ai/platform/pkg/logging"
)

const maxRequestBody = 1 << 20 // 1 MiB

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	Handler            *approuter.Handler
	MetricsHandler     http.Handler
	AdminAuthSecret    string
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	if cfg == nil || cfg.Handler == nil {
		panic("api: action handler is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(logger))

	api := &api{handler: cfg.Handler, logger: logger}

	r.Group(func(public chi.Router) {
		if cfg.RateLimitRPS > 0 {
			public.Use(httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
		}
		public.Get("/health", api.action(approuter.ActionHealth))
		public.Post("/v1/events", api.envelope)
		public.Post("/v1/route", api.action(approuter.ActionRouteMessage))
		public.Post("/v1/safety/analyze", api.action(approuter.ActionAnalyzeContent))
	})

	r.Route("/v1/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
		admin.Post("/incidents", api.action(approuter.ActionReportIncident))
		admin.Post("/incidents/history", api.action(approuter.ActionGetIncidentHistory))
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}

type api struct {
	handler *approuter.Handler
	logger  *logging.Logger
}

// envelope serves the raw {action, data} event shape.
func (a *api) envelope(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	a.write(w, a.handler.Handle(r.Context(), raw))
}

// action serves one fixed action; the request body becomes the data field.
func (a *api) action(action approuter.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := json.RawMessage(`{}`)
		if r.Body != nil {
			raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
			if err != nil {
				http.Error(w, "failed to read request body", http.StatusBadRequest)
				return
			}
			if len(raw) > 0 {
				data = raw
			}
		}
		envelope, err := json.Marshal(approuter.Envelope{Action: action, Data: data})
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		a.write(w, a.handler.Handle(r.Context(), envelope))
	}
}

func (a *api) write(w http.ResponseWriter, resp approuter.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(resp.Body); err != nil {
		a.logger.Warn("response write failed", "error", err)
	}
}
