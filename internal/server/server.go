package server

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MAR2807/ai-chatbot-v3/core/logx"
	"github.com/MAR2807/ai-chatbot-v3/internal/api"
	"github.com/MAR2807/ai-chatbot-v3/internal/config"
	"github.com/MAR2807/ai-chatbot-v3/internal/inflight"
	"github.com/MAR2807/ai-chatbot-v3/internal/serverstate"
)

// Deps are the collaborators the router mounts. Only Invoke is required.
type Deps struct {
	Invoke   http.Handler
	State    *serverstate.Tracker
	Inflight *inflight.Counter
	// Metrics is served at /metrics when it shares the main port.
	Metrics *prometheus.Registry
	OpenAPI *openapi3.T
}

// CORSOptions returns the CORS policy for the configured origins.
func CORSOptions(origins []string) cors.Options {
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}
}

// defaultOrigin advertises the configured origins, sorted, on requests that
// carry no Origin header. Requests with a foreign Origin are left to
// cors.Handler, which answers them without the header.
func defaultOrigin(origins []string) func(http.Handler) http.Handler {
	sorted := slices.Clone(origins)
	slices.Sort(sorted)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Origin") == "" {
				h := w.Header()
				for _, o := range sorted {
					h.Add("Access-Control-Allow-Origin", o)
				}
				if !slices.Contains(h.Values("Vary"), "Origin") {
					h.Add("Vary", "Origin")
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// New constructs the HTTP handler for the relay.
func New(cfg config.RelayConfig, d Deps) (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(cors.Handler(CORSOptions(cfg.AllowedOrigins)))
	r.Use(defaultOrigin(cfg.AllowedOrigins))
	for _, m := range api.MiddlewareChain() {
		r.Use(m)
	}

	state := d.State
	if state == nil {
		state = serverstate.NewTracker(nil)
		if err := state.MarkReady(context.Background()); err != nil {
			return nil, err
		}
	}
	r.Get("/healthz", healthz(state))

	r.Route("/api", func(ar chi.Router) {
		ar.Group(func(g chi.Router) {
			if d.Inflight != nil {
				g.Use(d.Inflight.Middleware())
			}
			g.Get("/invoke", d.Invoke.ServeHTTP)
			g.Post("/invoke", d.Invoke.ServeHTTP)
		})
		if d.OpenAPI != nil {
			h, err := api.OpenAPIHandler(d.OpenAPI)
			if err != nil {
				logx.Log.Error().Err(err).Msg("encode openapi")
			} else {
				ar.Get("/openapi.json", h)
				ar.Get("/docs", api.SwaggerHandler())
			}
		}
	})

	if d.Metrics != nil && cfg.MetricsOnMainPort() {
		r.Handle("/metrics", promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{}))
	}
	return r, nil
}

// MetricsHandler serves reg on its own listener.
func MetricsHandler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}

func healthz(state *serverstate.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := state.Current(r.Context())
		code := http.StatusOK
		if st.Status != serverstate.StatusReady {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = fmt.Fprintf(w, `{"status":%q}`, st.Status)
	}
}
