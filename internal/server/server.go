// Package server exposes the generation pipelines over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/af-corp/tourdesk/internal/generation"
	"github.com/af-corp/tourdesk/internal/httputil"
	"github.com/af-corp/tourdesk/internal/llm"
	"github.com/af-corp/tourdesk/internal/ratelimit"
	"github.com/af-corp/tourdesk/internal/telemetry"
)

// Check reports the health of one dependency.
type Check func(ctx context.Context) error

type Options struct {
	Pipelines generation.Pipelines
	Limiter   ratelimit.Limiter
	Metrics   *telemetry.Metrics
	Health    *llm.HealthTracker
	// Checks are run by the health endpoint, keyed by dependency name.
	Checks         map[string]Check
	MetricsHandler http.Handler
	MaxBodyBytes   int64
	Version        string
}

type Server struct {
	opts Options
}

// NewRouter builds the HTTP routes.
func NewRouter(opts Options) chi.Router {
	s := &Server{opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Recoverer)

	r.Get("/api/v1/health", s.health)
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	r.Route("/api/v1/ai-generate", func(r chi.Router) {
		if opts.MaxBodyBytes > 0 {
			r.Use(middleware.RequestSize(opts.MaxBodyBytes))
		}
		if opts.Limiter != nil {
			r.Use(ratelimit.Middleware(opts.Limiter, opts.Metrics))
		}
		r.Post("/destination", s.generate(opts.Pipelines.Destination))
		r.Post("/package", s.generate(opts.Pipelines.Package))
		r.Post("/itineraries", s.generate(opts.Pipelines.Itinerary))
	})

	return r
}

func (s *Server) generate(runner generation.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := httputil.RequestIDFromContext(r.Context())

		body, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				httputil.WriteBadRequestError(w, reqID, "Request body too large", nil)
				return
			}
			httputil.WriteBadRequestError(w, reqID, "Failed to read request body", nil)
			return
		}
		defer r.Body.Close()

		out, err := runner.Run(r.Context(), reqID, body)
		if err != nil {
			writeGenerationError(w, reqID, generation.Classify(err))
			return
		}
		httputil.WriteSuccess(w, reqID, out.Message, out.Data)
	}
}

func writeGenerationError(w http.ResponseWriter, reqID string, e *generation.Error) {
	body := httputil.ErrorBody{Error: e.Message, Preview: e.Preview}
	if len(e.Issues) > 0 {
		body.Details = e.Issues
	}
	httputil.WriteError(w, reqID, e.Kind.HTTPStatus(), body)
}

type healthResponse struct {
	Status    string                        `json:"status"`
	Version   string                        `json:"version"`
	Checks    map[string]string             `json:"checks"`
	Providers map[string]llm.ProviderStatus `json:"providers"`
}

// health reports 503 when any dependency check fails. Provider circuits
// are informational: an open circuit has a fallback route.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:    "healthy",
		Version:   s.opts.Version,
		Checks:    make(map[string]string, len(s.opts.Checks)),
		Providers: map[string]llm.ProviderStatus{},
	}

	names := make([]string, 0, len(s.opts.Checks))
	for name := range s.opts.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	for _, name := range names {
		if err := s.opts.Checks[name](ctx); err != nil {
			resp.Checks[name] = "error: " + err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	if s.opts.Health != nil {
		resp.Providers = s.opts.Health.Status()
	}

	httputil.WriteJSON(w, status, resp)
}
