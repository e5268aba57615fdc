package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/boardproxy/health"
	"github.com/jonwraymond/boardproxy/observe"
	"github.com/jonwraymond/boardproxy/resilience"
	"github.com/jonwraymond/boardproxy/summary"
)

// ErrNilSummarizer indicates no summarizer was provided.
var ErrNilSummarizer = errors.New("httpapi: summarizer is required")

// Summarizer is the read surface the HTTP layer serves.
//
// Contract: *summary.Builder satisfies this interface.
type Summarizer interface {
	CurrentProjects(ctx context.Context) ([]summary.ProjectSummary, error)
	PlannedProjects(ctx context.Context) ([]summary.ProjectSummary, error)
	Products(ctx context.Context) ([]summary.ProductSummary, error)
	TeamMembers(ctx context.Context) ([]summary.MemberSummary, error)
	Me(ctx context.Context) (summary.MeSummary, error)
}

var _ Summarizer = (*summary.Builder)(nil)

// Config configures the HTTP server.
type Config struct {
	// Summarizer serves the endpoint payloads. Required.
	Summarizer Summarizer

	// Health aggregates readiness checks. Optional.
	Health *health.Aggregator

	// Middleware wraps every summary route. Optional.
	Middleware *observe.Middleware

	// Logger logs request failures. Defaults to a no-op logger.
	Logger observe.Logger

	// RequestTimeout bounds each summary request.
	// Default: 5 minutes; aggregation retries can legitimately take a while.
	RequestTimeout time.Duration

	// Metrics exposes the Prometheus registry on /metrics when true.
	Metrics bool
}

// Server routes summary requests.
type Server struct {
	summarizer Summarizer
	timeout    *resilience.Timeout
	mw         *observe.Middleware
	logger     observe.Logger
	mux        *http.ServeMux
}

// NewServer creates the HTTP server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Summarizer == nil {
		return nil, ErrNilSummarizer
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observe.NopLogger()
	}

	s := &Server{
		summarizer: cfg.Summarizer,
		timeout:    resilience.NewTimeout(resilience.TimeoutConfig{Timeout: cfg.RequestTimeout}),
		mw:         cfg.Middleware,
		logger:     logger,
		mux:        http.NewServeMux(),
	}

	s.route("/asana", s.handleMe)
	s.route("/current_projects", s.handleCurrentProjects)
	s.route("/planned_projects", s.handlePlannedProjects)
	s.route("/products", s.handleProducts)
	s.route("/bugs_and_chores", s.handleProducts)
	s.route("/team_members", s.handleTeamMembers)

	if cfg.Health != nil {
		health.RegisterHandlers(s.mux, cfg.Health)
	}
	if cfg.Metrics {
		s.mux.Handle("/metrics", promhttp.Handler())
	}

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) route(pattern string, fn http.HandlerFunc) {
	var h http.Handler = readOnly(fn)
	if s.mw != nil {
		h = s.mw.Wrap(pattern, h)
	}
	s.mux.Handle(pattern, h)
}

// readOnly rejects anything but GET and HEAD.
func readOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	serve(s, w, r, func(ctx context.Context) (summary.MeSummary, error) {
		return s.summarizer.Me(ctx)
	})
}

func (s *Server) handleCurrentProjects(w http.ResponseWriter, r *http.Request) {
	serve(s, w, r, func(ctx context.Context) ([]summary.ProjectSummary, error) {
		return s.summarizer.CurrentProjects(ctx)
	})
}

func (s *Server) handlePlannedProjects(w http.ResponseWriter, r *http.Request) {
	serve(s, w, r, func(ctx context.Context) ([]summary.ProjectSummary, error) {
		return s.summarizer.PlannedProjects(ctx)
	})
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	serve(s, w, r, func(ctx context.Context) ([]summary.ProductSummary, error) {
		return s.summarizer.Products(ctx)
	})
}

func (s *Server) handleTeamMembers(w http.ResponseWriter, r *http.Request) {
	serve(s, w, r, func(ctx context.Context) ([]summary.MemberSummary, error) {
		return s.summarizer.TeamMembers(ctx)
	})
}

// serve runs op under the request timeout and writes the JSON result.
// Any error becomes a 502 with a generic body.
func serve[T any](s *Server, w http.ResponseWriter, r *http.Request, op func(context.Context) (T, error)) {
	var result T
	err := s.timeout.Execute(r.Context(), func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	if err != nil {
		s.logger.Error(r.Context(), "request failed",
			observe.Field{Key: "path", Value: r.URL.Path},
			observe.Field{Key: "error", Value: err.Error()},
		)
		writeError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func writeError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "upstream request failed"})
}
