package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/regain-housing-analysis/internal/domain"
)

// ResultProvider returns the latest analysis result, or nil before the first run.
type ResultProvider interface {
	Latest() *domain.Result
}

// Analysis is what the server needs from the analyzer.
type Analysis interface {
	sharedobs.ReadinessChecker
	ResultProvider
}

// Server exposes health, readiness, metrics and result endpoints.
type Server struct {
	httpServer *http.Server
	results    ResultProvider
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, /summary
// and /observations routes.
func NewServer(addr string, analysis Analysis, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		results: analysis,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(analysis))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /summary", s.handleSummary)
	mux.HandleFunc("GET /observations", s.handleObservations)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// EraTrend is one panel of the figure without its points.
type EraTrend struct {
	Era    domain.Era    `json:"era"`
	Points int           `json:"points"`
	Trend  *domain.Trend `json:"trend"`
}

// Summary is the /summary response body.
type Summary struct {
	GeneratedAt       time.Time              `json:"generated_at"`
	OutputFile        string                 `json:"output_file"`
	Observations      int                    `json:"observations"`
	DuplicatesRemoved int                    `json:"duplicates_removed"`
	Annual            []domain.AnnualSummary `json:"annual"`
	Eras              []EraTrend             `json:"eras"`
}

func newSummary(r *domain.Result) Summary {
	eras := make([]EraTrend, len(r.Panels))
	for i, p := range r.Panels {
		eras[i] = EraTrend{Era: p.Era, Points: len(p.Observations), Trend: p.Trend}
	}
	return Summary{
		GeneratedAt:       r.GeneratedAt,
		OutputFile:        r.OutputFile,
		Observations:      len(r.Observations),
		DuplicatesRemoved: r.DuplicatesRemoved,
		Annual:            r.Annual,
		Eras:              eras,
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	r := s.results.Latest()
	if r == nil {
		writeNoResult(w)
		return
	}
	writeJSON(w, http.StatusOK, newSummary(r))
}

func (s *Server) handleObservations(w http.ResponseWriter, _ *http.Request) {
	r := s.results.Latest()
	if r == nil {
		writeNoResult(w)
		return
	}
	writeJSON(w, http.StatusOK, r.Observations)
}

func writeNoResult(w http.ResponseWriter) {
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{
		"status": "not ready",
		"error":  "no analysis run has completed yet",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
