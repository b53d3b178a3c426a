package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/urban-climate-risk/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReportSource returns the latest completed report, or nil before the first
// run.
type ReportSource interface {
	Latest() *domain.Report
}

// Server exposes health, readiness, metrics, and report HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /report routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, reports ReportSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /report", handleReport(reports))
	mux.HandleFunc("GET /report/cities/{id}", handleCity(reports))

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

func handleReport(reports ReportSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		report := reports.Latest()
		if report == nil {
			sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "no report yet"})
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, report)
	}
}

func handleCity(reports ReportSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := reports.Latest()
		if report == nil {
			sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "no report yet"})
			return
		}
		id := r.PathValue("id")
		for _, rec := range report.Cities {
			if rec.City.ID == id {
				sharedobs.WriteJSON(w, http.StatusOK, rec)
				return
			}
		}
		sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "unknown city " + id})
	}
}
