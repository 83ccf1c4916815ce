package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"hostsync/internal/updater"
)

// statusResponse is the JSON body served on /status.
type statusResponse struct {
	Status        string    `json:"status"`
	RegionStatus  string    `json:"region_status"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	SourcesOK     int       `json:"sources_ok"`
	SourcesFailed int       `json:"sources_failed"`
	FailedSources []string  `json:"failed_sources,omitempty"`
	BytesWritten  int       `json:"bytes_written"`
	Error         string    `json:"error,omitempty"`
}

// Server exposes health, last-cycle status and Prometheus metrics over HTTP.
// It implements the scheduler's OutcomeSink.
type Server struct {
	listenAddr string
	metrics    *Metrics
	logger     zerolog.Logger
	httpServer *http.Server

	mu      sync.RWMutex
	last    updater.Outcome
	hasLast bool
}

// NewServer creates a status server listening on listenAddr.
func NewServer(listenAddr string, logger zerolog.Logger) *Server {
	s := &Server{
		listenAddr: listenAddr,
		metrics:    NewMetrics(),
		logger:     logger.With().Str("component", "StatusServer").Logger(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP, middleware.Recoverer, middleware.Timeout(10*time.Second))
	r.Get("/healthz", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:              listenAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Record stores the outcome for /status and feeds the metrics.
func (s *Server) Record(outcome updater.Outcome) {
	s.mu.Lock()
	s.last = outcome
	s.hasLast = true
	s.mu.Unlock()

	s.metrics.Observe(outcome)
}

// Start runs the HTTP listener until ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("Status server shutdown error")
		}
	}()

	s.logger.Info().Str("listen_addr", s.listenAddr).Msg("Status server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error().Err(err).Msg("Status server failed")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	last, ok := s.last, s.hasLast
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "no update cycle has run yet"})
		return
	}

	resp := statusResponse{
		Status:        string(last.Status),
		RegionStatus:  last.RegionStatus.String(),
		StartedAt:     last.StartedAt,
		FinishedAt:    last.FinishedAt,
		SourcesOK:     last.SourcesOK,
		SourcesFailed: last.SourcesFailed,
		FailedSources: last.FailedSources,
		BytesWritten:  last.BytesWritten,
	}
	if last.Err != nil {
		resp.Error = last.Err.Error()
	}
	_ = json.NewEncoder(w).Encode(resp)
}
