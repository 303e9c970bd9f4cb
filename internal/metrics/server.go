package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shanehull/promowatch/internal/logger"
)

const shutdownTimeout = 5 * time.Second

// Status is the body of /healthz.
type Status struct {
	Status         string `json:"status"`
	LastSeenCode   string `json:"last_seen_code,omitempty"`
	DestinationSet bool   `json:"destination_set"`
}

// StatusFunc reports the live detector and destination state.
type StatusFunc func() Status

// Server serves /metrics and /healthz.
type Server struct {
	addr string
	mux  *chi.Mux
	log  logger.Interface
}

func NewServer(addr string, gatherer prometheus.Gatherer, status StatusFunc, log logger.Interface) *Server {
	if log == nil {
		log = logger.NewNoOp()
	}

	m := chi.NewRouter()
	m.Use(middleware.Recoverer)
	m.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	m.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		s := status()
		s.Status = "ok"
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s); err != nil {
			log.Warn("Failed to write health response", "error", err)
		}
	})

	return &Server{addr: addr, mux: m, log: log}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Metrics server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
