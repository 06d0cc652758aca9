// Package service hosts the healthz and metrics HTTP sidecars.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/platformlab/bindcheck/metrics"
)

const (
	defaultHealthzPort = "8080"
	defaultMetricsPort = "7300"
)

type Service struct {
	version string
	healthz *httpServer
	metrics *httpServer
}

func New(version string) *Service {
	return &Service{version: version}
}

// Start brings up the healthz and metrics listeners in the background.
// Listen errors are recorded but do not take the checker down.
func (s *Service) Start(ctx context.Context) {
	healthzMux := http.NewServeMux()
	healthzMux.HandleFunc("/healthz", s.handleHealthz)
	healthzHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
	}).Handler(healthzMux)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	s.healthz = newHTTPServer(ctx, listenAddr("BINDCHECK_HEALTHZ_PORT", defaultHealthzPort), healthzHandler)
	s.metrics = newHTTPServer(ctx, listenAddr("BINDCHECK_METRICS_PORT", defaultMetricsPort), metricsMux)

	s.healthz.serve("healthz")
	s.metrics.serve("metrics")
}

func (s *Service) Shutdown() {
	s.healthz.shutdown("healthz")
	s.metrics.shutdown("metrics")
}

func (s *Service) handleHealthz(w http.ResponseWriter, r *http.Request) {
	log.Debug("Received health check request", "path", r.URL.Path)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

func listenAddr(envVar, defaultPort string) string {
	port := os.Getenv(envVar)
	if port == "" {
		port = defaultPort
	}
	return net.JoinHostPort("0.0.0.0", port)
}

type httpServer struct {
	ctx    context.Context
	server *http.Server
}

func newHTTPServer(ctx context.Context, addr string, handler http.Handler) *httpServer {
	return &httpServer{
		ctx: ctx,
		server: &http.Server{
			Addr:    addr,
			Handler: handler,
		},
	}
}

func (h *httpServer) serve(name string) {
	go func() {
		log.Info("starting server", "name", name, "addr", h.server.Addr)
		err := h.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "name", name, "err", err)
			metrics.RecordErrorDetails("error starting "+name+" server", err)
		}
	}()
}

func (h *httpServer) shutdown(name string) {
	if h == nil || h.server == nil {
		return
	}
	if err := h.server.Shutdown(h.ctx); err != nil {
		log.Error("server shutdown failed", "name", name, "err", err)
	}
	log.Info("server stopped", "name", name)
}
