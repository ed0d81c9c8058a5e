// Package service exposes the metrics of a run over HTTP while it executes.
package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

const shutdownTimeout = 5 * time.Second

// Service serves /metrics and /healthz
type Service struct {
	log      log.Logger
	server   *http.Server
	listener net.Listener
	healthz  *HealthzHandler
	done     chan error
}

// New creates a service publishing the collectors of gatherer.
func New(logger log.Logger, gatherer prometheus.Gatherer) *Service {
	logger = logger.New("component", "service")
	healthz := &HealthzHandler{log: logger}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/healthz", healthz)
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
	})

	return &Service{
		log:     logger,
		healthz: healthz,
		server: &http.Server{
			Handler:           c.Handler(mux),
			ReadHeaderTimeout: 10 * time.Second,
		},
		done: make(chan error, 1),
	}
}

// Start listens on addr and serves in the background.
func (s *Service) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.log.Info("Starting metrics server", "addr", ln.Addr().String())

	go func() {
		err := s.server.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil {
			s.log.Error("Metrics server failed", "err", err)
		}
		s.done <- err
	}()
	return nil
}

// Addr returns the address the service listens on.
func (s *Service) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Healthz returns the health check handler.
func (s *Service) Healthz() *HealthzHandler {
	return s.healthz
}

// Shutdown stops the server, waiting for in-flight scrapes.
func (s *Service) Shutdown(ctx context.Context) error {
	if s.listener == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	s.log.Info("Stopping metrics server")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return <-s.done
}
