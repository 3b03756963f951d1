// Package api serves the dashboard's HTTP interface.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"lighthouse_dashboard/internal/api/handler"
	"lighthouse_dashboard/internal/api/middleware"
	"lighthouse_dashboard/internal/api/router"
	"lighthouse_dashboard/internal/telemetry"

	"github.com/justinas/alice"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 15 * time.Second

type Server struct {
	httpServer *http.Server
}

// New wires the routes. A nil gatherer leaves /metrics unregistered.
func New(
	addr string,
	service handler.MetricsService,
	m *telemetry.Metrics,
	gatherer prometheus.Gatherer,
) *Server {
	configs := []router.ConfigRouter{
		router.WithRouteMiddleware(middleware.Instrument(m)),
		router.WithRoutes(handler.Healthcheck()...),
		router.WithRoutes(handler.Sheets(service)...),
	}
	if gatherer != nil {
		configs = append(configs, router.WithRoutes(handler.Prometheus(gatherer)...))
	}
	rt := router.New(configs...)

	middlewares := []alice.Constructor{
		middleware.Logging(),
		middleware.Recover(),
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           alice.New(middlewares...).Then(rt),
			ReadHeaderTimeout: 2 * time.Second,
		},
	}
}

// Handler exposes the full middleware chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully. Callers tie
// ctx to process signals.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("address", listener.Addr().String()).Msg("HTTP server starting")

		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Context cancelled")
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server failed")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info().Dur("timeout", shutdownTimeout).Msg("Shutting down HTTP server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during HTTP server shutdown")
		return err
	}

	log.Info().Msg("HTTP server stopped")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
