package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// APIServer serves the trade service over HTTP.
type APIServer struct {
	server *http.Server
	logger *zap.Logger
}

// NewAPIServer creates a new APIServer listening on port.
func NewAPIServer(port int, handler *APIHandler, logger *zap.Logger) *APIServer {
	return &APIServer{
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: handler.Routes(),
		},
		logger: logger.Named("api-server"),
	}
}

// Start runs the HTTP server in a new goroutine. The returned channel
// receives the error if the server stops for any reason other than Stop.
func (s *APIServer) Start() <-chan error {
	errc := make(chan error, 1)
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server failed", zap.Error(err))
			errc <- err
		}
		close(errc)
	}()
	return errc
}

// Stop gracefully shuts down the server.
func (s *APIServer) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	return s.server.Shutdown(ctx)
}
