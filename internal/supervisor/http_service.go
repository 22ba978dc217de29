// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// HTTPService wraps an http.Server as a supervised service with graceful
// shutdown on context cancellation.
type HTTPService struct {
	server          *http.Server
	shutdownTimeout time.Duration
	logger          zerolog.Logger
}

// NewHTTPService creates a supervised HTTP server.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHTTPService(server *http.Server, shutdownTimeout time.Duration, logger zerolog.Logger) *HTTPService {
	if shutdownTimeout == 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		logger:          logger.With().Str("component", "http-service").Logger(),
	}
}

// Serve implements suture.Service. Listens until the context is canceled,
// then shuts down gracefully.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.server.Addr).Msg("http server listening")
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn().Err(err).Msg("http server shutdown error")
		return err
	}
	s.logger.Info().Msg("http server stopped")
	return nil
}
