// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// MiddlewareConfig holds CORS and rate limiting settings for the router.
type MiddlewareConfig struct {
	// CORSAllowedOrigins is empty by default, requiring explicit
	// configuration before cross-origin access is allowed.
	CORSAllowedOrigins []string `json:"cors_allowed_origins" koanf:"cors_allowed_origins"`

	// RateLimitRequests is the per-IP request allowance per window.
	// Default: 100.
	RateLimitRequests int `json:"rate_limit_requests" koanf:"rate_limit_requests"`

	// RateLimitWindow is the rate limiting window. Default: 1m.
	RateLimitWindow time.Duration `json:"rate_limit_window" koanf:"rate_limit_window"`

	// RateLimitDisabled turns rate limiting off.
	RateLimitDisabled bool `json:"rate_limit_disabled" koanf:"rate_limit_disabled"`
}

// DefaultMiddlewareConfig returns secure middleware defaults.
func DefaultMiddlewareConfig() MiddlewareConfig {
	return MiddlewareConfig{
		CORSAllowedOrigins: []string{},
		RateLimitRequests:  100,
		RateLimitWindow:    time.Minute,
	}
}

// corsMiddleware builds the CORS handler for the configured origins.
func corsMiddleware(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	})
}

// rateLimitMiddleware builds the per-IP rate limiter. Returns a pass-through
// when disabled.
func rateLimitMiddleware(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	if cfg.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	requests := cfg.RateLimitRequests
	if requests <= 0 {
		requests = 100
	}
	window := cfg.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			NewResponseWriter(w, r).Error(http.StatusTooManyRequests, ErrCodeRateLimited, "rate limit exceeded")
		}),
	)
}
