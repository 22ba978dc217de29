// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

// Package diagnosis wraps the upstream natural-language diagnosis service.
// The service returns root-cause text and candidate topics for a raw query;
// the engine uses them to seed the broadened-query fallback and to enrich
// tag hints. Every failure mode (HTTP error, open circuit, rate limit,
// missing configuration) degrades to a synthetic minimal diagnosis carrying
// only the query text, surfaced to the caller as reduced confidence rather
// than an error.
package diagnosis

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tmachnicki/pathweaver/internal/metrics"
)

// Config holds the diagnosis client configuration.
type Config struct {
	// URL is the diagnosis endpoint. Empty disables the client entirely;
	// every call then returns the synthetic fallback.
	URL string `json:"url" koanf:"url"`

	// Timeout bounds one HTTP call. Default: 5s.
	Timeout time.Duration `json:"timeout" koanf:"timeout"`

	// RequestsPerSecond limits outbound call rate. Default: 5.
	RequestsPerSecond float64 `json:"requests_per_second" koanf:"requests_per_second"`

	// Burst is the rate limiter burst size. Default: 5.
	Burst int `json:"burst" koanf:"burst"`
}

// DefaultConfig returns the default diagnosis client configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:           5 * time.Second,
		RequestsPerSecond: 5,
		Burst:             5,
	}
}

// Result is the diagnosis for one query.
type Result struct {
	// RootCause is the service's root-cause text, empty when degraded.
	RootCause string `json:"root_cause"`

	// Topics are candidate topic terms for query broadening.
	Topics []string `json:"topics"`

	// Degraded marks a synthetic fallback result. Surfaces to the caller
	// as reduced confidence.
	Degraded bool `json:"degraded"`
}

// Terms returns the broadening terms this diagnosis contributes.
func (r *Result) Terms() []string {
	if r == nil {
		return nil
	}
	var terms []string
	if r.RootCause != "" {
		terms = append(terms, r.RootCause)
	}
	terms = append(terms, r.Topics...)
	return terms
}

// Client calls the diagnosis service with circuit breaking and rate
// limiting.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*Result]
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewClient creates a diagnosis client.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst == 0 {
		cfg.Burst = 5
	}

	log := logger.With().Str("component", "diagnosis").Logger()
	const breakerName = "diagnosis-api"
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	breaker := gobreaker.NewCircuitBreaker[*Result](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:  log,
	}
}

// Diagnose returns the upstream diagnosis for a query, or the synthetic
// fallback when the service is unavailable. Never returns an error.
func (c *Client) Diagnose(ctx context.Context, query string) *Result {
	if c.cfg.URL == "" {
		return fallback()
	}

	if !c.limiter.Allow() {
		c.logger.Debug().Msg("diagnosis call rate limited, using fallback")
		metrics.DiagnosisRequests.WithLabelValues("rate_limited").Inc()
		return fallback()
	}

	result, err := c.breaker.Execute(func() (*Result, error) {
		return c.call(ctx, query)
	})
	if err != nil {
		outcome := "error"
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			outcome = "open"
		}
		c.logger.Warn().Err(err).Msg("diagnosis call failed, using fallback")
		metrics.DiagnosisRequests.WithLabelValues(outcome).Inc()
		return fallback()
	}

	metrics.DiagnosisRequests.WithLabelValues("ok").Inc()
	return result
}

// call performs one HTTP round trip.
func (c *Client) call(ctx context.Context, query string) (*Result, error) {
	payload, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, fmt.Errorf("encode diagnosis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build diagnosis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("diagnosis call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("diagnosis call: status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode diagnosis response: %w", err)
	}
	return &result, nil
}

// fallback is the synthetic minimal diagnosis.
func fallback() *Result {
	return &Result{Degraded: true}
}

// stateToFloat maps breaker states onto the gauge encoding.
func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
