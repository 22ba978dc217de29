// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tmachnicki/pathweaver/internal/engine"
	"github.com/tmachnicki/pathweaver/internal/feedback"
)

// maxBodyBytes caps request body size.
const maxBodyBytes = 1 << 20

// Handler serves the recommendation endpoints.
type Handler struct {
	engine *engine.Engine
	logger zerolog.Logger
}

// NewHandler creates the endpoint handler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(eng *engine.Engine, logger zerolog.Logger) *Handler {
	return &Handler{
		engine: eng,
		logger: logger.With().Str("component", "api").Logger(),
	}
}

// decodeBody parses a JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

// BuildPath handles POST /api/v1/path. Returns the constructed learning
// path and its flattened playable results.
func (h *Handler) BuildPath(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var body PathRequest
	if err := decodeBody(w, r, &body); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if err := body.Validate(); err != nil {
		rw.ValidationFailed(err)
		return
	}

	req, err := body.toEngine()
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	resp, err := h.engine.BuildPath(r.Context(), req)
	if err != nil {
		h.respondEngineError(rw, err)
		return
	}
	rw.Success(resp)
}

// Match handles POST /api/v1/match. Returns ranked catalog items without
// building a path.
func (h *Handler) Match(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var body MatchRequest
	if err := decodeBody(w, r, &body); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if err := body.Validate(); err != nil {
		rw.ValidationFailed(err)
		return
	}

	req, err := body.toEngine()
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	resp, err := h.engine.Match(r.Context(), req)
	if err != nil {
		h.respondEngineError(rw, err)
		return
	}
	rw.Success(resp)
}

// Feedback handles POST /api/v1/feedback. Records one engagement event.
func (h *Handler) Feedback(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var body FeedbackRequest
	if err := decodeBody(w, r, &body); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if err := body.Validate(); err != nil {
		rw.ValidationFailed(err)
		return
	}

	err := h.engine.RecordFeedback(r.Context(), body.UserID, body.ItemCode, feedback.EventType(body.Event))
	if err != nil {
		if errors.Is(err, feedback.ErrInvalidEvent) {
			rw.BadRequest(err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("failed to record feedback")
		rw.InternalError("failed to record feedback")
		return
	}
	rw.Created(map[string]string{"status": "recorded"})
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if err := h.engine.Health(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("health check failed")
		rw.ServiceUnavailable("catalog unavailable")
		return
	}
	rw.Success(map[string]string{"status": "ok"})
}

// respondEngineError maps engine errors onto HTTP statuses.
func (h *Handler) respondEngineError(rw *ResponseWriter, err error) {
	if errors.Is(err, engine.ErrEmptyQuery) {
		rw.BadRequest(err.Error())
		return
	}
	h.logger.Error().Err(err).Msg("pipeline request failed")
	rw.InternalError("pipeline request failed")
}
