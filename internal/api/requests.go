// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

package api

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/tmachnicki/pathweaver/internal/catalog"
	"github.com/tmachnicki/pathweaver/internal/engine"
	"github.com/tmachnicki/pathweaver/internal/feedback"
)

// maxQueryLen bounds free-text inputs.
const maxQueryLen = 4000

// PathRequest is the body of POST /api/v1/path.
type PathRequest struct {
	Query                 string   `json:"query"`
	ErrorText             string   `json:"error_text,omitempty"`
	TagHints              []string `json:"tag_hints,omitempty"`
	Vector                string   `json:"vector,omitempty"`
	UserID                string   `json:"user_id,omitempty"`
	TimeBudgetMinutes     int      `json:"time_budget_minutes,omitempty"`
	MaxItems              int      `json:"max_items,omitempty"`
	PreferTroubleshooting bool     `json:"prefer_troubleshooting,omitempty"`
	DisableDiversity      bool     `json:"disable_diversity,omitempty"`
}

// Validate checks field constraints.
func (r PathRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Query, validation.Required, validation.Length(1, maxQueryLen)),
		validation.Field(&r.ErrorText, validation.Length(0, maxQueryLen)),
		validation.Field(&r.TimeBudgetMinutes, validation.Min(0), validation.Max(24*60)),
		validation.Field(&r.MaxItems, validation.Min(0), validation.Max(50)),
	)
}

// toEngine converts the request, decoding the embedding if present.
func (r *PathRequest) toEngine() (*engine.Request, error) {
	req := &engine.Request{
		Query:                 r.Query,
		ErrorText:             r.ErrorText,
		TagHints:              r.TagHints,
		UserID:                r.UserID,
		TimeBudgetMinutes:     r.TimeBudgetMinutes,
		MaxItems:              r.MaxItems,
		PreferTroubleshooting: r.PreferTroubleshooting,
		DisableDiversity:      r.DisableDiversity,
	}
	if r.Vector != "" {
		vec, err := catalog.DecodeVector(r.Vector)
		if err != nil {
			return nil, fmt.Errorf("invalid vector encoding: %w", err)
		}
		req.Vector = vec
	}
	return req, nil
}

// MatchRequest is the body of POST /api/v1/match.
type MatchRequest struct {
	Query     string   `json:"query"`
	ErrorText string   `json:"error_text,omitempty"`
	TagHints  []string `json:"tag_hints,omitempty"`
	Vector    string   `json:"vector,omitempty"`
	UserID    string   `json:"user_id,omitempty"`
}

// Validate checks field constraints.
func (r MatchRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Query, validation.Required, validation.Length(1, maxQueryLen)),
		validation.Field(&r.ErrorText, validation.Length(0, maxQueryLen)),
	)
}

func (r *MatchRequest) toEngine() (*engine.Request, error) {
	req := &engine.Request{
		Query:     r.Query,
		ErrorText: r.ErrorText,
		TagHints:  r.TagHints,
		UserID:    r.UserID,
	}
	if r.Vector != "" {
		vec, err := catalog.DecodeVector(r.Vector)
		if err != nil {
			return nil, fmt.Errorf("invalid vector encoding: %w", err)
		}
		req.Vector = vec
	}
	return req, nil
}

// FeedbackRequest is the body of POST /api/v1/feedback.
type FeedbackRequest struct {
	UserID   string `json:"user_id"`
	ItemCode string `json:"item_code"`
	Event    string `json:"event"`
}

// Validate checks field constraints.
func (r FeedbackRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.ItemCode, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.Event, validation.Required,
			validation.In(string(feedback.EventEngaged), string(feedback.EventSkipped))),
	)
}
