// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

// Package engine orchestrates the full recommendation pipeline: diagnosis
// and per-user feedback run in parallel up front, the relevance aggregator
// ranks candidates, the path builder selects under budget, and the
// flattener expands the selection into playable results. Auxiliary inputs
// (diagnosis, feedback) degrade silently; only catalog access and an empty
// query are hard errors.
package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tmachnicki/pathweaver/internal/catalog"
	"github.com/tmachnicki/pathweaver/internal/diagnosis"
	"github.com/tmachnicki/pathweaver/internal/feedback"
	"github.com/tmachnicki/pathweaver/internal/flatten"
	"github.com/tmachnicki/pathweaver/internal/metrics"
	"github.com/tmachnicki/pathweaver/internal/pathbuild"
	"github.com/tmachnicki/pathweaver/internal/relevance"
	"github.com/tmachnicki/pathweaver/internal/taxonomy"
)

// ErrEmptyQuery is returned when a request carries no query text.
var ErrEmptyQuery = errors.New("engine: query text is required")

// Request is one pipeline invocation.
type Request struct {
	// Query is the free-text problem description. Required.
	Query string

	// ErrorText is optional error-log text folded into transcript matching.
	ErrorText string

	// TagHints are caller-selected tag IDs.
	TagHints []string

	// Vector is the externally computed query embedding, already decoded.
	// Nil disables the semantic branch.
	Vector []float32

	// UserID keys the per-user feedback boost map. Empty skips feedback.
	UserID string

	// TimeBudgetMinutes overrides the path time budget when positive.
	TimeBudgetMinutes int

	// MaxItems overrides the path item cap when positive.
	MaxItems int

	// PreferTroubleshooting front-loads troubleshooting items in the path.
	PreferTroubleshooting bool

	// DisableDiversity turns the tag-overlap diversity cap off.
	DisableDiversity bool
}

// Metadata describes one pipeline run.
type Metadata struct {
	RequestID string    `json:"request_id"`
	Strategy  string    `json:"strategy"`
	LatencyMS int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`

	// ReducedConfidence is set when an auxiliary input (diagnosis,
	// feedback) failed and the pipeline ran without it.
	ReducedConfidence bool `json:"reduced_confidence"`
}

// MatchEntry is one ranked catalog item in a match response.
type MatchEntry struct {
	ItemCode    string   `json:"item_code"`
	Title       string   `json:"title"`
	Score       float64  `json:"score"`
	Tier        int      `json:"tier"`
	Curated     bool     `json:"curated"`
	TagIDs      []string `json:"tag_ids,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}

// MatchResponse is the ranked-items operation result.
type MatchResponse struct {
	Matches     []MatchEntry `json:"matches"`
	MatchedTags []string     `json:"matched_tags,omitempty"`
	Metadata    Metadata     `json:"metadata"`
}

// PathResponse is the full path-construction result.
type PathResponse struct {
	Path        pathbuild.Path           `json:"path"`
	Playables   []flatten.PlayableResult `json:"playables"`
	MatchedTags []string                 `json:"matched_tags,omitempty"`
	Metadata    Metadata                 `json:"metadata"`
}

// graphCache pairs a snapshot with the taxonomy graph built from it, so the
// graph is rebuilt only when the snapshot changes.
type graphCache struct {
	snap  *catalog.Snapshot
	graph *taxonomy.Graph
}

// Engine runs the recommendation pipeline against the live catalog
// snapshot.
type Engine struct {
	repo       *catalog.Repository
	aggregator *relevance.Aggregator
	flattener  *flatten.Flattener
	diag       *diagnosis.Client
	feedback   *feedback.Store
	pathCfg    pathbuild.Config
	taxCfg     taxonomy.Config
	logger     zerolog.Logger

	cache atomic.Pointer[graphCache]
}

// New assembles the engine. The feedback store and diagnosis client may be
// nil; the pipeline then runs without those signals.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(
	repo *catalog.Repository,
	aggregator *relevance.Aggregator,
	flattener *flatten.Flattener,
	diag *diagnosis.Client,
	fb *feedback.Store,
	pathCfg pathbuild.Config,
	taxCfg taxonomy.Config,
	logger zerolog.Logger,
) *Engine {
	return &Engine{
		repo:       repo,
		aggregator: aggregator,
		flattener:  flattener,
		diag:       diag,
		feedback:   fb,
		pathCfg:    pathCfg,
		taxCfg:     taxCfg,
		logger:     logger.With().Str("component", "engine").Logger(),
	}
}

// graphFor returns the taxonomy graph for a snapshot, rebuilding it only
// when the snapshot pointer differs from the cached one.
func (e *Engine) graphFor(snap *catalog.Snapshot) *taxonomy.Graph {
	if cached := e.cache.Load(); cached != nil && cached.snap == snap {
		return cached.graph
	}
	graph := taxonomy.New(snap, e.taxCfg)
	e.cache.Store(&graphCache{snap: snap, graph: graph})
	return graph
}

// runContext is the shared pipeline state built by prepare.
type runContext struct {
	snap    *catalog.Snapshot
	graph   *taxonomy.Graph
	query   relevance.Query
	outcome relevance.Outcome
	meta    Metadata
	started time.Time
}

// prepare loads the snapshot, gathers the auxiliary signals in parallel,
// and runs the aggregator.
func (e *Engine) prepare(ctx context.Context, req *Request) (*runContext, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}

	started := time.Now()
	snap, err := e.repo.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	graph := e.graphFor(snap)

	rc := &runContext{
		snap:    snap,
		graph:   graph,
		started: started,
		meta: Metadata{
			RequestID: uuid.NewString(),
			Timestamp: started.UTC(),
		},
	}

	var (
		wg     sync.WaitGroup
		diag   *diagnosis.Result
		boosts map[string]float64
	)

	if e.diag != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			diag = e.diag.Diagnose(ctx, req.Query)
		}()
	}
	if e.feedback != nil && req.UserID != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, ferr := e.feedback.BoostMap(ctx, req.UserID)
			if ferr != nil {
				e.logger.Warn().Err(ferr).Str("user_id", req.UserID).
					Msg("feedback boost map unavailable")
				rc.meta.ReducedConfidence = true
				return
			}
			boosts = m
		}()
	}
	wg.Wait()

	if diag != nil && diag.Degraded {
		rc.meta.ReducedConfidence = true
	}

	rc.query = relevance.Query{
		Text:      req.Query,
		ErrorText: req.ErrorText,
		TagHints:  req.TagHints,
		Vector:    req.Vector,
		Boosts:    boosts,
	}
	if diag != nil {
		rc.query.DiagnosisTerms = diag.Terms()
	}

	rc.outcome = e.aggregator.Aggregate(ctx, snap, graph, &rc.query)
	rc.meta.Strategy = rc.outcome.Strategy
	return rc, nil
}

// finish records metrics and stamps latency.
func (e *Engine) finish(rc *runContext, empty bool) {
	rc.meta.LatencyMS = time.Since(rc.started).Milliseconds()
	metrics.PipelineRequests.WithLabelValues(rc.meta.Strategy).Inc()
	metrics.PipelineDuration.Observe(time.Since(rc.started).Seconds())
	if empty {
		metrics.PipelineEmptyResults.Inc()
	}
	if rc.meta.ReducedConfidence {
		metrics.PipelineReducedConfidence.Inc()
	}
	e.logger.Debug().
		Str("request_id", rc.meta.RequestID).
		Str("strategy", rc.meta.Strategy).
		Int64("latency_ms", rc.meta.LatencyMS).
		Bool("empty", empty).
		Msg("pipeline run complete")
}

// Match ranks catalog items for a query without building a path.
func (e *Engine) Match(ctx context.Context, req *Request) (*MatchResponse, error) {
	rc, err := e.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	entries := make([]MatchEntry, 0, len(rc.outcome.Results))
	for i := range rc.outcome.Results {
		r := &rc.outcome.Results[i]
		entry := MatchEntry{
			ItemCode:    r.ItemCode,
			Score:       r.Score,
			Tier:        r.Tier,
			Curated:     r.Curated,
			TagIDs:      r.TagIDs,
			Explanation: r.CuratedExplanation,
		}
		if item := rc.snap.ItemByCode(r.ItemCode); item != nil {
			entry.Title = item.Title
		}
		entries = append(entries, entry)
	}

	e.finish(rc, len(entries) == 0)
	return &MatchResponse{
		Matches:     entries,
		MatchedTags: rc.outcome.MatchedTags,
		Metadata:    rc.meta,
	}, nil
}

// BuildPath runs the full pipeline: ranked candidates, budgeted path,
// flattened playable results.
func (e *Engine) BuildPath(ctx context.Context, req *Request) (*PathResponse, error) {
	rc, err := e.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	cfg := e.pathCfg
	if req.TimeBudgetMinutes > 0 {
		cfg.TimeBudgetMinutes = req.TimeBudgetMinutes
	}
	if req.MaxItems > 0 {
		cfg.MaxItems = req.MaxItems
	}
	cfg.TroubleshootingFirst = req.PreferTroubleshooting
	if req.DisableDiversity {
		cfg.Diversity = false
	}

	path := pathbuild.Build(rc.snap, rc.graph, rc.outcome.Results, rc.outcome.MatchedTags, cfg)
	playables := e.flattener.Flatten(rc.snap, &path, rc.outcome.Results, rc.outcome.Keywords, rc.query.Boosts)

	e.finish(rc, len(playables) == 0)
	return &PathResponse{
		Path:        path,
		Playables:   playables,
		MatchedTags: rc.outcome.MatchedTags,
		Metadata:    rc.meta,
	}, nil
}

// RecordFeedback persists one engagement event. No-op error when the
// feedback store is disabled.
func (e *Engine) RecordFeedback(ctx context.Context, userID, itemCode string, event feedback.EventType) error {
	if e.feedback == nil {
		return errors.New("engine: feedback store disabled")
	}
	return e.feedback.Record(ctx, userID, itemCode, event)
}

// Health reports whether the catalog snapshot is loadable.
func (e *Engine) Health(ctx context.Context) error {
	_, err := e.repo.Snapshot(ctx)
	return err
}
