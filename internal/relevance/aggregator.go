// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

// Package relevance merges the four independent signal sources (curated
// override, lexical, semantic, taxonomy) into a single ranked candidate list
// via an ordered chain of match strategies. The aggregator never returns an
// error: an empty result list is a valid, silent outcome.
package relevance

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tmachnicki/pathweaver/internal/catalog"
	"github.com/tmachnicki/pathweaver/internal/match"
	"github.com/tmachnicki/pathweaver/internal/taxonomy"
)

// Strategy names, reported in response metadata and metrics.
const (
	StrategyCurated   = "curated"
	StrategyMerged    = "merged"
	StrategyBroadened = "broadened"
	StrategyTaxonomy  = "taxonomy"
	StrategyNone      = "none"
)

// Query is the aggregator's input for one pipeline run.
type Query struct {
	// Text is the free-text problem description. Required.
	Text string

	// ErrorText is optional error-log text folded into transcript matching.
	ErrorText string

	// TagHints are caller-selected tag IDs merged into the resolved tag set.
	TagHints []string

	// Vector is the externally computed query embedding; nil disables the
	// semantic branch.
	Vector []float32

	// Boosts is the per-user feedback multiplier map (item code -> 0.7-1.2).
	Boosts map[string]float64

	// DiagnosisTerms seed the broadened-query fallback (root-cause text and
	// candidate topics from the upstream diagnosis service).
	DiagnosisTerms []string
}

// Outcome is the aggregator's ranked candidate list plus the context the
// path builder and flattener need.
type Outcome struct {
	// Results is the merged, boosted, ranked candidate list.
	Results []match.Result

	// Strategy names the strategy that produced Results.
	Strategy string

	// MatchedTags is the resolved-plus-hinted tag set the query mapped to.
	MatchedTags []string

	// Keywords are the query keywords, for downstream reason generation.
	Keywords []string
}

// Aggregator merges matcher outputs through tiered confidence logic.
type Aggregator struct {
	cfg      Config
	lexical  *match.Lexical
	semantic *match.Semantic
	curated  *match.Curated
	logger   zerolog.Logger
}

// strategy is one entry in the ordered fallback chain. A strategy satisfies
// the chain when it yields at least minResults candidates.
type strategy struct {
	name       string
	minResults int
	run        func(ctx context.Context, snap *catalog.Snapshot, graph *taxonomy.Graph, q *Query) []match.Result
}

// New creates an aggregator.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg Config, lexical *match.Lexical, semantic *match.Semantic, curated *match.Curated, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		cfg:      cfg,
		lexical:  lexical,
		semantic: semantic,
		curated:  curated,
		logger:   logger.With().Str("component", "relevance").Logger(),
	}
}

// Aggregate runs the strategy chain against one snapshot and returns the
// ranked candidate list. A curated hit short-circuits unconditionally; the
// remaining strategies run in order until one satisfies the minimum-result
// predicate. When none does, the largest non-empty result set seen along the
// chain is returned: the fallbacks supplement a thin list, they never replace
// real candidates with nothing.
func (a *Aggregator) Aggregate(ctx context.Context, snap *catalog.Snapshot, graph *taxonomy.Graph, q *Query) Outcome {
	keywords := match.Keywords(q.Text)
	matchedTags := a.resolveTags(graph, q)

	if results, ok := a.curated.Match(snap, q.Text); ok {
		a.logger.Debug().Int("items", len(results)).Msg("curated override hit, short-circuiting")
		return Outcome{
			Results:     results,
			Strategy:    StrategyCurated,
			MatchedTags: matchedTags,
			Keywords:    keywords,
		}
	}

	strategies := []strategy{
		{name: StrategyMerged, minResults: a.cfg.MinResults, run: a.mergedStrategy},
		{name: StrategyBroadened, minResults: a.cfg.MinResults, run: a.broadenedStrategy},
		{name: StrategyTaxonomy, minResults: 1, run: a.taxonomyStrategy},
	}

	var (
		results  []match.Result
		best     []match.Result
		bestName string
	)
	strategyUsed := StrategyNone
	for _, s := range strategies {
		results = s.run(ctx, snap, graph, q)
		a.logger.Debug().Str("strategy", s.name).Int("results", len(results)).Msg("strategy evaluated")
		if len(results) >= s.minResults {
			strategyUsed = s.name
			break
		}
		if len(results) > len(best) {
			best = results
			bestName = s.name
		}
	}
	if strategyUsed == StrategyNone && len(best) > 0 {
		a.logger.Debug().Str("strategy", bestName).Int("results", len(best)).
			Msg("no strategy met its minimum, keeping best thin result set")
		results = best
		strategyUsed = bestName
	}

	if len(results) > a.cfg.MaxResults {
		results = results[:a.cfg.MaxResults]
	}

	return Outcome{
		Results:     results,
		Strategy:    strategyUsed,
		MatchedTags: matchedTags,
		Keywords:    keywords,
	}
}

// resolveTags unions text-resolved tags with caller tag hints.
func (a *Aggregator) resolveTags(graph *taxonomy.Graph, q *Query) []string {
	resolution := graph.ResolveText(q.Text + " " + q.ErrorText)
	tags := resolution.TagIDs
	for _, hint := range q.TagHints {
		dup := false
		for _, t := range tags {
			if t == hint {
				dup = true
				break
			}
		}
		if !dup {
			tags = append(tags, hint)
		}
	}
	return tags
}

// mergedStrategy fans out to the lexical, metadata, and semantic matchers,
// merges by item code with tiered semantic weighting, then applies the
// taxonomy, version-consistency, and feedback adjustments.
func (a *Aggregator) mergedStrategy(ctx context.Context, snap *catalog.Snapshot, graph *taxonomy.Graph, q *Query) []match.Result {
	branches := []branch{
		{name: "lexical", run: func(context.Context) []match.Result {
			return a.lexical.MatchTranscripts(snap, q.Text, q.ErrorText)
		}},
		{name: "metadata", run: func(context.Context) []match.Result {
			return a.lexical.MatchMetadata(snap, q.Text)
		}},
		{name: "semantic", run: func(context.Context) []match.Result {
			return match.RollUp(a.semantic.Match(snap, q.Vector))
		}},
	}
	joined := a.runBranches(ctx, branches)

	deterministic := mergeByCode(joined[0].results, joined[1].results)
	merged := a.mergeSemantic(deterministic, joined[2].results)

	return a.applyAdjustments(snap, graph, q, merged)
}

// broadenedStrategy reruns lexical and metadata matching with the query
// broadened by upstream diagnosis terms.
func (a *Aggregator) broadenedStrategy(ctx context.Context, snap *catalog.Snapshot, graph *taxonomy.Graph, q *Query) []match.Result {
	if len(q.DiagnosisTerms) == 0 {
		return nil
	}
	broadened := q.Text + " " + strings.Join(q.DiagnosisTerms, " ")

	branches := []branch{
		{name: "lexical", run: func(context.Context) []match.Result {
			return a.lexical.MatchTranscripts(snap, broadened, q.ErrorText)
		}},
		{name: "metadata", run: func(context.Context) []match.Result {
			return a.lexical.MatchMetadata(snap, broadened)
		}},
	}
	joined := a.runBranches(ctx, branches)

	merged := mergeByCode(joined[0].results, joined[1].results)
	return a.applyAdjustments(snap, graph, q, merged)
}

// taxonomyStrategy scores every item purely on taxonomy overlap, the last
// resort when lexical and semantic signals produced nothing usable.
func (a *Aggregator) taxonomyStrategy(_ context.Context, snap *catalog.Snapshot, graph *taxonomy.Graph, q *Query) []match.Result {
	keywords := match.Keywords(q.Text + " " + q.ErrorText)
	if len(keywords) == 0 {
		return nil
	}

	var results []match.Result
	for i := range snap.Items {
		item := &snap.Items[i]
		score, breakdown := graph.ScoreItem(item, keywords)
		if score <= 0 {
			continue
		}
		r := match.Result{
			ItemCode:        item.Code,
			Score:           score,
			Tier:            match.TierDeterministic,
			TaxonomyBoosted: true,
			Keywords:        keywords,
		}
		for tagID := range breakdown {
			r.TagIDs = append(r.TagIDs, tagID)
		}
		sortStrings(r.TagIDs)
		results = append(results, r)
	}

	sortByScore(results)
	return a.applyFeedback(q, results)
}

// mergeByCode merges two deterministic result lists, summing scores and
// unioning matched-term detail on overlap.
func mergeByCode(lists ...[]match.Result) []match.Result {
	byCode := make(map[string]*match.Result)
	var order []string

	for _, list := range lists {
		for i := range list {
			r := &list[i]
			existing, ok := byCode[r.ItemCode]
			if !ok {
				clone := *r
				byCode[r.ItemCode] = &clone
				order = append(order, r.ItemCode)
				continue
			}
			existing.Score += r.Score
			existing.Keywords = mergeTerms(existing.Keywords, r.Keywords)
			existing.TitleTerms = mergeTerms(existing.TitleTerms, r.TitleTerms)
			existing.TranscriptTerms = mergeTerms(existing.TranscriptTerms, r.TranscriptTerms)
			existing.TagIDs = mergeTerms(existing.TagIDs, r.TagIDs)
		}
	}

	merged := make([]match.Result, 0, len(order))
	for _, code := range order {
		merged = append(merged, *byCode[code])
	}
	sortByScore(merged)
	return merged
}

// mergeSemantic folds semantic item results into the deterministic list.
// Tier-1 confidence decides the weighting: semantic is the primary signal
// when the deterministic tier is weak and a secondary confirming signal when
// it is strong.
func (a *Aggregator) mergeSemantic(deterministic, semantic []match.Result) []match.Result {
	confident := false
	if len(deterministic) > 0 && deterministic[0].Score >= a.cfg.Tier1Threshold {
		confident = true
	}

	newWeight := a.cfg.SemanticNewWeight
	boost := a.cfg.SemanticBoost
	if confident {
		newWeight = a.cfg.SemanticNewWeightConfident
		boost = a.cfg.SemanticBoostConfident
	}

	byCode := make(map[string]*match.Result, len(deterministic))
	for i := range deterministic {
		byCode[deterministic[i].ItemCode] = &deterministic[i]
	}

	merged := deterministic
	for i := range semantic {
		s := &semantic[i]
		if existing, ok := byCode[s.ItemCode]; ok {
			existing.Score += boost
			existing.Semantic = true
			existing.Segments = append(existing.Segments, s.Segments...)
			continue
		}
		// Semantic-only item: scale the passage similarity by the tier
		// weight so stronger passages rank higher among tier-2 entries.
		merged = append(merged, match.Result{
			ItemCode: s.ItemCode,
			Score:    newWeight * s.Score,
			Tier:     match.TierSemantic,
			Semantic: true,
			Segments: s.Segments,
		})
	}

	sortByScore(merged)
	return merged
}

// applyAdjustments runs the taxonomy boost, version-consistency adjustment,
// and feedback multiplier, in that order, then re-sorts.
func (a *Aggregator) applyAdjustments(snap *catalog.Snapshot, graph *taxonomy.Graph, q *Query, results []match.Result) []match.Result {
	matchedTags := a.resolveTags(graph, q)
	a.applyTagBoost(snap, matchedTags, results)
	a.applyVersionAdjust(snap, graph, q.Text, results)
	results = a.applyFeedback(q, results)
	sortByScore(results)
	return results
}
