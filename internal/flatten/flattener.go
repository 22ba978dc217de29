// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

// Package flatten expands a selected learning path into individually ranked
// playable results: per-sub-item scoring, locator deduplication, per-parent
// diversity capping, a median-relative score floor, and human-readable match
// justifications.
package flatten

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tmachnicki/pathweaver/internal/catalog"
	"github.com/tmachnicki/pathweaver/internal/match"
	"github.com/tmachnicki/pathweaver/internal/pathbuild"
)

// Config holds the flattener's tuned weights and limits.
type Config struct {
	// TitleWeight scores each query keyword found in a sub-item title.
	// Default: 50.
	TitleWeight float64 `json:"title_weight" koanf:"title_weight"`

	// SegmentWeight scores each keyword occurrence in the sub-item's
	// transcript segments. Default: 10.
	SegmentWeight float64 `json:"segment_weight" koanf:"segment_weight"`

	// IntroPenalty is subtracted when the title suggests an introduction
	// or outro. Default: 20.
	IntroPenalty float64 `json:"intro_penalty" koanf:"intro_penalty"`

	// PerParentCap is the maximum number of sub-items surfaced per parent
	// catalog item. Default: 1.
	PerParentCap int `json:"per_parent_cap" koanf:"per_parent_cap"`

	// MaxResults caps the final list. Default: 6.
	MaxResults int `json:"max_results" koanf:"max_results"`

	// MedianFloorFraction: candidates below this fraction of the median
	// score are dropped when enough candidates remain. Default: 0.5.
	MedianFloorFraction float64 `json:"median_floor_fraction" koanf:"median_floor_fraction"`

	// MedianFloorMin is the absolute minimum the floor can take. Default: 10.
	MedianFloorMin float64 `json:"median_floor_min" koanf:"median_floor_min"`

	// MedianFloorCandidates: the floor only applies when at least this many
	// candidates remain. Default: 4.
	MedianFloorCandidates int `json:"median_floor_candidates" koanf:"median_floor_candidates"`

	// MinKeep is the number of results always preserved even when the floor
	// would remove them. Default: 3.
	MinKeep int `json:"min_keep" koanf:"min_keep"`
}

// DefaultConfig returns the default flattener weights.
func DefaultConfig() Config {
	return Config{
		TitleWeight:           50,
		SegmentWeight:         10,
		IntroPenalty:          20,
		PerParentCap:          1,
		MaxResults:            6,
		MedianFloorFraction:   0.5,
		MedianFloorMin:        10,
		MedianFloorCandidates: 4,
		MinKeep:               3,
	}
}

// PlayableResult is the final user-facing ranked unit.
type PlayableResult struct {
	// Locator identifies the playable content.
	Locator string `json:"locator"`

	// Title is the sub-item display title.
	Title string `json:"title"`

	// DurationSeconds is the playback length.
	DurationSeconds int `json:"duration_seconds"`

	// ItemCode is the parent catalog item.
	ItemCode string `json:"item_code"`

	// Score is the final relevance score (>= 0).
	Score float64 `json:"score"`

	// MatchPercent is the score relative to the top result, 0-100.
	MatchPercent int `json:"match_percent"`

	// Reason explains which signal matched, in priority order
	// curated > title > transcript > tags.
	Reason string `json:"reason"`

	// Role and RoleReason are inherited from the path item.
	Role       pathbuild.Role `json:"role"`
	RoleReason string         `json:"role_reason"`

	// JumpToSeconds hints where in the content the best-matching passage
	// starts. Negative when no passage-level hint exists.
	JumpToSeconds float64 `json:"jump_to_seconds"`
}

// introTitleWords flag sub-items that are likely channel intros or outros.
var introTitleWords = []string{"intro", "introduction", "welcome", "outro", "wrap-up", "recap", "trailer"}

// Flattener expands path items into ranked playable results.
type Flattener struct {
	cfg Config
}

// New creates a flattener with the given weights.
func New(cfg Config) *Flattener {
	return &Flattener{cfg: cfg}
}

// Flatten expands each selected path item into its playable sub-items,
// scores them, deduplicates by locator, caps per parent, applies the
// median-relative floor, and annotates match percentages and reasons.
func (f *Flattener) Flatten(snap *catalog.Snapshot, path *pathbuild.Path, results []match.Result, keywords []string, boosts map[string]float64) []PlayableResult {
	byCode := make(map[string]*match.Result, len(results))
	for i := range results {
		byCode[results[i].ItemCode] = &results[i]
	}

	var candidates []PlayableResult
	for i := range path.Items {
		pi := &path.Items[i]
		item := snap.ItemByCode(pi.ItemCode)
		if item == nil {
			continue
		}
		r := byCode[pi.ItemCode]
		for j := range item.Playables {
			p := &item.Playables[j]
			if p.Locator == "" {
				continue
			}
			candidates = append(candidates, f.scorePlayable(snap, item, p, pi, r, keywords, boosts))
		}
	}

	candidates = dedupeByLocator(candidates)
	sortPlayables(candidates)
	candidates = f.capPerParent(candidates)
	candidates = f.applyMedianFloor(candidates)

	if len(candidates) > f.cfg.MaxResults {
		candidates = candidates[:f.cfg.MaxResults]
	}

	f.annotate(candidates, byCode)
	return candidates
}

// scorePlayable computes one sub-item's score: title keyword hits, segment
// keyword occurrences, the intro/outro penalty, plus the parent's aggregate
// score, all feedback-multiplied.
func (f *Flattener) scorePlayable(snap *catalog.Snapshot, item *catalog.CatalogItem, p *catalog.PlayableItem, pi *pathbuild.Item, r *match.Result, keywords []string, boosts map[string]float64) PlayableResult {
	title := strings.ToLower(p.Title)
	score := 0.0

	for _, kw := range keywords {
		if strings.Contains(title, kw) {
			score += f.cfg.TitleWeight
		}
	}

	lo, hi := snap.SegmentsForLocator(p.Locator)
	for i := lo; i < hi; i++ {
		text := strings.ToLower(snap.Segments[i].Text)
		for _, kw := range keywords {
			score += float64(strings.Count(text, kw)) * f.cfg.SegmentWeight
		}
	}

	if isIntroTitle(title) {
		score -= f.cfg.IntroPenalty
	}

	score += pi.Score

	if boost, ok := boosts[item.Code]; ok && boost > 0 {
		score *= boost
	}
	if score < 0 {
		score = 0
	}

	return PlayableResult{
		Locator:         p.Locator,
		Title:           p.Title,
		DurationSeconds: p.DurationSeconds,
		ItemCode:        item.Code,
		Score:           score,
		Role:            pi.Role,
		RoleReason:      pi.Reason,
		JumpToSeconds:   bestJump(r, p.Locator),
	}
}

// bestJump returns the start of the highest-similarity passage hit for the
// locator, or -1 when none exists.
func bestJump(r *match.Result, locator string) float64 {
	if r == nil {
		return -1
	}
	best := -1.0
	bestSim := 0.0
	for _, s := range r.Segments {
		if s.Locator == locator && s.Similarity > bestSim {
			best = s.StartSeconds
			bestSim = s.Similarity
		}
	}
	return best
}

// isIntroTitle reports whether a title suggests an introduction or outro.
func isIntroTitle(title string) bool {
	for _, w := range introTitleWords {
		if strings.Contains(title, w) {
			return true
		}
	}
	return false
}

// dedupeByLocator keeps the highest-scoring entry per locator.
func dedupeByLocator(candidates []PlayableResult) []PlayableResult {
	best := make(map[string]int)
	var out []PlayableResult
	for _, c := range candidates {
		if idx, ok := best[c.Locator]; ok {
			if c.Score > out[idx].Score {
				out[idx] = c
			}
			continue
		}
		best[c.Locator] = len(out)
		out = append(out, c)
	}
	return out
}

// capPerParent keeps at most PerParentCap sub-items per parent item, taking
// the highest-scoring ones. Candidates must already be sorted.
func (f *Flattener) capPerParent(candidates []PlayableResult) []PlayableResult {
	if f.cfg.PerParentCap <= 0 {
		return candidates
	}
	counts := make(map[string]int)
	out := candidates[:0]
	for _, c := range candidates {
		if counts[c.ItemCode] >= f.cfg.PerParentCap {
			continue
		}
		counts[c.ItemCode]++
		out = append(out, c)
	}
	return out
}

// applyMedianFloor drops candidates scoring below max(MedianFloorFraction x
// median, MedianFloorMin) when at least MedianFloorCandidates remain, always
// preserving the top MinKeep. Candidates must already be sorted.
func (f *Flattener) applyMedianFloor(candidates []PlayableResult) []PlayableResult {
	if len(candidates) < f.cfg.MedianFloorCandidates {
		return candidates
	}

	median := candidates[len(candidates)/2].Score
	floor := median * f.cfg.MedianFloorFraction
	if floor < f.cfg.MedianFloorMin {
		floor = f.cfg.MedianFloorMin
	}

	kept := candidates[:0]
	for i, c := range candidates {
		if i < f.cfg.MinKeep || c.Score >= floor {
			kept = append(kept, c)
		}
	}
	return kept
}

// annotate fills match percentages (relative to the top scorer) and reason
// strings.
func (f *Flattener) annotate(candidates []PlayableResult, byCode map[string]*match.Result) {
	if len(candidates) == 0 {
		return
	}
	top := candidates[0].Score

	for i := range candidates {
		c := &candidates[i]
		if top > 0 {
			c.MatchPercent = int(c.Score / top * 100)
		}
		c.Reason = matchReason(byCode[c.ItemCode])
	}
}

// matchReason builds the justification from whichever signal contributed,
// in priority order: curated explanation, title terms, transcript terms,
// tags, then passage similarity.
func matchReason(r *match.Result) string {
	switch {
	case r == nil:
		return "Related to your topic"
	case r.CuratedExplanation != "":
		return r.CuratedExplanation
	case len(r.TitleTerms) > 0:
		return fmt.Sprintf("Title matches %s", quoteList(r.TitleTerms))
	case len(r.TranscriptTerms) > 0:
		return fmt.Sprintf("Transcript covers %s", quoteList(r.TranscriptTerms))
	case len(r.TagIDs) > 0:
		return fmt.Sprintf("Tagged %s", strings.Join(r.TagIDs, ", "))
	case len(r.Segments) > 0:
		return "A passage closely matches your description"
	default:
		return "Related to your topic"
	}
}

// quoteList renders up to three terms as a quoted, comma-separated list.
func quoteList(terms []string) string {
	if len(terms) > 3 {
		terms = terms[:3]
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	return strings.Join(quoted, ", ")
}

// sortPlayables orders by score descending, locator ascending.
func sortPlayables(candidates []PlayableResult) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Locator < candidates[j].Locator
	})
}
