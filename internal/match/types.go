// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

// Package match implements the four independent signal sources of the
// relevance pipeline: the curated override matcher, the lexical matcher over
// precomputed word tables and item metadata, and the semantic matcher over
// transcript segment embeddings. Each matcher is a pure function over one
// reference-data snapshot.
package match

// Confidence tiers for merged results.
const (
	// TierDeterministic marks results from exact lexical/tag matching.
	TierDeterministic = 1
	// TierSemantic marks results whose primary signal is vector similarity.
	TierSemantic = 2
)

// Result is a transient per-query match for one catalog item.
type Result struct {
	// ItemCode references the matched catalog item.
	ItemCode string `json:"item_code"`

	// Score is the relevance score, always >= 0.
	Score float64 `json:"score"`

	// Keywords are the query keywords that matched anywhere on the item.
	Keywords []string `json:"keywords,omitempty"`

	// Tier is the confidence tier (TierDeterministic or TierSemantic).
	Tier int `json:"tier"`

	// Provenance flags.
	Curated         bool `json:"curated,omitempty"`
	Semantic        bool `json:"semantic,omitempty"`
	TaxonomyBoosted bool `json:"taxonomy_boosted,omitempty"`

	// Signal details, kept for reason generation downstream.
	TitleTerms         []string     `json:"title_terms,omitempty"`
	TranscriptTerms    []string     `json:"transcript_terms,omitempty"`
	TagIDs             []string     `json:"tag_ids,omitempty"`
	CuratedExplanation string       `json:"curated_explanation,omitempty"`
	Segments           []SegmentHit `json:"segments,omitempty"`
}

// SegmentHit is a passage-level semantic match.
type SegmentHit struct {
	// Locator is the playable sub-item the segment belongs to.
	Locator string `json:"locator"`

	// ItemCode is the owning catalog item.
	ItemCode string `json:"item_code"`

	// StartSeconds is the chronological position of the passage.
	StartSeconds float64 `json:"start_seconds"`

	// Similarity is the cosine similarity to the query vector (0-1).
	Similarity float64 `json:"similarity"`

	// Excerpt is the passage text, stitched with adjacent-segment context
	// for the top hits.
	Excerpt string `json:"excerpt"`
}

// mergeStrings appends the values of add not already present in base,
// preserving order.
func mergeStrings(base, add []string) []string {
	seen := make(map[string]struct{}, len(base))
	for _, s := range base {
		seen[s] = struct{}{}
	}
	for _, s := range add {
		if _, dup := seen[s]; !dup {
			seen[s] = struct{}{}
			base = append(base, s)
		}
	}
	return base
}
