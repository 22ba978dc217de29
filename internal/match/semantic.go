// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

package match

import (
	"math"
	"sort"

	"github.com/tmachnicki/pathweaver/internal/catalog"
)

// SemanticConfig holds the semantic matcher's tuned parameters.
type SemanticConfig struct {
	// SimilarityFloor discards passages below this cosine similarity.
	// Default: 0.35.
	SimilarityFloor float64 `json:"similarity_floor" koanf:"similarity_floor"`

	// TopK caps the number of passage-level results. Default: 12.
	TopK int `json:"top_k" koanf:"top_k"`

	// StitchTop is the number of top passages that get adjacent-segment
	// context stitched into their excerpt. Default: 5.
	StitchTop int `json:"stitch_top" koanf:"stitch_top"`
}

// DefaultSemanticConfig returns the default semantic parameters.
func DefaultSemanticConfig() SemanticConfig {
	return SemanticConfig{
		SimilarityFloor: 0.35,
		TopK:            12,
		StitchTop:       5,
	}
}

// Semantic performs cosine-similarity search over decoded segment vectors.
// The query vector is computed externally; the matcher never embeds text
// itself. An unavailable or empty vector index yields an empty result set,
// never an error.
type Semantic struct {
	cfg SemanticConfig
}

// NewSemantic creates a semantic matcher with the given parameters.
func NewSemantic(cfg SemanticConfig) *Semantic {
	return &Semantic{cfg: cfg}
}

// Match ranks transcript passages by cosine similarity to the query vector.
// The top results carry excerpts stitched with the trailing sentence of the
// preceding segment and the leading sentence of the following one, to reduce
// mid-sentence truncation in displayed excerpts.
func (s *Semantic) Match(snap *catalog.Snapshot, queryVec []float32) []SegmentHit {
	if snap == nil || len(queryVec) == 0 {
		return nil
	}

	vectors, dim := snap.SegmentVectors()
	if dim == 0 || dim != len(queryVec) {
		return nil
	}

	type scored struct {
		index      int
		similarity float64
	}

	var hits []scored
	for i, vec := range vectors {
		// A corrupt index entry with the wrong dimension is skipped, not a
		// failure; the index dimension check above only sees the first
		// decoded vector.
		if len(vec) != len(queryVec) {
			continue
		}
		sim := cosine(queryVec, vec)
		if sim < s.cfg.SimilarityFloor {
			continue
		}
		hits = append(hits, scored{index: i, similarity: sim})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].similarity != hits[j].similarity {
			return hits[i].similarity > hits[j].similarity
		}
		return hits[i].index < hits[j].index
	})

	if len(hits) > s.cfg.TopK {
		hits = hits[:s.cfg.TopK]
	}

	results := make([]SegmentHit, len(hits))
	for i, h := range hits {
		seg := &snap.Segments[h.index]
		excerpt := seg.Text
		if i < s.cfg.StitchTop {
			excerpt = s.stitchExcerpt(snap, h.index)
		}
		results[i] = SegmentHit{
			Locator:      seg.Locator,
			ItemCode:     seg.ItemCode,
			StartSeconds: seg.StartSeconds,
			Similarity:   h.similarity,
			Excerpt:      excerpt,
		}
	}
	return results
}

// stitchExcerpt prepends the trailing sentence of the chronologically
// previous segment and appends the leading sentence of the next one, staying
// within the same playable sub-item.
func (s *Semantic) stitchExcerpt(snap *catalog.Snapshot, index int) string {
	seg := &snap.Segments[index]
	excerpt := seg.Text

	lo, hi := snap.SegmentsForLocator(seg.Locator)
	if index > lo {
		if lead := lastSentence(snap.Segments[index-1].Text); lead != "" {
			excerpt = lead + " " + excerpt
		}
	}
	if index+1 < hi {
		if tail := firstSentence(snap.Segments[index+1].Text); tail != "" {
			excerpt = excerpt + " " + tail
		}
	}
	return excerpt
}

// RollUp aggregates passage hits to item level: each item keeps its best
// passage similarity and all of its passage hits, ordered best-first.
func RollUp(hits []SegmentHit) []Result {
	byItem := make(map[string]*Result)
	var order []string

	for _, h := range hits {
		r, ok := byItem[h.ItemCode]
		if !ok {
			r = &Result{
				ItemCode: h.ItemCode,
				Tier:     TierSemantic,
				Semantic: true,
			}
			byItem[h.ItemCode] = r
			order = append(order, h.ItemCode)
		}
		if h.Similarity > r.Score {
			r.Score = h.Similarity
		}
		r.Segments = append(r.Segments, h)
	}

	results := make([]Result, 0, len(order))
	for _, code := range order {
		results = append(results, *byItem[code])
	}
	sortResults(results)
	return results
}

// cosine computes the cosine similarity between two equal-length vectors,
// clamped to 0 so downstream scores stay non-negative.
func cosine(a []float32, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	return sim
}
