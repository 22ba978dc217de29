// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

package match

import (
	"strings"

	"github.com/tmachnicki/pathweaver/internal/catalog"
)

// CuratedScore is the fixed score assigned to curated override results.
// High enough that no other signal can outrank a hand-validated solution.
const CuratedScore = 200

// Curated matches queries against hand-authored pattern -> item-list
// shortcuts for previously solved problem signatures. A hit short-circuits
// the whole pipeline; curated mappings must not be perturbed by ranking
// noise.
type Curated struct{}

// NewCurated creates the curated override matcher.
func NewCurated() *Curated {
	return &Curated{}
}

// Match returns the configured item list for the first solution whose
// pattern substring-matches the query, preserving the configured item order.
// The second return is false when no pattern matches. Items that no longer
// exist in the catalog are dropped so the playability invariant holds.
func (c *Curated) Match(snap *catalog.Snapshot, query string) ([]Result, bool) {
	q := strings.ToLower(query)
	if q == "" {
		return nil, false
	}

	for _, sol := range snap.Curated {
		if !patternHit(q, sol.Patterns) {
			continue
		}

		results := make([]Result, 0, len(sol.ItemCodes))
		for _, code := range sol.ItemCodes {
			if snap.ItemByCode(code) == nil {
				continue
			}
			results = append(results, Result{
				ItemCode:           code,
				Score:              CuratedScore,
				Tier:               TierDeterministic,
				Curated:            true,
				CuratedExplanation: sol.Explanation,
			})
		}
		return results, true
	}
	return nil, false
}

// patternHit reports whether any pattern substring-matches the query.
func patternHit(query string, patterns []string) bool {
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" && strings.Contains(query, p) {
			return true
		}
	}
	return false
}
