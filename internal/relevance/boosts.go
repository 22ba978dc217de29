// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

package relevance

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/tmachnicki/pathweaver/internal/catalog"
	"github.com/tmachnicki/pathweaver/internal/match"
	"github.com/tmachnicki/pathweaver/internal/taxonomy"
)

// applyTagBoost multiplies each result by TagBoostFactor when the item's
// tags overlap the matched-tag set and by TagPenaltyFactor otherwise. A
// query that resolved no tags leaves all scores unchanged.
func (a *Aggregator) applyTagBoost(snap *catalog.Snapshot, matchedTags []string, results []match.Result) {
	if len(matchedTags) == 0 {
		return
	}

	tagSet := make(map[string]struct{}, len(matchedTags))
	for _, t := range matchedTags {
		tagSet[t] = struct{}{}
	}

	for i := range results {
		item := snap.ItemByCode(results[i].ItemCode)
		if item == nil {
			continue
		}
		overlaps := false
		for _, ref := range item.Tags {
			if _, ok := tagSet[ref.ID]; ok {
				overlaps = true
				break
			}
		}
		if overlaps {
			results[i].Score *= a.cfg.TagBoostFactor
			results[i].TaxonomyBoosted = true
		} else {
			results[i].Score *= a.cfg.TagPenaltyFactor
		}
	}
}

// generationPattern matches an explicit engine-generation mention such as
// "ue5", "ue 4", "unreal engine 5", or "engine 4".
var generationPattern = regexp.MustCompile(`(?i)\b(?:ue\s?([0-9])|unreal(?:\s+engine)?\s+([0-9])|engine\s+([0-9]))\b`)

// queryGeneration extracts the engine generation a query explicitly names,
// or 0 when none is mentioned.
func queryGeneration(text string) int {
	m := generationPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	for _, group := range m[1:] {
		if group == "" {
			continue
		}
		gen, err := strconv.Atoi(group)
		if err == nil && gen > 0 {
			return gen
		}
	}
	return 0
}

// applyVersionAdjust demotes items exclusively version-gated to a newer
// generation than the one the query names (VersionDemotionFactor) and boosts
// items gated to the named generation (VersionBoostFactor). Items without
// version tags apply to all generations and are left unchanged.
func (a *Aggregator) applyVersionAdjust(snap *catalog.Snapshot, graph *taxonomy.Graph, queryText string, results []match.Result) {
	gen := queryGeneration(queryText)
	if gen == 0 {
		return
	}

	for i := range results {
		item := snap.ItemByCode(results[i].ItemCode)
		if item == nil {
			continue
		}
		gens := graph.Generations(item)
		if len(gens) == 0 {
			continue
		}

		matchesGen := false
		allNewer := true
		for _, g := range gens {
			if g == gen {
				matchesGen = true
			}
			if g <= gen {
				allNewer = false
			}
		}

		switch {
		case matchesGen:
			results[i].Score *= a.cfg.VersionBoostFactor
		case allNewer:
			results[i].Score *= a.cfg.VersionDemotionFactor
		}
	}
}

// applyFeedback multiplies each result by the caller-supplied historical
// feedback boost. Applied last so it scales the fully adjusted score.
func (a *Aggregator) applyFeedback(q *Query, results []match.Result) []match.Result {
	if len(q.Boosts) == 0 {
		return results
	}
	for i := range results {
		if boost, ok := q.Boosts[results[i].ItemCode]; ok && boost > 0 {
			results[i].Score *= boost
		}
	}
	return results
}

// sortByScore orders results by score descending, item code ascending for
// deterministic output.
func sortByScore(results []match.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ItemCode < results[j].ItemCode
	})
}

// sortStrings sorts a string slice in place.
func sortStrings(s []string) {
	sort.Strings(s)
}

// mergeTerms appends values of add not already in base, preserving order.
func mergeTerms(base, add []string) []string {
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
