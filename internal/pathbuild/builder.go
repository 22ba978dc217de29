// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

// Package pathbuild turns a ranked candidate list into a role-labeled,
// budget-constrained learning path. It is a pure constrained-selection
// algorithm: role assignment via taxonomy-edge direction, role-priority
// ordering, then greedy selection under a time budget and a tag-diversity
// cap.
package pathbuild

import (
	"fmt"
	"sort"

	"github.com/tmachnicki/pathweaver/internal/catalog"
	"github.com/tmachnicki/pathweaver/internal/match"
	"github.com/tmachnicki/pathweaver/internal/taxonomy"
)

// Role classifies an item's position in a learning path.
type Role string

const (
	// RolePrerequisite marks content teaching a subtopic of a matched topic.
	RolePrerequisite Role = "prerequisite"
	// RoleCore marks content directly on a matched topic.
	RoleCore Role = "core"
	// RoleTroubleshooting marks content addressing symptoms or error codes.
	RoleTroubleshooting Role = "troubleshooting"
	// RoleSupplemental marks related content with no direct tag overlap.
	RoleSupplemental Role = "supplemental"
)

// rolePriority orders roles within a path, lower first.
func rolePriority(r Role, troubleshootingFirst bool) int {
	if troubleshootingFirst && r == RoleTroubleshooting {
		return -1
	}
	switch r {
	case RolePrerequisite:
		return 0
	case RoleCore:
		return 1
	case RoleTroubleshooting:
		return 2
	default:
		return 3
	}
}

// Config holds the path builder's selection constraints.
type Config struct {
	// TimeBudgetMinutes is the maximum total duration of the selected path.
	// Default: 120.
	TimeBudgetMinutes int `json:"time_budget_minutes" koanf:"time_budget_minutes"`

	// MaxItems caps the number of selected items. Default: 6.
	MaxItems int `json:"max_items" koanf:"max_items"`

	// Diversity enables the tag-overlap diversity cap.
	// Default: true.
	Diversity bool `json:"diversity" koanf:"diversity"`

	// DiversityOverlapCap skips a candidate whose tag-overlap ratio against
	// already-selected tags exceeds this value, when Diversity is on.
	// Default: 0.7.
	DiversityOverlapCap float64 `json:"diversity_overlap_cap" koanf:"diversity_overlap_cap"`

	// TroubleshootingFirst orders troubleshooting content before
	// prerequisites, for callers triaging an active incident.
	TroubleshootingFirst bool `json:"troubleshooting_first" koanf:"troubleshooting_first"`
}

// DefaultConfig returns the default path constraints.
func DefaultConfig() Config {
	return Config{
		TimeBudgetMinutes:   120,
		MaxItems:            6,
		Diversity:           true,
		DiversityOverlapCap: 0.7,
	}
}

// Item is one selected path entry.
type Item struct {
	// ItemCode references the selected catalog item.
	ItemCode string `json:"item_code"`

	// Role is the path-position classification.
	Role Role `json:"role"`

	// Reason is a human-readable justification for the assignment.
	Reason string `json:"reason"`

	// EstimatedMinutes is the item's playable duration in minutes.
	EstimatedMinutes int `json:"estimated_minutes"`

	// Score carries the aggregate relevance score forward.
	Score float64 `json:"score"`
}

// Path is the selected, ordered learning path plus aggregate metadata.
type Path struct {
	Items []Item `json:"items"`

	// TotalMinutes is the summed duration of the selection.
	TotalMinutes int `json:"total_minutes"`

	// TagCoverage is the fraction of matched tags touched by the selection.
	TagCoverage float64 `json:"tag_coverage"`

	// DiversityScore is 1 minus the average pairwise tag-overlap ratio
	// across selected items.
	DiversityScore float64 `json:"diversity_score"`
}

// Build assigns roles to the candidates, orders them by role priority then
// score, and greedily selects under the time budget and diversity cap.
func Build(snap *catalog.Snapshot, graph *taxonomy.Graph, candidates []match.Result, matchedTags []string, cfg Config) Path {
	matched := make(map[string]struct{}, len(matchedTags))
	for _, t := range matchedTags {
		matched[t] = struct{}{}
	}

	type candidate struct {
		result  match.Result
		item    *catalog.CatalogItem
		role    Role
		minutes int
	}

	ordered := make([]candidate, 0, len(candidates))
	for _, r := range candidates {
		item := snap.ItemByCode(r.ItemCode)
		if item == nil || len(item.Playables) == 0 {
			// Playability invariant: never select content that cannot play.
			continue
		}
		ordered = append(ordered, candidate{
			result:  r,
			item:    item,
			role:    assignRole(graph, item, matched),
			minutes: item.DurationMinutes(),
		})
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		pi := rolePriority(ordered[i].role, cfg.TroubleshootingFirst)
		pj := rolePriority(ordered[j].role, cfg.TroubleshootingFirst)
		if pi != pj {
			return pi < pj
		}
		if ordered[i].result.Score != ordered[j].result.Score {
			return ordered[i].result.Score > ordered[j].result.Score
		}
		return ordered[i].item.Code < ordered[j].item.Code
	})

	var path Path
	selectedTags := make(map[string]struct{})
	var selectedTagSets []map[string]struct{}

	for _, c := range ordered {
		if len(path.Items) >= cfg.MaxItems {
			break
		}
		if path.TotalMinutes+c.minutes > cfg.TimeBudgetMinutes {
			continue
		}

		tagSet := itemTagSet(c.item)
		if cfg.Diversity && overlapRatio(tagSet, selectedTags) > cfg.DiversityOverlapCap {
			continue
		}

		path.Items = append(path.Items, Item{
			ItemCode:         c.item.Code,
			Role:             c.role,
			Reason:           roleReason(c.role, c.item),
			EstimatedMinutes: c.minutes,
			Score:            c.result.Score,
		})
		path.TotalMinutes += c.minutes
		for t := range tagSet {
			selectedTags[t] = struct{}{}
		}
		selectedTagSets = append(selectedTagSets, tagSet)
	}

	path.TagCoverage = coverage(matched, selectedTags)
	path.DiversityScore = diversityScore(selectedTagSets)
	return path
}

// assignRole classifies an item against the matched-tag set:
// prerequisite when a tag points into the set via a subtopic edge, else
// troubleshooting when any tag is symptom-typed, else core on direct tag
// overlap, else supplemental.
func assignRole(graph *taxonomy.Graph, item *catalog.CatalogItem, matched map[string]struct{}) Role {
	if graph.HasSubtopicInto(item, matched) {
		return RolePrerequisite
	}
	for _, ref := range item.Tags {
		if graph.IsSymptomatic(ref.ID) {
			return RoleTroubleshooting
		}
	}
	for _, ref := range item.Tags {
		if _, ok := matched[ref.ID]; ok {
			return RoleCore
		}
	}
	return RoleSupplemental
}

// roleReason builds the display justification for a role assignment.
func roleReason(role Role, item *catalog.CatalogItem) string {
	switch role {
	case RolePrerequisite:
		return fmt.Sprintf("%q covers groundwork for the matched topics", item.Title)
	case RoleTroubleshooting:
		return fmt.Sprintf("%q addresses the symptoms you described", item.Title)
	case RoleCore:
		return fmt.Sprintf("%q directly covers the matched topics", item.Title)
	default:
		return fmt.Sprintf("%q covers related material", item.Title)
	}
}

// itemTagSet collects an item's tag IDs into a set.
func itemTagSet(item *catalog.CatalogItem) map[string]struct{} {
	set := make(map[string]struct{}, len(item.Tags))
	for _, ref := range item.Tags {
		set[ref.ID] = struct{}{}
	}
	return set
}

// overlapRatio is |a ∩ b| / |a|, the fraction of a's tags already present
// in b. An item without tags never overlaps.
func overlapRatio(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for t := range a {
		if _, ok := b[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(a))
}

// coverage is the fraction of matched tags represented in the selection.
func coverage(matched, selected map[string]struct{}) float64 {
	if len(matched) == 0 {
		return 0
	}
	covered := 0
	for t := range matched {
		if _, ok := selected[t]; ok {
			covered++
		}
	}
	return float64(covered) / float64(len(matched))
}

// diversityScore is 1 minus the average pairwise tag-overlap ratio across
// the selection. A single-item path scores 1.
func diversityScore(tagSets []map[string]struct{}) float64 {
	if len(tagSets) < 2 {
		return 1
	}
	var total float64
	pairs := 0
	for i := 0; i < len(tagSets); i++ {
		for j := i + 1; j < len(tagSets); j++ {
			// Symmetric pairwise overlap: shared tags over the smaller set.
			total += pairOverlap(tagSets[i], tagSets[j])
			pairs++
		}
	}
	return 1 - total/float64(pairs)
}

// pairOverlap is |a ∩ b| / min(|a|, |b|).
func pairOverlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	shared := 0
	for t := range small {
		if _, ok := large[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(small))
}
