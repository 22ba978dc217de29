// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

package pathbuild

import (
	"testing"

	"github.com/tmachnicki/pathweaver/internal/catalog"
	"github.com/tmachnicki/pathweaver/internal/match"
	"github.com/tmachnicki/pathweaver/internal/taxonomy"
)

// minutes builds a playable list totaling the given playback minutes.
func minutes(locator string, m int) []catalog.PlayableItem {
	return []catalog.PlayableItem{{Locator: locator, DurationSeconds: m * 60}}
}

func builderSnapshot() *catalog.Snapshot {
	items := []catalog.CatalogItem{
		{
			Code: "core-lumen", Title: "Lumen Essentials",
			Playables: minutes("v-core", 40),
			Tags:      []catalog.TagRef{{ID: "rendering.lumen"}},
		},
		{
			Code: "prereq-gi", Title: "Global Illumination Basics",
			Playables: minutes("v-prereq", 30),
			Tags:      []catalog.TagRef{{ID: "rendering.gi"}},
		},
		{
			Code: "fix-flicker", Title: "Fixing Light Flicker",
			Playables: minutes("v-fix", 20),
			Tags:      []catalog.TagRef{{ID: "symptom.flicker"}},
		},
		{
			Code: "extra-materials", Title: "Material Workflows",
			Playables: minutes("v-extra", 50),
			Tags:      []catalog.TagRef{{ID: "materials"}},
		},
		{
			Code: "dup-lumen", Title: "Lumen Again",
			Playables: minutes("v-dup", 30),
			Tags:      []catalog.TagRef{{ID: "rendering.lumen"}},
		},
		{
			Code: "no-playables", Title: "Ghost Entry",
			Tags:  []catalog.TagRef{{ID: "rendering.lumen"}},
		},
	}
	tags := map[string]catalog.Tag{
		"rendering.lumen": {ID: "rendering.lumen", Name: "Lumen", Type: catalog.TagTopic},
		"rendering.gi":    {ID: "rendering.gi", Name: "GI", Type: catalog.TagTopic},
		"symptom.flicker": {ID: "symptom.flicker", Name: "Flicker", Type: catalog.TagSymptom},
		"materials":       {ID: "materials", Name: "Materials", Type: catalog.TagTopic},
	}
	edges := []catalog.Edge{
		{From: "rendering.gi", To: "rendering.lumen", Type: catalog.EdgeSubtopic},
	}
	return catalog.NewSnapshot(items, tags, edges, nil, nil, nil, nil)
}

func builderGraph(snap *catalog.Snapshot) *taxonomy.Graph {
	return taxonomy.New(snap, taxonomy.DefaultConfig())
}

func candidates(pairs ...any) []match.Result {
	var out []match.Result
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, match.Result{ItemCode: pairs[i].(string), Score: pairs[i+1].(float64)})
	}
	return out
}

func TestBuildRolesAndOrdering(t *testing.T) {
	snap := builderSnapshot()
	graph := builderGraph(snap)

	cfg := DefaultConfig()
	cfg.TimeBudgetMinutes = 180
	path := Build(snap, graph,
		candidates("core-lumen", 200.0, "prereq-gi", 150.0, "fix-flicker", 100.0, "extra-materials", 50.0),
		[]string{"rendering.lumen"}, cfg)

	roles := map[string]Role{}
	var order []string
	for _, it := range path.Items {
		roles[it.ItemCode] = it.Role
		order = append(order, it.ItemCode)
	}
	if roles["prereq-gi"] != RolePrerequisite {
		t.Errorf("prereq-gi role = %s", roles["prereq-gi"])
	}
	if roles["core-lumen"] != RoleCore {
		t.Errorf("core-lumen role = %s", roles["core-lumen"])
	}
	if roles["fix-flicker"] != RoleTroubleshooting {
		t.Errorf("fix-flicker role = %s", roles["fix-flicker"])
	}
	if roles["extra-materials"] != RoleSupplemental {
		t.Errorf("extra-materials role = %s", roles["extra-materials"])
	}

	// Prerequisite before core before troubleshooting before supplemental.
	want := []string{"prereq-gi", "core-lumen", "fix-flicker", "extra-materials"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestBuildTroubleshootingFirst(t *testing.T) {
	snap := builderSnapshot()
	graph := builderGraph(snap)
	cfg := DefaultConfig()
	cfg.TroubleshootingFirst = true

	path := Build(snap, graph,
		candidates("core-lumen", 200.0, "fix-flicker", 100.0),
		[]string{"rendering.lumen"}, cfg)

	if len(path.Items) == 0 || path.Items[0].ItemCode != "fix-flicker" {
		t.Fatalf("troubleshooting should lead the path: %+v", path.Items)
	}
}

func TestBuildTimeBudget(t *testing.T) {
	snap := builderSnapshot()
	graph := builderGraph(snap)
	cfg := DefaultConfig()
	cfg.TimeBudgetMinutes = 60
	cfg.Diversity = false

	path := Build(snap, graph,
		candidates("core-lumen", 200.0, "prereq-gi", 150.0, "fix-flicker", 100.0),
		[]string{"rendering.lumen"}, cfg)

	if path.TotalMinutes > 60 {
		t.Fatalf("total %d minutes exceeds budget", path.TotalMinutes)
	}
	// Budget skips, not stops: the 20-minute item after a skipped one still
	// fits.
	found := false
	for _, it := range path.Items {
		if it.ItemCode == "fix-flicker" {
			found = true
		}
	}
	if !found {
		t.Errorf("greedy selection should skip over-budget items and continue: %+v", path.Items)
	}
}

func TestBuildDiversityCap(t *testing.T) {
	snap := builderSnapshot()
	graph := builderGraph(snap)

	path := Build(snap, graph,
		candidates("core-lumen", 200.0, "dup-lumen", 190.0),
		[]string{"rendering.lumen"}, DefaultConfig())

	for _, it := range path.Items {
		if it.ItemCode == "dup-lumen" {
			t.Fatalf("identical tag profile must be rejected by the diversity cap: %+v", path.Items)
		}
	}

	cfg := DefaultConfig()
	cfg.Diversity = false
	path = Build(snap, graph,
		candidates("core-lumen", 200.0, "dup-lumen", 190.0),
		[]string{"rendering.lumen"}, cfg)
	if len(path.Items) != 2 {
		t.Fatalf("diversity off should admit both: %+v", path.Items)
	}
}

func TestBuildMaxItems(t *testing.T) {
	snap := builderSnapshot()
	graph := builderGraph(snap)
	cfg := DefaultConfig()
	cfg.MaxItems = 2
	cfg.Diversity = false

	path := Build(snap, graph,
		candidates("core-lumen", 200.0, "prereq-gi", 150.0, "fix-flicker", 100.0),
		[]string{"rendering.lumen"}, cfg)

	if len(path.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(path.Items))
	}
}

func TestBuildSkipsUnplayableItems(t *testing.T) {
	snap := builderSnapshot()
	graph := builderGraph(snap)

	path := Build(snap, graph,
		candidates("no-playables", 500.0, "missing-code", 400.0, "core-lumen", 100.0),
		[]string{"rendering.lumen"}, DefaultConfig())

	if len(path.Items) != 1 || path.Items[0].ItemCode != "core-lumen" {
		t.Fatalf("unplayable and unknown items must be skipped: %+v", path.Items)
	}
}

func TestBuildMetadata(t *testing.T) {
	snap := builderSnapshot()
	graph := builderGraph(snap)

	path := Build(snap, graph,
		candidates("core-lumen", 200.0, "extra-materials", 50.0),
		[]string{"rendering.lumen", "rendering.shadowmaps"}, DefaultConfig())

	if path.TotalMinutes != 90 {
		t.Errorf("TotalMinutes = %d, want 90", path.TotalMinutes)
	}
	// One of two matched tags is covered by the selection.
	if path.TagCoverage != 0.5 {
		t.Errorf("TagCoverage = %v, want 0.5", path.TagCoverage)
	}
	// The two items share no tags.
	if path.DiversityScore != 1 {
		t.Errorf("DiversityScore = %v, want 1", path.DiversityScore)
	}
	for _, it := range path.Items {
		if it.Reason == "" {
			t.Errorf("item %s missing role reason", it.ItemCode)
		}
		if it.EstimatedMinutes == 0 {
			t.Errorf("item %s missing duration", it.ItemCode)
		}
	}
}

func TestBuildEmptyCandidates(t *testing.T) {
	snap := builderSnapshot()
	graph := builderGraph(snap)

	path := Build(snap, graph, nil, nil, DefaultConfig())
	if len(path.Items) != 0 || path.TotalMinutes != 0 {
		t.Fatalf("empty candidates must yield an empty path: %+v", path)
	}
	if path.DiversityScore != 1 {
		t.Errorf("empty path diversity = %v, want 1", path.DiversityScore)
	}
}
