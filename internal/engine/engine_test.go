// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tmachnicki/pathweaver/internal/catalog"
	"github.com/tmachnicki/pathweaver/internal/feedback"
	"github.com/tmachnicki/pathweaver/internal/flatten"
	"github.com/tmachnicki/pathweaver/internal/match"
	"github.com/tmachnicki/pathweaver/internal/pathbuild"
	"github.com/tmachnicki/pathweaver/internal/relevance"
	"github.com/tmachnicki/pathweaver/internal/taxonomy"
)

const engineCatalogJSON = `[
	{
		"code": "lumen-course",
		"title": "Lumen Lighting Deep Dive",
		"playables": [
			{"locator": "vid-lumen", "title": "Lumen Basics", "duration_seconds": 600, "ordinal": 1}
		],
		"canonical_tags": ["rendering.lumen"]
	},
	{
		"code": "fix-flicker",
		"title": "Fixing Lumen Flicker",
		"playables": [
			{"locator": "vid-flicker", "title": "Flicker Fixes", "duration_seconds": 300, "ordinal": 1}
		],
		"canonical_tags": ["symptom.flicker"]
	},
	{
		"code": "audio-course",
		"title": "Audio Mixing",
		"playables": [
			{"locator": "vid-audio", "title": "Mixing Basics", "duration_seconds": 600, "ordinal": 1}
		],
		"canonical_tags": []
	}
]`

const engineTaxonomyJSON = `{
	"tags": [
		{"id": "rendering.lumen", "name": "Lumen", "type": "topic"},
		{"id": "symptom.flicker", "name": "Flickering", "type": "symptom"}
	],
	"edges": [
		{"from": "symptom.flicker", "to": "rendering.lumen", "type": "symptom_of"}
	]
}`

const engineWordTablesJSON = `{
	"lumen-course": {"lumen": 5, "lighting": 4},
	"fix-flicker": {"lumen": 2, "flickering": 5},
	"audio-course": {"audio": 6}
}`

const engineCuratedJSON = `[
	{
		"patterns": ["gpu crash d3d"],
		"item_codes": ["fix-flicker"],
		"explanation": "Known crash signature"
	}
]`

func engineFixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		catalog.FileCatalog:    engineCatalogJSON,
		catalog.FileTaxonomy:   engineTaxonomyJSON,
		catalog.FileWordTables: engineWordTablesJSON,
		catalog.FileCurated:    engineCuratedJSON,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func newTestEngine(t *testing.T, fb *feedback.Store) *Engine {
	t.Helper()
	repo := catalog.NewRepository(engineFixtureDir(t), zerolog.Nop())

	cfg := relevance.DefaultConfig()
	cfg.MinResults = 1
	aggregator := relevance.New(cfg,
		match.NewLexical(match.DefaultLexicalConfig()),
		match.NewSemantic(match.DefaultSemanticConfig()),
		match.NewCurated(),
		zerolog.Nop(),
	)

	return New(
		repo,
		aggregator,
		flatten.New(flatten.DefaultConfig()),
		nil,
		fb,
		pathbuild.DefaultConfig(),
		taxonomy.DefaultConfig(),
		zerolog.Nop(),
	)
}

func TestMatchRejectsEmptyQuery(t *testing.T) {
	e := newTestEngine(t, nil)

	for _, query := range []string{"", "   \t"} {
		if _, err := e.Match(context.Background(), &Request{Query: query}); !errors.Is(err, ErrEmptyQuery) {
			t.Errorf("Match(%q) = %v, want ErrEmptyQuery", query, err)
		}
	}
	if _, err := e.BuildPath(context.Background(), &Request{}); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("BuildPath = %v, want ErrEmptyQuery", err)
	}
}

func TestMatchRanksItems(t *testing.T) {
	e := newTestEngine(t, nil)

	resp, err := e.Match(context.Background(), &Request{Query: "lumen lighting"})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(resp.Matches) == 0 {
		t.Fatal("expected matches")
	}
	if resp.Matches[0].ItemCode != "lumen-course" {
		t.Errorf("top = %+v, want lumen-course", resp.Matches[0])
	}
	if resp.Matches[0].Title != "Lumen Lighting Deep Dive" {
		t.Errorf("title not resolved from snapshot: %q", resp.Matches[0].Title)
	}
	if resp.Metadata.RequestID == "" {
		t.Error("request ID missing")
	}
	if resp.Metadata.Strategy == "" {
		t.Error("strategy missing")
	}
	if resp.Metadata.ReducedConfidence {
		t.Error("no auxiliary input failed, confidence should not be reduced")
	}
}

func TestMatchCuratedOverride(t *testing.T) {
	e := newTestEngine(t, nil)

	resp, err := e.Match(context.Background(), &Request{Query: "GPU crash D3D on startup"})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if resp.Metadata.Strategy != relevance.StrategyCurated {
		t.Fatalf("strategy = %s, want curated", resp.Metadata.Strategy)
	}
	if len(resp.Matches) != 1 || resp.Matches[0].ItemCode != "fix-flicker" {
		t.Fatalf("matches = %+v", resp.Matches)
	}
	if !resp.Matches[0].Curated || resp.Matches[0].Explanation == "" {
		t.Errorf("curated match lacks provenance: %+v", resp.Matches[0])
	}
}

func TestBuildPathProducesPlayables(t *testing.T) {
	e := newTestEngine(t, nil)

	resp, err := e.BuildPath(context.Background(), &Request{Query: "lumen lighting"})
	if err != nil {
		t.Fatalf("BuildPath: %v", err)
	}
	if len(resp.Path.Items) == 0 {
		t.Fatal("expected path items")
	}
	if len(resp.Playables) == 0 {
		t.Fatal("expected playable results")
	}
	for _, p := range resp.Playables {
		if p.Reason == "" {
			t.Errorf("playable %s has no reason", p.Locator)
		}
	}
}

func TestBuildPathRequestOverrides(t *testing.T) {
	e := newTestEngine(t, nil)

	resp, err := e.BuildPath(context.Background(), &Request{
		Query:    "lumen lighting",
		MaxItems: 1,
	})
	if err != nil {
		t.Fatalf("BuildPath: %v", err)
	}
	if len(resp.Path.Items) > 1 {
		t.Fatalf("MaxItems override ignored: %d items", len(resp.Path.Items))
	}
}

func TestRecordFeedback(t *testing.T) {
	fb, err := feedback.Open(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("open feedback store: %v", err)
	}
	defer fb.Close()

	e := newTestEngine(t, fb)
	ctx := context.Background()

	if err := e.RecordFeedback(ctx, "user-1", "lumen-course", feedback.EventEngaged); err != nil {
		t.Fatalf("RecordFeedback: %v", err)
	}

	sig, err := fb.Signal(ctx, "user-1", "lumen-course")
	if err != nil {
		t.Fatalf("Signal: %v", err)
	}
	if sig.Engaged != 1 {
		t.Fatalf("signal = %+v, want one engagement", sig)
	}
}

func TestRecordFeedbackDisabled(t *testing.T) {
	e := newTestEngine(t, nil)

	if err := e.RecordFeedback(context.Background(), "user-1", "lumen-course", feedback.EventEngaged); err == nil {
		t.Fatal("expected error when the feedback store is disabled")
	}
}

func TestHealth(t *testing.T) {
	e := newTestEngine(t, nil)
	if err := e.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}

	broken := New(
		catalog.NewRepository(t.TempDir(), zerolog.Nop()),
		nil, nil, nil, nil,
		pathbuild.DefaultConfig(),
		taxonomy.DefaultConfig(),
		zerolog.Nop(),
	)
	if err := broken.Health(context.Background()); err == nil {
		t.Fatal("expected health failure for an empty data directory")
	}
}

func TestGraphCacheReuse(t *testing.T) {
	e := newTestEngine(t, nil)

	snap, err := e.repo.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	first := e.graphFor(snap)
	second := e.graphFor(snap)
	if first != second {
		t.Fatal("graph must be rebuilt only when the snapshot changes")
	}

	if err := e.repo.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	reloaded, err := e.repo.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot after reload: %v", err)
	}
	if e.graphFor(reloaded) == first {
		t.Fatal("new snapshot must produce a new graph")
	}
}
