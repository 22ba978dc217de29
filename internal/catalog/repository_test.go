// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func fixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFixture(t, dir, FileCatalog, `[
		{
			"code": "course-a",
			"title": "Lumen Lighting Deep Dive",
			"playables": [{"locator": "vid-a1", "title": "Part 1", "duration_seconds": 600}],
			"canonical_tags": ["rendering.lumen"],
			"inferred_tags": ["rendering.lumen", "rendering"],
			"extracted_tags": ["", "rendering"]
		}
	]`)
	writeFixture(t, dir, FileTaxonomy, `{
		"tags": [
			{"id": "rendering", "name": "Rendering", "type": "topic"},
			{"id": "rendering.lumen", "name": "Lumen", "type": "topic"}
		],
		"edges": [{"from": "rendering.lumen", "to": "rendering", "type": "subtopic"}]
	}`)
	return dir
}

func TestRepositoryLoadsAndNormalizes(t *testing.T) {
	repo := NewRepository(fixtureDir(t), zerolog.Nop())

	snap, err := repo.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	item := snap.ItemByCode("course-a")
	if item == nil {
		t.Fatal("course-a not loaded")
	}

	// Canonical provenance wins the duplicate, empty IDs are dropped.
	want := []TagRef{
		{ID: "rendering.lumen", Provenance: ProvenanceCanonical},
		{ID: "rendering", Provenance: ProvenanceInferred},
	}
	if len(item.Tags) != len(want) {
		t.Fatalf("got %d tags, want %d: %+v", len(item.Tags), len(want), item.Tags)
	}
	for i, ref := range want {
		if item.Tags[i] != ref {
			t.Errorf("tag %d = %+v, want %+v", i, item.Tags[i], ref)
		}
	}

	if len(snap.Tags) != 2 || len(snap.Edges) != 1 {
		t.Errorf("taxonomy: %d tags, %d edges", len(snap.Tags), len(snap.Edges))
	}
}

func TestRepositoryMissingRequiredFile(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, FileTaxonomy, `{"tags": [], "edges": []}`)

	repo := NewRepository(dir, zerolog.Nop())
	if _, err := repo.Snapshot(context.Background()); err == nil {
		t.Fatal("expected error when catalog.json is missing")
	}
}

func TestRepositoryOptionalFilesDegrade(t *testing.T) {
	dir := fixtureDir(t)
	writeFixture(t, dir, FileCurated, `{not json`)

	repo := NewRepository(dir, zerolog.Nop())
	snap, err := repo.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Curated) != 0 {
		t.Errorf("corrupt curated file should load as empty, got %d", len(snap.Curated))
	}
	if len(snap.Segments) != 0 || len(snap.Synonyms) != 0 {
		t.Error("absent optional files should load as empty")
	}
}

func TestRepositoryReloadSwapsSnapshot(t *testing.T) {
	dir := fixtureDir(t)
	repo := NewRepository(dir, zerolog.Nop())
	ctx := context.Background()

	before, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	writeFixture(t, dir, FileCatalog, `[
		{"code": "course-b", "title": "New Course", "playables": [], "canonical_tags": []}
	]`)
	if err := repo.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	after, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot after reload: %v", err)
	}
	if after == before {
		t.Fatal("expected a new snapshot after reload")
	}
	if before.ItemByCode("course-a") == nil {
		t.Error("old snapshot must stay intact for in-flight queries")
	}
	if after.ItemByCode("course-b") == nil {
		t.Error("new snapshot missing reloaded item")
	}
}

func TestRepositoryFailedReloadKeepsSnapshot(t *testing.T) {
	dir := fixtureDir(t)
	repo := NewRepository(dir, zerolog.Nop())
	ctx := context.Background()

	before, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	writeFixture(t, dir, FileCatalog, `{broken`)
	if err := repo.Reload(ctx); err == nil {
		t.Fatal("expected reload error for corrupt catalog")
	}

	after, err := repo.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot after failed reload: %v", err)
	}
	if after != before {
		t.Fatal("failed reload must keep the previous snapshot")
	}
}
