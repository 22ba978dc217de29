// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

package catalog

import (
	"testing"
)

func testSnapshot() *Snapshot {
	items := []CatalogItem{
		{
			Code:  "course-a",
			Title: "Course A",
			Playables: []PlayableItem{
				{Locator: "vid-a1", Title: "Part 1", DurationSeconds: 300, Ordinal: 1},
				{Locator: "vid-a2", Title: "Part 2", DurationSeconds: 450, Ordinal: 2},
			},
			Tags: []TagRef{{ID: "rendering.lumen", Provenance: ProvenanceCanonical}},
		},
		{
			Code:      "doc-b",
			Title:     "Doc B",
			Playables: []PlayableItem{{Locator: "doc-b1", Title: "Section", DurationSeconds: 120}},
		},
	}
	segments := []Segment{
		{Locator: "vid-a2", ItemCode: "course-a", StartSeconds: 30, Text: "later"},
		{Locator: "vid-a1", ItemCode: "course-a", StartSeconds: 60, Text: "second"},
		{Locator: "vid-a1", ItemCode: "course-a", StartSeconds: 0, Text: "first", EncodedVector: EncodeVector([]float32{1, 0})},
	}
	return NewSnapshot(items, nil, nil, nil, nil, nil, segments)
}

func TestSnapshotIndexes(t *testing.T) {
	snap := testSnapshot()

	if item := snap.ItemByCode("course-a"); item == nil || item.Title != "Course A" {
		t.Fatalf("ItemByCode(course-a) = %+v", item)
	}
	if item := snap.ItemByCode("missing"); item != nil {
		t.Fatalf("expected nil for unknown code, got %+v", item)
	}
	if item := snap.ItemByLocator("vid-a2"); item == nil || item.Code != "course-a" {
		t.Fatalf("ItemByLocator(vid-a2) = %+v", item)
	}
}

func TestSnapshotSegmentOrdering(t *testing.T) {
	snap := testSnapshot()

	for i := 1; i < len(snap.Segments); i++ {
		prev, cur := snap.Segments[i-1], snap.Segments[i]
		if prev.Locator > cur.Locator {
			t.Fatalf("segments not sorted by locator at %d", i)
		}
		if prev.Locator == cur.Locator && prev.StartSeconds > cur.StartSeconds {
			t.Fatalf("segments not sorted by start time at %d", i)
		}
	}

	lo, hi := snap.SegmentsForLocator("vid-a1")
	if hi-lo != 2 {
		t.Fatalf("SegmentsForLocator(vid-a1) covers %d segments, want 2", hi-lo)
	}
	if snap.Segments[lo].Text != "first" {
		t.Errorf("first segment = %q, want %q", snap.Segments[lo].Text, "first")
	}

	lo, hi = snap.SegmentsForLocator("missing")
	if hi != lo {
		t.Fatalf("expected empty range for unknown locator, got [%d, %d)", lo, hi)
	}
}

func TestSnapshotSegmentVectors(t *testing.T) {
	snap := testSnapshot()

	vectors, dim := snap.SegmentVectors()
	if dim != 2 {
		t.Fatalf("dim = %d, want 2", dim)
	}
	if len(vectors) != len(snap.Segments) {
		t.Fatalf("vectors length %d, want %d", len(vectors), len(snap.Segments))
	}

	decoded := 0
	for _, v := range vectors {
		if v != nil {
			decoded++
		}
	}
	if decoded != 1 {
		t.Fatalf("decoded %d vectors, want 1", decoded)
	}

	// Second call returns the same cached slice.
	again, _ := snap.SegmentVectors()
	if &again[0] != &vectors[0] {
		t.Error("expected cached vector slice on second call")
	}
}

func TestSnapshotCorruptVectorSkipped(t *testing.T) {
	segments := []Segment{
		{Locator: "v1", StartSeconds: 0, EncodedVector: "!!corrupt!!"},
		{Locator: "v1", StartSeconds: 10, EncodedVector: EncodeVector([]float32{0, 1, 0})},
	}
	snap := NewSnapshot(nil, nil, nil, nil, nil, nil, segments)

	vectors, dim := snap.SegmentVectors()
	if dim != 3 {
		t.Fatalf("dim = %d, want 3", dim)
	}
	if vectors[0] != nil {
		t.Error("corrupt vector should decode to nil")
	}
	if vectors[1] == nil {
		t.Error("valid vector should decode")
	}
}

func TestCatalogItemDurationMinutes(t *testing.T) {
	item := CatalogItem{Playables: []PlayableItem{
		{DurationSeconds: 61},
		{DurationSeconds: 60},
	}}
	if got := item.DurationMinutes(); got != 3 {
		t.Fatalf("DurationMinutes = %d, want 3 (rounded up)", got)
	}
}
