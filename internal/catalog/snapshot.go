// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

package catalog

import (
	"sort"
	"sync"
)

// Snapshot is one consistent, immutable view of all reference data. A query
// runs against exactly one snapshot; reloads swap in a new snapshot without
// touching in-flight queries.
type Snapshot struct {
	Items    []CatalogItem
	Tags     map[string]Tag
	Edges    []Edge
	Synonyms SynonymRing
	Curated  []CuratedSolution

	// WordTables maps item code to its word-frequency table.
	WordTables map[string]WordTable

	// Segments are ordered by (Locator, StartSeconds).
	Segments []Segment

	byCode    map[string]*CatalogItem
	byLocator map[string]*CatalogItem

	// Decoded segment vectors, populated on first semantic query.
	vecOnce sync.Once
	vectors [][]float32
	vecDim  int
}

// NewSnapshot indexes the given reference data into an immutable snapshot.
func NewSnapshot(
	items []CatalogItem,
	tags map[string]Tag,
	edges []Edge,
	synonyms SynonymRing,
	curated []CuratedSolution,
	wordTables map[string]WordTable,
	segments []Segment,
) *Snapshot {
	s := &Snapshot{
		Items:      items,
		Tags:       tags,
		Edges:      edges,
		Synonyms:   synonyms,
		Curated:    curated,
		WordTables: wordTables,
		Segments:   segments,
		byCode:     make(map[string]*CatalogItem, len(items)),
		byLocator:  make(map[string]*CatalogItem),
	}

	for i := range s.Items {
		item := &s.Items[i]
		s.byCode[item.Code] = item
		for _, p := range item.Playables {
			s.byLocator[p.Locator] = item
		}
	}

	sort.SliceStable(s.Segments, func(i, j int) bool {
		if s.Segments[i].Locator != s.Segments[j].Locator {
			return s.Segments[i].Locator < s.Segments[j].Locator
		}
		return s.Segments[i].StartSeconds < s.Segments[j].StartSeconds
	})

	return s
}

// ItemByCode returns the catalog item with the given code, or nil.
func (s *Snapshot) ItemByCode(code string) *CatalogItem {
	return s.byCode[code]
}

// ItemByLocator returns the catalog item owning the given playable locator.
func (s *Snapshot) ItemByLocator(locator string) *CatalogItem {
	return s.byLocator[locator]
}

// WordTable returns the word-frequency table for an item code. Missing tables
// yield nil, which matchers treat as "no transcript data".
func (s *Snapshot) WordTable(code string) WordTable {
	return s.WordTables[code]
}

// SegmentVectors returns the decoded segment embeddings, decoding them on
// first call. The returned slice is parallel to Segments; entries without a
// stored vector are nil. Dimension is 0 when no segment carries a vector.
func (s *Snapshot) SegmentVectors() ([][]float32, int) {
	s.vecOnce.Do(func() {
		s.vectors = make([][]float32, len(s.Segments))
		for i := range s.Segments {
			if s.Segments[i].EncodedVector == "" {
				continue
			}
			vec, err := DecodeVector(s.Segments[i].EncodedVector)
			if err != nil {
				// A corrupt vector degrades that segment to lexical-only.
				continue
			}
			s.vectors[i] = vec
			if s.vecDim == 0 {
				s.vecDim = len(vec)
			}
		}
	})
	return s.vectors, s.vecDim
}

// SegmentsForLocator returns the index range [lo, hi) of segments belonging
// to the given locator, in chronological order.
func (s *Snapshot) SegmentsForLocator(locator string) (int, int) {
	lo := sort.Search(len(s.Segments), func(i int) bool {
		return s.Segments[i].Locator >= locator
	})
	hi := lo
	for hi < len(s.Segments) && s.Segments[hi].Locator == locator {
		hi++
	}
	return lo, hi
}
