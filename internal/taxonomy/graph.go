// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

// Package taxonomy provides query helpers over the topic graph: free-text to
// tag resolution via direct and synonym-ring matching, taxonomy-based item
// scoring, and the edge/type lookups the path builder uses for role
// assignment.
//
// The graph assumes ETL-validated input (no subtopic/replaces cycles, no
// dangling references); it does not defend against malformed graphs at query
// time. Malformed *queries* fail closed: empty text resolves to nothing.
package taxonomy

import (
	"sort"
	"strconv"
	"strings"

	"github.com/tmachnicki/pathweaver/internal/catalog"
)

// Config holds the taxonomy scoring weights. These are empirically tuned
// values; override them via configuration rather than editing code.
type Config struct {
	// DirectHitWeight scores a keyword matching a tag carried by the item.
	// Default: 40.
	DirectHitWeight float64 `json:"direct_hit_weight" koanf:"direct_hit_weight"`

	// NeighborHitWeight scores a keyword matching a tag one edge away from
	// a tag carried by the item. Default: 15.
	NeighborHitWeight float64 `json:"neighbor_hit_weight" koanf:"neighbor_hit_weight"`

	// SynonymHitWeight scores a keyword reaching an item tag through a
	// synonym ring. Default: 25.
	SynonymHitWeight float64 `json:"synonym_hit_weight" koanf:"synonym_hit_weight"`
}

// DefaultConfig returns the default taxonomy scoring weights.
func DefaultConfig() Config {
	return Config{
		DirectHitWeight:   40,
		NeighborHitWeight: 15,
		SynonymHitWeight:  25,
	}
}

// Graph is an immutable query view over one snapshot's taxonomy.
type Graph struct {
	cfg      Config
	tags     map[string]catalog.Tag
	tagIDs   []string // sorted, for deterministic iteration
	synonyms catalog.SynonymRing

	// nameIndex maps lowercase surface forms (display name, leaf name) to
	// tag IDs.
	nameIndex map[string][]string

	edgesFrom map[string][]catalog.Edge
	edgesTo   map[string][]catalog.Edge
}

// New builds a graph view over the snapshot's tags, edges, and synonym rings.
func New(snap *catalog.Snapshot, cfg Config) *Graph {
	g := &Graph{
		cfg:       cfg,
		tags:      snap.Tags,
		synonyms:  snap.Synonyms,
		nameIndex: make(map[string][]string),
		edgesFrom: make(map[string][]catalog.Edge),
		edgesTo:   make(map[string][]catalog.Edge),
	}

	g.tagIDs = make([]string, 0, len(snap.Tags))
	for id := range snap.Tags {
		g.tagIDs = append(g.tagIDs, id)
	}
	sort.Strings(g.tagIDs)

	for _, id := range g.tagIDs {
		tag := snap.Tags[id]
		g.indexName(strings.ToLower(tag.Name), id)
		g.indexName(strings.ToLower(tag.LeafName()), id)
	}

	for _, e := range snap.Edges {
		g.edgesFrom[e.From] = append(g.edgesFrom[e.From], e)
		g.edgesTo[e.To] = append(g.edgesTo[e.To], e)
	}

	return g
}

func (g *Graph) indexName(name, tagID string) {
	if name == "" {
		return
	}
	for _, existing := range g.nameIndex[name] {
		if existing == tagID {
			return
		}
	}
	g.nameIndex[name] = append(g.nameIndex[name], tagID)
}

// TagMatch records how one surface term resolved to a tag.
type TagMatch struct {
	// Term is the surface form that matched.
	Term string `json:"term"`

	// TagID is the resolved canonical tag.
	TagID string `json:"tag_id"`

	// Source is "direct" or "synonym".
	Source string `json:"source"`
}

// TextResolution is the result of resolving free text against the taxonomy.
type TextResolution struct {
	// TagIDs are the resolved tags, deduplicated, in match order.
	TagIDs []string `json:"tag_ids"`

	// Matches record each term-to-tag resolution.
	Matches []TagMatch `json:"matches"`
}

// ResolveText resolves free text to canonical tag identifiers via direct
// substring match on tag names plus synonym-ring expansion. Deterministic and
// side-effect free; malformed input yields an empty resolution.
func (g *Graph) ResolveText(text string) TextResolution {
	var res TextResolution

	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return res
	}

	seen := make(map[string]struct{})
	add := func(term, tagID, source string) {
		res.Matches = append(res.Matches, TagMatch{Term: term, TagID: tagID, Source: source})
		if _, dup := seen[tagID]; dup {
			return
		}
		seen[tagID] = struct{}{}
		res.TagIDs = append(res.TagIDs, tagID)
	}

	// Direct matches: tag surface forms appearing in the text.
	for _, id := range g.tagIDs {
		tag := g.tags[id]
		if tag.Deprecated {
			continue
		}
		name := strings.ToLower(tag.Name)
		if name != "" && containsTerm(text, name) {
			add(name, id, "direct")
			continue
		}
		leaf := strings.ToLower(tag.LeafName())
		if leaf != "" && containsTerm(text, leaf) {
			add(leaf, id, "direct")
		}
	}

	// Synonym-ring expansion: surface term -> taxonomy-aligned terms.
	surfaces := make([]string, 0, len(g.synonyms))
	for surface := range g.synonyms {
		surfaces = append(surfaces, surface)
	}
	sort.Strings(surfaces)

	for _, surface := range surfaces {
		if !containsTerm(text, strings.ToLower(surface)) {
			continue
		}
		for _, aligned := range g.synonyms[surface] {
			for _, tagID := range g.nameIndex[strings.ToLower(aligned)] {
				if g.tags[tagID].Deprecated {
					continue
				}
				add(surface, tagID, "synonym")
			}
		}
	}

	return res
}

// containsTerm reports whether term occurs in text on word boundaries for
// single words, falling back to plain substring match for multiword terms.
func containsTerm(text, term string) bool {
	if term == "" {
		return false
	}
	if strings.ContainsAny(term, " .-") {
		return strings.Contains(text, term)
	}
	start := 0
	for {
		i := strings.Index(text[start:], term)
		if i < 0 {
			return false
		}
		i += start
		before := i == 0 || !isWordByte(text[i-1])
		after := i+len(term) == len(text) || !isWordByte(text[i+len(term)])
		if before && after {
			return true
		}
		start = i + len(term)
		if start >= len(text) {
			return false
		}
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// ScoreItem computes a topic-overlap score for an item against query
// keywords, independent of lexical matching. The breakdown maps each scored
// tag to its contribution.
func (g *Graph) ScoreItem(item *catalog.CatalogItem, keywords []string) (float64, map[string]float64) {
	breakdown := make(map[string]float64)
	if item == nil || len(keywords) == 0 {
		return 0, breakdown
	}

	for _, ref := range item.Tags {
		tag, ok := g.tags[ref.ID]
		if !ok {
			continue
		}

		contribution := 0.0
		for _, kw := range keywords {
			switch {
			case g.keywordHitsTag(kw, &tag):
				contribution += g.cfg.DirectHitWeight
			case g.keywordHitsSynonym(kw, &tag):
				contribution += g.cfg.SynonymHitWeight
			case g.keywordHitsNeighbor(kw, ref.ID):
				contribution += g.cfg.NeighborHitWeight
			}
		}

		if contribution > 0 {
			breakdown[ref.ID] += contribution
		}
	}

	total := 0.0
	for _, v := range breakdown {
		total += v
	}
	return total, breakdown
}

// keywordHitsTag reports whether the keyword matches the tag's surface forms.
func (g *Graph) keywordHitsTag(keyword string, tag *catalog.Tag) bool {
	kw := strings.ToLower(keyword)
	return kw == strings.ToLower(tag.LeafName()) ||
		containsTerm(strings.ToLower(tag.Name), kw)
}

// keywordHitsSynonym reports whether the keyword reaches the tag through a
// synonym ring.
func (g *Graph) keywordHitsSynonym(keyword string, tag *catalog.Tag) bool {
	aligned, ok := g.synonyms[strings.ToLower(keyword)]
	if !ok {
		return false
	}
	leaf := strings.ToLower(tag.LeafName())
	name := strings.ToLower(tag.Name)
	for _, term := range aligned {
		term = strings.ToLower(term)
		if term == leaf || term == name {
			return true
		}
	}
	return false
}

// keywordHitsNeighbor reports whether the keyword matches a tag one edge away.
func (g *Graph) keywordHitsNeighbor(keyword string, tagID string) bool {
	for _, e := range g.edgesFrom[tagID] {
		if tag, ok := g.tags[e.To]; ok && g.keywordHitsTag(keyword, &tag) {
			return true
		}
	}
	for _, e := range g.edgesTo[tagID] {
		if tag, ok := g.tags[e.From]; ok && g.keywordHitsTag(keyword, &tag) {
			return true
		}
	}
	return false
}

// HasSubtopicInto reports whether any of the item's tags has an outgoing
// subtopic edge into the matched-tag set. Such items teach a prerequisite of
// a matched topic.
func (g *Graph) HasSubtopicInto(item *catalog.CatalogItem, matched map[string]struct{}) bool {
	for _, ref := range item.Tags {
		for _, e := range g.edgesFrom[ref.ID] {
			if e.Type != catalog.EdgeSubtopic {
				continue
			}
			if _, ok := matched[e.To]; ok {
				return true
			}
		}
	}
	return false
}

// IsSymptomatic reports whether the tag is typed as a symptom or error code.
func (g *Graph) IsSymptomatic(tagID string) bool {
	tag, ok := g.tags[tagID]
	if !ok {
		return false
	}
	return tag.Type == catalog.TagSymptom || tag.Type == catalog.TagErrorCode
}

// Tag returns the tag record for an identifier.
func (g *Graph) Tag(tagID string) (catalog.Tag, bool) {
	tag, ok := g.tags[tagID]
	return tag, ok
}

// Generations returns the engine generations an item is version-gated to,
// derived from its version-typed tags ("engine.v5" gates to generation 5).
// An item with no version tags returns nil: it applies to all generations.
func (g *Graph) Generations(item *catalog.CatalogItem) []int {
	var gens []int
	for _, ref := range item.Tags {
		tag, ok := g.tags[ref.ID]
		if !ok || tag.Type != catalog.TagVersion {
			continue
		}
		if gen, ok := ParseGeneration(tag.ID); ok {
			gens = append(gens, gen)
		}
	}
	sort.Ints(gens)
	return gens
}

// ParseGeneration extracts the generation number from a version tag ID such
// as "engine.v5".
func ParseGeneration(tagID string) (int, bool) {
	leaf := tagID
	if i := strings.LastIndex(tagID, "."); i >= 0 {
		leaf = tagID[i+1:]
	}
	leaf = strings.TrimPrefix(strings.ToLower(leaf), "v")
	gen, err := strconv.Atoi(leaf)
	if err != nil || gen <= 0 {
		return 0, false
	}
	return gen, true
}
