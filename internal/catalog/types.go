// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

// Package catalog defines the normalized reference-data model consumed by the
// matching pipeline and the repository that loads it.
//
// All reference data (catalog items, taxonomy, synonym rings, curated
// solutions, word-frequency tables, transcript segments) is produced by
// external ETL tooling and is read-only to this process. The engine only ever
// sees immutable Snapshot values.
package catalog

import "strings"

// TagProvenance records which ETL source attached a tag to an item.
type TagProvenance string

const (
	// ProvenanceCanonical marks tags assigned by human curators.
	ProvenanceCanonical TagProvenance = "canonical"
	// ProvenanceInferred marks tags inferred by the taxonomy pipeline.
	ProvenanceInferred TagProvenance = "inferred"
	// ProvenanceExtracted marks tags extracted from transcripts or titles.
	ProvenanceExtracted TagProvenance = "extracted"
)

// TagRef is a normalized reference from a catalog item to a taxonomy tag.
// The ETL emits tags in several differently named fields; ingestion folds
// them into this single list with provenance as an attribute.
type TagRef struct {
	ID         string        `json:"id"`
	Provenance TagProvenance `json:"provenance"`
}

// PlayableItem is an individually playable unit of content belonging to a
// catalog item (a single video, a document section).
type PlayableItem struct {
	// Locator uniquely identifies the playable content (URL or storage key).
	Locator string `json:"locator"`

	// Title is the display title of the playable unit.
	Title string `json:"title"`

	// DurationSeconds is the playback length.
	DurationSeconds int `json:"duration_seconds"`

	// Ordinal is the position within the parent item.
	Ordinal int `json:"ordinal"`
}

// CatalogItem is a unit of content: a course, a document, or a video group.
type CatalogItem struct {
	// Code is the stable identifier assigned by the ETL.
	Code string `json:"code"`

	// Title is the display title.
	Title string `json:"title"`

	// Description is free-form descriptive text.
	Description string `json:"description"`

	// Playables are the item's playable sub-items, ordered by Ordinal.
	Playables []PlayableItem `json:"playables"`

	// Tags is the normalized tag-reference list (all provenance sources).
	Tags []TagRef `json:"tags"`
}

// TagIDs returns the item's tag identifiers in declaration order.
func (c *CatalogItem) TagIDs() []string {
	ids := make([]string, len(c.Tags))
	for i, t := range c.Tags {
		ids[i] = t.ID
	}
	return ids
}

// HasTag reports whether the item carries the given tag.
func (c *CatalogItem) HasTag(tagID string) bool {
	for _, t := range c.Tags {
		if t.ID == tagID {
			return true
		}
	}
	return false
}

// DurationMinutes returns the total playable duration rounded up to minutes.
func (c *CatalogItem) DurationMinutes() int {
	seconds := 0
	for _, p := range c.Playables {
		seconds += p.DurationSeconds
	}
	return (seconds + 59) / 60
}

// TagType classifies a taxonomy node.
type TagType string

const (
	// TagTopic is an ordinary subject-matter tag.
	TagTopic TagType = "topic"
	// TagSymptom marks an observable problem symptom.
	TagSymptom TagType = "symptom"
	// TagErrorCode marks a specific error identifier.
	TagErrorCode TagType = "error_code"
	// TagVersion gates content to an engine generation.
	TagVersion TagType = "version"
)

// Tag is a taxonomy node. Identifiers are dot-namespaced, for example
// "rendering.lumen" or "engine.v5".
type Tag struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        TagType  `json:"type"`
	Description string   `json:"description,omitempty"`
	Related     []string `json:"related,omitempty"`
	Deprecated  bool     `json:"deprecated,omitempty"`
}

// LeafName returns the final segment of the dot-namespaced identifier.
func (t *Tag) LeafName() string {
	if i := strings.LastIndex(t.ID, "."); i >= 0 {
		return t.ID[i+1:]
	}
	return t.ID
}

// EdgeType classifies a directed relation between two tags.
type EdgeType string

const (
	// EdgeSubtopic points from a narrower tag to its broader parent topic.
	EdgeSubtopic EdgeType = "subtopic"
	// EdgeSymptomOf points from a symptom tag to its underlying topic.
	EdgeSymptomOf EdgeType = "symptom_of"
	// EdgeReplaces points from a successor tag to the deprecated tag it replaces.
	EdgeReplaces EdgeType = "replaces"
)

// Edge is a directed, typed relation between two tags. Acyclicity of
// subtopic/replaces edges is validated by ETL lint tooling, not here.
type Edge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Type EdgeType `json:"type"`
}

// Segment is a time-bounded transcript or document excerpt belonging to one
// playable sub-item. Segments are immutable once generated.
type Segment struct {
	// Locator is the parent playable's content locator.
	Locator string `json:"locator"`

	// ItemCode is the catalog item the parent playable belongs to.
	ItemCode string `json:"item_code"`

	// StartSeconds and EndSeconds bound the excerpt chronologically.
	StartSeconds float64 `json:"start_seconds"`
	EndSeconds   float64 `json:"end_seconds"`

	// Text is the excerpt text.
	Text string `json:"text"`

	// EncodedVector is the base64-encoded little-endian float32 embedding.
	// Decoded lazily on first semantic query; empty when no vector exists.
	EncodedVector string `json:"vector,omitempty"`
}

// CuratedSolution maps exact text patterns to a hand-ordered list of catalog
// item codes for previously validated problem signatures.
type CuratedSolution struct {
	// Patterns are lowercase substrings matched against the query.
	Patterns []string `json:"patterns"`

	// ItemCodes is the ordered solution, first item first.
	ItemCodes []string `json:"item_codes"`

	// Explanation is shown to the user as the match reason.
	Explanation string `json:"explanation"`
}

// WordTable is a precomputed word-frequency table for one catalog item,
// covering its transcripts and attached documents.
type WordTable map[string]int

// SynonymRing maps a surface term to the taxonomy-aligned terms it expands to.
type SynonymRing map[string][]string
