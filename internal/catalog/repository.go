// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Reference data file names inside the data directory. The ETL pipeline is
// the sole writer of these files.
const (
	FileCatalog    = "catalog.json"
	FileTaxonomy   = "taxonomy.json"
	FileSynonyms   = "synonyms.json"
	FileCurated    = "curated.json"
	FileWordTables = "wordtables.json"
	FileSegments   = "segments.json"
)

// Repository loads reference data from a data directory and serves immutable
// snapshots of it. It is constructed once at process start and passed by
// reference into the matchers. Loading is lazy: nothing is read from disk
// until the first Snapshot call.
type Repository struct {
	dataDir string
	logger  zerolog.Logger

	loadOnce sync.Once
	loadErr  error
	current  atomic.Pointer[Snapshot]
}

// NewRepository creates a repository rooted at dataDir.
func NewRepository(dataDir string, logger zerolog.Logger) *Repository {
	return &Repository{
		dataDir: dataDir,
		logger:  logger.With().Str("component", "catalog").Logger(),
	}
}

// Snapshot returns the current reference-data snapshot, loading it from disk
// on first use.
func (r *Repository) Snapshot(ctx context.Context) (*Snapshot, error) {
	r.loadOnce.Do(func() {
		r.loadErr = r.Reload(ctx)
	})
	if snap := r.current.Load(); snap != nil {
		return snap, nil
	}
	return nil, r.loadErr
}

// Reload rebuilds the snapshot from the data directory and swaps it in.
// In-flight queries keep the snapshot they started with.
func (r *Repository) Reload(ctx context.Context) error {
	snap, err := r.load(ctx)
	if err != nil {
		return err
	}

	r.current.Store(snap)
	r.logger.Info().
		Int("items", len(snap.Items)).
		Int("tags", len(snap.Tags)).
		Int("segments", len(snap.Segments)).
		Int("curated", len(snap.Curated)).
		Msg("reference data loaded")
	return nil
}

// rawCatalogItem matches the ETL catalog export, where tags arrive in three
// differently named provenance fields. Ingestion folds them into the single
// normalized TagRef list.
type rawCatalogItem struct {
	Code          string         `json:"code"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Playables     []PlayableItem `json:"playables"`
	CanonicalTags []string       `json:"canonical_tags"`
	InferredTags  []string       `json:"inferred_tags"`
	ExtractedTags []string       `json:"extracted_tags"`
}

// rawTaxonomy matches the ETL taxonomy export.
type rawTaxonomy struct {
	Tags  []Tag  `json:"tags"`
	Edges []Edge `json:"edges"`
}

// load reads all reference datasets concurrently. Catalog and taxonomy are
// required; the remaining datasets degrade to empty when missing or corrupt,
// matching the pipeline's lexical/taxonomy-only fallback behavior.
func (r *Repository) load(ctx context.Context) (*Snapshot, error) {
	var (
		rawItems   []rawCatalogItem
		taxonomy   rawTaxonomy
		synonyms   SynonymRing
		curated    []CuratedSolution
		wordTables map[string]WordTable
		segments   []Segment
	)

	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.readJSON(FileCatalog, &rawItems)
	})
	g.Go(func() error {
		return r.readJSON(FileTaxonomy, &taxonomy)
	})
	g.Go(func() error {
		readOptional(r, FileSynonyms, &synonyms)
		return nil
	})
	g.Go(func() error {
		readOptional(r, FileCurated, &curated)
		return nil
	})
	g.Go(func() error {
		readOptional(r, FileWordTables, &wordTables)
		return nil
	})
	g.Go(func() error {
		readOptional(r, FileSegments, &segments)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]CatalogItem, len(rawItems))
	for i, raw := range rawItems {
		items[i] = normalizeItem(raw)
	}

	tags := make(map[string]Tag, len(taxonomy.Tags))
	for _, t := range taxonomy.Tags {
		tags[t.ID] = t
	}

	return NewSnapshot(items, tags, taxonomy.Edges, synonyms, curated, wordTables, segments), nil
}

// normalizeItem folds the provenance-specific tag fields into one list.
// Canonical wins on duplicates, then inferred, then extracted.
func normalizeItem(raw rawCatalogItem) CatalogItem {
	item := CatalogItem{
		Code:        raw.Code,
		Title:       raw.Title,
		Description: raw.Description,
		Playables:   raw.Playables,
	}

	seen := make(map[string]struct{})
	appendTags := func(ids []string, prov TagProvenance) {
		for _, id := range ids {
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			item.Tags = append(item.Tags, TagRef{ID: id, Provenance: prov})
		}
	}

	appendTags(raw.CanonicalTags, ProvenanceCanonical)
	appendTags(raw.InferredTags, ProvenanceInferred)
	appendTags(raw.ExtractedTags, ProvenanceExtracted)
	return item
}

// readJSON reads a required dataset.
func (r *Repository) readJSON(name string, out any) error {
	data, err := os.ReadFile(filepath.Join(r.dataDir, name))
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// readOptional reads a dataset that degrades to empty when absent or corrupt.
func readOptional[T any](r *Repository, name string, out *T) {
	data, err := os.ReadFile(filepath.Join(r.dataDir, name))
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn().Err(err).Str("file", name).Msg("optional dataset unreadable")
		}
		return
	}

	var decoded T
	if err := json.Unmarshal(data, &decoded); err != nil {
		r.logger.Warn().Err(err).Str("file", name).Msg("optional dataset corrupt, ignoring")
		return
	}
	*out = decoded
}
