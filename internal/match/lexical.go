// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

package match

import (
	"sort"
	"strings"

	"github.com/tmachnicki/pathweaver/internal/catalog"
)

// LexicalConfig holds the lexical matcher's tuned weights.
type LexicalConfig struct {
	// WordWeight scores each occurrence of a query keyword in an item's
	// word-frequency table. Default: 10.
	WordWeight float64 `json:"word_weight" koanf:"word_weight"`

	// StemWeight scores each occurrence of a table word sharing a stem with
	// a query keyword. Default: 3.
	StemWeight float64 `json:"stem_weight" koanf:"stem_weight"`

	// StemMinLen is the minimum shared-prefix length for stem overlap.
	// Default: 4.
	StemMinLen int `json:"stem_min_len" koanf:"stem_min_len"`

	// ScoreFloor discards transcript matches scoring below it. Default: 30.
	ScoreFloor float64 `json:"score_floor" koanf:"score_floor"`

	// TitleWeight scores a keyword hit in the item title. Default: 50.
	TitleWeight float64 `json:"title_weight" koanf:"title_weight"`

	// TagWeight scores a keyword hit on a canonical tag. Default: 30.
	TagWeight float64 `json:"tag_weight" koanf:"tag_weight"`

	// DescriptionWeight scores a keyword hit in the description. Default: 10.
	DescriptionWeight float64 `json:"description_weight" koanf:"description_weight"`

	// FullCoverageBoost multiplies the metadata score when every query
	// keyword matched. Default: 2.0.
	FullCoverageBoost float64 `json:"full_coverage_boost" koanf:"full_coverage_boost"`

	// LowCoverageRatio is the matched-keyword fraction below which the
	// penalty applies, for queries of at least two keywords. Default: 0.5.
	LowCoverageRatio float64 `json:"low_coverage_ratio" koanf:"low_coverage_ratio"`

	// LowCoveragePenalty multiplies the metadata score under low coverage.
	// This is the primary guard against single-keyword false positives in
	// multi-term queries. Default: 0.3.
	LowCoveragePenalty float64 `json:"low_coverage_penalty" koanf:"low_coverage_penalty"`
}

// DefaultLexicalConfig returns the default lexical weights.
func DefaultLexicalConfig() LexicalConfig {
	return LexicalConfig{
		WordWeight:         10,
		StemWeight:         3,
		StemMinLen:         4,
		ScoreFloor:         30,
		TitleWeight:        50,
		TagWeight:          30,
		DescriptionWeight:  10,
		FullCoverageBoost:  2.0,
		LowCoverageRatio:   0.5,
		LowCoveragePenalty: 0.3,
	}
}

// Lexical scores catalog items by keyword overlap against precomputed
// word-frequency tables and against item metadata (title, tags, description).
type Lexical struct {
	cfg LexicalConfig
}

// NewLexical creates a lexical matcher with the given weights.
func NewLexical(cfg LexicalConfig) *Lexical {
	return &Lexical{cfg: cfg}
}

// MatchTranscripts scores every item's word-frequency table against the
// query keywords (plus optional error-log text). Items scoring below the
// configured floor are discarded. Results are sorted by score descending,
// ties broken by item code for determinism.
func (l *Lexical) MatchTranscripts(snap *catalog.Snapshot, query, errorText string) []Result {
	keywords := Keywords(query + " " + errorText)
	if len(keywords) == 0 {
		return nil
	}

	codes := make([]string, 0, len(snap.WordTables))
	for code := range snap.WordTables {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var results []Result
	for _, code := range codes {
		table := snap.WordTables[code]
		score, matched := l.scoreTable(table, keywords)
		if score < l.cfg.ScoreFloor {
			continue
		}
		results = append(results, Result{
			ItemCode:        code,
			Score:           score,
			Keywords:        matched,
			Tier:            TierDeterministic,
			TranscriptTerms: matched,
		})
	}

	sortResults(results)
	return results
}

// scoreTable scores one word table: WordWeight per keyword occurrence plus
// StemWeight per occurrence of stem-overlapping table words.
func (l *Lexical) scoreTable(table catalog.WordTable, keywords []string) (float64, []string) {
	score := 0.0
	var matched []string

	for _, kw := range keywords {
		hit := false
		if count, ok := table[kw]; ok && count > 0 {
			score += float64(count) * l.cfg.WordWeight
			hit = true
		}
		for word, count := range table {
			if sharedStem(kw, word, l.cfg.StemMinLen) {
				score += float64(count) * l.cfg.StemWeight
				hit = true
			}
		}
		if hit {
			matched = append(matched, kw)
		}
	}
	return score, matched
}

// MatchMetadata scores items by keyword hits on title, canonical tags, and
// description, then applies the keyword-coverage gate: full coverage doubles
// the score, coverage below LowCoverageRatio (with at least two keywords
// searched) cuts it to LowCoveragePenalty of its unscaled value.
func (l *Lexical) MatchMetadata(snap *catalog.Snapshot, query string) []Result {
	keywords := Keywords(query)
	if len(keywords) == 0 {
		return nil
	}

	var results []Result
	for i := range snap.Items {
		item := &snap.Items[i]
		r := l.scoreMetadata(item, keywords)
		if r.Score <= 0 {
			continue
		}
		results = append(results, r)
	}

	sortResults(results)
	return results
}

// scoreMetadata scores one item's metadata against the keywords.
func (l *Lexical) scoreMetadata(item *catalog.CatalogItem, keywords []string) Result {
	title := strings.ToLower(item.Title)
	description := strings.ToLower(item.Description)

	r := Result{ItemCode: item.Code, Tier: TierDeterministic}
	score := 0.0

	for _, kw := range keywords {
		hit := false

		if strings.Contains(title, kw) {
			score += l.cfg.TitleWeight
			r.TitleTerms = append(r.TitleTerms, kw)
			hit = true
		}

		for _, ref := range item.Tags {
			if ref.Provenance != catalog.ProvenanceCanonical {
				continue
			}
			if tagMatchesKeyword(ref.ID, kw) {
				score += l.cfg.TagWeight
				r.TagIDs = mergeStrings(r.TagIDs, []string{ref.ID})
				hit = true
			}
		}

		if strings.Contains(description, kw) {
			score += l.cfg.DescriptionWeight
			hit = true
		}

		if hit {
			r.Keywords = append(r.Keywords, kw)
		}
	}

	if score <= 0 {
		return r
	}

	coverage := float64(len(r.Keywords)) / float64(len(keywords))
	switch {
	case coverage >= 1.0:
		score *= l.cfg.FullCoverageBoost
	case coverage < l.cfg.LowCoverageRatio && len(keywords) >= 2:
		score *= l.cfg.LowCoveragePenalty
	}

	r.Score = score
	return r
}

// tagMatchesKeyword reports whether a keyword matches a tag reference's leaf
// segment.
func tagMatchesKeyword(tagID, keyword string) bool {
	leaf := tagID
	if i := strings.LastIndex(tagID, "."); i >= 0 {
		leaf = tagID[i+1:]
	}
	return strings.EqualFold(leaf, keyword)
}

// sortResults orders results by score descending, item code ascending.
func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ItemCode < results[j].ItemCode
	})
}
