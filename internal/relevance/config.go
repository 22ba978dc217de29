// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

package relevance

import "fmt"

// Config holds the aggregator's tuned merge weights. All values are
// empirically tuned; override them via configuration, not code.
type Config struct {
	// Tier1Threshold is the top merged lexical score at or above which the
	// deterministic tier is considered confident. Default: 60.
	Tier1Threshold float64 `json:"tier1_threshold" koanf:"tier1_threshold"`

	// SemanticNewWeight scales semantic-only items into the merged list
	// when the deterministic tier is NOT confident — semantic search is the
	// primary signal then. Default: 100.
	SemanticNewWeight float64 `json:"semantic_new_weight" koanf:"semantic_new_weight"`

	// SemanticNewWeightConfident is the reduced weight for semantic-only
	// items when the deterministic tier is confident. Default: 60.
	SemanticNewWeightConfident float64 `json:"semantic_new_weight_confident" koanf:"semantic_new_weight_confident"`

	// SemanticBoost is added to items already present in the merged list
	// that semantic search confirms, when not confident. Default: 40.
	SemanticBoost float64 `json:"semantic_boost" koanf:"semantic_boost"`

	// SemanticBoostConfident is the confirming boost when the deterministic
	// tier is confident. Default: 20.
	SemanticBoostConfident float64 `json:"semantic_boost_confident" koanf:"semantic_boost_confident"`

	// TagBoostFactor multiplies items whose tags overlap the resolved or
	// hinted tag set. Default: 2.0.
	TagBoostFactor float64 `json:"tag_boost_factor" koanf:"tag_boost_factor"`

	// TagPenaltyFactor multiplies items with no overlap when a tag set was
	// resolved. Default: 0.5.
	TagPenaltyFactor float64 `json:"tag_penalty_factor" koanf:"tag_penalty_factor"`

	// VersionDemotionFactor multiplies items exclusively version-gated to a
	// newer generation than the one the query names. Default: 0.2.
	VersionDemotionFactor float64 `json:"version_demotion_factor" koanf:"version_demotion_factor"`

	// VersionBoostFactor multiplies items gated to the generation the query
	// names. Default: 1.5.
	VersionBoostFactor float64 `json:"version_boost_factor" koanf:"version_boost_factor"`

	// MinResults is the minimum merged-result count below which the next
	// fallback strategy runs. Default: 3.
	MinResults int `json:"min_results" koanf:"min_results"`

	// MaxResults caps the candidate list handed to the path builder.
	// Default: 20.
	MaxResults int `json:"max_results" koanf:"max_results"`
}

// DefaultConfig returns the default aggregator weights.
func DefaultConfig() Config {
	return Config{
		Tier1Threshold:             60,
		SemanticNewWeight:          100,
		SemanticNewWeightConfident: 60,
		SemanticBoost:              40,
		SemanticBoostConfident:     20,
		TagBoostFactor:             2.0,
		TagPenaltyFactor:           0.5,
		VersionDemotionFactor:      0.2,
		VersionBoostFactor:         1.5,
		MinResults:                 3,
		MaxResults:                 20,
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.MinResults < 1 {
		return fmt.Errorf("min_results must be >= 1, got %d", c.MinResults)
	}
	if c.MaxResults < c.MinResults {
		return fmt.Errorf("max_results (%d) must be >= min_results (%d)", c.MaxResults, c.MinResults)
	}
	for name, v := range map[string]float64{
		"tier1_threshold":               c.Tier1Threshold,
		"semantic_new_weight":           c.SemanticNewWeight,
		"semantic_new_weight_confident": c.SemanticNewWeightConfident,
		"semantic_boost":                c.SemanticBoost,
		"semantic_boost_confident":      c.SemanticBoostConfident,
		"tag_boost_factor":              c.TagBoostFactor,
		"tag_penalty_factor":            c.TagPenaltyFactor,
		"version_demotion_factor":       c.VersionDemotionFactor,
		"version_boost_factor":          c.VersionBoostFactor,
	} {
		if v < 0 {
			return fmt.Errorf("%s must be >= 0, got %f", name, v)
		}
	}
	return nil
}
