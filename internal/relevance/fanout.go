// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

package relevance

import (
	"context"
	"fmt"
	"sync"

	"github.com/tmachnicki/pathweaver/internal/match"
	"github.com/tmachnicki/pathweaver/internal/metrics"
)

// branch is one independent signal source evaluated during the merged
// strategy's fan-out.
type branch struct {
	name string
	run  func(ctx context.Context) []match.Result
}

// branchResult captures one branch's outcome. A failed branch carries its
// error and an empty contribution; it never aborts the other branches or the
// overall result.
type branchResult struct {
	name    string
	results []match.Result
	err     error
}

// runBranches executes all branches in parallel and joins their results,
// converting panics into per-branch failures.
func (a *Aggregator) runBranches(ctx context.Context, branches []branch) []branchResult {
	results := make([]branchResult, len(branches))
	var wg sync.WaitGroup

	for i, b := range branches {
		wg.Add(1)
		go func(idx int, b branch) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[idx] = branchResult{name: b.name, err: fmt.Errorf("branch panic: %v", r)}
				}
			}()
			results[idx] = branchResult{name: b.name, results: b.run(ctx)}
		}(i, b)
	}

	wg.Wait()

	for _, r := range results {
		if r.err != nil {
			a.logger.Warn().Str("matcher", r.name).Err(r.err).Msg("matcher branch failed, contributing empty")
			metrics.MatcherFailures.WithLabelValues(r.name).Inc()
			continue
		}
		metrics.MatcherResults.WithLabelValues(r.name).Add(float64(len(r.results)))
	}
	return results
}
