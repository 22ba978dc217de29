// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/tmachnicki/pathweaver/internal/metrics"
)

// reloadDebounce coalesces the burst of fsnotify events the ETL produces
// while rewriting the data directory.
const reloadDebounce = 2 * time.Second

// Watcher reloads the repository snapshot when the ETL rewrites reference
// data files. It implements suture.Service via Serve.
type Watcher struct {
	repo   *Repository
	logger zerolog.Logger
}

// NewWatcher creates a watcher for the repository's data directory.
func NewWatcher(repo *Repository, logger zerolog.Logger) *Watcher {
	return &Watcher{
		repo:   repo,
		logger: logger.With().Str("component", "catalog-watcher").Logger(),
	}
}

// String identifies the service in supervisor logs.
func (w *Watcher) String() string {
	return "catalog-watcher"
}

// Serve watches the data directory until the context is canceled.
func (w *Watcher) Serve(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.repo.dataDir); err != nil {
		return fmt.Errorf("watch %s: %w", w.repo.dataDir, err)
	}

	w.logger.Info().Str("dir", w.repo.dataDir).Msg("watching reference data")

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return fmt.Errorf("fsnotify event channel closed")
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("data file changed")
			pending = time.After(reloadDebounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return fmt.Errorf("fsnotify error channel closed")
			}
			w.logger.Warn().Err(err).Msg("fsnotify error")

		case <-pending:
			pending = nil
			if err := w.repo.Reload(ctx); err != nil {
				// Keep serving the previous snapshot on a bad reload; the
				// ETL may still be mid-write and will touch the files again.
				w.logger.Error().Err(err).Msg("snapshot reload failed, keeping previous snapshot")
				metrics.SnapshotReloadFailures.Inc()
				continue
			}
			metrics.SnapshotReloads.Inc()
		}
	}
}
