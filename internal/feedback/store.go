// Pathweaver - Learning Content Recommendation and Path Construction
// Copyright 2026 T. Machnicki (tmachnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmachnicki/pathweaver

// Package feedback persists per-user engagement signals and derives the
// multiplicative boost map the aggregator applies. Signals never mutate the
// catalog; the matching pipeline only ever reads a boost-map snapshot taken
// at query start.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tmachnicki/pathweaver/internal/metrics"
)

// EventType classifies a feedback event.
type EventType string

const (
	// EventEngaged records that the user engaged with an item.
	EventEngaged EventType = "engaged"
	// EventSkipped records that the user skipped an item.
	EventSkipped EventType = "skipped"
)

// Boost scaling: engagement ratio 0..1 maps linearly into [BoostMin, BoostMax].
const (
	BoostMin = 0.7
	BoostMax = 1.2
)

// ErrInvalidEvent rejects events with an unknown type or missing keys.
var ErrInvalidEvent = errors.New("feedback: invalid event")

// signalKeyPrefix namespaces feedback counters in Badger.
const signalKeyPrefix = "signal:"

// Signal is the persisted per-(user, item) counter pair.
type Signal struct {
	Engaged int `json:"engaged"`
	Skipped int `json:"skipped"`
}

// Boost derives the multiplicative boost from the engagement ratio.
func (s Signal) Boost() float64 {
	total := s.Engaged + s.Skipped
	if total == 0 {
		return 1.0
	}
	ratio := float64(s.Engaged) / float64(total)
	return BoostMin + (BoostMax-BoostMin)*ratio
}

// Store is a BadgerDB-backed feedback store.
type Store struct {
	db     *badger.DB
	logger zerolog.Logger
}

// Open opens (or creates) the feedback database at dir.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(dir string, logger zerolog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open feedback store: %w", err)
	}
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "feedback").Logger(),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends one feedback event for (userID, itemCode).
func (s *Store) Record(ctx context.Context, userID, itemCode string, event EventType) error {
	if userID == "" || itemCode == "" {
		return ErrInvalidEvent
	}
	if event != EventEngaged && event != EventSkipped {
		return fmt.Errorf("%w: type %q", ErrInvalidEvent, event)
	}

	key := signalKey(userID, itemCode)
	err := s.db.Update(func(txn *badger.Txn) error {
		var sig Signal
		item, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			// First event for this pair.
		case err != nil:
			return fmt.Errorf("get signal: %w", err)
		default:
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &sig)
			}); err != nil {
				return fmt.Errorf("decode signal: %w", err)
			}
		}

		if event == EventEngaged {
			sig.Engaged++
		} else {
			sig.Skipped++
		}

		data, err := json.Marshal(sig)
		if err != nil {
			return fmt.Errorf("encode signal: %w", err)
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return err
	}

	metrics.FeedbackEvents.WithLabelValues(string(event)).Inc()
	return nil
}

// Signal returns the counter pair for (userID, itemCode). A missing pair is
// a zero Signal, not an error.
func (s *Store) Signal(ctx context.Context, userID, itemCode string) (Signal, error) {
	var sig Signal
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(signalKey(userID, itemCode))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get signal: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sig)
		})
	})
	return sig, err
}

// BoostMap returns the item-code to multiplier map for a user. An empty map
// means no history; the aggregator then applies no feedback adjustment.
func (s *Store) BoostMap(ctx context.Context, userID string) (map[string]float64, error) {
	if userID == "" {
		return map[string]float64{}, nil
	}

	boosts := make(map[string]float64)
	prefix := userKeyPrefix(userID)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			itemCode := strings.TrimPrefix(string(item.Key()), string(prefix))
			if itemCode == "" {
				continue
			}
			var sig Signal
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &sig)
			}); err != nil {
				s.logger.Warn().Err(err).Str("key", string(item.Key())).Msg("corrupt feedback signal, skipping")
				continue
			}
			boosts[itemCode] = sig.Boost()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("build boost map: %w", err)
	}
	return boosts, nil
}

// userKeyPrefix builds the Badger key prefix covering all of a user's
// signals. The user ID is length-prefixed so an ID containing the separator
// cannot alias another user's range.
func userKeyPrefix(userID string) []byte {
	return []byte(fmt.Sprintf("%s%d:%s:", signalKeyPrefix, len(userID), userID))
}

// signalKey builds the Badger key for a (user, item) pair.
func signalKey(userID, itemCode string) []byte {
	return append(userKeyPrefix(userID), itemCode...)
}
