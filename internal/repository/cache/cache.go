// Package cache defines the durable result cache contract shared by the file
// and Valkey backends.
package cache

import (
	"context"
	"time"

	"github.com/kailas-cloud/placescout/internal/domain/fingerprint"
)

// Entry is one cached fetch. It is replaced wholesale on every Put.
type Entry[T any] struct {
	Results  []T       `json:"results"`
	StoredAt time.Time `json:"stored_at"`
}

// Stats summarizes cache contents for the stats command.
type Stats struct {
	Backend string
	Entries int
	Results int
	Bytes   int64
	Oldest  time.Time
	Newest  time.Time
}

// Store maps fingerprints to result sequences.
type Store[T any] interface {
	Get(ctx context.Context, key fingerprint.Key) ([]T, bool)
	Put(ctx context.Context, key fingerprint.Key, results []T) error
	Flush() error
	Stats(ctx context.Context) (Stats, error)
}

// NewEntry copies results into a fresh entry. A nil slice becomes empty so
// that zero-result fetches still read back as hits.
func NewEntry[T any](results []T, now time.Time) Entry[T] {
	cp := make([]T, len(results))
	copy(cp, results)
	return Entry[T]{Results: cp, StoredAt: now.UTC()}
}

// Clone returns a copy of the entry's results.
func (e Entry[T]) Clone() []T {
	cp := make([]T, len(e.Results))
	copy(cp, e.Results)
	return cp
}

// Track folds one entry into the running stats.
func (s *Stats) Track(resultCount int, storedAt time.Time) {
	s.Entries++
	s.Results += resultCount
	if s.Oldest.IsZero() || storedAt.Before(s.Oldest) {
		s.Oldest = storedAt
	}
	if storedAt.After(s.Newest) {
		s.Newest = storedAt
	}
}
