// Package kvcache stores cached results in Valkey/Redis, one JSON value per key.
package kvcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/placescout/internal/db"
	"github.com/kailas-cloud/placescout/internal/domain/fingerprint"
	"github.com/kailas-cloud/placescout/internal/repository/cache"
)

// DefaultPrefix namespaces placescout keys.
const DefaultPrefix = "placescout:"

// store is the consumer interface for the key-value backend (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Store implements cache.Store over a key-value backend.
type Store[T any] struct {
	store  store
	prefix string
	kind   string
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// New creates a store. Keys are written as prefix + fingerprint; the
// fingerprint already carries its kind.
func New[T any](s store, prefix, kind string, logger *zap.Logger) *Store[T] {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store[T]{
		store:  s,
		prefix: prefix,
		kind:   kind,
		now:    time.Now,
		logger: logger,
	}
}

// WithTTL expires entries after ttl. Zero keeps them forever.
func (s *Store[T]) WithTTL(ttl time.Duration) *Store[T] {
	s.ttl = ttl
	return s
}

// Get returns the cached results. Backend failures and undecodable values are
// logged and reported as misses.
func (s *Store[T]) Get(ctx context.Context, key fingerprint.Key) ([]T, bool) {
	data, err := s.store.Get(ctx, s.prefix+key.String())
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			s.logger.Warn("Failed to read cache entry", zap.String("key", key.String()), zap.Error(err))
		}
		return nil, false
	}

	var e cache.Entry[T]
	if err := json.Unmarshal(data, &e); err != nil {
		s.logger.Warn("Failed to decode cache entry", zap.String("key", key.String()), zap.Error(err))
		return nil, false
	}
	return e.Clone(), true
}

// Put replaces the entry for key.
func (s *Store[T]) Put(ctx context.Context, key fingerprint.Key, results []T) error {
	data, err := json.Marshal(cache.NewEntry(results, s.now()))
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if s.ttl > 0 {
		err = s.store.SetWithTTL(ctx, s.prefix+key.String(), data, s.ttl)
	} else {
		err = s.store.Set(ctx, s.prefix+key.String(), data)
	}
	if err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}

// Flush is a no-op: every Put is durable once acknowledged.
func (s *Store[T]) Flush() error { return nil }

// Stats scans the keys of this store's kind and decodes each entry.
func (s *Store[T]) Stats(ctx context.Context) (cache.Stats, error) {
	st := cache.Stats{Backend: "valkey:" + s.prefix + s.kind}

	keys, err := s.store.Scan(ctx, s.prefix+s.kind+":*")
	if err != nil {
		return st, fmt.Errorf("scan cache keys: %w", err)
	}

	for _, k := range keys {
		data, err := s.store.Get(ctx, k)
		if err != nil {
			continue // expired or deleted between SCAN and GET
		}
		var e cache.Entry[T]
		if err := json.Unmarshal(data, &e); err != nil {
			continue
		}
		st.Track(len(e.Results), e.StoredAt)
		st.Bytes += int64(len(data))
	}
	return st, nil
}
