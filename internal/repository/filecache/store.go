// Package filecache persists cached results as a single JSON document per
// query kind.
package filecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/placescout/internal/domain"
	"github.com/kailas-cloud/placescout/internal/domain/fingerprint"
	"github.com/kailas-cloud/placescout/internal/repository/cache"
)

var _ cache.Store[struct{}] = (*Store[struct{}])(nil)

// Store is an in-memory map mirrored to one JSON file. All methods are safe
// for concurrent use; writes are serialized by a single mutex.
type Store[T any] struct {
	mu       sync.Mutex
	path     string
	entries  map[fingerprint.Key]cache.Entry[T]
	dirty    bool
	readOnly bool
	now      func() time.Time
	logger   *zap.Logger
}

// ErrReadOnly is returned by writes to a store opened with Inspect.
var ErrReadOnly = errors.New("filecache: store is read-only")

// Open loads the cache at path. A missing file yields an empty cache. An
// unreadable or corrupt file is moved aside to path+".corrupt" and the cache
// starts empty; neither case is an error.
func Open[T any](path string, logger *zap.Logger) *Store[T] {
	s := newStore[T](path, logger)
	s.load()
	return s
}

// Inspect loads the cache at path without touching the file system: a
// corrupt file stays where it is and writes fail with ErrReadOnly.
func Inspect[T any](path string, logger *zap.Logger) *Store[T] {
	s := newStore[T](path, logger)
	s.readOnly = true
	s.load()
	return s
}

func newStore[T any](path string, logger *zap.Logger) *Store[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store[T]{
		path:    filepath.Clean(path),
		entries: make(map[fingerprint.Key]cache.Entry[T]),
		now:     time.Now,
		logger:  logger.With(zap.String("cache", filepath.Base(path))),
	}
}

func (s *Store[T]) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Cache file not found, starting empty", zap.String("path", s.path))
			return
		}
		s.logger.Warn("Failed to read cache file, starting empty",
			zap.String("path", s.path),
			zap.Error(fmt.Errorf("%w: %w", domain.ErrCacheCorrupt, err)),
		)
		return
	}

	if len(data) == 0 {
		s.corrupt(errors.New("file is empty"))
		return
	}

	var entries map[fingerprint.Key]cache.Entry[T]
	if err := json.Unmarshal(data, &entries); err != nil {
		s.corrupt(err)
		return
	}

	for k, e := range entries {
		if e.Results == nil {
			e.Results = []T{}
		}
		s.entries[k] = e
	}
	s.logger.Debug("Cache loaded", zap.String("path", s.path), zap.Int("entries", len(s.entries)))
}

func (s *Store[T]) corrupt(cause error) {
	s.logger.Warn("Cache file is corrupt, starting empty",
		zap.String("path", s.path),
		zap.Error(fmt.Errorf("%w: %w", domain.ErrCacheCorrupt, cause)),
	)
	if !s.readOnly {
		s.quarantine()
	}
}

func (s *Store[T]) quarantine() {
	dst := s.path + ".corrupt"
	if err := os.Rename(s.path, dst); err != nil {
		s.logger.Warn("Failed to move corrupt cache aside", zap.String("path", s.path), zap.Error(err))
		return
	}
	s.logger.Info("Corrupt cache preserved", zap.String("path", dst))
}

// Get returns a copy of the cached results for key.
func (s *Store[T]) Get(_ context.Context, key fingerprint.Key) ([]T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return e.Clone(), true
}

// Put replaces the entry for key and flushes the file. The in-memory entry is
// kept even when the flush fails.
func (s *Store[T]) Put(_ context.Context, key fingerprint.Key, results []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readOnly {
		return ErrReadOnly
	}
	s.entries[key] = cache.NewEntry(results, s.now())
	s.dirty = true
	return s.flushLocked()
}

// Flush writes pending changes. Calling it with nothing pending is a no-op.
func (s *Store[T]) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *Store[T]) flushLocked() error {
	if !s.dirty {
		return nil
	}

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	if err := writeAtomic(s.path, data); err != nil {
		return err
	}

	s.dirty = false
	return nil
}

// writeAtomic writes data to a uniquely named sibling temp file and renames
// it over path. Concurrent writers each rename their own file, so the last
// rename wins and readers never see a partial document.
func writeAtomic(path string, data []byte) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write cache: %w", err)
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync cache: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close cache: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename cache: %w", err)
	}
	return nil
}

// Len returns the number of entries.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Keys returns all keys in sorted order.
func (s *Store[T]) Keys() []fingerprint.Key {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]fingerprint.Key, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Stats reports entry counts and the on-disk size.
func (s *Store[T]) Stats(_ context.Context) (cache.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := cache.Stats{Backend: "file:" + s.path}
	for _, e := range s.entries {
		st.Track(len(e.Results), e.StoredAt)
	}

	fi, err := os.Stat(s.path)
	switch {
	case err == nil:
		st.Bytes = fi.Size()
	case !errors.Is(err, os.ErrNotExist):
		return st, fmt.Errorf("stat cache file: %w", err)
	}
	return st, nil
}
