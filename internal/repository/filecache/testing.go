package filecache

import "time"

// SetClockForTest overrides the timestamp source (test-only).
func (s *Store[T]) SetClockForTest(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}
