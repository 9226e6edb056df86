// Package usagelog appends one JSON line per outbound call attempt so API
// consumption can be reconstructed after a run. The log is never read back.
package usagelog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kailas-cloud/placescout/internal/domain"
)

// Attempt outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeThrottled = "throttled"
	OutcomeTransient = "transient"
	OutcomeFailed    = "failed"
)

// Entry is one outbound call attempt.
type Entry struct {
	Timestamp time.Time
	Kind      domain.QueryKind
	Key       string
	Attempt   int
	Outcome   string
	Status    int
	Duration  time.Duration
	Err       error
}

// Recorder receives usage entries. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Record(e Entry)
}

// Log writes entries as JSON lines through a dedicated zap core.
type Log struct {
	runID string
	file  *os.File
	zl    *zap.Logger
}

// Open appends to the file at path, creating it and its directory if needed.
func Open(path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create usage log dir: %w", err)
		}
	}
	f, err := os.OpenFile(filepath.Clean(path), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open usage log: %w", err)
	}

	encCfg := zapcore.EncoderConfig{
		MessageKey:     "event",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.MillisDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.Lock(f), zapcore.InfoLevel)

	runID := uuid.NewString()
	return &Log{
		runID: runID,
		file:  f,
		zl:    zap.New(core).With(zap.String("run_id", runID)),
	}, nil
}

// RunID identifies this process's entries.
func (l *Log) RunID() string { return l.runID }

// Record appends e. Each entry is a single write.
func (l *Log) Record(e Entry) {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	fields := []zap.Field{
		zap.String("timestamp", ts.UTC().Format(time.RFC3339Nano)),
		zap.String("query_kind", e.Kind.String()),
		zap.String("key", e.Key),
		zap.Int("attempt", e.Attempt),
		zap.String("outcome", e.Outcome),
		zap.Duration("duration", e.Duration),
	}
	if e.Status != 0 {
		fields = append(fields, zap.Int("status", e.Status))
	}
	if e.Err != nil {
		fields = append(fields, zap.String("error", e.Err.Error()))
	}
	l.zl.Info("fetch_attempt", fields...)
}

// Close syncs and closes the file.
func (l *Log) Close() error {
	_ = l.zl.Sync()
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close usage log: %w", err)
	}
	return nil
}

// Nop discards entries.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(Entry) {}

// Memory keeps entries in memory. Useful for tests and for the run footer.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

// Record implements Recorder.
func (m *Memory) Record(e Entry) {
	m.mu.Lock()
	m.entries = append(m.entries, e)
	m.mu.Unlock()
}

// Entries returns a copy of the recorded entries.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

// Len returns the number of recorded entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
