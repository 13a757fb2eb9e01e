// Package audit records the outcome of every mapped domain operation.
package audit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Outcome is the result class of an audited operation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Default action names.
const (
	ActionSuccess = "operation_success"
	ActionError   = "operation_error"
)

// Entry is one audit record.
type Entry struct {
	ID       string         `json:"id" db:"id"`
	Time     time.Time      `json:"time" db:"created_at"`
	Action   string         `json:"action" db:"action"`
	Entity   string         `json:"entity,omitempty" db:"entity"`
	EntityID int64          `json:"entity_id,omitempty" db:"entity_id"`
	TenantID int64          `json:"tenant_id" db:"tenant_id"`
	UserID   int64          `json:"user_id" db:"user_id"`
	Outcome  Outcome        `json:"outcome" db:"outcome"`
	TraceID  string         `json:"trace_id,omitempty" db:"trace_id"`
	Metadata map[string]any `json:"metadata,omitempty" db:"-"`
}

// Recorder appends audit entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Sink persists audit entries outside the process.
type Sink interface {
	Write(ctx context.Context, entry Entry) error
}

// Reader lists the recent entries of a tenant, newest first.
type Reader interface {
	Recent(ctx context.Context, tenantID int64, limit int) ([]Entry, error)
}

// Log keeps the most recent entries in memory and forwards every entry to
// an optional sink. It is safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	max     int
	sink    Sink
	now     func() time.Time
}

var (
	_ Recorder = (*Log)(nil)
	_ Reader   = (*Log)(nil)
)

// NewLog creates a log retaining at most max entries. A nil sink keeps
// entries in memory only.
func NewLog(max int, sink Sink) *Log {
	if max <= 0 {
		max = 200
	}
	return &Log{max: max, sink: sink, now: time.Now}
}

// Record stores entry and forwards it to the sink. The entry is kept in
// memory even when the sink fails; the sink error is returned.
func (l *Log) Record(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Time.IsZero() {
		entry.Time = l.now().UTC()
	}
	entry.Metadata = copyMetadata(entry.Metadata)

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
	l.mu.Unlock()

	if l.sink == nil {
		return nil
	}
	return l.sink.Write(ctx, entry)
}

// List returns up to limit of the most recent entries of tenantID, oldest
// first. A non-positive limit returns everything retained.
func (l *Log) List(tenantID int64, limit int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Entry
	for _, e := range l.entries {
		if e.TenantID == tenantID {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// Recent implements Reader over the retained entries.
func (l *Log) Recent(_ context.Context, tenantID int64, limit int) ([]Entry, error) {
	list := l.List(tenantID, limit)
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	return list, nil
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Close closes the sink when it holds resources.
func (l *Log) Close() error {
	if c, ok := l.sink.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// MultiSink writes to every sink and joins their errors.
type MultiSink []Sink

// Write implements Sink.
func (m MultiSink) Write(ctx context.Context, entry Entry) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Write(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink holding resources.
func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if c, ok := s.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func copyMetadata(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
