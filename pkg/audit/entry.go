// Package audit records the tap's operational trail: connections, catalog
// discovery, stream syncs and batch uploads. Entries go to appenders; the
// console appender writes to stderr so the stdout message stream stays
// machine-readable.
package audit

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Level controls how much of an entry the appender keeps.
type Level int

const (
	// LevelMinimal keeps only operation, status and counts.
	LevelMinimal Level = iota

	// LevelStandard keeps metadata too.
	LevelStandard

	// LevelFull keeps everything.
	LevelFull
)

func (l Level) String() string {
	switch l {
	case LevelMinimal:
		return "minimal"
	case LevelStandard:
		return "standard"
	case LevelFull:
		return "full"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}

// Operation is the audited action.
type Operation string

const (
	OpConnect  Operation = "connect"
	OpDiscover Operation = "discover"
	OpSync     Operation = "sync"
	OpBatch    Operation = "batch"
	OpPublish  Operation = "publish"
	OpState    Operation = "state"
)

// Status of an audited action.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusPartial Status = "partial"
)

// Entry is one audit record.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Operation Operation `json:"operation"`
	Status    Status    `json:"status"`

	// Stream is the tap_stream_id the entry concerns, when any.
	Stream string `json:"stream,omitempty"`

	// Database is the source database name.
	Database string `json:"database,omitempty"`

	Records  int64          `json:"records,omitempty"`
	Duration time.Duration  `json:"duration,omitempty"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewEntry creates an entry stamped with a fresh ID and the current time.
func NewEntry(operation Operation, status Status) *Entry {
	return &Entry{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Operation: operation,
		Status:    status,
	}
}

// WithStream sets the stream.
func (e *Entry) WithStream(stream string) *Entry {
	e.Stream = stream
	return e
}

// WithDatabase sets the source database.
func (e *Entry) WithDatabase(db string) *Entry {
	e.Database = db
	return e
}

// WithRecords sets the record count.
func (e *Entry) WithRecords(n int64) *Entry {
	e.Records = n
	return e
}

// WithDuration sets the elapsed time.
func (e *Entry) WithDuration(d time.Duration) *Entry {
	e.Duration = d
	return e
}

// WithError records the error and flips the status to failure.
func (e *Entry) WithError(err error) *Entry {
	if err != nil {
		e.Error = err.Error()
		e.Status = StatusFailure
	}
	return e
}

// WithMetadata adds one metadata key.
func (e *Entry) WithMetadata(key string, value any) *Entry {
	if e.Metadata == nil {
		e.Metadata = make(map[string]any)
	}
	e.Metadata[key] = value
	return e
}

// ToJSON serializes the entry.
func (e *Entry) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func (e *Entry) String() string {
	return fmt.Sprintf("[%s] %s %s stream=%s records=%d duration=%v%s",
		e.Timestamp.Format(time.RFC3339),
		e.Operation,
		e.Status,
		e.Stream,
		e.Records,
		e.Duration,
		errSuffix(e.Error),
	)
}

func errSuffix(msg string) string {
	if msg == "" {
		return ""
	}
	return " error=" + msg
}

// Clone copies the entry, including its metadata map.
func (e *Entry) Clone() *Entry {
	clone := *e
	if e.Metadata != nil {
		clone.Metadata = make(map[string]any, len(e.Metadata))
		for k, v := range e.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}

// FilterByLevel returns a copy with the fields above the level removed.
func (e *Entry) FilterByLevel(level Level) *Entry {
	filtered := e.Clone()
	switch level {
	case LevelMinimal:
		filtered.Metadata = nil
	case LevelStandard, LevelFull:
	}
	return filtered
}
