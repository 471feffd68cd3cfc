package audit

import (
	"context"
	"fmt"
	"sync"
)

// Logger is the audit surface the tap runner talks to.
type Logger interface {
	Log(ctx context.Context, entry *Entry) error
	LogSuccess(ctx context.Context, operation Operation) *Entry
	LogFailure(ctx context.Context, operation Operation, err error) *Entry
	Flush() error
	Close() error
}

// AuditLogger writes entries through its appenders, synchronously. A tap
// run is a single pipeline; buffering entries would only reorder them
// against the progress output.
type AuditLogger struct {
	mu        sync.RWMutex
	appenders []Appender
	database  string
	onError   func(error)
}

// LoggerConfig configures an AuditLogger.
type LoggerConfig struct {
	// Database stamps every entry with the source database name.
	Database string

	// OnError is called when an appender fails; nil means errors are only
	// returned.
	OnError func(error)
}

// NewLogger creates a logger over the given appenders.
func NewLogger(config LoggerConfig, appenders ...Appender) *AuditLogger {
	return &AuditLogger{
		appenders: appenders,
		database:  config.Database,
		onError:   config.OnError,
	}
}

// Log writes one entry through every appender.
func (l *AuditLogger) Log(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("audit entry is nil")
	}
	if entry.Database == "" {
		entry.Database = l.database
	}

	l.mu.RLock()
	appenders := l.appenders
	l.mu.RUnlock()

	var firstErr error
	for _, a := range appenders {
		if err := a.Append(ctx, entry); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			l.handleError(fmt.Errorf("audit appender failed: %w", err))
		}
	}
	return firstErr
}

// LogSuccess records a successful operation and returns the entry for
// further decoration.
func (l *AuditLogger) LogSuccess(ctx context.Context, operation Operation) *Entry {
	entry := NewEntry(operation, StatusSuccess)
	if err := l.Log(ctx, entry); err != nil {
		l.handleError(err)
	}
	return entry
}

// LogFailure records a failed operation.
func (l *AuditLogger) LogFailure(ctx context.Context, operation Operation, err error) *Entry {
	entry := NewEntry(operation, StatusFailure).WithError(err)
	if logErr := l.Log(ctx, entry); logErr != nil {
		l.handleError(logErr)
	}
	return entry
}

// AddAppender attaches one more appender.
func (l *AuditLogger) AddAppender(appender Appender) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.appenders = append(l.appenders, appender)
}

// Flush flushes appenders that buffer.
func (l *AuditLogger) Flush() error {
	l.mu.RLock()
	appenders := l.appenders
	l.mu.RUnlock()

	var firstErr error
	for _, a := range appenders {
		if flusher, ok := a.(interface{ Flush() error }); ok {
			if err := flusher.Flush(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Close flushes and closes all appenders.
func (l *AuditLogger) Close() error {
	l.Flush()

	l.mu.RLock()
	appenders := l.appenders
	l.mu.RUnlock()

	var firstErr error
	for _, a := range appenders {
		if err := a.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (l *AuditLogger) handleError(err error) {
	if l.onError != nil {
		l.onError(err)
	}
}

// NullLogger discards everything. Used when auditing is disabled and in
// tests.
type NullLogger struct{}

// NewNullLogger creates a discard logger.
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (nl *NullLogger) Log(_ context.Context, _ *Entry) error { return nil }

func (nl *NullLogger) LogSuccess(_ context.Context, operation Operation) *Entry {
	return NewEntry(operation, StatusSuccess)
}

func (nl *NullLogger) LogFailure(_ context.Context, operation Operation, err error) *Entry {
	return NewEntry(operation, StatusFailure).WithError(err)
}

func (nl *NullLogger) Flush() error { return nil }
func (nl *NullLogger) Close() error { return nil }
