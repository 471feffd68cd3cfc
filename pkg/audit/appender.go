package audit

import (
	"context"
)

// Appender writes audit entries somewhere durable.
type Appender interface {
	Append(ctx context.Context, entry *Entry) error
	Close() error
}

// MultiAppender fans one entry out to several appenders. A failing appender
// does not stop the others; the first error is returned.
type MultiAppender struct {
	appenders []Appender
}

// NewMultiAppender combines appenders.
func NewMultiAppender(appenders ...Appender) *MultiAppender {
	return &MultiAppender{appenders: appenders}
}

// Append writes to every appender.
func (ma *MultiAppender) Append(ctx context.Context, entry *Entry) error {
	var firstErr error
	for _, a := range ma.appenders {
		if err := a.Append(ctx, entry); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes every appender.
func (ma *MultiAppender) Close() error {
	var firstErr error
	for _, a := range ma.appenders {
		if err := a.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Add appends one more appender.
func (ma *MultiAppender) Add(appender Appender) {
	ma.appenders = append(ma.appenders, appender)
}
