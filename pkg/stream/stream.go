// Package stream runs the extraction of a single catalog stream: builds the
// incremental read query, scans rows, post-processes values into portable
// form and hands records to an output sink.
package stream

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/queuebridge/tap-aptify/pkg/catalog"
	"github.com/queuebridge/tap-aptify/pkg/jsonschema"
	"github.com/queuebridge/tap-aptify/pkg/mssql"
	"github.com/queuebridge/tap-aptify/pkg/singer"
)

// RecordSink receives post-processed records. Implemented by the inline
// RECORD emitter and by the batch file writer.
type RecordSink interface {
	WriteRecord(rec *singer.Record) error
}

// Options controls one sync pass over a stream.
type Options struct {
	// StartDate seeds the bookmark of timestamp-keyed streams that have
	// never synced. Zero means read from the beginning.
	StartDate time.Time

	// AbortAt caps the number of records emitted in one pass. Zero means
	// no cap.
	AbortAt int
}

// Result summarizes one sync pass.
type Result struct {
	Records  int64
	Bookmark string

	// MoreData is set when the pass stopped at the AbortAt cap with rows
	// still unread; the next run resumes from Bookmark.
	MoreData bool
}

// Stream binds a catalog entry to a database connection.
type Stream struct {
	entry *catalog.Entry
	conn  *mssql.Connector
}

// New creates a stream runner for a catalog entry.
func New(entry *catalog.Entry, conn *mssql.Connector) *Stream {
	return &Stream{entry: entry, conn: conn}
}

// Entry returns the underlying catalog entry.
func (s *Stream) Entry() *catalog.Entry {
	return s.entry
}

// Sync reads the stream from the given bookmark and writes every record to
// the sink. The returned bookmark is the replication key value of the last
// record written, rendered as a string.
func (s *Stream) Sync(ctx context.Context, bookmark string, sink RecordSink, opts Options) (*Result, error) {
	columns := s.entry.SelectedColumns()
	if len(columns) == 0 {
		return nil, fmt.Errorf("stream %s: no columns selected", s.entry.TapStreamID)
	}

	start, err := s.startValue(bookmark, opts.StartDate)
	if err != nil {
		return nil, fmt.Errorf("stream %s: %w", s.entry.TapStreamID, err)
	}

	spec := mssql.QuerySpec{
		SchemaName:     s.entry.SchemaName,
		TableName:      s.entry.TableName,
		Columns:        columns,
		ReplicationKey: s.entry.ReplicationKey,
		StartValue:     start,
		AbortAt:        opts.AbortAt,
	}
	query, err := mssql.BuildIncrementalQuery(spec, nil)
	if err != nil {
		return nil, fmt.Errorf("stream %s: %w", s.entry.TapStreamID, err)
	}

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("stream %s: query failed: %w", s.entry.TapStreamID, err)
	}
	defer rows.Close()

	types := make([]jsonschema.Type, len(columns))
	for i, col := range columns {
		t, ok := s.entry.Property(col)
		if !ok {
			return nil, fmt.Errorf("stream %s: column %q not in schema", s.entry.TapStreamID, col)
		}
		types[i] = t
	}

	res := &Result{Bookmark: bookmark}
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if opts.AbortAt > 0 && res.Records >= int64(opts.AbortAt) {
			// The extra TOP row only tells us there is more to read.
			res.MoreData = true
			break
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("stream %s: scan failed: %w", s.entry.TapStreamID, err)
		}

		rec := singer.NewRecord(columns)
		for i, col := range columns {
			rec.Set(col, PostProcess(values[i], types[i]))
		}
		if err := sink.WriteRecord(rec); err != nil {
			return nil, fmt.Errorf("stream %s: %w", s.entry.TapStreamID, err)
		}
		res.Records++

		if s.entry.ReplicationKey != "" {
			res.Bookmark = renderBookmark(rec.Get(s.entry.ReplicationKey))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stream %s: read failed: %w", s.entry.TapStreamID, err)
	}
	return res, nil
}

// startValue converts the stored bookmark, or the configured start date,
// into a driver argument of the replication key's native type.
func (s *Stream) startValue(bookmark string, startDate time.Time) (any, error) {
	if s.entry.ReplicationKey == "" {
		return nil, nil
	}
	t, ok := s.entry.Property(s.entry.ReplicationKey)
	if !ok {
		return nil, fmt.Errorf("replication key %q not in schema", s.entry.ReplicationKey)
	}

	if bookmark == "" {
		if t.IsDateTime() && !startDate.IsZero() {
			return startDate, nil
		}
		return nil, nil
	}

	if t.IsDateTime() {
		ts, err := time.Parse(time.RFC3339, bookmark)
		if err != nil {
			return nil, fmt.Errorf("invalid bookmark %q: %w", bookmark, err)
		}
		return ts, nil
	}
	if t.Primitive() == jsonschema.TypeInteger {
		n, err := strconv.ParseInt(bookmark, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bookmark %q: %w", bookmark, err)
		}
		return n, nil
	}
	return bookmark, nil
}

// renderBookmark turns a post-processed replication key value back into the
// string stored in the state file.
func renderBookmark(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprintf("%v", x)
	}
}
