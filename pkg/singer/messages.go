// Package singer emits the Singer protocol message stream: SCHEMA, RECORD,
// STATE and BATCH messages as newline-delimited JSON on an output writer.
package singer

import (
	"fmt"
	"io"
	"sync"

	"github.com/goccy/go-json"
)

// Message types.
const (
	MessageSchema = "SCHEMA"
	MessageRecord = "RECORD"
	MessageState  = "STATE"
	MessageBatch  = "BATCH"
)

// SchemaMessage announces a stream's JSON schema before its records.
type SchemaMessage struct {
	Type               string   `json:"type"`
	Stream             string   `json:"stream"`
	Schema             any      `json:"schema"`
	KeyProperties      []string `json:"key_properties"`
	BookmarkProperties []string `json:"bookmark_properties,omitempty"`
}

// RecordMessage carries one extracted row.
type RecordMessage struct {
	Type          string  `json:"type"`
	Stream        string  `json:"stream"`
	Record        *Record `json:"record"`
	TimeExtracted string  `json:"time_extracted,omitempty"`
}

// StateMessage carries the replication bookmarks accumulated so far.
type StateMessage struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// BatchEncoding describes the file format of a batch manifest.
type BatchEncoding struct {
	Format      string `json:"format"`
	Compression string `json:"compression"`
}

// BatchFile is one manifest entry: a reference to a written batch file.
type BatchFile struct {
	URL      string `json:"url"`
	Records  int    `json:"records"`
	Checksum string `json:"checksum,omitempty"`
}

// BatchMessage replaces inline records with references to batch files.
type BatchMessage struct {
	Type     string        `json:"type"`
	Stream   string        `json:"stream"`
	Encoding BatchEncoding `json:"encoding"`
	Manifest []BatchFile   `json:"manifest"`
}

// Writer serializes messages one per line. Safe for use from a single sync
// goroutine; the mutex only guards against interleaved partial lines.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriter creates a message writer on out (normally os.Stdout).
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Write encodes a single message followed by a newline.
func (w *Writer) Write(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.out.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// WriteSchema emits a SCHEMA message.
func (w *Writer) WriteSchema(stream string, schema any, keyProperties, bookmarkProperties []string) error {
	if keyProperties == nil {
		keyProperties = []string{}
	}
	return w.Write(&SchemaMessage{
		Type:               MessageSchema,
		Stream:             stream,
		Schema:             schema,
		KeyProperties:      keyProperties,
		BookmarkProperties: bookmarkProperties,
	})
}

// WriteRecord emits a RECORD message.
func (w *Writer) WriteRecord(stream string, record *Record, timeExtracted string) error {
	return w.Write(&RecordMessage{
		Type:          MessageRecord,
		Stream:        stream,
		Record:        record,
		TimeExtracted: timeExtracted,
	})
}

// WriteState emits a STATE message.
func (w *Writer) WriteState(value any) error {
	return w.Write(&StateMessage{Type: MessageState, Value: value})
}

// WriteBatch emits a BATCH manifest message.
func (w *Writer) WriteBatch(stream string, encoding BatchEncoding, manifest []BatchFile) error {
	return w.Write(&BatchMessage{
		Type:     MessageBatch,
		Stream:   stream,
		Encoding: encoding,
		Manifest: manifest,
	})
}
