// Package batch writes records to compressed NDJSON files and produces the
// BATCH manifest that replaces inline RECORD messages.
package batch

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/zeebo/xxh3"

	"github.com/queuebridge/tap-aptify/pkg/singer"
)

// Encoding of every batch file this package produces.
var Encoding = singer.BatchEncoding{Format: "jsonl", Compression: "gzip"}

// Batcher accumulates records for one stream and rolls a new gzip file every
// batchSize records. Filenames are <prefix>tap-aptify--<stream>-<uuid>-<n>.json.gz
// with n counting from 1, so the files of one sync sort together and never
// collide across runs.
type Batcher struct {
	stream    string
	syncID    string
	prefix    string
	batchSize int
	storage   Storage
	ctx       context.Context

	buf      bytes.Buffer
	gz       *gzip.Writer
	pending  int
	seq      int
	manifest []singer.BatchFile
}

// NewBatcher creates a batcher for one stream. ctx covers the storage
// uploads issued on rollover and flush.
func NewBatcher(ctx context.Context, stream, prefix string, batchSize int, storage Storage) *Batcher {
	b := &Batcher{
		stream:    stream,
		syncID:    fmt.Sprintf("tap-aptify--%s-%s", stream, uuid.New().String()),
		prefix:    prefix,
		batchSize: batchSize,
		storage:   storage,
		ctx:       ctx,
	}
	b.gz = gzip.NewWriter(&b.buf)
	return b
}

// WriteRecord appends one record as an NDJSON line, rolling over to a new
// file when the batch is full.
func (b *Batcher) WriteRecord(rec *singer.Record) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	if _, err := b.gz.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to compress record: %w", err)
	}
	b.pending++

	if b.pending >= b.batchSize {
		return b.roll()
	}
	return nil
}

// Flush writes any partial batch and returns the manifest for the BATCH
// message. A sync with zero records yields an empty manifest.
func (b *Batcher) Flush() ([]singer.BatchFile, error) {
	if b.pending > 0 {
		if err := b.roll(); err != nil {
			return nil, err
		}
	}
	return b.manifest, nil
}

func (b *Batcher) roll() error {
	if err := b.gz.Close(); err != nil {
		return fmt.Errorf("failed to finish batch file: %w", err)
	}

	b.seq++
	name := fmt.Sprintf("%s%s-%d.json.gz", b.prefix, b.syncID, b.seq)
	data := b.buf.Bytes()

	url, err := b.storage.Put(b.ctx, name, data)
	if err != nil {
		return err
	}
	b.manifest = append(b.manifest, singer.BatchFile{
		URL:      url,
		Records:  b.pending,
		Checksum: fmt.Sprintf("xxh3:%016x", xxh3.Hash(data)),
	})

	b.buf.Reset()
	b.gz.Reset(&b.buf)
	b.pending = 0
	return nil
}
