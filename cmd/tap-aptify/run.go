package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/queuebridge/tap-aptify/pkg/audit"
	"github.com/queuebridge/tap-aptify/pkg/batch"
	"github.com/queuebridge/tap-aptify/pkg/catalog"
	"github.com/queuebridge/tap-aptify/pkg/config"
	"github.com/queuebridge/tap-aptify/pkg/mssql"
	"github.com/queuebridge/tap-aptify/pkg/resultlog"
	"github.com/queuebridge/tap-aptify/pkg/singer"
	"github.com/queuebridge/tap-aptify/pkg/state"
	"github.com/queuebridge/tap-aptify/pkg/stream"
)

// recordEmitter writes inline RECORD messages.
type recordEmitter struct {
	out    *singer.Writer
	stream string
}

func (e *recordEmitter) WriteRecord(rec *singer.Record) error {
	return e.out.WriteRecord(e.stream, rec, time.Now().UTC().Format(time.RFC3339))
}

// runSync extracts every selected stream of the catalog.
func runSync(ctx context.Context, cfg *config.Config, flags *Flags) error {
	if flags.Catalog == "" {
		return fmt.Errorf("sync requires --catalog (run --discover first)")
	}
	cat, err := catalog.Load(flags.Catalog)
	if err != nil {
		return err
	}

	states, err := state.NewManager(flags.State, true)
	if err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	if flags.Output != "" {
		f, err := os.Create(flags.Output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	writer := singer.NewWriter(out)

	auditLog := buildAuditLogger(cfg)
	defer auditLog.Close()

	var publisher *resultlog.RedisPublisher
	if cfg.ResultLog.Enabled {
		publisher = resultlog.NewRedisPublisher(cfg.ResultLog)
		defer publisher.Close()
	}

	connStart := time.Now()
	conn, err := mssql.Open(ctx, cfg)
	if err != nil {
		auditLog.LogFailure(ctx, audit.OpConnect, err)
		return err
	}
	defer conn.Close()
	auditLog.LogSuccess(ctx, audit.OpConnect).WithDuration(time.Since(connStart))

	var storage batch.Storage
	if cfg.Batch != nil {
		storage, err = batch.NewStorage(ctx, cfg.Batch.Storage.Root)
		if err != nil {
			return err
		}
	}

	selected := selectStreams(cat, flags.Select)
	if len(selected) == 0 {
		return fmt.Errorf("no streams selected")
	}

	var failed int
	for _, entry := range selected {
		if err := syncStream(ctx, cfg, entry, conn, writer, states, storage, auditLog, publisher); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", entry.TapStreamID, err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d streams failed", failed, len(selected))
	}
	return nil
}

// syncStream runs one stream end to end: SCHEMA, records (inline or
// batched), bookmark advance and the trailing STATE message.
func syncStream(
	ctx context.Context,
	cfg *config.Config,
	entry *catalog.Entry,
	conn *mssql.Connector,
	writer *singer.Writer,
	states *state.Manager,
	storage batch.Storage,
	auditLog audit.Logger,
	publisher *resultlog.RedisPublisher,
) error {
	started := time.Now()

	var bookmarkProps []string
	if entry.ReplicationKey != "" {
		bookmarkProps = []string{entry.ReplicationKey}
	}
	if err := writer.WriteSchema(entry.TapStreamID, entry.Schema, entry.KeyProperties, bookmarkProps); err != nil {
		return err
	}

	var sink stream.RecordSink
	var batcher *batch.Batcher
	if storage != nil {
		batcher = batch.NewBatcher(ctx, entry.TapStreamID, cfg.Batch.Storage.Prefix, cfg.Batch.BatchSize, storage)
		sink = batcher
	} else {
		sink = &recordEmitter{out: writer, stream: entry.TapStreamID}
	}

	opts := stream.Options{
		StartDate: cfg.StartTimestamp(),
		AbortAt:   cfg.AbortAtRecordCount,
	}
	bookmark := states.Bookmark(entry.TapStreamID)

	res, err := stream.New(entry, conn).Sync(ctx, bookmark, sink, opts)
	if err != nil {
		states.UpdateError(entry.TapStreamID, err)
		auditLog.LogFailure(ctx, audit.OpSync, err).
			WithStream(entry.TapStreamID).
			WithDuration(time.Since(started))
		publishResult(ctx, publisher, entry.TapStreamID, started, 0, "", err)
		return err
	}

	if batcher != nil {
		manifest, err := batcher.Flush()
		if err != nil {
			auditLog.LogFailure(ctx, audit.OpBatch, err).WithStream(entry.TapStreamID)
			publishResult(ctx, publisher, entry.TapStreamID, started, res.Records, res.Bookmark, err)
			return err
		}
		if len(manifest) > 0 {
			if err := writer.WriteBatch(entry.TapStreamID, batch.Encoding, manifest); err != nil {
				return err
			}
		}
		auditLog.LogSuccess(ctx, audit.OpBatch).
			WithStream(entry.TapStreamID).
			WithMetadata("files", len(manifest))
	}

	if err := states.Update(entry.TapStreamID, res.Bookmark, res.Records); err != nil {
		return err
	}
	if err := writer.WriteState(states.Snapshot()); err != nil {
		return err
	}

	auditLog.LogSuccess(ctx, audit.OpSync).
		WithStream(entry.TapStreamID).
		WithRecords(res.Records).
		WithDuration(time.Since(started))
	publishResult(ctx, publisher, entry.TapStreamID, started, res.Records, res.Bookmark, nil)

	suffix := ""
	if res.MoreData {
		suffix = " (more data, resume with next run)"
	}
	fmt.Fprintf(os.Stderr, "✓ %s: %d records in %v%s\n",
		entry.TapStreamID, res.Records, time.Since(started).Round(time.Millisecond), suffix)
	return nil
}

func publishResult(ctx context.Context, publisher *resultlog.RedisPublisher, stream string, started time.Time, records int64, bookmark string, execErr error) {
	if publisher == nil {
		return
	}
	result := resultlog.StreamResult{
		Stream:     stream,
		StartedAt:  started.UTC(),
		FinishedAt: time.Now().UTC(),
		DurationMs: time.Since(started).Milliseconds(),
		Records:    records,
		Bookmark:   bookmark,
	}
	if err := publisher.Publish(ctx, result, execErr); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: result publish failed: %v\n", err)
	}
}

// buildAuditLogger assembles the audit pipeline from configuration.
func buildAuditLogger(cfg *config.Config) audit.Logger {
	if !cfg.Audit.Enabled {
		return audit.NewNullLogger()
	}

	var appenders []audit.Appender
	if cfg.Audit.Console {
		appenders = append(appenders, audit.NewConsoleAppender(audit.LevelStandard))
	}
	if cfg.Audit.File != "" {
		fa, err := audit.NewFileAppender(audit.FileAppenderConfig{
			FilePath: cfg.Audit.File,
			MaxSize:  int64(cfg.Audit.MaxSize),
			Level:    audit.LevelStandard,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: audit file disabled: %v\n", err)
		} else {
			appenders = append(appenders, fa)
		}
	}
	if len(appenders) == 0 {
		return audit.NewNullLogger()
	}

	return audit.NewLogger(audit.LoggerConfig{
		Database: cfg.Database,
		OnError: func(err error) {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		},
	}, appenders...)
}

// selectStreams resolves the streams to sync: the catalog's selection,
// optionally narrowed by --select.
func selectStreams(cat *catalog.Catalog, filter string) []*catalog.Entry {
	var only map[string]bool
	if filter != "" {
		only = make(map[string]bool)
		for _, id := range strings.Split(filter, ",") {
			only[strings.TrimSpace(id)] = true
		}
	}

	var selected []*catalog.Entry
	for _, entry := range cat.Streams {
		if only != nil {
			if only[entry.TapStreamID] {
				selected = append(selected, entry)
			}
			continue
		}
		if entry.Selected() {
			selected = append(selected, entry)
		}
	}
	return selected
}

// printCatalog writes the catalog as indented JSON.
func printCatalog(out io.Writer, cat *catalog.Catalog) error {
	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
