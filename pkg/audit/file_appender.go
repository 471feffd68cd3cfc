package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileAppender appends NDJSON entries to a file with size-based rotation.
type FileAppender struct {
	mu          sync.Mutex
	file        *os.File
	filePath    string
	maxSize     int64
	maxBackups  int
	currentSize int64
	level       Level
}

// FileAppenderConfig configures a file appender. MaxSize is in megabytes.
type FileAppenderConfig struct {
	FilePath   string
	MaxSize    int64
	MaxBackups int
	Level      Level
}

// NewFileAppender opens (or creates) the audit file.
func NewFileAppender(config FileAppenderConfig) (*FileAppender, error) {
	dir := filepath.Dir(config.FilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat audit file: %w", err)
	}

	maxSize := config.MaxSize
	if maxSize == 0 {
		maxSize = 100
	}
	maxBackups := config.MaxBackups
	if maxBackups == 0 {
		maxBackups = 5
	}

	return &FileAppender{
		file:        file,
		filePath:    config.FilePath,
		maxSize:     maxSize * 1024 * 1024,
		maxBackups:  maxBackups,
		currentSize: info.Size(),
		level:       config.Level,
	}, nil
}

// Append writes one entry as a JSON line, rotating first when the file
// would exceed its size limit.
func (fa *FileAppender) Append(_ context.Context, entry *Entry) error {
	fa.mu.Lock()
	defer fa.mu.Unlock()

	data, err := entry.FilterByLevel(fa.level).ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}
	data = append(data, '\n')

	if fa.currentSize+int64(len(data)) > fa.maxSize {
		if err := fa.rotate(); err != nil {
			return fmt.Errorf("failed to rotate audit file: %w", err)
		}
	}

	n, err := fa.file.Write(data)
	if err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	fa.currentSize += int64(n)
	return nil
}

func (fa *FileAppender) rotate() error {
	if err := fa.file.Close(); err != nil {
		return err
	}

	for i := fa.maxBackups - 1; i > 0; i-- {
		oldPath := fmt.Sprintf("%s.%d", fa.filePath, i)
		newPath := fmt.Sprintf("%s.%d", fa.filePath, i+1)
		if _, err := os.Stat(oldPath); err == nil {
			if i+1 > fa.maxBackups {
				os.Remove(newPath)
			}
			os.Rename(oldPath, newPath)
		}
	}

	if err := os.Rename(fa.filePath, fa.filePath+".1"); err != nil {
		return err
	}

	file, err := os.OpenFile(fa.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	fa.file = file
	fa.currentSize = 0
	return nil
}

// Flush syncs the file to disk.
func (fa *FileAppender) Flush() error {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	if fa.file != nil {
		return fa.file.Sync()
	}
	return nil
}

// Close closes the audit file.
func (fa *FileAppender) Close() error {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	if fa.file != nil {
		return fa.file.Close()
	}
	return nil
}

// CurrentSize returns the bytes written to the active file.
func (fa *FileAppender) CurrentSize() int64 {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	return fa.currentSize
}

// ConsoleAppender prints entries to stderr. Stdout carries the tap's
// message stream, so human-readable output must stay off it.
type ConsoleAppender struct {
	level Level
}

// NewConsoleAppender creates a console appender.
func NewConsoleAppender(level Level) *ConsoleAppender {
	return &ConsoleAppender{level: level}
}

// Append prints one entry.
func (ca *ConsoleAppender) Append(_ context.Context, entry *Entry) error {
	fmt.Fprintln(os.Stderr, entry.FilterByLevel(ca.level).String())
	return nil
}

// Close is a no-op.
func (ca *ConsoleAppender) Close() error {
	return nil
}

// NullAppender discards entries.
type NullAppender struct{}

// NewNullAppender creates a discard appender.
func NewNullAppender() *NullAppender {
	return &NullAppender{}
}

func (na *NullAppender) Append(_ context.Context, _ *Entry) error { return nil }
func (na *NullAppender) Close() error                             { return nil }
