// Package state persists per-stream replication bookmarks between runs.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// StreamState is the sync state of one stream.
type StreamState struct {
	Stream              string    `json:"stream"`
	ReplicationKeyValue string    `json:"replication_key_value,omitempty"`
	LastSyncedAt        time.Time `json:"last_synced_at"`
	RecordsSynced       int64     `json:"records_synced"`
	LastError           string    `json:"last_error,omitempty"`
}

// Manager holds bookmarks for all streams of a run and persists them to a
// JSON state file. The core stream read only ever reads a bookmark; the
// runner advances it after the read completes.
type Manager struct {
	mu       sync.RWMutex
	states   map[string]*StreamState // tap_stream_id -> state
	path     string
	autoSave bool
}

// NewManager creates a manager backed by the given state file, loading any
// existing state.
func NewManager(path string, autoSave bool) (*Manager, error) {
	m := &Manager{
		states:   make(map[string]*StreamState),
		path:     path,
		autoSave: autoSave,
	}

	if _, err := os.Stat(path); err == nil {
		if err := m.Load(); err != nil {
			return nil, fmt.Errorf("failed to load state: %w", err)
		}
	}
	return m, nil
}

// Bookmark returns the stored replication-key value for a stream, or the
// empty string when the stream has never synced.
func (m *Manager) Bookmark(stream string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s, ok := m.states[stream]; ok {
		return s.ReplicationKeyValue
	}
	return ""
}

// Get returns a copy of a stream's state.
func (m *Manager) Get(stream string) StreamState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s, ok := m.states[stream]; ok {
		return *s
	}
	return StreamState{Stream: stream}
}

// Update advances a stream's bookmark after a successful sync.
func (m *Manager) Update(stream, bookmark string, records int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[stream] = &StreamState{
		Stream:              stream,
		ReplicationKeyValue: bookmark,
		LastSyncedAt:        time.Now().UTC(),
		RecordsSynced:       records,
	}

	if m.autoSave {
		return m.saveLocked()
	}
	return nil
}

// UpdateError records a failed sync without touching the bookmark.
func (m *Manager) UpdateError(stream string, syncErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.states[stream]
	if !ok {
		s = &StreamState{Stream: stream}
		m.states[stream] = s
	}
	s.LastSyncedAt = time.Now().UTC()
	s.LastError = syncErr.Error()

	if m.autoSave {
		return m.saveLocked()
	}
	return nil
}

// Reset drops the state of one stream, forcing a full re-sync.
func (m *Manager) Reset(stream string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, stream)
	if m.autoSave {
		return m.saveLocked()
	}
	return nil
}

// Snapshot returns the bookmark map for a STATE message.
func (m *Manager) Snapshot() map[string]StreamState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]StreamState, len(m.states))
	for k, v := range m.states {
		out[k] = *v
	}
	return out
}

// Save persists the state file.
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked()
}

func (m *Manager) saveLocked() error {
	data, err := json.MarshalIndent(m.states, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// Load reads the state file.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("failed to read state file: %w", err)
	}

	states := make(map[string]*StreamState)
	if err := json.Unmarshal(data, &states); err != nil {
		return fmt.Errorf("failed to unmarshal state: %w", err)
	}
	m.states = states
	return nil
}

// Path returns the state file location.
func (m *Manager) Path() string {
	return m.path
}
