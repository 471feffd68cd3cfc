// Package catalog holds the declared set of streams for a run: each
// stream's JSON schema, key properties, replication settings and column
// selection metadata.
package catalog

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/queuebridge/tap-aptify/pkg/jsonschema"
)

// Replication methods.
const (
	ReplicationFullTable   = "FULL_TABLE"
	ReplicationIncremental = "INCREMENTAL"
)

// Catalog is the discovered or operator-supplied set of streams.
type Catalog struct {
	Streams []*Entry `json:"streams"`
}

// StreamSchema is the JSON schema of one stream's records.
type StreamSchema struct {
	Type       string                     `json:"type"`
	Properties map[string]jsonschema.Type `json:"properties"`
}

// Metadata is one Singer metadata entry keyed by breadcrumb. An empty
// breadcrumb addresses the stream itself; ["properties", <name>] addresses
// a single column.
type Metadata struct {
	Breadcrumb []string       `json:"breadcrumb"`
	Metadata   map[string]any `json:"metadata"`
}

// Entry declares one stream.
type Entry struct {
	TapStreamID       string       `json:"tap_stream_id"`
	Stream            string       `json:"stream"`
	TableName         string       `json:"table_name"`
	SchemaName        string       `json:"schema_name,omitempty"`
	IsView            bool         `json:"is_view,omitempty"`
	Schema            StreamSchema `json:"schema"`
	KeyProperties     []string     `json:"key_properties,omitempty"`
	ReplicationKey    string       `json:"replication_key,omitempty"`
	ReplicationMethod string       `json:"replication_method,omitempty"`
	Metadata          []Metadata   `json:"metadata,omitempty"`

	// ColumnOrder preserves the table's ordinal column order; JSON object
	// properties alone would not.
	ColumnOrder []string `json:"column_order,omitempty"`
}

// Load reads a catalog JSON file.
func Load(filename string) (*Catalog, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	return &cat, nil
}

// Save writes the catalog as indented JSON.
func Save(filename string, cat *Catalog) error {
	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	return nil
}

// GetStream returns the entry with the given tap_stream_id.
func (c *Catalog) GetStream(tapStreamID string) *Entry {
	for _, e := range c.Streams {
		if e.TapStreamID == tapStreamID {
			return e
		}
	}
	return nil
}

// streamMetadata returns the stream-level metadata map, if any.
func (e *Entry) streamMetadata() map[string]any {
	for _, m := range e.Metadata {
		if len(m.Breadcrumb) == 0 {
			return m.Metadata
		}
	}
	return nil
}

// columnMetadata returns the metadata map for one column, if any.
func (e *Entry) columnMetadata(column string) map[string]any {
	for _, m := range e.Metadata {
		if len(m.Breadcrumb) == 2 && m.Breadcrumb[0] == "properties" && m.Breadcrumb[1] == column {
			return m.Metadata
		}
	}
	return nil
}

// Selected reports whether the stream is selected for this run. A stream
// with no selection metadata is selected by default.
func (e *Entry) Selected() bool {
	md := e.streamMetadata()
	if md == nil {
		return true
	}
	sel, ok := md["selected"].(bool)
	if !ok {
		return true
	}
	return sel
}

// SelectedColumns resolves the selected column names in table column order.
// Columns without metadata are included; key properties and the replication
// key are always included.
func (e *Entry) SelectedColumns() []string {
	order := e.ColumnOrder
	if len(order) == 0 {
		for name := range e.Schema.Properties {
			order = append(order, name)
		}
	}

	required := make(map[string]bool, len(e.KeyProperties)+1)
	for _, k := range e.KeyProperties {
		required[k] = true
	}
	if e.ReplicationKey != "" {
		required[e.ReplicationKey] = true
	}

	var selected []string
	for _, name := range order {
		if required[name] {
			selected = append(selected, name)
			continue
		}
		md := e.columnMetadata(name)
		if md != nil {
			if sel, ok := md["selected"].(bool); ok && !sel {
				continue
			}
		}
		selected = append(selected, name)
	}
	return selected
}

// Property returns the schema type for a column.
func (e *Entry) Property(column string) (jsonschema.Type, bool) {
	t, ok := e.Schema.Properties[column]
	return t, ok
}
