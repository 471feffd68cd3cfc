package catalog

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/queuebridge/tap-aptify/pkg/jsonschema"
)

func personEntry() *Entry {
	return &Entry{
		TapStreamID: "dbo-ssPerson",
		Stream:      "ssPerson",
		TableName:   "ssPerson",
		SchemaName:  "dbo",
		Schema: StreamSchema{
			Type: "object",
			Properties: map[string]jsonschema.Type{
				"Id":          {Type: []string{"integer"}},
				"Name":        {Type: []string{"string", "null"}},
				"Email":       {Type: []string{"string", "null"}},
				"DateUpdated": {Type: []string{"string"}, Format: jsonschema.FormatDateTime},
			},
		},
		KeyProperties:  []string{"Id"},
		ReplicationKey: "DateUpdated",
		ColumnOrder:    []string{"Id", "Name", "Email", "DateUpdated"},
		Metadata: []Metadata{
			{Breadcrumb: []string{}, Metadata: map[string]any{"selected": true}},
			{Breadcrumb: []string{"properties", "Email"}, Metadata: map[string]any{"selected": false}},
		},
	}
}

func TestSelectedColumnsExcludesDeselected(t *testing.T) {
	got := personEntry().SelectedColumns()
	want := []string{"Id", "Name", "DateUpdated"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SelectedColumns() = %v, want %v", got, want)
	}
}

func TestSelectedColumnsKeepsKeys(t *testing.T) {
	e := personEntry()
	// Even deselected, key properties and the replication key stay.
	e.Metadata = append(e.Metadata,
		Metadata{Breadcrumb: []string{"properties", "Id"}, Metadata: map[string]any{"selected": false}},
		Metadata{Breadcrumb: []string{"properties", "DateUpdated"}, Metadata: map[string]any{"selected": false}},
	)

	got := e.SelectedColumns()
	has := func(name string) bool {
		for _, c := range got {
			if c == name {
				return true
			}
		}
		return false
	}
	if !has("Id") || !has("DateUpdated") {
		t.Errorf("SelectedColumns() = %v, must keep key and replication key", got)
	}
}

func TestSelectedDefaultsTrue(t *testing.T) {
	e := &Entry{TapStreamID: "dbo-noMeta"}
	if !e.Selected() {
		t.Error("stream without metadata must default to selected")
	}
}

func TestCatalogRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	cat := &Catalog{Streams: []*Entry{personEntry()}}

	if err := Save(path, cat); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	e := loaded.GetStream("dbo-ssPerson")
	if e == nil {
		t.Fatal("GetStream() = nil after round trip")
	}
	if e.ReplicationKey != "DateUpdated" {
		t.Errorf("ReplicationKey = %q", e.ReplicationKey)
	}
	if !reflect.DeepEqual(e.ColumnOrder, []string{"Id", "Name", "Email", "DateUpdated"}) {
		t.Errorf("ColumnOrder lost in round trip: %v", e.ColumnOrder)
	}
	if p, ok := e.Property("DateUpdated"); !ok || p.Format != jsonschema.FormatDateTime {
		t.Errorf("Property(DateUpdated) = %+v, %v", p, ok)
	}
}
