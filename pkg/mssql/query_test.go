package mssql

import (
	"database/sql"
	"errors"
	"testing"
	"time"
)

func TestBuildIncrementalQueryFullTable(t *testing.T) {
	q, err := BuildIncrementalQuery(QuerySpec{
		SchemaName: "dbo",
		TableName:  "Orders",
		Columns:    []string{"Id", "Amount"},
	}, nil)
	if err != nil {
		t.Fatalf("BuildIncrementalQuery failed: %v", err)
	}

	expected := "SELECT [Id], [Amount] FROM [dbo].[Orders]"
	if q.SQL != expected {
		t.Errorf("SQL = %q, want %q", q.SQL, expected)
	}
	if len(q.Args) != 0 {
		t.Errorf("Expected no args, got %v", q.Args)
	}
}

func TestBuildIncrementalQueryOrdersWithoutBookmark(t *testing.T) {
	// A replication key with no starting bookmark orders the read but
	// omits the filter clause
	q, err := BuildIncrementalQuery(QuerySpec{
		SchemaName:     "dbo",
		TableName:      "Orders",
		Columns:        []string{"Id", "UpdatedAt"},
		ReplicationKey: "UpdatedAt",
	}, nil)
	if err != nil {
		t.Fatalf("BuildIncrementalQuery failed: %v", err)
	}

	expected := "SELECT [Id], [UpdatedAt] FROM [dbo].[Orders] ORDER BY [UpdatedAt] ASC"
	if q.SQL != expected {
		t.Errorf("SQL = %q, want %q", q.SQL, expected)
	}
	if len(q.Args) != 0 {
		t.Errorf("Expected no args, got %v", q.Args)
	}
}

func TestBuildIncrementalQueryFiltersFromBookmark(t *testing.T) {
	start := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	q, err := BuildIncrementalQuery(QuerySpec{
		SchemaName:     "dbo",
		TableName:      "Orders",
		Columns:        []string{"Id", "UpdatedAt"},
		ReplicationKey: "UpdatedAt",
		StartValue:     start,
	}, nil)
	if err != nil {
		t.Fatalf("BuildIncrementalQuery failed: %v", err)
	}

	expected := "SELECT [Id], [UpdatedAt] FROM [dbo].[Orders] WHERE [UpdatedAt] >= @start ORDER BY [UpdatedAt] ASC"
	if q.SQL != expected {
		t.Errorf("SQL = %q, want %q", q.SQL, expected)
	}

	if len(q.Args) != 1 {
		t.Fatalf("Expected 1 arg, got %d", len(q.Args))
	}
	named, ok := q.Args[0].(sql.NamedArg)
	if !ok || named.Name != "start" {
		t.Fatalf("Expected named arg 'start', got %v", q.Args[0])
	}
	if named.Value != start {
		t.Errorf("Arg value = %v, want %v", named.Value, start)
	}
}

func TestBuildIncrementalQueryCapsAtThresholdPlusOne(t *testing.T) {
	// The extra row lets the runner detect that more data exists beyond
	// the abort threshold without a count query
	q, err := BuildIncrementalQuery(QuerySpec{
		SchemaName:     "dbo",
		TableName:      "Orders",
		Columns:        []string{"Id"},
		ReplicationKey: "Id",
		AbortAt:        100,
	}, nil)
	if err != nil {
		t.Fatalf("BuildIncrementalQuery failed: %v", err)
	}

	expected := "SELECT TOP (101) [Id] FROM [dbo].[Orders] ORDER BY [Id] ASC"
	if q.SQL != expected {
		t.Errorf("SQL = %q, want %q", q.SQL, expected)
	}
}

func TestBuildIncrementalQueryRejectsPartition(t *testing.T) {
	_, err := BuildIncrementalQuery(QuerySpec{
		SchemaName: "dbo",
		TableName:  "Orders",
		Columns:    []string{"Id"},
	}, map[string]any{"slice": 1})
	if !errors.Is(err, ErrUnsupportedPartitioning) {
		t.Errorf("Expected ErrUnsupportedPartitioning, got %v", err)
	}
}

func TestBuildIncrementalQueryRejectsMissingReplicationKey(t *testing.T) {
	_, err := BuildIncrementalQuery(QuerySpec{
		SchemaName:     "dbo",
		TableName:      "Orders",
		Columns:        []string{"Id", "Amount"},
		ReplicationKey: "UpdatedAt",
	}, nil)
	if !errors.Is(err, ErrMissingReplicationKey) {
		t.Errorf("Expected ErrMissingReplicationKey, got %v", err)
	}
}

func TestFullyQualifiedName(t *testing.T) {
	tests := []struct {
		name       string
		schemaName string
		tableName  string
		expected   string
		wantErr    bool
	}{
		{name: "with schema", schemaName: "sales", tableName: "Orders", expected: "[sales].[Orders]"},
		{name: "default schema", schemaName: "", tableName: "Orders", expected: "[dbo].[Orders]"},
		{name: "missing table", schemaName: "dbo", tableName: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FullyQualifiedName(tt.schemaName, tt.tableName)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFullyQualifiedName) {
					t.Errorf("Expected ErrInvalidFullyQualifiedName, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FullyQualifiedName failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("FullyQualifiedName = %q, want %q", got, tt.expected)
			}
		})
	}
}
