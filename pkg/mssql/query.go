package mssql

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Errors surfaced by query construction. They are configuration errors: the
// runner reports them to the operator and aborts the affected stream.
var (
	// ErrUnsupportedPartitioning is returned when a partition context is
	// supplied; partitioned reads are not supported.
	ErrUnsupportedPartitioning = errors.New("stream does not support partitioning")

	// ErrMissingReplicationKey is returned when the configured replication
	// key is not among the table's columns.
	ErrMissingReplicationKey = errors.New("replication key not found in table")

	// ErrInvalidFullyQualifiedName is returned when no table name is
	// available to build a qualified identifier.
	ErrInvalidFullyQualifiedName = errors.New("could not generate fully qualified name")
)

// FullyQualifiedName builds the bracket-quoted [schema].[table] identifier.
// The schema defaults to dbo.
func FullyQualifiedName(schemaName, tableName string) (string, error) {
	if tableName == "" {
		return "", fmt.Errorf("%w: missing table name", ErrInvalidFullyQualifiedName)
	}
	if schemaName == "" {
		schemaName = "dbo"
	}
	return fmt.Sprintf("[%s].[%s]", schemaName, tableName), nil
}

// QuoteIdentifier bracket-quotes a SQL Server identifier.
func QuoteIdentifier(identifier string) string {
	return "[" + identifier + "]"
}

// ReadQuery is a built SQL statement with its bind arguments.
type ReadQuery struct {
	SQL  string
	Args []any
}

// QuerySpec describes one bounded, ordered read over a single table.
type QuerySpec struct {
	SchemaName string
	TableName  string
	// Columns is the selected subset of the table's columns, in order.
	Columns []string
	// ReplicationKey orders the read and anchors the bookmark filter.
	// Empty means a full-table read.
	ReplicationKey string
	// StartValue filters rows where the replication key is >= this value.
	// nil means no bookmark: read from the beginning.
	StartValue any
	// AbortAt caps the read; the query fetches AbortAt+1 rows so the
	// caller can detect that more data exists beyond the cap without a
	// separate count query. 0 means unlimited.
	AbortAt int
}

// BuildIncrementalQuery constructs the stream read query. The bookmark in
// spec.StartValue is only read, never changed.
//
// A replication key guarantees ascending order, so bookmarks advance
// monotonically and a resumed run never misses rows inserted at or after
// the bookmark.
func BuildIncrementalQuery(spec QuerySpec, partition map[string]any) (ReadQuery, error) {
	if len(partition) > 0 {
		return ReadQuery{}, fmt.Errorf("%w: %s", ErrUnsupportedPartitioning, spec.TableName)
	}
	if len(spec.Columns) == 0 {
		return ReadQuery{}, fmt.Errorf("no columns selected for table %s", spec.TableName)
	}

	table, err := FullyQualifiedName(spec.SchemaName, spec.TableName)
	if err != nil {
		return ReadQuery{}, err
	}

	if spec.ReplicationKey != "" && !containsColumn(spec.Columns, spec.ReplicationKey) {
		return ReadQuery{}, fmt.Errorf("%w: %q in %s", ErrMissingReplicationKey, spec.ReplicationKey, spec.TableName)
	}

	columns := make([]string, len(spec.Columns))
	for i, col := range spec.Columns {
		columns[i] = QuoteIdentifier(col)
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	if spec.AbortAt > 0 {
		fmt.Fprintf(&b, "TOP (%d) ", spec.AbortAt+1)
	}
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(table)

	var args []any
	if spec.ReplicationKey != "" {
		if spec.StartValue != nil {
			fmt.Fprintf(&b, " WHERE %s >= @start", QuoteIdentifier(spec.ReplicationKey))
			args = append(args, sql.Named("start", spec.StartValue))
		}
		fmt.Fprintf(&b, " ORDER BY %s ASC", QuoteIdentifier(spec.ReplicationKey))
	}

	return ReadQuery{SQL: b.String(), Args: args}, nil
}

func containsColumn(columns []string, name string) bool {
	for _, col := range columns {
		if col == name {
			return true
		}
	}
	return false
}
