package mssql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/queuebridge/tap-aptify/pkg/catalog"
	"github.com/queuebridge/tap-aptify/pkg/jsonschema"
)

// Column is one column's native metadata as read from INFORMATION_SCHEMA.
type Column struct {
	Name         string
	DataType     string
	Length       int // character/byte length; -1 = MAX
	Precision    int
	Scale        int
	Nullable     bool
	IsPrimaryKey bool
}

// Descriptor returns the canonical type descriptor for the column.
func (c Column) Descriptor() jsonschema.Descriptor {
	return jsonschema.NewDescriptor(c.DataType, c.Length, c.Precision, c.Scale)
}

// TableRef identifies one table or view in the database.
type TableRef struct {
	SchemaName string
	Name       string
	IsView     bool
}

// ListTables returns all base tables and views in the connector's schema.
func (c *Connector) ListTables(ctx context.Context) ([]TableRef, error) {
	query := `
		SELECT TABLE_SCHEMA, TABLE_NAME, 0 AS IS_VIEW
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = @schema
		  AND TABLE_TYPE = 'BASE TABLE'
		UNION ALL
		SELECT TABLE_SCHEMA, TABLE_NAME, 1 AS IS_VIEW
		FROM INFORMATION_SCHEMA.VIEWS
		WHERE TABLE_SCHEMA = @schema
		ORDER BY TABLE_NAME
	`

	rows, err := c.db.QueryContext(ctx, query, sql.Named("schema", c.schema))
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []TableRef
	for rows.Next() {
		var ref TableRef
		var isView int
		if err := rows.Scan(&ref.SchemaName, &ref.Name, &isView); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		ref.IsView = isView == 1
		tables = append(tables, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}

// GetTableColumns reads column metadata for one table, in ordinal order.
func (c *Connector) GetTableColumns(ctx context.Context, schemaName, tableName string) ([]Column, error) {
	if schemaName == "" {
		schemaName = c.schema
	}

	query := `
		SELECT
			c.COLUMN_NAME,
			c.DATA_TYPE,
			c.CHARACTER_MAXIMUM_LENGTH,
			c.NUMERIC_PRECISION,
			c.NUMERIC_SCALE,
			c.IS_NULLABLE,
			CASE
				WHEN pk.COLUMN_NAME IS NOT NULL THEN 1
				ELSE 0
			END AS IS_PRIMARY_KEY
		FROM INFORMATION_SCHEMA.COLUMNS c
		LEFT JOIN (
			SELECT ku.TABLE_SCHEMA, ku.TABLE_NAME, ku.COLUMN_NAME
			FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
			INNER JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE ku
				ON tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
				AND tc.CONSTRAINT_NAME = ku.CONSTRAINT_NAME
				AND tc.TABLE_SCHEMA = ku.TABLE_SCHEMA
				AND tc.TABLE_NAME = ku.TABLE_NAME
		) pk ON c.TABLE_SCHEMA = pk.TABLE_SCHEMA
			AND c.TABLE_NAME = pk.TABLE_NAME
			AND c.COLUMN_NAME = pk.COLUMN_NAME
		WHERE c.TABLE_SCHEMA = @schema AND c.TABLE_NAME = @table
		ORDER BY c.ORDINAL_POSITION
	`

	rows, err := c.db.QueryContext(ctx, query,
		sql.Named("schema", schemaName), sql.Named("table", tableName))
	if err != nil {
		return nil, fmt.Errorf("failed to query table schema: %w", err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var (
			col          Column
			length       sql.NullInt64
			precision    sql.NullInt64
			scale        sql.NullInt64
			isNullable   string
			isPrimaryKey int
		)
		if err := rows.Scan(&col.Name, &col.DataType, &length, &precision, &scale, &isNullable, &isPrimaryKey); err != nil {
			return nil, fmt.Errorf("failed to scan column info: %w", err)
		}
		if length.Valid {
			col.Length = int(length.Int64)
		}
		if precision.Valid {
			col.Precision = int(precision.Int64)
		}
		if scale.Valid {
			col.Scale = int(scale.Int64)
		}
		col.Nullable = isNullable == "YES"
		col.IsPrimaryKey = isPrimaryKey == 1
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s.%s not found or has no columns", schemaName, tableName)
	}
	return columns, nil
}

// Discover introspects every table and view in the schema and builds the
// catalog, mapping column types under the given mode.
func (c *Connector) Discover(ctx context.Context, mode jsonschema.MapMode) (*catalog.Catalog, error) {
	tables, err := c.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	cat := &catalog.Catalog{}
	for _, ref := range tables {
		entry, err := c.discoverEntry(ctx, ref, mode)
		if err != nil {
			return nil, fmt.Errorf("failed to discover %s.%s: %w", ref.SchemaName, ref.Name, err)
		}
		cat.Streams = append(cat.Streams, entry)
	}
	return cat, nil
}

func (c *Connector) discoverEntry(ctx context.Context, ref TableRef, mode jsonschema.MapMode) (*catalog.Entry, error) {
	columns, err := c.GetTableColumns(ctx, ref.SchemaName, ref.Name)
	if err != nil {
		return nil, err
	}

	entry := &catalog.Entry{
		TapStreamID:       ref.SchemaName + "-" + ref.Name,
		Stream:            ref.Name,
		TableName:         ref.Name,
		SchemaName:        ref.SchemaName,
		IsView:            ref.IsView,
		ReplicationMethod: catalog.ReplicationFullTable,
		Schema: catalog.StreamSchema{
			Type:       "object",
			Properties: make(map[string]jsonschema.Type, len(columns)),
		},
	}

	for _, col := range columns {
		t, err := jsonschema.Map(col.Descriptor(), mode)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name, err)
		}
		if col.Nullable {
			t = t.Nullable()
		}
		entry.Schema.Properties[col.Name] = t
		entry.ColumnOrder = append(entry.ColumnOrder, col.Name)
		if col.IsPrimaryKey {
			entry.KeyProperties = append(entry.KeyProperties, col.Name)
		}
		entry.Metadata = append(entry.Metadata, catalog.Metadata{
			Breadcrumb: []string{"properties", col.Name},
			Metadata: map[string]any{
				"selected":     true,
				"sql-datatype": col.DataType,
			},
		})
	}

	entry.Metadata = append(entry.Metadata, catalog.Metadata{
		Breadcrumb: []string{},
		Metadata: map[string]any{
			"selected":             true,
			"replication-method":   entry.ReplicationMethod,
			"table-key-properties": entry.KeyProperties,
			"is-view":              ref.IsView,
		},
	})

	return entry, nil
}
