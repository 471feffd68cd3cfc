// Package mssql is the SQL Server collaborator: engine construction,
// catalog introspection and incremental read query construction on top of
// the go-mssqldb driver.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/denisenkom/go-mssqldb" // SQL Server driver

	"github.com/queuebridge/tap-aptify/pkg/config"
)

// Connector owns the database handle for a tap run. Connection pooling and
// retries live in the driver and database/sql; the connector only sizes the
// pool from explicit engine parameters.
type Connector struct {
	db     *sql.DB
	schema string
}

// Open constructs the engine from config and verifies connectivity.
func Open(ctx context.Context, cfg *config.Config) (*Connector, error) {
	db, err := sql.Open("sqlserver", cfg.BuildDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.Engine.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Engine.MaxOpenConns)
	}
	if cfg.Engine.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.Engine.MaxIdleConns)
	}
	if cfg.Engine.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.Engine.ConnMaxLifetime) * time.Second)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Connector{db: db, schema: cfg.Schema}, nil
}

// Ping tests the database connection.
func (c *Connector) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database handle.
func (c *Connector) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Query runs a built read query and returns the forward-only cursor. The
// caller owns the rows and must close them when the stream read ends.
func (c *Connector) Query(ctx context.Context, q ReadQuery) (*sql.Rows, error) {
	rows, err := c.db.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute read query: %w", err)
	}
	return rows, nil
}
