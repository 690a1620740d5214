// Package datasource provides the reporting warehouse adapters. Queries are
// written once with `?` placeholders; each adapter rewrites them into its
// dialect before execution.
package datasource

import "context"

// QueryExecutor executes read-only SQL against the reporting warehouse.
// Each implementation owns its connection pool and must be closed when done.
type QueryExecutor interface {
	// Query runs a SELECT with `?` placeholders and returns rows as maps
	// keyed by column name.
	Query(ctx context.Context, sqlText string, args ...any) ([]map[string]any, error)

	// Ping verifies the warehouse is reachable.
	Ping(ctx context.Context) error

	// Close releases the connection pool.
	Close() error
}
