package datasource

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/casepulse-ai/casepulse-engine/pkg/retry"
)

// PostgresExecutor runs reporting queries against a PostgreSQL warehouse.
type PostgresExecutor struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresExecutor connects a pool to the warehouse. Pool creation is
// retried because the warehouse may still be starting when the engine boots.
func NewPostgresExecutor(ctx context.Context, connString string, logger *zap.Logger) (*PostgresExecutor, error) {
	pool, err := retry.DoWithResult(ctx, nil, func() (*pgxpool.Pool, error) {
		return pgxpool.New(ctx, connString)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create warehouse pool: %w", err)
	}
	return &PostgresExecutor{pool: pool, logger: logger}, nil
}

func (e *PostgresExecutor) Query(ctx context.Context, sqlText string, args ...any) ([]map[string]any, error) {
	query := rewritePlaceholders(sqlText, func(n int) string {
		return fmt.Sprintf("$%d", n)
	})

	rows, err := e.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("warehouse query failed: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	out := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		rowMap := make(map[string]any, len(fields))
		for i, fd := range fields {
			rowMap[string(fd.Name)] = values[i]
		}
		out = append(out, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

func (e *PostgresExecutor) Ping(ctx context.Context) error {
	return e.pool.Ping(ctx)
}

func (e *PostgresExecutor) Close() error {
	e.pool.Close()
	return nil
}

var _ QueryExecutor = (*PostgresExecutor)(nil)
