package datasource

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"
)

// MSSQLExecutor runs reporting queries against a SQL Server warehouse.
// `?` placeholders become @pN named parameters and a trailing LIMIT becomes
// a TOP clause, so callers write one dialect.
type MSSQLExecutor struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewMSSQLExecutor(connString string, logger *zap.Logger) (*MSSQLExecutor, error) {
	db, err := sql.Open("sqlserver", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse connection: %w", err)
	}
	return &MSSQLExecutor{db: db, logger: logger}, nil
}

func (e *MSSQLExecutor) Query(ctx context.Context, sqlText string, args ...any) ([]map[string]any, error) {
	query := rewritePlaceholders(sqlText, func(n int) string {
		return fmt.Sprintf("@p%d", n)
	})
	query = rewriteLimitToTop(query)

	named := make([]any, len(args))
	for i, arg := range args {
		named[i] = sql.Named(fmt.Sprintf("p%d", i+1), arg)
	}

	rows, err := e.db.QueryContext(ctx, query, named...)
	if err != nil {
		return nil, fmt.Errorf("warehouse query failed: %w", err)
	}
	defer rows.Close()

	columnNames, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	out := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columnNames))
		valuePtrs := make([]any, len(columnNames))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		rowMap := make(map[string]any, len(columnNames))
		for i, col := range columnNames {
			val := values[i]
			if b, ok := val.([]byte); ok && isStringType(columnTypes[i].DatabaseTypeName()) {
				val = string(b)
			}
			rowMap[col] = val
		}
		out = append(out, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// isStringType reports whether a SQL Server type should surface as a string
// instead of raw bytes.
func isStringType(dbType string) bool {
	switch dbType {
	case "CHAR", "VARCHAR", "NCHAR", "NVARCHAR", "TEXT", "NTEXT":
		return true
	}
	return false
}

func (e *MSSQLExecutor) Ping(ctx context.Context) error {
	return e.db.PingContext(ctx)
}

func (e *MSSQLExecutor) Close() error {
	return e.db.Close()
}

var _ QueryExecutor = (*MSSQLExecutor)(nil)
