package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/casepulse-ai/casepulse-engine/pkg/adapters/datasource"
	"github.com/casepulse-ai/casepulse-engine/pkg/models"
	sqlguard "github.com/casepulse-ai/casepulse-engine/pkg/sql"
)

// KPIService computes the aggregate summary pack that rides alongside every
// answered question: total matching records plus a per-status breakdown for
// the same period and locked filters.
type KPIService struct {
	executor     datasource.QueryExecutor
	guard        *sqlguard.Guard
	table        string
	statusColumn string
	logger       *zap.Logger
}

// NewKPIService creates a KPIService bound to the reporting table's status
// column.
func NewKPIService(executor datasource.QueryExecutor, guard *sqlguard.Guard, table, statusColumn string, logger *zap.Logger) *KPIService {
	return &KPIService{
		executor:     executor,
		guard:        guard,
		table:        table,
		statusColumn: statusColumn,
		logger:       logger.Named("kpi"),
	}
}

// Summarize runs the per-status count query for the period and locks. The
// statement is code-built but still passes through the lock injector and the
// guard, so KPI queries obey exactly the same safety rules as proposed ones.
func (k *KPIService) Summarize(ctx context.Context, periodClause string, filters []sqlguard.LockedFilter) (*models.KPISummary, error) {
	sqlText := fmt.Sprintf("SELECT %s AS status, COUNT(*) AS cnt FROM %s WHERE %s GROUP BY %s",
		k.statusColumn, k.table, periodClause, k.statusColumn)

	sqlText, err := sqlguard.InjectLockedFilters(sqlText, filters)
	if err != nil {
		return nil, fmt.Errorf("kpi filter injection failed: %w", err)
	}
	sqlText, err = k.guard.Validate(sqlText)
	if err != nil {
		return nil, fmt.Errorf("kpi query rejected: %w", err)
	}

	rows, err := k.executor.Query(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("kpi query failed: %w", err)
	}

	summary := &models.KPISummary{ByStatus: make(map[string]int, len(rows))}
	for _, row := range rows {
		count := intValue(row["cnt"])
		summary.Total += count
		if status := stringValue(row["status"]); status != "" {
			summary.ByStatus[status] += count
		}
	}

	k.logger.Debug("kpi summary computed",
		zap.Int("total", summary.Total),
		zap.Int("statuses", len(summary.ByStatus)))

	return summary, nil
}

func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

func intValue(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
