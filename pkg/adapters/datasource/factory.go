package datasource

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/casepulse-ai/casepulse-engine/pkg/apperrors"
	"github.com/casepulse-ai/casepulse-engine/pkg/config"
)

// New builds the warehouse executor selected by the reporting configuration.
func New(ctx context.Context, cfg config.ReportingConfig, logger *zap.Logger) (QueryExecutor, error) {
	switch cfg.Type {
	case "postgres", "":
		return NewPostgresExecutor(ctx, cfg.ConnectionString(), logger)
	case "mssql":
		return NewMSSQLExecutor(cfg.ConnectionString(), logger)
	default:
		return nil, fmt.Errorf("%w: unsupported type %q", apperrors.ErrNoDatasource, cfg.Type)
	}
}
