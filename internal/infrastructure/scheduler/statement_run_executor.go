package scheduler

import (
	"context"
	"fmt"

	royaltyapp "github.com/inkwell/backend/internal/application/royalty"
	"go.uber.org/zap"
)

// StatementRunner runs a statement batch for one tenant and period
type StatementRunner interface {
	Run(ctx context.Context, req royaltyapp.RunRequest) (*royaltyapp.RunResult, error)
}

// StatementRunExecutor executes scheduled statement run jobs
type StatementRunExecutor struct {
	runner StatementRunner
	logger *zap.Logger
}

// NewStatementRunExecutor creates a new statement run executor
func NewStatementRunExecutor(runner StatementRunner, logger *zap.Logger) *StatementRunExecutor {
	return &StatementRunExecutor{
		runner: runner,
		logger: logger,
	}
}

// Execute runs the statement batch for the job's tenant and period. Per
// contract failures inside the run are reported by the service and logged
// here; only a run-level error fails the job.
func (e *StatementRunExecutor) Execute(ctx context.Context, job *Job) error {
	result, err := e.runner.Run(ctx, royaltyapp.RunRequest{
		TenantID: job.TenantID,
		Period:   job.Period,
	})
	if err != nil {
		return fmt.Errorf("statement run for tenant %s: %w", job.TenantID, err)
	}

	if len(result.Failures) > 0 {
		for _, failure := range result.Failures {
			e.logger.Warn("Contract failed during statement run",
				zap.String("tenant_id", job.TenantID.String()),
				zap.String("contract_id", failure.ContractID.String()),
				zap.String("author_id", failure.AuthorID.String()),
				zap.String("error", failure.Error),
			)
		}
	}

	e.logger.Info("Statement run finished",
		zap.String("tenant_id", job.TenantID.String()),
		zap.String("period", job.Period.Label()),
		zap.Int("generated", len(result.Generated)),
		zap.Int("skipped", result.Skipped),
		zap.Int("failures", len(result.Failures)),
	)

	return nil
}

// Ensure StatementRunExecutor implements JobExecutor
var _ JobExecutor = (*StatementRunExecutor)(nil)
