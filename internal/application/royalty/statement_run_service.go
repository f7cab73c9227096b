package royalty

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/catalog"
	"github.com/inkwell/backend/internal/domain/royalty"
	"github.com/inkwell/backend/internal/domain/sales"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/inkwell/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// runIdempotencyTTL bounds how long a completed author-period run blocks a
// re-run through the idempotency store. Statement uniqueness is ultimately
// enforced by the repository; the store just short-circuits duplicate work.
const runIdempotencyTTL = 24 * time.Hour

// StatementRunService orchestrates royalty statement generation: it gathers
// each contract's period aggregates, runs the calculation pipeline, and
// persists the resulting statements with their domain events.
type StatementRunService struct {
	statementRepo royalty.StatementRepository
	contractRepo  catalog.ContractRepository
	titleRepo     catalog.TitleRepository
	aggregator    sales.PeriodAggregator
	lifetime      sales.LifetimeAggregator
	idempotency   shared.IdempotencyStore
	logger        *zap.Logger
}

// NewStatementRunService creates a new StatementRunService
func NewStatementRunService(
	statementRepo royalty.StatementRepository,
	contractRepo catalog.ContractRepository,
	titleRepo catalog.TitleRepository,
	aggregator sales.PeriodAggregator,
	lifetime sales.LifetimeAggregator,
	idempotency shared.IdempotencyStore,
	logger *zap.Logger,
) *StatementRunService {
	return &StatementRunService{
		statementRepo: statementRepo,
		contractRepo:  contractRepo,
		titleRepo:     titleRepo,
		aggregator:    aggregator,
		lifetime:      lifetime,
		idempotency:   idempotency,
		logger:        logger,
	}
}

// RunRequest identifies one statement run: every active contract of the
// tenant is calculated for the period.
type RunRequest struct {
	TenantID uuid.UUID
	Period   royalty.Period
}

// RunResult summarizes a statement run. Failures are isolated per
// author-period: one broken contract never aborts the batch.
type RunResult struct {
	Generated []uuid.UUID  `json:"generated"`
	Skipped   int          `json:"skipped"`
	Failures  []RunFailure `json:"failures,omitempty"`
}

// RunFailure records one contract that could not be calculated
type RunFailure struct {
	ContractID uuid.UUID `json:"contract_id"`
	AuthorID   uuid.UUID `json:"author_id"`
	Error      string    `json:"error"`
}

// Run generates statements for every active contract in the tenant for the
// period. Already-generated author-periods are skipped, so re-running a
// period is safe.
func (s *StatementRunService) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "statement_run", "run")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, req.TenantID.String(),
		telemetry.SpanAttrPeriod, req.Period.Label(),
	)

	if req.TenantID == uuid.Nil {
		err := shared.NewValidationError("INVALID_TENANT", "Tenant ID cannot be empty")
		telemetry.RecordError(span, err)
		return nil, err
	}
	if req.Period.Start.IsZero() || !req.Period.Start.Before(req.Period.End) {
		err := shared.NewValidationError("INVALID_PERIOD", "Statement period must be a non-empty interval")
		telemetry.RecordError(span, err)
		return nil, err
	}

	contracts, err := s.contractRepo.FindAllForTenant(ctx, req.TenantID, shared.Filter{})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}

	result := &RunResult{}
	for i := range contracts {
		contract := &contracts[i]
		if contract.Status != catalog.ContractStatusActive {
			continue
		}

		statement, err := s.generateForContract(ctx, contract, req.Period)
		if err != nil {
			s.logger.Error("Statement generation failed",
				zap.String("tenant_id", req.TenantID.String()),
				zap.String("contract_id", contract.ID.String()),
				zap.String("author_id", contract.AuthorID.String()),
				zap.String("period", req.Period.Label()),
				zap.Error(err),
			)
			result.Failures = append(result.Failures, RunFailure{
				ContractID: contract.ID,
				AuthorID:   contract.AuthorID,
				Error:      err.Error(),
			})
			continue
		}
		if statement == nil {
			result.Skipped++
			continue
		}
		result.Generated = append(result.Generated, statement.ID)
	}

	s.logger.Info("Statement run finished",
		zap.String("tenant_id", req.TenantID.String()),
		zap.String("period", req.Period.Label()),
		zap.Int("generated", len(result.Generated)),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", len(result.Failures)),
	)

	return result, nil
}

// generateForContract calculates and persists one author-period statement.
// Returns (nil, nil) when the author-period is already covered.
func (s *StatementRunService) generateForContract(ctx context.Context, contract *catalog.Contract, period royalty.Period) (*royalty.Statement, error) {
	runKey := fmt.Sprintf("statement-run:%s:%s:%s", contract.TenantID, contract.ID, period.Label())
	done, err := s.idempotency.IsProcessed(ctx, runKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check run idempotency: %w", err)
	}
	if done {
		return nil, nil
	}

	existing, err := s.statementRepo.FindByAuthorAndPeriod(ctx, contract.TenantID, contract.AuthorID, contract.TitleID, period.Start)
	if err != nil && err != shared.ErrNotFound {
		return nil, fmt.Errorf("failed to check existing statement: %w", err)
	}
	if existing != nil {
		return nil, nil
	}

	title, err := s.titleRepo.FindByIDForTenant(ctx, contract.TenantID, contract.TitleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load title: %w", err)
	}

	input, err := s.buildInput(ctx, contract, title, period)
	if err != nil {
		return nil, err
	}

	calculations, err := royalty.AssembleCalculations(*input)
	if err != nil {
		return nil, err
	}

	statement, err := royalty.NewStatement(
		contract.TenantID,
		statementNumber(contract, period),
		contract.AuthorID,
		contract.TitleID,
		contract.ID,
		period,
		calculations,
	)
	if err != nil {
		return nil, err
	}

	if err := s.statementRepo.Save(ctx, statement); err != nil {
		return nil, fmt.Errorf("failed to save statement: %w", err)
	}

	// Carry the recoupment forward so the next period starts from the new
	// balance.
	if calculations.Recoupment.ThisPeriodRecoupment.IsPositive() {
		if err := contract.RecordRecoupment(calculations.Recoupment.ThisPeriodRecoupment); err != nil {
			return nil, err
		}
		if err := s.contractRepo.Save(ctx, contract); err != nil {
			return nil, fmt.Errorf("failed to update contract recoupment: %w", err)
		}
	}

	// The key is claimed only once the statement is durable, so a contract
	// that failed stays re-runnable. Concurrent duplicate saves are caught by
	// the repository's (tenant, statement number) uniqueness.
	if _, err := s.idempotency.MarkProcessed(ctx, runKey, runIdempotencyTTL); err != nil {
		s.logger.Warn("Failed to record run idempotency key",
			zap.String("key", runKey),
			zap.Error(err),
		)
	}

	return statement, nil
}

// buildInput assembles the pure calculation input from the period's ledger
// aggregates and the contract's rate table.
func (s *StatementRunService) buildInput(ctx context.Context, contract *catalog.Contract, title *catalog.Title, period royalty.Period) (*royalty.StatementInput, error) {
	soldFormats, err := s.aggregator.SoldFormats(ctx, contract.TenantID, contract.TitleID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to list sold formats: %w", err)
	}
	if len(soldFormats) == 0 {
		return nil, shared.NewCalculationError("MISSING_SALES_DATA", fmt.Sprintf("Title %s has no ledger activity in %s", contract.TitleID, period.Label()))
	}

	input := &royalty.StatementInput{
		Period:             period,
		OriginalAdvance:    contract.OriginalAdvance,
		PreviouslyRecouped: contract.RecoupedToDate,
	}

	for _, format := range soldFormats {
		spec, err := contract.RateSpecFor(format)
		if err != nil {
			return nil, err
		}
		unitPrice, err := title.ListPriceFor(format)
		if err != nil {
			return nil, err
		}

		periodSales, err := s.aggregator.PeriodSales(ctx, contract.TenantID, contract.TitleID, format, period)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate sales: %w", err)
		}
		periodReturns, err := s.aggregator.PeriodReturns(ctx, contract.TenantID, contract.TitleID, format, period)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate returns: %w", err)
		}

		formatInput := royalty.FormatInput{
			Format:    format,
			UnitPrice: unitPrice,
			Spec:      spec,
			Sales:     periodSales,
			Returns:   periodReturns,
		}

		// Lifetime-escalating tables continue the title's cumulative sales.
		if spec.Basis == royalty.RateBasisLifetimeTiered {
			lifetime, err := s.lifetime.LifetimeBefore(ctx, contract.TenantID, contract.TitleID, format, period.Start)
			if err != nil {
				return nil, fmt.Errorf("failed to aggregate lifetime sales: %w", err)
			}
			formatInput.LifetimeUnitsBefore = lifetime.Units
		}

		input.Formats = append(input.Formats, formatInput)
	}

	if title.IsCoAuthored() {
		index := title.Ownerships.IndexOf(contract.AuthorID)
		if index < 0 {
			return nil, shared.NewDataIntegrityError("AUTHOR_NOT_OWNER", fmt.Sprintf("Contract author %s holds no stake in title %s", contract.AuthorID, contract.TitleID))
		}
		input.CoAuthorPercentages = title.Ownerships.Percentages()
		input.AuthorSplitIndex = index
	}

	return input, nil
}

// Correct supersedes a statement and regenerates it from the current ledger.
// The original stays in place for audit; the replacement carries a fresh
// statement number.
func (s *StatementRunService) Correct(ctx context.Context, tenantID, statementID uuid.UUID) (*royalty.Statement, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "statement_run", "correct")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, tenantID.String())

	original, err := s.statementRepo.FindByIDForTenant(ctx, tenantID, statementID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if original.Status == royalty.StatementStatusSuperseded {
		err := shared.NewDomainError("INVALID_STATE", "Statement is already superseded")
		telemetry.RecordError(span, err)
		return nil, err
	}

	contract, err := s.contractRepo.FindByIDForTenant(ctx, tenantID, original.ContractID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}
	title, err := s.titleRepo.FindByIDForTenant(ctx, tenantID, original.TitleID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load title: %w", err)
	}

	period := royalty.Period{Start: original.PeriodStart, End: original.PeriodEnd}
	input, err := s.buildInput(ctx, contract, title, period)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	// The original's recoupment is unwound from the inputs so the
	// replacement recalculates against the pre-run balance.
	input.PreviouslyRecouped = contract.RecoupedToDate.Sub(original.Calculations.Recoupment.ThisPeriodRecoupment)

	calculations, err := royalty.AssembleCalculations(*input)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	replacement, err := royalty.NewStatement(
		tenantID,
		original.StatementNumber+"-R",
		original.AuthorID,
		original.TitleID,
		original.ContractID,
		period,
		calculations,
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := original.Supersede(replacement.ID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.statementRepo.Save(ctx, replacement); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save replacement: %w", err)
	}
	if err := s.statementRepo.Save(ctx, original); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save superseded statement: %w", err)
	}

	// A correction recouping more than the original tops up the contract's
	// running balance. The recorded figure never moves backward, so a
	// smaller recoupment leaves the balance to a manual ledger adjustment.
	delta := calculations.Recoupment.ThisPeriodRecoupment.Sub(original.Calculations.Recoupment.ThisPeriodRecoupment)
	if delta.IsPositive() {
		if err := contract.RecordRecoupment(delta); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if err := s.contractRepo.Save(ctx, contract); err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to update contract recoupment: %w", err)
		}
	} else if delta.IsNegative() {
		s.logger.Warn("Correction recouped less than the original statement; contract balance needs manual adjustment",
			zap.String("contract_id", contract.ID.String()),
			zap.String("delta", delta.String()),
		)
	}

	s.logger.Info("Statement corrected",
		zap.String("tenant_id", tenantID.String()),
		zap.String("original", original.StatementNumber),
		zap.String("replacement", replacement.StatementNumber),
	)

	return replacement, nil
}

// statementNumber derives a human-readable statement number. Uniqueness is
// enforced by the repository index, not the format.
func statementNumber(contract *catalog.Contract, period royalty.Period) string {
	return fmt.Sprintf("STMT-%s-%s", period.Start.UTC().Format("200601"), contract.ContractNumber)
}
