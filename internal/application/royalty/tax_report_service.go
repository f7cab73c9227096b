package royalty

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/royalty"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/inkwell/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// taxReportingThreshold is the minimum yearly net royalty that triggers a
// reporting line (IRS 1099-MISC royalty threshold).
var taxReportingThreshold = decimal.NewFromInt(10)

// TaxReportService produces the yearly author earnings aggregation used for
// tax form preparation.
type TaxReportService struct {
	statementRepo royalty.StatementRepository
	logger        *zap.Logger
}

// NewTaxReportService creates a new TaxReportService
func NewTaxReportService(statementRepo royalty.StatementRepository, logger *zap.Logger) *TaxReportService {
	return &TaxReportService{
		statementRepo: statementRepo,
		logger:        logger,
	}
}

// TaxReportRequest selects the tenant and calendar year to aggregate
type TaxReportRequest struct {
	TenantID uuid.UUID
	Year     int
}

// TaxReportLine is one reportable author in the yearly summary
type TaxReportLine struct {
	AuthorID   uuid.UUID       `json:"author_id"`
	NetPayable decimal.Decimal `json:"net_payable"`
	Reportable bool            `json:"reportable"`
}

// TaxReportResult holds the yearly aggregation, ordered by net payable
// descending
type TaxReportResult struct {
	Year  int             `json:"year"`
	Lines []TaxReportLine `json:"lines"`
}

// GenerateYearly sums net payable per author across all non-superseded
// statements whose period starts in the calendar year. Authors at or above
// the reporting threshold are flagged reportable.
func (s *TaxReportService) GenerateYearly(ctx context.Context, req TaxReportRequest) (*TaxReportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "tax_report", "generate_yearly")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, req.TenantID.String(),
		"year", req.Year,
	)

	if req.TenantID == uuid.Nil {
		err := shared.NewValidationError("INVALID_TENANT", "Tenant ID cannot be empty")
		telemetry.RecordError(span, err)
		return nil, err
	}
	if req.Year < 2000 || req.Year > 2200 {
		err := shared.NewValidationError("INVALID_YEAR", "Reporting year out of range")
		telemetry.RecordError(span, err)
		return nil, err
	}

	totals, err := s.statementRepo.SumNetPayableByAuthor(ctx, req.TenantID, req.Year)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := &TaxReportResult{Year: req.Year, Lines: make([]TaxReportLine, 0, len(totals))}
	for _, row := range totals {
		result.Lines = append(result.Lines, TaxReportLine{
			AuthorID:   row.AuthorID,
			NetPayable: row.NetPayable,
			Reportable: row.NetPayable.GreaterThanOrEqual(taxReportingThreshold),
		})
	}
	sort.Slice(result.Lines, func(i, j int) bool {
		if !result.Lines[i].NetPayable.Equal(result.Lines[j].NetPayable) {
			return result.Lines[i].NetPayable.GreaterThan(result.Lines[j].NetPayable)
		}
		return result.Lines[i].AuthorID.String() < result.Lines[j].AuthorID.String()
	})

	s.logger.Info("Yearly tax report generated",
		zap.String("tenant_id", req.TenantID.String()),
		zap.Int("year", req.Year),
		zap.Int("authors", len(result.Lines)),
	)

	return result, nil
}
