package royalty

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/inkwell/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// StatementStatus represents the lifecycle of a royalty statement
type StatementStatus string

const (
	// StatementStatusGenerated is the normal state of a statement. The
	// calculations record is immutable once generated.
	StatementStatusGenerated StatementStatus = "GENERATED"
	// StatementStatusSuperseded marks a statement replaced by a correction.
	// Corrections are new statements, never mutations - append-only ledger
	// semantics for auditability.
	StatementStatusSuperseded StatementStatus = "SUPERSEDED"
)

// IsValid checks if the status is a valid StatementStatus
func (s StatementStatus) IsValid() bool {
	return s == StatementStatusGenerated || s == StatementStatusSuperseded
}

// FormatBreakdown is one per-format line of a statement's calculations
type FormatBreakdown struct {
	Format               Format          `json:"format"`
	UnitPrice            decimal.Decimal `json:"unit_price"`
	UnitsSold            int64           `json:"units_sold"`
	GrossRevenue         decimal.Decimal `json:"gross_revenue"`
	GrossReturnedUnits   int64           `json:"gross_returned_units"`
	GrossReturnedRevenue decimal.Decimal `json:"gross_returned_revenue"`
	RawNetUnits          int64           `json:"raw_net_units"`
	NetUnits             int64           `json:"net_units"`
	NetRevenue           decimal.Decimal `json:"net_revenue"`
	ReturnsClamped       bool            `json:"returns_clamped"`
	RateBasis            RateBasis       `json:"rate_basis"`
	LifetimeUnitsBefore  int64           `json:"lifetime_units_before,omitempty"`
	AppliedTiers         []AppliedTier   `json:"applied_tiers"`
	RoyaltyAmount        decimal.Decimal `json:"royalty_amount"`
}

// StatementCalculations is the persisted calculation record of one statement:
// period bounds, per-format breakdowns, aggregate returns deduction, gross
// royalty, the recoupment sub-record, net payable, and the optional co-author
// split context. It is created once per statement run and never mutated.
type StatementCalculations struct {
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`

	Currency valueobject.Currency `json:"currency"`

	Formats []FormatBreakdown `json:"formats"`

	TotalUnitsSold     int64             `json:"total_units_sold"`
	TotalReturnedUnits int64             `json:"total_returned_units"`
	TotalNetUnits      int64             `json:"total_net_units"`
	TotalNetRevenue    decimal.Decimal   `json:"total_net_revenue"`
	GrossRoyalty       decimal.Decimal   `json:"gross_royalty"`
	TitleGrossRoyalty  decimal.Decimal   `json:"title_gross_royalty"`
	Recoupment         RecoupmentRecord  `json:"recoupment"`
	NetPayable         decimal.Decimal   `json:"net_payable"`
	Split              *SplitCalculation `json:"split,omitempty"`
}

// Value implements driver.Valuer so calculations persist as a JSONB column
func (c StatementCalculations) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner for reading calculations back from JSONB
func (c *StatementCalculations) Scan(value interface{}) error {
	if value == nil {
		*c = StatementCalculations{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan StatementCalculations: unsupported type")
	}

	if len(bytes) == 0 {
		*c = StatementCalculations{}
		return nil
	}

	return json.Unmarshal(bytes, c)
}

// FormatInput carries the per-format upstream data for a statement run
type FormatInput struct {
	Format              Format
	UnitPrice           decimal.Decimal
	Spec                RateSpec
	Sales               PeriodSales
	Returns             PeriodReturns
	LifetimeUnitsBefore int64
}

// StatementInput is everything the assembler needs for one author-period
// calculation. All I/O (fetching sales aggregates, contracts, lifetime
// figures) happens before this point; assembly itself is pure.
type StatementInput struct {
	Period   Period
	Currency valueobject.Currency

	Formats []FormatInput

	OriginalAdvance    decimal.Decimal
	PreviouslyRecouped decimal.Decimal

	// CoAuthorPercentages lists the ownership percentages of every co-author
	// of the title, primary author first; empty for single-author titles.
	// AuthorSplitIndex is this author's position in that list.
	CoAuthorPercentages []decimal.Decimal
	AuthorSplitIndex    int
}

// AssembleCalculations runs the full calculation pipeline for one author and
// period: per-format returns netting and rate tier resolution, aggregate
// gross royalty, co-author split (if any), then advance recoupment applied
// once at the aggregate level. The result is deterministic: identical inputs
// always produce a byte-identical record.
func AssembleCalculations(in StatementInput) (StatementCalculations, error) {
	if in.Period.Start.IsZero() || !in.Period.Start.Before(in.Period.End) {
		return StatementCalculations{}, shared.NewValidationError("INVALID_PERIOD", "Statement period must be a non-empty interval")
	}
	if len(in.Formats) == 0 {
		return StatementCalculations{}, shared.NewCalculationError("MISSING_SALES_DATA", "Statement requires at least one format sales aggregate")
	}
	currency := in.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	calc := StatementCalculations{
		PeriodStart: in.Period.Start.UTC().Format("2006-01-02"),
		PeriodEnd:   in.Period.End.UTC().Format("2006-01-02"),
		Currency:    currency,
		Formats:     make([]FormatBreakdown, 0, len(in.Formats)),
	}

	seen := make(map[Format]bool, len(in.Formats))
	titleGross := decimal.Zero
	totalNetRevenue := decimal.Zero

	for _, f := range in.Formats {
		if !f.Format.IsValid() {
			return StatementCalculations{}, shared.NewValidationError("INVALID_FORMAT", fmt.Sprintf("Unknown format %q", string(f.Format)))
		}
		if seen[f.Format] {
			return StatementCalculations{}, shared.NewValidationError("DUPLICATE_FORMAT", fmt.Sprintf("Format %s appears more than once", f.Format))
		}
		seen[f.Format] = true

		net, err := NetReturns(f.Sales, f.Returns)
		if err != nil {
			return StatementCalculations{}, err
		}

		unitPrice, err := valueobject.NewMoney(f.UnitPrice, currency)
		if err != nil {
			return StatementCalculations{}, shared.NewCalculationError("MISSING_UNIT_PRICE", err.Error())
		}

		result, err := ComputeRoyalty(f.Spec, net.NetUnits, unitPrice, f.LifetimeUnitsBefore)
		if err != nil {
			return StatementCalculations{}, err
		}

		calc.Formats = append(calc.Formats, FormatBreakdown{
			Format:               f.Format,
			UnitPrice:            f.UnitPrice.Round(valueobject.CurrencyPrecision),
			UnitsSold:            f.Sales.Units,
			GrossRevenue:         f.Sales.Revenue.Round(valueobject.CurrencyPrecision),
			GrossReturnedUnits:   net.GrossReturnedUnits,
			GrossReturnedRevenue: net.GrossReturnedRevenue,
			RawNetUnits:          net.RawNetUnits,
			NetUnits:             net.NetUnits,
			NetRevenue:           net.NetRevenue,
			ReturnsClamped:       net.Clamped,
			RateBasis:            f.Spec.Basis,
			LifetimeUnitsBefore:  f.LifetimeUnitsBefore,
			AppliedTiers:         result.AppliedTiers,
			RoyaltyAmount:        result.Amount,
		})

		calc.TotalUnitsSold += f.Sales.Units
		calc.TotalReturnedUnits += net.GrossReturnedUnits
		calc.TotalNetUnits += net.NetUnits
		totalNetRevenue = totalNetRevenue.Add(net.NetRevenue)
		titleGross = titleGross.Add(result.Amount)
	}

	calc.TotalNetRevenue = totalNetRevenue.Round(valueobject.CurrencyPrecision)
	calc.TitleGrossRoyalty = titleGross.Round(valueobject.CurrencyPrecision)

	// For co-authored titles the title-level royalty is split before
	// recoupment: advances are per author, so the waterfall runs against
	// this author's share, not the title total.
	authorGross := calc.TitleGrossRoyalty
	if len(in.CoAuthorPercentages) > 0 {
		if in.AuthorSplitIndex < 0 || in.AuthorSplitIndex >= len(in.CoAuthorPercentages) {
			return StatementCalculations{}, shared.NewValidationError("INVALID_SPLIT_INDEX", fmt.Sprintf("Split index %d out of range for %d co-authors", in.AuthorSplitIndex, len(in.CoAuthorPercentages)))
		}
		titleTotal, err := valueobject.NewMoney(titleGross, currency)
		if err != nil {
			return StatementCalculations{}, shared.NewCalculationError("INVALID_TITLE_TOTAL", err.Error())
		}
		splits, err := AllocateTitleRoyalty(titleTotal, in.CoAuthorPercentages)
		if err != nil {
			return StatementCalculations{}, err
		}
		split := splits[in.AuthorSplitIndex]
		calc.Split = &split
		authorGross = split.AuthorShare
	}

	calc.GrossRoyalty = authorGross

	recoupment, err := ApplyRecoupment(authorGross, in.PreviouslyRecouped, in.OriginalAdvance)
	if err != nil {
		return StatementCalculations{}, err
	}
	calc.Recoupment = recoupment
	calc.NetPayable = recoupment.NetPayable

	return calc, nil
}

// Statement is the immutable per-author-per-period royalty statement
// aggregate. The Calculations payload is written once at generation time; a
// correction supersedes the statement and generates a new one.
type Statement struct {
	shared.TenantAggregateRoot
	StatementNumber string
	AuthorID        uuid.UUID
	TitleID         uuid.UUID
	ContractID      uuid.UUID
	PeriodStart     time.Time
	PeriodEnd       time.Time
	Status          StatementStatus
	Calculations    StatementCalculations
	SupersededBy    *uuid.UUID
	SupersededAt    *time.Time
}

// NewStatement creates a generated statement around an assembled
// calculations record
func NewStatement(
	tenantID uuid.UUID,
	statementNumber string,
	authorID, titleID, contractID uuid.UUID,
	period Period,
	calculations StatementCalculations,
) (*Statement, error) {
	if statementNumber == "" {
		return nil, shared.NewValidationError("INVALID_STATEMENT_NUMBER", "Statement number cannot be empty")
	}
	if authorID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_AUTHOR", "Author ID cannot be empty")
	}
	if titleID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_TITLE", "Title ID cannot be empty")
	}
	if contractID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CONTRACT", "Contract ID cannot be empty")
	}

	st := &Statement{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		StatementNumber:     statementNumber,
		AuthorID:            authorID,
		TitleID:             titleID,
		ContractID:          contractID,
		PeriodStart:         period.Start,
		PeriodEnd:           period.End,
		Status:              StatementStatusGenerated,
		Calculations:        calculations,
	}

	st.AddDomainEvent(NewStatementGeneratedEvent(st))

	return st, nil
}

// Supersede marks this statement as replaced by a correction statement.
// The calculations payload is left untouched.
func (s *Statement) Supersede(replacementID uuid.UUID) error {
	if s.Status == StatementStatusSuperseded {
		return shared.NewDomainError("INVALID_STATE", "Statement is already superseded")
	}
	if replacementID == uuid.Nil {
		return shared.NewValidationError("INVALID_REPLACEMENT", "Replacement statement ID cannot be empty")
	}

	now := time.Now()
	s.Status = StatementStatusSuperseded
	s.SupersededBy = &replacementID
	s.SupersededAt = &now
	s.UpdatedAt = now
	s.IncrementVersion()

	s.AddDomainEvent(NewStatementSupersededEvent(s, replacementID))

	return nil
}

// IsSplit returns true if the statement carries a co-author split context
func (s *Statement) IsSplit() bool {
	return s.Calculations.Split != nil
}

// NetPayableMoney returns the statement's net payable as Money
func (s *Statement) NetPayableMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(s.Calculations.NetPayable, s.Calculations.Currency)
	return m
}
