package catalog

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/royalty"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ContractStatus represents the lifecycle of a royalty contract
type ContractStatus string

const (
	ContractStatusActive     ContractStatus = "ACTIVE"
	ContractStatusTerminated ContractStatus = "TERMINATED"
)

// IsValid checks if the status is a valid ContractStatus
func (s ContractStatus) IsValid() bool {
	return s == ContractStatusActive || s == ContractStatusTerminated
}

// FormatRateSpecs maps each contracted format to its royalty rate
// specification. Stored as JSONB.
type FormatRateSpecs map[royalty.Format]royalty.RateSpec

// Value implements driver.Valuer for JSONB storage
func (f FormatRateSpecs) Value() (driver.Value, error) {
	return json.Marshal(f)
}

// Scan implements sql.Scanner for JSONB retrieval
func (f *FormatRateSpecs) Scan(value interface{}) error {
	if value == nil {
		*f = FormatRateSpecs{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan FormatRateSpecs: unsupported type")
	}
	if len(bytes) == 0 {
		*f = FormatRateSpecs{}
		return nil
	}
	return json.Unmarshal(bytes, f)
}

// Validate checks every format key and rate spec in the map
func (f FormatRateSpecs) Validate() error {
	if len(f) == 0 {
		return shared.NewValidationError("MISSING_RATE_SPECS", "Contract requires at least one format rate specification")
	}
	for format, spec := range f {
		if !format.IsValid() {
			return shared.NewValidationError("INVALID_FORMAT", fmt.Sprintf("Unknown format %q", string(format)))
		}
		if err := spec.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Contract is the royalty contract aggregate binding one author to one
// title: per-format rate specifications, the original advance, and the
// monotonically growing recouped-to-date figure that the statement run
// carries forward after each period.
type Contract struct {
	shared.TenantAggregateRoot
	ContractNumber  string
	TitleID         uuid.UUID
	AuthorID        uuid.UUID
	RateSpecs       FormatRateSpecs
	OriginalAdvance decimal.Decimal
	RecoupedToDate  decimal.Decimal
	Status          ContractStatus
	EffectiveFrom   time.Time
	TerminatedAt    *time.Time
}

// NewContract creates an active contract
func NewContract(
	tenantID uuid.UUID,
	contractNumber string,
	titleID, authorID uuid.UUID,
	rateSpecs FormatRateSpecs,
	originalAdvance decimal.Decimal,
	effectiveFrom time.Time,
) (*Contract, error) {
	if contractNumber == "" {
		return nil, shared.NewValidationError("INVALID_CONTRACT_NUMBER", "Contract number cannot be empty")
	}
	if titleID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_TITLE", "Title ID cannot be empty")
	}
	if authorID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_AUTHOR", "Author ID cannot be empty")
	}
	if err := rateSpecs.Validate(); err != nil {
		return nil, err
	}
	if originalAdvance.IsNegative() {
		return nil, shared.NewValidationError("INVALID_ADVANCE", "Original advance cannot be negative")
	}
	if effectiveFrom.IsZero() {
		return nil, shared.NewValidationError("INVALID_EFFECTIVE_DATE", "Contract requires an effective date")
	}

	contract := &Contract{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ContractNumber:      contractNumber,
		TitleID:             titleID,
		AuthorID:            authorID,
		RateSpecs:           rateSpecs,
		OriginalAdvance:     originalAdvance.Round(2),
		RecoupedToDate:      decimal.Zero,
		Status:              ContractStatusActive,
		EffectiveFrom:       effectiveFrom,
	}

	contract.AddDomainEvent(NewContractCreatedEvent(contract))

	return contract, nil
}

// RateSpecFor returns the rate specification contracted for a format
func (c *Contract) RateSpecFor(format royalty.Format) (royalty.RateSpec, error) {
	spec, ok := c.RateSpecs[format]
	if !ok {
		return royalty.RateSpec{}, shared.NewCalculationError("FORMAT_NOT_CONTRACTED", fmt.Sprintf("Contract %s has no rate for format %s", c.ContractNumber, format))
	}
	return spec, nil
}

// RemainingAdvance returns the unrecouped advance balance
func (c *Contract) RemainingAdvance() decimal.Decimal {
	return c.OriginalAdvance.Sub(c.RecoupedToDate)
}

// RecordRecoupment carries a statement period's recoupment into the
// contract's running balance. The recouped-to-date figure is monotonically
// non-decreasing and never exceeds the original advance.
func (c *Contract) RecordRecoupment(thisPeriodRecoupment decimal.Decimal) error {
	if c.Status != ContractStatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot record recoupment on a %s contract", c.Status))
	}
	if thisPeriodRecoupment.IsNegative() {
		return shared.NewValidationError("NEGATIVE_RECOUPMENT", "Recoupment cannot be negative")
	}

	updated := c.RecoupedToDate.Add(thisPeriodRecoupment)
	if updated.GreaterThan(c.OriginalAdvance) {
		return shared.NewDataIntegrityError("RECOUPMENT_EXCEEDS_ADVANCE", fmt.Sprintf("Recouping %s would push recouped-to-date %s past the advance %s", thisPeriodRecoupment, c.RecoupedToDate, c.OriginalAdvance))
	}

	c.RecoupedToDate = updated.Round(2)
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// UpdateRateSpecs replaces the contract's rate table, e.g. on renegotiation.
// Historical statements keep the calculations computed under the old table.
func (c *Contract) UpdateRateSpecs(rateSpecs FormatRateSpecs) error {
	if c.Status != ContractStatusActive {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot amend a %s contract", c.Status))
	}
	if err := rateSpecs.Validate(); err != nil {
		return err
	}

	c.RateSpecs = rateSpecs
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewContractAmendedEvent(c))

	return nil
}

// Terminate ends the contract; no further statement runs include it
func (c *Contract) Terminate() error {
	if c.Status == ContractStatusTerminated {
		return shared.NewDomainError("INVALID_STATE", "Contract is already terminated")
	}

	now := time.Now()
	c.Status = ContractStatusTerminated
	c.TerminatedAt = &now
	c.UpdatedAt = now
	c.IncrementVersion()

	return nil
}
