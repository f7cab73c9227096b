package sales

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/royalty"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransactionType distinguishes sales from returns in the transaction ledger
type TransactionType string

const (
	TransactionTypeSale   TransactionType = "SALE"
	TransactionTypeReturn TransactionType = "RETURN"
)

// IsValid checks if the type is a valid TransactionType
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeSale || t == TransactionTypeReturn
}

// ReturnStatus is the approval state of a return transaction. Only approved
// returns are netted against sales in a statement run.
type ReturnStatus string

const (
	ReturnStatusPending  ReturnStatus = "PENDING"
	ReturnStatusApproved ReturnStatus = "APPROVED"
	ReturnStatusRejected ReturnStatus = "REJECTED"
)

// IsValid checks if the status is a valid ReturnStatus
func (s ReturnStatus) IsValid() bool {
	return s == ReturnStatusPending || s == ReturnStatusApproved || s == ReturnStatusRejected
}

// Transaction is one sales or return ledger entry for a title/format. The
// ledger is append-only: royalty statement runs aggregate over it by period
// bounds and never mutate it.
type Transaction struct {
	shared.TenantAggregateRoot
	TitleID      uuid.UUID
	Format       royalty.Format
	Type         TransactionType
	Units        int64
	Revenue      decimal.Decimal
	Channel      string
	OccurredAt   time.Time
	ReturnStatus ReturnStatus
	ReviewedAt   *time.Time
}

// NewSale records a sale transaction
func NewSale(tenantID, titleID uuid.UUID, format royalty.Format, units int64, revenue decimal.Decimal, channel string, occurredAt time.Time) (*Transaction, error) {
	if err := validateTransaction(titleID, format, units, revenue, occurredAt); err != nil {
		return nil, err
	}

	txn := &Transaction{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		TitleID:             titleID,
		Format:              format,
		Type:                TransactionTypeSale,
		Units:               units,
		Revenue:             revenue.Round(2),
		Channel:             channel,
		OccurredAt:          occurredAt.UTC(),
	}

	txn.AddDomainEvent(NewTransactionRecordedEvent(txn))

	return txn, nil
}

// NewReturn records a return transaction in pending state. It stays out of
// royalty netting until approved.
func NewReturn(tenantID, titleID uuid.UUID, format royalty.Format, units int64, revenue decimal.Decimal, channel string, occurredAt time.Time) (*Transaction, error) {
	if err := validateTransaction(titleID, format, units, revenue, occurredAt); err != nil {
		return nil, err
	}

	txn := &Transaction{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		TitleID:             titleID,
		Format:              format,
		Type:                TransactionTypeReturn,
		Units:               units,
		Revenue:             revenue.Round(2),
		Channel:             channel,
		OccurredAt:          occurredAt.UTC(),
		ReturnStatus:        ReturnStatusPending,
	}

	txn.AddDomainEvent(NewTransactionRecordedEvent(txn))

	return txn, nil
}

func validateTransaction(titleID uuid.UUID, format royalty.Format, units int64, revenue decimal.Decimal, occurredAt time.Time) error {
	if titleID == uuid.Nil {
		return shared.NewValidationError("INVALID_TITLE", "Title ID cannot be empty")
	}
	if !format.IsValid() {
		return shared.NewValidationError("INVALID_FORMAT", fmt.Sprintf("Unknown format %q", string(format)))
	}
	if units <= 0 {
		return shared.NewValidationError("INVALID_UNITS", fmt.Sprintf("Units must be positive, got %d", units))
	}
	if revenue.IsNegative() {
		return shared.NewValidationError("INVALID_REVENUE", "Revenue cannot be negative")
	}
	if occurredAt.IsZero() {
		return shared.NewValidationError("INVALID_DATE", "Transaction requires an occurrence date")
	}
	return nil
}

// ApproveReturn marks a pending return as approved for royalty netting
func (t *Transaction) ApproveReturn() error {
	if t.Type != TransactionTypeReturn {
		return shared.NewDomainError("NOT_A_RETURN", "Only return transactions can be approved")
	}
	if t.ReturnStatus != ReturnStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve a return in status %s", t.ReturnStatus))
	}

	now := time.Now()
	t.ReturnStatus = ReturnStatusApproved
	t.ReviewedAt = &now
	t.UpdatedAt = now
	t.IncrementVersion()

	t.AddDomainEvent(NewReturnApprovedEvent(t))

	return nil
}

// RejectReturn marks a pending return as rejected; it never affects royalties
func (t *Transaction) RejectReturn() error {
	if t.Type != TransactionTypeReturn {
		return shared.NewDomainError("NOT_A_RETURN", "Only return transactions can be rejected")
	}
	if t.ReturnStatus != ReturnStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject a return in status %s", t.ReturnStatus))
	}

	now := time.Now()
	t.ReturnStatus = ReturnStatusRejected
	t.ReviewedAt = &now
	t.UpdatedAt = now
	t.IncrementVersion()

	return nil
}
