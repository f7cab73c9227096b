package sales

import (
	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types for the sales ledger
const (
	EventTypeTransactionRecorded = "sales.transaction.recorded"
	EventTypeReturnApproved      = "sales.return.approved"
)

const transactionAggregateType = "SalesTransaction"

// TransactionRecordedEvent is published when a sale or return enters the
// ledger
type TransactionRecordedEvent struct {
	shared.BaseDomainEvent
	TitleID uuid.UUID       `json:"title_id"`
	Format  string          `json:"format"`
	Type    TransactionType `json:"type"`
	Units   int64           `json:"units"`
	Revenue decimal.Decimal `json:"revenue"`
}

// NewTransactionRecordedEvent creates a TransactionRecordedEvent
func NewTransactionRecordedEvent(t *Transaction) *TransactionRecordedEvent {
	return &TransactionRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionRecorded, transactionAggregateType, t.ID, t.TenantID),
		TitleID:         t.TitleID,
		Format:          string(t.Format),
		Type:            t.Type,
		Units:           t.Units,
		Revenue:         t.Revenue,
	}
}

// ReturnApprovedEvent is published when a return clears review and becomes
// nettable
type ReturnApprovedEvent struct {
	shared.BaseDomainEvent
	TitleID uuid.UUID       `json:"title_id"`
	Units   int64           `json:"units"`
	Revenue decimal.Decimal `json:"revenue"`
}

// NewReturnApprovedEvent creates a ReturnApprovedEvent
func NewReturnApprovedEvent(t *Transaction) *ReturnApprovedEvent {
	return &ReturnApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnApproved, transactionAggregateType, t.ID, t.TenantID),
		TitleID:         t.TitleID,
		Units:           t.Units,
		Revenue:         t.Revenue,
	}
}
