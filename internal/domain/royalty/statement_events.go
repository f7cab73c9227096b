package royalty

import (
	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types for the statement aggregate
const (
	EventTypeStatementGenerated  = "royalty.statement.generated"
	EventTypeStatementSuperseded = "royalty.statement.superseded"
)

const statementAggregateType = "RoyaltyStatement"

// StatementGeneratedEvent is published when a statement run produces a new
// immutable statement. Webhook subscribers and the notification pipeline
// consume it through the outbox.
type StatementGeneratedEvent struct {
	shared.BaseDomainEvent
	StatementNumber string          `json:"statement_number"`
	AuthorID        uuid.UUID       `json:"author_id"`
	TitleID         uuid.UUID       `json:"title_id"`
	PeriodStart     string          `json:"period_start"`
	PeriodEnd       string          `json:"period_end"`
	GrossRoyalty    decimal.Decimal `json:"gross_royalty"`
	NetPayable      decimal.Decimal `json:"net_payable"`
	IsSplit         bool            `json:"is_split"`
}

// NewStatementGeneratedEvent creates a StatementGeneratedEvent
func NewStatementGeneratedEvent(s *Statement) *StatementGeneratedEvent {
	return &StatementGeneratedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStatementGenerated, statementAggregateType, s.ID, s.TenantID),
		StatementNumber: s.StatementNumber,
		AuthorID:        s.AuthorID,
		TitleID:         s.TitleID,
		PeriodStart:     s.Calculations.PeriodStart,
		PeriodEnd:       s.Calculations.PeriodEnd,
		GrossRoyalty:    s.Calculations.GrossRoyalty,
		NetPayable:      s.Calculations.NetPayable,
		IsSplit:         s.IsSplit(),
	}
}

// StatementSupersededEvent is published when a correction replaces a
// statement
type StatementSupersededEvent struct {
	shared.BaseDomainEvent
	StatementNumber string    `json:"statement_number"`
	ReplacedBy      uuid.UUID `json:"replaced_by"`
}

// NewStatementSupersededEvent creates a StatementSupersededEvent
func NewStatementSupersededEvent(s *Statement, replacementID uuid.UUID) *StatementSupersededEvent {
	return &StatementSupersededEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStatementSuperseded, statementAggregateType, s.ID, s.TenantID),
		StatementNumber: s.StatementNumber,
		ReplacedBy:      replacementID,
	}
}
