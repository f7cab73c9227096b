package catalog

import (
	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types for the catalog aggregates
const (
	EventTypeTitleCreated       = "catalog.title.created"
	EventTypeTitlePublished     = "catalog.title.published"
	EventTypeContractCreated    = "catalog.contract.created"
	EventTypeContractAmended    = "catalog.contract.amended"
	EventTypeISBNBlockRequested = "catalog.isbn_block.requested"
	EventTypeISBNBlockCompleted = "catalog.isbn_block.completed"
	EventTypeISBNBlockFailed    = "catalog.isbn_block.failed"
)

const (
	titleAggregateType     = "Title"
	contractAggregateType  = "Contract"
	isbnBlockAggregateType = "ISBNBlock"
)

// TitleCreatedEvent is published when a title enters the catalog
type TitleCreatedEvent struct {
	shared.BaseDomainEvent
	Name        string `json:"name"`
	AuthorCount int    `json:"author_count"`
}

// NewTitleCreatedEvent creates a TitleCreatedEvent
func NewTitleCreatedEvent(t *Title) *TitleCreatedEvent {
	return &TitleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTitleCreated, titleAggregateType, t.ID, t.TenantID),
		Name:            t.Name,
		AuthorCount:     len(t.Ownerships),
	}
}

// TitlePublishedEvent is published when a title goes on sale
type TitlePublishedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewTitlePublishedEvent creates a TitlePublishedEvent
func NewTitlePublishedEvent(t *Title) *TitlePublishedEvent {
	return &TitlePublishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTitlePublished, titleAggregateType, t.ID, t.TenantID),
		Name:            t.Name,
	}
}

// ContractCreatedEvent is published when a royalty contract is signed
type ContractCreatedEvent struct {
	shared.BaseDomainEvent
	ContractNumber  string          `json:"contract_number"`
	TitleID         uuid.UUID       `json:"title_id"`
	AuthorID        uuid.UUID       `json:"author_id"`
	OriginalAdvance decimal.Decimal `json:"original_advance"`
}

// NewContractCreatedEvent creates a ContractCreatedEvent
func NewContractCreatedEvent(c *Contract) *ContractCreatedEvent {
	return &ContractCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContractCreated, contractAggregateType, c.ID, c.TenantID),
		ContractNumber:  c.ContractNumber,
		TitleID:         c.TitleID,
		AuthorID:        c.AuthorID,
		OriginalAdvance: c.OriginalAdvance,
	}
}

// ContractAmendedEvent is published when a contract's rate table changes
type ContractAmendedEvent struct {
	shared.BaseDomainEvent
	ContractNumber string `json:"contract_number"`
}

// NewContractAmendedEvent creates a ContractAmendedEvent
func NewContractAmendedEvent(c *Contract) *ContractAmendedEvent {
	return &ContractAmendedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContractAmended, contractAggregateType, c.ID, c.TenantID),
		ContractNumber:  c.ContractNumber,
	}
}

// ISBNBlockRequestedEvent is published when a block is queued for generation
type ISBNBlockRequestedEvent struct {
	shared.BaseDomainEvent
	Prefix    string `json:"prefix"`
	BlockSize int64  `json:"block_size"`
}

// NewISBNBlockRequestedEvent creates an ISBNBlockRequestedEvent
func NewISBNBlockRequestedEvent(b *ISBNBlock) *ISBNBlockRequestedEvent {
	return &ISBNBlockRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeISBNBlockRequested, isbnBlockAggregateType, b.ID, b.TenantID),
		Prefix:          b.Prefix,
		BlockSize:       b.BlockSize,
	}
}

// ISBNBlockCompletedEvent is published when every ISBN in a block is persisted
type ISBNBlockCompletedEvent struct {
	shared.BaseDomainEvent
	Prefix         string `json:"prefix"`
	GeneratedCount int64  `json:"generated_count"`
}

// NewISBNBlockCompletedEvent creates an ISBNBlockCompletedEvent
func NewISBNBlockCompletedEvent(b *ISBNBlock) *ISBNBlockCompletedEvent {
	return &ISBNBlockCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeISBNBlockCompleted, isbnBlockAggregateType, b.ID, b.TenantID),
		Prefix:          b.Prefix,
		GeneratedCount:  b.GeneratedCount,
	}
}

// ISBNBlockFailedEvent is published when a generation run fails
type ISBNBlockFailedEvent struct {
	shared.BaseDomainEvent
	Prefix        string `json:"prefix"`
	ResumeOffset  int64  `json:"resume_offset"`
	FailureReason string `json:"failure_reason"`
}

// NewISBNBlockFailedEvent creates an ISBNBlockFailedEvent
func NewISBNBlockFailedEvent(b *ISBNBlock) *ISBNBlockFailedEvent {
	return &ISBNBlockFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeISBNBlockFailed, isbnBlockAggregateType, b.ID, b.TenantID),
		Prefix:          b.Prefix,
		ResumeOffset:    b.GeneratedCount,
		FailureReason:   b.FailureReason,
	}
}
