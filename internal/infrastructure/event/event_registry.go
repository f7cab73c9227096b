package event

import (
	"github.com/inkwell/backend/internal/domain/catalog"
	"github.com/inkwell/backend/internal/domain/royalty"
	"github.com/inkwell/backend/internal/domain/sales"
	"github.com/inkwell/backend/internal/domain/webhook"
)

// RegisterAllEvents registers every domain event type with the serializer so
// outbox entries can be deserialized back into concrete events. An event type
// missing here dead-letters on its first delivery attempt.
func RegisterAllEvents(serializer *EventSerializer) {
	// Royalty events
	serializer.Register(royalty.EventTypeStatementGenerated, &royalty.StatementGeneratedEvent{})
	serializer.Register(royalty.EventTypeStatementSuperseded, &royalty.StatementSupersededEvent{})

	// Catalog events
	serializer.Register(catalog.EventTypeTitleCreated, &catalog.TitleCreatedEvent{})
	serializer.Register(catalog.EventTypeTitlePublished, &catalog.TitlePublishedEvent{})
	serializer.Register(catalog.EventTypeContractCreated, &catalog.ContractCreatedEvent{})
	serializer.Register(catalog.EventTypeContractAmended, &catalog.ContractAmendedEvent{})
	serializer.Register(catalog.EventTypeISBNBlockRequested, &catalog.ISBNBlockRequestedEvent{})
	serializer.Register(catalog.EventTypeISBNBlockCompleted, &catalog.ISBNBlockCompletedEvent{})
	serializer.Register(catalog.EventTypeISBNBlockFailed, &catalog.ISBNBlockFailedEvent{})

	// Sales events
	serializer.Register(sales.EventTypeTransactionRecorded, &sales.TransactionRecordedEvent{})
	serializer.Register(sales.EventTypeReturnApproved, &sales.ReturnApprovedEvent{})

	// Webhook events
	serializer.Register(webhook.EventTypeSubscriptionCreated, &webhook.SubscriptionCreatedEvent{})
	serializer.Register(webhook.EventTypeSubscriptionDisabled, &webhook.SubscriptionDisabledEvent{})
}

// NewRegisteredSerializer creates a serializer with all domain events registered
func NewRegisteredSerializer() *EventSerializer {
	serializer := NewEventSerializer()
	RegisterAllEvents(serializer)
	return serializer
}
