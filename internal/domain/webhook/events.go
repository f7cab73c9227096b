package webhook

import (
	"github.com/inkwell/backend/internal/domain/shared"
)

// Event types for the webhook aggregates
const (
	EventTypeSubscriptionCreated  = "webhook.subscription.created"
	EventTypeSubscriptionDisabled = "webhook.subscription.disabled"
)

const subscriptionAggregateType = "WebhookSubscription"

// SubscriptionCreatedEvent is published when an endpoint is registered
type SubscriptionCreatedEvent struct {
	shared.BaseDomainEvent
	Name        string `json:"name"`
	EndpointURL string `json:"endpoint_url"`
}

// NewSubscriptionCreatedEvent creates a SubscriptionCreatedEvent
func NewSubscriptionCreatedEvent(s *Subscription) *SubscriptionCreatedEvent {
	return &SubscriptionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubscriptionCreated, subscriptionAggregateType, s.ID, s.TenantID),
		Name:            s.Name,
		EndpointURL:     s.EndpointURL,
	}
}

// SubscriptionDisabledEvent is published when a subscription is disabled,
// manually or by a delivery failure streak
type SubscriptionDisabledEvent struct {
	shared.BaseDomainEvent
	Name            string `json:"name"`
	ConsecutiveFail int    `json:"consecutive_failures"`
}

// NewSubscriptionDisabledEvent creates a SubscriptionDisabledEvent
func NewSubscriptionDisabledEvent(s *Subscription) *SubscriptionDisabledEvent {
	return &SubscriptionDisabledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubscriptionDisabled, subscriptionAggregateType, s.ID, s.TenantID),
		Name:            s.Name,
		ConsecutiveFail: s.ConsecutiveFail,
	}
}
