package webhook

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/shared"
)

// SubscriptionStatus represents the state of a webhook subscription
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "ACTIVE"
	SubscriptionStatusDisabled SubscriptionStatus = "DISABLED"
)

// IsValid checks if the status is a valid SubscriptionStatus
func (s SubscriptionStatus) IsValid() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusDisabled
}

// EventTypes is the JSONB list of event types a subscription listens for.
// An empty list subscribes to everything.
type EventTypes []string

// Value implements driver.Valuer for JSONB storage
func (e EventTypes) Value() (driver.Value, error) {
	return json.Marshal(e)
}

// Scan implements sql.Scanner for JSONB retrieval
func (e *EventTypes) Scan(value interface{}) error {
	if value == nil {
		*e = EventTypes{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan EventTypes: unsupported type")
	}
	if len(bytes) == 0 {
		*e = EventTypes{}
		return nil
	}
	return json.Unmarshal(bytes, e)
}

// Matches reports whether the subscription listens for an event type
func (e EventTypes) Matches(eventType string) bool {
	if len(e) == 0 {
		return true
	}
	for _, t := range e {
		if t == eventType {
			return true
		}
	}
	return false
}

// Subscription is the aggregate for one outbound webhook endpoint. Its
// signing key is derived from the subscription ID and the server secret at
// dispatch time, never stored.
type Subscription struct {
	shared.TenantAggregateRoot
	Name            string
	EndpointURL     string
	EventTypes      EventTypes
	Status          SubscriptionStatus
	ConsecutiveFail int
	DisabledAt      *time.Time
}

// maxConsecutiveFailures is the delivery failure streak after which a
// subscription is automatically disabled.
const maxConsecutiveFailures = 10

// NewSubscription creates an active subscription for an HTTPS endpoint
func NewSubscription(tenantID uuid.UUID, name, endpointURL string, eventTypes EventTypes) (*Subscription, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("INVALID_SUBSCRIPTION_NAME", "Subscription name cannot be empty")
	}
	if err := validateEndpoint(endpointURL); err != nil {
		return nil, err
	}

	sub := &Subscription{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		EndpointURL:         endpointURL,
		EventTypes:          eventTypes,
		Status:              SubscriptionStatusActive,
	}

	sub.AddDomainEvent(NewSubscriptionCreatedEvent(sub))

	return sub, nil
}

func validateEndpoint(endpointURL string) error {
	u, err := url.Parse(endpointURL)
	if err != nil || u.Host == "" {
		return shared.NewValidationError("INVALID_ENDPOINT", "Endpoint must be a valid absolute URL")
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return shared.NewValidationError("INVALID_ENDPOINT", fmt.Sprintf("Unsupported endpoint scheme %q", u.Scheme))
	}
	return nil
}

// IsActive reports whether the subscription receives deliveries
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}

// RecordDeliverySuccess resets the failure streak
func (s *Subscription) RecordDeliverySuccess() {
	if s.ConsecutiveFail == 0 {
		return
	}
	s.ConsecutiveFail = 0
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

// RecordDeliveryFailure advances the failure streak and disables the
// subscription once the streak limit is reached
func (s *Subscription) RecordDeliveryFailure() {
	s.ConsecutiveFail++
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	if s.ConsecutiveFail >= maxConsecutiveFailures && s.Status == SubscriptionStatusActive {
		now := time.Now()
		s.Status = SubscriptionStatusDisabled
		s.DisabledAt = &now
		s.AddDomainEvent(NewSubscriptionDisabledEvent(s))
	}
}

// Enable reactivates a disabled subscription and clears the failure streak
func (s *Subscription) Enable() error {
	if s.Status == SubscriptionStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Subscription is already active")
	}

	s.Status = SubscriptionStatusActive
	s.ConsecutiveFail = 0
	s.DisabledAt = nil
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// Disable deactivates the subscription manually
func (s *Subscription) Disable() error {
	if s.Status == SubscriptionStatusDisabled {
		return shared.NewDomainError("INVALID_STATE", "Subscription is already disabled")
	}

	now := time.Now()
	s.Status = SubscriptionStatusDisabled
	s.DisabledAt = &now
	s.UpdatedAt = now
	s.IncrementVersion()

	s.AddDomainEvent(NewSubscriptionDisabledEvent(s))

	return nil
}

// UpdateEventTypes replaces the subscription's event type filter
func (s *Subscription) UpdateEventTypes(eventTypes EventTypes) {
	s.EventTypes = eventTypes
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}
