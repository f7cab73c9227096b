package webhook

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/shared"
)

// DeliveryStatus represents the state of one webhook delivery
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "PENDING"
	DeliveryStatusDelivered DeliveryStatus = "DELIVERED"
	DeliveryStatusFailed    DeliveryStatus = "FAILED"
	DeliveryStatusExhausted DeliveryStatus = "EXHAUSTED"
)

// IsValid checks if the status is a valid DeliveryStatus
func (s DeliveryStatus) IsValid() bool {
	switch s {
	case DeliveryStatusPending, DeliveryStatusDelivered, DeliveryStatusFailed, DeliveryStatusExhausted:
		return true
	}
	return false
}

// IsTerminal returns true once no further attempts will be made
func (s DeliveryStatus) IsTerminal() bool {
	return s == DeliveryStatusDelivered || s == DeliveryStatusExhausted
}

// MaxDeliveryAttempts bounds the retry schedule for one delivery
const MaxDeliveryAttempts = 5

// retryBaseDelay seeds the exponential backoff schedule: 30s, 1m, 2m, 4m.
const retryBaseDelay = 30 * time.Second

// Delivery is one signed outbound event delivery to a subscription. Retries
// are tracked here; the signature itself is recomputed per attempt with a
// fresh timestamp.
type Delivery struct {
	shared.TenantAggregateRoot
	SubscriptionID uuid.UUID
	EventType      string
	Payload        []byte
	Status         DeliveryStatus
	Attempts       int
	LastStatusCode int
	LastError      string
	NextAttemptAt  *time.Time
	DeliveredAt    *time.Time
}

// NewDelivery queues a delivery for immediate dispatch
func NewDelivery(tenantID, subscriptionID uuid.UUID, eventType string, payload []byte) (*Delivery, error) {
	if subscriptionID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_SUBSCRIPTION", "Subscription ID cannot be empty")
	}
	if eventType == "" {
		return nil, shared.NewValidationError("INVALID_EVENT_TYPE", "Event type cannot be empty")
	}
	if len(payload) == 0 {
		return nil, shared.NewValidationError("EMPTY_PAYLOAD", "Delivery payload cannot be empty")
	}

	now := time.Now()
	return &Delivery{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SubscriptionID:      subscriptionID,
		EventType:           eventType,
		Payload:             payload,
		Status:              DeliveryStatusPending,
		NextAttemptAt:       &now,
	}, nil
}

// IsDue reports whether the delivery should be attempted now
func (d *Delivery) IsDue(now time.Time) bool {
	if d.Status != DeliveryStatusPending && d.Status != DeliveryStatusFailed {
		return false
	}
	return d.NextAttemptAt == nil || !now.Before(*d.NextAttemptAt)
}

// MarkDelivered records a successful attempt
func (d *Delivery) MarkDelivered(statusCode int) error {
	if d.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Delivery already %s", d.Status))
	}

	now := time.Now()
	d.Attempts++
	d.Status = DeliveryStatusDelivered
	d.LastStatusCode = statusCode
	d.LastError = ""
	d.NextAttemptAt = nil
	d.DeliveredAt = &now
	d.UpdatedAt = now
	d.IncrementVersion()

	return nil
}

// MarkFailed records a failed attempt and schedules the next one with
// exponential backoff. Once the attempt budget is spent the delivery is
// exhausted and never retried.
func (d *Delivery) MarkFailed(statusCode int, cause string) error {
	if d.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Delivery already %s", d.Status))
	}

	now := time.Now()
	d.Attempts++
	d.LastStatusCode = statusCode
	d.LastError = cause
	d.UpdatedAt = now
	d.IncrementVersion()

	if d.Attempts >= MaxDeliveryAttempts {
		d.Status = DeliveryStatusExhausted
		d.NextAttemptAt = nil
		return nil
	}

	d.Status = DeliveryStatusFailed
	next := now.Add(retryBaseDelay << (d.Attempts - 1))
	d.NextAttemptAt = &next

	return nil
}
