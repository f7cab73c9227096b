package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/webhook"
)

// SubscriptionModel is the persistence model for the webhook Subscription
// aggregate. Event type filters persist as a JSONB list.
type SubscriptionModel struct {
	TenantAggregateModel
	Name            string                     `gorm:"type:varchar(200);not null"`
	EndpointURL     string                     `gorm:"type:varchar(2000);not null"`
	EventTypes      webhook.EventTypes         `gorm:"type:jsonb;not null"`
	Status          webhook.SubscriptionStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	ConsecutiveFail int                        `gorm:"not null;default:0"`
	DisabledAt      *time.Time
}

// TableName returns the table name for GORM
func (SubscriptionModel) TableName() string {
	return "webhook_subscriptions"
}

// ToDomain converts the persistence model to a domain Subscription aggregate
func (m *SubscriptionModel) ToDomain() *webhook.Subscription {
	s := &webhook.Subscription{
		Name:            m.Name,
		EndpointURL:     m.EndpointURL,
		EventTypes:      m.EventTypes,
		Status:          m.Status,
		ConsecutiveFail: m.ConsecutiveFail,
		DisabledAt:      m.DisabledAt,
	}
	m.PopulateTenantAggregateRoot(&s.TenantAggregateRoot)
	return s
}

// FromDomain populates the persistence model from a domain Subscription
func (m *SubscriptionModel) FromDomain(s *webhook.Subscription) {
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	m.Name = s.Name
	m.EndpointURL = s.EndpointURL
	m.EventTypes = s.EventTypes
	m.Status = s.Status
	m.ConsecutiveFail = s.ConsecutiveFail
	m.DisabledAt = s.DisabledAt
}

// SubscriptionModelFromDomain creates a new persistence model from a domain Subscription
func SubscriptionModelFromDomain(s *webhook.Subscription) *SubscriptionModel {
	m := &SubscriptionModel{}
	m.FromDomain(s)
	return m
}

// DeliveryModel is the persistence model for the webhook Delivery aggregate.
// The dispatcher sweep selects on (status, next_attempt_at), so that pair is
// indexed together.
type DeliveryModel struct {
	TenantAggregateModel
	SubscriptionID uuid.UUID              `gorm:"type:uuid;not null;index"`
	EventType      string                 `gorm:"type:varchar(255);not null"`
	Payload        []byte                 `gorm:"type:jsonb;not null"`
	Status         webhook.DeliveryStatus `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_delivery_status_next,priority:1"`
	Attempts       int                    `gorm:"not null;default:0"`
	LastStatusCode int                    `gorm:"not null;default:0"`
	LastError      string                 `gorm:"type:text"`
	NextAttemptAt  *time.Time             `gorm:"index:idx_delivery_status_next,priority:2"`
	DeliveredAt    *time.Time
}

// TableName returns the table name for GORM
func (DeliveryModel) TableName() string {
	return "webhook_deliveries"
}

// ToDomain converts the persistence model to a domain Delivery aggregate
func (m *DeliveryModel) ToDomain() *webhook.Delivery {
	d := &webhook.Delivery{
		SubscriptionID: m.SubscriptionID,
		EventType:      m.EventType,
		Payload:        m.Payload,
		Status:         m.Status,
		Attempts:       m.Attempts,
		LastStatusCode: m.LastStatusCode,
		LastError:      m.LastError,
		NextAttemptAt:  m.NextAttemptAt,
		DeliveredAt:    m.DeliveredAt,
	}
	m.PopulateTenantAggregateRoot(&d.TenantAggregateRoot)
	return d
}

// FromDomain populates the persistence model from a domain Delivery
func (m *DeliveryModel) FromDomain(d *webhook.Delivery) {
	m.FromDomainTenantAggregateRoot(d.TenantAggregateRoot)
	m.SubscriptionID = d.SubscriptionID
	m.EventType = d.EventType
	m.Payload = d.Payload
	m.Status = d.Status
	m.Attempts = d.Attempts
	m.LastStatusCode = d.LastStatusCode
	m.LastError = d.LastError
	m.NextAttemptAt = d.NextAttemptAt
	m.DeliveredAt = d.DeliveredAt
}

// DeliveryModelFromDomain creates a new persistence model from a domain Delivery
func DeliveryModelFromDomain(d *webhook.Delivery) *DeliveryModel {
	m := &DeliveryModel{}
	m.FromDomain(d)
	return m
}
