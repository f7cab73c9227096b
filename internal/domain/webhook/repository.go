package webhook

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/shared"
)

// SubscriptionRepository persists webhook subscriptions
type SubscriptionRepository interface {
	Save(ctx context.Context, sub *Subscription) error
	FindByID(ctx context.Context, id uuid.UUID) (*Subscription, error)
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Subscription, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Subscription, error)

	// FindActiveForEvent returns the tenant's active subscriptions whose
	// event type filter matches
	FindActiveForEvent(ctx context.Context, tenantID uuid.UUID, eventType string) ([]Subscription, error)
}

// DeliveryRepository persists outbound deliveries and their retry state
type DeliveryRepository interface {
	Save(ctx context.Context, delivery *Delivery) error
	FindByID(ctx context.Context, id uuid.UUID) (*Delivery, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Delivery, error)

	// FindDue returns non-terminal deliveries whose next attempt is at or
	// before now, oldest first
	FindDue(ctx context.Context, now time.Time, limit int) ([]Delivery, error)
}
