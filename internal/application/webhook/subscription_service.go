package webhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/inkwell/backend/internal/domain/webhook"
	"github.com/inkwell/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// SubscriptionService manages webhook subscriptions
type SubscriptionService struct {
	subRepo webhook.SubscriptionRepository
	logger  *zap.Logger
}

// NewSubscriptionService creates a new SubscriptionService
func NewSubscriptionService(subRepo webhook.SubscriptionRepository, logger *zap.Logger) *SubscriptionService {
	return &SubscriptionService{
		subRepo: subRepo,
		logger:  logger,
	}
}

// CreateSubscriptionRequest registers a new webhook endpoint
type CreateSubscriptionRequest struct {
	TenantID    uuid.UUID
	Name        string
	EndpointURL string
	EventTypes  webhook.EventTypes
}

// CreateSubscription registers an endpoint. An empty event type list
// subscribes to every event.
func (s *SubscriptionService) CreateSubscription(ctx context.Context, req CreateSubscriptionRequest) (*webhook.Subscription, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "webhook_subscription", "create")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, req.TenantID.String())

	if req.TenantID == uuid.Nil {
		err := shared.NewValidationError("INVALID_TENANT", "Tenant ID cannot be empty")
		telemetry.RecordError(span, err)
		return nil, err
	}

	sub, err := webhook.NewSubscription(req.TenantID, req.Name, req.EndpointURL, req.EventTypes)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.subRepo.Save(ctx, sub); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save subscription: %w", err)
	}

	s.logger.Info("Webhook subscription created",
		zap.String("tenant_id", req.TenantID.String()),
		zap.String("subscription_id", sub.ID.String()),
		zap.String("endpoint", sub.EndpointURL),
	)

	return sub, nil
}

// EnableSubscription re-activates a disabled subscription and resets its
// failure streak
func (s *SubscriptionService) EnableSubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID) (*webhook.Subscription, error) {
	return s.toggle(ctx, tenantID, subscriptionID, true)
}

// DisableSubscription stops deliveries to a subscription
func (s *SubscriptionService) DisableSubscription(ctx context.Context, tenantID, subscriptionID uuid.UUID) (*webhook.Subscription, error) {
	return s.toggle(ctx, tenantID, subscriptionID, false)
}

func (s *SubscriptionService) toggle(ctx context.Context, tenantID, subscriptionID uuid.UUID, enable bool) (*webhook.Subscription, error) {
	method := "disable"
	if enable {
		method = "enable"
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "webhook_subscription", method)
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrSubscriptionID, subscriptionID.String(),
	)

	sub, err := s.subRepo.FindByIDForTenant(ctx, tenantID, subscriptionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if enable {
		err = sub.Enable()
	} else {
		err = sub.Disable()
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.subRepo.Save(ctx, sub); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save subscription: %w", err)
	}

	return sub, nil
}

// EventBridge adapts the domain event stream to webhook dispatch: every
// event flowing out of the outbox is fanned to the tenant's matching
// subscriptions.
type EventBridge struct {
	dispatcher *Dispatcher
	logger     *zap.Logger
}

// NewEventBridge creates a new EventBridge
func NewEventBridge(dispatcher *Dispatcher, logger *zap.Logger) *EventBridge {
	return &EventBridge{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// EventTypes returns an empty slice: the bridge receives every event and
// lets each subscription's own filter decide.
func (b *EventBridge) EventTypes() []string {
	return nil
}

// Handle serializes the event and creates pending deliveries for every
// matching subscription
func (b *EventBridge) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to serialize event %s: %w", event.EventType(), err)
	}

	if _, err := b.dispatcher.Dispatch(ctx, event.TenantID(), event.EventType(), payload); err != nil {
		return err
	}
	return nil
}
