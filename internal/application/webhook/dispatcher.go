package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/inkwell/backend/internal/domain/webhook"
	"github.com/inkwell/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// deliveryIdempotencyTTL bounds how long a completed delivery attempt blocks
// a concurrent worker from re-sending the same attempt.
const deliveryIdempotencyTTL = time.Hour

// requestTimeout caps one outbound POST
const requestTimeout = 10 * time.Second

// Dispatcher fans domain events out to matching webhook subscriptions and
// works the delivery queue: sign, POST, record the outcome, schedule retries.
type Dispatcher struct {
	subRepo      webhook.SubscriptionRepository
	deliveryRepo webhook.DeliveryRepository
	idempotency  shared.IdempotencyStore
	client       *http.Client
	serverSecret string
	logger       *zap.Logger
}

// NewDispatcher creates a new Dispatcher. The server secret is the root key
// every per-subscription signing key is derived from.
func NewDispatcher(
	subRepo webhook.SubscriptionRepository,
	deliveryRepo webhook.DeliveryRepository,
	idempotency shared.IdempotencyStore,
	serverSecret string,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		subRepo:      subRepo,
		deliveryRepo: deliveryRepo,
		idempotency:  idempotency,
		client:       &http.Client{Timeout: requestTimeout},
		serverSecret: serverSecret,
		logger:       logger,
	}
}

// Dispatch creates one pending delivery per active subscription whose filter
// matches the event type. The deliveries are picked up asynchronously by
// ProcessDue.
func (d *Dispatcher) Dispatch(ctx context.Context, tenantID uuid.UUID, eventType string, payload []byte) (int, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "webhook_dispatcher", "dispatch")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrEventType, eventType,
	)

	subs, err := d.subRepo.FindActiveForEvent(ctx, tenantID, eventType)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("failed to find subscriptions: %w", err)
	}

	created := 0
	for i := range subs {
		delivery, err := webhook.NewDelivery(tenantID, subs[i].ID, eventType, payload)
		if err != nil {
			telemetry.RecordError(span, err)
			return created, err
		}
		if err := d.deliveryRepo.Save(ctx, delivery); err != nil {
			telemetry.RecordError(span, err)
			return created, fmt.Errorf("failed to save delivery: %w", err)
		}
		created++
	}

	if created > 0 {
		d.logger.Info("Event dispatched to webhooks",
			zap.String("tenant_id", tenantID.String()),
			zap.String("event_type", eventType),
			zap.Int("deliveries", created),
		)
	}

	return created, nil
}

// TestEventType marks deliveries created through the test endpoint. It
// bypasses the subscription's event filter.
const TestEventType = "webhook.test"

// DispatchTest queues a single test delivery for one subscription so an
// integrator can verify endpoint reachability and signature handling end to
// end. The subscription must be active.
func (d *Dispatcher) DispatchTest(ctx context.Context, tenantID, subscriptionID uuid.UUID) (*webhook.Delivery, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "webhook_dispatcher", "dispatch_test")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrSubscriptionID, subscriptionID.String(),
	)

	sub, err := d.subRepo.FindByIDForTenant(ctx, tenantID, subscriptionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !sub.IsActive() {
		err := shared.NewValidationError("SUBSCRIPTION_DISABLED", "cannot send a test delivery to a disabled subscription")
		telemetry.RecordError(span, err)
		return nil, err
	}

	payload, err := json.Marshal(map[string]any{
		"event_type":      TestEventType,
		"subscription_id": sub.ID,
		"sent_at":         time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build test payload: %w", err)
	}

	delivery, err := webhook.NewDelivery(tenantID, sub.ID, TestEventType, payload)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := d.deliveryRepo.Save(ctx, delivery); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save test delivery: %w", err)
	}

	d.logger.Info("Test delivery queued",
		zap.String("tenant_id", tenantID.String()),
		zap.String("subscription_id", subscriptionID.String()),
	)
	return delivery, nil
}

// VerifyInbound checks an inbound payload's signature against the
// subscription's derived key. The boolean result distinguishes a bad
// signature from a lookup failure: an unknown subscription is an error, a
// signature mismatch is a valid false.
func (d *Dispatcher) VerifyInbound(ctx context.Context, tenantID, subscriptionID uuid.UUID, payload []byte, signature string) (bool, error) {
	sub, err := d.subRepo.FindByIDForTenant(ctx, tenantID, subscriptionID)
	if err != nil {
		return false, err
	}

	key, err := webhook.DeriveSigningKey(d.serverSecret, sub.ID)
	if err != nil {
		return false, err
	}
	return webhook.Verify(payload, signature, key, webhook.DefaultToleranceSeconds, time.Now()), nil
}

// ProcessDue works the delivery queue: every delivery whose next attempt is
// due gets one signed POST. Individual failures are recorded on the delivery
// and never abort the sweep.
func (d *Dispatcher) ProcessDue(ctx context.Context, limit int) (int, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "webhook_dispatcher", "process_due")
	defer span.End()

	due, err := d.deliveryRepo.FindDue(ctx, time.Now(), limit)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("failed to list due deliveries: %w", err)
	}

	processed := 0
	for i := range due {
		delivery := &due[i]

		attemptKey := fmt.Sprintf("webhook-delivery:%s:%d", delivery.ID, delivery.Attempts)
		fresh, err := d.idempotency.MarkProcessed(ctx, attemptKey, deliveryIdempotencyTTL)
		if err != nil {
			d.logger.Error("Failed to check delivery idempotency", zap.Error(err))
			continue
		}
		if !fresh {
			continue
		}

		if err := d.attempt(ctx, delivery); err != nil {
			d.logger.Error("Delivery attempt could not be recorded",
				zap.String("delivery_id", delivery.ID.String()),
				zap.Error(err),
			)
			continue
		}
		processed++
	}

	return processed, nil
}

// attempt performs one signed POST and records the outcome on the delivery
// and its subscription.
func (d *Dispatcher) attempt(ctx context.Context, delivery *webhook.Delivery) error {
	sub, err := d.subRepo.FindByIDForTenant(ctx, delivery.TenantID, delivery.SubscriptionID)
	if err != nil {
		return fmt.Errorf("failed to load subscription: %w", err)
	}
	if !sub.IsActive() {
		// The subscription was disabled after the delivery was queued; the
		// delivery burns an attempt and retires through the normal backoff.
		if err := delivery.MarkFailed(0, "subscription disabled"); err != nil {
			return err
		}
		return d.deliveryRepo.Save(ctx, delivery)
	}

	statusCode, postErr := d.post(ctx, sub, delivery)

	if postErr == nil && statusCode >= 200 && statusCode < 300 {
		if err := delivery.MarkDelivered(statusCode); err != nil {
			return err
		}
		sub.RecordDeliverySuccess()
	} else {
		cause := fmt.Sprintf("endpoint returned %d", statusCode)
		if postErr != nil {
			cause = postErr.Error()
		}
		if err := delivery.MarkFailed(statusCode, cause); err != nil {
			return err
		}
		sub.RecordDeliveryFailure()
	}

	if err := d.deliveryRepo.Save(ctx, delivery); err != nil {
		return fmt.Errorf("failed to save delivery: %w", err)
	}
	if err := d.subRepo.Save(ctx, sub); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	return nil
}

// post signs the payload and sends it to the subscription endpoint
func (d *Dispatcher) post(ctx context.Context, sub *webhook.Subscription, delivery *webhook.Delivery) (int, error) {
	key, err := webhook.DeriveSigningKey(d.serverSecret, sub.ID)
	if err != nil {
		return 0, err
	}
	signature, err := webhook.Sign(delivery.Payload, key, time.Now())
	if err != nil {
		return 0, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, sub.EndpointURL, bytes.NewReader(delivery.Payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(webhook.SignatureHeader, signature)
	req.Header.Set("X-Inkwell-Event", delivery.EventType)
	req.Header.Set("X-Inkwell-Delivery", delivery.ID.String())

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}
