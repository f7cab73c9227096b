package webhook

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/inkwell/backend/internal/domain/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSubscriptionService_CreateSubscription(t *testing.T) {
	repo := newMockSubRepo()
	service := NewSubscriptionService(repo, zap.NewNop())
	tenantID := uuid.New()

	sub, err := service.CreateSubscription(context.Background(), CreateSubscriptionRequest{
		TenantID:    tenantID,
		Name:        "accounting feed",
		EndpointURL: "https://example.com/hooks/accounting",
		EventTypes:  webhook.EventTypes{"royalty.statement.generated"},
	})
	require.NoError(t, err)
	assert.True(t, sub.IsActive())

	_, err = service.CreateSubscription(context.Background(), CreateSubscriptionRequest{
		TenantID:    tenantID,
		Name:        "bad endpoint",
		EndpointURL: "ftp://example.com/x",
	})
	assert.True(t, shared.IsValidationError(err))

	_, err = service.CreateSubscription(context.Background(), CreateSubscriptionRequest{
		TenantID:    uuid.Nil,
		Name:        "no tenant",
		EndpointURL: "https://example.com/x",
	})
	assert.True(t, shared.IsValidationError(err))
}

func TestSubscriptionService_EnableDisable(t *testing.T) {
	repo := newMockSubRepo()
	service := NewSubscriptionService(repo, zap.NewNop())
	tenantID := uuid.New()

	sub, err := service.CreateSubscription(context.Background(), CreateSubscriptionRequest{
		TenantID:    tenantID,
		Name:        "feed",
		EndpointURL: "https://example.com/hooks",
	})
	require.NoError(t, err)

	disabled, err := service.DisableSubscription(context.Background(), tenantID, sub.ID)
	require.NoError(t, err)
	assert.False(t, disabled.IsActive())

	enabled, err := service.EnableSubscription(context.Background(), tenantID, sub.ID)
	require.NoError(t, err)
	assert.True(t, enabled.IsActive())
	assert.Equal(t, 0, enabled.ConsecutiveFail)

	// Cross-tenant access is not found
	_, err = service.DisableSubscription(context.Background(), uuid.New(), sub.ID)
	assert.Error(t, err)
}

func TestEventBridge_Handle(t *testing.T) {
	f := newDispatchFixture(t)
	bridge := NewEventBridge(f.dispatcher, zap.NewNop())
	assert.Empty(t, bridge.EventTypes())

	f.subscribe(t, "https://example.com/hooks/a", "catalog.title.published")

	event := shared.NewBaseDomainEvent("catalog.title.published", "Title", uuid.New(), f.tenantID)
	require.NoError(t, bridge.Handle(context.Background(), &event))

	deliveries, err := f.deliveries.FindAllForTenant(context.Background(), f.tenantID, shared.Filter{})
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	assert.Equal(t, "catalog.title.published", deliveries[0].EventType)
	assert.Contains(t, string(deliveries[0].Payload), "catalog.title.published")
}
