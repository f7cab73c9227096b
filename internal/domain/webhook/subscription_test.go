package webhook

import (
	"testing"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSubscription(t *testing.T) *Subscription {
	t.Helper()
	sub, err := NewSubscription(uuid.New(), "statements feed", "https://example.com/hooks", EventTypes{"royalty.statement.generated"})
	require.NoError(t, err)
	return sub
}

func TestNewSubscription(t *testing.T) {
	sub := newTestSubscription(t)

	assert.Equal(t, SubscriptionStatusActive, sub.Status)
	assert.True(t, sub.IsActive())

	events := sub.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeSubscriptionCreated, events[0].EventType())
}

func TestNewSubscription_Rejections(t *testing.T) {
	_, err := NewSubscription(uuid.New(), "", "https://example.com/hooks", nil)
	assert.True(t, shared.IsValidationError(err))

	_, err = NewSubscription(uuid.New(), "feed", "not a url", nil)
	assert.True(t, shared.IsValidationError(err))

	_, err = NewSubscription(uuid.New(), "feed", "ftp://example.com/hooks", nil)
	assert.True(t, shared.IsValidationError(err))
}

func TestEventTypes_Matches(t *testing.T) {
	filtered := EventTypes{"royalty.statement.generated", "catalog.isbn_block.completed"}
	assert.True(t, filtered.Matches("royalty.statement.generated"))
	assert.False(t, filtered.Matches("catalog.title.created"))

	// Empty filter subscribes to everything.
	assert.True(t, EventTypes{}.Matches("catalog.title.created"))
}

func TestSubscription_FailureStreakDisables(t *testing.T) {
	sub := newTestSubscription(t)
	sub.ClearDomainEvents()

	for i := 0; i < maxConsecutiveFailures-1; i++ {
		sub.RecordDeliveryFailure()
	}
	assert.True(t, sub.IsActive())

	sub.RecordDeliveryFailure()
	assert.Equal(t, SubscriptionStatusDisabled, sub.Status)
	assert.NotNil(t, sub.DisabledAt)

	events := sub.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeSubscriptionDisabled, events[0].EventType())
}

func TestSubscription_SuccessResetsStreak(t *testing.T) {
	sub := newTestSubscription(t)

	sub.RecordDeliveryFailure()
	sub.RecordDeliveryFailure()
	assert.Equal(t, 2, sub.ConsecutiveFail)

	sub.RecordDeliverySuccess()
	assert.Equal(t, 0, sub.ConsecutiveFail)
	assert.True(t, sub.IsActive())
}

func TestSubscription_EnableDisable(t *testing.T) {
	sub := newTestSubscription(t)

	assert.Error(t, sub.Enable())

	require.NoError(t, sub.Disable())
	assert.False(t, sub.IsActive())
	assert.Error(t, sub.Disable())

	require.NoError(t, sub.Enable())
	assert.True(t, sub.IsActive())
	assert.Equal(t, 0, sub.ConsecutiveFail)
	assert.Nil(t, sub.DisabledAt)
}
