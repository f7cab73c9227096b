package event

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockOutboxRepository is a mock implementation of shared.OutboxRepository
type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockOutboxRepository) FindPending(ctx context.Context, limit int) ([]*shared.OutboxEntry, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*shared.OutboxEntry), args.Error(1)
}

func (m *MockOutboxRepository) FindRetryable(ctx context.Context, before time.Time, limit int) ([]*shared.OutboxEntry, error) {
	args := m.Called(ctx, before, limit)
	return args.Get(0).([]*shared.OutboxEntry), args.Error(1)
}

func (m *MockOutboxRepository) FindDead(ctx context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	args := m.Called(ctx, page, pageSize)
	return args.Get(0).([]*shared.OutboxEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockOutboxRepository) FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*shared.OutboxEntry), args.Error(1)
}

func (m *MockOutboxRepository) MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*shared.OutboxEntry), args.Error(1)
}

func (m *MockOutboxRepository) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockOutboxRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOutboxRepository) CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[shared.OutboxStatus]int64), args.Error(1)
}

func pendingEntry(t *testing.T, serializer *EventSerializer, event shared.DomainEvent) *shared.OutboxEntry {
	t.Helper()
	payload, err := serializer.Serialize(event)
	require.NoError(t, err)
	return shared.NewOutboxEntry(event.TenantID(), event, payload)
}

func TestOutboxProcessor_ProcessesPendingEntries(t *testing.T) {
	serializer := NewEventSerializer()
	serializer.Register("royalty.statement.generated", &testEvent{})

	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("royalty.statement.generated")
	bus.Subscribe(handler)

	event := newTestEvent("royalty.statement.generated", uuid.New())
	entry := pendingEntry(t, serializer, event)

	repo := new(MockOutboxRepository)
	repo.On("FindPending", mock.Anything, 100).Return([]*shared.OutboxEntry{entry}, nil)
	repo.On("FindRetryable", mock.Anything, mock.Anything, 100).Return([]*shared.OutboxEntry{}, nil)
	repo.On("MarkProcessing", mock.Anything, []uuid.UUID{entry.ID}).Return([]*shared.OutboxEntry{entry}, nil)
	repo.On("Update", mock.Anything, entry).Return(nil)

	processor := NewOutboxProcessor(repo, bus, serializer, DefaultOutboxProcessorConfig(), zap.NewNop())
	processor.processBatch(context.Background())

	require.Len(t, handler.getHandled(), 1)
	assert.Equal(t, "royalty.statement.generated", handler.getHandled()[0].EventType())
	assert.Equal(t, shared.OutboxStatusSent, entry.Status)
	repo.AssertExpectations(t)
}

func TestOutboxProcessor_UnknownEventType_MarkedFailed(t *testing.T) {
	serializer := NewEventSerializer()
	bus := NewInMemoryEventBus(zap.NewNop())

	event := newTestEvent("catalog.isbn_block.completed", uuid.New())
	entry := shared.NewOutboxEntry(event.TenantID(), event, []byte(`{}`))

	repo := new(MockOutboxRepository)
	repo.On("FindPending", mock.Anything, 100).Return([]*shared.OutboxEntry{entry}, nil)
	repo.On("FindRetryable", mock.Anything, mock.Anything, 100).Return([]*shared.OutboxEntry{}, nil)
	repo.On("MarkProcessing", mock.Anything, []uuid.UUID{entry.ID}).Return([]*shared.OutboxEntry{entry}, nil)
	repo.On("Update", mock.Anything, entry).Return(nil)

	processor := NewOutboxProcessor(repo, bus, serializer, DefaultOutboxProcessorConfig(), zap.NewNop())
	processor.processBatch(context.Background())

	assert.Equal(t, shared.OutboxStatusFailed, entry.Status)
	assert.Contains(t, entry.LastError, "unknown event type")
	repo.AssertExpectations(t)
}

func TestOutboxProcessor_StartStop(t *testing.T) {
	serializer := NewEventSerializer()
	bus := NewInMemoryEventBus(zap.NewNop())

	repo := new(MockOutboxRepository)
	repo.On("FindPending", mock.Anything, mock.Anything).Return([]*shared.OutboxEntry{}, nil).Maybe()
	repo.On("FindRetryable", mock.Anything, mock.Anything, mock.Anything).Return([]*shared.OutboxEntry{}, nil).Maybe()

	config := DefaultOutboxProcessorConfig()
	config.PollInterval = 10 * time.Millisecond
	config.CleanupEnabled = false

	processor := NewOutboxProcessor(repo, bus, serializer, config, zap.NewNop())

	require.NoError(t, processor.Start(context.Background()))
	time.Sleep(30 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, processor.Stop(stopCtx))
}

func TestDefaultOutboxProcessorConfig(t *testing.T) {
	config := DefaultOutboxProcessorConfig()

	assert.Equal(t, 100, config.BatchSize)
	assert.Equal(t, 5*time.Second, config.PollInterval)
	assert.True(t, config.CleanupEnabled)
	assert.Equal(t, 7*24*time.Hour, config.CleanupRetention)
}
