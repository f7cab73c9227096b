package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBlock(t *testing.T) *ISBNBlock {
	t.Helper()
	block, err := NewISBNBlock(uuid.New(), "9781234567", 100)
	require.NoError(t, err)
	return block
}

func TestNewISBNBlock(t *testing.T) {
	block := newTestBlock(t)

	assert.Equal(t, BlockStatusPending, block.Status)
	assert.Equal(t, int64(0), block.GeneratedCount)
	assert.Equal(t, int64(100), block.Remaining())

	events := block.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeISBNBlockRequested, events[0].EventType())
}

func TestNewISBNBlock_InvalidInputs(t *testing.T) {
	_, err := NewISBNBlock(uuid.New(), "123456789", 10)
	assert.True(t, shared.IsValidationError(err))

	_, err = NewISBNBlock(uuid.New(), "9781234567", 42)
	assert.True(t, shared.IsValidationError(err))

	_, err = NewISBNBlock(uuid.New(), "9781234567", 1000000)
	assert.True(t, shared.IsValidationError(err))
}

func TestISBNBlock_HappyPath(t *testing.T) {
	block := newTestBlock(t)
	block.ClearDomainEvents()

	require.NoError(t, block.StartGeneration())
	assert.Equal(t, BlockStatusGenerating, block.Status)
	assert.NotNil(t, block.StartedAt)

	require.NoError(t, block.RecordProgress(40))
	require.NoError(t, block.RecordProgress(100))
	assert.Equal(t, int64(0), block.Remaining())

	require.NoError(t, block.CompleteGeneration())
	assert.Equal(t, BlockStatusCompleted, block.Status)
	assert.NotNil(t, block.CompletedAt)

	events := block.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeISBNBlockCompleted, events[0].EventType())
}

func TestISBNBlock_FailAndRetryKeepsOffset(t *testing.T) {
	block := newTestBlock(t)

	require.NoError(t, block.StartGeneration())
	require.NoError(t, block.RecordProgress(37))
	require.NoError(t, block.FailGeneration("connection reset"))

	assert.Equal(t, BlockStatusFailed, block.Status)
	assert.Equal(t, "connection reset", block.FailureReason)
	assert.Equal(t, int64(37), block.GeneratedCount)

	// Retry resumes from the persisted offset; nothing is re-emitted.
	require.NoError(t, block.StartGeneration())
	assert.Empty(t, block.FailureReason)
	assert.Equal(t, int64(37), block.GeneratedCount)
	assert.Equal(t, int64(63), block.Remaining())

	require.NoError(t, block.RecordProgress(100))
	require.NoError(t, block.CompleteGeneration())
}

func TestISBNBlock_InvalidTransitions(t *testing.T) {
	block := newTestBlock(t)

	// Pending blocks cannot complete, fail, or report progress.
	assert.Error(t, block.CompleteGeneration())
	assert.Error(t, block.FailGeneration("x"))
	assert.Error(t, block.RecordProgress(1))

	require.NoError(t, block.StartGeneration())
	assert.Error(t, block.StartGeneration())

	// Completion requires the full block.
	require.NoError(t, block.RecordProgress(99))
	err := block.CompleteGeneration()
	require.Error(t, err)
	assert.True(t, shared.IsDataIntegrityError(err))

	require.NoError(t, block.RecordProgress(100))
	require.NoError(t, block.CompleteGeneration())

	// Completed is terminal.
	assert.True(t, block.Status.IsTerminal())
	assert.Error(t, block.StartGeneration())
	assert.Error(t, block.FailGeneration("x"))
}

func TestISBNBlock_ProgressGuards(t *testing.T) {
	block := newTestBlock(t)
	require.NoError(t, block.StartGeneration())
	require.NoError(t, block.RecordProgress(50))

	err := block.RecordProgress(49)
	require.Error(t, err)
	assert.True(t, shared.IsDataIntegrityError(err))

	err = block.RecordProgress(101)
	require.Error(t, err)
	assert.True(t, shared.IsDataIntegrityError(err))

	// Idempotent batch replay is allowed.
	require.NoError(t, block.RecordProgress(50))
}
