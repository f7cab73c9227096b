package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/shared"
)

// BlockStatus represents the generation lifecycle of an ISBN prefix block
type BlockStatus string

const (
	BlockStatusPending    BlockStatus = "PENDING"
	BlockStatusGenerating BlockStatus = "GENERATING"
	BlockStatusCompleted  BlockStatus = "COMPLETED"
	BlockStatusFailed     BlockStatus = "FAILED"
)

// IsValid checks if the status is a valid BlockStatus
func (s BlockStatus) IsValid() bool {
	switch s {
	case BlockStatusPending, BlockStatusGenerating, BlockStatusCompleted, BlockStatusFailed:
		return true
	}
	return false
}

// IsTerminal returns true once the block can no longer change state.
// A failed block is not terminal: it can be retried.
func (s BlockStatus) IsTerminal() bool {
	return s == BlockStatusCompleted
}

// ISBNBlock is the aggregate for one publisher prefix expansion. The block
// tracks how many ISBNs have been persisted (GeneratedCount) so an
// interrupted or failed run resumes at that offset instead of re-emitting
// completed work.
type ISBNBlock struct {
	shared.TenantAggregateRoot
	Prefix         string
	BlockSize      int64
	Status         BlockStatus
	GeneratedCount int64
	FailureReason  string
	StartedAt      *time.Time
	CompletedAt    *time.Time
}

// NewISBNBlock creates a pending block for a validated prefix and size
func NewISBNBlock(tenantID uuid.UUID, prefix string, blockSize int64) (*ISBNBlock, error) {
	if err := ValidateBlock(prefix, blockSize); err != nil {
		return nil, err
	}

	block := &ISBNBlock{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Prefix:              prefix,
		BlockSize:           blockSize,
		Status:              BlockStatusPending,
	}

	block.AddDomainEvent(NewISBNBlockRequestedEvent(block))

	return block, nil
}

// StartGeneration transitions the block into the generating state. Valid from
// pending (first run) and failed (retry); the resume offset is preserved.
func (b *ISBNBlock) StartGeneration() error {
	if b.Status != BlockStatusPending && b.Status != BlockStatusFailed {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot start generation from status %s", b.Status))
	}

	now := time.Now()
	b.Status = BlockStatusGenerating
	b.FailureReason = ""
	if b.StartedAt == nil {
		b.StartedAt = &now
	}
	b.UpdatedAt = now
	b.IncrementVersion()

	return nil
}

// RecordProgress advances the resume offset after a batch of ISBNs has been
// persisted. The count is cumulative and never moves backward.
func (b *ISBNBlock) RecordProgress(generatedCount int64) error {
	if b.Status != BlockStatusGenerating {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot record progress in status %s", b.Status))
	}
	if generatedCount < b.GeneratedCount {
		return shared.NewDataIntegrityError("PROGRESS_MOVED_BACKWARD", fmt.Sprintf("Generated count %d is below the recorded %d", generatedCount, b.GeneratedCount))
	}
	if generatedCount > b.BlockSize {
		return shared.NewDataIntegrityError("PROGRESS_EXCEEDS_BLOCK", fmt.Sprintf("Generated count %d exceeds block size %d", generatedCount, b.BlockSize))
	}

	b.GeneratedCount = generatedCount
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return nil
}

// CompleteGeneration marks the block completed once every ISBN is persisted
func (b *ISBNBlock) CompleteGeneration() error {
	if b.Status != BlockStatusGenerating {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete generation from status %s", b.Status))
	}
	if b.GeneratedCount != b.BlockSize {
		return shared.NewDataIntegrityError("BLOCK_INCOMPLETE", fmt.Sprintf("Block has %d of %d ISBNs generated", b.GeneratedCount, b.BlockSize))
	}

	now := time.Now()
	b.Status = BlockStatusCompleted
	b.CompletedAt = &now
	b.UpdatedAt = now
	b.IncrementVersion()

	b.AddDomainEvent(NewISBNBlockCompletedEvent(b))

	return nil
}

// FailGeneration marks the run failed, keeping the resume offset for retry
func (b *ISBNBlock) FailGeneration(reason string) error {
	if b.Status != BlockStatusGenerating {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot fail generation from status %s", b.Status))
	}

	b.Status = BlockStatusFailed
	b.FailureReason = reason
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	b.AddDomainEvent(NewISBNBlockFailedEvent(b))

	return nil
}

// Remaining returns how many ISBNs are still to be generated
func (b *ISBNBlock) Remaining() int64 {
	return b.BlockSize - b.GeneratedCount
}
