package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/catalog"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/inkwell/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// generationBatchSize is how many ISBNs are persisted per progress checkpoint.
// A failed run resumes from the last checkpoint, never from zero.
const generationBatchSize = 500

// ISBNPoolService manages publisher prefix blocks: requesting a block,
// running (and resuming) the generation job, and handing out pooled ISBNs.
type ISBNPoolService struct {
	blockRepo catalog.ISBNBlockRepository
	logger    *zap.Logger
}

// NewISBNPoolService creates a new ISBNPoolService
func NewISBNPoolService(blockRepo catalog.ISBNBlockRepository, logger *zap.Logger) *ISBNPoolService {
	return &ISBNPoolService{
		blockRepo: blockRepo,
		logger:    logger,
	}
}

// RequestBlockRequest asks for a new prefix expansion
type RequestBlockRequest struct {
	TenantID  uuid.UUID
	Prefix    string
	BlockSize int64
}

// RequestBlock validates and registers a pending block for a publisher
// prefix. Each prefix can only be expanded once per tenant.
func (s *ISBNPoolService) RequestBlock(ctx context.Context, req RequestBlockRequest) (*catalog.ISBNBlock, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "isbn_pool", "request_block")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, req.TenantID.String(),
		telemetry.SpanAttrPrefix, req.Prefix,
		telemetry.SpanAttrBlockSize, req.BlockSize,
	)

	if req.TenantID == uuid.Nil {
		err := shared.NewValidationError("INVALID_TENANT", "Tenant ID cannot be empty")
		telemetry.RecordError(span, err)
		return nil, err
	}

	existing, err := s.blockRepo.FindByPrefix(ctx, req.TenantID, req.Prefix)
	if err != nil && err != shared.ErrNotFound {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to check existing block: %w", err)
	}
	if existing != nil {
		err := shared.NewDomainError("DUPLICATE_PREFIX", fmt.Sprintf("Prefix %s already has a block", req.Prefix))
		telemetry.RecordError(span, err)
		return nil, err
	}

	block, err := catalog.NewISBNBlock(req.TenantID, req.Prefix, req.BlockSize)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.blockRepo.Save(ctx, block); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save block: %w", err)
	}

	s.logger.Info("ISBN block requested",
		zap.String("tenant_id", req.TenantID.String()),
		zap.String("prefix", req.Prefix),
		zap.Int64("block_size", req.BlockSize),
	)

	return block, nil
}

// RunGeneration executes (or resumes) the generation job for a block. The
// run starts at the block's recorded offset and checkpoints progress every
// batch, so a crash mid-run loses at most one batch of work and a retry
// never re-emits persisted sequences.
func (s *ISBNPoolService) RunGeneration(ctx context.Context, tenantID, blockID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "isbn_pool", "run_generation")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, tenantID.String())

	block, err := s.blockRepo.FindByIDForTenant(ctx, tenantID, blockID)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrPrefix, block.Prefix,
		telemetry.SpanAttrBlockSize, block.BlockSize,
	)

	if err := block.StartGeneration(); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if err := s.blockRepo.Save(ctx, block); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("failed to save block: %w", err)
	}

	startIndex := block.GeneratedCount
	s.logger.Info("ISBN generation started",
		zap.String("tenant_id", tenantID.String()),
		zap.String("prefix", block.Prefix),
		zap.Int64("start_index", startIndex),
		zap.Int64("remaining", block.Remaining()),
	)

	batch := make([]catalog.PooledISBN, 0, generationBatchSize)
	flush := func(upTo int64) error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.blockRepo.SaveGenerated(ctx, tenantID, block.ID, batch); err != nil {
			return fmt.Errorf("failed to persist batch: %w", err)
		}
		if err := block.RecordProgress(upTo); err != nil {
			return err
		}
		if err := s.blockRepo.Save(ctx, block); err != nil {
			return fmt.Errorf("failed to checkpoint block: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	genErr := catalog.GenerateISBNs(block.Prefix, block.BlockSize, startIndex, func(index int64, isbn string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch = append(batch, catalog.PooledISBN{
			ID:       uuid.New(),
			TenantID: tenantID,
			BlockID:  block.ID,
			ISBN:     isbn,
			Sequence: index,
		})
		if len(batch) == generationBatchSize {
			return flush(index + 1)
		}
		return nil
	})
	if genErr == nil {
		genErr = flush(block.BlockSize)
	}

	if genErr != nil {
		if failErr := block.FailGeneration(genErr.Error()); failErr == nil {
			if saveErr := s.blockRepo.Save(ctx, block); saveErr != nil {
				s.logger.Error("Failed to persist block failure", zap.Error(saveErr))
			}
		}
		telemetry.RecordError(span, genErr)
		s.logger.Error("ISBN generation failed",
			zap.String("prefix", block.Prefix),
			zap.Int64("generated", block.GeneratedCount),
			zap.Error(genErr),
		)
		return genErr
	}

	if err := block.CompleteGeneration(); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if err := s.blockRepo.Save(ctx, block); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("failed to save completed block: %w", err)
	}

	s.logger.Info("ISBN generation completed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("prefix", block.Prefix),
		zap.Int64("generated", block.GeneratedCount),
	)

	return nil
}

// ResumePending picks up blocks left in pending or failed state (after a
// crash or transient failure) and re-runs them, oldest first.
func (s *ISBNPoolService) ResumePending(ctx context.Context, limit int) error {
	blocks, err := s.blockRepo.FindResumable(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list resumable blocks: %w", err)
	}

	for i := range blocks {
		block := &blocks[i]
		if err := s.RunGeneration(ctx, block.TenantID, block.ID); err != nil {
			s.logger.Warn("Block resume failed, will retry on next sweep",
				zap.String("prefix", block.Prefix),
				zap.Error(err),
			)
		}
	}

	return nil
}

// ClaimISBN hands out the next unassigned ISBN from the tenant's pool
func (s *ISBNPoolService) ClaimISBN(ctx context.Context, tenantID uuid.UUID) (*catalog.PooledISBN, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "isbn_pool", "claim_isbn")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, tenantID.String())

	pooled, err := s.blockRepo.NextAvailable(ctx, tenantID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return pooled, nil
}
