package catalog

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/catalog"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type poolKey struct {
	blockID  uuid.UUID
	sequence int64
}

// mockBlockRepo backs ISBNBlockRepository with maps. SaveGenerated is
// idempotent per (block, sequence) like the real unique index, and can be
// told to fail after N calls to exercise resume behavior.
type mockBlockRepo struct {
	blocks map[uuid.UUID]*catalog.ISBNBlock
	pool   map[poolKey]*catalog.PooledISBN

	saveGeneratedCalls  int
	failSaveGeneratedAt int
}

func newMockBlockRepo() *mockBlockRepo {
	return &mockBlockRepo{
		blocks: make(map[uuid.UUID]*catalog.ISBNBlock),
		pool:   make(map[poolKey]*catalog.PooledISBN),
	}
}

func (r *mockBlockRepo) Save(ctx context.Context, block *catalog.ISBNBlock) error {
	copied := *block
	r.blocks[block.ID] = &copied
	return nil
}

func (r *mockBlockRepo) FindByID(ctx context.Context, id uuid.UUID) (*catalog.ISBNBlock, error) {
	if b, ok := r.blocks[id]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *mockBlockRepo) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.ISBNBlock, error) {
	b, ok := r.blocks[id]
	if !ok || b.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *mockBlockRepo) FindByPrefix(ctx context.Context, tenantID uuid.UUID, prefix string) (*catalog.ISBNBlock, error) {
	for _, b := range r.blocks {
		if b.TenantID == tenantID && b.Prefix == prefix {
			copied := *b
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *mockBlockRepo) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.ISBNBlock, error) {
	var result []catalog.ISBNBlock
	for _, b := range r.blocks {
		if b.TenantID == tenantID {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (r *mockBlockRepo) FindResumable(ctx context.Context, limit int) ([]catalog.ISBNBlock, error) {
	var result []catalog.ISBNBlock
	for _, b := range r.blocks {
		if b.Status == catalog.BlockStatusPending || b.Status == catalog.BlockStatusFailed {
			result = append(result, *b)
			if len(result) >= limit {
				break
			}
		}
	}
	return result, nil
}

func (r *mockBlockRepo) SaveGenerated(ctx context.Context, tenantID, blockID uuid.UUID, isbns []catalog.PooledISBN) error {
	r.saveGeneratedCalls++
	if r.failSaveGeneratedAt > 0 && r.saveGeneratedCalls == r.failSaveGeneratedAt {
		return errors.New("connection reset")
	}
	for i := range isbns {
		key := poolKey{blockID, isbns[i].Sequence}
		if _, exists := r.pool[key]; exists {
			continue
		}
		copied := isbns[i]
		r.pool[key] = &copied
	}
	return nil
}

func (r *mockBlockRepo) CountGenerated(ctx context.Context, blockID uuid.UUID) (int64, error) {
	var count int64
	for key := range r.pool {
		if key.blockID == blockID {
			count++
		}
	}
	return count, nil
}

func (r *mockBlockRepo) NextAvailable(ctx context.Context, tenantID uuid.UUID) (*catalog.PooledISBN, error) {
	var candidates []*catalog.PooledISBN
	for _, p := range r.pool {
		if p.TenantID == tenantID && !p.Assigned {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil, shared.ErrNotFound
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Sequence < candidates[j].Sequence })
	candidates[0].Assigned = true
	copied := *candidates[0]
	return &copied, nil
}

func TestISBNPoolService_RequestBlock(t *testing.T) {
	repo := newMockBlockRepo()
	service := NewISBNPoolService(repo, zap.NewNop())
	tenantID := uuid.New()

	block, err := service.RequestBlock(context.Background(), RequestBlockRequest{
		TenantID:  tenantID,
		Prefix:    "9781234567",
		BlockSize: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, catalog.BlockStatusPending, block.Status)

	// Same prefix cannot be expanded twice
	_, err = service.RequestBlock(context.Background(), RequestBlockRequest{
		TenantID:  tenantID,
		Prefix:    "9781234567",
		BlockSize: 10,
	})
	assert.Error(t, err)

	// Invalid sizes are rejected before anything persists
	_, err = service.RequestBlock(context.Background(), RequestBlockRequest{
		TenantID:  tenantID,
		Prefix:    "9787654321",
		BlockSize: 25,
	})
	assert.True(t, shared.IsValidationError(err))
}

func TestISBNPoolService_RunGeneration(t *testing.T) {
	repo := newMockBlockRepo()
	service := NewISBNPoolService(repo, zap.NewNop())
	tenantID := uuid.New()

	block, err := service.RequestBlock(context.Background(), RequestBlockRequest{
		TenantID:  tenantID,
		Prefix:    "9781234567",
		BlockSize: 100,
	})
	require.NoError(t, err)

	require.NoError(t, service.RunGeneration(context.Background(), tenantID, block.ID))

	saved, err := repo.FindByID(context.Background(), block.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.BlockStatusCompleted, saved.Status)
	assert.Equal(t, int64(100), saved.GeneratedCount)

	count, err := repo.CountGenerated(context.Background(), block.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), count)

	// Every pooled ISBN is distinct and passes check digit validation
	seen := make(map[string]bool)
	for _, p := range repo.pool {
		require.NoError(t, catalog.ValidateISBN13(p.ISBN))
		assert.False(t, seen[p.ISBN])
		seen[p.ISBN] = true
	}
}

func TestISBNPoolService_ResumeAfterFailure(t *testing.T) {
	repo := newMockBlockRepo()
	service := NewISBNPoolService(repo, zap.NewNop())
	tenantID := uuid.New()

	block, err := service.RequestBlock(context.Background(), RequestBlockRequest{
		TenantID:  tenantID,
		Prefix:    "978123456",
		BlockSize: 1000,
	})
	require.NoError(t, err)

	// First run persists one batch of 500, then dies on the second
	repo.failSaveGeneratedAt = 2
	err = service.RunGeneration(context.Background(), tenantID, block.ID)
	require.Error(t, err)

	failed, err := repo.FindByID(context.Background(), block.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.BlockStatusFailed, failed.Status)
	assert.Equal(t, int64(500), failed.GeneratedCount)
	assert.NotEmpty(t, failed.FailureReason)

	// Retry picks up at the checkpoint and finishes the block
	repo.failSaveGeneratedAt = 0
	require.NoError(t, service.RunGeneration(context.Background(), tenantID, block.ID))

	completed, err := repo.FindByID(context.Background(), block.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.BlockStatusCompleted, completed.Status)
	assert.Equal(t, int64(1000), completed.GeneratedCount)

	count, err := repo.CountGenerated(context.Background(), block.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), count)
}

func TestISBNPoolService_ResumePending(t *testing.T) {
	repo := newMockBlockRepo()
	service := NewISBNPoolService(repo, zap.NewNop())
	tenantID := uuid.New()

	block, err := service.RequestBlock(context.Background(), RequestBlockRequest{
		TenantID:  tenantID,
		Prefix:    "9781234567",
		BlockSize: 10,
	})
	require.NoError(t, err)

	require.NoError(t, service.ResumePending(context.Background(), 10))

	saved, err := repo.FindByID(context.Background(), block.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.BlockStatusCompleted, saved.Status)
}

func TestISBNPoolService_ClaimISBN(t *testing.T) {
	repo := newMockBlockRepo()
	service := NewISBNPoolService(repo, zap.NewNop())
	tenantID := uuid.New()

	block, err := service.RequestBlock(context.Background(), RequestBlockRequest{
		TenantID:  tenantID,
		Prefix:    "9781234567",
		BlockSize: 10,
	})
	require.NoError(t, err)
	require.NoError(t, service.RunGeneration(context.Background(), tenantID, block.ID))

	first, err := service.ClaimISBN(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), first.Sequence)

	second, err := service.ClaimISBN(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), second.Sequence)
	assert.NotEqual(t, first.ISBN, second.ISBN)

	// An empty pool for another tenant yields not found
	_, err = service.ClaimISBN(context.Background(), uuid.New())
	assert.Equal(t, shared.ErrNotFound, err)
}

func TestISBNPoolService_RunGenerationOnCompletedBlockFails(t *testing.T) {
	repo := newMockBlockRepo()
	service := NewISBNPoolService(repo, zap.NewNop())
	tenantID := uuid.New()

	block, err := service.RequestBlock(context.Background(), RequestBlockRequest{
		TenantID:  tenantID,
		Prefix:    "9781234567",
		BlockSize: 10,
	})
	require.NoError(t, err)
	require.NoError(t, service.RunGeneration(context.Background(), tenantID, block.ID))

	err = service.RunGeneration(context.Background(), tenantID, block.ID)
	require.Error(t, err)

	// The completed block and its pool are untouched
	saved, err := repo.FindByID(context.Background(), block.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.BlockStatusCompleted, saved.Status)
}
