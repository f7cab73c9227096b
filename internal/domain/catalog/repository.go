package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/shared"
)

// TitleRepository persists catalog titles
type TitleRepository interface {
	Save(ctx context.Context, title *Title) error
	FindByID(ctx context.Context, id uuid.UUID) (*Title, error)
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Title, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Title, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
}

// ContractRepository persists royalty contracts
type ContractRepository interface {
	Save(ctx context.Context, contract *Contract) error
	FindByID(ctx context.Context, id uuid.UUID) (*Contract, error)
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Contract, error)

	// FindActiveByTitle returns every active contract on a title, in the
	// title's ownership listing order
	FindActiveByTitle(ctx context.Context, tenantID, titleID uuid.UUID) ([]Contract, error)

	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Contract, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
}

// PooledISBN is one generated, assignable ISBN in the tenant's pool
type PooledISBN struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	BlockID  uuid.UUID
	ISBN     string
	Sequence int64
	Assigned bool
}

// ISBNBlockRepository persists prefix blocks and their generated pool.
// SaveGenerated must be idempotent per (block, sequence) so a resumed run
// that overlaps one batch does not duplicate pool records.
type ISBNBlockRepository interface {
	Save(ctx context.Context, block *ISBNBlock) error
	FindByID(ctx context.Context, id uuid.UUID) (*ISBNBlock, error)
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ISBNBlock, error)
	FindByPrefix(ctx context.Context, tenantID uuid.UUID, prefix string) (*ISBNBlock, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ISBNBlock, error)

	// FindResumable returns blocks in pending or failed state, oldest first
	FindResumable(ctx context.Context, limit int) ([]ISBNBlock, error)

	SaveGenerated(ctx context.Context, tenantID, blockID uuid.UUID, isbns []PooledISBN) error
	CountGenerated(ctx context.Context, blockID uuid.UUID) (int64, error)

	// NextAvailable claims the lowest-sequence unassigned ISBN in the
	// tenant's pool and marks it assigned
	NextAvailable(ctx context.Context, tenantID uuid.UUID) (*PooledISBN, error)
}
