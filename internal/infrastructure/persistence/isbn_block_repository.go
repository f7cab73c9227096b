package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/catalog"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/inkwell/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormISBNBlockRepository implements ISBNBlockRepository using GORM
type GormISBNBlockRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormISBNBlockRepository creates a new GormISBNBlockRepository
func NewGormISBNBlockRepository(db *gorm.DB) *GormISBNBlockRepository {
	return &GormISBNBlockRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormISBNBlockRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// Save persists a block and its pending domain events in one transaction
func (r *GormISBNBlockRepository) Save(ctx context.Context, block *catalog.ISBNBlock) error {
	model := models.ISBNBlockModelFromDomain(block)
	events := block.GetDomainEvents()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(model).Error; err != nil {
			return err
		}
		if r.outboxSaver != nil && len(events) > 0 {
			if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	block.ClearDomainEvents()
	return nil
}

// FindByID finds a block by its ID
func (r *GormISBNBlockRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.ISBNBlock, error) {
	var model models.ISBNBlockModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a block by ID within a tenant
func (r *GormISBNBlockRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.ISBNBlock, error) {
	var model models.ISBNBlockModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPrefix finds a block by its prefix within a tenant
func (r *GormISBNBlockRepository) FindByPrefix(ctx context.Context, tenantID uuid.UUID, prefix string) (*catalog.ISBNBlock, error) {
	var model models.ISBNBlockModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND prefix = ?", tenantID, prefix).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all blocks for a tenant
func (r *GormISBNBlockRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.ISBNBlock, error) {
	var blockModels []models.ISBNBlockModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ISBNBlockModel{}).Where("tenant_id = ?", tenantID), filter)

	if err := query.Find(&blockModels).Error; err != nil {
		return nil, err
	}

	blocks := make([]catalog.ISBNBlock, len(blockModels))
	for i, model := range blockModels {
		blocks[i] = *model.ToDomain()
	}
	return blocks, nil
}

// FindResumable returns blocks in pending or failed state, oldest first
func (r *GormISBNBlockRepository) FindResumable(ctx context.Context, limit int) ([]catalog.ISBNBlock, error) {
	var blockModels []models.ISBNBlockModel
	if err := r.db.WithContext(ctx).
		Where("status IN ?", []catalog.BlockStatus{catalog.BlockStatusPending, catalog.BlockStatusFailed}).
		Order("created_at ASC").
		Limit(limit).
		Find(&blockModels).Error; err != nil {
		return nil, err
	}

	blocks := make([]catalog.ISBNBlock, len(blockModels))
	for i, model := range blockModels {
		blocks[i] = *model.ToDomain()
	}
	return blocks, nil
}

// SaveGenerated persists a batch of generated ISBNs. The insert is
// idempotent per (block_id, sequence): a resumed run that replays an already
// persisted batch is a no-op rather than a duplicate.
func (r *GormISBNBlockRepository) SaveGenerated(ctx context.Context, tenantID, blockID uuid.UUID, isbns []catalog.PooledISBN) error {
	if len(isbns) == 0 {
		return nil
	}

	poolModels := make([]*models.PooledISBNModel, len(isbns))
	for i := range isbns {
		poolModels[i] = models.PooledISBNModelFromDomain(&isbns[i])
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "block_id"}, {Name: "sequence"}},
			DoNothing: true,
		}).
		Create(poolModels).Error
}

// CountGenerated counts the pool records persisted for a block
func (r *GormISBNBlockRepository) CountGenerated(ctx context.Context, blockID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PooledISBNModel{}).
		Where("block_id = ?", blockID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// NextAvailable claims the lowest-sequence unassigned ISBN in the tenant's
// pool and marks it assigned. The row lock with SKIP LOCKED lets concurrent
// claimers take different rows instead of serializing on the first one.
func (r *GormISBNBlockRepository) NextAvailable(ctx context.Context, tenantID uuid.UUID) (*catalog.PooledISBN, error) {
	var model models.PooledISBNModel

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("tenant_id = ? AND assigned = ?", tenantID, false).
			Order("sequence ASC").
			First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		model.Assigned = true
		return tx.Model(&models.PooledISBNModel{}).
			Where("id = ?", model.ID).
			Update("assigned", true).Error
	})
	if err != nil {
		return nil, err
	}

	return model.ToDomain(), nil
}

func (r *GormISBNBlockRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "prefix":
			query = query.Where("prefix = ?", value)
		}
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, BlockSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// Ensure GormISBNBlockRepository implements ISBNBlockRepository
var _ catalog.ISBNBlockRepository = (*GormISBNBlockRepository)(nil)
