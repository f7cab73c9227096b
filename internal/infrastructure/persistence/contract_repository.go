package persistence

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/catalog"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/inkwell/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormContractRepository implements ContractRepository using GORM
type GormContractRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormContractRepository creates a new GormContractRepository
func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormContractRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// Save persists a contract and its pending domain events in one transaction
func (r *GormContractRepository) Save(ctx context.Context, contract *catalog.Contract) error {
	model := models.ContractModelFromDomain(contract)
	events := contract.GetDomainEvents()

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

	contract.ClearDomainEvents()
	return nil
}

// FindByID finds a contract by its ID
func (r *GormContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Contract, error) {
	var model models.ContractModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a contract by ID within a tenant
func (r *GormContractRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Contract, error) {
	var model models.ContractModel
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

// FindActiveByTitle returns every active contract on a title, ordered by the
// title's ownership listing. The listing order matters: the first-listed
// owner absorbs rounding remainders in co-author splits.
func (r *GormContractRepository) FindActiveByTitle(ctx context.Context, tenantID, titleID uuid.UUID) ([]catalog.Contract, error) {
	var titleModel models.TitleModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, titleID).
		First(&titleModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	var contractModels []models.ContractModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND title_id = ? AND status = ?", tenantID, titleID, catalog.ContractStatusActive).
		Find(&contractModels).Error; err != nil {
		return nil, err
	}

	contracts := make([]catalog.Contract, len(contractModels))
	for i, model := range contractModels {
		contracts[i] = *model.ToDomain()
	}

	ownerships := titleModel.Ownerships
	sort.SliceStable(contracts, func(i, j int) bool {
		return ownerships.IndexOf(contracts[i].AuthorID) < ownerships.IndexOf(contracts[j].AuthorID)
	})

	return contracts, nil
}

// FindAllForTenant finds all contracts for a tenant
func (r *GormContractRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Contract, error) {
	var contractModels []models.ContractModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ContractModel{}).Where("tenant_id = ?", tenantID), filter)

	if err := query.Find(&contractModels).Error; err != nil {
		return nil, err
	}

	contracts := make([]catalog.Contract, len(contractModels))
	for i, model := range contractModels {
		contracts[i] = *model.ToDomain()
	}
	return contracts, nil
}

// CountForTenant counts contracts for a tenant matching the filter
func (r *GormContractRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.ContractModel{}).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormContractRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, ContractSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

func (r *GormContractRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "title_id":
			query = query.Where("title_id = ?", value)
		case "author_id":
			query = query.Where("author_id = ?", value)
		}
	}
	return query
}

// Ensure GormContractRepository implements ContractRepository
var _ catalog.ContractRepository = (*GormContractRepository)(nil)
