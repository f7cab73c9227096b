package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/catalog"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/inkwell/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTitleRepository implements TitleRepository using GORM
type GormTitleRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormTitleRepository creates a new GormTitleRepository
func NewGormTitleRepository(db *gorm.DB) *GormTitleRepository {
	return &GormTitleRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormTitleRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// Save persists a title and its pending domain events in one transaction
func (r *GormTitleRepository) Save(ctx context.Context, title *catalog.Title) error {
	model := models.TitleModelFromDomain(title)
	events := title.GetDomainEvents()

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

	title.ClearDomainEvents()
	return nil
}

// FindByID finds a title by its ID
func (r *GormTitleRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Title, error) {
	var model models.TitleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a title by ID within a tenant
func (r *GormTitleRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Title, error) {
	var model models.TitleModel
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

// FindAllForTenant finds all titles for a tenant
func (r *GormTitleRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Title, error) {
	var titleModels []models.TitleModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.TitleModel{}).Where("tenant_id = ?", tenantID), filter)

	if err := query.Find(&titleModels).Error; err != nil {
		return nil, err
	}

	titles := make([]catalog.Title, len(titleModels))
	for i, model := range titleModels {
		titles[i] = *model.ToDomain()
	}
	return titles, nil
}

// CountForTenant counts titles for a tenant matching the filter
func (r *GormTitleRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.TitleModel{}).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormTitleRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, TitleSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

func (r *GormTitleRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "name":
			query = query.Where("name ILIKE ?", "%"+value.(string)+"%")
		}
	}
	return query
}

// Ensure GormTitleRepository implements TitleRepository
var _ catalog.TitleRepository = (*GormTitleRepository)(nil)
