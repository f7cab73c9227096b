package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/inkwell/backend/internal/domain/webhook"
	"github.com/inkwell/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSubscriptionRepository implements SubscriptionRepository using GORM
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormSubscriptionRepository creates a new GormSubscriptionRepository
func NewGormSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

// Save persists a subscription
func (r *GormSubscriptionRepository) Save(ctx context.Context, sub *webhook.Subscription) error {
	model := models.SubscriptionModelFromDomain(sub)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return err
	}
	sub.ClearDomainEvents()
	return nil
}

// FindByID finds a subscription by its ID
func (r *GormSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*webhook.Subscription, error) {
	var model models.SubscriptionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a subscription by ID within a tenant
func (r *GormSubscriptionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*webhook.Subscription, error) {
	var model models.SubscriptionModel
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

// FindAllForTenant finds all subscriptions for a tenant
func (r *GormSubscriptionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]webhook.Subscription, error) {
	var subModels []models.SubscriptionModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.SubscriptionModel{}).Where("tenant_id = ?", tenantID), filter)

	if err := query.Find(&subModels).Error; err != nil {
		return nil, err
	}

	subs := make([]webhook.Subscription, len(subModels))
	for i, model := range subModels {
		subs[i] = *model.ToDomain()
	}
	return subs, nil
}

// FindActiveForEvent returns the tenant's active subscriptions whose event
// type filter matches. An empty filter list is a catch-all; the final match
// check runs in the domain so JSONB representation quirks cannot widen it.
func (r *GormSubscriptionRepository) FindActiveForEvent(ctx context.Context, tenantID uuid.UUID, eventType string) ([]webhook.Subscription, error) {
	var subModels []models.SubscriptionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, webhook.SubscriptionStatusActive).
		Find(&subModels).Error; err != nil {
		return nil, err
	}

	matched := make([]webhook.Subscription, 0, len(subModels))
	for i := range subModels {
		sub := subModels[i].ToDomain()
		if sub.EventTypes.Matches(eventType) {
			matched = append(matched, *sub)
		}
	}
	return matched, nil
}

func (r *GormSubscriptionRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "name":
			query = query.Where("name ILIKE ?", "%"+value.(string)+"%")
		}
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, SubscriptionSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// Ensure GormSubscriptionRepository implements SubscriptionRepository
var _ webhook.SubscriptionRepository = (*GormSubscriptionRepository)(nil)
