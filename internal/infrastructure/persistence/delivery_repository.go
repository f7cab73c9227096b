package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/inkwell/backend/internal/domain/webhook"
	"github.com/inkwell/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormDeliveryRepository implements DeliveryRepository using GORM
type GormDeliveryRepository struct {
	db *gorm.DB
}

// NewGormDeliveryRepository creates a new GormDeliveryRepository
func NewGormDeliveryRepository(db *gorm.DB) *GormDeliveryRepository {
	return &GormDeliveryRepository{db: db}
}

// Save persists a delivery
func (r *GormDeliveryRepository) Save(ctx context.Context, delivery *webhook.Delivery) error {
	model := models.DeliveryModelFromDomain(delivery)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return err
	}
	delivery.ClearDomainEvents()
	return nil
}

// FindByID finds a delivery by its ID
func (r *GormDeliveryRepository) FindByID(ctx context.Context, id uuid.UUID) (*webhook.Delivery, error) {
	var model models.DeliveryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all deliveries for a tenant
func (r *GormDeliveryRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]webhook.Delivery, error) {
	var deliveryModels []models.DeliveryModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.DeliveryModel{}).Where("tenant_id = ?", tenantID), filter)

	if err := query.Find(&deliveryModels).Error; err != nil {
		return nil, err
	}

	deliveries := make([]webhook.Delivery, len(deliveryModels))
	for i, model := range deliveryModels {
		deliveries[i] = *model.ToDomain()
	}
	return deliveries, nil
}

// FindDue returns non-terminal deliveries whose next attempt is at or before
// now, oldest first
func (r *GormDeliveryRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]webhook.Delivery, error) {
	var deliveryModels []models.DeliveryModel
	if err := r.db.WithContext(ctx).
		Where("status IN ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?)",
			[]webhook.DeliveryStatus{webhook.DeliveryStatusPending, webhook.DeliveryStatusFailed}, now).
		Order("next_attempt_at ASC NULLS FIRST").
		Limit(limit).
		Find(&deliveryModels).Error; err != nil {
		return nil, err
	}

	deliveries := make([]webhook.Delivery, len(deliveryModels))
	for i, model := range deliveryModels {
		deliveries[i] = *model.ToDomain()
	}
	return deliveries, nil
}

func (r *GormDeliveryRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "subscription_id":
			query = query.Where("subscription_id = ?", value)
		case "event_type":
			query = query.Where("event_type = ?", value)
		}
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, DeliverySortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// Ensure GormDeliveryRepository implements DeliveryRepository
var _ webhook.DeliveryRepository = (*GormDeliveryRepository)(nil)
