package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTenantProvider derives the set of schedulable tenants from the data
// itself: a tenant with at least one active contract gets statement runs.
// There is no tenant registry to consult; tenancy here is a scoping key,
// not an entity.
type GormTenantProvider struct {
	db *gorm.DB
}

// NewGormTenantProvider creates a new GormTenantProvider
func NewGormTenantProvider(db *gorm.DB) *GormTenantProvider {
	return &GormTenantProvider{db: db}
}

// GetAllActiveTenantIDs returns the distinct tenants holding active royalty
// contracts
func (p *GormTenantProvider) GetAllActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var tenantIDs []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("royalty_contracts").
		Where("status = ?", "ACTIVE").
		Distinct("tenant_id").
		Pluck("tenant_id", &tenantIDs).Error
	if err != nil {
		return nil, err
	}
	return tenantIDs, nil
}
