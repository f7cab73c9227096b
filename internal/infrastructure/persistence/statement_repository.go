package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/royalty"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/inkwell/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStatementRepository implements StatementRepository using GORM
type GormStatementRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormStatementRepository creates a new GormStatementRepository
func NewGormStatementRepository(db *gorm.DB) *GormStatementRepository {
	return &GormStatementRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormStatementRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// Save persists the statement and its pending domain events in one
// transaction, then clears the events from the aggregate
func (r *GormStatementRepository) Save(ctx context.Context, statement *royalty.Statement) error {
	model := models.StatementModelFromDomain(statement)
	events := statement.GetDomainEvents()

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

	statement.ClearDomainEvents()
	return nil
}

// FindByID finds a statement by its ID
func (r *GormStatementRepository) FindByID(ctx context.Context, id uuid.UUID) (*royalty.Statement, error) {
	var model models.StatementModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a statement by ID within a tenant
func (r *GormStatementRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*royalty.Statement, error) {
	var model models.StatementModel
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

// FindByAuthorAndPeriod returns the non-superseded statement for an
// author/title/period, or shared.ErrNotFound
func (r *GormStatementRepository) FindByAuthorAndPeriod(ctx context.Context, tenantID, authorID, titleID uuid.UUID, periodStart time.Time) (*royalty.Statement, error) {
	var model models.StatementModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND author_id = ? AND title_id = ? AND period_start = ? AND status <> ?",
			tenantID, authorID, titleID, periodStart, royalty.StatementStatusSuperseded).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all statements for a tenant
func (r *GormStatementRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]royalty.Statement, error) {
	var statementModels []models.StatementModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.StatementModel{}).Where("tenant_id = ?", tenantID), filter)

	if err := query.Find(&statementModels).Error; err != nil {
		return nil, err
	}

	statements := make([]royalty.Statement, len(statementModels))
	for i, model := range statementModels {
		statements[i] = *model.ToDomain()
	}
	return statements, nil
}

// CountForTenant counts statements for a tenant matching the filter
func (r *GormStatementRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.StatementModel{}).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumNetPayableByAuthor aggregates net payable per author over all
// non-superseded statements whose period start falls in the calendar year.
// The sum is extracted from the calculations JSONB document.
func (r *GormStatementRepository) SumNetPayableByAuthor(ctx context.Context, tenantID uuid.UUID, year int) ([]royalty.AuthorNetPayable, error) {
	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := yearStart.AddDate(1, 0, 0)

	var rows []royalty.AuthorNetPayable
	err := r.db.WithContext(ctx).
		Model(&models.StatementModel{}).
		Select("author_id, SUM((calculations->>'net_payable')::numeric) AS net_payable").
		Where("tenant_id = ? AND status <> ? AND period_start >= ? AND period_start < ?",
			tenantID, royalty.StatementStatusSuperseded, yearStart, yearEnd).
		Group("author_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *GormStatementRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, StatementSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

func (r *GormStatementRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "author_id":
			query = query.Where("author_id = ?", value)
		case "title_id":
			query = query.Where("title_id = ?", value)
		case "contract_id":
			query = query.Where("contract_id = ?", value)
		case "period_start":
			query = query.Where("period_start = ?", value)
		}
	}
	return query
}

// Ensure GormStatementRepository implements StatementRepository
var _ royalty.StatementRepository = (*GormStatementRepository)(nil)
