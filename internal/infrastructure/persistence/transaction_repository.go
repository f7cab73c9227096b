package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/royalty"
	"github.com/inkwell/backend/internal/domain/sales"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/inkwell/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormTransactionRepository implements TransactionRepository plus the period
// and lifetime aggregators using GORM. Aggregations run directly against the
// ledger table; nothing is precomputed or cached.
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// Save persists a transaction
func (r *GormTransactionRepository) Save(ctx context.Context, txn *sales.Transaction) error {
	model := models.TransactionModelFromDomain(txn)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return err
	}
	txn.ClearDomainEvents()
	return nil
}

// SaveBatch persists a batch of transactions atomically: either every entry
// commits or none do
func (r *GormTransactionRepository) SaveBatch(ctx context.Context, txns []*sales.Transaction) error {
	if len(txns) == 0 {
		return nil
	}

	txnModels := make([]*models.TransactionModel, len(txns))
	for i, txn := range txns {
		txnModels[i] = models.TransactionModelFromDomain(txn)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(txnModels).Error
	})
	if err != nil {
		return err
	}

	for _, txn := range txns {
		txn.ClearDomainEvents()
	}
	return nil
}

// FindByID finds a transaction by its ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Transaction, error) {
	var model models.TransactionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a transaction by ID within a tenant
func (r *GormTransactionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sales.Transaction, error) {
	var model models.TransactionModel
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

// FindAllForTenant finds all transactions for a tenant
func (r *GormTransactionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]sales.Transaction, error) {
	var txnModels []models.TransactionModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.TransactionModel{}).Where("tenant_id = ?", tenantID), filter)

	if err := query.Find(&txnModels).Error; err != nil {
		return nil, err
	}

	txns := make([]sales.Transaction, len(txnModels))
	for i, model := range txnModels {
		txns[i] = *model.ToDomain()
	}
	return txns, nil
}

// CountForTenant counts transactions for a tenant matching the filter
func (r *GormTransactionRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.TransactionModel{}).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ledgerSums is the scan target for SUM queries against the ledger
type ledgerSums struct {
	Units   int64
	Revenue decimal.Decimal
}

// PeriodSales sums sale units and revenue for a title/format within the
// half-open period [start, end)
func (r *GormTransactionRepository) PeriodSales(ctx context.Context, tenantID, titleID uuid.UUID, format royalty.Format, period royalty.Period) (royalty.PeriodSales, error) {
	var sums ledgerSums
	err := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Select("COALESCE(SUM(units), 0) AS units, COALESCE(SUM(revenue), 0) AS revenue").
		Where("tenant_id = ? AND title_id = ? AND format = ? AND type = ? AND occurred_at >= ? AND occurred_at < ?",
			tenantID, titleID, format, sales.TransactionTypeSale, period.Start, period.End).
		Scan(&sums).Error
	if err != nil {
		return royalty.PeriodSales{}, err
	}
	return royalty.PeriodSales{Units: sums.Units, Revenue: sums.Revenue}, nil
}

// PeriodReturns sums approved return units and revenue for a title/format
// within the half-open period. Pending and rejected returns are excluded.
func (r *GormTransactionRepository) PeriodReturns(ctx context.Context, tenantID, titleID uuid.UUID, format royalty.Format, period royalty.Period) (royalty.PeriodReturns, error) {
	var sums ledgerSums
	err := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Select("COALESCE(SUM(units), 0) AS units, COALESCE(SUM(revenue), 0) AS revenue").
		Where("tenant_id = ? AND title_id = ? AND format = ? AND type = ? AND return_status = ? AND occurred_at >= ? AND occurred_at < ?",
			tenantID, titleID, format, sales.TransactionTypeReturn, sales.ReturnStatusApproved, period.Start, period.End).
		Scan(&sums).Error
	if err != nil {
		return royalty.PeriodReturns{}, err
	}
	return royalty.PeriodReturns{Units: sums.Units, Revenue: sums.Revenue}, nil
}

// SoldFormats lists the formats with any ledger activity for a title in the
// period, in canonical format order
func (r *GormTransactionRepository) SoldFormats(ctx context.Context, tenantID, titleID uuid.UUID, period royalty.Period) ([]royalty.Format, error) {
	var activeFormats []royalty.Format
	err := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Distinct("format").
		Where("tenant_id = ? AND title_id = ? AND occurred_at >= ? AND occurred_at < ?",
			tenantID, titleID, period.Start, period.End).
		Pluck("format", &activeFormats).Error
	if err != nil {
		return nil, err
	}

	active := make(map[royalty.Format]bool, len(activeFormats))
	for _, f := range activeFormats {
		active[f] = true
	}

	ordered := make([]royalty.Format, 0, len(activeFormats))
	for _, f := range royalty.AllFormats() {
		if active[f] {
			ordered = append(ordered, f)
		}
	}
	return ordered, nil
}

// LifetimeBefore sums net lifetime units and revenue (sales minus approved
// returns) for a title/format strictly before the cutoff. A title with no
// history yields the zero value.
func (r *GormTransactionRepository) LifetimeBefore(ctx context.Context, tenantID, titleID uuid.UUID, format royalty.Format, cutoff time.Time) (sales.LifetimeSales, error) {
	return r.lifetimeBefore(ctx, &tenantID, titleID, format, cutoff)
}

// LifetimeBeforeForAnyTenant is the cross-tenant variant for system jobs
func (r *GormTransactionRepository) LifetimeBeforeForAnyTenant(ctx context.Context, titleID uuid.UUID, format royalty.Format, cutoff time.Time) (sales.LifetimeSales, error) {
	return r.lifetimeBefore(ctx, nil, titleID, format, cutoff)
}

// lifetimeBefore runs the two lifetime sums; a nil tenantID skips tenant
// scoping for cross-tenant system jobs
func (r *GormTransactionRepository) lifetimeBefore(ctx context.Context, tenantID *uuid.UUID, titleID uuid.UUID, format royalty.Format, cutoff time.Time) (sales.LifetimeSales, error) {
	var sold, returned ledgerSums

	salesQuery := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Select("COALESCE(SUM(units), 0) AS units, COALESCE(SUM(revenue), 0) AS revenue").
		Where("title_id = ? AND format = ? AND type = ? AND occurred_at < ?",
			titleID, format, sales.TransactionTypeSale, cutoff)
	if tenantID != nil {
		salesQuery = salesQuery.Where("tenant_id = ?", *tenantID)
	}
	if err := salesQuery.Scan(&sold).Error; err != nil {
		return sales.LifetimeSales{}, err
	}

	returnsQuery := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Select("COALESCE(SUM(units), 0) AS units, COALESCE(SUM(revenue), 0) AS revenue").
		Where("title_id = ? AND format = ? AND type = ? AND return_status = ? AND occurred_at < ?",
			titleID, format, sales.TransactionTypeReturn, sales.ReturnStatusApproved, cutoff)
	if tenantID != nil {
		returnsQuery = returnsQuery.Where("tenant_id = ?", *tenantID)
	}
	if err := returnsQuery.Scan(&returned).Error; err != nil {
		return sales.LifetimeSales{}, err
	}

	return sales.LifetimeSales{
		Units:   sold.Units - returned.Units,
		Revenue: sold.Revenue.Sub(returned.Revenue),
	}, nil
}

func (r *GormTransactionRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, TransactionSortFields, "occurred_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

func (r *GormTransactionRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "title_id":
			query = query.Where("title_id = ?", value)
		case "format":
			query = query.Where("format = ?", value)
		case "type":
			query = query.Where("type = ?", value)
		case "return_status":
			query = query.Where("return_status = ?", value)
		case "channel":
			query = query.Where("channel = ?", value)
		}
	}
	return query
}

// Ensure GormTransactionRepository implements the ledger interfaces
var (
	_ sales.TransactionRepository   = (*GormTransactionRepository)(nil)
	_ sales.PeriodAggregator        = (*GormTransactionRepository)(nil)
	_ sales.LifetimeAggregator      = (*GormTransactionRepository)(nil)
	_ sales.AdminLifetimeAggregator = (*GormTransactionRepository)(nil)
)
