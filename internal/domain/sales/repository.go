package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/royalty"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// LifetimeSales is the cumulative sales picture for a title/format strictly
// before a cutoff date. It is always recomputed from the ledger, never
// stored; a title with no history yields the zero value, not an error.
type LifetimeSales struct {
	Units   int64
	Revenue decimal.Decimal
}

// TransactionRepository persists the sales/returns ledger
type TransactionRepository interface {
	Save(ctx context.Context, txn *Transaction) error
	SaveBatch(ctx context.Context, txns []*Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Transaction, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Transaction, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
}

// PeriodAggregator produces the per-period sales and returns aggregates a
// statement run consumes. Only approved returns contribute to the returns
// aggregate.
type PeriodAggregator interface {
	// PeriodSales sums sale units and revenue for a title/format within the
	// half-open period
	PeriodSales(ctx context.Context, tenantID, titleID uuid.UUID, format royalty.Format, period royalty.Period) (royalty.PeriodSales, error)

	// PeriodReturns sums approved return units and revenue for a
	// title/format within the half-open period
	PeriodReturns(ctx context.Context, tenantID, titleID uuid.UUID, format royalty.Format, period royalty.Period) (royalty.PeriodReturns, error)

	// SoldFormats lists the formats with any ledger activity for a title in
	// the period, in canonical format order
	SoldFormats(ctx context.Context, tenantID, titleID uuid.UUID, period royalty.Period) ([]royalty.Format, error)
}

// LifetimeAggregator supplies cumulative sales before a cutoff for
// lifetime-escalating rate tables. Tenant-scoped and admin callers share the
// same aggregation semantics; the admin variant exists for cross-tenant
// system jobs.
type LifetimeAggregator interface {
	LifetimeBefore(ctx context.Context, tenantID, titleID uuid.UUID, format royalty.Format, cutoff time.Time) (LifetimeSales, error)
}

// AdminLifetimeAggregator is the cross-tenant variant of LifetimeAggregator
type AdminLifetimeAggregator interface {
	LifetimeBeforeForAnyTenant(ctx context.Context, titleID uuid.UUID, format royalty.Format, cutoff time.Time) (LifetimeSales, error)
}
