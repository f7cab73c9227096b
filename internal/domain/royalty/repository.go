package royalty

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AuthorNetPayable is one row of the yearly tax-reporting aggregation
type AuthorNetPayable struct {
	AuthorID   uuid.UUID
	NetPayable decimal.Decimal
}

// StatementRepository persists royalty statements
type StatementRepository interface {
	// Save persists the statement and its pending domain events atomically
	// (transactional outbox)
	Save(ctx context.Context, statement *Statement) error

	FindByID(ctx context.Context, id uuid.UUID) (*Statement, error)
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Statement, error)

	// FindByAuthorAndPeriod returns the non-superseded statement for an
	// author/title/period, or shared.ErrNotFound
	FindByAuthorAndPeriod(ctx context.Context, tenantID, authorID, titleID uuid.UUID, periodStart time.Time) (*Statement, error)

	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Statement, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// SumNetPayableByAuthor aggregates net payable per author over all
	// non-superseded statements whose period start falls in the calendar
	// year. Used by tax reporting against the $10 royalty threshold.
	SumNetPayableByAuthor(ctx context.Context, tenantID uuid.UUID, year int) ([]AuthorNetPayable, error)
}
