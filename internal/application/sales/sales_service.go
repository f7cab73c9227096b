package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/catalog"
	"github.com/inkwell/backend/internal/domain/royalty"
	"github.com/inkwell/backend/internal/domain/sales"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/inkwell/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SalesService records sale and return transactions into the ledger and
// drives the return review workflow.
type SalesService struct {
	txnRepo   sales.TransactionRepository
	titleRepo catalog.TitleRepository
	logger    *zap.Logger
}

// NewSalesService creates a new SalesService
func NewSalesService(txnRepo sales.TransactionRepository, titleRepo catalog.TitleRepository, logger *zap.Logger) *SalesService {
	return &SalesService{
		txnRepo:   txnRepo,
		titleRepo: titleRepo,
		logger:    logger,
	}
}

// RecordTransactionRequest carries one ledger entry
type RecordTransactionRequest struct {
	TenantID   uuid.UUID
	TitleID    uuid.UUID
	Format     royalty.Format
	Type       sales.TransactionType
	Units      int64
	Revenue    decimal.Decimal
	Channel    string
	OccurredAt time.Time
}

// RecordTransaction appends a sale or return to the ledger. The title must
// exist and carry a listing for the transaction's format.
func (s *SalesService) RecordTransaction(ctx context.Context, req RecordTransactionRequest) (*sales.Transaction, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sales", "record_transaction")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, req.TenantID.String(),
		telemetry.SpanAttrTitleID, req.TitleID.String(),
	)

	if req.TenantID == uuid.Nil {
		err := shared.NewValidationError("INVALID_TENANT", "Tenant ID cannot be empty")
		telemetry.RecordError(span, err)
		return nil, err
	}

	title, err := s.titleRepo.FindByIDForTenant(ctx, req.TenantID, req.TitleID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if _, err := title.ListPriceFor(req.Format); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var txn *sales.Transaction
	switch req.Type {
	case sales.TransactionTypeSale:
		txn, err = sales.NewSale(req.TenantID, req.TitleID, req.Format, req.Units, req.Revenue, req.Channel, req.OccurredAt)
	case sales.TransactionTypeReturn:
		txn, err = sales.NewReturn(req.TenantID, req.TitleID, req.Format, req.Units, req.Revenue, req.Channel, req.OccurredAt)
	default:
		err = shared.NewValidationError("INVALID_TRANSACTION_TYPE", fmt.Sprintf("Unknown transaction type %q", string(req.Type)))
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.txnRepo.Save(ctx, txn); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	s.logger.Info("Transaction recorded",
		zap.String("tenant_id", req.TenantID.String()),
		zap.String("title_id", req.TitleID.String()),
		zap.String("type", string(req.Type)),
		zap.String("format", string(req.Format)),
		zap.Int64("units", req.Units),
	)

	return txn, nil
}

// RecordBatch appends a batch of ledger entries atomically. One invalid
// entry rejects the whole batch; imports retry after correcting the feed.
func (s *SalesService) RecordBatch(ctx context.Context, tenantID uuid.UUID, reqs []RecordTransactionRequest) ([]*sales.Transaction, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sales", "record_batch")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		"batch_size", len(reqs),
	)

	if len(reqs) == 0 {
		err := shared.NewValidationError("EMPTY_BATCH", "Batch cannot be empty")
		telemetry.RecordError(span, err)
		return nil, err
	}

	txns := make([]*sales.Transaction, 0, len(reqs))
	for i, req := range reqs {
		var txn *sales.Transaction
		var err error
		switch req.Type {
		case sales.TransactionTypeSale:
			txn, err = sales.NewSale(tenantID, req.TitleID, req.Format, req.Units, req.Revenue, req.Channel, req.OccurredAt)
		case sales.TransactionTypeReturn:
			txn, err = sales.NewReturn(tenantID, req.TitleID, req.Format, req.Units, req.Revenue, req.Channel, req.OccurredAt)
		default:
			err = shared.NewValidationError("INVALID_TRANSACTION_TYPE", fmt.Sprintf("Unknown transaction type %q", string(req.Type)))
		}
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("batch entry %d: %w", i, err)
		}
		txns = append(txns, txn)
	}

	if err := s.txnRepo.SaveBatch(ctx, txns); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save batch: %w", err)
	}

	s.logger.Info("Transaction batch recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("count", len(txns)),
	)

	return txns, nil
}

// ApproveReturn marks a pending return as approved; only then does it count
// against royalties
func (s *SalesService) ApproveReturn(ctx context.Context, tenantID, transactionID uuid.UUID) (*sales.Transaction, error) {
	return s.reviewReturn(ctx, tenantID, transactionID, true)
}

// RejectReturn marks a pending return as rejected; it stays in the ledger
// for audit but never affects royalties
func (s *SalesService) RejectReturn(ctx context.Context, tenantID, transactionID uuid.UUID) (*sales.Transaction, error) {
	return s.reviewReturn(ctx, tenantID, transactionID, false)
}

func (s *SalesService) reviewReturn(ctx context.Context, tenantID, transactionID uuid.UUID, approve bool) (*sales.Transaction, error) {
	method := "reject_return"
	if approve {
		method = "approve_return"
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "sales", method)
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, tenantID.String())

	txn, err := s.txnRepo.FindByIDForTenant(ctx, tenantID, transactionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if approve {
		err = txn.ApproveReturn()
	} else {
		err = txn.RejectReturn()
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.txnRepo.Save(ctx, txn); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	s.logger.Info("Return reviewed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("transaction_id", transactionID.String()),
		zap.Bool("approved", approve),
	)

	return txn, nil
}
