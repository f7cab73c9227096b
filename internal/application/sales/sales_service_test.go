package sales

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/catalog"
	"github.com/inkwell/backend/internal/domain/royalty"
	"github.com/inkwell/backend/internal/domain/sales"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockTxnRepo struct {
	txns map[uuid.UUID]*sales.Transaction
}

func newMockTxnRepo() *mockTxnRepo {
	return &mockTxnRepo{txns: make(map[uuid.UUID]*sales.Transaction)}
}

func (r *mockTxnRepo) Save(ctx context.Context, txn *sales.Transaction) error {
	copied := *txn
	r.txns[txn.ID] = &copied
	return nil
}

func (r *mockTxnRepo) SaveBatch(ctx context.Context, txns []*sales.Transaction) error {
	for _, txn := range txns {
		if err := r.Save(ctx, txn); err != nil {
			return err
		}
	}
	return nil
}

func (r *mockTxnRepo) FindByID(ctx context.Context, id uuid.UUID) (*sales.Transaction, error) {
	if txn, ok := r.txns[id]; ok {
		copied := *txn
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *mockTxnRepo) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sales.Transaction, error) {
	txn, ok := r.txns[id]
	if !ok || txn.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	copied := *txn
	return &copied, nil
}

func (r *mockTxnRepo) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]sales.Transaction, error) {
	var result []sales.Transaction
	for _, txn := range r.txns {
		if txn.TenantID == tenantID {
			result = append(result, *txn)
		}
	}
	return result, nil
}

func (r *mockTxnRepo) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	all, _ := r.FindAllForTenant(ctx, tenantID, filter)
	return int64(len(all)), nil
}

type mockTitleRepo struct {
	titles map[uuid.UUID]*catalog.Title
}

func newMockTitleRepo() *mockTitleRepo {
	return &mockTitleRepo{titles: make(map[uuid.UUID]*catalog.Title)}
}

func (r *mockTitleRepo) Save(ctx context.Context, title *catalog.Title) error {
	r.titles[title.ID] = title
	return nil
}

func (r *mockTitleRepo) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Title, error) {
	if t, ok := r.titles[id]; ok {
		return t, nil
	}
	return nil, shared.ErrNotFound
}

func (r *mockTitleRepo) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Title, error) {
	t, ok := r.titles[id]
	if !ok || t.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return t, nil
}

func (r *mockTitleRepo) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Title, error) {
	return nil, nil
}

func (r *mockTitleRepo) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	return 0, nil
}

type salesFixture struct {
	service  *SalesService
	txns     *mockTxnRepo
	tenantID uuid.UUID
	titleID  uuid.UUID
}

func newSalesFixture(t *testing.T) *salesFixture {
	t.Helper()

	titles := newMockTitleRepo()
	f := &salesFixture{
		txns:     newMockTxnRepo(),
		tenantID: uuid.New(),
	}
	f.service = NewSalesService(f.txns, titles, zap.NewNop())

	title, err := catalog.NewTitle(f.tenantID, "Proof Pages", catalog.AuthorOwnerships{
		{AuthorID: uuid.New(), Percentage: decimal.NewFromInt(100)},
	})
	require.NoError(t, err)
	require.NoError(t, title.AddFormat(royalty.FormatPhysical, decimal.NewFromInt(20)))
	require.NoError(t, titles.Save(context.Background(), title))
	f.titleID = title.ID

	return f
}

func (f *salesFixture) saleRequest() RecordTransactionRequest {
	return RecordTransactionRequest{
		TenantID:   f.tenantID,
		TitleID:    f.titleID,
		Format:     royalty.FormatPhysical,
		Type:       sales.TransactionTypeSale,
		Units:      100,
		Revenue:    decimal.NewFromInt(2000),
		Channel:    "retail",
		OccurredAt: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestSalesService_RecordTransaction(t *testing.T) {
	f := newSalesFixture(t)

	txn, err := f.service.RecordTransaction(context.Background(), f.saleRequest())
	require.NoError(t, err)
	assert.Equal(t, sales.TransactionTypeSale, txn.Type)
	assert.Equal(t, int64(100), txn.Units)

	saved, err := f.txns.FindByID(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, f.titleID, saved.TitleID)
}

func TestSalesService_RecordTransaction_Rejections(t *testing.T) {
	f := newSalesFixture(t)

	// Unknown title
	req := f.saleRequest()
	req.TitleID = uuid.New()
	_, err := f.service.RecordTransaction(context.Background(), req)
	assert.Error(t, err)

	// Format the title does not list
	req = f.saleRequest()
	req.Format = royalty.FormatAudiobook
	_, err = f.service.RecordTransaction(context.Background(), req)
	assert.Error(t, err)

	// Unknown transaction type
	req = f.saleRequest()
	req.Type = "EXCHANGE"
	_, err = f.service.RecordTransaction(context.Background(), req)
	assert.True(t, shared.IsValidationError(err))

	count, err := f.txns.CountForTenant(context.Background(), f.tenantID, shared.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestSalesService_RecordBatch(t *testing.T) {
	f := newSalesFixture(t)

	ret := f.saleRequest()
	ret.Type = sales.TransactionTypeReturn
	ret.Units = 10
	ret.Revenue = decimal.NewFromInt(200)

	txns, err := f.service.RecordBatch(context.Background(), f.tenantID, []RecordTransactionRequest{
		f.saleRequest(), ret,
	})
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, sales.ReturnStatusPending, txns[1].ReturnStatus)
}

func TestSalesService_RecordBatch_OneBadEntryRejectsAll(t *testing.T) {
	f := newSalesFixture(t)

	bad := f.saleRequest()
	bad.Units = 0

	_, err := f.service.RecordBatch(context.Background(), f.tenantID, []RecordTransactionRequest{
		f.saleRequest(), bad,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch entry 1")

	count, err := f.txns.CountForTenant(context.Background(), f.tenantID, shared.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestSalesService_ReturnReview(t *testing.T) {
	f := newSalesFixture(t)

	req := f.saleRequest()
	req.Type = sales.TransactionTypeReturn
	txn, err := f.service.RecordTransaction(context.Background(), req)
	require.NoError(t, err)

	approved, err := f.service.ApproveReturn(context.Background(), f.tenantID, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.ReturnStatusApproved, approved.ReturnStatus)
	assert.NotNil(t, approved.ReviewedAt)

	// Review decisions are final
	_, err = f.service.RejectReturn(context.Background(), f.tenantID, txn.ID)
	assert.Error(t, err)
}

func TestSalesService_RejectReturn(t *testing.T) {
	f := newSalesFixture(t)

	req := f.saleRequest()
	req.Type = sales.TransactionTypeReturn
	txn, err := f.service.RecordTransaction(context.Background(), req)
	require.NoError(t, err)

	rejected, err := f.service.RejectReturn(context.Background(), f.tenantID, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.ReturnStatusRejected, rejected.ReturnStatus)
}
