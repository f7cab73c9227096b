package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/catalog"
	"github.com/inkwell/backend/internal/domain/royalty"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockTitleRepo struct {
	titles map[uuid.UUID]*catalog.Title
}

func newMockTitleRepo() *mockTitleRepo {
	return &mockTitleRepo{titles: make(map[uuid.UUID]*catalog.Title)}
}

func (r *mockTitleRepo) Save(ctx context.Context, title *catalog.Title) error {
	copied := *title
	r.titles[title.ID] = &copied
	return nil
}

func (r *mockTitleRepo) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Title, error) {
	if t, ok := r.titles[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *mockTitleRepo) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Title, error) {
	t, ok := r.titles[id]
	if !ok || t.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *mockTitleRepo) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Title, error) {
	var result []catalog.Title
	for _, t := range r.titles {
		if t.TenantID == tenantID {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (r *mockTitleRepo) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	all, _ := r.FindAllForTenant(ctx, tenantID, filter)
	return int64(len(all)), nil
}

type mockContractRepo struct {
	contracts map[uuid.UUID]*catalog.Contract
}

func newMockContractRepo() *mockContractRepo {
	return &mockContractRepo{contracts: make(map[uuid.UUID]*catalog.Contract)}
}

func (r *mockContractRepo) Save(ctx context.Context, contract *catalog.Contract) error {
	copied := *contract
	r.contracts[contract.ID] = &copied
	return nil
}

func (r *mockContractRepo) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Contract, error) {
	if c, ok := r.contracts[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (r *mockContractRepo) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Contract, error) {
	c, ok := r.contracts[id]
	if !ok || c.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *mockContractRepo) FindActiveByTitle(ctx context.Context, tenantID, titleID uuid.UUID) ([]catalog.Contract, error) {
	var result []catalog.Contract
	for _, c := range r.contracts {
		if c.TenantID == tenantID && c.TitleID == titleID && c.Status == catalog.ContractStatusActive {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (r *mockContractRepo) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Contract, error) {
	var result []catalog.Contract
	for _, c := range r.contracts {
		if c.TenantID == tenantID {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (r *mockContractRepo) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	all, _ := r.FindAllForTenant(ctx, tenantID, filter)
	return int64(len(all)), nil
}

type catalogFixture struct {
	service  *CatalogService
	titles   *mockTitleRepo
	blocks   *mockBlockRepo
	tenantID uuid.UUID
	authorID uuid.UUID
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()

	f := &catalogFixture{
		titles:   newMockTitleRepo(),
		blocks:   newMockBlockRepo(),
		tenantID: uuid.New(),
		authorID: uuid.New(),
	}
	pool := NewISBNPoolService(f.blocks, zap.NewNop())
	f.service = NewCatalogService(f.titles, newMockContractRepo(), pool, zap.NewNop())
	return f
}

func (f *catalogFixture) createTitle(t *testing.T) *catalog.Title {
	t.Helper()
	title, err := f.service.CreateTitle(context.Background(), CreateTitleRequest{
		TenantID: f.tenantID,
		Name:     "A Field Guide to Margins",
		Ownerships: catalog.AuthorOwnerships{
			{AuthorID: f.authorID, Percentage: decimal.NewFromInt(100)},
		},
	})
	require.NoError(t, err)
	return title
}

func TestCatalogService_TitleLifecycle(t *testing.T) {
	f := newCatalogFixture(t)

	title := f.createTitle(t)
	assert.Equal(t, catalog.TitleStatusDraft, title.Status)

	// A draft with no formats cannot publish
	_, err := f.service.PublishTitle(context.Background(), f.tenantID, title.ID)
	require.Error(t, err)

	_, err = f.service.AddFormat(context.Background(), AddFormatRequest{
		TenantID:  f.tenantID,
		TitleID:   title.ID,
		Format:    royalty.FormatPhysical,
		ListPrice: decimal.NewFromInt(25),
	})
	require.NoError(t, err)

	published, err := f.service.PublishTitle(context.Background(), f.tenantID, title.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.TitleStatusPublished, published.Status)
}

func TestCatalogService_AssignISBNFromPool(t *testing.T) {
	f := newCatalogFixture(t)

	title := f.createTitle(t)
	_, err := f.service.AddFormat(context.Background(), AddFormatRequest{
		TenantID:  f.tenantID,
		TitleID:   title.ID,
		Format:    royalty.FormatPhysical,
		ListPrice: decimal.NewFromInt(25),
	})
	require.NoError(t, err)

	pool := NewISBNPoolService(f.blocks, zap.NewNop())
	block, err := pool.RequestBlock(context.Background(), RequestBlockRequest{
		TenantID:  f.tenantID,
		Prefix:    "9781234567",
		BlockSize: 10,
	})
	require.NoError(t, err)
	require.NoError(t, pool.RunGeneration(context.Background(), f.tenantID, block.ID))

	updated, err := f.service.AssignISBNFromPool(context.Background(), f.tenantID, title.ID, royalty.FormatPhysical)
	require.NoError(t, err)

	listing := updated.Formats[0]
	assert.Equal(t, royalty.FormatPhysical, listing.Format)
	require.NoError(t, catalog.ValidateISBN13(listing.ISBN))

	// An empty pool surfaces not found
	_, err = f.service.AssignISBNFromPool(context.Background(), uuid.New(), title.ID, royalty.FormatPhysical)
	assert.Error(t, err)
}

func TestCatalogService_CreateContract(t *testing.T) {
	f := newCatalogFixture(t)
	title := f.createTitle(t)

	flat, err := royalty.NewFlatRateSpec(decimal.NewFromInt(10))
	require.NoError(t, err)
	specs := catalog.FormatRateSpecs{royalty.FormatPhysical: flat}

	contract, err := f.service.CreateContract(context.Background(), CreateContractRequest{
		TenantID:        f.tenantID,
		ContractNumber:  "CTR-100",
		TitleID:         title.ID,
		AuthorID:        f.authorID,
		RateSpecs:       specs,
		OriginalAdvance: decimal.NewFromInt(5000),
		EffectiveFrom:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, catalog.ContractStatusActive, contract.Status)

	// Authors without a stake in the title cannot contract on it
	_, err = f.service.CreateContract(context.Background(), CreateContractRequest{
		TenantID:        f.tenantID,
		ContractNumber:  "CTR-101",
		TitleID:         title.ID,
		AuthorID:        uuid.New(),
		RateSpecs:       specs,
		OriginalAdvance: decimal.Zero,
		EffectiveFrom:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.True(t, shared.IsValidationError(err))
}

func TestCatalogService_AmendAndTerminate(t *testing.T) {
	f := newCatalogFixture(t)
	title := f.createTitle(t)

	flat, err := royalty.NewFlatRateSpec(decimal.NewFromInt(10))
	require.NoError(t, err)

	contract, err := f.service.CreateContract(context.Background(), CreateContractRequest{
		TenantID:        f.tenantID,
		ContractNumber:  "CTR-100",
		TitleID:         title.ID,
		AuthorID:        f.authorID,
		RateSpecs:       catalog.FormatRateSpecs{royalty.FormatPhysical: flat},
		OriginalAdvance: decimal.Zero,
		EffectiveFrom:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	richer, err := royalty.NewFlatRateSpec(decimal.NewFromInt(12))
	require.NoError(t, err)
	amended, err := f.service.AmendContract(context.Background(), f.tenantID, contract.ID, catalog.FormatRateSpecs{
		royalty.FormatPhysical: richer,
		royalty.FormatEbook:    richer,
	})
	require.NoError(t, err)
	assert.Len(t, amended.RateSpecs, 2)

	terminated, err := f.service.TerminateContract(context.Background(), f.tenantID, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.ContractStatusTerminated, terminated.Status)

	// Terminated contracts cannot be amended
	_, err = f.service.AmendContract(context.Background(), f.tenantID, contract.ID, catalog.FormatRateSpecs{
		royalty.FormatPhysical: flat,
	})
	assert.Error(t, err)
}
