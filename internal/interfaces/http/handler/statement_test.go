package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	royaltyapp "github.com/inkwell/backend/internal/application/royalty"
	"github.com/inkwell/backend/internal/domain/royalty"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/inkwell/backend/internal/infrastructure/storage"
	"github.com/inkwell/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockStatementRepository implements royalty.StatementRepository for testing
type MockStatementRepository struct {
	mock.Mock
}

func (m *MockStatementRepository) Save(ctx context.Context, statement *royalty.Statement) error {
	args := m.Called(ctx, statement)
	return args.Error(0)
}

func (m *MockStatementRepository) FindByID(ctx context.Context, id uuid.UUID) (*royalty.Statement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*royalty.Statement), args.Error(1)
}

func (m *MockStatementRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*royalty.Statement, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*royalty.Statement), args.Error(1)
}

func (m *MockStatementRepository) FindByAuthorAndPeriod(ctx context.Context, tenantID, authorID, titleID uuid.UUID, periodStart time.Time) (*royalty.Statement, error) {
	args := m.Called(ctx, tenantID, authorID, titleID, periodStart)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*royalty.Statement), args.Error(1)
}

func (m *MockStatementRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]royalty.Statement, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]royalty.Statement), args.Error(1)
}

func (m *MockStatementRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStatementRepository) SumNetPayableByAuthor(ctx context.Context, tenantID uuid.UUID, year int) ([]royalty.AuthorNetPayable, error) {
	args := m.Called(ctx, tenantID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]royalty.AuthorNetPayable), args.Error(1)
}

func newTestStatement(t *testing.T, tenantID uuid.UUID) *royalty.Statement {
	t.Helper()

	statement, err := royalty.NewStatement(
		tenantID,
		"STMT-2025-000007",
		uuid.New(), uuid.New(), uuid.New(),
		royalty.Period{
			Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		royalty.StatementCalculations{
			PeriodStart: "2025-01-01",
			PeriodEnd:   "2026-01-01",
			NetPayable:  decimal.RequireFromString("120.00"),
		},
	)
	require.NoError(t, err)
	return statement
}

func setupStatementRouter(repo *MockStatementRepository, store *storage.StubDocumentStorage) *gin.Engine {
	gin.SetMode(gin.TestMode)
	archiveService := royaltyapp.NewStatementArchiveService(repo, store, "statements", zap.NewNop())
	taxService := royaltyapp.NewTaxReportService(repo, zap.NewNop())
	handler := NewStatementHandler(nil, archiveService, taxService, repo)

	r := gin.New()
	r.Use(middleware.RequireTenant())
	api := r.Group("/api/v1")
	handler.RegisterRoutes(api)
	return r
}

func TestStatementHandler_Get(t *testing.T) {
	repo := new(MockStatementRepository)
	tenantID := uuid.New()
	statement := newTestStatement(t, tenantID)

	repo.On("FindByIDForTenant", mock.Anything, tenantID, statement.ID).Return(statement, nil)

	r := setupStatementRouter(repo, storage.NewStubDocumentStorage())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, isbnRequest(http.MethodGet, "/api/v1/royalty/statements/"+statement.ID.String(), tenantID, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "STMT-2025-000007")
	assert.Contains(t, w.Body.String(), "GENERATED")
}

func TestStatementHandler_Get_NotFound(t *testing.T) {
	repo := new(MockStatementRepository)
	tenantID := uuid.New()
	id := uuid.New()

	repo.On("FindByIDForTenant", mock.Anything, tenantID, id).Return(nil, shared.ErrNotFound)

	r := setupStatementRouter(repo, storage.NewStubDocumentStorage())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, isbnRequest(http.MethodGet, "/api/v1/royalty/statements/"+id.String(), tenantID, nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatementHandler_ArchiveThenDocument(t *testing.T) {
	repo := new(MockStatementRepository)
	store := storage.NewStubDocumentStorage()
	tenantID := uuid.New()
	statement := newTestStatement(t, tenantID)

	repo.On("FindByIDForTenant", mock.Anything, tenantID, statement.ID).Return(statement, nil)

	r := setupStatementRouter(repo, store)

	// Document before archiving: the artifact does not exist yet
	w := httptest.NewRecorder()
	r.ServeHTTP(w, isbnRequest(http.MethodGet, "/api/v1/royalty/statements/"+statement.ID.String()+"/document", tenantID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ARTIFACT_NOT_FOUND")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, isbnRequest(http.MethodPost, "/api/v1/royalty/statements/"+statement.ID.String()+"/archive", tenantID, nil))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "STMT-2025-000007.json")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, isbnRequest(http.MethodGet, "/api/v1/royalty/statements/"+statement.ID.String()+"/document", tenantID, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/download/")
}

func TestStatementHandler_List(t *testing.T) {
	repo := new(MockStatementRepository)
	tenantID := uuid.New()
	statement := newTestStatement(t, tenantID)

	repo.On("FindAllForTenant", mock.Anything, tenantID, mock.Anything).Return([]royalty.Statement{*statement}, nil)
	repo.On("CountForTenant", mock.Anything, tenantID, mock.Anything).Return(int64(1), nil)

	r := setupStatementRouter(repo, storage.NewStubDocumentStorage())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, isbnRequest(http.MethodGet, "/api/v1/royalty/statements?page=1&page_size=10", tenantID, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
}

func TestStatementHandler_Run_InvalidPeriod(t *testing.T) {
	repo := new(MockStatementRepository)
	r := setupStatementRouter(repo, storage.NewStubDocumentStorage())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, isbnRequest(http.MethodPost, "/api/v1/royalty/runs", uuid.New(), gin.H{
		"period_start": "2025-07-01",
		"period_end":   "2025-01-01",
	}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "period_end must be after period_start")
}

func TestStatementHandler_TaxReport(t *testing.T) {
	repo := new(MockStatementRepository)
	tenantID := uuid.New()
	authorID := uuid.New()

	repo.On("SumNetPayableByAuthor", mock.Anything, tenantID, 2025).Return([]royalty.AuthorNetPayable{
		{AuthorID: authorID, NetPayable: decimal.RequireFromString("250.00")},
	}, nil)

	r := setupStatementRouter(repo, storage.NewStubDocumentStorage())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, isbnRequest(http.MethodGet, "/api/v1/royalty/tax-report?year=2025", tenantID, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), authorID.String())
	assert.Contains(t, w.Body.String(), `"reportable":true`)
}
