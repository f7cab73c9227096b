package royalty

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/royalty"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memDocumentStorage is an in-memory DocumentStorage for tests
type memDocumentStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
}

func newMemDocumentStorage() *memDocumentStorage {
	return &memDocumentStorage{objects: make(map[string][]byte)}
}

func (m *memDocumentStorage) Upload(ctx context.Context, storageKey string, data []byte, contentType string) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[storageKey] = data
	return nil
}

func (m *memDocumentStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	return "https://storage.example.com/download/" + storageKey, time.Now().Add(expiresIn), nil
}

func (m *memDocumentStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[storageKey]
	return ok, nil
}

func (m *memDocumentStorage) DeleteObject(ctx context.Context, storageKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, storageKey)
	return nil
}

func archivedTestStatement(t *testing.T, tenantID uuid.UUID) *royalty.Statement {
	t.Helper()

	period := royalty.Period{
		Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	statement, err := royalty.NewStatement(
		tenantID,
		"STMT-2025-000042",
		uuid.New(), uuid.New(), uuid.New(),
		period,
		royalty.StatementCalculations{
			PeriodStart:   "2025-01-01",
			PeriodEnd:     "2026-01-01",
			TotalNetUnits: 120,
			GrossRoyalty:  decimal.RequireFromString("340.00"),
			NetPayable:    decimal.RequireFromString("290.00"),
		},
	)
	require.NoError(t, err)
	return statement
}

func TestStatementArchiveService_Archive(t *testing.T) {
	tenantID := uuid.New()
	repo := newMockStatementRepo()
	storage := newMemDocumentStorage()
	service := NewStatementArchiveService(repo, storage, "statements", zap.NewNop())

	statement := archivedTestStatement(t, tenantID)
	require.NoError(t, repo.Save(context.Background(), statement))

	archived, err := service.Archive(context.Background(), tenantID, statement.ID)
	require.NoError(t, err)

	expectedKey := "statements/" + tenantID.String() + "/STMT-2025-000042.json"
	assert.Equal(t, expectedKey, archived.StorageKey)
	assert.Positive(t, archived.Size)

	data, ok := storage.objects[expectedKey]
	require.True(t, ok)

	var doc StatementDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "STMT-2025-000042", doc.StatementNumber)
	assert.Equal(t, tenantID, doc.TenantID)
	assert.Equal(t, "GENERATED", doc.Status)
	assert.True(t, doc.Calculations.NetPayable.Equal(decimal.RequireFromString("290.00")))
	assert.False(t, doc.RenderedAt.IsZero())
}

func TestStatementArchiveService_Archive_StatementNotFound(t *testing.T) {
	service := NewStatementArchiveService(newMockStatementRepo(), newMemDocumentStorage(), "statements", zap.NewNop())

	_, err := service.Archive(context.Background(), uuid.New(), uuid.New())
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "STATEMENT_NOT_FOUND", domainErr.Code)
}

func TestStatementArchiveService_Archive_WrongTenant(t *testing.T) {
	tenantID := uuid.New()
	repo := newMockStatementRepo()
	service := NewStatementArchiveService(repo, newMemDocumentStorage(), "statements", zap.NewNop())

	statement := archivedTestStatement(t, tenantID)
	require.NoError(t, repo.Save(context.Background(), statement))

	_, err := service.Archive(context.Background(), uuid.New(), statement.ID)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "STATEMENT_NOT_FOUND", domainErr.Code)
}

func TestStatementArchiveService_Archive_UploadFailure(t *testing.T) {
	tenantID := uuid.New()
	repo := newMockStatementRepo()
	storage := newMemDocumentStorage()
	storage.uploadErr = errors.New("connection refused")
	service := NewStatementArchiveService(repo, storage, "statements", zap.NewNop())

	statement := archivedTestStatement(t, tenantID)
	require.NoError(t, repo.Save(context.Background(), statement))

	_, err := service.Archive(context.Background(), tenantID, statement.ID)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ARCHIVE_FAILED", domainErr.Code)
}

func TestStatementArchiveService_DownloadURL(t *testing.T) {
	tenantID := uuid.New()
	repo := newMockStatementRepo()
	storage := newMemDocumentStorage()
	service := NewStatementArchiveService(repo, storage, "statements", zap.NewNop())

	statement := archivedTestStatement(t, tenantID)
	require.NoError(t, repo.Save(context.Background(), statement))

	// Not archived yet
	_, _, err := service.DownloadURL(context.Background(), tenantID, statement.ID, 10*time.Minute)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ARTIFACT_NOT_FOUND", domainErr.Code)

	_, err = service.Archive(context.Background(), tenantID, statement.ID)
	require.NoError(t, err)

	url, expiresAt, err := service.DownloadURL(context.Background(), tenantID, statement.ID, 10*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "STMT-2025-000042.json")
	assert.True(t, expiresAt.After(time.Now()))
}

func TestStatementArchiveService_StatementKey(t *testing.T) {
	tenantID := uuid.MustParse("6f9619ff-8b86-4d01-b42d-00cf4fc964ff")

	service := NewStatementArchiveService(nil, nil, "/statements/", zap.NewNop())
	assert.Equal(t,
		"statements/6f9619ff-8b86-4d01-b42d-00cf4fc964ff/STMT-2025-000001.json",
		service.StatementKey(tenantID, "STMT-2025-000001"))

	noPrefix := NewStatementArchiveService(nil, nil, "", zap.NewNop())
	assert.Equal(t,
		"6f9619ff-8b86-4d01-b42d-00cf4fc964ff/STMT-2025-000001.json",
		noPrefix.StatementKey(tenantID, "STMT-2025-000001"))
}
