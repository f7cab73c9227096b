package royalty

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/royalty"
	"github.com/inkwell/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DocumentStorage is the port for statement artifact storage. The S3
// implementation lives in infrastructure/storage; a stub stands in for it
// in development.
type DocumentStorage interface {
	// Upload stores a rendered document under the given key
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	// GenerateDownloadURL returns a presigned URL for fetching a document
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
	// ObjectExists reports whether a document is stored under the key
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
	// DeleteObject removes a stored document
	DeleteObject(ctx context.Context, storageKey string) error
}

// StatementArchiveService renders statements to JSON documents and stores
// them for author-facing download. The stored artifact is a snapshot: a
// superseded statement's document stays available for audit.
type StatementArchiveService struct {
	statementRepo royalty.StatementRepository
	storage       DocumentStorage
	keyPrefix     string
	logger        *zap.Logger
}

// NewStatementArchiveService creates a new StatementArchiveService
func NewStatementArchiveService(
	statementRepo royalty.StatementRepository,
	storage DocumentStorage,
	keyPrefix string,
	logger *zap.Logger,
) *StatementArchiveService {
	return &StatementArchiveService{
		statementRepo: statementRepo,
		storage:       storage,
		keyPrefix:     strings.Trim(keyPrefix, "/"),
		logger:        logger,
	}
}

// StatementDocument is the rendered artifact format
type StatementDocument struct {
	StatementNumber string                        `json:"statement_number"`
	TenantID        uuid.UUID                     `json:"tenant_id"`
	AuthorID        uuid.UUID                     `json:"author_id"`
	TitleID         uuid.UUID                     `json:"title_id"`
	ContractID      uuid.UUID                     `json:"contract_id"`
	Status          string                        `json:"status"`
	Calculations    royalty.StatementCalculations `json:"calculations"`
	RenderedAt      time.Time                     `json:"rendered_at"`
}

// ArchivedStatement describes a stored artifact
type ArchivedStatement struct {
	StorageKey string `json:"storage_key"`
	Size       int    `json:"size"`
}

// StatementKey returns the storage key for a statement artifact. Keys are
// tenant-partitioned so bucket policies can scope access.
func (s *StatementArchiveService) StatementKey(tenantID uuid.UUID, statementNumber string) string {
	key := fmt.Sprintf("%s/%s.json", tenantID, statementNumber)
	if s.keyPrefix != "" {
		key = s.keyPrefix + "/" + key
	}
	return key
}

// Archive renders a statement to its JSON document and uploads it
func (s *StatementArchiveService) Archive(ctx context.Context, tenantID, statementID uuid.UUID) (*ArchivedStatement, error) {
	statement, err := s.statementRepo.FindByIDForTenant(ctx, tenantID, statementID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("STATEMENT_NOT_FOUND", "Statement not found")
		}
		return nil, err
	}

	document := StatementDocument{
		StatementNumber: statement.StatementNumber,
		TenantID:        statement.TenantID,
		AuthorID:        statement.AuthorID,
		TitleID:         statement.TitleID,
		ContractID:      statement.ContractID,
		Status:          string(statement.Status),
		Calculations:    statement.Calculations,
		RenderedAt:      time.Now().UTC(),
	}

	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render statement %s: %w", statement.StatementNumber, err)
	}

	key := s.StatementKey(tenantID, statement.StatementNumber)
	if err := s.storage.Upload(ctx, key, data, "application/json"); err != nil {
		s.logger.Error("Failed to upload statement artifact",
			zap.String("statement_number", statement.StatementNumber),
			zap.String("storage_key", key),
			zap.Error(err),
		)
		return nil, shared.NewDomainError("ARCHIVE_FAILED", "Failed to store statement document")
	}

	s.logger.Info("Statement artifact archived",
		zap.String("statement_number", statement.StatementNumber),
		zap.String("storage_key", key),
		zap.Int("size", len(data)),
	)

	return &ArchivedStatement{StorageKey: key, Size: len(data)}, nil
}

// DownloadURL returns a presigned URL for a statement's stored artifact
func (s *StatementArchiveService) DownloadURL(ctx context.Context, tenantID, statementID uuid.UUID, expiresIn time.Duration) (string, time.Time, error) {
	statement, err := s.statementRepo.FindByIDForTenant(ctx, tenantID, statementID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", time.Time{}, shared.NewDomainError("STATEMENT_NOT_FOUND", "Statement not found")
		}
		return "", time.Time{}, err
	}

	key := s.StatementKey(tenantID, statement.StatementNumber)
	exists, err := s.storage.ObjectExists(ctx, key)
	if err != nil {
		return "", time.Time{}, err
	}
	if !exists {
		return "", time.Time{}, shared.NewDomainError("ARTIFACT_NOT_FOUND", "Statement document has not been archived")
	}

	return s.storage.GenerateDownloadURL(ctx, key, expiresIn)
}
