package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/catalog"
	"github.com/inkwell/backend/internal/domain/royalty"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/inkwell/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogService manages titles and their royalty contracts
type CatalogService struct {
	titleRepo    catalog.TitleRepository
	contractRepo catalog.ContractRepository
	pool         *ISBNPoolService
	logger       *zap.Logger
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(
	titleRepo catalog.TitleRepository,
	contractRepo catalog.ContractRepository,
	pool *ISBNPoolService,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{
		titleRepo:    titleRepo,
		contractRepo: contractRepo,
		pool:         pool,
		logger:       logger,
	}
}

// CreateTitleRequest carries the data for a new title
type CreateTitleRequest struct {
	TenantID   uuid.UUID
	Name       string
	Ownerships catalog.AuthorOwnerships
}

// CreateTitle registers a draft title with its author ownership split
func (s *CatalogService) CreateTitle(ctx context.Context, req CreateTitleRequest) (*catalog.Title, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "create_title")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrTenantID, req.TenantID.String())

	if req.TenantID == uuid.Nil {
		err := shared.NewValidationError("INVALID_TENANT", "Tenant ID cannot be empty")
		telemetry.RecordError(span, err)
		return nil, err
	}

	title, err := catalog.NewTitle(req.TenantID, req.Name, req.Ownerships)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.titleRepo.Save(ctx, title); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save title: %w", err)
	}

	s.logger.Info("Title created",
		zap.String("tenant_id", req.TenantID.String()),
		zap.String("title_id", title.ID.String()),
		zap.String("name", title.Name),
	)

	return title, nil
}

// AddFormatRequest adds one sellable format to a title
type AddFormatRequest struct {
	TenantID  uuid.UUID
	TitleID   uuid.UUID
	Format    royalty.Format
	ListPrice decimal.Decimal
}

// AddFormat adds a format listing with its price to a draft or published
// title
func (s *CatalogService) AddFormat(ctx context.Context, req AddFormatRequest) (*catalog.Title, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "add_format")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, req.TenantID.String(),
		telemetry.SpanAttrTitleID, req.TitleID.String(),
	)

	title, err := s.titleRepo.FindByIDForTenant(ctx, req.TenantID, req.TitleID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := title.AddFormat(req.Format, req.ListPrice); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.titleRepo.Save(ctx, title); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save title: %w", err)
	}

	return title, nil
}

// AssignISBNFromPool claims the next pooled ISBN and binds it to one of the
// title's formats.
func (s *CatalogService) AssignISBNFromPool(ctx context.Context, tenantID, titleID uuid.UUID, format royalty.Format) (*catalog.Title, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "assign_isbn")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrTitleID, titleID.String(),
	)

	title, err := s.titleRepo.FindByIDForTenant(ctx, tenantID, titleID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	pooled, err := s.pool.ClaimISBN(ctx, tenantID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := title.AssignISBN(format, pooled.ISBN); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.titleRepo.Save(ctx, title); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save title: %w", err)
	}

	s.logger.Info("ISBN assigned",
		zap.String("tenant_id", tenantID.String()),
		zap.String("title_id", titleID.String()),
		zap.String("isbn", pooled.ISBN),
		zap.String("format", string(format)),
	)

	return title, nil
}

// PublishTitle moves a draft title with at least one format into the
// published state
func (s *CatalogService) PublishTitle(ctx context.Context, tenantID, titleID uuid.UUID) (*catalog.Title, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "publish_title")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrTitleID, titleID.String(),
	)

	title, err := s.titleRepo.FindByIDForTenant(ctx, tenantID, titleID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := title.Publish(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.titleRepo.Save(ctx, title); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save title: %w", err)
	}

	return title, nil
}

// CreateContractRequest carries the data for a new royalty contract
type CreateContractRequest struct {
	TenantID        uuid.UUID
	ContractNumber  string
	TitleID         uuid.UUID
	AuthorID        uuid.UUID
	RateSpecs       catalog.FormatRateSpecs
	OriginalAdvance decimal.Decimal
	EffectiveFrom   time.Time
}

// CreateContract registers a royalty contract between an author and a
// title. The author must hold a stake in the title's ownership split.
func (s *CatalogService) CreateContract(ctx context.Context, req CreateContractRequest) (*catalog.Contract, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "create_contract")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, req.TenantID.String(),
		telemetry.SpanAttrTitleID, req.TitleID.String(),
		telemetry.SpanAttrAuthorID, req.AuthorID.String(),
	)

	title, err := s.titleRepo.FindByIDForTenant(ctx, req.TenantID, req.TitleID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if title.Ownerships.IndexOf(req.AuthorID) < 0 {
		err := shared.NewValidationError("AUTHOR_NOT_OWNER", fmt.Sprintf("Author %s holds no stake in title %s", req.AuthorID, req.TitleID))
		telemetry.RecordError(span, err)
		return nil, err
	}

	contract, err := catalog.NewContract(
		req.TenantID,
		req.ContractNumber,
		req.TitleID,
		req.AuthorID,
		req.RateSpecs,
		req.OriginalAdvance,
		req.EffectiveFrom,
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.contractRepo.Save(ctx, contract); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save contract: %w", err)
	}

	s.logger.Info("Contract created",
		zap.String("tenant_id", req.TenantID.String()),
		zap.String("contract_number", contract.ContractNumber),
		zap.String("author_id", req.AuthorID.String()),
	)

	return contract, nil
}

// AmendContract replaces a contract's rate table going forward. Historical
// statements are unaffected.
func (s *CatalogService) AmendContract(ctx context.Context, tenantID, contractID uuid.UUID, rateSpecs catalog.FormatRateSpecs) (*catalog.Contract, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "amend_contract")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrContractID, contractID.String(),
	)

	contract, err := s.contractRepo.FindByIDForTenant(ctx, tenantID, contractID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := contract.UpdateRateSpecs(rateSpecs); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.contractRepo.Save(ctx, contract); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save contract: %w", err)
	}

	return contract, nil
}

// TerminateContract ends a contract; terminated contracts are excluded from
// future statement runs
func (s *CatalogService) TerminateContract(ctx context.Context, tenantID, contractID uuid.UUID) (*catalog.Contract, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "terminate_contract")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrContractID, contractID.String(),
	)

	contract, err := s.contractRepo.FindByIDForTenant(ctx, tenantID, contractID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := contract.Terminate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.contractRepo.Save(ctx, contract); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save contract: %w", err)
	}

	return contract, nil
}
