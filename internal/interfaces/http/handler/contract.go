package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	catalogapp "github.com/inkwell/backend/internal/application/catalog"
	"github.com/inkwell/backend/internal/domain/catalog"
	"github.com/inkwell/backend/internal/domain/royalty"
	"github.com/inkwell/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// ContractHandler handles royalty contract endpoints
type ContractHandler struct {
	BaseHandler
	catalogService *catalogapp.CatalogService
	contractRepo   catalog.ContractRepository
}

// NewContractHandler creates a new ContractHandler
func NewContractHandler(catalogService *catalogapp.CatalogService, contractRepo catalog.ContractRepository) *ContractHandler {
	return &ContractHandler{
		catalogService: catalogService,
		contractRepo:   contractRepo,
	}
}

// CreateContractRequest is the request body for creating a contract.
// RateSpecs is keyed by format (PHYSICAL, EBOOK, AUDIOBOOK).
type CreateContractRequest struct {
	ContractNumber  string                      `json:"contract_number" binding:"required,min=1,max=100"`
	TitleID         uuid.UUID                   `json:"title_id" binding:"required"`
	AuthorID        uuid.UUID                   `json:"author_id" binding:"required"`
	RateSpecs       map[string]royalty.RateSpec `json:"rate_specs" binding:"required,min=1"`
	OriginalAdvance decimal.Decimal             `json:"original_advance"`
	EffectiveFrom   string                      `json:"effective_from" binding:"required"`
}

// AmendContractRequest is the request body for amending a contract's rates
type AmendContractRequest struct {
	RateSpecs map[string]royalty.RateSpec `json:"rate_specs" binding:"required,min=1"`
}

// ContractResponse is the wire representation of a contract
type ContractResponse struct {
	ID              uuid.UUID               `json:"id"`
	ContractNumber  string                  `json:"contract_number"`
	TitleID         uuid.UUID               `json:"title_id"`
	AuthorID        uuid.UUID               `json:"author_id"`
	RateSpecs       catalog.FormatRateSpecs `json:"rate_specs"`
	OriginalAdvance decimal.Decimal         `json:"original_advance"`
	RecoupedToDate  decimal.Decimal         `json:"recouped_to_date"`
	Status          string                  `json:"status"`
	EffectiveFrom   time.Time               `json:"effective_from"`
	TerminatedAt    *time.Time              `json:"terminated_at,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

func toContractResponse(ct *catalog.Contract) ContractResponse {
	return ContractResponse{
		ID:              ct.ID,
		ContractNumber:  ct.ContractNumber,
		TitleID:         ct.TitleID,
		AuthorID:        ct.AuthorID,
		RateSpecs:       ct.RateSpecs,
		OriginalAdvance: ct.OriginalAdvance,
		RecoupedToDate:  ct.RecoupedToDate,
		Status:          string(ct.Status),
		EffectiveFrom:   ct.EffectiveFrom,
		TerminatedAt:    ct.TerminatedAt,
		CreatedAt:       ct.CreatedAt,
		UpdatedAt:       ct.UpdatedAt,
	}
}

func toFormatRateSpecs(specs map[string]royalty.RateSpec) (catalog.FormatRateSpecs, bool) {
	rateSpecs := make(catalog.FormatRateSpecs, len(specs))
	for formatStr, spec := range specs {
		format := royalty.Format(formatStr)
		if !format.IsValid() {
			return nil, false
		}
		rateSpecs[format] = spec
	}
	return rateSpecs, true
}

// Create registers a royalty contract between an author and a title
func (h *ContractHandler) Create(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	var req CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	effectiveFrom, err := time.Parse("2006-01-02", req.EffectiveFrom)
	if err != nil {
		h.BadRequest(c, "effective_from must be YYYY-MM-DD")
		return
	}

	rateSpecs, ok := toFormatRateSpecs(req.RateSpecs)
	if !ok {
		h.BadRequest(c, "rate_specs contains an unknown format")
		return
	}

	contract, err := h.catalogService.CreateContract(c.Request.Context(), catalogapp.CreateContractRequest{
		TenantID:        tenantID,
		ContractNumber:  req.ContractNumber,
		TitleID:         req.TitleID,
		AuthorID:        req.AuthorID,
		RateSpecs:       rateSpecs,
		OriginalAdvance: req.OriginalAdvance,
		EffectiveFrom:   effectiveFrom,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toContractResponse(contract))
}

// List returns the tenant's contracts
func (h *ContractHandler) List(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	var listReq dto.ListRequest
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}
	filter := listReq.ToFilter()
	filters := map[string]interface{}{}
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if titleID := c.Query("title_id"); titleID != "" {
		filters["title_id"] = titleID
	}
	if len(filters) > 0 {
		filter.Filters = filters
	}

	contracts, err := h.contractRepo.FindAllForTenant(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	total, err := h.contractRepo.CountForTenant(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]ContractResponse, 0, len(contracts))
	for i := range contracts {
		responses = append(responses, toContractResponse(&contracts[i]))
	}
	h.SuccessWithMeta(c, responses, total, filter.Page, filter.PageSize)
}

// Get returns a single contract
func (h *ContractHandler) Get(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}

	contract, err := h.contractRepo.FindByIDForTenant(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toContractResponse(contract))
}

// Amend replaces a contract's rate specifications going forward
func (h *ContractHandler) Amend(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}

	var req AmendContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	rateSpecs, ok := toFormatRateSpecs(req.RateSpecs)
	if !ok {
		h.BadRequest(c, "rate_specs contains an unknown format")
		return
	}

	contract, err := h.catalogService.AmendContract(c.Request.Context(), tenantID, id, rateSpecs)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toContractResponse(contract))
}

// Terminate ends a contract; future statement runs skip it
func (h *ContractHandler) Terminate(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}

	contract, err := h.catalogService.TerminateContract(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toContractResponse(contract))
}

// RegisterRoutes mounts the contract endpoints
func (h *ContractHandler) RegisterRoutes(rg *gin.RouterGroup) {
	contracts := rg.Group("/contracts")
	{
		contracts.POST("", h.Create)
		contracts.GET("", h.List)
		contracts.GET("/:id", h.Get)
		contracts.POST("/:id/amend", h.Amend)
		contracts.POST("/:id/terminate", h.Terminate)
	}
}
