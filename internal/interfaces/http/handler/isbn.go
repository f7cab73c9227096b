package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	catalogapp "github.com/inkwell/backend/internal/application/catalog"
	"github.com/inkwell/backend/internal/domain/catalog"
	"github.com/inkwell/backend/internal/interfaces/http/dto"
)

// ISBNHandler handles prefix block and ISBN pool endpoints
type ISBNHandler struct {
	BaseHandler
	poolService *catalogapp.ISBNPoolService
	blockRepo   catalog.ISBNBlockRepository
}

// NewISBNHandler creates a new ISBNHandler
func NewISBNHandler(poolService *catalogapp.ISBNPoolService, blockRepo catalog.ISBNBlockRepository) *ISBNHandler {
	return &ISBNHandler{
		poolService: poolService,
		blockRepo:   blockRepo,
	}
}

// RequestBlockRequest is the request body for expanding a publisher prefix
type RequestBlockRequest struct {
	Prefix    string `json:"prefix" binding:"required"`
	BlockSize int64  `json:"block_size" binding:"required,min=1"`
}

// BlockResponse is the wire representation of an ISBN prefix block
type BlockResponse struct {
	ID             uuid.UUID  `json:"id"`
	Prefix         string     `json:"prefix"`
	BlockSize      int64      `json:"block_size"`
	Status         string     `json:"status"`
	GeneratedCount int64      `json:"generated_count"`
	FailureReason  string     `json:"failure_reason,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// PooledISBNResponse is one claimed ISBN
type PooledISBNResponse struct {
	ISBN     string    `json:"isbn"`
	BlockID  uuid.UUID `json:"block_id"`
	Sequence int64     `json:"sequence"`
}

func toBlockResponse(b *catalog.ISBNBlock) BlockResponse {
	return BlockResponse{
		ID:             b.ID,
		Prefix:         b.Prefix,
		BlockSize:      b.BlockSize,
		Status:         string(b.Status),
		GeneratedCount: b.GeneratedCount,
		FailureReason:  b.FailureReason,
		StartedAt:      b.StartedAt,
		CompletedAt:    b.CompletedAt,
		CreatedAt:      b.CreatedAt,
	}
}

// RequestBlock registers a pending block for a publisher prefix
func (h *ISBNHandler) RequestBlock(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	var req RequestBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	block, err := h.poolService.RequestBlock(c.Request.Context(), catalogapp.RequestBlockRequest{
		TenantID:  tenantID,
		Prefix:    req.Prefix,
		BlockSize: req.BlockSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toBlockResponse(block))
}

// ListBlocks returns the tenant's prefix blocks
func (h *ISBNHandler) ListBlocks(c *gin.Context) {
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
	if status := c.Query("status"); status != "" {
		filter.Filters = map[string]interface{}{"status": status}
	}

	blocks, err := h.blockRepo.FindAllForTenant(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]BlockResponse, 0, len(blocks))
	for i := range blocks {
		responses = append(responses, toBlockResponse(&blocks[i]))
	}
	h.Success(c, responses)
}

// GetBlock returns a single prefix block with its generation progress
func (h *ISBNHandler) GetBlock(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid block ID")
		return
	}

	block, err := h.blockRepo.FindByIDForTenant(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toBlockResponse(block))
}

// Generate runs (or resumes) pool generation for a block. Generation is
// idempotent per sequence, so re-running a partial block is safe.
func (h *ISBNHandler) Generate(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid block ID")
		return
	}

	if err := h.poolService.RunGeneration(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	block, err := h.blockRepo.FindByIDForTenant(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toBlockResponse(block))
}

// Claim hands out the next unassigned ISBN from the tenant's pool
func (h *ISBNHandler) Claim(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	pooled, err := h.poolService.ClaimISBN(c.Request.Context(), tenantID)
	if err != nil {
		// An empty pool surfaces as not-found from the repository; report
		// it as exhaustion so callers know to request another block
		if dto.HTTPStatusForError(err) == 404 {
			h.Error(c, 409, "POOL_EXHAUSTED", "No unassigned ISBNs remain in the pool")
			return
		}
		h.HandleError(c, err)
		return
	}

	h.Success(c, PooledISBNResponse{
		ISBN:     pooled.ISBN,
		BlockID:  pooled.BlockID,
		Sequence: pooled.Sequence,
	})
}

// RegisterRoutes mounts the ISBN endpoints
func (h *ISBNHandler) RegisterRoutes(rg *gin.RouterGroup) {
	isbn := rg.Group("/isbn")
	{
		isbn.POST("/blocks", h.RequestBlock)
		isbn.GET("/blocks", h.ListBlocks)
		isbn.GET("/blocks/:id", h.GetBlock)
		isbn.POST("/blocks/:id/generate", h.Generate)
		isbn.POST("/claim", h.Claim)
	}
}
