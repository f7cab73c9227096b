package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	salesapp "github.com/inkwell/backend/internal/application/sales"
	"github.com/inkwell/backend/internal/domain/royalty"
	"github.com/inkwell/backend/internal/domain/sales"
	"github.com/inkwell/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// SalesHandler handles the sales and returns ledger endpoints
type SalesHandler struct {
	BaseHandler
	salesService *salesapp.SalesService
	txnRepo      sales.TransactionRepository
}

// NewSalesHandler creates a new SalesHandler
func NewSalesHandler(salesService *salesapp.SalesService, txnRepo sales.TransactionRepository) *SalesHandler {
	return &SalesHandler{
		salesService: salesService,
		txnRepo:      txnRepo,
	}
}

// RecordTransactionRequest is the request body for one ledger entry
type RecordTransactionRequest struct {
	TitleID    uuid.UUID       `json:"title_id" binding:"required"`
	Format     string          `json:"format" binding:"required,oneof=PHYSICAL EBOOK AUDIOBOOK"`
	Type       string          `json:"type" binding:"required,oneof=SALE RETURN"`
	Units      int64           `json:"units" binding:"required,min=1"`
	Revenue    decimal.Decimal `json:"revenue" binding:"required"`
	Channel    string          `json:"channel" binding:"max=100"`
	OccurredAt time.Time       `json:"occurred_at" binding:"required"`
}

// RecordBatchRequest is the request body for a batch of ledger entries
type RecordBatchRequest struct {
	Transactions []RecordTransactionRequest `json:"transactions" binding:"required,min=1,dive"`
}

// TransactionResponse is the wire representation of a ledger entry
type TransactionResponse struct {
	ID           uuid.UUID       `json:"id"`
	TitleID      uuid.UUID       `json:"title_id"`
	Format       string          `json:"format"`
	Type         string          `json:"type"`
	Units        int64           `json:"units"`
	Revenue      decimal.Decimal `json:"revenue"`
	Channel      string          `json:"channel,omitempty"`
	OccurredAt   time.Time       `json:"occurred_at"`
	ReturnStatus string          `json:"return_status,omitempty"`
	ReviewedAt   *time.Time      `json:"reviewed_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toTransactionResponse(txn *sales.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:           txn.ID,
		TitleID:      txn.TitleID,
		Format:       string(txn.Format),
		Type:         string(txn.Type),
		Units:        txn.Units,
		Revenue:      txn.Revenue,
		Channel:      txn.Channel,
		OccurredAt:   txn.OccurredAt,
		ReturnStatus: string(txn.ReturnStatus),
		ReviewedAt:   txn.ReviewedAt,
		CreatedAt:    txn.CreatedAt,
	}
}

func (r RecordTransactionRequest) toServiceRequest(tenantID uuid.UUID) salesapp.RecordTransactionRequest {
	return salesapp.RecordTransactionRequest{
		TenantID:   tenantID,
		TitleID:    r.TitleID,
		Format:     royalty.Format(r.Format),
		Type:       sales.TransactionType(r.Type),
		Units:      r.Units,
		Revenue:    r.Revenue,
		Channel:    r.Channel,
		OccurredAt: r.OccurredAt,
	}
}

// Record appends one sale or return to the ledger
func (h *SalesHandler) Record(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	var req RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	txn, err := h.salesService.RecordTransaction(c.Request.Context(), req.toServiceRequest(tenantID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toTransactionResponse(txn))
}

// RecordBatch appends a batch of ledger entries in one transaction
func (h *SalesHandler) RecordBatch(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	var req RecordBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	serviceReqs := make([]salesapp.RecordTransactionRequest, 0, len(req.Transactions))
	for _, t := range req.Transactions {
		serviceReqs = append(serviceReqs, t.toServiceRequest(tenantID))
	}

	txns, err := h.salesService.RecordBatch(c.Request.Context(), tenantID, serviceReqs)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		responses = append(responses, toTransactionResponse(txn))
	}
	h.Created(c, responses)
}

// List returns the tenant's ledger entries
func (h *SalesHandler) List(c *gin.Context) {
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
	if titleID := c.Query("title_id"); titleID != "" {
		filters["title_id"] = titleID
	}
	if txnType := c.Query("type"); txnType != "" {
		filters["type"] = txnType
	}
	if len(filters) > 0 {
		filter.Filters = filters
	}

	txns, err := h.txnRepo.FindAllForTenant(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	total, err := h.txnRepo.CountForTenant(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]TransactionResponse, 0, len(txns))
	for i := range txns {
		responses = append(responses, toTransactionResponse(&txns[i]))
	}
	h.SuccessWithMeta(c, responses, total, filter.Page, filter.PageSize)
}

// ApproveReturn approves a pending return; it then counts against royalties
func (h *SalesHandler) ApproveReturn(c *gin.Context) {
	h.reviewReturn(c, true)
}

// RejectReturn rejects a pending return; it never affects royalties
func (h *SalesHandler) RejectReturn(c *gin.Context) {
	h.reviewReturn(c, false)
}

func (h *SalesHandler) reviewReturn(c *gin.Context, approve bool) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID")
		return
	}

	var txn *sales.Transaction
	if approve {
		txn, err = h.salesService.ApproveReturn(c.Request.Context(), tenantID, id)
	} else {
		txn, err = h.salesService.RejectReturn(c.Request.Context(), tenantID, id)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toTransactionResponse(txn))
}

// RegisterRoutes mounts the sales ledger endpoints
func (h *SalesHandler) RegisterRoutes(rg *gin.RouterGroup) {
	salesGroup := rg.Group("/sales")
	{
		salesGroup.POST("/transactions", h.Record)
		salesGroup.POST("/transactions/batch", h.RecordBatch)
		salesGroup.GET("/transactions", h.List)
		salesGroup.POST("/transactions/:id/approve-return", h.ApproveReturn)
		salesGroup.POST("/transactions/:id/reject-return", h.RejectReturn)
	}
}
