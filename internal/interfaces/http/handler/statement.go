package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	royaltyapp "github.com/inkwell/backend/internal/application/royalty"
	"github.com/inkwell/backend/internal/domain/royalty"
	"github.com/inkwell/backend/internal/interfaces/http/dto"
)

// StatementHandler handles royalty statement endpoints: runs, corrections,
// archived documents, and the yearly tax report
type StatementHandler struct {
	BaseHandler
	runService     *royaltyapp.StatementRunService
	archiveService *royaltyapp.StatementArchiveService
	taxService     *royaltyapp.TaxReportService
	statementRepo  royalty.StatementRepository
}

// NewStatementHandler creates a new StatementHandler
func NewStatementHandler(
	runService *royaltyapp.StatementRunService,
	archiveService *royaltyapp.StatementArchiveService,
	taxService *royaltyapp.TaxReportService,
	statementRepo royalty.StatementRepository,
) *StatementHandler {
	return &StatementHandler{
		runService:     runService,
		archiveService: archiveService,
		taxService:     taxService,
		statementRepo:  statementRepo,
	}
}

// RunStatementsRequest is the request body for triggering a statement run
// over a half-open period [period_start, period_end)
type RunStatementsRequest struct {
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
}

// StatementResponse is the wire representation of a statement
type StatementResponse struct {
	ID              uuid.UUID                     `json:"id"`
	StatementNumber string                        `json:"statement_number"`
	AuthorID        uuid.UUID                     `json:"author_id"`
	TitleID         uuid.UUID                     `json:"title_id"`
	ContractID      uuid.UUID                     `json:"contract_id"`
	PeriodStart     string                        `json:"period_start"`
	PeriodEnd       string                        `json:"period_end"`
	Status          string                        `json:"status"`
	Calculations    royalty.StatementCalculations `json:"calculations"`
	SupersededBy    *uuid.UUID                    `json:"superseded_by,omitempty"`
	SupersededAt    *time.Time                    `json:"superseded_at,omitempty"`
	CreatedAt       time.Time                     `json:"created_at"`
}

// DownloadURLResponse carries a presigned statement document URL
type DownloadURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func toStatementResponse(s *royalty.Statement) StatementResponse {
	return StatementResponse{
		ID:              s.ID,
		StatementNumber: s.StatementNumber,
		AuthorID:        s.AuthorID,
		TitleID:         s.TitleID,
		ContractID:      s.ContractID,
		PeriodStart:     s.PeriodStart.Format("2006-01-02"),
		PeriodEnd:       s.PeriodEnd.Format("2006-01-02"),
		Status:          string(s.Status),
		Calculations:    s.Calculations,
		SupersededBy:    s.SupersededBy,
		SupersededAt:    s.SupersededAt,
		CreatedAt:       s.CreatedAt,
	}
}

// Run triggers a statement run for every active contract in the period.
// Contracts that already have a statement for the period are skipped, so
// re-posting the same period is safe.
func (h *StatementHandler) Run(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	var req RunStatementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	start, err := time.Parse("2006-01-02", req.PeriodStart)
	if err != nil {
		h.BadRequest(c, "period_start must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", req.PeriodEnd)
	if err != nil {
		h.BadRequest(c, "period_end must be YYYY-MM-DD")
		return
	}
	if !end.After(start) {
		h.BadRequest(c, "period_end must be after period_start")
		return
	}

	result, err := h.runService.Run(c.Request.Context(), royaltyapp.RunRequest{
		TenantID: tenantID,
		Period:   royalty.Period{Start: start, End: end},
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// List returns the tenant's statements
func (h *StatementHandler) List(c *gin.Context) {
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
	if authorID := c.Query("author_id"); authorID != "" {
		filters["author_id"] = authorID
	}
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if len(filters) > 0 {
		filter.Filters = filters
	}

	statements, err := h.statementRepo.FindAllForTenant(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	total, err := h.statementRepo.CountForTenant(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]StatementResponse, 0, len(statements))
	for i := range statements {
		responses = append(responses, toStatementResponse(&statements[i]))
	}
	h.SuccessWithMeta(c, responses, total, filter.Page, filter.PageSize)
}

// Get returns a single statement
func (h *StatementHandler) Get(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid statement ID")
		return
	}

	statement, err := h.statementRepo.FindByIDForTenant(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toStatementResponse(statement))
}

// Correct recomputes a statement against the current ledger. The original
// is superseded, not deleted, and the replacement gets a fresh number.
func (h *StatementHandler) Correct(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid statement ID")
		return
	}

	replacement, err := h.runService.Correct(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toStatementResponse(replacement))
}

// Archive renders the statement document and stores it
func (h *StatementHandler) Archive(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid statement ID")
		return
	}

	archived, err := h.archiveService.Archive(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, archived)
}

// Document returns a presigned download URL for an archived statement
func (h *StatementHandler) Document(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid statement ID")
		return
	}

	url, expiresAt, err := h.archiveService.DownloadURL(c.Request.Context(), tenantID, id, 15*time.Minute)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, DownloadURLResponse{URL: url, ExpiresAt: expiresAt})
}

// TaxReport returns the yearly per-author net payable summary
func (h *StatementHandler) TaxReport(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		h.BadRequest(c, "year query parameter is required")
		return
	}

	report, err := h.taxService.GenerateYearly(c.Request.Context(), royaltyapp.TaxReportRequest{
		TenantID: tenantID,
		Year:     year,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// RegisterRoutes mounts the royalty endpoints
func (h *StatementHandler) RegisterRoutes(rg *gin.RouterGroup) {
	royaltyGroup := rg.Group("/royalty")
	{
		royaltyGroup.POST("/runs", h.Run)
		royaltyGroup.GET("/statements", h.List)
		royaltyGroup.GET("/statements/:id", h.Get)
		royaltyGroup.POST("/statements/:id/correct", h.Correct)
		royaltyGroup.POST("/statements/:id/archive", h.Archive)
		royaltyGroup.GET("/statements/:id/document", h.Document)
		royaltyGroup.GET("/tax-report", h.TaxReport)
	}
}
