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

// TitleHandler handles title catalog endpoints
type TitleHandler struct {
	BaseHandler
	catalogService *catalogapp.CatalogService
	titleRepo      catalog.TitleRepository
}

// NewTitleHandler creates a new TitleHandler
func NewTitleHandler(catalogService *catalogapp.CatalogService, titleRepo catalog.TitleRepository) *TitleHandler {
	return &TitleHandler{
		catalogService: catalogService,
		titleRepo:      titleRepo,
	}
}

// OwnershipRequest is one author stake in a create-title request
type OwnershipRequest struct {
	AuthorID   uuid.UUID       `json:"author_id" binding:"required"`
	Percentage decimal.Decimal `json:"percentage" binding:"required"`
}

// CreateTitleRequest is the request body for creating a title
type CreateTitleRequest struct {
	Name       string             `json:"name" binding:"required,min=1,max=500"`
	Ownerships []OwnershipRequest `json:"ownerships" binding:"required,min=1,dive"`
}

// AddFormatRequest is the request body for adding a format listing
type AddFormatRequest struct {
	Format    string          `json:"format" binding:"required,oneof=PHYSICAL EBOOK AUDIOBOOK"`
	ListPrice decimal.Decimal `json:"list_price" binding:"required"`
}

// TitleResponse is the wire representation of a title
type TitleResponse struct {
	ID         uuid.UUID                `json:"id"`
	Name       string                   `json:"name"`
	Subtitle   string                   `json:"subtitle,omitempty"`
	Status     string                   `json:"status"`
	Formats    catalog.FormatListings   `json:"formats"`
	Ownerships catalog.AuthorOwnerships `json:"ownerships"`
	CreatedAt  time.Time                `json:"created_at"`
	UpdatedAt  time.Time                `json:"updated_at"`
}

func toTitleResponse(t *catalog.Title) TitleResponse {
	return TitleResponse{
		ID:         t.ID,
		Name:       t.Name,
		Subtitle:   t.Subtitle,
		Status:     string(t.Status),
		Formats:    t.Formats,
		Ownerships: t.Ownerships,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

// Create registers a draft title with its ownership split
func (h *TitleHandler) Create(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	var req CreateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ownerships := make(catalog.AuthorOwnerships, 0, len(req.Ownerships))
	for _, o := range req.Ownerships {
		ownerships = append(ownerships, catalog.AuthorOwnership{
			AuthorID:   o.AuthorID,
			Percentage: o.Percentage,
		})
	}

	title, err := h.catalogService.CreateTitle(c.Request.Context(), catalogapp.CreateTitleRequest{
		TenantID:   tenantID,
		Name:       req.Name,
		Ownerships: ownerships,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toTitleResponse(title))
}

// List returns the tenant's titles
func (h *TitleHandler) List(c *gin.Context) {
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

	titles, err := h.titleRepo.FindAllForTenant(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	total, err := h.titleRepo.CountForTenant(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]TitleResponse, 0, len(titles))
	for i := range titles {
		responses = append(responses, toTitleResponse(&titles[i]))
	}
	h.SuccessWithMeta(c, responses, total, filter.Page, filter.PageSize)
}

// Get returns a single title
func (h *TitleHandler) Get(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid title ID")
		return
	}

	title, err := h.titleRepo.FindByIDForTenant(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toTitleResponse(title))
}

// AddFormat adds a priced format listing to a title
func (h *TitleHandler) AddFormat(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid title ID")
		return
	}

	var req AddFormatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	title, err := h.catalogService.AddFormat(c.Request.Context(), catalogapp.AddFormatRequest{
		TenantID:  tenantID,
		TitleID:   id,
		Format:    royalty.Format(req.Format),
		ListPrice: req.ListPrice,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toTitleResponse(title))
}

// AssignISBN assigns the next pooled ISBN to one of the title's formats
func (h *TitleHandler) AssignISBN(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid title ID")
		return
	}

	format := royalty.Format(c.Param("format"))
	if !format.IsValid() {
		h.BadRequest(c, "Invalid format")
		return
	}

	title, err := h.catalogService.AssignISBNFromPool(c.Request.Context(), tenantID, id, format)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toTitleResponse(title))
}

// Publish moves a title from draft to published
func (h *TitleHandler) Publish(c *gin.Context) {
	tenantID, ok := getTenantID(c)
	if !ok {
		h.missingTenant(c)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid title ID")
		return
	}

	title, err := h.catalogService.PublishTitle(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toTitleResponse(title))
}

// RegisterRoutes mounts the title endpoints
func (h *TitleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	titles := rg.Group("/titles")
	{
		titles.POST("", h.Create)
		titles.GET("", h.List)
		titles.GET("/:id", h.Get)
		titles.POST("/:id/formats", h.AddFormat)
		titles.POST("/:id/formats/:format/isbn", h.AssignISBN)
		titles.POST("/:id/publish", h.Publish)
	}
}
