package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/application/event"
)

// OutboxHandler exposes the outbox operations surface: dead-letter
// inspection and retry. These are operator endpoints, not tenant-facing.
type OutboxHandler struct {
	BaseHandler
	outboxService *event.OutboxService
}

// NewOutboxHandler creates a new OutboxHandler
func NewOutboxHandler(outboxService *event.OutboxService) *OutboxHandler {
	return &OutboxHandler{outboxService: outboxService}
}

// GetDeadLetterEntries returns a page of dead-lettered events
func (h *OutboxHandler) GetDeadLetterEntries(c *gin.Context) {
	var filter event.OutboxFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.outboxService.GetDeadLetterEntries(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GetEntry returns a single outbox entry
func (h *OutboxHandler) GetEntry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid entry ID")
		return
	}

	entry, err := h.outboxService.GetEntry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entry)
}

// RetryDeadEntry resets one dead-lettered event for reprocessing
func (h *OutboxHandler) RetryDeadEntry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid entry ID")
		return
	}

	entry, err := h.outboxService.RetryDeadEntry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entry)
}

// RetryAllDeadEntries resets every dead-lettered event for reprocessing
func (h *OutboxHandler) RetryAllDeadEntries(c *gin.Context) {
	count, err := h.outboxService.RetryAllDeadEntries(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"retried": count})
}

// GetStats returns queue depth per outbox status
func (h *OutboxHandler) GetStats(c *gin.Context) {
	stats, err := h.outboxService.GetStats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

// RegisterRoutes mounts the outbox operator endpoints
func (h *OutboxHandler) RegisterRoutes(rg *gin.RouterGroup) {
	outbox := rg.Group("/system/outbox")
	{
		outbox.GET("/dead", h.GetDeadLetterEntries)
		outbox.GET("/stats", h.GetStats)
		outbox.GET("/:id", h.GetEntry)
		outbox.POST("/:id/retry", h.RetryDeadEntry)
		outbox.POST("/retry-all", h.RetryAllDeadEntries)
	}
}
