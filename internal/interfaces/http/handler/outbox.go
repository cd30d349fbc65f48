package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appevent "github.com/restosuite/backend/internal/application/event"
)

// OutboxHandler exposes operator endpoints for outbox inspection and
// dead letter recovery
type OutboxHandler struct {
	BaseHandler
	outboxService *appevent.OutboxService
}

// NewOutboxHandler creates a new outbox handler
func NewOutboxHandler(outboxService *appevent.OutboxService) *OutboxHandler {
	return &OutboxHandler{outboxService: outboxService}
}

// Stats returns outbox delivery statistics
// GET /api/v1/system/outbox/stats
func (h *OutboxHandler) Stats(c *gin.Context) {
	stats, err := h.outboxService.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// ListDeadLetters returns dead letter entries with pagination
// GET /api/v1/system/outbox/dead-letters
func (h *OutboxHandler) ListDeadLetters(c *gin.Context) {
	var filter appevent.OutboxFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.outboxService.DeadLetterEntries(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// GetEntry returns a single outbox entry
// GET /api/v1/system/outbox/entries/:id
func (h *OutboxHandler) GetEntry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid entry ID format")
		return
	}

	entry, err := h.outboxService.Entry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// RetryDeadLetter resets a dead letter entry for redelivery
// POST /api/v1/system/outbox/entries/:id/retry
func (h *OutboxHandler) RetryDeadLetter(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid entry ID format")
		return
	}

	entry, err := h.outboxService.RetryDeadEntry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// RetryAllDeadLetters resets every dead letter entry for redelivery
// POST /api/v1/system/outbox/dead-letters/retry-all
func (h *OutboxHandler) RetryAllDeadLetters(c *gin.Context) {
	count, err := h.outboxService.RetryAllDeadEntries(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"retried": count})
}
