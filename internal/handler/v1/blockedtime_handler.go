package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/medagenda/api/internal/domain/blockedtime"
	"github.com/medagenda/api/internal/service"
)

type BlockedTimeHandler struct {
	svc *service.BlockedTimeService
}

func NewBlockedTimeHandler(svc *service.BlockedTimeService) *BlockedTimeHandler {
	return &BlockedTimeHandler{svc: svc}
}

type createBlockedTimeRequest struct {
	Date   string `json:"date" binding:"required"`
	Time   string `json:"time" binding:"required"`
	Reason string `json:"reason"`
}

func (h *BlockedTimeHandler) Create(c *gin.Context) {
	var req createBlockedTimeRequest
	if !bindJSON(c, &req) {
		return
	}

	bt, err := h.svc.Create(c.Request.Context(), &blockedtime.CreateCommand{
		Date:   req.Date,
		Time:   req.Time,
		Reason: req.Reason,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, bt)
}

func (h *BlockedTimeHandler) List(c *gin.Context) {
	q := &blockedtime.ListQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("date"); raw != "" {
		q.Date = &raw
	}

	page, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{
		"blocked_times": page.BlockedTimes,
		"total_count":   page.TotalCount,
		"page":          page.Page,
		"page_size":     page.PageSize,
		"total_pages":   page.TotalPages,
	})
}

func (h *BlockedTimeHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"deleted": id})
}
