package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sprintanalyzer/internal/store"
)

// ListHistory 历史指标
// GET /api/history?kind=staff&name=A
func (h *Handler) ListHistory(c *gin.Context) {
	kind := c.DefaultQuery("kind", store.KindStaff)
	if kind != store.KindStaff && kind != store.KindTeam {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind 必须为 staff 或 team"})
		return
	}
	records, err := h.store.ListHistory(kind, c.Query("name"))
	if err != nil {
		h.log.Error().Err(err).Msg("list history failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取历史指标失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": records, "total": len(records)})
}
