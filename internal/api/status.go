package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sprintanalyzer/internal/store"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Ready        bool       `json:"ready"`        // 存储可用
	LastWorkbook string     `json:"lastWorkbook"` // 最近一次成功分析的结果文件
	LastRun      *store.Run `json:"lastRun"`      // 最近一次运行
	DataSheet    string     `json:"dataSheet"`
	Capacity     string     `json:"capacitySheet"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	resp := StatusResponse{
		Ready:     h.store != nil,
		DataSheet: h.cfg.Layout.DataSheet,
		Capacity:  h.cfg.Layout.CapacitySheet,
	}
	if h.store == nil {
		c.JSON(http.StatusOK, resp)
		return
	}

	if v, ok, err := h.store.GetSetting(store.SettingLastWorkbook); err == nil && ok {
		resp.LastWorkbook = v
	}
	if runs, err := h.store.ListRuns(1); err == nil && len(runs) > 0 {
		resp.LastRun = runs[0]
	}

	c.JSON(http.StatusOK, resp)
}
