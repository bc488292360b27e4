package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"sprintanalyzer/internal/store"
)

// ListRuns 最近的运行记录
// GET /api/runs?limit=20
func (h *Handler) ListRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit 参数无效"})
		return
	}
	runs, err := h.store.ListRuns(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("list runs failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取运行记录失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": runs, "total": len(runs)})
}

// GetRun 单次运行详情
// GET /api/runs/:id
func (h *Handler) GetRun(c *gin.Context) {
	run, ok := h.lookupRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, run)
}

// DownloadRun 下载运行生成的工作簿
// GET /api/runs/:id/download
func (h *Handler) DownloadRun(c *gin.Context) {
	run, ok := h.lookupRun(c)
	if !ok {
		return
	}
	if run.Status != store.RunCompleted || run.Output == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "该运行没有可下载的结果"})
		return
	}
	if _, err := os.Stat(run.Output); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "结果文件不存在"})
		return
	}

	c.Header("Content-Disposition", contentDisposition(downloadName(run)))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.File(run.Output)
}

func (h *Handler) lookupRun(c *gin.Context) (*store.Run, bool) {
	id := c.Param("id")
	run, err := h.store.GetRun(id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "运行记录不存在"})
		return nil, false
	}
	if err != nil {
		h.log.Error().Err(err).Str("run_id", id).Msg("get run failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取运行记录失败"})
		return nil, false
	}
	return run, true
}

// downloadName "Sprint 5 - analysis.xlsx"，无迭代名时用原文件名
func downloadName(run *store.Run) string {
	if run.SprintName == "" {
		return filepath.Base(run.Workbook)
	}
	return run.SprintName + " - analysis" + filepath.Ext(run.Output)
}

// contentDisposition ASCII 回退名 + RFC 5987 UTF-8 文件名
func contentDisposition(filename string) string {
	fallback := make([]rune, 0, len(filename))
	for _, r := range filename {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			r = '_'
		}
		fallback = append(fallback, r)
	}
	return fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", string(fallback), url.PathEscape(filename))
}
