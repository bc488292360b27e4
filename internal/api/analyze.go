package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"sprintanalyzer/internal/analyzer"
)

// Analyze 上传工作簿并分析 (SSE 流式响应)
// POST /api/analyze
func (h *Handler) Analyze(c *gin.Context) {
	if limit := h.cfg.Server.MaxUploadMB; limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit<<20)
	}

	uploadedFile, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传文件"})
		return
	}
	name := filepath.Base(uploadedFile.Filename)
	if !strings.EqualFold(filepath.Ext(name), ".xlsx") && !strings.EqualFold(filepath.Ext(name), ".xlsm") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "仅支持 .xlsx / .xlsm 文件"})
		return
	}

	// 上传文件分析后删除，结果写入 exports
	id := uuid.NewString()
	uploadPath := filepath.Join(h.dataDir, "uploads", fmt.Sprintf("%s_%s", id, name))
	outputPath := filepath.Join(h.dataDir, "exports", fmt.Sprintf("%s_%s", id, name))
	if err := c.SaveUploadedFile(uploadedFile, uploadPath); err != nil {
		h.log.Error().Err(err).Str("file", name).Msg("save upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存文件失败"})
		return
	}
	defer os.Remove(uploadPath)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return
	}

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	progressChan := h.service.Analyze(c.Request.Context(), analyzer.Options{
		FilePath:   uploadPath,
		OutputPath: outputPath,
	})

	for event := range progressChan {
		eventData, err := json.Marshal(event)
		if err != nil {
			continue
		}

		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
}
