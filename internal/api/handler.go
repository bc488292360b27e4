package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"sprintanalyzer/internal/analyzer"
	"sprintanalyzer/internal/config"
	"sprintanalyzer/internal/store"
)

// Handler API 处理器
type Handler struct {
	cfg     *config.AppConfig
	store   *store.Store
	service *analyzer.Service
	dataDir string
	log     zerolog.Logger
}

// NewHandler 创建 API 处理器；dataDir 下的 uploads/exports 存放上传与结果文件
func NewHandler(cfg *config.AppConfig, st *store.Store, dataDir string, log zerolog.Logger) *Handler {
	return &Handler{
		cfg:     cfg,
		store:   st,
		service: analyzer.NewService(cfg, st, log),
		dataDir: dataDir,
		log:     log,
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 分析（SSE 流式响应）
	router.POST("/analyze", h.Analyze)

	// 运行记录
	router.GET("/runs", h.ListRuns)
	router.GET("/runs/:id", h.GetRun)
	router.GET("/runs/:id/download", h.DownloadRun)

	// 历史指标
	router.GET("/history", h.ListHistory)

	// Prometheus 文本格式的运行统计
	router.GET("/metrics", h.GetMetrics)
}
