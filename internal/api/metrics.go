package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"sprintanalyzer/internal/store"
)

// GetMetrics 以 Prometheus 文本格式导出运行统计
// GET /api/metrics
func (h *Handler) GetMetrics(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "运行记录未启用"})
		return
	}

	families, err := h.metricFamilies()
	if err != nil {
		h.log.Error().Err(err).Msg("collect metrics failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	c.Header("Content-Type", string(format))
	c.Status(http.StatusOK)
	enc := expfmt.NewEncoder(c.Writer, format)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			h.log.Error().Err(err).Str("metric", mf.GetName()).Msg("encode metric failed")
			return
		}
	}
}

func (h *Handler) metricFamilies() ([]*dto.MetricFamily, error) {
	counts, err := h.store.CountRuns()
	if err != nil {
		return nil, err
	}

	runs := &dto.MetricFamily{
		Name: ptr("sprintanalyzer_runs_total"),
		Help: ptr("Analysis runs recorded, by status."),
		Type: dto.MetricType_COUNTER.Enum(),
	}
	for _, status := range []string{store.RunCompleted, store.RunFailed, store.RunRunning} {
		runs.Metric = append(runs.Metric, &dto.Metric{
			Label:   []*dto.LabelPair{{Name: ptr("status"), Value: ptr(status)}},
			Counter: &dto.Counter{Value: ptr(float64(counts[status]))},
		})
	}
	families := []*dto.MetricFamily{runs}

	last, err := h.store.LastCompletedRun()
	if errors.Is(err, store.ErrNotFound) {
		return families, nil
	}
	if err != nil {
		return nil, err
	}

	families = append(families,
		gauge("sprintanalyzer_last_run_staff", "Staff analysed in the last completed run.", float64(last.StaffCount)),
		gauge("sprintanalyzer_last_run_teams", "Teams processed in the last completed run.", float64(last.TeamCount)),
		gauge("sprintanalyzer_last_run_completion_ratio", "CMMI completion rate of the last completed run.", last.CompletionRate),
	)
	// KPI 为空时不导出，避免与 0 分混淆
	if last.AverageKPI != nil {
		families = append(families, gauge("sprintanalyzer_last_run_average_team_kpi", "Average team KPI of the last completed run.", *last.AverageKPI))
	}
	return families, nil
}

func gauge(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   ptr(name),
		Help:   ptr(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: ptr(v)}}},
	}
}

func ptr[T any](v T) *T {
	return &v
}
