package exporter

import (
	"fmt"

	"sprintanalyzer/internal/model"
)

// ProgressEvent 单张报表写完后的进度
type ProgressEvent struct {
	Percent int
	Stage   string
}

// Publish 按固定顺序执行五个写入调用，任一失败立即返回
//
// 保存由调用方在公式生成之后单独完成。
func Publish(w Writer, b model.ReportBundle, progress func(ProgressEvent)) error {
	steps := []struct {
		name string
		run  func() error
	}{
		{"analysis", func() error { return w.UpdateAnalysis(b.SprintName, b.Staff, b.Team) }},
		{"kpi indicators", func() error { return w.UpdateKPIIndicators(b.Staff, b.Team, b.SprintName) }},
		{"historical staff", func() error { return w.AppendHistoricalStaff(b.Staff, b.SprintName) }},
		{"historical team", func() error { return w.AppendHistoricalTeam(b.Team, b.SprintName) }},
		{"cmmi", func() error { return w.UpdateCMMITemplate(b.CMMI, b.SprintName) }},
	}
	for i, s := range steps {
		if err := s.run(); err != nil {
			return fmt.Errorf("更新 %s 失败: %w", s.name, err)
		}
		if progress != nil {
			progress(ProgressEvent{Percent: (i + 1) * 100 / len(steps), Stage: s.name})
		}
	}
	return nil
}
