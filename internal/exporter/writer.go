// Package exporter 把一次运行的计算结果写回迭代工作簿。
package exporter

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"sprintanalyzer/internal/layout"
	"sprintanalyzer/internal/model"
)

// Writer 报表写入方
//
// Update*/Append* 只修改内存中的工作簿，Save/SaveAs 之前不落盘。
type Writer interface {
	UpdateAnalysis(sprint string, staff model.StaffMetrics, team model.TeamMetrics) error
	UpdateKPIIndicators(staff model.StaffMetrics, team model.TeamMetrics, sprint string) error
	AppendHistoricalStaff(staff model.StaffMetrics, sprint string) error
	AppendHistoricalTeam(team model.TeamMetrics, sprint string) error
	UpdateCMMITemplate(cmmi model.CMMIMeasures, sprint string) error
	ApplyFormulas() error
	Save() error
	SaveAs(path string) error
}

// tableRange 已写入的数据区（用于生成汇总公式）
type tableRange struct {
	sheet    string
	firstRow int
	lastRow  int
	cols     []int // 需要汇总的列
	fn       string
	label    string
}

// ReportWriter 基于 excelize 的写入实现
type ReportWriter struct {
	f      *excelize.File
	sheets layout.ReportSheets

	headerStyle  int
	percentStyle int
	ranges       []tableRange
}

// NewReportWriter 包装已打开的工作簿
func NewReportWriter(f *excelize.File, sheets layout.ReportSheets) (*ReportWriter, error) {
	w := &ReportWriter{f: f, sheets: sheets}

	var err error
	w.headerStyle, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	w.percentStyle, err = f.NewStyle(&excelize.Style{NumFmt: 10}) // 0.00%
	if err != nil {
		return nil, fmt.Errorf("create percent style: %w", err)
	}
	return w, nil
}

// File 底层工作簿
func (w *ReportWriter) File() *excelize.File {
	return w.f
}

// Save 覆盖保存到原路径
func (w *ReportWriter) Save() error {
	if err := w.f.Save(); err != nil {
		return fmt.Errorf("保存工作簿失败: %w", err)
	}
	return nil
}

// SaveAs 另存为
func (w *ReportWriter) SaveAs(path string) error {
	if strings.TrimSpace(path) == "" {
		return w.Save()
	}
	if err := w.f.SaveAs(path); err != nil {
		return fmt.Errorf("保存工作簿到 %s 失败: %w", path, err)
	}
	return nil
}

// resetRanges 丢弃某张表上记录的数据区（表被重写时调用）
func (w *ReportWriter) resetRanges(sheet string) {
	kept := w.ranges[:0]
	for _, r := range w.ranges {
		if r.sheet != sheet {
			kept = append(kept, r)
		}
	}
	w.ranges = kept
}
