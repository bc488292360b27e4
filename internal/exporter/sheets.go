package exporter

import (
	"fmt"
	"strings"

	"sprintanalyzer/internal/model"
)

// 分析表 / KPI 表的数据区从第 3 行表头开始
const (
	titleRow       = 1
	firstHeaderRow = 3
)

var metricHeaders = []string{
	"Items", "Done", "Removed", "Bugs",
	"Estimated Effort", "Completed Effort", "Remaining Effort", "Velocity", "Capacity",
	"Completion", "Utilization", "Effort Accuracy", "Bug Ratio", "Contribution", "KPI",
}

// 分析表列号（1 起）
const (
	colMetricsFirst = 3
	colCapacity     = 11
	colPercentFirst = 12
	colPercentLast  = 16
	colKPI          = 17
)

func metricCells(m model.MetricValues) []interface{} {
	return []interface{}{
		m.Items, m.Done, m.Removed, m.Bugs,
		m.EstimatedEffort, m.CompletedEffort, m.RemainingEffort, m.Velocity, optional(m.Capacity),
		optional(m.CompletionRatio), optional(m.Utilization), optional(m.EffortAccuracy),
		optional(m.BugRatio), optional(m.Contribution), optional(m.KPI),
	}
}

// UpdateAnalysis 重写分析表：员工表 + 团队表，各自下方预留一行汇总
func (w *ReportWriter) UpdateAnalysis(sprint string, staff model.StaffMetrics, team model.TeamMetrics) error {
	sheet := w.sheets.Analysis
	if err := w.resetSheet(sheet, sprint); err != nil {
		return err
	}

	staffRows := make([][]interface{}, len(staff))
	for i, s := range staff {
		staffRows[i] = append([]interface{}{s.Name, s.Team}, metricCells(s.MetricValues)...)
	}
	last, err := w.writeAnalysisTable(sheet, firstHeaderRow, "Staff", "Team", staffRows)
	if err != nil {
		return fmt.Errorf("写入 %s 员工指标失败: %w", sheet, err)
	}

	teamRows := make([][]interface{}, len(team))
	for i, t := range team {
		teamRows[i] = append([]interface{}{t.Name, t.MemberCount}, metricCells(t.MetricValues)...)
	}
	if _, err := w.writeAnalysisTable(sheet, last+3, "Team", "Members", teamRows); err != nil {
		return fmt.Errorf("写入 %s 团队指标失败: %w", sheet, err)
	}
	return nil
}

func (w *ReportWriter) writeAnalysisTable(sheet string, header int, nameCol, secondCol string, rows [][]interface{}) (int, error) {
	headers := append([]string{nameCol, secondCol}, metricHeaders...)
	if err := writeRow(w.f, sheet, 1, header, headerRow(headers)); err != nil {
		return 0, err
	}
	if err := styleRange(w.f, sheet, 1, header, len(headers), header, w.headerStyle); err != nil {
		return 0, err
	}
	for i, r := range rows {
		if err := writeRow(w.f, sheet, 1, header+1+i, r); err != nil {
			return 0, err
		}
	}
	last := header + len(rows)
	if len(rows) > 0 {
		if err := styleRange(w.f, sheet, colPercentFirst, header+1, colPercentLast, last, w.percentStyle); err != nil {
			return 0, err
		}
		w.ranges = append(w.ranges, tableRange{
			sheet: sheet, firstRow: header + 1, lastRow: last,
			cols: columnSpan(colMetricsFirst, colCapacity), fn: "SUM", label: "Total",
		}, tableRange{
			sheet: sheet, firstRow: header + 1, lastRow: last,
			cols: columnSpan(colPercentFirst, colKPI), fn: "AVERAGE",
		})
	}
	return last, nil
}

// KPI 表列号
const (
	colKPICompletion = 3
	colKPIBugRatio   = 5
	colKPIScore      = 6
)

// UpdateKPIIndicators 重写 KPI 表；平均值公式由 ApplyFormulas 写入
func (w *ReportWriter) UpdateKPIIndicators(staff model.StaffMetrics, team model.TeamMetrics, sprint string) error {
	sheet := w.sheets.KPI
	if err := w.resetSheet(sheet, sprint); err != nil {
		return err
	}

	staffRows := make([][]interface{}, len(staff))
	for i, s := range staff {
		staffRows[i] = kpiCells(s.Name, s.Team, s.MetricValues)
	}
	last, err := w.writeKPITable(sheet, firstHeaderRow, []string{"Staff", "Team"}, staffRows)
	if err != nil {
		return fmt.Errorf("写入 %s 员工 KPI 失败: %w", sheet, err)
	}

	teamRows := make([][]interface{}, len(team))
	for i, t := range team {
		teamRows[i] = kpiCells(t.Name, t.MemberCount, t.MetricValues)
	}
	if _, err := w.writeKPITable(sheet, last+3, []string{"Team", "Members"}, teamRows); err != nil {
		return fmt.Errorf("写入 %s 团队 KPI 失败: %w", sheet, err)
	}
	return nil
}

func kpiCells(name string, second interface{}, m model.MetricValues) []interface{} {
	missing := ""
	if m.CapacityMissing {
		missing = "yes"
	}
	return []interface{}{
		name, second,
		optional(m.CompletionRatio), optional(m.Utilization), optional(m.BugRatio), optional(m.KPI),
		missing,
	}
}

func (w *ReportWriter) writeKPITable(sheet string, header int, lead []string, rows [][]interface{}) (int, error) {
	headers := append(lead, "Completion", "Utilization", "Bug Ratio", "KPI", "Capacity Missing")
	if err := writeRow(w.f, sheet, 1, header, headerRow(headers)); err != nil {
		return 0, err
	}
	if err := styleRange(w.f, sheet, 1, header, len(headers), header, w.headerStyle); err != nil {
		return 0, err
	}
	for i, r := range rows {
		if err := writeRow(w.f, sheet, 1, header+1+i, r); err != nil {
			return 0, err
		}
	}
	last := header + len(rows)
	if len(rows) > 0 {
		if err := styleRange(w.f, sheet, colKPICompletion, header+1, colKPIBugRatio, last, w.percentStyle); err != nil {
			return 0, err
		}
		w.ranges = append(w.ranges, tableRange{
			sheet: sheet, firstRow: header + 1, lastRow: last,
			cols: columnSpan(colKPICompletion, colKPIScore), fn: "AVERAGE", label: "Average",
		})
	}
	return last, nil
}

// resetSheet 清空（或创建）表并写入标题行
func (w *ReportWriter) resetSheet(sheet, sprint string) error {
	created, err := ensureSheet(w.f, sheet)
	if err != nil {
		return err
	}
	if !created {
		if err := clearSheet(w.f, sheet); err != nil {
			return fmt.Errorf("清空 %s 失败: %w", sheet, err)
		}
	}
	w.resetRanges(sheet)
	return writeRow(w.f, sheet, 1, titleRow, []interface{}{"Sprint", sprint})
}

var historicalStaffHeaders = []string{
	"Sprint", "Staff", "Team", "Items", "Done", "Estimated Effort", "Completed Effort",
	"Velocity", "Capacity", "Completion", "Utilization", "KPI",
}

var historicalTeamHeaders = []string{
	"Sprint", "Team", "Members", "Items", "Done", "Estimated Effort", "Completed Effort",
	"Velocity", "Capacity", "Completion", "Utilization", "KPI",
}

func historicalCells(sprint, name string, second interface{}, m model.MetricValues) []interface{} {
	return []interface{}{
		sprint, name, second, m.Items, m.Done, m.EstimatedEffort, m.CompletedEffort,
		m.Velocity, optional(m.Capacity), optional(m.CompletionRatio), optional(m.Utilization), optional(m.KPI),
	}
}

// AppendHistoricalStaff 追加员工历史；已存在的 (迭代, 员工) 不覆盖
func (w *ReportWriter) AppendHistoricalStaff(staff model.StaffMetrics, sprint string) error {
	rows := make([]historicalRow, len(staff))
	for i, s := range staff {
		rows[i] = historicalRow{name: s.Name, cells: historicalCells(sprint, s.Name, s.Team, s.MetricValues)}
	}
	return w.appendHistorical(w.sheets.HistoricalStaff, historicalStaffHeaders, sprint, rows)
}

// AppendHistoricalTeam 追加团队历史；已存在的 (迭代, 团队) 不覆盖
func (w *ReportWriter) AppendHistoricalTeam(team model.TeamMetrics, sprint string) error {
	rows := make([]historicalRow, len(team))
	for i, t := range team {
		rows[i] = historicalRow{name: t.Name, cells: historicalCells(sprint, t.Name, t.MemberCount, t.MetricValues)}
	}
	return w.appendHistorical(w.sheets.HistoricalTeam, historicalTeamHeaders, sprint, rows)
}

type historicalRow struct {
	name  string
	cells []interface{}
}

func historicalKey(sprint, name string) string {
	return strings.TrimSpace(sprint) + "\x00" + strings.TrimSpace(name)
}

func (w *ReportWriter) appendHistorical(sheet string, headers []string, sprint string, rows []historicalRow) error {
	if _, err := ensureSheet(w.f, sheet); err != nil {
		return err
	}
	existing, err := w.f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("读取 %s 失败: %w", sheet, err)
	}

	next := len(existing) + 1
	if len(existing) == 0 {
		if err := writeRow(w.f, sheet, 1, 1, headerRow(headers)); err != nil {
			return err
		}
		if err := styleRange(w.f, sheet, 1, 1, len(headers), 1, w.headerStyle); err != nil {
			return err
		}
		next = 2
	}

	seen := make(map[string]bool, len(existing))
	for i, r := range existing {
		if i == 0 || len(r) < 2 {
			continue
		}
		seen[historicalKey(r[0], r[1])] = true
	}

	for _, r := range rows {
		key := historicalKey(sprint, r.name)
		if seen[key] {
			continue
		}
		seen[key] = true
		if err := writeRow(w.f, sheet, 1, next, r.cells); err != nil {
			return fmt.Errorf("写入 %s 第 %d 行失败: %w", sheet, next, err)
		}
		next++
	}
	return nil
}

var cmmiHeaders = []string{
	"Sprint", "Sequence", "Start", "End", "Working Days",
	"Total Items", "Applicable Items", "Completed Items", "Removed Items", "Unassigned Items",
	"Completion Rate", "Scope Change Rate", "Estimate Coverage", "Estimation Accuracy", "Defect Density",
	"Planned Effort", "Completed Effort", "Remaining Effort", "Work Item Types",
}

// UpdateCMMITemplate 按迭代名更新或追加一行 CMMI 度量
func (w *ReportWriter) UpdateCMMITemplate(c model.CMMIMeasures, sprint string) error {
	sheet := w.sheets.CMMI
	if _, err := ensureSheet(w.f, sheet); err != nil {
		return err
	}
	existing, err := w.f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("读取 %s 失败: %w", sheet, err)
	}
	if len(existing) == 0 {
		if err := writeRow(w.f, sheet, 1, 1, headerRow(cmmiHeaders)); err != nil {
			return err
		}
		if err := styleRange(w.f, sheet, 1, 1, len(cmmiHeaders), 1, w.headerStyle); err != nil {
			return err
		}
		existing = [][]string{cmmiHeaders}
	}

	row := len(existing) + 1
	for i := 1; i < len(existing); i++ {
		if len(existing[i]) > 0 && strings.TrimSpace(existing[i][0]) == strings.TrimSpace(sprint) {
			row = i + 1
			break
		}
	}

	types := make([]string, len(c.TypeCounts))
	for i, tc := range c.TypeCounts {
		types[i] = fmt.Sprintf("%s: %d", tc.Type, tc.Count)
	}
	cells := []interface{}{
		sprint, c.Sequence, c.Start, c.End, c.WorkingDays,
		c.TotalItems, c.ApplicableItems, c.CompletedItems, c.RemovedItems, c.UnassignedItems,
		c.CompletionRate, c.ScopeChangeRate, c.EstimateCoverage, optional(c.EstimationAccuracy), c.DefectDensity,
		c.PlannedEffort, c.CompletedEffort, c.RemainingEffort, strings.Join(types, "; "),
	}
	if err := writeRow(w.f, sheet, 1, row, cells); err != nil {
		return fmt.Errorf("写入 %s 第 %d 行失败: %w", sheet, row, err)
	}
	return styleRange(w.f, sheet, 11, row, 13, row, w.percentStyle)
}
