package parser

import (
	"fmt"
	"strings"

	"sprintanalyzer/internal/layout"
	"sprintanalyzer/internal/model"
)

const (
	capStaff   = "staff"
	capTeam    = "team"
	capValue   = "capacity"
	capPerDay  = "capacity_per_day"
	capDaysOff = "days_off"
)

// CapacityTable 容量表解析结果
type CapacityTable struct {
	Records  map[string]model.CapacityRecord
	Warnings []string // 行级问题（负数、无法解析等），按行序
}

// LoadCapacity 解析容量表：成员 -> 可用容量
//
// 有 Capacity 列时直接使用；否则按 每日容量 × (工作日 - 休假天数) 推算。
// 同一成员多行（按活动拆分）时容量累加。
func LoadCapacity(rows [][]string, l *layout.Layout, meta model.SprintMetadata) (*CapacityTable, error) {
	table := &CapacityTable{Records: map[string]model.CapacityRecord{}}

	headerIdx := l.CapacityHeaderRow - 1
	if headerIdx >= len(rows) {
		// 空容量表：全部成员按缺失容量处理
		return table, nil
	}

	c := l.CapacityColumns
	columns := mapColumns(rows[headerIdx], []fieldAliases{
		{capStaff, c.Staff},
		{capTeam, c.Team},
		{capValue, c.Capacity},
		{capPerDay, c.CapacityPerDay},
		{capDaysOff, c.DaysOff},
	})
	if !columns.has(capStaff) {
		return nil, &SchemaError{Sheet: l.CapacitySheet, Reason: "is missing the staff column"}
	}
	if !columns.has(capValue) && !columns.has(capPerDay) {
		return nil, &SchemaError{Sheet: l.CapacitySheet, Reason: "has neither a capacity nor a capacity-per-day column"}
	}

	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		rowNo := i + 1
		cell := func(field string) string {
			v, _ := columns.get(row, field)
			return strings.TrimSpace(v)
		}

		staff := normalizeIdentity(cell(capStaff), l.StripIdentityEmail)
		if staff == "" {
			continue
		}

		daysOff := 0.0
		if v, ok := parseFloatPtr(cell(capDaysOff)); !ok || (v != nil && *v < 0) {
			table.warnf("row %d: invalid days off %q for %s", rowNo, cell(capDaysOff), staff)
		} else if v != nil {
			daysOff = *v
		}

		capacity, ok := table.rowCapacity(rowNo, staff, cell(capValue), cell(capPerDay), daysOff, meta.WorkingDays)
		if !ok {
			capacity = 0
		}

		rec, exists := table.Records[staff]
		if !exists {
			rec = model.CapacityRecord{Staff: staff, RowNo: rowNo}
		}
		rec.Capacity += capacity
		rec.DaysOff += daysOff
		if rec.Team == "" {
			rec.Team = cell(capTeam)
		}
		table.Records[staff] = rec
	}

	return table, nil
}

func (t *CapacityTable) rowCapacity(rowNo int, staff, value, perDay string, daysOff float64, workingDays int) (float64, bool) {
	if value != "" {
		v, ok := parseFloatPtr(value)
		if !ok {
			t.warnf("row %d: invalid capacity %q for %s, treated as 0", rowNo, value, staff)
			return 0, false
		}
		if *v < 0 {
			t.warnf("row %d: negative capacity %v for %s, treated as 0", rowNo, *v, staff)
			return 0, false
		}
		return *v, true
	}

	if perDay == "" {
		return 0, true
	}
	v, ok := parseFloatPtr(perDay)
	if !ok || *v < 0 {
		t.warnf("row %d: invalid capacity per day %q for %s, treated as 0", rowNo, perDay, staff)
		return 0, false
	}
	if workingDays == 0 {
		t.warnf("row %d: capacity per day for %s needs sprint start and end dates, treated as 0", rowNo, staff)
		return 0, false
	}
	days := float64(workingDays) - daysOff
	if days < 0 {
		days = 0
	}
	return *v * days, true
}

func (t *CapacityTable) warnf(format string, args ...interface{}) {
	t.Warnings = append(t.Warnings, fmt.Sprintf(format, args...))
}
