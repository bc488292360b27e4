package model

import "time"

// SprintMetadata 迭代元数据（每次运行提取一次，之后只读）
type SprintMetadata struct {
	Name        string     `json:"name"`
	Start       *time.Time `json:"start,omitempty"`
	End         *time.Time `json:"end,omitempty"`
	Sequence    int        `json:"sequence"`
	WorkingDays int        `json:"workingDays"` // Start..End 之间的工作日（含首尾），缺少日期时为 0
}

// CountWorkingDays 统计 [start, end] 之间的周一至周五天数
func CountWorkingDays(start, end time.Time) int {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	if end.Before(start) {
		return 0
	}

	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
			continue
		}
		days++
	}
	return days
}
