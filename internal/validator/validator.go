// Package validator 校验归一化后的工作项，给出 ok / warning / error 结论与问题清单。
package validator

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"sprintanalyzer/internal/model"
)

// Status 校验结论
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Severity 问题级别
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Issue 单条问题；Row 为 0 表示汇总类问题
type Issue struct {
	Severity Severity `json:"severity"`
	Row      int      `json:"row"`
	ItemID   string   `json:"itemId,omitempty"`
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	if i.Row > 0 {
		return fmt.Sprintf("[%s] row %d: %s", i.Severity, i.Row, i.Message)
	}
	return fmt.Sprintf("[%s] %s", i.Severity, i.Message)
}

// Stats 校验统计
type Stats struct {
	Total           int `json:"total"`
	MissingRequired int `json:"missingRequired"`
	MissingAssignee int `json:"missingAssignee"`
	MissingTeam     int `json:"missingTeam"`
	DuplicateIDs    int `json:"duplicateIds"`
	UnknownStatus   int `json:"unknownStatus"`
	InvalidNumbers  int `json:"invalidNumbers"`
	NegativeNumbers int `json:"negativeNumbers"`
}

// Result 校验结果
type Result struct {
	Status Status  `json:"status"`
	Issues []Issue `json:"issues"`
	Stats  Stats   `json:"stats"`
}

// Rules 校验阈值（config.toml [validation]）
type Rules struct {
	// 缺少 ID/状态的行占比超过该值即判定 error
	MaxMissingRequiredRate float64 `toml:"max_missing_required_rate"`
	// 缺少负责人的行数超过该值即判定 error；0 表示不限
	MaxMissingAssignee int `toml:"max_missing_assignee"`
	// 提示仅大小写/空白不同的负责人、团队名
	FlagNameVariants bool `toml:"flag_name_variants"`
}

// DefaultRules 默认阈值
func DefaultRules() Rules {
	return Rules{
		MaxMissingRequiredRate: 0.10,
		MaxMissingAssignee:     0,
		FlagNameVariants:       true,
	}
}

// Counts 返回 (warning 数, error 数)
func (r Result) Counts() (warnings, errors int) {
	for _, is := range r.Issues {
		if is.Severity == SeverityError {
			errors++
		} else {
			warnings++
		}
	}
	return warnings, errors
}

// Summary 摘要
func (r Result) Summary() model.ValidationSummary {
	w, e := r.Counts()
	return model.ValidationSummary{Status: string(r.Status), Warnings: w, Errors: e}
}

// Err 结论为 error 时返回 *ValidationError
func (r Result) Err() error {
	if r.Status != StatusError {
		return nil
	}
	return &ValidationError{Issues: r.Issues, Stats: r.Stats}
}

// ValidationError 数据质量不达标（致命，汇总前终止）
type ValidationError struct {
	Issues []Issue
	Stats  Stats
}

func (e *ValidationError) Error() string {
	var errs []string
	for _, is := range e.Issues {
		if is.Severity == SeverityError {
			errs = append(errs, is.String())
		}
	}
	if len(errs) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed with %d error(s): %s", len(errs), strings.Join(errs, "; "))
}

type collector struct {
	issues []Issue
}

func (c *collector) add(sev Severity, item *model.WorkItem, field, format string, args ...interface{}) {
	is := Issue{Severity: sev, Field: field, Message: fmt.Sprintf(format, args...)}
	if item != nil {
		is.Row = item.RowNo
		is.ItemID = item.ID
	}
	c.issues = append(c.issues, is)
}

// Validate 校验工作项
//
// 相同输入总是得到相同结论与问题顺序：按首次出现的行排序，汇总类问题在最后。
func Validate(items []model.WorkItem, rules Rules) Result {
	var c collector
	stats := Stats{Total: len(items)}

	firstByID := make(map[string]int) // ID -> items 下标
	reportedDup := make(map[string]bool)

	for i := range items {
		it := &items[i]

		for _, f := range it.Missing {
			c.add(SeverityWarning, it, f, "missing required field %s", f)
		}
		if len(it.Missing) > 0 {
			stats.MissingRequired++
		}

		if it.ID != "" {
			if first, seen := firstByID[it.ID]; seen {
				if !reportedDup[it.ID] {
					reportedDup[it.ID] = true
					stats.DuplicateIDs++
					c.add(SeverityError, &items[first], model.FieldID, "duplicate identifier %s (also at row %d)", it.ID, it.RowNo)
				}
			} else {
				firstByID[it.ID] = i
			}
		}

		if it.Status == model.StatusUnknown {
			stats.UnknownStatus++
			c.add(SeverityWarning, it, model.FieldStatus, "unknown state %q", it.RawStatus)
		}

		if it.Assignee == "" {
			stats.MissingAssignee++
			c.add(SeverityWarning, it, model.FieldAssignee, "no assignee; excluded from staff metrics")
		}
		if it.Team == "" {
			stats.MissingTeam++
			c.add(SeverityWarning, it, model.FieldTeam, "no team; excluded from team metrics")
		}

		for _, f := range it.Invalid {
			stats.InvalidNumbers++
			c.add(SeverityWarning, it, f, "%s is not a number; treated as empty", f)
		}
		for _, f := range it.Negative {
			stats.NegativeNumbers++
			c.add(SeverityError, it, f, "%s is negative", f)
		}
	}

	if rules.FlagNameVariants {
		flagVariants(&c, items, model.FieldAssignee, func(w *model.WorkItem) string { return w.Assignee })
		flagVariants(&c, items, model.FieldTeam, func(w *model.WorkItem) string { return w.Team })
	}

	sort.SliceStable(c.issues, func(a, b int) bool {
		return rowKey(c.issues[a]) < rowKey(c.issues[b])
	})

	if stats.Total > 0 {
		rate := float64(stats.MissingRequired) / float64(stats.Total)
		if rate > rules.MaxMissingRequiredRate {
			c.add(SeverityError, nil, "", "%d of %d rows miss a required field (%s > %s)",
				stats.MissingRequired, stats.Total, formatRate(rate), formatRate(rules.MaxMissingRequiredRate))
		}
	}
	if rules.MaxMissingAssignee > 0 && stats.MissingAssignee > rules.MaxMissingAssignee {
		c.add(SeverityError, nil, model.FieldAssignee, "%d rows have no assignee (limit %d)",
			stats.MissingAssignee, rules.MaxMissingAssignee)
	}

	res := Result{Status: StatusOK, Issues: c.issues, Stats: stats}
	if res.Issues == nil {
		res.Issues = []Issue{}
	}
	for _, is := range res.Issues {
		if is.Severity == SeverityError {
			res.Status = StatusError
			break
		}
		res.Status = StatusWarning
	}
	return res
}

func rowKey(is Issue) int {
	if is.Row <= 0 {
		return math.MaxInt
	}
	return is.Row
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 1, 64) + "%"
}

// flagVariants 同一名称仅大小写/空白不同的写法，在第二种写法首次出现处提示
func flagVariants(c *collector, items []model.WorkItem, field string, key func(*model.WorkItem) string) {
	canonical := make(map[string]string) // 折叠后 -> 首个写法
	flagged := make(map[string]bool)
	for i := range items {
		it := &items[i]
		name := key(it)
		if name == "" {
			continue
		}
		folded := strings.ToLower(strings.Join(strings.Fields(name), " "))
		first, seen := canonical[folded]
		if !seen {
			canonical[folded] = name
			continue
		}
		if first == name || flagged[name] {
			continue
		}
		flagged[name] = true
		c.add(SeverityWarning, it, field, "%s %q differs from %q only by case or spacing; grouped separately", field, name, first)
	}
}
