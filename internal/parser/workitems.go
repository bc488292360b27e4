package parser

import (
	"fmt"
	"strings"

	"sprintanalyzer/internal/layout"
	"sprintanalyzer/internal/model"
)

func workItemFields(l *layout.Layout) []fieldAliases {
	c := l.WorkItemColumns
	return []fieldAliases{
		{model.FieldID, c.ID},
		{model.FieldStatus, c.State},
		{model.FieldType, c.Type},
		{model.FieldTitle, c.Title},
		{model.FieldAssignee, c.Assignee},
		{model.FieldTeam, c.Team},
		{model.FieldAreaPath, c.AreaPath},
		{model.FieldEstimate, c.Estimate},
		{model.FieldCompleted, c.Completed},
		{model.FieldRemaining, c.Remaining},
	}
}

// NormalizeWorkItems 解析工作项表（表头位于 WorkItemHeaderRow）
//
// 全部映射列为空的行直接丢弃；缺少 ID / 状态的行保留并标记，交给校验器报告。
func NormalizeWorkItems(rows [][]string, l *layout.Layout) ([]model.WorkItem, error) {
	headerIdx := l.WorkItemHeaderRow - 1
	if headerIdx >= len(rows) {
		return nil, &SchemaError{Sheet: l.DataSheet, Reason: fmt.Sprintf("has no work item header at row %d", l.WorkItemHeaderRow)}
	}

	columns := mapColumns(rows[headerIdx], workItemFields(l))
	var missing []string
	if !columns.has(model.FieldID) {
		missing = append(missing, "ID")
	}
	if !columns.has(model.FieldStatus) {
		missing = append(missing, "State")
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Sheet: l.DataSheet, Reason: fmt.Sprintf("is missing required work item columns: %s", strings.Join(missing, ", "))}
	}

	statuses := l.NewStatusResolver()
	items := make([]model.WorkItem, 0, len(rows)-headerIdx-1)
	for i := headerIdx + 1; i < len(rows); i++ {
		item, ok := normalizeRow(rows[i], columns, statuses, l.StripIdentityEmail)
		if !ok {
			continue
		}
		item.RowNo = i + 1
		items = append(items, item)
	}
	return items, nil
}

// normalizeRow 返回 false 表示整行为空
func normalizeRow(row []string, columns columnMap, statuses layout.StatusResolver, stripEmail bool) (model.WorkItem, bool) {
	cell := func(field string) string {
		v, _ := columns.get(row, field)
		return strings.TrimSpace(v)
	}

	empty := true
	for field := range columns {
		if cell(field) != "" {
			empty = false
			break
		}
	}
	if empty {
		return model.WorkItem{}, false
	}

	item := model.WorkItem{
		ID:        cell(model.FieldID),
		Type:      cell(model.FieldType),
		Title:     cell(model.FieldTitle),
		Assignee:  normalizeIdentity(cell(model.FieldAssignee), stripEmail),
		Team:      cell(model.FieldTeam),
		RawStatus: cell(model.FieldStatus),
	}
	if item.Team == "" {
		item.Team = lastPathSegment(cell(model.FieldAreaPath))
	}
	item.Status = statuses.Resolve(item.RawStatus)

	if item.ID == "" {
		item.Missing = append(item.Missing, model.FieldID)
	}
	if item.Status == "" {
		item.Missing = append(item.Missing, model.FieldStatus)
	}

	for _, nf := range []struct {
		field string
		dst   **float64
	}{
		{model.FieldEstimate, &item.Estimate},
		{model.FieldCompleted, &item.Completed},
		{model.FieldRemaining, &item.Remaining},
	} {
		v, ok := parseFloatPtr(cell(nf.field))
		if !ok {
			item.Invalid = append(item.Invalid, nf.field)
			continue
		}
		if v != nil && *v < 0 {
			item.Negative = append(item.Negative, nf.field)
		}
		*nf.dst = v
	}

	return item, true
}
