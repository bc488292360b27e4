package model

import "strings"

// WorkItemStatus 归一化后的工作项状态
type WorkItemStatus string

const (
	StatusNew      WorkItemStatus = "New"
	StatusActive   WorkItemStatus = "Active"
	StatusResolved WorkItemStatus = "Resolved"
	StatusClosed   WorkItemStatus = "Closed"
	StatusRemoved  WorkItemStatus = "Removed"
	StatusUnknown  WorkItemStatus = "Unknown" // 状态词表之外的取值，原文保留在 RawStatus
)

// CanonicalStatuses 标准状态（不含 Unknown），顺序即报表列顺序
var CanonicalStatuses = []WorkItemStatus{StatusNew, StatusActive, StatusResolved, StatusClosed, StatusRemoved}

// IsDone Closed / Resolved 视为完成
func (s WorkItemStatus) IsDone() bool {
	return s == StatusClosed || s == StatusResolved
}

// Applicable 是否计入完成率分母（Removed 不计）
func (s WorkItemStatus) Applicable() bool {
	return s != StatusRemoved
}

// 字段名（用于缺失/非法标记和校验报告）
const (
	FieldID        = "id"
	FieldType      = "type"
	FieldTitle     = "title"
	FieldAssignee  = "assignee"
	FieldTeam      = "team"
	FieldAreaPath  = "area_path"
	FieldStatus    = "status"
	FieldEstimate  = "estimate"
	FieldCompleted = "completed"
	FieldRemaining = "remaining"
)

// WorkItem 归一化后的一行工作项数据
//
// 数值字段为 nil 表示“未填写”，与 0 不同。
type WorkItem struct {
	RowNo     int            `json:"rowNo"` // 源表行号（1 起）
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Assignee  string         `json:"assignee"`
	Team      string         `json:"team"`
	Status    WorkItemStatus `json:"status"`
	RawStatus string         `json:"rawStatus"`
	Estimate  *float64       `json:"estimate"`
	Completed *float64       `json:"completed"`
	Remaining *float64       `json:"remaining"`

	Missing  []string `json:"missing,omitempty"`  // 缺失的必填字段
	Invalid  []string `json:"invalid,omitempty"`  // 无法解析为数字的字段
	Negative []string `json:"negative,omitempty"` // 出现负数的字段
}

// IsBug 是否为缺陷类工作项
func (w *WorkItem) IsBug() bool {
	return strings.EqualFold(strings.TrimSpace(w.Type), "bug")
}
