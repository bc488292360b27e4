package analyzer

import (
	"time"

	"sprintanalyzer/internal/model"
	"sprintanalyzer/internal/validator"
)

// 事件类型
const (
	EventStart   = "start"
	EventStep    = "step"
	EventWarning = "warning"
	EventDone    = "done"
	EventError   = "error"
)

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`              // start/step/warning/done/error
	Message   string      `json:"message"`           // 事件消息
	Step      int         `json:"step,omitempty"`    // 当前步骤（1 起）
	Total     int         `json:"total,omitempty"`   // 步骤总数
	Percent   int         `json:"percent,omitempty"` // 进度百分比
	Data      interface{} `json:"data,omitempty"`    // 附加数据
	Timestamp time.Time   `json:"timestamp"`         // 时间戳
}

// DoneData done 事件附带的结果
type DoneData struct {
	RunID   string        `json:"runId"`
	Output  string        `json:"output"`
	Summary model.Summary `json:"summary"`
}

// Failure error 事件附带的失败信息
type Failure struct {
	RunID  string            `json:"runId,omitempty"`
	Stage  string            `json:"stage,omitempty"`
	Error  string            `json:"error"`
	Issues []validator.Issue `json:"issues,omitempty"`
}
