package pipeline

import (
	"sprintanalyzer/internal/calculator"
	"sprintanalyzer/internal/layout"
	"sprintanalyzer/internal/model"
	"sprintanalyzer/internal/parser"
	"sprintanalyzer/internal/validator"
)

// Settings 计算所需的配置
type Settings struct {
	Layout  *layout.Layout
	Rules   validator.Rules
	Weights calculator.Weights
}

// State 单次运行的阶段输入/输出，每次运行新建
type State struct {
	Settings Settings

	Snapshot   *parser.Snapshot
	Metadata   model.SprintMetadata
	Items      []model.WorkItem
	Validation validator.Result
	Capacity   *parser.CapacityTable
	Gaps       []model.CapacityGapWarning

	StaffAggregates map[string]*model.StaffAggregate
	TeamAggregates  map[string]*model.TeamAggregate

	Staff model.StaffMetrics
	Team  model.TeamMetrics
	CMMI  model.CMMIMeasures
}

// NewState 由快照创建运行状态
func NewState(settings Settings, snap *parser.Snapshot) *State {
	return &State{Settings: settings, Snapshot: snap}
}

// Bundle 汇总为报表交付物
func (s *State) Bundle() model.ReportBundle {
	return model.ReportBundle{
		SprintName: s.Metadata.Name,
		Metadata:   s.Metadata,
		Staff:      s.Staff,
		Team:       s.Team,
		CMMI:       s.CMMI,
		Warnings:   s.Gaps,
		Validation: s.Validation.Summary(),
	}
}
