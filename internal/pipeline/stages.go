package pipeline

import (
	"context"
	"errors"

	"sprintanalyzer/internal/calculator"
	"sprintanalyzer/internal/parser"
	"sprintanalyzer/internal/validator"
)

// 阶段名（与界面进度文案一致）
const (
	StageLoadWorkbook = "Loading workbook"
	StageMetadata     = "Extracting sprint metadata"
	StageWorkItems    = "Processing work-item data"
	StageValidate     = "Validating data quality"
	StageCapacity     = "Loading capacity data"
	StageStaffMetrics = "Calculating staff metrics"
	StageTeamMetrics  = "Calculating team metrics"
	StageCMMI         = "Computing CMMI measures"
	StageReport       = "Updating analysis sheets"
	StageFormulas     = "Generating Excel formulas"
	StageSave         = "Saving workbook"
)

var errNoSnapshot = errors.New("no workbook snapshot loaded")

// ComputeStages 核心计算阶段：元数据 -> 归一化 -> 校验 -> 容量 -> 员工/团队指标 -> CMMI
func ComputeStages() []Stage {
	return []Stage{
		{Name: StageMetadata, Run: extractMetadata},
		{Name: StageWorkItems, Run: normalizeWorkItems},
		{Name: StageValidate, Run: validate},
		{Name: StageCapacity, Run: loadCapacity},
		{Name: StageStaffMetrics, Run: staffMetrics},
		{Name: StageTeamMetrics, Run: teamMetrics},
		{Name: StageCMMI, Run: cmmiMeasures},
	}
}

func extractMetadata(_ context.Context, st *State) error {
	if st.Snapshot == nil {
		return errNoSnapshot
	}
	meta, err := parser.ExtractMetadata(st.Snapshot.DataRows, st.Settings.Layout)
	if err != nil {
		return err
	}
	st.Metadata = meta
	return nil
}

func normalizeWorkItems(_ context.Context, st *State) error {
	items, err := parser.NormalizeWorkItems(st.Snapshot.DataRows, st.Settings.Layout)
	if err != nil {
		return err
	}
	st.Items = items
	return nil
}

func validate(_ context.Context, st *State) error {
	st.Validation = validator.Validate(st.Items, st.Settings.Rules)
	return st.Validation.Err()
}

func loadCapacity(_ context.Context, st *State) error {
	table, err := parser.LoadCapacity(st.Snapshot.CapacityRows, st.Settings.Layout, st.Metadata)
	if err != nil {
		return err
	}
	st.Capacity = table
	st.Gaps = calculator.JoinCapacity(st.Items, table.Records)
	return nil
}

func staffMetrics(_ context.Context, st *State) error {
	st.StaffAggregates = calculator.AggregateByStaff(st.Items)
	st.Staff = calculator.CalculateStaffMetrics(st.StaffAggregates, st.Capacity.Records, st.Items, st.Settings.Weights)
	return nil
}

func teamMetrics(_ context.Context, st *State) error {
	st.TeamAggregates = calculator.AggregateByTeam(st.Items)
	st.Team = calculator.CalculateTeamMetrics(st.TeamAggregates, st.Capacity.Records, st.Items, st.Settings.Weights)
	return nil
}

func cmmiMeasures(_ context.Context, st *State) error {
	st.CMMI = calculator.CalculateCMMIMeasures(st.Metadata, st.Items)
	return nil
}
