package pipeline

import (
	"context"
	"errors"
	"math"
	"testing"

	"sprintanalyzer/internal/calculator"
	"sprintanalyzer/internal/layout"
	"sprintanalyzer/internal/parser"
	"sprintanalyzer/internal/validator"
)

func settings() Settings {
	return Settings{
		Layout:  layout.Default(),
		Rules:   validator.DefaultRules(),
		Weights: calculator.DefaultWeights(),
	}
}

// dataRows 构造数据表：C3 迭代名，第 21 行表头
func dataRows(name string, items [][]string) [][]string {
	rows := make([][]string, 20, 20+1+len(items))
	for i := range rows {
		rows[i] = []string{}
	}
	rows[2] = []string{"", "Sprint", name}
	rows[3] = []string{"", "Start", "2024-01-01"}
	rows[4] = []string{"", "End", "2024-01-12"}
	rows = append(rows, []string{"ID", "Work Item Type", "Title", "Assigned To", "Team", "State", "Original Estimate", "Completed Work", "Remaining Work"})
	return append(rows, items...)
}

func scenarioSnapshot() *parser.Snapshot {
	return &parser.Snapshot{
		DataRows: dataRows("Sprint 12", [][]string{
			{"1", "Task", "a", "A", "Core", "Closed", "5", "5", "0"},
			{"2", "Task", "b", "A", "Core", "Active", "3", "1", "2"},
			{"3", "Task", "c", "B", "Web", "Closed", "2", "2", "0"},
		}),
		CapacityRows: [][]string{
			{"Team Member", "Capacity"},
			{"A", "8"},
			{"B", "4"},
		},
	}
}

func TestComputeStagesScenario(t *testing.T) {
	st := NewState(settings(), scenarioSnapshot())

	var steps []Step
	r := &Runner{OnStep: func(s Step) { steps = append(steps, s) }}
	if err := r.Run(context.Background(), st, ComputeStages()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(steps) != 7 || steps[0].Name != StageMetadata || steps[6].Name != StageCMMI {
		t.Fatalf("unexpected steps: %+v", steps)
	}
	for i, s := range steps {
		if s.Index != i+1 || s.Total != 7 {
			t.Fatalf("step %d = %+v", i, s)
		}
	}

	if st.Metadata.Name != "Sprint 12" || st.Metadata.Sequence != 12 || st.Metadata.WorkingDays != 10 {
		t.Fatalf("metadata = %+v", st.Metadata)
	}
	if len(st.Staff) != 2 || st.Staff[0].Utilization == nil || math.Abs(*st.Staff[0].Utilization-0.75) > 1e-9 {
		t.Fatalf("staff = %+v", st.Staff)
	}
	if math.Abs(st.CMMI.CompletionRate-2.0/3.0) > 1e-9 {
		t.Fatalf("completion rate = %v", st.CMMI.CompletionRate)
	}
	if len(st.Gaps) != 0 {
		t.Fatalf("unexpected gaps: %v", st.Gaps)
	}

	bundle := st.Bundle()
	if bundle.SprintName != "Sprint 12" || bundle.Validation.Status != string(validator.StatusOK) {
		t.Fatalf("bundle = %+v", bundle)
	}
}

func TestRunnerStopsAtFirstError(t *testing.T) {
	snap := scenarioSnapshot()
	snap.DataRows[2] = []string{}

	st := NewState(settings(), snap)
	var names []string
	r := &Runner{OnStep: func(s Step) { names = append(names, s.Name) }}
	err := r.Run(context.Background(), st, ComputeStages())

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected StageError, got %v", err)
	}
	if stageErr.Stage != StageMetadata || stageErr.Index != 1 {
		t.Fatalf("failed stage = %s (%d)", stageErr.Stage, stageErr.Index)
	}
	var metaErr *parser.MetadataError
	if !errors.As(err, &metaErr) {
		t.Fatalf("expected MetadataError in chain, got %v", err)
	}
	if len(names) != 1 {
		t.Fatalf("later stages ran: %v", names)
	}
	if st.Items != nil {
		t.Fatalf("items should not be populated")
	}
}

func TestValidationFailureHaltsBeforeMetrics(t *testing.T) {
	snap := scenarioSnapshot()
	snap.DataRows = dataRows("Sprint 3", [][]string{
		{"1", "Task", "a", "A", "Core", "Closed", "5", "5", "0"},
		{"1", "Task", "dup", "B", "Web", "Closed", "2", "2", "0"},
	})

	st := NewState(settings(), snap)
	err := (&Runner{}).Run(context.Background(), st, ComputeStages())

	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageValidate {
		t.Fatalf("expected failure in %q, got %v", StageValidate, err)
	}
	var vErr *validator.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if st.Staff != nil {
		t.Fatalf("staff metrics computed after validation error")
	}
}

func TestRunnerHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	st := NewState(settings(), scenarioSnapshot())

	stages := ComputeStages()
	stages[0].Run = func(ctx context.Context, st *State) error {
		cancel()
		return extractMetadata(ctx, st)
	}

	err := (&Runner{}).Run(ctx, st, stages)
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Index != 2 {
		t.Fatalf("expected cancellation before stage 2, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if st.Metadata.Name != "Sprint 12" {
		t.Fatalf("first stage result lost")
	}
}

func TestCapacityGapsAreNotFatal(t *testing.T) {
	snap := scenarioSnapshot()
	snap.CapacityRows = [][]string{{"Team Member", "Capacity"}, {"A", "8"}}

	st := NewState(settings(), snap)
	if err := (&Runner{}).Run(context.Background(), st, ComputeStages()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(st.Gaps) != 1 || st.Gaps[0].Staff != "B" {
		t.Fatalf("gaps = %v", st.Gaps)
	}
	if !st.Staff[1].CapacityMissing || st.Staff[1].Utilization != nil {
		t.Fatalf("B = %+v", st.Staff[1])
	}
}
