package analyzer

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"sprintanalyzer/internal/config"
	"sprintanalyzer/internal/pipeline"
	"sprintanalyzer/internal/store"
	"sprintanalyzer/internal/validator"
)

var workItemHeader = []interface{}{"ID", "Work Item Type", "Title", "Assigned To", "Team", "State", "Original Estimate", "Completed Work", "Remaining Work"}

// writeWorkbook 在临时目录生成一份迭代工作簿
func writeWorkbook(t *testing.T, sprint string, items [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Data"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	for cell, v := range map[string]interface{}{"C3": sprint, "C4": "2024-01-01", "C5": "2024-01-12"} {
		if err := f.SetCellValue("Data", cell, v); err != nil {
			t.Fatalf("set %s: %v", cell, err)
		}
	}
	header := workItemHeader
	if err := f.SetSheetRow("Data", "A21", &header); err != nil {
		t.Fatalf("header: %v", err)
	}
	for i, r := range items {
		r := r
		cell, _ := excelize.CoordinatesToCellName(1, 22+i)
		if err := f.SetSheetRow("Data", cell, &r); err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
	}

	if _, err := f.NewSheet("Capacity"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	for i, r := range [][]interface{}{{"Team Member", "Capacity"}, {"A", 8}, {"B", 4}} {
		r := r
		cell, _ := excelize.CoordinatesToCellName(1, 1+i)
		if err := f.SetSheetRow("Capacity", cell, &r); err != nil {
			t.Fatalf("capacity row %d: %v", i, err)
		}
	}

	path := filepath.Join(t.TempDir(), "sprint.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	return path
}

func scenarioItems() [][]interface{} {
	return [][]interface{}{
		{1, "Task", "a", "A", "Core", "Closed", 5, 5, 0},
		{2, "Task", "b", "A", "Core", "Active", 3, 1, 2},
		{3, "Bug", "c", "B", "Web", "Closed", 2, 2, 0},
	}
}

func newService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "sprintanalyzer.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return NewService(config.DefaultConfig(), st, zerolog.Nop()), st
}

func TestRunWritesReportAndRecordsRun(t *testing.T) {
	svc, st := newService(t)
	path := writeWorkbook(t, "Sprint 5", scenarioItems())

	var steps []string
	res, err := svc.Run(context.Background(), Options{FilePath: path}, func(e ProgressEvent) {
		if e.Type == EventStep {
			steps = append(steps, e.Message)
		}
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{
		"[1/11] Loading workbook",
		"[2/11] Extracting sprint metadata",
		"[3/11] Processing work-item data",
		"[4/11] Validating data quality",
		"[5/11] Loading capacity data",
		"[6/11] Calculating staff metrics",
		"[7/11] Calculating team metrics",
		"[8/11] Computing CMMI measures",
		"[9/11] Updating analysis sheets",
		"[10/11] Generating Excel formulas",
		"[11/11] Saving workbook",
	}
	if len(steps) != len(want) {
		t.Fatalf("steps = %v", steps)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Fatalf("step %d = %q, want %q", i, steps[i], want[i])
		}
	}

	if res.Summary.StaffCount != 2 || res.Summary.TeamCount != 2 || res.Summary.CompletionPercent != 67 {
		t.Fatalf("summary = %+v", res.Summary)
	}
	if res.Output != path {
		t.Fatalf("output = %s", res.Output)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()
	util, err := f.GetCellValue("Sprint Analysis", "M4", excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if util != "0.75" {
		t.Fatalf("A utilization cell = %q", util)
	}

	run, err := st.GetRun(res.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != store.RunCompleted || run.SprintName != "Sprint 5" {
		t.Fatalf("run = %+v", run)
	}
	hist, err := st.ListHistory(store.KindStaff, "A")
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(hist) != 1 || hist[0].Sequence != 5 || hist[0].Utilization == nil || math.Abs(*hist[0].Utilization-0.75) > 1e-9 {
		t.Fatalf("history = %+v", hist)
	}
	last, ok, err := st.GetSetting(store.SettingLastWorkbook)
	if err != nil || !ok || last != path {
		t.Fatalf("last workbook = %q %v %v", last, ok, err)
	}
}

func TestRerunDoesNotDuplicateHistory(t *testing.T) {
	svc, st := newService(t)
	path := writeWorkbook(t, "Sprint 5", scenarioItems())

	for i := 0; i < 2; i++ {
		if _, err := svc.Run(context.Background(), Options{FilePath: path}, nil); err != nil {
			t.Fatalf("Run %d: %v", i, err)
		}
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Historical Staff")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("historical staff rows = %d, want header + 2", len(rows))
	}

	hist, err := st.ListHistory(store.KindTeam, "")
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("team history = %d, want 2", len(hist))
	}
	runs, err := st.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d", len(runs))
	}
}

func TestRunStopsOnValidationErrorWithoutSaving(t *testing.T) {
	svc, st := newService(t)
	items := scenarioItems()
	items[1][0] = 1 // 重复 ID
	path := writeWorkbook(t, "Sprint 6", items)
	out := filepath.Join(t.TempDir(), "out.xlsx")

	_, err := svc.Run(context.Background(), Options{FilePath: path, OutputPath: out}, nil)
	var stageErr *pipeline.StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != pipeline.StageValidate {
		t.Fatalf("expected validation stage error, got %v", err)
	}
	var vErr *validator.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	if _, statErr := excelize.OpenFile(out); statErr == nil {
		t.Fatalf("output written after failure")
	}

	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("expected RunError, got %T", err)
	}
	run, err := st.GetRun(runErr.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != store.RunFailed || run.FailedStage != pipeline.StageValidate || run.SprintName != "Sprint 6" {
		t.Fatalf("run = %+v", run)
	}
}

func TestAnalyzeStreamsEvents(t *testing.T) {
	svc, _ := newService(t)
	path := writeWorkbook(t, "Sprint 5", [][]interface{}{
		{1, "Task", "a", "A", "Core", "Closed", 5, 5, 0},
		{2, "Task", "b", "C", "Core", "Closed", 1, 1, 0}, // C 不在容量表中
	})

	var types []string
	var done *DoneData
	var gapWarnings int
	for e := range svc.Analyze(context.Background(), Options{FilePath: path}) {
		types = append(types, e.Type)
		if e.Type == EventWarning && e.Message == "no capacity record for C (Core)" {
			gapWarnings++
		}
		if e.Type == EventDone {
			d, ok := e.Data.(DoneData)
			if !ok {
				t.Fatalf("done data type %T", e.Data)
			}
			done = &d
		}
	}
	if types[0] != EventStart || types[len(types)-1] != EventDone {
		t.Fatalf("event types = %v", types)
	}
	if done == nil || done.Summary.SprintName != "Sprint 5" {
		t.Fatalf("done = %+v", done)
	}
	if gapWarnings != 1 {
		t.Fatalf("expected a capacity gap warning, types = %v", types)
	}
}

func TestAnalyzeReportsMissingFile(t *testing.T) {
	svc, _ := newService(t)
	var last ProgressEvent
	for e := range svc.Analyze(context.Background(), Options{FilePath: filepath.Join(t.TempDir(), "missing.xlsx")}) {
		last = e
	}
	if last.Type != EventError {
		t.Fatalf("last event = %+v", last)
	}
	f, ok := last.Data.(Failure)
	if !ok || f.Stage != pipeline.StageLoadWorkbook || f.RunID == "" {
		t.Fatalf("failure = %+v", last.Data)
	}
}

func TestRunHonoursCancelledContext(t *testing.T) {
	svc, _ := newService(t)
	path := writeWorkbook(t, "Sprint 5", scenarioItems())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Run(ctx, Options{FilePath: path}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
