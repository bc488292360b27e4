package validator

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"sprintanalyzer/internal/model"
)

func f(v float64) *float64 { return &v }

func item(row int, id, assignee, team string, status model.WorkItemStatus) model.WorkItem {
	return model.WorkItem{RowNo: row, ID: id, Assignee: assignee, Team: team, Status: status, RawStatus: string(status)}
}

func TestValidate_EmptyInputIsOK(t *testing.T) {
	t.Parallel()

	res := Validate(nil, DefaultRules())
	if res.Status != StatusOK {
		t.Fatalf("Status=%s, want ok", res.Status)
	}
	if len(res.Issues) != 0 {
		t.Fatalf("Issues=%v", res.Issues)
	}
	if res.Err() != nil {
		t.Fatalf("Err=%v", res.Err())
	}
}

func TestValidate_CleanInputIsOK(t *testing.T) {
	t.Parallel()

	items := []model.WorkItem{
		item(22, "1", "A", "Core", model.StatusClosed),
		item(23, "2", "B", "Core", model.StatusActive),
	}
	if res := Validate(items, DefaultRules()); res.Status != StatusOK {
		t.Fatalf("Status=%s issues=%v", res.Status, res.Issues)
	}
}

func TestValidate_DuplicateIdentifierIsError(t *testing.T) {
	t.Parallel()

	items := []model.WorkItem{
		item(22, "1", "A", "Core", model.StatusClosed),
		item(23, "2", "B", "Core", model.StatusActive),
		item(24, "1", "B", "Core", model.StatusActive),
		item(25, "1", "B", "Core", model.StatusActive),
	}
	res := Validate(items, DefaultRules())
	if res.Status != StatusError {
		t.Fatalf("Status=%s, want error", res.Status)
	}
	if res.Stats.DuplicateIDs != 1 {
		t.Fatalf("DuplicateIDs=%d", res.Stats.DuplicateIDs)
	}
	if res.Issues[0].Row != 22 || res.Issues[0].ItemID != "1" {
		t.Fatalf("duplicate reported at first occurrence, got %+v", res.Issues[0])
	}

	var ve *ValidationError
	if !errors.As(res.Err(), &ve) {
		t.Fatalf("Err() should be *ValidationError, got %v", res.Err())
	}
	if !strings.Contains(ve.Error(), "duplicate identifier 1") {
		t.Fatalf("message=%q", ve.Error())
	}
}

func TestValidate_MissingAssigneeIsWarning(t *testing.T) {
	t.Parallel()

	items := []model.WorkItem{
		item(22, "1", "A", "Core", model.StatusClosed),
		item(23, "2", "", "Core", model.StatusActive),
	}
	res := Validate(items, DefaultRules())
	if res.Status != StatusWarning {
		t.Fatalf("Status=%s, want warning", res.Status)
	}
	if res.Stats.MissingAssignee != 1 {
		t.Fatalf("MissingAssignee=%d", res.Stats.MissingAssignee)
	}

	rules := DefaultRules()
	rules.MaxMissingAssignee = 1
	items = append(items, item(24, "3", "", "Core", model.StatusNew))
	if res := Validate(items, rules); res.Status != StatusError {
		t.Fatalf("Status=%s, want error above assignee limit", res.Status)
	}
}

func TestValidate_MissingRequiredRate(t *testing.T) {
	t.Parallel()

	missing := item(31, "", "A", "Core", "")
	missing.Missing = []string{model.FieldID, model.FieldStatus}

	items := []model.WorkItem{missing}
	for i := 0; i < 9; i++ {
		items = append(items, item(22+i, string(rune('a'+i)), "A", "Core", model.StatusClosed))
	}

	res := Validate(items, DefaultRules())
	if res.Status != StatusWarning {
		t.Fatalf("10%% missing should warn, got %s: %v", res.Status, res.Issues)
	}

	res = Validate(items[:5], DefaultRules())
	if res.Status != StatusError {
		t.Fatalf("20%% missing should fail, got %s", res.Status)
	}
	last := res.Issues[len(res.Issues)-1]
	if last.Row != 0 || last.Severity != SeverityError {
		t.Fatalf("rate issue should be last, got %+v", last)
	}
}

func TestValidate_NegativeEffortIsError(t *testing.T) {
	t.Parallel()

	it := item(22, "1", "A", "Core", model.StatusActive)
	it.Completed = f(-1)
	it.Negative = []string{model.FieldCompleted}

	if res := Validate([]model.WorkItem{it}, DefaultRules()); res.Status != StatusError {
		t.Fatalf("Status=%s", res.Status)
	}
}

func TestValidate_DeterministicOrdering(t *testing.T) {
	t.Parallel()

	unknown := item(23, "2", "alice", "Core", model.StatusUnknown)
	unknown.RawStatus = "Blocked"
	items := []model.WorkItem{
		item(22, "1", "Alice", "", model.StatusClosed),
		unknown,
		item(24, "1", "Alice", "Core", model.StatusClosed),
	}

	first := Validate(items, DefaultRules())
	for i := 0; i < 5; i++ {
		again := Validate(items, DefaultRules())
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("non-deterministic result:\n%v\n%v", first, again)
		}
	}

	var rows []int
	for _, is := range first.Issues {
		rows = append(rows, is.Row)
	}
	want := []int{22, 22, 23, 23}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("issue rows=%v, want %v (%v)", rows, want, first.Issues)
	}
}
