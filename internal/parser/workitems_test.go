package parser

import (
	"errors"
	"reflect"
	"testing"

	"sprintanalyzer/internal/layout"
	"sprintanalyzer/internal/model"
)

func TestNormalizeWorkItems(t *testing.T) {
	t.Parallel()

	f := buildWorkbook(t, map[string]interface{}{"C3": "Sprint 1"}, workItemHeader, [][]interface{}{
		{101, "Task", "Build", "Alice <alice@example.com>", "Closed", `Proj\Core`, 5, 5},
		{102, "Bug", "Fix", "Bob", "In Progress", `Proj\Core`, 3, 0},
		{"", "", "", "", "", "", nil, nil},
		{103, "Task", "Docs", "", "Done", "", "", ""},
		{"", "Task", "Orphan", "Carol", "", `Proj\Web`, "abc", -1},
	}, []string{"Team Member", "Capacity"}, nil)

	items, err := NormalizeWorkItems(snapshotOf(t, f).DataRows, layout.Default())
	if err != nil {
		t.Fatalf("NormalizeWorkItems: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("got %d items, want 4 (empty row dropped)", len(items))
	}

	a := items[0]
	if a.ID != "101" || a.Assignee != "Alice" || a.Team != "Core" || a.Status != model.StatusClosed {
		t.Fatalf("unexpected first item: %+v", a)
	}
	if a.RowNo != 22 {
		t.Fatalf("RowNo=%d, want 22", a.RowNo)
	}
	if a.Estimate == nil || *a.Estimate != 5 {
		t.Fatalf("Estimate=%v", a.Estimate)
	}

	b := items[1]
	if b.Status != model.StatusActive || b.RawStatus != "In Progress" {
		t.Fatalf("status mapping: %+v", b)
	}
	if b.Completed == nil || *b.Completed != 0 {
		t.Fatalf("explicit zero must stay zero, got %v", b.Completed)
	}

	c := items[2]
	if c.Estimate != nil || c.Completed != nil {
		t.Fatalf("empty effort must be nil, got %v / %v", c.Estimate, c.Completed)
	}
	if c.Assignee != "" || c.Team != "" {
		t.Fatalf("unexpected identity: %+v", c)
	}

	d := items[3]
	if !reflect.DeepEqual(d.Missing, []string{model.FieldID, model.FieldStatus}) {
		t.Fatalf("Missing=%v", d.Missing)
	}
	if !reflect.DeepEqual(d.Invalid, []string{model.FieldEstimate}) {
		t.Fatalf("Invalid=%v", d.Invalid)
	}
	if !reflect.DeepEqual(d.Negative, []string{model.FieldCompleted}) {
		t.Fatalf("Negative=%v", d.Negative)
	}
}

func TestNormalizeWorkItems_TolerantColumns(t *testing.T) {
	t.Parallel()

	rows := make([][]string, 20)
	rows = append(rows,
		[]string{"Status", " work item id ", "Team", "Assignee"},
		[]string{"Active", "7", "Platform", "Dana"},
	)

	items, err := NormalizeWorkItems(rows, layout.Default())
	if err != nil {
		t.Fatalf("NormalizeWorkItems: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items", len(items))
	}
	it := items[0]
	if it.ID != "7" || it.Team != "Platform" || it.Assignee != "Dana" || it.Status != model.StatusActive {
		t.Fatalf("unexpected item: %+v", it)
	}
	if it.Estimate != nil || it.Completed != nil || it.Remaining != nil {
		t.Fatalf("missing optional columns must give nil effort: %+v", it)
	}
}

func TestNormalizeWorkItems_MissingRequiredColumn(t *testing.T) {
	t.Parallel()

	rows := make([][]string, 20)
	rows = append(rows, []string{"ID", "Title"})

	_, err := NormalizeWorkItems(rows, layout.Default())
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}

func TestNormalizeWorkItems_HeaderOnly(t *testing.T) {
	t.Parallel()

	rows := make([][]string, 20)
	rows = append(rows, []string{"ID", "State"})

	items, err := NormalizeWorkItems(rows, layout.Default())
	if err != nil {
		t.Fatalf("NormalizeWorkItems: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("got %d items", len(items))
	}
}
