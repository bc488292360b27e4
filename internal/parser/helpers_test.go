package parser

import (
	"testing"

	"github.com/xuri/excelize/v2"

	"sprintanalyzer/internal/layout"
)

// buildWorkbook 构建内存工作簿：Data 表（元数据 + 第 21 行表头）与 Capacity 表
func buildWorkbook(t *testing.T, meta map[string]interface{}, header []string, rows [][]interface{}, capHeader []string, capRows [][]interface{}) *excelize.File {
	t.Helper()

	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })

	if err := f.SetSheetName("Sheet1", "Data"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	for cell, v := range meta {
		if err := f.SetCellValue("Data", cell, v); err != nil {
			t.Fatalf("set %s: %v", cell, err)
		}
	}

	l := layout.Default()
	writeTable(t, f, "Data", l.WorkItemHeaderRow, header, rows)

	if capHeader != nil {
		if _, err := f.NewSheet("Capacity"); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		writeTable(t, f, "Capacity", l.CapacityHeaderRow, capHeader, capRows)
	}
	return f
}

func writeTable(t *testing.T, f *excelize.File, sheet string, headerRow int, header []string, rows [][]interface{}) {
	t.Helper()

	if header == nil {
		return
	}
	start, _ := excelize.CoordinatesToCellName(1, headerRow)
	hdr := make([]interface{}, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := f.SetSheetRow(sheet, start, &hdr); err != nil {
		t.Fatalf("SetSheetRow header: %v", err)
	}
	for i, r := range rows {
		r := r
		cell, _ := excelize.CoordinatesToCellName(1, headerRow+1+i)
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatalf("SetSheetRow %d: %v", i, err)
		}
	}
}

func snapshotOf(t *testing.T, f *excelize.File) *Snapshot {
	t.Helper()
	snap, err := ReadSnapshot(f, layout.Default())
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	return snap
}
