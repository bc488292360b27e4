package parser

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"sprintanalyzer/internal/layout"
)

// Snapshot 单次运行使用的只读表格快照
//
// 读取后与工作簿句柄脱离，后续各阶段只依赖快照。
type Snapshot struct {
	DataRows     [][]string
	CapacityRows [][]string
}

// ReadSnapshot 读取数据表与容量表（原始单元格值，日期保留为序列号）
func ReadSnapshot(f *excelize.File, l *layout.Layout) (*Snapshot, error) {
	dataRows, err := readSheet(f, l.DataSheet)
	if err != nil {
		return nil, err
	}
	capacityRows, err := readSheet(f, l.CapacitySheet)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		DataRows:     dataRows,
		CapacityRows: capacityRows,
	}, nil
}

func readSheet(f *excelize.File, sheet string) ([][]string, error) {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return nil, &SchemaError{Sheet: sheet, Reason: "not found in workbook"}
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

// cellAt 按 (列, 行) 取值，坐标从 1 开始，越界返回空串
func cellAt(rows [][]string, col, row int) string {
	if row < 1 || row > len(rows) {
		return ""
	}
	r := rows[row-1]
	if col < 1 || col > len(r) {
		return ""
	}
	return r[col-1]
}
