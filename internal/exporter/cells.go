package exporter

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ensureSheet 表不存在时追加到末尾
func ensureSheet(f *excelize.File, sheet string) (created bool, err error) {
	idx, err := f.GetSheetIndex(sheet)
	if err == nil && idx >= 0 {
		return false, nil
	}
	if _, err := f.NewSheet(sheet); err != nil {
		return false, fmt.Errorf("创建工作表 %s 失败: %w", sheet, err)
	}
	return true, nil
}

func getSheetMaxColRow(f *excelize.File, sheet string) (int, int, error) {
	dim, err := f.GetSheetDimension(sheet)
	if err != nil {
		return 0, 0, err
	}
	if dim == "" {
		return 0, 0, nil
	}
	parts := strings.Split(dim, ":")
	maxCell := parts[len(parts)-1]
	maxCol, maxRow, err := excelize.CellNameToCoordinates(maxCell)
	if err != nil {
		return 0, 0, err
	}
	return maxCol, maxRow, nil
}

// clearSheet 清空整张表的值与公式（保留表本身、列宽与位置）
func clearSheet(f *excelize.File, sheet string) error {
	maxCol, maxRow, err := getSheetMaxColRow(f, sheet)
	if err != nil {
		return err
	}
	for r := 1; r <= maxRow; r++ {
		for c := 1; c <= maxCol; c++ {
			cell, err := excelize.CoordinatesToCellName(c, r)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, ""); err != nil {
				return err
			}
			_ = f.SetCellFormula(sheet, cell, "")
		}
	}
	return nil
}

// writeRow 从第 col 列开始写一行
func writeRow(f *excelize.File, sheet string, col, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// styleRange 为 (col1,row1)-(col2,row2) 设置样式
func styleRange(f *excelize.File, sheet string, col1, row1, col2, row2, style int) error {
	if row2 < row1 || col2 < col1 {
		return nil
	}
	from, err := excelize.CoordinatesToCellName(col1, row1)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(col2, row2)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, from, to, style)
}

// optional nil 写为空单元格
func optional(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func headerRow(headers []string) []interface{} {
	out := make([]interface{}, len(headers))
	for i, h := range headers {
		out[i] = h
	}
	return out
}
