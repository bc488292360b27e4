package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ApplyFormulas 在每个已写入数据区下方写汇总公式（计数/工时列 SUM，比率与 KPI 列 AVERAGE）
//
// 重复调用写入相同内容。
func (w *ReportWriter) ApplyFormulas() error {
	for _, r := range w.ranges {
		if r.lastRow < r.firstRow {
			continue
		}
		row := r.lastRow + 1
		if r.label != "" {
			if err := writeRow(w.f, r.sheet, 1, row, []interface{}{r.label}); err != nil {
				return err
			}
		}
		for _, col := range r.cols {
			formula, err := rangeFormula(r.fn, col, r.firstRow, r.lastRow)
			if err != nil {
				return err
			}
			cell, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return err
			}
			if err := w.f.SetCellFormula(r.sheet, cell, formula); err != nil {
				return fmt.Errorf("写入公式 %s!%s 失败: %w", r.sheet, cell, err)
			}
		}
		if err := styleRange(w.f, r.sheet, 1, row, r.cols[len(r.cols)-1], row, w.headerStyle); err != nil {
			return err
		}
	}
	return nil
}

// rangeFormula AVERAGE 在整列为空时返回空串而不是 #DIV/0!
func rangeFormula(fn string, col, firstRow, lastRow int) (string, error) {
	from, err := excelize.CoordinatesToCellName(col, firstRow)
	if err != nil {
		return "", err
	}
	to, err := excelize.CoordinatesToCellName(col, lastRow)
	if err != nil {
		return "", err
	}
	if fn == "AVERAGE" {
		return fmt.Sprintf(`IFERROR(AVERAGE(%s:%s),"")`, from, to), nil
	}
	return fmt.Sprintf("%s(%s:%s)", fn, from, to), nil
}

func columnSpan(from, to int) []int {
	cols := make([]int, 0, to-from+1)
	for c := from; c <= to; c++ {
		cols = append(cols, c)
	}
	return cols
}
