package parser

import (
	"strings"
	"time"

	"sprintanalyzer/internal/layout"
	"sprintanalyzer/internal/model"
)

// ExtractMetadata 从数据表的元数据单元格读取迭代信息
func ExtractMetadata(rows [][]string, l *layout.Layout) (model.SprintMetadata, error) {
	var meta model.SprintMetadata

	name, err := readMetadataCell(rows, l, "sprint name", l.Metadata.SprintName)
	if err != nil {
		return meta, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return meta, &MetadataError{Sheet: l.DataSheet, Cell: l.Metadata.SprintName.Cell, Field: "sprint name", Reason: "is empty"}
	}
	if isExcelError(name) {
		return meta, &MetadataError{Sheet: l.DataSheet, Cell: l.Metadata.SprintName.Cell, Field: "sprint name", Reason: "contains formula error " + name}
	}
	meta.Name = name

	if meta.Start, err = readMetadataDate(rows, l, "start date", l.Metadata.StartDate); err != nil {
		return meta, err
	}
	if meta.End, err = readMetadataDate(rows, l, "end date", l.Metadata.EndDate); err != nil {
		return meta, err
	}
	if meta.Start != nil && meta.End != nil {
		if meta.End.Before(*meta.Start) {
			return meta, &MetadataError{Sheet: l.DataSheet, Cell: l.Metadata.EndDate.Cell, Field: "end date", Reason: "is before start date"}
		}
		meta.WorkingDays = model.CountWorkingDays(*meta.Start, *meta.End)
	}

	seq, err := readMetadataCell(rows, l, "sequence", l.Metadata.Sequence)
	if err != nil {
		return meta, err
	}
	if strings.TrimSpace(seq) != "" {
		n, err := parseIntCell(seq)
		if err != nil || n < 0 {
			return meta, &MetadataError{Sheet: l.DataSheet, Cell: l.Metadata.Sequence.Cell, Field: "sequence", Reason: "is not a non-negative integer"}
		}
		meta.Sequence = n
	} else {
		meta.Sequence = sequenceFromName(name)
	}

	return meta, nil
}

// readMetadataCell 未声明的可选单元格返回空串
func readMetadataCell(rows [][]string, l *layout.Layout, field string, c layout.MetadataCell) (string, error) {
	if strings.TrimSpace(c.Cell) == "" {
		return "", nil
	}
	col, row, err := c.Coordinates()
	if err != nil {
		return "", &MetadataError{Sheet: l.DataSheet, Cell: c.Cell, Field: field, Reason: "has an invalid cell reference"}
	}
	v := strings.TrimSpace(cellAt(rows, col, row))
	if v == "" && c.Required {
		return "", &MetadataError{Sheet: l.DataSheet, Cell: c.Cell, Field: field, Reason: "is empty"}
	}
	return v, nil
}

func readMetadataDate(rows [][]string, l *layout.Layout, field string, c layout.MetadataCell) (*time.Time, error) {
	v, err := readMetadataCell(rows, l, field, c)
	if err != nil {
		return nil, err
	}
	t, err := parseDateCell(v)
	if err != nil {
		return nil, &MetadataError{Sheet: l.DataSheet, Cell: c.Cell, Field: field, Reason: err.Error()}
	}
	return t, nil
}
