package parser

import (
	"sprintanalyzer/internal/layout"
)

// fieldAliases 字段及其列名别名；别名冲突时先声明的字段优先
type fieldAliases struct {
	field   string
	aliases []string
}

// columnMap 字段 -> 列索引（从 0 开始）
type columnMap map[string]int

// mapColumns 按列名别名匹配字段；同一字段命中多列时取最左侧
func mapColumns(header []string, fields []fieldAliases) columnMap {
	lookup := make(map[string]string)
	for _, fa := range fields {
		field := fa.field
		for _, n := range fa.aliases {
			key := layout.NormalizeHeader(n)
			if key == "" {
				continue
			}
			if _, exists := lookup[key]; !exists {
				lookup[key] = field
			}
		}
	}

	mapping := columnMap{}
	for idx, col := range header {
		field, ok := lookup[layout.NormalizeHeader(col)]
		if !ok {
			continue
		}
		if _, taken := mapping[field]; taken {
			continue
		}
		mapping[field] = idx
	}
	return mapping
}

// get 取字段对应单元格，列不存在或越界返回 ("", false)
func (m columnMap) get(row []string, field string) (string, bool) {
	idx, ok := m[field]
	if !ok {
		return "", false
	}
	if idx >= len(row) {
		return "", true
	}
	return row[idx], true
}

func (m columnMap) has(field string) bool {
	_, ok := m[field]
	return ok
}
