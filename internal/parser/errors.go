package parser

import "fmt"

// MetadataError 迭代元数据不可读（致命，在任何汇总之前终止）
type MetadataError struct {
	Sheet  string
	Cell   string
	Field  string
	Reason string
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("metadata error: %s (%s!%s) %s", e.Field, e.Sheet, e.Cell, e.Reason)
}

// SchemaError 工作簿结构不符合版式（缺 sheet、缺必需列等）
type SchemaError struct {
	Sheet  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: sheet %q %s", e.Sheet, e.Reason)
}
