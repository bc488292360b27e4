package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// parseFloatPtr 空串返回 (nil, true)；无法解析返回 (nil, false)
func parseFloatPtr(s string) (*float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	s = strings.ReplaceAll(s, ",", "") // 移除千分位
	s = strings.ReplaceAll(s, " ", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return &f, true
}

// parseIntCell 接受 "42" 与 "42.0"
func parseIntCell(s string) (int, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int(f), nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"02-Jan-2006",
	"2-Jan-2006",
	"2 January 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	time.RFC3339,
}

// parseDateCell 空串返回 nil；支持 Excel 日期序列号与常见文本格式
func parseDateCell(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return nil, fmt.Errorf("invalid date serial %q: %w", s, err)
		}
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &d, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date %q", s)
}

var excelErrorValues = map[string]bool{
	"#REF!":   true,
	"#N/A":    true,
	"#VALUE!": true,
	"#NAME?":  true,
	"#DIV/0!": true,
	"#NULL!":  true,
	"#NUM!":   true,
}

// isExcelError 公式错误值
func isExcelError(s string) bool {
	return excelErrorValues[strings.ToUpper(strings.TrimSpace(s))]
}

var identityEmailRe = regexp.MustCompile(`\s*<[^<>]*>\s*$`)

// normalizeIdentity 规范化负责人/成员名：去掉首尾空白，可选去掉末尾邮箱
//
// 不做大小写或内部空白折叠，疑似同名由校验器提示。
func normalizeIdentity(s string, stripEmail bool) string {
	s = strings.TrimSpace(s)
	if stripEmail {
		if stripped := identityEmailRe.ReplaceAllString(s, ""); stripped != "" {
			s = stripped
		}
	}
	return s
}

// lastPathSegment "Project\Team A" -> "Team A"
func lastPathSegment(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	i := strings.LastIndexAny(path, `\/`)
	return strings.TrimSpace(path[i+1:])
}

var trailingNumberRe = regexp.MustCompile(`(\d+)\s*$`)

// sequenceFromName "Sprint 42" -> 42
func sequenceFromName(name string) int {
	m := trailingNumberRe.FindStringSubmatch(name)
	if len(m) < 2 {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
