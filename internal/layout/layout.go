// Package layout 描述工作簿的版式约定：元数据单元格、表头行、列名别名与报表 sheet 名。
//
// 版式调整只需修改 config.toml 的 [layout] 段，加载时统一校验一次。
package layout

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"sprintanalyzer/internal/model"
)

// CellType 元数据单元格的语义类型
type CellType string

const (
	CellString CellType = "string"
	CellDate   CellType = "date"
	CellInt    CellType = "int"
)

// MetadataCell 一个元数据单元格
type MetadataCell struct {
	Cell     string   `toml:"cell"`
	Type     CellType `toml:"type"`
	Required bool     `toml:"required"`
}

// Coordinates 返回 (列, 行)，均从 1 开始
func (c MetadataCell) Coordinates() (col, row int, err error) {
	return excelize.CellNameToCoordinates(strings.TrimSpace(c.Cell))
}

// MetadataCells 迭代元数据所在单元格
type MetadataCells struct {
	SprintName MetadataCell `toml:"sprint_name"`
	StartDate  MetadataCell `toml:"start_date"`
	EndDate    MetadataCell `toml:"end_date"`
	Sequence   MetadataCell `toml:"sequence"`
}

// WorkItemColumns 工作项表的列名别名（按名称匹配，不按位置）
type WorkItemColumns struct {
	ID        []string `toml:"id"`
	Type      []string `toml:"type"`
	Title     []string `toml:"title"`
	Assignee  []string `toml:"assignee"`
	Team      []string `toml:"team"`
	AreaPath  []string `toml:"area_path"`
	State     []string `toml:"state"`
	Estimate  []string `toml:"estimate"`
	Completed []string `toml:"completed"`
	Remaining []string `toml:"remaining"`
}

// CapacityColumns 容量表的列名别名
type CapacityColumns struct {
	Staff          []string `toml:"staff"`
	Team           []string `toml:"team"`
	Capacity       []string `toml:"capacity"`
	CapacityPerDay []string `toml:"capacity_per_day"`
	DaysOff        []string `toml:"days_off"`
}

// ReportSheets 报表输出 sheet 名
type ReportSheets struct {
	Analysis        string `toml:"analysis"`
	KPI             string `toml:"kpi"`
	HistoricalStaff string `toml:"historical_staff"`
	HistoricalTeam  string `toml:"historical_team"`
	CMMI            string `toml:"cmmi"`
}

// Layout 工作簿版式
type Layout struct {
	DataSheet         string          `toml:"data_sheet"`
	Metadata          MetadataCells   `toml:"metadata"`
	WorkItemHeaderRow int             `toml:"work_item_header_row"`
	WorkItemColumns   WorkItemColumns `toml:"work_item_columns"`

	CapacitySheet     string          `toml:"capacity_sheet"`
	CapacityHeaderRow int             `toml:"capacity_header_row"`
	CapacityColumns   CapacityColumns `toml:"capacity_columns"`

	// 状态词表：标准状态 -> 别名（大小写不敏感）
	StatusAliases map[string][]string `toml:"status_aliases"`

	// 去掉负责人末尾的 "<mail@host>"
	StripIdentityEmail bool `toml:"strip_identity_email"`

	Reports ReportSheets `toml:"reports"`
}

// Default 默认版式（Azure DevOps 导出 + 容量表）
func Default() *Layout {
	return &Layout{
		DataSheet: "Data",
		Metadata: MetadataCells{
			SprintName: MetadataCell{Cell: "C3", Type: CellString, Required: true},
			StartDate:  MetadataCell{Cell: "C4", Type: CellDate},
			EndDate:    MetadataCell{Cell: "C5", Type: CellDate},
			Sequence:   MetadataCell{Cell: "C6", Type: CellInt},
		},
		WorkItemHeaderRow: 21,
		WorkItemColumns: WorkItemColumns{
			ID:        []string{"ID", "Work Item ID"},
			Type:      []string{"Work Item Type", "Type"},
			Title:     []string{"Title"},
			Assignee:  []string{"Assigned To", "Assignee", "Owner"},
			Team:      []string{"Team"},
			AreaPath:  []string{"Area Path"},
			State:     []string{"State", "Status"},
			Estimate:  []string{"Original Estimate", "Estimate", "Effort"},
			Completed: []string{"Completed Work", "Completed", "Actual Effort"},
			Remaining: []string{"Remaining Work", "Remaining"},
		},
		CapacitySheet:     "Capacity",
		CapacityHeaderRow: 1,
		CapacityColumns: CapacityColumns{
			Staff:          []string{"Team Member", "Name", "Staff", "Assigned To"},
			Team:           []string{"Team"},
			Capacity:       []string{"Capacity", "Available Capacity", "Capacity (Hours)"},
			CapacityPerDay: []string{"Capacity Per Day", "Capacity/Day"},
			DaysOff:        []string{"Days Off"},
		},
		StatusAliases: map[string][]string{
			string(model.StatusNew):      {"To Do", "Proposed", "Open", "Approved"},
			string(model.StatusActive):   {"In Progress", "Committed", "Doing", "In Review"},
			string(model.StatusResolved): {"Ready for Test", "Testing"},
			string(model.StatusClosed):   {"Done", "Completed"},
			string(model.StatusRemoved):  {"Cut", "Cancelled", "Canceled"},
		},
		StripIdentityEmail: true,
		Reports: ReportSheets{
			Analysis:        "Sprint Analysis",
			KPI:             "KPI Indicators",
			HistoricalStaff: "Historical Staff",
			HistoricalTeam:  "Historical Team",
			CMMI:            "CMMI",
		},
	}
}

// Validate 校验版式声明；加载配置后调用一次
func (l *Layout) Validate() error {
	var problems []string

	if strings.TrimSpace(l.DataSheet) == "" {
		problems = append(problems, "data_sheet is empty")
	}
	if strings.TrimSpace(l.CapacitySheet) == "" {
		problems = append(problems, "capacity_sheet is empty")
	}

	cells := []struct {
		name string
		cell MetadataCell
	}{
		{"sprint_name", l.Metadata.SprintName},
		{"start_date", l.Metadata.StartDate},
		{"end_date", l.Metadata.EndDate},
		{"sequence", l.Metadata.Sequence},
	}
	for _, c := range cells {
		if strings.TrimSpace(c.cell.Cell) == "" {
			if c.name == "sprint_name" {
				problems = append(problems, "metadata.sprint_name cell is empty")
			}
			continue
		}
		if _, _, err := c.cell.Coordinates(); err != nil {
			problems = append(problems, fmt.Sprintf("metadata.%s: invalid cell %q", c.name, c.cell.Cell))
		}
		switch c.cell.Type {
		case CellString, CellDate, CellInt:
		default:
			problems = append(problems, fmt.Sprintf("metadata.%s: unknown type %q", c.name, c.cell.Type))
		}
	}
	if l.Metadata.SprintName.Type != "" && l.Metadata.SprintName.Type != CellString {
		problems = append(problems, "metadata.sprint_name must be a string cell")
	}

	if l.WorkItemHeaderRow < 1 {
		problems = append(problems, "work_item_header_row must be >= 1")
	}
	if l.CapacityHeaderRow < 1 {
		problems = append(problems, "capacity_header_row must be >= 1")
	}
	if l.DataSheet == l.CapacitySheet && l.WorkItemHeaderRow == l.CapacityHeaderRow {
		problems = append(problems, "work item and capacity tables overlap")
	}

	if len(l.WorkItemColumns.ID) == 0 {
		problems = append(problems, "work_item_columns.id has no aliases")
	}
	if len(l.WorkItemColumns.State) == 0 {
		problems = append(problems, "work_item_columns.state has no aliases")
	}
	if len(l.CapacityColumns.Staff) == 0 {
		problems = append(problems, "capacity_columns.staff has no aliases")
	}
	if len(l.CapacityColumns.Capacity) == 0 && len(l.CapacityColumns.CapacityPerDay) == 0 {
		problems = append(problems, "capacity_columns needs capacity or capacity_per_day aliases")
	}

	for canonical := range l.StatusAliases {
		if _, ok := canonicalStatus(canonical); !ok {
			problems = append(problems, fmt.Sprintf("status_aliases: unknown status %q", canonical))
		}
	}

	seen := map[string]string{}
	for _, s := range []struct{ key, name string }{
		{"analysis", l.Reports.Analysis},
		{"kpi", l.Reports.KPI},
		{"historical_staff", l.Reports.HistoricalStaff},
		{"historical_team", l.Reports.HistoricalTeam},
		{"cmmi", l.Reports.CMMI},
	} {
		name := strings.TrimSpace(s.name)
		if name == "" {
			problems = append(problems, fmt.Sprintf("reports.%s is empty", s.key))
			continue
		}
		if prev, dup := seen[name]; dup {
			problems = append(problems, fmt.Sprintf("reports.%s duplicates reports.%s (%q)", s.key, prev, name))
		}
		if name == l.DataSheet || name == l.CapacitySheet {
			problems = append(problems, fmt.Sprintf("reports.%s would overwrite input sheet %q", s.key, name))
		}
		seen[name] = s.key
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid layout: %s", strings.Join(problems, "; "))
	}
	return nil
}

// StatusResolver 原始状态文本 -> 标准状态
type StatusResolver map[string]model.WorkItemStatus

// NewStatusResolver 由标准状态名与别名构建状态映射
func (l *Layout) NewStatusResolver() StatusResolver {
	r := StatusResolver{}
	for _, s := range model.CanonicalStatuses {
		r[NormalizeHeader(string(s))] = s
	}
	for canonical, aliases := range l.StatusAliases {
		s, ok := canonicalStatus(canonical)
		if !ok {
			continue
		}
		for _, a := range aliases {
			r[NormalizeHeader(a)] = s
		}
	}
	return r
}

// Resolve 空文本返回 ""，词表之外返回 StatusUnknown
func (r StatusResolver) Resolve(raw string) model.WorkItemStatus {
	key := NormalizeHeader(raw)
	if key == "" {
		return ""
	}
	if s, ok := r[key]; ok {
		return s
	}
	return model.StatusUnknown
}

func canonicalStatus(name string) (model.WorkItemStatus, bool) {
	for _, s := range model.CanonicalStatuses {
		if strings.EqualFold(strings.TrimSpace(name), string(s)) {
			return s, true
		}
	}
	return "", false
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeHeader 规范化列名：去掉全部空白并转小写
func NormalizeHeader(name string) string {
	return strings.ToLower(whitespaceRe.ReplaceAllString(strings.TrimSpace(name), ""))
}
