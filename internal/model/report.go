package model

// ValidationSummary 校验结果摘要（随报表一起交付）
type ValidationSummary struct {
	Status   string `json:"status"`
	Warnings int    `json:"warnings"`
	Errors   int    `json:"errors"`
}

// ReportBundle 一次运行的全部计算结果，一次性交给报表写入方
type ReportBundle struct {
	SprintName string               `json:"sprintName"`
	Metadata   SprintMetadata       `json:"metadata"`
	Staff      StaffMetrics         `json:"staff"`
	Team       TeamMetrics          `json:"team"`
	CMMI       CMMIMeasures         `json:"cmmi"`
	Warnings   []CapacityGapWarning `json:"warnings,omitempty"`
	Validation ValidationSummary    `json:"validation"`
}

// Summary 结果页展示用的摘要
type Summary struct {
	SprintName        string   `json:"sprintName"`
	StaffCount        int      `json:"staffCount"`
	TeamCount         int      `json:"teamCount"`
	AverageTeamKPI    *float64 `json:"averageTeamKpi"`
	CompletionRate    float64  `json:"completionRate"`
	CompletionPercent int      `json:"completionPercent"`
	Warnings          int      `json:"warnings"`
}

// Summarize 从报表数据生成摘要
func (b *ReportBundle) Summarize() Summary {
	return Summary{
		SprintName:        b.SprintName,
		StaffCount:        len(b.Staff),
		TeamCount:         len(b.Team),
		AverageTeamKPI:    b.Team.AverageKPI(),
		CompletionRate:    b.CMMI.CompletionRate,
		CompletionPercent: int(b.CMMI.CompletionRate*100 + 0.5),
		Warnings:          len(b.Warnings) + b.Validation.Warnings,
	}
}
