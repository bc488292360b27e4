package model

// MetricValues 员工/团队指标的公共列
type MetricValues struct {
	Items           int      `json:"items"`
	Done            int      `json:"done"`
	Removed         int      `json:"removed"`
	Bugs            int      `json:"bugs"`
	EstimatedEffort float64  `json:"estimatedEffort"`
	CompletedEffort float64  `json:"completedEffort"`
	RemainingEffort float64  `json:"remainingEffort"`
	Velocity        float64  `json:"velocity"` // 已完成工作项的预估工作量之和
	Capacity        *float64 `json:"capacity"`
	CompletionRatio *float64 `json:"completionRatio"`
	Utilization     *float64 `json:"utilization"`
	EffortAccuracy  *float64 `json:"effortAccuracy"`
	BugRatio        *float64 `json:"bugRatio"`
	Contribution    *float64 `json:"contribution"` // 占全部已完成工作量的比例
	KPI             *float64 `json:"kpi"`
	CapacityMissing bool     `json:"capacityMissing"`
}

// StaffMetric 单个员工的指标行
type StaffMetric struct {
	Name string `json:"name"`
	Team string `json:"team"`
	MetricValues
}

// TeamMetric 单个团队的指标行
type TeamMetric struct {
	Name        string   `json:"name"`
	MemberCount int      `json:"memberCount"`
	Members     []string `json:"members"`
	MetricValues
}

// StaffMetrics 员工指标表（按姓名排序）
type StaffMetrics []StaffMetric

// TeamMetrics 团队指标表（按团队名排序）
type TeamMetrics []TeamMetric

// AverageKPI 平均 KPI（忽略无法计算的行），全部为空时返回 nil
func (t TeamMetrics) AverageKPI() *float64 {
	sum := 0.0
	n := 0
	for _, m := range t {
		if m.KPI == nil {
			continue
		}
		sum += *m.KPI
		n++
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// TypeCount 工作项类型计数
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// CMMIMeasures 迭代级过程度量（每个迭代一条）
type CMMIMeasures struct {
	SprintName  string `json:"sprintName"`
	Sequence    int    `json:"sequence"`
	Start       string `json:"start"` // YYYY-MM-DD，缺失为空
	End         string `json:"end"`
	WorkingDays int    `json:"workingDays"`

	TotalItems      int `json:"totalItems"`
	ApplicableItems int `json:"applicableItems"`
	CompletedItems  int `json:"completedItems"`
	RemovedItems    int `json:"removedItems"`
	UnassignedItems int `json:"unassignedItems"`

	CompletionRate     float64  `json:"completionRate"`
	ScopeChangeRate    float64  `json:"scopeChangeRate"`
	EstimateCoverage   float64  `json:"estimateCoverage"`
	EstimationAccuracy *float64 `json:"estimationAccuracy"`
	DefectDensity      float64  `json:"defectDensity"`

	PlannedEffort   float64 `json:"plannedEffort"`
	CompletedEffort float64 `json:"completedEffort"`
	RemainingEffort float64 `json:"remainingEffort"`

	TypeCounts []TypeCount `json:"typeCounts"`
}
