package calculator

import (
	"sort"

	"sprintanalyzer/internal/model"
)

const unspecifiedType = "Unspecified"

// CalculateCMMIMeasures 迭代级过程度量：基于全部工作项（不分员工）
//
// completion_rate = (Closed + Resolved) / (总数 - Removed)，无适用项时为 0。
func CalculateCMMIMeasures(meta model.SprintMetadata, items []model.WorkItem) model.CMMIMeasures {
	m := model.CMMIMeasures{
		SprintName:  meta.Name,
		Sequence:    meta.Sequence,
		WorkingDays: meta.WorkingDays,
		TotalItems:  len(items),
	}
	if meta.Start != nil {
		m.Start = meta.Start.Format("2006-01-02")
	}
	if meta.End != nil {
		m.End = meta.End.Format("2006-01-02")
	}

	var (
		estimated     int
		bugs          int
		pairEstimate  float64
		pairCompleted float64
		pairs         int
		types         = map[string]int{}
	)

	for i := range items {
		it := &items[i]

		typ := it.Type
		if typ == "" {
			typ = unspecifiedType
		}
		types[typ]++

		if it.Assignee == "" {
			m.UnassignedItems++
		}
		if !it.Status.Applicable() {
			m.RemovedItems++
			continue
		}

		m.ApplicableItems++
		if it.Status.IsDone() {
			m.CompletedItems++
		}
		if it.IsBug() {
			bugs++
		}
		if it.Estimate != nil {
			estimated++
			m.PlannedEffort += *it.Estimate
		}
		if it.Completed != nil {
			m.CompletedEffort += *it.Completed
		}
		if it.Remaining != nil {
			m.RemainingEffort += *it.Remaining
		}
		if it.Estimate != nil && it.Completed != nil {
			pairEstimate += *it.Estimate
			pairCompleted += *it.Completed
			pairs++
		}
	}

	if m.ApplicableItems > 0 {
		n := float64(m.ApplicableItems)
		m.CompletionRate = float64(m.CompletedItems) / n
		m.EstimateCoverage = float64(estimated) / n
		m.DefectDensity = float64(bugs) / n
	}
	if m.TotalItems > 0 {
		m.ScopeChangeRate = float64(m.RemovedItems) / float64(m.TotalItems)
	}
	if pairs > 0 {
		m.EstimationAccuracy = ratio(pairCompleted, pairEstimate)
	}

	m.TypeCounts = make([]model.TypeCount, 0, len(types))
	for typ, n := range types {
		m.TypeCounts = append(m.TypeCounts, model.TypeCount{Type: typ, Count: n})
	}
	sort.Slice(m.TypeCounts, func(i, j int) bool { return m.TypeCounts[i].Type < m.TypeCounts[j].Type })

	return m
}
