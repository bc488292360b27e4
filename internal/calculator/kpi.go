package calculator

import (
	"sort"

	"sprintanalyzer/internal/model"
)

// CalculateStaffMetrics 员工指标：汇总 + 容量 -> 每人一行（按姓名排序）
//
// 容量表中有、但本迭代没有工作项的成员也会输出一行。
func CalculateStaffMetrics(agg map[string]*model.StaffAggregate, capacity map[string]model.CapacityRecord, items []model.WorkItem, w Weights) model.StaffMetrics {
	totalCompleted := completedTotal(items)

	names := make(map[string]bool, len(agg)+len(capacity))
	for name := range agg {
		names[name] = true
	}
	for name := range capacity {
		names[name] = true
	}

	out := make(model.StaffMetrics, 0, len(names))
	for _, name := range sortedKeys(names) {
		a, ok := agg[name]
		if !ok {
			a = &model.StaffAggregate{Name: name}
		}
		rec, hasCapacity := capacity[name]

		row := model.StaffMetric{Name: name, Team: a.Team}
		if row.Team == "" {
			row.Team = rec.Team
		}

		var capPtr *float64
		if hasCapacity {
			c := rec.Capacity
			capPtr = &c
		}
		row.MetricValues = metricValues(a.Items, a.Bugs, a.Status, a.Effort, capPtr, totalCompleted, w)
		row.CapacityMissing = !hasCapacity
		out = append(out, row)
	}
	return out
}

// CalculateTeamMetrics 团队指标：团队容量为归属该团队的成员容量之和
//
// 每人的容量只计入一个团队：优先取其工作项的主团队，没有工作项时取容量表上的团队。
// 没有工作项的团队仍会输出（承接容量），但 KPI 为空，不参与平均。
func CalculateTeamMetrics(agg map[string]*model.TeamAggregate, capacity map[string]model.CapacityRecord, items []model.WorkItem, w Weights) model.TeamMetrics {
	totalCompleted := completedTotal(items)

	home := make(map[string]string, len(capacity))
	for name, a := range AggregateByStaff(items) {
		home[name] = a.Team
	}
	for staff, rec := range capacity {
		if home[staff] == "" {
			home[staff] = rec.Team
		}
	}

	members := make(map[string]map[string]bool)
	addMember := func(team, staff string) {
		if members[team] == nil {
			members[team] = map[string]bool{}
		}
		if staff != "" {
			members[team][staff] = true
		}
	}
	for name, a := range agg {
		addMember(name, "")
		for _, m := range a.Members {
			addMember(name, m)
		}
	}
	for staff, team := range home {
		if team != "" {
			addMember(team, staff)
		}
	}

	teams := make([]string, 0, len(members))
	for team := range members {
		teams = append(teams, team)
	}
	sort.Strings(teams)

	out := make(model.TeamMetrics, 0, len(teams))
	for _, team := range teams {
		a, ok := agg[team]
		if !ok {
			a = &model.TeamAggregate{Name: team}
		}
		mem := sortedKeys(members[team])

		var capSum float64
		known := 0
		missing := false
		for _, m := range mem {
			if home[m] != team {
				continue
			}
			rec, ok := capacity[m]
			if !ok {
				missing = true
				continue
			}
			capSum += rec.Capacity
			known++
		}
		var capPtr *float64
		if known > 0 {
			capPtr = &capSum
		}

		row := model.TeamMetric{Name: team, MemberCount: len(mem), Members: mem}
		row.MetricValues = metricValues(a.Items, a.Bugs, a.Status, a.Effort, capPtr, totalCompleted, w)
		if a.Items == 0 {
			row.KPI = nil
		}
		row.CapacityMissing = missing || known == 0
		out = append(out, row)
	}
	return out
}

func metricValues(items, bugs int, status model.StatusCounts, effort model.EffortTotals, capacity *float64, totalCompleted float64, w Weights) model.MetricValues {
	applicable := items - status.Removed

	v := model.MetricValues{
		Items:           items,
		Done:            status.Done(),
		Removed:         status.Removed,
		Bugs:            bugs,
		EstimatedEffort: effort.Estimated,
		CompletedEffort: effort.Completed,
		RemainingEffort: effort.Remaining,
		Velocity:        effort.DeliveredEstimate,
		Capacity:        capacity,
	}
	v.CompletionRatio = ratio(float64(status.Done()), float64(applicable))
	if capacity != nil {
		v.Utilization = ratio(effort.Completed, *capacity)
	}
	v.EffortAccuracy = ratio(effort.Completed, effort.Estimated)
	v.BugRatio = ratio(float64(bugs), float64(applicable))
	v.Contribution = ratio(effort.Completed, totalCompleted)
	v.KPI = w.Score(v.CompletionRatio, v.Utilization, v.BugRatio)
	return v
}

// ratio 分母为 0 时返回 nil（不产生 Inf/NaN）
func ratio(num, den float64) *float64 {
	if den == 0 {
		return nil
	}
	r := num / den
	return &r
}

func completedTotal(items []model.WorkItem) float64 {
	total := 0.0
	for i := range items {
		if items[i].Completed != nil {
			total += *items[i].Completed
		}
	}
	return total
}
