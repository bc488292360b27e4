package calculator

import (
	"sort"

	"sprintanalyzer/internal/model"
)

// JoinCapacity 找出工作项中出现但容量表缺失的成员（按姓名排序）
//
// 缺失成员按零容量处理，利用率为空，不会导致失败。
func JoinCapacity(items []model.WorkItem, capacity map[string]model.CapacityRecord) []model.CapacityGapWarning {
	teams := make(map[string]string)
	for i := range items {
		it := &items[i]
		if it.Assignee == "" {
			continue
		}
		if _, ok := capacity[it.Assignee]; ok {
			continue
		}
		if _, seen := teams[it.Assignee]; !seen || teams[it.Assignee] == "" {
			teams[it.Assignee] = it.Team
		}
	}

	out := make([]model.CapacityGapWarning, 0, len(teams))
	for staff, team := range teams {
		out = append(out, model.CapacityGapWarning{Staff: staff, Team: team})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Staff < out[j].Staff })
	return out
}
