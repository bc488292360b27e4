package calculator

import (
	"sort"

	"sprintanalyzer/internal/model"
)

// AggregateByStaff 按负责人汇总（精确匹配，空负责人不计入）
//
// 按源表行序累加，保证浮点结果可复现。
func AggregateByStaff(items []model.WorkItem) map[string]*model.StaffAggregate {
	out := make(map[string]*model.StaffAggregate)
	teamVotes := make(map[string]*teamTally)

	for i := range items {
		it := &items[i]
		if it.Assignee == "" {
			continue
		}
		agg, ok := out[it.Assignee]
		if !ok {
			agg = &model.StaffAggregate{Name: it.Assignee}
			out[it.Assignee] = agg
			teamVotes[it.Assignee] = &teamTally{counts: map[string]int{}}
		}
		addItem(&agg.Items, &agg.Bugs, &agg.Status, &agg.Effort, it)
		teamVotes[it.Assignee].add(it.Team)
	}

	for name, agg := range out {
		agg.Team = teamVotes[name].top()
	}
	return out
}

// AggregateByTeam 按团队汇总（精确匹配，空团队不计入）
func AggregateByTeam(items []model.WorkItem) map[string]*model.TeamAggregate {
	out := make(map[string]*model.TeamAggregate)
	members := make(map[string]map[string]bool)

	for i := range items {
		it := &items[i]
		if it.Team == "" {
			continue
		}
		agg, ok := out[it.Team]
		if !ok {
			agg = &model.TeamAggregate{Name: it.Team}
			out[it.Team] = agg
			members[it.Team] = map[string]bool{}
		}
		addItem(&agg.Items, &agg.Bugs, &agg.Status, &agg.Effort, it)
		if it.Assignee != "" {
			members[it.Team][it.Assignee] = true
		}
	}

	for name, agg := range out {
		agg.Members = sortedKeys(members[name])
	}
	return out
}

func addItem(items, bugs *int, status *model.StatusCounts, effort *model.EffortTotals, it *model.WorkItem) {
	*items++
	if it.IsBug() && it.Status.Applicable() {
		*bugs++
	}
	status.Add(it.Status)
	effort.Add(it)
}

// teamTally 统计负责人所属团队，票数相同取先出现者
type teamTally struct {
	order  []string
	counts map[string]int
}

func (t *teamTally) add(team string) {
	if team == "" {
		return
	}
	if _, ok := t.counts[team]; !ok {
		t.order = append(t.order, team)
	}
	t.counts[team]++
}

func (t *teamTally) top() string {
	best := ""
	for _, team := range t.order {
		if best == "" || t.counts[team] > t.counts[best] {
			best = team
		}
	}
	return best
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
