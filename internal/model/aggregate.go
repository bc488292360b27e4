package model

// StatusCounts 各状态计数
type StatusCounts struct {
	New      int `json:"new"`
	Active   int `json:"active"`
	Resolved int `json:"resolved"`
	Closed   int `json:"closed"`
	Removed  int `json:"removed"`
	Unknown  int `json:"unknown"` // 含缺失状态
}

// Add 累加一个状态
func (c *StatusCounts) Add(s WorkItemStatus) {
	switch s {
	case StatusNew:
		c.New++
	case StatusActive:
		c.Active++
	case StatusResolved:
		c.Resolved++
	case StatusClosed:
		c.Closed++
	case StatusRemoved:
		c.Removed++
	default:
		c.Unknown++
	}
}

// Done Closed + Resolved
func (c StatusCounts) Done() int {
	return c.Closed + c.Resolved
}

// EffortTotals 工作量汇总（按源表行序累加）
type EffortTotals struct {
	Estimated         float64 `json:"estimated"`
	Completed         float64 `json:"completed"`
	Remaining         float64 `json:"remaining"`
	EstimatedItems    int     `json:"estimatedItems"` // Estimate 非空的条数
	CompletedItems    int     `json:"completedItems"` // Completed 非空的条数
	DeliveredEstimate float64 `json:"deliveredEstimate"`
}

// Add 累加一个工作项的工作量
func (e *EffortTotals) Add(w *WorkItem) {
	if w.Estimate != nil {
		e.Estimated += *w.Estimate
		e.EstimatedItems++
		if w.Status.IsDone() {
			e.DeliveredEstimate += *w.Estimate
		}
	}
	if w.Completed != nil {
		e.Completed += *w.Completed
		e.CompletedItems++
	}
	if w.Remaining != nil {
		e.Remaining += *w.Remaining
	}
}

// StaffAggregate 按负责人汇总
type StaffAggregate struct {
	Name   string       `json:"name"`
	Team   string       `json:"team"` // 出现最多的团队，并列取先出现者
	Items  int          `json:"items"`
	Bugs   int          `json:"bugs"`
	Status StatusCounts `json:"status"`
	Effort EffortTotals `json:"effort"`
}

// TeamAggregate 按团队汇总
type TeamAggregate struct {
	Name    string       `json:"name"`
	Items   int          `json:"items"`
	Bugs    int          `json:"bugs"`
	Status  StatusCounts `json:"status"`
	Effort  EffortTotals `json:"effort"`
	Members []string     `json:"members"` // 该团队工作项上出现的负责人（已排序）
}
