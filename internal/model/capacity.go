package model

// CapacityRecord 单个成员在本迭代的可用容量
type CapacityRecord struct {
	Staff    string  `json:"staff"`
	Team     string  `json:"team,omitempty"`
	Capacity float64 `json:"capacity"`
	DaysOff  float64 `json:"daysOff"`
	RowNo    int     `json:"rowNo"` // 首次出现的行号
}

// CapacityGapWarning 工作项中出现、但容量表中缺失的成员（非致命，按零容量处理）
type CapacityGapWarning struct {
	Staff string `json:"staff"`
	Team  string `json:"team,omitempty"`
}

func (w CapacityGapWarning) String() string {
	if w.Team == "" {
		return "no capacity record for " + w.Staff
	}
	return "no capacity record for " + w.Staff + " (" + w.Team + ")"
}
