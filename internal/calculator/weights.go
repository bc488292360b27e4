package calculator

// Weights KPI 综合得分权重（config.toml [kpi]）
//
// KPI = Scale × Σ(wᵢ·cᵢ) / Σwᵢ，只对可计算的分量求和。
type Weights struct {
	Completion     float64 `toml:"completion_weight"`
	Utilization    float64 `toml:"utilization_weight"`
	Quality        float64 `toml:"quality_weight"`
	UtilizationCap float64 `toml:"utilization_cap"` // 利用率分量上限，<=0 表示不封顶
	Scale          float64 `toml:"scale"`
}

// DefaultWeights 默认权重
func DefaultWeights() Weights {
	return Weights{
		Completion:     0.6,
		Utilization:    0.4,
		Quality:        0,
		UtilizationCap: 1.0,
		Scale:          100,
	}
}

// Score 计算综合得分；没有可用分量时返回 nil
func (w Weights) Score(completion, utilization, bugRatio *float64) *float64 {
	var sum, weight float64

	if completion != nil && w.Completion > 0 {
		sum += w.Completion * *completion
		weight += w.Completion
	}
	if utilization != nil && w.Utilization > 0 {
		u := *utilization
		if w.UtilizationCap > 0 && u > w.UtilizationCap {
			u = w.UtilizationCap
		}
		sum += w.Utilization * u
		weight += w.Utilization
	}
	if bugRatio != nil && w.Quality > 0 {
		sum += w.Quality * (1 - *bugRatio)
		weight += w.Quality
	}

	if weight == 0 {
		return nil
	}
	scale := w.Scale
	if scale == 0 {
		scale = 1
	}
	score := scale * sum / weight
	return &score
}
