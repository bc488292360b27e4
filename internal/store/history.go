package store

import (
	"database/sql"
	"fmt"
)

// 历史指标类型
const (
	KindStaff = "staff"
	KindTeam  = "team"
)

// HistoryRecord 一行历史指标
type HistoryRecord struct {
	RunID           string   `json:"runId"`
	SprintName      string   `json:"sprintName"`
	Sequence        int      `json:"sequence"`
	Kind            string   `json:"kind"`
	Name            string   `json:"name"`
	Team            string   `json:"team,omitempty"`
	Items           int      `json:"items"`
	Done            int      `json:"done"`
	CompletedEffort float64  `json:"completedEffort"`
	Capacity        *float64 `json:"capacity"`
	CompletionRatio *float64 `json:"completionRatio"`
	Utilization     *float64 `json:"utilization"`
	KPI             *float64 `json:"kpi"`
}

// InsertHistory 在一个事务内写入历史；已存在的 (迭代, 类型, 名称) 保持不变
//
// 返回实际新增的行数。
func (s *Store) InsertHistory(records []HistoryRecord) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx failed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO metric_history (
			run_id, sprint_name, sequence, kind, name, team,
			items, done, completed_effort, capacity, completion_ratio, utilization, kpi
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare history insert failed: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range records {
		res, err := stmt.Exec(r.RunID, r.SprintName, r.Sequence, r.Kind, r.Name, r.Team,
			r.Items, r.Done, r.CompletedEffort,
			nullFloat(r.Capacity), nullFloat(r.CompletionRatio), nullFloat(r.Utilization), nullFloat(r.KPI))
		if err != nil {
			return 0, fmt.Errorf("insert history %s/%s failed: %w", r.Kind, r.Name, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit history failed: %w", err)
	}
	return inserted, nil
}

// ListHistory 按迭代顺序返回某员工/团队的历史；name 为空时返回该类型全部
func (s *Store) ListHistory(kind, name string) ([]HistoryRecord, error) {
	query := `
		SELECT run_id, sprint_name, sequence, kind, name, team,
			items, done, completed_effort, capacity, completion_ratio, utilization, kpi
		FROM metric_history
		WHERE kind = ?`
	args := []interface{}{kind}
	if name != "" {
		query += ` AND name = ?`
		args = append(args, name)
	}
	query += ` ORDER BY sequence, sprint_name, name`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history failed: %w", err)
	}
	defer rows.Close()

	out := []HistoryRecord{}
	for rows.Next() {
		var (
			r                               HistoryRecord
			capacity, completion, util, kpi sql.NullFloat64
		)
		if err := rows.Scan(&r.RunID, &r.SprintName, &r.Sequence, &r.Kind, &r.Name, &r.Team,
			&r.Items, &r.Done, &r.CompletedEffort, &capacity, &completion, &util, &kpi); err != nil {
			return nil, fmt.Errorf("scan history failed: %w", err)
		}
		r.Capacity = floatPtr(capacity)
		r.CompletionRatio = floatPtr(completion)
		r.Utilization = floatPtr(util)
		r.KPI = floatPtr(kpi)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history failed: %w", err)
	}
	return out, nil
}
