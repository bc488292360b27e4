package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// 运行状态
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("not found")

// Run 一次分析的运行记录
type Run struct {
	ID             string     `json:"id"`
	Workbook       string     `json:"workbook"`
	Output         string     `json:"output"`
	SprintName     string     `json:"sprintName"`
	Status         string     `json:"status"`
	FailedStage    string     `json:"failedStage,omitempty"`
	ErrorMessage   string     `json:"errorMessage,omitempty"`
	StaffCount     int        `json:"staffCount"`
	TeamCount      int        `json:"teamCount"`
	AverageKPI     *float64   `json:"averageKpi"`
	CompletionRate float64    `json:"completionRate"`
	Warnings       int        `json:"warnings"`
	StartedAt      time.Time  `json:"startedAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// RunResult 成功运行的摘要
type RunResult struct {
	SprintName     string
	Output         string
	StaffCount     int
	TeamCount      int
	AverageKPI     *float64
	CompletionRate float64
	Warnings       int
}

// CreateRun 登记一次运行（状态 running）
func (s *Store) CreateRun(id, workbook string) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (id, workbook, status)
		VALUES (?, ?, ?)
	`, id, workbook, RunRunning)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// CompleteRun 标记运行成功
func (s *Store) CompleteRun(id string, r RunResult) error {
	_, err := s.db.Exec(`
		UPDATE runs SET
			sprint_name = ?,
			output = ?,
			status = ?,
			staff_count = ?,
			team_count = ?,
			average_kpi = ?,
			completion_rate = ?,
			warnings = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, r.SprintName, r.Output, RunCompleted, r.StaffCount, r.TeamCount, nullFloat(r.AverageKPI), r.CompletionRate, r.Warnings, id)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// FailRun 标记运行失败，记录失败阶段
func (s *Store) FailRun(id, sprintName, stage, message string) error {
	_, err := s.db.Exec(`
		UPDATE runs SET
			sprint_name = ?,
			status = ?,
			failed_stage = ?,
			error_message = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, sprintName, RunFailed, stage, message, id)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

const runColumns = `id, workbook, output, sprint_name, status, failed_stage, error_message,
	staff_count, team_count, average_kpi, completion_rate, warnings, started_at, completed_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc rowScanner) (*Run, error) {
	var (
		r         Run
		avgKPI    sql.NullFloat64
		completed sql.NullTime
	)
	if err := sc.Scan(&r.ID, &r.Workbook, &r.Output, &r.SprintName, &r.Status, &r.FailedStage, &r.ErrorMessage,
		&r.StaffCount, &r.TeamCount, &avgKPI, &r.CompletionRate, &r.Warnings, &r.StartedAt, &completed); err != nil {
		return nil, err
	}
	r.AverageKPI = floatPtr(avgKPI)
	if completed.Valid {
		t := completed.Time
		r.CompletedAt = &t
	}
	return &r, nil
}

// GetRun 按 ID 查询
func (s *Store) GetRun(id string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return r, nil
}

// ListRuns 最近的运行（按开始时间倒序），limit<=0 表示全部
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs failed: %w", err)
	}
	defer rows.Close()

	out := []*Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run failed: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs failed: %w", err)
	}
	return out, nil
}

func nullFloat(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// CountRuns 按状态统计运行次数
func (s *Store) CountRuns() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count runs failed: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan run count failed: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// LastCompletedRun 最近一次成功的运行；没有时返回 ErrNotFound
func (s *Store) LastCompletedRun() (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE status = ? ORDER BY started_at DESC, rowid DESC LIMIT 1`, RunCompleted)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("completed run: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return r, nil
}
