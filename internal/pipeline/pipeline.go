// Package pipeline 按顺序执行命名阶段，遇到第一个致命错误即停止并报告失败阶段。
package pipeline

import (
	"context"
	"fmt"
)

// Stage 一个命名阶段
type Stage struct {
	Name string
	Run  func(ctx context.Context, st *State) error
}

// Step 进度信息（Index 从 1 开始）
type Step struct {
	Index int
	Total int
	Name  string
}

func (s Step) String() string {
	return fmt.Sprintf("[%d/%d] %s", s.Index, s.Total, s.Name)
}

// StageError 阶段失败，保留原始错误供 errors.As 判断
type StageError struct {
	Stage string
	Index int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %q failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Runner 顺序执行器
//
// 取消只在阶段之间生效，阶段内部不可中断。
type Runner struct {
	OnStep func(Step)
}

// Run 依次执行各阶段
func (r *Runner) Run(ctx context.Context, st *State, stages []Stage) error {
	total := len(stages)
	for i, stage := range stages {
		if err := ctx.Err(); err != nil {
			return &StageError{Stage: stage.Name, Index: i + 1, Err: err}
		}
		if r != nil && r.OnStep != nil {
			r.OnStep(Step{Index: i + 1, Total: total, Name: stage.Name})
		}
		if err := stage.Run(ctx, st); err != nil {
			return &StageError{Stage: stage.Name, Index: i + 1, Err: err}
		}
	}
	return nil
}
