// Package analyzer 串联工作簿读取、指标计算与报表写回，对外提供带进度的单次分析。
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"sprintanalyzer/internal/config"
	"sprintanalyzer/internal/exporter"
	"sprintanalyzer/internal/model"
	"sprintanalyzer/internal/parser"
	"sprintanalyzer/internal/pipeline"
	"sprintanalyzer/internal/store"
	"sprintanalyzer/internal/validator"
)

// Service 分析服务
type Service struct {
	cfg   *config.AppConfig
	store *store.Store // 可为 nil：不记录运行
	log   zerolog.Logger
}

// NewService 创建分析服务
func NewService(cfg *config.AppConfig, st *store.Store, log zerolog.Logger) *Service {
	return &Service{cfg: cfg, store: st, log: log}
}

// Options 分析选项
type Options struct {
	FilePath   string
	OutputPath string // 为空时覆盖原文件
}

// Result 一次成功运行的结果
type Result struct {
	RunID            string
	Output           string
	Bundle           model.ReportBundle
	Summary          model.Summary
	Validation       validator.Result
	CapacityWarnings []string
	Duration         time.Duration
}

// Analyze 在后台执行分析，返回进度通道（结束后关闭）
func (s *Service) Analyze(ctx context.Context, opts Options) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)

		res, err := s.Run(ctx, opts, func(e ProgressEvent) { sendProgress(progressChan, e) })
		if err != nil {
			progressChan <- ProgressEvent{
				Type:      EventError,
				Message:   err.Error(),
				Data:      FailureOf(err),
				Timestamp: time.Now(),
			}
			return
		}
		progressChan <- ProgressEvent{
			Type:      EventDone,
			Message:   "分析完成",
			Percent:   100,
			Data:      DoneData{RunID: res.RunID, Output: res.Output, Summary: res.Summary},
			Timestamp: time.Now(),
		}
	}()

	return progressChan
}

// sendProgress 通道已满时丢弃中间事件；结束事件由调用方阻塞发送
func sendProgress(ch chan ProgressEvent, event ProgressEvent) {
	select {
	case ch <- event:
	default:
	}
}

// Run 同步执行全部 11 个步骤；progress 可为 nil
func (s *Service) Run(ctx context.Context, opts Options, progress func(ProgressEvent)) (*Result, error) {
	startTime := time.Now()
	emit := func(e ProgressEvent) {
		if progress != nil {
			e.Timestamp = time.Now()
			progress(e)
		}
	}

	runID := uuid.NewString()
	log := s.log.With().Str("run_id", runID).Str("workbook", filepath.Base(opts.FilePath)).Logger()
	s.recordStart(log, runID, opts.FilePath)

	emit(ProgressEvent{
		Type:    EventStart,
		Message: "开始分析工作簿",
		Data:    map[string]string{"runId": runID, "filename": filepath.Base(opts.FilePath)},
	})
	log.Info().Msg("analysis started")

	settings := pipeline.Settings{
		Layout:  &s.cfg.Layout,
		Rules:   s.cfg.Validation,
		Weights: s.cfg.KPI,
	}
	st := pipeline.NewState(settings, nil)

	var (
		file   *excelize.File
		writer *exporter.ReportWriter
	)
	defer func() {
		if file != nil {
			_ = file.Close()
		}
	}()

	stages := make([]pipeline.Stage, 0, 11)
	stages = append(stages, pipeline.Stage{
		Name: pipeline.StageLoadWorkbook,
		Run: func(_ context.Context, st *pipeline.State) error {
			f, err := excelize.OpenFile(opts.FilePath)
			if err != nil {
				return fmt.Errorf("打开文件失败: %w", err)
			}
			file = f
			snap, err := parser.ReadSnapshot(f, st.Settings.Layout)
			if err != nil {
				return err
			}
			st.Snapshot = snap
			writer, err = exporter.NewReportWriter(f, st.Settings.Layout.Reports)
			return err
		},
	})
	stages = append(stages, pipeline.ComputeStages()...)
	stages = append(stages,
		pipeline.Stage{
			Name: pipeline.StageReport,
			Run: func(_ context.Context, st *pipeline.State) error {
				return exporter.Publish(writer, st.Bundle(), func(p exporter.ProgressEvent) {
					log.Debug().Int("percent", p.Percent).Str("sheet", p.Stage).Msg("report sheet updated")
				})
			},
		},
		pipeline.Stage{
			Name: pipeline.StageFormulas,
			Run: func(_ context.Context, _ *pipeline.State) error {
				return writer.ApplyFormulas()
			},
		},
		pipeline.Stage{
			Name: pipeline.StageSave,
			Run: func(_ context.Context, _ *pipeline.State) error {
				return writer.SaveAs(opts.OutputPath)
			},
		},
	)

	runner := &pipeline.Runner{OnStep: func(step pipeline.Step) {
		log.Debug().Int("step", step.Index).Str("stage", step.Name).Msg("stage started")
		emit(ProgressEvent{
			Type:    EventStep,
			Message: step.String(),
			Step:    step.Index,
			Total:   step.Total,
			Percent: step.Index * 100 / step.Total,
			Data:    step,
		})
	}}

	if err := runner.Run(ctx, st, stages); err != nil {
		s.recordFailure(log, runID, st.Metadata.Name, err)
		log.Error().Err(err).Msg("analysis failed")
		return nil, &RunError{RunID: runID, Err: err}
	}

	bundle := st.Bundle()
	res := &Result{
		RunID:            runID,
		Output:           outputPath(opts),
		Bundle:           bundle,
		Summary:          bundle.Summarize(),
		Validation:       st.Validation,
		CapacityWarnings: st.Capacity.Warnings,
		Duration:         time.Since(startTime),
	}

	for _, w := range st.Gaps {
		emit(ProgressEvent{Type: EventWarning, Message: w.String(), Data: w})
	}
	for _, w := range st.Capacity.Warnings {
		emit(ProgressEvent{Type: EventWarning, Message: w})
	}
	for _, is := range st.Validation.Issues {
		if is.Severity == validator.SeverityWarning {
			emit(ProgressEvent{Type: EventWarning, Message: is.String(), Data: is})
		}
	}

	s.recordSuccess(log, runID, res, st.Metadata)
	log.Info().
		Str("sprint", bundle.SprintName).
		Int("staff", res.Summary.StaffCount).
		Int("teams", res.Summary.TeamCount).
		Dur("duration", res.Duration).
		Msg("analysis completed")

	return res, nil
}

func outputPath(opts Options) string {
	if opts.OutputPath != "" {
		return opts.OutputPath
	}
	return opts.FilePath
}

// RunError 失败的运行
type RunError struct {
	RunID string
	Err   error
}

func (e *RunError) Error() string {
	return e.Err.Error()
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// FailureOf 提取失败阶段与校验问题
func FailureOf(err error) Failure {
	f := Failure{Error: err.Error()}
	var runErr *RunError
	if errors.As(err, &runErr) {
		f.RunID = runErr.RunID
	}
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		f.Stage = stageErr.Stage
	}
	var vErr *validator.ValidationError
	if errors.As(err, &vErr) {
		f.Issues = vErr.Issues
	}
	return f
}
