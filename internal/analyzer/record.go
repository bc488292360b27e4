package analyzer

import (
	"errors"

	"github.com/rs/zerolog"

	"sprintanalyzer/internal/model"
	"sprintanalyzer/internal/pipeline"
	"sprintanalyzer/internal/store"
)

// 运行记录写入失败只记日志，不影响分析结果

func (s *Service) recording() bool {
	return s.store != nil && s.cfg.Data.RecordRuns
}

func (s *Service) recordStart(log zerolog.Logger, runID, workbook string) {
	if !s.recording() {
		return
	}
	if err := s.store.CreateRun(runID, workbook); err != nil {
		log.Warn().Err(err).Msg("record run start failed")
	}
}

func (s *Service) recordFailure(log zerolog.Logger, runID, sprint string, runErr error) {
	if !s.recording() {
		return
	}
	stage := ""
	var stageErr *pipeline.StageError
	if errors.As(runErr, &stageErr) {
		stage = stageErr.Stage
	}
	if err := s.store.FailRun(runID, sprint, stage, runErr.Error()); err != nil {
		log.Warn().Err(err).Msg("record run failure failed")
	}
}

func (s *Service) recordSuccess(log zerolog.Logger, runID string, res *Result, meta model.SprintMetadata) {
	if !s.recording() {
		return
	}
	sum := res.Summary
	err := s.store.CompleteRun(runID, store.RunResult{
		SprintName:     sum.SprintName,
		Output:         res.Output,
		StaffCount:     sum.StaffCount,
		TeamCount:      sum.TeamCount,
		AverageKPI:     sum.AverageTeamKPI,
		CompletionRate: sum.CompletionRate,
		Warnings:       sum.Warnings,
	})
	if err != nil {
		log.Warn().Err(err).Msg("record run completion failed")
	}

	n, err := s.store.InsertHistory(historyRecords(runID, meta, res.Bundle))
	if err != nil {
		log.Warn().Err(err).Msg("record metric history failed")
	} else {
		log.Debug().Int("rows", n).Msg("metric history recorded")
	}

	if err := s.store.SetSetting(store.SettingLastWorkbook, res.Output); err != nil {
		log.Warn().Err(err).Msg("record last workbook failed")
	}
}

func historyRecords(runID string, meta model.SprintMetadata, b model.ReportBundle) []store.HistoryRecord {
	out := make([]store.HistoryRecord, 0, len(b.Staff)+len(b.Team))
	for _, m := range b.Staff {
		out = append(out, store.HistoryRecord{
			RunID: runID, SprintName: b.SprintName, Sequence: meta.Sequence,
			Kind: store.KindStaff, Name: m.Name, Team: m.Team,
			Items: m.Items, Done: m.Done, CompletedEffort: m.CompletedEffort,
			Capacity: m.Capacity, CompletionRatio: m.CompletionRatio, Utilization: m.Utilization, KPI: m.KPI,
		})
	}
	for _, m := range b.Team {
		out = append(out, store.HistoryRecord{
			RunID: runID, SprintName: b.SprintName, Sequence: meta.Sequence,
			Kind: store.KindTeam, Name: m.Name,
			Items: m.Items, Done: m.Done, CompletedEffort: m.CompletedEffort,
			Capacity: m.Capacity, CompletionRatio: m.CompletionRatio, Utilization: m.Utilization, KPI: m.KPI,
		})
	}
	return out
}
