package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"sprintanalyzer/internal/analyzer"
	"sprintanalyzer/internal/config"
	"sprintanalyzer/internal/logger"
	"sprintanalyzer/internal/store"
	"sprintanalyzer/internal/util"
)

type analyzeFlags struct {
	out  string
	open bool
}

func newAnalyzeCmd(load configLoader) *cobra.Command {
	var flags analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze <workbook.xlsx>",
		Short: "Analyze a sprint workbook and write the report sheets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := load()
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st := openRunStore(cfg, log)
			if st != nil {
				defer st.Close()
			}

			res, err := runAnalyze(ctx, cmd.OutOrStdout(), analyzer.NewService(cfg, st, log), cfg, args[0], flags.out)
			if err != nil {
				return err
			}
			if flags.open {
				if err := util.OpenPath(res.Output); err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "无法自动打开文件，请手动打开: %s\n", res.Output)
				}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.out, "out", "", "写入到新文件（默认覆盖原工作簿）")
	f.BoolVar(&flags.open, "open", false, "完成后用默认程序打开结果文件")

	return cmd
}

// openRunStore 打开运行记录库；失败时仅告警，分析照常进行
func openRunStore(cfg *config.AppConfig, log zerolog.Logger) *store.Store {
	if !cfg.Data.RecordRuns {
		return nil
	}
	if _, err := config.EnsureDataDir(cfg); err != nil {
		log.Warn().Err(err).Msg("data dir unavailable, run will not be recorded")
		return nil
	}
	st, err := store.New(config.DatabasePath(cfg))
	if err != nil {
		log.Warn().Err(err).Msg("open run log failed, run will not be recorded")
		return nil
	}
	return st
}

// runAnalyze 执行一次分析并把进度与结果打印到 out
func runAnalyze(ctx context.Context, out io.Writer, svc *analyzer.Service, cfg *config.AppConfig, path, dest string) (*analyzer.Result, error) {
	fmt.Fprintln(out, "==========================================")
	fmt.Fprintln(out, "  Sprint Analyzer")
	fmt.Fprintln(out, "==========================================")

	info, err := analyzer.Inspect(path, &cfg.Layout)
	if err != nil {
		return nil, codeError(1, "cannot read %s: %s", path, err)
	}
	fmt.Fprintf(out, "File:   %s\n", info.Name)
	fmt.Fprintf(out, "Size:   %s\n", util.FormatBytes(info.Size))
	if info.SprintName != "" {
		fmt.Fprintf(out, "Sprint: %s\n", info.SprintName)
	}
	fmt.Fprintln(out)

	var warnings []string
	res, err := svc.Run(ctx, analyzer.Options{FilePath: path, OutputPath: dest}, func(e analyzer.ProgressEvent) {
		switch e.Type {
		case analyzer.EventStep:
			fmt.Fprintln(out, e.Message)
		case analyzer.EventWarning:
			warnings = append(warnings, e.Message)
		}
	})
	if err != nil {
		printFailure(out, err)
		return nil, codeError(1, "")
	}

	if len(warnings) > 0 {
		fmt.Fprintf(out, "\nWarnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Fprintf(out, "  ! %s\n", w)
		}
	}
	printSummary(out, res)
	return res, nil
}

func printSummary(out io.Writer, res *analyzer.Result) {
	s := res.Summary
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Analysis complete")
	fmt.Fprintf(out, "  %-18s %s\n", "Sprint", s.SprintName)
	fmt.Fprintf(out, "  %-18s %d\n", "Staff Analyzed", s.StaffCount)
	fmt.Fprintf(out, "  %-18s %d\n", "Teams Processed", s.TeamCount)
	fmt.Fprintf(out, "  %-18s %s\n", "Avg Team KPI", util.FormatScore(s.AverageTeamKPI))
	fmt.Fprintf(out, "  %-18s %d%%\n", "CMMI Completion", s.CompletionPercent)
	if len(res.Bundle.Team) > 0 {
		fmt.Fprintln(out, "  Teams:")
		for _, t := range res.Bundle.Team {
			fmt.Fprintf(out, "    %-16s KPI %-7s completion %-7s utilization %s\n",
				t.Name, util.FormatScore(t.KPI), util.FormatPercent(t.CompletionRatio), util.FormatPercent(t.Utilization))
		}
	}
	fmt.Fprintf(out, "  %-18s %s\n", "Output", res.Output)
	fmt.Fprintf(out, "  %-18s %s\n", "Duration", res.Duration.Round(time.Millisecond))
}

func printFailure(out io.Writer, err error) {
	f := analyzer.FailureOf(err)
	fmt.Fprintln(out)
	if f.Stage != "" {
		fmt.Fprintf(out, "Analysis failed at stage %q\n", f.Stage)
	} else {
		fmt.Fprintln(out, "Analysis failed")
	}
	fmt.Fprintf(out, "  %s\n", f.Error)
	for _, is := range f.Issues {
		fmt.Fprintf(out, "  - %s\n", is.String())
	}
}
