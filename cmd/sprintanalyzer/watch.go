package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sprintanalyzer/internal/analyzer"
	"sprintanalyzer/internal/logger"
	"sprintanalyzer/internal/util"
)

func newWatchCmd(load configLoader) *cobra.Command {
	var (
		out      string
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch <workbook.xlsx>",
		Short: "Re-run the analysis every time the workbook is saved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := load()
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log)
			w := cmd.OutOrStdout()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st := openRunStore(cfg, log)
			if st != nil {
				defer st.Close()
			}
			svc := analyzer.NewService(cfg, st, log)

			fmt.Fprintf(w, "Watching %s (Ctrl+C to stop)\n", args[0])
			err = svc.Watch(ctx, analyzer.Options{FilePath: args[0], OutputPath: out}, debounce, func(res *analyzer.Result, err error) {
				stamp := time.Now().Format("15:04:05")
				if err != nil {
					fmt.Fprintf(w, "[%s] ", stamp)
					printFailure(w, err)
					return
				}
				fmt.Fprintf(w, "[%s] %s: %d staff, %d teams, avg KPI %s, CMMI %d%% -> %s\n",
					stamp, res.Summary.SprintName, res.Summary.StaffCount, res.Summary.TeamCount,
					util.FormatScore(res.Summary.AverageTeamKPI), res.Summary.CompletionPercent, res.Output)
			})
			if errors.Is(err, analyzer.ErrWatchInPlace) {
				return codeError(2, "%s (set --out)", err)
			}
			if err != nil {
				return codeError(1, "watch: %s", err)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&out, "out", "", "结果文件路径（必填，不能与源文件相同）")
	f.DurationVar(&debounce, "debounce", 500*time.Millisecond, "保存后等待文件稳定的时长")

	return cmd
}
