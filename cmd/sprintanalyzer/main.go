package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sprintanalyzer/internal/config"
)

// exitErr 通过 cobra 的错误路径传递退出码
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(reportError(err))
	}
}

// reportError 打印错误并返回退出码；空消息的 exitErr 表示输出已由命令完成
func reportError(err error) int {
	var ee *exitErr
	if errors.As(err, &ee) {
		if ee.msg != "" {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
		}
		return ee.code
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return 1
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "sprintanalyzer",
		Short:         "Sprint workbook analyzer",
		Long:          "Sprint Analyzer reads a sprint workbook, computes staff/team KPIs and CMMI measures, and writes the analysis back into the workbook.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "配置文件路径（默认：可执行文件同目录的 config.toml）")

	loadConfig := func() (*config.AppConfig, config.LoadConfigInfo, error) {
		cfg, info, err := config.Load(configPath)
		if err != nil {
			return nil, info, codeError(2, "load config: %s", err)
		}
		return cfg, info, nil
	}

	root.AddCommand(newAnalyzeCmd(loadConfig))
	root.AddCommand(newWatchCmd(loadConfig))
	root.AddCommand(newServeCmd(loadConfig))
	root.AddCommand(newInitConfigCmd())

	return root
}

type configLoader func() (*config.AppConfig, config.LoadConfigInfo, error)
