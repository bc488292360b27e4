package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sprintanalyzer/internal/logger"
	"sprintanalyzer/internal/server"
	"sprintanalyzer/internal/util"
)

type serveFlags struct {
	port      int
	dev       bool
	dataDir   string
	noBrowser bool
}

func newServeCmd(load configLoader) *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, info, err := load()
			if err != nil {
				return err
			}

			// 命令行参数覆盖配置；config.toml 显式配置的端口优先
			if flags.port > 0 && !info.PortSpecified {
				cfg.Server.Port = flags.port
			}
			if flags.dev {
				cfg.Server.DevMode = true
			}
			if flags.dataDir != "" {
				cfg.Data.DataDir = flags.dataDir
			}

			log := logger.New(cfg.Log)
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "==========================================")
			fmt.Fprintln(out, "  Sprint Analyzer - HTTP API")
			fmt.Fprintln(out, "==========================================")

			port, err := util.FindAvailablePort(cfg.Server.Port, 10)
			if err != nil {
				return codeError(1, "%s", err)
			}
			if port != cfg.Server.Port {
				log.Warn().Int("configured", cfg.Server.Port).Int("port", port).Msg("port busy, using next free port")
				cfg.Server.Port = port
			}

			srv, err := server.NewServer(cfg, log)
			if err != nil {
				return codeError(1, "%s", err)
			}

			addr := fmt.Sprintf(":%d", cfg.Server.Port)
			url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)

			errCh := make(chan error, 1)
			go func() {
				fmt.Fprintf(out, "服务启动中，监听端口 %d ...\n", cfg.Server.Port)
				errCh <- srv.Run(addr)
			}()

			if !flags.noBrowser && !cfg.Server.DevMode {
				if err := util.OpenBrowserWithFallback(url); err != nil {
					fmt.Fprintf(out, "无法自动打开浏览器，请手动访问: %s\n", url)
				}
			} else {
				fmt.Fprintf(out, "请访问 %s\n", url)
			}

			fmt.Fprintln(out, "\n按 Ctrl+C 停止服务...")

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case err := <-errCh:
				if err != nil {
					return codeError(1, "服务启动失败: %s", err)
				}
				return nil
			case <-quit:
			}

			fmt.Fprintln(out, "\n正在关闭服务...")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.Error().Err(err).Msg("shutdown failed")
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&flags.port, "port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	f.BoolVar(&flags.dev, "dev", false, "开发模式")
	f.StringVar(&flags.dataDir, "data-dir", "", "数据目录 (覆盖配置文件)")
	f.BoolVar(&flags.noBrowser, "no-browser", false, "不自动打开浏览器")

	return cmd
}
