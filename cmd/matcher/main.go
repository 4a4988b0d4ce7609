package main

import (
	"context"
	"os"
	"os/signal"

	"schema-matcher/internal/config"
	"schema-matcher/internal/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	logFormat  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "schema-matcher",
		Short:         "基于相似度泛洪的模式匹配器",
		Long:          "把两个关系模式建成图，通过相似度泛洪计算每一对列的匹配置信度",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "运行配置文件 (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (debug/info/warn/error)，覆盖配置文件")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "日志格式 (console/json)，覆盖配置文件")

	rootCmd.AddCommand(newMatchCmd(), newGraphCmd(), newTuneCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

// loadConfig 读取 --config 指定的配置，未指定时使用默认值；命令行日志参数优先
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}

	log := logger.New(&cfg.Log)
	logger.SetGlobal(log)
	return cfg, log, nil
}
