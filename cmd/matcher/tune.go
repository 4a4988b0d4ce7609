package main

import (
	"fmt"

	"schema-matcher/internal/config"
	"schema-matcher/internal/errs"
	"schema-matcher/internal/tuning"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newTuneCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "tune",
		Short: "连接调参服务，按收到的参数在配置的场景上回报平均 F1",
	}
	cmd.Flags().StringVar(&addr, "addr", "", "调参服务地址，覆盖配置文件中的 tuning.address")
	params := addParamFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		if len(cfg.Scenarios) == 0 {
			return errs.New(errs.ErrKindInvalidInput, "no scenarios configured, pass --config")
		}
		if addr != "" {
			cfg.Tuning.Address = addr
		}
		p := cfg.Matcher
		if err := params.apply(cmd, &p); err != nil {
			return err
		}

		scenarios, err := tuning.LoadScenarios(cfg.Scenarios)
		if err != nil {
			return err
		}
		fmt.Printf("🎛  %d 个场景，连接调参服务 %s\n", len(scenarios), color.CyanString(cfg.Tuning.Address))

		session := tuning.NewSession(tuning.NewScorer(scenarios, log), p, log)
		if err := tuning.Run(cmd.Context(), cfg.Tuning.Address, session); err != nil {
			return err
		}

		final := session.Params().Get()
		color.Green("✅ 调参会话结束")
		for _, key := range config.Keys() {
			fmt.Printf("  %s = %s\n", key, final[key])
		}
		return nil
	}
	return cmd
}
