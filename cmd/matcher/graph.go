package main

import (
	"fmt"
	"os"

	"schema-matcher/internal/analyzer"
	"schema-matcher/internal/errs"
	"schema-matcher/internal/flooding"
	"schema-matcher/internal/graph"
	"schema-matcher/internal/renderer"

	"github.com/spf13/cobra"
)

func newGraphCmd() *cobra.Command {
	src := &schemaSource{side: "schema"}
	var (
		output string
		sample int
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "输出一个模式的模式图 (Mermaid flowchart)",
	}
	src.register(cmd)
	params := addParamFlags(cmd)
	cmd.Flags().StringVar(&output, "output", "", "输出文件，缺省写到标准输出")
	cmd.Flags().IntVar(&sample, "sample", 1000, "在线数据库每张表的采样行数")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		p := cfg.Matcher
		if err := params.apply(cmd, &p); err != nil {
			return err
		}
		thresholds, err := p.Thresholds()
		if err != nil {
			return err
		}

		s, err := src.load(cmd.Context(), sample)
		if err != nil {
			return err
		}

		deps := s.Dependencies
		if thresholds.Enabled() {
			deps = analyzer.NewDependencyFilter(log).Filter(s, s.Dependencies, thresholds)
		}
		g := flooding.BuildSchemaGraph(graph.NewArena(), s, deps, thresholds.Enabled())
		out := renderer.NewMermaidRenderer().Render(g)

		if output == "" {
			fmt.Print(out)
			return nil
		}
		if err := os.WriteFile(output, []byte(out), 0o644); err != nil {
			return errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("write %s", output), err)
		}
		log.InfoWith("schema graph written", map[string]interface{}{
			"path":  output,
			"nodes": len(g.Nodes()),
			"edges": len(g.Edges()),
		})
		return nil
	}
	return cmd
}
