package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"schema-matcher/internal/adapter"
	"schema-matcher/internal/config"
	"schema-matcher/internal/errs"
	"schema-matcher/internal/evaluate"
	"schema-matcher/internal/flooding"
	"schema-matcher/internal/logger"
	"schema-matcher/internal/renderer"
	"schema-matcher/internal/schema"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// schemaSource 一侧模式的来源：文件或在线数据库
type schemaSource struct {
	side     string
	file     string
	dbType   string
	dsn      string
	dbSchema string
	name     string
}

func (s *schemaSource) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&s.file, s.side, "", s.side+" 模式文件 (YAML/JSON)")
	flags.StringVar(&s.dbType, s.side+"-type", "", s.side+" 数据库类型 (mysql/sqlserver/postgres)")
	flags.StringVar(&s.dsn, s.side+"-conn", "", s.side+" 连接字符串")
	flags.StringVar(&s.dbSchema, s.side+"-schema", "", s.side+" 数据库 schema (MySQL 必需)")
	flags.StringVar(&s.name, s.side+"-name", "", s.side+" 模式名称，缺省为 schema 或 "+s.side)
}

// load 读取模式；在线数据库每张表采样 sample 行
func (s *schemaSource) load(ctx context.Context, sample int) (*schema.Schema, error) {
	switch {
	case s.file != "":
		return schema.LoadFile(s.file)
	case s.dsn != "":
		a, err := adapter.Open(ctx, s.dbType, s.dsn, s.dbSchema)
		if err != nil {
			return nil, err
		}
		defer a.Close()

		name := s.name
		if name == "" {
			name = s.dbSchema
		}
		if name == "" {
			name = s.side
		}
		return adapter.LoadSchema(ctx, a, name, sample)
	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "--%s or --%s-conn is required", s.side, s.side)
	}
}

// paramFlags 覆盖匹配参数的命令行选项，只应用显式给出的项
type paramFlags struct {
	values        map[string]*string
	maxIterations int
	epsilon       float64
}

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

func addParamFlags(cmd *cobra.Command) *paramFlags {
	pf := &paramFlags{values: make(map[string]*string)}
	possible := config.PossibleValues()
	for _, key := range config.Keys() {
		pf.values[key] = cmd.Flags().String(flagName(key), "", fmt.Sprintf("%s (%s)", key, summarize(possible[key])))
	}
	cmd.Flags().IntVar(&pf.maxIterations, "max-iterations", 0, "最大迭代次数")
	cmd.Flags().Float64Var(&pf.epsilon, "epsilon", 0, "收敛阈值")
	return pf
}

func (pf *paramFlags) apply(cmd *cobra.Command, p *config.Parameters) error {
	changed := make(map[string]string)
	for key, v := range pf.values {
		if cmd.Flags().Changed(flagName(key)) {
			changed[key] = *v
		}
	}
	if err := p.Set(changed); err != nil {
		return err
	}
	if cmd.Flags().Changed("max-iterations") {
		p.MaxIterations = pf.maxIterations
	}
	if cmd.Flags().Changed("epsilon") {
		p.Epsilon = pf.epsilon
	}
	return p.Validate()
}

func summarize(values []string) string {
	if len(values) > 6 {
		return strings.Join(values[:3], "/") + "/.../" + values[len(values)-1]
	}
	return strings.Join(values, "/")
}

func newMatchCmd() *cobra.Command {
	source := &schemaSource{side: "source"}
	target := &schemaSource{side: "target"}
	var (
		outputDir string
		truthPath string
		sample    int
		topN      int
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "匹配两个模式，输出相似度矩阵和报告",
	}
	source.register(cmd)
	target.register(cmd)
	params := addParamFlags(cmd)
	cmd.Flags().StringVar(&outputDir, "output", "./output", "输出目录")
	cmd.Flags().StringVar(&truthPath, "truth", "", "标准答案文件，给出时输出 precision/recall/F1")
	cmd.Flags().IntVar(&sample, "sample", 1000, "在线数据库每张表的采样行数")
	cmd.Flags().IntVar(&topN, "top", renderer.DefaultTopN, "每个源列显示的候选数")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "读取在线数据库的超时时间")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		p := cfg.Matcher
		if err := params.apply(cmd, &p); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		return runMatch(ctx, log, matchJob{
			source:    source,
			target:    target,
			params:    p,
			sample:    sample,
			truthPath: truthPath,
			outputDir: outputDir,
			topN:      topN,
		})
	}
	return cmd
}

type matchJob struct {
	source    *schemaSource
	target    *schemaSource
	params    config.Parameters
	sample    int
	truthPath string
	outputDir string
	topN      int
}

func runMatch(ctx context.Context, log *logger.Logger, job matchJob) error {
	bold := color.New(color.Bold)
	ok := color.New(color.FgGreen)

	ctx = log.WithContext(ctx)
	fmt.Println("📥 读取模式...")
	src, err := job.source.load(ctx, job.sample)
	if err != nil {
		return err
	}
	tgt, err := job.target.load(ctx, job.sample)
	if err != nil {
		return err
	}
	ok.Printf("✓ %s: %d 张表 %d 列；%s: %d 张表 %d 列\n",
		src.Name, len(src.Tables), src.TotalColumns(), tgt.Name, len(tgt.Tables), tgt.TotalColumns())

	fmt.Println("\n🌊 相似度泛洪...")
	m := flooding.NewMatrix(src, tgt)
	res, err := flooding.Match(src, tgt, m, job.params, flooding.WithLogger(log))
	if err != nil {
		return err
	}
	ok.Printf("✓ %d 次迭代，残差 %.6f，收敛: %v\n", res.Stats.Iterations, res.Stats.Residual, res.Stats.Converged)

	var metrics *evaluate.Metrics
	if job.truthPath != "" {
		truth, err := evaluate.LoadGroundTruth(job.truthPath)
		if err != nil {
			return err
		}
		score := evaluate.Score(m, src, tgt, truth)
		metrics = &score
	}

	fmt.Println("\n📝 生成输出文件...")
	if err := os.MkdirAll(job.outputDir, 0o755); err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, "create output directory", err)
	}

	doc, err := renderer.NewMatrixDocument(src, tgt, m, res).JSON()
	if err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, "encode matrix", err)
	}
	if err := writeOutput(job.outputDir, "matrix.json", doc); err != nil {
		return err
	}

	report := renderer.NewMarkdownRenderer().Render(renderer.MatchReport{
		Source:  src,
		Target:  tgt,
		Matrix:  m,
		Result:  res,
		Params:  job.params,
		Metrics: metrics,
		TopN:    job.topN,
	})
	if err := writeOutput(job.outputDir, "report.md", []byte(report)); err != nil {
		return err
	}

	fmt.Println()
	bold.Println("🔗 最佳匹配")
	printMatches(renderer.TopMatches(m, src, tgt, 1))

	if metrics != nil {
		fmt.Printf("\n📊 precision %.3f  recall %.3f  F1 %s\n",
			metrics.Precision, metrics.Recall, bold.Sprintf("%.3f", metrics.F1))
	}
	fmt.Printf("\n🔑 矩阵指纹: %s\n", color.CyanString("%016x", m.Fingerprint()))
	ok.Println("\n✅ 匹配完成！")
	return nil
}

func writeOutput(dir, name string, data []byte) error {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("write %s", path), err)
	}
	color.Green("✓ %s", path)
	return nil
}

func printMatches(matches []renderer.ColumnMatches) {
	for _, cm := range matches {
		if len(cm.Candidates) == 0 {
			fmt.Printf("  %s → %s\n", cm.Column, color.HiBlackString("(无)"))
			continue
		}
		best := cm.Candidates[0]
		fmt.Printf("  %s → %s %s\n", cm.Column, best.Column, scoreColor(best.Score).Sprintf("%.2f", best.Score))
	}
}

func scoreColor(v float64) *color.Color {
	switch {
	case v >= 0.8:
		return color.New(color.FgGreen)
	case v >= 0.5:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}
