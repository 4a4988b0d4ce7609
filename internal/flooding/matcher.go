package flooding

import (
	"schema-matcher/internal/analyzer"
	"schema-matcher/internal/config"
	"schema-matcher/internal/errs"
	"schema-matcher/internal/graph"
	"schema-matcher/internal/logger"
	"schema-matcher/internal/schema"
)

// Result 一次匹配的统计信息，相似度写在调用方传入的矩阵中
type Result struct {
	Stats              Stats               `json:"stats"`
	SourceNodes        int                 `json:"source_nodes"`
	SourceEdges        int                 `json:"source_edges"`
	TargetNodes        int                 `json:"target_nodes"`
	TargetEdges        int                 `json:"target_edges"`
	Pairs              int                 `json:"pairs"`
	PropagationEdges   int                 `json:"propagation_edges"`
	SourceDependencies schema.Dependencies `json:"source_dependencies"`
	TargetDependencies schema.Dependencies `json:"target_dependencies"`
}

type options struct {
	log      *logger.Logger
	observer Observer
}

// Option 匹配选项
type Option func(*options)

// WithLogger 设置日志器
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithObserver 设置迭代回调
func WithObserver(fn Observer) Option {
	return func(o *options) {
		o.observer = fn
	}
}

// Match 匹配两个模式，结果写入 m（尺寸须与两模式列数一致，原有内容会被清零）
//
// 输出按行归一化：每行除以该行最大值，全零行保持为 0。
func Match(source, target *schema.Schema, m *Matrix, p config.Parameters, opts ...Option) (*Result, error) {
	o := options{log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log

	if err := p.Validate(); err != nil {
		return nil, err
	}
	policy, err := graph.ParsePolicy(p.Policy)
	if err != nil {
		return nil, err
	}
	formula, err := ParseFormula(p.Formula)
	if err != nil {
		return nil, err
	}
	thresholds, err := p.Thresholds()
	if err != nil {
		return nil, err
	}
	weight, err := p.Weight()
	if err != nil {
		return nil, err
	}
	if rows, cols := m.Dims(); rows != source.TotalColumns() || cols != target.TotalColumns() {
		return nil, errs.Newf(errs.ErrKindInvalidInput,
			"matrix is %dx%d, schemas need %dx%d", rows, cols, source.TotalColumns(), target.TotalColumns())
	}

	filter := analyzer.NewDependencyFilter(log)
	result := &Result{
		SourceDependencies: filter.Filter(source, source.Dependencies, thresholds),
		TargetDependencies: filter.Filter(target, target.Dependencies, thresholds),
	}
	withDependencies := thresholds.Enabled()

	arena := graph.NewArena()
	a := BuildSchemaGraph(arena, source, result.SourceDependencies, withDependencies)
	b := BuildSchemaGraph(arena, target, result.TargetDependencies, withDependencies)
	result.SourceNodes, result.SourceEdges = len(a.Nodes()), len(a.Edges())
	result.TargetNodes, result.TargetEdges = len(b.Nodes()), len(b.Edges())

	pg, err := graph.Induce(graph.Connect(a, b), a, b, policy)
	if err != nil {
		return nil, err
	}
	result.Pairs, result.PropagationEdges = len(pg.Vertices()), len(pg.Edges())

	log.DebugWith("propagation graph built", map[string]interface{}{
		"source":            source.Name,
		"target":            target.Name,
		"source_edges":      result.SourceEdges,
		"target_edges":      result.TargetEdges,
		"pairs":             result.Pairs,
		"propagation_edges": result.PropagationEdges,
		"dependencies":      withDependencies,
	})

	observer := o.observer
	if log.DebugEnabled() {
		observer = func(it int, residual float64) {
			log.DebugWith("fixpoint iteration", map[string]interface{}{"iteration": it, "residual": residual})
			if o.observer != nil {
				o.observer(it, residual)
			}
		}
	}

	sigma0 := Seed(pg, arena, weight)
	final, stats := Iterate(pg, sigma0, formula, p.MaxIterations, p.Epsilon, observer)
	result.Stats = stats

	m.Zero()
	Project(final, arena, a.Scope(), source, target, m)
	m.NormalizeRows()

	log.DebugWith("schemas matched", map[string]interface{}{
		"source":     source.Name,
		"target":     target.Name,
		"policy":     policy.Name(),
		"formula":    formula.Name(),
		"iterations": stats.Iterations,
		"residual":   stats.Residual,
		"converged":  stats.Converged,
	})
	return result, nil
}
