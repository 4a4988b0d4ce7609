// Package analyzer 相似度度量和依赖过滤
//
// 上游发现的函数依赖、唯一列组合和包含依赖先经过这里打分，
// 只有得分不低于阈值的候选才会编码进模式图。
package analyzer

import (
	"strings"

	"schema-matcher/internal/config"
	"schema-matcher/internal/logger"
	"schema-matcher/internal/schema"
)

// MaxDependencyColumns 候选依赖每一侧最多允许的列数
const MaxDependencyColumns = 3

// DependencyFilter 依赖过滤器
type DependencyFilter struct {
	log *logger.Logger
}

// NewDependencyFilter 创建过滤器，log 为 nil 时不输出日志
func NewDependencyFilter(log *logger.Logger) *DependencyFilter {
	if log == nil {
		log = logger.Nop()
	}
	return &DependencyFilter{log: log}
}

// FilterDependencies 使用不输出日志的过滤器
func FilterDependencies(s *schema.Schema, deps schema.Dependencies, th config.Thresholds) schema.Dependencies {
	return NewDependencyFilter(nil).Filter(s, deps, th)
}

// Filter 按阈值筛选依赖；阈值为 nil 的类别整体丢弃
func (f *DependencyFilter) Filter(s *schema.Schema, deps schema.Dependencies, th config.Thresholds) schema.Dependencies {
	var out schema.Dependencies
	if th.FD != nil {
		out.Functional = f.functional(s, deps, *th.FD)
	}
	if th.UCC != nil {
		out.Unique = f.unique(s, deps.Unique, *th.UCC)
	}
	if th.IND != nil {
		out.Inclusion = f.inclusion(s, deps.Inclusion, *th.IND)
	}
	return out
}

type scoredFD struct {
	fd    schema.FunctionalDependency
	gpdep float64
}

func (f *DependencyFilter) functional(s *schema.Schema, deps schema.Dependencies, threshold float64) []schema.FunctionalDependency {
	// 已知键：同表的所有唯一列组合候选
	keys := make(map[string][][]string)
	for _, u := range deps.Unique {
		if validSize(len(u.Columns)) {
			keys[u.Table] = append(keys[u.Table], u.Columns)
		}
	}

	var scored []scoredFD
	sums := make(map[string]float64)
	for _, fd := range deps.Functional {
		if !validSize(len(fd.Determinant)) {
			f.reject("functional", fd.Table, fd.Determinant, "determinant size")
			continue
		}
		t, ok := s.Table(fd.Table)
		if !ok {
			f.reject("functional", fd.Table, fd.Determinant, "unknown table")
			continue
		}
		determinant, ok := resolve(t, fd.Determinant)
		dependant := t.ColumnIndex(fd.Dependant)
		if !ok || dependant < 0 {
			f.reject("functional", fd.Table, fd.Determinant, "unknown column")
			continue
		}
		if containsKey(fd.Determinant, keys[fd.Table]) {
			f.reject("functional", fd.Table, fd.Determinant, "trivial")
			continue
		}

		g := GPDep(t, determinant, dependant)
		scored = append(scored, scoredFD{fd: fd, gpdep: g})
		sums[groupKey(fd)] += g
	}

	var kept []schema.FunctionalDependency
	for _, sf := range scored {
		score := 0.0
		if sum := sums[groupKey(sf.fd)]; sum > 0 {
			score = sf.gpdep / sum
		}
		if score < 0 {
			score = 0
		}
		keep := score >= threshold
		f.decide("functional", sf.fd.Table, append(append([]string(nil), sf.fd.Determinant...), "->"+sf.fd.Dependant), score, keep)
		if keep {
			kept = append(kept, sf.fd)
		}
	}
	return kept
}

func (f *DependencyFilter) unique(s *schema.Schema, uccs []schema.UniqueColumnCombination, threshold float64) []schema.UniqueColumnCombination {
	var kept []schema.UniqueColumnCombination
	for _, u := range uccs {
		if !validSize(len(u.Columns)) {
			f.reject("unique", u.Table, u.Columns, "combination size")
			continue
		}
		t, ok := s.Table(u.Table)
		if !ok {
			f.reject("unique", u.Table, u.Columns, "unknown table")
			continue
		}
		cols, ok := resolve(t, u.Columns)
		if !ok {
			f.reject("unique", u.Table, u.Columns, "unknown column")
			continue
		}

		score, _ := PrimaryKeyScore(t, cols)
		keep := score >= threshold
		f.decide("unique", u.Table, u.Columns, score, keep)
		if keep {
			kept = append(kept, u)
		}
	}
	return kept
}

func (f *DependencyFilter) inclusion(s *schema.Schema, inds []schema.InclusionDependency, threshold float64) []schema.InclusionDependency {
	var kept []schema.InclusionDependency
	for _, ind := range inds {
		if !validSize(len(ind.DependentColumns)) || len(ind.DependentColumns) != len(ind.ReferencedColumns) {
			f.reject("inclusion", ind.DependentTable, ind.DependentColumns, "column count")
			continue
		}
		dep, ok1 := s.Table(ind.DependentTable)
		ref, ok2 := s.Table(ind.ReferencedTable)
		if !ok1 || !ok2 {
			f.reject("inclusion", ind.DependentTable, ind.DependentColumns, "unknown table")
			continue
		}
		depCols, ok1 := resolve(dep, ind.DependentColumns)
		refCols, ok2 := resolve(ref, ind.ReferencedColumns)
		if !ok1 || !ok2 {
			f.reject("inclusion", ind.DependentTable, ind.DependentColumns, "unknown column")
			continue
		}
		if referencesBoolean(ref, refCols) {
			f.reject("inclusion", ind.DependentTable, ind.DependentColumns, "boolean referenced column")
			continue
		}

		score, evidences := ForeignKeyScore(dep, depCols, ref, refCols)
		keep := score >= threshold
		if f.log.DebugEnabled() {
			for _, e := range evidences {
				f.log.DebugWith("foreign key evidence", map[string]interface{}{
					"table":   ind.DependentTable,
					"columns": strings.Join(ind.DependentColumns, ","),
					"type":    e.Type,
					"score":   e.Score,
				})
			}
		}
		f.decide("inclusion", ind.DependentTable, ind.DependentColumns, score, keep)
		if keep {
			kept = append(kept, ind)
		}
	}
	return kept
}

func (f *DependencyFilter) decide(kind, table string, cols []string, score float64, keep bool) {
	f.log.DebugWith("dependency scored", map[string]interface{}{
		"kind":    kind,
		"table":   table,
		"columns": strings.Join(cols, ","),
		"score":   score,
		"kept":    keep,
	})
}

func (f *DependencyFilter) reject(kind, table string, cols []string, reason string) {
	f.log.DebugWith("dependency rejected", map[string]interface{}{
		"kind":    kind,
		"table":   table,
		"columns": strings.Join(cols, ","),
		"reason":  reason,
	})
}

func validSize(n int) bool {
	return n > 0 && n <= MaxDependencyColumns
}

// resolve 列名转下标，任一列不存在返回 false
func resolve(t *schema.Table, names []string) ([]int, bool) {
	cols := make([]int, len(names))
	for i, name := range names {
		cols[i] = t.ColumnIndex(name)
		if cols[i] < 0 {
			return nil, false
		}
	}
	return cols, true
}

// containsKey 决定因素是否包含某个已知键的全部列
func containsKey(determinant []string, keys [][]string) bool {
	set := make(map[string]bool, len(determinant))
	for _, c := range determinant {
		set[c] = true
	}
	for _, key := range keys {
		all := true
		for _, c := range key {
			if !set[c] {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func referencesBoolean(t *schema.Table, cols []int) bool {
	for _, c := range cols {
		if isBooleanType(t.Columns[c].DataType) {
			return true
		}
	}
	return false
}

func groupKey(fd schema.FunctionalDependency) string {
	return fd.Table + "\x00" + fd.Dependant
}
