package flooding

import (
	"math"

	"schema-matcher/internal/analyzer"
	"schema-matcher/internal/graph"
)

// Mapping 节点对 -> 相似度
type Mapping map[graph.NodePair]float64

// Seed 计算初始映射 sigma0
//
// 两个唯一列组合大小标记按大小差打分；约束标记之间以及含标识节点的对为 0；
// 其余按名称相似度，两个列名节点至少一侧有样本值时再按 labelWeight 混合值相似度。
func Seed(pg *graph.PropagationGraph, arena *graph.Arena, labelWeight float64) Mapping {
	sigma0 := make(Mapping, len(pg.Vertices()))
	for _, p := range pg.Vertices() {
		sigma0[p] = seed(arena, p, labelWeight)
	}
	return sigma0
}

func seed(arena *graph.Arena, p graph.NodePair, w float64) float64 {
	a, b := p.Nodes()
	na, ok1 := arena.Node(a).(*graph.NamedNode)
	nb, ok2 := arena.Node(b).(*graph.NamedNode)
	if !ok1 || !ok2 {
		return 0
	}

	sa, okA := na.UniqueSize()
	sb, okB := nb.UniqueSize()
	if okA && okB {
		return 1 / (1 + math.Abs(float64(sa-sb)))
	}
	if isConstraintMarker(na) && isConstraintMarker(nb) {
		return 0
	}

	label := analyzer.LabelSimilarity(na.Value, nb.Value)
	if na.Column == nil || nb.Column == nil {
		return label
	}
	if len(na.Column.Values) == 0 && len(nb.Column.Values) == 0 {
		return label
	}
	return w*label + (1-w)*analyzer.ValueSimilarity(na.Column.Values, nb.Column.Values)
}

func isConstraintMarker(n *graph.NamedNode) bool {
	switch n.Marker {
	case graph.MarkerFunctional, graph.MarkerInclusion, graph.MarkerUniqueSize:
		return true
	}
	return false
}
