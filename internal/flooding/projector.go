package flooding

import (
	"sort"

	"schema-matcher/internal/graph"
	"schema-matcher/internal/schema"
)

// Project 把映射中的列对写入矩阵
//
// 只保留两端都是同类别标识节点、且类别为 Column 的节点对，换算到对应的列名节点后，
// 写入 matrix[源表偏移+源列][目标表偏移+目标列]。源端由 sourceScope 判定。
func Project(m Mapping, arena *graph.Arena, sourceScope graph.Scope, source, target *schema.Schema, matrix *Matrix) {
	srcOffsets := source.Offsets()
	tgtOffsets := target.Offsets()

	pairs := make([]graph.NodePair, 0, len(m))
	for p := range m {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Less(pairs[j]) })

	for _, p := range pairs {
		a, b := p.Nodes()
		ia, ok1 := arena.Node(a).(*graph.IdentifierNode)
		ib, ok2 := arena.Node(b).(*graph.IdentifierNode)
		if !ok1 || !ok2 || ia.Category != ib.Category || ia.Category != graph.CategoryColumn {
			continue
		}
		if arena.ScopeOf(a) == arena.ScopeOf(b) {
			continue
		}

		src, tgt := a, b
		if arena.ScopeOf(a) != sourceScope {
			src, tgt = b, a
		}
		srcName, _ := arena.NameOf(src)
		tgtName, _ := arena.NameOf(tgt)
		if srcName.Column == nil || tgtName.Column == nil {
			continue
		}

		row := srcOffsets[srcName.Column.Table] + srcName.Column.Column
		col := tgtOffsets[tgtName.Column.Table] + tgtName.Column.Column
		if v := m[p]; v > matrix.At(row, col) {
			matrix.Set(row, col, v)
		}
	}
}
