package flooding

import (
	"strconv"

	"schema-matcher/internal/graph"
	"schema-matcher/internal/schema"
)

// 约束标记节点的取值
const (
	markerFD  = "FD"
	markerIND = "IND"
)

// schemaBuilder 把一个模式写入模式图
type schemaBuilder struct {
	arena      *graph.Arena
	scope      graph.Scope
	g          *graph.SchemaGraph
	categories map[graph.Category]graph.Handle
	tables     map[string]graph.Handle            // 表名 -> 表标识节点
	columns    map[string]map[string]graph.Handle // 表名 -> 列名 -> 列标识节点
	types      map[string]graph.Handle            // 数据类型 -> 类型标识节点
}

// BuildSchemaGraph 构建模式图
//
// 节点放在 arena 新分配的作用域中；withDependencies 为 false 时不创建约束类别节点，也忽略 deps。
// 边按模式、表、列的顺序插入，同一输入总是得到同一张图。
func BuildSchemaGraph(arena *graph.Arena, s *schema.Schema, deps schema.Dependencies, withDependencies bool) *graph.SchemaGraph {
	scope := arena.NewScope()
	b := &schemaBuilder{
		arena:      arena,
		scope:      scope,
		g:          graph.NewSchemaGraph(arena, scope),
		categories: make(map[graph.Category]graph.Handle),
		tables:     make(map[string]graph.Handle),
		columns:    make(map[string]map[string]graph.Handle),
		types:      make(map[string]graph.Handle),
	}

	b.category(graph.CategoryDatabase)
	b.category(graph.CategoryTable)
	b.category(graph.CategoryColumn)
	b.category(graph.CategoryColumnType)
	if withDependencies {
		b.category(graph.CategoryConstraint)
	}

	b.schema(s)

	if withDependencies {
		for _, fd := range deps.Functional {
			b.functional(fd)
		}
		for _, u := range deps.Unique {
			b.unique(s, u)
		}
		for _, ind := range deps.Inclusion {
			b.inclusion(ind)
		}
	}

	return b.g
}

func (b *schemaBuilder) category(c graph.Category) graph.Handle {
	if h, ok := b.categories[c]; ok {
		return h
	}
	h := b.arena.Named(b.scope, graph.NamedNode{Value: c.String(), Category: c, Marker: graph.MarkerCategory})
	b.g.AddNode(h)
	b.categories[c] = h
	return h
}

func (b *schemaBuilder) named(n graph.NamedNode) graph.Handle {
	return b.arena.Named(b.scope, n)
}

// identifier 新建标识节点，并连上 type 和 name 两条边
func (b *schemaBuilder) identifier(c graph.Category, name, table graph.Handle) graph.Handle {
	id := b.arena.Identifier(c, name, table)
	b.g.AddEdge(id, b.category(c), graph.LabelType)
	b.g.AddEdge(id, name, graph.LabelName)
	return id
}

func (b *schemaBuilder) schema(s *schema.Schema) {
	sid := b.identifier(graph.CategoryDatabase, b.named(graph.NamedNode{Value: s.Name, Category: graph.CategoryDatabase}), graph.NoHandle)

	for ti := range s.Tables {
		t := &s.Tables[ti]
		tid := b.identifier(graph.CategoryTable, b.named(graph.NamedNode{Value: t.Name, Category: graph.CategoryTable}), graph.NoHandle)
		b.g.AddEdge(sid, tid, graph.LabelTable)
		b.tables[t.Name] = tid
		b.columns[t.Name] = make(map[string]graph.Handle, len(t.Columns))

		for ci, c := range t.Columns {
			nameHandle := b.named(graph.NamedNode{
				Value:    c.Name,
				Category: graph.CategoryColumn,
				DataType: c.DataType,
				Table:    tid,
				Column:   &graph.ColumnRef{Table: ti, Column: ci, Values: c.Values},
			})
			cid := b.identifier(graph.CategoryColumn, nameHandle, tid)
			b.g.AddEdge(tid, cid, graph.LabelColumn)
			b.columns[t.Name][c.Name] = cid

			b.g.AddEdge(cid, b.dataType(c.DataType), graph.LabelDataType)
		}
	}
}

// dataType 同一数据类型在图中只有一个标识节点
func (b *schemaBuilder) dataType(dt string) graph.Handle {
	if h, ok := b.types[dt]; ok {
		return h
	}
	h := b.identifier(graph.CategoryColumnType, b.named(graph.NamedNode{Value: dt, Category: graph.CategoryColumnType}), graph.NoHandle)
	b.types[dt] = h
	return h
}

// lookup 列标识节点，任一列不存在返回 false
func (b *schemaBuilder) lookup(table string, names []string) ([]graph.Handle, bool) {
	cols, ok := b.columns[table]
	if !ok {
		return nil, false
	}
	out := make([]graph.Handle, len(names))
	for i, n := range names {
		h, ok := cols[n]
		if !ok {
			return nil, false
		}
		out[i] = h
	}
	return out, true
}

func (b *schemaBuilder) constraint(table string, marker graph.NamedNode) graph.Handle {
	marker.Category = graph.CategoryConstraint
	return b.identifier(graph.CategoryConstraint, b.named(marker), b.tables[table])
}

func (b *schemaBuilder) functional(fd schema.FunctionalDependency) {
	determinant, ok := b.lookup(fd.Table, fd.Determinant)
	if !ok {
		return
	}
	dependant, ok := b.lookup(fd.Table, []string{fd.Dependant})
	if !ok {
		return
	}

	id := b.constraint(fd.Table, graph.NamedNode{Value: markerFD, Marker: graph.MarkerFunctional})
	for _, h := range determinant {
		b.g.AddEdge(id, h, graph.LabelDeterminant)
	}
	b.g.AddEdge(id, dependant[0], graph.LabelDependant)
}

func (b *schemaBuilder) unique(s *schema.Schema, u schema.UniqueColumnCombination) {
	members, ok := b.lookup(u.Table, u.Columns)
	if !ok {
		return
	}
	t, _ := s.Table(u.Table)

	id := b.constraint(u.Table, graph.NamedNode{Value: strconv.Itoa(len(u.Columns)), Marker: graph.MarkerUniqueSize})
	in := make(map[graph.Handle]bool, len(members))
	for _, h := range members {
		b.g.AddEdge(id, h, graph.LabelUnique)
		in[h] = true
	}
	for _, c := range t.Columns {
		h := b.columns[u.Table][c.Name]
		if !in[h] {
			b.g.AddEdge(id, h, graph.LabelNotUnique)
		}
	}
}

func (b *schemaBuilder) inclusion(ind schema.InclusionDependency) {
	dependent, ok := b.lookup(ind.DependentTable, ind.DependentColumns)
	if !ok {
		return
	}
	referenced, ok := b.lookup(ind.ReferencedTable, ind.ReferencedColumns)
	if !ok {
		return
	}

	id := b.constraint(ind.DependentTable, graph.NamedNode{Value: markerIND, Marker: graph.MarkerInclusion})
	for _, h := range referenced {
		b.g.AddEdge(id, h, graph.LabelReferenced)
	}
	for _, h := range dependent {
		b.g.AddEdge(id, h, graph.LabelDependant)
	}
}
