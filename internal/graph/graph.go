// Package graph 相似度泛洪使用的图：模式图、连通图、传播图
package graph

type degreeKey struct {
	node  Handle
	label Label
}

// SchemaGraph 一个模式的有向带标签多重图，构建后只读
type SchemaGraph struct {
	arena *Arena
	scope Scope
	nodes []Handle
	seen  map[Handle]bool
	edges []LabelEdge
	out   map[degreeKey]int
	in    map[degreeKey]int
}

// NewSchemaGraph 创建空模式图，节点存放在 arena 的 scope 作用域中
func NewSchemaGraph(arena *Arena, scope Scope) *SchemaGraph {
	return &SchemaGraph{
		arena: arena,
		scope: scope,
		seen:  make(map[Handle]bool),
		out:   make(map[degreeKey]int),
		in:    make(map[degreeKey]int),
	}
}

// Arena 节点仓库
func (g *SchemaGraph) Arena() *Arena {
	return g.arena
}

// Scope 图的作用域
func (g *SchemaGraph) Scope() Scope {
	return g.scope
}

// AddNode 添加节点（重复添加无效果）
func (g *SchemaGraph) AddNode(h Handle) {
	if g.seen[h] {
		return
	}
	g.seen[h] = true
	g.nodes = append(g.nodes, h)
}

// AddEdge 添加边，端点自动加入图
func (g *SchemaGraph) AddEdge(from, to Handle, label Label) {
	g.AddNode(from)
	g.AddNode(to)
	g.edges = append(g.edges, LabelEdge{From: from, To: to, Label: label})
	g.out[degreeKey{from, label}]++
	g.in[degreeKey{to, label}]++
}

// Nodes 按插入顺序返回节点
func (g *SchemaGraph) Nodes() []Handle {
	return g.nodes
}

// Edges 按插入顺序返回边
func (g *SchemaGraph) Edges() []LabelEdge {
	return g.edges
}

// OutDegree 节点 h 上标签为 label 的出边数
func (g *SchemaGraph) OutDegree(h Handle, label Label) int {
	return g.out[degreeKey{h, label}]
}

// InDegree 节点 h 上标签为 label 的入边数
func (g *SchemaGraph) InDegree(h Handle, label Label) int {
	return g.in[degreeKey{h, label}]
}

// edgesByLabel 按标签分桶，桶内保持插入顺序
func (g *SchemaGraph) edgesByLabel() map[Label][]LabelEdge {
	buckets := make(map[Label][]LabelEdge)
	for _, e := range g.edges {
		buckets[e.Label] = append(buckets[e.Label], e)
	}
	return buckets
}
