package graph

// ConnectivityGraph 两个模式图的叉积：标签相同的边对产生节点对之间的边
type ConnectivityGraph struct {
	vertices []NodePair
	index    map[NodePair]int
	edges    []PairEdge
}

// Connect 对 A、B 中所有标签相同的边对 (e1, e2) 添加 pair(src1,src2) -L-> pair(dst1,dst2)
func Connect(a, b *SchemaGraph) *ConnectivityGraph {
	cg := &ConnectivityGraph{index: make(map[NodePair]int)}

	byLabel := b.edgesByLabel()
	for _, e1 := range a.Edges() {
		for _, e2 := range byLabel[e1.Label] {
			edge := PairEdge{
				FromA: e1.From, FromB: e2.From,
				ToA: e1.To, ToB: e2.To,
				Label: e1.Label,
			}
			cg.addVertex(edge.Source())
			cg.addVertex(edge.Target())
			cg.edges = append(cg.edges, edge)
		}
	}

	return cg
}

func (cg *ConnectivityGraph) addVertex(p NodePair) {
	if _, ok := cg.index[p]; ok {
		return
	}
	cg.index[p] = len(cg.vertices)
	cg.vertices = append(cg.vertices, p)
}

// Vertices 按首次出现顺序返回节点对
func (cg *ConnectivityGraph) Vertices() []NodePair {
	return cg.vertices
}

// Edges 所有边
func (cg *ConnectivityGraph) Edges() []PairEdge {
	return cg.edges
}
