package graph

import (
	"schema-matcher/internal/errs"
)

// Policy 传播系数策略
type Policy interface {
	Name() string
	// Coefficient 由传播方向上两侧节点的同标签度数计算系数
	Coefficient(degreeA, degreeB int) float64
}

// InverseAverage 2 / (dA + dB)
type InverseAverage struct{}

// InverseProduct 1 / (dA · dB)
type InverseProduct struct{}

// ConstantOne 恒为 1
type ConstantOne struct{}

func (InverseAverage) Name() string { return "InverseAverage" }
func (InverseProduct) Name() string { return "InverseProduct" }
func (ConstantOne) Name() string    { return "ConstantOne" }

func (InverseAverage) Coefficient(degreeA, degreeB int) float64 {
	return 2 / float64(degreeA+degreeB)
}

func (InverseProduct) Coefficient(degreeA, degreeB int) float64 {
	return 1 / float64(degreeA*degreeB)
}

func (ConstantOne) Coefficient(int, int) float64 {
	return 1
}

// PolicyNames 所有策略名称
var PolicyNames = []string{"InverseAverage", "InverseProduct", "ConstantOne"}

// ParsePolicy 按名称选择策略，未知名称返回 invalid_input
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "InverseAverage":
		return InverseAverage{}, nil
	case "InverseProduct":
		return InverseProduct{}, nil
	case "ConstantOne":
		return ConstantOne{}, nil
	}
	return nil, errs.Newf(errs.ErrKindInvalidInput, "unknown propagation coefficient policy %q", name)
}

// Incoming 指向某节点对的一条传播边
type Incoming struct {
	From        int // 源节点对在 Vertices() 中的下标
	Coefficient float64
}

// PropagationGraph 连通图加上双向传播系数
type PropagationGraph struct {
	vertices []NodePair
	index    map[NodePair]int
	edges    []CoefficientEdge
	lookup   map[[2]int]int
	incoming [][]Incoming
}

// Induce 为连通图每条边添加正反两个方向的传播边
//
// 正向系数取 A、B 中源节点同标签的出度，反向系数取目标节点同标签的入度，
// 两个方向的系数可以不同。同一有向节点对出现多次时保留较大的系数。
func Induce(cg *ConnectivityGraph, a, b *SchemaGraph, policy Policy) (*PropagationGraph, error) {
	pg := &PropagationGraph{
		vertices: append([]NodePair(nil), cg.Vertices()...),
		index:    make(map[NodePair]int, len(cg.Vertices())),
		lookup:   make(map[[2]int]int),
	}
	for i, p := range pg.vertices {
		pg.index[p] = i
	}

	for _, e := range cg.Edges() {
		forward := policy.Coefficient(a.OutDegree(e.FromA, e.Label), b.OutDegree(e.FromB, e.Label))
		if err := pg.add(e.Source(), e.Target(), forward); err != nil {
			return nil, err
		}
		backward := policy.Coefficient(a.InDegree(e.ToA, e.Label), b.InDegree(e.ToB, e.Label))
		if err := pg.add(e.Target(), e.Source(), backward); err != nil {
			return nil, err
		}
	}

	pg.incoming = make([][]Incoming, len(pg.vertices))
	for _, e := range pg.edges {
		to := pg.index[e.To]
		pg.incoming[to] = append(pg.incoming[to], Incoming{From: pg.index[e.From], Coefficient: e.Coefficient})
	}

	return pg, nil
}

func (pg *PropagationGraph) add(from, to NodePair, coefficient float64) error {
	edge, err := NewCoefficientEdge(from, to, coefficient)
	if err != nil {
		return err
	}
	key := [2]int{pg.index[from], pg.index[to]}
	if i, ok := pg.lookup[key]; ok {
		if coefficient > pg.edges[i].Coefficient {
			pg.edges[i] = edge
		}
		return nil
	}
	pg.lookup[key] = len(pg.edges)
	pg.edges = append(pg.edges, edge)
	return nil
}

// Vertices 节点对，顺序与连通图一致
func (pg *PropagationGraph) Vertices() []NodePair {
	return pg.vertices
}

// Edges 传播边
func (pg *PropagationGraph) Edges() []CoefficientEdge {
	return pg.edges
}

// Index 节点对的下标
func (pg *PropagationGraph) Index(p NodePair) (int, bool) {
	i, ok := pg.index[p]
	return i, ok
}

// Incoming 指向第 i 个节点对的传播边
func (pg *PropagationGraph) Incoming(i int) []Incoming {
	return pg.incoming[i]
}

// Coefficient from -> to 的传播系数，不存在时为 0
func (pg *PropagationGraph) Coefficient(from, to NodePair) (float64, bool) {
	fi, ok := pg.index[from]
	if !ok {
		return 0, false
	}
	ti, ok := pg.index[to]
	if !ok {
		return 0, false
	}
	i, ok := pg.lookup[[2]int{fi, ti}]
	if !ok {
		return 0, false
	}
	return pg.edges[i].Coefficient, true
}
