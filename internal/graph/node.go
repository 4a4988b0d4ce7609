package graph

import "strconv"

// Category 节点类别
type Category uint8

const (
	CategoryDatabase Category = iota
	CategoryTable
	CategoryColumn
	CategoryColumnType
	CategoryConstraint
)

func (c Category) String() string {
	switch c {
	case CategoryDatabase:
		return "Database"
	case CategoryTable:
		return "Table"
	case CategoryColumn:
		return "Column"
	case CategoryColumnType:
		return "ColumnType"
	case CategoryConstraint:
		return "Constraint"
	default:
		return "Category(" + strconv.Itoa(int(c)) + ")"
	}
}

// Marker 具名节点的特殊标记
type Marker uint8

const (
	MarkerNone       Marker = iota
	MarkerCategory          // 类别节点（type 边的目标）
	MarkerFunctional        // 函数依赖标记
	MarkerInclusion         // 包含依赖标记
	MarkerUniqueSize        // 唯一列组合的大小，Value 为十进制大小
)

// Handle 节点在 Arena 中的编号，从 1 开始
type Handle int32

// NoHandle 空引用（零值）
const NoHandle Handle = 0

// Node 节点：NamedNode 或 IdentifierNode
type Node interface {
	NodeCategory() Category
	isNode()
}

// NamedNode 具名节点：字面值（表名、列名、类型名、类别、约束标记）
type NamedNode struct {
	Value    string
	Category Category
	DataType string
	Table    Handle     // 所属表的标识节点，无则 NoHandle
	Marker   Marker
	Column   *ColumnRef // 列名节点指向的具体列，其他为 nil
}

// IdentifierNode 合成的标识节点，总是引用一个具名节点
type IdentifierNode struct {
	Category Category
	Name     Handle
	Table    Handle
}

func (n *NamedNode) NodeCategory() Category      { return n.Category }
func (n *IdentifierNode) NodeCategory() Category { return n.Category }
func (*NamedNode) isNode()                       {}
func (*IdentifierNode) isNode()                  {}

// UniqueSize 唯一列组合大小标记的值
func (n *NamedNode) UniqueSize() (int, bool) {
	if n.Marker != MarkerUniqueSize {
		return 0, false
	}
	size, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, false
	}
	return size, true
}

// ColumnRef 列名节点对应的列：矩阵中的位置和样本值
type ColumnRef struct {
	Table  int
	Column int
	Values []string
}

// Scope 区分同一次匹配中的两个模式
type Scope uint8

type nodeKey struct {
	scope    Scope
	value    string
	category Category
	dataType string
	table    Handle
	marker   Marker
}

// Arena 节点仓库：具名节点按 (scope, value, category, datatype, table, marker) 去重，标识节点总是新建
type Arena struct {
	nodes  []Node
	scopes []Scope
	named  map[nodeKey]Handle
	next   Scope
}

// NewArena 创建节点仓库
func NewArena() *Arena {
	return &Arena{
		nodes:  []Node{nil},
		scopes: []Scope{0},
		named:  make(map[nodeKey]Handle),
	}
}

// NewScope 分配新的作用域
func (a *Arena) NewScope() Scope {
	s := a.next
	a.next++
	return s
}

// Named 取得或创建具名节点
func (a *Arena) Named(scope Scope, n NamedNode) Handle {
	key := nodeKey{
		scope:    scope,
		value:    n.Value,
		category: n.Category,
		dataType: n.DataType,
		table:    n.Table,
		marker:   n.Marker,
	}
	if h, ok := a.named[key]; ok {
		return h
	}
	node := n
	h := a.add(scope, &node)
	a.named[key] = h
	return h
}

// Identifier 新建引用 name 的标识节点，name 必须是具名节点
func (a *Arena) Identifier(category Category, name Handle, table Handle) Handle {
	if _, ok := a.nodes[name].(*NamedNode); !ok {
		panic("graph: identifier must reference a named node")
	}
	return a.add(a.scopes[name], &IdentifierNode{Category: category, Name: name, Table: table})
}

func (a *Arena) add(scope Scope, n Node) Handle {
	a.nodes = append(a.nodes, n)
	a.scopes = append(a.scopes, scope)
	return Handle(len(a.nodes) - 1)
}

// Node 取节点
func (a *Arena) Node(h Handle) Node {
	return a.nodes[h]
}

// ScopeOf 节点所属作用域
func (a *Arena) ScopeOf(h Handle) Scope {
	return a.scopes[h]
}

// Len 节点数量
func (a *Arena) Len() int {
	return len(a.nodes) - 1
}

// NameOf 标识节点返回其具名节点，具名节点返回自身
func (a *Arena) NameOf(h Handle) (*NamedNode, Handle) {
	switch n := a.nodes[h].(type) {
	case *IdentifierNode:
		return a.nodes[n.Name].(*NamedNode), n.Name
	case *NamedNode:
		return n, h
	}
	return nil, NoHandle
}

// Label 节点的可读标签，标识节点以 & 开头
func (a *Arena) Label(h Handle) string {
	switch n := a.nodes[h].(type) {
	case *IdentifierNode:
		named, _ := a.NameOf(n.Name)
		return "&" + named.Value
	case *NamedNode:
		return n.Value
	}
	return ""
}
