package flooding

import (
	"testing"

	"schema-matcher/internal/graph"
	"schema-matcher/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func customerSchema(name string) *schema.Schema {
	return &schema.Schema{
		Name: name,
		Tables: []schema.Table{{
			Name: "customer",
			Columns: []schema.Column{
				{Name: "id", DataType: "int", Values: []string{"1", "2", "3"}},
				{Name: "name", DataType: "varchar", Values: []string{"alice", "bob", "carol"}},
				{Name: "email", DataType: "varchar", Values: []string{"a@x.io", "b@x.io", "c@x.io"}},
			},
		}},
	}
}

func shopSchema() (*schema.Schema, schema.Dependencies) {
	s := &schema.Schema{
		Name: "shop",
		Tables: []schema.Table{
			{Name: "customer", Columns: []schema.Column{
				{Name: "id", DataType: "int"},
				{Name: "name", DataType: "varchar"},
			}},
			{Name: "orders", Columns: []schema.Column{
				{Name: "order_id", DataType: "int"},
				{Name: "customer_id", DataType: "int"},
				{Name: "note", DataType: "text"},
			}},
		},
	}
	deps := schema.Dependencies{
		Functional: []schema.FunctionalDependency{
			{Table: "customer", Determinant: []string{"id"}, Dependant: "name"},
			{Table: "customer", Determinant: []string{"missing"}, Dependant: "name"},
		},
		Unique: []schema.UniqueColumnCombination{
			{Table: "customer", Columns: []string{"id"}},
		},
		Inclusion: []schema.InclusionDependency{
			{DependentTable: "orders", DependentColumns: []string{"customer_id"}, ReferencedTable: "customer", ReferencedColumns: []string{"id"}},
		},
	}
	return s, deps
}

func countLabels(g *graph.SchemaGraph) map[graph.Label]int {
	counts := make(map[graph.Label]int)
	for _, e := range g.Edges() {
		counts[e.Label]++
	}
	return counts
}

func TestBuildSchemaGraph_Structure(t *testing.T) {
	arena := graph.NewArena()
	g := BuildSchemaGraph(arena, customerSchema("shop"), schema.Dependencies{}, false)

	// 4 个类别节点 + 模式 2 + 表 2 + 列 3×2 + 类型 2×2
	assert.Len(t, g.Nodes(), 18)
	// 模式 2 + 表 3 + 列 3×4 + 类型 2×2
	assert.Len(t, g.Edges(), 21)

	counts := countLabels(g)
	assert.Equal(t, 1, counts[graph.LabelTable])
	assert.Equal(t, 3, counts[graph.LabelColumn])
	assert.Equal(t, 3, counts[graph.LabelDataType])
	assert.Equal(t, 0, counts[graph.LabelUnique])

	types := 0
	for _, h := range g.Nodes() {
		if id, ok := arena.Node(h).(*graph.IdentifierNode); ok && id.Category == graph.CategoryColumnType {
			types++
		}
		assert.NotEqual(t, graph.CategoryConstraint, arena.Node(h).NodeCategory())
	}
	assert.Equal(t, 2, types, "int and varchar each get one type node")
}

func TestBuildSchemaGraph_ColumnNames(t *testing.T) {
	arena := graph.NewArena()
	s := customerSchema("shop")
	g := BuildSchemaGraph(arena, s, schema.Dependencies{}, false)

	found := 0
	for _, e := range g.Edges() {
		if e.Label != graph.LabelName {
			continue
		}
		id, ok := arena.Node(e.From).(*graph.IdentifierNode)
		if !ok || id.Category != graph.CategoryColumn {
			continue
		}
		named := arena.Node(e.To).(*graph.NamedNode)
		require.NotNil(t, named.Column)
		col := s.Tables[named.Column.Table].Columns[named.Column.Column]
		assert.Equal(t, col.Name, named.Value)
		assert.Equal(t, col.DataType, named.DataType)
		assert.Equal(t, col.Values, named.Column.Values)
		assert.Equal(t, id.Table, named.Table)
		found++
	}
	assert.Equal(t, 3, found)
}

func TestBuildSchemaGraph_Dependencies(t *testing.T) {
	s, deps := shopSchema()
	arena := graph.NewArena()
	g := BuildSchemaGraph(arena, s, deps, true)

	counts := countLabels(g)
	assert.Equal(t, 1, counts[graph.LabelDeterminant])
	assert.Equal(t, 2, counts[graph.LabelDependant], "one from the FD, one from the IND")
	assert.Equal(t, 1, counts[graph.LabelUnique])
	assert.Equal(t, 1, counts[graph.LabelNotUnique], "customer.name is outside the combination")
	assert.Equal(t, 1, counts[graph.LabelReferenced])

	markers := map[graph.Marker]int{}
	constraints := 0
	for _, e := range g.Edges() {
		id, ok := arena.Node(e.From).(*graph.IdentifierNode)
		if !ok || id.Category != graph.CategoryConstraint {
			continue
		}
		if e.Label == graph.LabelName {
			markers[arena.Node(e.To).(*graph.NamedNode).Marker]++
		}
		if e.Label == graph.LabelType {
			constraints++
		}
	}
	assert.Equal(t, 3, constraints)
	assert.Equal(t, map[graph.Marker]int{
		graph.MarkerFunctional: 1,
		graph.MarkerUniqueSize: 1,
		graph.MarkerInclusion:  1,
	}, markers)
}

func TestBuildSchemaGraph_DependenciesDisabled(t *testing.T) {
	s, deps := shopSchema()
	arena := graph.NewArena()
	g := BuildSchemaGraph(arena, s, deps, false)

	counts := countLabels(g)
	for _, l := range []graph.Label{graph.LabelDeterminant, graph.LabelDependant, graph.LabelUnique, graph.LabelNotUnique, graph.LabelReferenced} {
		assert.Zero(t, counts[l], string(l))
	}
}

func TestBuildSchemaGraph_Deterministic(t *testing.T) {
	s, deps := shopSchema()
	g1 := BuildSchemaGraph(graph.NewArena(), s, deps, true)
	g2 := BuildSchemaGraph(graph.NewArena(), s, deps, true)
	assert.Equal(t, g1.Edges(), g2.Edges())
}
