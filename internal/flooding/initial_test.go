package flooding

import (
	"testing"

	"schema-matcher/internal/graph"

	"github.com/stretchr/testify/assert"
)

func TestSeed_Rules(t *testing.T) {
	arena := graph.NewArena()
	sa, sb := arena.NewScope(), arena.NewScope()

	constraint := func(s graph.Scope, v string, m graph.Marker) graph.Handle {
		return arena.Named(s, graph.NamedNode{Value: v, Category: graph.CategoryConstraint, Marker: m})
	}
	column := func(s graph.Scope, v string, values ...string) graph.Handle {
		return arena.Named(s, graph.NamedNode{
			Value:    v,
			Category: graph.CategoryColumn,
			Column:   &graph.ColumnRef{Values: values},
		})
	}

	size1 := constraint(sa, "1", graph.MarkerUniqueSize)
	size3 := constraint(sb, "3", graph.MarkerUniqueSize)
	fd := constraint(sa, "FD", graph.MarkerFunctional)
	ind := constraint(sb, "IND", graph.MarkerInclusion)
	fdB := constraint(sb, "FD", graph.MarkerFunctional)

	tableA := arena.Named(sa, graph.NamedNode{Value: "customer", Category: graph.CategoryTable})
	tableB := arena.Named(sb, graph.NamedNode{Value: "customers", Category: graph.CategoryTable})
	tableID := arena.Identifier(graph.CategoryTable, tableA, graph.NoHandle)

	nameA := column(sa, "name", "a", "b")
	nameB := column(sb, "name", "b", "c")
	bareA := column(sa, "email")
	bareB := column(sb, "mail")

	tests := []struct {
		name string
		a, b graph.Handle
		want float64
	}{
		{"unique sizes", size1, size3, 1.0 / 3.0},
		{"same unique size", size1, constraint(sb, "1", graph.MarkerUniqueSize), 1.0},
		{"kind markers", fd, ind, 0},
		{"same kind markers", fd, fdB, 0},
		{"kind marker vs size", fd, size3, 0},
		{"identifier", tableID, tableB, 0},
		{"labels only", tableA, tableB, 1 - 1.0/17.0},
		{"columns with values", nameA, nameB, 0.5*1 + 0.5*(1.0/3.0)},
		{"columns without values", bareA, bareB, 1 - 1.0/9.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, seed(arena, graph.Pair(tt.a, tt.b), 0.5), 1e-12)
		})
	}
}

func TestSeed_LabelWeight(t *testing.T) {
	arena := graph.NewArena()
	sa, sb := arena.NewScope(), arena.NewScope()
	a := arena.Named(sa, graph.NamedNode{Value: "zip", Category: graph.CategoryColumn, Column: &graph.ColumnRef{Values: []string{"10115"}}})
	b := arena.Named(sb, graph.NamedNode{Value: "zip", Category: graph.CategoryColumn, Column: &graph.ColumnRef{Values: []string{"20095"}}})

	assert.Equal(t, 1.0, seed(arena, graph.Pair(a, b), 1.0))
	assert.Equal(t, 0.0, seed(arena, graph.Pair(a, b), 0.0))
}

func TestSeed_CoversEveryPair(t *testing.T) {
	pg, p := smallGraphs(t, graph.ConstantOne{})
	sigma0 := Seed(pg, p.arena, 0.5)
	assert.Len(t, sigma0, len(pg.Vertices()))
}
