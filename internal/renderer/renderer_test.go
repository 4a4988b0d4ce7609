package renderer

import (
	"fmt"
	"strings"
	"testing"

	"schema-matcher/internal/config"
	"schema-matcher/internal/evaluate"
	"schema-matcher/internal/flooding"
	"schema-matcher/internal/graph"
	"schema-matcher/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func customers(name string) *schema.Schema {
	return &schema.Schema{
		Name: name,
		Tables: []schema.Table{{
			Name: "customer",
			Columns: []schema.Column{
				{Name: "id", DataType: "int", Values: []string{"1", "2", "3"}},
				{Name: "name", DataType: "varchar", Values: []string{"alice", "bob", "carol"}},
			},
		}},
	}
}

func TestTopMatches(t *testing.T) {
	source := customers("a")
	target := customers("b")
	m := flooding.NewMatrixSize(2, 2)
	m.Set(0, 0, 0.4)
	m.Set(0, 1, 0.9)

	got := TopMatches(m, source, target, 1)
	require.Len(t, got, 2)
	assert.Equal(t, "customer.id", got[0].Column)
	assert.Equal(t, []Candidate{{Column: "customer.name", Score: 0.9}}, got[0].Candidates)
	assert.Empty(t, got[1].Candidates)

	all := TopMatches(m, source, target, 0)
	assert.Len(t, all[0].Candidates, 2)
}

func TestMarkdownRenderer_Render(t *testing.T) {
	source := customers("shop")
	target := customers("store")
	m := flooding.NewMatrix(source, target)
	params := config.DefaultParameters()

	res, err := flooding.Match(source, target, m, params)
	require.NoError(t, err)

	metrics := evaluate.Score(m, source, target, evaluate.GroundTruth{
		{Source: "customer.id", Target: "customer.id"},
		{Source: "customer.name", Target: "customer.name"},
	})

	out := NewMarkdownRenderer().Render(MatchReport{
		Source:  source,
		Target:  target,
		Matrix:  m,
		Result:  res,
		Params:  params,
		Metrics: &metrics,
	})

	assert.True(t, strings.HasPrefix(out, "# 模式匹配报告：shop → store\n"))
	assert.Contains(t, out, fmt.Sprintf("`%016x`", m.Fingerprint()))
	assert.Contains(t, out, "| propagation_coefficient_policy | InverseAverage |")
	assert.Contains(t, out, "| fd_threshold | - |")
	assert.Contains(t, out, "### customer")
	assert.Contains(t, out, "| id | int | `customer.id` (1.00)")
	assert.Contains(t, out, "| 1.000 | 1.000 | 1.000 | 2 | 2 | 2 |")
	assert.NotContains(t, out, "依赖：")
}

func TestMermaidRenderer_Render(t *testing.T) {
	arena := graph.NewArena()
	g := flooding.BuildSchemaGraph(arena, customers("shop"), schema.Dependencies{}, false)

	out := NewMermaidRenderer().Render(g)
	lines := strings.Split(strings.TrimSpace(out), "\n")

	assert.Equal(t, "flowchart LR", lines[0])
	assert.Contains(t, out, `{{"Table"}}`)
	assert.Contains(t, out, `(["&customer"])`)
	assert.Contains(t, out, `["varchar"]`)

	edges := 0
	for _, l := range lines {
		if strings.Contains(l, "-->|") {
			edges++
		}
	}
	assert.Equal(t, len(g.Edges()), edges)
	assert.Contains(t, out, "-->|column|")
}

func TestEscapeMermaid(t *testing.T) {
	assert.Equal(t, "#quot;a#quot; #lt;b#gt;", escapeMermaid(`"a" <b>`))
}
