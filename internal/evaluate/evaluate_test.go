package evaluate

import (
	"os"
	"path/filepath"
	"testing"

	"schema-matcher/internal/errs"
	"schema-matcher/internal/flooding"
	"schema-matcher/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoColumns(name string, cols ...string) *schema.Schema {
	t := schema.Table{Name: "t"}
	for _, c := range cols {
		t.Columns = append(t.Columns, schema.Column{Name: c})
	}
	return &schema.Schema{Name: name, Tables: []schema.Table{t}}
}

func TestPredict(t *testing.T) {
	m := flooding.NewMatrixSize(3, 3)
	m.Set(0, 1, 0.9)
	m.Set(0, 2, 0.9) // 并列取下标小的
	m.Set(1, 0, 0.2)

	assert.Equal(t, map[int]int{0: 1, 1: 0}, Predict(m))
}

func TestScore(t *testing.T) {
	source := twoColumns("a", "id", "name", "email")
	target := twoColumns("b", "key", "label", "mail")

	m := flooding.NewMatrixSize(3, 3)
	m.Set(0, 0, 1)   // 正确
	m.Set(1, 2, 0.7) // 错误
	// email 没有预测

	truth := GroundTruth{
		{Source: "t.id", Target: "t.key"},
		{Source: "t.name", Target: "t.label"},
		{Source: "t.email", Target: "t.mail"},
		{Source: "t.ghost", Target: "t.mail"},
	}

	got := Score(m, source, target, truth)
	assert.Equal(t, 1, got.TruePositives)
	assert.Equal(t, 2, got.Predicted)
	assert.Equal(t, 3, got.Expected)
	assert.InDelta(t, 0.5, got.Precision, 1e-12)
	assert.InDelta(t, 1.0/3.0, got.Recall, 1e-12)
	assert.InDelta(t, 0.4, got.F1, 1e-12)
}

func TestScore_Empty(t *testing.T) {
	source := twoColumns("a", "id")
	target := twoColumns("b", "id")

	got := Score(flooding.NewMatrixSize(1, 1), source, target, nil)
	assert.Equal(t, Metrics{}, got)
}

func TestLoadGroundTruth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gt.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- {source: t.id, target: t.key}\n- {source: t.name, target: t.label}\n"), 0o644))

	gt, err := LoadGroundTruth(path)
	require.NoError(t, err)
	assert.Equal(t, GroundTruth{{Source: "t.id", Target: "t.key"}, {Source: "t.name", Target: "t.label"}}, gt)

	_, err = LoadGroundTruth(filepath.Join(t.TempDir(), "none.yaml"))
	assert.True(t, errs.IsNotFound(err))
}
