package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"schema-matcher/internal/config"
	"schema-matcher/internal/errs"
	"schema-matcher/internal/logger"
	"schema-matcher/internal/renderer"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const customerYAML = `
name: %s
tables:
  - name: customer
    columns:
      - {name: id, datatype: int, values: ["1", "2", "3"]}
      - {name: name, datatype: varchar, values: [alice, bob, carol]}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParamFlags_Apply(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	pf := addParamFlags(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--fixpoint-formula", "A", "--fd-threshold", "0.5", "--epsilon", "0.01"}))

	p := config.DefaultParameters()
	require.NoError(t, pf.apply(cmd, &p))
	assert.Equal(t, "A", p.Formula)
	assert.Equal(t, "0.5", p.FDThreshold)
	assert.Equal(t, 0.01, p.Epsilon)
	assert.Equal(t, config.DefaultParameters().Policy, p.Policy)
	assert.Equal(t, config.DefaultParameters().MaxIterations, p.MaxIterations)
}

func TestParamFlags_Invalid(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	pf := addParamFlags(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--fixpoint-formula", "Z"}))

	p := config.DefaultParameters()
	assert.True(t, errs.IsInvalidInput(pf.apply(cmd, &p)))
}

func TestSchemaSource_Missing(t *testing.T) {
	_, err := (&schemaSource{side: "source"}).load(context.Background(), 10)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestRunMatch(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "a.yaml", fmt.Sprintf(customerYAML, "shop"))
	tgt := writeFile(t, dir, "b.yaml", fmt.Sprintf(customerYAML, "store"))
	truth := writeFile(t, dir, "gt.yaml", "- {source: customer.id, target: customer.id}\n- {source: customer.name, target: customer.name}\n")
	out := filepath.Join(dir, "out")

	err := runMatch(context.Background(), logger.Nop(), matchJob{
		source:    &schemaSource{side: "source", file: src},
		target:    &schemaSource{side: "target", file: tgt},
		params:    config.DefaultParameters(),
		truthPath: truth,
		outputDir: out,
		topN:      2,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, "matrix.json"))
	require.NoError(t, err)
	var doc renderer.MatrixDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "shop", doc.Source)
	assert.Equal(t, []string{"customer.id", "customer.name"}, doc.TargetColumns)
	require.Len(t, doc.Values, 2)
	assert.Equal(t, 1.0, doc.Values[0][0])
	assert.Len(t, doc.Fingerprint, 16)
	require.NotNil(t, doc.Stats)

	report, err := os.ReadFile(filepath.Join(out, "report.md"))
	require.NoError(t, err)
	assert.Contains(t, string(report), "| 1.000 | 1.000 | 1.000 | 2 | 2 | 2 |")
}
