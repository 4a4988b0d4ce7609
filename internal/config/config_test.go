package config

import (
	"os"
	"path/filepath"
	"testing"

	"schema-matcher/internal/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParameters(t *testing.T) {
	p := DefaultParameters()
	require.NoError(t, p.Validate())

	th, err := p.Thresholds()
	require.NoError(t, err)
	assert.False(t, th.Enabled())

	w, err := p.Weight()
	require.NoError(t, err)
	assert.Equal(t, 0.5, w)
}

func TestParameters_Set(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]string
		wantErr bool
	}{
		{"policy", map[string]string{KeyPolicy: "InverseProduct"}, false},
		{"formula", map[string]string{KeyFormula: "BASIC"}, false},
		{"threshold enabled", map[string]string{KeyFDThreshold: "0.25"}, false},
		{"threshold disabled", map[string]string{KeyINDThreshold: ""}, false},
		{"unknown policy", map[string]string{KeyPolicy: "InverseMedian"}, true},
		{"unknown formula", map[string]string{KeyFormula: "D"}, true},
		{"unknown key", map[string]string{"max_depth": "3"}, true},
		{"weight out of range", map[string]string{KeyLabelWeight: "1.5"}, true},
		{"weight not a number", map[string]string{KeyLabelWeight: "half"}, true},
		{"weight empty", map[string]string{KeyLabelWeight: ""}, true},
		{"weight NaN", map[string]string{KeyLabelWeight: "NaN"}, true},
		{"threshold NaN", map[string]string{KeyFDThreshold: "NaN"}, true},
		{"threshold infinite", map[string]string{KeyUCCThreshold: "+Inf"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParameters()
			err := p.Set(tt.values)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errs.IsInvalidInput(err))
				assert.Equal(t, DefaultParameters(), p)
				return
			}
			require.NoError(t, err)
			for k, v := range tt.values {
				assert.Equal(t, v, p.Get()[k])
			}
		})
	}
}

func TestParameters_SetIsAtomic(t *testing.T) {
	p := DefaultParameters()
	err := p.Set(map[string]string{
		KeyFormula: "A",
		KeyPolicy:  "nope",
	})
	require.Error(t, err)
	assert.Equal(t, "C", p.Formula)
}

func TestParameters_Thresholds(t *testing.T) {
	p := DefaultParameters()
	require.NoError(t, p.Set(map[string]string{KeyUCCThreshold: "0.4"}))

	th, err := p.Thresholds()
	require.NoError(t, err)
	assert.True(t, th.Enabled())
	assert.Nil(t, th.FD)
	require.NotNil(t, th.UCC)
	assert.Equal(t, 0.4, *th.UCC)
	assert.Nil(t, th.IND)
}

func TestPossibleValues(t *testing.T) {
	pv := PossibleValues()
	assert.ElementsMatch(t, Keys(), keysOf(pv))
	assert.Equal(t, []string{"InverseAverage", "InverseProduct", "ConstantOne"}, pv[KeyPolicy])
	assert.Equal(t, []string{"BASIC", "A", "B", "C"}, pv[KeyFormula])
	assert.Contains(t, pv[KeyFDThreshold], "")
	assert.NotContains(t, pv[KeyLabelWeight], "")

	// every advertised value is accepted
	for k, values := range pv {
		for _, v := range values {
			p := DefaultParameters()
			assert.NoError(t, p.Set(map[string]string{k: v}), "%s=%q", k, v)
		}
	}
}

func TestParameters_Validate(t *testing.T) {
	p := DefaultParameters()
	p.MaxIterations = 0
	assert.True(t, errs.IsInvalidInput(p.Validate()))

	p = DefaultParameters()
	p.Epsilon = 0
	assert.True(t, errs.IsInvalidInput(p.Validate()))

	p = DefaultParameters()
	p.Formula = "E"
	assert.True(t, errs.IsInvalidInput(p.Validate()))

	p = DefaultParameters()
	p.LabelWeight = "NaN"
	assert.True(t, errs.IsInvalidInput(p.Validate()))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matcher.yaml")
	content := `
log:
  level: debug
matcher:
  propagation_coefficient_policy: InverseProduct
  fd_threshold: "0.3"
tuning:
  address: "tuner:6000"
scenarios:
  - name: people
    source: people_a.yaml
    target: /data/people_b.yaml
    ground_truth: people_gt.yaml
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "InverseProduct", cfg.Matcher.Policy)
	assert.Equal(t, "C", cfg.Matcher.Formula)
	assert.Equal(t, "0.3", cfg.Matcher.FDThreshold)
	assert.Equal(t, 100, cfg.Matcher.MaxIterations)
	assert.Equal(t, "tuner:6000", cfg.Tuning.Address)

	require.Len(t, cfg.Scenarios, 1)
	sc := cfg.Scenarios[0]
	assert.Equal(t, filepath.Join(dir, "people_a.yaml"), sc.Source)
	assert.Equal(t, "/data/people_b.yaml", sc.Target)
	assert.Equal(t, filepath.Join(dir, "people_gt.yaml"), sc.GroundTruth)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errs.IsNotFound(err))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("matcher:\n  fixpoint_formula: Z\n"), 0o644))
	_, err = Load(path)
	assert.True(t, errs.IsInvalidInput(err))
}

func keysOf(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
