package tuning

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"

	"schema-matcher/internal/config"
	"schema-matcher/internal/errs"
	"schema-matcher/internal/evaluate"
	"schema-matcher/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func customer(name string) *schema.Schema {
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

func identityScenario(name string) Scenario {
	return Scenario{
		Name:   name,
		Source: customer("shop"),
		Target: customer("store"),
		Truth: evaluate.GroundTruth{
			{Source: "customer.id", Target: "customer.id"},
			{Source: "customer.name", Target: "customer.name"},
			{Source: "customer.email", Target: "customer.email"},
		},
	}
}

func TestScorer_Score(t *testing.T) {
	scorer := NewScorer([]Scenario{identityScenario("a"), identityScenario("b")}, nil)

	score, err := scorer.Score(context.Background(), config.DefaultParameters())
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	empty, err := NewScorer(nil, nil).Score(context.Background(), config.DefaultParameters())
	require.NoError(t, err)
	assert.Equal(t, 0.0, empty)
}

func TestScorer_InvalidParameters(t *testing.T) {
	scorer := NewScorer([]Scenario{identityScenario("a")}, nil)
	p := config.DefaultParameters()
	p.Formula = "nope"

	_, err := scorer.Score(context.Background(), p)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestSession_Protocol(t *testing.T) {
	engine, tuner := net.Pipe()
	session := NewSession(NewScorer([]Scenario{identityScenario("a")}, nil), config.DefaultParameters(), nil)

	done := make(chan error, 1)
	go func() {
		done <- session.Serve(context.Background(), engine)
		engine.Close()
	}()

	reader := bufio.NewReader(tuner)
	readLine := func(v interface{}) {
		t.Helper()
		line, err := reader.ReadBytes('\n')
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(line, v))
	}
	send := func(line string) {
		t.Helper()
		_, err := tuner.Write([]byte(line + "\n"))
		require.NoError(t, err)
	}

	var hello Hello
	readLine(&hello)
	assert.Equal(t, 1.0, hello.Score)
	assert.Equal(t, "InverseAverage", hello.CurrentParams[config.KeyPolicy])
	assert.Equal(t, []string{"BASIC", "A", "B", "C"}, hello.PossibleValues[config.KeyFormula])

	// 完整快照，数字形式的权重也接受
	send(`{"propagation_coefficient_policy":"InverseProduct","fixpoint_formula":"C","fd_threshold":"","ucc_threshold":"","ind_threshold":null,"label_score_weight":0.5}`)
	var reply Reply
	readLine(&reply)
	assert.Empty(t, reply.Error)
	assert.Equal(t, 1.0, reply.Score)

	// 非法值：回复错误，参数保持上一次的取值
	send(`{"fixpoint_formula":"Z"}`)
	reply = Reply{}
	readLine(&reply)
	assert.Equal(t, 0.0, reply.Score)
	assert.Contains(t, reply.Error, "invalid_input")

	send(`not json`)
	reply = Reply{}
	readLine(&reply)
	assert.NotEmpty(t, reply.Error)

	require.NoError(t, tuner.Close())
	require.NoError(t, <-done)

	assert.Equal(t, "InverseProduct", session.Params().Policy)
	assert.Equal(t, "C", session.Params().Formula)
}

func TestDecodeSnapshot(t *testing.T) {
	values, err := decodeSnapshot([]byte(`{"a":"x","b":0.25,"c":1,"d":null}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "x", "b": "0.25", "c": "1", "d": ""}, values)

	_, err = decodeSnapshot([]byte(`{"a":[1]}`))
	assert.True(t, errs.IsInvalidInput(err))
}

func TestRun_DialFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	err = Run(context.Background(), addr, NewSession(NewScorer(nil, nil), config.DefaultParameters(), nil))
	assert.True(t, errs.IsConnectionFailed(err))
}

func TestLoadScenarios(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}
	src := write("a.yaml", "name: a\ntables:\n  - name: t\n    columns:\n      - {name: id, datatype: int}\n")
	tgt := write("b.json", `{"name":"b","tables":[{"name":"t","columns":[{"name":"id","datatype":"int"}]}]}`)
	gt := write("gt.yaml", "- {source: t.id, target: t.id}\n")

	scenarios, err := LoadScenarios([]config.Scenario{{Name: "s", Source: src, Target: tgt, GroundTruth: gt}})
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.Equal(t, "a", scenarios[0].Source.Name)
	assert.Equal(t, "b", scenarios[0].Target.Name)
	assert.Len(t, scenarios[0].Truth, 1)

	_, err = LoadScenarios([]config.Scenario{{Name: "s", Source: filepath.Join(dir, "none.yaml"), Target: tgt}})
	assert.True(t, errs.IsNotFound(err))
}
