// Package config 匹配参数（可调优）与运行配置文件
package config

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"schema-matcher/internal/errs"
	"schema-matcher/internal/graph"
)

// 参数键，与调优协议中的键一致
const (
	KeyPolicy       = "propagation_coefficient_policy"
	KeyFormula      = "fixpoint_formula"
	KeyFDThreshold  = "fd_threshold"
	KeyUCCThreshold = "ucc_threshold"
	KeyINDThreshold = "ind_threshold"
	KeyLabelWeight  = "label_score_weight"
)

// Parameters 匹配参数
//
// 可调优字段都以字符串保存，与调优协议的取值一一对应；空阈值表示关闭该类依赖。
type Parameters struct {
	Policy       string `yaml:"propagation_coefficient_policy" json:"propagation_coefficient_policy"`
	Formula      string `yaml:"fixpoint_formula" json:"fixpoint_formula"`
	FDThreshold  string `yaml:"fd_threshold" json:"fd_threshold"`
	UCCThreshold string `yaml:"ucc_threshold" json:"ucc_threshold"`
	INDThreshold string `yaml:"ind_threshold" json:"ind_threshold"`
	LabelWeight  string `yaml:"label_score_weight" json:"label_score_weight"`

	MaxIterations int     `yaml:"max_iterations" json:"max_iterations"`
	Epsilon       float64 `yaml:"epsilon" json:"epsilon"`
}

// DefaultParameters 默认参数
func DefaultParameters() Parameters {
	return Parameters{
		Policy:        "InverseAverage",
		Formula:       "C",
		LabelWeight:   "0.5",
		MaxIterations: 100,
		Epsilon:       1e-3,
	}
}

// Thresholds 各类依赖的过滤阈值，nil 表示关闭
type Thresholds struct {
	FD  *float64
	UCC *float64
	IND *float64
}

// Enabled 是否至少开启了一类依赖
func (t Thresholds) Enabled() bool {
	return t.FD != nil || t.UCC != nil || t.IND != nil
}

type field struct {
	get      func(p *Parameters) *string
	possible []string
	check    func(v string) error
}

var (
	policyValues  = graph.PolicyNames
	formulaValues = []string{"BASIC", "A", "B", "C"}
	unitGrid      = []string{"0.0", "0.1", "0.2", "0.3", "0.4", "0.5", "0.6", "0.7", "0.8", "0.9", "1.0"}
)

// fields 可调优参数表
var fields = map[string]field{
	KeyPolicy: {
		get:      func(p *Parameters) *string { return &p.Policy },
		possible: policyValues,
		check:    oneOf(policyValues),
	},
	KeyFormula: {
		get:      func(p *Parameters) *string { return &p.Formula },
		possible: formulaValues,
		check:    oneOf(formulaValues),
	},
	KeyFDThreshold: {
		get:      func(p *Parameters) *string { return &p.FDThreshold },
		possible: append([]string{""}, unitGrid...),
		check:    optionalUnit,
	},
	KeyUCCThreshold: {
		get:      func(p *Parameters) *string { return &p.UCCThreshold },
		possible: append([]string{""}, unitGrid...),
		check:    optionalUnit,
	},
	KeyINDThreshold: {
		get:      func(p *Parameters) *string { return &p.INDThreshold },
		possible: append([]string{""}, unitGrid...),
		check:    optionalUnit,
	},
	KeyLabelWeight: {
		get:      func(p *Parameters) *string { return &p.LabelWeight },
		possible: unitGrid,
		check:    unit,
	},
}

// Keys 所有参数键，按字母排序
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get 当前取值
func (p Parameters) Get() map[string]string {
	out := make(map[string]string, len(fields))
	for k, f := range fields {
		out[k] = *f.get(&p)
	}
	return out
}

// Set 应用一组取值；任何键或值不合法时返回 invalid_input，且不修改 p
func (p *Parameters) Set(values map[string]string) error {
	next := *p
	for _, k := range sortedKeys(values) {
		f, ok := fields[k]
		if !ok {
			return errs.Newf(errs.ErrKindInvalidInput, "unknown parameter %q", k)
		}
		v := values[k]
		if err := f.check(v); err != nil {
			return errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("parameter %s", k), err)
		}
		*f.get(&next) = v
	}
	*p = next
	return nil
}

// PossibleValues 每个参数的候选取值
func PossibleValues() map[string][]string {
	out := make(map[string][]string, len(fields))
	for k, f := range fields {
		out[k] = append([]string(nil), f.possible...)
	}
	return out
}

// Validate 检查所有字段
func (p Parameters) Validate() error {
	for _, k := range Keys() {
		if err := fields[k].check(*fields[k].get(&p)); err != nil {
			return errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("parameter %s", k), err)
		}
	}
	if p.MaxIterations < 1 {
		return errs.Newf(errs.ErrKindInvalidInput, "max_iterations must be positive, got %d", p.MaxIterations)
	}
	if !(p.Epsilon > 0) {
		return errs.Newf(errs.ErrKindInvalidInput, "epsilon must be positive, got %v", p.Epsilon)
	}
	return nil
}

// Thresholds 解析阈值
func (p Parameters) Thresholds() (Thresholds, error) {
	var t Thresholds
	var err error
	if t.FD, err = parseOptional(p.FDThreshold); err != nil {
		return t, errs.Wrap(errs.ErrKindInvalidInput, KeyFDThreshold, err)
	}
	if t.UCC, err = parseOptional(p.UCCThreshold); err != nil {
		return t, errs.Wrap(errs.ErrKindInvalidInput, KeyUCCThreshold, err)
	}
	if t.IND, err = parseOptional(p.INDThreshold); err != nil {
		return t, errs.Wrap(errs.ErrKindInvalidInput, KeyINDThreshold, err)
	}
	return t, nil
}

// Weight 标签相似度权重
func (p Parameters) Weight() (float64, error) {
	w, err := parseUnit(p.LabelWeight)
	if err != nil {
		return 0, errs.Wrap(errs.ErrKindInvalidInput, KeyLabelWeight, err)
	}
	return w, nil
}

func oneOf(allowed []string) func(string) error {
	return func(v string) error {
		for _, a := range allowed {
			if v == a {
				return nil
			}
		}
		return errs.Newf(errs.ErrKindInvalidInput, "value %q not in %v", v, allowed)
	}
}

func unit(v string) error {
	_, err := parseUnit(v)
	return err
}

func optionalUnit(v string) error {
	_, err := parseOptional(v)
	return err
}

func parseOptional(v string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	f, err := parseUnit(v)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func parseUnit(v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errs.Newf(errs.ErrKindInvalidInput, "value %q is not a number", v)
	}
	if math.IsNaN(f) || f < 0 || f > 1 {
		return 0, errs.Newf(errs.ErrKindInvalidInput, "value %q outside [0,1]", v)
	}
	return f, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
