package flooding

import (
	"schema-matcher/internal/errs"
	"schema-matcher/internal/graph"
)

// Formula 不动点更新公式
//
// Next 只读 sigma0 与 sigmaI，in 为指向第 p 个节点对的传播边；没有边的邻居系数视为 0。
type Formula interface {
	Name() string
	Next(p int, sigma0, sigmaI []float64, in []graph.Incoming) float64
}

// BasicFormula σ_i[p] + Σ σ_i[n]·c(n→p)
type BasicFormula struct{}

// FormulaA σ_0[p] + Σ σ_i[n]·c(n→p)
type FormulaA struct{}

// FormulaB Σ (σ_0[n]+σ_i[n])·c(n→p)
type FormulaB struct{}

// FormulaC σ_0[p] + σ_i[p] + Σ (σ_0[n]+σ_i[n])·c(n→p)
type FormulaC struct{}

func (BasicFormula) Name() string { return "BASIC" }
func (FormulaA) Name() string     { return "A" }
func (FormulaB) Name() string     { return "B" }
func (FormulaC) Name() string     { return "C" }

func (BasicFormula) Next(p int, _, sigmaI []float64, in []graph.Incoming) float64 {
	return sigmaI[p] + flow(sigmaI, in)
}

func (FormulaA) Next(p int, sigma0, sigmaI []float64, in []graph.Incoming) float64 {
	return sigma0[p] + flow(sigmaI, in)
}

func (FormulaB) Next(_ int, sigma0, sigmaI []float64, in []graph.Incoming) float64 {
	return flowBoth(sigma0, sigmaI, in)
}

func (FormulaC) Next(p int, sigma0, sigmaI []float64, in []graph.Incoming) float64 {
	return sigma0[p] + sigmaI[p] + flowBoth(sigma0, sigmaI, in)
}

// flow Σ sigma[n]·c(n→p)
func flow(sigma []float64, in []graph.Incoming) float64 {
	sum := 0.0
	for _, e := range in {
		sum += sigma[e.From] * e.Coefficient
	}
	return sum
}

// flowBoth Σ (sigma0[n]+sigmaI[n])·c(n→p)
func flowBoth(sigma0, sigmaI []float64, in []graph.Incoming) float64 {
	sum := 0.0
	for _, e := range in {
		sum += (sigma0[e.From] + sigmaI[e.From]) * e.Coefficient
	}
	return sum
}

// FormulaNames 所有公式名称
var FormulaNames = []string{"BASIC", "A", "B", "C"}

// ParseFormula 按名称选择公式，未知名称返回 invalid_input
func ParseFormula(name string) (Formula, error) {
	switch name {
	case "BASIC":
		return BasicFormula{}, nil
	case "A":
		return FormulaA{}, nil
	case "B":
		return FormulaB{}, nil
	case "C":
		return FormulaC{}, nil
	}
	return nil, errs.Newf(errs.ErrKindInvalidInput, "unknown fixpoint formula %q", name)
}
