package graph

import (
	"fmt"

	"schema-matcher/internal/errs"
)

// Label 边的角色
type Label string

const (
	LabelType        Label = "type"
	LabelName        Label = "name"
	LabelTable       Label = "table"
	LabelColumn      Label = "column"
	LabelDataType    Label = "datatype"
	LabelDeterminant Label = "determinant"
	LabelDependant   Label = "dependant"
	LabelUnique      Label = "unique"
	LabelNotUnique   Label = "notunique"
	LabelReferenced  Label = "referenced"
)

// LabelEdge 模式图中的有向带标签边，允许平行边
type LabelEdge struct {
	From  Handle
	To    Handle
	Label Label
}

// PairEdge 连通图中的有向带标签边，保留两侧节点以便按侧读取度数
type PairEdge struct {
	FromA, FromB Handle // 源节点对：A 侧、B 侧
	ToA, ToB     Handle // 目标节点对：A 侧、B 侧
	Label        Label
}

// Source 源节点对
func (e PairEdge) Source() NodePair {
	return Pair(e.FromA, e.FromB)
}

// Target 目标节点对
func (e PairEdge) Target() NodePair {
	return Pair(e.ToA, e.ToB)
}

// CoefficientEdge 传播图中的有向边，系数在 [0,1]
type CoefficientEdge struct {
	From        NodePair
	To          NodePair
	Coefficient float64
}

// NewCoefficientEdge 创建传播边，系数越界返回 invalid_input 错误
func NewCoefficientEdge(from, to NodePair, coefficient float64) (CoefficientEdge, error) {
	if !(coefficient >= 0 && coefficient <= 1) {
		return CoefficientEdge{}, errs.New(errs.ErrKindInvalidInput,
			fmt.Sprintf("propagation coefficient %v outside [0,1]", coefficient))
	}
	return CoefficientEdge{From: from, To: to, Coefficient: coefficient}, nil
}
