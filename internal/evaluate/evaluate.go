// Package evaluate 用标准答案评估相似度矩阵
package evaluate

import (
	"os"

	"schema-matcher/internal/errs"
	"schema-matcher/internal/flooding"
	"schema-matcher/internal/schema"

	"go.yaml.in/yaml/v3"
)

// Correspondence 一条标准对应关系，两端均为 "table.column"
type Correspondence struct {
	Source string `yaml:"source" json:"source"`
	Target string `yaml:"target" json:"target"`
}

// GroundTruth 标准答案
type GroundTruth []Correspondence

// Metrics 评估指标
type Metrics struct {
	Precision     float64 `json:"precision"`
	Recall        float64 `json:"recall"`
	F1            float64 `json:"f1"`
	TruePositives int     `json:"true_positives"`
	Predicted     int     `json:"predicted"`
	Expected      int     `json:"expected"`
}

// LoadGroundTruth 读取 YAML/JSON 格式的标准答案
func LoadGroundTruth(path string) (GroundTruth, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrKindNotFound, "ground truth file not found", err)
		}
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "read ground truth file", err)
	}
	var gt GroundTruth
	if err := yaml.Unmarshal(data, &gt); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "parse ground truth", err)
	}
	return gt, nil
}

// Predict 每个源列取相似度最高的目标列（值须大于 0，并列取下标最小者），返回源行 -> 目标列
func Predict(m *flooding.Matrix) map[int]int {
	rows, cols := m.Dims()
	out := make(map[int]int)
	for i := 0; i < rows; i++ {
		best, bestValue := -1, 0.0
		for j := 0; j < cols; j++ {
			if v := m.At(i, j); v > bestValue {
				best, bestValue = j, v
			}
		}
		if best >= 0 {
			out[i] = best
		}
	}
	return out
}

// Score 计算 precision / recall / F1；标准答案中无法解析的列名忽略
func Score(m *flooding.Matrix, source, target *schema.Schema, truth GroundTruth) Metrics {
	srcIndex := indexOf(source)
	tgtIndex := indexOf(target)

	expected := make(map[[2]int]bool, len(truth))
	for _, c := range truth {
		i, ok1 := srcIndex[c.Source]
		j, ok2 := tgtIndex[c.Target]
		if ok1 && ok2 {
			expected[[2]int{i, j}] = true
		}
	}

	predicted := Predict(m)
	metrics := Metrics{Predicted: len(predicted), Expected: len(expected)}
	for i, j := range predicted {
		if expected[[2]int{i, j}] {
			metrics.TruePositives++
		}
	}

	if metrics.Predicted > 0 {
		metrics.Precision = float64(metrics.TruePositives) / float64(metrics.Predicted)
	}
	if metrics.Expected > 0 {
		metrics.Recall = float64(metrics.TruePositives) / float64(metrics.Expected)
	}
	if metrics.Precision+metrics.Recall > 0 {
		metrics.F1 = 2 * metrics.Precision * metrics.Recall / (metrics.Precision + metrics.Recall)
	}
	return metrics
}

func indexOf(s *schema.Schema) map[string]int {
	names := s.QualifiedNames()
	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}
	return index
}
