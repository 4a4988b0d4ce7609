package renderer

import (
	"encoding/json"
	"fmt"

	"schema-matcher/internal/flooding"
	"schema-matcher/internal/schema"
)

// MatrixDocument 相似度矩阵的 JSON 形式，行为源列，列为目标列
type MatrixDocument struct {
	Source        string          `json:"source"`
	Target        string          `json:"target"`
	SourceColumns []string        `json:"source_columns"`
	TargetColumns []string        `json:"target_columns"`
	Values        [][]float64     `json:"values"`
	Fingerprint   string          `json:"fingerprint"`
	Stats         *flooding.Stats `json:"stats,omitempty"`
}

// NewMatrixDocument 组装矩阵文档；res 可以为 nil
func NewMatrixDocument(source, target *schema.Schema, m *flooding.Matrix, res *flooding.Result) MatrixDocument {
	doc := MatrixDocument{
		Source:        source.Name,
		Target:        target.Name,
		SourceColumns: source.QualifiedNames(),
		TargetColumns: target.QualifiedNames(),
		Values:        m.Values(),
		Fingerprint:   fmt.Sprintf("%016x", m.Fingerprint()),
	}
	if res != nil {
		stats := res.Stats
		doc.Stats = &stats
	}
	return doc
}

// JSON 缩进格式的 JSON
func (d MatrixDocument) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
