package flooding

import (
	"encoding/binary"
	"math"

	"schema-matcher/internal/schema"

	"github.com/cespare/xxhash/v2"
)

// Matrix 源列 × 目标列的相似度矩阵，行列顺序与 Schema.QualifiedNames 一致
type Matrix struct {
	rows, cols int
	data       []float64
}

// NewMatrix 按两个模式的列总数创建全零矩阵
func NewMatrix(source, target *schema.Schema) *Matrix {
	return NewMatrixSize(source.TotalColumns(), target.TotalColumns())
}

// NewMatrixSize 创建 rows × cols 的全零矩阵
func NewMatrixSize(rows, cols int) *Matrix {
	return &Matrix{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

// Dims 行数和列数
func (m *Matrix) Dims() (int, int) {
	return m.rows, m.cols
}

// At 取值
func (m *Matrix) At(i, j int) float64 {
	return m.data[i*m.cols+j]
}

// Set 赋值
func (m *Matrix) Set(i, j int, v float64) {
	m.data[i*m.cols+j] = v
}

// Row 第 i 行（共享底层存储）
func (m *Matrix) Row(i int) []float64 {
	return m.data[i*m.cols : (i+1)*m.cols]
}

// Values 拷贝为二维切片，用于序列化和渲染
func (m *Matrix) Values() [][]float64 {
	out := make([][]float64, m.rows)
	for i := range out {
		out[i] = append([]float64(nil), m.Row(i)...)
	}
	return out
}

// Zero 清零
func (m *Matrix) Zero() {
	for i := range m.data {
		m.data[i] = 0
	}
}

// NormalizeRows 每行除以该行最大值，全零行保持为零
func (m *Matrix) NormalizeRows() {
	for i := 0; i < m.rows; i++ {
		row := m.Row(i)
		hi := 0.0
		for _, v := range row {
			if v > hi {
				hi = v
			}
		}
		if hi <= 0 {
			continue
		}
		for j := range row {
			row[j] /= hi
		}
	}
}

// Fingerprint 对所有元素的 IEEE 754 位做 xxhash，位级相同的矩阵指纹相同
func (m *Matrix) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(m.rows)<<32|uint64(m.cols))
	d.Write(buf[:])
	for _, v := range m.data {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		d.Write(buf[:])
	}
	return d.Sum64()
}
