// Package schema 关系模式的内存表示
package schema

// Column 列
type Column struct {
	Name     string   `yaml:"name" json:"name"`
	DataType string   `yaml:"datatype" json:"datatype"`
	Values   []string `yaml:"values,omitempty" json:"values,omitempty"` // 按行对齐的样本值
}

// Table 表
type Table struct {
	Name    string   `yaml:"name" json:"name"`
	Columns []Column `yaml:"columns" json:"columns"`
}

// Schema 模式
type Schema struct {
	Name         string       `yaml:"name" json:"name"`
	Tables       []Table      `yaml:"tables" json:"tables"`
	Dependencies Dependencies `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
}

// FunctionalDependency 函数依赖 Determinant -> Dependant
type FunctionalDependency struct {
	Table       string   `yaml:"table" json:"table"`
	Determinant []string `yaml:"determinant" json:"determinant"`
	Dependant   string   `yaml:"dependant" json:"dependant"`
}

// UniqueColumnCombination 唯一列组合
type UniqueColumnCombination struct {
	Table   string   `yaml:"table" json:"table"`
	Columns []string `yaml:"columns" json:"columns"`
}

// InclusionDependency 包含依赖 DependentColumns ⊆ ReferencedColumns
type InclusionDependency struct {
	DependentTable    string   `yaml:"dependent_table" json:"dependent_table"`
	DependentColumns  []string `yaml:"dependent_columns" json:"dependent_columns"`
	ReferencedTable   string   `yaml:"referenced_table" json:"referenced_table"`
	ReferencedColumns []string `yaml:"referenced_columns" json:"referenced_columns"`
}

// Dependencies 上游发现的结构约束候选
type Dependencies struct {
	Functional []FunctionalDependency    `yaml:"functional,omitempty" json:"functional,omitempty"`
	Unique     []UniqueColumnCombination `yaml:"unique,omitempty" json:"unique,omitempty"`
	Inclusion  []InclusionDependency     `yaml:"inclusion,omitempty" json:"inclusion,omitempty"`
}

// Empty 是否没有任何候选
func (d Dependencies) Empty() bool {
	return len(d.Functional) == 0 && len(d.Unique) == 0 && len(d.Inclusion) == 0
}

// Table 按名称查找表
func (s *Schema) Table(name string) (*Table, bool) {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i], true
		}
	}
	return nil, false
}

// TotalColumns 所有表的列总数
func (s *Schema) TotalColumns() int {
	total := 0
	for _, t := range s.Tables {
		total += len(t.Columns)
	}
	return total
}

// Offsets 每张表第一列在相似度矩阵中的行/列偏移
func (s *Schema) Offsets() []int {
	offsets := make([]int, len(s.Tables))
	offset := 0
	for i, t := range s.Tables {
		offsets[i] = offset
		offset += len(t.Columns)
	}
	return offsets
}

// QualifiedNames 按矩阵顺序返回 "table.column"
func (s *Schema) QualifiedNames() []string {
	names := make([]string, 0, s.TotalColumns())
	for _, t := range s.Tables {
		for _, c := range t.Columns {
			names = append(names, t.Name+"."+c.Name)
		}
	}
	return names
}

// ColumnIndex 列在表中的位置，不存在返回 -1
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// RowCount 行数，取最长列的样本数
func (t *Table) RowCount() int {
	rows := 0
	for _, c := range t.Columns {
		if len(c.Values) > rows {
			rows = len(c.Values)
		}
	}
	return rows
}

// Value 第 row 行第 col 列的值，越界返回空串
func (t *Table) Value(col, row int) string {
	values := t.Columns[col].Values
	if row >= len(values) {
		return ""
	}
	return values[row]
}
