package schema

import (
	"os"

	"schema-matcher/internal/errs"

	"go.yaml.in/yaml/v3"
)

// LoadFile 读取 YAML 或 JSON 格式的模式文件
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrKindNotFound, "schema file not found", err)
		}
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "read schema file", err)
	}
	return Parse(data)
}

// Parse 解析模式文件内容（JSON 是 YAML 的子集）
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "parse schema", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate 校验表名、列名唯一
func (s *Schema) Validate() error {
	if s.Name == "" {
		return errs.New(errs.ErrKindInvalidInput, "schema name is empty")
	}
	tables := make(map[string]bool)
	for _, t := range s.Tables {
		if t.Name == "" {
			return errs.Newf(errs.ErrKindInvalidInput, "schema %s: table name is empty", s.Name)
		}
		if tables[t.Name] {
			return errs.Newf(errs.ErrKindInvalidInput, "schema %s: duplicate table %s", s.Name, t.Name)
		}
		tables[t.Name] = true

		columns := make(map[string]bool)
		for _, c := range t.Columns {
			if c.Name == "" {
				return errs.Newf(errs.ErrKindInvalidInput, "table %s: column name is empty", t.Name)
			}
			if columns[c.Name] {
				return errs.Newf(errs.ErrKindInvalidInput, "table %s: duplicate column %s", t.Name, c.Name)
			}
			columns[c.Name] = true
		}
	}
	return nil
}
