package adapter

import (
	"context"

	"schema-matcher/internal/errs"
	"schema-matcher/internal/logger"
	"schema-matcher/internal/schema"
)

// LoadSchema 读取在线数据库并转为 schema.Schema
//
// 每张表采样至多 sample 行（sample <= 0 时不采样）。声明的主键、唯一索引作为唯一列组合候选，
// 外键作为包含依赖候选；它们和离线发现的候选一样要经过依赖过滤。
func LoadSchema(ctx context.Context, a DBAdapter, name string, sample int) (*schema.Schema, error) {
	log := logger.FromContext(ctx)
	meta, err := a.Introspect(ctx)
	if err != nil {
		return nil, err
	}

	s := &schema.Schema{Name: name, Tables: make([]schema.Table, 0, len(meta.Tables))}
	known := make(map[string]map[string]bool, len(meta.Tables))
	for _, t := range meta.Tables {
		if _, dup := known[t.Name]; dup {
			// 不同 schema 下的同名表只保留第一张
			log.DebugWith("duplicate table skipped", map[string]interface{}{"schema": t.Schema, "table": t.Name})
			continue
		}
		table, err := loadTable(ctx, a, t, sample)
		if err != nil {
			return nil, err
		}
		s.Tables = append(s.Tables, table)

		cols := make(map[string]bool, len(t.Columns))
		for _, c := range t.Columns {
			cols[c.Name] = true
		}
		known[t.Name] = cols

		if pk := primaryKey(t); len(pk) > 0 {
			s.Dependencies.Unique = append(s.Dependencies.Unique, schema.UniqueColumnCombination{Table: t.Name, Columns: pk})
		}
	}

	resolvable := func(table string, columns []string) bool {
		cols, ok := known[table]
		if !ok || len(columns) == 0 {
			return false
		}
		for _, c := range columns {
			if !cols[c] {
				return false
			}
		}
		return true
	}

	for _, idx := range meta.Indexes {
		if idx.Unique && resolvable(idx.Table, idx.Columns) {
			s.Dependencies.Unique = append(s.Dependencies.Unique, schema.UniqueColumnCombination{Table: idx.Table, Columns: idx.Columns})
		}
	}
	for _, fk := range meta.ForeignKeys {
		if len(fk.FromColumns) != len(fk.ToColumns) {
			log.DebugWith("foreign key skipped", map[string]interface{}{"name": fk.Name, "table": fk.FromTable})
			continue
		}
		if resolvable(fk.FromTable, fk.FromColumns) && resolvable(fk.ToTable, fk.ToColumns) {
			s.Dependencies.Inclusion = append(s.Dependencies.Inclusion, schema.InclusionDependency{
				DependentTable:    fk.FromTable,
				DependentColumns:  fk.FromColumns,
				ReferencedTable:   fk.ToTable,
				ReferencedColumns: fk.ToColumns,
			})
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	log.InfoWith("schema loaded", map[string]interface{}{
		"schema":    name,
		"tables":    len(s.Tables),
		"columns":   s.TotalColumns(),
		"unique":    len(s.Dependencies.Unique),
		"inclusion": len(s.Dependencies.Inclusion),
	})
	return s, nil
}

func loadTable(ctx context.Context, a DBAdapter, t Table, sample int) (schema.Table, error) {
	table := schema.Table{Name: t.Name, Columns: make([]schema.Column, len(t.Columns))}
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		table.Columns[i] = schema.Column{Name: c.Name, DataType: c.DataType}
		names[i] = c.Name
	}
	if sample <= 0 || len(names) == 0 {
		return table, nil
	}

	values, err := a.SampleRows(ctx, t.Name, names, sample)
	if err != nil {
		return schema.Table{}, err
	}
	if len(values) != len(names) {
		return schema.Table{}, errs.Newf(errs.ErrKindQueryFailed, "sample of %s returned %d columns, want %d", t.Name, len(values), len(names))
	}
	for i := range table.Columns {
		table.Columns[i].Values = values[i]
	}
	return table, nil
}

func primaryKey(t Table) []string {
	var pk []string
	for _, c := range t.Columns {
		if c.IsPrimaryKey {
			pk = append(pk, c.Name)
		}
	}
	return pk
}
