// Package adapter 在线数据库的结构读取与行采样
package adapter

import (
	"context"
	"sort"
	"strings"

	"schema-matcher/internal/errs"
)

// DBAdapter 数据库适配器接口
type DBAdapter interface {
	// Introspect 读取表、列、索引和外键
	Introspect(ctx context.Context) (*SchemaMetadata, error)

	// SampleRows 采样至多 limit 行，按列返回，第 i 个切片对应 columns[i]；NULL 读作空串
	SampleRows(ctx context.Context, table string, columns []string, limit int) ([][]string, error)

	// Close 关闭连接
	Close() error
}

// SchemaMetadata 元数据
type SchemaMetadata struct {
	Tables      []Table
	Indexes     []Index
	ForeignKeys []ForeignKey
}

// Table 表信息
type Table struct {
	Schema  string
	Name    string
	Columns []Column
}

// Column 列信息
type Column struct {
	Name         string
	DataType     string
	Length       int
	Nullable     bool
	IsPrimaryKey bool
}

// Index 唯一或普通索引（不含主键）
type Index struct {
	Table   string
	Name    string
	Columns []string
	Unique  bool
}

// ForeignKey 外键，列按约束内顺序对齐
type ForeignKey struct {
	Name        string
	FromTable   string
	FromColumns []string
	ToTable     string
	ToColumns   []string
}

// Driver 支持的数据库类型
const (
	DriverMySQL     = "mysql"
	DriverSQLServer = "sqlserver"
	DriverPostgres  = "postgres"
)

// Open 按类型创建适配器；schemaName 对 MySQL 必填，对 PostgreSQL 缺省为 public
func Open(ctx context.Context, driver, dsn, schemaName string) (DBAdapter, error) {
	var (
		a   DBAdapter
		err error
	)
	switch strings.ToLower(driver) {
	case DriverMySQL:
		if schemaName == "" {
			return nil, errs.New(errs.ErrKindInvalidInput, "mysql requires a schema name")
		}
		a, err = NewMySQLAdapter(ctx, dsn, schemaName)
	case DriverSQLServer, "mssql":
		a, err = NewSQLServerAdapter(ctx, dsn)
	case DriverPostgres, "postgresql", "pg":
		a, err = NewPostgresAdapter(ctx, dsn, schemaName)
	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "unsupported database type: %s", driver)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// indexBuilder 按 表.名称 归并多列索引/外键的逐列结果行，保持首次出现顺序
type indexBuilder struct {
	indexOrder []string
	fkOrder    []string
	indexes    map[string]*Index
	fks        map[string]*ForeignKey
}

func newIndexBuilder() *indexBuilder {
	return &indexBuilder{indexes: make(map[string]*Index), fks: make(map[string]*ForeignKey)}
}

func (b *indexBuilder) addIndex(table, name, column string, unique bool) {
	key := table + "." + name
	if idx, ok := b.indexes[key]; ok {
		idx.Columns = append(idx.Columns, column)
		return
	}
	b.indexOrder = append(b.indexOrder, key)
	b.indexes[key] = &Index{Table: table, Name: name, Columns: []string{column}, Unique: unique}
}

func (b *indexBuilder) addForeignKey(name, fromTable, fromColumn, toTable, toColumn string) {
	key := fromTable + "." + name
	if fk, ok := b.fks[key]; ok {
		fk.FromColumns = append(fk.FromColumns, fromColumn)
		fk.ToColumns = append(fk.ToColumns, toColumn)
		return
	}
	b.fkOrder = append(b.fkOrder, key)
	b.fks[key] = &ForeignKey{
		Name:        name,
		FromTable:   fromTable,
		FromColumns: []string{fromColumn},
		ToTable:     toTable,
		ToColumns:   []string{toColumn},
	}
}

// Indexes 按 表、名称 排序
func (b *indexBuilder) Indexes() []Index {
	out := make([]Index, 0, len(b.indexes))
	for _, key := range b.indexOrder {
		out = append(out, *b.indexes[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Table != out[j].Table {
			return out[i].Table < out[j].Table
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ForeignKeys 按 表、约束名 排序
func (b *indexBuilder) ForeignKeys() []ForeignKey {
	out := make([]ForeignKey, 0, len(b.fks))
	for _, key := range b.fkOrder {
		out = append(out, *b.fks[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FromTable != out[j].FromTable {
			return out[i].FromTable < out[j].FromTable
		}
		return out[i].Name < out[j].Name
	})
	return out
}
