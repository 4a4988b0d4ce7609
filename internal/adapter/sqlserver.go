package adapter

import (
	"context"
	"database/sql"
	"fmt"

	"schema-matcher/internal/errs"

	_ "github.com/denisenkom/go-mssqldb"
)

// SQLServerAdapter SQL Server 适配器
type SQLServerAdapter struct {
	db *sql.DB
}

// NewSQLServerAdapter 创建 SQL Server 适配器
func NewSQLServerAdapter(ctx context.Context, connStr string) (*SQLServerAdapter, error) {
	db, err := sql.Open("sqlserver", connStr)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid sqlserver dsn", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "sqlserver connection failed", err)
	}
	return &SQLServerAdapter{db: db}, nil
}

// Introspect 获取元数据
func (a *SQLServerAdapter) Introspect(ctx context.Context) (*SchemaMetadata, error) {
	tables, err := a.getTables(ctx)
	if err != nil {
		return nil, err
	}

	for i := range tables {
		columns, err := a.getColumns(ctx, tables[i].Schema, tables[i].Name)
		if err != nil {
			return nil, err
		}
		tables[i].Columns = columns
	}

	b := newIndexBuilder()
	if err := a.getIndexes(ctx, b); err != nil {
		return nil, err
	}
	if err := a.getForeignKeys(ctx, b); err != nil {
		return nil, err
	}
	return &SchemaMetadata{Tables: tables, Indexes: b.Indexes(), ForeignKeys: b.ForeignKeys()}, nil
}

func (a *SQLServerAdapter) getTables(ctx context.Context) ([]Table, error) {
	query := `
		SELECT TABLE_SCHEMA, TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_SCHEMA, TABLE_NAME
	`
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to list tables", err)
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.Schema, &t.Name); err != nil {
			return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to scan table", err)
		}
		tables = append(tables, t)
	}
	return tables, iterErr(rows.Err(), "failed to iterate tables")
}

func (a *SQLServerAdapter) getColumns(ctx context.Context, schema, table string) ([]Column, error) {
	query := `
		SELECT
			c.COLUMN_NAME,
			c.DATA_TYPE,
			COALESCE(c.CHARACTER_MAXIMUM_LENGTH, 0) as LENGTH,
			CASE WHEN c.IS_NULLABLE = 'YES' THEN 1 ELSE 0 END as NULLABLE,
			CASE WHEN pk.COLUMN_NAME IS NOT NULL THEN 1 ELSE 0 END as IS_PK
		FROM INFORMATION_SCHEMA.COLUMNS c
		LEFT JOIN (
			SELECT ku.TABLE_SCHEMA, ku.TABLE_NAME, ku.COLUMN_NAME
			FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
			JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE ku
				ON tc.CONSTRAINT_NAME = ku.CONSTRAINT_NAME
			WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
		) pk ON c.TABLE_SCHEMA = pk.TABLE_SCHEMA
			AND c.TABLE_NAME = pk.TABLE_NAME
			AND c.COLUMN_NAME = pk.COLUMN_NAME
		WHERE c.TABLE_SCHEMA = @p1 AND c.TABLE_NAME = @p2
		ORDER BY c.ORDINAL_POSITION
	`
	rows, err := a.db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("failed to fetch columns of %s.%s", schema, table), err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var c Column
		var nullable, isPK int
		if err := rows.Scan(&c.Name, &c.DataType, &c.Length, &nullable, &isPK); err != nil {
			return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to scan column", err)
		}
		c.Nullable = nullable == 1
		c.IsPrimaryKey = isPK == 1
		columns = append(columns, c)
	}
	return columns, iterErr(rows.Err(), "failed to iterate columns")
}

func (a *SQLServerAdapter) getIndexes(ctx context.Context, b *indexBuilder) error {
	query := `
		SELECT
			t.name as TABLE_NAME,
			i.name as INDEX_NAME,
			c.name as COLUMN_NAME,
			i.is_unique
		FROM sys.indexes i
		JOIN sys.index_columns ic ON i.object_id = ic.object_id AND i.index_id = ic.index_id
		JOIN sys.columns c ON ic.object_id = c.object_id AND ic.column_id = c.column_id
		JOIN sys.tables t ON i.object_id = t.object_id
		WHERE i.is_primary_key = 0 AND ic.is_included_column = 0
		ORDER BY t.name, i.name, ic.key_ordinal
	`
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, "failed to fetch indexes", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, indexName, columnName string
		var unique bool
		if err := rows.Scan(&tableName, &indexName, &columnName, &unique); err != nil {
			return errs.Wrap(errs.ErrKindQueryFailed, "failed to scan index", err)
		}
		b.addIndex(tableName, indexName, columnName, unique)
	}
	return iterErr(rows.Err(), "failed to iterate indexes")
}

func (a *SQLServerAdapter) getForeignKeys(ctx context.Context, b *indexBuilder) error {
	query := `
		SELECT
			fk.name as CONSTRAINT_NAME,
			OBJECT_NAME(fk.parent_object_id) as from_table,
			COL_NAME(fkc.parent_object_id, fkc.parent_column_id) as from_column,
			OBJECT_NAME(fk.referenced_object_id) as to_table,
			COL_NAME(fkc.referenced_object_id, fkc.referenced_column_id) as to_column
		FROM sys.foreign_keys fk
		JOIN sys.foreign_key_columns fkc ON fk.object_id = fkc.constraint_object_id
		ORDER BY from_table, fk.name, fkc.constraint_column_id
	`
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, "failed to fetch foreign keys", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, fromTable, fromColumn, toTable, toColumn string
		if err := rows.Scan(&name, &fromTable, &fromColumn, &toTable, &toColumn); err != nil {
			return errs.Wrap(errs.ErrKindQueryFailed, "failed to scan foreign key", err)
		}
		b.addForeignKey(name, fromTable, fromColumn, toTable, toColumn)
	}
	return iterErr(rows.Err(), "failed to iterate foreign keys")
}

// SampleRows 按 NEWID() 随机取前 limit 行
func (a *SQLServerAdapter) SampleRows(ctx context.Context, table string, columns []string, limit int) ([][]string, error) {
	if len(columns) == 0 || limit <= 0 {
		return make([][]string, len(columns)), nil
	}
	query := fmt.Sprintf("SELECT TOP %d %s FROM %s ORDER BY NEWID()",
		limit, quoteAll(columns, sqlServerIdent), sqlServerIdent(table))

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("failed to sample %s", table), err)
	}
	defer rows.Close()
	return scanSample(rows, len(columns))
}

// Close 关闭连接
func (a *SQLServerAdapter) Close() error {
	return a.db.Close()
}

func sqlServerIdent(name string) string {
	return quoteWith(name, "[", "]")
}
