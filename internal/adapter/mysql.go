package adapter

import (
	"context"
	"database/sql"
	"fmt"

	"schema-matcher/internal/errs"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLAdapter MySQL 适配器
type MySQLAdapter struct {
	db     *sql.DB
	schema string
}

// NewMySQLAdapter 创建 MySQL 适配器
func NewMySQLAdapter(ctx context.Context, connStr, schema string) (*MySQLAdapter, error) {
	db, err := sql.Open("mysql", connStr)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid mysql dsn", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "mysql connection failed", err)
	}
	return &MySQLAdapter{db: db, schema: schema}, nil
}

// Introspect 获取元数据
func (a *MySQLAdapter) Introspect(ctx context.Context) (*SchemaMetadata, error) {
	tables, err := a.getTables(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tables {
		columns, err := a.getColumns(ctx, tables[i].Name)
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

func (a *MySQLAdapter) getTables(ctx context.Context) ([]Table, error) {
	query := `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME
	`
	rows, err := a.db.QueryContext(ctx, query, a.schema)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to list tables", err)
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		t := Table{Schema: a.schema}
		if err := rows.Scan(&t.Name); err != nil {
			return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to scan table", err)
		}
		tables = append(tables, t)
	}
	return tables, iterErr(rows.Err(), "failed to iterate tables")
}

func (a *MySQLAdapter) getColumns(ctx context.Context, table string) ([]Column, error) {
	query := `
		SELECT
			COLUMN_NAME,
			COLUMN_TYPE,
			COALESCE(CHARACTER_MAXIMUM_LENGTH, 0),
			IS_NULLABLE = 'YES',
			COLUMN_KEY = 'PRI'
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`
	rows, err := a.db.QueryContext(ctx, query, a.schema, table)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("failed to fetch columns of %s", table), err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.DataType, &c.Length, &c.Nullable, &c.IsPrimaryKey); err != nil {
			return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to scan column", err)
		}
		columns = append(columns, c)
	}
	return columns, iterErr(rows.Err(), "failed to iterate columns")
}

func (a *MySQLAdapter) getIndexes(ctx context.Context, b *indexBuilder) error {
	query := `
		SELECT
			TABLE_NAME,
			INDEX_NAME,
			COLUMN_NAME,
			NON_UNIQUE = 0
		FROM INFORMATION_SCHEMA.STATISTICS
		WHERE TABLE_SCHEMA = ? AND INDEX_NAME != 'PRIMARY'
		ORDER BY TABLE_NAME, INDEX_NAME, SEQ_IN_INDEX
	`
	rows, err := a.db.QueryContext(ctx, query, a.schema)
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

func (a *MySQLAdapter) getForeignKeys(ctx context.Context, b *indexBuilder) error {
	query := `
		SELECT
			CONSTRAINT_NAME,
			TABLE_NAME,
			COLUMN_NAME,
			REFERENCED_TABLE_NAME,
			REFERENCED_COLUMN_NAME
		FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ?
			AND REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY TABLE_NAME, CONSTRAINT_NAME, ORDINAL_POSITION
	`
	rows, err := a.db.QueryContext(ctx, query, a.schema)
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

// SampleRows 随机采样
func (a *MySQLAdapter) SampleRows(ctx context.Context, table string, columns []string, limit int) ([][]string, error) {
	if len(columns) == 0 || limit <= 0 {
		return make([][]string, len(columns)), nil
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY RAND() LIMIT %d",
		quoteAll(columns, mysqlIdent), mysqlIdent(table), limit)

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("failed to sample %s", table), err)
	}
	defer rows.Close()
	return scanSample(rows, len(columns))
}

// Close 关闭连接
func (a *MySQLAdapter) Close() error {
	return a.db.Close()
}

func mysqlIdent(name string) string {
	return quoteWith(name, "`", "`")
}
