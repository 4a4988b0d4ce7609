package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"schema-matcher/internal/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgDefaultSchema   = "public"
	pgMaxConns        = 4
	pgMaxConnIdleTime = 5 * time.Second
)

// PostgreSQL SQLSTATE
const (
	pgErrConnectionFailure = "08006"
	pgErrUndefinedTable    = "42P01"
	pgErrUndefinedColumn   = "42703"
)

// PostgresAdapter PostgreSQL 适配器
type PostgresAdapter struct {
	pool   *pgxpool.Pool
	schema string
}

// NewPostgresAdapter 创建 PostgreSQL 适配器；schema 为空时使用 public
func NewPostgresAdapter(ctx context.Context, dsn, schema string) (*PostgresAdapter, error) {
	if schema == "" {
		schema = pgDefaultSchema
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid postgres dsn", err)
	}
	cfg.MaxConns = pgMaxConns
	cfg.MaxConnIdleTime = pgMaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "postgres connection failed", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "postgres connection failed", err)
	}
	return &PostgresAdapter{pool: pool, schema: schema}, nil
}

// Introspect 获取元数据
func (a *PostgresAdapter) Introspect(ctx context.Context) (*SchemaMetadata, error) {
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

func (a *PostgresAdapter) getTables(ctx context.Context) ([]Table, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`
	rows, err := a.pool.Query(ctx, query, a.schema)
	if err != nil {
		return nil, pgError("failed to list tables", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, pgError("failed to scan tables", err)
	}

	tables := make([]Table, len(names))
	for i, n := range names {
		tables[i] = Table{Schema: a.schema, Name: n}
	}
	return tables, nil
}

func (a *PostgresAdapter) getColumns(ctx context.Context, table string) ([]Column, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			COALESCE(c.character_maximum_length, 0)::int,
			c.is_nullable = 'YES',
			EXISTS (
				SELECT 1
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage ku
					ON tc.constraint_schema = ku.constraint_schema
					AND tc.constraint_name = ku.constraint_name
				WHERE tc.constraint_type = 'PRIMARY KEY'
					AND ku.table_schema = c.table_schema
					AND ku.table_name = c.table_name
					AND ku.column_name = c.column_name
			)
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`
	rows, err := a.pool.Query(ctx, query, a.schema, table)
	if err != nil {
		return nil, pgError(fmt.Sprintf("failed to fetch columns of %s", table), err)
	}
	columns, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Column, error) {
		var c Column
		err := row.Scan(&c.Name, &c.DataType, &c.Length, &c.Nullable, &c.IsPrimaryKey)
		return c, err
	})
	if err != nil {
		return nil, pgError("failed to scan column", err)
	}
	return columns, nil
}

func (a *PostgresAdapter) getIndexes(ctx context.Context, b *indexBuilder) error {
	query := `
		SELECT
			t.relname,
			i.relname,
			att.attname,
			ix.indisunique
		FROM pg_index ix
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		CROSS JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord)
		JOIN pg_attribute att ON att.attrelid = t.oid AND att.attnum = k.attnum
		WHERE n.nspname = $1 AND NOT ix.indisprimary
		ORDER BY t.relname, i.relname, k.ord
	`
	rows, err := a.pool.Query(ctx, query, a.schema)
	if err != nil {
		return pgError("failed to fetch indexes", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, indexName, columnName string
		var unique bool
		if err := rows.Scan(&tableName, &indexName, &columnName, &unique); err != nil {
			return pgError("failed to scan index", err)
		}
		b.addIndex(tableName, indexName, columnName, unique)
	}
	return pgError("failed to iterate indexes", rows.Err())
}

func (a *PostgresAdapter) getForeignKeys(ctx context.Context, b *indexBuilder) error {
	query := `
		SELECT
			con.conname,
			src.relname,
			sa.attname,
			dst.relname,
			da.attname
		FROM pg_constraint con
		JOIN pg_class src ON src.oid = con.conrelid
		JOIN pg_class dst ON dst.oid = con.confrelid
		JOIN pg_namespace n ON n.oid = src.relnamespace
		CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(src_att, dst_att, ord)
		JOIN pg_attribute sa ON sa.attrelid = con.conrelid AND sa.attnum = k.src_att
		JOIN pg_attribute da ON da.attrelid = con.confrelid AND da.attnum = k.dst_att
		WHERE con.contype = 'f' AND n.nspname = $1
		ORDER BY src.relname, con.conname, k.ord
	`
	rows, err := a.pool.Query(ctx, query, a.schema)
	if err != nil {
		return pgError("failed to fetch foreign keys", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, fromTable, fromColumn, toTable, toColumn string
		if err := rows.Scan(&name, &fromTable, &fromColumn, &toTable, &toColumn); err != nil {
			return pgError("failed to scan foreign key", err)
		}
		b.addForeignKey(name, fromTable, fromColumn, toTable, toColumn)
	}
	return pgError("failed to iterate foreign keys", rows.Err())
}

// SampleRows 随机采样，所有列以文本形式读取
func (a *PostgresAdapter) SampleRows(ctx context.Context, table string, columns []string, limit int) ([][]string, error) {
	out := make([][]string, len(columns))
	if len(columns) == 0 || limit <= 0 {
		return out, nil
	}

	selects := make([]string, len(columns))
	for i, c := range columns {
		selects[i] = pgx.Identifier{c}.Sanitize() + "::text"
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY random() LIMIT %d",
		strings.Join(selects, ", "), pgx.Identifier{a.schema, table}.Sanitize(), limit)

	rows, err := a.pool.Query(ctx, query)
	if err != nil {
		return nil, pgError(fmt.Sprintf("failed to sample %s", table), err)
	}
	defer rows.Close()

	cells := make([]*string, len(columns))
	dest := make([]any, len(columns))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, pgError("scan sampled row", err)
		}
		for i, c := range cells {
			v := ""
			if c != nil {
				v = *c
			}
			out[i] = append(out[i], v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, pgError("iterate sampled rows", err)
	}
	return out, nil
}

// Close 关闭连接池
func (a *PostgresAdapter) Close() error {
	a.pool.Close()
	return nil
}

// pgError 按 SQLSTATE 归类 pgx 错误
func pgError(msg string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrConnectionFailure:
			return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
		case pgErrUndefinedTable, pgErrUndefinedColumn:
			return errs.Wrap(errs.ErrKindNotFound, msg, err)
		}
	}
	return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
}
