package adapter

import (
	"bytes"
	"context"
	"testing"

	"schema-matcher/internal/errs"
	"schema-matcher/internal/logger"
	"schema-matcher/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdapter 内存中的数据库
type fakeAdapter struct {
	meta   *SchemaMetadata
	rows   map[string][][]string
	limits map[string]int
	failOn string
}

func (f *fakeAdapter) Introspect(context.Context) (*SchemaMetadata, error) {
	return f.meta, nil
}

func (f *fakeAdapter) SampleRows(_ context.Context, table string, columns []string, limit int) ([][]string, error) {
	if table == f.failOn {
		return nil, errs.New(errs.ErrKindQueryFailed, "boom")
	}
	if f.limits == nil {
		f.limits = make(map[string]int)
	}
	f.limits[table] = limit
	data := f.rows[table]
	out := make([][]string, len(columns))
	for i := range columns {
		if i < len(data) {
			out[i] = data[i]
		}
	}
	return out, nil
}

func (f *fakeAdapter) Close() error { return nil }

func shop() *fakeAdapter {
	return &fakeAdapter{
		meta: &SchemaMetadata{
			Tables: []Table{
				{Name: "customers", Columns: []Column{
					{Name: "id", DataType: "int", IsPrimaryKey: true},
					{Name: "email", DataType: "varchar", Length: 255},
				}},
				{Name: "orders", Columns: []Column{
					{Name: "id", DataType: "int", IsPrimaryKey: true},
					{Name: "customer_id", DataType: "int"},
				}},
			},
			Indexes: []Index{
				{Table: "customers", Name: "uk_email", Columns: []string{"email"}, Unique: true},
				{Table: "orders", Name: "idx_customer", Columns: []string{"customer_id"}},
				{Table: "orders", Name: "uk_ghost", Columns: []string{"ghost"}, Unique: true},
			},
			ForeignKeys: []ForeignKey{
				{Name: "fk_customer", FromTable: "orders", FromColumns: []string{"customer_id"}, ToTable: "customers", ToColumns: []string{"id"}},
				{Name: "fk_broken", FromTable: "orders", FromColumns: []string{"id", "customer_id"}, ToTable: "customers", ToColumns: []string{"id"}},
			},
		},
		rows: map[string][][]string{
			"customers": {{"1", "2"}, {"a@x.io", ""}},
			"orders":    {{"10", "11", "12"}, {"1", "1", "2"}},
		},
	}
}

func TestLoadSchema(t *testing.T) {
	a := shop()
	s, err := LoadSchema(context.Background(), a, "shop", 50)
	require.NoError(t, err)

	assert.Equal(t, "shop", s.Name)
	require.Len(t, s.Tables, 2)
	assert.Equal(t, []string{"customers.id", "customers.email", "orders.id", "orders.customer_id"}, s.QualifiedNames())
	assert.Equal(t, []string{"a@x.io", ""}, s.Tables[0].Columns[1].Values)
	assert.Equal(t, "varchar", s.Tables[0].Columns[1].DataType)
	assert.Equal(t, 3, s.Tables[1].RowCount())
	assert.Equal(t, 50, a.limits["orders"])

	assert.Equal(t, []schema.UniqueColumnCombination{
		{Table: "customers", Columns: []string{"id"}},
		{Table: "orders", Columns: []string{"id"}},
		{Table: "customers", Columns: []string{"email"}},
	}, s.Dependencies.Unique)
	assert.Equal(t, []schema.InclusionDependency{{
		DependentTable:    "orders",
		DependentColumns:  []string{"customer_id"},
		ReferencedTable:   "customers",
		ReferencedColumns: []string{"id"},
	}}, s.Dependencies.Inclusion)
	assert.Empty(t, s.Dependencies.Functional)
}

func TestLoadSchema_NoSample(t *testing.T) {
	a := shop()
	s, err := LoadSchema(context.Background(), a, "shop", 0)
	require.NoError(t, err)
	assert.Empty(t, a.limits)
	assert.Equal(t, 0, s.Tables[0].RowCount())
}

func TestLoadSchema_Errors(t *testing.T) {
	a := shop()
	a.failOn = "orders"
	_, err := LoadSchema(context.Background(), a, "shop", 10)
	assert.True(t, errs.IsQueryFailed(err))

	_, err = LoadSchema(context.Background(), shop(), "", 0)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestLoadSchema_DuplicateTableNames(t *testing.T) {
	a := &fakeAdapter{meta: &SchemaMetadata{Tables: []Table{
		{Schema: "dbo", Name: "t", Columns: []Column{{Name: "a"}}},
		{Schema: "sales", Name: "t", Columns: []Column{{Name: "b"}}},
	}}}
	buf := &bytes.Buffer{}
	ctx := logger.New(&logger.Config{Level: "debug", Format: "json", Output: buf}).WithContext(context.Background())

	s, err := LoadSchema(ctx, a, "x", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"t.a"}, s.QualifiedNames())
	assert.Contains(t, buf.String(), `"message":"duplicate table skipped"`)
	assert.Contains(t, buf.String(), `"schema":"sales"`)
	assert.Contains(t, buf.String(), `"message":"schema loaded"`)
}

func TestIndexBuilder(t *testing.T) {
	b := newIndexBuilder()
	b.addIndex("orders", "uk_b", "x", true)
	b.addIndex("customers", "uk_a", "y", true)
	b.addIndex("orders", "uk_b", "z", true)
	b.addForeignKey("fk", "orders", "c1", "customers", "k1")
	b.addForeignKey("fk", "orders", "c2", "customers", "k2")
	b.addForeignKey("fk", "lines", "c", "orders", "k")

	assert.Equal(t, []Index{
		{Table: "customers", Name: "uk_a", Columns: []string{"y"}, Unique: true},
		{Table: "orders", Name: "uk_b", Columns: []string{"x", "z"}, Unique: true},
	}, b.Indexes())

	fks := b.ForeignKeys()
	require.Len(t, fks, 2)
	assert.Equal(t, "lines", fks[0].FromTable)
	assert.Equal(t, []string{"c1", "c2"}, fks[1].FromColumns)
	assert.Equal(t, []string{"k1", "k2"}, fks[1].ToColumns)
}

func TestQuoteIdentifiers(t *testing.T) {
	assert.Equal(t, "`a``b`", mysqlIdent("a`b"))
	assert.Equal(t, "[a]]b]", sqlServerIdent("a]b"))
	assert.Equal(t, "[x], [y]", quoteAll([]string{"x", "y"}, sqlServerIdent))
}

func TestOpen_Unsupported(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "dsn", "")
	assert.True(t, errs.IsInvalidInput(err))

	_, err = Open(context.Background(), "mysql", "root@tcp(127.0.0.1:3306)/x", "")
	assert.True(t, errs.IsInvalidInput(err))
}

func TestPgError(t *testing.T) {
	assert.NoError(t, pgError("x", nil))
	assert.True(t, errs.IsTimeout(pgError("x", context.Canceled)))
	assert.True(t, errs.IsQueryFailed(pgError("x", assert.AnError)))
}
