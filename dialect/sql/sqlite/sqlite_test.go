package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbkit"
	"github.com/syssam/dbkit/dialect"
	"github.com/syssam/dbkit/dialect/sql"
	"github.com/syssam/dbkit/dialect/sql/schema"
	"github.com/syssam/dbkit/platform"
)

func open(t *testing.T, opts ...platform.Option) platform.Platform {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", t.Name())
	p, err := platform.Open(dialect.SQLite, dsn, append([]platform.Option{platform.WithPoolSize(1)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func usersTable() *schema.Table {
	return schema.NewTable("users").SetComment("registered users").AddColumns(
		schema.NewColumn("id", schema.TypeInt64).SetPrimary(),
		schema.NewColumn("name", schema.TypeString).SetNotNull(),
		schema.NewColumn("email", schema.TypeString).SetUnique().SetComment("login, lowercased"),
		schema.NewColumn("active", schema.TypeBool).SetDefault("1"),
	)
}

func petsTable() *schema.Table {
	return schema.NewTable("pets").SetComment("pets of users").AddColumns(
		schema.NewColumn("id", schema.TypeInt64).SetPrimary(),
		schema.NewColumn("name", schema.TypeString).SetNotNull().SetComment("pet name"),
		schema.NewColumn("owner_id", schema.TypeInt64).SetForeign("users", "id"),
		schema.NewColumn("tag", schema.TypeString).SetUnique(),
	)
}

func createTables(t *testing.T, p platform.Platform) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, p.CreateTable(ctx, usersTable()))
	require.NoError(t, p.CreateTable(ctx, petsTable()))
}

func TestVersion(t *testing.T) {
	p := open(t)
	v, err := p.Version(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(v, "3."), v)
	assert.Equal(t, dialect.SQLiteCapabilities, p.Capabilities())
}

func TestGetTableMetadata(t *testing.T) {
	p := open(t)
	createTables(t, p)
	ctx := context.Background()

	tables, err := p.GetAllTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []schema.TableName{{Name: "pets"}, {Name: "users"}}, tables)

	pets, err := p.GetTableMetadata(ctx, "", "pets", false)
	require.NoError(t, err)
	assert.Equal(t, "pets", pets.Name)
	assert.Equal(t, "pets of users", pets.Comment)
	require.Len(t, pets.Columns, 4)

	id, name, owner, tag := pets.Columns[0], pets.Columns[1], pets.Columns[2], pets.Columns[3]
	assert.Equal(t, "id", id.Name)
	assert.True(t, id.Primary)
	assert.Equal(t, schema.TypeInt64, id.Type)
	assert.Equal(t, "integer", id.DBType)
	assert.Nil(t, id.Foreign)
	assert.Empty(t, id.Comment)

	assert.Equal(t, "name", name.Name)
	assert.True(t, name.NotNull)
	assert.Equal(t, schema.TypeString, name.Type)
	assert.Equal(t, "pet name", name.Comment)

	assert.Equal(t, "owner_id", owner.Name)
	assert.Equal(t, &schema.Foreign{Table: "users", Column: "id"}, owner.Foreign)
	assert.Empty(t, owner.Comment)

	assert.True(t, tag.Unique)
	assert.False(t, tag.Primary)

	users, err := p.GetTableMetadata(ctx, "", "users", false)
	require.NoError(t, err)
	email, ok := users.Column("email")
	require.True(t, ok)
	assert.Equal(t, "login, lowercased", email.Comment)
	assert.True(t, email.Unique)
	active, ok := users.Column("active")
	require.True(t, ok)
	assert.Equal(t, schema.TypeBool, active.Type)
	require.NotNil(t, active.Default)
	assert.Equal(t, "1", *active.Default)
}

func TestIntrospectionErrors(t *testing.T) {
	p := open(t)
	createTables(t, p)
	ctx := context.Background()

	_, err := p.GetTableMetadata(ctx, "", "missing", false)
	require.ErrorIs(t, err, dbkit.ErrNotFound)
	assert.True(t, dbkit.IsNotFound(err))

	_, err = p.GetTableMetadata(ctx, "main", "pets", false)
	require.ErrorIs(t, err, dbkit.ErrSchemaUnsupported)
	_, err = p.GetForeignKeys(ctx, "main", "pets")
	require.ErrorIs(t, err, dbkit.ErrSchemaUnsupported)
	_, err = p.GetTableComment(ctx, "", "missing")
	require.ErrorIs(t, err, dbkit.ErrNotFound)

	parent, err := p.GetParentTable(ctx, "", "pets")
	require.NoError(t, err)
	assert.Nil(t, parent)
	subs, err := p.GetSubTables(ctx, "", "pets")
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestViews(t *testing.T) {
	p := open(t)
	createTables(t, p)
	ctx := context.Background()

	_, err := p.Exec(ctx, `CREATE VIEW "named_pets" AS SELECT "id", "name" FROM "pets"`, nil)
	require.NoError(t, err)

	tables, err := p.GetAllTables(ctx)
	require.NoError(t, err)
	assert.Contains(t, tables, schema.TableName{Name: "named_pets", IsView: true})

	v, err := p.GetTableMetadata(ctx, "", "named_pets", true)
	require.NoError(t, err)
	assert.True(t, v.IsView)
	assert.Len(t, v.Columns, 2)
	assert.Empty(t, v.Comment)
}

func TestInsertSelect(t *testing.T) {
	p := open(t)
	createTables(t, p)
	ctx := context.Background()

	row, err := p.Insert(ctx, sql.Insert("users").
		Set("name", sql.TextValue("a8m")).
		Set("email", sql.TextValue("a8m@example.com")).
		Set("active", sql.BoolValue(false)))
	require.NoError(t, err)
	id, ok := row.Int("id")
	require.True(t, ok)
	assert.Equal(t, int64(1), id)

	_, err = p.Insert(ctx, sql.Insert("users").Set("name", sql.TextValue("nati")))
	require.NoError(t, err)

	rows, err := p.Select(ctx, sql.Select("id", "name", "active").From("users").
		Where(sql.EQ("active", sql.BoolValue(true))).
		OrderBy(sql.Asc("id")))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "nati", rows[0].String("name"))
	active, ok := rows[0].Get("active").Bool()
	require.True(t, ok)
	assert.True(t, active)
	assert.Equal(t, []string{"id", "name", "active"}, rows[0].Columns())

	rows, err = p.Select(ctx, sql.Select().From("users").
		Where(sql.Or(sql.HasPrefix("email", "a8m"), sql.IsNull("email"))).
		OrderBy(sql.Desc("id")).Limit(1).Offset(1))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a8m", rows[0].String("name"))

	row, err = p.QueryOne(ctx, `SELECT * FROM "users" WHERE "id" = ?1`, []sql.Value{sql.IntValue(42)})
	require.NoError(t, err)
	assert.Nil(t, row)

	n, err := p.Exec(ctx, `UPDATE "users" SET "active" = ?1`, []sql.Value{sql.BoolValue(true)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestConstraintErrors(t *testing.T) {
	p := open(t)
	createTables(t, p)
	ctx := context.Background()

	insert := sql.Insert("users").Set("name", sql.TextValue("a")).Set("email", sql.TextValue("a@b.c"))
	_, err := p.Insert(ctx, insert)
	require.NoError(t, err)
	_, err = p.Insert(ctx, insert)
	require.Error(t, err)
	assert.True(t, dbkit.IsConstraintError(err))
	assert.True(t, sql.IsUniqueConstraintError(err))
	assert.Contains(t, err.Error(), "UNIQUE constraint failed")

	_, err = p.Insert(ctx, sql.Insert("pets").Set("name", sql.TextValue("x")).Set("owner_id", sql.IntValue(99)))
	require.Error(t, err)
	assert.True(t, sql.IsForeignKeyConstraintError(err))

	_, err = p.Exec(ctx, "SELEC 1", nil)
	require.Error(t, err)
	assert.True(t, dbkit.IsQueryError(err))
	assert.False(t, dbkit.IsConstraintError(err))
}

func TestDDL(t *testing.T) {
	p := open(t)
	createTables(t, p)
	ctx := context.Background()

	require.NoError(t, p.RenameTable(ctx, "", "pets", "animals"))
	require.NoError(t, p.DropTable(ctx, "", "animals"))
	tables, err := p.GetAllTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []schema.TableName{{Name: "users"}}, tables)

	require.ErrorIs(t, p.CreateSchema(ctx, "s"), dbkit.ErrSchemaUnsupported)
	require.ErrorIs(t, p.DropSchema(ctx, "s"), dbkit.ErrSchemaUnsupported)
	require.ErrorIs(t, p.SetForeignConstraint(ctx, "", "users", "id", &schema.Foreign{Table: "x", Column: "id"}), dbkit.ErrFeatureUnsupported)
	require.ErrorIs(t, p.SetPrimaryConstraint(ctx, "", "users", "id"), dbkit.ErrFeatureUnsupported)

	err = p.CreateTable(ctx, usersTable())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	typ, err := p.DBType(schema.TypeUUID)
	require.NoError(t, err)
	assert.Equal(t, "text", typ)
	_, err = p.DBType("money")
	assert.True(t, dbkit.IsUnsupportedType(err))
}

func TestWithTx(t *testing.T) {
	p := open(t)
	createTables(t, p)
	ctx := context.Background()
	count := func() int64 {
		row, err := p.QueryOne(ctx, `SELECT COUNT(*) AS n FROM "users"`, nil)
		require.NoError(t, err)
		n, _ := row.Int("n")
		return n
	}
	insert := sql.Insert("users").Set("name", sql.TextValue("a"))

	boom := errors.New("boom")
	err := platform.WithTx(ctx, p, func(tx platform.Tx) error {
		if _, err := tx.Insert(ctx, insert); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, count())

	assert.Panics(t, func() {
		_ = platform.WithTx(ctx, p, func(tx platform.Tx) error {
			if _, err := tx.Insert(ctx, insert); err != nil {
				return err
			}
			panic("boom")
		})
	})
	assert.Zero(t, count())

	err = platform.WithTx(ctx, p, func(tx platform.Tx) error {
		_, err := tx.Begin(ctx)
		require.ErrorIs(t, err, dbkit.ErrTxStarted)
		_, err = tx.Insert(ctx, insert)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count())
}

func TestCachedIntrospection(t *testing.T) {
	p := open(t, platform.WithCache(dbkit.NewMemoryCache(), time.Minute))
	cached, ok := p.(*platform.CachedIntrospector)
	require.True(t, ok)
	createTables(t, p)
	ctx := context.Background()

	first, err := p.GetTableMetadata(ctx, "", "pets", false)
	require.NoError(t, err)

	// Dropped behind the cache's back.
	_, err = p.Exec(ctx, `DROP TABLE "pets"`, nil)
	require.NoError(t, err)
	second, err := p.GetTableMetadata(ctx, "", "pets", false)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.NoError(t, cached.Invalidate(ctx, "", "pets"))
	_, err = p.GetTableMetadata(ctx, "", "pets", false)
	require.ErrorIs(t, err, dbkit.ErrNotFound)
}

func TestConverterRoundTrip(t *testing.T) {
	p := open(t)
	ctx := context.Background()
	_, err := p.Exec(ctx, `CREATE TABLE "v" ("b" boolean, "i" integer, "f" real, "s" text, "x" blob)`, nil)
	require.NoError(t, err)
	_, err = p.Exec(ctx, `INSERT INTO "v" VALUES (?1, ?2, ?3, ?4, ?5)`, sql.MustValues(true, 7, 1.5, "text", []byte{0, 1}))
	require.NoError(t, err)
	_, err = p.Exec(ctx, `INSERT INTO "v" VALUES (NULL, NULL, NULL, NULL, NULL)`, nil)
	require.NoError(t, err)

	rows, err := p.Query(ctx, `SELECT * FROM "v"`, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, sql.MustValues(true, 7, 1.5, "text", []byte{0, 1}), rows[0].Values())
	for _, v := range rows[1].Values() {
		assert.True(t, v.IsNull())
	}

	conv := NewConverter()
	for _, native := range []any{int64(1), int64(0), int64(-3), 2.5, "s", []byte("b"), nil} {
		v, err := conv.FromNative(native, typeName("boolean"))
		require.NoError(t, err)
		back, err := conv.ToNative(v)
		require.NoError(t, err)
		assert.Equal(t, normalizeBool(native), back)
	}
}

type typeName string

func (t typeName) DatabaseTypeName() string { return string(t) }

// normalizeBool maps integers read from a boolean column to their 0/1
// storage value.
func normalizeBool(v any) any {
	if i, ok := v.(int64); ok && i != 0 {
		return int64(1)
	}
	return v
}
