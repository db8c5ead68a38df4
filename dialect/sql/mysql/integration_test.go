//go:build integration

package mysql_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/syssam/dbkit"
	"github.com/syssam/dbkit/dialect"
	"github.com/syssam/dbkit/dialect/sql"
	_ "github.com/syssam/dbkit/dialect/sql/mysql"
	"github.com/syssam/dbkit/dialect/sql/schema"
	"github.com/syssam/dbkit/platform"
)

func openContainer(t *testing.T) platform.Platform {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MySQL container test in short mode")
	}
	ctx := context.Background()
	c, err := tcmysql.Run(ctx, "mysql:8.0",
		tcmysql.WithDatabase("testdb"),
		tcmysql.WithUsername("root"),
		tcmysql.WithPassword("testpass"),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(c); err != nil {
			t.Logf("terminating container: %v", err)
		}
	})
	dsn, err := c.ConnectionString(ctx, "parseTime=true")
	require.NoError(t, err)
	p, err := platform.Open(dialect.MySQL, dsn, platform.WithPoolSize(2))
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestIntegration(t *testing.T) {
	p := openContainer(t)
	ctx := context.Background()

	v, err := p.Version(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, v)

	users := schema.NewTable("users").SetComment("registered users").AddColumns(
		schema.NewColumn("id", schema.TypeInt64).SetPrimary(),
		schema.NewColumn("email", schema.TypeUUID).SetNotNull().SetUnique().SetComment("login"),
	)
	pets := schema.NewTable("pets").AddColumns(
		schema.NewColumn("id", schema.TypeInt64).SetPrimary(),
		schema.NewColumn("owner_id", schema.TypeInt64).SetForeign("users", "id"),
		schema.NewColumn("born", schema.TypeTimestamp),
	)
	require.NoError(t, p.CreateTable(ctx, users))
	require.NoError(t, p.CreateTable(ctx, pets))

	got, err := p.GetTableMetadata(ctx, "", "users", false)
	require.NoError(t, err)
	assert.Equal(t, "registered users", got.Comment)
	email, ok := got.Column("email")
	require.True(t, ok)
	assert.Equal(t, schema.TypeUUID, email.Type)
	assert.True(t, email.Unique)
	assert.Equal(t, "login", email.Comment)

	got, err = p.GetTableMetadata(ctx, "", "pets", false)
	require.NoError(t, err)
	owner, _ := got.Column("owner_id")
	assert.Equal(t, &schema.Foreign{Table: "users", Column: "id"}, owner.Foreign)

	row, err := p.Insert(ctx, sql.Insert("users").
		Set("id", sql.IntValue(1)).
		Set("email", sql.TextValue("a@b.c")))
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", row.String("email"))

	_, err = p.Insert(ctx, sql.Insert("pets").Set("id", sql.IntValue(1)).Set("owner_id", sql.IntValue(9)))
	require.Error(t, err)
	assert.True(t, sql.IsForeignKeyConstraintError(err))
	assert.True(t, dbkit.IsConstraintError(err))

	rows, err := p.Select(ctx, sql.Select("id", "email").From("users"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	id, _ := rows[0].Int("id")
	assert.Equal(t, int64(1), id)
	assert.Equal(t, "a@b.c", rows[0].String("email"))

	_, err = p.GetTableMetadata(ctx, "", "missing", false)
	assert.True(t, dbkit.IsNotFound(err))
}
