package mysql

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbkit"
	"github.com/syssam/dbkit/dialect"
	"github.com/syssam/dbkit/dialect/sql"
	"github.com/syssam/dbkit/dialect/sql/schema"
	"github.com/syssam/dbkit/platform"
)

func mock(t *testing.T) (*Platform, sqlmock.Sqlmock) {
	t.Helper()
	db, m, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(sql.OpenDB(dialect.MySQL, db), nil), m
}

func TestRegistered(t *testing.T) {
	assert.Contains(t, platform.Dialects(), dialect.MySQL)
}

func TestVersion(t *testing.T) {
	p, m := mock(t)
	m.ExpectQuery(regexp.QuoteMeta("SELECT VERSION() AS version")).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("8.0.36"))
	v, err := p.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "8.0.36", v)
	require.NoError(t, m.ExpectationsWereMet())
}

func TestGetAllTables(t *testing.T) {
	p, m := mock(t)
	m.ExpectQuery("FROM information_schema.tables WHERE table_schema = DATABASE()").
		WillReturnRows(sqlmock.NewRows([]string{"name", "type"}).
			AddRow("orders", "BASE TABLE").
			AddRow("recent_orders", "VIEW"))
	tables, err := p.GetAllTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []schema.TableName{{Name: "orders"}, {Name: "recent_orders", IsView: true}}, tables)
	require.NoError(t, m.ExpectationsWereMet())
}

func TestGetTableMetadata(t *testing.T) {
	p, m := mock(t)
	m.ExpectQuery(regexp.QuoteMeta("FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position")).
		WithArgs("orders").
		WillReturnRows(sqlmock.NewRows([]string{"name", "type", "nullable", "dflt", "ckey"}).
			AddRow("id", "bigint", "NO", nil, "PRI").
			AddRow("user_id", "int(10) unsigned", "YES", nil, "MUL").
			AddRow("code", "varchar(36)", "NO", nil, "UNI").
			AddRow("total", "decimal(10,2)", "NO", "0.00", ""))
	m.ExpectQuery("FROM information_schema.key_column_usage").
		WithArgs("orders").
		WillReturnRows(sqlmock.NewRows([]string{"name", "ref_table", "ref_column"}).
			AddRow("user_id", "users", "id"))
	m.ExpectQuery("SELECT table_comment AS comment").
		WithArgs("orders").
		WillReturnRows(sqlmock.NewRows([]string{"comment", "type"}).AddRow("customer orders", "BASE TABLE"))
	m.ExpectQuery("SELECT column_name AS name, column_comment AS comment").
		WithArgs("orders").
		WillReturnRows(sqlmock.NewRows([]string{"name", "comment"}).AddRow("total", "gross, in cents"))

	tbl, err := p.GetTableMetadata(context.Background(), "", "orders", false)
	require.NoError(t, err)
	require.NoError(t, m.ExpectationsWereMet())

	assert.Equal(t, "customer orders", tbl.Comment)
	require.Len(t, tbl.Columns, 4)
	id, user, code, total := tbl.Columns[0], tbl.Columns[1], tbl.Columns[2], tbl.Columns[3]

	assert.Equal(t, schema.TypeInt64, id.Type)
	assert.True(t, id.Primary)
	assert.True(t, id.NotNull)
	assert.Nil(t, id.Default)

	assert.Equal(t, schema.TypeUint32, user.Type)
	assert.False(t, user.NotNull)
	assert.Equal(t, &schema.Foreign{Table: "users", Column: "id"}, user.Foreign)

	assert.Equal(t, schema.TypeUUID, code.Type)
	assert.True(t, code.Unique)
	assert.False(t, code.Primary)

	assert.Equal(t, "decimal(10,2)", total.DBType)
	assert.Empty(t, total.Type)
	require.NotNil(t, total.Default)
	assert.Equal(t, "0.00", *total.Default)
	assert.Equal(t, "gross, in cents", total.Comment)
	assert.Nil(t, total.Foreign)
}

func TestIntrospectionErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		p, m := mock(t)
		m.ExpectQuery("FROM information_schema.columns").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"name", "type", "nullable", "dflt", "ckey"}))
		_, err := p.GetTableMetadata(ctx, "", "missing", false)
		require.Error(t, err)
		assert.True(t, dbkit.IsNotFound(err))
		require.NoError(t, m.ExpectationsWereMet())
	})

	t.Run("Schema", func(t *testing.T) {
		p, m := mock(t)
		_, err := p.GetTableMetadata(ctx, "shop", "orders", false)
		require.ErrorIs(t, err, dbkit.ErrSchemaUnsupported)
		_, err = p.GetForeignKeys(ctx, "shop", "orders")
		require.ErrorIs(t, err, dbkit.ErrSchemaUnsupported)
		_, err = p.GetColumnComments(ctx, "shop", "orders")
		require.ErrorIs(t, err, dbkit.ErrSchemaUnsupported)
		_, err = p.GetSubTables(ctx, "shop", "orders")
		require.ErrorIs(t, err, dbkit.ErrSchemaUnsupported)
		require.NoError(t, m.ExpectationsWereMet())
	})

	t.Run("NoInheritance", func(t *testing.T) {
		p, _ := mock(t)
		parent, err := p.GetParentTable(ctx, "", "orders")
		require.NoError(t, err)
		assert.Nil(t, parent)
		cols, err := p.GetInheritedColumns(ctx, "", "orders")
		require.NoError(t, err)
		assert.Empty(t, cols)
	})

	t.Run("ViewComment", func(t *testing.T) {
		p, m := mock(t)
		m.ExpectQuery("SELECT table_comment AS comment").
			WithArgs("recent_orders").
			WillReturnRows(sqlmock.NewRows([]string{"comment", "type"}).AddRow("VIEW", "VIEW"))
		c, err := p.GetTableComment(ctx, "", "recent_orders")
		require.NoError(t, err)
		assert.Empty(t, c)
		require.NoError(t, m.ExpectationsWereMet())
	})
}

func TestDDL(t *testing.T) {
	p, m := mock(t)
	ctx := context.Background()
	tbl := schema.NewTable("orders").SetComment("customer orders").AddColumns(
		schema.NewColumn("id", schema.TypeInt64).SetPrimary(),
		schema.NewColumn("total", schema.TypeFloat64).SetNotNull().SetComment("gross"),
	)
	m.ExpectExec(regexp.QuoteMeta("CREATE TABLE `orders` (\n\t`id` bigint PRIMARY KEY,\n\t`total` double NOT NULL COMMENT 'gross'\n) COMMENT = 'customer orders'")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, p.CreateTable(ctx, tbl))

	m.ExpectExec(regexp.QuoteMeta("ALTER TABLE `orders` RENAME TO `purchases`")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, p.RenameTable(ctx, "", "orders", "purchases"))

	m.ExpectExec(regexp.QuoteMeta("DROP TABLE `purchases`")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, p.DropTable(ctx, "", "purchases"))

	require.ErrorIs(t, p.CreateSchema(ctx, "shop"), dbkit.ErrSchemaUnsupported)
	require.NoError(t, m.ExpectationsWereMet())
}

func TestInsert(t *testing.T) {
	p, m := mock(t)
	m.ExpectExec(regexp.QuoteMeta("INSERT INTO `users` (`name`) VALUES (?)")).
		WithArgs("ada").
		WillReturnResult(sqlmock.NewResult(42, 1))
	row, err := p.Insert(context.Background(), sql.Insert("users").Set("name", sql.TextValue("ada")))
	require.NoError(t, err)
	assert.Equal(t, []string{"name", platform.LastInsertIDColumn}, row.Columns())
	id, ok := row.Int(platform.LastInsertIDColumn)
	require.True(t, ok)
	assert.Equal(t, int64(42), id)
	require.NoError(t, m.ExpectationsWereMet())
}

func expectPets(m sqlmock.Sqlmock, fk bool) {
	m.ExpectQuery("FROM information_schema.columns").WithArgs("pets").
		WillReturnRows(sqlmock.NewRows([]string{"name", "type", "nullable", "dflt", "ckey"}).
			AddRow("id", "bigint", "NO", nil, "PRI").
			AddRow("owner_id", "bigint", "YES", nil, ""))
	fks := sqlmock.NewRows([]string{"name", "ref_table", "ref_column"})
	if fk {
		fks.AddRow("owner_id", "users", "id")
	}
	m.ExpectQuery("FROM information_schema.key_column_usage").WithArgs("pets").WillReturnRows(fks)
	m.ExpectQuery("SELECT table_comment AS comment").WithArgs("pets").
		WillReturnRows(sqlmock.NewRows([]string{"comment", "type"}).AddRow("", "BASE TABLE"))
	m.ExpectQuery("SELECT column_name AS name, column_comment AS comment").WithArgs("pets").
		WillReturnRows(sqlmock.NewRows([]string{"name", "comment"}))
}

func TestCachedDDLInvalidation(t *testing.T) {
	ctx := context.Background()
	db, m, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	cache := dbkit.NewMemoryCache()
	p, err := platform.FromDriver(sql.OpenDB(dialect.MySQL, db), platform.WithCache(cache, 0))
	require.NoError(t, err)

	owner := func(t *testing.T) *schema.Foreign {
		t.Helper()
		tbl, err := p.GetTableMetadata(ctx, "", "pets", false)
		require.NoError(t, err)
		c, ok := tbl.Column("owner_id")
		require.True(t, ok)
		return c.Foreign
	}

	expectPets(m, false)
	assert.Nil(t, owner(t))
	assert.Nil(t, owner(t), "served from the cache")
	require.NoError(t, m.ExpectationsWereMet())

	t.Run("SetForeignConstraint", func(t *testing.T) {
		m.ExpectExec(regexp.QuoteMeta("ALTER TABLE `pets` ADD CONSTRAINT `pets_owner_id_fkey` FOREIGN KEY (`owner_id`) REFERENCES `users` (`id`)")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		require.NoError(t, p.SetForeignConstraint(ctx, "", "pets", "owner_id", &schema.Foreign{Table: "users", Column: "id"}))
		assert.Zero(t, cache.Len())
		expectPets(m, true)
		assert.Equal(t, &schema.Foreign{Table: "users", Column: "id"}, owner(t))
		require.NoError(t, m.ExpectationsWereMet())
	})

	t.Run("TxRollbackKeepsEntries", func(t *testing.T) {
		m.ExpectBegin()
		m.ExpectExec(regexp.QuoteMeta("ALTER TABLE `pets` ADD PRIMARY KEY (`id`)")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		m.ExpectExec("boom").WillReturnError(assert.AnError)
		m.ExpectRollback()
		err := platform.WithTx(ctx, p, func(tx platform.Tx) error {
			if err := tx.SetPrimaryConstraint(ctx, "", "pets", "id"); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, "boom", nil)
			return err
		})
		require.Error(t, err)
		assert.Equal(t, 1, cache.Len())
		require.NoError(t, m.ExpectationsWereMet())
	})

	t.Run("TxCommitInvalidates", func(t *testing.T) {
		m.ExpectBegin()
		m.ExpectExec(regexp.QuoteMeta("ALTER TABLE `pets` ADD PRIMARY KEY (`id`)")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		m.ExpectCommit()
		require.NoError(t, platform.WithTx(ctx, p, func(tx platform.Tx) error {
			return tx.SetPrimaryConstraint(ctx, "", "pets", "id")
		}))
		assert.Zero(t, cache.Len())
		expectPets(m, true)
		owner(t)
		require.NoError(t, m.ExpectationsWereMet())
	})

	t.Run("RawSchemaStatement", func(t *testing.T) {
		m.ExpectExec("ALTER TABLE pets DROP FOREIGN KEY").WillReturnResult(sqlmock.NewResult(0, 0))
		_, err := p.Exec(ctx, "ALTER TABLE pets DROP FOREIGN KEY pets_owner_id_fkey", nil)
		require.NoError(t, err)
		assert.Zero(t, cache.Len())

		expectPets(m, false)
		assert.Nil(t, owner(t))
		m.ExpectExec("UPDATE pets").WillReturnResult(sqlmock.NewResult(0, 1))
		_, err = p.Exec(ctx, "UPDATE pets SET owner_id = NULL", nil)
		require.NoError(t, err)
		assert.Equal(t, 1, cache.Len())
		require.NoError(t, m.ExpectationsWereMet())
	})
}
