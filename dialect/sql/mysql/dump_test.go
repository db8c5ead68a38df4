package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbkit/dialect/sql/schema"
)

const dump = `
SET NAMES utf8mb4;
DROP TABLE IF EXISTS users;
CREATE TABLE users (
  id bigint NOT NULL AUTO_INCREMENT,
  email varchar(255) NOT NULL,
  active boolean DEFAULT 1,
  note text COMMENT 'free form, it''s optional',
  PRIMARY KEY (id),
  UNIQUE KEY users_email (email)
) ENGINE=InnoDB COMMENT='registered users';

CREATE TABLE pets (
  id int unsigned PRIMARY KEY,
  owner_id bigint REFERENCES users (id),
  vet_id bigint,
  name varchar(36) NOT NULL DEFAULT 'rex',
  CONSTRAINT pets_vet FOREIGN KEY (vet_id) REFERENCES vets (id)
);

INSERT INTO users (email) VALUES ('a@b.c');
`

func TestParseCreateTables(t *testing.T) {
	tables, err := ParseCreateTables(dump)
	require.NoError(t, err)
	require.Len(t, tables, 2)

	users := tables[0]
	assert.Equal(t, "users", users.Name)
	assert.Equal(t, "registered users", users.Comment)
	require.Len(t, users.Columns, 4)

	id, _ := users.Column("id")
	assert.True(t, id.Primary)
	assert.True(t, id.NotNull)
	assert.Equal(t, schema.TypeInt64, id.Type)

	email, _ := users.Column("email")
	assert.True(t, email.Unique)
	assert.Equal(t, schema.TypeString, email.Type)

	active, _ := users.Column("active")
	assert.Equal(t, schema.TypeBool, active.Type)
	require.NotNil(t, active.Default)
	assert.Equal(t, "1", *active.Default)

	note, _ := users.Column("note")
	assert.Equal(t, "free form, it's optional", note.Comment)
	assert.False(t, note.NotNull)

	pets := tables[1]
	require.Len(t, pets.Columns, 4)
	pid, _ := pets.Column("id")
	assert.True(t, pid.Primary)
	assert.Equal(t, schema.TypeUint32, pid.Type)

	owner, _ := pets.Column("owner_id")
	assert.Equal(t, &schema.Foreign{Table: "users", Column: "id"}, owner.Foreign)
	vet, _ := pets.Column("vet_id")
	assert.Equal(t, &schema.Foreign{Table: "vets", Column: "id"}, vet.Foreign)

	name, _ := pets.Column("name")
	assert.Equal(t, schema.TypeUUID, name.Type)
	require.NotNil(t, name.Default)
	assert.Equal(t, "'rex'", *name.Default)
}

func TestParseCreateTablesError(t *testing.T) {
	_, err := ParseCreateTables("CREATE TABLE (")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql: parsing dump")
}

// Generated DDL reads back into the table it was built from.
func TestGeneratedDDLParses(t *testing.T) {
	tbl := schema.NewTable("product").SetComment("products for sale").AddColumns(
		schema.NewColumn("id", schema.TypeUUID).SetPrimary(),
		schema.NewColumn("name", schema.TypeString).SetNotNull().SetComment("display name"),
		schema.NewColumn("owner_id", schema.TypeInt64).SetForeign("users", "id"),
		schema.NewColumn("price", schema.TypeFloat64).SetDefault("0"),
		schema.NewColumn("sku", schema.TypeString).SetUnique(),
	)
	f, err := schema.BuildCreateTable(tbl, schema.MySQL)
	require.NoError(t, err)

	tables, err := ParseCreateTables(f.String())
	require.NoError(t, err)
	require.Len(t, tables, 1)
	got := tables[0]
	assert.Equal(t, tbl.Name, got.Name)
	assert.Equal(t, tbl.Comment, got.Comment)
	require.Len(t, got.Columns, len(tbl.Columns))
	for i, want := range tbl.Columns {
		c := got.Columns[i]
		assert.Equal(t, want.Name, c.Name)
		assert.Equal(t, want.Type, c.Type, c.Name)
		assert.Equal(t, want.Primary, c.Primary, c.Name)
		assert.Equal(t, want.Unique, c.Unique, c.Name)
		assert.Equal(t, want.NotNull, c.NotNull, c.Name)
		assert.Equal(t, want.Comment, c.Comment, c.Name)
		assert.Equal(t, want.Foreign, c.Foreign, c.Name)
		assert.Equal(t, want.Default, c.Default, c.Name)
	}
}
