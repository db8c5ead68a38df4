package sql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/syssam/dbkit"
)

type stateErr string

func (e stateErr) Error() string    { return "state " + string(e) }
func (e stateErr) SQLState() string { return string(e) }

type numberErr uint16

func (e numberErr) Error() string  { return "number" }
func (e numberErr) Number() uint16 { return uint16(e) }

func TestConstraintClassification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		unique     bool
		foreignKey bool
		check      bool
		notNull    bool
	}{
		{"nil", nil, false, false, false, false},
		{"plain", errors.New("syntax error"), false, false, false, false},
		{"sqlstate_unique", stateErr("23505"), true, false, false, false},
		{"sqlstate_fk", fmt.Errorf("wrap: %w", stateErr("23503")), false, true, false, false},
		{"sqlstate_check", stateErr("23514"), false, false, true, false},
		{"sqlstate_notnull", stateErr("23502"), false, false, false, true},
		{"number_unique", numberErr(1062), true, false, false, false},
		{"number_fk_parent", numberErr(1451), false, true, false, false},
		{"number_fk_child", numberErr(1452), false, true, false, false},
		{"mysql_driver_unique", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '1' for key 'PRIMARY'"}, true, false, false, false},
		{"mysql_driver_notnull", &mysql.MySQLError{Number: 1048, Message: "Column 'name' cannot be null"}, false, false, false, true},
		{"pq_unique", &pq.Error{Code: "23505", Message: `duplicate key value violates unique constraint "users_pkey"`}, true, false, false, false},
		{"pq_fk", &pq.Error{Code: "23503", Message: `insert or update on table "pets" violates foreign key constraint "pets_owner_fkey"`}, false, true, false, false},
		{"sqlite_unique", errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"), true, false, false, false},
		{"sqlite_fk", errors.New("FOREIGN KEY constraint failed"), false, true, false, false},
		{"sqlite_check", errors.New("CHECK constraint failed: age > 0"), false, false, true, false},
		{"sqlite_notnull", errors.New("NOT NULL constraint failed: users.name"), false, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unique, IsUniqueConstraintError(tt.err), "unique")
			assert.Equal(t, tt.foreignKey, IsForeignKeyConstraintError(tt.err), "foreign key")
			assert.Equal(t, tt.check, IsCheckConstraintError(tt.err), "check")
			assert.Equal(t, tt.notNull, IsNotNullConstraintError(tt.err), "not null")
			assert.Equal(t, tt.unique || tt.foreignKey || tt.check || tt.notNull, IsConstraintError(tt.err))
		})
	}
}

func TestIsConstraintErrorTyped(t *testing.T) {
	err := dbkit.NewConstraintError("custom", nil)
	assert.True(t, IsConstraintError(err))
	assert.True(t, IsConstraintError(fmt.Errorf("wrap: %w", err)))
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, wrapError("exec", "q", nil))
	assert.Equal(t, dbkit.ErrConnectionUnavailable, wrapError("exec", "q", dbkit.ErrConnectionUnavailable))

	err := wrapError("exec", "INSERT", errors.New("UNIQUE constraint failed: t.id"))
	assert.True(t, dbkit.IsConstraintError(err))
	assert.True(t, dbkit.IsQueryError(err))

	err = wrapError("query", "SELECT", errors.New("no such table: t"))
	assert.False(t, dbkit.IsConstraintError(err))
	assert.True(t, dbkit.IsQueryError(err))
}
