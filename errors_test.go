package dbkit_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbkit"
)

func TestNotFoundError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := dbkit.NewNotFoundError("table", "users")
		assert.Equal(t, `dbkit: table "users" not found`, err.Error())
		assert.Equal(t, "dbkit: table not found", dbkit.NewNotFoundError("table", "").Error())
	})

	t.Run("Is", func(t *testing.T) {
		err := dbkit.NewNotFoundError("table", "posts")
		assert.True(t, errors.Is(err, dbkit.ErrNotFound))
	})

	t.Run("IsNotFound", func(t *testing.T) {
		err := dbkit.NewNotFoundError("table", "comments")
		assert.True(t, dbkit.IsNotFound(err))

		// Wrapped error
		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, dbkit.IsNotFound(wrapped))

		// Sentinel error
		assert.True(t, dbkit.IsNotFound(dbkit.ErrNotFound))

		// Non-matching error
		assert.False(t, dbkit.IsNotFound(errors.New("other error")))
		assert.False(t, dbkit.IsNotFound(nil))
	})

	t.Run("Accessors", func(t *testing.T) {
		err := dbkit.NewNotFoundError("table", "users")
		assert.Equal(t, "table", err.Label())
		assert.Equal(t, "users", err.Name())
	})
}

func TestUnsupportedTypeError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := dbkit.NewUnsupportedTypeError("sqlite", "interval")
		assert.Equal(t, `dbkit: sqlite: no equivalent database type for "interval"`, err.Error())
		assert.Equal(t, `dbkit: unsupported type "chan int"`, dbkit.NewUnsupportedTypeError("", "chan int").Error())
	})

	t.Run("IsUnsupportedType", func(t *testing.T) {
		err := dbkit.NewUnsupportedTypeError("mysql", "hstore")
		assert.True(t, dbkit.IsUnsupportedType(err))
		assert.True(t, dbkit.IsUnsupportedType(fmt.Errorf("wrapper: %w", err)))
		assert.False(t, dbkit.IsUnsupportedType(errors.New("other error")))
		assert.False(t, dbkit.IsUnsupportedType(nil))
	})
}

func TestQueryError(t *testing.T) {
	engine := errors.New(`relation "nope" does not exist`)
	err := dbkit.NewQueryError("query", "SELECT * FROM nope", engine)

	assert.Contains(t, err.Error(), `relation "nope" does not exist`)
	assert.Contains(t, err.Error(), "SELECT * FROM nope")
	assert.True(t, errors.Is(err, engine))
	assert.True(t, dbkit.IsQueryError(fmt.Errorf("wrapper: %w", err)))
	assert.False(t, dbkit.IsQueryError(engine))
	assert.False(t, dbkit.IsQueryError(nil))
}

func TestConstraintError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := dbkit.NewConstraintError("UNIQUE constraint failed", nil)
		assert.Equal(t, "dbkit: constraint failed: UNIQUE constraint failed", err.Error())
	})

	t.Run("Unwrap", func(t *testing.T) {
		underlying := errors.New("db error")
		err := dbkit.NewConstraintError("constraint violated", underlying)
		assert.True(t, errors.Is(err, underlying))
	})

	t.Run("IsConstraintError", func(t *testing.T) {
		err := dbkit.NewConstraintError("check failed", nil)
		assert.True(t, dbkit.IsConstraintError(err))

		// Wrapped error
		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, dbkit.IsConstraintError(wrapped))

		// Non-matching error
		assert.False(t, dbkit.IsConstraintError(errors.New("other error")))
		assert.False(t, dbkit.IsConstraintError(nil))
	})
}

func TestSchemaUnsupportedError(t *testing.T) {
	err := dbkit.NewSchemaUnsupportedError("sqlite", "create schema")
	assert.Equal(t, "dbkit: sqlite does not support schema (create schema)", err.Error())
	assert.True(t, errors.Is(err, dbkit.ErrSchemaUnsupported))
	assert.True(t, errors.Is(fmt.Errorf("wrapper: %w", err), dbkit.ErrSchemaUnsupported))
	assert.False(t, errors.Is(err, dbkit.ErrFeatureUnsupported))
}

func TestFeatureUnsupportedError(t *testing.T) {
	err := dbkit.NewFeatureUnsupportedError("mysql", "common table expressions")
	assert.Equal(t, "dbkit: mysql does not support common table expressions", err.Error())
	assert.True(t, errors.Is(err, dbkit.ErrFeatureUnsupported))
	assert.False(t, errors.Is(err, dbkit.ErrSchemaUnsupported))
}

func TestIntrospectionParseError(t *testing.T) {
	err := &dbkit.IntrospectionParseError{Table: "t", Reason: "no CREATE TABLE statement"}
	assert.Equal(t, `dbkit: unable to parse sql statement of "t": no CREATE TABLE statement`, err.Error())
	assert.True(t, dbkit.IsIntrospectionParseError(fmt.Errorf("wrapper: %w", err)))
	assert.False(t, dbkit.IsIntrospectionParseError(nil))

	anon := &dbkit.IntrospectionParseError{Reason: "empty"}
	assert.Equal(t, "dbkit: unable to parse sql statement: empty", anon.Error())
}

func TestRollbackError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := &dbkit.RollbackError{Err: errors.New("connection lost")}
		assert.Equal(t, "dbkit: rollback failed: connection lost", err.Error())
	})

	t.Run("Unwrap", func(t *testing.T) {
		underlying := errors.New("timeout")
		err := &dbkit.RollbackError{Err: underlying}
		assert.True(t, errors.Is(err, underlying))
	})
}

func TestSentinelErrors(t *testing.T) {
	for _, err := range []error{
		dbkit.ErrNotFound,
		dbkit.ErrConnectionUnavailable,
		dbkit.ErrSchemaUnsupported,
		dbkit.ErrFeatureUnsupported,
		dbkit.ErrNoVersion,
		dbkit.ErrTxStarted,
	} {
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dbkit: ")
	}
	assert.Contains(t, dbkit.ErrTxStarted.Error(), "transaction")
}

// BenchmarkErrors benchmarks error creation and checking.
func BenchmarkErrors(b *testing.B) {
	b.Run("NewNotFoundError", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = dbkit.NewNotFoundError("table", "users")
		}
	})

	b.Run("IsNotFound", func(b *testing.B) {
		err := dbkit.NewNotFoundError("table", "users")
		for i := 0; i < b.N; i++ {
			_ = dbkit.IsNotFound(err)
		}
	})

	b.Run("IsConstraintError", func(b *testing.B) {
		err := dbkit.NewConstraintError("unique", nil)
		for i := 0; i < b.N; i++ {
			_ = dbkit.IsConstraintError(err)
		}
	})
}
