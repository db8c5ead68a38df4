package dialect

import (
	"context"
	"strconv"
	"strings"
)

// Dialect names for external usage.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// ExecQuerier wraps the 2 database operations.
type ExecQuerier interface {
	// Exec executes a query that does not return records. For example, in SQL, INSERT or UPDATE.
	// It scans the result into the pointer v. For SQL drivers, it is dialect/sql.Result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows, typically a SELECT in SQL.
	// It scans the result into the pointer v. For SQL drivers, it is *dialect/sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all necessary operations for the engine drivers.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	// The provided context is used until the transaction is committed or rolled back.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps the Exec and Query operations in transaction.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}

// Placeholder is the bind-parameter style of a dialect.
type Placeholder uint8

// Placeholder styles.
const (
	// Question is the positional "?" style (MySQL).
	Question Placeholder = iota
	// Dollar is the numbered "$1" style (Postgres).
	Dollar
	// NumberedQuestion is the numbered "?1" style (SQLite).
	NumberedQuestion
)

// Feature is a bitset of optional SQL features.
type Feature uint8

// Optional features.
const (
	// CTE is WITH ... AS (...) common table expressions.
	CTE Feature = 1 << iota
	// Schema is schema namespaces (CREATE SCHEMA, schema.table).
	Schema
	// Inheritance is table inheritance (INHERITS).
	Inheritance
	// Returning is INSERT ... RETURNING.
	Returning
	// AlterConstraint is ALTER TABLE ... ADD CONSTRAINT.
	AlterConstraint
)

// String returns a human readable feature name, used in error messages.
func (f Feature) String() string {
	switch f {
	case CTE:
		return "common table expressions"
	case Schema:
		return "schema"
	case Inheritance:
		return "table inheritance"
	case Returning:
		return "RETURNING"
	case AlterConstraint:
		return "ALTER TABLE constraints"
	default:
		return "feature(" + strconv.Itoa(int(f)) + ")"
	}
}

// Capabilities describes how a dialect writes SQL text. The values are
// static per dialect and safe to copy.
type Capabilities struct {
	Name        string
	Placeholder Placeholder
	QuoteChar   byte
	Features    Feature
}

// Capabilities of the supported dialects.
var (
	SQLiteCapabilities = Capabilities{
		Name:        SQLite,
		Placeholder: NumberedQuestion,
		QuoteChar:   '"',
		Features:    CTE | Returning,
	}
	MySQLCapabilities = Capabilities{
		Name:        MySQL,
		Placeholder: Question,
		QuoteChar:   '`',
		Features:    AlterConstraint,
	}
	PostgresCapabilities = Capabilities{
		Name:        Postgres,
		Placeholder: Dollar,
		QuoteChar:   '"',
		Features:    CTE | Schema | Inheritance | Returning | AlterConstraint,
	}
)

// CapabilitiesOf returns the capabilities of the named dialect.
func CapabilitiesOf(name string) (Capabilities, bool) {
	switch name {
	case SQLite:
		return SQLiteCapabilities, true
	case MySQL:
		return MySQLCapabilities, true
	case Postgres:
		return PostgresCapabilities, true
	default:
		return Capabilities{}, false
	}
}

// Has reports whether all features in f are supported.
func (c Capabilities) Has(f Feature) bool {
	return c.Features&f == f
}

// Bind returns the placeholder text for the n-th (1-based) parameter.
func (c Capabilities) Bind(n int) string {
	switch c.Placeholder {
	case Dollar:
		return "$" + strconv.Itoa(n)
	case NumberedQuestion:
		return "?" + strconv.Itoa(n)
	default:
		return "?"
	}
}

// Quote quotes ident as a single identifier. Embedded quote characters
// are doubled and dots are kept as part of the name; qualified names are
// written by Frag.Table.
func (c Capabilities) Quote(ident string) string {
	q := string(c.QuoteChar)
	if q == "\x00" {
		q = `"`
	}
	return q + strings.ReplaceAll(ident, q, q+q) + q
}

// CountPlaceholders counts bind placeholders in query text written with the
// capabilities' style. Quoted literals and identifiers are skipped.
func (c Capabilities) CountPlaceholders(query string) int {
	var (
		n     int
		quote byte
	)
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
		case c.Placeholder == Dollar && ch == '$':
			if i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
				n++
			}
		case c.Placeholder != Dollar && ch == '?':
			n++
		}
	}
	return n
}
