// Package dialect provides database dialect abstraction for dbkit.
//
// This package defines the interfaces and types used for database-specific
// operations, allowing dbkit to drive multiple database backends including
// PostgreSQL, MySQL, and SQLite.
//
// # Dialect Constants
//
// Each dialect is identified by a constant string:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// # Capabilities
//
// Capabilities describe how SQL text is written for a dialect: the bind
// placeholder style, the identifier quote character and the optional
// features it supports.
//
//	caps := dialect.PostgresCapabilities
//	caps.Bind(2)                  // "$2"
//	caps.Quote("users")           // "\"users\""
//	caps.Has(dialect.Returning)   // true
//
//	| dialect  | placeholder | quote | features                          |
//	|----------|-------------|-------|-----------------------------------|
//	| sqlite   | ?1, ?2      | "     | CTE, RETURNING                    |
//	| mysql    | ?           | `     | ALTER constraints                 |
//	| postgres | $1, $2      | "     | CTE, schema, inheritance, RETURNING, ALTER constraints |
//
// # Driver Interface
//
// The package defines the Driver interface for database operations:
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// The Tx interface adds Commit and Rollback, and ExecQuerier is implemented
// by both Driver and Tx.
//
// # Sub-packages
//
//   - dialect/sql: driver implementation, values, fragments and queries
//   - dialect/sql/schema: table model, type mapping and DDL assembly
//   - dialect/sql/sqlite, dialect/sql/mysql, dialect/sql/postgres: engines
package dialect
