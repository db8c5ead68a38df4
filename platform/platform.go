// Package platform defines the uniform contract implemented by every
// database engine and the shared machinery behind it.
//
// Engines register themselves on import, the same way database/sql
// drivers do:
//
//	import (
//	    "github.com/syssam/dbkit/platform"
//	    _ "github.com/syssam/dbkit/dialect/sql/postgres"
//	)
//
//	p, err := platform.Open("postgres", dsn, platform.WithPoolSize(10))
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	t, err := p.GetTableMetadata(ctx, "public", "users", false)
package platform

import (
	"context"

	"github.com/syssam/dbkit/dialect"
	"github.com/syssam/dbkit/dialect/sql"
	"github.com/syssam/dbkit/dialect/sql/schema"
)

// LastInsertIDColumn is the column under which Insert reports the id
// generated by engines that cannot return the inserted row.
const LastInsertIDColumn = "last_insert_id"

// Database executes statements and abstract queries.
type Database interface {
	// Version returns the version string reported by the engine.
	Version(ctx context.Context) (string, error)
	// Capabilities returns the placeholder style, quoting and feature
	// flags of the engine.
	Capabilities() dialect.Capabilities
	// Exec executes a statement and returns the number of affected rows.
	Exec(ctx context.Context, query string, params []sql.Value) (int64, error)
	// Query executes a statement and returns all rows.
	Query(ctx context.Context, query string, params []sql.Value) ([]*sql.Row, error)
	// QueryOne executes a statement and returns the first row, or nil if
	// there is none.
	QueryOne(ctx context.Context, query string, params []sql.Value) (*sql.Row, error)
	// Insert executes an insert query and returns the inserted row.
	Insert(ctx context.Context, q *sql.InsertQuery) (*sql.Row, error)
	// Select executes a select query.
	Select(ctx context.Context, q *sql.SelectQuery) ([]*sql.Row, error)
}

// DDL builds and executes schema statements.
type DDL interface {
	// BuildCreateTable returns the CREATE TABLE statement of t without
	// executing it.
	BuildCreateTable(t *schema.Table) (*sql.Frag, error)
	// CreateTable creates t, including its comments.
	CreateTable(ctx context.Context, t *schema.Table) error
	// DBType returns the engine type of a logical type.
	DBType(t schema.Type) (string, error)
	// LogicalType returns the logical type of an engine type.
	LogicalType(dbType string) (schema.Type, bool)
	CreateSchema(ctx context.Context, name string) error
	DropSchema(ctx context.Context, name string) error
	RenameTable(ctx context.Context, schemaName, from, to string) error
	DropTable(ctx context.Context, schemaName, name string) error
	SetForeignConstraint(ctx context.Context, schemaName, table, column string, fk *schema.Foreign) error
	SetPrimaryConstraint(ctx context.Context, schemaName, table string, columns ...string) error
}

// Introspector reads table structure from a live database. The schema
// argument must be empty on engines without schemas.
type Introspector interface {
	// GetAllTables lists the tables and views of the database.
	GetAllTables(ctx context.Context) ([]schema.TableName, error)
	// GetTableMetadata describes a table. It returns a NotFoundError if
	// the table does not exist.
	GetTableMetadata(ctx context.Context, schemaName, table string, isView bool) (*schema.Table, error)
	// GetForeignKeys returns the foreign keys of a table keyed by the local
	// column.
	GetForeignKeys(ctx context.Context, schemaName, table string) (map[string]*schema.Foreign, error)
	GetTableComment(ctx context.Context, schemaName, table string) (string, error)
	// GetColumnComments returns the column comments keyed by column name.
	GetColumnComments(ctx context.Context, schemaName, table string) (map[string]string, error)
	// GetParentTable returns the table t inherits from, or nil.
	GetParentTable(ctx context.Context, schemaName, table string) (*schema.TableName, error)
	// GetSubTables returns the tables inheriting from t.
	GetSubTables(ctx context.Context, schemaName, table string) ([]schema.TableName, error)
	// GetInheritedColumns returns the names of the columns t inherits.
	GetInheritedColumns(ctx context.Context, schemaName, table string) ([]string, error)
}

// Platform is a database engine behind the uniform contract.
type Platform interface {
	Database
	DDL
	Introspector
	// Begin starts a transaction.
	Begin(ctx context.Context) (Tx, error)
	// Driver returns the underlying driver.
	Driver() dialect.Driver
	// Close closes the underlying connection pool.
	Close() error
}

// Tx is a transaction. Begin on a Tx fails with dbkit.ErrTxStarted.
type Tx interface {
	Database
	DDL
	Begin(ctx context.Context) (Tx, error)
	Commit() error
	Rollback() error
}
