package platform

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/syssam/dbkit"
	"github.com/syssam/dbkit/dialect"
	"github.com/syssam/dbkit/dialect/sql"
	"github.com/syssam/dbkit/dialect/sql/schema"
)

// Config describes an engine to Base.
type Config struct {
	// Dialect holds the capabilities, type map and comment style.
	Dialect *schema.Dialect
	// Converter translates Values to and from the engine's natives.
	Converter sql.Converter
	// VersionQuery returns the engine version in a column named "version".
	VersionQuery string
}

// Base implements Database and DDL on top of a dialect.Driver. Engines
// embed it and add introspection.
type Base struct {
	cfg    Config
	drv    dialect.Driver
	exec   *sql.Executor
	logger *slog.Logger
	inTx   bool
}

// NewBase returns a Base executing on drv. A nil logger means
// slog.Default().
func NewBase(drv dialect.Driver, cfg Config, logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Converter == nil {
		cfg.Converter = sql.Natural{Dialect: cfg.Dialect.Name()}
	}
	b := &Base{cfg: cfg, drv: drv, logger: logger}
	if drv != nil {
		b.exec = sql.NewExecutor(drv, cfg.Converter)
	}
	return b
}

// Dialect returns the schema dialect of the engine.
func (b *Base) Dialect() *schema.Dialect { return b.cfg.Dialect }

// Capabilities implements Database.
func (b *Base) Capabilities() dialect.Capabilities { return b.cfg.Dialect.Caps }

// Driver returns the underlying driver.
func (b *Base) Driver() dialect.Driver { return b.drv }

// Logger returns the logger of the engine.
func (b *Base) Logger() *slog.Logger { return b.logger }

// Executor returns the executor running the statements of b.
func (b *Base) Executor() *sql.Executor { return b.exec }

// CheckSchema fails with a SchemaUnsupportedError when a schema is given
// to an engine without schemas.
func (b *Base) CheckSchema(schemaName, op string) error {
	if schemaName != "" && !b.Capabilities().Has(dialect.Schema) {
		return dbkit.NewSchemaUnsupportedError(b.Capabilities().Name, op)
	}
	return nil
}

// Version implements Database.
func (b *Base) Version(ctx context.Context) (string, error) {
	row, err := b.QueryOne(ctx, b.cfg.VersionQuery, nil)
	if err != nil {
		return "", err
	}
	if row == nil {
		return "", dbkit.ErrNoVersion
	}
	v := row.Get("version")
	if v.IsNull() {
		return "", dbkit.ErrNoVersion
	}
	return v.String(), nil
}

// Exec implements Database.
func (b *Base) Exec(ctx context.Context, query string, params []sql.Value) (int64, error) {
	res, err := b.exec.Exec(ctx, query, params)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("platform: rows affected: %w", err)
	}
	return n, nil
}

// Query implements Database.
func (b *Base) Query(ctx context.Context, query string, params []sql.Value) ([]*sql.Row, error) {
	return b.exec.Query(ctx, query, params)
}

// QueryOne implements Database.
func (b *Base) QueryOne(ctx context.Context, query string, params []sql.Value) (*sql.Row, error) {
	return b.exec.QueryOne(ctx, query, params)
}

// Insert implements Database. Engines supporting RETURNING return the
// stored row. Others return the inserted values, with the generated id
// under LastInsertIDColumn when the engine reports one.
func (b *Base) Insert(ctx context.Context, q *sql.InsertQuery) (*sql.Row, error) {
	f, err := q.Build(b.Capabilities())
	if err != nil {
		return nil, err
	}
	if b.Capabilities().Has(dialect.Returning) {
		rows, err := b.exec.QueryFrag(ctx, f)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			return rows[0], nil
		}
		return insertedRow(q), nil
	}
	res, err := b.exec.ExecFrag(ctx, f)
	if err != nil {
		return nil, err
	}
	row := insertedRow(q)
	if id, err := res.LastInsertId(); err == nil && id != 0 {
		row.Set(LastInsertIDColumn, sql.IntValue(id))
	}
	return row, nil
}

func insertedRow(q *sql.InsertQuery) *sql.Row {
	columns, values := q.Columns(), q.Values()
	row := sql.NewRow(len(columns) + 1)
	for i, c := range columns {
		row.Set(c, values[i])
	}
	return row
}

// Select implements Database.
func (b *Base) Select(ctx context.Context, q *sql.SelectQuery) ([]*sql.Row, error) {
	f, err := q.Build(b.Capabilities())
	if err != nil {
		return nil, err
	}
	return b.exec.QueryFrag(ctx, f)
}

// BuildCreateTable implements DDL.
func (b *Base) BuildCreateTable(t *schema.Table) (*sql.Frag, error) {
	return schema.BuildCreateTable(t, b.cfg.Dialect)
}

// CreateTable implements DDL. On engines with separate comment statements
// the comments are set after the table is created.
func (b *Base) CreateTable(ctx context.Context, t *schema.Table) error {
	f, err := b.BuildCreateTable(t)
	if err != nil {
		return err
	}
	if err := b.execFrag(ctx, f); err != nil {
		return err
	}
	for _, c := range schema.BuildComments(t, b.cfg.Dialect) {
		if err := b.execFrag(ctx, c); err != nil {
			return err
		}
	}
	b.logger.DebugContext(ctx, "table created", "dialect", b.Capabilities().Name, "table", t.QualifiedName())
	return nil
}

// DBType implements DDL.
func (b *Base) DBType(t schema.Type) (string, error) {
	return b.cfg.Dialect.DBType(t)
}

// LogicalType implements DDL.
func (b *Base) LogicalType(dbType string) (schema.Type, bool) {
	return b.cfg.Dialect.LogicalType(dbType)
}

// CreateSchema implements DDL.
func (b *Base) CreateSchema(ctx context.Context, name string) error {
	return b.build(ctx)(schema.BuildCreateSchema(b.cfg.Dialect, name))
}

// DropSchema implements DDL.
func (b *Base) DropSchema(ctx context.Context, name string) error {
	return b.build(ctx)(schema.BuildDropSchema(b.cfg.Dialect, name))
}

// RenameTable implements DDL.
func (b *Base) RenameTable(ctx context.Context, schemaName, from, to string) error {
	return b.build(ctx)(schema.BuildRenameTable(b.cfg.Dialect, schemaName, from, to))
}

// DropTable implements DDL.
func (b *Base) DropTable(ctx context.Context, schemaName, name string) error {
	return b.build(ctx)(schema.BuildDropTable(b.cfg.Dialect, schemaName, name))
}

// SetForeignConstraint implements DDL.
func (b *Base) SetForeignConstraint(ctx context.Context, schemaName, table, column string, fk *schema.Foreign) error {
	return b.build(ctx)(schema.BuildAddForeignKey(b.cfg.Dialect, schemaName, table, column, fk))
}

// SetPrimaryConstraint implements DDL.
func (b *Base) SetPrimaryConstraint(ctx context.Context, schemaName, table string, columns ...string) error {
	return b.build(ctx)(schema.BuildAddPrimaryKey(b.cfg.Dialect, schemaName, table, columns...))
}

// build returns a function executing the result of a statement builder.
func (b *Base) build(ctx context.Context) func(*sql.Frag, error) error {
	return func(f *sql.Frag, err error) error {
		if err != nil {
			return err
		}
		return b.execFrag(ctx, f)
	}
}

func (b *Base) execFrag(ctx context.Context, f *sql.Frag) error {
	_, err := b.exec.ExecFrag(ctx, f)
	return err
}

// Begin starts a transaction.
func (b *Base) Begin(ctx context.Context) (Tx, error) {
	if b.inTx {
		return nil, dbkit.ErrTxStarted
	}
	if b.drv == nil {
		return nil, dbkit.ErrConnectionUnavailable
	}
	tx, err := b.drv.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("platform: starting a transaction: %w", err)
	}
	nb := *b
	nb.exec = sql.NewExecutor(tx, b.cfg.Converter)
	nb.inTx = true
	return &txBase{Base: &nb, tx: tx}, nil
}

// Close closes the underlying driver.
func (b *Base) Close() error {
	if b.drv == nil {
		return nil
	}
	return b.drv.Close()
}

// txBase is a Base bound to a transaction.
type txBase struct {
	*Base
	tx dialect.Tx
}

// Commit commits the transaction.
func (t *txBase) Commit() error { return t.tx.Commit() }

// Rollback rolls back the transaction.
func (t *txBase) Rollback() error { return t.tx.Rollback() }

var (
	_ Database = (*Base)(nil)
	_ DDL      = (*Base)(nil)
	_ Tx       = (*txBase)(nil)
)
