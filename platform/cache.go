package platform

import (
	"context"
	"log/slog"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"

	"github.com/syssam/dbkit"
	"github.com/syssam/dbkit/dialect/sql"
	"github.com/syssam/dbkit/dialect/sql/schema"
)

// CachedIntrospector is a Platform whose table descriptions are cached.
// Concurrent misses for the same table issue one set of catalog queries.
type CachedIntrospector struct {
	Platform
	cache dbkit.Cache
	ttl   time.Duration
	group singleflight.Group
}

// NewCachedIntrospector wraps p with a description cache.
func NewCachedIntrospector(p Platform, c dbkit.Cache, ttl time.Duration) *CachedIntrospector {
	return &CachedIntrospector{Platform: p, cache: c, ttl: ttl}
}

// Unwrap returns the wrapped platform.
func (c *CachedIntrospector) Unwrap() Platform { return c.Platform }

// key returns the cache key of a table. An empty schema is replaced by the
// default schema of engines reporting one, so both spellings share entries.
func (c *CachedIntrospector) key(schemaName, table string) dbkit.CacheKey {
	if schemaName == "" {
		if d, ok := c.Platform.(interface{ DefaultSchema() string }); ok {
			schemaName = d.DefaultSchema()
		}
	}
	return dbkit.CacheKey{Dialect: c.Capabilities().Name, Schema: schemaName, Table: table}
}

// GetTableMetadata implements Introspector.
func (c *CachedIntrospector) GetTableMetadata(ctx context.Context, schemaName, table string, isView bool) (*schema.Table, error) {
	key := c.key(schemaName, table).String()
	if t, ok := c.lookup(ctx, key); ok {
		return t, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		t, err := c.Platform.GetTableMetadata(ctx, schemaName, table, isView)
		if err != nil {
			return nil, err
		}
		b, err := msgpack.Marshal(t)
		if err != nil {
			return nil, err
		}
		if err := c.cache.Set(ctx, key, b, c.ttl); err != nil {
			c.logger().WarnContext(ctx, "caching table description", "table", key, "error", err)
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	// Every caller decodes its own copy.
	t := new(schema.Table)
	if err := msgpack.Unmarshal(v.([]byte), t); err != nil {
		return nil, err
	}
	return t, nil
}

func (c *CachedIntrospector) lookup(ctx context.Context, key string) (*schema.Table, bool) {
	b, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger().WarnContext(ctx, "reading table description cache", "table", key, "error", err)
		return nil, false
	}
	if b == nil {
		return nil, false
	}
	t := new(schema.Table)
	if err := msgpack.Unmarshal(b, t); err != nil {
		c.logger().DebugContext(ctx, "dropping undecodable cache entry", "table", key, "error", err)
		_ = c.cache.Delete(ctx, key)
		return nil, false
	}
	return t, true
}

// Invalidate drops the cached description of a table. An empty table
// drops all tables of the schema.
func (c *CachedIntrospector) Invalidate(ctx context.Context, schemaName, table string) error {
	k := c.key(schemaName, table)
	if table == "" {
		return c.cache.DeletePrefix(ctx, k.Prefix())
	}
	return c.cache.Delete(ctx, k.String())
}

// CreateTable implements DDL and invalidates the table.
func (c *CachedIntrospector) CreateTable(ctx context.Context, t *schema.Table) error {
	if err := c.Platform.CreateTable(ctx, t); err != nil {
		return err
	}
	return c.Invalidate(ctx, t.Schema, t.Name)
}

// DropTable implements DDL and invalidates the table.
func (c *CachedIntrospector) DropTable(ctx context.Context, schemaName, name string) error {
	if err := c.Platform.DropTable(ctx, schemaName, name); err != nil {
		return err
	}
	return c.Invalidate(ctx, schemaName, name)
}

// RenameTable implements DDL and invalidates both names.
func (c *CachedIntrospector) RenameTable(ctx context.Context, schemaName, from, to string) error {
	if err := c.Platform.RenameTable(ctx, schemaName, from, to); err != nil {
		return err
	}
	if err := c.Invalidate(ctx, schemaName, from); err != nil {
		return err
	}
	return c.Invalidate(ctx, schemaName, to)
}

// SetForeignConstraint implements DDL and invalidates the table.
func (c *CachedIntrospector) SetForeignConstraint(ctx context.Context, schemaName, table, column string, fk *schema.Foreign) error {
	if err := c.Platform.SetForeignConstraint(ctx, schemaName, table, column, fk); err != nil {
		return err
	}
	return c.Invalidate(ctx, schemaName, table)
}

// SetPrimaryConstraint implements DDL and invalidates the table.
func (c *CachedIntrospector) SetPrimaryConstraint(ctx context.Context, schemaName, table string, columns ...string) error {
	if err := c.Platform.SetPrimaryConstraint(ctx, schemaName, table, columns...); err != nil {
		return err
	}
	return c.Invalidate(ctx, schemaName, table)
}

// DropSchema implements DDL and invalidates the tables of the schema.
func (c *CachedIntrospector) DropSchema(ctx context.Context, name string) error {
	if err := c.Platform.DropSchema(ctx, name); err != nil {
		return err
	}
	return c.Invalidate(ctx, name, "")
}

// Exec implements Database. Schema statements run as plain SQL may touch
// any table, so they drop every cached description of the dialect.
func (c *CachedIntrospector) Exec(ctx context.Context, query string, params []sql.Value) (int64, error) {
	n, err := c.Platform.Exec(ctx, query, params)
	if err != nil {
		return n, err
	}
	if sql.ClassifyStatement(query) == sql.StmtSchema {
		return n, c.invalidateAll(ctx)
	}
	return n, nil
}

func (c *CachedIntrospector) invalidateAll(ctx context.Context) error {
	return c.cache.DeletePrefix(ctx, c.Capabilities().Name+":")
}

// Begin starts a transaction. The tables changed by DDL in the transaction
// are invalidated when it commits.
func (c *CachedIntrospector) Begin(ctx context.Context) (Tx, error) {
	tx, err := c.Platform.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &cachedTx{Tx: tx, c: c, ctx: context.WithoutCancel(ctx)}, nil
}

// cachedTx records the tables changed by its DDL.
type cachedTx struct {
	Tx
	c       *CachedIntrospector
	ctx     context.Context
	touched []dbkit.CacheKey
	all     bool
}

// touch records a table; an empty table stands for the whole schema.
func (tx *cachedTx) touch(schemaName, table string) {
	tx.touched = append(tx.touched, tx.c.key(schemaName, table))
}

func (tx *cachedTx) Exec(ctx context.Context, query string, params []sql.Value) (int64, error) {
	n, err := tx.Tx.Exec(ctx, query, params)
	if err == nil && sql.ClassifyStatement(query) == sql.StmtSchema {
		tx.all = true
	}
	return n, err
}

func (tx *cachedTx) CreateTable(ctx context.Context, t *schema.Table) error {
	if err := tx.Tx.CreateTable(ctx, t); err != nil {
		return err
	}
	tx.touch(t.Schema, t.Name)
	return nil
}

func (tx *cachedTx) DropTable(ctx context.Context, schemaName, name string) error {
	if err := tx.Tx.DropTable(ctx, schemaName, name); err != nil {
		return err
	}
	tx.touch(schemaName, name)
	return nil
}

func (tx *cachedTx) RenameTable(ctx context.Context, schemaName, from, to string) error {
	if err := tx.Tx.RenameTable(ctx, schemaName, from, to); err != nil {
		return err
	}
	tx.touch(schemaName, from)
	tx.touch(schemaName, to)
	return nil
}

func (tx *cachedTx) SetForeignConstraint(ctx context.Context, schemaName, table, column string, fk *schema.Foreign) error {
	if err := tx.Tx.SetForeignConstraint(ctx, schemaName, table, column, fk); err != nil {
		return err
	}
	tx.touch(schemaName, table)
	return nil
}

func (tx *cachedTx) SetPrimaryConstraint(ctx context.Context, schemaName, table string, columns ...string) error {
	if err := tx.Tx.SetPrimaryConstraint(ctx, schemaName, table, columns...); err != nil {
		return err
	}
	tx.touch(schemaName, table)
	return nil
}

func (tx *cachedTx) DropSchema(ctx context.Context, name string) error {
	if err := tx.Tx.DropSchema(ctx, name); err != nil {
		return err
	}
	tx.touch(name, "")
	return nil
}

// Commit commits the transaction and invalidates the changed tables.
func (tx *cachedTx) Commit() error {
	if err := tx.Tx.Commit(); err != nil {
		return err
	}
	if tx.all {
		return tx.c.invalidateAll(tx.ctx)
	}
	for _, k := range tx.touched {
		if err := tx.c.Invalidate(tx.ctx, k.Schema, k.Table); err != nil {
			return err
		}
	}
	return nil
}

func (c *CachedIntrospector) logger() *slog.Logger {
	if l, ok := c.Platform.(interface{ Logger() *slog.Logger }); ok {
		return l.Logger()
	}
	return slog.Default()
}

var (
	_ Platform = (*CachedIntrospector)(nil)
	_ Tx       = (*cachedTx)(nil)
)
