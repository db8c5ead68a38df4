// Package sqlite implements the SQLite platform on modernc.org/sqlite.
//
// SQLite has no schemas, so every schema argument must be empty. Table
// and column comments are the "--" line comments of the CREATE TABLE
// statement stored in sqlite_master.
package sqlite

import (
	"context"
	"errors"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/syssam/dbkit"
	"github.com/syssam/dbkit/dialect"
	"github.com/syssam/dbkit/dialect/sql"
	"github.com/syssam/dbkit/dialect/sql/schema"
	"github.com/syssam/dbkit/platform"
)

func init() {
	platform.Register(dialect.SQLite, func(drv dialect.Driver, o *platform.Options) (platform.Platform, error) {
		return New(drv, o.Logger), nil
	})
}

// Platform is the SQLite platform.
type Platform struct {
	*platform.Base
}

// New returns the SQLite platform on drv.
func New(drv dialect.Driver, logger *slog.Logger) *Platform {
	return &Platform{
		Base: platform.NewBase(drv, platform.Config{
			Dialect:      schema.SQLite,
			Converter:    NewConverter(),
			VersionQuery: "SELECT sqlite_version() AS version",
		}, logger),
	}
}

func (p *Platform) frag() *sql.Frag {
	return sql.NewFrag(p.Capabilities())
}

// GetAllTables implements platform.Introspector.
func (p *Platform) GetAllTables(ctx context.Context) ([]schema.TableName, error) {
	rows, err := p.Query(ctx, "SELECT name, type FROM sqlite_master WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%' ORDER BY name", nil)
	if err != nil {
		return nil, err
	}
	tables := make([]schema.TableName, 0, len(rows))
	for _, r := range rows {
		tables = append(tables, schema.TableName{
			Name:   r.String("name"),
			IsView: r.String("type") == "view",
		})
	}
	return tables, nil
}

// GetTableMetadata implements platform.Introspector.
func (p *Platform) GetTableMetadata(ctx context.Context, schemaName, table string, isView bool) (*schema.Table, error) {
	if err := p.CheckSchema(schemaName, "get table metadata"); err != nil {
		return nil, err
	}
	f := p.frag().Append(`SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(`).
		Param(sql.TextValue(table)).Append(") ORDER BY cid")
	rows, err := p.Executor().QueryFrag(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, dbkit.NewNotFoundError("table", table)
	}
	unique, err := p.uniqueColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	t := &schema.Table{Name: table, IsView: isView}
	for _, r := range rows {
		c := &schema.Column{
			Name:   r.String("name"),
			DBType: r.String("type"),
		}
		c.Type, _ = p.LogicalType(c.DBType)
		c.NotNull, _ = r.Bool("notnull")
		if pk, _ := r.Int("pk"); pk > 0 {
			c.Primary = true
		}
		if d := r.Get("dflt_value"); !d.IsNull() {
			c.SetDefault(d.String())
		}
		c.Unique = unique[c.Name]
		t.Columns = append(t.Columns, c)
	}
	if err := platform.Describe(ctx, p, t); err != nil {
		return nil, err
	}
	return t, nil
}

// uniqueColumns returns the columns carrying a single-column UNIQUE index.
func (p *Platform) uniqueColumns(ctx context.Context, table string) (map[string]bool, error) {
	f := p.frag().Append("SELECT MIN(ii.name) AS name FROM pragma_index_list(").Param(sql.TextValue(table)).
		Append(`) AS il JOIN pragma_index_info(il.name) AS ii WHERE il."unique" = 1 AND il.origin <> 'pk' GROUP BY il.name HAVING COUNT(*) = 1`)
	rows, err := p.Executor().QueryFrag(ctx, f)
	if err != nil {
		return nil, err
	}
	unique := make(map[string]bool, len(rows))
	for _, r := range rows {
		unique[r.String("name")] = true
	}
	return unique, nil
}

// GetForeignKeys implements platform.Introspector.
func (p *Platform) GetForeignKeys(ctx context.Context, schemaName, table string) (map[string]*schema.Foreign, error) {
	if err := p.CheckSchema(schemaName, "get foreign keys"); err != nil {
		return nil, err
	}
	f := p.frag().Append(`SELECT "from", "table", "to" FROM pragma_foreign_key_list(`).
		Param(sql.TextValue(table)).Append(") ORDER BY id, seq")
	rows, err := p.Executor().QueryFrag(ctx, f)
	if err != nil {
		return nil, err
	}
	fks := make(map[string]*schema.Foreign, len(rows))
	for _, r := range rows {
		fks[r.String("from")] = &schema.Foreign{
			Table:  r.String("table"),
			Column: r.String("to"),
		}
	}
	return fks, nil
}

// GetTableComment implements platform.Introspector.
func (p *Platform) GetTableComment(ctx context.Context, schemaName, table string) (string, error) {
	c, err := p.comments(ctx, schemaName, table)
	if err != nil || c == nil {
		return "", err
	}
	return c.Table(), nil
}

// GetColumnComments implements platform.Introspector.
func (p *Platform) GetColumnComments(ctx context.Context, schemaName, table string) (map[string]string, error) {
	c, err := p.comments(ctx, schemaName, table)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return map[string]string{}, nil
	}
	return c.Columns(), nil
}

// comments reads the comments of the stored CREATE TABLE statement. An
// unparsable statement has no comments.
func (p *Platform) comments(ctx context.Context, schemaName, table string) (*schema.Comments, error) {
	if err := p.CheckSchema(schemaName, "get comments"); err != nil {
		return nil, err
	}
	f := p.frag().Append("SELECT sql FROM sqlite_master WHERE type IN ('table', 'view') AND name = ").
		Param(sql.TextValue(table))
	query, args := f.Query()
	row, err := p.QueryOne(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, dbkit.NewNotFoundError("table", table)
	}
	c, err := schema.ExtractComments(row.String("sql"))
	var perr *dbkit.IntrospectionParseError
	if errors.As(err, &perr) {
		perr.Table = table
		p.Logger().DebugContext(ctx, "no comments extracted", "table", table, "error", perr)
		return nil, nil
	}
	return c, err
}

// GetParentTable implements platform.Introspector. SQLite has no table
// inheritance.
func (p *Platform) GetParentTable(_ context.Context, schemaName, _ string) (*schema.TableName, error) {
	return nil, p.CheckSchema(schemaName, "get parent table")
}

// GetSubTables implements platform.Introspector.
func (p *Platform) GetSubTables(_ context.Context, schemaName, _ string) ([]schema.TableName, error) {
	return nil, p.CheckSchema(schemaName, "get sub tables")
}

// GetInheritedColumns implements platform.Introspector.
func (p *Platform) GetInheritedColumns(_ context.Context, schemaName, _ string) ([]string, error) {
	return nil, p.CheckSchema(schemaName, "get inherited columns")
}

var _ platform.Platform = (*Platform)(nil)
