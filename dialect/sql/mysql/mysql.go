// Package mysql implements the MySQL platform on go-sql-driver/mysql.
//
// MySQL has no schemas separate from databases: every schema argument
// must be empty and introspection reads the database of the connection.
package mysql

import (
	"context"
	"log/slog"

	_ "github.com/go-sql-driver/mysql"

	"github.com/syssam/dbkit"
	"github.com/syssam/dbkit/dialect"
	"github.com/syssam/dbkit/dialect/sql"
	"github.com/syssam/dbkit/dialect/sql/schema"
	"github.com/syssam/dbkit/platform"
)

func init() {
	platform.Register(dialect.MySQL, func(drv dialect.Driver, o *platform.Options) (platform.Platform, error) {
		return New(drv, o.Logger), nil
	})
}

// Platform is the MySQL platform.
type Platform struct {
	*platform.Base
}

// New returns the MySQL platform on drv.
func New(drv dialect.Driver, logger *slog.Logger) *Platform {
	return &Platform{
		Base: platform.NewBase(drv, platform.Config{
			Dialect:      schema.MySQL,
			Converter:    NewConverter(),
			VersionQuery: "SELECT VERSION() AS version",
		}, logger),
	}
}

func (p *Platform) frag() *sql.Frag {
	return sql.NewFrag(p.Capabilities())
}

// text returns a column as a string. information_schema columns may be
// reported as binary strings.
func text(r *sql.Row, column string) string {
	v := r.Get(column)
	if b, ok := v.Bytes(); ok {
		return string(b)
	}
	return v.String()
}

// GetAllTables implements platform.Introspector.
func (p *Platform) GetAllTables(ctx context.Context) ([]schema.TableName, error) {
	rows, err := p.Query(ctx, "SELECT table_name AS name, table_type AS type FROM information_schema.tables WHERE table_schema = DATABASE() ORDER BY table_name", nil)
	if err != nil {
		return nil, err
	}
	tables := make([]schema.TableName, 0, len(rows))
	for _, r := range rows {
		tables = append(tables, schema.TableName{
			Name:   text(r, "name"),
			IsView: text(r, "type") == "VIEW",
		})
	}
	return tables, nil
}

// GetTableMetadata implements platform.Introspector.
func (p *Platform) GetTableMetadata(ctx context.Context, schemaName, table string, isView bool) (*schema.Table, error) {
	if err := p.CheckSchema(schemaName, "get table metadata"); err != nil {
		return nil, err
	}
	f := p.frag().Append("SELECT column_name AS name, column_type AS type, is_nullable AS nullable, column_default AS dflt, column_key AS ckey ").
		Append("FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ").
		Param(sql.TextValue(table)).Append(" ORDER BY ordinal_position")
	rows, err := p.Executor().QueryFrag(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, dbkit.NewNotFoundError("table", table)
	}
	t := &schema.Table{Name: table, IsView: isView}
	for _, r := range rows {
		c := &schema.Column{
			Name:    text(r, "name"),
			DBType:  text(r, "type"),
			NotNull: text(r, "nullable") == "NO",
		}
		c.Type, _ = p.LogicalType(c.DBType)
		switch text(r, "ckey") {
		case "PRI":
			c.Primary = true
		case "UNI":
			c.Unique = true
		}
		if d := r.Get("dflt"); !d.IsNull() {
			c.SetDefault(text(r, "dflt"))
		}
		t.Columns = append(t.Columns, c)
	}
	if err := platform.Describe(ctx, p, t); err != nil {
		return nil, err
	}
	return t, nil
}

// GetForeignKeys implements platform.Introspector.
func (p *Platform) GetForeignKeys(ctx context.Context, schemaName, table string) (map[string]*schema.Foreign, error) {
	if err := p.CheckSchema(schemaName, "get foreign keys"); err != nil {
		return nil, err
	}
	f := p.frag().Append("SELECT column_name AS name, referenced_table_name AS ref_table, referenced_column_name AS ref_column ").
		Append("FROM information_schema.key_column_usage WHERE table_schema = DATABASE() AND table_name = ").
		Param(sql.TextValue(table)).
		Append(" AND referenced_table_name IS NOT NULL ORDER BY constraint_name, ordinal_position")
	rows, err := p.Executor().QueryFrag(ctx, f)
	if err != nil {
		return nil, err
	}
	fks := make(map[string]*schema.Foreign, len(rows))
	for _, r := range rows {
		fks[text(r, "name")] = &schema.Foreign{
			Table:  text(r, "ref_table"),
			Column: text(r, "ref_column"),
		}
	}
	return fks, nil
}

// GetTableComment implements platform.Introspector. MySQL reports the
// comment of every view as "VIEW"; it is returned as empty.
func (p *Platform) GetTableComment(ctx context.Context, schemaName, table string) (string, error) {
	if err := p.CheckSchema(schemaName, "get table comment"); err != nil {
		return "", err
	}
	f := p.frag().Append("SELECT table_comment AS comment, table_type AS type FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ").
		Param(sql.TextValue(table))
	query, args := f.Query()
	row, err := p.QueryOne(ctx, query, args)
	if err != nil {
		return "", err
	}
	if row == nil {
		return "", dbkit.NewNotFoundError("table", table)
	}
	if text(row, "type") == "VIEW" {
		return "", nil
	}
	return text(row, "comment"), nil
}

// GetColumnComments implements platform.Introspector.
func (p *Platform) GetColumnComments(ctx context.Context, schemaName, table string) (map[string]string, error) {
	if err := p.CheckSchema(schemaName, "get column comments"); err != nil {
		return nil, err
	}
	f := p.frag().Append("SELECT column_name AS name, column_comment AS comment FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ").
		Param(sql.TextValue(table)).Append(" AND column_comment <> '' ORDER BY ordinal_position")
	rows, err := p.Executor().QueryFrag(ctx, f)
	if err != nil {
		return nil, err
	}
	comments := make(map[string]string, len(rows))
	for _, r := range rows {
		comments[text(r, "name")] = text(r, "comment")
	}
	return comments, nil
}

// GetParentTable implements platform.Introspector. MySQL has no table
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
