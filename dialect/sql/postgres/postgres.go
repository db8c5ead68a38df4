// Package postgres implements the PostgreSQL platform on lib/pq.
//
// An empty schema argument means the "public" schema. Table inheritance
// is read from pg_inherits.
package postgres

import (
	"context"
	"log/slog"

	_ "github.com/lib/pq"

	"github.com/syssam/dbkit"
	"github.com/syssam/dbkit/dialect"
	"github.com/syssam/dbkit/dialect/sql"
	"github.com/syssam/dbkit/dialect/sql/schema"
	"github.com/syssam/dbkit/platform"
)

// DefaultSchema is the schema used when none is given.
const DefaultSchema = "public"

func init() {
	platform.Register(dialect.Postgres, func(drv dialect.Driver, o *platform.Options) (platform.Platform, error) {
		return New(drv, o.Logger), nil
	})
}

// Platform is the PostgreSQL platform.
type Platform struct {
	*platform.Base
}

// New returns the PostgreSQL platform on drv.
func New(drv dialect.Driver, logger *slog.Logger) *Platform {
	return &Platform{
		Base: platform.NewBase(drv, platform.Config{
			Dialect:      schema.Postgres,
			Converter:    NewConverter(),
			VersionQuery: "SELECT current_setting('server_version') AS version",
		}, logger),
	}
}

func (p *Platform) frag() *sql.Frag {
	return sql.NewFrag(p.Capabilities())
}

// DefaultSchema returns the schema used when none is given.
func (p *Platform) DefaultSchema() string { return DefaultSchema }

func schemaOf(name string) string {
	if name == "" {
		return DefaultSchema
	}
	return name
}

// relation appends the catalog condition selecting the relation c in
// namespace n.
func relation(f *sql.Frag, schemaName, table string) *sql.Frag {
	return f.Append("n.nspname = ").Param(sql.TextValue(schemaOf(schemaName))).
		Append(" AND c.relname = ").Param(sql.TextValue(table))
}

func notFound(schemaName, table string) error {
	return dbkit.NewNotFoundError("table", schemaOf(schemaName)+"."+table)
}

const fromRelation = " FROM pg_catalog.pg_class c JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace"

// GetAllTables implements platform.Introspector.
func (p *Platform) GetAllTables(ctx context.Context) ([]schema.TableName, error) {
	rows, err := p.Query(ctx, "SELECT n.nspname AS schema, c.relname AS name, c.relkind IN ('v', 'm') AS is_view"+fromRelation+
		" WHERE c.relkind IN ('r', 'p', 'v', 'm') AND n.nspname NOT IN ('pg_catalog', 'information_schema') AND n.nspname NOT LIKE 'pg_toast%'"+
		" ORDER BY n.nspname, c.relname", nil)
	if err != nil {
		return nil, err
	}
	tables := make([]schema.TableName, 0, len(rows))
	for _, r := range rows {
		view, _ := r.Bool("is_view")
		tables = append(tables, schema.TableName{
			Schema: r.String("schema"),
			Name:   r.String("name"),
			IsView: view,
		})
	}
	return tables, nil
}

// GetTableMetadata implements platform.Introspector. The table's parent
// and sub-tables are filled in as well.
func (p *Platform) GetTableMetadata(ctx context.Context, schemaName, table string, isView bool) (*schema.Table, error) {
	f := p.frag().Append("SELECT a.attname AS name, pg_catalog.format_type(a.atttypid, a.atttypmod) AS type, a.attnotnull AS not_null, ").
		Append("pg_catalog.pg_get_expr(d.adbin, d.adrelid) AS dflt, a.attinhcount > 0 AS inherited, ").
		Append("EXISTS (SELECT 1 FROM pg_catalog.pg_index i WHERE i.indrelid = c.oid AND i.indisprimary AND a.attnum = ANY(i.indkey)) AS primary_key, ").
		Append("EXISTS (SELECT 1 FROM pg_catalog.pg_index i WHERE i.indrelid = c.oid AND i.indisunique AND NOT i.indisprimary AND i.indnkeyatts = 1 AND i.indkey[0] = a.attnum) AS unique_key").
		Append(fromRelation).
		Append(" JOIN pg_catalog.pg_attribute a ON a.attrelid = c.oid").
		Append(" LEFT JOIN pg_catalog.pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum WHERE ")
	relation(f, schemaName, table).Append(" AND a.attnum > 0 AND NOT a.attisdropped ORDER BY a.attnum")
	rows, err := p.Executor().QueryFrag(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, notFound(schemaName, table)
	}
	t := &schema.Table{Schema: schemaOf(schemaName), Name: table, IsView: isView}
	for _, r := range rows {
		c := &schema.Column{
			Name:   r.String("name"),
			DBType: r.String("type"),
		}
		c.Type, _ = p.LogicalType(c.DBType)
		c.NotNull, _ = r.Bool("not_null")
		c.Inherited, _ = r.Bool("inherited")
		c.Primary, _ = r.Bool("primary_key")
		c.Unique, _ = r.Bool("unique_key")
		if d := r.Get("dflt"); !d.IsNull() {
			c.SetDefault(d.String())
		}
		t.Columns = append(t.Columns, c)
	}
	if err := platform.Describe(ctx, p, t); err != nil {
		return nil, err
	}
	if t.Parent, err = p.GetParentTable(ctx, t.Schema, table); err != nil {
		return nil, err
	}
	if t.SubTables, err = p.GetSubTables(ctx, t.Schema, table); err != nil {
		return nil, err
	}
	return t, nil
}

// GetForeignKeys implements platform.Introspector.
func (p *Platform) GetForeignKeys(ctx context.Context, schemaName, table string) (map[string]*schema.Foreign, error) {
	f := p.frag().Append("SELECT kcu.column_name AS name, ccu.table_schema AS ref_schema, ccu.table_name AS ref_table, ccu.column_name AS ref_column ").
		Append("FROM information_schema.table_constraints tc ").
		Append("JOIN information_schema.key_column_usage kcu ON kcu.constraint_schema = tc.constraint_schema AND kcu.constraint_name = tc.constraint_name ").
		Append("JOIN information_schema.constraint_column_usage ccu ON ccu.constraint_schema = tc.constraint_schema AND ccu.constraint_name = tc.constraint_name ").
		Append("WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = ").Param(sql.TextValue(schemaOf(schemaName))).
		Append(" AND tc.table_name = ").Param(sql.TextValue(table)).
		Append(" ORDER BY tc.constraint_name, kcu.ordinal_position")
	rows, err := p.Executor().QueryFrag(ctx, f)
	if err != nil {
		return nil, err
	}
	fks := make(map[string]*schema.Foreign, len(rows))
	for _, r := range rows {
		fks[r.String("name")] = &schema.Foreign{
			Schema: r.String("ref_schema"),
			Table:  r.String("ref_table"),
			Column: r.String("ref_column"),
		}
	}
	return fks, nil
}

// GetTableComment implements platform.Introspector.
func (p *Platform) GetTableComment(ctx context.Context, schemaName, table string) (string, error) {
	f := p.frag().Append("SELECT pg_catalog.obj_description(c.oid, 'pg_class') AS comment").Append(fromRelation).Append(" WHERE ")
	query, args := relation(f, schemaName, table).Query()
	row, err := p.QueryOne(ctx, query, args)
	if err != nil {
		return "", err
	}
	if row == nil {
		return "", notFound(schemaName, table)
	}
	return row.String("comment"), nil
}

// GetColumnComments implements platform.Introspector.
func (p *Platform) GetColumnComments(ctx context.Context, schemaName, table string) (map[string]string, error) {
	f := p.frag().Append("SELECT a.attname AS name, pg_catalog.col_description(c.oid, a.attnum) AS comment").
		Append(fromRelation).
		Append(" JOIN pg_catalog.pg_attribute a ON a.attrelid = c.oid WHERE ")
	relation(f, schemaName, table).
		Append(" AND a.attnum > 0 AND NOT a.attisdropped AND pg_catalog.col_description(c.oid, a.attnum) IS NOT NULL ORDER BY a.attnum")
	rows, err := p.Executor().QueryFrag(ctx, f)
	if err != nil {
		return nil, err
	}
	comments := make(map[string]string, len(rows))
	for _, r := range rows {
		comments[r.String("name")] = r.String("comment")
	}
	return comments, nil
}

// GetParentTable implements platform.Introspector. With multiple
// inheritance the first parent is returned.
func (p *Platform) GetParentTable(ctx context.Context, schemaName, table string) (*schema.TableName, error) {
	f := p.frag().Append("SELECT pn.nspname AS schema, pc.relname AS name FROM pg_catalog.pg_inherits i").
		Append(" JOIN pg_catalog.pg_class c ON c.oid = i.inhrelid JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace").
		Append(" JOIN pg_catalog.pg_class pc ON pc.oid = i.inhparent JOIN pg_catalog.pg_namespace pn ON pn.oid = pc.relnamespace WHERE ")
	query, args := relation(f, schemaName, table).Append(" ORDER BY i.inhseqno LIMIT 1").Query()
	row, err := p.QueryOne(ctx, query, args)
	if err != nil || row == nil {
		return nil, err
	}
	return &schema.TableName{Schema: row.String("schema"), Name: row.String("name")}, nil
}

// GetSubTables implements platform.Introspector.
func (p *Platform) GetSubTables(ctx context.Context, schemaName, table string) ([]schema.TableName, error) {
	f := p.frag().Append("SELECT cn.nspname AS schema, cc.relname AS name FROM pg_catalog.pg_inherits i").
		Append(" JOIN pg_catalog.pg_class c ON c.oid = i.inhparent JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace").
		Append(" JOIN pg_catalog.pg_class cc ON cc.oid = i.inhrelid JOIN pg_catalog.pg_namespace cn ON cn.oid = cc.relnamespace WHERE ")
	relation(f, schemaName, table).Append(" ORDER BY cn.nspname, cc.relname")
	rows, err := p.Executor().QueryFrag(ctx, f)
	if err != nil {
		return nil, err
	}
	var subs []schema.TableName
	for _, r := range rows {
		subs = append(subs, schema.TableName{Schema: r.String("schema"), Name: r.String("name")})
	}
	return subs, nil
}

// GetInheritedColumns implements platform.Introspector.
func (p *Platform) GetInheritedColumns(ctx context.Context, schemaName, table string) ([]string, error) {
	f := p.frag().Append("SELECT a.attname AS name").Append(fromRelation).
		Append(" JOIN pg_catalog.pg_attribute a ON a.attrelid = c.oid WHERE ")
	relation(f, schemaName, table).Append(" AND a.attnum > 0 AND NOT a.attisdropped AND a.attinhcount > 0 ORDER BY a.attnum")
	rows, err := p.Executor().QueryFrag(ctx, f)
	if err != nil {
		return nil, err
	}
	var columns []string
	for _, r := range rows {
		columns = append(columns, r.String("name"))
	}
	return columns, nil
}

var _ platform.Platform = (*Platform)(nil)
