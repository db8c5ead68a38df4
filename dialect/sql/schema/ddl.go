package schema

import (
	"fmt"
	"strings"

	"github.com/syssam/dbkit"
	"github.com/syssam/dbkit/dialect"
	"github.com/syssam/dbkit/dialect/sql"
)

// clause is one comma separated entry of a CREATE TABLE body.
type clause struct {
	text    string
	comment string
}

// BuildCreateTable returns the CREATE TABLE statement of t:
//
//	CREATE TABLE <name> (
//		<column> <type>[ NOT NULL][ UNIQUE][ DEFAULT <expr>][ PRIMARY KEY],
//		[PRIMARY KEY (<a>, <b>),]
//		FOREIGN KEY (<column>) REFERENCES <table> (<column>)
//	)[ INHERITS (<parent>)]
//
// Column clauses follow the order of t.Columns and every column with a
// Foreign gets exactly one FOREIGN KEY clause. Inherited columns are left
// to the parent table. Comments are written in the comment style of the
// dialect; for CommentStatement see BuildComments.
func BuildCreateTable(t *Table, d *Dialect) (*sql.Frag, error) {
	if err := checkTable(t, d, "create table"); err != nil {
		return nil, err
	}
	var (
		clauses []clause
		pk      = t.PrimaryKey()
		columns = ownColumns(t)
	)
	if len(columns) == 0 {
		return nil, fmt.Errorf("schema: table %q has no columns", t.Name)
	}
	for _, c := range columns {
		text, err := columnClause(c, d, len(pk) == 1)
		if err != nil {
			return nil, err
		}
		cl := clause{text: text}
		if d.Comments == CommentLine {
			cl.comment = c.Comment
		}
		clauses = append(clauses, cl)
	}
	if len(pk) > 1 {
		f := sql.NewFrag(d.Caps)
		f.Append("PRIMARY KEY (")
		for i, c := range pk {
			if i > 0 {
				f.CommaSp()
			}
			f.Ident(c.Name)
		}
		f.Append(")")
		clauses = append(clauses, clause{text: f.String()})
	}
	for _, c := range columns {
		if c.Foreign == nil {
			continue
		}
		if err := checkSchema(d, c.Foreign.Schema, "create table"); err != nil {
			return nil, err
		}
		clauses = append(clauses, clause{text: foreignClause(c, d)})
	}

	f := sql.NewFrag(d.Caps)
	f.Append("CREATE TABLE ").Table(t.Schema, t.Name).Append(" (")
	if d.Comments == CommentLine && t.Comment != "" {
		f.Append(" -- ", singleLine(t.Comment))
	}
	for i, cl := range clauses {
		f.LnTab().Append(cl.text)
		if i < len(clauses)-1 {
			f.Append(",")
		}
		if cl.comment != "" {
			f.Append(" -- ", singleLine(cl.comment))
		}
	}
	f.Ln().Append(")")
	if t.Parent != nil {
		f.Append(" INHERITS (").Table(t.Parent.Schema, t.Parent.Name).Append(")")
	}
	if d.Comments == CommentInline && t.Comment != "" {
		f.Append(" COMMENT = ").Literal(t.Comment)
	}
	return f, nil
}

// BuildComments returns the COMMENT ON statements of t for dialects that
// carry comments in separate statements, and nil for the others.
func BuildComments(t *Table, d *Dialect) []*sql.Frag {
	if d.Comments != CommentStatement {
		return nil
	}
	var stmts []*sql.Frag
	if t.Comment != "" {
		f := sql.NewFrag(d.Caps)
		f.Append("COMMENT ON TABLE ").Table(t.Schema, t.Name).Append(" IS ").Literal(t.Comment)
		stmts = append(stmts, f)
	}
	for _, c := range ownColumns(t) {
		if c.Comment == "" {
			continue
		}
		f := sql.NewFrag(d.Caps)
		f.Append("COMMENT ON COLUMN ").Table(t.Schema, t.Name).Append(".").Ident(c.Name).
			Append(" IS ").Literal(c.Comment)
		stmts = append(stmts, f)
	}
	return stmts
}

// BuildDropTable returns the DROP TABLE statement of a table.
func BuildDropTable(d *Dialect, schema, name string) (*sql.Frag, error) {
	if err := checkSchema(d, schema, "drop table"); err != nil {
		return nil, err
	}
	f := sql.NewFrag(d.Caps)
	f.Append("DROP TABLE ").Table(schema, name)
	return f, nil
}

// BuildRenameTable returns the statement renaming a table within its schema.
func BuildRenameTable(d *Dialect, schema, from, to string) (*sql.Frag, error) {
	if err := checkSchema(d, schema, "rename table"); err != nil {
		return nil, err
	}
	f := sql.NewFrag(d.Caps)
	f.Append("ALTER TABLE ").Table(schema, from).Append(" RENAME TO ").Ident(to)
	return f, nil
}

// BuildCreateSchema returns the CREATE SCHEMA statement.
func BuildCreateSchema(d *Dialect, name string) (*sql.Frag, error) {
	if !d.Caps.Has(dialect.Schema) {
		return nil, dbkit.NewSchemaUnsupportedError(d.Caps.Name, "create schema")
	}
	f := sql.NewFrag(d.Caps)
	f.Append("CREATE SCHEMA ").Ident(name)
	return f, nil
}

// BuildDropSchema returns the DROP SCHEMA statement.
func BuildDropSchema(d *Dialect, name string) (*sql.Frag, error) {
	if !d.Caps.Has(dialect.Schema) {
		return nil, dbkit.NewSchemaUnsupportedError(d.Caps.Name, "drop schema")
	}
	f := sql.NewFrag(d.Caps)
	f.Append("DROP SCHEMA ").Ident(name)
	return f, nil
}

// BuildAddForeignKey returns the ALTER TABLE statement adding a foreign key
// on a column of an existing table.
func BuildAddForeignKey(d *Dialect, schema, table, column string, fk *Foreign) (*sql.Frag, error) {
	if !d.Caps.Has(dialect.AlterConstraint) {
		return nil, dbkit.NewFeatureUnsupportedError(d.Caps.Name, dialect.AlterConstraint.String())
	}
	if err := checkSchema(d, schema, "add foreign key"); err != nil {
		return nil, err
	}
	if fk == nil || fk.Table == "" || fk.Column == "" {
		return nil, fmt.Errorf("schema: incomplete foreign key on %s.%s", table, column)
	}
	if err := checkSchema(d, fk.Schema, "add foreign key"); err != nil {
		return nil, err
	}
	f := sql.NewFrag(d.Caps)
	f.Append("ALTER TABLE ").Table(schema, table).
		Append(" ADD CONSTRAINT ").Ident(table+"_"+column+"_fkey").
		Append(" FOREIGN KEY (").Ident(column).Append(") REFERENCES ").
		Table(fk.Schema, fk.Table).Append(" (").Ident(fk.Column).Append(")")
	return f, nil
}

// BuildAddPrimaryKey returns the ALTER TABLE statement adding a primary key
// to an existing table.
func BuildAddPrimaryKey(d *Dialect, schema, table string, columns ...string) (*sql.Frag, error) {
	if !d.Caps.Has(dialect.AlterConstraint) {
		return nil, dbkit.NewFeatureUnsupportedError(d.Caps.Name, dialect.AlterConstraint.String())
	}
	if err := checkSchema(d, schema, "add primary key"); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("schema: primary key of %s has no columns", table)
	}
	f := sql.NewFrag(d.Caps)
	f.Append("ALTER TABLE ").Table(schema, table).Append(" ADD PRIMARY KEY (").Idents(columns...).Append(")")
	return f, nil
}

func checkTable(t *Table, d *Dialect, op string) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("schema: %s: table name is empty", op)
	}
	if err := checkSchema(d, t.Schema, op); err != nil {
		return err
	}
	if t.Parent != nil && !d.Caps.Has(dialect.Inheritance) {
		return dbkit.NewFeatureUnsupportedError(d.Caps.Name, dialect.Inheritance.String())
	}
	return nil
}

func checkSchema(d *Dialect, schema, op string) error {
	if schema != "" && !d.Caps.Has(dialect.Schema) {
		return dbkit.NewSchemaUnsupportedError(d.Caps.Name, op)
	}
	return nil
}

// ownColumns returns the columns declared by t itself.
func ownColumns(t *Table) []*Column {
	if t.Parent == nil {
		return t.Columns
	}
	columns := make([]*Column, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !c.Inherited {
			columns = append(columns, c)
		}
	}
	return columns
}

func columnClause(c *Column, d *Dialect, inlinePK bool) (string, error) {
	typ := c.DBType
	if typ == "" {
		var err error
		if typ, err = d.DBType(c.Type); err != nil {
			return "", err
		}
	}
	f := sql.NewFrag(d.Caps)
	f.Ident(c.Name).Sp().Append(typ)
	if c.NotNull {
		f.Append(" NOT NULL")
	}
	if c.Unique {
		f.Append(" UNIQUE")
	}
	if c.Default != nil {
		f.Append(" DEFAULT ", *c.Default)
	}
	if c.Primary && inlinePK {
		f.Append(" PRIMARY KEY")
	}
	if d.Comments == CommentInline && c.Comment != "" {
		f.Append(" COMMENT ").Literal(c.Comment)
	}
	return f.String(), nil
}

func foreignClause(c *Column, d *Dialect) string {
	f := sql.NewFrag(d.Caps)
	f.Append("FOREIGN KEY (").Ident(c.Name).Append(") REFERENCES ").
		Table(c.Foreign.Schema, c.Foreign.Table).Append(" (").Ident(c.Foreign.Column).Append(")")
	return f.String()
}

// singleLine folds a comment onto one line, as "--" comments end at the
// line break.
func singleLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.Join(strings.Fields(s), " ")
}
