package schema

// TableName identifies a table or view.
type TableName struct {
	Schema string `msgpack:"schema,omitempty" json:"schema,omitempty" yaml:"schema,omitempty"`
	Name   string `msgpack:"name" json:"name" yaml:"name"`
	IsView bool   `msgpack:"is_view,omitempty" json:"is_view,omitempty" yaml:"is_view,omitempty"`
}

// QualifiedName returns "schema.name", or the bare name without a schema.
func (n TableName) QualifiedName() string {
	if n.Schema == "" {
		return n.Name
	}
	return n.Schema + "." + n.Name
}

// Table describes a table or view.
type Table struct {
	// Schema is the schema namespace; empty for dialects without schemas.
	Schema    string      `msgpack:"schema,omitempty" json:"schema,omitempty" yaml:"schema,omitempty"`
	Name      string      `msgpack:"name" json:"name" yaml:"name"`
	Parent    *TableName  `msgpack:"parent,omitempty" json:"parent,omitempty" yaml:"parent,omitempty"`
	SubTables []TableName `msgpack:"sub_tables,omitempty" json:"sub_tables,omitempty" yaml:"sub_tables,omitempty"`
	Comment   string      `msgpack:"comment,omitempty" json:"comment,omitempty" yaml:"comment,omitempty"`
	Columns   []*Column   `msgpack:"columns" json:"columns" yaml:"columns"`
	IsView    bool        `msgpack:"is_view,omitempty" json:"is_view,omitempty" yaml:"is_view,omitempty"`
}

// NewTable returns a new table with the given name.
func NewTable(name string) *Table {
	return &Table{Name: name}
}

// SetSchema sets the schema of the table.
func (t *Table) SetSchema(s string) *Table {
	t.Schema = s
	return t
}

// SetComment sets the table comment.
func (t *Table) SetComment(c string) *Table {
	t.Comment = c
	return t
}

// AddColumns appends columns to the table.
func (t *Table) AddColumns(columns ...*Column) *Table {
	t.Columns = append(t.Columns, columns...)
	return t
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// PrimaryKey returns the primary key columns in declaration order.
func (t *Table) PrimaryKey() []*Column {
	var pk []*Column
	for _, c := range t.Columns {
		if c.Primary {
			pk = append(pk, c)
		}
	}
	return pk
}

// ForeignKeys returns the columns carrying a foreign key.
func (t *Table) ForeignKeys() []*Column {
	var fks []*Column
	for _, c := range t.Columns {
		if c.Foreign != nil {
			fks = append(fks, c)
		}
	}
	return fks
}

// TableName returns the name of the table.
func (t *Table) TableName() TableName {
	return TableName{Schema: t.Schema, Name: t.Name, IsView: t.IsView}
}

// QualifiedName returns "schema.name", or the bare name without a schema.
func (t *Table) QualifiedName() string {
	return t.TableName().QualifiedName()
}

// Column describes a table column.
type Column struct {
	Name string `msgpack:"name" json:"name" yaml:"name"`
	// Type is the logical type. It is empty when an introspected engine
	// type has no logical equivalent.
	Type Type `msgpack:"type,omitempty" json:"type,omitempty" yaml:"type,omitempty"`
	// DBType is the engine type name. When set on a column passed to DDL
	// it takes precedence over the mapping of Type.
	DBType  string   `msgpack:"db_type,omitempty" json:"db_type,omitempty" yaml:"db_type,omitempty"`
	Primary bool     `msgpack:"primary,omitempty" json:"primary,omitempty" yaml:"primary,omitempty"`
	Unique  bool     `msgpack:"unique,omitempty" json:"unique,omitempty" yaml:"unique,omitempty"`
	NotNull bool     `msgpack:"not_null,omitempty" json:"not_null,omitempty" yaml:"not_null,omitempty"`
	Default *string  `msgpack:"default,omitempty" json:"default,omitempty" yaml:"default,omitempty"`
	Comment string   `msgpack:"comment,omitempty" json:"comment,omitempty" yaml:"comment,omitempty"`
	Foreign *Foreign `msgpack:"foreign,omitempty" json:"foreign,omitempty" yaml:"foreign,omitempty"`
	// Inherited reports a column inherited from a parent table.
	Inherited bool `msgpack:"inherited,omitempty" json:"inherited,omitempty" yaml:"inherited,omitempty"`
}

// NewColumn returns a new column of the given logical type.
func NewColumn(name string, t Type) *Column {
	return &Column{Name: name, Type: t}
}

// SetPrimary marks the column as (part of) the primary key.
func (c *Column) SetPrimary() *Column {
	c.Primary = true
	return c
}

// SetUnique marks the column as unique.
func (c *Column) SetUnique() *Column {
	c.Unique = true
	return c
}

// SetNotNull marks the column as NOT NULL.
func (c *Column) SetNotNull() *Column {
	c.NotNull = true
	return c
}

// SetDefault sets the default expression. The expression is raw SQL.
func (c *Column) SetDefault(expr string) *Column {
	c.Default = &expr
	return c
}

// SetComment sets the column comment.
func (c *Column) SetComment(s string) *Column {
	c.Comment = s
	return c
}

// SetForeign sets the foreign key of the column.
func (c *Column) SetForeign(table, column string) *Column {
	c.Foreign = &Foreign{Table: table, Column: column}
	return c
}

// Foreign is a single-column foreign key edge. It is not verified when
// building DDL; the engine enforces it.
type Foreign struct {
	Schema string `msgpack:"schema,omitempty" json:"schema,omitempty" yaml:"schema,omitempty"`
	Table  string `msgpack:"table" json:"table" yaml:"table"`
	Column string `msgpack:"column" json:"column" yaml:"column"`
}

// TableName returns the referenced table.
func (f *Foreign) TableName() TableName {
	return TableName{Schema: f.Schema, Name: f.Table}
}
