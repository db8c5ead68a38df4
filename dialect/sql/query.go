package sql

import (
	"strconv"

	"github.com/syssam/dbkit"
	"github.com/syssam/dbkit/dialect"
)

// InsertQuery is an abstract single-row INSERT statement.
type InsertQuery struct {
	schema  string
	table   string
	columns []string
	values  []Value
}

// Insert returns an INSERT query for the given table.
func Insert(table string) *InsertQuery {
	return &InsertQuery{table: table}
}

// Schema sets the schema of the table.
func (q *InsertQuery) Schema(name string) *InsertQuery {
	q.schema = name
	return q
}

// Set sets a column value. Setting a column twice replaces its value.
func (q *InsertQuery) Set(column string, v Value) *InsertQuery {
	for i, c := range q.columns {
		if c == column {
			q.values[i] = v
			return q
		}
	}
	q.columns = append(q.columns, column)
	q.values = append(q.values, v)
	return q
}

// TableName returns the table and schema of the query.
func (q *InsertQuery) TableName() (schema, table string) {
	return q.schema, q.table
}

// Columns returns the set columns in order.
func (q *InsertQuery) Columns() []string {
	return append([]string(nil), q.columns...)
}

// Values returns the set values in column order.
func (q *InsertQuery) Values() []Value {
	return append([]Value(nil), q.values...)
}

// Build returns the statement for the given dialect. RETURNING * is
// appended when the dialect supports it.
func (q *InsertQuery) Build(caps dialect.Capabilities) (*Frag, error) {
	if q.schema != "" && !caps.Has(dialect.Schema) {
		return nil, dbkit.NewSchemaUnsupportedError(caps.Name, "insert")
	}
	f := NewFrag(caps)
	f.Append("INSERT INTO ").Table(q.schema, q.table)
	switch {
	case len(q.columns) > 0:
		f.Append(" (").Idents(q.columns...).Append(") VALUES (").Params(q.values...).Append(")")
	case caps.Name == dialect.MySQL:
		f.Append(" () VALUES ()")
	default:
		f.Append(" DEFAULT VALUES")
	}
	if caps.Has(dialect.Returning) {
		f.Append(" RETURNING *")
	}
	return f, nil
}

// Order is an ORDER BY term.
type Order struct {
	Column string
	Desc   bool
}

// Asc returns an ascending order term.
func Asc(column string) Order { return Order{Column: column} }

// Desc returns a descending order term.
func Desc(column string) Order { return Order{Column: column, Desc: true} }

type cte struct {
	name  string
	query *SelectQuery
}

// SelectQuery is an abstract SELECT statement.
type SelectQuery struct {
	with    []cte
	columns []string
	schema  string
	table   string
	where   []*Predicate
	order   []Order
	limit   *int
	offset  *int
}

// Select returns a SELECT query of the given columns. No columns selects all.
func Select(columns ...string) *SelectQuery {
	return &SelectQuery{columns: columns}
}

// From sets the table to select from.
func (q *SelectQuery) From(table string) *SelectQuery {
	q.table = table
	return q
}

// Schema sets the schema of the table.
func (q *SelectQuery) Schema(name string) *SelectQuery {
	q.schema = name
	return q
}

// Where appends predicates, combined with AND.
func (q *SelectQuery) Where(preds ...*Predicate) *SelectQuery {
	q.where = append(q.where, preds...)
	return q
}

// OrderBy appends order terms.
func (q *SelectQuery) OrderBy(terms ...Order) *SelectQuery {
	q.order = append(q.order, terms...)
	return q
}

// Limit limits the number of returned rows.
func (q *SelectQuery) Limit(n int) *SelectQuery {
	q.limit = &n
	return q
}

// Offset skips the first n rows.
func (q *SelectQuery) Offset(n int) *SelectQuery {
	q.offset = &n
	return q
}

// With prepends a named common table expression.
func (q *SelectQuery) With(name string, sub *SelectQuery) *SelectQuery {
	q.with = append(q.with, cte{name: name, query: sub})
	return q
}

// Build returns the statement for the given dialect.
func (q *SelectQuery) Build(caps dialect.Capabilities) (*Frag, error) {
	f := NewFrag(caps)
	if err := q.BuildTo(f); err != nil {
		return nil, err
	}
	return f, nil
}

// BuildTo writes the statement into f.
func (q *SelectQuery) BuildTo(f *Frag) error {
	caps := f.Capabilities()
	if q.schema != "" && !caps.Has(dialect.Schema) {
		return dbkit.NewSchemaUnsupportedError(caps.Name, "select")
	}
	if len(q.with) > 0 {
		if !caps.Has(dialect.CTE) {
			return dbkit.NewFeatureUnsupportedError(caps.Name, dialect.CTE.String())
		}
		f.Append("WITH ")
		for i, c := range q.with {
			if i > 0 {
				f.CommaSp()
			}
			f.Ident(c.name).Append(" AS (")
			if err := c.query.BuildTo(f); err != nil {
				return err
			}
			f.Append(")")
		}
		f.Sp()
	}
	f.Append("SELECT ")
	if len(q.columns) == 0 {
		f.Append("*")
	} else {
		f.Idents(q.columns...)
	}
	if q.table != "" {
		f.Append(" FROM ").Table(q.schema, q.table)
	}
	if len(q.where) > 0 {
		f.Append(" WHERE ")
		And(q.where...).Build(f)
	}
	for i, o := range q.order {
		if i == 0 {
			f.Append(" ORDER BY ")
		} else {
			f.CommaSp()
		}
		f.Ident(o.Column)
		if o.Desc {
			f.Append(" DESC")
		}
	}
	switch {
	case q.limit != nil:
		f.Append(" LIMIT ", strconv.Itoa(*q.limit))
	case q.offset != nil && caps.Name == dialect.MySQL:
		// MySQL does not accept OFFSET without LIMIT.
		f.Append(" LIMIT 18446744073709551615")
	case q.offset != nil && caps.Name == dialect.SQLite:
		f.Append(" LIMIT -1")
	}
	if q.offset != nil {
		f.Append(" OFFSET ", strconv.Itoa(*q.offset))
	}
	return nil
}
