package sql

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Row is an ordered record of column name to Value, built once per
// returned row. Column order is the result-set order.
type Row struct {
	columns []string
	values  []Value
	index   map[string]int
}

// NewRow returns an empty row with room for n columns.
func NewRow(n int) *Row {
	return &Row{
		columns: make([]string, 0, n),
		values:  make([]Value, 0, n),
		index:   make(map[string]int, n),
	}
}

// Set sets the value of a column. A new column is appended at the end.
func (r *Row) Set(column string, v Value) {
	if i, ok := r.index[column]; ok {
		r.values[i] = v
		return
	}
	r.index[column] = len(r.columns)
	r.columns = append(r.columns, column)
	r.values = append(r.values, v)
}

// Get returns the value of a column, or null if the column is absent.
func (r *Row) Get(column string) Value {
	v, _ := r.Lookup(column)
	return v
}

// Lookup returns the value of a column and reports whether it is present.
func (r *Row) Lookup(column string) (Value, bool) {
	if r == nil {
		return Value{}, false
	}
	i, ok := r.index[column]
	if !ok {
		return Value{}, false
	}
	return r.values[i], true
}

// Columns returns the column names in order.
func (r *Row) Columns() []string {
	return append([]string(nil), r.columns...)
}

// Values returns the values in column order.
func (r *Row) Values() []Value {
	return append([]Value(nil), r.values...)
}

// Len returns the number of columns.
func (r *Row) Len() int {
	if r == nil {
		return 0
	}
	return len(r.columns)
}

// String returns the text rendering of a column; "" when absent or null.
func (r *Row) String(column string) string {
	return r.Get(column).String()
}

// Int returns the integer value of a column.
func (r *Row) Int(column string) (int64, bool) {
	return r.Get(column).Int()
}

// Bool returns the boolean value of a column. Integer 0/1 are accepted,
// since MySQL and SQLite report booleans as integers.
func (r *Row) Bool(column string) (bool, bool) {
	v := r.Get(column)
	if b, ok := v.Bool(); ok {
		return b, true
	}
	if i, ok := v.Int(); ok {
		return i != 0, true
	}
	return false, false
}

// MarshalJSON encodes the row as a JSON object, keeping column order.
func (r *Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := r.values[i].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the row as a YAML mapping, keeping column order.
func (r *Row) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for i, c := range r.columns {
		v, err := r.values[i].MarshalYAML()
		if err != nil {
			return nil, err
		}
		var val yaml.Node
		if err := val.Encode(v); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: c},
			&val,
		)
	}
	return node, nil
}
