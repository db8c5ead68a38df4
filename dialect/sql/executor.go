package sql

import (
	"context"
	"fmt"

	"github.com/syssam/dbkit"
	"github.com/syssam/dbkit/dialect"
)

// Executor runs statements with Value parameters on a dialect.ExecQuerier
// and decodes result rows with a Converter.
type Executor struct {
	eq   dialect.ExecQuerier
	conv Converter
}

// NewExecutor returns an Executor for the given connection or transaction.
func NewExecutor(eq dialect.ExecQuerier, conv Converter) *Executor {
	return &Executor{eq: eq, conv: conv}
}

// Converter returns the converter of the executor.
func (e *Executor) Converter() Converter {
	return e.conv
}

// Exec executes a statement that returns no rows.
func (e *Executor) Exec(ctx context.Context, query string, params []Value) (Result, error) {
	if e == nil || e.eq == nil {
		return nil, dbkit.ErrConnectionUnavailable
	}
	args, err := Natives(e.conv, params)
	if err != nil {
		return nil, err
	}
	var res Result
	if err := e.eq.Exec(ctx, query, args, &res); err != nil {
		return nil, wrapError("exec", query, err)
	}
	return res, nil
}

// ExecFrag executes the statement of a fragment.
func (e *Executor) ExecFrag(ctx context.Context, f *Frag) (Result, error) {
	query, params := f.Query()
	return e.Exec(ctx, query, params)
}

// Query executes a statement and decodes all returned rows.
func (e *Executor) Query(ctx context.Context, query string, params []Value) ([]*Row, error) {
	if e == nil || e.eq == nil {
		return nil, dbkit.ErrConnectionUnavailable
	}
	args, err := Natives(e.conv, params)
	if err != nil {
		return nil, err
	}
	var rows Rows
	if err := e.eq.Query(ctx, query, args, &rows); err != nil {
		return nil, wrapError("query", query, err)
	}
	defer rows.Close()
	result, err := e.scan(rows)
	if err != nil {
		return nil, wrapError("query", query, err)
	}
	return result, nil
}

// QueryFrag executes the statement of a fragment and decodes all rows.
func (e *Executor) QueryFrag(ctx context.Context, f *Frag) ([]*Row, error) {
	query, params := f.Query()
	return e.Query(ctx, query, params)
}

// QueryOne executes a statement and returns its first row, or nil if the
// statement returned no rows.
func (e *Executor) QueryOne(ctx context.Context, query string, params []Value) (*Row, error) {
	rows, err := e.Query(ctx, query, params)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (e *Executor) scan(rows Rows) ([]*Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types := make([]ColumnType, len(columns))
	// Column types only disambiguate byte payloads; drivers that cannot
	// report them are decoded without.
	if cts, err := rows.ColumnTypes(); err == nil && len(cts) == len(columns) {
		for i, ct := range cts {
			types[i] = ct
		}
	}
	var (
		result []*Row
		raw    = make([]any, len(columns))
		dest   = make([]any, len(columns))
	)
	for i := range raw {
		dest[i] = &raw[i]
	}
	for rows.Next() {
		for i := range raw {
			raw[i] = nil
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := NewRow(len(columns))
		for i, c := range columns {
			v, err := e.conv.FromNative(raw[i], types[i])
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", c, err)
			}
			row.Set(c, v)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
