package sqlite

import (
	"strings"

	"github.com/syssam/dbkit/dialect"
	"github.com/syssam/dbkit/dialect/sql"
)

// Converter translates Values to and from modernc.org/sqlite natives.
// SQLite has no boolean storage class: booleans are bound as 0/1 and
// integers of a BOOLEAN column are read back as booleans.
type Converter struct {
	sql.Natural
}

// NewConverter returns the SQLite converter.
func NewConverter() Converter {
	return Converter{Natural: sql.Natural{Dialect: dialect.SQLite}}
}

// ToNative implements sql.Converter.
func (c Converter) ToNative(v sql.Value) (any, error) {
	if b, ok := v.Bool(); ok {
		if b {
			return int64(1), nil
		}
		return int64(0), nil
	}
	return c.Natural.ToNative(v)
}

// FromNative implements sql.Converter.
func (c Converter) FromNative(raw any, ct sql.ColumnType) (sql.Value, error) {
	if i, ok := raw.(int64); ok && ct != nil && isBool(ct.DatabaseTypeName()) {
		return sql.BoolValue(i != 0), nil
	}
	return c.Natural.FromNative(raw, ct)
}

func isBool(typ string) bool {
	switch strings.ToLower(typ) {
	case "bool", "boolean":
		return true
	}
	return false
}

var _ sql.Converter = Converter{}
