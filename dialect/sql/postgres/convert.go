package postgres

import (
	"strings"

	"github.com/google/uuid"

	"github.com/syssam/dbkit/dialect"
	"github.com/syssam/dbkit/dialect/sql"
)

// Converter translates Values to and from lib/pq natives. pq decodes the
// common scalar types itself and returns every other column as the text
// the server sent, so a byte payload is text unless the column is BYTEA.
type Converter struct {
	sql.Natural
}

// NewConverter returns the Postgres converter.
func NewConverter() Converter {
	return Converter{Natural: sql.Natural{Dialect: dialect.Postgres}}
}

// FromNative implements sql.Converter.
func (c Converter) FromNative(raw any, ct sql.ColumnType) (sql.Value, error) {
	if ct == nil {
		return c.Natural.FromNative(raw, ct)
	}
	var s string
	switch raw := raw.(type) {
	case []byte:
		s = string(raw)
	case string:
		s = raw
	default:
		return c.Natural.FromNative(raw, ct)
	}
	switch strings.ToUpper(ct.DatabaseTypeName()) {
	case "BYTEA":
		return c.Natural.FromNative(raw, ct)
	case "UUID":
		u, err := uuid.Parse(s)
		if err != nil {
			return sql.TextValue(s), nil
		}
		return sql.UUIDValue(u), nil
	case "JSON", "JSONB":
		return sql.JSONValue([]byte(s)), nil
	default:
		return sql.TextValue(s), nil
	}
}

var _ sql.Converter = Converter{}
