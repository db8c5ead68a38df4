package mysql

import (
	"strconv"
	"strings"
	"time"

	"github.com/syssam/dbkit/dialect"
	"github.com/syssam/dbkit/dialect/sql"
)

// Converter translates Values to and from go-sql-driver/mysql natives.
// The driver returns most columns as raw bytes; the column's database type
// decides whether they hold text, a number, a time, JSON or binary data.
type Converter struct {
	sql.Natural
}

// NewConverter returns the MySQL converter.
func NewConverter() Converter {
	return Converter{Natural: sql.Natural{Dialect: dialect.MySQL}}
}

// timeLayouts are the DATETIME, TIMESTAMP and DATE text formats.
var timeLayouts = []string{
	"2006-01-02 15:04:05.999999",
	"2006-01-02",
}

// FromNative implements sql.Converter.
func (c Converter) FromNative(raw any, ct sql.ColumnType) (sql.Value, error) {
	b, ok := raw.([]byte)
	if !ok || ct == nil {
		return c.Natural.FromNative(raw, ct)
	}
	s := string(b)
	typ := strings.ToUpper(ct.DatabaseTypeName())
	switch typ = strings.TrimPrefix(typ, "UNSIGNED "); typ {
	case "CHAR", "VARCHAR", "TEXT", "TINYTEXT", "MEDIUMTEXT", "LONGTEXT", "ENUM", "SET", "DECIMAL", "TIME", "YEAR":
		return sql.TextValue(s), nil
	case "JSON":
		return sql.JSONValue(b), nil
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "BIGINT":
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return sql.IntValue(i), nil
		}
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return sql.ValueOf(u)
		}
	case "FLOAT", "DOUBLE":
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return sql.FloatValue(f), nil
		}
	case "DATETIME", "TIMESTAMP", "DATE":
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return sql.TimeValue(t), nil
			}
		}
		// Zero dates and other values time.Time cannot hold.
		return sql.TextValue(s), nil
	}
	return c.Natural.FromNative(raw, ct)
}

var _ sql.Converter = Converter{}
