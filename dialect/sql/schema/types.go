package schema

import (
	"strings"

	"github.com/syssam/dbkit"
	"github.com/syssam/dbkit/dialect"
)

// Type is a logical column type, independent of any engine.
type Type string

// Logical types.
const (
	TypeBool        Type = "bool"
	TypeInt8        Type = "int8"
	TypeInt16       Type = "int16"
	TypeInt32       Type = "int32"
	TypeUint32      Type = "uint32"
	TypeInt64       Type = "int64"
	TypeFloat32     Type = "float32"
	TypeFloat64     Type = "float64"
	TypeString      Type = "string"
	TypeBytes       Type = "bytes"
	TypeJSON        Type = "json"
	TypeUUID        Type = "uuid"
	TypeTimestamp   Type = "timestamp"
	TypeTimestampTZ Type = "timestamptz"
	TypeDate        Type = "date"
	TypeTime        Type = "time"
	TypeHstore      Type = "hstore"
)

// Types returns all logical types.
func Types() []Type {
	return []Type{
		TypeBool, TypeInt8, TypeInt16, TypeInt32, TypeUint32, TypeInt64,
		TypeFloat32, TypeFloat64, TypeString, TypeBytes, TypeJSON, TypeUUID,
		TypeTimestamp, TypeTimestampTZ, TypeDate, TypeTime, TypeHstore,
	}
}

// String returns the type name.
func (t Type) String() string { return string(t) }

// TypeMap maps logical types to engine type names.
type TypeMap map[Type]string

// CommentStyle is how DDL carries table and column comments.
type CommentStyle uint8

// Comment styles.
const (
	// CommentNone drops comments.
	CommentNone CommentStyle = iota
	// CommentLine writes trailing "--" line comments, read back by ExtractComments.
	CommentLine
	// CommentInline writes COMMENT '...' column and table options.
	CommentInline
	// CommentStatement writes separate COMMENT ON statements.
	CommentStatement
)

// Dialect is the per-dialect table driving the shared DDL routine.
type Dialect struct {
	Caps     dialect.Capabilities
	Types    TypeMap
	Comments CommentStyle
	// Reverse maps normalized engine type names back to logical types.
	Reverse map[string]Type
}

// Name returns the dialect name.
func (d *Dialect) Name() string { return d.Caps.Name }

// DBType returns the engine type of a logical type.
func (d *Dialect) DBType(t Type) (string, error) {
	if s, ok := d.Types[t]; ok {
		return s, nil
	}
	return "", dbkit.NewUnsupportedTypeError(d.Caps.Name, string(t))
}

// LogicalType returns the logical type of an engine type name. The exact
// (lowercased) name is tried first, then the name without its arguments,
// so that "varchar(36)" and "numeric(10,2)" can be told apart from
// "varchar" and "numeric".
func (d *Dialect) LogicalType(dbType string) (Type, bool) {
	s := strings.ToLower(strings.TrimSpace(dbType))
	if t, ok := d.Reverse[s]; ok {
		return t, true
	}
	if i := strings.IndexByte(s, '('); i >= 0 {
		base := strings.TrimSpace(s[:i])
		if j := strings.IndexByte(s[i:], ')'); j >= 0 {
			base = strings.TrimSpace(base + " " + strings.TrimSpace(s[i+j+1:]))
		}
		if t, ok := d.Reverse[base]; ok {
			return t, true
		}
	}
	return "", false
}

// SQLite is the SQLite dialect. Dates and times use numeric affinity.
var SQLite = &Dialect{
	Caps:     dialect.SQLiteCapabilities,
	Comments: CommentLine,
	Types: TypeMap{
		TypeBool:        "boolean",
		TypeInt8:        "integer",
		TypeInt16:       "integer",
		TypeInt32:       "integer",
		TypeUint32:      "integer",
		TypeInt64:       "integer",
		TypeFloat32:     "real",
		TypeFloat64:     "real",
		TypeString:      "text",
		TypeBytes:       "blob",
		TypeJSON:        "text",
		TypeUUID:        "text",
		TypeTimestamp:   "numeric",
		TypeTimestampTZ: "numeric",
		TypeDate:        "numeric",
		TypeTime:        "numeric",
		TypeHstore:      "text",
	},
	Reverse: map[string]Type{
		"boolean":   TypeBool,
		"bool":      TypeBool,
		"tinyint":   TypeInt8,
		"smallint":  TypeInt16,
		"int":       TypeInt64,
		"integer":   TypeInt64,
		"bigint":    TypeInt64,
		"real":      TypeFloat64,
		"double":    TypeFloat64,
		"float":     TypeFloat64,
		"text":      TypeString,
		"varchar":   TypeString,
		"char":      TypeString,
		"blob":      TypeBytes,
		"json":      TypeJSON,
		"uuid":      TypeUUID,
		"numeric":   TypeTimestamp,
		"datetime":  TypeTimestamp,
		"timestamp": TypeTimestamp,
		"date":      TypeDate,
		"time":      TypeTime,
	},
}

// MySQL is the MySQL dialect.
var MySQL = &Dialect{
	Caps:     dialect.MySQLCapabilities,
	Comments: CommentInline,
	Types: TypeMap{
		TypeBool:        "boolean",
		TypeInt8:        "integer",
		TypeInt16:       "integer",
		TypeInt32:       "integer",
		TypeUint32:      "integer",
		TypeInt64:       "bigint",
		TypeFloat32:     "real",
		TypeFloat64:     "double",
		TypeString:      "text",
		TypeBytes:       "blob",
		TypeJSON:        "json",
		TypeUUID:        "varchar(36)",
		TypeTimestamp:   "datetime",
		TypeTimestampTZ: "timestamp",
		TypeDate:        "date",
		TypeTime:        "time",
		TypeHstore:      "text",
	},
	Reverse: map[string]Type{
		"boolean":      TypeBool,
		"bool":         TypeBool,
		"tinyint(1)":   TypeBool,
		"tinyint":      TypeInt8,
		"smallint":     TypeInt16,
		"int":          TypeInt32,
		"integer":      TypeInt32,
		"int unsigned": TypeUint32,
		"bigint":       TypeInt64,
		"float":        TypeFloat32,
		"real":         TypeFloat32,
		"double":       TypeFloat64,
		"text":         TypeString,
		"tinytext":     TypeString,
		"mediumtext":   TypeString,
		"longtext":     TypeString,
		"varchar":      TypeString,
		"char":         TypeString,
		"blob":         TypeBytes,
		"tinyblob":     TypeBytes,
		"mediumblob":   TypeBytes,
		"longblob":     TypeBytes,
		"varbinary":    TypeBytes,
		"binary":       TypeBytes,
		"json":         TypeJSON,
		"varchar(36)":  TypeUUID,
		"char(36)":     TypeUUID,
		"datetime":     TypeTimestamp,
		"timestamp":    TypeTimestampTZ,
		"date":         TypeDate,
		"time":         TypeTime,
	},
}

// Postgres is the PostgreSQL dialect.
var Postgres = &Dialect{
	Caps:     dialect.PostgresCapabilities,
	Comments: CommentStatement,
	Types: TypeMap{
		TypeBool:        "boolean",
		TypeInt8:        "smallint",
		TypeInt16:       "smallint",
		TypeInt32:       "integer",
		TypeUint32:      "bigint",
		TypeInt64:       "bigint",
		TypeFloat32:     "real",
		TypeFloat64:     "double precision",
		TypeString:      "text",
		TypeBytes:       "bytea",
		TypeJSON:        "jsonb",
		TypeUUID:        "uuid",
		TypeTimestamp:   "timestamp",
		TypeTimestampTZ: "timestamp with time zone",
		TypeDate:        "date",
		TypeTime:        "time",
		TypeHstore:      "hstore",
	},
	Reverse: map[string]Type{
		"boolean":                     TypeBool,
		"smallint":                    TypeInt16,
		"integer":                     TypeInt32,
		"bigint":                      TypeInt64,
		"real":                        TypeFloat32,
		"double precision":            TypeFloat64,
		"text":                        TypeString,
		"character varying":           TypeString,
		"character":                   TypeString,
		"bytea":                       TypeBytes,
		"json":                        TypeJSON,
		"jsonb":                       TypeJSON,
		"uuid":                        TypeUUID,
		"timestamp":                   TypeTimestamp,
		"timestamp without time zone": TypeTimestamp,
		"timestamp with time zone":    TypeTimestampTZ,
		"date":                        TypeDate,
		"time":                        TypeTime,
		"time without time zone":      TypeTime,
		"hstore":                      TypeHstore,
	},
}

// DialectOf returns the schema dialect of the named dialect.
func DialectOf(name string) (*Dialect, bool) {
	switch name {
	case dialect.SQLite:
		return SQLite, true
	case dialect.MySQL:
		return MySQL, true
	case dialect.Postgres:
		return Postgres, true
	default:
		return nil, false
	}
}
