package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/syssam/dbkit/dialect/sql/schema"
)

// tablesFile is a table definition document:
//
//	[[tables]]
//	name    = "pets"
//	comment = "pets of users"
//
//	[[tables.columns]]
//	name        = "id"
//	type        = "int64"
//	primary_key = true
//
//	[[tables.columns]]
//	name       = "owner_id"
//	type       = "int64"
//	references = "users.id"
type tablesFile struct {
	Tables []tomlTable `toml:"tables"`
}

type tomlTable struct {
	Name    string       `toml:"name"`
	Schema  string       `toml:"schema"`
	Comment string       `toml:"comment"`
	Parent  string       `toml:"parent"`
	Columns []tomlColumn `toml:"columns"`
}

type tomlColumn struct {
	Name       string `toml:"name"`
	Type       string `toml:"type"`
	DBType     string `toml:"db_type"`
	PrimaryKey bool   `toml:"primary_key"`
	Unique     bool   `toml:"unique"`
	NotNull    bool   `toml:"not_null"`
	Comment    string `toml:"comment"`
	Inherited  bool   `toml:"inherited"`
	// References is "table.column" or "schema.table.column".
	References string `toml:"references"`
	// Default accepts a string (raw SQL), bool or number.
	Default any `toml:"default"`
}

// LoadTables reads the table definitions of the file at path.
func LoadTables(path string) ([]*schema.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open file %q: %w", path, err)
	}
	defer f.Close()
	return ParseTables(f)
}

// ParseTables reads table definitions from r. The tables are not
// validated against each other; see schema.ValidateSchema.
func ParseTables(r io.Reader) ([]*schema.Table, error) {
	var tf tablesFile
	md, err := toml.NewDecoder(r).Decode(&tf)
	if err != nil {
		return nil, fmt.Errorf("config: decode error: %w", err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return nil, fmt.Errorf("config: unknown keys %v", keys)
	}
	tables := make([]*schema.Table, 0, len(tf.Tables))
	for i := range tf.Tables {
		t, err := convertTable(&tf.Tables[i])
		if err != nil {
			return nil, fmt.Errorf("config: table %q: %w", tf.Tables[i].Name, err)
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func convertTable(tt *tomlTable) (*schema.Table, error) {
	if tt.Name == "" {
		return nil, fmt.Errorf("table name is empty")
	}
	t := schema.NewTable(tt.Name).SetSchema(tt.Schema).SetComment(tt.Comment)
	if tt.Parent != "" {
		p := splitName(tt.Parent)
		t.Parent = &p
	}
	for i := range tt.Columns {
		c, err := convertColumn(&tt.Columns[i])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", tt.Columns[i].Name, err)
		}
		t.AddColumns(c)
	}
	return t, nil
}

func convertColumn(tc *tomlColumn) (*schema.Column, error) {
	c := &schema.Column{
		Name:      tc.Name,
		Type:      schema.Type(strings.ToLower(tc.Type)),
		DBType:    tc.DBType,
		Primary:   tc.PrimaryKey,
		Unique:    tc.Unique,
		NotNull:   tc.NotNull,
		Comment:   tc.Comment,
		Inherited: tc.Inherited,
	}
	if tc.Default != nil {
		s, err := normalizeDefault(tc.Default)
		if err != nil {
			return nil, err
		}
		c.SetDefault(s)
	}
	if tc.References != "" {
		fk, err := parseReferences(tc.References)
		if err != nil {
			return nil, err
		}
		c.Foreign = fk
	}
	return c, nil
}

// parseReferences reads "table.column" or "schema.table.column".
func parseReferences(ref string) (*schema.Foreign, error) {
	ref = strings.TrimSpace(ref)
	dot := strings.LastIndex(ref, ".")
	if dot <= 0 || dot >= len(ref)-1 {
		return nil, fmt.Errorf("invalid references %q: expected format \"table.column\"", ref)
	}
	n := splitName(ref[:dot])
	return &schema.Foreign{Schema: n.Schema, Table: n.Name, Column: ref[dot+1:]}, nil
}

// splitName reads "table" or "schema.table".
func splitName(s string) schema.TableName {
	if i := strings.LastIndex(s, "."); i > 0 {
		return schema.TableName{Schema: s[:i], Name: s[i+1:]}
	}
	return schema.TableName{Name: s}
}

func normalizeDefault(v any) (string, error) {
	switch v := v.(type) {
	case bool:
		if v {
			return "TRUE", nil
		}
		return "FALSE", nil
	case string:
		return v, nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported default %v of type %T", v, v)
	}
}
