package mysql

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/format"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"github.com/syssam/dbkit/dialect/sql/schema"
)

// ParseCreateTables reads the CREATE TABLE statements of a MySQL dump into
// tables. Other statements are skipped. Only single-column foreign keys
// and unique constraints are kept; multi-column primary keys mark each of
// their columns.
func ParseCreateTables(src string) ([]*schema.Table, error) {
	stmts, _, err := parser.New().Parse(src, "", "")
	if err != nil {
		return nil, fmt.Errorf("mysql: parsing dump: %w", err)
	}
	var tables []*schema.Table
	for _, stmt := range stmts {
		if create, ok := stmt.(*ast.CreateTableStmt); ok {
			tables = append(tables, convertTable(create))
		}
	}
	return tables, nil
}

func convertTable(stmt *ast.CreateTableStmt) *schema.Table {
	t := schema.NewTable(stmt.Table.Name.O)
	for _, opt := range stmt.Options {
		if opt.Tp == ast.TableOptionComment {
			t.Comment = opt.StrValue
		}
	}
	for _, def := range stmt.Cols {
		c := &schema.Column{
			Name:   def.Name.Name.O,
			DBType: columnType(def.Tp.String()),
		}
		c.Type, _ = schema.MySQL.LogicalType(c.DBType)
		for _, opt := range def.Options {
			switch opt.Tp {
			case ast.ColumnOptionNotNull:
				c.NotNull = true
			case ast.ColumnOptionNull:
				c.NotNull = false
			case ast.ColumnOptionPrimaryKey:
				c.Primary = true
			case ast.ColumnOptionUniqKey:
				c.Unique = true
			case ast.ColumnOptionDefaultValue:
				if s, ok := restore(opt.Expr); ok {
					c.SetDefault(s)
				}
			case ast.ColumnOptionComment:
				if s, ok := restore(opt.Expr); ok {
					c.Comment = unquote(s)
				}
			case ast.ColumnOptionReference:
				c.Foreign = foreign(opt.Refer)
			}
		}
		t.Columns = append(t.Columns, c)
	}
	for _, cons := range stmt.Constraints {
		columns := make([]string, 0, len(cons.Keys))
		for _, key := range cons.Keys {
			if key.Column != nil {
				columns = append(columns, key.Column.Name.O)
			}
		}
		switch cons.Tp {
		case ast.ConstraintPrimaryKey:
			for _, name := range columns {
				if c, ok := t.Column(name); ok {
					c.Primary = true
				}
			}
		case ast.ConstraintUniq, ast.ConstraintUniqKey, ast.ConstraintUniqIndex:
			if len(columns) != 1 {
				continue
			}
			if c, ok := t.Column(columns[0]); ok {
				c.Unique = true
			}
		case ast.ConstraintForeignKey:
			if len(columns) != 1 {
				continue
			}
			if c, ok := t.Column(columns[0]); ok {
				c.Foreign = foreign(cons.Refer)
			}
		}
	}
	return t
}

// columnType returns the lowercased column type without its character set
// and collation.
func columnType(s string) string {
	s = strings.ToLower(s)
	for _, sep := range []string{" character set ", " charset ", " collate "} {
		if i := strings.Index(s, sep); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

func foreign(ref *ast.ReferenceDef) *schema.Foreign {
	if ref == nil || ref.Table == nil {
		return nil
	}
	fk := &schema.Foreign{Table: ref.Table.Name.O}
	for _, spec := range ref.IndexPartSpecifications {
		if spec.Column != nil {
			fk.Column = spec.Column.Name.O
			break
		}
	}
	return fk
}

// restore writes an expression back as SQL. String literals keep their
// quotes and lose their character set introducer.
func restore(expr ast.ExprNode) (string, bool) {
	if expr == nil {
		return "", false
	}
	var sb strings.Builder
	ctx := format.NewRestoreCtx(format.DefaultRestoreFlags|format.RestoreStringWithoutCharset, &sb)
	if err := expr.Restore(ctx); err != nil {
		return "", false
	}
	return strings.TrimSpace(sb.String()), true
}

// unquote returns the content of a single-quoted SQL string literal, or s
// when it is not one.
func unquote(s string) string {
	if len(s) < 2 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return s
	}
	return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
}
