package platform

import (
	"context"

	"github.com/syssam/dbkit/dialect/sql/schema"
)

// Describe completes a table holding the columns read from the catalog:
// it fetches the foreign keys, the table comment and the column comments
// through in and merges them into the columns by exact name. Columns
// without an entry keep a nil Foreign and an empty comment.
func Describe(ctx context.Context, in Introspector, t *schema.Table) error {
	fks, err := in.GetForeignKeys(ctx, t.Schema, t.Name)
	if err != nil {
		return err
	}
	comment, err := in.GetTableComment(ctx, t.Schema, t.Name)
	if err != nil {
		return err
	}
	comments, err := in.GetColumnComments(ctx, t.Schema, t.Name)
	if err != nil {
		return err
	}
	t.Comment = comment
	Merge(t, fks, comments)
	return nil
}

// Merge sets the foreign keys and comments of the columns of t.
func Merge(t *schema.Table, fks map[string]*schema.Foreign, comments map[string]string) {
	for _, c := range t.Columns {
		if fk, ok := fks[c.Name]; ok {
			c.Foreign = fk
		}
		if s, ok := comments[c.Name]; ok {
			c.Comment = s
		}
	}
}
