// Package dbkit runs one logical query and table description against
// PostgreSQL, MySQL and SQLite, and reverse-engineers table structure from a
// live database.
//
// The root package holds the error taxonomy shared by all sub-packages and
// the Cache interface used for cached introspection. The work is done in:
//
//   - dialect: dialect names, capabilities and driver interfaces
//   - dialect/sql: driver wrapper, values, rows, fragments and queries
//   - dialect/sql/schema: table model, type maps, DDL and comment extraction
//   - dialect/sql/sqlite, dialect/sql/mysql, dialect/sql/postgres: engines
//   - platform: the uniform Platform contract, Open and transactions
//
// # Errors
//
// All errors carry a "dbkit:" prefix and can be inspected with errors.Is and
// errors.As, or the Is* helpers:
//
//	tbl, err := p.GetTableMetadata(ctx, "", "users", false)
//	switch {
//	case dbkit.IsNotFound(err):
//	    // table does not exist
//	case errors.Is(err, dbkit.ErrSchemaUnsupported):
//	    // schema given to a schema-less dialect
//	}
package dbkit
