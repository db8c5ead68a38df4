// Package sql provides the SQL driver, the engine-neutral value model and
// dialect-aware statement building used by dbkit.
//
// # Driver
//
// Driver wraps a database/sql.DB and implements dialect.Driver. StatsDriver
// counts statements per kind (read, write, schema, catalog) and DebugDriver
// logs every statement:
//
//	drv, err := sql.Open(dialect.Postgres, dsn)
//	stats := sql.NewStatsDriver(drv, sql.WithSlowThreshold(time.Second), sql.WithSlowQueryLog(logger))
//	...
//	fmt.Println(stats.QueryStats().Snapshot().Schema.Statements)
//
// # Values and Rows
//
// Value is a tagged union over null, bool, int, float, text, bytes, time,
// UUID and JSON. Each engine provides a Converter that translates Values to
// the natives its driver accepts, and scanned natives back to Values.
// Executor runs statements with Value parameters and returns Rows, ordered
// records of column name to Value.
//
//	ex := sql.NewExecutor(drv, conv)
//	rows, err := ex.Query(ctx, "SELECT id, name FROM users WHERE id = $1", []sql.Value{sql.IntValue(1)})
//	name := rows[0].String("name")
//
// # Fragments
//
// Frag is a statement under construction: text plus the parameters bound
// to its placeholders. Placeholders are only written together with their
// parameter, in the placeholder style of the dialect:
//
//	f := sql.NewFrag(dialect.PostgresCapabilities)
//	f.Append("SELECT * FROM ").Ident("users").Append(" WHERE ").Ident("id").Append(" = ").Param(sql.IntValue(1))
//	f.String() // SELECT * FROM "users" WHERE "id" = $1
//
// # Queries and Predicates
//
// InsertQuery and SelectQuery are abstract statements built for a dialect:
//
//	sql.Insert("users").Set("name", sql.TextValue("a8m")).Build(caps)
//	// postgres: INSERT INTO "users" ("name") VALUES ($1) RETURNING *
//	// mysql:    INSERT INTO `users` (`name`) VALUES (?)
//
//	sql.Select("id", "name").From("users").
//	    Where(sql.EQ("status", sql.TextValue("active")), sql.HasPrefix("email", "admin")).
//	    OrderBy(sql.Desc("created_at")).
//	    Limit(10).
//	    Build(caps)
//
// Predicates: EQ, NEQ, GT, GTE, LT, LTE, In, NotIn, IsNull, NotNull, Like,
// HasPrefix, HasSuffix, Contains, And, Or and Not.
//
// Building fails with a dbkit.SchemaUnsupportedError when a schema is given
// to a dialect without schemas, and with a dbkit.FeatureUnsupportedError
// when a common table expression is used on a dialect without them.
package sql
