package sql

import (
	"testing"

	"github.com/syssam/dbkit/dialect"
)

var benchCaps = []dialect.Capabilities{
	dialect.SQLiteCapabilities,
	dialect.MySQLCapabilities,
	dialect.PostgresCapabilities,
}

func BenchmarkInsertQuery_Default(b *testing.B) {
	for _, caps := range benchCaps {
		b.Run(caps.Name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = Insert("users").Build(caps)
			}
		})
	}
}

func BenchmarkInsertQuery_Small(b *testing.B) {
	for _, caps := range benchCaps {
		b.Run(caps.Name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = Insert("users").
					Set("id", IntValue(1)).
					Set("age", IntValue(30)).
					Set("first_name", TextValue("Ariel")).
					Set("last_name", TextValue("Mashraki")).
					Set("nickname", TextValue("a8m")).
					Set("spouse_id", IntValue(2)).
					Build(caps)
			}
		})
	}
}

func BenchmarkSelectQuery_Simple(b *testing.B) {
	for _, caps := range benchCaps {
		b.Run(caps.Name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = Select("id", "name", "email").From("users").Build(caps)
			}
		})
	}
}

func BenchmarkSelectQuery_Predicates(b *testing.B) {
	for _, caps := range benchCaps {
		b.Run(caps.Name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = Select("id", "name").
					From("users").
					Where(
						EQ("active", BoolValue(true)),
						Or(GT("age", IntValue(18)), IsNull("age")),
						In("status", TextValue("a"), TextValue("b"), TextValue("c")),
						HasPrefix("name", "a8"),
					).
					OrderBy(Desc("created_at")).
					Limit(10).
					Offset(20).
					Build(caps)
			}
		})
	}
}

func BenchmarkValueOf(b *testing.B) {
	natives := []any{int64(1), "text", 1.5, true, []byte("blob"), nil}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for _, n := range natives {
			_, _ = ValueOf(n)
		}
	}
}
