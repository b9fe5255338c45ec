package sql

import (
	"testing"

	"github.com/syssam/fluentdb/dialect"
)

var benchDialects = []string{dialect.SQLite, dialect.MySQL, dialect.Postgres, dialect.SQLServer}

func BenchmarkBuilder_Simple(b *testing.B) {
	for _, d := range benchDialects {
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _, _ = Dialect(d).From("users").Select("id", "name", "email").ToSQL()
			}
		})
	}
}

func BenchmarkBuilder_WithJoins(b *testing.B) {
	for _, d := range benchDialects {
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _, _ = Dialect(d).From("users as u").
					Select("u.id", "u.name", "p.title").
					LeftJoin("posts as p", "p.user_id", "=", "u.id").
					JoinFunc("comments as c", func(j *JoinClause) {
						j.On("c.post_id", "=", "p.id").Where("c.approved", "=", true)
					}).
					Where("u.active", "=", true).
					OrderBy("u.id").
					ForPage(3, 20).
					ToSQL()
			}
		})
	}
}

func BenchmarkBuilder_NestedWheres(b *testing.B) {
	for _, d := range benchDialects {
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _, _ = Dialect(d).From("users").
					Where("age", ">", 18).
					WhereGroup(func(q *Builder) {
						q.Where("role", "=", "admin").OrWhereIn("id", 1, 2, 3, 4, 5)
					}).
					WhereNotNull("email").
					ToSQL()
			}
		})
	}
}

func BenchmarkBuilder_PaginationCount(b *testing.B) {
	for _, d := range benchDialects {
		b.Run(d, func(b *testing.B) {
			b.ReportAllocs()
			q := Dialect(d).From("orders").Select("customer_id").GroupBy("customer_id").Having("total", ">", 100).OrderBy("customer_id")
			for i := 0; i < b.N; i++ {
				_, _, _ = q.PaginationCountQuery().ToSQL()
			}
		})
	}
}

func BenchmarkBuilder_Clone(b *testing.B) {
	q := Dialect(dialect.MySQL).From("users").Where("a", "=", 1).WhereIn("b", 1, 2, 3).OrderBy("id").Limit(10)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = q.Clone()
	}
}
