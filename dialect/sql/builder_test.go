package sql

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/fluentdb"
	"github.com/syssam/fluentdb/dialect"
)

func TestBuilder_Select(t *testing.T) {
	tests := []struct {
		name     string
		input    *Builder
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "mysql basic",
			input:   Dialect(dialect.MySQL).From("users").Select("id", "name").Where("age", ">", 18).OrderBy("name").Limit(10).Offset(20),
			wantSQL: "SELECT `id`, `name` FROM `users` WHERE `age` > ? ORDER BY `name` ASC LIMIT 10 OFFSET 20",
			wantArgs: []any{18},
		},
		{
			name:     "postgres placeholders",
			input:    Dialect(dialect.Postgres).From("users").Where("age", ">", 18).Where("name", "like", "a%").Limit(10).Offset(20),
			wantSQL:  `SELECT * FROM "users" WHERE "age" > $1 AND "name" like $2 LIMIT 10 OFFSET 20`,
			wantArgs: []any{18, "a%"},
		},
		{
			name:    "sqlite offset only",
			input:   Dialect(dialect.SQLite).From("users").Offset(5),
			wantSQL: "SELECT * FROM `users` LIMIT -1 OFFSET 5",
		},
		{
			name:    "mysql offset only",
			input:   Dialect(dialect.MySQL).From("users").Offset(5),
			wantSQL: "SELECT * FROM `users` LIMIT 18446744073709551615 OFFSET 5",
		},
		{
			name:    "sqlserver top",
			input:   Dialect(dialect.SQLServer).From("users").Limit(10),
			wantSQL: "SELECT TOP 10 * FROM [users]",
		},
		{
			name:     "sqlserver offset without order",
			input:    Dialect(dialect.SQLServer).From("users").Where("a", "=", 1).Offset(20).Limit(10),
			wantSQL:  "SELECT * FROM [users] WHERE [a] = @p1 ORDER BY (SELECT 0) OFFSET 20 ROWS FETCH NEXT 10 ROWS ONLY",
			wantArgs: []any{1},
		},
		{
			name:    "sqlserver offset with order",
			input:   Dialect(dialect.SQLServer).From("users").OrderByDesc("id").ForPage(3, 10),
			wantSQL: "SELECT * FROM [users] ORDER BY [id] DESC OFFSET 20 ROWS FETCH NEXT 10 ROWS ONLY",
		},
		{
			name:    "null comparisons",
			input:   Dialect(dialect.MySQL).From("users").Where("deleted_at", "=", nil).Where("email", "!=", nil),
			wantSQL: "SELECT * FROM `users` WHERE `deleted_at` IS NULL AND `email` IS NOT NULL",
		},
		{
			name:     "in lists",
			input:    Dialect(dialect.MySQL).From("users").WhereIn("id", 1, 2, 3).WhereIn("role").WhereNotIn("state"),
			wantSQL:  "SELECT * FROM `users` WHERE `id` IN (?, ?, ?) AND 0 = 1 AND 1 = 1",
			wantArgs: []any{1, 2, 3},
		},
		{
			name: "nested groups",
			input: Dialect(dialect.MySQL).From("users").Where("active", "=", 1).WhereGroup(func(q *Builder) {
				q.Where("role", "=", "admin").OrWhere("votes", ">", 100)
			}),
			wantSQL:  "SELECT * FROM `users` WHERE `active` = ? AND (`role` = ? OR `votes` > ?)",
			wantArgs: []any{1, "admin", 100},
		},
		{
			name:     "between and column",
			input:    Dialect(dialect.MySQL).From("users").WhereBetween("votes", 1, 100).WhereColumn("updated_at", ">", "created_at"),
			wantSQL:  "SELECT * FROM `users` WHERE `votes` BETWEEN ? AND ? AND `updated_at` > `created_at`",
			wantArgs: []any{1, 100},
		},
		{
			name: "subquery in",
			input: Dialect(dialect.Postgres).From("users").Where("active", "=", true).
				WhereInSub("id", Dialect(dialect.Postgres).From("posts").Select("user_id").Where("score", ">", 5)),
			wantSQL:  `SELECT * FROM "users" WHERE "active" = $1 AND "id" IN (SELECT "user_id" FROM "posts" WHERE "score" > $2)`,
			wantArgs: []any{true, 5},
		},
		{
			name:    "alias and qualified columns",
			input:   Dialect(dialect.MySQL).From("users as u").Select("u.id", "u.name as full_name").Distinct(),
			wantSQL: "SELECT DISTINCT `u`.`id`, `u`.`name` AS `full_name` FROM `users` AS `u`",
		},
		{
			name:    "left and cross joins",
			input:   Dialect(dialect.SQLite).From("users").LeftJoin("posts", "posts.user_id", "=", "users.id").CrossJoin("tags"),
			wantSQL: "SELECT * FROM `users` LEFT JOIN `posts` ON `posts`.`user_id` = `users`.`id` CROSS JOIN `tags`",
		},
		{
			name:     "raw value expression",
			input:    Dialect(dialect.MySQL).From("users").Where("created_at", "<", Raw("NOW()")).Where("id", ">", 3),
			wantSQL:  "SELECT * FROM `users` WHERE `created_at` < NOW() AND `id` > ?",
			wantArgs: []any{3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := tt.input.ToSQL()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, query)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestBuilder_BindingOrder(t *testing.T) {
	// Clauses are added out of SQL order; the arguments must follow the text.
	b := Dialect(dialect.MySQL).From("users").
		Where("a", "=", 1).
		SelectRaw("? AS x", 0).
		JoinFunc("posts", func(j *JoinClause) {
			j.On("posts.user_id", "=", "users.id").Where("posts.flag", "=", 2)
		}).
		Having("cnt", ">", 3).
		GroupBy("a").
		OrderByRaw("FIELD(id, ?)", 4)
	query, args, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT ? AS x FROM `users` INNER JOIN `posts` ON `posts`.`user_id` = `users`.`id` AND `posts`.`flag` = ? WHERE `a` = ? GROUP BY `a` HAVING `cnt` > ? ORDER BY FIELD(id, ?)", query)
	assert.Equal(t, []any{0, 2, 1, 3, 4}, args)
}

func TestBuilder_Prefix(t *testing.T) {
	g, err := GrammarFor(dialect.MySQL, "app_")
	require.NoError(t, err)
	assert.Equal(t, "`app_users`", g.WrapTable("users"))
	assert.Equal(t, "`app_users` AS `app_u`", g.WrapTable("users as u"))
	assert.Equal(t, "`app_users`.`id`", g.Wrap("users.id"))
	assert.Equal(t, "`shop`.`app_users`", g.WrapTable("shop.users"))
	assert.Equal(t, "`name`", g.Wrap("name"))
}

func TestBuilder_Errors(t *testing.T) {
	t.Run("null with ordering operator", func(t *testing.T) {
		b := Dialect(dialect.MySQL).From("users").Where("age", ">", nil)
		_, _, err := b.ToSQL()
		require.Error(t, err)
		assert.True(t, errors.Is(err, fluentdb.ErrIllegalOperator))
		assert.True(t, fluentdb.IsConfigError(err))
	})
	t.Run("unknown operator", func(t *testing.T) {
		_, _, err := Dialect(dialect.MySQL).From("users").Where("age", "===", 1).ToSQL()
		assert.ErrorIs(t, err, fluentdb.ErrInvalidArgument)
	})
	t.Run("order direction", func(t *testing.T) {
		_, _, err := Dialect(dialect.MySQL).From("users").OrderBy("id", "sideways").ToSQL()
		assert.ErrorIs(t, err, fluentdb.ErrInvalidArgument)
	})
	t.Run("unknown dialect", func(t *testing.T) {
		_, _, err := Dialect("oracle").From("users").ToSQL()
		assert.ErrorIs(t, err, fluentdb.ErrUnsupportedDriver)
	})
	t.Run("missing table", func(t *testing.T) {
		_, _, err := Dialect(dialect.MySQL).Where("a", "=", 1).ToSQL()
		assert.ErrorIs(t, err, fluentdb.ErrInvalidArgument)
	})
}

func TestBuilder_CloneIsolation(t *testing.T) {
	base := Dialect(dialect.MySQL).From("users").Where("active", "=", 1)
	branch := base.Clone().Where("role", "=", "admin").OrderBy("id")

	q, args, err := base.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `users` WHERE `active` = ?", q)
	assert.Equal(t, []any{1}, args)

	q, args, err = branch.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `users` WHERE `active` = ? AND `role` = ? ORDER BY `id` ASC", q)
	assert.Equal(t, []any{1, "admin"}, args)
}

func TestBuilder_CloneWithout(t *testing.T) {
	b := Dialect(dialect.MySQL).From("users").Select("id").SelectRaw("? AS one", 1).
		Where("a", "=", 2).OrderByRaw("FIELD(id, ?)", 3).Limit(5).Offset(10)
	c := b.CloneWithout(ClauseColumns, ClauseOrders, ClauseLimit, ClauseOffset).
		CloneWithoutBindings(BindSelect, BindOrder)
	q, args, err := c.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `users` WHERE `a` = ?", q)
	assert.Equal(t, []any{2}, args)
	// The source is untouched.
	assert.Equal(t, []any{1, 2, 3}, b.Bindings())
}

func TestBuilder_Unions(t *testing.T) {
	a := Dialect(dialect.MySQL).From("a").Where("x", "=", 1)
	b := Dialect(dialect.MySQL).From("b").Where("y", "=", 2)
	a.Union(b).OrderBy("x").Limit(3)
	q, args, err := a.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "(SELECT * FROM `a` WHERE `x` = ?) UNION (SELECT * FROM `b` WHERE `y` = ?) ORDER BY `x` ASC LIMIT 3", q)
	assert.Equal(t, []any{1, 2}, args)

	s := Dialect(dialect.SQLite).From("a").UnionAll(Dialect(dialect.SQLite).From("b"))
	q, _, err = s.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM (SELECT * FROM `a`) UNION ALL SELECT * FROM (SELECT * FROM `b`)", q)

	t.Run("sqlserver", func(t *testing.T) {
		union := func() *Builder {
			return Dialect(dialect.SQLServer).From("a").Union(Dialect(dialect.SQLServer).From("b"))
		}
		q, _, err := union().Limit(10).ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "SELECT * FROM (SELECT * FROM [a]) AS [temp_table] UNION SELECT * FROM (SELECT * FROM [b]) AS [temp_table] ORDER BY (SELECT 0) OFFSET 0 ROWS FETCH NEXT 10 ROWS ONLY", q)

		q, _, err = union().OrderBy("id").ForPage(1, 10).ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "SELECT * FROM (SELECT * FROM [a]) AS [temp_table] UNION SELECT * FROM (SELECT * FROM [b]) AS [temp_table] ORDER BY [id] ASC OFFSET 0 ROWS FETCH NEXT 10 ROWS ONLY", q)

		q, _, err = union().OrderBy("id").ForPage(3, 10).ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "SELECT * FROM (SELECT * FROM [a]) AS [temp_table] UNION SELECT * FROM (SELECT * FROM [b]) AS [temp_table] ORDER BY [id] ASC OFFSET 20 ROWS FETCH NEXT 10 ROWS ONLY", q)

		// Outside a union the limit stays a TOP clause.
		q, _, err = Dialect(dialect.SQLServer).From("a").Limit(10).ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "SELECT TOP 10 * FROM [a]", q)
	})
}

func TestBuilder_AggregateDropsOrderBindings(t *testing.T) {
	b := Dialect(dialect.MySQL).From("users").Where("active", "=", 1).
		GroupBy("status").OrderByRaw("FIELD(status, ?)", "x")
	q, args, err := b.Clone().setAggregate("count", []string{"*"}).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) AS aggregate FROM `users` WHERE `active` = ? GROUP BY `status`", q)
	assert.Equal(t, []any{1}, args)
	// The original query keeps its ordering.
	_, args, err = b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, []any{1, "x"}, args)
}

func TestPaginationCountQuery(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		b := Dialect(dialect.MySQL).From("users").Select("id").SelectRaw("? AS one", 9).
			Where("active", "=", 1).OrderBy("id").Limit(5).Offset(10)
		q, args, err := b.PaginationCountQuery().ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "SELECT COUNT(*) AS aggregate FROM `users` WHERE `active` = ?", q)
		assert.Equal(t, []any{1}, args)
	})
	t.Run("grouped", func(t *testing.T) {
		b := Dialect(dialect.MySQL).From("users").Where("active", "=", 1).
			GroupBy("role").Having("role", "<>", "guest").OrderByRaw("FIELD(role, ?)", "x").Limit(5)
		inner := b.CloneWithout(ClauseOrders, ClauseLimit, ClauseOffset).CloneWithoutBindings(BindOrder)
		q, args, err := b.PaginationCountQuery().ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "SELECT COUNT(*) AS aggregate FROM (SELECT * FROM `users` WHERE `active` = ? GROUP BY `role` HAVING `role` <> ?) AS `aggregate_table`", q)
		assert.Equal(t, inner.Bindings(), args)
		assert.Equal(t, []any{1, "guest"}, args)
	})
	t.Run("grouped with joins", func(t *testing.T) {
		b := Dialect(dialect.MySQL).From("users").Join("posts", "posts.user_id", "=", "users.id").GroupBy("users.id")
		q, _, err := b.PaginationCountQuery().ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "SELECT COUNT(*) AS aggregate FROM (SELECT `users`.* FROM `users` INNER JOIN `posts` ON `posts`.`user_id` = `users`.`id` GROUP BY `users`.`id`) AS `aggregate_table`", q)
	})
	t.Run("grouped with joins and columns", func(t *testing.T) {
		b := Dialect(dialect.MySQL).From("users").Join("posts", "posts.user_id", "=", "users.id").GroupBy("users.id")
		q, _, err := b.PaginationCountQuery("users.id as uid").ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "SELECT COUNT(*) AS aggregate FROM (SELECT `users`.* FROM `users` INNER JOIN `posts` ON `posts`.`user_id` = `users`.`id` GROUP BY `users`.`id`) AS `aggregate_table`", q)
	})
	t.Run("union", func(t *testing.T) {
		a := Dialect(dialect.MySQL).From("a").Where("x", "=", 1)
		a.Union(Dialect(dialect.MySQL).From("b").Where("y", "=", 2))
		q, args, err := a.PaginationCountQuery().ToSQL()
		require.NoError(t, err)
		assert.Equal(t, "SELECT COUNT(*) AS aggregate FROM ((SELECT * FROM `a` WHERE `x` = ?) UNION (SELECT * FROM `b` WHERE `y` = ?)) AS `temp_table`", q)
		assert.Equal(t, []any{1, 2}, args)
	})
	t.Run("aliases stripped", func(t *testing.T) {
		q, _, err := Dialect(dialect.Postgres).From("users").PaginationCountQuery("id as key").ToSQL()
		require.NoError(t, err)
		assert.Equal(t, `SELECT COUNT("id") AS aggregate FROM "users"`, q)
	})
}

func TestPredicates(t *testing.T) {
	var (
		age  = Field[int]("age")
		name = Field[string]("name")
	)
	b := Dialect(dialect.Postgres).From("users").Filter(
		age.GTE(18),
		Or(name.EQ("a"), name.EQ("b")),
		Not(age.In(1, 2)),
		name.NotNull(),
	)
	q, args, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users" WHERE "age" >= $1 AND (("name" = $2) OR ("name" = $3)) AND NOT ("age" IN ($4, $5)) AND "name" IS NOT NULL`, q)
	assert.Equal(t, []any{18, "a", "b", 1, 2}, args)
}
