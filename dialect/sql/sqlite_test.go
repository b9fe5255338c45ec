package sql_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/fluentdb/dialect"
	"github.com/syssam/fluentdb/dialect/sql"
)

func openSQLite(t *testing.T) *sql.Driver {
	t.Helper()
	drv, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// Every connection to :memory: is a separate database.
	drv.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { drv.Close() })
	require.Equal(t, dialect.SQLite, drv.Dialect())

	ctx := context.Background()
	_, err = drv.Exec(ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, votes INTEGER NOT NULL, role TEXT)", nil)
	require.NoError(t, err)
	rows := make([]map[string]any, 0, 5)
	for i := 1; i <= 5; i++ {
		role := "admin"
		if i%2 == 0 {
			role = "dev"
		}
		rows = append(rows, map[string]any{"name": fmt.Sprintf("u%d", i), "votes": i, "role": role})
	}
	ok, err := drv.Table("users").InsertBatch(ctx, rows)
	require.NoError(t, err)
	require.True(t, ok)
	return drv
}

func TestSQLite_Reads(t *testing.T) {
	drv := openSQLite(t)
	ctx := context.Background()

	n, err := drv.Table("users").Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	names, err := drv.Table("users").Where("votes", ">", 2).OrderByDesc("id").Pluck(ctx, "name")
	require.NoError(t, err)
	assert.Equal(t, []any{"u5", "u4", "u3"}, names)

	row, ok, err := drv.Table("users").Find(ctx, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "dev", row.Text("role"))

	ok, err = drv.Table("users").WhereIn("name", "u9", "u8").Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	sum, err := drv.Table("users").Where("role", "=", "admin").Sum(ctx, "votes")
	require.NoError(t, err)
	assert.EqualValues(t, 9, sum)

	n, err = drv.Table("users").Where("role", "=", "dev").
		Union(drv.Table("users").Where("votes", "=", 5)).
		Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestSQLite_Paginate(t *testing.T) {
	drv := openSQLite(t)
	ctx := context.Background()

	p, err := drv.Table("users").OrderBy("id").Paginate(ctx, 2, sql.WithPage(2))
	require.NoError(t, err)
	assert.EqualValues(t, 5, p.Total)
	assert.Equal(t, 3, p.LastPage)
	require.Len(t, p.Items, 2)
	assert.Equal(t, "u3", p.Items[0].Text("name"))
	assert.True(t, p.HasMorePages())

	p, err = drv.Table("users").Select("role").GroupBy("role").OrderBy("role").Paginate(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, p.Total)
	assert.Equal(t, "admin", p.Items[0].Text("role"))
}

func TestSQLite_Each(t *testing.T) {
	drv := openSQLite(t)
	var names []string
	completed, err := drv.Table("users").OrderBy("id").Each(context.Background(), 2, func(r sql.Row, i int) error {
		names = append(names, fmt.Sprintf("%d:%s", i, r.Text("name")))
		return nil
	})
	require.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, []string{"0:u1", "1:u2", "2:u3", "3:u4", "4:u5"}, names)
}

func TestSQLite_Writes(t *testing.T) {
	drv := openSQLite(t)
	ctx := context.Background()

	n, err := drv.Table("users").Where("id", "=", 1).Increment(ctx, "votes", 10, map[string]any{"role": "owner"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	v, err := drv.Table("users").Where("id", "=", 1).Value(ctx, "votes")
	require.NoError(t, err)
	assert.EqualValues(t, 11, v)

	boom := errors.New("boom")
	err = drv.Transaction(ctx, func(ex sql.Executor) error {
		if _, err := sql.Table(ex, "users").Delete(ctx); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	n, err = drv.Table("users").Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	n, err = drv.Table("users").Delete(ctx, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, drv.Table("users").Truncate(ctx))
	ok, err := drv.Table("users").Insert(ctx, map[string]any{"name": "fresh", "votes": 0})
	require.NoError(t, err)
	require.True(t, ok)
	id, err := drv.Table("users").Value(ctx, "id")
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)
}
