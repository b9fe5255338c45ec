package sql

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/fluentdb/dialect"
)

func TestPaginate(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	mock.ExpectQuery("SELECT COUNT(*) AS aggregate FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"aggregate"}).AddRow(30))
	ids := make([]int, 15)
	for i := range ids {
		ids[i] = i + 16
	}
	mock.ExpectQuery("SELECT * FROM `users` ORDER BY `id` ASC LIMIT 15 OFFSET 15").WillReturnRows(idRows(ids...))

	p, err := drv.Table("users").OrderBy("id").Paginate(context.Background(), 15,
		WithPage(2),
		WithPath("http://example.com/users/"),
		WithQuery(url.Values{"sort": {"name"}}),
	)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.EqualValues(t, 30, p.Total)
	assert.Equal(t, 15, p.PerPage)
	assert.Equal(t, 2, p.CurrentPage)
	assert.Equal(t, 2, p.LastPage)
	assert.Len(t, p.Items, 15)
	assert.False(t, p.HasMorePages())
	assert.False(t, p.OnFirstPage())
	assert.Equal(t, 16, p.FirstItem())
	assert.Equal(t, 30, p.LastItem())
	assert.Equal(t, "http://example.com/users", p.Path())
	assert.Empty(t, p.NextPageURL())
	assert.Equal(t, "http://example.com/users?page=1&sort=name", p.PreviousPageURL())
}

func TestPaginate_EmptyTotalSkipsPageQuery(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	mock.ExpectQuery("SELECT COUNT(*) AS aggregate FROM `users` WHERE `active` = ?").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"aggregate"}).AddRow(0))

	p, err := drv.Table("users").Where("active", "=", 1).Paginate(context.Background(), 10)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, p.Items)
	assert.EqualValues(t, 0, p.Total)
	assert.Equal(t, 1, p.LastPage)
	assert.Equal(t, 1, p.CurrentPage)
	assert.Equal(t, 0, p.FirstItem())
}

func TestPaginate_Grouped(t *testing.T) {
	drv, mock := newMock(t, dialect.Postgres)
	mock.ExpectQuery(`SELECT COUNT(*) AS aggregate FROM (SELECT "role" FROM "users" WHERE "active" = $1 GROUP BY "role") AS "aggregate_table"`).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"aggregate"}).AddRow("3"))
	mock.ExpectQuery(`SELECT "role" FROM "users" WHERE "active" = $1 GROUP BY "role" ORDER BY "role" ASC LIMIT 2 OFFSET 0`).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("admin").AddRow("editor"))

	p, err := drv.Table("users").Select("role").Where("active", "=", true).GroupBy("role").OrderBy("role").
		Paginate(context.Background(), 2)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.EqualValues(t, 3, p.Total)
	assert.Equal(t, 2, p.LastPage)
	assert.True(t, p.HasMorePages())
	assert.Equal(t, "/?page=2", p.NextPageURL())
}

func TestPaginate_GroupedJoinWithColumns(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	mock.ExpectQuery("SELECT COUNT(*) AS aggregate FROM (SELECT `users`.* FROM `users` INNER JOIN `posts` ON `posts`.`user_id` = `users`.`id` GROUP BY `users`.`id`) AS `aggregate_table`").
		WillReturnRows(sqlmock.NewRows([]string{"aggregate"}).AddRow(2))
	mock.ExpectQuery("SELECT `users`.`id` FROM `users` INNER JOIN `posts` ON `posts`.`user_id` = `users`.`id` GROUP BY `users`.`id` LIMIT 15 OFFSET 0").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))

	p, err := drv.Table("users").Join("posts", "posts.user_id", "=", "users.id").GroupBy("users.id").
		Paginate(context.Background(), 15, WithColumns("users.id"))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.EqualValues(t, 2, p.Total)
	assert.Len(t, p.Items, 2)
}

func TestCount_GroupedWithOrderBindings(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	mock.ExpectQuery("SELECT COUNT(*) AS aggregate FROM `users` WHERE `active` = ? GROUP BY `status`").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"aggregate"}).AddRow(4))

	n, err := drv.Table("users").Where("active", "=", 1).GroupBy("status").
		OrderByRaw("FIELD(status, ?)", "x").Count(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.EqualValues(t, 4, n)
}

func TestPaginate_Defaults(t *testing.T) {
	drv, mock := newMock(t, dialect.SQLite)
	mock.ExpectQuery("SELECT COUNT(*) AS aggregate FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"aggregate"}).AddRow(40))
	mock.ExpectQuery("SELECT * FROM `users` LIMIT 15 OFFSET 0").WillReturnRows(idRows(1))

	// Non-positive sizes fall back to the default and bad pages to 1.
	p, err := drv.Table("users").Paginate(context.Background(), 0, WithPage(-3))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, DefaultPerPage, p.PerPage)
	assert.Equal(t, 1, p.CurrentPage)
	assert.Equal(t, 3, p.LastPage)
}

func TestPaginator_URL(t *testing.T) {
	p := newPaginator(nil, 50, 10, newPageConfig([]PageOption{
		WithPath("http://example.com/search?q=go"),
		WithFragment("results"),
		WithPageName("p"),
		WithPage(3),
	}))
	assert.Equal(t, "http://example.com/search?q=go&p=1#results", p.URL(0))
	assert.Equal(t, "http://example.com/search?q=go&p=4#results", p.NextPageURL())
	assert.Equal(t, "http://example.com/search?q=go&p=2#results", p.PreviousPageURL())
}

func TestPaginator_JSON(t *testing.T) {
	items := []Row{NewRow([]string{"id"}, []any{int64(1)}), NewRow([]string{"id"}, []any{int64(2)})}
	p := newPaginator(items, 5, 2, newPageConfig([]PageOption{WithPath("/users"), WithPage(1)}))
	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"current_page": 1,
		"data": [{"id": 1}, {"id": 2}],
		"first_page_url": "/users?page=1",
		"from": 1,
		"last_page": 3,
		"last_page_url": "/users?page=3",
		"next_page_url": "/users?page=2",
		"path": "/users",
		"per_page": 2,
		"prev_page_url": null,
		"to": 2,
		"total": 5
	}`, string(out))
}

func TestRequestResolvers(t *testing.T) {
	r := httptest.NewRequest("GET", "https://example.com/users/?page=4&sort=name", nil)
	r.TLS = &tls.ConnectionState{}
	assert.Equal(t, 4, RequestPageResolver(r)("page"))
	assert.Equal(t, 1, RequestPageResolver(r)("missing"))
	assert.Equal(t, "https://example.com/users/", RequestPathResolver(r)())

	c := newPageConfig([]PageOption{WithRequest(r)})
	assert.Equal(t, 4, c.page)
	assert.Equal(t, "https://example.com/users", c.path)

	bad := httptest.NewRequest("GET", "http://example.com/?page=abc", nil)
	assert.Equal(t, 1, RequestPageResolver(bad)("page"))
}

func TestSimplePaginate(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	mock.ExpectQuery("SELECT * FROM `users` ORDER BY `id` ASC LIMIT 3 OFFSET 2").WillReturnRows(idRows(3, 4, 5))

	p, err := drv.Table("users").OrderBy("id").SimplePaginate(context.Background(), 2, WithPage(2))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Len(t, p.Items, 2)
	assert.True(t, p.HasMorePages())

	out, err := json.Marshal(p)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.NotContains(t, m, "total")
	assert.Equal(t, "/?page=3", m["next_page_url"])
}
