package sql

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/fluentdb"
	"github.com/syssam/fluentdb/dialect"
)

// newMock returns a driver over sqlmock that matches SQL text exactly.
func newMock(t *testing.T, name string) (*Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return OpenDB(name, db), mock
}

func idRows(ids ...int) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "name"})
	for _, id := range ids {
		rows.AddRow(id, "user")
	}
	return rows
}

func TestChunk_RequiresOrder(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	called := false
	completed, err := drv.Table("users").Chunk(context.Background(), 2, func([]Row, int) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, completed)
	assert.False(t, called)
	assert.True(t, errors.Is(err, fluentdb.ErrMissingOrderBy))
	assert.True(t, fluentdb.IsConfigError(err))
	// No statement reached the executor.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChunk_InvalidSize(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	_, err := drv.Table("users").OrderBy("id").Chunk(context.Background(), 0, func([]Row, int) error { return nil })
	assert.ErrorIs(t, err, fluentdb.ErrInvalidArgument)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChunk_Pages(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	mock.ExpectQuery("SELECT * FROM `users` ORDER BY `id` ASC LIMIT 2 OFFSET 0").WillReturnRows(idRows(1, 2))
	mock.ExpectQuery("SELECT * FROM `users` ORDER BY `id` ASC LIMIT 2 OFFSET 2").WillReturnRows(idRows(3, 4))
	mock.ExpectQuery("SELECT * FROM `users` ORDER BY `id` ASC LIMIT 2 OFFSET 4").WillReturnRows(idRows(5))

	var (
		sizes []int
		pages []int
	)
	completed, err := drv.Table("users").OrderBy("id").Chunk(context.Background(), 2, func(rows []Row, page int) error {
		sizes = append(sizes, len(rows))
		pages = append(pages, page)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, []int{2, 2, 1}, sizes)
	assert.Equal(t, []int{1, 2, 3}, pages)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChunk_ExactMultiple(t *testing.T) {
	drv, mock := newMock(t, dialect.Postgres)
	mock.ExpectQuery(`SELECT * FROM "users" WHERE "active" = $1 ORDER BY "id" ASC LIMIT 2 OFFSET 0`).WithArgs(true).WillReturnRows(idRows(1, 2))
	mock.ExpectQuery(`SELECT * FROM "users" WHERE "active" = $1 ORDER BY "id" ASC LIMIT 2 OFFSET 2`).WithArgs(true).WillReturnRows(idRows(3, 4))
	mock.ExpectQuery(`SELECT * FROM "users" WHERE "active" = $1 ORDER BY "id" ASC LIMIT 2 OFFSET 4`).WithArgs(true).WillReturnRows(idRows())

	var seen int
	completed, err := drv.Table("users").Where("active", "=", true).OrderBy("id").Chunk(context.Background(), 2, func(rows []Row, _ int) error {
		seen += len(rows)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, 4, seen)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChunk_CallbackError(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	mock.ExpectQuery("SELECT * FROM `users` ORDER BY `id` ASC LIMIT 2 OFFSET 0").WillReturnRows(idRows(1, 2))
	boom := errors.New("boom")
	completed, err := drv.Table("users").OrderBy("id").Chunk(context.Background(), 2, func([]Row, int) error {
		return boom
	})
	assert.False(t, completed)
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEach_StopsEarly(t *testing.T) {
	drv, mock := newMock(t, dialect.MySQL)
	mock.ExpectQuery("SELECT * FROM `users` ORDER BY `id` ASC LIMIT 5 OFFSET 0").WillReturnRows(idRows(1, 2, 3, 4, 5))

	var visited []int
	completed, err := drv.Table("users").OrderBy("id").Each(context.Background(), 5, func(row Row, index int) error {
		visited = append(visited, index)
		if index == 2 {
			return ErrStop
		}
		return nil
	})
	require.NoError(t, err)
	assert.False(t, completed)
	assert.Equal(t, []int{0, 1, 2}, visited)
	// No further batch was fetched.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEach_IndexesAcrossPages(t *testing.T) {
	drv, mock := newMock(t, dialect.SQLite)
	mock.ExpectQuery("SELECT * FROM `users` ORDER BY `id` ASC LIMIT 2 OFFSET 0").WillReturnRows(idRows(1, 2))
	mock.ExpectQuery("SELECT * FROM `users` ORDER BY `id` ASC LIMIT 2 OFFSET 2").WillReturnRows(idRows(3))

	var ids []int64
	var indexes []int
	completed, err := drv.Table("users").OrderBy("id").Each(context.Background(), 2, func(row Row, index int) error {
		id, err := row.Int64("id")
		ids = append(ids, id)
		indexes = append(indexes, index)
		return err
	})
	require.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, []int64{1, 2, 3}, ids)
	assert.Equal(t, []int{0, 1, 2}, indexes)
	require.NoError(t, mock.ExpectationsWereMet())
}
