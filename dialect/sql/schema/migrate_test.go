package schema

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/fluentdb/dialect/sql"
)

type createTeams struct{}

func (createTeams) Name() string  { return "2024_01_01_000000_create_teams_table" }
func (createTeams) Table() string { return "teams" }

func (createTeams) Up(ctx context.Context, b *Builder) error {
	return b.Create(ctx, "teams", func(t *Table) {
		t.Increments("id")
		t.String("name").Unique()
	})
}

func (createTeams) Seed(ctx context.Context, exec sql.Executor) error {
	_, err := sql.Table(exec, "teams").InsertJSON(ctx, `[{"id":1,"name":"core"},{"id":2,"name":"infra"}]`)
	return err
}

type createMembers struct{ err error }

func (createMembers) Name() string  { return "2024_01_02_000000_create_members_table" }
func (createMembers) Table() string { return "members" }

func (m createMembers) Up(ctx context.Context, b *Builder) error {
	if m.err != nil {
		return m.err
	}
	return b.Create(ctx, "members", func(t *Table) {
		t.Increments("id")
		t.Integer("team_id")
		t.String("email")
		t.Foreign("team_id").References("id").On("teams").OnDelete("CASCADE")
	})
}

func TestMigrator_Run(t *testing.T) {
	ctx := context.Background()
	drv := openSQLite(t)
	var buf bytes.Buffer
	m, err := NewMigrator(drv, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	require.NoError(t, err)

	// Out of order on purpose: members references teams.
	err = m.Run(ctx, []Migration{createMembers{}, createTeams{}}, WithSeed())
	require.NoError(t, err)

	tables, err := NewInspector(drv)
	require.NoError(t, err)
	names, err := tables.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"members", "teams"}, names)

	n, err := drv.Table("teams").Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	n, err = drv.Table("members").Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	out := buf.String()
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("create_teams_table")), bytes.Index(buf.Bytes(), []byte("create_members_table")))
	assert.Contains(t, out, "running migration")

	t.Run("refresh", func(t *testing.T) {
		_, err := drv.Table("members").Insert(ctx, map[string]any{"team_id": 1, "email": "a@example.com"})
		require.NoError(t, err)
		require.NoError(t, m.Run(ctx, []Migration{createTeams{}, createMembers{}}, WithRefresh()))
		n, err := drv.Table("members").Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
		n, err = drv.Table("teams").Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("existing table", func(t *testing.T) {
		err := m.Run(ctx, []Migration{createTeams{}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "migrate 2024_01_01_000000_create_teams_table")
	})
}

func TestMigrator_RunStops(t *testing.T) {
	ctx := context.Background()
	drv := openSQLite(t)
	m, err := NewMigrator(drv)
	require.NoError(t, err)
	assert.NotNil(t, m.Builder())

	boom := errors.New("boom")
	err = m.Run(ctx, []Migration{createTeams{}, createMembers{err: boom}})
	assert.ErrorIs(t, err, boom)
	ok, err := m.Builder().HasTable(ctx, "teams")
	require.NoError(t, err)
	assert.True(t, ok)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, m.Run(cctx, []Migration{createTeams{}}), context.Canceled)
}
