package fluentdb_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/fluentdb"
)

func TestConfigError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := fluentdb.NewConfigError("paginate", "page must be positive", fluentdb.ErrInvalidArgument)
		assert.Equal(t, "fluentdb: paginate: page must be positive", err.Error())
		assert.Equal(t, "fluentdb: dsn is required", fluentdb.NewConfigError("", "dsn is required", nil).Error())
	})

	t.Run("Unwrap", func(t *testing.T) {
		err := fluentdb.NewConfigError("chunk", "count must be positive", fluentdb.ErrInvalidArgument)
		assert.ErrorIs(t, err, fluentdb.ErrInvalidArgument)
		assert.NotErrorIs(t, err, fluentdb.ErrUnsupportedDriver)
	})

	t.Run("IsConfigError", func(t *testing.T) {
		err := fluentdb.NewConfigError("config", "driver is required", nil)
		assert.True(t, fluentdb.IsConfigError(err))
		assert.True(t, fluentdb.IsConfigError(fmt.Errorf("wrapper: %w", err)))
		assert.False(t, fluentdb.IsConfigError(errors.New("other error")))
		assert.False(t, fluentdb.IsConfigError(nil))
	})
}

func TestUnsupportedDriverError(t *testing.T) {
	err := fluentdb.NewUnsupportedDriverError("has_table", "oracle")
	assert.Equal(t, `fluentdb: unsupported has_table operation for driver "oracle"`, err.Error())
	assert.Equal(t, `fluentdb: unsupported driver "db2"`, fluentdb.NewUnsupportedDriverError("", "db2").Error())

	assert.ErrorIs(t, err, fluentdb.ErrUnsupportedDriver)
	assert.True(t, fluentdb.IsUnsupportedDriver(fmt.Errorf("connect: %w", err)))
	assert.True(t, fluentdb.IsUnsupportedDriver(fluentdb.ErrUnsupportedDriver))
	assert.False(t, fluentdb.IsUnsupportedDriver(fluentdb.ErrUnsupportedType))
	assert.False(t, fluentdb.IsUnsupportedDriver(nil))
}

func TestUnsupportedTypeError(t *testing.T) {
	err := fluentdb.NewUnsupportedTypeError("sqlite", "geometry")
	assert.Equal(t, `fluentdb: unsupported column type "geometry" for driver "sqlite"`, err.Error())
	assert.ErrorIs(t, err, fluentdb.ErrUnsupportedType)
	assert.NotErrorIs(t, err, fluentdb.ErrUnsupportedDriver)
}

func TestQueryError(t *testing.T) {
	cause := errors.New("no such table: users")
	err := fluentdb.NewQueryError("select", "select * from users", cause)
	assert.Equal(t, "fluentdb: select: no such table: users (SQL: select * from users)", err.Error())
	assert.Equal(t, "fluentdb: no such table: users (SQL: delete from users)", fluentdb.NewQueryError("", "delete from users", cause).Error())

	assert.ErrorIs(t, err, cause)
	assert.True(t, fluentdb.IsQueryError(fmt.Errorf("wrapper: %w", err)))
	assert.False(t, fluentdb.IsQueryError(cause))
	assert.False(t, fluentdb.IsQueryError(nil))

	var qe *fluentdb.QueryError
	require.ErrorAs(t, fmt.Errorf("wrapper: %w", err), &qe)
	assert.Equal(t, "select * from users", qe.SQL)
}

func TestRollbackError(t *testing.T) {
	cause := errors.New("constraint failed")
	rb := errors.New("connection reset")
	err := &fluentdb.RollbackError{Err: cause, Rollback: rb}
	assert.Equal(t, "fluentdb: rollback failed: connection reset: constraint failed", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, rb)
}
