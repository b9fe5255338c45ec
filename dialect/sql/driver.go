package sql

import (
	"context"
	"database/sql"
	"time"

	"github.com/syssam/fluentdb"
	"github.com/syssam/fluentdb/dialect"
)

// Executor runs compiled statements. Builders talk to the database only
// through this interface, so a Driver, a Tx or a test double can back them.
type Executor interface {
	// Dialect returns the canonical dialect name (see package dialect).
	Dialect() string
	// Prefix returns the table prefix applied by the grammar.
	Prefix() string
	// FetchAll runs a query and returns every row.
	FetchAll(ctx context.Context, query string, args []any) ([]Row, error)
	// Fetch runs a query and returns its first row, if any.
	Fetch(ctx context.Context, query string, args []any) (Row, bool, error)
	// Exec runs a statement and returns the number of affected rows.
	Exec(ctx context.Context, query string, args []any) (int64, error)
}

// DB is an Executor that owns the connection pool.
type DB interface {
	Executor
	// Transaction runs fn inside a transaction, committing on nil and
	// rolling back otherwise.
	Transaction(ctx context.Context, fn func(Executor) error) error
	// Pretend runs fn against an executor that records statements
	// without sending them, and returns the recorded statements.
	Pretend(ctx context.Context, fn func(Executor) error) ([]LoggedQuery, error)
	EnableQueryLog()
	DisableQueryLog()
	Logging() bool
	QueryLog() []LoggedQuery
	FlushQueryLog()
}

// ExecQuerier wraps the standard Exec and Query methods.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn implements Executor given an ExecQuerier.
type Conn struct {
	ExecQuerier
	dialect string
	prefix  string
	obs     *observer
}

// Dialect implements the Executor.Dialect method.
func (c Conn) Dialect() string { return c.dialect }

// Prefix implements the Executor.Prefix method.
func (c Conn) Prefix() string { return c.prefix }

// FetchAll implements the Executor.FetchAll method.
func (c Conn) FetchAll(ctx context.Context, query string, args []any) ([]Row, error) {
	start := time.Now()
	rs, err := c.QueryContext(ctx, query, args...)
	c.obs.record(ctx, query, args, time.Since(start), err, true)
	if err != nil {
		return nil, fluentdb.NewQueryError("query", query, err)
	}
	defer rs.Close()
	rows, err := scanRows(rs)
	if err != nil {
		return nil, fluentdb.NewQueryError("scan", query, err)
	}
	return rows, nil
}

// Fetch implements the Executor.Fetch method.
func (c Conn) Fetch(ctx context.Context, query string, args []any) (Row, bool, error) {
	rows, err := c.FetchAll(ctx, query, args)
	if err != nil || len(rows) == 0 {
		return Row{}, false, err
	}
	return rows[0], true, nil
}

// Exec implements the Executor.Exec method.
func (c Conn) Exec(ctx context.Context, query string, args []any) (int64, error) {
	start := time.Now()
	res, err := c.ExecContext(ctx, query, args...)
	c.obs.record(ctx, query, args, time.Since(start), err, false)
	if err != nil {
		return 0, fluentdb.NewQueryError("exec", query, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		// Some drivers do not report affected rows for DDL.
		return 0, nil
	}
	return n, nil
}

// Table begins a fluent query against the given table.
func (c Conn) Table(name string) *Builder {
	return NewBuilder(c).From(name)
}

// Driver is a DB implementation for SQL based databases.
type Driver struct {
	Conn
	db *sql.DB
}

// NewDriver creates a new Driver for the given dialect over db.
func NewDriver(name string, db *sql.DB, opts ...Option) *Driver {
	obs := newObserver()
	d := &Driver{
		Conn: Conn{ExecQuerier: db, dialect: dialect.Normalize(name), obs: obs},
		db:   db,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open wraps the database/sql.Open method. The driver name doubles as the
// dialect name after normalization ("sqlite3" is SQLite, "pgx" is Postgres).
func Open(driverName, source string, opts ...Option) (*Driver, error) {
	db, err := sql.Open(driverName, source)
	if err != nil {
		return nil, err
	}
	return NewDriver(driverName, db, opts...), nil
}

// OpenDB wraps the given database/sql.DB with a Driver.
func OpenDB(name string, db *sql.DB, opts ...Option) *Driver {
	return NewDriver(name, db, opts...)
}

// DB returns the underlying *sql.DB instance.
func (d *Driver) DB() *sql.DB { return d.db }

// Close closes the underlying connection.
func (d *Driver) Close() error { return d.db.Close() }

// QueryStats returns the statistics collected for the driver and its
// transactions.
func (d *Driver) QueryStats() *QueryStats { return d.obs.stats }

// SlowThreshold returns the current slow query threshold.
func (d *Driver) SlowThreshold() time.Duration {
	d.obs.mu.RLock()
	defer d.obs.mu.RUnlock()
	return d.obs.slowThreshold
}

// SetSlowThreshold updates the slow query threshold.
func (d *Driver) SetSlowThreshold(threshold time.Duration) {
	d.obs.mu.Lock()
	defer d.obs.mu.Unlock()
	d.obs.slowThreshold = threshold
}

// EnableQueryLog starts recording executed statements in memory.
func (d *Driver) EnableQueryLog() { d.obs.setLogging(true) }

// DisableQueryLog stops recording executed statements.
func (d *Driver) DisableQueryLog() { d.obs.setLogging(false) }

// Logging reports whether the query log is enabled.
func (d *Driver) Logging() bool { return d.obs.isLogging() }

// QueryLog returns a copy of the recorded statements.
func (d *Driver) QueryLog() []LoggedQuery { return d.obs.queryLog() }

// FlushQueryLog clears the recorded statements.
func (d *Driver) FlushQueryLog() { d.obs.flush() }

// Tx starts and returns a transaction.
func (d *Driver) Tx(ctx context.Context) (*Tx, error) {
	return d.BeginTx(ctx, nil)
}

// BeginTx starts a transaction with options.
func (d *Driver) BeginTx(ctx context.Context, opts *TxOptions) (*Tx, error) {
	tx, err := d.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{
		Conn: Conn{ExecQuerier: tx, dialect: d.dialect, prefix: d.prefix, obs: d.obs},
		tx:   tx,
	}, nil
}

// Transaction implements the DB.Transaction method. A panic inside fn
// rolls the transaction back and is re-raised.
func (d *Driver) Transaction(ctx context.Context, fn func(Executor) error) (err error) {
	tx, err := d.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return &fluentdb.RollbackError{Err: err, Rollback: rerr}
		}
		return err
	}
	return tx.Commit()
}

// Pretend implements the DB.Pretend method.
func (d *Driver) Pretend(ctx context.Context, fn func(Executor) error) ([]LoggedQuery, error) {
	p := &pretender{dialect: d.dialect, prefix: d.prefix}
	if err := fn(p); err != nil {
		return p.entries, err
	}
	return p.entries, nil
}

// Tx is an Executor bound to a database transaction.
type Tx struct {
	Conn
	tx *sql.Tx
}

// Commit commits the transaction.
func (tx *Tx) Commit() error { return tx.tx.Commit() }

// Rollback aborts the transaction.
func (tx *Tx) Rollback() error { return tx.tx.Rollback() }

// pretender records statements instead of executing them.
type pretender struct {
	dialect string
	prefix  string
	entries []LoggedQuery
}

func (p *pretender) Dialect() string { return p.dialect }
func (p *pretender) Prefix() string  { return p.prefix }

func (p *pretender) FetchAll(_ context.Context, query string, args []any) ([]Row, error) {
	p.entries = append(p.entries, LoggedQuery{Query: query, Bindings: args})
	return nil, nil
}

func (p *pretender) Fetch(ctx context.Context, query string, args []any) (Row, bool, error) {
	_, err := p.FetchAll(ctx, query, args)
	return Row{}, false, err
}

func (p *pretender) Exec(_ context.Context, query string, args []any) (int64, error) {
	p.entries = append(p.entries, LoggedQuery{Query: query, Bindings: args})
	return 0, nil
}

var (
	_ DB       = (*Driver)(nil)
	_ Executor = (*Tx)(nil)
	_ Executor = (*pretender)(nil)
)

type (
	// Result is an alias to sql.Result.
	Result = sql.Result
	// TxOptions holds the transaction options to be used in DB.BeginTx.
	TxOptions = sql.TxOptions
)
