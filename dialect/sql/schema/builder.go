package schema

import (
	"context"
	"log/slog"

	"github.com/syssam/fluentdb/dialect"
	"github.com/syssam/fluentdb/dialect/sql"
)

// Builder runs schema blueprints through an executor.
type Builder struct {
	exec    sql.Executor
	grammar *Grammar
	logger  *slog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the logger that traces executed DDL at debug level.
func WithLogger(l *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBuilder returns a schema builder for the executor's dialect.
func NewBuilder(exec sql.Executor, opts ...BuilderOption) (*Builder, error) {
	g, err := NewGrammar(exec.Dialect(), exec.Prefix())
	if err != nil {
		return nil, err
	}
	b := &Builder{exec: exec, grammar: g, logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Grammar returns the DDL grammar in use.
func (b *Builder) Grammar() *Grammar { return b.grammar }

// Create creates a table defined by fn.
func (b *Builder) Create(ctx context.Context, table string, fn func(*Table)) error {
	t := NewTable(table)
	t.Create()
	fn(t)
	return b.Build(ctx, t)
}

// CreateIfNotExists creates the table unless it already exists.
func (b *Builder) CreateIfNotExists(ctx context.Context, table string, fn func(*Table)) error {
	ok, err := b.HasTable(ctx, table)
	if err != nil || ok {
		return err
	}
	return b.Create(ctx, table, fn)
}

// Table alters an existing table.
func (b *Builder) Table(ctx context.Context, table string, fn func(*Table)) error {
	t := NewTable(table)
	fn(t)
	return b.Build(ctx, t)
}

// Rename renames a table.
func (b *Builder) Rename(ctx context.Context, from, to string) error {
	t := NewTable(from)
	t.Rename(to)
	return b.Build(ctx, t)
}

// Drop drops a table.
func (b *Builder) Drop(ctx context.Context, table string) error {
	t := NewTable(table)
	t.Drop()
	return b.Build(ctx, t)
}

// DropIfExists drops the table when it exists.
func (b *Builder) DropIfExists(ctx context.Context, table string) error {
	ok, err := b.HasTable(ctx, table)
	if err != nil || !ok {
		return err
	}
	return b.Drop(ctx, table)
}

// ToSQL returns the statements a blueprint would run.
func (b *Builder) ToSQL(t *Table) ([]string, error) {
	t.addImpliedCommands()
	if err := ValidateTable(t).Err(); err != nil {
		return nil, err
	}
	return b.grammar.Compile(t)
}

// Build compiles the blueprint and executes its statements in order.
func (b *Builder) Build(ctx context.Context, t *Table) error {
	stmts, err := b.ToSQL(t)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		b.logger.DebugContext(ctx, "schema statement", "table", t.name, "sql", stmt)
		if _, err := b.exec.Exec(ctx, stmt, nil); err != nil {
			return err
		}
	}
	return nil
}

// HasTable reports whether the table exists. A failed probe reports false.
func (b *Builder) HasTable(ctx context.Context, table string) (bool, error) {
	var query string
	switch b.grammar.Dialect() {
	case dialect.MySQL:
		query = "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?"
	case dialect.Postgres:
		query = "SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?"
	case dialect.SQLite:
		query = "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?"
	case dialect.SQLServer:
		query = "SELECT name FROM sys.tables WHERE name = ?"
	}
	return b.probe(ctx, query, b.grammar.Prefix()+table)
}

// HasColumn reports whether the table has the column. A failed probe
// reports false.
func (b *Builder) HasColumn(ctx context.Context, table, column string) (bool, error) {
	table = b.grammar.Prefix() + table
	switch b.grammar.Dialect() {
	case dialect.SQLite:
		rows, err := b.exec.FetchAll(ctx, "PRAGMA table_info("+b.grammar.Wrap(table)+")", nil)
		if err != nil {
			return false, ctx.Err()
		}
		for _, r := range rows {
			if r.Text("name") == column {
				return true, nil
			}
		}
		return false, nil
	case dialect.MySQL:
		return b.probe(ctx, "SELECT column_name FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? AND column_name = ?", table, column)
	case dialect.Postgres:
		return b.probe(ctx, "SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = ? AND column_name = ?", table, column)
	default:
		return b.probe(ctx, "SELECT col.name FROM sys.columns AS col JOIN sys.objects AS obj ON col.object_id = obj.object_id WHERE obj.type = 'U' AND obj.name = ? AND col.name = ?", table, column)
	}
}

func (b *Builder) probe(ctx context.Context, query string, args ...any) (bool, error) {
	_, found, err := b.exec.Fetch(ctx, b.grammar.Parameterize(query), args)
	if err != nil {
		b.logger.DebugContext(ctx, "schema probe failed", "sql", query, "error", err)
		return false, ctx.Err()
	}
	return found, nil
}

// EnableForeignKeyChecks turns foreign key enforcement on. A failed
// statement reports false.
func (b *Builder) EnableForeignKeyChecks(ctx context.Context) (bool, error) {
	return b.foreignKeyChecks(ctx, true)
}

// DisableForeignKeyChecks turns foreign key enforcement off. A failed
// statement reports false.
func (b *Builder) DisableForeignKeyChecks(ctx context.Context) (bool, error) {
	return b.foreignKeyChecks(ctx, false)
}

func (b *Builder) foreignKeyChecks(ctx context.Context, on bool) (bool, error) {
	var query string
	switch b.grammar.Dialect() {
	case dialect.MySQL:
		query = "SET FOREIGN_KEY_CHECKS=0"
		if on {
			query = "SET FOREIGN_KEY_CHECKS=1"
		}
	case dialect.Postgres:
		query = "SET CONSTRAINTS ALL DEFERRED"
		if on {
			query = "SET CONSTRAINTS ALL IMMEDIATE"
		}
	case dialect.SQLite:
		query = "PRAGMA foreign_keys = OFF"
		if on {
			query = "PRAGMA foreign_keys = ON"
		}
	case dialect.SQLServer:
		query = `EXEC sp_msforeachtable "ALTER TABLE ? NOCHECK CONSTRAINT all"`
		if on {
			query = `EXEC sp_msforeachtable "ALTER TABLE ? WITH CHECK CHECK CONSTRAINT all"`
		}
	}
	if _, err := b.exec.Exec(ctx, query, nil); err != nil {
		b.logger.DebugContext(ctx, "foreign key checks toggle failed", "sql", query, "error", err)
		return false, ctx.Err()
	}
	return true, nil
}
