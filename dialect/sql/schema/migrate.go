package schema

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/syssam/fluentdb/dialect/sql"
)

// Migration creates one table.
type Migration interface {
	// Name identifies the migration. Names sort in application order.
	Name() string
	// Table is the table the migration creates.
	Table() string
	Up(ctx context.Context, b *Builder) error
}

// Seeder is implemented by migrations that load data after Up.
type Seeder interface {
	Seed(ctx context.Context, exec sql.Executor) error
}

// Migrator applies migrations through a schema Builder.
type Migrator struct {
	exec    sql.Executor
	builder *Builder
	logger  *slog.Logger
}

// NewMigrator returns a Migrator over exec.
func NewMigrator(exec sql.Executor, opts ...BuilderOption) (*Migrator, error) {
	b, err := NewBuilder(exec, opts...)
	if err != nil {
		return nil, err
	}
	return &Migrator{exec: exec, builder: b, logger: b.logger}, nil
}

// Builder returns the schema builder migrations run against.
func (m *Migrator) Builder() *Builder { return m.builder }

// RunOption configures a migration run.
type RunOption func(*runConfig)

type runConfig struct {
	refresh bool
	seed    bool
}

// WithRefresh drops each migration's table before applying it.
func WithRefresh() RunOption {
	return func(c *runConfig) { c.refresh = true }
}

// WithSeed runs Seed on migrations that implement Seeder.
func WithSeed() RunOption {
	return func(c *runConfig) { c.seed = true }
}

// Run applies the migrations in name order and stops at the first error.
func (m *Migrator) Run(ctx context.Context, migrations []Migration, opts ...RunOption) error {
	cfg := &runConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name() < sorted[j].Name() })

	for _, mg := range sorted {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.logger.InfoContext(ctx, "running migration", "migration", mg.Name(), "table", mg.Table())
		if cfg.refresh {
			if err := m.builder.DropIfExists(ctx, mg.Table()); err != nil {
				return fmt.Errorf("refresh %s: %w", mg.Name(), err)
			}
		}
		if err := mg.Up(ctx, m.builder); err != nil {
			return fmt.Errorf("migrate %s: %w", mg.Name(), err)
		}
		if !cfg.seed {
			continue
		}
		if s, ok := mg.(Seeder); ok {
			if err := s.Seed(ctx, m.exec); err != nil {
				return fmt.Errorf("seed %s: %w", mg.Name(), err)
			}
		}
	}
	return nil
}
