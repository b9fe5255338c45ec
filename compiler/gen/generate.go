package gen

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/syssam/fluentdb"
	"github.com/syssam/fluentdb/dialect/sql"
	"github.com/syssam/fluentdb/dialect/sql/schema"
)

// Generator synthesizes migrations from the database behind an executor.
type Generator struct {
	exec      sql.Executor
	inspector *schema.Inspector
	cfg       Config
	metrics   *WriterMetrics
}

// New returns a Generator for exec. Options set the defaults of every
// Generate call; the database is fixed at construction.
func New(exec sql.Executor, opts ...Option) (*Generator, error) {
	cfg := defaultConfig()
	if err := cfg.apply(opts); err != nil {
		return nil, err
	}
	inspector, err := schema.NewInspector(exec, schema.WithDatabase(cfg.Database))
	if err != nil {
		return nil, err
	}
	return &Generator{exec: exec, inspector: inspector, cfg: cfg, metrics: &WriterMetrics{}}, nil
}

// Metrics returns the metrics of the last Generate call.
func (g *Generator) Metrics() *WriterMetrics { return g.metrics }

// Generate writes one migration per selected table into outDir and returns
// the written paths in table order. Tables are introspected one at a time
// over the executor; rendering and writing run on Config.Workers
// goroutines.
func (g *Generator) Generate(ctx context.Context, outDir string, opts ...Option) ([]string, error) {
	cfg := g.cfg
	cfg.Include = slices.Clone(cfg.Include)
	cfg.Exclude = slices.Clone(cfg.Exclude)
	if err := cfg.apply(opts); err != nil {
		return nil, err
	}
	if outDir == "" {
		return nil, fluentdb.NewConfigError("gen.Generate", "output directory is required", fluentdb.ErrInvalidArgument)
	}
	if cfg.Fresh {
		if err := clean(outDir); err != nil {
			return nil, NewGenerationError("clean", "", outDir, err)
		}
	}

	migrations, err := g.Migrations(ctx, opts...)
	if err != nil {
		return nil, err
	}
	w := newMigrationWriter(outDir, cfg)
	paths, err := w.writeAll(ctx, migrations)
	g.metrics = w.metrics
	if err != nil {
		return nil, err
	}
	for i, m := range migrations {
		cfg.Logger.InfoContext(ctx, "generated migration", "table", m.Table, "file", paths[i])
	}
	return paths, nil
}

// Migrations synthesizes the migrations of the selected tables without
// writing them.
func (g *Generator) Migrations(ctx context.Context, opts ...Option) ([]*Migration, error) {
	cfg := g.cfg
	cfg.Include = slices.Clone(cfg.Include)
	cfg.Exclude = slices.Clone(cfg.Exclude)
	if err := cfg.apply(opts); err != nil {
		return nil, err
	}
	tables, err := g.inspector.Tables(ctx)
	if err != nil {
		return nil, NewGenerationError("inspect", "", "", err)
	}
	stamp := cfg.Clock().Format(nameLayout)
	var migrations []*Migration
	for _, table := range tables {
		if !cfg.selected(table) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := g.migration(ctx, table, stamp, cfg.Seed)
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, m)
	}
	return migrations, nil
}

func (g *Generator) migration(ctx context.Context, table, stamp string, seed bool) (*Migration, error) {
	cols, err := g.inspector.Columns(ctx, table)
	if err != nil {
		return nil, NewGenerationError("inspect", table, "", err)
	}
	idxs, err := g.inspector.Indexes(ctx, table)
	if err != nil {
		return nil, NewGenerationError("inspect", table, "", err)
	}
	def, err := g.inspector.Definition(ctx, table)
	if err != nil {
		return nil, NewGenerationError("inspect", table, "", err)
	}
	m := &Migration{
		Name:       stamp + "_create_" + table + "_table",
		Table:      table,
		TypeName:   typeName(table),
		Definition: def,
	}
	m.Columns, m.Indexes = synthesize(table, cols, idxs)
	if !seed {
		return m, nil
	}
	rows, err := sql.Table(g.exec, table).Get(ctx)
	if err != nil {
		return nil, NewGenerationError("seed", table, "", err)
	}
	for _, r := range rows {
		b, err := json.Marshal(r)
		if err != nil {
			return nil, NewGenerationError("seed", table, "", err)
		}
		m.Rows = append(m.Rows, string(b))
	}
	return m, nil
}
