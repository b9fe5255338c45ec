package gen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// migrationWriter renders and writes migration files in parallel.
type migrationWriter struct {
	outDir  string
	pkg     string
	seed    bool
	workers int

	mu      sync.Mutex
	metrics *WriterMetrics
}

// WriterMetrics tracks generation performance.
type WriterMetrics struct {
	FilesGenerated int
	TotalBytes     int64
	RenderTime     time.Duration
	WriteTime      time.Duration
}

func newMigrationWriter(outDir string, cfg Config) *migrationWriter {
	return &migrationWriter{
		outDir:  outDir,
		pkg:     cfg.Package,
		seed:    cfg.Seed,
		workers: cfg.Workers,
		metrics: &WriterMetrics{},
	}
}

// writeAll writes every migration and returns the file paths in input
// order.
func (w *migrationWriter) writeAll(ctx context.Context, migrations []*Migration) ([]string, error) {
	if err := os.MkdirAll(w.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	paths := make([]string, len(migrations))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(w.workers)
	for i, m := range migrations {
		i, m := i, m
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			path, err := w.write(m)
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func (w *migrationWriter) write(m *Migration) (string, error) {
	start := time.Now()
	src, err := render(w.pkg, m, w.seed)
	if err != nil {
		return "", NewGenerationError("render", m.Table, m.FileName(), err)
	}
	rendered := time.Now()
	path := filepath.Join(w.outDir, m.FileName())
	if err := os.WriteFile(path, src, 0o644); err != nil {
		return "", NewGenerationError("write", m.Table, m.FileName(), err)
	}

	w.mu.Lock()
	w.metrics.FilesGenerated++
	w.metrics.TotalBytes += int64(len(src))
	w.metrics.RenderTime += rendered.Sub(start)
	w.metrics.WriteTime += time.Since(rendered)
	w.mu.Unlock()
	return path, nil
}

// clean removes the contents of dir, keeping dir itself. A missing
// directory is not an error.
func clean(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
