package gen

import (
	"fmt"
	"go/token"
	"log/slog"
	"runtime"
	"slices"
	"time"

	"github.com/syssam/fluentdb"
)

// Config holds the generator settings.
type Config struct {
	// Seed adds a Seed method that re-inserts the current rows.
	Seed bool
	// Fresh empties the output directory before writing.
	Fresh bool
	// Include limits generation to the listed tables.
	Include []string
	// Exclude skips the listed tables. Ignored when Include is set.
	Exclude []string
	// Database scopes MySQL introspection to a schema other than the
	// connection's current one.
	Database string
	// Package is the package clause of the generated files.
	Package string
	// Clock stamps migration names.
	Clock  func() time.Time
	Logger *slog.Logger
	// Workers bounds concurrent rendering and writing.
	Workers int
}

func defaultConfig() Config {
	return Config{
		Package: "migrations",
		Clock:   time.Now,
		Logger:  slog.Default(),
		Workers: runtime.GOMAXPROCS(0),
	}
}

// Option configures migration generation.
type Option func(*Config) error

// WithSeed renders a Seed method holding one insert per existing row.
func WithSeed() Option {
	return func(c *Config) error {
		c.Seed = true
		return nil
	}
}

// WithFresh removes the contents of the output directory before writing.
func WithFresh() Option {
	return func(c *Config) error {
		c.Fresh = true
		return nil
	}
}

// Include restricts generation to the given tables.
func Include(tables ...string) Option {
	return func(c *Config) error {
		c.Include = append(c.Include, tables...)
		return nil
	}
}

// Exclude skips the given tables.
func Exclude(tables ...string) Option {
	return func(c *Config) error {
		c.Exclude = append(c.Exclude, tables...)
		return nil
	}
}

// WithDatabase introspects the named MySQL schema.
func WithDatabase(name string) Option {
	return func(c *Config) error {
		c.Database = name
		return nil
	}
}

// WithPackage sets the package name of the generated files.
func WithPackage(name string) Option {
	return func(c *Config) error {
		if !token.IsIdentifier(name) {
			return fluentdb.NewConfigError("gen.WithPackage", fmt.Sprintf("invalid package name %q", name), fluentdb.ErrInvalidArgument)
		}
		c.Package = name
		return nil
	}
}

// WithClock sets the time source used for migration names.
func WithClock(now func() time.Time) Option {
	return func(c *Config) error {
		if now == nil {
			return fluentdb.NewConfigError("gen.WithClock", "clock cannot be nil", fluentdb.ErrInvalidArgument)
		}
		c.Clock = now
		return nil
	}
}

// WithLogger sets the logger that reports written files.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return fluentdb.NewConfigError("gen.WithLogger", "logger cannot be nil", fluentdb.ErrInvalidArgument)
		}
		c.Logger = l
		return nil
	}
}

// WithWorkers sets the number of files rendered and written in parallel.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return fluentdb.NewConfigError("gen.WithWorkers", fmt.Sprintf("workers must be positive, got %d", n), fluentdb.ErrInvalidArgument)
		}
		c.Workers = n
		return nil
	}
}

func (c *Config) apply(opts []Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// selected reports whether the table passes the table lists. A non-empty
// include list takes precedence and the exclude list is then ignored.
func (c *Config) selected(table string) bool {
	if len(c.Include) > 0 {
		return slices.Contains(c.Include, table)
	}
	return !slices.Contains(c.Exclude, table)
}
