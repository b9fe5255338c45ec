package sql

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/syssam/fluentdb"
	"github.com/syssam/fluentdb/dialect"
)

// EnvPrefix prefixes the environment variables read by LoadConfig.
const EnvPrefix = "FLUENTDB_"

// Config describes a database connection.
type Config struct {
	// Driver is the dialect: mysql, postgres, sqlite or sqlserver.
	Driver string `koanf:"driver"`
	// DriverName is the database/sql driver name. Defaults per dialect.
	DriverName string `koanf:"driver_name"`
	DSN        string `koanf:"dsn"`
	// Database overrides the schema name derived from the DSN.
	Database      string        `koanf:"database"`
	Prefix        string        `koanf:"prefix"`
	Logging       bool          `koanf:"logging"`
	SlowThreshold time.Duration `koanf:"slow_threshold"`
}

// Validate checks the connection settings.
func (c *Config) Validate() error {
	if c.Driver == "" {
		return fluentdb.NewConfigError("config", "driver is required", fluentdb.ErrInvalidArgument)
	}
	if err := dialect.Check("connect", c.Driver); err != nil {
		return err
	}
	if c.DSN == "" {
		return fluentdb.NewConfigError("config", "dsn is required", fluentdb.ErrInvalidArgument)
	}
	return nil
}

// Dialect returns the normalized dialect name.
func (c *Config) Dialect() string { return dialect.Normalize(c.Driver) }

// SQLDriverName returns the database/sql driver to open.
func (c *Config) SQLDriverName() string {
	if c.DriverName != "" {
		return c.DriverName
	}
	return c.Dialect()
}

// DatabaseName returns the schema the connection points at.
func (c *Config) DatabaseName() string {
	if c.Database != "" {
		return c.Database
	}
	switch c.Dialect() {
	case dialect.MySQL:
		cfg, err := mysql.ParseDSN(c.DSN)
		if err != nil {
			return ""
		}
		return cfg.DBName
	case dialect.Postgres:
		if u, err := url.Parse(c.DSN); err == nil && u.Scheme != "" {
			return strings.TrimPrefix(u.Path, "/")
		}
		for _, kv := range strings.Fields(c.DSN) {
			if k, v, ok := strings.Cut(kv, "="); ok && k == "dbname" {
				return strings.Trim(v, "'")
			}
		}
	case dialect.SQLServer:
		if u, err := url.Parse(c.DSN); err == nil {
			return u.Query().Get("database")
		}
	}
	return ""
}

// LoadConfig loads connection settings from defaults, the optional YAML
// file, FLUENTDB_* environment variables and explicitly set flags, in
// increasing order of precedence.
func LoadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"driver":         dialect.SQLite,
		"logging":        false,
		"slow_threshold": "100ms",
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}
	// FLUENTDB_SLOW_THRESHOLD -> slow_threshold
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

// Connect opens and pings the configured database.
func Connect(ctx context.Context, cfg *Config, opts ...Option) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base := []Option{WithPrefix(cfg.Prefix)}
	if cfg.SlowThreshold > 0 {
		base = append(base, WithSlowThreshold(cfg.SlowThreshold))
	}
	if cfg.Logging {
		base = append(base, WithQueryLog())
	}
	drv, err := Open(cfg.SQLDriverName(), cfg.DSN, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	drv.dialect = cfg.Dialect()
	if err := drv.db.PingContext(ctx); err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("dialect/sql: ping %s: %w", cfg.Dialect(), err)
	}
	return drv, nil
}
