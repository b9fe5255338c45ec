package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/syssam/fluentdb/compiler/gen"
	"github.com/syssam/fluentdb/dialect/sql"
	"github.com/syssam/fluentdb/dialect/sql/schema"
)

// Version is set at build time.
var Version = "dev"

// cli holds the state shared by the subcommands of one invocation.
type cli struct {
	cfgFile string
	cfg     *sql.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "fluentdb",
		Short: "Inspect databases and generate migrations",
		Long: `fluentdb connects to a MySQL, PostgreSQL, SQLite or SQL Server database,
introspects its tables and writes one Go migration per table.

Connection settings come from the config file, FLUENTDB_* environment
variables and flags, in increasing order of precedence.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := sql.LoadConfig(c.cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (YAML)")
	flags.String("driver", "", "database dialect (mysql|postgres|sqlite|sqlserver)")
	flags.String("driver-name", "", "database/sql driver name override")
	flags.String("dsn", "", "data source name")
	flags.String("database", "", "schema name override")
	flags.String("prefix", "", "table prefix")
	flags.Bool("logging", false, "log executed statements")
	flags.Duration("slow-threshold", 100*time.Millisecond, "slow query threshold")
	_ = root.RegisterFlagCompletionFunc("driver", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"mysql", "postgres", "sqlite", "sqlserver"}, cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(c.newGenerateCmd(), c.newTablesCmd())
	return root
}

func (c *cli) connect(ctx context.Context) (*sql.Driver, error) {
	return sql.Connect(ctx, c.cfg, sql.WithLogger(c.logger))
}

func (c *cli) newGenerateCmd() *cobra.Command {
	var (
		out     string
		pkg     string
		seed    bool
		fresh   bool
		workers int
		include []string
		exclude []string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write one migration per table",
		Example: `  # Generate migrations for every table of a SQLite database
  fluentdb generate --driver sqlite --dsn app.db --out migrations

  # Regenerate two tables with their rows as seed data
  fluentdb generate --dsn "$DSN" --driver mysql --include users,roles --seed --fresh`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			drv, err := c.connect(ctx)
			if err != nil {
				return err
			}
			defer drv.Close()

			opts := []gen.Option{
				gen.WithPackage(pkg),
				gen.WithLogger(c.logger),
				gen.WithDatabase(c.cfg.DatabaseName()),
				gen.Include(include...),
				gen.Exclude(exclude...),
			}
			if workers > 0 {
				opts = append(opts, gen.WithWorkers(workers))
			}
			if seed {
				opts = append(opts, gen.WithSeed())
			}
			if fresh {
				opts = append(opts, gen.WithFresh())
			}
			g, err := gen.New(drv, opts...)
			if err != nil {
				return err
			}
			paths, err := g.Generate(ctx, out)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&out, "out", "o", "migrations", "output directory")
	f.StringVar(&pkg, "package", "migrations", "package name of the generated files")
	f.BoolVar(&seed, "seed", false, "emit a Seed method with the current rows")
	f.BoolVar(&fresh, "fresh", false, "empty the output directory first")
	f.IntVar(&workers, "workers", 0, "parallel file writers (default GOMAXPROCS)")
	f.StringSliceVar(&include, "include", nil, "only these tables")
	f.StringSliceVar(&exclude, "exclude", nil, "skip these tables")
	return cmd
}

func (c *cli) newTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			drv, err := c.connect(ctx)
			if err != nil {
				return err
			}
			defer drv.Close()

			inspector, err := schema.NewInspector(drv, schema.WithDatabase(c.cfg.DatabaseName()))
			if err != nil {
				return err
			}
			tables, err := inspector.Tables(ctx)
			if err != nil {
				return err
			}
			for _, t := range tables {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
}
