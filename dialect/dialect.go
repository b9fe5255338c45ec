package dialect

import (
	"strings"

	"github.com/syssam/fluentdb"
)

// Dialect names for the supported database backends.
const (
	MySQL     = "mysql"
	Postgres  = "postgres"
	SQLite    = "sqlite"
	SQLServer = "sqlserver"
)

// aliases maps foreign driver names onto the canonical dialect tags.
var aliases = map[string]string{
	"mysql":      MySQL,
	"mariadb":    MySQL,
	"postgres":   Postgres,
	"postgresql": Postgres,
	"pgsql":      Postgres,
	"pgx":        Postgres,
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
	"sqlserver":  SQLServer,
	"sqlsrv":     SQLServer,
	"mssql":      SQLServer,
}

// Normalize returns the canonical dialect tag for the given driver name.
// Unknown names are returned lower-cased and unchanged, so that the caller
// can report them in an UnsupportedDriverError.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	// Telemetry wrappers register drivers as "<name>-<suffix>".
	for _, sep := range []string{"-", ":"} {
		if i := strings.Index(name, sep); i > 0 {
			if d, ok := aliases[name[:i]]; ok {
				return d
			}
		}
	}
	if d, ok := aliases[name]; ok {
		return d
	}
	return name
}

// Supported reports whether the dialect has a grammar and an inspector.
func Supported(name string) bool {
	switch Normalize(name) {
	case MySQL, Postgres, SQLite, SQLServer:
		return true
	}
	return false
}

// Check returns an UnsupportedDriverError naming op if the dialect is not
// supported.
func Check(op, name string) error {
	if !Supported(name) {
		return fluentdb.NewUnsupportedDriverError(op, name)
	}
	return nil
}
