// Package dialect identifies the database dialects supported by fluentdb.
//
// This package defines the dialect tags used to select a query grammar,
// a schema grammar and an introspection implementation, allowing the same
// builder to target different database backends including MySQL,
// PostgreSQL, SQLite and SQL Server.
//
// # Dialect Constants
//
// Each dialect is identified by a constant string:
//
//	dialect.MySQL     = "mysql"
//	dialect.Postgres  = "postgres"
//	dialect.SQLite    = "sqlite"
//	dialect.SQLServer = "sqlserver"
//
// Driver names used by other tools are accepted through Normalize:
//
//	dialect.Normalize("pgsql")   // "postgres"
//	dialect.Normalize("sqlsrv")  // "sqlserver"
//	dialect.Normalize("sqlite3") // "sqlite"
//
// # Sub-packages
//
//   - dialect/sql: executor, query builder, grammars, pagination and chunking
//   - dialect/sql/schema: schema definition, DDL grammars and introspection
package dialect
