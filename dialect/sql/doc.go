// Package sql provides a fluent SQL query builder and the database/sql
// backed executors it runs on.
//
// A Builder holds the clause model of a SELECT (columns, from, joins,
// wheres, groups, havings, orders, limit, offset, unions and an optional
// aggregate) together with positional bindings kept in per-clause buckets.
// A Grammar compiles the model into the SQL text of one dialect: MySQL,
// PostgreSQL, SQLite or SQL Server.
//
//	drv, err := sql.Open("mysql", dsn)
//	if err != nil {
//	    return err
//	}
//	rows, err := drv.Table("users").
//	    Where("votes", ">", 100).
//	    OrderBy("name").
//	    Get(ctx)
//
// # Bindings
//
// Bindings are flattened in clause order: select, from, join, where,
// groupBy, having, order, union, unionOrder. That is the order the
// grammars emit the clauses in SQL text, so compiled placeholders and
// arguments always line up. Limit and offset are inlined as integers.
//
// # Pagination
//
// Paginate counts the matching rows and fetches one page:
//
//	page, err := drv.Table("users").OrderBy("id").Paginate(ctx, 15, sql.WithPage(2))
//
// Grouped queries are counted through a derived table so the total is the
// number of groups, not the number of rows.
//
// # Chunking
//
// Chunk and Each walk large result sets page by page. The query must be
// ordered, otherwise the pages are not stable and the call fails before
// any statement is sent.
//
//	_, err := drv.Table("users").OrderBy("id").Each(ctx, 100, func(r sql.Row, i int) error {
//	    return nil
//	})
//
// # Observability
//
// Every Driver keeps QueryStats, optional slow query hooks and an
// in-memory query log. Tracing goes through log/slog at debug level.
package sql
