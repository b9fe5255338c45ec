package schema

import (
	"context"
	"strings"

	"github.com/syssam/fluentdb/dialect"
	"github.com/syssam/fluentdb/dialect/sql"
)

// Column keys reported by IntrospectedColumn.Key.
const (
	KeyPrimary = "PRI"
	KeyUnique  = "UNI"
	KeyIndex   = "MUL"
)

// ExtraAutoIncrement marks an auto-incrementing column in
// IntrospectedColumn.Extra.
const ExtraAutoIncrement = "auto_increment"

// CurrentTimestamp is the normalized form of the dialects' "now" defaults.
const CurrentTimestamp = "CURRENT_TIMESTAMP"

// IntrospectedColumn is the dialect-neutral description of a live column.
type IntrospectedColumn struct {
	Field    string
	RawType  string
	Nullable bool
	Key      string
	// Default is nil when the column has no default.
	Default *string
	Extra   string
	Comment string
}

// IntrospectedIndex is a live index or key and its ordered columns.
type IntrospectedIndex struct {
	Name    string
	Columns []string
	Primary bool
	Unique  bool
}

// Inspector reads table metadata from a live database. Table names are
// given and returned without the executor's prefix.
type Inspector struct {
	exec     sql.Executor
	grammar  sql.Grammar
	driver   inspectDriver
	database string
}

type inspectDriver interface {
	tables(ctx context.Context) ([]string, error)
	columns(ctx context.Context, table string) ([]IntrospectedColumn, error)
	indexes(ctx context.Context, table string) ([]IntrospectedIndex, error)
	definition(ctx context.Context, table string) (string, error)
}

// InspectorOption configures an Inspector.
type InspectorOption func(*Inspector)

// WithDatabase scopes MySQL introspection to the named schema instead of
// the connection's current one. Other dialects ignore it.
func WithDatabase(name string) InspectorOption {
	return func(i *Inspector) { i.database = name }
}

// NewInspector returns an Inspector for the executor's dialect.
func NewInspector(exec sql.Executor, opts ...InspectorOption) (*Inspector, error) {
	g, err := sql.GrammarFor(exec.Dialect(), exec.Prefix())
	if err != nil {
		return nil, err
	}
	i := &Inspector{exec: exec, grammar: g}
	for _, opt := range opts {
		opt(i)
	}
	q := querier{exec: exec, grammar: g, database: i.database}
	switch g.Dialect() {
	case dialect.MySQL:
		i.driver = &mysqlInspector{q}
	case dialect.Postgres:
		i.driver = &postgresInspector{q}
	case dialect.SQLite:
		i.driver = &sqliteInspector{q}
	case dialect.SQLServer:
		i.driver = &sqlserverInspector{q}
	}
	return i, nil
}

// Dialect returns the inspected dialect.
func (i *Inspector) Dialect() string { return i.grammar.Dialect() }

// Tables lists the base tables. With a prefix configured, only prefixed
// tables are listed.
func (i *Inspector) Tables(ctx context.Context) ([]string, error) {
	names, err := i.driver.tables(ctx)
	if err != nil {
		return nil, err
	}
	prefix := i.grammar.Prefix()
	tables := make([]string, 0, len(names))
	for _, n := range names {
		if !strings.HasPrefix(n, prefix) {
			continue
		}
		tables = append(tables, strings.TrimPrefix(n, prefix))
	}
	return tables, nil
}

// Columns returns the columns of table in ordinal order.
func (i *Inspector) Columns(ctx context.Context, table string) ([]IntrospectedColumn, error) {
	return i.driver.columns(ctx, i.grammar.Prefix()+table)
}

// Indexes returns the primary and secondary indexes of table.
func (i *Inspector) Indexes(ctx context.Context, table string) ([]IntrospectedIndex, error) {
	return i.driver.indexes(ctx, i.grammar.Prefix()+table)
}

// Definition returns the DDL source of table, as reported or
// reconstructed for dialects without one.
func (i *Inspector) Definition(ctx context.Context, table string) (string, error) {
	return i.driver.definition(ctx, i.grammar.Prefix()+table)
}

// querier is shared by the dialect inspectors.
type querier struct {
	exec     sql.Executor
	grammar  sql.Grammar
	database string
}

func (q querier) fetch(ctx context.Context, query string, args ...any) ([]sql.Row, error) {
	return q.exec.FetchAll(ctx, q.grammar.Parameterize(query), args)
}

func (q querier) firstColumn(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := q.fetch(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.TextAt(0)
	}
	return names, nil
}

// indexGroup accumulates index rows in first-seen order.
type indexGroup struct {
	order []string
	byKey map[string]*IntrospectedIndex
}

func (g *indexGroup) add(name, column string, primary, unique bool) {
	if g.byKey == nil {
		g.byKey = make(map[string]*IntrospectedIndex)
	}
	idx, ok := g.byKey[name]
	if !ok {
		idx = &IntrospectedIndex{Name: name, Primary: primary, Unique: unique || primary}
		g.byKey[name] = idx
		g.order = append(g.order, name)
	}
	idx.Columns = append(idx.Columns, column)
}

func (g *indexGroup) list() []IntrospectedIndex {
	out := make([]IntrospectedIndex, len(g.order))
	for i, n := range g.order {
		out[i] = *g.byKey[n]
	}
	return out
}

// reconstruct renders a CREATE TABLE text from introspected columns for
// dialects that do not keep the original DDL.
func reconstruct(g sql.Grammar, table string, cols []IntrospectedColumn) string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE " + g.Wrap(table) + " (\n")
	for i, c := range cols {
		sb.WriteString("  " + g.Wrap(c.Field) + " " + c.RawType)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		if c.Default != nil {
			sb.WriteString(" DEFAULT " + *c.Default)
		}
		if i < len(cols)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(")")
	return sb.String()
}

// normalizeNow maps the dialects' current time functions onto
// CURRENT_TIMESTAMP.
func normalizeNow(def string) string {
	switch strings.ToLower(strings.TrimSpace(def)) {
	case "now()", "current_timestamp", "current_timestamp()", "getdate()", "sysdatetime()", "localtimestamp":
		return CurrentTimestamp
	}
	return def
}

// unquote strips one layer of matching single quotes, or backticks, and
// unescapes doubled quotes.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "N'") {
		s = s[1:]
	}
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '`' && s[len(s)-1] == '`') || (s[0] == '"' && s[len(s)-1] == '"') {
			return strings.ReplaceAll(s[1:len(s)-1], string(s[0])+string(s[0]), string(s[0]))
		}
	}
	return s
}

func strPtr(s string) *string { return &s }
