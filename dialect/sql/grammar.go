package sql

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/syssam/fluentdb"
	"github.com/syssam/fluentdb/dialect"
)

// Grammar compiles a Builder into the SQL text of one dialect. Compiled
// statements use the native placeholder style of the dialect and expect
// the arguments in Builder.Bindings order.
type Grammar interface {
	Dialect() string
	Prefix() string
	// Wrap quotes a column reference, honoring "table.column" and
	// "expr as alias" forms.
	Wrap(value string) string
	// WrapTable quotes a table reference after applying the prefix.
	WrapTable(table string) string
	Columnize(columns []string) string
	// Parameterize rewrites "?" placeholders into the dialect style.
	Parameterize(query string) string
	CompileSelect(b *Builder) (string, error)
	CompileInsert(b *Builder, rows []map[string]any) (string, []any, error)
	CompileUpdate(b *Builder, values map[string]any) (string, []any, error)
	CompileDelete(b *Builder) (string, []any, error)
}

// GrammarFor returns the query grammar of the named dialect.
func GrammarFor(name, prefix string) (Grammar, error) {
	d := dialect.Normalize(name)
	if !dialect.Supported(d) {
		return nil, fluentdb.NewUnsupportedDriverError("grammar", name)
	}
	return &queryGrammar{dialect: d, prefix: prefix}, nil
}

// mysqlMaxLimit is the largest LIMIT MySQL accepts; it stands in for "all
// rows" when only an offset is given.
const mysqlMaxLimit = "18446744073709551615"

type queryGrammar struct {
	dialect string
	prefix  string
}

func (g *queryGrammar) Dialect() string { return g.dialect }
func (g *queryGrammar) Prefix() string  { return g.prefix }

// quote quotes a single identifier segment.
func (g *queryGrammar) quote(s string) string {
	if s == "*" {
		return s
	}
	switch g.dialect {
	case dialect.Postgres:
		return pq.QuoteIdentifier(s)
	case dialect.SQLServer:
		return "[" + strings.ReplaceAll(s, "]", "]]") + "]"
	default:
		return "`" + strings.ReplaceAll(s, "`", "``") + "`"
	}
}

// aliasIndex returns the index of a case-insensitive " as " separator.
func aliasIndex(s string) int {
	return strings.Index(strings.ToLower(s), " as ")
}

func (g *queryGrammar) Wrap(value string) string {
	if i := aliasIndex(value); i >= 0 {
		return g.Wrap(strings.TrimSpace(value[:i])) + " AS " + g.quote(strings.TrimSpace(value[i+4:]))
	}
	segments := strings.Split(value, ".")
	for i, s := range segments {
		if i == 0 && len(segments) > 1 {
			segments[i] = g.quote(g.prefix + s)
			continue
		}
		segments[i] = g.quote(s)
	}
	return strings.Join(segments, ".")
}

func (g *queryGrammar) WrapTable(table string) string {
	if i := aliasIndex(table); i >= 0 {
		return g.WrapTable(strings.TrimSpace(table[:i])) + " AS " + g.quote(g.prefix+strings.TrimSpace(table[i+4:]))
	}
	segments := strings.Split(table, ".")
	segments[len(segments)-1] = g.prefix + segments[len(segments)-1]
	for i, s := range segments {
		segments[i] = g.quote(s)
	}
	return strings.Join(segments, ".")
}

func (g *queryGrammar) Columnize(columns []string) string {
	wrapped := make([]string, len(columns))
	for i, c := range columns {
		wrapped[i] = g.Wrap(c)
	}
	return strings.Join(wrapped, ", ")
}

// Parameterize numbers "?" placeholders for PostgreSQL ($n) and SQL Server
// (@pN). Placeholders inside quoted literals and identifiers are kept.
func (g *queryGrammar) Parameterize(query string) string {
	var prefix string
	switch g.dialect {
	case dialect.Postgres:
		prefix = "$"
	case dialect.SQLServer:
		prefix = "@p"
	default:
		return query
	}
	var (
		b     strings.Builder
		n     int
		quote byte
	)
	b.Grow(len(query) + 8)
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			b.WriteByte(c)
		case c == '\'' || c == '"' || c == '`':
			quote = c
			b.WriteByte(c)
		case c == '[' && g.dialect == dialect.SQLServer:
			quote = ']'
			b.WriteByte(c)
		case c == '?':
			n++
			b.WriteString(prefix)
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func (g *queryGrammar) CompileSelect(b *Builder) (string, error) {
	query, err := g.compileSelect(b)
	if err != nil {
		return "", err
	}
	return g.Parameterize(query), nil
}

// parameter returns the placeholder for v, or the raw text of an Expr.
func parameter(v any) string {
	if e, ok := v.(Expr); ok {
		return e.SQL
	}
	return "?"
}

func (g *queryGrammar) compileSelect(b *Builder) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	if len(b.unions) > 0 && b.aggregate != nil {
		return g.compileUnionAggregate(b)
	}
	if b.from == "" && b.fromSub == nil {
		return "", fluentdb.NewConfigError("select", "no table specified", fluentdb.ErrInvalidArgument)
	}
	var parts []string
	if b.aggregate != nil {
		parts = append(parts, g.compileAggregate(b))
	} else {
		parts = append(parts, g.compileColumns(b))
	}
	from, err := g.compileFrom(b)
	if err != nil {
		return "", err
	}
	parts = append(parts, "FROM "+from)
	if len(b.joins) > 0 {
		joins, err := g.compileJoins(b.joins)
		if err != nil {
			return "", err
		}
		parts = append(parts, joins)
	}
	if len(b.wheres) > 0 {
		wheres, err := g.compileConditions(b.wheres)
		if err != nil {
			return "", err
		}
		parts = append(parts, "WHERE "+wheres)
	}
	if len(b.groups) > 0 {
		parts = append(parts, "GROUP BY "+g.Columnize(b.groups))
	}
	if len(b.havings) > 0 {
		parts = append(parts, "HAVING "+g.compileHavings(b.havings))
	}
	orders := b.orders
	if b.aggregate != nil {
		orders = nil
	}
	if len(orders) > 0 {
		parts = append(parts, "ORDER BY "+g.compileOrders(orders))
	}
	if b.aggregate == nil {
		if s := g.compileLimitOffset(b.limit, b.offset, len(orders) > 0, true); s != "" {
			parts = append(parts, s)
		}
	}
	query := strings.Join(parts, " ")
	if len(b.unions) > 0 {
		unions, err := g.compileUnions(b)
		if err != nil {
			return "", err
		}
		query = g.wrapUnion(query) + unions
	}
	return query, nil
}

func (g *queryGrammar) compileColumns(b *Builder) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if b.distinct {
		sb.WriteString("DISTINCT ")
	}
	if g.dialect == dialect.SQLServer && b.limit != nil && (b.offset == nil || *b.offset == 0) {
		fmt.Fprintf(&sb, "TOP %d ", *b.limit)
	}
	if len(b.columns) == 0 {
		sb.WriteString("*")
		return sb.String()
	}
	for i, c := range b.columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		if c.raw {
			sb.WriteString(c.expr)
		} else {
			sb.WriteString(g.Wrap(c.expr))
		}
	}
	return sb.String()
}

func (g *queryGrammar) aggregateExpr(b *Builder) string {
	column := "*"
	if cols := b.aggregate.columns; len(cols) > 0 && !(len(cols) == 1 && cols[0] == "*") {
		column = g.Columnize(cols)
		if b.distinct {
			column = "DISTINCT " + column
		}
	}
	return strings.ToUpper(b.aggregate.function) + "(" + column + ") AS aggregate"
}

func (g *queryGrammar) compileAggregate(b *Builder) string {
	return "SELECT " + g.aggregateExpr(b)
}

func (g *queryGrammar) compileUnionAggregate(b *Builder) (string, error) {
	inner := b.Clone()
	inner.aggregate = nil
	query, err := g.compileSelect(inner)
	if err != nil {
		return "", err
	}
	return "SELECT " + g.aggregateExpr(b) + " FROM (" + query + ") AS " + g.quote("temp_table"), nil
}

func (g *queryGrammar) compileFrom(b *Builder) (string, error) {
	switch {
	case b.fromSub != nil:
		query, err := g.compileSelect(b.fromSub)
		if err != nil {
			return "", err
		}
		return "(" + query + ") AS " + g.quote(b.fromAlias), nil
	case b.fromRaw:
		return b.from, nil
	default:
		return g.WrapTable(b.from), nil
	}
}

func (g *queryGrammar) compileJoins(joins []*join) (string, error) {
	parts := make([]string, 0, len(joins))
	for _, j := range joins {
		if len(j.conditions) == 0 {
			parts = append(parts, j.kind+" JOIN "+g.WrapTable(j.table))
			continue
		}
		on, err := g.compileConditions(j.conditions)
		if err != nil {
			return "", err
		}
		parts = append(parts, j.kind+" JOIN "+g.WrapTable(j.table)+" ON "+on)
	}
	return strings.Join(parts, " "), nil
}

// compileConditions joins where conditions with their boolean, dropping
// the leading one.
func (g *queryGrammar) compileConditions(ws []where) (string, error) {
	var sb strings.Builder
	for i, w := range ws {
		s, err := g.compileWhere(w)
		if err != nil {
			return "", err
		}
		if i > 0 {
			sb.WriteString(" " + w.boolean + " ")
		}
		sb.WriteString(s)
	}
	return sb.String(), nil
}

func (g *queryGrammar) compileWhere(w where) (string, error) {
	switch w.kind {
	case whereBasic:
		return g.Wrap(w.column) + " " + w.operator + " " + parameter(w.value), nil
	case whereNull:
		return g.Wrap(w.column) + " IS NULL", nil
	case whereNotNull:
		return g.Wrap(w.column) + " IS NOT NULL", nil
	case whereIn, whereNotIn:
		if len(w.values) == 0 {
			if w.kind == whereIn {
				return "0 = 1", nil
			}
			return "1 = 1", nil
		}
		ps := make([]string, len(w.values))
		for i, v := range w.values {
			ps[i] = parameter(v)
		}
		op := " IN ("
		if w.kind == whereNotIn {
			op = " NOT IN ("
		}
		return g.Wrap(w.column) + op + strings.Join(ps, ", ") + ")", nil
	case whereInSub, whereNotInSub:
		query, err := g.compileSelect(w.query)
		if err != nil {
			return "", err
		}
		op := " IN ("
		if w.kind == whereNotInSub {
			op = " NOT IN ("
		}
		return g.Wrap(w.column) + op + query + ")", nil
	case whereBetween, whereNotBetween:
		op := " BETWEEN "
		if w.kind == whereNotBetween {
			op = " NOT BETWEEN "
		}
		return g.Wrap(w.column) + op + parameter(w.values[0]) + " AND " + parameter(w.values[1]), nil
	case whereColumn:
		return g.Wrap(w.column) + " " + w.operator + " " + g.Wrap(w.second), nil
	case whereRaw:
		return w.sql, nil
	case whereNested, whereNotNested:
		inner, err := g.compileConditions(w.query.wheres)
		if err != nil {
			return "", err
		}
		if w.kind == whereNotNested {
			return "NOT (" + inner + ")", nil
		}
		return "(" + inner + ")", nil
	case whereExists, whereNotExists:
		query, err := g.compileSelect(w.query)
		if err != nil {
			return "", err
		}
		if w.kind == whereNotExists {
			return "NOT EXISTS (" + query + ")", nil
		}
		return "EXISTS (" + query + ")", nil
	default:
		return "", fmt.Errorf("dialect/sql: unknown where kind %d", w.kind)
	}
}

func (g *queryGrammar) compileHavings(hs []having) string {
	var sb strings.Builder
	for i, h := range hs {
		if i > 0 {
			sb.WriteString(" " + h.boolean + " ")
		}
		if h.raw {
			sb.WriteString(h.sql)
			continue
		}
		sb.WriteString(g.Wrap(h.column) + " " + h.operator + " " + parameter(h.value))
	}
	return sb.String()
}

func (g *queryGrammar) compileOrders(orders []order) string {
	parts := make([]string, len(orders))
	for i, o := range orders {
		if o.raw {
			parts[i] = o.sql
			continue
		}
		parts[i] = g.Wrap(o.column) + " " + o.direction
	}
	return strings.Join(parts, ", ")
}

// compileLimitOffset renders the row window. On SQL Server a limit without
// offset is rendered as TOP by compileColumns when top is set; union windows
// have no select list to carry it and use OFFSET/FETCH instead.
func (g *queryGrammar) compileLimitOffset(limit, offset *int, ordered, top bool) string {
	switch g.dialect {
	case dialect.SQLServer:
		skip := 0
		if offset != nil {
			skip = *offset
		}
		if skip == 0 && (limit == nil || top) {
			return ""
		}
		s := fmt.Sprintf("OFFSET %d ROWS", skip)
		if !ordered {
			s = "ORDER BY (SELECT 0) " + s
		}
		if limit != nil {
			s += fmt.Sprintf(" FETCH NEXT %d ROWS ONLY", *limit)
		}
		return s
	}
	var parts []string
	switch {
	case limit != nil:
		parts = append(parts, "LIMIT "+strconv.Itoa(*limit))
	case offset != nil && g.dialect == dialect.MySQL:
		parts = append(parts, "LIMIT "+mysqlMaxLimit)
	case offset != nil && g.dialect == dialect.SQLite:
		parts = append(parts, "LIMIT -1")
	}
	if offset != nil {
		parts = append(parts, "OFFSET "+strconv.Itoa(*offset))
	}
	return strings.Join(parts, " ")
}

func (g *queryGrammar) wrapUnion(query string) string {
	switch g.dialect {
	case dialect.SQLite:
		return "SELECT * FROM (" + query + ")"
	case dialect.SQLServer:
		return "SELECT * FROM (" + query + ") AS " + g.quote("temp_table")
	default:
		return "(" + query + ")"
	}
}

func (g *queryGrammar) compileUnions(b *Builder) (string, error) {
	var sb strings.Builder
	for _, u := range b.unions {
		query, err := g.compileSelect(u.query)
		if err != nil {
			return "", err
		}
		sb.WriteString(" UNION ")
		if u.all {
			sb.WriteString("ALL ")
		}
		sb.WriteString(g.wrapUnion(query))
	}
	if len(b.unionOrders) > 0 {
		sb.WriteString(" ORDER BY " + g.compileOrders(b.unionOrders))
	}
	if s := g.compileLimitOffset(b.unionLimit, b.unionOffset, len(b.unionOrders) > 0, false); s != "" {
		sb.WriteString(" " + s)
	}
	return sb.String(), nil
}

// compileExists wraps the select in an existence probe.
func (g *queryGrammar) compileExists(b *Builder) (string, error) {
	query, err := g.compileSelect(b)
	if err != nil {
		return "", err
	}
	if g.dialect == dialect.SQLServer {
		return g.Parameterize("SELECT (CASE WHEN EXISTS(" + query + ") THEN 1 ELSE 0 END) AS " + g.quote("exists")), nil
	}
	return g.Parameterize("SELECT EXISTS(" + query + ") AS " + g.quote("exists")), nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (g *queryGrammar) CompileInsert(b *Builder, rows []map[string]any) (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	if len(rows) == 0 {
		return "", nil, fluentdb.NewConfigError("insert", "no values to insert", fluentdb.ErrInvalidArgument)
	}
	if b.from == "" {
		return "", nil, fluentdb.NewConfigError("insert", "no table specified", fluentdb.ErrInvalidArgument)
	}
	columns := sortedKeys(rows[0])
	var (
		args   []any
		tuples = make([]string, 0, len(rows))
	)
	for _, row := range rows {
		ps := make([]string, len(columns))
		for i, c := range columns {
			v := row[c]
			ps[i] = parameter(v)
			if _, ok := v.(Expr); !ok {
				args = append(args, v)
			}
		}
		tuples = append(tuples, "("+strings.Join(ps, ", ")+")")
	}
	query := "INSERT INTO " + g.WrapTable(b.from) + " (" + g.Columnize(columns) + ") VALUES " + strings.Join(tuples, ", ")
	return g.Parameterize(query), args, nil
}

func (g *queryGrammar) CompileUpdate(b *Builder, values map[string]any) (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	if b.from == "" {
		return "", nil, fluentdb.NewConfigError("update", "no table specified", fluentdb.ErrInvalidArgument)
	}
	if len(b.joins) > 0 && g.dialect != dialect.MySQL {
		return "", nil, fluentdb.NewUnsupportedDriverError("update with joins", g.dialect)
	}
	var (
		args []any
		sets []string
	)
	args = append(args, b.bindings[BindJoin]...)
	for _, c := range sortedKeys(values) {
		v := values[c]
		sets = append(sets, g.Wrap(c)+" = "+parameter(v))
		if _, ok := v.(Expr); !ok {
			args = append(args, v)
		}
	}
	query := "UPDATE " + g.WrapTable(b.from)
	if len(b.joins) > 0 {
		joins, err := g.compileJoins(b.joins)
		if err != nil {
			return "", nil, err
		}
		query += " " + joins
	}
	query += " SET " + strings.Join(sets, ", ")
	if len(b.wheres) > 0 {
		wheres, err := g.compileConditions(b.wheres)
		if err != nil {
			return "", nil, err
		}
		query += " WHERE " + wheres
	}
	args = append(args, b.bindings[BindWhere]...)
	return g.Parameterize(query), args, nil
}

func (g *queryGrammar) CompileDelete(b *Builder) (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	if b.from == "" {
		return "", nil, fluentdb.NewConfigError("delete", "no table specified", fluentdb.ErrInvalidArgument)
	}
	if len(b.joins) > 0 && g.dialect != dialect.MySQL {
		return "", nil, fluentdb.NewUnsupportedDriverError("delete with joins", g.dialect)
	}
	var args []any
	query := "DELETE FROM " + g.WrapTable(b.from)
	if len(b.joins) > 0 {
		joins, err := g.compileJoins(b.joins)
		if err != nil {
			return "", nil, err
		}
		table := g.WrapTable(b.from)
		query = "DELETE " + table + " FROM " + table + " " + joins
		args = append(args, b.bindings[BindJoin]...)
	}
	if len(b.wheres) > 0 {
		wheres, err := g.compileConditions(b.wheres)
		if err != nil {
			return "", nil, err
		}
		query += " WHERE " + wheres
	}
	args = append(args, b.bindings[BindWhere]...)
	return g.Parameterize(query), args, nil
}
