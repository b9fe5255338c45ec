package sql

import (
	"fmt"
	"slices"
	"strings"

	"github.com/syssam/fluentdb"
)

// BindingKind names a bucket of positional bindings.
type BindingKind string

// Binding buckets, in the order they are flattened into the argument list.
// The order matches the order the compiler emits the clauses in SQL text.
const (
	BindSelect     BindingKind = "select"
	BindFrom       BindingKind = "from"
	BindJoin       BindingKind = "join"
	BindWhere      BindingKind = "where"
	BindGroupBy    BindingKind = "groupBy"
	BindHaving     BindingKind = "having"
	BindOrder      BindingKind = "order"
	BindUnion      BindingKind = "union"
	BindUnionOrder BindingKind = "unionOrder"
)

var bindingOrder = []BindingKind{
	BindSelect, BindFrom, BindJoin, BindWhere, BindGroupBy,
	BindHaving, BindOrder, BindUnion, BindUnionOrder,
}

// Clause names a removable part of the clause model.
type Clause string

// Clauses accepted by CloneWithout.
const (
	ClauseAggregate Clause = "aggregate"
	ClauseColumns   Clause = "columns"
	ClauseDistinct  Clause = "distinct"
	ClauseJoins     Clause = "joins"
	ClauseWheres    Clause = "wheres"
	ClauseGroups    Clause = "groups"
	ClauseHavings   Clause = "havings"
	ClauseOrders    Clause = "orders"
	ClauseLimit     Clause = "limit"
	ClauseOffset    Clause = "offset"
	ClauseUnions    Clause = "unions"
)

// Expr is a raw SQL fragment. It is emitted verbatim and never bound.
type Expr struct {
	SQL string
}

// Raw returns a raw SQL expression.
func Raw(sql string) Expr { return Expr{SQL: sql} }

// String implements fmt.Stringer.
func (e Expr) String() string { return e.SQL }

// operators lists the comparison operators accepted by Where and Having.
var operators = []string{
	"=", "<", ">", "<=", ">=", "<>", "!=", "<=>",
	"like", "like binary", "not like", "ilike", "not ilike",
	"&", "|", "^", "<<", ">>",
	"rlike", "not rlike", "regexp", "not regexp",
	"~", "~*", "!~", "!~*", "~~*", "!~~*",
	"similar to", "not similar to",
}

func validOperator(op string) bool {
	return slices.Contains(operators, strings.ToLower(op))
}

type whereKind int

const (
	whereBasic whereKind = iota
	whereNull
	whereNotNull
	whereIn
	whereNotIn
	whereInSub
	whereNotInSub
	whereBetween
	whereNotBetween
	whereColumn
	whereRaw
	whereNested
	whereNotNested
	whereExists
	whereNotExists
)

type where struct {
	kind     whereKind
	boolean  string
	column   string
	operator string
	value    any
	values   []any
	second   string
	sql      string
	query    *Builder
}

type join struct {
	kind       string
	table      string
	conditions []where
}

type having struct {
	boolean  string
	column   string
	operator string
	value    any
	raw      bool
	sql      string
}

type order struct {
	column    string
	direction string
	raw       bool
	sql       string
}

type selectColumn struct {
	expr string
	raw  bool
}

type aggregate struct {
	function string
	columns  []string
}

type union struct {
	query *Builder
	all   bool
}

// Builder is the clause model of a SELECT query and the entry point for
// executing it. Builder methods mutate and return the receiver; use Clone
// to branch. Configuration errors are deferred and reported by ToSQL and
// every executing method, before any statement reaches the executor.
type Builder struct {
	exec    Executor
	grammar Grammar

	columns   []selectColumn
	distinct  bool
	from      string
	fromRaw   bool
	fromSub   *Builder
	fromAlias string
	joins     []*join
	wheres    []where
	groups    []string
	havings   []having
	orders    []order
	limit     *int
	offset    *int
	aggregate *aggregate

	unions      []union
	unionOrders []order
	unionLimit  *int
	unionOffset *int

	bindings map[BindingKind][]any
	err      error
}

// NewBuilder returns an empty Builder bound to the executor. The grammar is
// chosen from the executor dialect and prefix.
func NewBuilder(exec Executor) *Builder {
	b := &Builder{exec: exec, bindings: make(map[BindingKind][]any)}
	if exec == nil {
		b.err = fluentdb.NewConfigError("builder", "nil executor", fluentdb.ErrInvalidArgument)
		return b
	}
	b.grammar, b.err = GrammarFor(exec.Dialect(), exec.Prefix())
	return b
}

// Dialect returns a Builder that only compiles SQL for the given dialect.
// Executing methods fail on it.
func Dialect(name string) *Builder {
	b := &Builder{bindings: make(map[BindingKind][]any)}
	b.grammar, b.err = GrammarFor(name, "")
	return b
}

// Table returns a Builder selecting from the given table.
func Table(exec Executor, name string) *Builder {
	return NewBuilder(exec).From(name)
}

// newQuery returns an empty Builder sharing the executor and grammar.
func (b *Builder) newQuery() *Builder {
	return &Builder{exec: b.exec, grammar: b.grammar, bindings: make(map[BindingKind][]any)}
}

// Err returns the first deferred configuration error.
func (b *Builder) Err() error { return b.err }

// AddError records a configuration error. Only the first one is kept.
func (b *Builder) AddError(err error) *Builder {
	if err != nil && b.err == nil {
		b.err = err
	}
	return b
}

// Grammar returns the grammar used to compile the builder.
func (b *Builder) Grammar() Grammar { return b.grammar }

// From sets the table to select from.
func (b *Builder) From(table string) *Builder {
	b.from, b.fromRaw, b.fromSub, b.fromAlias = table, false, nil, ""
	return b
}

// FromRaw sets a raw FROM expression.
func (b *Builder) FromRaw(expr string, bindings ...any) *Builder {
	b.from, b.fromRaw, b.fromSub, b.fromAlias = expr, true, nil, ""
	b.bindings[BindFrom] = append([]any(nil), bindings...)
	return b
}

// FromSub selects from a derived table. The bindings of sub replace the
// from bindings.
func (b *Builder) FromSub(sub *Builder, alias string) *Builder {
	b.AddError(sub.err)
	b.from, b.fromRaw, b.fromSub, b.fromAlias = "", false, sub, alias
	b.bindings[BindFrom] = sub.Bindings()
	return b
}

// TableName returns the FROM table, or "" for raw and derived tables.
func (b *Builder) TableName() string {
	if b.fromRaw || b.fromSub != nil {
		return ""
	}
	return b.from
}

// Select replaces the select list.
func (b *Builder) Select(columns ...string) *Builder {
	b.columns = nil
	b.bindings[BindSelect] = nil
	return b.AddSelect(columns...)
}

// AddSelect appends columns to the select list.
func (b *Builder) AddSelect(columns ...string) *Builder {
	for _, c := range columns {
		b.columns = append(b.columns, selectColumn{expr: c})
	}
	return b
}

// SelectRaw appends a raw select expression.
func (b *Builder) SelectRaw(expr string, bindings ...any) *Builder {
	b.columns = append(b.columns, selectColumn{expr: expr, raw: true})
	b.bindings[BindSelect] = append(b.bindings[BindSelect], bindings...)
	return b
}

// Distinct forces the query to return distinct rows.
func (b *Builder) Distinct() *Builder {
	b.distinct = true
	return b
}

// Where adds a basic AND condition. A nil value with "=" becomes IS NULL
// and with "<>" or "!=" becomes IS NOT NULL; any other operator with nil
// is rejected.
func (b *Builder) Where(column, operator string, value any) *Builder {
	return b.addWhere("AND", column, operator, value)
}

// OrWhere adds a basic OR condition.
func (b *Builder) OrWhere(column, operator string, value any) *Builder {
	return b.addWhere("OR", column, operator, value)
}

func (b *Builder) addWhere(boolean, column, operator string, value any) *Builder {
	w, err := basicCondition(boolean, column, operator, value)
	if err != nil {
		return b.AddError(err)
	}
	b.wheres = append(b.wheres, w)
	if w.kind == whereBasic {
		b.addBinding(BindWhere, value)
	}
	return b
}

// basicCondition validates a column/operator/value triple.
func basicCondition(boolean, column, operator string, value any) (where, error) {
	if !validOperator(operator) {
		return where{}, fluentdb.NewConfigError("where", fmt.Sprintf("invalid operator %q", operator), fluentdb.ErrInvalidArgument)
	}
	if value == nil {
		switch operator {
		case "=":
			return where{kind: whereNull, boolean: boolean, column: column}, nil
		case "<>", "!=":
			return where{kind: whereNotNull, boolean: boolean, column: column}, nil
		default:
			return where{}, fluentdb.NewConfigError("where", fmt.Sprintf("operator %q cannot compare with null", operator), fluentdb.ErrIllegalOperator)
		}
	}
	return where{kind: whereBasic, boolean: boolean, column: column, operator: operator, value: value}, nil
}

// addBinding appends v to the bucket unless it is a raw expression.
func (b *Builder) addBinding(kind BindingKind, vs ...any) {
	for _, v := range vs {
		if _, ok := v.(Expr); ok {
			continue
		}
		b.bindings[kind] = append(b.bindings[kind], v)
	}
}

// WhereNull adds an IS NULL condition.
func (b *Builder) WhereNull(column string) *Builder {
	b.wheres = append(b.wheres, where{kind: whereNull, boolean: "AND", column: column})
	return b
}

// OrWhereNull adds an OR IS NULL condition.
func (b *Builder) OrWhereNull(column string) *Builder {
	b.wheres = append(b.wheres, where{kind: whereNull, boolean: "OR", column: column})
	return b
}

// WhereNotNull adds an IS NOT NULL condition.
func (b *Builder) WhereNotNull(column string) *Builder {
	b.wheres = append(b.wheres, where{kind: whereNotNull, boolean: "AND", column: column})
	return b
}

// WhereIn adds an IN condition. An empty list never matches.
func (b *Builder) WhereIn(column string, values ...any) *Builder {
	b.wheres = append(b.wheres, where{kind: whereIn, boolean: "AND", column: column, values: values})
	b.addBinding(BindWhere, values...)
	return b
}

// OrWhereIn adds an OR IN condition.
func (b *Builder) OrWhereIn(column string, values ...any) *Builder {
	b.wheres = append(b.wheres, where{kind: whereIn, boolean: "OR", column: column, values: values})
	b.addBinding(BindWhere, values...)
	return b
}

// WhereNotIn adds a NOT IN condition. An empty list always matches.
func (b *Builder) WhereNotIn(column string, values ...any) *Builder {
	b.wheres = append(b.wheres, where{kind: whereNotIn, boolean: "AND", column: column, values: values})
	b.addBinding(BindWhere, values...)
	return b
}

// WhereInSub adds an IN condition over a subquery.
func (b *Builder) WhereInSub(column string, sub *Builder) *Builder {
	b.AddError(sub.err)
	b.wheres = append(b.wheres, where{kind: whereInSub, boolean: "AND", column: column, query: sub})
	b.bindings[BindWhere] = append(b.bindings[BindWhere], sub.Bindings()...)
	return b
}

// WhereNotInSub adds a NOT IN condition over a subquery.
func (b *Builder) WhereNotInSub(column string, sub *Builder) *Builder {
	b.AddError(sub.err)
	b.wheres = append(b.wheres, where{kind: whereNotInSub, boolean: "AND", column: column, query: sub})
	b.bindings[BindWhere] = append(b.bindings[BindWhere], sub.Bindings()...)
	return b
}

// WhereBetween adds a BETWEEN condition.
func (b *Builder) WhereBetween(column string, low, high any) *Builder {
	b.wheres = append(b.wheres, where{kind: whereBetween, boolean: "AND", column: column, values: []any{low, high}})
	b.addBinding(BindWhere, low, high)
	return b
}

// WhereNotBetween adds a NOT BETWEEN condition.
func (b *Builder) WhereNotBetween(column string, low, high any) *Builder {
	b.wheres = append(b.wheres, where{kind: whereNotBetween, boolean: "AND", column: column, values: []any{low, high}})
	b.addBinding(BindWhere, low, high)
	return b
}

// WhereColumn compares two columns.
func (b *Builder) WhereColumn(first, operator, second string) *Builder {
	if !validOperator(operator) {
		return b.AddError(fluentdb.NewConfigError("where column", fmt.Sprintf("invalid operator %q", operator), fluentdb.ErrInvalidArgument))
	}
	b.wheres = append(b.wheres, where{kind: whereColumn, boolean: "AND", column: first, operator: operator, second: second})
	return b
}

// WhereRaw adds a raw AND condition.
func (b *Builder) WhereRaw(sql string, bindings ...any) *Builder {
	b.wheres = append(b.wheres, where{kind: whereRaw, boolean: "AND", sql: sql})
	b.bindings[BindWhere] = append(b.bindings[BindWhere], bindings...)
	return b
}

// OrWhereRaw adds a raw OR condition.
func (b *Builder) OrWhereRaw(sql string, bindings ...any) *Builder {
	b.wheres = append(b.wheres, where{kind: whereRaw, boolean: "OR", sql: sql})
	b.bindings[BindWhere] = append(b.bindings[BindWhere], bindings...)
	return b
}

// WhereGroup adds a parenthesized group of conditions built by fn.
func (b *Builder) WhereGroup(fn func(*Builder)) *Builder {
	return b.addNested("AND", whereNested, fn)
}

// OrWhereGroup adds a parenthesized OR group of conditions built by fn.
func (b *Builder) OrWhereGroup(fn func(*Builder)) *Builder {
	return b.addNested("OR", whereNested, fn)
}

func (b *Builder) addNested(boolean string, kind whereKind, fn func(*Builder)) *Builder {
	nested := b.newQuery()
	nested.from = b.from
	fn(nested)
	b.AddError(nested.err)
	if len(nested.wheres) == 0 {
		return b
	}
	b.wheres = append(b.wheres, where{kind: kind, boolean: boolean, query: nested})
	b.bindings[BindWhere] = append(b.bindings[BindWhere], nested.bindings[BindWhere]...)
	return b
}

// WhereExists adds an EXISTS condition over a subquery.
func (b *Builder) WhereExists(sub *Builder) *Builder {
	b.AddError(sub.err)
	b.wheres = append(b.wheres, where{kind: whereExists, boolean: "AND", query: sub})
	b.bindings[BindWhere] = append(b.bindings[BindWhere], sub.Bindings()...)
	return b
}

// WhereNotExists adds a NOT EXISTS condition over a subquery.
func (b *Builder) WhereNotExists(sub *Builder) *Builder {
	b.AddError(sub.err)
	b.wheres = append(b.wheres, where{kind: whereNotExists, boolean: "AND", query: sub})
	b.bindings[BindWhere] = append(b.bindings[BindWhere], sub.Bindings()...)
	return b
}

// JoinClause collects the ON conditions of a join.
type JoinClause struct {
	conditions []where
	bindings   []any
	err        error
}

// On adds an AND column comparison.
func (j *JoinClause) On(first, operator, second string) *JoinClause {
	return j.on("AND", first, operator, second)
}

// OrOn adds an OR column comparison.
func (j *JoinClause) OrOn(first, operator, second string) *JoinClause {
	return j.on("OR", first, operator, second)
}

func (j *JoinClause) on(boolean, first, operator, second string) *JoinClause {
	if !validOperator(operator) {
		if j.err == nil {
			j.err = fluentdb.NewConfigError("join", fmt.Sprintf("invalid operator %q", operator), fluentdb.ErrInvalidArgument)
		}
		return j
	}
	j.conditions = append(j.conditions, where{kind: whereColumn, boolean: boolean, column: first, operator: operator, second: second})
	return j
}

// Where adds an AND value comparison bound as a join binding.
func (j *JoinClause) Where(column, operator string, value any) *JoinClause {
	return j.where("AND", column, operator, value)
}

// OrWhere adds an OR value comparison.
func (j *JoinClause) OrWhere(column, operator string, value any) *JoinClause {
	return j.where("OR", column, operator, value)
}

func (j *JoinClause) where(boolean, column, operator string, value any) *JoinClause {
	w, err := basicCondition(boolean, column, operator, value)
	if err != nil {
		if j.err == nil {
			j.err = err
		}
		return j
	}
	j.conditions = append(j.conditions, w)
	if _, ok := value.(Expr); w.kind == whereBasic && !ok {
		j.bindings = append(j.bindings, value)
	}
	return j
}

// Join adds an INNER JOIN on a single column comparison.
func (b *Builder) Join(table, first, operator, second string) *Builder {
	return b.JoinFunc(table, func(j *JoinClause) { j.On(first, operator, second) })
}

// LeftJoin adds a LEFT JOIN on a single column comparison.
func (b *Builder) LeftJoin(table, first, operator, second string) *Builder {
	return b.addJoin("LEFT", table, func(j *JoinClause) { j.On(first, operator, second) })
}

// RightJoin adds a RIGHT JOIN on a single column comparison.
func (b *Builder) RightJoin(table, first, operator, second string) *Builder {
	return b.addJoin("RIGHT", table, func(j *JoinClause) { j.On(first, operator, second) })
}

// CrossJoin adds a CROSS JOIN.
func (b *Builder) CrossJoin(table string) *Builder {
	b.joins = append(b.joins, &join{kind: "CROSS", table: table})
	return b
}

// JoinFunc adds an INNER JOIN whose conditions are built by fn.
func (b *Builder) JoinFunc(table string, fn func(*JoinClause)) *Builder {
	return b.addJoin("INNER", table, fn)
}

// LeftJoinFunc adds a LEFT JOIN whose conditions are built by fn.
func (b *Builder) LeftJoinFunc(table string, fn func(*JoinClause)) *Builder {
	return b.addJoin("LEFT", table, fn)
}

func (b *Builder) addJoin(kind, table string, fn func(*JoinClause)) *Builder {
	j := &JoinClause{}
	fn(j)
	if j.err != nil {
		return b.AddError(j.err)
	}
	b.joins = append(b.joins, &join{kind: kind, table: table, conditions: j.conditions})
	b.bindings[BindJoin] = append(b.bindings[BindJoin], j.bindings...)
	return b
}

// GroupBy appends GROUP BY columns.
func (b *Builder) GroupBy(columns ...string) *Builder {
	b.groups = append(b.groups, columns...)
	return b
}

// Having adds an AND HAVING condition.
func (b *Builder) Having(column, operator string, value any) *Builder {
	return b.addHaving("AND", column, operator, value)
}

// OrHaving adds an OR HAVING condition.
func (b *Builder) OrHaving(column, operator string, value any) *Builder {
	return b.addHaving("OR", column, operator, value)
}

func (b *Builder) addHaving(boolean, column, operator string, value any) *Builder {
	if !validOperator(operator) {
		return b.AddError(fluentdb.NewConfigError("having", fmt.Sprintf("invalid operator %q", operator), fluentdb.ErrInvalidArgument))
	}
	b.havings = append(b.havings, having{boolean: boolean, column: column, operator: operator, value: value})
	b.addBinding(BindHaving, value)
	return b
}

// HavingRaw adds a raw HAVING condition.
func (b *Builder) HavingRaw(sql string, bindings ...any) *Builder {
	b.havings = append(b.havings, having{boolean: "AND", raw: true, sql: sql})
	b.bindings[BindHaving] = append(b.bindings[BindHaving], bindings...)
	return b
}

// OrderBy adds an ORDER BY column. The direction defaults to ascending.
// Once a union is present, orders apply to the union result.
func (b *Builder) OrderBy(column string, direction ...string) *Builder {
	dir := "ASC"
	if len(direction) > 0 {
		switch strings.ToUpper(direction[0]) {
		case "ASC":
		case "DESC":
			dir = "DESC"
		default:
			return b.AddError(fluentdb.NewConfigError("order by", fmt.Sprintf("order direction must be asc or desc, got %q", direction[0]), fluentdb.ErrInvalidArgument))
		}
	}
	o := order{column: column, direction: dir}
	if len(b.unions) > 0 {
		b.unionOrders = append(b.unionOrders, o)
	} else {
		b.orders = append(b.orders, o)
	}
	return b
}

// OrderByDesc adds a descending ORDER BY column.
func (b *Builder) OrderByDesc(column string) *Builder {
	return b.OrderBy(column, "desc")
}

// OrderByRaw adds a raw ORDER BY expression.
func (b *Builder) OrderByRaw(sql string, bindings ...any) *Builder {
	o := order{raw: true, sql: sql}
	if len(b.unions) > 0 {
		b.unionOrders = append(b.unionOrders, o)
		b.bindings[BindUnionOrder] = append(b.bindings[BindUnionOrder], bindings...)
		return b
	}
	b.orders = append(b.orders, o)
	b.bindings[BindOrder] = append(b.bindings[BindOrder], bindings...)
	return b
}

// Limit sets the maximum number of rows. Negative values clear it.
func (b *Builder) Limit(n int) *Builder {
	var v *int
	if n >= 0 {
		v = &n
	}
	if len(b.unions) > 0 {
		b.unionLimit = v
	} else {
		b.limit = v
	}
	return b
}

// Take is an alias for Limit.
func (b *Builder) Take(n int) *Builder { return b.Limit(n) }

// Offset sets the number of rows to skip. Negative values become zero.
func (b *Builder) Offset(n int) *Builder {
	n = max(n, 0)
	if len(b.unions) > 0 {
		b.unionOffset = &n
	} else {
		b.offset = &n
	}
	return b
}

// Skip is an alias for Offset.
func (b *Builder) Skip(n int) *Builder { return b.Offset(n) }

// ForPage sets the offset and limit of a 1-based page.
func (b *Builder) ForPage(page, perPage int) *Builder {
	return b.Offset((page - 1) * perPage).Limit(perPage)
}

// Union appends a UNION with other.
func (b *Builder) Union(other *Builder) *Builder {
	return b.addUnion(other, false)
}

// UnionAll appends a UNION ALL with other.
func (b *Builder) UnionAll(other *Builder) *Builder {
	return b.addUnion(other, true)
}

func (b *Builder) addUnion(other *Builder, all bool) *Builder {
	b.AddError(other.err)
	b.unions = append(b.unions, union{query: other, all: all})
	b.bindings[BindUnion] = append(b.bindings[BindUnion], other.Bindings()...)
	return b
}

// setAggregate turns the query into an aggregate. The grammar never renders
// orders on an aggregate, so they are dropped with their bindings.
func (b *Builder) setAggregate(function string, columns []string) *Builder {
	b.aggregate = &aggregate{function: function, columns: columns}
	b.orders = nil
	b.bindings[BindOrder] = nil
	return b
}

// Bindings returns the flattened bindings in clause order.
func (b *Builder) Bindings() []any {
	var args []any
	for _, k := range bindingOrder {
		args = append(args, b.bindings[k]...)
	}
	return args
}

// RawBindings returns a copy of the bindings of one bucket.
func (b *Builder) RawBindings(kind BindingKind) []any {
	return append([]any(nil), b.bindings[kind]...)
}

// Clone returns a deep copy of the clause model. Subqueries are shared.
func (b *Builder) Clone() *Builder {
	c := *b
	c.columns = slices.Clone(b.columns)
	c.joins = slices.Clone(b.joins)
	c.wheres = slices.Clone(b.wheres)
	c.groups = slices.Clone(b.groups)
	c.havings = slices.Clone(b.havings)
	c.orders = slices.Clone(b.orders)
	c.unions = slices.Clone(b.unions)
	c.unionOrders = slices.Clone(b.unionOrders)
	c.limit = clonePtr(b.limit)
	c.offset = clonePtr(b.offset)
	c.unionLimit = clonePtr(b.unionLimit)
	c.unionOffset = clonePtr(b.unionOffset)
	if b.aggregate != nil {
		agg := *b.aggregate
		agg.columns = slices.Clone(agg.columns)
		c.aggregate = &agg
	}
	c.bindings = make(map[BindingKind][]any, len(b.bindings))
	for k, v := range b.bindings {
		c.bindings[k] = slices.Clone(v)
	}
	return &c
}

func clonePtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// CloneWithout clones the builder and resets the given clauses. The
// order, limit and offset clauses also reset their union counterparts.
func (b *Builder) CloneWithout(clauses ...Clause) *Builder {
	c := b.Clone()
	for _, cl := range clauses {
		switch cl {
		case ClauseAggregate:
			c.aggregate = nil
		case ClauseColumns:
			c.columns = nil
		case ClauseDistinct:
			c.distinct = false
		case ClauseJoins:
			c.joins = nil
		case ClauseWheres:
			c.wheres = nil
		case ClauseGroups:
			c.groups = nil
		case ClauseHavings:
			c.havings = nil
		case ClauseOrders:
			c.orders, c.unionOrders = nil, nil
		case ClauseLimit:
			c.limit, c.unionLimit = nil, nil
		case ClauseOffset:
			c.offset, c.unionOffset = nil, nil
		case ClauseUnions:
			c.unions = nil
		}
	}
	return c
}

// CloneWithoutBindings clones the builder and empties the given buckets.
func (b *Builder) CloneWithoutBindings(kinds ...BindingKind) *Builder {
	c := b.Clone()
	for _, k := range kinds {
		delete(c.bindings, k)
	}
	return c
}

// ToSQL compiles the query and returns it with its arguments.
func (b *Builder) ToSQL() (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	query, err := b.grammar.CompileSelect(b)
	if err != nil {
		return "", nil, err
	}
	return query, b.Bindings(), nil
}
