package sql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/fluentdb"
	"github.com/syssam/fluentdb/dialect"
)

// executor returns the bound executor or a configuration error.
func (b *Builder) executor(op string) (Executor, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.exec == nil {
		return nil, fluentdb.NewConfigError(op, "builder has no executor", fluentdb.ErrInvalidArgument)
	}
	return b.exec, nil
}

// Get executes the query. When the select list is empty, columns are used
// for this execution only.
func (b *Builder) Get(ctx context.Context, columns ...string) ([]Row, error) {
	exec, err := b.executor("select")
	if err != nil {
		return nil, err
	}
	q := b
	if len(b.columns) == 0 && len(columns) > 0 && !(len(columns) == 1 && columns[0] == "*") {
		q = b.Clone().AddSelect(columns...)
	}
	query, args, err := q.ToSQL()
	if err != nil {
		return nil, err
	}
	return exec.FetchAll(ctx, query, args)
}

// First executes the query with a limit of one and returns the first row.
func (b *Builder) First(ctx context.Context, columns ...string) (Row, bool, error) {
	rows, err := b.Clone().Take(1).Get(ctx, columns...)
	if err != nil || len(rows) == 0 {
		return Row{}, false, err
	}
	return rows[0], true, nil
}

// Find returns the row whose id equals the given value.
func (b *Builder) Find(ctx context.Context, id any, columns ...string) (Row, bool, error) {
	return b.Clone().Where("id", "=", id).First(ctx, columns...)
}

// Value returns a single column of the first row.
func (b *Builder) Value(ctx context.Context, column string) (any, error) {
	row, ok, err := b.Clone().Select(column).First(ctx)
	if err != nil || !ok {
		return nil, err
	}
	return row.At(0), nil
}

// Pluck returns the values of one column across all rows.
func (b *Builder) Pluck(ctx context.Context, column string) ([]any, error) {
	rows, err := b.Clone().Select(column).Get(ctx)
	if err != nil {
		return nil, err
	}
	vs := make([]any, len(rows))
	for i, r := range rows {
		vs[i] = r.At(0)
	}
	return vs, nil
}

// Exists reports whether the query matches any row.
func (b *Builder) Exists(ctx context.Context) (bool, error) {
	exec, err := b.executor("exists")
	if err != nil {
		return false, err
	}
	query, err := b.grammar.(*queryGrammar).compileExists(b)
	if err != nil {
		return false, err
	}
	row, found, err := exec.Fetch(ctx, query, b.Bindings())
	if err != nil || !found {
		return false, err
	}
	switch v := row.Get("exists").(type) {
	case bool:
		return v, nil
	default:
		n, err := toInt64(v)
		return n != 0, err
	}
}

// DoesntExist is the negation of Exists.
func (b *Builder) DoesntExist(ctx context.Context) (bool, error) {
	ok, err := b.Exists(ctx)
	return !ok, err
}

// Count returns the number of matching rows.
func (b *Builder) Count(ctx context.Context, columns ...string) (int64, error) {
	if len(columns) == 0 {
		columns = []string{"*"}
	}
	v, err := b.aggregateValue(ctx, "count", columns)
	if err != nil {
		return 0, err
	}
	return toInt64(v)
}

// Sum returns the sum of the column, as returned by the driver.
func (b *Builder) Sum(ctx context.Context, column string) (any, error) {
	return b.aggregateValue(ctx, "sum", []string{column})
}

// Min returns the minimum of the column.
func (b *Builder) Min(ctx context.Context, column string) (any, error) {
	return b.aggregateValue(ctx, "min", []string{column})
}

// Max returns the maximum of the column.
func (b *Builder) Max(ctx context.Context, column string) (any, error) {
	return b.aggregateValue(ctx, "max", []string{column})
}

// Avg returns the average of the column.
func (b *Builder) Avg(ctx context.Context, column string) (any, error) {
	return b.aggregateValue(ctx, "avg", []string{column})
}

func (b *Builder) aggregateValue(ctx context.Context, function string, columns []string) (any, error) {
	q := b.Clone()
	if len(b.unions) == 0 && len(b.havings) == 0 {
		q = q.CloneWithout(ClauseColumns).CloneWithoutBindings(BindSelect)
	}
	rows, err := q.setAggregate(function, columns).Get(ctx)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0].Get("aggregate"), nil
}

// Insert inserts one row. An empty row inserts nothing and reports false.
func (b *Builder) Insert(ctx context.Context, values map[string]any) (bool, error) {
	if len(values) == 0 {
		return false, b.err
	}
	return b.InsertBatch(ctx, []map[string]any{values})
}

// InsertBatch inserts several rows in one statement. Every row must carry
// the columns of the first one.
func (b *Builder) InsertBatch(ctx context.Context, rows []map[string]any) (bool, error) {
	exec, err := b.executor("insert")
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}
	for i, r := range rows[1:] {
		if len(r) != len(rows[0]) {
			return false, fluentdb.NewConfigError("insert", fmt.Sprintf("row %d has %d columns, want %d", i+1, len(r), len(rows[0])), fluentdb.ErrInvalidArgument)
		}
	}
	query, args, err := b.grammar.CompileInsert(b, rows)
	if err != nil {
		return false, err
	}
	if _, err := exec.Exec(ctx, query, args); err != nil {
		return false, err
	}
	return true, nil
}

// InsertJSON inserts the rows encoded in payload, either a JSON object or
// an array of objects. Numbers keep their textual form.
func (b *Builder) InsertJSON(ctx context.Context, payload string) (bool, error) {
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	trimmed := bytes.TrimSpace([]byte(payload))
	var rows []map[string]any
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := dec.Decode(&rows); err != nil {
			return false, fluentdb.NewConfigError("insert json", err.Error(), fluentdb.ErrInvalidArgument)
		}
	} else {
		var row map[string]any
		if err := dec.Decode(&row); err != nil {
			return false, fluentdb.NewConfigError("insert json", err.Error(), fluentdb.ErrInvalidArgument)
		}
		rows = append(rows, row)
	}
	for _, r := range rows {
		for k, v := range r {
			if n, ok := v.(json.Number); ok {
				r[k] = n.String()
			}
		}
	}
	return b.InsertBatch(ctx, rows)
}

// Update updates the matching rows and returns the number affected.
func (b *Builder) Update(ctx context.Context, values map[string]any) (int64, error) {
	exec, err := b.executor("update")
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, nil
	}
	query, args, err := b.grammar.CompileUpdate(b, values)
	if err != nil {
		return 0, err
	}
	return exec.Exec(ctx, query, args)
}

// Increment adds amount to column, along with any extra assignments.
// The amount must be numeric; it is validated before any SQL is built.
func (b *Builder) Increment(ctx context.Context, column string, amount any, extra map[string]any) (int64, error) {
	return b.step(ctx, "+", column, amount, extra)
}

// Decrement subtracts amount from column.
func (b *Builder) Decrement(ctx context.Context, column string, amount any, extra map[string]any) (int64, error) {
	return b.step(ctx, "-", column, amount, extra)
}

func (b *Builder) step(ctx context.Context, sign, column string, amount any, extra map[string]any) (int64, error) {
	n, ok := numeric(amount)
	if !ok {
		return 0, fluentdb.NewConfigError("increment", fmt.Sprintf("amount %v is not numeric", amount), fluentdb.ErrNonNumericAmount)
	}
	if _, err := b.executor("update"); err != nil {
		return 0, err
	}
	values := make(map[string]any, len(extra)+1)
	for k, v := range extra {
		values[k] = v
	}
	values[column] = Raw(b.grammar.Wrap(column) + " " + sign + " " + n)
	return b.Update(ctx, values)
}

// numeric formats v when it is a number or a numeric string.
func numeric(v any) (string, bool) {
	switch v := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case json.Number:
		if _, err := v.Float64(); err != nil {
			return "", false
		}
		return v.String(), true
	case string:
		s := strings.TrimSpace(v)
		if _, err := strconv.ParseFloat(s, 64); err != nil || s == "" {
			return "", false
		}
		return s, true
	default:
		return "", false
	}
}

// Delete deletes the matching rows. An optional id restricts the delete to
// that primary key.
func (b *Builder) Delete(ctx context.Context, id ...any) (int64, error) {
	exec, err := b.executor("delete")
	if err != nil {
		return 0, err
	}
	q := b
	if len(id) > 0 {
		q = b.Clone().Where(q.qualify("id"), "=", id[0])
	}
	query, args, err := q.grammar.CompileDelete(q)
	if err != nil {
		return 0, err
	}
	return exec.Exec(ctx, query, args)
}

// qualify prefixes column with the FROM table, or its alias.
func (b *Builder) qualify(column string) string {
	t := b.TableName()
	if t == "" {
		return column
	}
	if i := aliasIndex(t); i >= 0 {
		t = strings.TrimSpace(t[i+4:])
	}
	return t + "." + column
}

// Truncate removes every row of the table and resets its identity.
func (b *Builder) Truncate(ctx context.Context) error {
	exec, err := b.executor("truncate")
	if err != nil {
		return err
	}
	table := b.grammar.WrapTable(b.from)
	switch exec.Dialect() {
	case dialect.SQLite:
		// sqlite_sequence only exists once an AUTOINCREMENT table was created.
		if _, err := exec.Exec(ctx, "DELETE FROM sqlite_sequence WHERE name = ?", []any{b.grammar.Prefix() + b.from}); err != nil && !strings.Contains(err.Error(), "no such table") {
			return err
		}
		_, err = exec.Exec(ctx, "DELETE FROM "+table, nil)
	case dialect.Postgres:
		_, err = exec.Exec(ctx, "TRUNCATE "+table+" RESTART IDENTITY CASCADE", nil)
	default:
		_, err = exec.Exec(ctx, "TRUNCATE TABLE "+table, nil)
	}
	return err
}
