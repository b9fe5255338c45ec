package sql

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Row is a single result row. Column order follows the select list and is
// preserved through Map iteration helpers and JSON encoding.
type Row struct {
	columns []string
	values  []any
}

// NewRow returns a Row with the given columns and values. Missing values
// are padded with nil.
func NewRow(columns []string, values []any) Row {
	vs := make([]any, len(columns))
	copy(vs, values)
	return Row{columns: columns, values: vs}
}

// Columns returns the column names in select order.
func (r Row) Columns() []string { return r.columns }

// Values returns the column values in select order.
func (r Row) Values() []any { return r.values }

// Len returns the number of columns.
func (r Row) Len() int { return len(r.columns) }

// At returns the value at position i, or nil when out of range.
func (r Row) At(i int) any {
	if i < 0 || i >= len(r.values) {
		return nil
	}
	return r.values[i]
}

// Lookup returns the value of the named column. Exact matches win over
// case-insensitive ones.
func (r Row) Lookup(name string) (any, bool) {
	for i, c := range r.columns {
		if c == name {
			return r.values[i], true
		}
	}
	for i, c := range r.columns {
		if strings.EqualFold(c, name) {
			return r.values[i], true
		}
	}
	return nil, false
}

// Get returns the value of the named column, or nil.
func (r Row) Get(name string) any {
	v, _ := r.Lookup(name)
	return v
}

// Text returns the named column formatted as a string. NULL is "".
func (r Row) Text(name string) string {
	return toText(r.Get(name))
}

// TextAt returns the value at position i formatted as a string.
func (r Row) TextAt(i int) string {
	return toText(r.At(i))
}

// IsNull reports whether the named column is NULL or absent.
func (r Row) IsNull(name string) bool {
	return r.Get(name) == nil
}

// Int64 returns the named column as an int64.
func (r Row) Int64(name string) (int64, error) {
	return toInt64(r.Get(name))
}

// Map returns the row as a map keyed by column name.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.columns))
	for i, c := range r.columns {
		m[c] = r.values[i]
	}
	return m
}

// MarshalJSON encodes the row as an object whose keys keep select order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, fmt.Errorf("dialect/sql: encode column %q: %w", c, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// scanRows reads all rows from rs. Byte slices are returned as strings.
func scanRows(rs *sql.Rows) ([]Row, error) {
	columns, err := rs.Columns()
	if err != nil {
		return nil, err
	}
	var rows []Row
	for rs.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rs.Scan(dest...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		rows = append(rows, Row{columns: columns, values: values})
	}
	return rows, rs.Err()
}

func toText(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func toInt64(v any) (int64, error) {
	switch v := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case []byte:
		return parseInt(string(v))
	case string:
		return parseInt(v)
	default:
		return 0, fmt.Errorf("dialect/sql: cannot convert %T to int64", v)
	}
}

func parseInt(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("dialect/sql: cannot convert %q to int64", s)
	}
	return int64(f), nil
}
