package gen

import (
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/syssam/fluentdb/dialect/sql/schema"
)

// nameLayout is the Y_m_d_His stamp that prefixes migration names.
const nameLayout = "2006_01_02_150405"

// Index kinds rendered as table-level calls.
const (
	IndexPrimary = "primary"
	IndexUnique  = "unique"
	IndexPlain   = "index"
)

// excluded columns follow the timestamps convention and are never emitted.
var excluded = map[string]bool{"created_at": true, "updated_at": true}

// incrementNames are the auto-incrementing column names promoted to
// increments.
var incrementNames = map[string]bool{"id": true, "no": true, "num": true}

// Migration is the synthesized migration of one table.
type Migration struct {
	// Name is "<Y_m_d_His>_create_<table>_table".
	Name string
	// Table is the table name without prefix.
	Table string
	// TypeName is "Create<Table>Table".
	TypeName string
	// Definition is the DDL source reported by the database.
	Definition string
	Columns    []Column
	Indexes    []Index
	// Rows holds one JSON object per existing row, in select order.
	Rows []string
}

// FileName returns the Go file the migration is written to.
func (m *Migration) FileName() string { return m.Name + ".go" }

// Column is a synthesized column definition.
type Column struct {
	Name     string
	Kind     string
	Params   []int
	Nullable bool
	Unsigned bool
	Primary  bool
	// Default is nil when the column has no default.
	Default    *string
	DefaultRaw bool
	Comment    string
}

// Index is a table-level key or index.
type Index struct {
	Kind    string
	Columns []string
	// Name is empty when the index uses the default name.
	Name string
}

// typeName returns "Create<Table>Table" for a snake_case table name.
func typeName(table string) string {
	return "Create" + inflect.Camelize(strings.NewReplacer("-", "_", ".", "_").Replace(table)) + "Table"
}

// synthesize turns introspected metadata into column and index
// definitions.
func synthesize(table string, cols []schema.IntrospectedColumn, idxs []schema.IntrospectedIndex) ([]Column, []Index) {
	primary := primaryColumns(cols, idxs)
	var single string
	if len(primary) == 1 {
		single = primary[0]
	}

	columns := make([]Column, 0, len(cols))
	kinds := make(map[string]string, len(cols))
	for _, c := range cols {
		if excluded[c.Field] {
			continue
		}
		ct := parseType(c.RawType)
		if c.Extra == schema.ExtraAutoIncrement && incrementNames[c.Field] {
			ct = columnType{kind: schema.KindIncrements}
		}
		increments := ct.kind == schema.KindIncrements
		col := Column{
			Name:     c.Field,
			Kind:     ct.kind,
			Params:   ct.params,
			Nullable: c.Nullable && !increments,
			Unsigned: ct.unsigned && !increments,
			Primary:  c.Field == single && !increments,
			Comment:  c.Comment,
		}
		if c.Default != nil && !increments {
			col.Default = c.Default
			col.DefaultRaw = *c.Default == schema.CurrentTimestamp
		}
		kinds[c.Field] = ct.kind
		columns = append(columns, col)
	}

	var indexes []Index
	if len(primary) > 1 && allKnown(primary, kinds) {
		indexes = append(indexes, Index{Kind: IndexPrimary, Columns: primary})
	}
	for _, idx := range idxs {
		if idx.Primary || !allKnown(idx.Columns, kinds) {
			continue
		}
		kind := IndexPlain
		if idx.Unique {
			kind = IndexUnique
		}
		index := Index{Kind: kind, Columns: idx.Columns}
		if idx.Name != defaultIndexName(table, kind, idx.Columns) && !strings.HasPrefix(idx.Name, "sqlite_autoindex_") {
			index.Name = idx.Name
		}
		indexes = append(indexes, index)
	}
	return columns, indexes
}

// primaryColumns returns the primary key columns, preferring the primary
// index over per-column key flags.
func primaryColumns(cols []schema.IntrospectedColumn, idxs []schema.IntrospectedIndex) []string {
	for _, idx := range idxs {
		if idx.Primary {
			return idx.Columns
		}
	}
	var pk []string
	for _, c := range cols {
		if c.Key == schema.KeyPrimary {
			pk = append(pk, c.Field)
		}
	}
	return pk
}

// allKnown reports whether every column was emitted.
func allKnown(columns []string, kinds map[string]string) bool {
	for _, c := range columns {
		if _, ok := kinds[c]; !ok {
			return false
		}
	}
	return true
}

func defaultIndexName(table, kind string, columns []string) string {
	name := strings.ToLower(table + "_" + strings.Join(columns, "_") + "_" + kind)
	return strings.NewReplacer("-", "_", ".", "_").Replace(name)
}

// Apply replays the migration's columns and indexes onto a blueprint.
func (m *Migration) Apply(t *schema.Table) {
	for _, c := range m.Columns {
		col := t.AddColumn(c.Kind, c.Name, c.Params...)
		if c.Nullable {
			col.Nullable()
		}
		if c.Unsigned {
			col.Unsigned()
		}
		if c.Primary {
			col.Primary()
		}
		if c.Default != nil {
			if c.DefaultRaw {
				col.DefaultRaw(*c.Default)
			} else {
				col.Default(*c.Default)
			}
		}
		if c.Comment != "" {
			col.Comment(c.Comment)
		}
	}
	for _, idx := range m.Indexes {
		var cmd *schema.Command
		switch idx.Kind {
		case IndexPrimary:
			cmd = t.Primary(idx.Columns...)
		case IndexUnique:
			cmd = t.Unique(idx.Columns...)
		default:
			cmd = t.Index(idx.Columns...)
		}
		if idx.Name != "" {
			cmd.Named(idx.Name)
		}
	}
}
