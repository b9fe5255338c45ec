package schema

import (
	"context"
	"strings"
)

type sqliteInspector struct{ querier }

func (i *sqliteInspector) tables(ctx context.Context) ([]string, error) {
	return i.firstColumn(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
}

// columns reads PRAGMA table_info: cid, name, type, notnull, dflt_value, pk.
// An INTEGER column that alone forms the primary key aliases the rowid and
// is reported as auto-incrementing.
func (i *sqliteInspector) columns(ctx context.Context, table string) ([]IntrospectedColumn, error) {
	rows, err := i.fetch(ctx, "PRAGMA table_info("+i.grammar.Wrap(table)+")")
	if err != nil {
		return nil, err
	}
	var pks int
	for _, r := range rows {
		if pk, _ := r.Int64("pk"); pk > 0 {
			pks++
		}
	}
	cols := make([]IntrospectedColumn, 0, len(rows))
	for _, r := range rows {
		notNull, err := r.Int64("notnull")
		if err != nil {
			return nil, err
		}
		pk, err := r.Int64("pk")
		if err != nil {
			return nil, err
		}
		c := IntrospectedColumn{
			Field:    r.Text("name"),
			RawType:  r.Text("type"),
			Nullable: notNull == 0,
		}
		if pk > 0 {
			c.Key = KeyPrimary
			if pks == 1 && strings.EqualFold(c.RawType, "integer") {
				c.Extra = ExtraAutoIncrement
			}
		}
		if !r.IsNull("dflt_value") {
			c.Default = strPtr(normalizeNow(unquote(r.Text("dflt_value"))))
		}
		cols = append(cols, c)
	}
	return cols, nil
}

// indexes combines PRAGMA index_list with PRAGMA index_info. A rowid
// primary key has no index of its own and is taken from table_info.
func (i *sqliteInspector) indexes(ctx context.Context, table string) ([]IntrospectedIndex, error) {
	list, err := i.fetch(ctx, "PRAGMA index_list("+i.grammar.Wrap(table)+")")
	if err != nil {
		return nil, err
	}
	var (
		g          indexGroup
		hasPrimary bool
	)
	for _, l := range list {
		name := l.Text("name")
		unique, err := l.Int64("unique")
		if err != nil {
			return nil, err
		}
		primary := l.Text("origin") == "pk"
		hasPrimary = hasPrimary || primary
		info, err := i.fetch(ctx, "PRAGMA index_info("+i.grammar.Wrap(name)+")")
		if err != nil {
			return nil, err
		}
		for _, c := range info {
			g.add(name, c.Text("name"), primary, unique == 1)
		}
	}
	out := g.list()
	if hasPrimary {
		return out, nil
	}
	cols, err := i.columns(ctx, table)
	if err != nil {
		return nil, err
	}
	pk := IntrospectedIndex{Name: "PRIMARY", Primary: true, Unique: true}
	for _, c := range cols {
		if c.Key == KeyPrimary {
			pk.Columns = append(pk.Columns, c.Field)
		}
	}
	if len(pk.Columns) == 0 {
		return out, nil
	}
	return append([]IntrospectedIndex{pk}, out...), nil
}

func (i *sqliteInspector) definition(ctx context.Context, table string) (string, error) {
	rows, err := i.fetch(ctx, "SELECT sql FROM sqlite_master WHERE name = ?", table)
	if err != nil || len(rows) == 0 {
		return "", err
	}
	return rows[0].TextAt(0), nil
}
