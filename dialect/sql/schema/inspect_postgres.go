package schema

import (
	"context"
	"strings"
)

type postgresInspector struct{ querier }

func (i *postgresInspector) tables(ctx context.Context) ([]string, error) {
	return i.firstColumn(ctx, "SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_type = 'BASE TABLE' ORDER BY table_name")
}

const postgresColumnsQuery = `SELECT c.column_name, c.udt_name, c.is_nullable, c.column_default,
  c.character_maximum_length, c.numeric_precision, c.numeric_scale, c.is_identity,
  col_description(pgc.oid, c.ordinal_position) AS column_comment,
  CASE WHEN EXISTS (
    SELECT 1 FROM information_schema.table_constraints tc
    JOIN information_schema.key_column_usage kcu
      ON kcu.constraint_name = tc.constraint_name AND kcu.constraint_schema = tc.constraint_schema
    WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = c.table_schema
      AND kcu.table_name = c.table_name AND kcu.column_name = c.column_name
  ) THEN 'PRI' ELSE '' END AS column_key
FROM information_schema.columns c
JOIN pg_catalog.pg_class pgc ON pgc.relname = c.table_name AND pgc.relnamespace = c.table_schema::regnamespace
WHERE c.table_schema = current_schema() AND c.table_name = ?
ORDER BY c.ordinal_position`

func (i *postgresInspector) columns(ctx context.Context, table string) ([]IntrospectedColumn, error) {
	rows, err := i.fetch(ctx, postgresColumnsQuery, table)
	if err != nil {
		return nil, err
	}
	cols := make([]IntrospectedColumn, 0, len(rows))
	for _, r := range rows {
		typ := r.Text("udt_name")
		switch {
		case (typ == "varchar" || typ == "bpchar") && !r.IsNull("character_maximum_length"):
			typ += "(" + r.Text("character_maximum_length") + ")"
		case typ == "numeric" && !r.IsNull("numeric_precision"):
			typ += "(" + r.Text("numeric_precision") + "," + r.Text("numeric_scale") + ")"
		}
		c := IntrospectedColumn{
			Field:    r.Text("column_name"),
			RawType:  typ,
			Nullable: r.Text("is_nullable") == "YES",
			Key:      r.Text("column_key"),
			Comment:  r.Text("column_comment"),
		}
		if r.Text("is_identity") == "YES" {
			c.Extra = ExtraAutoIncrement
		}
		if !r.IsNull("column_default") {
			def, serial := postgresDefault(r.Text("column_default"))
			if serial {
				c.Extra = ExtraAutoIncrement
			} else {
				c.Default = strPtr(def)
			}
		}
		cols = append(cols, c)
	}
	return cols, nil
}

// postgresDefault interprets a column_default expression. A sequence
// default reports serial and no value. Casts are cut at "::" and quotes
// removed.
func postgresDefault(def string) (string, bool) {
	if strings.Contains(def, "nextval") {
		return "", true
	}
	if i := strings.Index(def, "::"); i >= 0 {
		return strings.ReplaceAll(def[:i], "'", ""), false
	}
	return normalizeNow(def), false
}

const postgresIndexesQuery = `SELECT i.relname AS index_name, a.attname AS column_name, ix.indisunique, ix.indisprimary
FROM pg_catalog.pg_class t
JOIN pg_catalog.pg_index ix ON ix.indrelid = t.oid
JOIN pg_catalog.pg_class i ON i.oid = ix.indexrelid
JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord) ON true
JOIN pg_catalog.pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
WHERE t.relname = ? AND t.relnamespace = current_schema()::regnamespace
ORDER BY ix.indisprimary DESC, i.relname, k.ord`

func (i *postgresInspector) indexes(ctx context.Context, table string) ([]IntrospectedIndex, error) {
	rows, err := i.fetch(ctx, postgresIndexesQuery, table)
	if err != nil {
		return nil, err
	}
	var g indexGroup
	for _, r := range rows {
		g.add(r.Text("index_name"), r.Text("column_name"), pgBool(r.Get("indisprimary")), pgBool(r.Get("indisunique")))
	}
	return g.list(), nil
}

func pgBool(v any) bool {
	switch v := v.(type) {
	case bool:
		return v
	case string:
		return v == "t" || v == "true"
	}
	return false
}

func (i *postgresInspector) definition(ctx context.Context, table string) (string, error) {
	cols, err := i.columns(ctx, table)
	if err != nil {
		return "", err
	}
	return reconstruct(i.grammar, table, cols), nil
}
