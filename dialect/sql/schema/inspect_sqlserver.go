package schema

import (
	"context"
	"strings"
)

type sqlserverInspector struct{ querier }

func (i *sqlserverInspector) tables(ctx context.Context) ([]string, error) {
	return i.firstColumn(ctx, "SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME")
}

const sqlserverColumnsQuery = `SELECT c.COLUMN_NAME, c.DATA_TYPE, c.CHARACTER_MAXIMUM_LENGTH, c.NUMERIC_PRECISION, c.NUMERIC_SCALE,
  c.IS_NULLABLE, c.COLUMN_DEFAULT,
  COLUMNPROPERTY(OBJECT_ID(c.TABLE_SCHEMA + '.' + c.TABLE_NAME), c.COLUMN_NAME, 'IsIdentity') AS IS_IDENTITY,
  CASE WHEN EXISTS (
    SELECT 1 FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
    JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE k ON k.CONSTRAINT_NAME = tc.CONSTRAINT_NAME AND k.TABLE_NAME = tc.TABLE_NAME
    WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY' AND k.TABLE_NAME = c.TABLE_NAME AND k.COLUMN_NAME = c.COLUMN_NAME
  ) THEN 'PRI' ELSE '' END AS COLUMN_KEY,
  CAST(ep.value AS NVARCHAR(4000)) AS COLUMN_COMMENT
FROM INFORMATION_SCHEMA.COLUMNS c
LEFT JOIN sys.extended_properties ep
  ON ep.major_id = OBJECT_ID(c.TABLE_SCHEMA + '.' + c.TABLE_NAME)
  AND ep.minor_id = COLUMNPROPERTY(OBJECT_ID(c.TABLE_SCHEMA + '.' + c.TABLE_NAME), c.COLUMN_NAME, 'ColumnId')
  AND ep.name = 'MS_Description'
WHERE c.TABLE_NAME = ?
ORDER BY c.ORDINAL_POSITION`

func (i *sqlserverInspector) columns(ctx context.Context, table string) ([]IntrospectedColumn, error) {
	rows, err := i.fetch(ctx, sqlserverColumnsQuery, table)
	if err != nil {
		return nil, err
	}
	cols := make([]IntrospectedColumn, 0, len(rows))
	for _, r := range rows {
		typ := r.Text("DATA_TYPE")
		switch typ {
		case "varchar", "nvarchar", "char", "nchar", "varbinary":
			if n := r.Text("CHARACTER_MAXIMUM_LENGTH"); n == "-1" {
				typ += "(max)"
			} else if n != "" {
				typ += "(" + n + ")"
			}
		case "decimal", "numeric":
			typ += "(" + r.Text("NUMERIC_PRECISION") + "," + r.Text("NUMERIC_SCALE") + ")"
		}
		c := IntrospectedColumn{
			Field:    r.Text("COLUMN_NAME"),
			RawType:  typ,
			Nullable: r.Text("IS_NULLABLE") == "YES",
			Key:      r.Text("COLUMN_KEY"),
			Comment:  r.Text("COLUMN_COMMENT"),
		}
		if r.Text("IS_IDENTITY") == "1" {
			c.Extra = ExtraAutoIncrement
		}
		if !r.IsNull("COLUMN_DEFAULT") {
			c.Default = strPtr(sqlserverDefault(r.Text("COLUMN_DEFAULT")))
		}
		cols = append(cols, c)
	}
	return cols, nil
}

// sqlserverDefault unwraps "((0))" and "('x')" style default definitions.
func sqlserverDefault(def string) string {
	def = strings.TrimSpace(def)
	for len(def) >= 2 && def[0] == '(' && def[len(def)-1] == ')' {
		def = strings.TrimSpace(def[1 : len(def)-1])
	}
	return normalizeNow(unquote(def))
}

const sqlserverIndexesQuery = `SELECT i.name AS index_name, c.name AS column_name, i.is_unique, i.is_primary_key
FROM sys.indexes i
JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
JOIN sys.columns c ON c.object_id = ic.object_id AND c.column_id = ic.column_id
WHERE i.object_id = OBJECT_ID(?)
ORDER BY i.is_primary_key DESC, i.name, ic.key_ordinal`

func (i *sqlserverInspector) indexes(ctx context.Context, table string) ([]IntrospectedIndex, error) {
	rows, err := i.fetch(ctx, sqlserverIndexesQuery, table)
	if err != nil {
		return nil, err
	}
	var g indexGroup
	for _, r := range rows {
		primary, _ := r.Int64("is_primary_key")
		unique, _ := r.Int64("is_unique")
		if b, ok := r.Get("is_primary_key").(bool); ok && b {
			primary = 1
		}
		if b, ok := r.Get("is_unique").(bool); ok && b {
			unique = 1
		}
		g.add(r.Text("index_name"), r.Text("column_name"), primary == 1, unique == 1)
	}
	return g.list(), nil
}

func (i *sqlserverInspector) definition(ctx context.Context, table string) (string, error) {
	cols, err := i.columns(ctx, table)
	if err != nil {
		return "", err
	}
	return reconstruct(i.grammar, table, cols), nil
}
