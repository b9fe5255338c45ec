package schema

import (
	"context"
	"strings"
)

type mysqlInspector struct{ querier }

func (i *mysqlInspector) tables(ctx context.Context) ([]string, error) {
	if i.database != "" {
		return i.firstColumn(ctx, "SELECT table_name FROM information_schema.tables WHERE table_schema = ? AND table_type = 'BASE TABLE' ORDER BY table_name", i.database)
	}
	return i.firstColumn(ctx, "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE' ORDER BY table_name")
}

// source returns the quoted table, qualified by the configured schema in
// the SHOW ... FROM db form.
func (i *mysqlInspector) source(table string) string {
	if i.database == "" {
		return i.grammar.Wrap(table)
	}
	return i.grammar.Wrap(table) + " FROM " + quoteMySQL(i.database)
}

func quoteMySQL(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// columns reads SHOW FULL COLUMNS: Field, Type, Collation, Null, Key,
// Default, Extra, Privileges, Comment.
func (i *mysqlInspector) columns(ctx context.Context, table string) ([]IntrospectedColumn, error) {
	rows, err := i.fetch(ctx, "SHOW FULL COLUMNS FROM "+i.source(table))
	if err != nil {
		return nil, err
	}
	cols := make([]IntrospectedColumn, 0, len(rows))
	for _, r := range rows {
		c := IntrospectedColumn{
			Field:    r.Text("Field"),
			RawType:  r.Text("Type"),
			Nullable: strings.EqualFold(r.Text("Null"), "YES"),
			Key:      r.Text("Key"),
			Comment:  r.Text("Comment"),
		}
		if strings.Contains(strings.ToLower(r.Text("Extra")), ExtraAutoIncrement) {
			c.Extra = ExtraAutoIncrement
		}
		if !r.IsNull("Default") {
			c.Default = strPtr(normalizeNow(r.Text("Default")))
		}
		cols = append(cols, c)
	}
	return cols, nil
}

// indexes reads SHOW INDEX: Table, Non_unique, Key_name, Seq_in_index,
// Column_name, ...
func (i *mysqlInspector) indexes(ctx context.Context, table string) ([]IntrospectedIndex, error) {
	rows, err := i.fetch(ctx, "SHOW INDEX FROM "+i.source(table))
	if err != nil {
		return nil, err
	}
	var g indexGroup
	for _, r := range rows {
		name := r.Text("Key_name")
		nonUnique, err := r.Int64("Non_unique")
		if err != nil {
			return nil, err
		}
		g.add(name, r.Text("Column_name"), name == "PRIMARY", nonUnique == 0)
	}
	return g.list(), nil
}

func (i *mysqlInspector) definition(ctx context.Context, table string) (string, error) {
	name := i.grammar.Wrap(table)
	if i.database != "" {
		name = quoteMySQL(i.database) + "." + name
	}
	rows, err := i.fetch(ctx, "SHOW CREATE TABLE "+name)
	if err != nil || len(rows) == 0 {
		return "", err
	}
	return rows[0].TextAt(1), nil
}
