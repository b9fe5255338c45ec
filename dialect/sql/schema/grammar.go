package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/syssam/fluentdb"
	"github.com/syssam/fluentdb/dialect"
	"github.com/syssam/fluentdb/dialect/sql"
)

// Grammar compiles Table blueprints into DDL statements for one dialect.
// Identifier quoting and table prefixes come from the query grammar of the
// same dialect.
type Grammar struct {
	sql.Grammar
	types map[string]func(*Column) string
}

// NewGrammar returns the DDL grammar of the named dialect.
func NewGrammar(name, prefix string) (*Grammar, error) {
	qg, err := sql.GrammarFor(name, prefix)
	if err != nil {
		return nil, fluentdb.NewUnsupportedDriverError("schema grammar", name)
	}
	g := &Grammar{Grammar: qg}
	switch qg.Dialect() {
	case dialect.MySQL:
		g.types = mysqlTypes
	case dialect.Postgres:
		g.types = postgresTypes
	case dialect.SQLite:
		g.types = sqliteTypes
	case dialect.SQLServer:
		g.types = sqlserverTypes
	}
	return g, nil
}

// Compile returns the statements of the blueprint in command order. The
// implied commands are added first.
func (g *Grammar) Compile(t *Table) ([]string, error) {
	t.addImpliedCommands()
	var stmts []string
	for _, c := range t.commands {
		s, err := g.compileCommand(t, c)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s...)
	}
	return stmts, nil
}

func (g *Grammar) compileCommand(t *Table, c *Command) ([]string, error) {
	switch c.typ {
	case CommandCreate:
		return g.compileCreate(t)
	case CommandAdd:
		return g.compileAdd(t)
	case CommandDrop:
		return []string{"DROP TABLE " + g.WrapTable(t.name)}, nil
	case CommandRename:
		return g.compileRename(t, c), nil
	case CommandForeign:
		return g.compileForeign(t, c)
	case CommandPrimary:
		return g.compilePrimary(t, c)
	case CommandUnique:
		return g.compileUnique(t, c), nil
	case CommandIndex:
		return g.compileIndex(t, c), nil
	case CommandFulltext:
		return g.compileFulltext(t, c)
	case CommandDropColumn:
		return g.compileDropColumn(t, c), nil
	case CommandDropPrimary:
		return g.compileDropPrimary(t, c)
	case CommandDropUnique, CommandDropIndex:
		return g.compileDropIndex(t, c), nil
	case CommandDropForeign:
		if g.Dialect() == dialect.MySQL {
			return []string{"ALTER TABLE " + g.WrapTable(t.name) + " DROP FOREIGN KEY " + c.name}, nil
		}
		return g.compileDropConstraint(t, c)
	case CommandDropConstraint:
		return g.compileDropConstraint(t, c)
	default:
		return nil, fluentdb.NewUnsupportedDriverError(c.typ, g.Dialect())
	}
}

func (g *Grammar) compileCreate(t *Table) ([]string, error) {
	defs, err := g.columnDefinitions(t)
	if err != nil {
		return nil, err
	}
	if g.Dialect() == dialect.SQLite {
		// SQLite cannot add keys to an existing table, so they are part
		// of the CREATE TABLE statement.
		for _, c := range t.commands {
			switch c.typ {
			case CommandPrimary:
				defs = append(defs, "PRIMARY KEY ("+g.Columnize(c.columns)+")")
			case CommandForeign:
				defs = append(defs, g.foreignClause(c))
			}
		}
	}
	stmt := "CREATE TABLE " + g.WrapTable(t.name) + " (" + strings.Join(defs, ", ") + ")"
	if g.Dialect() == dialect.MySQL && t.engine != "" {
		stmt += " ENGINE = " + t.engine
	}
	return append([]string{stmt}, g.columnComments(t)...), nil
}

func (g *Grammar) compileAdd(t *Table) ([]string, error) {
	defs, err := g.columnDefinitions(t)
	if err != nil {
		return nil, err
	}
	table := "ALTER TABLE " + g.WrapTable(t.name)
	var stmts []string
	switch g.Dialect() {
	case dialect.MySQL:
		stmts = []string{table + " ADD " + strings.Join(defs, ", ADD ")}
	case dialect.Postgres:
		stmts = []string{table + " ADD COLUMN " + strings.Join(defs, ", ADD COLUMN ")}
	case dialect.SQLite:
		for _, d := range defs {
			stmts = append(stmts, table+" ADD COLUMN "+d)
		}
	case dialect.SQLServer:
		stmts = []string{table + " ADD " + strings.Join(defs, ", ")}
	}
	return append(stmts, g.columnComments(t)...), nil
}

func (g *Grammar) compileRename(t *Table, c *Command) []string {
	switch g.Dialect() {
	case dialect.MySQL:
		return []string{"RENAME TABLE " + g.WrapTable(t.name) + " TO " + g.WrapTable(c.name)}
	case dialect.SQLServer:
		return []string{"EXEC sp_rename " + quoteString(g.Prefix()+t.name) + ", " + quoteString(g.Prefix()+c.name)}
	default:
		return []string{"ALTER TABLE " + g.WrapTable(t.name) + " RENAME TO " + g.WrapTable(c.name)}
	}
}

func (g *Grammar) foreignClause(c *Command) string {
	var sb strings.Builder
	sb.WriteString("FOREIGN KEY (" + g.Columnize(c.columns) + ") REFERENCES " + g.WrapTable(c.on) + " (" + g.Columnize(c.references) + ")")
	if c.onDelete != "" {
		sb.WriteString(" ON DELETE " + c.onDelete)
	}
	if c.onUpdate != "" {
		sb.WriteString(" ON UPDATE " + c.onUpdate)
	}
	return sb.String()
}

func (g *Grammar) compileForeign(t *Table, c *Command) ([]string, error) {
	if c.on == "" || len(c.references) == 0 {
		return nil, fluentdb.NewConfigError("foreign", fmt.Sprintf("foreign key %s needs References and On", c.name), fluentdb.ErrInvalidArgument)
	}
	if g.Dialect() == dialect.SQLite {
		if t.creating {
			return nil, nil
		}
		return nil, fluentdb.NewUnsupportedDriverError("foreign key on existing table", g.Dialect())
	}
	return []string{"ALTER TABLE " + g.WrapTable(t.name) + " ADD CONSTRAINT " + c.name + " " + g.foreignClause(c)}, nil
}

func (g *Grammar) compilePrimary(t *Table, c *Command) ([]string, error) {
	table := "ALTER TABLE " + g.WrapTable(t.name)
	switch g.Dialect() {
	case dialect.SQLite:
		if t.creating {
			return nil, nil
		}
		return nil, fluentdb.NewUnsupportedDriverError("primary key on existing table", g.Dialect())
	case dialect.SQLServer:
		return []string{table + " ADD CONSTRAINT " + c.name + " PRIMARY KEY (" + g.Columnize(c.columns) + ")"}, nil
	default:
		return []string{table + " ADD PRIMARY KEY (" + g.Columnize(c.columns) + ")"}, nil
	}
}

func (g *Grammar) compileUnique(t *Table, c *Command) []string {
	switch g.Dialect() {
	case dialect.MySQL:
		return []string{"ALTER TABLE " + g.WrapTable(t.name) + " ADD UNIQUE " + c.name + " (" + g.Columnize(c.columns) + ")"}
	case dialect.Postgres:
		return []string{"ALTER TABLE " + g.WrapTable(t.name) + " ADD CONSTRAINT " + c.name + " UNIQUE (" + g.Columnize(c.columns) + ")"}
	default:
		return []string{"CREATE UNIQUE INDEX " + c.name + " ON " + g.WrapTable(t.name) + " (" + g.Columnize(c.columns) + ")"}
	}
}

func (g *Grammar) compileIndex(t *Table, c *Command) []string {
	if g.Dialect() == dialect.MySQL {
		return []string{"ALTER TABLE " + g.WrapTable(t.name) + " ADD INDEX " + c.name + " (" + g.Columnize(c.columns) + ")"}
	}
	return []string{"CREATE INDEX " + c.name + " ON " + g.WrapTable(t.name) + " (" + g.Columnize(c.columns) + ")"}
}

func (g *Grammar) compileFulltext(t *Table, c *Command) ([]string, error) {
	switch g.Dialect() {
	case dialect.MySQL:
		return []string{"ALTER TABLE " + g.WrapTable(t.name) + " ADD FULLTEXT " + c.name + " (" + g.Columnize(c.columns) + ")"}, nil
	case dialect.Postgres:
		parts := make([]string, len(c.columns))
		for i, col := range c.columns {
			parts[i] = "coalesce(" + g.Wrap(col) + ", '')"
		}
		expr := "to_tsvector('simple', " + strings.Join(parts, " || ' ' || ") + ")"
		return []string{"CREATE INDEX " + c.name + " ON " + g.WrapTable(t.name) + " USING gin (" + expr + ")"}, nil
	default:
		return nil, fluentdb.NewUnsupportedDriverError("fulltext index", g.Dialect())
	}
}

func (g *Grammar) compileDropColumn(t *Table, c *Command) []string {
	table := "ALTER TABLE " + g.WrapTable(t.name)
	wrapped := make([]string, len(c.columns))
	for i, col := range c.columns {
		wrapped[i] = g.Wrap(col)
	}
	switch g.Dialect() {
	case dialect.MySQL:
		return []string{table + " DROP " + strings.Join(wrapped, ", DROP ")}
	case dialect.Postgres:
		return []string{table + " DROP COLUMN " + strings.Join(wrapped, ", DROP COLUMN ")}
	case dialect.SQLite:
		stmts := make([]string, len(wrapped))
		for i, w := range wrapped {
			stmts[i] = table + " DROP COLUMN " + w
		}
		return stmts
	default:
		return []string{table + " DROP COLUMN " + strings.Join(wrapped, ", ")}
	}
}

func (g *Grammar) compileDropPrimary(t *Table, c *Command) ([]string, error) {
	if g.Dialect() == dialect.MySQL {
		return []string{"ALTER TABLE " + g.WrapTable(t.name) + " DROP PRIMARY KEY"}, nil
	}
	return g.compileDropConstraint(t, c)
}

func (g *Grammar) compileDropIndex(t *Table, c *Command) []string {
	switch g.Dialect() {
	case dialect.MySQL:
		return []string{"ALTER TABLE " + g.WrapTable(t.name) + " DROP INDEX " + c.name}
	case dialect.Postgres:
		if c.typ == CommandDropUnique {
			return []string{"ALTER TABLE " + g.WrapTable(t.name) + " DROP CONSTRAINT " + c.name}
		}
		return []string{"DROP INDEX " + c.name}
	case dialect.SQLServer:
		return []string{"DROP INDEX " + c.name + " ON " + g.WrapTable(t.name)}
	default:
		return []string{"DROP INDEX " + c.name}
	}
}

func (g *Grammar) compileDropConstraint(t *Table, c *Command) ([]string, error) {
	if g.Dialect() == dialect.SQLite {
		return nil, fluentdb.NewUnsupportedDriverError(strings.ReplaceAll(c.typ, "_", " "), g.Dialect())
	}
	return []string{"ALTER TABLE " + g.WrapTable(t.name) + " DROP CONSTRAINT " + c.name}, nil
}

func (g *Grammar) columnDefinitions(t *Table) ([]string, error) {
	defs := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		typ, err := g.columnType(c)
		if err != nil {
			return nil, err
		}
		defs = append(defs, g.Wrap(c.name)+" "+typ+g.modifiers(c))
	}
	return defs, nil
}

func (g *Grammar) columnType(c *Column) (string, error) {
	render, ok := g.types[c.kind]
	if !ok {
		return "", fluentdb.NewUnsupportedTypeError(g.Dialect(), c.kind)
	}
	return render(c), nil
}

func (g *Grammar) modifiers(c *Column) string {
	var sb strings.Builder
	if c.unsigned && g.Dialect() == dialect.MySQL && !c.autoIncrement() {
		sb.WriteString(" UNSIGNED")
	}
	if c.nullable && !c.autoIncrement() {
		sb.WriteString(" NULL")
	} else {
		sb.WriteString(" NOT NULL")
	}
	if c.hasDefault {
		sb.WriteString(" DEFAULT " + g.defaultValue(c))
	}
	if c.autoIncrement() {
		switch g.Dialect() {
		case dialect.MySQL:
			sb.WriteString(" AUTO_INCREMENT PRIMARY KEY")
		case dialect.SQLite:
			sb.WriteString(" PRIMARY KEY AUTOINCREMENT")
		default:
			sb.WriteString(" PRIMARY KEY")
		}
	}
	if c.comment != "" && g.Dialect() == dialect.MySQL {
		sb.WriteString(" COMMENT " + quoteString(c.comment))
	}
	return sb.String()
}

// defaultValue renders a DEFAULT operand. Literals are always quoted and
// booleans become '1' or '0', which every dialect casts to its own type.
func (g *Grammar) defaultValue(c *Column) string {
	if c.defaultRaw {
		return fmt.Sprint(c.def)
	}
	var s string
	switch v := c.def.(type) {
	case nil:
		return "NULL"
	case bool:
		s = "0"
		if v {
			s = "1"
		}
	default:
		s = fmt.Sprint(v)
	}
	if g.Dialect() == dialect.Postgres {
		return pq.QuoteLiteral(s)
	}
	return quoteString(s)
}

func (g *Grammar) columnComments(t *Table) []string {
	var stmts []string
	for _, c := range t.columns {
		if c.comment == "" {
			continue
		}
		switch g.Dialect() {
		case dialect.Postgres:
			stmts = append(stmts, "COMMENT ON COLUMN "+g.WrapTable(t.name)+"."+g.Wrap(c.name)+" IS "+pq.QuoteLiteral(c.comment))
		case dialect.SQLServer:
			stmts = append(stmts, "EXEC sp_addextendedproperty 'MS_Description', N"+quoteString(c.comment)+
				", 'SCHEMA', 'dbo', 'TABLE', "+quoteString(g.Prefix()+t.name)+", 'COLUMN', "+quoteString(c.name))
		}
	}
	return stmts
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// sized renders "NAME(n)".
func sized(name string, n int) string {
	return name + "(" + strconv.Itoa(n) + ")"
}

// scaled renders "NAME(p,s)", or NAME alone when no precision is set.
func scaled(name string, c *Column) string {
	if c.precision <= 0 {
		return name
	}
	return name + "(" + strconv.Itoa(c.precision) + "," + strconv.Itoa(c.scale) + ")"
}

func fixed(name string) func(*Column) string {
	return func(*Column) string { return name }
}

var mysqlTypes = map[string]func(*Column) string{
	KindIncrements:    fixed("INT UNSIGNED"),
	KindBigIncrements: fixed("BIGINT UNSIGNED"),
	KindTinyInteger:   fixed("TINYINT"),
	KindSmallInteger:  fixed("SMALLINT"),
	KindInteger:       fixed("INT"),
	KindBigInteger:    fixed("BIGINT"),
	KindString:        func(c *Column) string { return sized("VARCHAR", c.length) },
	KindChar:          func(c *Column) string { return sized("CHAR", c.length) },
	KindText:          fixed("TEXT"),
	KindFloat:         func(c *Column) string { return scaled("FLOAT", c) },
	KindDouble:        func(c *Column) string { return scaled("DOUBLE", c) },
	KindDecimal:       func(c *Column) string { return scaled("DECIMAL", c) },
	KindBoolean:       fixed("TINYINT(1)"),
	KindDate:          fixed("DATE"),
	KindDateTime:      fixed("DATETIME"),
	KindTime:          fixed("TIME"),
	KindTimestamp:     fixed("TIMESTAMP"),
	KindBlob:          fixed("BLOB"),
	KindJSON:          fixed("JSON"),
	KindUUID:          fixed("CHAR(36)"),
}

var postgresTypes = map[string]func(*Column) string{
	KindIncrements:    fixed("SERIAL"),
	KindBigIncrements: fixed("BIGSERIAL"),
	KindTinyInteger:   fixed("SMALLINT"),
	KindSmallInteger:  fixed("SMALLINT"),
	KindInteger:       fixed("INTEGER"),
	KindBigInteger:    fixed("BIGINT"),
	KindString:        func(c *Column) string { return sized("VARCHAR", c.length) },
	KindChar:          func(c *Column) string { return sized("CHAR", c.length) },
	KindText:          fixed("TEXT"),
	KindFloat:         fixed("REAL"),
	KindDouble:        fixed("DOUBLE PRECISION"),
	KindDecimal:       func(c *Column) string { return scaled("DECIMAL", c) },
	KindBoolean:       fixed("BOOLEAN"),
	KindDate:          fixed("DATE"),
	KindDateTime:      fixed("TIMESTAMP(0) WITHOUT TIME ZONE"),
	KindTime:          fixed("TIME(0) WITHOUT TIME ZONE"),
	KindTimestamp:     fixed("TIMESTAMP(0) WITHOUT TIME ZONE"),
	KindBlob:          fixed("BYTEA"),
	KindJSON:          fixed("JSON"),
	KindUUID:          fixed("UUID"),
}

var sqliteTypes = map[string]func(*Column) string{
	KindIncrements:    fixed("INTEGER"),
	KindBigIncrements: fixed("INTEGER"),
	KindTinyInteger:   fixed("TINYINT"),
	KindSmallInteger:  fixed("SMALLINT"),
	KindInteger:       fixed("INTEGER"),
	KindBigInteger:    fixed("BIGINT"),
	KindString:        func(c *Column) string { return sized("VARCHAR", c.length) },
	KindChar:          func(c *Column) string { return sized("CHAR", c.length) },
	KindText:          fixed("TEXT"),
	KindFloat:         fixed("FLOAT"),
	KindDouble:        fixed("DOUBLE"),
	KindDecimal:       func(c *Column) string { return scaled("NUMERIC", c) },
	KindBoolean:       fixed("BOOLEAN"),
	KindDate:          fixed("DATE"),
	KindDateTime:      fixed("DATETIME"),
	KindTime:          fixed("TIME"),
	KindTimestamp:     fixed("TIMESTAMP"),
	KindBlob:          fixed("BLOB"),
	KindJSON:          fixed("JSON"),
	KindUUID:          fixed("VARCHAR(36)"),
}

var sqlserverTypes = map[string]func(*Column) string{
	KindIncrements:    fixed("INT IDENTITY"),
	KindBigIncrements: fixed("BIGINT IDENTITY"),
	KindTinyInteger:   fixed("TINYINT"),
	KindSmallInteger:  fixed("SMALLINT"),
	KindInteger:       fixed("INT"),
	KindBigInteger:    fixed("BIGINT"),
	KindString:        func(c *Column) string { return sized("NVARCHAR", c.length) },
	KindChar:          func(c *Column) string { return sized("NCHAR", c.length) },
	KindText:          fixed("NVARCHAR(MAX)"),
	KindFloat:         fixed("REAL"),
	KindDouble:        fixed("FLOAT"),
	KindDecimal:       func(c *Column) string { return scaled("DECIMAL", c) },
	KindBoolean:       fixed("BIT"),
	KindDate:          fixed("DATE"),
	KindDateTime:      fixed("DATETIME2"),
	KindTime:          fixed("TIME"),
	KindTimestamp:     fixed("DATETIME2"),
	KindBlob:          fixed("VARBINARY(MAX)"),
	KindJSON:          fixed("NVARCHAR(MAX)"),
	KindUUID:          fixed("UNIQUEIDENTIFIER"),
}
