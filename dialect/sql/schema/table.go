package schema

import (
	"strings"
)

// Column kinds understood by the DDL grammars.
const (
	KindIncrements    = "increments"
	KindBigIncrements = "bigIncrements"
	KindTinyInteger   = "tinyInteger"
	KindSmallInteger  = "smallInteger"
	KindInteger       = "integer"
	KindBigInteger    = "bigInteger"
	KindString        = "string"
	KindChar          = "char"
	KindText          = "text"
	KindFloat         = "float"
	KindDouble        = "double"
	KindDecimal       = "decimal"
	KindBoolean       = "boolean"
	KindDate          = "date"
	KindDateTime      = "datetime"
	KindTime          = "time"
	KindTimestamp     = "timestamp"
	KindBlob          = "blob"
	KindJSON          = "json"
	KindUUID          = "uuid"
)

// Command types queued on a Table.
const (
	CommandCreate         = "create"
	CommandAdd            = "add"
	CommandDrop           = "drop"
	CommandRename         = "rename"
	CommandForeign        = "foreign"
	CommandPrimary        = "primary"
	CommandUnique         = "unique"
	CommandFulltext       = "fulltext"
	CommandIndex          = "index"
	CommandDropColumn     = "drop_column"
	CommandDropPrimary    = "drop_primary"
	CommandDropUnique     = "drop_unique"
	CommandDropIndex      = "drop_index"
	CommandDropForeign    = "drop_foreign"
	CommandDropConstraint = "drop_constraint"
)

const defaultStringLength = 255

// Table is a schema blueprint: the columns to define and the commands to
// run against one table.
type Table struct {
	name     string
	engine   string
	creating bool
	implied  bool
	columns  []*Column
	commands []*Command
}

// NewTable returns an empty blueprint for the named table.
func NewTable(name string) *Table {
	return &Table{name: name}
}

// Name returns the table name, without prefix.
func (t *Table) Name() string { return t.name }

// Columns returns the pending column definitions.
func (t *Table) Columns() []*Column { return t.columns }

// Commands returns the queued commands.
func (t *Table) Commands() []*Command { return t.commands }

// Creating reports whether the blueprint creates the table.
func (t *Table) Creating() bool { return t.creating }

// Engine sets the MySQL storage engine.
func (t *Table) Engine(engine string) { t.engine = engine }

// Create marks the blueprint as creating the table.
func (t *Table) Create() *Command {
	t.creating = true
	return t.command(CommandCreate, nil)
}

// Drop queues a DROP TABLE.
func (t *Table) Drop() *Command { return t.command(CommandDrop, nil) }

// Rename queues a rename of the table to name.
func (t *Table) Rename(to string) *Command {
	c := t.command(CommandRename, nil)
	c.name = to
	return c
}

// Primary queues a primary key over columns.
func (t *Table) Primary(columns ...string) *Command { return t.key(CommandPrimary, columns) }

// Unique queues a unique index over columns.
func (t *Table) Unique(columns ...string) *Command { return t.key(CommandUnique, columns) }

// Fulltext queues a full text index over columns.
func (t *Table) Fulltext(columns ...string) *Command { return t.key(CommandFulltext, columns) }

// Index queues a plain index over columns.
func (t *Table) Index(columns ...string) *Command { return t.key(CommandIndex, columns) }

// Foreign queues a foreign key over columns. Complete it with References
// and On.
func (t *Table) Foreign(columns ...string) *Command { return t.key(CommandForeign, columns) }

// DropColumn queues the removal of columns.
func (t *Table) DropColumn(columns ...string) *Command {
	return t.command(CommandDropColumn, columns)
}

// DropPrimary drops the primary key. The name defaults to "<table>_pkey".
func (t *Table) DropPrimary(name ...string) *Command {
	c := t.command(CommandDropPrimary, nil)
	c.name = t.name + "_pkey"
	if len(name) > 0 {
		c.name = name[0]
	}
	return c
}

// DropUnique drops the named unique index.
func (t *Table) DropUnique(name string) *Command { return t.dropNamed(CommandDropUnique, name) }

// DropIndex drops the named index.
func (t *Table) DropIndex(name string) *Command { return t.dropNamed(CommandDropIndex, name) }

// DropForeign drops the named foreign key.
func (t *Table) DropForeign(name string) *Command { return t.dropNamed(CommandDropForeign, name) }

// DropConstraint drops the named constraint.
func (t *Table) DropConstraint(name string) *Command {
	return t.dropNamed(CommandDropConstraint, name)
}

func (t *Table) dropNamed(typ, name string) *Command {
	c := t.command(typ, nil)
	c.name = name
	return c
}

func (t *Table) key(typ string, columns []string) *Command {
	c := t.command(typ, columns)
	c.name = indexName(t.name, typ, columns)
	return c
}

func (t *Table) command(typ string, columns []string) *Command {
	c := &Command{typ: typ, columns: columns}
	t.commands = append(t.commands, c)
	return c
}

// indexName builds the default "<table>_<cols>_<type>" index name.
func indexName(table, typ string, columns []string) string {
	name := strings.ToLower(table + "_" + strings.Join(columns, "_") + "_" + typ)
	return strings.NewReplacer("-", "_", ".", "_").Replace(name)
}

// Increments adds an auto-incrementing integer primary key.
func (t *Table) Increments(name string) *Column { return t.AddColumn(KindIncrements, name) }

// BigIncrements adds an auto-incrementing big integer primary key.
func (t *Table) BigIncrements(name string) *Column { return t.AddColumn(KindBigIncrements, name) }

// TinyInteger adds a tiny integer column.
func (t *Table) TinyInteger(name string) *Column { return t.AddColumn(KindTinyInteger, name) }

// SmallInteger adds a small integer column.
func (t *Table) SmallInteger(name string) *Column { return t.AddColumn(KindSmallInteger, name) }

// Integer adds an integer column.
func (t *Table) Integer(name string) *Column { return t.AddColumn(KindInteger, name) }

// BigInteger adds a big integer column.
func (t *Table) BigInteger(name string) *Column { return t.AddColumn(KindBigInteger, name) }

// String adds a VARCHAR column. The length defaults to 255.
func (t *Table) String(name string, length ...int) *Column {
	return t.AddColumn(KindString, name, length...)
}

// Char adds a fixed length CHAR column. The length defaults to 255.
func (t *Table) Char(name string, length ...int) *Column {
	return t.AddColumn(KindChar, name, length...)
}

// Text adds a TEXT column.
func (t *Table) Text(name string) *Column { return t.AddColumn(KindText, name) }

// Float adds a single precision column with optional precision and scale.
func (t *Table) Float(name string, params ...int) *Column {
	return t.AddColumn(KindFloat, name, params...)
}

// Double adds a double precision column with optional precision and scale.
func (t *Table) Double(name string, params ...int) *Column {
	return t.AddColumn(KindDouble, name, params...)
}

// Decimal adds a fixed point column. Precision and scale default to 8 and 2.
func (t *Table) Decimal(name string, params ...int) *Column {
	return t.AddColumn(KindDecimal, name, params...)
}

// Boolean adds a boolean column.
func (t *Table) Boolean(name string) *Column { return t.AddColumn(KindBoolean, name) }

// Date adds a DATE column.
func (t *Table) Date(name string) *Column { return t.AddColumn(KindDate, name) }

// DateTime adds a date and time column.
func (t *Table) DateTime(name string) *Column { return t.AddColumn(KindDateTime, name) }

// Time adds a TIME column.
func (t *Table) Time(name string) *Column { return t.AddColumn(KindTime, name) }

// Timestamp adds a TIMESTAMP column.
func (t *Table) Timestamp(name string) *Column { return t.AddColumn(KindTimestamp, name) }

// Timestamps adds the nullable created_at and updated_at columns.
func (t *Table) Timestamps() {
	t.Timestamp("created_at").Nullable()
	t.Timestamp("updated_at").Nullable()
}

// Blob adds a binary column.
func (t *Table) Blob(name string) *Column { return t.AddColumn(KindBlob, name) }

// JSON adds a JSON column.
func (t *Table) JSON(name string) *Column { return t.AddColumn(KindJSON, name) }

// UUID adds a UUID column.
func (t *Table) UUID(name string) *Column { return t.AddColumn(KindUUID, name) }

// AddColumn adds a column of any kind. Params are the length for string
// kinds and precision and scale for numeric kinds. Kinds without a
// renderer fail when the blueprint is compiled.
func (t *Table) AddColumn(kind, name string, params ...int) *Column {
	c := &Column{name: name, kind: kind}
	switch kind {
	case KindString, KindChar:
		c.length = defaultStringLength
		if len(params) > 0 && params[0] > 0 {
			c.length = params[0]
		}
	case KindDecimal:
		c.precision, c.scale = 8, 2
		fallthrough
	default:
		if len(params) > 0 {
			c.precision = params[0]
		}
		if len(params) > 1 {
			c.scale = params[1]
		}
	}
	t.columns = append(t.columns, c)
	return c
}

// addImpliedCommands prepends the add command when altering and promotes
// column-level index flags into index commands. It runs once per blueprint.
func (t *Table) addImpliedCommands() {
	if t.implied {
		return
	}
	t.implied = true
	if len(t.columns) > 0 && !t.creating {
		t.commands = append([]*Command{{typ: CommandAdd}}, t.commands...)
	}
	for _, c := range t.columns {
		for _, f := range []struct {
			typ  string
			flag *string
		}{
			{CommandPrimary, c.primary},
			{CommandUnique, c.unique},
			{CommandFulltext, c.fulltext},
			{CommandIndex, c.index},
		} {
			if f.flag == nil {
				continue
			}
			cmd := t.key(f.typ, []string{c.name})
			if *f.flag != "" {
				cmd.name = *f.flag
			}
		}
	}
}

// Column is a pending column definition.
type Column struct {
	name       string
	kind       string
	length     int
	precision  int
	scale      int
	nullable   bool
	unsigned   bool
	hasDefault bool
	defaultRaw bool
	def        any
	comment    string
	primary    *string
	unique     *string
	fulltext   *string
	index      *string
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Kind returns the column kind.
func (c *Column) Kind() string { return c.kind }

// Nullable allows NULL values.
func (c *Column) Nullable() *Column {
	c.nullable = true
	return c
}

// Unsigned marks an integer column as unsigned where the dialect supports it.
func (c *Column) Unsigned() *Column {
	c.unsigned = true
	return c
}

// Default sets a literal default value.
func (c *Column) Default(v any) *Column {
	c.hasDefault, c.defaultRaw, c.def = true, false, v
	return c
}

// DefaultRaw sets a default expression that is emitted unquoted.
func (c *Column) DefaultRaw(expr string) *Column {
	c.hasDefault, c.defaultRaw, c.def = true, true, expr
	return c
}

// Comment sets the column comment.
func (c *Column) Comment(comment string) *Column {
	c.comment = comment
	return c
}

// Primary makes the column the primary key.
func (c *Column) Primary(name ...string) *Column {
	c.primary = flag(name)
	return c
}

// Unique adds a unique index on the column.
func (c *Column) Unique(name ...string) *Column {
	c.unique = flag(name)
	return c
}

// Fulltext adds a full text index on the column.
func (c *Column) Fulltext(name ...string) *Column {
	c.fulltext = flag(name)
	return c
}

// Index adds a plain index on the column.
func (c *Column) Index(name ...string) *Column {
	c.index = flag(name)
	return c
}

func flag(name []string) *string {
	var s string
	if len(name) > 0 {
		s = name[0]
	}
	return &s
}

func (c *Column) autoIncrement() bool {
	return c.kind == KindIncrements || c.kind == KindBigIncrements
}

// Command is a single schema operation queued on a Table.
type Command struct {
	typ        string
	name       string
	columns    []string
	references []string
	on         string
	onDelete   string
	onUpdate   string
}

// Type returns the command type.
func (c *Command) Type() string { return c.typ }

// Columns returns the target columns.
func (c *Command) Columns() []string { return c.columns }

// IndexName returns the index, constraint or new table name.
func (c *Command) IndexName() string { return c.name }

// Named overrides the default index or constraint name.
func (c *Command) Named(name string) *Command {
	c.name = name
	return c
}

// References sets the referenced columns of a foreign key.
func (c *Command) References(columns ...string) *Command {
	c.references = columns
	return c
}

// On sets the referenced table of a foreign key.
func (c *Command) On(table string) *Command {
	c.on = table
	return c
}

// OnDelete sets the ON DELETE action of a foreign key.
func (c *Command) OnDelete(action string) *Command {
	c.onDelete = action
	return c
}

// OnUpdate sets the ON UPDATE action of a foreign key.
func (c *Command) OnUpdate(action string) *Command {
	c.onUpdate = action
	return c
}
