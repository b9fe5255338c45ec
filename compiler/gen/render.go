package gen

import (
	"bytes"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/fluentdb/dialect/sql/schema"
)

const (
	schemaPkg = "github.com/syssam/fluentdb/dialect/sql/schema"
	sqlPkg    = "github.com/syssam/fluentdb/dialect/sql"
)

// columnMethods maps kinds to their Table methods. Kinds missing here are
// rendered through AddColumn.
var columnMethods = map[string]string{
	schema.KindIncrements:    "Increments",
	schema.KindBigIncrements: "BigIncrements",
	schema.KindTinyInteger:   "TinyInteger",
	schema.KindSmallInteger:  "SmallInteger",
	schema.KindInteger:       "Integer",
	schema.KindBigInteger:    "BigInteger",
	schema.KindString:        "String",
	schema.KindChar:          "Char",
	schema.KindText:          "Text",
	schema.KindFloat:         "Float",
	schema.KindDouble:        "Double",
	schema.KindDecimal:       "Decimal",
	schema.KindBoolean:       "Boolean",
	schema.KindDate:          "Date",
	schema.KindDateTime:      "DateTime",
	schema.KindTime:          "Time",
	schema.KindTimestamp:     "Timestamp",
	schema.KindBlob:          "Blob",
	schema.KindJSON:          "JSON",
	schema.KindUUID:          "UUID",
}

// render returns the Go source of a migration file.
func render(pkg string, m *Migration, seed bool) ([]byte, error) {
	f := jen.NewFile(pkg)
	f.HeaderComment("Code generated by fluentdb. DO NOT EDIT.")

	recv := jen.Id(m.TypeName)
	f.Comment(m.TypeName + " creates the " + m.Table + " table.")
	if m.Definition != "" {
		f.Comment("")
		for _, line := range strings.Split(strings.TrimSpace(m.Definition), "\n") {
			f.Comment("\t" + strings.TrimRight(line, " \t\r"))
		}
	}
	f.Type().Id(m.TypeName).Struct()

	f.Comment("Name returns the migration name.")
	f.Func().Params(recv.Clone()).Id("Name").Params().String().Block(
		jen.Return(jen.Lit(m.Name)),
	)
	f.Comment("Table returns the table the migration creates.")
	f.Func().Params(recv.Clone()).Id("Table").Params().String().Block(
		jen.Return(jen.Lit(m.Table)),
	)

	body := make([]jen.Code, 0, len(m.Columns)+len(m.Indexes))
	for _, c := range m.Columns {
		body = append(body, columnCode(c))
	}
	for _, idx := range m.Indexes {
		body = append(body, indexCode(idx))
	}
	f.Comment("Up creates the table.")
	f.Func().Params(recv.Clone()).Id("Up").Params(
		jen.Id("ctx").Qual("context", "Context"),
		jen.Id("b").Op("*").Qual(schemaPkg, "Builder"),
	).Error().Block(
		jen.Return(jen.Id("b").Dot("Create").Call(
			jen.Id("ctx"),
			jen.Lit(m.Table),
			jen.Func().Params(jen.Id("t").Op("*").Qual(schemaPkg, "Table")).Block(body...),
		)),
	)

	if seed {
		stmts := make([]jen.Code, 0, len(m.Rows)+1)
		for _, row := range m.Rows {
			stmts = append(stmts, jen.If(
				jen.List(jen.Id("_"), jen.Err()).Op(":=").Qual(sqlPkg, "Table").Call(jen.Id("exec"), jen.Lit(m.Table)).
					Dot("InsertJSON").Call(jen.Id("ctx"), jen.Lit(row)),
				jen.Err().Op("!=").Nil(),
			).Block(jen.Return(jen.Err())))
		}
		stmts = append(stmts, jen.Return(jen.Nil()))
		f.Comment("Seed inserts the rows the table held when the migration was generated.")
		f.Func().Params(recv.Clone()).Id("Seed").Params(
			jen.Id("ctx").Qual("context", "Context"),
			jen.Id("exec").Qual(sqlPkg, "Executor"),
		).Error().Block(stmts...)
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func columnCode(c Column) jen.Code {
	args := []jen.Code{jen.Lit(c.Name)}
	for _, p := range c.Params {
		args = append(args, jen.Lit(p))
	}
	var stmt *jen.Statement
	if method, ok := columnMethods[c.Kind]; ok {
		stmt = jen.Id("t").Dot(method).Call(args...)
	} else {
		stmt = jen.Id("t").Dot("AddColumn").Call(append([]jen.Code{jen.Lit(c.Kind)}, args...)...)
	}
	if c.Nullable {
		stmt = stmt.Dot("Nullable").Call()
	}
	if c.Unsigned {
		stmt = stmt.Dot("Unsigned").Call()
	}
	if c.Primary {
		stmt = stmt.Dot("Primary").Call()
	}
	if c.Default != nil {
		if c.DefaultRaw {
			stmt = stmt.Dot("DefaultRaw").Call(jen.Lit(*c.Default))
		} else {
			stmt = stmt.Dot("Default").Call(jen.Lit(*c.Default))
		}
	}
	if c.Comment != "" {
		stmt = stmt.Dot("Comment").Call(jen.Lit(c.Comment))
	}
	return stmt
}

func indexCode(idx Index) jen.Code {
	cols := make([]jen.Code, len(idx.Columns))
	for i, c := range idx.Columns {
		cols[i] = jen.Lit(c)
	}
	method := "Index"
	switch idx.Kind {
	case IndexPrimary:
		method = "Primary"
	case IndexUnique:
		method = "Unique"
	}
	stmt := jen.Id("t").Dot(method).Call(cols...)
	if idx.Name != "" {
		stmt = stmt.Dot("Named").Call(jen.Lit(idx.Name))
	}
	return stmt
}
