package gen

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/syssam/fluentdb/dialect/sql/schema"
)

// kindOf maps lower-cased raw engine type names onto column kinds.
var kindOf = map[string]string{
	"tinyint":                     schema.KindTinyInteger,
	"smallint":                    schema.KindSmallInteger,
	"int2":                        schema.KindSmallInteger,
	"int":                         schema.KindInteger,
	"integer":                     schema.KindInteger,
	"mediumint":                   schema.KindInteger,
	"int4":                        schema.KindInteger,
	"int8":                        schema.KindInteger,
	"bigint":                      schema.KindInteger,
	"serial":                      schema.KindInteger,
	"bigserial":                   schema.KindInteger,
	"varchar":                     schema.KindString,
	"nvarchar":                    schema.KindString,
	"character varying":           schema.KindString,
	"char":                        schema.KindChar,
	"nchar":                       schema.KindChar,
	"bpchar":                      schema.KindChar,
	"character":                   schema.KindChar,
	"text":                        schema.KindText,
	"tinytext":                    schema.KindText,
	"mediumtext":                  schema.KindText,
	"longtext":                    schema.KindText,
	"ntext":                       schema.KindText,
	"timestamp":                   schema.KindDateTime,
	"timestamptz":                 schema.KindDateTime,
	"timestamp without time zone": schema.KindDateTime,
	"timestamp with time zone":    schema.KindDateTime,
	"datetime":                    schema.KindDateTime,
	"datetime2":                   schema.KindDateTime,
	"date":                        schema.KindDate,
	"time":                        schema.KindTime,
	"numeric":                     schema.KindDecimal,
	"decimal":                     schema.KindDecimal,
	"float":                       schema.KindDecimal,
	"double":                      schema.KindDouble,
	"double precision":            schema.KindDouble,
	"real":                        schema.KindDouble,
	"float4":                      schema.KindDouble,
	"float8":                      schema.KindDouble,
	"bool":                        schema.KindBoolean,
	"boolean":                     schema.KindBoolean,
	"bit":                         schema.KindBoolean,
	"blob":                        schema.KindBlob,
	"longblob":                    schema.KindBlob,
	"bytea":                       schema.KindBlob,
	"binary":                      schema.KindBlob,
	"varbinary":                   schema.KindBlob,
	"json":                        schema.KindJSON,
	"jsonb":                       schema.KindJSON,
	"uuid":                        schema.KindUUID,
	"uniqueidentifier":            schema.KindUUID,
}

// paramCount is the number of type parameters a kind accepts. Known kinds
// missing here take none.
var paramCount = map[string]int{
	schema.KindString:  1,
	schema.KindChar:    1,
	schema.KindFloat:   2,
	schema.KindDouble:  2,
	schema.KindDecimal: 2,
}

var knownKinds = map[string]bool{
	schema.KindIncrements: true, schema.KindBigIncrements: true, schema.KindTinyInteger: true,
	schema.KindSmallInteger: true, schema.KindInteger: true, schema.KindBigInteger: true,
	schema.KindString: true, schema.KindChar: true, schema.KindText: true,
	schema.KindFloat: true, schema.KindDouble: true, schema.KindDecimal: true,
	schema.KindBoolean: true, schema.KindDate: true, schema.KindDateTime: true,
	schema.KindTime: true, schema.KindTimestamp: true, schema.KindBlob: true,
	schema.KindJSON: true, schema.KindUUID: true,
}

// columnType is a parsed raw engine type.
type columnType struct {
	kind     string
	params   []int
	unsigned bool
}

// parseType splits a raw type such as "int(10) unsigned" or
// "numeric(10,2)" into its kind, parameters and signedness.
func parseType(raw string) columnType {
	s := cases.Lower(language.Und).String(strings.TrimSpace(raw))
	name, inner, rest := s, "", ""
	if i := strings.IndexByte(s, '('); i >= 0 {
		name = s[:i]
		if j := strings.IndexByte(s[i:], ')'); j >= 0 {
			inner, rest = s[i+1:i+j], s[i+j+1:]
		} else {
			inner = s[i+1:]
		}
	}
	var (
		ct    columnType
		words []string
	)
	for _, w := range strings.Fields(name + " " + rest) {
		switch w {
		case "unsigned":
			ct.unsigned = true
		case "signed", "zerofill":
		default:
			words = append(words, w)
		}
	}
	base := strings.Join(words, " ")
	kind, ok := kindOf[base]
	if !ok && len(words) > 1 {
		kind, ok = kindOf[words[0]]
	}
	if !ok {
		kind = base
	}
	ct.kind = kind
	ct.params = filterParams(kind, parseParams(inner))
	return ct
}

// parseParams returns the integer parameters of a type. Others, such as
// "max", are dropped.
func parseParams(inner string) []int {
	if strings.TrimSpace(inner) == "" {
		return nil
	}
	var params []int
	for _, p := range strings.Split(inner, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			continue
		}
		params = append(params, n)
	}
	return params
}

func filterParams(kind string, params []int) []int {
	if !knownKinds[kind] {
		return params
	}
	n := paramCount[kind]
	if len(params) > n {
		params = params[:n]
	}
	if len(params) == 0 {
		return nil
	}
	return params
}
