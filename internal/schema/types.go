package schema

import "strings"

// Kind groups column types by how submitted values are coerced.
type Kind int

const (
	KindOther Kind = iota
	KindInteger
	KindBoolean
	KindText
)

// ColumnType is one entry of the supported type catalogue.
type ColumnType struct {
	// Name is the canonical spelling accepted from and reported to clients.
	Name string
	// DDL is the fragment used in CREATE TABLE.
	DDL string
	// DataType is the value information_schema.columns.data_type reports.
	DataType string
	Kind     Kind
	// Bits is the storage width of integer types, 0 otherwise.
	Bits int
}

var catalogue = []ColumnType{
	{Name: "integer", DDL: "INTEGER", DataType: "integer", Kind: KindInteger, Bits: 32},
	{Name: "bigint", DDL: "BIGINT", DataType: "bigint", Kind: KindInteger, Bits: 64},
	{Name: "smallint", DDL: "SMALLINT", DataType: "smallint", Kind: KindInteger, Bits: 16},
	{Name: "boolean", DDL: "BOOLEAN", DataType: "boolean", Kind: KindBoolean},
	{Name: "text", DDL: "TEXT", DataType: "text", Kind: KindText},
	{Name: "varchar", DDL: "VARCHAR(255)", DataType: "character varying", Kind: KindText},
	{Name: "date", DDL: "DATE", DataType: "date", Kind: KindOther},
	{Name: "timestamp", DDL: "TIMESTAMP", DataType: "timestamp without time zone", Kind: KindOther},
	{Name: "numeric", DDL: "NUMERIC", DataType: "numeric", Kind: KindOther},
	{Name: "real", DDL: "REAL", DataType: "real", Kind: KindOther},
	{Name: "double precision", DDL: "DOUBLE PRECISION", DataType: "double precision", Kind: KindOther},
}

var aliases = map[string]string{
	"int":          "integer",
	"int4":         "integer",
	"int8":         "bigint",
	"int2":         "smallint",
	"bool":         "boolean",
	"varchar(255)": "varchar",
	"string":       "text",
	"decimal":      "numeric",
	"float4":       "real",
	"float8":       "double precision",
	"float":        "double precision",
}

// LookupType resolves a declared type, case-insensitively, against the catalogue.
func LookupType(declared string) (ColumnType, bool) {
	name := normalizeTypeName(declared)
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	for _, t := range catalogue {
		if t.Name == name {
			return t, true
		}
	}
	return ColumnType{}, false
}

// TypeFromDataType maps an introspected data_type back to the catalogue.
// Types created outside the application are reported verbatim with KindOther.
func TypeFromDataType(dataType string) ColumnType {
	dataType = strings.ToLower(dataType)
	for _, t := range catalogue {
		if t.DataType == dataType {
			return t
		}
	}
	return ColumnType{Name: dataType, DDL: strings.ToUpper(dataType), DataType: dataType, Kind: KindOther}
}

// SupportedTypes lists canonical type names in catalogue order.
func SupportedTypes() []string {
	names := make([]string, len(catalogue))
	for i, t := range catalogue {
		names[i] = t.Name
	}
	return names
}

func normalizeTypeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
