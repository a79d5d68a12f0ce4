package types

import "strings"

// Semantic type kinds. Readers normalize engine-specific type names to one of
// these so that descriptions from different dialects compare cleanly against
// the canonical definition.
const (
	KindInteger  = "integer"
	KindFloat    = "float"
	KindNumeric  = "numeric"
	KindString   = "string"
	KindText     = "text"
	KindBoolean  = "boolean"
	KindDateTime = "datetime"
	KindDate     = "date"
	KindBinary   = "binary"
	KindJSON     = "json"
	KindUnknown  = "unknown"
)

// NormalizeTypeKind maps an engine-reported data type name to its semantic
// kind. Length and precision qualifiers are ignored: those vary legitimately
// between storage engines. Multi-word names like "double precision" and
// "timestamp without time zone" are matched whole.
func NormalizeTypeKind(dataType string) string {
	dt := strings.ToLower(strings.TrimSpace(dataType))
	if i := strings.Index(dt, "("); i > 0 {
		dt = strings.TrimSpace(dt[:i])
	}
	dt = strings.TrimSuffix(dt, " unsigned")

	switch dt {
	case "smallint", "int", "int2", "int4", "int8", "integer", "bigint", "serial", "bigserial", "smallserial", "tinyint", "mediumint":
		return KindInteger
	case "real", "float", "float4", "float8", "double", "double precision":
		return KindFloat
	case "numeric", "decimal":
		return KindNumeric
	case "varchar", "character varying", "character", "char", "nvarchar", "nchar":
		return KindString
	case "text", "tinytext", "mediumtext", "longtext", "clob":
		return KindText
	case "boolean", "bool":
		return KindBoolean
	case "timestamp", "timestamptz", "timestamp without time zone", "timestamp with time zone", "datetime", "time":
		return KindDateTime
	case "date":
		return KindDate
	case "bytea", "blob", "tinyblob", "mediumblob", "longblob", "binary", "varbinary":
		return KindBinary
	case "json", "jsonb":
		return KindJSON
	}
	return KindUnknown
}
