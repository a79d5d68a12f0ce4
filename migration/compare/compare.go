// Package compare implements attribute-wise structural comparison between a
// live database schema and the expected schema description.
//
// The expected schema is the minimum contract, not an exhaustive whitelist:
// tables that exist only in the live database are ignored, while tables or
// columns missing from the live database, and attribute divergence on columns
// both sides have, are mismatches. Comparison is fail-fast: the first
// divergence found is reported and the rest is not examined.
package compare

import (
	"fmt"

	"github.com/sekhmet/sekhmet/dbschema/types"
)

// Column attributes that can participate in comparison.
const (
	AttrNullable   = "nullable"
	AttrPrimaryKey = "primary_key"
	AttrIndexed    = "indexed"
	AttrForeignKey = "foreign_key"
)

// Type attributes that can participate in comparison.
const (
	AttrTypeKind = "type_kind"
)

// Mismatch pinpoints the first structural divergence found between the live
// and expected schemas.
type Mismatch struct {
	Table     string
	Column    string
	Attribute string
	Expected  string
	Actual    string
}

// String renders the mismatch for diagnostics.
func (m *Mismatch) String() string {
	if m.Column == "" {
		return fmt.Sprintf("table %q: %s (expected %s, got %s)", m.Table, m.Attribute, m.Expected, m.Actual)
	}
	return fmt.Sprintf("table %q, column %q: %s mismatch (expected %s, got %s)",
		m.Table, m.Column, m.Attribute, m.Expected, m.Actual)
}

// Schemas compares the live schema against the expected schema over the two
// caller-supplied attribute sets. Both sets must be explicit: attributes not
// named in them do not participate in comparison. A nil result means the
// schemas are structurally equal over those attributes.
func Schemas(live, expected *types.DBSchema, columnAttrs, typeAttrs []string) *Mismatch {
	for _, expTable := range expected.Tables {
		liveTable, ok := live.Table(expTable.Name)
		if !ok {
			return &Mismatch{
				Table:     expTable.Name,
				Attribute: "presence",
				Expected:  "table exists",
				Actual:    "table missing",
			}
		}

		for _, expCol := range expTable.Columns {
			liveCol, ok := liveTable.Column(expCol.Name)
			if !ok {
				return &Mismatch{
					Table:     expTable.Name,
					Column:    expCol.Name,
					Attribute: "presence",
					Expected:  "column exists",
					Actual:    "column missing",
				}
			}

			if m := columns(expTable.Name, liveCol, expCol, columnAttrs, typeAttrs); m != nil {
				return m
			}
		}
	}
	return nil
}

func columns(table string, live, expected types.DBColumn, columnAttrs, typeAttrs []string) *Mismatch {
	for _, attr := range typeAttrs {
		switch attr {
		case AttrTypeKind:
			if live.TypeKind != expected.TypeKind {
				return mismatch(table, expected.Name, attr, expected.TypeKind, live.TypeKind)
			}
		}
	}

	for _, attr := range columnAttrs {
		switch attr {
		case AttrNullable:
			if live.IsNullable != expected.IsNullable {
				return mismatch(table, expected.Name, attr, formatBool(expected.IsNullable), formatBool(live.IsNullable))
			}
		case AttrPrimaryKey:
			if live.IsPrimaryKey != expected.IsPrimaryKey {
				return mismatch(table, expected.Name, attr, formatBool(expected.IsPrimaryKey), formatBool(live.IsPrimaryKey))
			}
		case AttrIndexed:
			if live.IsIndexed != expected.IsIndexed {
				return mismatch(table, expected.Name, attr, formatBool(expected.IsIndexed), formatBool(live.IsIndexed))
			}
		case AttrForeignKey:
			if formatRef(expected) != formatRef(live) {
				return mismatch(table, expected.Name, attr, formatRef(expected), formatRef(live))
			}
		}
	}
	return nil
}

func mismatch(table, column, attr, expected, actual string) *Mismatch {
	return &Mismatch{
		Table:     table,
		Column:    column,
		Attribute: attr,
		Expected:  expected,
		Actual:    actual,
	}
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func formatRef(col types.DBColumn) string {
	if col.ForeignTable == nil {
		return "none"
	}
	fc := ""
	if col.ForeignColumn != nil {
		fc = *col.ForeignColumn
	}
	return fmt.Sprintf("%s(%s)", *col.ForeignTable, fc)
}
