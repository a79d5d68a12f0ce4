// Package schemadef holds the canonical, compiled-in definition of the schema
// an application expects to find in its database. A Definition is constructed
// once at startup and is immutable for the process lifetime; the guard derives
// the expected structural description from it.
package schemadef

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sekhmet/sekhmet/dbschema/types"
)

// Column describes one column of an expected table.
type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"` // Semantic type kind, see dbschema/types
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primary_key"`
	Indexed    bool   `json:"indexed"`
	Foreign    string `json:"foreign,omitempty"` // Foreign key reference, e.g. "users(id)"
}

// Table describes one expected table with its ordered columns.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Definition is a validated set of expected tables.
type Definition struct {
	tables []Table
}

// New builds a Definition from the given tables. Table names must be unique,
// column names must be unique within a table, and foreign key references must
// use the table(column) form.
func New(tables ...Table) (*Definition, error) {
	seenTables := make(map[string]bool)
	for _, table := range tables {
		if table.Name == "" {
			return nil, fmt.Errorf("table with empty name")
		}
		if seenTables[table.Name] {
			return nil, fmt.Errorf("duplicate table name: %s", table.Name)
		}
		seenTables[table.Name] = true

		seenColumns := make(map[string]bool)
		for _, col := range table.Columns {
			if col.Name == "" {
				return nil, fmt.Errorf("table %s: column with empty name", table.Name)
			}
			if seenColumns[col.Name] {
				return nil, fmt.Errorf("table %s: duplicate column name: %s", table.Name, col.Name)
			}
			seenColumns[col.Name] = true

			if !validKind(col.Type) {
				return nil, fmt.Errorf("table %s, column %s: unknown type kind %q", table.Name, col.Name, col.Type)
			}
			if col.Foreign != "" {
				if _, _, err := parseForeignRef(col.Foreign); err != nil {
					return nil, fmt.Errorf("table %s, column %s: %w", table.Name, col.Name, err)
				}
			}
		}
	}

	return &Definition{tables: tables}, nil
}

// Parse builds a Definition from a JSON document of the form
// {"tables": [{"name": ..., "columns": [...]}]}. The document is validated
// the same way as New.
func Parse(data []byte) (*Definition, error) {
	var doc struct {
		Tables []Table `json:"tables"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema definition: %w", err)
	}
	if len(doc.Tables) == 0 {
		return nil, fmt.Errorf("schema definition has no tables")
	}
	return New(doc.Tables...)
}

func validKind(kind string) bool {
	switch kind {
	case types.KindInteger, types.KindFloat, types.KindNumeric,
		types.KindString, types.KindText, types.KindBoolean,
		types.KindDateTime, types.KindDate, types.KindBinary, types.KindJSON:
		return true
	}
	return false
}

// MustNew is like New but panics on validation failure. Intended for
// package-level canonical definitions, where a bad definition is a
// programming error.
func MustNew(tables ...Table) *Definition {
	def, err := New(tables...)
	if err != nil {
		panic(err)
	}
	return def
}

// Tables returns the expected tables in definition order.
func (d *Definition) Tables() []Table {
	return d.tables
}

// Schema derives the structural description of the expected schema. The
// result is deterministic: it depends only on the definition.
func (d *Definition) Schema() *types.DBSchema {
	schema := &types.DBSchema{}
	for _, table := range d.tables {
		dbTable := types.DBTable{Name: table.Name}
		for i, col := range table.Columns {
			dbCol := types.DBColumn{
				Name:            col.Name,
				TypeKind:        col.Type,
				IsNullable:      col.Nullable && !col.PrimaryKey,
				IsPrimaryKey:    col.PrimaryKey,
				IsIndexed:       col.Indexed || col.PrimaryKey,
				OrdinalPosition: i + 1,
			}
			if col.Foreign != "" {
				ft, fc, _ := parseForeignRef(col.Foreign)
				dbCol.ForeignTable = &ft
				dbCol.ForeignColumn = &fc
			}
			dbTable.Columns = append(dbTable.Columns, dbCol)
		}
		schema.Tables = append(schema.Tables, dbTable)
	}
	return schema
}

// parseForeignRef splits a "table(column)" reference into its parts.
func parseForeignRef(ref string) (table, column string, err error) {
	open := strings.Index(ref, "(")
	if open <= 0 || !strings.HasSuffix(ref, ")") {
		return "", "", fmt.Errorf("invalid foreign key reference %q, expected table(column)", ref)
	}
	table = ref[:open]
	column = ref[open+1 : len(ref)-1]
	if column == "" {
		return "", "", fmt.Errorf("invalid foreign key reference %q, expected table(column)", ref)
	}
	return table, column, nil
}
