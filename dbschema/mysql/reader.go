// Package mysql provides schema reading and DDL execution for MySQL and
// MariaDB databases.
package mysql

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/sekhmet/sekhmet/dbschema/types"
)

// Reader reads schema from MySQL databases
type Reader struct {
	db     *sql.DB
	schema string
}

// NewMySQLReader creates a new MySQL schema reader. The schema argument is
// the database name.
func NewMySQLReader(db *sql.DB, schema string) *Reader {
	return &Reader{
		db:     db,
		schema: schema,
	}
}

// ReadSchema reads the structure of all user tables
func (r *Reader) ReadSchema() (*types.DBSchema, error) {
	schema := &types.DBSchema{}

	tables, err := r.readTables()
	if err != nil {
		return nil, fmt.Errorf("failed to read tables: %w", err)
	}
	schema.Tables = tables

	if err := r.enhanceWithForeignKeys(schema.Tables); err != nil {
		return nil, fmt.Errorf("failed to read foreign keys: %w", err)
	}

	return schema, nil
}

// TableExists reports whether the named table exists in the database.
func (r *Reader) TableExists(name string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM information_schema.TABLES
			WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		)`

	var exists bool
	if err := r.db.QueryRow(query, r.schema, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return exists, nil
}

func (r *Reader) readTables() ([]types.DBTable, error) {
	tablesQuery := `
		SELECT TABLE_NAME
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ?
		AND TABLE_TYPE = 'BASE TABLE'
		AND TABLE_NAME NOT IN (?, ?)
		ORDER BY TABLE_NAME`

	rows, err := r.db.Query(tablesQuery, r.schema, types.ModernVersionTable, types.LegacyVersionTable)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []types.DBTable
	for rows.Next() {
		var table types.DBTable
		if err := rows.Scan(&table.Name); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}

		columns, err := r.readColumns(table.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to read columns for table %s: %w", table.Name, err)
		}
		table.Columns = columns

		tables = append(tables, table)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table rows: %w", err)
	}

	return tables, nil
}

func (r *Reader) readColumns(tableName string) ([]types.DBColumn, error) {
	columnsQuery := `
		SELECT
			COLUMN_NAME,
			DATA_TYPE,
			COLUMN_TYPE,
			IS_NULLABLE,
			COLUMN_KEY,
			ORDINAL_POSITION
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`

	rows, err := r.db.Query(columnsQuery, r.schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []types.DBColumn
	for rows.Next() {
		var col types.DBColumn
		var dataType, columnType, isNullable, columnKey string
		err := rows.Scan(&col.Name, &dataType, &columnType, &isNullable, &columnKey, &col.OrdinalPosition)
		if err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		// MySQL has no native boolean type. BOOLEAN columns come back as
		// tinyint(1), which must not be confused with small integers.
		if strings.HasPrefix(strings.ToLower(columnType), "tinyint(1)") {
			col.TypeKind = types.KindBoolean
		} else {
			col.TypeKind = types.NormalizeTypeKind(dataType)
		}
		col.IsNullable = isNullable == "YES"
		col.IsPrimaryKey = columnKey == "PRI"
		col.IsIndexed = columnKey == "PRI" || columnKey == "MUL" || columnKey == "UNI"

		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column rows: %w", err)
	}

	return columns, nil
}

func (r *Reader) enhanceWithForeignKeys(tables []types.DBTable) error {
	fkQuery := `
		SELECT TABLE_NAME, COLUMN_NAME, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ?
		AND REFERENCED_TABLE_NAME IS NOT NULL`

	rows, err := r.db.Query(fkQuery, r.schema)
	if err != nil {
		return fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, columnName, foreignTable, foreignColumn string
		if err := rows.Scan(&tableName, &columnName, &foreignTable, &foreignColumn); err != nil {
			return fmt.Errorf("failed to scan foreign key: %w", err)
		}
		for i := range tables {
			if tables[i].Name != tableName {
				continue
			}
			for j := range tables[i].Columns {
				if tables[i].Columns[j].Name == columnName {
					ft, fc := foreignTable, foreignColumn
					tables[i].Columns[j].ForeignTable = &ft
					tables[i].Columns[j].ForeignColumn = &fc
				}
			}
		}
	}
	return rows.Err()
}
