package postgres

import (
	"database/sql"
	"fmt"

	"github.com/sekhmet/sekhmet/dbschema/types"
)

// Reader reads schema from PostgreSQL databases
type Reader struct {
	db     *sql.DB
	schema string
}

// NewPostgreSQLReader creates a new PostgreSQL schema reader
func NewPostgreSQLReader(db *sql.DB, schema string) *Reader {
	if schema == "" {
		schema = "public"
	}
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

	if err := r.enhanceWithConstraints(schema.Tables); err != nil {
		return nil, fmt.Errorf("failed to read constraints: %w", err)
	}
	if err := r.enhanceWithIndexes(schema.Tables); err != nil {
		return nil, fmt.Errorf("failed to read indexes: %w", err)
	}

	return schema, nil
}

// TableExists reports whether the named table exists in the search schema.
func (r *Reader) TableExists(name string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2
		)`

	var exists bool
	if err := r.db.QueryRow(query, r.schema, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return exists, nil
}

// readTables reads all user tables and their columns
func (r *Reader) readTables() ([]types.DBTable, error) {
	tablesQuery := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		AND table_type = 'BASE TABLE'
		AND table_name NOT IN ($2, $3)
		ORDER BY table_name`

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

// readColumns reads all columns for a specific table
func (r *Reader) readColumns(tableName string) ([]types.DBColumn, error) {
	columnsQuery := `
		SELECT
			column_name,
			data_type,
			is_nullable,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`

	rows, err := r.db.Query(columnsQuery, r.schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []types.DBColumn
	for rows.Next() {
		var col types.DBColumn
		var dataType, isNullable string
		err := rows.Scan(&col.Name, &dataType, &isNullable, &col.OrdinalPosition)
		if err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		col.TypeKind = types.NormalizeTypeKind(dataType)
		col.IsNullable = isNullable == "YES"

		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column rows: %w", err)
	}

	return columns, nil
}

// enhanceWithConstraints marks primary key columns and fills in foreign key
// targets from information_schema constraint data.
func (r *Reader) enhanceWithConstraints(tables []types.DBTable) error {
	constraintsQuery := `
		SELECT
			tc.table_name,
			tc.constraint_type,
			COALESCE(kcu.column_name, ''),
			COALESCE(ccu.table_name, ''),
			COALESCE(ccu.column_name, '')
		FROM information_schema.table_constraints AS tc
		LEFT JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		LEFT JOIN information_schema.constraint_column_usage AS ccu
			ON tc.constraint_name = ccu.constraint_name
			AND tc.table_schema = ccu.table_schema
		WHERE tc.table_schema = $1
		AND tc.constraint_type IN ('PRIMARY KEY', 'FOREIGN KEY')`

	rows, err := r.db.Query(constraintsQuery, r.schema)
	if err != nil {
		return fmt.Errorf("failed to query constraints: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, constraintType, columnName, foreignTable, foreignColumn string
		if err := rows.Scan(&tableName, &constraintType, &columnName, &foreignTable, &foreignColumn); err != nil {
			return fmt.Errorf("failed to scan constraint: %w", err)
		}

		col := findColumn(tables, tableName, columnName)
		if col == nil {
			continue
		}

		switch constraintType {
		case "PRIMARY KEY":
			col.IsPrimaryKey = true
		case "FOREIGN KEY":
			if foreignTable != "" {
				ft, fc := foreignTable, foreignColumn
				col.ForeignTable = &ft
				col.ForeignColumn = &fc
			}
		}
	}
	return rows.Err()
}

// enhanceWithIndexes marks single-column indexed columns from pg_index.
func (r *Reader) enhanceWithIndexes(tables []types.DBTable) error {
	indexesQuery := `
		SELECT t.relname, a.attname
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE n.nspname = $1
		AND ix.indnatts = 1`

	rows, err := r.db.Query(indexesQuery, r.schema)
	if err != nil {
		return fmt.Errorf("failed to query indexes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, columnName string
		if err := rows.Scan(&tableName, &columnName); err != nil {
			return fmt.Errorf("failed to scan index: %w", err)
		}
		if col := findColumn(tables, tableName, columnName); col != nil {
			col.IsIndexed = true
		}
	}
	return rows.Err()
}

func findColumn(tables []types.DBTable, tableName, columnName string) *types.DBColumn {
	for i := range tables {
		if tables[i].Name != tableName {
			continue
		}
		for j := range tables[i].Columns {
			if tables[i].Columns[j].Name == columnName {
				return &tables[i].Columns[j]
			}
		}
	}
	return nil
}
