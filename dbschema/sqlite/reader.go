// Package sqlite provides schema reading and DDL execution for SQLite
// databases via the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/sekhmet/sekhmet/dbschema/types"
)

// Reader reads schema from SQLite databases
type Reader struct {
	db *sql.DB
}

// NewSQLiteReader creates a new SQLite schema reader
func NewSQLiteReader(db *sql.DB) *Reader {
	return &Reader{db: db}
}

// ReadSchema reads the structure of all user tables
func (r *Reader) ReadSchema() (*types.DBSchema, error) {
	tablesQuery := `
		SELECT name FROM sqlite_master
		WHERE type = 'table'
		AND name NOT LIKE 'sqlite_%'
		AND name NOT IN (?, ?)
		ORDER BY name`

	rows, err := r.db.Query(tablesQuery, types.ModernVersionTable, types.LegacyVersionTable)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table rows: %w", err)
	}

	schema := &types.DBSchema{}
	for _, name := range names {
		table, err := r.readTable(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read table %s: %w", name, err)
		}
		schema.Tables = append(schema.Tables, table)
	}

	return schema, nil
}

// TableExists reports whether the named table exists.
func (r *Reader) TableExists(name string) (bool, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return count > 0, nil
}

func (r *Reader) readTable(name string) (types.DBTable, error) {
	table := types.DBTable{Name: name}

	rows, err := r.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", quote(name)))
	if err != nil {
		return table, fmt.Errorf("failed to query table info: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cid, notNull, pk int
		var colName, declType string
		var dflt sql.NullString
		if err := rows.Scan(&cid, &colName, &declType, &notNull, &dflt, &pk); err != nil {
			return table, fmt.Errorf("failed to scan column: %w", err)
		}

		table.Columns = append(table.Columns, types.DBColumn{
			Name:            colName,
			TypeKind:        types.NormalizeTypeKind(declType),
			IsNullable:      notNull == 0 && pk == 0,
			IsPrimaryKey:    pk > 0,
			IsIndexed:       pk > 0,
			OrdinalPosition: cid + 1,
		})
	}
	if err := rows.Err(); err != nil {
		return table, fmt.Errorf("error iterating column rows: %w", err)
	}

	if err := r.enhanceWithIndexes(&table); err != nil {
		return table, err
	}
	if err := r.enhanceWithForeignKeys(&table); err != nil {
		return table, err
	}

	return table, nil
}

func (r *Reader) enhanceWithIndexes(table *types.DBTable) error {
	rows, err := r.db.Query(fmt.Sprintf("PRAGMA index_list(%s)", quote(table.Name)))
	if err != nil {
		return fmt.Errorf("failed to query index list: %w", err)
	}
	defer rows.Close()

	var indexNames []string
	for rows.Next() {
		var seq int
		var name, origin string
		var unique, partial int
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return fmt.Errorf("failed to scan index: %w", err)
		}
		indexNames = append(indexNames, name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating index rows: %w", err)
	}

	for _, indexName := range indexNames {
		columns, err := r.indexColumns(indexName)
		if err != nil {
			return err
		}
		// Only single-column indexes mark a column as indexed;
		// composite indexes do not describe any one column.
		if len(columns) != 1 {
			continue
		}
		for i := range table.Columns {
			if table.Columns[i].Name == columns[0] {
				table.Columns[i].IsIndexed = true
			}
		}
	}
	return nil
}

func (r *Reader) indexColumns(indexName string) ([]string, error) {
	rows, err := r.db.Query(fmt.Sprintf("PRAGMA index_info(%s)", quote(indexName)))
	if err != nil {
		return nil, fmt.Errorf("failed to query index info: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var colName sql.NullString
		if err := rows.Scan(&seqno, &cid, &colName); err != nil {
			return nil, fmt.Errorf("failed to scan index column: %w", err)
		}
		if colName.Valid {
			columns = append(columns, colName.String)
		}
	}
	return columns, rows.Err()
}

func (r *Reader) enhanceWithForeignKeys(table *types.DBTable) error {
	rows, err := r.db.Query(fmt.Sprintf("PRAGMA foreign_key_list(%s)", quote(table.Name)))
	if err != nil {
		return fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, seq int
		var refTable, from string
		var to sql.NullString
		var onUpdate, onDelete, match string
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return fmt.Errorf("failed to scan foreign key: %w", err)
		}

		for i := range table.Columns {
			if table.Columns[i].Name != from {
				continue
			}
			ft := refTable
			table.Columns[i].ForeignTable = &ft
			if to.Valid {
				fc := to.String
				table.Columns[i].ForeignColumn = &fc
			}
		}
	}
	return rows.Err()
}

func quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}
