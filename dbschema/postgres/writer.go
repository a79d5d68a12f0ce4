package postgres

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/sekhmet/sekhmet/dbschema/types"
)

// Writer executes DDL against PostgreSQL databases
type Writer struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPostgreSQLWriter creates a new PostgreSQL schema writer
func NewPostgreSQLWriter(db *sql.DB) *Writer {
	return &Writer{db: db}
}

// CreateTable creates the table described by the given structural description,
// including secondary indexes for indexed columns.
func (w *Writer) CreateTable(table types.DBTable) error {
	var defs []string
	for _, col := range table.Columns {
		defs = append(defs, columnDef(col))
	}

	sqlStr := fmt.Sprintf("CREATE TABLE %s (\n  %s\n)",
		pq.QuoteIdentifier(table.Name), strings.Join(defs, ",\n  "))
	if err := w.ExecuteSQL(sqlStr); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table.Name, err)
	}

	for _, col := range table.Columns {
		if !col.IsIndexed || col.IsPrimaryKey {
			continue
		}
		indexName := fmt.Sprintf("ix_%s_%s", table.Name, col.Name)
		indexSQL := fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
			pq.QuoteIdentifier(indexName), pq.QuoteIdentifier(table.Name), pq.QuoteIdentifier(col.Name))
		if err := w.ExecuteSQL(indexSQL); err != nil {
			return fmt.Errorf("failed to create index on %s.%s: %w", table.Name, col.Name, err)
		}
	}

	return nil
}

func columnDef(col types.DBColumn) string {
	parts := []string{pq.QuoteIdentifier(col.Name), typeForKind(col.TypeKind)}
	if col.IsPrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	} else if !col.IsNullable {
		parts = append(parts, "NOT NULL")
	}
	if col.ForeignTable != nil {
		fc := "id"
		if col.ForeignColumn != nil {
			fc = *col.ForeignColumn
		}
		parts = append(parts, fmt.Sprintf("REFERENCES %s (%s)",
			pq.QuoteIdentifier(*col.ForeignTable), pq.QuoteIdentifier(fc)))
	}
	return strings.Join(parts, " ")
}

func typeForKind(kind string) string {
	switch kind {
	case types.KindInteger:
		return "INTEGER"
	case types.KindFloat:
		return "DOUBLE PRECISION"
	case types.KindNumeric:
		return "NUMERIC"
	case types.KindString:
		return "VARCHAR(255)"
	case types.KindText:
		return "TEXT"
	case types.KindBoolean:
		return "BOOLEAN"
	case types.KindDateTime:
		return "TIMESTAMP"
	case types.KindDate:
		return "DATE"
	case types.KindBinary:
		return "BYTEA"
	case types.KindJSON:
		return "JSONB"
	}
	return "TEXT"
}

// ExecuteSQL executes a statement inside the open transaction, if any.
func (w *Writer) ExecuteSQL(sqlStr string) error {
	var err error
	if w.tx != nil {
		_, err = w.tx.Exec(sqlStr)
	} else {
		_, err = w.db.Exec(sqlStr)
	}
	if err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// BeginTransaction starts a transaction for subsequent ExecuteSQL calls.
func (w *Writer) BeginTransaction() error {
	if w.tx != nil {
		return fmt.Errorf("transaction already in progress")
	}
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	w.tx = tx
	return nil
}

// CommitTransaction commits the open transaction.
func (w *Writer) CommitTransaction() error {
	if w.tx == nil {
		return fmt.Errorf("no transaction in progress")
	}
	err := w.tx.Commit()
	w.tx = nil
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RollbackTransaction rolls back the open transaction.
func (w *Writer) RollbackTransaction() error {
	if w.tx == nil {
		return fmt.Errorf("no transaction in progress")
	}
	err := w.tx.Rollback()
	w.tx = nil
	if err != nil {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}
