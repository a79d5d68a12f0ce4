package types

// Version-tracking tables. These are not part of the application schema:
// ReadSchema implementations exclude them from their results.
const (
	// ModernVersionTable is the revision-chain tracking table owned by the
	// migration executor.
	ModernVersionTable = "schema_migrations"
	// LegacyVersionTable is the single-row tracking table of the superseded
	// versioning scheme. It may coexist with the modern table as a
	// historical artifact.
	LegacyVersionTable = "migrate_version"
)

// DBSchema represents a structural description of a set of tables, either
// read from a live database or constructed from the canonical expected
// schema definition.
type DBSchema struct {
	Tables []DBTable `json:"tables"`
}

// DBTable represents a database table
type DBTable struct {
	Name    string     `json:"name"`
	Columns []DBColumn `json:"columns"`
}

// DBColumn represents a database column
type DBColumn struct {
	Name            string  `json:"name"`
	TypeKind        string  `json:"type_kind"` // Semantic type category, not a storage-engine internal
	IsNullable      bool    `json:"is_nullable"`
	IsPrimaryKey    bool    `json:"is_primary_key"` // Derived field
	IsIndexed       bool    `json:"is_indexed"`     // Derived field
	ForeignTable    *string `json:"foreign_table"`  // For foreign keys
	ForeignColumn   *string `json:"foreign_column"` // For foreign keys
	OrdinalPosition int     `json:"ordinal_position"`
}

// DBInfo contains connection and metadata information
type DBInfo struct {
	Dialect string `json:"dialect"` // postgres, mysql, sqlite
	Version string `json:"version"`
	Schema  string `json:"schema"` // public, database name, etc.
	URL     string `json:"url"`    // database connection URL (for reference)
}

// Table returns the table with the given name, or false if the schema does
// not contain it.
func (s *DBSchema) Table(name string) (DBTable, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return DBTable{}, false
}

// Column returns the column with the given name, or false if the table does
// not contain it.
func (t *DBTable) Column(name string) (DBColumn, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return DBColumn{}, false
}

// SchemaReader interface for reading database schemas
type SchemaReader interface {
	// ReadSchema reads the structure of all user tables. Version-tracking
	// tables are excluded from the result.
	ReadSchema() (*DBSchema, error)
	// TableExists reports whether the named table exists, including the
	// version-tracking tables that ReadSchema excludes.
	TableExists(name string) (bool, error)
}

// SchemaWriter interface for writing schemas to databases
type SchemaWriter interface {
	CreateTable(table DBTable) error
	ExecuteSQL(sql string) error
	BeginTransaction() error
	CommitTransaction() error
	RollbackTransaction() error
}
