package migrator

import (
	"context"
	_ "embed"
	"fmt"
	"io/fs"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sekhmet/sekhmet/core/sqlutil"
	"github.com/sekhmet/sekhmet/dbschema"
)

//go:embed base/schema.sql
var migrationsSchemaSQL string

//go:embed base/get_version.sql
var getVersionSQL string

//go:embed base/record_migration.sql
var recordMigrationSQL string

//go:embed base/delete_migration.sql
var deleteMigrationSQL string

// MigrationFunc represents a migration function that operates on a database connection
type MigrationFunc func(context.Context, *dbschema.DatabaseConnection) error

// SplitSQLStatements splits a SQL string into individual statements.
// This is needed because MySQL doesn't handle multiple statements in a single
// ExecuteSQL call. Semicolons within string literals and comments are handled.
func SplitSQLStatements(sql string) []string {
	return sqlutil.SplitSQLStatements(sqlutil.StripComments(sql))
}

// MigrationFuncFromSQLFilename returns a migration function that reads SQL from a file
// in the provided filesystem and executes it using the database connection
func MigrationFuncFromSQLFilename(filename string, fsys fs.FS) MigrationFunc {
	return func(ctx context.Context, conn *dbschema.DatabaseConnection) error {
		sql, err := fs.ReadFile(fsys, filename)
		if err != nil {
			return fmt.Errorf("failed to read migration file: %w", err)
		}

		for _, stmt := range SplitSQLStatements(string(sql)) {
			if err := conn.Writer().ExecuteSQL(stmt); err != nil {
				return fmt.Errorf("failed to execute migration SQL: %w", err)
			}
		}

		return nil
	}
}

// NoopMigrationFunc is a no-op migration function
func NoopMigrationFunc(_ctx context.Context, _conn *dbschema.DatabaseConnection) error {
	return nil
}

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	Up          MigrationFunc
	Down        MigrationFunc
}

// CreateMigrationFromSQL creates a migration from SQL strings.
// This is useful for programmatically creating migrations.
func CreateMigrationFromSQL(version int, description, upSQL, downSQL string) *Migration {
	upFunc := func(ctx context.Context, conn *dbschema.DatabaseConnection) error {
		return executeSQLStatements(conn, upSQL)
	}

	downFunc := func(ctx context.Context, conn *dbschema.DatabaseConnection) error {
		return executeSQLStatements(conn, downSQL)
	}

	return &Migration{
		Version:     version,
		Description: description,
		Up:          upFunc,
		Down:        downFunc,
	}
}

func executeSQLStatements(conn *dbschema.DatabaseConnection, sql string) error {
	for _, stmt := range SplitSQLStatements(sql) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}

		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute SQL statement: %w\nSQL: %s", err, stmt)
		}
	}

	return nil
}

// MigrationFile is a parsed migration file name.
type MigrationFile struct {
	Version   int
	Name      string
	Direction string // up or down
}

var (
	migrationFileRe = regexp.MustCompile(`^(\d{10})_([a-zA-Z0-9_-]+)\.(up|down)\.sql$`)
	descriptionCase = cases.Title(language.English)
)

// ParseMigrationFileName parses a migration file name following the
// NNNNNNNNNN_description.up.sql / NNNNNNNNNN_description.down.sql convention.
// The description part is humanized: underscores become spaces and words are
// title-cased.
func ParseMigrationFileName(name string) (*MigrationFile, error) {
	matches := migrationFileRe.FindStringSubmatch(name)
	if matches == nil {
		return nil, fmt.Errorf("not a migration file name: %s", name)
	}

	version, err := strconv.Atoi(matches[1])
	if err != nil {
		return nil, fmt.Errorf("invalid migration version in %s: %w", name, err)
	}

	return &MigrationFile{
		Version:   version,
		Name:      descriptionCase.String(strings.ReplaceAll(matches[2], "_", " ")),
		Direction: matches[3],
	}, nil
}

// FormatTimestampForDatabase formats the current time for the applied_at
// column. All supported dialects accept this literal form.
func FormatTimestampForDatabase(_ string) string {
	return time.Now().UTC().Format("2006-01-02 15:04:05")
}
