// Package dbschema provides database connections with dialect-aware schema
// readers and writers on top of database/sql.
package dbschema

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"

	mysqlschema "github.com/sekhmet/sekhmet/dbschema/mysql"
	"github.com/sekhmet/sekhmet/dbschema/postgres"
	sqliteschema "github.com/sekhmet/sekhmet/dbschema/sqlite"
	"github.com/sekhmet/sekhmet/dbschema/types"
)

// DatabaseConnection bundles a database handle with the dialect-specific
// schema reader and writer for it.
type DatabaseConnection struct {
	db     *sql.DB
	reader types.SchemaReader
	writer types.SchemaWriter
	info   types.DBInfo
}

// ConnectToDatabase opens a connection for the given database URL and wires
// up the dialect-specific schema reader and writer. Supported URL schemes are
// postgres://, mysql:// and sqlite://.
func ConnectToDatabase(dbURL string) (*DatabaseConnection, error) {
	dialect, err := DialectFromURL(dbURL)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	var reader types.SchemaReader
	var writer types.SchemaWriter
	var schema string

	switch dialect {
	case "postgres":
		db, err = sql.Open("pgx", removePostgresPoolParams(dbURL))
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres connection: %w", err)
		}
		schema = "public"
		reader = postgres.NewPostgreSQLReader(db, schema)
		writer = postgres.NewPostgreSQLWriter(db)
	case "mysql":
		dsn, derr := mysqlDSNFromURL(dbURL)
		if derr != nil {
			return nil, derr
		}
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open mysql connection: %w", err)
		}
		schema = databaseNameFromURL(dbURL)
		reader = mysqlschema.NewMySQLReader(db, schema)
		writer = mysqlschema.NewMySQLWriter(db)
	case "sqlite":
		path := sqlitePathFromURL(dbURL)
		db, err = sql.Open("sqlite", path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite connection: %w", err)
		}
		schema = "main"
		reader = sqliteschema.NewSQLiteReader(db)
		writer = sqliteschema.NewSQLiteWriter(db)
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseConnection{
		db:     db,
		reader: reader,
		writer: writer,
		info: types.DBInfo{
			Dialect: dialect,
			Schema:  schema,
			URL:     dbURL,
		},
	}, nil
}

// Reader returns the schema reader for this connection's dialect.
func (c *DatabaseConnection) Reader() types.SchemaReader {
	return c.reader
}

// Writer returns the schema writer for this connection's dialect.
func (c *DatabaseConnection) Writer() types.SchemaWriter {
	return c.writer
}

// Info returns connection metadata.
func (c *DatabaseConnection) Info() types.DBInfo {
	return c.info
}

// Exec executes a statement on the underlying database handle.
func (c *DatabaseConnection) Exec(query string, args ...any) (sql.Result, error) {
	return c.db.Exec(query, args...)
}

// ExecContext executes a statement on the underlying database handle.
func (c *DatabaseConnection) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.db.ExecContext(ctx, query, args...)
}

// Query runs a query on the underlying database handle.
func (c *DatabaseConnection) Query(query string, args ...any) (*sql.Rows, error) {
	return c.db.Query(query, args...)
}

// QueryRowContext runs a single-row query on the underlying database handle.
func (c *DatabaseConnection) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return c.db.QueryRowContext(ctx, query, args...)
}

// Close closes the underlying database handle.
func (c *DatabaseConnection) Close() error {
	return c.db.Close()
}

// DatabaseExists reports whether the database the URL points at exists,
// without creating it. For server dialects this connects to the server's
// maintenance database; for sqlite it checks the file.
func DatabaseExists(dbURL string) (bool, error) {
	dialect, err := DialectFromURL(dbURL)
	if err != nil {
		return false, err
	}

	switch dialect {
	case "postgres":
		return postgresDatabaseExists(dbURL)
	case "mysql":
		return mysqlDatabaseExists(dbURL)
	case "sqlite":
		path := sqlitePathFromURL(dbURL)
		if path == ":memory:" || strings.HasPrefix(path, "file::memory:") {
			return false, nil
		}
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return false, nil
			}
			return false, fmt.Errorf("failed to stat sqlite database file: %w", err)
		}
		return true, nil
	}
	return false, fmt.Errorf("unsupported dialect: %s", dialect)
}

// CreateDatabase creates the database the URL points at. For sqlite this is a
// no-op: the file is created on first connection.
func CreateDatabase(dbURL string) error {
	dialect, err := DialectFromURL(dbURL)
	if err != nil {
		return err
	}

	switch dialect {
	case "postgres":
		admin, name, err := postgresAdminConnection(dbURL)
		if err != nil {
			return err
		}
		defer admin.Close()
		if _, err := admin.Exec("CREATE DATABASE " + pq.QuoteIdentifier(name)); err != nil {
			return fmt.Errorf("failed to create database %s: %w", name, err)
		}
		return nil
	case "mysql":
		admin, name, err := mysqlAdminConnection(dbURL)
		if err != nil {
			return err
		}
		defer admin.Close()
		if _, err := admin.Exec("CREATE DATABASE `" + name + "`"); err != nil {
			return fmt.Errorf("failed to create database %s: %w", name, err)
		}
		return nil
	case "sqlite":
		return nil
	}
	return fmt.Errorf("unsupported dialect: %s", dialect)
}

// DialectFromURL determines the database dialect from a connection URL.
func DialectFromURL(dbURL string) (string, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse database URL: %w", err)
	}
	switch u.Scheme {
	case "postgres", "postgresql":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "sqlite", "sqlite3", "file":
		return "sqlite", nil
	}
	return "", fmt.Errorf("unsupported database URL scheme: %q", u.Scheme)
}

func postgresAdminConnection(dbURL string) (*sql.DB, string, error) {
	u, err := url.Parse(removePostgresPoolParams(dbURL))
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse database URL: %w", err)
	}
	name := strings.TrimPrefix(u.Path, "/")
	u.Path = "/postgres"
	admin, err := sql.Open("pgx", u.String())
	if err != nil {
		return nil, "", fmt.Errorf("failed to open postgres admin connection: %w", err)
	}
	return admin, name, nil
}

func postgresDatabaseExists(dbURL string) (bool, error) {
	admin, name, err := postgresAdminConnection(dbURL)
	if err != nil {
		return false, err
	}
	defer admin.Close()

	var exists bool
	row := admin.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", name)
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check database existence: %w", err)
	}
	return exists, nil
}

func mysqlAdminConnection(dbURL string) (*sql.DB, string, error) {
	cfg, err := mysqlConfigFromURL(dbURL)
	if err != nil {
		return nil, "", err
	}
	name := cfg.DBName
	cfg.DBName = ""
	admin, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, "", fmt.Errorf("failed to open mysql admin connection: %w", err)
	}
	return admin, name, nil
}

func mysqlDatabaseExists(dbURL string) (bool, error) {
	admin, name, err := mysqlAdminConnection(dbURL)
	if err != nil {
		return false, err
	}
	defer admin.Close()

	var exists bool
	row := admin.QueryRow("SELECT EXISTS(SELECT 1 FROM information_schema.SCHEMATA WHERE SCHEMA_NAME = ?)", name)
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check database existence: %w", err)
	}
	return exists, nil
}

// mysqlConfigFromURL converts a mysql:// URL into a driver configuration.
func mysqlConfigFromURL(dbURL string) (*mysql.Config, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if u.User != nil {
		cfg.User = u.User.Username()
		if pass, ok := u.User.Password(); ok {
			cfg.Passwd = pass
		}
	}
	cfg.ParseTime = true
	return cfg, nil
}

func mysqlDSNFromURL(dbURL string) (string, error) {
	cfg, err := mysqlConfigFromURL(dbURL)
	if err != nil {
		return "", err
	}
	return cfg.FormatDSN(), nil
}

func databaseNameFromURL(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

// sqlitePathFromURL extracts the filesystem path from a sqlite URL. URLs of
// the form sqlite:///path/to/file.db and sqlite://file.db are both accepted.
func sqlitePathFromURL(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		return dbURL
	}
	if u.Opaque != "" {
		return u.Opaque
	}
	path := u.Path
	if u.Host != "" {
		path = u.Host + path
	}
	if path == "" {
		return dbURL
	}
	return path
}

// removePostgresPoolParams strips pgx pool tuning parameters from a postgres
// URL so the URL can be used with database/sql, which does not understand
// them. Non-postgres parameters are preserved.
func removePostgresPoolParams(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		return dbURL
	}

	q := u.Query()
	_, hasMax := q["pool_max_conns"]
	_, hasMin := q["pool_min_conns"]
	if !hasMax && !hasMin {
		return dbURL
	}

	delete(q, "pool_max_conns")
	delete(q, "pool_min_conns")
	u.RawQuery = q.Encode()
	return u.String()
}
