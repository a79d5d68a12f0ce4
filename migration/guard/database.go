package guard

import (
	"context"
	"fmt"

	"github.com/sekhmet/sekhmet/dbschema"
	"github.com/sekhmet/sekhmet/dbschema/types"
)

// ConnectionDatabase adapts a database URL to the Database interface. The
// connection is opened lazily: existence is checked through out-of-band
// means first, so a guard can classify a database that does not exist yet
// without a failed connection attempt (and without an SQLite open creating
// the file as a side effect).
type ConnectionDatabase struct {
	url  string
	conn *dbschema.DatabaseConnection
}

// NewConnectionDatabase creates a ConnectionDatabase for the given URL.
func NewConnectionDatabase(dbURL string) *ConnectionDatabase {
	return &ConnectionDatabase{url: dbURL}
}

// Conn returns the underlying connection, opening it on first use.
func (d *ConnectionDatabase) Conn() (*dbschema.DatabaseConnection, error) {
	if d.conn == nil {
		conn, err := dbschema.ConnectToDatabase(d.url)
		if err != nil {
			return nil, err
		}
		d.conn = conn
	}
	return d.conn, nil
}

// Close closes the underlying connection if one was opened.
func (d *ConnectionDatabase) Close() error {
	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	return err
}

func (d *ConnectionDatabase) Exists(_ context.Context) (bool, error) {
	return dbschema.DatabaseExists(d.url)
}

func (d *ConnectionDatabase) Create(_ context.Context) error {
	return dbschema.CreateDatabase(d.url)
}

func (d *ConnectionDatabase) ReadSchema(_ context.Context) (*types.DBSchema, error) {
	conn, err := d.Conn()
	if err != nil {
		return nil, err
	}
	return conn.Reader().ReadSchema()
}

func (d *ConnectionDatabase) TableExists(_ context.Context, name string) (bool, error) {
	conn, err := d.Conn()
	if err != nil {
		return false, err
	}
	return conn.Reader().TableExists(name)
}

// ModernRevision returns the highest applied revision recorded in the
// revision-chain table, or 0 when the table is empty.
func (d *ConnectionDatabase) ModernRevision(ctx context.Context) (int, error) {
	conn, err := d.Conn()
	if err != nil {
		return 0, err
	}
	var revision int
	query := fmt.Sprintf("SELECT COALESCE(MAX(version), 0) FROM %s", types.ModernVersionTable)
	if err := conn.QueryRowContext(ctx, query).Scan(&revision); err != nil {
		return 0, fmt.Errorf("failed to read modern revision: %w", err)
	}
	return revision, nil
}

// LegacyRevision returns the value of the single-row legacy tracking table.
func (d *ConnectionDatabase) LegacyRevision(ctx context.Context) (int, error) {
	conn, err := d.Conn()
	if err != nil {
		return 0, err
	}
	var revision int
	query := fmt.Sprintf("SELECT version FROM %s", types.LegacyVersionTable)
	if err := conn.QueryRowContext(ctx, query).Scan(&revision); err != nil {
		return 0, fmt.Errorf("failed to read legacy revision: %w", err)
	}
	return revision, nil
}

// CreateTables creates every table in the schema in definition order.
// Referenced tables must precede their referrers in the definition.
func (d *ConnectionDatabase) CreateTables(_ context.Context, schema *types.DBSchema) error {
	conn, err := d.Conn()
	if err != nil {
		return err
	}
	for _, table := range schema.Tables {
		if err := conn.Writer().CreateTable(table); err != nil {
			return fmt.Errorf("failed to create table %q: %w", table.Name, err)
		}
	}
	return nil
}
