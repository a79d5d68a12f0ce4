package guard

import (
	"context"
	"io/fs"

	"github.com/sekhmet/sekhmet/dbschema/types"
	"github.com/sekhmet/sekhmet/migration/migrator"
)

// Run is the application-startup entry point: it connects to the database at
// dbURL, builds a migration executor from the migration scripts in fsys, and
// runs the schema-state gate against the expected schema. It returns nil when
// the database is confirmed safe to use.
func Run(ctx context.Context, dbURL string, expected *types.DBSchema, fsys fs.FS, opts Options) error {
	provider, err := migrator.NewFSMigrationProvider(fsys)
	if err != nil {
		return &ExecutorError{Err: err}
	}

	db := NewConnectionDatabase(dbURL)
	defer db.Close()

	executor := &lazyExecutor{db: db, provider: provider}
	return New(db, executor, expected, opts).Run(ctx)
}

// lazyExecutor defers migrator construction until first use. The underlying
// connection cannot be opened before the guard has had a chance to create a
// missing database.
type lazyExecutor struct {
	db       *ConnectionDatabase
	provider migrator.MigrationProvider
	m        *migrator.Migrator
}

func (e *lazyExecutor) migrator() (*migrator.Migrator, error) {
	if e.m == nil {
		conn, err := e.db.Conn()
		if err != nil {
			return nil, err
		}
		e.m = migrator.NewMigrator(conn, e.provider)
	}
	return e.m, nil
}

// HeadVersion needs only the migration provider, never the connection.
func (e *lazyExecutor) HeadVersion() int {
	migrations := e.provider.Migrations()
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}

func (e *lazyExecutor) UpgradeToHead(ctx context.Context) error {
	m, err := e.migrator()
	if err != nil {
		return err
	}
	return m.UpgradeToHead(ctx)
}

func (e *lazyExecutor) Stamp(ctx context.Context, version int) error {
	m, err := e.migrator()
	if err != nil {
		return err
	}
	return m.Stamp(ctx, version)
}
