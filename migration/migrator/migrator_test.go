package migrator_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"testing/fstest"

	qt "github.com/frankban/quicktest"

	"github.com/sekhmet/sekhmet/dbschema"
	"github.com/sekhmet/sekhmet/migration/migrator"
)

func TestNewMigrator(t *testing.T) {
	c := qt.New(t)

	provider := migrator.NewRegisteredMigrationProvider()

	m := migrator.NewMigrator(nil, provider)
	c.Assert(m, qt.IsNotNil)
	c.Assert(m.MigrationProvider(), qt.Equals, provider)
}

func TestNewFSMigrator_Success(t *testing.T) {
	c := qt.New(t)

	fsys := fstest.MapFS{
		"0000000001_create_users.up.sql": &fstest.MapFile{
			Data: []byte("CREATE TABLE users (id SERIAL PRIMARY KEY);"),
		},
		"0000000001_create_users.down.sql": &fstest.MapFile{
			Data: []byte("DROP TABLE users;"),
		},
	}

	m, err := migrator.NewFSMigrator(nil, fsys)
	c.Assert(err, qt.IsNil)
	c.Assert(m.MigrationProvider().Migrations(), qt.HasLen, 1)
}

func TestNewFSMigrator_InvalidFilesystem(t *testing.T) {
	c := qt.New(t)

	fsys := fstest.MapFS{
		"0000000001_create_users.up.sql": &fstest.MapFile{
			Data: []byte("CREATE TABLE users (id SERIAL PRIMARY KEY);"),
		},
		// no matching down file
	}

	m, err := migrator.NewFSMigrator(nil, fsys)
	c.Assert(err, qt.IsNotNil)
	c.Assert(m, qt.IsNil)
}

func TestMigrator_HeadVersion(t *testing.T) {
	c := qt.New(t)

	provider := migrator.NewRegisteredMigrationProvider(
		migrator.CreateMigrationFromSQL(3, "third", "SELECT 3", "SELECT 3"),
		migrator.CreateMigrationFromSQL(1, "first", "SELECT 1", "SELECT 1"),
		migrator.CreateMigrationFromSQL(2, "second", "SELECT 2", "SELECT 2"),
	)
	m := migrator.NewMigrator(nil, provider)

	c.Assert(m.HeadVersion(), qt.Equals, 3)
}

func TestMigrator_HeadVersion_NoMigrations(t *testing.T) {
	c := qt.New(t)

	m := migrator.NewMigrator(nil, migrator.NewRegisteredMigrationProvider())
	c.Assert(m.HeadVersion(), qt.Equals, 0)
}

func TestMigrator_WithLogger(t *testing.T) {
	c := qt.New(t)

	m := migrator.NewMigrator(nil, migrator.NewRegisteredMigrationProvider())
	m2 := m.WithLogger(slog.Default())

	// WithLogger returns a copy
	c.Assert(m2, qt.Not(qt.Equals), m)
	c.Assert(m2, qt.IsNotNil)
}

func TestMigrator_MigrateDownTo_PreservesProviderOrder(t *testing.T) {
	c := qt.New(t)

	dbPath := filepath.Join(c.TB.TempDir(), "order.db")
	conn, err := dbschema.ConnectToDatabase("sqlite://" + dbPath)
	c.Assert(err, qt.IsNil)
	defer conn.Close()

	provider := migrator.NewRegisteredMigrationProvider(
		migrator.CreateMigrationFromSQL(1, "create users",
			"CREATE TABLE users (id INTEGER PRIMARY KEY);", "DROP TABLE users;"),
		migrator.CreateMigrationFromSQL(2, "create posts",
			"CREATE TABLE posts (id INTEGER PRIMARY KEY);", "DROP TABLE posts;"),
		migrator.CreateMigrationFromSQL(3, "create tags",
			"CREATE TABLE tags (id INTEGER PRIMARY KEY);", "DROP TABLE tags;"),
	)
	m := migrator.NewMigrator(conn, provider)

	ctx := context.Background()
	c.Assert(m.MigrateUp(ctx), qt.IsNil)
	c.Assert(m.MigrateDownTo(ctx, 0), qt.IsNil)

	// Rolling back must not disturb the provider's ascending order.
	c.Assert(m.HeadVersion(), qt.Equals, 3)
	var versions []int
	for _, migration := range provider.Migrations() {
		versions = append(versions, migration.Version)
	}
	c.Assert(versions, qt.DeepEquals, []int{1, 2, 3})

	// A later upgrade starts over from the oldest migration.
	c.Assert(m.MigrateUp(ctx), qt.IsNil)
	current, err := m.GetCurrentVersion(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(current, qt.Equals, 3)
}

// Migration execution against the other dialects is covered by the guard
// package tests, which drive the migrator through in-memory fakes, and by
// integration tests against real databases.
