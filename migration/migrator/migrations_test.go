package migrator

import (
	"context"
	"testing"
	"testing/fstest"

	qt "github.com/frankban/quicktest"
)

func TestNoopMigrationFunc(t *testing.T) {
	c := qt.New(t)

	err := NoopMigrationFunc(context.Background(), nil)
	c.Assert(err, qt.IsNil)
}

func TestCreateMigrationFromSQL(t *testing.T) {
	c := qt.New(t)

	migration := CreateMigrationFromSQL(1, "Create test table",
		"CREATE TABLE test (id SERIAL PRIMARY KEY)", "DROP TABLE test")

	c.Assert(migration.Version, qt.Equals, 1)
	c.Assert(migration.Description, qt.Equals, "Create test table")
	c.Assert(migration.Up, qt.IsNotNil)
	c.Assert(migration.Down, qt.IsNotNil)
}

func TestSplitSQLStatements(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		expected []string
	}{
		{
			name: "single statement",
			sql:  "CREATE TABLE users (id SERIAL PRIMARY KEY);",
			expected: []string{
				"CREATE TABLE users (id SERIAL PRIMARY KEY)",
			},
		},
		{
			name: "multiple statements",
			sql:  "CREATE TABLE users (id SERIAL PRIMARY KEY); CREATE INDEX idx_users_id ON users(id);",
			expected: []string{
				"CREATE TABLE users (id SERIAL PRIMARY KEY)",
				"CREATE INDEX idx_users_id ON users(id)",
			},
		},
		{
			name: "statements with comments",
			sql:  "-- Create users table\nCREATE TABLE users (id SERIAL PRIMARY KEY);\n/* and its index */\nCREATE INDEX idx_users_id ON users(id);",
			expected: []string{
				"CREATE TABLE users (id SERIAL PRIMARY KEY)",
				"CREATE INDEX idx_users_id ON users(id)",
			},
		},
		{
			name: "only comments",
			sql:  "-- This is a comment\n/* Another comment */",
		},
		{
			name: "empty SQL",
			sql:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			result := SplitSQLStatements(tt.sql)
			if tt.expected == nil {
				c.Assert(result, qt.HasLen, 0)
				return
			}
			c.Assert(result, qt.DeepEquals, tt.expected)
		})
	}
}

func TestParseMigrationFileName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		version int
		desc    string
		dir     string
		wantErr bool
	}{
		{name: "up file", input: "0000000001_create_users.up.sql", version: 1, desc: "Create Users", dir: "up"},
		{name: "down file", input: "0000000042_drop_legacy.down.sql", version: 42, desc: "Drop Legacy", dir: "down"},
		{name: "timestamp version", input: "1719403200_add_index.up.sql", version: 1719403200, desc: "Add Index", dir: "up"},
		{name: "missing direction", input: "0000000001_create_users.sql", wantErr: true},
		{name: "short version", input: "001_create_users.up.sql", wantErr: true},
		{name: "not sql", input: "0000000001_create_users.up.txt", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			mf, err := ParseMigrationFileName(tt.input)
			if tt.wantErr {
				c.Assert(err, qt.IsNotNil)
				return
			}
			c.Assert(err, qt.IsNil)
			c.Assert(mf.Version, qt.Equals, tt.version)
			c.Assert(mf.Name, qt.Equals, tt.desc)
			c.Assert(mf.Direction, qt.Equals, tt.dir)
		})
	}
}

func TestMigrationFuncFromSQLFilename_FileNotFound(t *testing.T) {
	c := qt.New(t)

	fsys := fstest.MapFS{}

	migrationFunc := MigrationFuncFromSQLFilename("nonexistent.sql", fsys)
	c.Assert(migrationFunc, qt.IsNotNil)

	err := migrationFunc(context.Background(), nil)
	c.Assert(err, qt.IsNotNil)
	c.Assert(err.Error(), qt.Contains, "failed to read migration file")
}
