// Package migrator executes versioned schema migrations against a database
// connection. It owns the modern version-tracking table (schema_migrations)
// and the notion of the head revision: the newest migration known to the
// provider.
package migrator

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"sort"

	"github.com/sekhmet/sekhmet/dbschema"
)

// MigrationStatus represents the current state of migrations
type MigrationStatus struct {
	CurrentVersion    int   `json:"current_version"`
	PendingMigrations []int `json:"pending_migrations"`
	TotalMigrations   int   `json:"total_migrations"`
	HasPendingChanges bool  `json:"has_pending_changes"`
}

// Migrator handles database migrations
type Migrator struct {
	conn              *dbschema.DatabaseConnection
	migrationProvider MigrationProvider
	initialized       bool
	logger            *slog.Logger
}

// NewFSMigrator creates a new migrator that loads migrations from a filesystem.
// It scans the provided filesystem for migration files following the naming convention
// NNNNNNNNNN_description.up.sql and NNNNNNNNNN_description.down.sql and automatically
// registers them with the migrator. Returns an error if the filesystem cannot be scanned
// or if any migrations are incomplete (missing up or down files).
func NewFSMigrator(conn *dbschema.DatabaseConnection, fsys fs.FS) (*Migrator, error) {
	provider, err := NewFSMigrationProvider(fsys)
	if err != nil {
		return nil, err
	}
	return NewMigrator(conn, provider), nil
}

// NewMigrator creates a new migrator with the given database connection
func NewMigrator(conn *dbschema.DatabaseConnection, provider MigrationProvider) *Migrator {
	return &Migrator{
		conn:              conn,
		migrationProvider: provider,
		logger:            slog.Default(),
	}
}

// WithLogger sets the logger for the migrator
func (m *Migrator) WithLogger(l *slog.Logger) *Migrator {
	tmp := *m
	tmp.logger = l
	return &tmp
}

// Initialize creates the migrations table if it doesn't exist
func (m *Migrator) Initialize(ctx context.Context) error {
	if m.initialized {
		return nil
	}

	// Execute the schema creation SQL directly on the database connection
	// to avoid transaction conflicts with the schema writer
	_, err := m.conn.ExecContext(ctx, migrationsSchemaSQL)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	m.initialized = true
	return nil
}

// HeadVersion returns the newest migration version known to the provider, or
// 0 if no migrations are registered.
func (m *Migrator) HeadVersion() int {
	migrations := m.migrationProvider.Migrations()
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}

// GetCurrentVersion returns the current migration version from the database
func (m *Migrator) GetCurrentVersion(ctx context.Context) (int, error) {
	if err := m.Initialize(ctx); err != nil {
		return 0, fmt.Errorf("failed to initialize migrations table: %w", err)
	}

	var version int
	row := m.conn.QueryRowContext(ctx, getVersionSQL)
	if err := row.Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}

	return version, nil
}

// GetAppliedMigrations returns a list of applied migration versions
func (m *Migrator) GetAppliedMigrations(ctx context.Context) ([]int, error) {
	if err := m.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize migrations table: %w", err)
	}

	rows, err := m.conn.Query("SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	var applied []int
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied = append(applied, version)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating migration rows: %w", err)
	}

	return applied, nil
}

// GetPendingMigrations returns a list of pending migration versions
func (m *Migrator) GetPendingMigrations(ctx context.Context) ([]int, error) {
	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return nil, err
	}

	migrations := m.migrationProvider.Migrations()

	var pending []int
	for _, migration := range migrations {
		if migration.Version > currentVersion {
			pending = append(pending, migration.Version)
		}
	}

	sort.Ints(pending)
	return pending, nil
}

// GetMigrationStatus returns information about the current migration status
func (m *Migrator) GetMigrationStatus(ctx context.Context) (*MigrationStatus, error) {
	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current version: %w", err)
	}

	pendingMigrations, err := m.GetPendingMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending migrations: %w", err)
	}

	return &MigrationStatus{
		CurrentVersion:    currentVersion,
		PendingMigrations: pendingMigrations,
		TotalMigrations:   len(m.MigrationProvider().Migrations()),
		HasPendingChanges: len(pendingMigrations) > 0,
	}, nil
}

// UpgradeToHead migrates the database up to the newest known version.
func (m *Migrator) UpgradeToHead(ctx context.Context) error {
	return m.MigrateUp(ctx)
}

// Stamp marks the database as being at the given version without executing
// any migration steps. All migrations up to and including the version are
// recorded as applied. Stamping is how a database whose tables already exist
// through other means is brought under version control.
func (m *Migrator) Stamp(ctx context.Context, version int) error {
	if err := m.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize migrations table: %w", err)
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}
	isApplied := make(map[int]bool, len(applied))
	for _, v := range applied {
		isApplied[v] = true
	}

	m.logger.Info("Stamping database", "version", version)

	for _, migration := range m.migrationProvider.Migrations() {
		if migration.Version > version || isApplied[migration.Version] {
			continue
		}

		timestamp := FormatTimestampForDatabase(m.conn.Info().Dialect)
		recordSQL := fmt.Sprintf(recordMigrationSQL, migration.Version, migration.Description, timestamp)
		if _, err := m.conn.ExecContext(ctx, recordSQL); err != nil {
			return fmt.Errorf("failed to stamp migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// MigrateUp migrates the database up to the latest version
func (m *Migrator) MigrateUp(ctx context.Context) error {
	if err := m.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize migrations table: %w", err)
	}

	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	migrations := m.migrationProvider.Migrations()

	m.logger.Info("Migrating up", "currentVersion", currentVersion, "totalMigrations", len(migrations))

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		if err := m.applyMigration(ctx, migration); err != nil {
			return err
		}
	}

	m.logger.Info("All migrations applied successfully")
	return nil
}

// MigrateDownTo migrates the database down to the specified target version
func (m *Migrator) MigrateDownTo(ctx context.Context, targetVersion int) error {
	if err := m.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize migrations table: %w", err)
	}

	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	if targetVersion >= currentVersion {
		m.logger.Info("Already at or below target version", "targetVersion", targetVersion, "currentVersion", currentVersion)
		return nil
	}

	m.logger.Info("Migrating down", "targetVersion", targetVersion, "currentVersion", currentVersion)

	// Roll back newest first. The provider's slice stays ascending, so
	// sort a copy.
	migrations := slices.Clone(m.migrationProvider.Migrations())
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version > migrations[j].Version
	})

	for _, migration := range migrations {
		if migration.Version <= targetVersion || migration.Version > currentVersion {
			continue
		}

		m.logger.Info("Rolling back migration", "version", migration.Version, "description", migration.Description)

		if err := m.conn.Writer().BeginTransaction(); err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Down(ctx, m.conn); err != nil {
			_ = m.conn.Writer().RollbackTransaction()
			return fmt.Errorf("failed to revert migration %d: %w", migration.Version, err)
		}

		deleteSQL := fmt.Sprintf(deleteMigrationSQL, migration.Version)
		if err := m.conn.Writer().ExecuteSQL(deleteSQL); err != nil {
			_ = m.conn.Writer().RollbackTransaction()
			return fmt.Errorf("failed to record migration reversion %d: %w", migration.Version, err)
		}

		if err := m.conn.Writer().CommitTransaction(); err != nil {
			return fmt.Errorf("failed to commit transaction for migration %d: %w", migration.Version, err)
		}

		m.logger.Info("Rolled back migration", "version", migration.Version, "description", migration.Description)
	}

	return nil
}

// MigrateTo migrates the database to a specific version (up or down)
func (m *Migrator) MigrateTo(ctx context.Context, targetVersion int) error {
	if err := m.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize migrations table: %w", err)
	}

	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	if targetVersion == currentVersion {
		m.logger.Info("Already at target version", "version", targetVersion)
		return nil
	}

	if targetVersion > currentVersion {
		return m.migrateUpTo(ctx, targetVersion)
	}

	return m.MigrateDownTo(ctx, targetVersion)
}

// MigrationProvider returns the migration provider
func (m *Migrator) MigrationProvider() MigrationProvider {
	return m.migrationProvider
}

func (m *Migrator) migrateUpTo(ctx context.Context, targetVersion int) error {
	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	m.logger.Info("Migrating up", "currentVersion", currentVersion, "targetVersion", targetVersion)

	for _, migration := range m.migrationProvider.Migrations() {
		if migration.Version <= currentVersion || migration.Version > targetVersion {
			continue
		}

		if err := m.applyMigration(ctx, migration); err != nil {
			return err
		}
	}

	m.logger.Info("Migrated successfully", "targetVersion", targetVersion)
	return nil
}

// applyMigration runs one migration and records it, inside a transaction.
func (m *Migrator) applyMigration(ctx context.Context, migration *Migration) error {
	m.logger.Info("Applying migration", "version", migration.Version, "description", migration.Description)

	if err := m.conn.Writer().BeginTransaction(); err != nil {
		return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
	}

	if err := migration.Up(ctx, m.conn); err != nil {
		_ = m.conn.Writer().RollbackTransaction()
		return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
	}

	timestamp := FormatTimestampForDatabase(m.conn.Info().Dialect)
	recordSQL := fmt.Sprintf(recordMigrationSQL, migration.Version, migration.Description, timestamp)
	if err := m.conn.Writer().ExecuteSQL(recordSQL); err != nil {
		_ = m.conn.Writer().RollbackTransaction()
		return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
	}

	if err := m.conn.Writer().CommitTransaction(); err != nil {
		return fmt.Errorf("failed to commit transaction for migration %d: %w", migration.Version, err)
	}

	m.logger.Info("Applied migration", "version", migration.Version, "description", migration.Description)
	return nil
}
