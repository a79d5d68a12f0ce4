// Package guard gates application startup on the state of a database schema.
//
// A Guard classifies the target database relative to two historical
// version-tracking schemes, compares the live structure against the expected
// schema when the database claims to be current, and decides per state
// whether to initialize, upgrade, proceed, or refuse with a typed error.
// Upgrades run only when explicitly authorized via AutoMigrate, and every
// executed upgrade is followed by an independent structural re-verification.
package guard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sekhmet/sekhmet/config"
	"github.com/sekhmet/sekhmet/dbschema/types"
	"github.com/sekhmet/sekhmet/migration/compare"
)

// Database is the narrow view of a database the guard needs: existence and
// creation, structural introspection, and the recorded revision of either
// version-tracking scheme.
type Database interface {
	Exists(ctx context.Context) (bool, error)
	Create(ctx context.Context) error
	ReadSchema(ctx context.Context) (*types.DBSchema, error)
	TableExists(ctx context.Context, name string) (bool, error)
	ModernRevision(ctx context.Context) (int, error)
	LegacyRevision(ctx context.Context) (int, error)
	CreateTables(ctx context.Context, schema *types.DBSchema) error
}

// Executor applies migration steps. The guard treats any non-success as
// fatal and does not retry.
type Executor interface {
	// HeadVersion returns the newest revision in the chain, or 0 when the
	// chain is empty.
	HeadVersion() int
	// UpgradeToHead applies all pending migrations in order.
	UpgradeToHead(ctx context.Context) error
	// Stamp records revisions up to and including version as applied
	// without executing them.
	Stamp(ctx context.Context, version int) error
}

// Options control guard policy.
type Options struct {
	// AutoMigrate authorizes the guard to run upgrades. Creation from
	// nothing is always automated regardless of this flag; an unversioned
	// database is never automated regardless of this flag.
	AutoMigrate bool

	// Verify names the attributes that participate in structural
	// comparison. Defaults to config.DefaultVerifyOptions().
	Verify *config.VerifyOptions

	// LegacyRevisionMap maps legacy single-row revisions to modern
	// revisions for the bridge step. A legacy revision absent from the map
	// is a fatal ExecutorError, never a silent default to head.
	LegacyRevisionMap map[int]int
}

// Guard is the schema-state gate. Construct with New, then call Run once
// before any other component touches the database. Guards must not run
// concurrently against the same database.
type Guard struct {
	db       Database
	executor Executor
	expected *types.DBSchema
	opts     Options
	logger   *slog.Logger
}

// New creates a Guard for the given database, migration executor, and
// expected schema.
func New(db Database, executor Executor, expected *types.DBSchema, opts Options) *Guard {
	if opts.Verify == nil {
		opts.Verify = config.DefaultVerifyOptions()
	}
	return &Guard{
		db:       db,
		executor: executor,
		expected: expected,
		opts:     opts,
		logger:   slog.Default(),
	}
}

// WithLogger sets the logger used by the guard.
func (g *Guard) WithLogger(l *slog.Logger) *Guard {
	g.logger = l
	return g
}

// Classify probes the database and returns its versioning state. First match
// wins, and the modern table is checked before the legacy one: a fully
// migrated database may retain the legacy table as a historical artifact, so
// the modern table is the authoritative signal when both coexist.
func (g *Guard) Classify(ctx context.Context) (Classification, error) {
	exists, err := g.db.Exists(ctx)
	if err != nil {
		return Classification{}, &IntrospectionError{Err: err}
	}
	if !exists {
		return Classification{State: StateNoDatabase}, nil
	}

	hasModern, err := g.db.TableExists(ctx, types.ModernVersionTable)
	if err != nil {
		return Classification{}, &IntrospectionError{Err: err}
	}
	hasLegacy, err := g.db.TableExists(ctx, types.LegacyVersionTable)
	if err != nil {
		return Classification{}, &IntrospectionError{Err: err}
	}

	if !hasModern && !hasLegacy {
		schema, err := g.db.ReadSchema(ctx)
		if err != nil {
			return Classification{}, &IntrospectionError{Err: err}
		}
		if len(schema.Tables) == 0 {
			return Classification{State: StateEmptyDatabase}, nil
		}
		return Classification{State: StateUnversioned}, nil
	}

	if hasModern {
		revision, err := g.db.ModernRevision(ctx)
		if err != nil {
			return Classification{}, &IntrospectionError{Err: err}
		}
		return Classification{
			State:    StateModernVersioned,
			Revision: revision,
			IsHead:   revision == g.executor.HeadVersion(),
		}, nil
	}

	revision, err := g.db.LegacyRevision(ctx)
	if err != nil {
		return Classification{}, &IntrospectionError{Err: err}
	}
	return Classification{State: StateLegacyVersioned, Revision: revision}, nil
}

// Run classifies the database and enforces the gating policy. It returns nil
// when the database is confirmed safe to use, and exactly one typed error
// otherwise. Side effects are limited to the two creation states and to
// executor-driven upgrades; every other state is a read-only probe.
func (g *Guard) Run(ctx context.Context) error {
	cls, err := g.Classify(ctx)
	if err != nil {
		return err
	}

	g.logger.Info("classified database state",
		"state", cls.State.String(),
		"revision", cls.Revision,
		"is_head", cls.IsHead,
		"auto_migrate", g.opts.AutoMigrate)

	switch cls.State {
	case StateNoDatabase:
		if err := g.db.Create(ctx); err != nil {
			return &ExecutorError{Err: fmt.Errorf("create database: %w", err)}
		}
		return g.initialize(ctx)

	case StateEmptyDatabase:
		return g.initialize(ctx)

	case StateModernVersioned:
		if cls.IsHead {
			return g.verify(ctx, cls.Revision)
		}
		if !g.opts.AutoMigrate {
			return &OutdatedError{Revision: cls.Revision, Head: g.executor.HeadVersion()}
		}
		g.logger.Info("upgrading database to head",
			"from", cls.Revision,
			"head", g.executor.HeadVersion())
		if err := g.executor.UpgradeToHead(ctx); err != nil {
			return &ExecutorError{Err: err}
		}
		return g.verify(ctx, g.executor.HeadVersion())

	case StateLegacyVersioned:
		if !g.opts.AutoMigrate {
			return &LegacyVersioningError{Revision: cls.Revision}
		}
		modern, ok := g.opts.LegacyRevisionMap[cls.Revision]
		if !ok {
			return &ExecutorError{Err: fmt.Errorf("no modern revision mapped for legacy revision %d", cls.Revision)}
		}
		g.logger.Info("bridging legacy version tracking",
			"legacy_revision", cls.Revision,
			"stamp", modern)
		if err := g.executor.Stamp(ctx, modern); err != nil {
			return &ExecutorError{Err: err}
		}
		if err := g.executor.UpgradeToHead(ctx); err != nil {
			return &ExecutorError{Err: err}
		}
		return g.verify(ctx, g.executor.HeadVersion())

	case StateUnversioned:
		return &NoVersioningError{}
	}

	return fmt.Errorf("unhandled versioning state: %v", cls.State)
}

// initialize creates all expected tables in a fresh database and stamps the
// revision chain at head. Creation from nothing is always safe to automate:
// there is no data at risk.
func (g *Guard) initialize(ctx context.Context) error {
	head := g.executor.HeadVersion()
	g.logger.Info("initializing database from expected schema",
		"tables", len(g.expected.Tables),
		"head", head)

	if err := g.db.CreateTables(ctx, g.expected); err != nil {
		return &ExecutorError{Err: fmt.Errorf("create tables: %w", err)}
	}
	if err := g.executor.Stamp(ctx, head); err != nil {
		return &ExecutorError{Err: err}
	}
	return g.verify(ctx, head)
}

// verify compares the live structure against the expected schema. It runs
// after every executed upgrade and after initialization: the executor is
// untrusted until its resulting structure is independently confirmed.
func (g *Guard) verify(ctx context.Context, revision int) error {
	live, err := g.db.ReadSchema(ctx)
	if err != nil {
		return &IntrospectionError{Err: err}
	}
	mismatch := compare.Schemas(live, g.expected, g.opts.Verify.ColumnAttributes, g.opts.Verify.TypeAttributes)
	if mismatch != nil {
		return &SchemaDriftError{Revision: revision, Mismatch: mismatch}
	}
	g.logger.Debug("schema verified against expected structure", "revision", revision)
	return nil
}
