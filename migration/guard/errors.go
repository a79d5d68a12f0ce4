package guard

import (
	"fmt"

	"github.com/sekhmet/sekhmet/migration/compare"
)

// NoVersioningError indicates that the database has user tables but no
// version-tracking table of any kind. There is no recorded provenance to act
// on, so automation is refused regardless of policy.
type NoVersioningError struct{}

func (e *NoVersioningError) Error() string {
	return "database has tables but no version tracking of any kind; manual intervention required"
}

// LegacyVersioningError indicates that the database is tracked only by the
// superseded single-row versioning scheme.
type LegacyVersioningError struct {
	Revision int
}

func (e *LegacyVersioningError) Error() string {
	return fmt.Sprintf("database uses legacy version tracking at revision %d; bridge to revision-chain tracking is required (enable auto-migrate or stamp manually)", e.Revision)
}

// OutdatedError indicates that the database is behind the head revision and
// automation was not authorized.
type OutdatedError struct {
	Revision int
	Head     int
}

func (e *OutdatedError) Error() string {
	return fmt.Sprintf("database revision %d is behind head revision %d; run the upgrade or enable auto-migrate", e.Revision, e.Head)
}

// SchemaDriftError indicates that the database claims to be at head but its
// live structure disagrees with the expected schema. Drift is never
// auto-fixed: it means the schema was edited out of band.
type SchemaDriftError struct {
	Revision int
	Mismatch *compare.Mismatch
}

func (e *SchemaDriftError) Error() string {
	return fmt.Sprintf("database at head revision %d has drifted from the expected schema: %s", e.Revision, e.Mismatch)
}

// IntrospectionError wraps a failure to inspect database state. No gating
// decision is sound without a live view, so it is always fatal.
type IntrospectionError struct {
	Err error
}

func (e *IntrospectionError) Error() string {
	return fmt.Sprintf("failed to inspect database state: %v", e.Err)
}

func (e *IntrospectionError) Unwrap() error {
	return e.Err
}

// ExecutorError wraps a failure reported by the migration executor during an
// authorized upgrade. Already-applied steps are not rolled back here; that is
// the executor's own transactional discipline.
type ExecutorError struct {
	Err error
}

func (e *ExecutorError) Error() string {
	return fmt.Sprintf("migration executor failed: %v", e.Err)
}

func (e *ExecutorError) Unwrap() error {
	return e.Err
}
