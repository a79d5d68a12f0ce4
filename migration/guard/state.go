package guard

import "fmt"

// State classifies a database relative to the two version-tracking schemes.
type State int

const (
	// StateNoDatabase means the database does not exist at the locator.
	StateNoDatabase State = iota
	// StateEmptyDatabase means the database exists but contains no tables.
	StateEmptyDatabase
	// StateModernVersioned means the revision-chain tracking table is
	// present. The legacy table may coexist as a historical artifact; the
	// modern table is the authoritative signal.
	StateModernVersioned
	// StateLegacyVersioned means only the single-row legacy tracking table
	// is present.
	StateLegacyVersioned
	// StateUnversioned means user tables exist but neither tracking table
	// does.
	StateUnversioned
)

func (s State) String() string {
	switch s {
	case StateNoDatabase:
		return "no-database"
	case StateEmptyDatabase:
		return "empty-database"
	case StateModernVersioned:
		return "modern-versioned"
	case StateLegacyVersioned:
		return "legacy-versioned"
	case StateUnversioned:
		return "unversioned"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Classification is the result of probing a database. It is produced fresh on
// every Run call and never cached, because the database may be mutated
// externally between calls.
type Classification struct {
	State State

	// Revision is the recorded revision: the highest applied revision for
	// StateModernVersioned, the single-row value for StateLegacyVersioned,
	// zero otherwise.
	Revision int

	// IsHead reports whether Revision equals the head of the revision
	// chain. Only meaningful for StateModernVersioned.
	IsHead bool
}
