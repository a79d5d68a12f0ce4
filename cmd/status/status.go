package status

import (
	"context"
	"fmt"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sekhmet/sekhmet/migration/guard"
	"github.com/sekhmet/sekhmet/migration/migrator"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the database versioning state",
	Long: `Status classifies the database without touching it: which
version-tracking scheme is present, the recorded revision, and how it relates
to the head revision of the migration chain.

Examples:
  sekhmet status --db-url postgres://localhost/app
  sekhmet status --db-url sqlite://app.db --migrations-dir ./migrations`,
	RunE: statusCommand,
}

const (
	dbURLFlag         = "db-url"
	migrationsDirFlag = "migrations-dir"
)

var statusFlags = map[string]cobraflags.Flag{
	dbURLFlag: &cobraflags.StringFlag{
		Name:  dbURLFlag,
		Value: "",
		Usage: "Database URL (postgres://, mysql:// or sqlite://)",
	},
	migrationsDirFlag: &cobraflags.StringFlag{
		Name:  migrationsDirFlag,
		Value: "./migrations",
		Usage: "Directory containing migration files",
	},
}

var titleCase = cases.Title(language.English)

func NewStatusCommand() *cobra.Command {
	cobraflags.RegisterMap(statusCmd, statusFlags)
	return statusCmd
}

func statusCommand(cmd *cobra.Command, _ []string) error {
	dbURL := statusFlags[dbURLFlag].GetString()
	if dbURL == "" {
		return fmt.Errorf("database URL is required (use --db-url flag)")
	}

	provider, err := migrator.NewFSMigrationProvider(os.DirFS(statusFlags[migrationsDirFlag].GetString()))
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	db := guard.NewConnectionDatabase(dbURL)
	defer db.Close()

	head := 0
	if migrations := provider.Migrations(); len(migrations) > 0 {
		head = migrations[len(migrations)-1].Version
	}

	cls, err := classify(cmd, db, head)
	if err != nil {
		return err
	}

	fmt.Printf("State:    %s\n", cls.State)
	fmt.Printf("Head:     %d\n", head)

	switch cls.State {
	case guard.StateNoDatabase:
		return nil
	case guard.StateLegacyVersioned:
		fmt.Printf("Revision: %d (legacy)\n", cls.Revision)
	case guard.StateModernVersioned:
		fmt.Printf("Revision: %d\n", cls.Revision)
	}

	conn, err := db.Conn()
	if err != nil {
		return err
	}
	info := conn.Info()
	fmt.Printf("Dialect:  %s\n", titleCase.String(info.Dialect))

	// The migration report queries the tracking table, so it is only
	// meaningful once the modern scheme is in place.
	if cls.State != guard.StateModernVersioned {
		return nil
	}

	m := migrator.NewMigrator(conn, provider)
	report, err := m.GetMigrationStatus(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}

	fmt.Printf("Applied:  %d of %d\n", report.TotalMigrations-len(report.PendingMigrations), report.TotalMigrations)
	fmt.Printf("Pending:  %d\n", len(report.PendingMigrations))
	if len(report.PendingMigrations) > 0 {
		fmt.Printf("Next:     %d\n", report.PendingMigrations[0])
	}
	return nil
}

func classify(cmd *cobra.Command, db *guard.ConnectionDatabase, head int) (guard.Classification, error) {
	g := guard.New(db, headOnlyExecutor{head: head}, nil, guard.Options{})
	return g.Classify(cmd.Context())
}

// headOnlyExecutor satisfies the guard's executor interface for read-only
// classification. Classification never upgrades or stamps.
type headOnlyExecutor struct {
	head int
}

func (e headOnlyExecutor) HeadVersion() int { return e.head }

func (e headOnlyExecutor) UpgradeToHead(context.Context) error {
	return fmt.Errorf("status is read-only")
}

func (e headOnlyExecutor) Stamp(context.Context, int) error {
	return fmt.Errorf("status is read-only")
}
