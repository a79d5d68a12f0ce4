package check

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/sekhmet/sekhmet/core/schemadef"
	"github.com/sekhmet/sekhmet/dbschema/types"
	"github.com/sekhmet/sekhmet/migration/guard"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the database schema state and optionally migrate",
	Long: `Check classifies the database against the expected schema and the
version-tracking tables, then gates on the result.

A missing or empty database is created from the expected schema and stamped at
head. A database at head is structurally verified. Anything else fails with a
specific error unless --auto-migrate authorizes an upgrade. An unversioned
database is never migrated automatically.

Examples:
  sekhmet check --db-url postgres://localhost/app --schema-file schema.json
  sekhmet check --db-url mysql://root@localhost/app --auto-migrate
  sekhmet check --db-url sqlite://app.db --legacy-map 17=2,18=3 --auto-migrate`,
	RunE: checkCommand,
}

const (
	dbURLFlag         = "db-url"
	schemaFileFlag    = "schema-file"
	migrationsDirFlag = "migrations-dir"
	autoMigrateFlag   = "auto-migrate"
	legacyMapFlag     = "legacy-map"
)

var checkFlags = map[string]cobraflags.Flag{
	dbURLFlag: &cobraflags.StringFlag{
		Name:  dbURLFlag,
		Value: "",
		Usage: "Database URL (postgres://, mysql:// or sqlite://)",
	},
	schemaFileFlag: &cobraflags.StringFlag{
		Name:  schemaFileFlag,
		Value: "./schema.json",
		Usage: "Path to the expected schema definition (JSON)",
	},
	migrationsDirFlag: &cobraflags.StringFlag{
		Name:  migrationsDirFlag,
		Value: "./migrations",
		Usage: "Directory containing migration files",
	},
	autoMigrateFlag: &cobraflags.BoolFlag{
		Name:  autoMigrateFlag,
		Value: false,
		Usage: "Authorize upgrading an outdated or legacy-versioned database",
	},
	legacyMapFlag: &cobraflags.StringFlag{
		Name:  legacyMapFlag,
		Value: "",
		Usage: "Legacy-to-modern revision mapping as legacy=modern[,legacy=modern]",
	},
}

func NewCheckCommand() *cobra.Command {
	cobraflags.RegisterMap(checkCmd, checkFlags)
	return checkCmd
}

func checkCommand(cmd *cobra.Command, _ []string) error {
	dbURL := checkFlags[dbURLFlag].GetString()
	if dbURL == "" {
		return fmt.Errorf("database URL is required (use --db-url flag)")
	}

	expected, err := loadExpectedSchema(checkFlags[schemaFileFlag].GetString())
	if err != nil {
		return err
	}

	legacyMap, err := parseLegacyMap(checkFlags[legacyMapFlag].GetString())
	if err != nil {
		return err
	}

	opts := guard.Options{
		AutoMigrate:       checkFlags[autoMigrateFlag].GetBool(),
		LegacyRevisionMap: legacyMap,
	}

	migrationsDir := checkFlags[migrationsDirFlag].GetString()
	if err := guard.Run(cmd.Context(), dbURL, expected, os.DirFS(migrationsDir), opts); err != nil {
		return err
	}

	fmt.Println("Database schema verified")
	return nil
}

func loadExpectedSchema(path string) (*types.DBSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read expected schema: %w", err)
	}
	def, err := schemadef.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid expected schema %s: %w", path, err)
	}
	return def.Schema(), nil
}

func parseLegacyMap(s string) (map[int]int, error) {
	if s == "" {
		return nil, nil
	}
	result := make(map[int]int)
	for _, pair := range strings.Split(s, ",") {
		legacyStr, modernStr, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, fmt.Errorf("invalid legacy-map entry %q (want legacy=modern)", pair)
		}
		legacy, err := strconv.Atoi(legacyStr)
		if err != nil {
			return nil, fmt.Errorf("invalid legacy revision %q: %w", legacyStr, err)
		}
		modern, err := strconv.Atoi(modernStr)
		if err != nil {
			return nil, fmt.Errorf("invalid modern revision %q: %w", modernStr, err)
		}
		result[legacy] = modern
	}
	return result, nil
}
