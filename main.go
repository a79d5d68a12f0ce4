package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sekhmet/sekhmet/cmd/check"
	"github.com/sekhmet/sekhmet/cmd/status"
)

var rootCmd = &cobra.Command{
	Use:   "sekhmet",
	Short: "Database schema guard",
	Long: `Sekhmet gates application startup on the state of a database schema.

It classifies the target database against two version-tracking schemes,
verifies the live structure against an expected schema definition, and either
initializes, upgrades (when authorized), or refuses with a specific error.

Flags can also be set through SEKHMET_* environment variables, e.g.
SEKHMET_DB_URL.`,
}

func main() {
	viper.SetEnvPrefix("SEKHMET")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	level := slog.LevelInfo
	if viper.GetBool("debug") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	rootCmd.AddCommand(check.NewCheckCommand())
	rootCmd.AddCommand(status.NewStatusCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
