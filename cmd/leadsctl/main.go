// Command leadsctl is the operator CLI: schema migrations, lead exports and
// the dashboard away flag.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	appconfig "github.com/wolfman30/contractor-leads/internal/config"
	"github.com/wolfman30/contractor-leads/pkg/logging"
)

var (
	databaseURL string
	logLevel    string
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "leadsctl",
	Short: "Operate the contractor lead service",
	Long: `leadsctl manages the contractor lead service database.

Available commands:
  migrate - Apply or inspect schema migrations
  export  - Export leads as CSV, TSV or XLSX
  away    - Show or toggle a dashboard role's away flag`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if databaseURL == "" {
			databaseURL = appconfig.Load().DatabaseURL
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres URL (defaults to DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newAwayCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func cliLogger() *logging.Logger {
	return logging.NewWithFormat(logLevel, "text")
}

func requireDatabaseURL() (string, error) {
	if databaseURL == "" {
		return "", fmt.Errorf("DATABASE_URL is required (or pass --database-url)")
	}
	return databaseURL, nil
}
