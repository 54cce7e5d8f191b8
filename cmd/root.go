package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	version    string
	configPath string
)

// SetVersion sets the version string
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "habanero",
	Short: "Hotfix mirror: reconciles the upstream hotfix catalog into a database and a git archive",
	Long: `habanero - periodically reconciles the upstream hotfix catalog against a
SQLite database and a git mirror repository.

New hotfixes are detected by content hash, fetched once, stored as rows and
committed onto a per-version branch plus a stable main branch. Re-running is
always safe: items already ingested are skipped, unchanged files produce no
commits.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "habanero.json", "path to the config file")
}
