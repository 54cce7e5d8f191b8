package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/simplyzetax/habanero/internal/config"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one reconciliation run and print the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		engine, _, cleanup, err := buildEngine(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		report, runErr := engine.Run(cmd.Context())

		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))

		if runErr != nil {
			// The report already carries the reason; exit non-zero without
			// printing the error twice.
			cleanup()
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
