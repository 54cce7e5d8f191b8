package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the habanero version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("habanero", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
