package cmd

import (
	"github.com/spf13/cobra"
)

// consoleCmd groups the interactive terminal boards.
var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive terminal boards",
	Long:  "Interactive boards refresh on a timer and act as the --as person within the selected business and qualification.",
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}
