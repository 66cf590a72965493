package cmd

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"assesseez/internal/errs"
	"assesseez/internal/usecase/progressconsole"
)

var consoleProgressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Interactive learner progress board",
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		filter, _ := cmd.Flags().GetString("filter")
		sortBy, _ := cmd.Flags().GetString("sort")
		refresh, _ := cmd.Flags().GetDuration("refresh")

		model := progressconsole.NewBoardModel(cmd.Context(), env.workflow, progressconsole.Options{
			Request:         req,
			Filter:          filter,
			SortBy:          sortBy,
			RefreshInterval: refresh,
		})
		program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run progress console")
		}
		return nil
	}),
}

func init() {
	consoleCmd.AddCommand(consoleProgressCmd)
	consoleProgressCmd.Flags().String("filter", "active", "active, all, signed-off or inactive")
	consoleProgressCmd.Flags().String("sort", "name", "name, completion or sampling")
	consoleProgressCmd.Flags().Duration("refresh", 10*time.Second, "Board refresh interval")
}
