/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"assesseez/internal/bootstrap/logging"
	"assesseez/internal/errs"
)

// initDbCmd represents the initDb command
var initDbCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Initialize database schema",
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		ctx := cmd.Context()
		logging.Info(ctx, "start init-db")

		if err := env.app.InitSchema(ctx); err != nil {
			logging.Error(ctx, "initialize schema failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "initialize schema")
		}

		logging.Info(ctx, "init-db finished", slog.String("database_driver", env.app.Config.Database.Driver))
		return printf(cmd, "database schema initialized: %s\n", env.app.Config.Database.Driver)
	}),
}

func init() {
	rootCmd.AddCommand(initDbCmd)
}
