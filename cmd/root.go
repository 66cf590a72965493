/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"assesseez/internal/bootstrap/logging"
	"assesseez/internal/errs"
)

var (
	cfgFile         string
	asPerson        string
	businessID      string
	qualificationID string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "assesseez",
	Short:        "Vocational qualification assessment workflow",
	Long:         "Track learners against qualifications and run the assessor, IQA and EQA review workflow.",
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	logger := slog.New(slog.NewTextHandler(rootCmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	ctx = logging.WithLogger(ctx, logger)
	ctx = logging.WithAttrs(ctx, slog.String("app", "assesseez"))

	rootCmd.SetContext(ctx)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.Error(ctx, "command execution failed", slog.Any("err", errs.Loggable(err)))
		return errs.Wrap(err, "execute root command")
	}

	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "configs/config.yaml", "Config file path")
	rootCmd.PersistentFlags().StringVar(&asPerson, "as", "", "Person id acting on the command")
	rootCmd.PersistentFlags().StringVar(&businessID, "business", "", "Business id (defaults to the one chosen with `business use`)")
	rootCmd.PersistentFlags().StringVar(&qualificationID, "qualification", "", "Qualification id")
}
