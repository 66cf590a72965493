package cmd

import (
	"github.com/spf13/cobra"

	"assesseez/internal/errs"
)

var progressCmd = &cobra.Command{
	Use:   "progress [learner-id]",
	Short: "Show completion and sampling ratios",
	Long:  "Without a learner id, prints the board of every learner visible to --as.",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		if cmd.Flags().NArg() == 1 {
			learner := cmd.Flags().Arg(0)
			completion, err := env.workflow.CompletionPercentage(cmd.Context(), req, learner)
			if err != nil {
				return errs.Wrap(err, "compute completion")
			}
			iqa, _ := cmd.Flags().GetString("iqa")
			ratio, err := env.workflow.SamplingRatio(cmd.Context(), req, learner, iqa)
			if err != nil {
				return errs.Wrap(err, "compute sampling ratio")
			}
			return printf(cmd, "completion=%.2f sampling_ratio=%.2f\n", completion, ratio)
		}

		board, err := env.workflow.ProgressBoard(cmd.Context(), req)
		if err != nil {
			return errs.Wrap(err, "load progress board")
		}
		for _, item := range board {
			if err := printf(cmd, "%s\t%s\t%.2f\t%.2f\tactive=%t\tsigned_off=%t\n",
				item.LearnerID, item.Name, item.Completion, item.SamplingRatio, item.IsActive, item.SignedOff); err != nil {
				return err
			}
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(progressCmd)
	progressCmd.Flags().String("iqa", "", "IQA person for the sampling ratio (defaults to the learner's IQA)")
}
