package cmd

import (
	"github.com/spf13/cobra"

	"assesseez/internal/errs"
	"assesseez/internal/usecase/workflow"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "IQA sampling and feedback",
}

var sampleCheckCmd = &cobra.Command{
	Use:   "check <learner-id> <unit-id>",
	Short: "Report whether a learner's unit is ready for sampling",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		ok, err := env.workflow.CanSample(cmd.Context(), req, workflow.SampleTarget{
			LearnerID: cmd.Flags().Arg(0),
			UnitID:    cmd.Flags().Arg(1),
		})
		if err != nil {
			return errs.Wrap(err, "check sampling")
		}
		return printf(cmd, "can_sample=%t\n", ok)
	}),
}

var sampleRecordCmd = &cobra.Command{
	Use:   "record <learner-id> <unit-id>",
	Short: "Record a sampling event for a fully accepted unit",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		samplingType, _ := cmd.Flags().GetString("type")
		outcome, _ := cmd.Flags().GetString("outcome")
		comments, _ := cmd.Flags().GetString("comments")
		out, err := env.workflow.RecordSampling(cmd.Context(), req, workflow.RecordSamplingInput{
			LearnerID:    cmd.Flags().Arg(0),
			UnitID:       cmd.Flags().Arg(1),
			SamplingType: samplingType,
			Outcome:      outcome,
			Comments:     comments,
		})
		if err != nil {
			return errs.Wrap(err, "record sampling")
		}
		printWarnings(cmd, out.Warnings)
		return printf(cmd, "sampling: %s feedback=%s\n", out.SamplingID, out.IQAFeedbackID)
	}),
}

var sampleListCmd = &cobra.Command{
	Use:   "list <learner-id>",
	Short: "List sampling events for a learner",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		unit, _ := cmd.Flags().GetString("unit")
		items, err := env.workflow.ListSamplings(cmd.Context(), req, cmd.Flags().Arg(0), unit)
		if err != nil {
			return errs.Wrap(err, "list samplings")
		}
		for _, item := range items {
			if err := printf(cmd, "%s\t%s\t%s\t%s\t%s\n", item.CreatedAt, item.ID, item.UnitID, item.SamplingType, item.Outcome); err != nil {
				return err
			}
		}
		return nil
	}),
}

var sampleFeedbackCmd = &cobra.Command{
	Use:   "feedback <assessor-person-id>",
	Short: "Give direct IQA feedback to an assessor",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		samplingType, _ := cmd.Flags().GetString("type")
		date, _ := cmd.Flags().GetString("date")
		comments, _ := cmd.Flags().GetString("comments")
		out, err := env.workflow.GiveFeedbackToAssessor(cmd.Context(), req, workflow.AssessorFeedbackInput{
			AssessorPersonID: cmd.Flags().Arg(0),
			SamplingType:     samplingType,
			Date:             date,
			Comments:         comments,
		})
		if err != nil {
			return errs.Wrap(err, "give assessor feedback")
		}
		return printf(cmd, "feedback: %s\n", out.ID)
	}),
}

var sampleInboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Show IQA feedback addressed to the calling assessor",
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, false)
		if err != nil {
			return err
		}
		sampled, err := env.workflow.ListIQAFeedback(cmd.Context(), req)
		if err != nil {
			return errs.Wrap(err, "list iqa feedback")
		}
		iqa, _ := cmd.Flags().GetString("iqa")
		direct, err := env.workflow.ListAssessorFeedback(cmd.Context(), req, iqa)
		if err != nil {
			return errs.Wrap(err, "list assessor feedback")
		}
		for _, item := range sampled {
			if err := printf(cmd, "sampling\t%s\t%s\n", item.CreatedAt, item.Feedback); err != nil {
				return err
			}
		}
		for _, item := range direct {
			if err := printf(cmd, "direct\t%s\t%s\t%s\n", item.Date, item.SamplingType, item.Comments); err != nil {
				return err
			}
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(sampleCmd)
	sampleCmd.AddCommand(sampleCheckCmd, sampleRecordCmd, sampleListCmd, sampleFeedbackCmd, sampleInboxCmd)

	sampleRecordCmd.Flags().String("type", "", "INTERIM or SUMMATIVE")
	sampleRecordCmd.Flags().String("outcome", "", "OK or NON_CONFORMANCE")
	sampleRecordCmd.Flags().String("comments", "", "Sampling comments")
	_ = sampleRecordCmd.MarkFlagRequired("type")
	_ = sampleRecordCmd.MarkFlagRequired("outcome")

	sampleListCmd.Flags().String("unit", "", "Restrict to one unit")

	sampleFeedbackCmd.Flags().String("type", "", "Sampling type the feedback relates to")
	sampleFeedbackCmd.Flags().String("date", "", "Feedback date (YYYY-MM-DD, defaults to today)")
	sampleFeedbackCmd.Flags().String("comments", "", "Feedback text")
	_ = sampleFeedbackCmd.MarkFlagRequired("comments")

	sampleInboxCmd.Flags().String("iqa", "", "Only show direct feedback from this IQA person")
}
