package cmd

import (
	"github.com/spf13/cobra"

	"assesseez/internal/errs"
	"assesseez/internal/usecase/workflow"
)

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Submit and review criterion evidence",
}

var evidenceSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit evidence against an assessment criterion",
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		criterion, _ := cmd.Flags().GetString("criterion")
		detail, _ := cmd.Flags().GetString("detail")
		files, err := fileFlags(cmd)
		if err != nil {
			return err
		}

		out, err := env.workflow.SubmitEvidence(cmd.Context(), req, workflow.SubmitEvidenceInput{
			CriterionID: criterion,
			Detail:      detail,
			Files:       files,
		})
		if err != nil {
			return errs.Wrap(err, "submit evidence")
		}
		printWarnings(cmd, out.Warnings)
		verb := "updated"
		if out.Created {
			verb = "submitted"
		}
		return printf(cmd, "%s evidence: %s\n", verb, out.SubmissionID)
	}),
}

var evidenceDecideCmd = &cobra.Command{
	Use:   "decide <submission-id>...",
	Short: "Accept or reject one or more evidence submissions",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		status, _ := cmd.Flags().GetString("status")
		feedback, _ := cmd.Flags().GetString("feedback")

		decisions := make([]workflow.Decision, 0, len(cmdArgs(cmd)))
		for _, id := range cmdArgs(cmd) {
			decisions = append(decisions, workflow.Decision{SubmissionID: id, Status: status, Feedback: feedback})
		}
		out, err := env.workflow.DecideEvidenceBatch(cmd.Context(), req, decisions)
		if err != nil {
			return errs.Wrap(err, "decide evidence")
		}
		printWarnings(cmd, out.Warnings)
		return printOutcomes(cmd, out.Outcomes)
	}),
}

var evidenceHistoryCmd = &cobra.Command{
	Use:   "history <criterion-id>",
	Short: "Show the submission history of a criterion",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		learner, _ := cmd.Flags().GetString("learner")
		entries, err := env.workflow.EvidenceHistory(cmd.Context(), req, learner, cmd.Flags().Arg(0))
		if err != nil {
			return errs.Wrap(err, "load evidence history")
		}
		for _, entry := range entries {
			if err := printf(cmd, "%s\t%s\t%s\t%d file(s)\n", entry.Submission.SubmittedAt, entry.Submission.ID, entry.Label, len(entry.Submission.Files)); err != nil {
				return err
			}
			for _, fb := range entry.Feedback {
				if err := printf(cmd, "  feedback: %s\n", fb.Text); err != nil {
					return err
				}
			}
		}
		return nil
	}),
}

func printOutcomes(cmd *cobra.Command, outcomes []workflow.DecisionOutcome) error {
	for _, outcome := range outcomes {
		state := "applied"
		if !outcome.Applied {
			state = "skipped"
		}
		if err := printf(cmd, "%s\t%s\t%s\n", outcome.SubmissionID, outcome.Status, state); err != nil {
			return err
		}
	}
	return nil
}

func cmdArgs(cmd *cobra.Command) []string {
	return cmd.Flags().Args()
}

func init() {
	rootCmd.AddCommand(evidenceCmd)
	evidenceCmd.AddCommand(evidenceSubmitCmd, evidenceDecideCmd, evidenceHistoryCmd)

	evidenceSubmitCmd.Flags().String("criterion", "", "Assessment criterion id")
	evidenceSubmitCmd.Flags().String("detail", "", "Evidence description")
	evidenceSubmitCmd.Flags().StringSlice("file", nil, "Uploaded file as name=storage-key[:size] (repeatable)")
	_ = evidenceSubmitCmd.MarkFlagRequired("criterion")

	evidenceDecideCmd.Flags().String("status", "", "ACCEPTED or REJECTED")
	evidenceDecideCmd.Flags().String("feedback", "", "Feedback stored against each criterion")
	_ = evidenceDecideCmd.MarkFlagRequired("status")

	evidenceHistoryCmd.Flags().String("learner", "", "Learner assignment id (defaults to --as)")
}
