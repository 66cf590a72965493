package cmd

import (
	"github.com/spf13/cobra"

	domain "assesseez/internal/domain/workflow"
	"assesseez/internal/errs"
	"assesseez/internal/usecase/workflow"
)

var workbookCmd = &cobra.Command{
	Use:   "workbook",
	Short: "Submit and review learning outcome workbooks",
}

var workbookSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a workbook for a learning outcome",
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		outcome, _ := cmd.Flags().GetString("outcome")
		detail, _ := cmd.Flags().GetString("detail")
		files, err := fileFlags(cmd)
		if err != nil {
			return err
		}
		var file *domain.FileRef
		if len(files) > 0 {
			file = &files[0]
		}

		out, err := env.workflow.SubmitWorkbook(cmd.Context(), req, workflow.SubmitWorkbookInput{
			LearningOutcomeID: outcome,
			Detail:            detail,
			File:              file,
		})
		if err != nil {
			return errs.Wrap(err, "submit workbook")
		}
		printWarnings(cmd, out.Warnings)
		return printf(cmd, "workbook: %s created=%t\n", out.SubmissionID, out.Created)
	}),
}

var workbookDecideCmd = &cobra.Command{
	Use:   "decide <submission-id>",
	Short: "Accept or reject a workbook",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		status, _ := cmd.Flags().GetString("status")
		out, err := env.workflow.DecideWorkbook(cmd.Context(), req, workflow.Decision{
			SubmissionID: cmd.Flags().Arg(0),
			Status:       status,
		})
		if err != nil {
			return errs.Wrap(err, "decide workbook")
		}
		printWarnings(cmd, out.Warnings)
		return printOutcomes(cmd, out.Outcomes)
	}),
}

var workbookHistoryCmd = &cobra.Command{
	Use:   "history <outcome-id>",
	Short: "Show the workbook history of a learning outcome",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		learner, _ := cmd.Flags().GetString("learner")
		entries, err := env.workflow.WorkbookHistory(cmd.Context(), req, learner, cmd.Flags().Arg(0))
		if err != nil {
			return errs.Wrap(err, "load workbook history")
		}
		for _, entry := range entries {
			if err := printf(cmd, "%s\t%s\t%s\t%s\n", entry.Submission.SubmittedAt, entry.Submission.ID, entry.Label, entry.Submission.File.Name); err != nil {
				return err
			}
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(workbookCmd)
	workbookCmd.AddCommand(workbookSubmitCmd, workbookDecideCmd, workbookHistoryCmd)

	workbookSubmitCmd.Flags().String("outcome", "", "Learning outcome id")
	workbookSubmitCmd.Flags().String("detail", "", "Workbook description")
	workbookSubmitCmd.Flags().StringSlice("file", nil, "Workbook file as name=storage-key[:size]")
	_ = workbookSubmitCmd.MarkFlagRequired("outcome")

	workbookDecideCmd.Flags().String("status", "", "ACCEPTED or REJECTED")
	_ = workbookDecideCmd.MarkFlagRequired("status")

	workbookHistoryCmd.Flags().String("learner", "", "Learner assignment id (defaults to --as)")
}
