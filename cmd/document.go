package cmd

import (
	"github.com/spf13/cobra"

	domain "assesseez/internal/domain/workflow"
	"assesseez/internal/errs"
	"assesseez/internal/usecase/workflow"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage required learner documents",
}

var documentRequireCmd = &cobra.Command{
	Use:   "require",
	Short: "Add a document requirement to the qualification",
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		title, _ := cmd.Flags().GetString("title")
		description, _ := cmd.Flags().GetString("description")
		files, err := fileFlags(cmd)
		if err != nil {
			return err
		}
		var template *domain.FileRef
		if len(files) > 0 {
			template = &files[0]
		}
		out, err := env.workflow.AddDocumentRequirement(cmd.Context(), req, workflow.AddRequirementInput{
			Title:       title,
			Description: description,
			Template:    template,
		})
		if err != nil {
			return errs.Wrap(err, "add document requirement")
		}
		return printf(cmd, "created requirement: %s\n", out.ID)
	}),
}

var documentSubmitCmd = &cobra.Command{
	Use:   "submit <requirement-id>",
	Short: "Upload a document for a requirement",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		comments, _ := cmd.Flags().GetString("comments")
		files, err := fileFlags(cmd)
		if err != nil {
			return err
		}
		var file domain.FileRef
		if len(files) > 0 {
			file = files[0]
		}
		out, err := env.workflow.SubmitDocument(cmd.Context(), req, workflow.SubmitDocumentInput{
			RequirementID: cmd.Flags().Arg(0),
			File:          file,
			Comments:      comments,
		})
		if err != nil {
			return errs.Wrap(err, "submit document")
		}
		printWarnings(cmd, out.Warnings)
		return printf(cmd, "document: %s created=%t\n", out.SubmissionID, out.Created)
	}),
}

var documentDecideCmd = &cobra.Command{
	Use:   "decide <submission-id>",
	Short: "Accept or reject a document",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		status, _ := cmd.Flags().GetString("status")
		comments, _ := cmd.Flags().GetString("comments")
		out, err := env.workflow.DecideDocument(cmd.Context(), req, workflow.DecideDocumentInput{
			SubmissionID: cmd.Flags().Arg(0),
			Status:       status,
			Comments:     comments,
		})
		if err != nil {
			return errs.Wrap(err, "decide document")
		}
		printWarnings(cmd, out.Warnings)
		return printf(cmd, "decided document: %s\n", out.ID)
	}),
}

var documentRemarkCmd = &cobra.Command{
	Use:   "remark <submission-id>",
	Short: "Record the IQA remark on a document",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		remark, _ := cmd.Flags().GetString("remark")
		comments, _ := cmd.Flags().GetString("comments")
		out, err := env.workflow.RemarkDocument(cmd.Context(), req, workflow.RemarkDocumentInput{
			SubmissionID: cmd.Flags().Arg(0),
			Remark:       remark,
			Comments:     comments,
		})
		if err != nil {
			return errs.Wrap(err, "remark document")
		}
		printWarnings(cmd, out.Warnings)
		return printf(cmd, "remark: %s\n", out.ID)
	}),
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List requirements with the learner's submissions",
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		learner, _ := cmd.Flags().GetString("learner")
		entries, err := env.workflow.ListDocuments(cmd.Context(), req, learner)
		if err != nil {
			return errs.Wrap(err, "list documents")
		}
		for _, entry := range entries {
			submission := "-"
			if entry.Submission != nil {
				submission = entry.Submission.ID
			}
			if err := printf(cmd, "%s\t%s\t%s\t%s\t%d remark(s)\n", entry.Requirement.ID, entry.Requirement.Title, entry.Status, submission, len(entry.Remarks)); err != nil {
				return err
			}
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(documentCmd)
	documentCmd.AddCommand(documentRequireCmd, documentSubmitCmd, documentDecideCmd, documentRemarkCmd, documentListCmd)

	documentRequireCmd.Flags().String("title", "", "Requirement title")
	documentRequireCmd.Flags().String("description", "", "Requirement description")
	documentRequireCmd.Flags().StringSlice("file", nil, "Optional template as name=storage-key[:size]")
	_ = documentRequireCmd.MarkFlagRequired("title")

	documentSubmitCmd.Flags().String("comments", "", "Learner comments")
	documentSubmitCmd.Flags().StringSlice("file", nil, "Document as name=storage-key[:size]")
	_ = documentSubmitCmd.MarkFlagRequired("file")

	documentDecideCmd.Flags().String("status", "", "ACCEPTED or REJECTED")
	documentDecideCmd.Flags().String("comments", "", "Comments, required when rejecting")
	_ = documentDecideCmd.MarkFlagRequired("status")

	documentRemarkCmd.Flags().String("remark", "", "OK or NON_CONFORMANCE")
	documentRemarkCmd.Flags().String("comments", "", "Comments, required for NON_CONFORMANCE")
	_ = documentRemarkCmd.MarkFlagRequired("remark")

	documentListCmd.Flags().String("learner", "", "Learner assignment id (defaults to --as)")
}
