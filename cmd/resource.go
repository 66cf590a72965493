package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"assesseez/internal/errs"
	"assesseez/internal/usecase/workflow"
)

var resourceCmd = &cobra.Command{
	Use:   "resource",
	Short: "Manage the business resource library",
}

var resourceFolderCmd = &cobra.Command{
	Use:   "folder [folder-id]",
	Short: "Create a folder, or update it when an id is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, false)
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		roles, _ := cmd.Flags().GetStringSlice("visible-to")
		qualifications, _ := cmd.Flags().GetStringSlice("link")
		input := workflow.ResourceFolderInput{Name: name, VisibleTo: roles, QualificationIDs: qualifications}

		var out workflow.Result
		if id := cmd.Flags().Arg(0); id != "" {
			out, err = env.workflow.UpdateResourceFolder(cmd.Context(), req, id, input)
		} else {
			out, err = env.workflow.CreateResourceFolder(cmd.Context(), req, input)
		}
		if err != nil {
			return errs.Wrap(err, "save resource folder")
		}
		return printf(cmd, "folder: %s\n", out.ID)
	}),
}

var resourceAddCmd = &cobra.Command{
	Use:   "add <folder-id>",
	Short: "Add a file to a folder",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, false)
		if err != nil {
			return err
		}
		title, _ := cmd.Flags().GetString("title")
		files, err := fileFlags(cmd)
		if err != nil {
			return err
		}
		input := workflow.AddResourceFileInput{FolderID: cmd.Flags().Arg(0), Title: title}
		if len(files) > 0 {
			input.File = files[0]
		}
		out, err := env.workflow.AddResourceFile(cmd.Context(), req, input)
		if err != nil {
			return errs.Wrap(err, "add resource file")
		}
		return printf(cmd, "file: %s\n", out.ID)
	}),
}

var resourceRemoveCmd = &cobra.Command{
	Use:   "rm <folder-id|file-id>",
	Short: "Delete a folder, or a single file with --file-only",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, false)
		if err != nil {
			return err
		}
		fileOnly, _ := cmd.Flags().GetBool("file-only")
		if fileOnly {
			err = env.workflow.DeleteResourceFile(cmd.Context(), req, cmd.Flags().Arg(0))
		} else {
			err = env.workflow.DeleteResourceFolder(cmd.Context(), req, cmd.Flags().Arg(0))
		}
		if err != nil {
			return errs.Wrap(err, "delete resource")
		}
		return printf(cmd, "deleted %s\n", cmd.Flags().Arg(0))
	}),
}

var resourceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List folders; with --qualification only those --as can see there",
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		scoped := strings.TrimSpace(qualificationID) != ""
		req, err := env.request(cmd, scoped)
		if err != nil {
			return err
		}
		list := env.workflow.ListResourceFolders
		if scoped {
			list = env.workflow.VisibleResources
		}
		folders, err := list(cmd.Context(), req)
		if err != nil {
			return errs.Wrap(err, "list resources")
		}
		for _, folder := range folders {
			if err := printf(cmd, "%s\t%s\t%v\n", folder.ID, folder.Name, folder.VisibleTo); err != nil {
				return err
			}
			for _, file := range folder.Files {
				if err := printf(cmd, "  %s\t%s\t%s\n", file.ID, file.Title, file.File.StorageKey); err != nil {
					return err
				}
			}
		}
		return nil
	}),
}

var learnerFileCmd = &cobra.Command{
	Use:   "learner-file",
	Short: "Documents staff keep for a learner",
}

var learnerFileUploadCmd = &cobra.Command{
	Use:   "upload <learner-id>",
	Short: "Upload a document for a learner",
	Args:  cobra.ExactArgs(1),
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
		input := workflow.LearnerFileInput{LearnerID: cmd.Flags().Arg(0), Title: title, Description: description}
		if len(files) > 0 {
			input.File = files[0]
		}
		out, err := env.workflow.UploadLearnerFile(cmd.Context(), req, input)
		if err != nil {
			return errs.Wrap(err, "upload learner file")
		}
		return printf(cmd, "learner file: %s\n", out.ID)
	}),
}

var learnerFileListCmd = &cobra.Command{
	Use:   "list <learner-id>",
	Short: "List a learner's documents",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		files, err := env.workflow.ListLearnerFiles(cmd.Context(), req, cmd.Flags().Arg(0))
		if err != nil {
			return errs.Wrap(err, "list learner files")
		}
		for _, file := range files {
			if err := printf(cmd, "%s\t%s\t%s\t%s\n", file.ID, file.UploadedAt, file.Title, file.File.StorageKey); err != nil {
				return err
			}
		}
		return nil
	}),
}

var learnerFileRemoveCmd = &cobra.Command{
	Use:   "rm <file-id>",
	Short: "Delete a learner document you uploaded",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		if err := env.workflow.DeleteLearnerFile(cmd.Context(), req, cmd.Flags().Arg(0)); err != nil {
			return errs.Wrap(err, "delete learner file")
		}
		return printf(cmd, "deleted %s\n", cmd.Flags().Arg(0))
	}),
}

func init() {
	rootCmd.AddCommand(resourceCmd, learnerFileCmd)
	resourceCmd.AddCommand(resourceFolderCmd, resourceAddCmd, resourceRemoveCmd, resourceListCmd)
	learnerFileCmd.AddCommand(learnerFileUploadCmd, learnerFileListCmd, learnerFileRemoveCmd)

	resourceFolderCmd.Flags().String("name", "", "Folder name")
	resourceFolderCmd.Flags().StringSlice("visible-to", nil, "Roles that see the folder (LEARNER, ASSESSOR, IQA, EQA)")
	resourceFolderCmd.Flags().StringSlice("link", nil, "Qualification ids the folder is shown on")
	resourceAddCmd.Flags().String("title", "", "File title")
	resourceAddCmd.Flags().StringSlice("file", nil, "Uploaded file as name=storage-key[:size]")
	resourceRemoveCmd.Flags().Bool("file-only", false, "Treat the id as a file id")

	learnerFileUploadCmd.Flags().String("title", "", "Document title")
	learnerFileUploadCmd.Flags().String("description", "", "Document description")
	learnerFileUploadCmd.Flags().StringSlice("file", nil, "Uploaded file as name=storage-key[:size]")
}
