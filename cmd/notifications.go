package cmd

import (
	"github.com/spf13/cobra"

	"assesseez/internal/errs"
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Read in-app notifications",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications for --as in the business",
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, false)
		if err != nil {
			return err
		}
		unread, _ := cmd.Flags().GetBool("unread")
		items, err := env.workflow.ListNotifications(cmd.Context(), req, unread)
		if err != nil {
			return errs.Wrap(err, "list notifications")
		}
		for _, item := range items {
			marker := " "
			if !item.IsRead {
				marker = "*"
			}
			if err := printf(cmd, "%s %s\t%s\t%s\n", marker, item.ID, item.CreatedAt, item.Message); err != nil {
				return err
			}
		}
		return nil
	}),
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read <notification-id>...",
	Short: "Mark notifications as read",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, false)
		if err != nil {
			return err
		}
		count, err := env.workflow.MarkNotificationsRead(cmd.Context(), req, cmdArgs(cmd))
		if err != nil {
			return errs.Wrap(err, "mark notifications read")
		}
		return printf(cmd, "marked %d notification(s) read\n", count)
	}),
}

func init() {
	rootCmd.AddCommand(notificationsCmd)
	notificationsCmd.AddCommand(notificationsListCmd, notificationsReadCmd)
	notificationsListCmd.Flags().Bool("unread", false, "Only unread notifications")
}
