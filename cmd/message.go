package cmd

import (
	"github.com/spf13/cobra"

	domain "assesseez/internal/domain/workflow"
	"assesseez/internal/errs"
	"assesseez/internal/usecase/workflow"
)

var messageCmd = &cobra.Command{
	Use:   "message",
	Short: "Send and read messages between learners and staff",
}

var messageRecipientsCmd = &cobra.Command{
	Use:   "recipients",
	Short: "List who --as may message on the qualification",
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		members, err := env.workflow.MessageRecipients(cmd.Context(), req)
		if err != nil {
			return errs.Wrap(err, "list recipients")
		}
		for _, member := range members {
			if err := printf(cmd, "%s\t%s\t%s\n", member.PersonID, member.DisplayName(), member.Email); err != nil {
				return err
			}
		}
		return nil
	}),
}

var messageSendCmd = &cobra.Command{
	Use:   "send <person-id>...",
	Short: "Send a message to one or more people",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		subject, _ := cmd.Flags().GetString("subject")
		body, _ := cmd.Flags().GetString("body")
		files, err := fileFlags(cmd)
		if err != nil {
			return err
		}
		input := workflow.ComposeMessageInput{RecipientPersonIDs: cmdArgs(cmd), Subject: subject, Body: body}
		if len(files) > 0 {
			input.Attachment = &files[0]
		}
		out, err := env.workflow.ComposeMessage(cmd.Context(), req, input)
		if err != nil {
			return errs.Wrap(err, "send message")
		}
		printWarnings(cmd, out.Warnings)
		return printf(cmd, "message: %s\n", out.ID)
	}),
}

var messageInboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "List received threads; --sent lists sent ones",
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, false)
		if err != nil {
			return err
		}
		list := env.workflow.Inbox
		if sent, _ := cmd.Flags().GetBool("sent"); sent {
			list = env.workflow.SentMessages
		}
		threads, err := list(cmd.Context(), req)
		if err != nil {
			return errs.Wrap(err, "list messages")
		}
		for _, thread := range threads {
			if err := printf(cmd, "%d\t%s\t%s\t%d message(s)\n", thread.Unread, thread.Latest.SentAt, thread.Subject, len(thread.MessageIDs)); err != nil {
				return err
			}
		}
		return nil
	}),
}

var messageThreadCmd = &cobra.Command{
	Use:   "thread <subject>",
	Short: "Show a conversation and mark it read",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, false)
		if err != nil {
			return err
		}
		messages, err := env.workflow.OpenThread(cmd.Context(), req, cmd.Flags().Arg(0))
		if err != nil {
			return errs.Wrap(err, "open thread")
		}
		for _, message := range messages {
			if err := printf(cmd, "[%s] %s\n%s\n", message.SentAt, message.SenderMembershipID, message.Body); err != nil {
				return err
			}
			if message.Attachment != nil {
				if err := printAttachment(cmd, *message.Attachment); err != nil {
					return err
				}
			}
		}
		return nil
	}),
}

func printAttachment(cmd *cobra.Command, file domain.FileRef) error {
	return printf(cmd, "  attachment: %s (%s)\n", file.Name, file.StorageKey)
}

func init() {
	rootCmd.AddCommand(messageCmd)
	messageCmd.AddCommand(messageRecipientsCmd, messageSendCmd, messageInboxCmd, messageThreadCmd)

	messageSendCmd.Flags().String("subject", "", "Message subject; replies reuse the thread subject")
	messageSendCmd.Flags().String("body", "", "Message text")
	messageSendCmd.Flags().StringSlice("file", nil, "Attachment as name=storage-key[:size]")
	_ = messageSendCmd.MarkFlagRequired("subject")
	messageInboxCmd.Flags().Bool("sent", false, "List sent threads instead")
}
