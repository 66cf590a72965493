package cmd

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"assesseez/internal/bootstrap/logging"
	"assesseez/internal/errs"
	"assesseez/internal/infrastructure/cache"
	"assesseez/internal/usecase/workflow"
)

var businessCmd = &cobra.Command{
	Use:   "business",
	Short: "Manage businesses and their members",
}

var businessCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a business with its first admin",
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		name, _ := cmd.Flags().GetString("name")
		address, _ := cmd.Flags().GetString("address")
		adminEmail, _ := cmd.Flags().GetString("admin-email")
		adminName, _ := cmd.Flags().GetString("admin-name")

		out, err := env.workflow.CreateBusiness(cmd.Context(), workflow.CreateBusinessInput{
			Name:       name,
			Address:    address,
			AdminEmail: adminEmail,
			AdminName:  adminName,
		})
		if err != nil {
			logging.Error(cmd.Context(), "create business failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "create business")
		}
		return printf(cmd, "created business: %s admin_person=%s\n", out.BusinessID, out.AdminPerson)
	}),
}

var businessAddMemberCmd = &cobra.Command{
	Use:   "add-member",
	Short: "Add a person to the business",
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, false)
		if err != nil {
			return err
		}
		email, _ := cmd.Flags().GetString("email")
		fullName, _ := cmd.Flags().GetString("name")
		admin, _ := cmd.Flags().GetBool("admin")

		out, err := env.workflow.AddMember(cmd.Context(), req, workflow.AddMemberInput{Email: email, FullName: fullName, Admin: admin})
		if err != nil {
			return errs.Wrap(err, "add member")
		}
		return printf(cmd, "added member: person=%s membership=%s\n", out.PersonID, out.MembershipID)
	}),
}

var businessUseCmd = &cobra.Command{
	Use:   "use <business-id>",
	Short: "Remember the business used when --business is omitted",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		person := strings.TrimSpace(asPerson)
		if person == "" {
			return errs.Wrap(errMissingPerson, "select business")
		}
		selected := strings.TrimSpace(cmd.Flags().Arg(0))

		// The membership check doubles as validation of the id.
		req := workflowRequest(person, selected)
		if _, err := env.workflow.ResolveRoles(cmd.Context(), req); err != nil {
			return errs.Wrap(err, "check membership")
		}
		if err := env.cache.Set(cmd.Context(), cache.SelectedBusinessKey(person), selected, 0); err != nil {
			return errs.Wrap(err, "store selected business")
		}
		return printf(cmd, "using business: %s\n", selected)
	}),
}

func init() {
	rootCmd.AddCommand(businessCmd)
	businessCmd.AddCommand(businessCreateCmd, businessAddMemberCmd, businessUseCmd)

	businessCreateCmd.Flags().String("name", "", "Business name")
	businessCreateCmd.Flags().String("address", "", "Postal address")
	businessCreateCmd.Flags().String("admin-email", "", "Email of the first admin")
	businessCreateCmd.Flags().String("admin-name", "", "Full name of the first admin")
	_ = businessCreateCmd.MarkFlagRequired("name")
	_ = businessCreateCmd.MarkFlagRequired("admin-email")

	businessAddMemberCmd.Flags().String("email", "", "Member email")
	businessAddMemberCmd.Flags().String("name", "", "Member full name")
	businessAddMemberCmd.Flags().Bool("admin", false, "Grant business admin")
	_ = businessAddMemberCmd.MarkFlagRequired("email")
}
