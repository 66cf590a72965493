package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"assesseez/internal/errs"
	"assesseez/internal/usecase/workflow"
)

var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Assign and inspect qualification roles",
}

var roleResolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Print the roles held by --as",
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, false)
		if err != nil {
			return err
		}
		roles, err := env.workflow.ResolveRoles(cmd.Context(), req)
		if err != nil {
			return errs.Wrap(err, "resolve roles")
		}
		names := make([]string, 0, len(roles))
		for _, role := range roles.Sorted() {
			names = append(names, string(role))
		}
		if len(names) == 0 {
			return printf(cmd, "no roles\n")
		}
		return printf(cmd, "%s\n", strings.Join(names, ","))
	}),
}

var roleAssignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Assign a role on the selected qualification",
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		person, _ := cmd.Flags().GetString("person")
		role, _ := cmd.Flags().GetString("role")
		assessor, _ := cmd.Flags().GetString("assessor")
		iqa, _ := cmd.Flags().GetString("iqa")

		out, err := env.workflow.AssignRole(cmd.Context(), req, workflow.AssignRoleInput{
			PersonID:         person,
			Role:             role,
			AssessorPersonID: assessor,
			IQAPersonID:      iqa,
			Learner:          learnerDetailFlags(cmd),
		})
		if err != nil {
			return errs.Wrap(err, "assign role")
		}
		return printf(cmd, "assigned %s: %s\n", strings.ToUpper(role), out.ID)
	}),
}

var learnerUpdateCmd = &cobra.Command{
	Use:   "update-learner <learner-id>",
	Short: "Change reviewers, status or details of a learner",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		input := workflow.UpdateLearnerInput{LearnerID: cmd.Flags().Arg(0)}
		flags := cmd.Flags()
		if flags.Changed("assessor") {
			value, _ := flags.GetString("assessor")
			input.AssessorPersonID = &value
		}
		if flags.Changed("iqa") {
			value, _ := flags.GetString("iqa")
			input.IQAPersonID = &value
		}
		if flags.Changed("active") {
			value, _ := flags.GetBool("active")
			input.IsActive = &value
		}
		if flags.Changed("signed-off") {
			value, _ := flags.GetBool("signed-off")
			input.SignedOff = &value
		}
		for _, name := range learnerDetailFlagNames {
			if flags.Changed(name) {
				details := learnerDetailFlags(cmd)
				input.Details = &details
				break
			}
		}

		out, err := env.workflow.UpdateLearner(cmd.Context(), req, input)
		if err != nil {
			return errs.Wrap(err, "update learner")
		}
		printWarnings(cmd, out.Warnings)
		return printf(cmd, "updated learner: %s\n", out.ID)
	}),
}

var eqaSetCmd = &cobra.Command{
	Use:   "eqa-learners <eqa-person-id>",
	Short: "Replace the learners an EQA may review",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		learners, _ := cmd.Flags().GetStringSlice("learner")
		out, err := env.workflow.SetEQALearners(cmd.Context(), req, cmd.Flags().Arg(0), learners)
		if err != nil {
			return errs.Wrap(err, "set eqa learners")
		}
		return printf(cmd, "eqa %s now reviews %d learner(s)\n", out.ID, len(learners))
	}),
}

var learnerDetailFlagNames = []string{
	"date-of-birth", "disability", "address", "batch", "phone", "registered", "country", "ethnicity",
}

func learnerDetailFlags(cmd *cobra.Command) workflow.LearnerDetails {
	flags := cmd.Flags()
	dob, _ := flags.GetString("date-of-birth")
	disability, _ := flags.GetBool("disability")
	address, _ := flags.GetString("address")
	batch, _ := flags.GetString("batch")
	phone, _ := flags.GetString("phone")
	registered, _ := flags.GetString("registered")
	country, _ := flags.GetString("country")
	ethnicity, _ := flags.GetString("ethnicity")
	return workflow.LearnerDetails{
		DateOfBirth:        dob,
		Disability:         disability,
		Address:            address,
		BatchNumber:        batch,
		PhoneNumber:        phone,
		DateOfRegistration: registered,
		Country:            country,
		Ethnicity:          ethnicity,
	}
}

func addLearnerDetailFlags(cmd *cobra.Command) {
	cmd.Flags().String("date-of-birth", "", "Learner date of birth (YYYY-MM-DD)")
	cmd.Flags().Bool("disability", false, "Learner declared a disability")
	cmd.Flags().String("address", "", "Learner address")
	cmd.Flags().String("batch", "", "Learner batch number")
	cmd.Flags().String("phone", "", "Learner phone number (+999999999)")
	cmd.Flags().String("registered", "", "Date of registration (YYYY-MM-DD, not in the future)")
	cmd.Flags().String("country", "", "Learner country")
	cmd.Flags().String("ethnicity", "", "Learner ethnicity")
}

func init() {
	rootCmd.AddCommand(roleCmd)
	roleCmd.AddCommand(roleResolveCmd, roleAssignCmd, learnerUpdateCmd, eqaSetCmd)

	roleAssignCmd.Flags().String("person", "", "Person receiving the role")
	roleAssignCmd.Flags().String("role", "", "LEARNER, ASSESSOR, IQA or EQA")
	roleAssignCmd.Flags().String("assessor", "", "Assessor person for a learner")
	roleAssignCmd.Flags().String("iqa", "", "IQA person for a learner")
	addLearnerDetailFlags(roleAssignCmd)
	_ = roleAssignCmd.MarkFlagRequired("person")
	_ = roleAssignCmd.MarkFlagRequired("role")

	learnerUpdateCmd.Flags().String("assessor", "", "Assessor person (empty clears)")
	learnerUpdateCmd.Flags().String("iqa", "", "IQA person (empty clears)")
	learnerUpdateCmd.Flags().Bool("active", true, "Whether the learner may submit")
	learnerUpdateCmd.Flags().Bool("signed-off", false, "Mark the learner as signed off")
	addLearnerDetailFlags(learnerUpdateCmd)

	eqaSetCmd.Flags().StringSlice("learner", nil, "Learner assignment id (repeatable)")
}
