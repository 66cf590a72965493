package cmd

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"assesseez/internal/errs"
	"assesseez/internal/usecase/workflow"
)

var qualCmd = &cobra.Command{
	Use:   "qual",
	Short: "Manage qualification structure",
}

var qualListCmd = &cobra.Command{
	Use:   "list",
	Short: "List qualifications of the business",
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, false)
		if err != nil {
			return err
		}
		items, err := env.workflow.ListQualifications(cmd.Context(), req)
		if err != nil {
			return errs.Wrap(err, "list qualifications")
		}
		for _, q := range items {
			if err := printf(cmd, "%s\t%s\t%s\n", q.ID, q.Number, q.Title); err != nil {
				return err
			}
		}
		return nil
	}),
}

var qualCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an empty qualification",
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, false)
		if err != nil {
			return err
		}
		title, _ := cmd.Flags().GetString("title")
		number, _ := cmd.Flags().GetString("number")
		awardingBody, _ := cmd.Flags().GetString("awarding-body")
		out, err := env.workflow.CreateQualification(cmd.Context(), req, workflow.CreateQualificationInput{
			Title:        title,
			Number:       number,
			AwardingBody: awardingBody,
		})
		if err != nil {
			return errs.Wrap(err, "create qualification")
		}
		return printf(cmd, "created qualification: %s\n", out.ID)
	}),
}

var qualImportCmd = &cobra.Command{
	Use:   "import <file.toml>",
	Short: "Import a qualification tree from TOML",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, false)
		if err != nil {
			return err
		}
		path := cmd.Flags().Arg(0)
		raw, err := os.ReadFile(path)
		if err != nil {
			return errs.Wrapf(err, "read qualification file %q", path)
		}
		out, err := env.workflow.ImportQualification(cmd.Context(), req, raw)
		if err != nil {
			return errs.Wrap(err, "import qualification")
		}
		return printf(cmd, "imported qualification: %s\n", out.ID)
	}),
}

var qualAddCmd = &cobra.Command{
	Use:   "add <unit|outcome|criterion>",
	Short: "Add a unit, learning outcome or criterion",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		parent, _ := cmd.Flags().GetString("parent")
		title, _ := cmd.Flags().GetString("title")
		number, _ := cmd.Flags().GetString("number")
		serial, _ := cmd.Flags().GetFloat64("serial")

		var out workflow.Result
		switch strings.ToLower(cmd.Flags().Arg(0)) {
		case "unit":
			out, err = env.workflow.AddUnit(cmd.Context(), req, workflow.AddUnitInput{Title: title, Number: number, SerialNumber: serial})
		case "outcome", "lo":
			out, err = env.workflow.AddLearningOutcome(cmd.Context(), req, workflow.AddLearningOutcomeInput{UnitID: parent, Detail: title, SerialNumber: serial})
		case "criterion", "ac":
			out, err = env.workflow.AddCriterion(cmd.Context(), req, workflow.AddCriterionInput{LearningOutcomeID: parent, Detail: title, SerialNumber: serial})
		default:
			return errs.Wrapf(errUnknownNode, "add %q", cmd.Flags().Arg(0))
		}
		if err != nil {
			return errs.Wrap(err, "add structure node")
		}
		return printf(cmd, "created %s: %s\n", cmd.Flags().Arg(0), out.ID)
	}),
}

var (
	treeUnitStyle    = lipgloss.NewStyle().Bold(true)
	treeOutcomeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	treeIDStyle      = lipgloss.NewStyle().Faint(true)
)

var qualShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the qualification tree",
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		tree, err := env.workflow.GetQualificationTree(cmd.Context(), req)
		if err != nil {
			return errs.Wrap(err, "load qualification tree")
		}
		return printf(cmd, "%s", renderTree(tree))
	}),
}

func renderTree(tree workflow.QualificationTree) string {
	var b strings.Builder
	b.WriteString(tree.Qualification.Title + " (" + tree.Qualification.Number + ")\n")
	for _, unit := range tree.Units {
		b.WriteString(treeUnitStyle.Render(unit.Unit.Number+" "+unit.Unit.Title) + " " + treeIDStyle.Render(unit.Unit.ID) + "\n")
		for _, outcome := range unit.Outcomes {
			b.WriteString("  " + treeOutcomeStyle.Render(outcome.Outcome.Detail) + " " + treeIDStyle.Render(outcome.Outcome.ID) + "\n")
			for _, criterion := range outcome.Criteria {
				b.WriteString("    - " + criterion.Detail + " " + treeIDStyle.Render(criterion.ID) + "\n")
			}
		}
	}
	return b.String()
}

var qualDeleteNodeCmd = &cobra.Command{
	Use:   "delete-node <unit|learning_outcome|criterion> <id>",
	Short: "Delete a structure node that has no submissions",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		kind, id := cmd.Flags().Arg(0), cmd.Flags().Arg(1)
		if err := env.workflow.DeleteNode(cmd.Context(), req, kind, id); err != nil {
			return errs.Wrap(err, "delete structure node")
		}
		return printf(cmd, "deleted %s: %s\n", kind, id)
	}),
}

var qualCopyCmd = &cobra.Command{
	Use:   "copy <target-business-id>",
	Short: "Copy the qualification structure into another business",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, env *cliEnv) error {
		req, err := env.request(cmd, true)
		if err != nil {
			return err
		}
		out, err := env.workflow.CopyToBusiness(cmd.Context(), req, cmd.Flags().Arg(0))
		if err != nil {
			return errs.Wrap(err, "copy qualification")
		}
		return printf(cmd, "copied qualification: %s\n", out.ID)
	}),
}

func init() {
	rootCmd.AddCommand(qualCmd)
	qualCmd.AddCommand(qualListCmd, qualCreateCmd, qualImportCmd, qualAddCmd, qualShowCmd, qualDeleteNodeCmd, qualCopyCmd)

	qualCreateCmd.Flags().String("title", "", "Qualification title")
	qualCreateCmd.Flags().String("number", "", "Qualification number, unique per business")
	qualCreateCmd.Flags().String("awarding-body", "", "Awarding body")
	_ = qualCreateCmd.MarkFlagRequired("title")
	_ = qualCreateCmd.MarkFlagRequired("number")

	qualAddCmd.Flags().String("parent", "", "Parent unit id (outcome) or learning outcome id (criterion)")
	qualAddCmd.Flags().String("title", "", "Unit title, or detail text for outcomes and criteria")
	qualAddCmd.Flags().String("number", "", "Unit number")
	qualAddCmd.Flags().Float64("serial", 0, "Serial number used for ordering (0 appends)")
	_ = qualAddCmd.MarkFlagRequired("title")
}
