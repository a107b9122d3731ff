package cli

import (
	"fmt"
	"strings"

	"allergen-scanner/internal/core/knowledge"

	"github.com/spf13/cobra"
)

// KBSummary kb 命令的 JSON 輸出
type KBSummary struct {
	Stats     knowledge.Stats            `json:"stats"`
	Allergens []knowledge.AllergenRecord `json:"allergens,omitempty"`
}

// NewKBCommand 顯示或驗證知識庫
func NewKBCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "kb",
		Short:         "Show the knowledge base in use",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			kb, err := loadKnowledge(rootOpts)
			if err != nil {
				return err
			}
			return printKB(rootOpts, kb, cmd, true)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "validate <file>",
		Short:         "Validate a knowledge base YAML file",
		Args:          usageArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			kb, err := knowledge.LoadFile(args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "invalid knowledge base", err)
			}
			return printKB(rootOpts, kb, cmd, false)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "medication <name>",
		Short:         "Show the food interactions of a medication",
		Args:          usageArgs(cobra.MinimumNArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			kb, err := loadKnowledge(rootOpts)
			if err != nil {
				return err
			}
			name := strings.Join(args, " ")
			rec, ok := kb.MedicationInfo(name)
			if !ok {
				return NewExitError(ExitFailure, fmt.Sprintf("medication %q is not in the knowledge base", name))
			}
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			if rootOpts.Format == "json" {
				return formatter.JSON(rec)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s (severity %s)\n", rec.Name, rec.Severity)
			fmt.Fprintf(w, "  avoid:   %s\n", strings.Join(rec.AvoidTerms, ", "))
			fmt.Fprintf(w, "  caution: %s\n", strings.Join(rec.CautionTerms, ", "))
			if rec.TimingNote != "" {
				fmt.Fprintf(w, "  timing:  %s\n", rec.TimingNote)
			}
			return nil
		},
	})

	return cmd
}

func printKB(rootOpts *RootOptions, kb *knowledge.KnowledgeBase, cmd *cobra.Command, withAllergens bool) error {
	summary := KBSummary{Stats: kb.Stats()}
	if withAllergens {
		summary.Allergens = kb.Allergens()
	}

	formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	if rootOpts.Format == "json" {
		return formatter.JSON(summary)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "allergens: %d, medications: %d, medication categories: %d, ingredient aliases: %d\n",
		summary.Stats.Allergens, summary.Stats.Medications, summary.Stats.MedicationCategories, summary.Stats.IngredientAliases)
	for _, rec := range summary.Allergens {
		fmt.Fprintf(w, "  %-10s %-8s %s\n", rec.Category, rec.Severity, strings.Join(rec.Synonyms, ", "))
	}
	return nil
}
