package cli

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"allergen-scanner/internal/core/safety"
	"allergen-scanner/internal/pkg/common"

	"github.com/spf13/cobra"
)

// ProfileOptions 健康檔案旗標
type ProfileOptions struct {
	Allergies   []string
	Medications []string
	ProfileFile string
	FailOn      string
}

var failLevels = []string{"", string(safety.RiskLow), string(safety.RiskModerate), string(safety.RiskHigh)}

func (p *ProfileOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&p.Allergies, "allergy", "a", nil, "declared allergy (repeatable or comma separated)")
	cmd.Flags().StringSliceVarP(&p.Medications, "medication", "m", nil, "declared medication (repeatable or comma separated)")
	cmd.Flags().StringVarP(&p.ProfileFile, "profile", "p", "", "health profile JSON file (merged with --allergy/--medication)")
	cmd.Flags().StringVar(&p.FailOn, "fail-on", "", "exit 1 when overall risk is at least this level (low|moderate|high)")
}

// profile 合併 --profile 檔案與旗標宣告的內容
func (p *ProfileOptions) profile() (safety.HealthProfile, error) {
	profile := safety.HealthProfile{}
	if p.ProfileFile != "" {
		data, err := os.ReadFile(p.ProfileFile)
		if err != nil {
			return profile, WrapExitError(ExitCommandError, "failed to read profile file", err)
		}
		if err := common.ParseJSONBytesStrict(data, &profile); err != nil {
			return profile, WrapExitError(ExitCommandError, "invalid profile file", err)
		}
	}
	profile.Allergies = append(profile.Allergies, p.Allergies...)
	profile.Medications = append(profile.Medications, p.Medications...)
	return profile, nil
}

func (p *ProfileOptions) validate() error {
	if !slices.Contains(failLevels, p.FailOn) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid --fail-on %q: must be low, moderate or high", p.FailOn))
	}
	return nil
}

// check 依 --fail-on 決定是否回傳失敗
func (p *ProfileOptions) check(a safety.Assessment) error {
	if p.FailOn == "" {
		return nil
	}
	if a.OverallLevel.Rank() >= safety.RiskLevel(p.FailOn).Rank() {
		return NewExitError(ExitFailure, fmt.Sprintf("overall risk %s", a.OverallLevel))
	}
	return nil
}

// NewAnalyzeCommand 分析成分文字
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProfileOptions{}
	var file string

	cmd := &cobra.Command{
		Use:   "analyze [ingredients...]",
		Short: "Analyze an ingredient list",
		Long: `Analyze an ingredient list against the declared allergies and medications.

Ingredients are taken from the arguments (joined with ", "), or from --file.
Use --file - to read from stdin.`,
		Example:       `  scan analyze "sugar, peanut oil, salt" --allergy peanuts`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			raw, err := readIngredients(cmd.InOrStdin(), file, args)
			if err != nil {
				return err
			}
			return runAnalyze(rootOpts, opts, raw, cmd)
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "", "read ingredients from file (- for stdin)")

	return cmd
}

func readIngredients(stdin io.Reader, file string, args []string) (string, error) {
	switch {
	case file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", WrapExitError(ExitCommandError, "failed to read stdin", err)
		}
		return string(data), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", WrapExitError(ExitCommandError, "failed to read ingredients file", err)
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, ", "), nil
	default:
		return "", NewExitError(ExitCommandError, "no ingredients given: pass them as arguments or use --file")
	}
}

func runAnalyze(rootOpts *RootOptions, opts *ProfileOptions, raw string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	kb, err := loadKnowledge(rootOpts)
	if err != nil {
		return err
	}
	formatter.VerboseLog("knowledge base: %+v", kb.Stats())

	profile, err := opts.profile()
	if err != nil {
		return err
	}
	assessment := safety.NewAnalyzer(kb).Analyze(raw, profile)
	for _, d := range assessment.Diagnostics {
		formatter.VerboseLog("note: %s", d.Message)
	}
	if err := formatter.Assessment(assessment); err != nil {
		return err
	}
	return opts.check(assessment)
}
