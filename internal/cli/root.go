package cli

import (
	"fmt"
	"slices"

	"allergen-scanner/internal/core/knowledge"

	"github.com/spf13/cobra"
)

// RootOptions 全域旗標
type RootOptions struct {
	Verbose       bool
	Format        string // "json" | "text"
	KnowledgePath string
}

// ValidFormats 允許的輸出格式
var ValidFormats = []string{"text", "json"}

// NewRootCommand 建立 scan CLI 根命令
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Allergen and medication risk checks for ingredient lists",
		Long: `Check food ingredient lists against declared allergies and medications.

Ingredients can be passed as arguments, read from a file, or looked up
by barcode from the product database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// 旗標錯誤屬於用法錯誤，子命令會沿用
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.KnowledgePath, "kb", "", "knowledge base YAML file (default: built-in)")

	cmd.AddCommand(NewAnalyzeCommand(opts))
	cmd.AddCommand(NewLookupCommand(opts))
	cmd.AddCommand(NewKBCommand(opts))

	return cmd
}

// loadKnowledge 載入 --kb 指定的知識庫，失敗時回傳 ExitCommandError
func loadKnowledge(opts *RootOptions) (*knowledge.KnowledgeBase, error) {
	kb, err := knowledge.Load(opts.KnowledgePath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load knowledge base", err)
	}
	return kb, nil
}

// usageArgs 包裝 cobra 的參數檢查，讓參數錯誤以 ExitCommandError 結束
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, "invalid arguments", err)
		}
		return nil
	}
}
