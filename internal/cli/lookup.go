package cli

import (
	"errors"
	"fmt"
	"time"

	"allergen-scanner/internal/core/product"
	"allergen-scanner/internal/core/safety"
	"allergen-scanner/internal/infrastructure/config"

	"github.com/spf13/cobra"
)

// LookupResult lookup 命令的 JSON 輸出
type LookupResult struct {
	Product    *product.Product  `json:"product"`
	Assessment safety.Assessment `json:"assessment"`
}

// NewLookupCommand 以條碼查詢商品並分析
func NewLookupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProfileOptions{}
	productCfg := config.ProductConfig{}

	cmd := &cobra.Command{
		Use:           "lookup <barcode>",
		Short:         "Look up a product by barcode and analyze its ingredients",
		Args:          usageArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			return runLookup(rootOpts, opts, productCfg, args[0], cmd)
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVar(&productCfg.BaseURL, "base-url", "https://world.openfoodfacts.org", "product database base URL")
	cmd.Flags().DurationVar(&productCfg.Timeout, "timeout", 10*time.Second, "request timeout")
	cmd.Flags().StringVar(&productCfg.UserAgent, "user-agent", "allergen-scanner-cli/1.0", "User-Agent header")

	return cmd
}

func runLookup(rootOpts *RootOptions, opts *ProfileOptions, productCfg config.ProductConfig, barcode string, cmd *cobra.Command) error {
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
	profile, err := opts.profile()
	if err != nil {
		return err
	}

	client := product.NewClient(productCfg, nil, nil)
	p, err := client.Lookup(cmd.Context(), barcode)
	switch {
	case errors.Is(err, product.ErrInvalidBarcode):
		return WrapExitError(ExitCommandError, "barcode must be 8 to 14 digits", err)
	case errors.Is(err, product.ErrProductNotFound):
		return WrapExitError(ExitCommandError, fmt.Sprintf("no product found for barcode %s", barcode), err)
	case err != nil:
		return WrapExitError(ExitCommandError, "product lookup failed", err)
	}
	formatter.VerboseLog("product: %s (%s)", p.Name, p.Brand)

	assessment := safety.NewAnalyzer(kb).Analyze(p.AnalysisText(), profile)

	if rootOpts.Format == "json" {
		if err := formatter.JSON(LookupResult{Product: p, Assessment: assessment}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "Product: %s", p.Name)
		if p.Brand != "" {
			fmt.Fprintf(formatter.Writer, " (%s)", p.Brand)
		}
		fmt.Fprintf(formatter.Writer, "\nBarcode: %s\n", p.Barcode)
		if err := formatter.Assessment(assessment); err != nil {
			return err
		}
	}
	return opts.check(assessment)
}
