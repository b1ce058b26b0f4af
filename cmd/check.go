package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/cmmoran/variantsgen/pkg/action/check"
	"github.com/cmmoran/variantsgen/pkg/parser"
)

func init() {
	rootCmd.AddCommand(NewCheckCommand())
}

func NewCheckCommand() *cobra.Command {
	var (
		flags        parser.Options
		manifestPath string
	)

	// checkCmd represents the variantsgen check command
	var checkCmd = &cobra.Command{
		Use:   "check",
		Short: "check generated files",
		Long:  "Regenerate in memory and report generated files that differ from their source declarations",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			opts, err := resolveOptions(c, &flags)
			if err != nil {
				return err
			}
			if manifestPath != "" {
				err = check.Manifest(c.Context(), opts, manifestPath)
			} else {
				err = check.Check(c.Context(), opts)
			}
			for _, e := range multierr.Errors(err) {
				var stale *check.StaleError
				if errors.As(e, &stale) {
					_, _ = fmt.Fprintf(c.OutOrStdout(), "%s (-disk +generated):\n%s\n", stale.Path, stale.Diff)
				}
			}
			return err
		},
	}
	addOptionFlags(checkCmd, &flags)
	checkCmd.Flags().StringVar(&manifestPath, "manifest", "", "check every file recorded in this manifest")

	return checkCmd
}
