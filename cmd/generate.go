package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cmmoran/variantsgen/pkg/action/generate"
	"github.com/cmmoran/variantsgen/pkg/parser"
)

func init() {
	rootCmd.AddCommand(NewGenerateCommand())
}

func NewGenerateCommand() *cobra.Command {
	var (
		flags        parser.Options
		manifestPath string
	)

	// generateCmd represents the variantsgen generate command
	var generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "generate records",
		Long:  "Generate a record type with one field per variant for every selected enum of a package",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			opts, err := resolveOptions(c, &flags)
			if err != nil {
				return err
			}
			if manifestPath != "" {
				_, err = generate.WithManifest(c.Context(), opts, manifestPath)
				return err
			}
			_, err = generate.Generate(c.Context(), opts)
			return err
		},
	}
	addOptionFlags(generateCmd, &flags)
	generateCmd.Flags().StringVar(&manifestPath, "manifest", "", "record the generated file in this manifest")

	return generateCmd
}
