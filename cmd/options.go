package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cmmoran/variantsgen/pkg/parser"
)

// configKey holds parser.Options in config files.
const configKey = "variantsgen"

// addOptionFlags registers the generation flags of c into o.
func addOptionFlags(c *cobra.Command, o *parser.Options) {
	d := parser.NewOptions()
	c.Flags().StringVarP(&o.InDir, "input-directory", "i", d.InDir, "package directory to scan")
	c.Flags().StringVarP(&o.OutFile, "output-file", "o", d.OutFile, "output file, relative to the input directory")
	c.Flags().StringSliceVarP(&o.Types, "types", "t", nil, "generate for these enum types only, //variants:generate is not required for them")
	c.Flags().StringVarP(&o.Suffix, "suffix", "s", d.Suffix, "suffix appended to the enum name to form the record name")
	c.Flags().BoolVar(&o.TrimPrefix, "trim-prefix", d.TrimPrefix, "strip the enum name from variant names before deriving field names")
	c.Flags().StringSliceVar(&o.Derives, "derive", nil, "derives applied to every record, ex: json,yaml,Clone")
	c.Flags().StringVar(&o.GoVersion, "go-version", "", "go version of the target module, detected from go.mod when empty")
}

// resolveOptions starts from the variantsgen config key and applies every
// flag set on the command line.
func resolveOptions(c *cobra.Command, flags *parser.Options) (*parser.Options, error) {
	o := parser.NewOptions()
	if err := viper.UnmarshalKey(configKey, o); err != nil {
		return nil, fmt.Errorf("read %s config: %w", configKey, err)
	}

	set := c.Flags().Changed
	if set("input-directory") {
		o.InDir = flags.InDir
	}
	if set("output-file") {
		o.OutFile = flags.OutFile
	}
	if set("types") {
		o.Types = flags.Types
	}
	if set("suffix") {
		o.Suffix = flags.Suffix
	}
	if set("trim-prefix") {
		o.TrimPrefix = flags.TrimPrefix
	}
	if set("derive") {
		o.Derives = flags.Derives
	}
	if set("go-version") {
		o.GoVersion = flags.GoVersion
	}
	o.Normalize()
	return o, nil
}
