package parser

import (
	"path/filepath"
	"strings"
)

// Options control parsing and generation.
//
// InDir      – package directory to parse
// OutFile    – output filename, relative to InDir unless absolute
// Types      – restrict generation to these enum types; listed types do not need //variants:generate
// Suffix     – appended to the enum name to form the default record name
// TrimPrefix – strip the enum name from variant names before deriving field names
// Derives    – derives applied to every record, before the ones in //variants:derive
// GoVersion  – go version of the target module; detected from go.mod when empty
type Options struct {
	InDir      string   `json:"in_dir,omitempty" yaml:"in_dir,omitempty" toml:"in_dir,omitempty" mapstructure:"in_dir,omitempty"`
	OutFile    string   `json:"out_file,omitempty" yaml:"out_file,omitempty" toml:"out_file,omitempty" mapstructure:"out_file,omitempty"`
	Types      []string `json:"types,omitempty" yaml:"types,omitempty" toml:"types,omitempty" mapstructure:"types,omitempty"`
	Suffix     string   `json:"suffix,omitempty" yaml:"suffix,omitempty" toml:"suffix,omitempty" mapstructure:"suffix,omitempty"`
	TrimPrefix bool     `json:"trim_prefix,omitempty" yaml:"trim_prefix,omitempty" toml:"trim_prefix,omitempty" mapstructure:"trim_prefix,omitempty"`
	Derives    []string `json:"derives,omitempty" yaml:"derives,omitempty" toml:"derives,omitempty" mapstructure:"derives,omitempty"`
	GoVersion  string   `json:"go_version,omitempty" yaml:"go_version,omitempty" toml:"go_version,omitempty" mapstructure:"go_version,omitempty"`
}

const (
	DefaultOutFile = "variants_gen.go"
	DefaultSuffix  = "Struct"
)

func NewOptions() *Options {
	return &Options{
		InDir:      ".",
		OutFile:    DefaultOutFile,
		Suffix:     DefaultSuffix,
		TrimPrefix: true,
	}
}

func (o *Options) Normalize() {
	if len(o.InDir) == 0 {
		o.InDir = "."
	}
	if abs, err := filepath.Abs(o.InDir); err == nil {
		o.InDir = abs
	}
	if len(o.OutFile) == 0 {
		o.OutFile = DefaultOutFile
	}
	if len(o.Suffix) == 0 {
		o.Suffix = DefaultSuffix
	}
	o.Types = trimAll(o.Types)
	o.Derives = trimAll(o.Derives)
	o.GoVersion = strings.TrimPrefix(strings.TrimSpace(o.GoVersion), "go")
}

// OutPath returns the absolute path of the output file.
func (o *Options) OutPath() string {
	if filepath.IsAbs(o.OutFile) {
		return filepath.Clean(o.OutFile)
	}
	return filepath.Join(o.InDir, o.OutFile)
}

func (o *Options) selects(name string) bool {
	for _, t := range o.Types {
		if t == name {
			return true
		}
	}
	return false
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// functional option pattern ---------------------------------------------------

type Option func(*Options)

func WithInDir(d string) Option     { return func(o *Options) { o.InDir = d } }
func WithOutFile(f string) Option   { return func(o *Options) { o.OutFile = f } }
func WithSuffix(s string) Option    { return func(o *Options) { o.Suffix = s } }
func WithGoVersion(v string) Option { return func(o *Options) { o.GoVersion = v } }
func WithoutTrimPrefix() Option     { return func(o *Options) { o.TrimPrefix = false } }
func WithTypes(names ...string) Option {
	return func(o *Options) { o.Types = append(o.Types, names...) }
}
func WithDerives(names ...string) Option {
	return func(o *Options) { o.Derives = append(o.Derives, names...) }
}
