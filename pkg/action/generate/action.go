package generate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cmmoran/variantsgen/pkg/manifest"
	"github.com/cmmoran/variantsgen/pkg/parser"
)

// Generate parses the package in opts.InDir and writes the generated file.
// Nothing is written when parsing reports a diagnostic.
func Generate(ctx context.Context, opts *parser.Options) (manifest.Output, error) {
	par, err := parser.NewWithOpts(opts)
	if err != nil {
		return manifest.Output{}, err
	}
	if err = par.Parse(ctx); err != nil {
		return manifest.Output{}, err
	}
	src, err := par.Render()
	if err != nil {
		return manifest.Output{}, err
	}

	outFile := par.Opts.OutPath()
	if err = os.MkdirAll(filepath.Dir(outFile), 0o755); err != nil {
		return manifest.Output{}, fmt.Errorf("create output directory: %w", err)
	}
	if err = os.WriteFile(outFile, src, 0o644); err != nil {
		return manifest.Output{}, fmt.Errorf("write %s: %w", outFile, err)
	}
	slog.Default().With("file", outFile, "types", par.Types()).Info("generated")

	return manifest.Output{
		Package:  par.Package(),
		Dir:      filepath.Dir(outFile),
		File:     filepath.Base(outFile),
		Types:    par.Types(),
		Settings: manifest.Settings{
			Types:      par.Opts.Types,
			Suffix:     par.Opts.Suffix,
			TrimPrefix: par.Opts.TrimPrefix,
			Derives:    par.Opts.Derives,
			GoVersion:  par.Opts.GoVersion,
		},
		Checksum: manifest.Checksum(src),
	}, nil
}

// WithManifest generates like Generate and records the output in the manifest
// at manifestPath.
func WithManifest(ctx context.Context, opts *parser.Options, manifestPath string) (manifest.Output, error) {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return manifest.Output{}, err
	}

	out, err := Generate(ctx, opts)
	if err != nil {
		return manifest.Output{}, err
	}

	m.Generator, m.Version = parser.Generator, parser.Version()
	m.Record(out)
	if err = m.Save(manifestPath); err != nil {
		return manifest.Output{}, err
	}

	return out, nil
}
