package check

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"

	"github.com/cmmoran/variantsgen/pkg/manifest"
	"github.com/cmmoran/variantsgen/pkg/parser"
)

var ErrStale = errors.New("generated file is stale")

// StaleError reports a generated file that differs from what the generator
// would write now.
type StaleError struct {
	Path string
	// Diff is the go-cmp diff of the file on disk (-) against the fresh output (+).
	Diff string
}

func (e *StaleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, ErrStale)
}

func (e *StaleError) Unwrap() error {
	return ErrStale
}

// Check regenerates the package in opts.InDir in memory and compares the
// result with the file on disk. It returns a *StaleError when they differ.
func Check(ctx context.Context, opts *parser.Options) error {
	want, path, err := render(ctx, opts)
	if err != nil {
		return err
	}

	got, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if diff := cmp.Diff(string(got), string(want)); diff != "" {
		return &StaleError{Path: path, Diff: diff}
	}
	return nil
}

// Manifest checks every output recorded in the manifest at manifestPath.
// Each entry is regenerated with the settings it was recorded with, base
// supplies whatever the entry does not record. A file whose checksum no
// longer matches the recorded one is stale as well.
func Manifest(ctx context.Context, base *parser.Options, manifestPath string) error {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}

	var errs error
	for _, o := range m.Outputs {
		opts := *base
		opts.InDir, opts.OutFile = o.Dir, o.File
		opts.Types, opts.Derives = o.Settings.Types, o.Settings.Derives
		opts.TrimPrefix, opts.GoVersion = o.Settings.TrimPrefix, o.Settings.GoVersion
		if o.Settings.Suffix != "" {
			opts.Suffix = o.Settings.Suffix
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := Check(ctx, &opts); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}

		got, err := os.ReadFile(o.Path())
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = multierr.Append(errs, fmt.Errorf("read %s: %w", o.Path(), err))
			continue
		}
		if sum := manifest.Checksum(got); sum != o.Checksum {
			errs = multierr.Append(errs, &StaleError{
				Path: o.Path(),
				Diff: cmp.Diff(o.Checksum, sum),
			})
		}
	}
	return errs
}

// render returns the fresh output and its path. A package without selected
// enums renders to nothing.
func render(ctx context.Context, opts *parser.Options) ([]byte, string, error) {
	par, err := parser.NewWithOpts(opts)
	if err != nil {
		return nil, "", err
	}
	if err = par.Parse(ctx); err != nil {
		return nil, "", err
	}
	src, err := par.Render()
	if errors.Is(err, parser.ErrNoEnums) {
		return nil, par.Opts.OutPath(), nil
	}
	if err != nil {
		return nil, "", err
	}
	return src, par.Opts.OutPath(), nil
}
