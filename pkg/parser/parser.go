// Package parser loads enumerated-variant declarations from a Go package and
// generates their companion record types.
package parser

import (
	"bytes"
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/multierr"
	"golang.org/x/tools/go/packages"

	"github.com/cmmoran/variantsgen/internal/model"
)

// Parser holds state/results of a parse run.
type Parser struct {
	Opts Options

	Enums   []*model.Enum
	Records []*model.Record

	// GoVersion is the go directive of the target module, "" when unknown.
	GoVersion string

	pkgPath string
	pkgName string
	fset    *token.FileSet
	diags   error
}

// New creates a parser from NewOptions defaults and opts.
func New(opts ...Option) (*Parser, error) {
	o := NewOptions()
	for _, fn := range opts {
		fn(o)
	}

	return NewWithOpts(o)
}

func NewWithOpts(opts *Options) (*Parser, error) {
	opts.Normalize()

	p := &Parser{
		Opts: *opts,
	}

	return p, nil
}

const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedModule

// Parse loads the package in Opts.InDir and builds a record for every
// selected enum. The returned error aggregates every diagnostic; when it is
// non-nil no record is kept.
func (p *Parser) Parse(ctx context.Context) error {
	cfg := &packages.Config{
		Context: ctx,
		Mode:    loadMode,
		Dir:     p.Opts.InDir,
		Fset:    token.NewFileSet(),
		Overlay: p.outputOverlay(),
	}
	pkgs, err := packages.Load(cfg, ".")
	if err != nil {
		return fmt.Errorf("load package %s: %w", p.Opts.InDir, err)
	}
	if len(pkgs) == 0 {
		return fmt.Errorf("%s: %w", p.Opts.InDir, ErrNoPackages)
	}
	pkg := pkgs[0]
	if err := loadErrors(pkg); err != nil {
		return err
	}

	return p.ParsePackage(pkg)
}

// loadErrors returns the package errors that prevent generation. Type errors
// are expected while the previous output is hidden, since code in the package
// may refer to the records being regenerated. The compile step of the loader
// reports the same errors again as a list error headed "# <package>", which is
// dropped whenever type errors are present.
func loadErrors(pkg *packages.Package) error {
	typeErrs := 0
	for _, e := range pkg.Errors {
		if e.Kind == packages.TypeError {
			typeErrs++
		}
	}

	var errs error
	for _, e := range pkg.Errors {
		l := slog.Default().With("package", pkg.PkgPath, "error", e.Error())
		switch {
		case e.Kind == packages.TypeError:
			l.Debug("ignoring type error")
		case typeErrs > 0 && compileFailure(pkg.PkgPath, e.Msg):
			l.Debug("ignoring compile error")
		default:
			errs = multierr.Append(errs, &Diagnostic{Msg: e.Error()})
		}
	}
	return errs
}

// compileFailure reports whether msg is the go command's compiler output for
// pkgPath.
func compileFailure(pkgPath, msg string) bool {
	first, _, _ := strings.Cut(strings.TrimSpace(msg), "\n")
	first = strings.TrimSpace(strings.TrimPrefix(first, "-: "))
	return first == "# "+pkgPath || strings.HasPrefix(first, "# "+pkgPath+" ")
}

// ParsePackage builds records from an already loaded package. The package
// must carry syntax and type information.
func (p *Parser) ParsePackage(pkg *packages.Package) error {
	p.fset = pkg.Fset
	p.pkgPath = pkg.PkgPath
	p.pkgName = pkg.Name
	p.Enums, p.Records, p.diags = nil, nil, nil

	p.GoVersion = p.detectGoVersion(pkg)
	if !p.supportsGenerics() {
		p.errorf(token.NoPos, fmt.Sprintf("go %s does not support type parameters, go 1.18 or later is required", p.GoVersion))
		return p.diags
	}

	p.collectEnums(pkg)
	for _, e := range p.Enums {
		if r := p.buildRecord(e); r != nil {
			p.Records = append(p.Records, r)
		}
	}

	if p.diags != nil {
		p.Records = nil
		return p.diags
	}
	slog.Default().With("package", p.pkgPath, "records", len(p.Records), "go", p.GoVersion).Debug("parsed package")
	return nil
}

// Render returns the formatted generated file.
func (p *Parser) Render() ([]byte, error) {
	if len(p.Records) == 0 {
		return nil, ErrNoEnums
	}
	buf := new(bytes.Buffer)
	if err := p.GenerateFile().Render(buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", p.Opts.OutFile, err)
	}
	return buf.Bytes(), nil
}

// outputOverlay hides a previously generated file from the loader, replacing
// it with its bare package clause, so stale output cannot break type checking
// of the declarations it was generated from.
func (p *Parser) outputOverlay() map[string][]byte {
	path := p.Opts.OutPath()
	src, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	f, err := parser.ParseFile(token.NewFileSet(), path, src, parser.PackageClauseOnly)
	if err != nil || f.Name == nil {
		return nil
	}
	return map[string][]byte{
		path: []byte("package " + f.Name.Name + "\n"),
	}
}

// fileImports maps the package names visible in f to their import paths.
func fileImports(f *ast.File, pkg *packages.Package) map[string]string {
	out := make(map[string]string, len(f.Imports))
	for _, imp := range f.Imports {
		if pn := pkg.TypesInfo.PkgNameOf(imp); pn != nil {
			out[pn.Name()] = pn.Imported().Path()
		}
	}
	return out
}

// Package returns the import path of the parsed package.
func (p *Parser) Package() string {
	return p.pkgPath
}

// Types returns the names of the enums that produced a record, in output
// order.
func (p *Parser) Types() []string {
	out := make([]string, len(p.Records))
	for i, r := range p.Records {
		out[i] = r.Enum.Name
	}
	return out
}
