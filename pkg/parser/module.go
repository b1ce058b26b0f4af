package parser

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/semver"
	"golang.org/x/tools/go/packages"
)

// detectGoVersion returns the go directive governing pkg: the explicit
// option, then the module reported by the loader, then the nearest go.mod
// above InDir.
func (p *Parser) detectGoVersion(pkg *packages.Package) string {
	if p.Opts.GoVersion != "" {
		return p.Opts.GoVersion
	}
	if pkg.Module != nil && pkg.Module.GoVersion != "" {
		return pkg.Module.GoVersion
	}
	modDir, err := findGoModDir(p.Opts.InDir)
	if err != nil {
		return ""
	}
	v, err := readGoDirective(modDir)
	if err != nil {
		return ""
	}
	return v
}

func (p *Parser) supportsGenerics() bool {
	return p.goAtLeast("1.18")
}

func (p *Parser) supportsIterators() bool {
	return p.goAtLeast("1.23")
}

// goAtLeast reports whether the target go version is at least min. An
// unknown version is assumed to be current.
func (p *Parser) goAtLeast(min string) bool {
	if p.GoVersion == "" {
		return true
	}
	v := "v" + p.GoVersion
	if !semver.IsValid(v) {
		return true
	}
	return semver.Compare(v, "v"+min) >= 0
}

// findGoModDir walks up from dir until it finds go.mod.
func findGoModDir(from string) (string, error) {
	for {
		if _, err := os.Stat(filepath.Join(from, "go.mod")); err == nil {
			return from, nil
		}
		parent := filepath.Dir(from)
		if parent == from {
			return "", fmt.Errorf("no go.mod found")
		}
		from = parent
	}
}

func readGoDirective(modDir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(modDir, "go.mod"))
	if err != nil {
		return "", err
	}
	mf, err := modfile.ParseLax("go.mod", data, nil)
	if err != nil {
		return "", fmt.Errorf("parse go.mod: %w", err)
	}
	if mf.Go == nil {
		return "", nil
	}
	return mf.Go.Version, nil
}
