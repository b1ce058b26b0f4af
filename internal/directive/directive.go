// Package directive reads //variants: comment directives from Go doc comments.
//
// Directives follow the Go directive comment convention: no space between the
// comment marker and the directive name, for example
//
//	//variants:generate
//	//variants:name "Table"
//	//variants:bounds comparable, fmt.Stringer
//	//variants:derive json, Clone
//	//variants:attr nolint:unused
//
// Variant declarations accept a single directive:
//
//	//variants:field "override"
package directive

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// Prefix marks every comment line this package recognizes.
const Prefix = "//variants:"

// Recognized directive names.
const (
	Generate = "generate"
	Name     = "name"
	Bounds   = "bounds"
	Derive   = "derive"
	Attr     = "attr"
	Field    = "field"
)

// Directive is one //variants: line.
type Directive struct {
	Name string
	// Args is the text after the directive name with the separating blank
	// removed. It is not trimmed further.
	Args    string
	Pos     token.Pos
	ArgsPos token.Pos
}

// Error is a directive problem anchored to a source position.
type Error struct {
	Pos token.Pos
	Msg string
}

func (e *Error) Error() string { return e.Msg }

// Ref is a reference to a named capability: either a bare identifier or a
// package-qualified identifier.
type Ref struct {
	Pkg  string // package name qualifier, "" when unqualified
	Name string
	Pos  token.Pos
}

func (r Ref) String() string {
	if r.Pkg == "" {
		return r.Name
	}
	return r.Pkg + "." + r.Name
}

// Enum holds the enum-level directives of a declaration.
type Enum struct {
	Generate bool
	Name     string
	NamePos  token.Pos
	Bounds   []Ref
	Derives  []Ref
	Attrs    []string
	// Ignored lists //variants: directives that are not recognized at
	// enum level.
	Ignored []Directive
}

// Parse returns all //variants: directives found in the groups, in order.
// Nil groups are skipped.
func Parse(groups ...*ast.CommentGroup) []Directive {
	var out []Directive
	for _, g := range groups {
		if g == nil {
			continue
		}
		for _, c := range g.List {
			if d, ok := parseLine(c); ok {
				out = append(out, d)
			}
		}
	}
	return out
}

func parseLine(c *ast.Comment) (Directive, bool) {
	if !strings.HasPrefix(c.Text, Prefix) {
		return Directive{}, false
	}
	rest := c.Text[len(Prefix):]
	name, args := rest, ""
	argsOff := len(c.Text)
	if i := strings.IndexAny(rest, " \t"); i >= 0 {
		name, args = rest[:i], rest[i+1:]
		argsOff = len(Prefix) + i + 1
	}
	if name == "" {
		return Directive{}, false
	}
	return Directive{
		Name:    name,
		Args:    args,
		Pos:     c.Slash,
		ArgsPos: c.Slash + token.Pos(argsOff),
	}, true
}

// HasTrigger reports whether the groups carry //variants:generate.
func HasTrigger(groups ...*ast.CommentGroup) bool {
	for _, d := range Parse(groups...) {
		if d.Name == Generate {
			return true
		}
	}
	return false
}

// ReadEnum collects the enum-level directives. Repeated bounds and derive
// directives are unioned in order of first appearance; a repeated name
// directive replaces the previous one. The returned error aggregates every
// *Error found.
func ReadEnum(groups ...*ast.CommentGroup) (Enum, error) {
	var (
		e    Enum
		errs error
		seen = map[string]bool{}
	)
	union := func(dst []Ref, refs []Ref, kind string) []Ref {
		for _, r := range refs {
			key := kind + ":" + r.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			dst = append(dst, r)
		}
		return dst
	}
	for _, d := range Parse(groups...) {
		switch d.Name {
		case Generate:
			e.Generate = true
		case Name:
			s, err := stringArg(d)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			e.Name, e.NamePos = s, d.ArgsPos
		case Bounds:
			refs, err := refList(d)
			errs = multierr.Append(errs, err)
			e.Bounds = union(e.Bounds, refs, Bounds)
		case Derive:
			refs, err := refList(d)
			errs = multierr.Append(errs, err)
			e.Derives = union(e.Derives, refs, Derive)
		case Attr:
			e.Attrs = append(e.Attrs, d.Args)
		default:
			e.Ignored = append(e.Ignored, d)
		}
	}
	return e, errs
}

// ReadVariant returns the field name override of a variant, if any, and the
// position of its argument.
func ReadVariant(groups ...*ast.CommentGroup) (string, token.Pos, error) {
	var (
		name string
		pos  token.Pos
	)
	for _, d := range Parse(groups...) {
		if d.Name != Field {
			continue
		}
		s, err := stringArg(d)
		if err != nil {
			return "", token.NoPos, err
		}
		name, pos = s, d.ArgsPos
	}
	return name, pos, nil
}

func stringArg(d Directive) (string, error) {
	lit := strings.TrimSpace(d.Args)
	if lit == "" || (lit[0] != '"' && lit[0] != '`') {
		return "", &Error{Pos: d.ArgsPos, Msg: "variants:" + d.Name + ": must be a string literal"}
	}
	s, err := strconv.Unquote(lit)
	if err != nil {
		return "", &Error{Pos: d.ArgsPos, Msg: "variants:" + d.Name + ": must be a string literal"}
	}
	return s, nil
}

// refList parses a comma separated list of paths. Entries that are not an
// identifier or a package-qualified identifier are reported and dropped.
func refList(d Directive) ([]Ref, error) {
	var (
		refs []Ref
		errs error
	)
	off := 0
	for _, part := range strings.Split(d.Args, ",") {
		pos := d.ArgsPos + token.Pos(off+leadingSpace(part))
		off += len(part) + 1

		entry := strings.TrimSpace(part)
		ref, ok := parseRef(entry)
		if !ok {
			errs = multierr.Append(errs, &Error{
				Pos: pos,
				Msg: "variants:" + d.Name + ": only path arguments are accepted, got " + strconv.Quote(entry),
			})
			continue
		}
		ref.Pos = pos
		refs = append(refs, ref)
	}
	return refs, errs
}

func parseRef(s string) (Ref, bool) {
	if s == "" {
		return Ref{}, false
	}
	expr, err := parser.ParseExpr(s)
	if err != nil {
		return Ref{}, false
	}
	switch x := expr.(type) {
	case *ast.Ident:
		return Ref{Name: x.Name}, true
	case *ast.SelectorExpr:
		if pkg, ok := x.X.(*ast.Ident); ok {
			return Ref{Pkg: pkg.Name, Name: x.Sel.Name}, true
		}
	}
	return Ref{}, false
}

func leadingSpace(s string) int {
	return len(s) - len(strings.TrimLeft(s, " \t"))
}
