package parser

import (
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/packages"

	"github.com/cmmoran/variantsgen/internal/model"
)

const testPkgPath = "example.com/hello"

// checkSource parses and type checks srcs as files a.go, b.go, ... of one
// package.
func checkSource(srcs ...string) (*packages.Package, error) {
	fset := token.NewFileSet()
	syntax := make([]*ast.File, 0, len(srcs))
	for i, src := range srcs {
		name := fmt.Sprintf("%c.go", 'a'+i)
		f, err := parser.ParseFile(fset, name, src, parser.ParseComments)
		if err != nil {
			return nil, err
		}
		syntax = append(syntax, f)
	}
	info := &types.Info{
		Types:      map[ast.Expr]types.TypeAndValue{},
		Defs:       map[*ast.Ident]types.Object{},
		Uses:       map[*ast.Ident]types.Object{},
		Implicits:  map[ast.Node]types.Object{},
		Selections: map[*ast.SelectorExpr]*types.Selection{},
		Scopes:     map[ast.Node]*types.Scope{},
	}
	conf := types.Config{Importer: importer.ForCompiler(fset, "source", nil)}
	pkg, err := conf.Check(testPkgPath, fset, syntax, info)
	if err != nil {
		return nil, err
	}
	return &packages.Package{
		PkgPath:   testPkgPath,
		Name:      pkg.Name(),
		Fset:      fset,
		Syntax:    syntax,
		Types:     pkg,
		TypesInfo: info,
	}, nil
}

func loadSource(t *testing.T, srcs ...string) *packages.Package {
	t.Helper()
	pkg, err := checkSource(srcs...)
	require.NoError(t, err)
	return pkg
}

func parse(t *testing.T, src string, opts ...Option) (*Parser, error) {
	t.Helper()
	p, err := New(append([]Option{WithGoVersion("1.24")}, opts...)...)
	require.NoError(t, err)
	return p, p.ParsePackage(loadSource(t, src))
}

// generate parses src, renders it and type checks the output together with
// src and any extra files.
func generate(t *testing.T, src string, opts []Option, extra ...string) string {
	t.Helper()
	p, err := parse(t, src, opts...)
	require.NoError(t, err)
	out, err := p.Render()
	require.NoError(t, err)

	_, err = checkSource(append([]string{src, string(out)}, extra...)...)
	require.NoError(t, err, "generated code:\n%s", out)
	return string(out)
}

const helloSrc = `package hello

//variants:generate
//variants:derive json, yaml, Clone, Equal
type Hello int

const (
	World Hello = iota
	There
	ThereAndBack
	_
)
`

const shapeSrc = `package hello

import "fmt"

// Shape is drawn.
//
//variants:generate
//variants:name "ShapeTable"
//variants:bounds fmt.Stringer
//variants:derive Clone
type Shape interface{ isShape() }

type Point struct{}

func (Point) isShape() {}

type Circle struct{ Radius int }

func (Circle) isShape() {}

type Polygon int

func (Polygon) isShape() {}

type Label struct{ Text string }

func (*Label) isShape() {}

//variants:field "Anchor"
type Origin struct{}

func (*Origin) isShape() {}

type Tag string

func (*Tag) isShape() {}

var _ fmt.Stringer
`

func fieldSummary(r *model.Record) []string {
	out := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		out[i] = fmt.Sprintf("%s %s %q %s", f.Variant.Name, f.Name, f.Wire, f.Param)
	}
	return out
}

func TestParseConstEnum(t *testing.T) {
	p, err := parse(t, helloSrc)
	require.NoError(t, err)
	require.Len(t, p.Records, 1)

	r := p.Records[0]
	require.Equal(t, "HelloStruct", r.Name)
	require.Equal(t, "NewHelloStruct", r.Constructor)
	require.Equal(t, model.KindConst, r.Enum.Kind)
	require.Equal(t, []string{"json", "yaml"}, r.Tags)
	require.True(t, r.Clone)
	require.True(t, r.Equal)
	require.True(t, r.Iterator)
	require.Equal(t, []model.Bound{{Name: "comparable"}}, r.Bounds)

	want := []string{
		`World World "world" world`,
		`There There "there" there`,
		`ThereAndBack ThereAndBack "there_and_back" thereAndBack`,
	}
	if diff := cmp.Diff(want, fieldSummary(r)); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, r.Params(), 3)
	require.Equal(t, []string{"Hello"}, p.Types())
	require.Equal(t, testPkgPath, p.Package())
}

func TestParseSumEnum(t *testing.T) {
	p, err := parse(t, shapeSrc)
	require.NoError(t, err)
	require.Len(t, p.Records, 1)

	r := p.Records[0]
	require.Equal(t, "ShapeTable", r.Name)
	require.Equal(t, []model.Bound{{Path: "fmt", Name: "Stringer"}}, r.Bounds)
	require.Empty(t, r.Tags)

	tests := []struct {
		variant string
		arity   model.Arity
		slot    model.SlotKind
		pointer bool
		key     string
	}{
		{"Point", model.ArityNone, model.SlotDirect, false, ""},
		{"Circle", model.ArityNamed, model.SlotKeyed, false, "int"},
		{"Polygon", model.ArityUnnamed, model.SlotKeyed, false, "int"},
		{"Label", model.ArityNamed, model.SlotKeyed, true, "string"},
		{"Origin", model.ArityNone, model.SlotDirect, true, ""},
		{"Tag", model.ArityUnnamed, model.SlotKeyed, true, "string"},
	}
	require.Len(t, r.Fields, len(tests))
	for i, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			f := r.Fields[i]
			require.Equal(t, tt.variant, f.Variant.Name)
			require.Equal(t, tt.arity, f.Variant.Arity)
			require.Equal(t, tt.slot, f.Slot)
			require.Equal(t, tt.pointer, f.Variant.Pointer)
			if tt.key != "" {
				require.Equal(t, tt.key, f.Variant.Key.String())
			}
		})
	}
	require.Equal(t, "Anchor", r.Fields[4].Name)
	require.Equal(t, "Anchor", r.Fields[4].Wire)
	require.Len(t, r.Params(), 2)
	require.Len(t, r.Keyed(), 4)
}

func TestGenerateConstEnum(t *testing.T) {
	use := `package hello

func use() {
	s := NewHelloStruct("a", "b", "c")
	*s.GetMutUnchecked(There) = "x"
	if v, ok := s.Get(There); !ok || v != s.GetUnchecked(There) {
		panic(v)
	}
	s.Set(World, "w")
	for v, value := range s.All() {
		_, _ = v, value
	}
	c := s.Clone()
	_ = c.Equal(&s)
}
`
	out := generate(t, helloSrc, nil, use)
	require.True(t, strings.HasPrefix(out, "// Code generated by variantsgen. DO NOT EDIT."))
	require.Contains(t, out, "type HelloStruct[T comparable] struct {")
	require.Contains(t, out, "ThereAndBack T `json:\"there_and_back\" yaml:\"there_and_back\"`")
	require.Contains(t, out, "func NewHelloStruct[T comparable](world T, there T, thereAndBack T) HelloStruct[T] {")
	require.Contains(t, out, `panic(fmt.Sprintf("invalid Hello variant %v", v))`)
	require.Contains(t, out, "func (s *HelloStruct[T]) All() iter.Seq2[Hello, T] {")
	require.NotContains(t, out, "variant key not found in map")
}

func TestGenerateSumEnum(t *testing.T) {
	use := `package hello

type name string

func (n name) String() string { return string(n) }

func use() {
	s := NewShapeTable[name]("p", "o")
	s.Set(Circle{Radius: 2}, "circle")
	s.Set(&Label{Text: "l"}, "label")
	tag := Tag("t")
	s.Set(&tag, "tag")
	if v, ok := s.GetMut(Polygon(3)); ok {
		*v = "never"
	}
	_ = s.GetUnchecked(Point{})
	_ = s.GetUnchecked(&Origin{})
	for v, value := range s.All() {
		_, _ = v, value.String()
	}
	_ = s.Clone()
}
`
	out := generate(t, shapeSrc, nil, use)
	require.Contains(t, out, "type ShapeTable[T fmt.Stringer] struct {")
	require.Contains(t, out, "Circle  map[int]*T")
	require.Contains(t, out, "switch v := v.(type) {")
	require.Contains(t, out, "if p := s.Polygon[int(v)]; p != nil {")
	require.Contains(t, out, "p := s.Tag[string(*v)]")
	require.Contains(t, out, "case *Label:")
	require.Contains(t, out, `panic("variant key not found in map")`)
	require.NotContains(t, out, "func (s *ShapeTable[T]) Equal")
}

func TestGenerateUnexportedEnum(t *testing.T) {
	src := `package hello

//variants:generate
//variants:derive Equal
type mode string

const (
	modeRead  mode = "r"
	modeWrite mode = "w"
	modeType  mode = "t"
)

//variants:generate
//variants:derive Equal
type event interface{ isEvent() }

type click struct{ At [2]int }

func (click) isEvent() {}

type key rune

func (key) isEvent() {}
`
	out := generate(t, src, nil)
	require.Contains(t, out, "type modeStruct[T comparable] struct {")
	require.Contains(t, out, "func newModeStruct[T comparable](read T, write T, type_ T) modeStruct[T] {")
	require.Contains(t, out, "s.type_")
	require.Contains(t, out, "func eventStructEqualMaps[K comparable, V comparable](a, b map[K]*V) bool {")
	require.Contains(t, out, "click map[[2]int]*T")
}

func TestGenerateEmptyEnum(t *testing.T) {
	src := `package hello

// nothing has no variants.
//
//variants:generate
//variants:derive json, Equal
//variants:attr nolint:unused
type nothing int
`
	out := generate(t, src, nil)
	require.Contains(t, out, "//nolint:unused\ntype nothingStruct struct{}")
	require.NotContains(t, out, "func ")
}

func TestGenerateKeyshapes(t *testing.T) {
	src := `package hello

import "time"

//variants:generate
type Event interface{ isEvent() }

type Ticked time.Duration

func (Ticked) isEvent() {}

type Ref struct{ *time.Location }

func (Ref) isEvent() {}

type Started struct{ At time.Time }

func (*Started) isEvent() {}
`
	out := generate(t, src, []Option{WithDerives("Clone")})
	require.Contains(t, out, "Ticked  map[int64]*T")
	require.Contains(t, out, "Ref     map[*time.Location]*T")
	require.Contains(t, out, "Started map[time.Time]*T")
	require.Contains(t, out, "s.Ref[v.Location]")
	require.Contains(t, out, "&Started{At: k}")
}

func TestTypesOption(t *testing.T) {
	src := `package hello

type Color int

const (
	ColorRed Color = iota
	ColorGreen
)

type Unused int
`
	out := generate(t, src, []Option{WithTypes("Color"), WithSuffix("Set")})
	require.Contains(t, out, "type ColorSet[T any] struct {")
	require.Contains(t, out, "Red   T")
	require.NotContains(t, out, "Unused")

	out = generate(t, src, []Option{WithTypes("Color"), WithoutTrimPrefix()})
	require.Contains(t, out, "ColorRed   T")
}

func TestGoVersion(t *testing.T) {
	p, err := parse(t, helloSrc, WithGoVersion("go1.22"))
	require.NoError(t, err)
	out, err := p.Render()
	require.NoError(t, err)
	require.NotContains(t, string(out), `"iter"`)
	require.NotContains(t, string(out), "All()")

	_, err = parse(t, helloSrc, WithGoVersion("1.17"))
	require.ErrorContains(t, err, "go 1.18 or later is required")
}

func TestNoEnums(t *testing.T) {
	p, err := parse(t, "package hello\n\ntype Plain int\n")
	require.NoError(t, err)
	_, err = p.Render()
	require.ErrorIs(t, err, ErrNoEnums)
}

func TestDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "two value variant",
			src: `//variants:generate
type Shape interface{ isShape() }

type Rect struct{ W, H int }

func (Rect) isShape() {}
`,
			want: "b.go:6:6: Shape: variant Rect has 2 fields: only single-value tuple/struct variants are supported",
		},
		{
			name: "name not a string",
			src: `//variants:generate
//variants:name Greetings
type Hello int

const World Hello = 0
`,
			want: "b.go:4:17: variants:name: must be a string literal",
		},
		{
			name: "name not an identifier",
			src: `//variants:generate
//variants:name "not valid"
type Hello int
`,
			want: `variants:name: "not valid" is not a valid Go identifier`,
		},
		{
			name: "bound not a path",
			src: `//variants:generate
//variants:bounds comparable, []int
type Hello int
`,
			want: `b.go:4:31: variants:bounds: only path arguments are accepted, got "[]int"`,
		},
		{
			name: "bound package not imported",
			src: `//variants:generate
//variants:bounds fmt.Stringer
type Hello int
`,
			want: "variants:bounds: fmt.Stringer: package fmt is not imported",
		},
		{
			name: "unknown derive",
			src: `//variants:generate
//variants:derive Debug
type Hello int
`,
			want: "variants:derive: unknown derive Debug",
		},
		{
			name: "non comparable key",
			src: `//variants:generate
type Shape interface{ isShape() }

type Path []int

func (Path) isShape() {}
`,
			want: "Shape: variant Path: key type []int is not comparable",
		},
		{
			name: "duplicate const value",
			src: `//variants:generate
type Hello int

const (
	World Hello = 1
	Earth Hello = 1
)
`,
			want: "b.go:8:2: Hello: variant Earth has the same value as World",
		},
		{
			name: "field collides with method",
			src: `//variants:generate
type Hello int

//variants:field "Get"
const World Hello = 0
`,
			want: "HelloStruct: field Get of variant World collides with a generated method",
		},
		{
			name: "duplicate field",
			src: `//variants:generate
type Hello int

const (
	HelloWorld Hello = iota
	World
)
`,
			want: "HelloStruct: variants HelloWorld and World both map to field World",
		},
		{
			name: "tagged struct key",
			src: `//variants:generate
type Shape interface{ isShape() }

type Pin struct{ At struct{ X int ` + "`json:\"x\"`" + ` } }

func (Pin) isShape() {}
`,
			want: "is not supported: struct literals with field tags cannot be rendered",
		},
		{
			name: "interface literal key",
			src: `//variants:generate
type Shape interface{ isShape() }

type Any struct{ V interface{ M() } }

func (Any) isShape() {}
`,
			want: "key type interface{M()} is not supported: interface literals with methods cannot be rendered",
		},
		{
			name: "variant shadowed by generated local",
			src: `//variants:generate
type Hello int

const (
	v Hello = iota
	World
)
`,
			want: "HelloStruct: variant v is shadowed by an identifier of the generated code",
		},
		{
			name: "key type shadowed by generated local",
			src: `//variants:generate
type Shape interface{ isShape() }

type k int

type Box struct{ K k }

func (Box) isShape() {}
`,
			want: "ShapeStruct: key type k of variant Box is shadowed by an identifier of the generated code",
		},
		{
			name: "reserved enum name",
			src: `//variants:generate
type s int
`,
			want: "s: enum name s is reserved by the generated code",
		},
		{
			name: "generic enum",
			src: `//variants:generate
type Box[T any] interface{ isBox(T) }
`,
			want: "Box: generic enum types are not supported",
		},
		{
			name: "not an enum",
			src: `//variants:generate
type Pair struct{ A, B int }
`,
			want: "Pair is neither a const enum nor a sealed interface",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(WithGoVersion("1.24"))
			require.NoError(t, err)
			pkg := loadSource(t, "package hello\n", "package hello\n\n"+tt.src)
			err = p.ParsePackage(pkg)
			require.Error(t, err)
			require.Empty(t, p.Records)

			var msgs []string
			for _, d := range Diagnostics(err) {
				msgs = append(msgs, d.Error())
			}
			require.NotEmpty(t, msgs)
			found := false
			for _, m := range msgs {
				if strings.Contains(m, tt.want) {
					found = true
				}
			}
			require.True(t, found, "want %q in %q", tt.want, msgs)
		})
	}
}

func TestDiagnosticsAbortFile(t *testing.T) {
	src := helloSrc + `
//variants:generate
type Shape interface{ isShape() }

type Rect struct{ W, H int }

func (Rect) isShape() {}
`
	p, err := parse(t, src)
	require.Error(t, err)
	require.Len(t, Diagnostics(err), 1)
	_, err = p.Render()
	require.ErrorIs(t, err, ErrNoEnums)
}

func TestGenerateFieldOverrides(t *testing.T) {
	src := `package hello

//variants:generate
//variants:derive json
type Hello int

//variants:field "this_name"
const World Hello = 0

//variants:generate
//variants:derive json
type token int

const (
	//variants:field "struct"
	tokenIf token = iota
	tokenRange
)
`
	use := `package hello

import "encoding/json"

func use() {
	h := NewHelloStruct(1)
	_ = h.This_name
	data, _ := json.Marshal(h)
	_ = data
	t := newTokenStruct("s", "r")
	_ = t.struct_ + t.range_
}
`
	out := generate(t, src, nil, use)
	require.Contains(t, out, "This_name T `json:\"this_name\"`")
	require.Contains(t, out, "struct_ T `json:\"struct\"`")
	require.Contains(t, out, "range_  T `json:\"range\"`")
	require.Contains(t, out, "func newTokenStruct[T any](struct_ T, range_ T) tokenStruct[T] {")
}

func TestLoadErrors(t *testing.T) {
	typeErr := packages.Error{Pos: "c.go:11:9", Msg: "undefined: NewColorStruct", Kind: packages.TypeError}
	compileErr := packages.Error{Pos: "-", Msg: "# example.com/c\n./c.go:11:9: undefined: NewColorStruct", Kind: packages.ListError}

	tests := []struct {
		name    string
		errs    []packages.Error
		wantErr string
	}{
		{"type errors only", []packages.Error{typeErr}, ""},
		{"compile output duplicates type errors", []packages.Error{compileErr, typeErr}, ""},
		{"compile output without type errors", []packages.Error{compileErr}, "undefined: NewColorStruct"},
		{"other list errors", []packages.Error{typeErr, {Pos: "-", Msg: "no Go files in /tmp/c", Kind: packages.ListError}}, "no Go files"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := loadErrors(&packages.Package{PkgPath: "example.com/c", Errors: tt.errs})
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}
