package model

import (
	"go/ast"
	"go/token"
	"go/types"

	"github.com/cmmoran/variantsgen/internal/directive"
)

type EnumKind int

const (
	KindInvalid EnumKind = iota
	KindConst            // type Color int + typed constants
	KindSum              // type Shape interface{ isShape() } + implementing types
)

func (k EnumKind) String() string {
	switch k {
	case KindConst:
		return "const"
	case KindSum:
		return "sum"
	}
	return "invalid"
}

// Arity classifies the data a variant carries.
type Arity int

const (
	ArityNone    Arity = iota // no data
	ArityUnnamed              // type Radius int: the value itself is the key
	ArityNamed                // struct{ ID string }: the single field is the key
)

type Variant struct {
	Name     string     // Go identifier of the constant or type
	Arity    Arity
	Key      types.Type // key type, nil for ArityNone
	KeyField string     // field holding the key, ArityNamed only
	Pointer  bool       // the type implements the enum through its pointer

	FieldName    string // explicit //variants:field override
	FieldNamePos token.Pos

	Pos token.Pos
}

// Keyed reports whether the variant is backed by a keyed mapping field.
func (v *Variant) Keyed() bool {
	return v.Arity != ArityNone
}

type Enum struct {
	Name     string
	PkgPath  string
	PkgName  string
	Kind     EnumKind
	Pos      token.Pos
	Variants []*Variant

	Directives directive.Enum
	// Imports maps package names visible in the declaring file to import
	// paths, for resolving qualified bounds.
	Imports map[string]string
	File    *ast.File
}

func (e *Enum) Exported() bool {
	return token.IsExported(e.Name)
}

func (e *Enum) Empty() bool {
	return len(e.Variants) == 0
}
