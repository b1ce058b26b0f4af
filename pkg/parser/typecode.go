package parser

import (
	"go/types"

	"github.com/dave/jennifer/jen"
)

// typeCode renders t as jen code. Named types of other packages are
// qualified so jen adds their imports.
func (p *Parser) typeCode(t types.Type) jen.Code {
	switch t := t.(type) {
	case *types.Basic:
		return jen.Id(t.Name())
	case *types.Named:
		return p.objCode(t.Obj(), t.TypeArgs())
	case *types.Alias:
		return p.objCode(t.Obj(), t.TypeArgs())
	case *types.Pointer:
		return jen.Op("*").Add(p.typeCode(t.Elem()))
	case *types.Slice:
		return jen.Index().Add(p.typeCode(t.Elem()))
	case *types.Array:
		return jen.Index(jen.Lit(int(t.Len()))).Add(p.typeCode(t.Elem()))
	case *types.Map:
		return jen.Map(p.typeCode(t.Key())).Add(p.typeCode(t.Elem()))
	case *types.Chan:
		switch t.Dir() {
		case types.SendOnly:
			return jen.Chan().Op("<-").Add(p.typeCode(t.Elem()))
		case types.RecvOnly:
			return jen.Op("<-").Chan().Add(p.typeCode(t.Elem()))
		}
		return jen.Chan().Add(p.typeCode(t.Elem()))
	case *types.Struct:
		fields := make([]jen.Code, t.NumFields())
		for i := 0; i < t.NumFields(); i++ {
			f := t.Field(i)
			if f.Embedded() {
				fields[i] = p.typeCode(f.Type())
			} else {
				fields[i] = jen.Id(f.Name()).Add(p.typeCode(f.Type()))
			}
		}
		return jen.Struct(fields...)
	case *types.Interface:
		if t.Empty() {
			return jen.Id("any")
		}
	}
	return jen.Id(types.TypeString(t, p.qualifier))
}

func (p *Parser) objCode(obj *types.TypeName, args *types.TypeList) jen.Code {
	var s *jen.Statement
	if obj.Pkg() == nil || obj.Pkg().Path() == p.pkgPath {
		s = jen.Id(obj.Name())
	} else {
		s = jen.Qual(obj.Pkg().Path(), obj.Name())
	}
	if args.Len() == 0 {
		return s
	}
	codes := make([]jen.Code, args.Len())
	for i := 0; i < args.Len(); i++ {
		codes[i] = p.typeCode(args.At(i))
	}
	return s.Types(codes...)
}

func (p *Parser) qualifier(pkg *types.Package) string {
	if pkg.Path() == p.pkgPath {
		return ""
	}
	return pkg.Name()
}

// needsParens reports whether a conversion to t must parenthesize the type,
// as in (*T)(v).
func needsParens(t types.Type) bool {
	switch t.(type) {
	case *types.Pointer, *types.Chan:
		return true
	}
	return false
}

// unrenderable returns why t cannot be written back as an identical type
// expression, or "" when typeCode renders it faithfully.
func unrenderable(t types.Type) string {
	switch t := t.(type) {
	case *types.Named:
		return unrenderableArgs(t.TypeArgs())
	case *types.Alias:
		return unrenderableArgs(t.TypeArgs())
	case *types.Pointer:
		return unrenderable(t.Elem())
	case *types.Slice:
		return unrenderable(t.Elem())
	case *types.Array:
		return unrenderable(t.Elem())
	case *types.Chan:
		return unrenderable(t.Elem())
	case *types.Map:
		if r := unrenderable(t.Key()); r != "" {
			return r
		}
		return unrenderable(t.Elem())
	case *types.Struct:
		for i := 0; i < t.NumFields(); i++ {
			if t.Tag(i) != "" {
				return "struct literals with field tags"
			}
			if r := unrenderable(t.Field(i).Type()); r != "" {
				return r
			}
		}
	case *types.Interface:
		if !t.Empty() {
			return "interface literals with methods"
		}
	case *types.Signature, *types.Tuple, *types.TypeParam, *types.Union:
		return "function and type parameter types"
	}
	return ""
}

func unrenderableArgs(args *types.TypeList) string {
	for i := 0; i < args.Len(); i++ {
		if r := unrenderable(args.At(i)); r != "" {
			return r
		}
	}
	return ""
}
