package parser

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"log/slog"
	"sort"

	"golang.org/x/tools/go/packages"

	"github.com/cmmoran/variantsgen/internal/directive"
	"github.com/cmmoran/variantsgen/internal/model"
)

// typeDecl is a type spec together with the doc comments that apply to it.
type typeDecl struct {
	spec *ast.TypeSpec
	docs []*ast.CommentGroup
	file *ast.File
}

// constDecl is one constant name together with its doc comments.
type constDecl struct {
	name *ast.Ident
	docs []*ast.CommentGroup
}

// sortedFiles returns the package syntax in file name order.
func sortedFiles(pkg *packages.Package) []*ast.File {
	files := append([]*ast.File(nil), pkg.Syntax...)
	sort.SliceStable(files, func(i, j int) bool {
		return pkg.Fset.File(files[i].Pos()).Name() < pkg.Fset.File(files[j].Pos()).Name()
	})
	return files
}

func scanDecls(files []*ast.File) (tds []typeDecl, cds []constDecl) {
	for _, file := range files {
		for _, decl := range file.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok {
				continue
			}
			// The declaration doc applies to its spec only when the
			// declaration is not a parenthesized group.
			var genDoc *ast.CommentGroup
			if !gen.Lparen.IsValid() {
				genDoc = gen.Doc
			}
			switch gen.Tok {
			case token.TYPE:
				for _, spec := range gen.Specs {
					ts := spec.(*ast.TypeSpec)
					tds = append(tds, typeDecl{
						spec: ts,
						docs: []*ast.CommentGroup{genDoc, ts.Doc},
						file: file,
					})
				}
			case token.CONST:
				for _, spec := range gen.Specs {
					vs := spec.(*ast.ValueSpec)
					for _, id := range vs.Names {
						cds = append(cds, constDecl{
							name: id,
							docs: []*ast.CommentGroup{genDoc, vs.Doc, vs.Comment},
						})
					}
				}
			}
		}
	}
	return tds, cds
}

// collectEnums finds the selected enum declarations of pkg and their
// variants, in source order.
func (p *Parser) collectEnums(pkg *packages.Package) {
	typeDecls, constDecls := scanDecls(sortedFiles(pkg))
	info := pkg.TypesInfo

	for _, td := range typeDecls {
		name := td.spec.Name.Name
		selected := directive.HasTrigger(td.docs...)
		if len(p.Opts.Types) > 0 {
			selected = p.Opts.selects(name)
		}
		if !selected {
			continue
		}
		l := slog.Default().With("enum", name)

		dirs, err := directive.ReadEnum(td.docs...)
		p.report(err)
		for _, d := range dirs.Ignored {
			l.With("directive", d.Name).Debug("ignoring unknown directive")
		}

		if td.spec.TypeParams != nil {
			p.errorf(td.spec.Pos(), fmt.Sprintf("%s: generic enum types are not supported", name))
			continue
		}
		if td.spec.Assign.IsValid() {
			p.errorf(td.spec.Pos(), fmt.Sprintf("%s: alias declarations cannot be enums", name))
			continue
		}
		obj, ok := info.Defs[td.spec.Name].(*types.TypeName)
		if !ok {
			p.errorf(td.spec.Pos(), fmt.Sprintf("%s: type information unavailable", name))
			continue
		}
		named, ok := obj.Type().(*types.Named)
		if !ok {
			p.errorf(td.spec.Pos(), fmt.Sprintf("%s: not a defined type", name))
			continue
		}

		e := &model.Enum{
			Name:       name,
			PkgPath:    pkg.PkgPath,
			PkgName:    pkg.Name,
			Pos:        td.spec.Pos(),
			Directives: dirs,
			Imports:    fileImports(td.file, pkg),
			File:       td.file,
		}
		switch u := named.Underlying().(type) {
		case *types.Basic:
			if u.Info()&(types.IsInteger|types.IsString) == 0 {
				p.errorf(td.spec.Pos(), fmt.Sprintf("%s: const enums must have an integer or string underlying type, got %s", name, u))
				continue
			}
			e.Kind = model.KindConst
			e.Variants = p.constVariants(named, constDecls, info)
		case *types.Interface:
			if !sealed(u) {
				p.errorf(td.spec.Pos(), fmt.Sprintf("%s: sum enums must be interfaces with only unexported methods", name))
				continue
			}
			e.Kind = model.KindSum
			e.Variants = p.sumVariants(named, u, typeDecls, info)
		default:
			p.errorf(td.spec.Pos(), fmt.Sprintf("%s is neither a const enum nor a sealed interface", name))
			continue
		}

		l.With("kind", e.Kind, "variants", len(e.Variants)).Debug("collected enum")
		p.Enums = append(p.Enums, e)
	}
}

// sealed reports whether iface limits its implementations to the declaring
// package: at least one method, and all of them unexported.
func sealed(iface *types.Interface) bool {
	if iface.NumMethods() == 0 {
		return false
	}
	for i := 0; i < iface.NumMethods(); i++ {
		if iface.Method(i).Exported() {
			return false
		}
	}
	return true
}

func (p *Parser) constVariants(named *types.Named, decls []constDecl, info *types.Info) []*model.Variant {
	var (
		out  []*model.Variant
		seen = map[string]string{}
	)
	for _, cd := range decls {
		if cd.name.Name == "_" {
			continue
		}
		c, ok := info.Defs[cd.name].(*types.Const)
		if !ok || !types.Identical(c.Type(), named) {
			continue
		}
		val := c.Val().ExactString()
		if prev, dup := seen[val]; dup {
			p.errorf(cd.name.Pos(), fmt.Sprintf("%s: variant %s has the same value as %s", named.Obj().Name(), cd.name.Name, prev))
			continue
		}
		seen[val] = cd.name.Name

		v := &model.Variant{
			Name:  cd.name.Name,
			Arity: model.ArityNone,
			Pos:   cd.name.Pos(),
		}
		p.readVariantDirectives(v, cd.docs)
		out = append(out, v)
	}
	return out
}

func (p *Parser) sumVariants(named *types.Named, iface *types.Interface, decls []typeDecl, info *types.Info) []*model.Variant {
	var out []*model.Variant
	enum := named.Obj().Name()
	for _, td := range decls {
		obj, ok := info.Defs[td.spec.Name].(*types.TypeName)
		if !ok || obj == named.Obj() || td.spec.Assign.IsValid() {
			continue
		}
		t, ok := obj.Type().(*types.Named)
		if !ok || types.IsInterface(t) {
			continue
		}

		v := &model.Variant{Name: obj.Name(), Pos: td.spec.Pos()}
		switch {
		case types.Implements(t, iface):
		case types.Implements(types.NewPointer(t), iface):
			v.Pointer = true
		default:
			continue
		}
		if td.spec.TypeParams != nil {
			p.errorf(td.spec.Pos(), fmt.Sprintf("%s: generic variant %s is not supported", enum, v.Name))
			continue
		}

		if st, ok := t.Underlying().(*types.Struct); ok {
			switch st.NumFields() {
			case 0:
				v.Arity = model.ArityNone
			case 1:
				v.Arity = model.ArityNamed
				v.Key = st.Field(0).Type()
				v.KeyField = st.Field(0).Name()
			default:
				p.errorf(td.spec.Pos(), fmt.Sprintf("%s: variant %s has %d fields: only single-value tuple/struct variants are supported", enum, v.Name, st.NumFields()))
				continue
			}
		} else {
			v.Arity = model.ArityUnnamed
			v.Key = t.Underlying()
		}

		if v.Key != nil {
			if b, ok := v.Key.(*types.Basic); ok && b.Kind() == types.Invalid {
				p.errorf(td.spec.Pos(), fmt.Sprintf("%s: variant %s: cannot resolve key type", enum, v.Name))
				continue
			}
			if !types.Comparable(v.Key) {
				p.errorf(td.spec.Pos(), fmt.Sprintf("%s: variant %s: key type %s is not comparable", enum, v.Name, types.TypeString(v.Key, types.RelativeTo(named.Obj().Pkg()))))
				continue
			}
			if why := unrenderable(v.Key); why != "" {
				p.errorf(td.spec.Pos(), fmt.Sprintf("%s: variant %s: key type %s is not supported: %s cannot be rendered", enum, v.Name, types.TypeString(v.Key, types.RelativeTo(named.Obj().Pkg())), why))
				continue
			}
		}

		p.readVariantDirectives(v, td.docs)
		out = append(out, v)
	}
	return out
}

func (p *Parser) readVariantDirectives(v *model.Variant, docs []*ast.CommentGroup) {
	name, pos, err := directive.ReadVariant(docs...)
	if err != nil {
		p.report(err)
		return
	}
	v.FieldName, v.FieldNamePos = name, pos
}
