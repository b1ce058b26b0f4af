package parser

import (
	"fmt"
	"go/token"
	"go/types"

	"github.com/cmmoran/variantsgen/internal/directive"
	"github.com/cmmoran/variantsgen/internal/model"
	"github.com/cmmoran/variantsgen/internal/naming"
)

// Method derives. Any other derive starting with a lower case letter is a
// struct tag key.
const (
	deriveClone = "Clone"
	deriveEqual = "Equal"
)

// generatedMethods lists the method names a record may carry. A field with
// one of these names would not compile.
var generatedMethods = map[string]bool{
	"Get":             true,
	"GetMut":          true,
	"GetUnchecked":    true,
	"GetMutUnchecked": true,
	"Set":             true,
	"All":             true,
	deriveClone:       true,
	deriveEqual:       true,
}

// generatedLocals lists the identifiers generated code declares or imports
// around references to the enum, its variants and key types.
var generatedLocals = map[string]bool{
	"T": true, "s": true, "v": true, "p": true, "k": true, "x": true,
	"c": true, "o": true, "out": true, "value": true, "yield": true,
	"zero": true, "ok": true, "fmt": true, "iter": true,
}

// buildRecord synthesizes the record description for e. It returns nil when
// diagnostics were reported for e.
func (p *Parser) buildRecord(e *model.Enum) *model.Record {
	before := len(Diagnostics(p.diags))

	r := &model.Record{
		Name:  e.Name + p.Opts.Suffix,
		Enum:  e,
		Attrs: append([]string(nil), e.Directives.Attrs...),
	}
	if e.Directives.Name != "" {
		if !token.IsIdentifier(e.Directives.Name) {
			p.errorf(e.Directives.NamePos, fmt.Sprintf("variants:name: %q is not a valid Go identifier", e.Directives.Name))
		}
		r.Name = e.Directives.Name
	}
	r.Constructor = constructorName(r.Name)
	if generatedLocals[e.Name] {
		p.errorf(e.Pos, fmt.Sprintf("%s: enum name %s is reserved by the generated code", e.Name, e.Name))
	}
	if generatedLocals[r.Name] {
		p.errorf(e.Pos, fmt.Sprintf("%s: record name %s is reserved by the generated code", e.Name, r.Name))
	}

	p.applyDerives(r, e)
	p.applyBounds(r, e)

	if !e.Empty() {
		p.synthesizeFields(r, e)
		r.Iterator = p.supportsIterators()
	}

	if len(Diagnostics(p.diags)) > before {
		return nil
	}
	return r
}

func constructorName(record string) string {
	if token.IsExported(record) {
		return "New" + record
	}
	return "new" + naming.Export(record)
}

func (p *Parser) applyDerives(r *model.Record, e *model.Enum) {
	refs := make([]directive.Ref, 0, len(p.Opts.Derives)+len(e.Directives.Derives))
	for _, d := range p.Opts.Derives {
		refs = append(refs, directive.Ref{Name: d, Pos: e.Pos})
	}
	refs = append(refs, e.Directives.Derives...)

	seen := map[string]bool{}
	for _, ref := range refs {
		if seen[ref.String()] {
			continue
		}
		seen[ref.String()] = true

		switch {
		case ref.Pkg != "":
			p.errorf(ref.Pos, fmt.Sprintf("variants:derive: %s: qualified derives are not supported", ref))
		case ref.Name == deriveClone:
			r.Clone = true
		case ref.Name == deriveEqual:
			r.Equal = true
		case token.IsExported(ref.Name):
			p.errorf(ref.Pos, fmt.Sprintf("variants:derive: unknown derive %s", ref))
		case !token.IsIdentifier(ref.Name):
			p.errorf(ref.Pos, fmt.Sprintf("variants:derive: %q is not a valid tag key", ref.Name))
		default:
			r.Tags = append(r.Tags, ref.Name)
		}
	}
}

func (p *Parser) applyBounds(r *model.Record, e *model.Enum) {
	seen := map[model.Bound]bool{}
	add := func(b model.Bound) {
		if !seen[b] {
			seen[b] = true
			r.Bounds = append(r.Bounds, b)
		}
	}
	for _, ref := range e.Directives.Bounds {
		switch {
		case ref.Pkg != "":
			path, ok := e.Imports[ref.Pkg]
			if !ok {
				p.errorf(ref.Pos, fmt.Sprintf("variants:bounds: %s: package %s is not imported", ref, ref.Pkg))
				continue
			}
			add(model.Bound{Path: path, Name: ref.Name})
		case types.Universe.Lookup(ref.Name) != nil:
			add(model.Bound{Name: ref.Name})
		default:
			add(model.Bound{Path: e.PkgPath, Name: ref.Name})
		}
	}
	// Equal compares T values with ==.
	if r.Equal && !e.Empty() {
		add(model.Bound{Name: "comparable"})
	}
}

func (p *Parser) synthesizeFields(r *model.Record, e *model.Enum) {
	var (
		names  = map[string]string{}
		wires  = map[string]string{}
		params = map[string]string{}
	)
	for _, v := range e.Variants {
		if generatedLocals[v.Name] {
			p.errorf(v.Pos, fmt.Sprintf("%s: variant %s is shadowed by an identifier of the generated code", r.Name, v.Name))
			continue
		}
		if name := localTypeName(v.Key, e.PkgPath); generatedLocals[name] {
			p.errorf(v.Pos, fmt.Sprintf("%s: key type %s of variant %s is shadowed by an identifier of the generated code", r.Name, name, v.Name))
			continue
		}
		f := &model.Field{Variant: v}
		pos := v.Pos
		if v.FieldName != "" {
			pos = v.FieldNamePos
			// The override is the wire name as written. Exported enums still
			// get exported fields.
			f.Name = naming.Escape(v.FieldName)
			if e.Exported() {
				f.Name = naming.Escape(naming.Export(v.FieldName))
			}
			f.Wire = v.FieldName
			if !token.IsIdentifier(f.Name) {
				p.errorf(pos, fmt.Sprintf("variants:field: %q is not a valid Go identifier", v.FieldName))
				continue
			}
		} else {
			base := v.Name
			if p.Opts.TrimPrefix {
				base = naming.Trim(base, e.Name)
			}
			f.Name = naming.Field(base, e.Exported())
			f.Wire = naming.Wire(base)
		}
		if v.Keyed() {
			f.Slot = model.SlotKeyed
		} else {
			f.Slot = model.SlotDirect
			f.Param = naming.Param(f.Name)
		}

		if generatedMethods[f.Name] {
			p.errorf(pos, fmt.Sprintf("%s: field %s of variant %s collides with a generated method", r.Name, f.Name, v.Name))
			continue
		}
		if prev, dup := names[f.Name]; dup {
			p.errorf(pos, fmt.Sprintf("%s: variants %s and %s both map to field %s", r.Name, prev, v.Name, f.Name))
			continue
		}
		if prev, dup := wires[f.Wire]; dup {
			p.errorf(pos, fmt.Sprintf("%s: variants %s and %s both map to name %q", r.Name, prev, v.Name, f.Wire))
			continue
		}
		if prev, dup := params[f.Param]; f.Param != "" && dup {
			p.errorf(pos, fmt.Sprintf("%s: variants %s and %s both map to parameter %s", r.Name, prev, v.Name, f.Param))
			continue
		}
		names[f.Name], wires[f.Wire] = v.Name, v.Name
		if f.Param != "" {
			params[f.Param] = v.Name
		}
		r.Fields = append(r.Fields, f)
	}
}

// localTypeName returns the name of t when it is a named type declared in
// pkgPath.
func localTypeName(t types.Type, pkgPath string) string {
	n, ok := t.(interface{ Obj() *types.TypeName })
	if !ok || n.Obj().Pkg() == nil || n.Obj().Pkg().Path() != pkgPath {
		return ""
	}
	return n.Obj().Name()
}
