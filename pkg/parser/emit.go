package parser

import (
	"fmt"
	"runtime/debug"

	"github.com/dave/jennifer/jen"

	"github.com/cmmoran/variantsgen/internal/model"
	"github.com/cmmoran/variantsgen/internal/naming"
)

const (
	// Generator is written into the generated file header.
	Generator = "variantsgen"

	missingKey = "variant key not found in map"
)

// Version returns the module version of the running generator, "devel" for
// builds outside a released module.
func Version() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return "devel"
}

// GenerateFile renders every record into a single file of the parsed
// package.
func (p *Parser) GenerateFile() *jen.File {
	f := jen.NewFilePathName(p.pkgPath, p.pkgName)
	f.HeaderComment(fmt.Sprintf("Code generated by %s. DO NOT EDIT.", Generator))

	for _, r := range p.Records {
		e := &emitter{p: p, r: r}
		e.emit(f)
	}
	return f
}

// emitter renders one record.
type emitter struct {
	p *Parser
	r *model.Record
}

func (e *emitter) emit(f *jen.File) {
	r := e.r
	f.Line()
	f.Commentf("%s holds one value for every %s variant.", r.Name, r.Enum.Name)
	if len(r.Attrs) > 0 {
		f.Comment("//")
	}
	for _, a := range r.Attrs {
		f.Comment("//" + a)
	}
	if r.Empty() {
		f.Type().Id(r.Name).Struct()
		return
	}

	fields := make([]jen.Code, len(r.Fields))
	for i, fd := range r.Fields {
		s := jen.Id(fd.Name).Add(e.slot(fd))
		if len(r.Tags) > 0 {
			tags := make(map[string]string, len(r.Tags))
			for _, k := range r.Tags {
				tags[k] = fd.Wire
			}
			s.Tag(tags)
		}
		fields[i] = s
	}
	f.Type().Id(r.Name).Types(e.typeParam()).Struct(fields...)

	e.constructor(f)
	e.getMutUnchecked(f)
	e.getUnchecked(f)
	e.getMut(f)
	e.get(f)
	e.set(f)
	if r.Iterator {
		e.all(f)
	}
	if r.Clone {
		e.clone(f)
	}
	if r.Equal {
		e.equal(f)
	}
}

// fresh jen fragments ---------------------------------------------------------

func (e *emitter) typeParam() jen.Code {
	t := jen.Id("T")
	switch len(e.r.Bounds) {
	case 0:
		return t.Id("any")
	case 1:
		return t.Add(boundCode(e.r.Bounds[0]))
	}
	codes := make([]jen.Code, len(e.r.Bounds))
	for i, b := range e.r.Bounds {
		codes[i] = boundCode(b)
	}
	return t.Interface(codes...)
}

func boundCode(b model.Bound) jen.Code {
	if b.Path == "" {
		return jen.Id(b.Name)
	}
	return jen.Qual(b.Path, b.Name)
}

// recordType renders R[T].
func (e *emitter) recordType() *jen.Statement {
	return jen.Id(e.r.Name).Types(jen.Id("T"))
}

func (e *emitter) receiver() jen.Code {
	return jen.Id("s").Op("*").Add(e.recordType())
}

func (e *emitter) enumType() *jen.Statement {
	return jen.Id(e.r.Enum.Name)
}

func (e *emitter) slot(fd *model.Field) jen.Code {
	if fd.Slot == model.SlotDirect {
		return jen.Id("T")
	}
	return e.mapType(fd)
}

func (e *emitter) mapType(fd *model.Field) *jen.Statement {
	return jen.Map(e.p.typeCode(fd.Variant.Key)).Op("*").Id("T")
}

func (e *emitter) field(fd *model.Field) *jen.Statement {
	return jen.Id("s").Dot(fd.Name)
}

func (e *emitter) sum() bool {
	return e.r.Enum.Kind == model.KindSum
}

// switchOn renders the switch header over the accessor argument v. Type
// switches only bind v when a keyed variant reads it.
func (e *emitter) switchOn() *jen.Statement {
	if !e.sum() {
		return jen.Switch(jen.Id("v"))
	}
	if len(e.r.Keyed()) > 0 {
		return jen.Switch(jen.Id("v").Op(":=").Id("v").Assert(jen.Type()))
	}
	return jen.Switch(jen.Id("v").Assert(jen.Type()))
}

func (e *emitter) caseOf(fd *model.Field) *jen.Statement {
	v := fd.Variant
	if v.Pointer {
		return jen.Case(jen.Op("*").Id(v.Name))
	}
	return jen.Case(jen.Id(v.Name))
}

// key renders the map key carried by the bound variant value v.
func (e *emitter) key(fd *model.Field) jen.Code {
	v := fd.Variant
	if v.Arity == model.ArityNamed {
		return jen.Id("v").Dot(v.KeyField)
	}
	operand := jen.Id("v")
	if v.Pointer {
		operand = jen.Op("*").Id("v")
	}
	conv := jen.Add(e.p.typeCode(v.Key))
	if needsParens(v.Key) {
		conv = jen.Parens(e.p.typeCode(v.Key))
	}
	return conv.Call(operand)
}

// value renders the variant value built from the map key k, for All.
func (e *emitter) value(fd *model.Field) jen.Code {
	v := fd.Variant
	if !e.sum() {
		return jen.Id(v.Name)
	}
	var lit *jen.Statement
	switch v.Arity {
	case model.ArityNone:
		lit = jen.Id(v.Name).Values()
	case model.ArityNamed:
		lit = jen.Id(v.Name).Values(jen.Id(v.KeyField).Op(":").Id("k"))
	default:
		lit = jen.Id(v.Name).Call(jen.Id("k"))
	}
	if v.Pointer {
		return jen.Op("&").Add(lit)
	}
	return lit
}

func (e *emitter) invalid() jen.Code {
	verb := "%v"
	if e.sum() {
		verb = "%T"
	}
	return jen.Panic(jen.Qual("fmt", "Sprintf").Call(jen.Lit("invalid "+e.r.Enum.Name+" variant "+verb), jen.Id("v")))
}

// methods ---------------------------------------------------------------------

func (e *emitter) constructor(f *jen.File) {
	r := e.r
	params := make([]jen.Code, 0, len(r.Fields))
	for _, fd := range r.Params() {
		params = append(params, jen.Id(fd.Param).Id("T"))
	}
	values := jen.Dict{}
	for _, fd := range r.Fields {
		if fd.Slot == model.SlotDirect {
			values[jen.Id(fd.Name)] = jen.Id(fd.Param)
		} else {
			values[jen.Id(fd.Name)] = jen.Make(e.mapType(fd))
		}
	}

	f.Line()
	f.Commentf("%s returns a %s holding one value per variant without data, in declaration order.", r.Constructor, r.Name)
	if len(r.Keyed()) > 0 {
		f.Comment("Variants carrying data start with empty maps.")
	}
	f.Func().Id(r.Constructor).Types(e.typeParam()).Params(params...).Add(e.recordType()).Block(
		jen.Return(e.recordType().Values(values)),
	)
}

func (e *emitter) getMutUnchecked(f *jen.File) {
	cases := make([]jen.Code, 0, len(e.r.Fields))
	for _, fd := range e.r.Fields {
		var body []jen.Code
		switch {
		case !fd.Variant.Keyed():
			body = []jen.Code{jen.Return(jen.Op("&").Add(e.field(fd)))}
		case fd.Variant.Pointer:
			body = []jen.Code{
				jen.If(jen.Id("v").Op("!=").Nil()).Block(e.lookupOrReturn(fd)),
				jen.Panic(jen.Lit(missingKey)),
			}
		default:
			body = []jen.Code{
				e.lookupOrReturn(fd),
				jen.Panic(jen.Lit(missingKey)),
			}
		}
		cases = append(cases, e.caseOf(fd).Block(body...))
	}

	f.Line()
	f.Comment("GetMutUnchecked returns a pointer to the value stored for v. It panics")
	f.Comment("when v carries a key that was never set or is not a variant.")
	f.Func().Params(e.receiver()).Id("GetMutUnchecked").Params(jen.Id("v").Add(e.enumType())).Op("*").Id("T").Block(
		e.switchOn().Block(cases...),
		e.invalid(),
	)
}

// lookupOrReturn renders: if p := s.F[key]; p != nil { return p }.
func (e *emitter) lookupOrReturn(fd *model.Field) jen.Code {
	return jen.If(
		jen.Id("p").Op(":=").Add(e.field(fd)).Index(e.key(fd)),
		jen.Id("p").Op("!=").Nil(),
	).Block(jen.Return(jen.Id("p")))
}

func (e *emitter) getUnchecked(f *jen.File) {
	f.Line()
	f.Comment("GetUnchecked returns the value stored for v. It panics like GetMutUnchecked.")
	f.Func().Params(e.receiver()).Id("GetUnchecked").Params(jen.Id("v").Add(e.enumType())).Id("T").Block(
		jen.Return(jen.Op("*").Id("s").Dot("GetMutUnchecked").Call(jen.Id("v"))),
	)
}

func (e *emitter) getMut(f *jen.File) {
	cases := make([]jen.Code, 0, len(e.r.Fields))
	for _, fd := range e.r.Fields {
		var body []jen.Code
		if !fd.Variant.Keyed() {
			body = []jen.Code{jen.Return(jen.Op("&").Add(e.field(fd)), jen.True())}
		} else {
			if fd.Variant.Pointer {
				body = append(body, jen.If(jen.Id("v").Op("==").Nil()).Block(jen.Break()))
			}
			body = append(body,
				jen.Id("p").Op(":=").Add(e.field(fd)).Index(e.key(fd)),
				jen.Return(jen.Id("p"), jen.Id("p").Op("!=").Nil()),
			)
		}
		cases = append(cases, e.caseOf(fd).Block(body...))
	}

	f.Line()
	f.Comment("GetMut returns a pointer to the value stored for v. It reports false when")
	f.Comment("v carries a key that was never set or is not a variant.")
	f.Func().Params(e.receiver()).Id("GetMut").Params(jen.Id("v").Add(e.enumType())).Params(jen.Op("*").Id("T"), jen.Bool()).Block(
		e.switchOn().Block(cases...),
		jen.Return(jen.Nil(), jen.False()),
	)
}

func (e *emitter) get(f *jen.File) {
	f.Line()
	f.Comment("Get returns the value stored for v. It reports false where GetMut does.")
	f.Func().Params(e.receiver()).Id("Get").Params(jen.Id("v").Add(e.enumType())).Params(jen.Id("T"), jen.Bool()).Block(
		jen.If(
			jen.List(jen.Id("p"), jen.Id("ok")).Op(":=").Id("s").Dot("GetMut").Call(jen.Id("v")),
			jen.Id("ok"),
		).Block(jen.Return(jen.Op("*").Id("p"), jen.True())),
		jen.Var().Id("zero").Id("T"),
		jen.Return(jen.Id("zero"), jen.False()),
	)
}

func (e *emitter) set(f *jen.File) {
	cases := make([]jen.Code, 0, len(e.r.Fields)+1)
	for _, fd := range e.r.Fields {
		var body []jen.Code
		if !fd.Variant.Keyed() {
			body = []jen.Code{e.field(fd).Op("=").Id("value")}
		} else {
			if fd.Variant.Pointer {
				body = append(body, jen.If(jen.Id("v").Op("==").Nil()).Block(e.invalid()))
			}
			body = append(body,
				jen.If(e.field(fd).Op("==").Nil()).Block(
					e.field(fd).Op("=").Make(e.mapType(fd)),
				),
				e.field(fd).Index(e.key(fd)).Op("=").Op("&").Id("value"),
			)
		}
		cases = append(cases, e.caseOf(fd).Block(body...))
	}
	cases = append(cases, jen.Default().Block(e.invalid()))

	f.Line()
	f.Comment("Set stores value for v, making the map of a data carrying variant as")
	f.Comment("needed. It panics when v is not a variant.")
	f.Func().Params(e.receiver()).Id("Set").Params(jen.Id("v").Add(e.enumType()), jen.Id("value").Id("T")).Block(
		e.switchOn().Block(cases...),
	)
}

func (e *emitter) all(f *jen.File) {
	stop := func(v jen.Code, val jen.Code) jen.Code {
		return jen.If(jen.Op("!").Id("yield").Call(v, val)).Block(jen.Return())
	}

	var body []jen.Code
	for _, fd := range e.r.Fields {
		if !fd.Variant.Keyed() {
			body = append(body, stop(e.value(fd), e.field(fd)))
			continue
		}
		loop := []jen.Code{
			jen.If(jen.Id("p").Op("==").Nil()).Block(jen.Continue()),
		}
		if fd.Variant.Pointer && fd.Variant.Arity == model.ArityUnnamed {
			loop = append(loop,
				jen.Id("x").Op(":=").Id(fd.Variant.Name).Call(jen.Id("k")),
				stop(jen.Op("&").Id("x"), jen.Op("*").Id("p")),
			)
		} else {
			loop = append(loop, stop(e.value(fd), jen.Op("*").Id("p")))
		}
		body = append(body,
			jen.For(jen.List(jen.Id("k"), jen.Id("p")).Op(":=").Range().Add(e.field(fd))).Block(loop...),
		)
	}

	f.Line()
	f.Comment("All yields every stored variant and its value in declaration order. Entries")
	f.Comment("of a data carrying variant are yielded in map order.")
	f.Func().Params(e.receiver()).Id("All").Params().Qual("iter", "Seq2").Types(e.enumType(), jen.Id("T")).Block(
		jen.Return(jen.Func().Params(jen.Id("yield").Func().Params(e.enumType(), jen.Id("T")).Bool()).Block(body...)),
	)
}

func (e *emitter) clone(f *jen.File) {
	body := []jen.Code{jen.Id("out").Op(":=").Op("*").Id("s")}
	for _, fd := range e.r.Keyed() {
		body = append(body, jen.If(e.field(fd).Op("!=").Nil()).Block(
			jen.Id("out").Dot(fd.Name).Op("=").Make(e.mapType(fd), jen.Len(e.field(fd))),
			jen.For(jen.List(jen.Id("k"), jen.Id("p")).Op(":=").Range().Add(e.field(fd))).Block(
				jen.If(jen.Id("p").Op("!=").Nil()).Block(
					jen.Id("c").Op(":=").Op("*").Id("p"),
					jen.Id("out").Dot(fd.Name).Index(jen.Id("k")).Op("=").Op("&").Id("c"),
				),
			),
		))
	}
	body = append(body, jen.Return(jen.Id("out")))

	f.Line()
	f.Comment("Clone returns a copy of s that shares no map or stored value with it.")
	f.Func().Params(e.receiver()).Id("Clone").Params().Add(e.recordType()).Block(body...)
}

func (e *emitter) equal(f *jen.File) {
	helper := naming.Unexport(e.r.Name) + "EqualMaps"

	var expr *jen.Statement
	for _, fd := range e.r.Fields {
		var term *jen.Statement
		if fd.Slot == model.SlotDirect {
			term = e.field(fd).Op("==").Id("o").Dot(fd.Name)
		} else {
			term = jen.Id(helper).Call(e.field(fd), jen.Id("o").Dot(fd.Name))
		}
		if expr == nil {
			expr = term
		} else {
			expr = expr.Op("&&").Add(term)
		}
	}

	f.Line()
	f.Comment("Equal reports whether s and o hold equal values for every variant. Nil map")
	f.Comment("entries count as unset.")
	f.Func().Params(e.receiver()).Id("Equal").Params(jen.Id("o").Op("*").Add(e.recordType())).Bool().Block(
		jen.Return(expr),
	)

	if len(e.r.Keyed()) == 0 {
		return
	}
	f.Line()
	f.Func().Id(helper).Types(jen.Id("K").Id("comparable"), jen.Id("V").Id("comparable")).Params(
		jen.List(jen.Id("a"), jen.Id("b")).Map(jen.Id("K")).Op("*").Id("V"),
	).Bool().Block(
		jen.Id("n").Op(":=").Lit(0),
		jen.For(jen.List(jen.Id("k"), jen.Id("p")).Op(":=").Range().Id("a")).Block(
			jen.If(jen.Id("p").Op("==").Nil()).Block(jen.Continue()),
			jen.Id("n").Op("++"),
			jen.If(
				jen.Id("q").Op(":=").Id("b").Index(jen.Id("k")),
				jen.Id("q").Op("==").Nil().Op("||").Op("*").Id("p").Op("!=").Op("*").Id("q"),
			).Block(jen.Return(jen.False())),
		),
		jen.For(jen.List(jen.Id("_"), jen.Id("q")).Op(":=").Range().Id("b")).Block(
			jen.If(jen.Id("q").Op("!=").Nil()).Block(jen.Id("n").Op("--")),
		),
		jen.Return(jen.Id("n").Op("==").Lit(0)),
	)
}
