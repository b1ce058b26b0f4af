package parser

import (
	"errors"
	"go/token"

	"go.uber.org/multierr"

	"github.com/cmmoran/variantsgen/internal/directive"
)

var (
	ErrNoPackages = errors.New("no package found")
	ErrNoEnums    = errors.New("no enum selected for generation")
)

// Diagnostic is a generation-time error anchored to a source position.
type Diagnostic struct {
	Pos token.Position
	Msg string
}

func (d *Diagnostic) Error() string {
	if !d.Pos.IsValid() {
		return d.Msg
	}
	return d.Pos.String() + ": " + d.Msg
}

// Diagnostics returns the diagnostics aggregated in err.
func Diagnostics(err error) []*Diagnostic {
	var out []*Diagnostic
	for _, e := range multierr.Errors(err) {
		var d *Diagnostic
		if errors.As(e, &d) {
			out = append(out, d)
		}
	}
	return out
}

func (p *Parser) errorf(pos token.Pos, msg string) {
	p.diags = multierr.Append(p.diags, &Diagnostic{Pos: p.position(pos), Msg: msg})
}

// report converts directive errors into diagnostics.
func (p *Parser) report(err error) {
	for _, e := range multierr.Errors(err) {
		var de *directive.Error
		if errors.As(e, &de) {
			p.errorf(de.Pos, de.Msg)
			continue
		}
		p.diags = multierr.Append(p.diags, e)
	}
}

func (p *Parser) position(pos token.Pos) token.Position {
	if p.fset == nil || !pos.IsValid() {
		return token.Position{}
	}
	return p.fset.Position(pos)
}
