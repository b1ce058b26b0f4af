// Package naming derives generated identifiers from variant names.
package naming

import (
	"go/token"
	"go/types"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/iancoleman/strcase"
)

// Trim strips the enum name from the front of a variant name, the way
// constants such as ColorRed are commonly prefixed by their type. The name is
// kept as is when trimming would leave nothing or a name that does not start
// with an upper case letter.
func Trim(name, prefix string) string {
	if prefix == "" || !strings.HasPrefix(name, prefix) {
		return name
	}
	rest := name[len(prefix):]
	r, _ := utf8.DecodeRuneInString(rest)
	if rest == "" || !unicode.IsUpper(r) {
		return name
	}
	return rest
}

// Field returns the Go identifier of the field backing a variant. Exported
// enums get exported fields. The result is escaped.
func Field(name string, exported bool) string {
	if exported {
		return Escape(Export(name))
	}
	return Escape(Unexport(name))
}

// Wire returns the serialized name of a variant field, in snake case.
func Wire(name string) string {
	return strcase.ToSnake(name)
}

// Param returns the constructor parameter name for a field identifier.
// Parameters also avoid predeclared identifiers such as make or string.
func Param(field string) string {
	name := Unexport(strings.TrimSuffix(field, "_"))
	if types.Universe.Lookup(name) != nil {
		return name + "_"
	}
	return Escape(name)
}

// Escape appends an underscore to names that collide with a Go keyword.
func Escape(name string) string {
	if token.IsKeyword(name) {
		return name + "_"
	}
	return name
}

// Export upper cases the first rune of name.
func Export(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

// Unexport lower cases the leading run of upper case runes, keeping the last
// one of a run that is followed by a lower case rune, so HTTPServer becomes
// httpServer and ID becomes id.
func Unexport(name string) string {
	runes := []rune(name)
	for i, r := range runes {
		if !unicode.IsUpper(r) {
			break
		}
		if i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
			break
		}
		runes[i] = unicode.ToLower(r)
	}
	return string(runes)
}
