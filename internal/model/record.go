package model

// SlotKind is the shape of a generated field's value slot.
type SlotKind int

const (
	SlotDirect SlotKind = iota // T
	SlotKeyed                  // map[K]*T
)

type Field struct {
	Name    string // Go identifier
	Wire    string // serialized name, used for struct tags
	Param   string // constructor parameter, SlotDirect only
	Slot    SlotKind
	Variant *Variant
}

// Bound is one constraint on the record's type parameter.
type Bound struct {
	Path string // import path, "" for predeclared identifiers
	Name string
}

func (b Bound) String() string {
	if b.Path == "" {
		return b.Name
	}
	return b.Path + "." + b.Name
}

// Record describes one generated companion type.
type Record struct {
	Name        string
	Constructor string
	Enum        *Enum
	Fields      []*Field

	Tags   []string // struct tag keys, in derive order
	Clone  bool
	Equal  bool
	Bounds []Bound
	Attrs  []string

	// Iterator enables the All method. It needs range-over-func (go1.23).
	Iterator bool
}

// Empty reports whether the record has no fields. Empty records are emitted
// as a plain struct without methods.
func (r *Record) Empty() bool {
	return len(r.Fields) == 0
}

// Params returns the fields passed to the constructor, in declaration order.
func (r *Record) Params() []*Field {
	var out []*Field
	for _, f := range r.Fields {
		if f.Slot == SlotDirect {
			out = append(out, f)
		}
	}
	return out
}

// Keyed returns the fields backed by a keyed mapping.
func (r *Record) Keyed() []*Field {
	var out []*Field
	for _, f := range r.Fields {
		if f.Slot == SlotKeyed {
			out = append(out, f)
		}
	}
	return out
}
