// Package ir holds the semantic middle end of the compiler: the type model,
// the definition table populated by the pre-pass over the syntax tree, and the
// tree-level constant folding pass.
package ir

import "fmt"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Kind tags the Type variant.
type Kind int

const (
	Void Kind = iota
	Int
	Float
	Custom
)

// Field describes one struct member: its layout position and its type.
type Field struct {
	Index int
	Type  *Type
}

// Type is a tagged variant describing a NyaC type. Types are shared by
// pointer and immutable after creation: the definition table hands out the
// same *Type for the same source-level name for the whole compilation.
type Type struct {
	Kind Kind

	// Bits is the bit width of Int and Float types.
	Bits int

	// Name and Fields describe Custom types. Order keeps the field names in
	// declaration order, which fixes the struct layout.
	Name   string
	Fields map[string]Field
	Order  []string
}

// ---------------------
// ----- Functions -----
// ---------------------

// NewInt returns a signed integer type of the given bit width.
func NewInt(bits int) *Type {
	return &Type{Kind: Int, Bits: bits}
}

// NewFloat returns a floating point type of the given bit width.
func NewFloat(bits int) *Type {
	return &Type{Kind: Float, Bits: bits}
}

// NewCustom returns a struct type with the given fields in declaration order.
func NewCustom(name string, names []string, types []*Type) *Type {
	fields := make(map[string]Field, len(names))
	for i, n := range names {
		fields[n] = Field{Index: i, Type: types[i]}
	}
	return &Type{Kind: Custom, Name: name, Fields: fields, Order: names}
}

// Arithmetic reports whether the type can take part in arithmetic and
// comparison. Void and Custom types never can.
func (t *Type) Arithmetic() bool {
	return t.Kind == Int || t.Kind == Float
}

// Equal reports structural equality.
func (t *Type) Equal(o *Type) bool {
	if t == o {
		return true
	}
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case Void:
		return true
	case Int, Float:
		return t.Bits == o.Bits
	case Custom:
		if t.Name != o.Name || len(t.Order) != len(o.Order) {
			return false
		}
		for i, name := range t.Order {
			if o.Order[i] != name {
				return false
			}
			if !t.Fields[name].Type.Equal(o.Fields[name].Type) {
				return false
			}
		}
		return true
	}
	return false
}

// String returns the source-level name of the type.
func (t *Type) String() string {
	switch t.Kind {
	case Void:
		return "void"
	case Int:
		return fmt.Sprintf("i%d", t.Bits)
	case Float:
		return fmt.Sprintf("f%d", t.Bits)
	case Custom:
		return t.Name
	}
	return "?"
}

// CommonType returns the arithmetic type both operands are coerced to before
// an arithmetic or comparison opcode is chosen: any float beats any int, and
// within a category the wider bit width wins. Void and Custom operands have
// no common type with anything.
func CommonType(lhs, rhs *Type) (*Type, error) {
	if !lhs.Arithmetic() {
		return nil, fmt.Errorf("type error: no common type with %s", lhs)
	}
	if !rhs.Arithmetic() {
		return nil, fmt.Errorf("type error: no common type with %s", rhs)
	}

	if lhs.Kind == Float {
		if rhs.Kind == Float && rhs.Bits > lhs.Bits {
			return rhs, nil
		}
		return lhs, nil
	}
	if rhs.Kind == Float {
		return rhs, nil
	}

	// Both are ints.
	if lhs.Bits > rhs.Bits {
		return lhs, nil
	}
	return rhs, nil
}
