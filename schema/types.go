// Package schema implements the BinAST type universe (spec §3, component
// C3): a closed, possibly-cyclic graph of Interface/Alternation/Enumeration/
// Primitive/FrozenArray types rooted at Script, plus the canonical,
// duplicate-suppressing Walker (component C4) that both the model builder
// and the tree codec drive traversal from.
//
// Types are represented as an arena of *Type handles rather than Go
// interfaces-of-interfaces, following the tagged-variant design the
// original IDL resolver uses (idl.TyInterface / Alt / TyEnum / TyPrimitive
// / TyFrozenArray in original_source/cpp_codegen.py): a Go interface
// hierarchy cannot express the Statement↔Expression type cycles the ES6
// grammar needs without indirection, and the arena gives the walker a
// simple pointer-identity visited-set for cycle detection.
package schema

import "fmt"

// Kind discriminates the five members of the type universe.
type Kind int

const (
	KindInterface Kind = iota
	KindAlternation
	KindEnumeration
	KindPrimitive
	KindFrozenArray
)

func (k Kind) String() string {
	switch k {
	case KindInterface:
		return "Interface"
	case KindAlternation:
		return "Alternation"
	case KindEnumeration:
		return "Enumeration"
	case KindPrimitive:
		return "Primitive"
	case KindFrozenArray:
		return "FrozenArray"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Primitive discriminates the fixed set of primitive leaf types. None is
// the distinguished absent/null variant: legal only as a member of an
// Alternation.
type Primitive int

const (
	PrimBoolean Primitive = iota
	PrimUint
	PrimDouble
	PrimString
	PrimIdentifier
	PrimNone
)

func (p Primitive) String() string {
	switch p {
	case PrimBoolean:
		return "boolean"
	case PrimUint:
		return "unsigned long"
	case PrimDouble:
		return "double"
	case PrimString:
		return "string"
	case PrimIdentifier:
		return "IdentifierName"
	case PrimNone:
		return "None"
	default:
		return fmt.Sprintf("Primitive(%d)", int(p))
	}
}

// Attribute is one named, typed, ordered member of an Interface.
type Attribute struct {
	Name       string
	ResolvedTy *Type
	Lazy       bool
}

// Type is one node of the type universe arena. Which fields are valid
// depends on Kind:
//
//	KindInterface:    Name, Attrs
//	KindAlternation:  Name, Variants
//	KindEnumeration:  Name, Symbols
//	KindPrimitive:    Name, Prim
//	KindFrozenArray:  Name, Element
type Type struct {
	Kind Kind
	Name string

	Attrs    []Attribute // Interface
	Variants []*Type     // Alternation
	Symbols  []string    // Enumeration
	Prim     Primitive   // Primitive
	Element  *Type       // FrozenArray
}

// Interface constructs an Interface type. attrs are filled in by the
// caller after construction when the type graph is cyclic (see
// Interface + SetAttrs in the idl package).
func Interface(name string, attrs ...Attribute) *Type {
	return &Type{Kind: KindInterface, Name: name, Attrs: attrs}
}

// SetAttrs assigns attrs to an Interface type built with a forward
// declaration, letting recursive types (Statement containing Expression
// containing Statement) be wired up after all the named types exist.
func (t *Type) SetAttrs(attrs ...Attribute) *Type {
	if t.Kind != KindInterface {
		panic("schema: SetAttrs on non-Interface type " + t.Name)
	}
	t.Attrs = attrs
	return t
}

// Alternation constructs a tagged union of 2+ distinct member types. Each
// member may appear at most once (spec §3 invariant).
func Alternation(name string, variants ...*Type) *Type {
	if len(variants) < 2 {
		panic("schema: alternation " + name + " needs at least 2 variants")
	}
	seen := make(map[*Type]bool, len(variants))
	for _, v := range variants {
		if seen[v] {
			panic("schema: alternation " + name + " lists variant " + v.Name + " more than once")
		}
		seen[v] = true
	}
	return &Type{Kind: KindAlternation, Name: name, Variants: variants}
}

// Enumeration constructs a finite ordered set of named symbols.
func Enumeration(name string, symbols ...string) *Type {
	return &Type{Kind: KindEnumeration, Name: name, Symbols: symbols}
}

// FrozenArray constructs a finite ordered sequence type over element.
func FrozenArray(name string, element *Type) *Type {
	return &Type{Kind: KindFrozenArray, Name: name, Element: element}
}

var (
	// Boolean is the shared boolean primitive type.
	Boolean = &Type{Kind: KindPrimitive, Name: "boolean", Prim: PrimBoolean}
	// Uint is the shared unsigned-integer primitive type.
	Uint = &Type{Kind: KindPrimitive, Name: "unsigned long", Prim: PrimUint}
	// Double is the shared double primitive type.
	Double = &Type{Kind: KindPrimitive, Name: "double", Prim: PrimDouble}
	// String is the shared string primitive type.
	String = &Type{Kind: KindPrimitive, Name: "string", Prim: PrimString}
	// Identifier is the shared identifier-name primitive type.
	Identifier = &Type{Kind: KindPrimitive, Name: "IdentifierName", Prim: PrimIdentifier}
	// None is the shared distinguished absent/null type, legal only as an
	// Alternation member.
	None = &Type{Kind: KindPrimitive, Name: "None", Prim: PrimNone}
)
