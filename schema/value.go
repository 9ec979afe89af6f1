package schema

// ValueKind discriminates the runtime shapes a Value can take. It mirrors
// Kind plus Placeholder, the lazy-subtree sentinel from spec §3/§4.7.
type ValueKind int

const (
	ValInterface ValueKind = iota
	ValAlternation
	ValEnumeration
	ValBoolean
	ValUint
	ValDouble
	ValString
	ValIdentifier
	ValFrozenArray
	ValNone
	ValPlaceholder
)

// Value is one node of a tree being encoded or decoded. Unlike Type, a
// Value carries no reference to its own declared type: the type-directed
// codec always threads (type, value) pairs together during traversal
// (spec §4.8 "for a value v of declared type T"), so the declared type is
// always available from context and a Value need not duplicate it — except
// for Alternation, where the chosen variant's identity *is* the
// discriminator the spec requires the value to carry.
type Value struct {
	Kind ValueKind

	// Interface: one entry per Type.Attrs, same order.
	Attrs []*Value

	// Alternation: VariantTy must be one of the enclosing Type.Variants;
	// VariantVal is nil iff VariantTy is schema.None.
	VariantTy  *Type
	VariantVal *Value

	// Enumeration: must be one of the enclosing Type.Symbols.
	Symbol string

	// Primitives.
	Bool   bool
	Uint   uint64
	Double float64
	Str    string // shared by ValString and ValIdentifier

	// FrozenArray.
	Elements []*Value

	// Placeholder: position in the lazy list it stands in for.
	PlaceholderIndex int
}

func NewInterfaceValue(attrs ...*Value) *Value {
	return &Value{Kind: ValInterface, Attrs: attrs}
}

func NewAlternationValue(variantTy *Type, val *Value) *Value {
	return &Value{Kind: ValAlternation, VariantTy: variantTy, VariantVal: val}
}

func NewEnumValue(symbol string) *Value {
	return &Value{Kind: ValEnumeration, Symbol: symbol}
}

func NewBoolValue(b bool) *Value {
	return &Value{Kind: ValBoolean, Bool: b}
}

func NewUintValue(u uint64) *Value {
	return &Value{Kind: ValUint, Uint: u}
}

func NewDoubleValue(d float64) *Value {
	return &Value{Kind: ValDouble, Double: d}
}

func NewStringValue(s string) *Value {
	return &Value{Kind: ValString, Str: s}
}

func NewIdentifierValue(s string) *Value {
	return &Value{Kind: ValIdentifier, Str: s}
}

func NewArrayValue(elements ...*Value) *Value {
	return &Value{Kind: ValFrozenArray, Elements: elements}
}

func NewNoneValue() *Value {
	return &Value{Kind: ValNone}
}

func NewPlaceholder(index int) *Value {
	return &Value{Kind: ValPlaceholder, PlaceholderIndex: index}
}

// Clone performs a deep structural copy. fixer.Fix does not modify its
// input (it returns a new tree), so no clone is needed before it.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	c := *v
	if v.Attrs != nil {
		c.Attrs = make([]*Value, len(v.Attrs))
		for i, a := range v.Attrs {
			c.Attrs[i] = a.Clone()
		}
	}
	if v.VariantVal != nil {
		c.VariantVal = v.VariantVal.Clone()
	}
	if v.Elements != nil {
		c.Elements = make([]*Value, len(v.Elements))
		for i, e := range v.Elements {
			c.Elements[i] = e.Clone()
		}
	}
	return &c
}
