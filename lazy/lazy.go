// Package lazy implements the Lazy Partitioner (spec §4.7, component C8):
// splitting a tree into an eager skeleton — with each lazy-annotated
// attribute replaced by a placeholder — and an ordered list of the
// extracted subtrees, then reversing that split during decode by handing
// each placeholder to a caller-supplied resolver.
//
// Extraction and restoration both walk in the same type-directed,
// declaration order the rest of the codec uses, so the Nth placeholder
// the eager pass emits always corresponds to the Nth entry of the lazy
// list: no explicit back-reference needs to be coded on the wire, only a
// running extraction index (spec §9: "placeholders are positional, not
// addressed").
package lazy

import "github.com/binast/context01/schema"

// Subtree is one extracted lazy attribute: its declared type (needed to
// encode/decode it as its own independent section) and its value.
type Subtree struct {
	Ty  *schema.Type
	Val *schema.Value
}

// Extract walks (ty, val) and returns an equivalent tree with every
// lazy-annotated attribute replaced by a schema.Value of kind
// ValPlaceholder, plus the ordered list of subtrees those placeholders
// stand in for.
func Extract(ty *schema.Type, val *schema.Value) (*schema.Value, []Subtree) {
	e := &extractor{}
	out := e.walk(ty, val)
	return out, e.subtrees
}

type extractor struct {
	subtrees []Subtree
}

func (e *extractor) walk(ty *schema.Type, val *schema.Value) *schema.Value {
	if val == nil {
		return nil
	}
	switch ty.Kind {
	case schema.KindInterface:
		attrs := make([]*schema.Value, len(ty.Attrs))
		for i, attr := range ty.Attrs {
			if attr.Lazy {
				idx := len(e.subtrees)
				e.subtrees = append(e.subtrees, Subtree{Ty: attr.ResolvedTy, Val: val.Attrs[i]})
				attrs[i] = schema.NewPlaceholder(idx)
				continue
			}
			attrs[i] = e.walk(attr.ResolvedTy, val.Attrs[i])
		}
		return schema.NewInterfaceValue(attrs...)
	case schema.KindAlternation:
		if val.VariantTy == schema.None {
			return schema.NewAlternationValue(schema.None, nil)
		}
		return schema.NewAlternationValue(val.VariantTy, e.walk(val.VariantTy, val.VariantVal))
	case schema.KindFrozenArray:
		elems := make([]*schema.Value, len(val.Elements))
		for i, el := range val.Elements {
			elems[i] = e.walk(ty.Element, el)
		}
		return schema.NewArrayValue(elems...)
	default: // Enumeration, Primitive: no recursion, copy as-is
		return val
	}
}

// Resolver supplies the decoded value for a lazy subtree by its
// positional index, decoding it from wherever the container stored the
// lazy payload section (spec §4.7: "decode on demand, or eagerly — the
// partitioner does not care which").
type Resolver func(index int, ty *schema.Type) (*schema.Value, error)

// Restore walks (ty, val) — the output of a prior Extract — and replaces
// every placeholder with resolve's result, reconstructing a complete
// tree. Restoration visits placeholders in the same order Extract
// produced them, so resolve's index argument is redundant with call
// order but is passed anyway for resolvers that seek directly into a
// random-access payload section.
func Restore(ty *schema.Type, val *schema.Value, resolve Resolver) (*schema.Value, error) {
	r := &restorer{resolve: resolve}
	return r.walk(ty, val)
}

type restorer struct {
	resolve Resolver
}

func (r *restorer) walk(ty *schema.Type, val *schema.Value) (*schema.Value, error) {
	if val == nil {
		return nil, nil
	}
	if val.Kind == schema.ValPlaceholder {
		return r.resolve(val.PlaceholderIndex, ty)
	}
	switch ty.Kind {
	case schema.KindInterface:
		attrs := make([]*schema.Value, len(ty.Attrs))
		for i, attr := range ty.Attrs {
			v, err := r.walk(attr.ResolvedTy, val.Attrs[i])
			if err != nil {
				return nil, err
			}
			attrs[i] = v
		}
		return schema.NewInterfaceValue(attrs...), nil
	case schema.KindAlternation:
		if val.VariantTy == schema.None {
			return schema.NewAlternationValue(schema.None, nil), nil
		}
		v, err := r.walk(val.VariantTy, val.VariantVal)
		if err != nil {
			return nil, err
		}
		return schema.NewAlternationValue(val.VariantTy, v), nil
	case schema.KindFrozenArray:
		elems := make([]*schema.Value, len(val.Elements))
		for i, el := range val.Elements {
			v, err := r.walk(ty.Element, el)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return schema.NewArrayValue(elems...), nil
	default:
		return val, nil
	}
}
