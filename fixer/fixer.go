// Package fixer implements the pre-encode FloatFixer and TypeChecker
// passes (spec §4.9): coercing integer-looking values into the double
// slots they are declared to fill, then validating that the resulting
// tree actually conforms to its declared type before the tree codec ever
// touches it. Running TypeChecker after FloatFixer, rather than before,
// means a coercible mismatch never gets reported as a violation.
package fixer

import (
	"fmt"

	"github.com/binast/context01/binerr"
	"github.com/binast/context01/schema"
)

// Fix returns a tree equal to (ty, val) except that every slot declared
// double which holds a ValUint value is rewritten to the equivalent
// ValDouble. Trees built directly against the schema package's
// NewDoubleValue constructor need no fixing; Fix exists for loaders (see
// astio) that decode a generic numeric literal before its declared type
// is known.
func Fix(ty *schema.Type, val *schema.Value) *schema.Value {
	if val == nil || val.Kind == schema.ValPlaceholder {
		return val
	}
	switch ty.Kind {
	case schema.KindInterface:
		attrs := make([]*schema.Value, len(ty.Attrs))
		for i, attr := range ty.Attrs {
			attrs[i] = Fix(attr.ResolvedTy, val.Attrs[i])
		}
		return schema.NewInterfaceValue(attrs...)
	case schema.KindAlternation:
		if val.VariantTy == schema.None {
			return val
		}
		return schema.NewAlternationValue(val.VariantTy, Fix(val.VariantTy, val.VariantVal))
	case schema.KindFrozenArray:
		elems := make([]*schema.Value, len(val.Elements))
		for i, e := range val.Elements {
			elems[i] = Fix(ty.Element, e)
		}
		return schema.NewArrayValue(elems...)
	case schema.KindPrimitive:
		if ty.Prim == schema.PrimDouble && val.Kind == schema.ValUint {
			return schema.NewDoubleValue(float64(val.Uint))
		}
		return val
	default:
		return val
	}
}

// Check validates that val structurally conforms to ty: Interfaces carry
// exactly the declared attribute count, Alternation values name one of
// the declared variants (or None), Enumeration symbols are declared
// members, and primitive kinds match. It returns the first violation
// found, wrapping binerr.ErrSchemaViolation, or nil if val conforms.
func Check(ty *schema.Type, val *schema.Value) error {
	if val == nil {
		return fmt.Errorf("%w: nil value for type %s", binerr.ErrSchemaViolation, ty.Name)
	}
	if val.Kind == schema.ValPlaceholder {
		return nil // a placeholder carries no subtree here, so there is nothing to check
	}
	switch ty.Kind {
	case schema.KindInterface:
		if val.Kind != schema.ValInterface {
			return fmt.Errorf("%w: %s expects an interface value, got kind %d", binerr.ErrSchemaViolation, ty.Name, val.Kind)
		}
		if len(val.Attrs) != len(ty.Attrs) {
			return fmt.Errorf("%w: %s declares %d attributes, value has %d", binerr.ErrSchemaViolation, ty.Name, len(ty.Attrs), len(val.Attrs))
		}
		for i, attr := range ty.Attrs {
			if err := Check(attr.ResolvedTy, val.Attrs[i]); err != nil {
				return fmt.Errorf("%s.%s: %w", ty.Name, attr.Name, err)
			}
		}
		return nil
	case schema.KindAlternation:
		if val.Kind != schema.ValAlternation {
			return fmt.Errorf("%w: %s expects an alternation value, got kind %d", binerr.ErrSchemaViolation, ty.Name, val.Kind)
		}
		var declared bool
		for _, v := range ty.Variants {
			if v == val.VariantTy {
				declared = true
				break
			}
		}
		if !declared {
			return fmt.Errorf("%w: %s is not a declared variant of %s", binerr.ErrSchemaViolation, val.VariantTy.Name, ty.Name)
		}
		if val.VariantTy == schema.None {
			return nil
		}
		return Check(val.VariantTy, val.VariantVal)
	case schema.KindEnumeration:
		if val.Kind != schema.ValEnumeration {
			return fmt.Errorf("%w: %s expects an enumeration value, got kind %d", binerr.ErrSchemaViolation, ty.Name, val.Kind)
		}
		for _, sym := range ty.Symbols {
			if sym == val.Symbol {
				return nil
			}
		}
		return fmt.Errorf("%w: %q is not a declared member of %s", binerr.ErrSchemaViolation, val.Symbol, ty.Name)
	case schema.KindFrozenArray:
		if val.Kind != schema.ValFrozenArray {
			return fmt.Errorf("%w: %s expects an array value, got kind %d", binerr.ErrSchemaViolation, ty.Name, val.Kind)
		}
		for i, e := range val.Elements {
			if err := Check(ty.Element, e); err != nil {
				return fmt.Errorf("%s[%d]: %w", ty.Name, i, err)
			}
		}
		return nil
	case schema.KindPrimitive:
		return checkPrimitive(ty, val)
	default:
		return fmt.Errorf("%w: unknown type kind for %s", binerr.ErrSchemaViolation, ty.Name)
	}
}

func checkPrimitive(ty *schema.Type, val *schema.Value) error {
	var want schema.ValueKind
	switch ty.Prim {
	case schema.PrimBoolean:
		want = schema.ValBoolean
	case schema.PrimUint:
		want = schema.ValUint
	case schema.PrimDouble:
		want = schema.ValDouble
	case schema.PrimString:
		want = schema.ValString
	case schema.PrimIdentifier:
		want = schema.ValIdentifier
	case schema.PrimNone:
		want = schema.ValNone
	}
	if val.Kind != want {
		return fmt.Errorf("%w: %s expects value kind %d, got %d", binerr.ErrSchemaViolation, ty.Name, want, val.Kind)
	}
	return nil
}
