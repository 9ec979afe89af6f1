// Package treecodec implements the Tree Encoder/Decoder (spec §4.8,
// component C9): the type-directed traversal that turns a (type, value)
// tree into a stream of range-coded tokens, and back. Every bounded
// choice a node makes — which Alternation variant, which Enumeration
// symbol, a boolean, a FrozenArray's length or the tag of its elements —
// is coded through arith against the Distribution the model package
// allocated for it. Everything else (a uint's magnitude, a double's bits,
// a string or identifier's table index) rides the same range-coded stream
// as equiprobable direct bits, so no second byte-aligned stream ever has
// to interleave with the arithmetic-coded one mid-section.
//
// Lazy attributes are skipped entirely here: the type schema already says
// which attributes are lazy, so no bit needs to mark that fact, and the
// caller is expected to have already run the value tree through
// lazy.Extract, handing the resulting placeholders to Decode's
// counterpart after the eager body is fully decoded.
package treecodec

import (
	"fmt"

	"github.com/binast/context01/arith"
	"github.com/binast/context01/binerr"
	"github.com/binast/context01/model"
	"github.com/binast/context01/schema"
	"github.com/binast/context01/strtab"
)

// stringIndexBits is the fixed width of the direct-bit index in a
// string/identifier table reference; it follows a separate single bit
// that selects shared vs. local table. 24 bits comfortably covers any
// realistic dictionary or local table.
const stringIndexBits = 24

// Strings is the pair of string sources a tree body resolves string and
// identifier leaves against: shared is the long-lived cross-file
// dictionary (spec §4.4), local is this file's own table.
type Strings struct {
	Shared *strtab.Table
	Local  *strtab.Table
}

// Encode range-codes (ty, val) onto enc, using m for every bounded choice
// and strs for string/identifier leaves. val must already have passed
// fixer.Check and must not itself be a placeholder; lazy attributes
// inside it are expected to already be schema.ValPlaceholder (see
// lazy.Extract) and are skipped without emitting any bits.
func Encode(enc *arith.Encoder, m *model.Model, strs Strings, ty *schema.Type, val *schema.Value) error {
	switch ty.Kind {
	case schema.KindInterface:
		for i, attr := range ty.Attrs {
			if attr.Lazy {
				continue
			}
			av := val.Attrs[i]
			if isBoundedChoice(attr.ResolvedTy) {
				if err := encodeBoundedChoice(enc, m, strs, ty, attr.Name, attr.ResolvedTy, av); err != nil {
					return fmt.Errorf("%s.%s: %w", ty.Name, attr.Name, err)
				}
				continue
			}
			if err := Encode(enc, m, strs, attr.ResolvedTy, av); err != nil {
				return fmt.Errorf("%s.%s: %w", ty.Name, attr.Name, err)
			}
		}
		return nil
	case schema.KindFrozenArray:
		dist, err := m.DistFor(ty, "list-length")
		if err != nil {
			return err
		}
		n := len(val.Elements)
		if err := enc.EncodeSymbol(dist, n); err != nil {
			return fmt.Errorf("%s list-length: %w", ty.Name, err)
		}
		elemBounded := isBoundedChoice(ty.Element)
		for i, e := range val.Elements {
			if elemBounded {
				if err := encodeBoundedChoice(enc, m, strs, ty, "element", ty.Element, e); err != nil {
					return fmt.Errorf("%s[%d]: %w", ty.Name, i, err)
				}
				continue
			}
			if err := Encode(enc, m, strs, ty.Element, e); err != nil {
				return fmt.Errorf("%s[%d]: %w", ty.Name, i, err)
			}
		}
		return nil
	case schema.KindPrimitive:
		return encodePrimitive(enc, strs, ty, val)
	default:
		return fmt.Errorf("%w: Encode called directly on %s type %s", binerr.ErrSchemaViolation, ty.Kind, ty.Name)
	}
}

func isBoundedChoice(t *schema.Type) bool {
	switch t.Kind {
	case schema.KindAlternation, schema.KindEnumeration:
		return true
	case schema.KindPrimitive:
		return t.Prim == schema.PrimBoolean
	default:
		return false
	}
}

// encodeBoundedChoice encodes the one symbol that selects an Alternation
// variant, Enumeration member, or boolean, then recurses into an
// Alternation's chosen variant content (Enumeration and boolean are
// leaves).
func encodeBoundedChoice(enc *arith.Encoder, m *model.Model, strs Strings, owner *schema.Type, attr string, rt *schema.Type, val *schema.Value) error {
	dist, err := m.DistFor(owner, attr)
	if err != nil {
		return err
	}
	switch rt.Kind {
	case schema.KindAlternation:
		idx := variantIndex(rt, val.VariantTy)
		if err := enc.EncodeSymbol(dist, idx); err != nil {
			return err
		}
		if val.VariantTy == schema.None {
			return nil
		}
		return Encode(enc, m, strs, val.VariantTy, val.VariantVal)
	case schema.KindEnumeration:
		for i, sym := range rt.Symbols {
			if sym == val.Symbol {
				return enc.EncodeSymbol(dist, i)
			}
		}
		return fmt.Errorf("%w: %q not a member of %s", binerr.ErrSchemaViolation, val.Symbol, rt.Name)
	case schema.KindPrimitive: // boolean
		sym := 0
		if val.Bool {
			sym = 1
		}
		return enc.EncodeSymbol(dist, sym)
	default:
		return fmt.Errorf("%w: %s is not a bounded-choice type", binerr.ErrSchemaViolation, rt.Name)
	}
}

func variantIndex(alt *schema.Type, variant *schema.Type) int {
	for i, v := range alt.Variants {
		if v == variant {
			return i
		}
	}
	panic(fmt.Sprintf("treecodec: %s is not a variant of %s", variant.Name, alt.Name))
}

func encodePrimitive(enc *arith.Encoder, strs Strings, ty *schema.Type, val *schema.Value) error {
	switch ty.Prim {
	case schema.PrimUint:
		return enc.EncodeDirectBits(val.Uint, 64)
	case schema.PrimDouble:
		return enc.EncodeDirectBits(doubleBits(val.Double), 64)
	case schema.PrimString, schema.PrimIdentifier:
		return encodeStringRef(enc, strs, val.Str)
	case schema.PrimNone:
		return nil // only ever reached as an Alternation variant, already handled there
	default:
		return fmt.Errorf("%w: unexpected primitive kind for %s", binerr.ErrSchemaViolation, ty.Name)
	}
}

func encodeStringRef(enc *arith.Encoder, strs Strings, s string) error {
	if strs.Shared != nil {
		if i, ok := strs.Shared.IndexOf(s); ok {
			if err := enc.EncodeDirectBits(1, 1); err != nil {
				return err
			}
			return enc.EncodeDirectBits(uint64(i), stringIndexBits)
		}
	}
	if strs.Local == nil {
		return fmt.Errorf("%w: string %q present in neither shared nor local table", binerr.ErrModelMismatch, s)
	}
	i, ok := strs.Local.IndexOf(s)
	if !ok {
		return fmt.Errorf("%w: string %q present in neither shared nor local table", binerr.ErrModelMismatch, s)
	}
	if err := enc.EncodeDirectBits(0, 1); err != nil {
		return err
	}
	return enc.EncodeDirectBits(uint64(i), stringIndexBits)
}

// Decode mirrors Encode, producing a tree against ty from dec. Lazy
// attributes are filled in as schema.ValPlaceholder values carrying a
// sequential index across the whole decode, matching the index
// lazy.Extract assigned on the encode side. The returned slice gives the
// declared type of each placeholder in that same order, which the
// container needs to know what type to decode each lazy payload against.
func Decode(dec *arith.Decoder, m *model.Model, strs Strings, ty *schema.Type) (*schema.Value, []*schema.Type, error) {
	c := &decodeCtx{dec: dec, m: m, strs: strs}
	v, err := c.decode(ty)
	return v, c.lazyTypes, err
}

type decodeCtx struct {
	dec        *arith.Decoder
	m          *model.Model
	strs       Strings
	lazyCursor int
	lazyTypes  []*schema.Type
}

func (c *decodeCtx) decode(ty *schema.Type) (*schema.Value, error) {
	switch ty.Kind {
	case schema.KindInterface:
		attrs := make([]*schema.Value, len(ty.Attrs))
		for i, attr := range ty.Attrs {
			if attr.Lazy {
				attrs[i] = schema.NewPlaceholder(c.lazyCursor)
				c.lazyCursor++
				c.lazyTypes = append(c.lazyTypes, attr.ResolvedTy)
				continue
			}
			var v *schema.Value
			var err error
			if isBoundedChoice(attr.ResolvedTy) {
				v, err = c.decodeBoundedChoice(ty, attr.Name, attr.ResolvedTy)
			} else {
				v, err = c.decode(attr.ResolvedTy)
			}
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", ty.Name, attr.Name, err)
			}
			attrs[i] = v
		}
		return schema.NewInterfaceValue(attrs...), nil
	case schema.KindFrozenArray:
		dist, err := c.m.DistFor(ty, "list-length")
		if err != nil {
			return nil, err
		}
		n, err := c.dec.DecodeSymbol(dist)
		if err != nil {
			return nil, fmt.Errorf("%s list-length: %w", ty.Name, err)
		}
		elemBounded := isBoundedChoice(ty.Element)
		elems := make([]*schema.Value, n)
		for i := 0; i < n; i++ {
			var v *schema.Value
			if elemBounded {
				v, err = c.decodeBoundedChoice(ty, "element", ty.Element)
			} else {
				v, err = c.decode(ty.Element)
			}
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", ty.Name, i, err)
			}
			elems[i] = v
		}
		return schema.NewArrayValue(elems...), nil
	case schema.KindPrimitive:
		return c.decodePrimitive(ty)
	default:
		return nil, fmt.Errorf("%w: Decode called directly on %s type %s", binerr.ErrSchemaViolation, ty.Kind, ty.Name)
	}
}

func (c *decodeCtx) decodeBoundedChoice(owner *schema.Type, attr string, rt *schema.Type) (*schema.Value, error) {
	dist, err := c.m.DistFor(owner, attr)
	if err != nil {
		return nil, err
	}
	sym, err := c.dec.DecodeSymbol(dist)
	if err != nil {
		return nil, err
	}
	switch rt.Kind {
	case schema.KindAlternation:
		if sym < 0 || sym >= len(rt.Variants) {
			return nil, fmt.Errorf("%w: decoded variant index %d out of range for %s", binerr.ErrModelMismatch, sym, rt.Name)
		}
		variant := rt.Variants[sym]
		if variant == schema.None {
			return schema.NewAlternationValue(schema.None, nil), nil
		}
		v, err := c.decode(variant)
		if err != nil {
			return nil, err
		}
		return schema.NewAlternationValue(variant, v), nil
	case schema.KindEnumeration:
		if sym < 0 || sym >= len(rt.Symbols) {
			return nil, fmt.Errorf("%w: decoded enum index %d out of range for %s", binerr.ErrModelMismatch, sym, rt.Name)
		}
		return schema.NewEnumValue(rt.Symbols[sym]), nil
	case schema.KindPrimitive: // boolean
		return schema.NewBoolValue(sym == 1), nil
	default:
		return nil, fmt.Errorf("%w: %s is not a bounded-choice type", binerr.ErrSchemaViolation, rt.Name)
	}
}

func (c *decodeCtx) decodePrimitive(ty *schema.Type) (*schema.Value, error) {
	switch ty.Prim {
	case schema.PrimUint:
		v, err := c.dec.DecodeDirectBits(64)
		if err != nil {
			return nil, err
		}
		return schema.NewUintValue(v), nil
	case schema.PrimDouble:
		bits, err := c.dec.DecodeDirectBits(64)
		if err != nil {
			return nil, err
		}
		return schema.NewDoubleValue(bitsToDouble(bits)), nil
	case schema.PrimString, schema.PrimIdentifier:
		s, err := c.decodeStringRef()
		if err != nil {
			return nil, err
		}
		if ty.Prim == schema.PrimIdentifier {
			return schema.NewIdentifierValue(s), nil
		}
		return schema.NewStringValue(s), nil
	default:
		return nil, fmt.Errorf("%w: unexpected primitive kind for %s", binerr.ErrSchemaViolation, ty.Name)
	}
}

func (c *decodeCtx) decodeStringRef() (string, error) {
	fromShared, err := c.dec.DecodeDirectBits(1)
	if err != nil {
		return "", err
	}
	idx, err := c.dec.DecodeDirectBits(stringIndexBits)
	if err != nil {
		return "", err
	}
	if fromShared == 1 {
		if c.strs.Shared == nil || int(idx) >= c.strs.Shared.Len() {
			return "", fmt.Errorf("%w: shared string index %d out of range", binerr.ErrModelMismatch, idx)
		}
		return c.strs.Shared.At(int(idx)), nil
	}
	if c.strs.Local == nil || int(idx) >= c.strs.Local.Len() {
		return "", fmt.Errorf("%w: local string index %d out of range", binerr.ErrModelMismatch, idx)
	}
	return c.strs.Local.At(int(idx)), nil
}
