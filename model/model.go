// Package model implements the Model Builder and Model Writer/Reader
// (spec §4.5/§4.6, components C6/C7): allocating one distribution id per
// (InterfaceType, attributeName) pair coding a bounded choice — an
// Alternation tag, an Enumeration symbol, or a boolean — plus one id per
// (FrozenArrayType, "list-length") and, where the element type is itself a
// bounded choice, one id per (FrozenArrayType, "element"), and coding each
// distribution's symbol
// weights in the canonical order schema.Walk produces.
//
// Allocation is driven purely by the type graph, so an encoder and a
// decoder that start from the same resolver always agree on id order
// without exchanging anything; only the weights themselves travel on the
// wire, following the per-section distribution-table layout
// Consensys-compress/huffman.go uses for its own frequency tables.
package model

import (
	"fmt"
	"io"

	"github.com/binast/context01/arith"
	"github.com/binast/context01/bitstream"
	"github.com/binast/context01/binerr"
	"github.com/binast/context01/schema"
)

// Key names one distribution: an Interface/FrozenArray owner type plus the
// attribute name it governs ("list-length" for a FrozenArray's own
// length distribution).
type Key struct {
	Owner *schema.Type
	Attr  string
}

type entry struct {
	key        Key
	resolvedTy *schema.Type // nil for a FrozenArray list-length entry
}

// Schema is the ordered, deterministic set of distribution ids a type
// graph requires, built once per resolver and shared by both the encode
// and decode side.
type Schema struct {
	entries []entry
	index   map[Key]int
}

// Allocate walks root in canonical order and returns the Schema of
// distribution ids it requires.
func Allocate(root *schema.Type) *Schema {
	s := &Schema{index: make(map[Key]int)}
	v := schema.FuncVisitor{
		Interface: func(t *schema.Type) {
			for _, attr := range t.Attrs {
				rt := attr.ResolvedTy
				if isBoundedChoice(rt) {
					s.add(Key{Owner: t, Attr: attr.Name}, rt)
				}
			}
		},
		FrozenArray: func(t *schema.Type) {
			s.add(Key{Owner: t, Attr: "list-length"}, nil)
			if isBoundedChoice(t.Element) {
				s.add(Key{Owner: t, Attr: "element"}, t.Element)
			}
		},
	}
	schema.Walk(root, v)
	return s
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

func (s *Schema) add(k Key, resolvedTy *schema.Type) {
	if _, ok := s.index[k]; ok {
		return
	}
	s.index[k] = len(s.entries)
	s.entries = append(s.entries, entry{key: k, resolvedTy: resolvedTy})
}

// Len returns the number of distribution ids in the schema.
func (s *Schema) Len() int { return len(s.entries) }

// IDOf returns the canonical index of (owner, attr), used by the tree
// codec to look up which distribution governs a given node.
func (s *Schema) IDOf(owner *schema.Type, attr string) (int, bool) {
	i, ok := s.index[Key{Owner: owner, Attr: attr}]
	return i, ok
}

// Builder accumulates empirical symbol weights for every id in a Schema
// by observing concrete (type, value) trees, then seals them into a
// Model.
type Builder struct {
	schema *Schema
	counts []map[int]uint32
	maxLen []int // only meaningful for list-length entries; -1 = unseen
}

// NewBuilder returns a Builder accumulating weights for s.
func NewBuilder(s *Schema) *Builder {
	b := &Builder{schema: s, counts: make([]map[int]uint32, s.Len()), maxLen: make([]int, s.Len())}
	for i := range b.counts {
		b.counts[i] = make(map[int]uint32)
		b.maxLen[i] = -1
	}
	return b
}

// Observe walks one concrete tree, recording every bounded choice and
// array length it contains. It recurses through lazy attributes exactly
// like any other, using their real value rather than a placeholder, so a
// single call on the whole tree — before it is partitioned into
// eager/lazy pieces — covers bounded choices nested inside a lazy
// subtree at any depth too.
func (b *Builder) Observe(ty *schema.Type, val *schema.Value) {
	if val == nil || val.Kind == schema.ValPlaceholder {
		return
	}
	switch ty.Kind {
	case schema.KindInterface:
		for i, attr := range ty.Attrs {
			rt := attr.ResolvedTy
			av := val.Attrs[i]
			if isBoundedChoice(rt) {
				id, _ := b.schema.IDOf(ty, attr.Name)
				b.record(id, rt, av)
			}
			b.Observe(rt, av)
		}
	case schema.KindAlternation:
		if val.VariantTy != schema.None {
			b.Observe(val.VariantTy, val.VariantVal)
		}
	case schema.KindFrozenArray:
		id, _ := b.schema.IDOf(ty, "list-length")
		n := len(val.Elements)
		b.counts[id][n]++
		if n > b.maxLen[id] {
			b.maxLen[id] = n
		}
		elemID, hasElemID := b.schema.IDOf(ty, "element")
		for _, e := range val.Elements {
			if hasElemID {
				b.record(elemID, ty.Element, e)
			}
			b.Observe(ty.Element, e)
		}
	}
}

func (b *Builder) record(id int, rt *schema.Type, av *schema.Value) {
	switch rt.Kind {
	case schema.KindAlternation:
		idx := variantIndex(rt, av.VariantTy)
		b.counts[id][idx]++
	case schema.KindEnumeration:
		for i, sym := range rt.Symbols {
			if sym == av.Symbol {
				b.counts[id][i]++
				return
			}
		}
	case schema.KindPrimitive: // boolean
		if av.Bool {
			b.counts[id][1]++
		} else {
			b.counts[id][0]++
		}
	}
}

func variantIndex(alt *schema.Type, variant *schema.Type) int {
	for i, v := range alt.Variants {
		if v == variant {
			return i
		}
	}
	panic(fmt.Sprintf("model: %s is not a variant of %s", variant.Name, alt.Name))
}

// Build seals all accumulated counts into a Model. Bounded-choice entries
// get one symbol per declared variant/enum member/boolean value, in
// declaration order, with a zero weight for any never observed. A
// list-length entry that was never observed still gets exactly one
// symbol (length zero) so the coder always has something to encode
// against.
func (b *Builder) Build() (*Model, error) {
	m := &Model{schema: b.schema, dists: make([]*arith.Distribution, b.schema.Len())}
	for i, e := range b.schema.entries {
		d := arith.NewDistribution()
		n := symbolCount(e, b.maxLen[i])
		for sym := 0; sym < n; sym++ {
			d.Add(b.counts[i][sym])
		}
		if err := d.Seal(); err != nil {
			return nil, fmt.Errorf("model: seal %s.%s: %w", e.key.Owner.Name, e.key.Attr, err)
		}
		m.dists[i] = d
	}
	return m, nil
}

func symbolCount(e entry, observedMaxLen int) int {
	if e.resolvedTy == nil { // list-length
		if observedMaxLen < 0 {
			return 1
		}
		return observedMaxLen + 1
	}
	switch e.resolvedTy.Kind {
	case schema.KindAlternation:
		return len(e.resolvedTy.Variants)
	case schema.KindEnumeration:
		return len(e.resolvedTy.Symbols)
	case schema.KindPrimitive: // boolean
		return 2
	}
	panic("model: unreachable symbolCount")
}

// Model is a fully built, sealed set of distributions, one per Schema
// entry, ready for the tree codec to encode or decode against.
type Model struct {
	schema *Schema
	dists  []*arith.Distribution
}

// Schema returns the schema this model was built against.
func (m *Model) Schema() *Schema { return m.schema }

// DistFor returns the sealed distribution governing (owner, attr).
func (m *Model) DistFor(owner *schema.Type, attr string) (*arith.Distribution, error) {
	id, ok := m.schema.IDOf(owner, attr)
	if !ok {
		return nil, fmt.Errorf("%w: no distribution for %s.%s", binerr.ErrModelMismatch, owner.Name, attr)
	}
	return m.dists[id], nil
}

// Write serializes the model section: for each schema entry in canonical
// order, a varint symbol count followed by a varint weight per symbol.
func Write(w io.Writer, m *Model) error {
	bw, ok := w.(interface {
		io.Writer
		io.ByteWriter
	})
	if !ok {
		return fmt.Errorf("model: writer must implement io.ByteWriter")
	}
	for _, d := range m.dists {
		if err := bitstream.WriteVarint(bw, uint64(d.Len())); err != nil {
			return err
		}
		for i := 0; i < d.Len(); i++ {
			if err := bitstream.WriteVarint(bw, uint64(d.Weight(i))); err != nil {
				return err
			}
		}
	}
	return nil
}

// Read deserializes a model section written by Write, checking each
// entry's symbol count against what s requires for bounded-choice
// entries (a count mismatch there means the wire was built against a
// different type graph). List-length counts are accepted as-is since
// they vary per tree.
func Read(r io.Reader, s *Schema) (*Model, error) {
	br, ok := r.(interface {
		io.Reader
		io.ByteReader
	})
	if !ok {
		return nil, fmt.Errorf("model: reader must implement io.ByteReader")
	}
	m := &Model{schema: s, dists: make([]*arith.Distribution, s.Len())}
	for i, e := range s.entries {
		count, err := bitstream.ReadVarint(br)
		if err != nil {
			return nil, fmt.Errorf("model: read symbol count for %s.%s: %w", e.key.Owner.Name, e.key.Attr, err)
		}
		if e.resolvedTy != nil {
			want := symbolCount(e, -1)
			if uint64(want) != count {
				return nil, fmt.Errorf("%w: %s.%s declares %d symbols, wire has %d", binerr.ErrModelMismatch, e.key.Owner.Name, e.key.Attr, want, count)
			}
		}
		d := arith.NewDistribution()
		for sym := uint64(0); sym < count; sym++ {
			w, err := bitstream.ReadVarint(br)
			if err != nil {
				return nil, fmt.Errorf("model: read weight %d for %s.%s: %w", sym, e.key.Owner.Name, e.key.Attr, err)
			}
			d.Add(uint32(w))
		}
		if err := d.Seal(); err != nil {
			return nil, fmt.Errorf("model: seal %s.%s: %w", e.key.Owner.Name, e.key.Attr, err)
		}
		m.dists[i] = d
	}
	return m, nil
}
