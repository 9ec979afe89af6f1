// Package strtab implements the local string table (spec §4.4, component
// C5): collecting every string/identifier leaf a tree actually uses,
// subtracting whatever the shared dictionary already covers, and coding
// the remainder as a sorted, deduplicated section so the tree body can
// reference strings by index instead of repeating bytes.
package strtab

import (
	"fmt"
	"io"
	"sort"

	"github.com/binast/context01/bitstream"
	"github.com/binast/context01/schema"
)

// Collect walks a (type, value) pair and returns every distinct string
// that appears in a string or identifier leaf, in first-seen order.
// Lazy attributes are walked too, following their real value rather than
// a placeholder: the string table is built once, globally, before the
// tree is partitioned into eager/lazy pieces (see container.Encode), so
// a string that only occurs inside a lazily-deferred subtree — at any
// nesting depth — still needs a slot in it.
func Collect(ty *schema.Type, val *schema.Value) []string {
	c := &collector{seen: make(map[string]bool)}
	c.walk(ty, val)
	return c.order
}

type collector struct {
	seen  map[string]bool
	order []string
}

func (c *collector) add(s string) {
	if !c.seen[s] {
		c.seen[s] = true
		c.order = append(c.order, s)
	}
}

func (c *collector) walk(ty *schema.Type, val *schema.Value) {
	if val == nil || val.Kind == schema.ValPlaceholder {
		return
	}
	switch ty.Kind {
	case schema.KindInterface:
		for i, attr := range ty.Attrs {
			c.walk(attr.ResolvedTy, val.Attrs[i])
		}
	case schema.KindAlternation:
		if val.VariantTy == schema.None {
			return
		}
		c.walk(val.VariantTy, val.VariantVal)
	case schema.KindEnumeration:
		// symbols are drawn from a closed, model-coded set; not string data.
	case schema.KindPrimitive:
		if ty.Prim == schema.PrimString || ty.Prim == schema.PrimIdentifier {
			c.add(val.Str)
		}
	case schema.KindFrozenArray:
		for _, e := range val.Elements {
			c.walk(ty.Element, e)
		}
	}
}

// Table is a coded string section: a sorted, deduplicated set of strings
// not already present in the shared dictionary, each addressable by index
// for the tree body to reference.
type Table struct {
	strings []string
	index   map[string]int
}

// Build produces a Table holding every string in used that is not a
// member of shared, sorted for a canonical on-wire byte layout
// independent of tree traversal order.
func Build(used []string, shared map[string]bool) *Table {
	local := make([]string, 0, len(used))
	seen := make(map[string]bool, len(used))
	for _, s := range used {
		if shared[s] || seen[s] {
			continue
		}
		seen[s] = true
		local = append(local, s)
	}
	sort.Strings(local)

	t := &Table{strings: local, index: make(map[string]int, len(local))}
	for i, s := range local {
		t.index[s] = i
	}
	return t
}

// FromSlice builds a Table directly from strs, in the given order,
// without sorting or deduplication. This is how a shared dictionary is
// built: its contents and positions are fixed by whoever authored it, and
// every index on the wire refers to that fixed position, unlike a local
// table's sorted, collision-free layout.
func FromSlice(strs []string) *Table {
	t := &Table{strings: append([]string(nil), strs...), index: make(map[string]int, len(strs))}
	for i, s := range t.strings {
		if _, exists := t.index[s]; !exists {
			t.index[s] = i
		}
	}
	return t
}

// Len returns the number of local strings in the table.
func (t *Table) Len() int { return len(t.strings) }

// At returns the local string at index i.
func (t *Table) At(i int) string { return t.strings[i] }

// IndexOf returns the local index of s and true, or (0, false) if s is
// not in this table (meaning it must come from the shared dictionary
// instead).
func (t *Table) IndexOf(s string) (int, bool) {
	i, ok := t.index[s]
	return i, ok
}

// Write serializes the table as a varint count followed by each string
// as a varint-length-prefixed UTF-8 byte run, in the table's sorted
// order.
func (t *Table) Write(w io.Writer) error {
	bw, ok := w.(interface {
		io.Writer
		io.ByteWriter
	})
	if !ok {
		return fmt.Errorf("strtab: writer must implement io.ByteWriter")
	}
	if err := bitstream.WriteVarint(bw, uint64(len(t.strings))); err != nil {
		return err
	}
	for _, s := range t.strings {
		if err := bitstream.WriteString(bw, s); err != nil {
			return err
		}
	}
	return nil
}

// Read deserializes a table written by Write.
func Read(r io.Reader) (*Table, error) {
	br, ok := r.(interface {
		io.Reader
		io.ByteReader
	})
	if !ok {
		return nil, fmt.Errorf("strtab: reader must implement io.ByteReader")
	}
	n, err := bitstream.ReadVarint(br)
	if err != nil {
		return nil, fmt.Errorf("strtab: read count: %w", err)
	}
	strs := make([]string, n)
	for i := range strs {
		s, err := bitstream.ReadString(br)
		if err != nil {
			return nil, fmt.Errorf("strtab: read string %d: %w", i, err)
		}
		strs[i] = s
	}
	t := &Table{strings: strs, index: make(map[string]int, len(strs))}
	for i, s := range strs {
		t.index[s] = i
	}
	return t, nil
}
