package arith

import (
	"fmt"
	"sort"

	"github.com/binast/context01/binerr"
)

// Distribution is a symbol→weight table coded over a stable canonical
// symbol order: the order symbols were first added during model
// construction (spec §4.2, §9 "Symbol canonicalisation"). A weight of zero
// marks a symbol as declared but unobserved — legal to carry in the model
// section, illegal to ever encode or decode.
//
// A Distribution must be Seal()ed before it is used by an Encoder/Decoder;
// Add after Seal panics, matching the one-shot, non-adaptive model the
// spec describes (the whole model is built and written before the first
// tree token).
type Distribution struct {
	weights []uint32
	cumLow  []uint32 // cumLow[i] = sum of weights[:i]; valid only after Seal
	total   uint32
	sealed  bool
}

// NewDistribution returns an empty distribution ready for Add.
func NewDistribution() *Distribution {
	return &Distribution{}
}

// Add appends a symbol with the given weight, assigning it the next
// canonical symbol index (its position in insertion order). It returns
// that index.
func (d *Distribution) Add(weight uint32) int {
	if d.sealed {
		panic("arith: Add called on a sealed Distribution")
	}
	d.weights = append(d.weights, weight)
	return len(d.weights) - 1
}

// Len returns the number of declared symbols.
func (d *Distribution) Len() int {
	return len(d.weights)
}

// Weight returns the declared weight of a symbol index.
func (d *Distribution) Weight(symbol int) uint32 {
	return d.weights[symbol]
}

// Seal precomputes cumulative frequencies. total must fit a uint32 and be
// at least 1 (an encoder/decoder pair needs at least one representable
// symbol); a Distribution of all-zero weights seals fine but can never be
// encoded against (every EncodeSymbol call will fail as ModelMismatch).
func (d *Distribution) Seal() error {
	if d.sealed {
		return nil
	}
	d.cumLow = make([]uint32, len(d.weights)+1)
	var total uint64
	for i, w := range d.weights {
		d.cumLow[i] = uint32(total)
		total += uint64(w)
		if total > 0xFFFFFFFF {
			return fmt.Errorf("arith: distribution total frequency overflows 32 bits")
		}
	}
	d.cumLow[len(d.weights)] = uint32(total)
	d.total = uint32(total)
	d.sealed = true
	return nil
}

// Total returns the sealed distribution's total weight.
func (d *Distribution) Total() uint32 {
	return d.total
}

// rangeOf returns the cumulative-low and size of a symbol's frequency
// interval. size == 0 means the symbol is declared but carries no
// probability mass and must never be encoded.
func (d *Distribution) rangeOf(symbol int) (low, size uint32, err error) {
	if !d.sealed {
		return 0, 0, fmt.Errorf("arith: distribution not sealed")
	}
	if symbol < 0 || symbol >= len(d.weights) {
		return 0, 0, fmt.Errorf("%w: symbol %d absent from distribution of %d symbols", binerr.ErrModelMismatch, symbol, len(d.weights))
	}
	size = d.weights[symbol]
	if size == 0 {
		return 0, 0, fmt.Errorf("%w: symbol %d has zero weight", binerr.ErrModelMismatch, symbol)
	}
	return d.cumLow[symbol], size, nil
}

// find returns the symbol whose cumulative interval contains target, which
// must be in [0, Total()).
func (d *Distribution) find(target uint32) (symbol int, low, size uint32) {
	// cumLow is non-decreasing; find the last index i such that cumLow[i] <= target.
	i := sort.Search(len(d.weights), func(i int) bool {
		return d.cumLow[i+1] > target
	})
	if i == len(d.weights) {
		i = len(d.weights) - 1
	}
	return i, d.cumLow[i], d.weights[i]
}
