// Package arith implements the range-coded entropy codec that spec §4.2
// calls the Arithmetic Coder (C2): a 32-bit range coder with carry
// propagation, in the LZMA/7-zip family, parameterized at every symbol by
// a Distribution built by the model package. Distributions are static for
// the lifetime of one encode/decode (the whole model is written before the
// first tree token), so this is not an adaptive coder.
//
// The coder's struct shape (an Encoder/Decoder pair wrapping a bitio
// reader/writer, constructed with NewEncoder/NewDecoder) follows
// Consensys-compress/huffman.Encoder/Decoder; the byte-flush-at-section-
// -boundary contract follows Consensys-compress/lzss's session-based
// bitWriter (startSession/endSession/Align).
package arith

import (
	"fmt"

	"github.com/binast/context01/binerr"
	"github.com/icza/bitio"
)

// topValue is the renormalization threshold: whenever the coder's range
// falls below 2^24, another byte of precision is shifted in.
const topValue = 1 << 24

// Encoder range-codes a sequence of symbols, each against its own
// Distribution, onto a bitio.Writer.
type Encoder struct {
	w         *bitio.Writer
	low       uint64
	rng       uint32
	cache     byte
	cacheSize uint64
}

// NewEncoder returns an Encoder writing onto w. The Encoder does not own w;
// callers must call Flush and then align/close w themselves.
func NewEncoder(w *bitio.Writer) *Encoder {
	return &Encoder{w: w, rng: 0xFFFFFFFF, cache: 0xFF, cacheSize: 1}
}

// EncodeSymbol encodes symbol against dist, which must already be sealed.
// Encoding a symbol with zero weight, or absent from dist, is fatal
// (spec §4.2: "Encoding a symbol absent from the distribution is fatal —
// a programmer error").
func (e *Encoder) EncodeSymbol(dist *Distribution, symbol int) error {
	low, size, err := dist.rangeOf(symbol)
	if err != nil {
		return err
	}
	total := dist.Total()
	if total == 0 {
		return fmt.Errorf("arith: distribution has zero total frequency")
	}

	r := e.rng / total
	e.low += uint64(r) * uint64(low)
	e.rng = r * size

	for e.rng < topValue {
		e.shiftLow()
		e.rng <<= 8
	}
	return e.w.TryError
}

func (e *Encoder) shiftLow() {
	if uint32(e.low>>32) != 0 || e.low < 0xFF000000 {
		carry := byte(e.low >> 32)
		temp := e.cache
		for {
			e.w.TryWriteByte(temp + carry)
			temp = 0xFF
			e.cacheSize--
			if e.cacheSize == 0 {
				break
			}
		}
		e.cache = byte(e.low >> 24)
	}
	e.cacheSize++
	e.low = (e.low << 8) & 0xFFFFFFFF
}

// Flush drains all pending bytes, including the carry-delayed cache byte.
// It must be called exactly once, after the last EncodeSymbol call for a
// logical section, before the underlying stream moves on to varint or raw
// byte content (spec §4.1: "arithmetic coding and varint writes never
// interleave within a section").
func (e *Encoder) Flush() error {
	for i := 0; i < 5; i++ {
		e.shiftLow()
	}
	if err := e.w.TryError; err != nil {
		return fmt.Errorf("arith: flush: %w", err)
	}
	return nil
}

// EncodeDirectBits encodes the low nbits of value as a sequence of
// equiprobable bits, bypassing any Distribution. Literal payloads that
// have no bounded symbol set of their own — a uint's magnitude, a
// double's bit pattern, a string table index — ride through the same
// range-coded stream this way instead of a separate byte stream, so
// arithmetic coding and raw data never need to interleave at the byte
// level within a section (spec §4.1).
func (e *Encoder) EncodeDirectBits(value uint64, nbits int) error {
	for i := nbits - 1; i >= 0; i-- {
		e.rng >>= 1
		if (value>>uint(i))&1 != 0 {
			e.low += uint64(e.rng)
		}
		for e.rng < topValue {
			e.shiftLow()
			e.rng <<= 8
		}
	}
	return e.w.TryError
}

// Decoder mirrors Encoder, decoding symbols from a bitio.Reader.
type Decoder struct {
	r    *bitio.Reader
	code uint32
	rng  uint32
}

// NewDecoder returns a Decoder reading from r. It consumes the 5 priming
// bytes an Encoder's Flush is guaranteed to have produced at the start of
// the section (the first is always the encoder's dummy initial cache byte
// and is discarded).
func NewDecoder(r *bitio.Reader) (*Decoder, error) {
	d := &Decoder{r: r, rng: 0xFFFFFFFF}
	for i := 0; i < 5; i++ {
		b := r.TryReadByte()
		if i == 0 {
			continue
		}
		d.code = (d.code << 8) | uint32(b)
	}
	if err := r.TryError; err != nil {
		return nil, fmt.Errorf("arith: decoder priming: %w", err)
	}
	return d, nil
}

// DecodeSymbol decodes the next symbol against dist, which must already be
// sealed and must be the distribution used to encode the corresponding
// EncodeSymbol call (spec invariant 3: model/coder agreement).
func (d *Decoder) DecodeSymbol(dist *Distribution) (int, error) {
	total := dist.Total()
	if total == 0 {
		return 0, fmt.Errorf("arith: distribution has zero total frequency")
	}

	r := d.rng / total
	target := d.code / r
	if target >= total {
		target = total - 1
	}

	symbol, low, size := dist.find(target)
	if size == 0 {
		return 0, fmt.Errorf("%w: decoded symbol %d has zero weight", binerr.ErrModelMismatch, symbol)
	}

	d.code -= r * low
	d.rng = r * size

	for d.rng < topValue {
		d.code = (d.code << 8) | uint32(d.r.TryReadByte())
		d.rng <<= 8
	}
	if err := d.r.TryError; err != nil {
		return 0, fmt.Errorf("arith: decode: %w", err)
	}
	return symbol, nil
}

// DecodeDirectBits mirrors EncodeDirectBits, decoding nbits equiprobable
// bits into the low bits of the returned value.
func (d *Decoder) DecodeDirectBits(nbits int) (uint64, error) {
	var result uint64
	for i := 0; i < nbits; i++ {
		d.rng >>= 1
		var bit uint64
		if d.code >= d.rng {
			bit = 1
			d.code -= d.rng
		}
		result = (result << 1) | bit

		for d.rng < topValue {
			d.code = (d.code << 8) | uint32(d.r.TryReadByte())
			d.rng <<= 8
		}
	}
	if err := d.r.TryError; err != nil {
		return 0, fmt.Errorf("arith: decode direct bits: %w", err)
	}
	return result, nil
}
