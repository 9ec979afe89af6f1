// Package dictionary loads and saves the shared string dictionary (spec
// §4.4): a long-lived, externally-authored list of common
// strings/identifiers every container checks its local string table
// against before falling back to coding a string itself. Two on-disk
// formats are supported — plain JSON for hand-editing and review, CBOR
// for compact distribution alongside a container — detected by sniffing
// the first significant byte, the same way the container format itself
// is identified by a fixed magic prefix.
package dictionary

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/binast/context01/strtab"
)

// Format names an on-disk dictionary encoding.
type Format int

const (
	// FormatJSON is a plain JSON array of strings.
	FormatJSON Format = iota
	// FormatCBOR is a CBOR array of text strings, encoded with
	// cbor.CanonicalEncOptions for a deterministic byte layout.
	FormatCBOR
)

// Load reads a dictionary from r, auto-detecting its format, and returns
// it as a Table addressable by the same indices the container coder
// uses.
func Load(r io.Reader) (*strtab.Table, error) {
	br := bufio.NewReader(r)
	b, err := br.Peek(1)
	if err != nil {
		if err == io.EOF {
			return strtab.FromSlice(nil), nil
		}
		return nil, fmt.Errorf("dictionary: peek format byte: %w", err)
	}

	var strs []string
	switch {
	case b[0] == '[' || b[0] == ' ' || b[0] == '\n' || b[0] == '\t':
		dec := json.NewDecoder(br)
		if err := dec.Decode(&strs); err != nil {
			return nil, fmt.Errorf("dictionary: decode JSON: %w", err)
		}
	default:
		data, err := io.ReadAll(br)
		if err != nil {
			return nil, fmt.Errorf("dictionary: read CBOR bytes: %w", err)
		}
		if err := cbor.Unmarshal(data, &strs); err != nil {
			return nil, fmt.Errorf("dictionary: decode CBOR: %w", err)
		}
	}
	return strtab.FromSlice(strs), nil
}

// Save writes strs to w in the given format. CBOR output uses
// cbor.CanonicalEncOptions so that re-saving an unchanged dictionary
// always produces byte-identical output.
func Save(w io.Writer, format Format, strs []string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(strs); err != nil {
			return fmt.Errorf("dictionary: encode JSON: %w", err)
		}
		return nil
	case FormatCBOR:
		opts, err := cbor.CanonicalEncOptions().EncMode()
		if err != nil {
			return fmt.Errorf("dictionary: build CBOR encoder: %w", err)
		}
		data, err := opts.Marshal(strs)
		if err != nil {
			return fmt.Errorf("dictionary: encode CBOR: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("dictionary: write CBOR bytes: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("dictionary: unknown format %d", format)
	}
}
