// Package binerr defines the fatal error kinds shared across the codec
// (spec §7): SchemaViolation, ModelMismatch, FormatMismatch, and
// LazyFrameMismatch. Every codec package wraps one of these sentinels with
// fmt.Errorf("...: %w", ...) so callers can classify failures with
// errors.Is regardless of which layer raised them.
package binerr

import "errors"

var (
	// ErrSchemaViolation marks a tree that does not conform to its
	// declared type during TypeChecker or during encoding.
	ErrSchemaViolation = errors.New("binast: schema violation")

	// ErrModelMismatch marks a symbol absent from its distribution (encode
	// side, a programmer error) or a decoded symbol code out of range
	// (decode side, a corrupt stream).
	ErrModelMismatch = errors.New("binast: model mismatch")

	// ErrFormatMismatch marks a malformed container: wrong magic,
	// unsupported version, truncated section, or brotli failure.
	ErrFormatMismatch = errors.New("binast: format mismatch")

	// ErrLazyFrameMismatch marks a lazy piece whose end position does not
	// equal its declared offset.
	ErrLazyFrameMismatch = errors.New("binast: lazy frame mismatch")
)
