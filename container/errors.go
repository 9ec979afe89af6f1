package container

import (
	"fmt"

	"github.com/binast/context01/binerr"
)

// SchemaViolationError reports that a tree handed to Encode does not
// conform to the resolver's type graph.
type SchemaViolationError struct {
	Path string
	Err  error
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("container: schema violation at %s: %v", e.Path, e.Err)
}

func (e *SchemaViolationError) Unwrap() error { return e.Err }

func schemaViolation(path string, err error) error {
	return &SchemaViolationError{Path: path, Err: fmt.Errorf("%w", err)}
}

// ModelMismatchError reports that the coder and the model section it was
// run against disagree — a symbol outside its distribution's declared
// range, or a distribution the tree codec needed that the model section
// never declared.
type ModelMismatchError struct {
	Section string
	Err     error
}

func (e *ModelMismatchError) Error() string {
	return fmt.Sprintf("container: model mismatch in %s: %v", e.Section, e.Err)
}

func (e *ModelMismatchError) Unwrap() error { return e.Err }

func modelMismatch(section string, err error) error {
	return &ModelMismatchError{Section: section, Err: fmt.Errorf("%w", err)}
}

// FormatMismatchError reports that the container framing itself —
// magic, version, section boundaries — does not match what this decoder
// understands.
type FormatMismatchError struct {
	Detail string
}

func (e *FormatMismatchError) Error() string {
	return fmt.Sprintf("container: format mismatch: %s", e.Detail)
}

func (e *FormatMismatchError) Unwrap() error { return binerr.ErrFormatMismatch }

func formatMismatch(detail string) error {
	return &FormatMismatchError{Detail: detail}
}

// LazyFrameMismatchError reports that the lazy index's subtree count or
// boundaries do not agree with what the eager body's placeholders
// require.
type LazyFrameMismatchError struct {
	Detail string
}

func (e *LazyFrameMismatchError) Error() string {
	return fmt.Sprintf("container: lazy frame mismatch: %s", e.Detail)
}

func (e *LazyFrameMismatchError) Unwrap() error { return binerr.ErrLazyFrameMismatch }

func lazyFrameMismatch(detail string) error {
	return &LazyFrameMismatchError{Detail: detail}
}
