package collada

import (
	"errors"
	"fmt"

	"github.com/containerd/errdefs"
)

// Sentinel errors for parse failures.
var (
	ErrMissingAttribute = errors.New("missing required attribute")
	ErrMissingChild     = errors.New("missing required child")
	ErrNoChoice         = errors.New("no permitted alternative")
	ErrUnexpectedParent = errors.New("unexpected parent")
	ErrDuplicateID      = errors.New("duplicate id")
	ErrInvalidValue     = errors.New("invalid value")
	ErrArity            = errors.New("wrong number of values")
	ErrCountMismatch    = errors.New("declared count does not match content")
	ErrNoRoot           = errors.New("no COLLADA root element")
	ErrUnresolved       = errors.New("unresolved reference")
	ErrRepeatedChild    = errors.New("repeated child")
)

// StructuralError reports a required attribute or child that is absent, a
// mandatory choice that matched nothing, or an element found under an
// ancestor it cannot appear in.
type StructuralError struct {
	Element string
	Field   string
	Err     error
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%v %q", e.Err, e.Field)
}

// Unwrap exposes both the sentinel and the errdefs class.
func (e *StructuralError) Unwrap() []error {
	return []error{e.Err, errdefs.ErrInvalidArgument}
}

// ValueError reports a token that failed to parse as its declared type.
type ValueError struct {
	Element string
	Field   string
	Token   string
	Err     error
}

func (e *ValueError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v %q", e.Field, e.Err, e.Token)
}

// Unwrap exposes the parse cause, ErrInvalidValue and the errdefs class.
func (e *ValueError) Unwrap() []error {
	return []error{e.Err, ErrInvalidValue, errdefs.ErrInvalidArgument}
}

// ReferenceError reports a reference that matched no registered node. It is
// never returned while parsing; consumers get it from Document.Deref.
type ReferenceError struct {
	URI string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnresolved, e.URI)
}

// Unwrap exposes ErrUnresolved and the errdefs class.
func (e *ReferenceError) Unwrap() []error {
	return []error{ErrUnresolved, errdefs.ErrNotFound}
}

func missingAttr(element, field string) error {
	return &StructuralError{Element: element, Field: field, Err: ErrMissingAttribute}
}

func missingChild(element, field string) error {
	return &StructuralError{Element: element, Field: field, Err: ErrMissingChild}
}
