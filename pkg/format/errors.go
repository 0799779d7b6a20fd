package format

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is.
var (
	ErrSyntax          = errors.New("invalid placeholder")
	ErrMissingArgument = errors.New("missing argument")
	ErrTypeMismatch    = errors.New("argument type mismatch")
)

// SyntaxError reports a malformed placeholder found while parsing a template.
type SyntaxError struct {
	Offset int
	Token  string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("format: invalid placeholder %q at offset %d: %s", e.Token, e.Offset, e.Reason)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// MissingArgumentError is returned when a placeholder references an index
// beyond the supplied argument list.
type MissingArgumentError struct {
	Index int
	Count int
	Token string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("format: %s references argument %d but only %d supplied", e.Token, e.Index, e.Count)
}

func (e *MissingArgumentError) Unwrap() error { return ErrMissingArgument }

// TypeMismatchError is returned when an argument cannot be coerced to the
// conversion requested at its index.
type TypeMismatchError struct {
	Index      int
	Conversion Conversion
	GoType     string
	Token      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("format: %s expects %s for argument %d, got %s",
		e.Token, e.Conversion, e.Index, e.GoType)
}

func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }

func mismatch(ph *Placeholder, arg any) *TypeMismatchError {
	goType := "nil"
	if arg != nil {
		goType = fmt.Sprintf("%T", arg)
	}
	return &TypeMismatchError{
		Index:      ph.Index,
		Conversion: ph.Conversion,
		GoType:     goType,
		Token:      ph.Token,
	}
}
