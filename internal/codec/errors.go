package codec

import (
	"errors"
	"fmt"
	"io"
)

// Decode error taxonomy. Every decode failure wraps exactly one of these
// sentinels, so callers can classify with errors.Is and discard the datagram
// accordingly.
var (
	// ErrTruncated means the buffer ended before the schema-required bytes
	// were all read.
	ErrTruncated = errors.New("codec: truncated payload")

	// ErrTypeMismatch means a tag byte did not match the expected field type.
	ErrTypeMismatch = errors.New("codec: type mismatch")

	// ErrArity means a fixed-cardinality collection or record has the wrong
	// length. Arity violations are errors in both strict and lenient mode:
	// consumers index positionally by anatomical meaning, so reshaping would
	// corrupt semantics.
	ErrArity = errors.New("codec: arity violation")

	// ErrTrailingData means bytes remained after a complete strict decode.
	ErrTrailingData = errors.New("codec: trailing data after event")
)

// ArityError reports which collection violated its arity and how.
type ArityError struct {
	Path string // e.g. "hand.fingers"
	Want int
	Got  int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("codec: arity violation at %s: got %d, want %d", e.Path, e.Got, e.Want)
}

// Unwrap makes errors.Is(err, ErrArity) hold for every ArityError.
func (e *ArityError) Unwrap() error { return ErrArity }

// arityErr builds a wrapped ArityError.
func arityErr(path string, want, got int) error {
	return &ArityError{Path: path, Want: want, Got: got}
}

// classify maps a raw msgpack read error onto the taxonomy: any EOF from the
// underlying reader is a truncated buffer, everything else is a tag that did
// not match the schema.
func classify(field string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: reading %s", ErrTruncated, field)
	}
	return fmt.Errorf("%w: reading %s: %v", ErrTypeMismatch, field, err)
}
