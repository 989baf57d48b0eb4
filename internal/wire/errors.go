package wire

import (
	"errors"
	"fmt"
)

// EncodeValidationError names the field of an outbound message that failed
// validation. Nothing is serialized when it is returned.
type EncodeValidationError struct {
	Message Kind
	Field   string
	Reason  string
}

func (e *EncodeValidationError) Error() string {
	return fmt.Sprintf("wire: encode %s: field %s: %s", e.Message, e.Field, e.Reason)
}

func invalid(k Kind, field, reason string) *EncodeValidationError {
	return &EncodeValidationError{Message: k, Field: field, Reason: reason}
}

var (
	ErrEmptyFrame   = errors.New("empty frame")
	ErrUnknownKind  = errors.New("unknown message kind")
	ErrWireType     = errors.New("unexpected wire type")
	ErrMissingField = errors.New("missing required field")
	ErrOutOfRange   = errors.New("value out of range")
)

// DecodeError reports a malformed or truncated inbound frame. Offset is the
// byte position inside the frame where decoding stopped.
type DecodeError struct {
	Kind   Kind
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("wire: decode %s at offset %d: %v", e.Kind, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
