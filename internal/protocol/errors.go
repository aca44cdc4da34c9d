package protocol

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of codec failure
type ErrorType int

const (
	// ErrTypeHeaderMismatch indicates the pulse header pair did not match
	ErrTypeHeaderMismatch ErrorType = iota
	// ErrTypeBitDecode indicates a mark/space pair matched neither bit encoding
	ErrTypeBitDecode
	// ErrTypeDeviceMismatch indicates byte 0 was not the Soleus device id
	ErrTypeDeviceMismatch
	// ErrTypeChecksumMismatch indicates byte 8 did not match bytes 1, 2 and 4
	ErrTypeChecksumMismatch
	// ErrTypeUnrecognizedField is informational: the frame was valid but a
	// nibble carried a value with no known meaning
	ErrTypeUnrecognizedField
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeHeaderMismatch:
		return "Header Mismatch"
	case ErrTypeBitDecode:
		return "Bit Decode Error"
	case ErrTypeDeviceMismatch:
		return "Device Mismatch"
	case ErrTypeChecksumMismatch:
		return "Checksum Mismatch"
	case ErrTypeUnrecognizedField:
		return "Unrecognized Field"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Sentinels for errors.Is comparisons. Any *Error with the same Type matches.
var (
	ErrHeaderMismatch    = &Error{Type: ErrTypeHeaderMismatch, Message: "header mismatch"}
	ErrBitDecode         = &Error{Type: ErrTypeBitDecode, Message: "bit decode error"}
	ErrDeviceMismatch    = &Error{Type: ErrTypeDeviceMismatch, Message: "device mismatch"}
	ErrChecksumMismatch  = &Error{Type: ErrTypeChecksumMismatch, Message: "checksum mismatch"}
	ErrUnrecognizedField = &Error{Type: ErrTypeUnrecognizedField, Message: "unrecognized field"}
)

// Error is returned by the frame and pulse decoders
type Error struct {
	Type     ErrorType // Category of error
	Message  string    // Human-readable error message
	Expected byte      // Expected byte value (device id, checksum)
	Got      byte      // Received byte value
	Bit      int       // Bit index for bit decode errors, -1 otherwise
	Field    string    // Field name for unrecognized field warnings
	Err      error     // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	switch e.Type {
	case ErrTypeDeviceMismatch, ErrTypeChecksumMismatch:
		msg += fmt.Sprintf(" (expected 0x%02X, got 0x%02X)", e.Expected, e.Got)
	case ErrTypeBitDecode:
		if e.Bit >= 0 {
			msg += fmt.Sprintf(" at bit %d", e.Bit)
		}
	case ErrTypeUnrecognizedField:
		msg += fmt.Sprintf(" (%s=0x%X)", e.Field, e.Got)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(" (caused by: %v)", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same type, so callers can compare against
// the package sentinels
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

func newMismatchError(et ErrorType, message string, expected, got byte) *Error {
	return &Error{Type: et, Message: message, Expected: expected, Got: got, Bit: -1}
}

// NewHeaderError creates a header mismatch error
func NewHeaderError(message string) *Error {
	return &Error{Type: ErrTypeHeaderMismatch, Message: message, Bit: -1}
}

// NewBitDecodeError creates a bit decode error for the given bit index (0..71)
func NewBitDecodeError(bit int, message string) *Error {
	return &Error{Type: ErrTypeBitDecode, Message: message, Bit: bit}
}

func newUnrecognizedField(field string, value byte) *Error {
	return &Error{
		Type:    ErrTypeUnrecognizedField,
		Message: "value has no known meaning",
		Field:   field,
		Got:     value,
		Bit:     -1,
	}
}

// IsPulseError checks if an error came from the pulse layer
func IsPulseError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == ErrTypeHeaderMismatch || e.Type == ErrTypeBitDecode
	}
	return false
}

// IsFrameError checks if an error is a frame rejection (device id or checksum)
func IsFrameError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == ErrTypeDeviceMismatch || e.Type == ErrTypeChecksumMismatch
	}
	return false
}

// ErrorTypeOf returns the error type of a codec error, and false for anything else
func ErrorTypeOf(err error) (ErrorType, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Type, true
	}
	return 0, false
}
