package codec

import "errors"

var (
	// ErrNonCanonicalVarInt is returned when a VarInt uses a longer encoding
	// than the value requires.
	ErrNonCanonicalVarInt = errors.New("non-canonical varint encoding")

	// ErrVectorTooLong is returned when a decoded element count exceeds
	// MaxVectorLength.
	ErrVectorTooLong = errors.New("vector length exceeds limit")

	// ErrBytesTooLong is returned when a decoded byte-string length exceeds
	// MaxBytesLength.
	ErrBytesTooLong = errors.New("byte string length exceeds limit")

	// ErrInvalidHex is returned for malformed hex input.
	ErrInvalidHex = errors.New("invalid hex")
)
