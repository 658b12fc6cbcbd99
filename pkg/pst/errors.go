package pst

import (
	"errors"
	"fmt"
)

var (
	// ErrBadMagic is returned when input does not start with "psbt" 0xff.
	ErrBadMagic = errors.New("invalid magic bytes")

	// ErrDuplicateKey is returned when a map holds the same key twice.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrMissingKey is returned when a mandatory or requested key is absent.
	ErrMissingKey = errors.New("missing key")

	// ErrKeyLength is returned when a key has the wrong length for its type.
	ErrKeyLength = errors.New("invalid key length")

	// ErrValueLength is returned when a value has the wrong length for its
	// key type.
	ErrValueLength = errors.New("invalid value length")

	// ErrInvalidValue is returned when a value fails to decode or violates a
	// constraint of its key type.
	ErrInvalidValue = errors.New("invalid value")

	// ErrMapCount is returned when the number of input or output maps does
	// not match the unsigned transaction.
	ErrMapCount = errors.New("map count does not match transaction")

	// ErrIndexOutOfRange is returned for input or output indexes outside the
	// unsigned transaction.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrEmptyKey is returned when inserting a zero-length key, which would
	// terminate the map on the wire.
	ErrEmptyKey = errors.New("empty key")
)

// Scope names the map an error was found in.
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeInput  Scope = "input"
	ScopeOutput Scope = "output"
)

// MapError attaches the map location to an error.
type MapError struct {
	Scope Scope
	Index int
	Err   error
}

func (e *MapError) Error() string {
	if e.Scope == ScopeGlobal {
		return fmt.Sprintf("global map: %v", e.Err)
	}
	return fmt.Sprintf("%s %d: %v", e.Scope, e.Index, e.Err)
}

func (e *MapError) Unwrap() error { return e.Err }

// KeyError attaches the offending key type to an error.
type KeyError struct {
	KeyType byte
	Err     error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("key type 0x%02x: %v", e.KeyType, e.Err)
}

func (e *KeyError) Unwrap() error { return e.Err }

func missing(keyType byte) error {
	return &KeyError{KeyType: keyType, Err: ErrMissingKey}
}
