package tx

import (
	"encoding/hex"
	"fmt"

	"github.com/suffix-labs/btc-pst/pkg/codec"
)

// HashSize is the length of every transaction and block digest.
const HashSize = 32

// TXID identifies a transaction by the double SHA-256 of its non-witness
// serialization. Bytes are kept in wire order; String reverses them for the
// conventional big-endian display.
type TXID [HashSize]byte

// WTXID identifies a transaction by the double SHA-256 of its full
// serialization, witness data included.
type WTXID [HashSize]byte

// BlockHash identifies a block header.
type BlockHash [HashSize]byte

func (h TXID) String() string      { return digestString(h) }
func (h WTXID) String() string     { return digestString(h) }
func (h BlockHash) String() string { return digestString(h) }

// MarshalText implements encoding.TextMarshaler using the display form.
func (h TXID) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *TXID) UnmarshalText(text []byte) error {
	d, err := parseDigest(string(text))
	if err != nil {
		return err
	}
	*h = d
	return nil
}

func (h WTXID) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *WTXID) UnmarshalText(text []byte) error {
	d, err := parseDigest(string(text))
	if err != nil {
		return err
	}
	*h = d
	return nil
}

func (h BlockHash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *BlockHash) UnmarshalText(text []byte) error {
	d, err := parseDigest(string(text))
	if err != nil {
		return err
	}
	*h = d
	return nil
}

// NewTXIDFromHex parses a display-order (big-endian) hex TXID.
func NewTXIDFromHex(s string) (TXID, error) {
	d, err := parseDigest(s)
	return TXID(d), err
}

// NewWTXIDFromHex parses a display-order hex WTXID.
func NewWTXIDFromHex(s string) (WTXID, error) {
	d, err := parseDigest(s)
	return WTXID(d), err
}

// NewBlockHashFromHex parses a display-order hex block hash.
func NewBlockHashFromHex(s string) (BlockHash, error) {
	d, err := parseDigest(s)
	return BlockHash(d), err
}

func digestString(d [HashSize]byte) string {
	return hex.EncodeToString(codec.Reverse(d[:]))
}

func parseDigest(s string) ([HashSize]byte, error) {
	var d [HashSize]byte
	if len(s) != 2*HashSize {
		return d, fmt.Errorf("%w: digest must be %d hex characters, got %d",
			codec.ErrInvalidHex, 2*HashSize, len(s))
	}
	raw, err := codec.DecodeHex(s)
	if err != nil {
		return d, err
	}
	copy(d[:], codec.Reverse(raw))
	return d, nil
}
