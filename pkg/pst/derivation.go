package pst

import (
	"encoding/binary"
	"fmt"
)

// Sizes of the key material referenced by derivation entries.
const (
	CompressedPubKeySize   = 33
	UncompressedPubKeySize = 65
	ExtendedKeySize        = 78
)

// KeyOrigin locates a key in a BIP32 tree: the fingerprint of the root key
// followed by the child indexes leading to it.
type KeyOrigin struct {
	Fingerprint [4]byte
	Path        []uint32
}

// Encode returns fingerprint || path elements, each little-endian.
func (o KeyOrigin) Encode() Value {
	v := make(Value, 4, 4+4*len(o.Path))
	copy(v, o.Fingerprint[:])
	for _, idx := range o.Path {
		v = binary.LittleEndian.AppendUint32(v, idx)
	}
	return v
}

// DecodeKeyOrigin parses a value written by KeyOrigin.Encode.
func DecodeKeyOrigin(v Value) (KeyOrigin, error) {
	var o KeyOrigin
	if len(v) == 0 || len(v)%4 != 0 {
		return o, fmt.Errorf("%w: key origin of %d bytes", ErrValueLength, len(v))
	}
	copy(o.Fingerprint[:], v[:4])
	for i := 4; i < len(v); i += 4 {
		o.Path = append(o.Path, binary.LittleEndian.Uint32(v[i:i+4]))
	}
	return o, nil
}

// Bip32Derivation ties a public key to its origin.
type Bip32Derivation struct {
	PubKey []byte
	KeyOrigin
}

// Xpub is a global extended public key entry.
type Xpub struct {
	ExtendedKey [ExtendedKeySize]byte
	KeyOrigin
}

// PartialSig is a signature waiting to be finalized: DER encoding followed
// by the sighash flag byte.
type PartialSig struct {
	PubKey    []byte
	Signature []byte
}
