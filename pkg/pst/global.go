package pst

import (
	"encoding/binary"
	"fmt"

	"github.com/suffix-labs/btc-pst/pkg/tx"
)

// Global is the global map.
type Global struct {
	Map
}

// UnsignedTx decodes the unsigned transaction.
func (g *Global) UnsignedTx() (*tx.Tx, error) {
	v, ok := g.Get(Key{GlobalUnsignedTx})
	if !ok {
		return nil, missing(GlobalUnsignedTx)
	}
	t, err := tx.DeserializeNoWitness(v)
	if err != nil {
		return nil, &KeyError{KeyType: GlobalUnsignedTx, Err: fmt.Errorf("%w: %v", ErrInvalidValue, err)}
	}
	return t, nil
}

// SetUnsignedTx stores the legacy encoding of t. t must not carry any
// scriptSig or witness data.
func (g *Global) SetUnsignedTx(t *tx.Tx) error {
	if t.HasWitness() {
		return &KeyError{KeyType: GlobalUnsignedTx, Err: fmt.Errorf("%w: transaction has witness data", ErrInvalidValue)}
	}
	for i, in := range t.Inputs() {
		if len(in.ScriptSig) != 0 {
			return &KeyError{KeyType: GlobalUnsignedTx, Err: fmt.Errorf("%w: input %d has a scriptSig", ErrInvalidValue, i)}
		}
	}
	return g.Set(Key{GlobalUnsignedTx}, t.BytesNoWitness())
}

// Version returns the container version.
func (g *Global) Version() (uint32, error) {
	v, ok := g.Get(Key{GlobalVersion})
	if !ok {
		return 0, missing(GlobalVersion)
	}
	if len(v) != 4 {
		return 0, &KeyError{KeyType: GlobalVersion, Err: ErrValueLength}
	}
	return binary.LittleEndian.Uint32(v), nil
}

// SetVersion stores the container version.
func (g *Global) SetVersion(version uint32) error {
	return g.Set(Key{GlobalVersion}, binary.LittleEndian.AppendUint32(nil, version))
}

// Xpubs returns the extended public key entries in key order.
func (g *Global) Xpubs() ([]Xpub, error) {
	var out []Xpub
	for _, e := range g.EntriesOfType(GlobalXpub) {
		if len(e.Key) != 1+ExtendedKeySize {
			return nil, &KeyError{KeyType: GlobalXpub, Err: ErrKeyLength}
		}
		origin, err := DecodeKeyOrigin(e.Value)
		if err != nil {
			return nil, &KeyError{KeyType: GlobalXpub, Err: err}
		}
		x := Xpub{KeyOrigin: origin}
		copy(x.ExtendedKey[:], e.Key.Data())
		out = append(out, x)
	}
	return out, nil
}

// AddXpub records an extended public key and its origin.
func (g *Global) AddXpub(x Xpub) error {
	return g.Set(NewKey(GlobalXpub, x.ExtendedKey[:]), x.Encode())
}
