// Package tx models Bitcoin transactions: outpoints, inputs, outputs, witness
// stacks and the transactions built from them, together with their
// consensus wire encoding and identifiers.
//
// A Tx is immutable. Changes go through a Builder, usually seeded with
// NewBuilderFrom.
package tx

import (
	"bytes"
	"fmt"
	"io"

	"github.com/suffix-labs/btc-pst/pkg/codec"
	"github.com/suffix-labs/btc-pst/pkg/crypto"
)

const (
	witnessMarker = 0x00
	witnessFlag   = 0x01
)

// Kind tags a transaction as legacy or segregated-witness. The tag is carried
// explicitly rather than inferred from the witness contents.
type Kind uint8

const (
	KindLegacy Kind = iota
	KindWitness
)

func (k Kind) String() string {
	if k == KindWitness {
		return "witness"
	}
	return "legacy"
}

// Tx is a Bitcoin transaction.
type Tx struct {
	kind      Kind
	version   uint32
	inputs    []TxIn
	outputs   []TxOut
	witnesses []Witness
	lockTime  uint32
}

func (t *Tx) Kind() Kind         { return t.kind }
func (t *Tx) Version() uint32    { return t.version }
func (t *Tx) LockTime() uint32   { return t.lockTime }
func (t *Tx) NumInputs() int     { return len(t.inputs) }
func (t *Tx) NumOutputs() int    { return len(t.outputs) }
func (t *Tx) Input(i int) TxIn   { return t.inputs[i] }
func (t *Tx) Output(i int) TxOut { return t.outputs[i] }

// Inputs returns a copy of the input list.
func (t *Tx) Inputs() []TxIn {
	return append([]TxIn(nil), t.inputs...)
}

// Outputs returns a copy of the output list.
func (t *Tx) Outputs() []TxOut {
	return append([]TxOut(nil), t.outputs...)
}

// Witness returns the witness stack of input i, empty for legacy
// transactions.
func (t *Tx) Witness(i int) Witness {
	if t.kind != KindWitness || i >= len(t.witnesses) {
		return nil
	}
	return t.witnesses[i]
}

// Witnesses returns a copy of the per-input witness list.
func (t *Tx) Witnesses() []Witness {
	return append([]Witness(nil), t.witnesses...)
}

// HasWitness reports whether any input carries witness data.
func (t *Tx) HasWitness() bool {
	for _, w := range t.witnesses {
		if !w.IsEmpty() {
			return true
		}
	}
	return false
}

// SerializedLength returns the size of the full encoding.
func (t *Tx) SerializedLength() int {
	return t.serializedLength(t.kind == KindWitness)
}

// SerializedLengthNoWitness returns the size of the legacy encoding.
func (t *Tx) SerializedLengthNoWitness() int {
	return t.serializedLength(false)
}

func (t *Tx) serializedLength(withWitness bool) int {
	size := 8 + codec.VectorSize(t.inputs) + codec.VectorSize(t.outputs)
	if withWitness {
		size += 2
		for _, w := range t.witnesses {
			size += w.SerializedLength()
		}
	}
	return size
}

// WriteTo writes the full encoding: segwit marker, flag and witness stacks
// are included for KindWitness.
func (t *Tx) WriteTo(w io.Writer) (int64, error) {
	return t.write(w, t.kind == KindWitness)
}

// WriteToNoWitness writes the legacy encoding regardless of kind.
func (t *Tx) WriteToNoWitness(w io.Writer) (int64, error) {
	return t.write(w, false)
}

func (t *Tx) write(w io.Writer, withWitness bool) (int64, error) {
	cw := codec.NewWriter(w)
	cw.Uint32(t.version)
	if withWitness {
		cw.Raw([]byte{witnessMarker, witnessFlag})
	}
	_, _ = codec.WriteVector(cw, t.inputs)
	_, _ = codec.WriteVector(cw, t.outputs)
	if withWitness {
		for i := range t.inputs {
			cw.Item(t.Witness(i))
		}
	}
	cw.Uint32(t.lockTime)
	return cw.Result()
}

// Bytes returns the full encoding.
func (t *Tx) Bytes() []byte {
	var buf bytes.Buffer
	buf.Grow(t.SerializedLength())
	_, _ = t.WriteTo(&buf)
	return buf.Bytes()
}

// BytesNoWitness returns the legacy encoding.
func (t *Tx) BytesNoWitness() []byte {
	var buf bytes.Buffer
	buf.Grow(t.SerializedLengthNoWitness())
	_, _ = t.WriteToNoWitness(&buf)
	return buf.Bytes()
}

// TxID hashes the legacy encoding, for either kind.
func (t *Tx) TxID() TXID {
	return TXID(crypto.DoubleSHA256(t.BytesNoWitness()))
}

// WTxID hashes the full encoding. It equals TxID for legacy transactions.
func (t *Tx) WTxID() WTXID {
	return WTXID(crypto.DoubleSHA256(t.Bytes()))
}

// ReadFrom decodes a transaction in either encoding. A zero input count
// followed by flag 0x01 selects the segwit encoding.
func (t *Tx) ReadFrom(r io.Reader) (int64, error) {
	return t.read(r, true)
}

// ReadFromNoWitness decodes the legacy encoding only, which keeps
// transactions with zero inputs unambiguous.
func (t *Tx) ReadFromNoWitness(r io.Reader) (int64, error) {
	return t.read(r, false)
}

func (t *Tx) read(r io.Reader, allowWitness bool) (int64, error) {
	cr := codec.NewReader(r)
	decoded := Tx{kind: KindLegacy}

	decoded.version = cr.Uint32("version")
	count := cr.VarInt("input count")
	if cr.Err() == nil && count == 0 && allowWitness {
		flag := cr.Raw(1, "witness flag")
		if cr.Err() == nil && flag[0] != witnessFlag {
			cr.Fail(fmt.Errorf("%w: 0x%02x", ErrInvalidWitnessFlag, flag[0]))
		}
		decoded.kind = KindWitness
		count = cr.VarInt("input count")
	}
	if err := cr.Err(); err != nil {
		return cr.Result()
	}

	inputs, _, err := codec.ReadItems[TxIn](cr, count)
	if err != nil {
		cr.Fail(fmt.Errorf("inputs: %w", err))
		return cr.Result()
	}
	decoded.inputs = inputs

	outputs, _, err := codec.ReadVector[TxOut](cr)
	if err != nil {
		cr.Fail(fmt.Errorf("outputs: %w", err))
		return cr.Result()
	}
	decoded.outputs = outputs

	if decoded.kind == KindWitness {
		decoded.witnesses = make([]Witness, len(inputs))
		for i := range decoded.witnesses {
			cr.Item(&decoded.witnesses[i])
		}
	}
	decoded.lockTime = cr.Uint32("lock time")

	n, err := cr.Result()
	if err != nil {
		return n, err
	}
	*t = decoded
	return n, nil
}

// Deserialize decodes a complete transaction from b, rejecting trailing bytes.
func Deserialize(b []byte) (*Tx, error) {
	return deserialize(b, true)
}

// DeserializeNoWitness decodes a complete legacy-encoded transaction.
func DeserializeNoWitness(b []byte) (*Tx, error) {
	return deserialize(b, false)
}

func deserialize(b []byte, allowWitness bool) (*Tx, error) {
	r := bytes.NewReader(b)
	t := new(Tx)
	if _, err := t.read(r, allowWitness); err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after transaction", r.Len())
	}
	return t, nil
}

// NewTxFromHex decodes a hex-encoded transaction.
func NewTxFromHex(s string) (*Tx, error) {
	raw, err := codec.DecodeHex(s)
	if err != nil {
		return nil, err
	}
	return Deserialize(raw)
}
