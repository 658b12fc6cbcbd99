package tx

import (
	"fmt"
	"io"

	"github.com/suffix-labs/btc-pst/pkg/codec"
)

// OutpointSize is the fixed encoded size of an Outpoint.
const OutpointSize = HashSize + 4

// MaxSequence is the default (final) input sequence number.
const MaxSequence uint32 = 0xffffffff

// Outpoint references an output of a previous transaction.
type Outpoint struct {
	TxID  TXID
	Index uint32
}

// NullOutpoint returns the outpoint used by coinbase inputs: an all-zero TXID
// and index 0xffffffff.
func NullOutpoint() Outpoint {
	return Outpoint{Index: 0xffffffff}
}

// IsNull reports whether o is the coinbase sentinel.
func (o Outpoint) IsNull() bool {
	return o == NullOutpoint()
}

func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxID, o.Index)
}

func (o Outpoint) SerializedLength() int { return OutpointSize }

func (o Outpoint) WriteTo(w io.Writer) (int64, error) {
	cw := codec.NewWriter(w)
	cw.Raw(o.TxID[:])
	cw.Uint32(o.Index)
	return cw.Result()
}

func (o *Outpoint) ReadFrom(r io.Reader) (int64, error) {
	cr := codec.NewReader(r)
	cr.Full(o.TxID[:], "outpoint txid")
	o.Index = cr.Uint32("outpoint index")
	return cr.Result()
}

// TxIn spends a previous output.
type TxIn struct {
	PreviousOutpoint Outpoint
	ScriptSig        Script
	Sequence         uint32
}

// NewTxIn returns an input spending prev with an empty scriptSig and the
// final sequence number.
func NewTxIn(prev Outpoint) TxIn {
	return TxIn{PreviousOutpoint: prev, Sequence: MaxSequence}
}

func (in TxIn) SerializedLength() int {
	return OutpointSize + codec.BytesSize(in.ScriptSig) + 4
}

func (in TxIn) WriteTo(w io.Writer) (int64, error) {
	cw := codec.NewWriter(w)
	cw.Item(in.PreviousOutpoint)
	cw.Bytes(in.ScriptSig)
	cw.Uint32(in.Sequence)
	return cw.Result()
}

func (in *TxIn) ReadFrom(r io.Reader) (int64, error) {
	cr := codec.NewReader(r)
	cr.Item(&in.PreviousOutpoint)
	in.ScriptSig = cr.Bytes("script sig")
	in.Sequence = cr.Uint32("sequence")
	return cr.Result()
}

// TxOut is a transaction output.
type TxOut struct {
	Value    uint64
	PkScript Script
}

// NullTxOut returns the placeholder output written into legacy
// SIGHASH_SINGLE preimages: value 0xffffffffffffffff and an empty script.
func NullTxOut() TxOut {
	return TxOut{Value: 0xffffffffffffffff}
}

func (out TxOut) SerializedLength() int {
	return 8 + codec.BytesSize(out.PkScript)
}

func (out TxOut) WriteTo(w io.Writer) (int64, error) {
	cw := codec.NewWriter(w)
	cw.Uint64(out.Value)
	cw.Bytes(out.PkScript)
	return cw.Result()
}

func (out *TxOut) ReadFrom(r io.Reader) (int64, error) {
	cr := codec.NewReader(r)
	out.Value = cr.Uint64("value")
	out.PkScript = cr.Bytes("pk script")
	return cr.Result()
}
