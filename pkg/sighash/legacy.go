package sighash

import (
	"bytes"

	"github.com/suffix-labs/btc-pst/pkg/codec"
	"github.com/suffix-labs/btc-pst/pkg/crypto"
	"github.com/suffix-labs/btc-pst/pkg/tx"
)

// singleSentinel is returned by Legacy for SIGHASH_SINGLE when the input has
// no output at the same index: the value 1 as a little-endian 256-bit
// integer. Bitcoin Core and btcd produce the same digest.
var singleSentinel = [32]byte{0x01}

// Legacy computes the original sighash for input idx of t.
//
// prevoutScript replaces the scriptSig of the signed input: the previous
// output script for P2PKH, the redeem script for P2SH. OP_CODESEPARATOR is
// not stripped.
func Legacy(t *tx.Tx, idx int, flag Flag, prevoutScript []byte) ([32]byte, error) {
	if err := flag.Validate(); err != nil {
		return [32]byte{}, err
	}
	if idx < 0 || idx >= t.NumInputs() {
		return [32]byte{}, &IndexError{Index: idx, Inputs: t.NumInputs()}
	}

	base := flag.Base()
	if base == Single && idx >= t.NumOutputs() {
		return singleSentinel, nil
	}

	var buf bytes.Buffer
	cw := codec.NewWriter(&buf)
	cw.Uint32(t.Version())

	if flag.HasAnyoneCanPay() {
		in := t.Input(idx)
		in.ScriptSig = prevoutScript
		cw.VarInt(1)
		cw.Item(in)
	} else {
		cw.VarInt(uint64(t.NumInputs()))
		for i, in := range t.Inputs() {
			if i == idx {
				in.ScriptSig = prevoutScript
			} else {
				in.ScriptSig = nil
				if base == None || base == Single {
					in.Sequence = 0
				}
			}
			cw.Item(in)
		}
	}

	switch base {
	case None:
		cw.VarInt(0)
	case Single:
		cw.VarInt(uint64(idx + 1))
		for i := 0; i < idx; i++ {
			cw.Item(tx.NullTxOut())
		}
		cw.Item(t.Output(idx))
	default:
		_, _ = codec.WriteVector(cw, t.Outputs())
	}

	cw.Uint32(t.LockTime())
	cw.Uint32(uint32(flag))
	if _, err := cw.Result(); err != nil {
		return [32]byte{}, err
	}
	return crypto.DoubleSHA256(buf.Bytes()), nil
}
