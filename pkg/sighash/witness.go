package sighash

import (
	"bytes"
	"fmt"

	"github.com/suffix-labs/btc-pst/pkg/codec"
	"github.com/suffix-labs/btc-pst/pkg/crypto"
	"github.com/suffix-labs/btc-pst/pkg/tx"
)

// Midstate holds the BIP143 intermediate hashes shared by every input of a
// transaction. Reusing one Midstate avoids the quadratic rehashing of the
// legacy algorithm.
type Midstate struct {
	t            *tx.Tx
	hashPrevouts [32]byte
	hashSequence [32]byte
	hashOutputs  [32]byte
}

// NewMidstate precomputes the BIP143 hashes of t.
func NewMidstate(t *tx.Tx) *Midstate {
	var prevouts, sequences, outputs bytes.Buffer
	for _, in := range t.Inputs() {
		_, _ = in.PreviousOutpoint.WriteTo(&prevouts)
		codec.NewWriter(&sequences).Uint32(in.Sequence)
	}
	for _, out := range t.Outputs() {
		_, _ = out.WriteTo(&outputs)
	}

	return &Midstate{
		t:            t,
		hashPrevouts: crypto.DoubleSHA256(prevouts.Bytes()),
		hashSequence: crypto.DoubleSHA256(sequences.Bytes()),
		hashOutputs:  crypto.DoubleSHA256(outputs.Bytes()),
	}
}

// Witness computes the BIP143 sighash for input idx of t spending an output
// of the given value. scriptCode is written length-prefixed; see ScriptCode.
func Witness(t *tx.Tx, idx int, flag Flag, scriptCode []byte, value uint64) ([32]byte, error) {
	return NewMidstate(t).Witness(idx, flag, scriptCode, value)
}

// Witness computes the BIP143 sighash for input idx of the midstate's
// transaction.
func (m *Midstate) Witness(idx int, flag Flag, scriptCode []byte, value uint64) ([32]byte, error) {
	if err := flag.Validate(); err != nil {
		return [32]byte{}, err
	}
	if idx < 0 || idx >= m.t.NumInputs() {
		return [32]byte{}, &IndexError{Index: idx, Inputs: m.t.NumInputs()}
	}

	base := flag.Base()
	var zero, hashPrevouts, hashSequence, hashOutputs [32]byte

	if !flag.HasAnyoneCanPay() {
		hashPrevouts = m.hashPrevouts
		if base != Single && base != None {
			hashSequence = m.hashSequence
		}
	}

	switch {
	case base != Single && base != None:
		hashOutputs = m.hashOutputs
	case base == Single && idx < m.t.NumOutputs():
		var out bytes.Buffer
		_, _ = m.t.Output(idx).WriteTo(&out)
		hashOutputs = crypto.DoubleSHA256(out.Bytes())
	default:
		hashOutputs = zero
	}

	in := m.t.Input(idx)

	var buf bytes.Buffer
	cw := codec.NewWriter(&buf)
	cw.Uint32(m.t.Version())
	cw.Raw(hashPrevouts[:])
	cw.Raw(hashSequence[:])
	cw.Item(in.PreviousOutpoint)
	cw.Bytes(scriptCode)
	cw.Uint64(value)
	cw.Uint32(in.Sequence)
	cw.Raw(hashOutputs[:])
	cw.Uint32(m.t.LockTime())
	cw.Uint32(uint32(flag))
	if _, err := cw.Result(); err != nil {
		return [32]byte{}, err
	}
	return crypto.DoubleSHA256(buf.Bytes()), nil
}

// ScriptCode returns the BIP143 scriptCode for spending program, a version 0
// witness program. For P2WPKH it is the equivalent P2PKH script; for P2WSH
// it is witnessScript, which must hash to the program.
func ScriptCode(program tx.Script, witnessScript []byte) ([]byte, error) {
	switch program.Class() {
	case tx.WitnessPubKeyHash:
		var h [20]byte
		copy(h[:], program.Hash())
		return tx.PayToPubKeyHash(h), nil
	case tx.WitnessScriptHash:
		if len(witnessScript) == 0 {
			return nil, fmt.Errorf("%w: missing witness script", ErrWitnessScriptMismatch)
		}
		sum := crypto.SHA256(witnessScript)
		if !bytes.Equal(sum[:], program.Hash()) {
			return nil, ErrWitnessScriptMismatch
		}
		return witnessScript, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotWitnessProgram, program.Class())
	}
}
