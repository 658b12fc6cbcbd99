package pst

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/suffix-labs/btc-pst/pkg/sighash"
	"github.com/suffix-labs/btc-pst/pkg/tx"
)

// Input is the map describing one transaction input.
type Input struct {
	Map
}

// NonWitnessUTXO decodes the full previous transaction.
func (in *Input) NonWitnessUTXO() (*tx.Tx, error) {
	v, ok := in.Get(Key{InNonWitnessUTXO})
	if !ok {
		return nil, missing(InNonWitnessUTXO)
	}
	t, err := tx.Deserialize(v)
	if err != nil {
		return nil, &KeyError{KeyType: InNonWitnessUTXO, Err: fmt.Errorf("%w: %v", ErrInvalidValue, err)}
	}
	return t, nil
}

// SetNonWitnessUTXO stores the full previous transaction.
func (in *Input) SetNonWitnessUTXO(prev *tx.Tx) error {
	return in.Set(Key{InNonWitnessUTXO}, prev.Bytes())
}

// WitnessUTXO decodes the spent output.
func (in *Input) WitnessUTXO() (tx.TxOut, error) {
	v, ok := in.Get(Key{InWitnessUTXO})
	if !ok {
		return tx.TxOut{}, missing(InWitnessUTXO)
	}
	out, err := decodeWitnessUTXO(v)
	if err != nil {
		return tx.TxOut{}, &KeyError{KeyType: InWitnessUTXO, Err: fmt.Errorf("%w: %v", ErrInvalidValue, err)}
	}
	return out, nil
}

// SetWitnessUTXO stores the spent output.
func (in *Input) SetWitnessUTXO(out tx.TxOut) error {
	var buf bytes.Buffer
	if _, err := out.WriteTo(&buf); err != nil {
		return err
	}
	return in.Set(Key{InWitnessUTXO}, buf.Bytes())
}

func decodeWitnessUTXO(v Value) (tx.TxOut, error) {
	var out tx.TxOut
	r := bytes.NewReader(v)
	if _, err := out.ReadFrom(r); err != nil {
		return out, err
	}
	if r.Len() != 0 {
		return out, fmt.Errorf("%d trailing bytes", r.Len())
	}
	return out, nil
}

// PartialSigs returns the partial signatures in public key order.
func (in *Input) PartialSigs() []PartialSig {
	var out []PartialSig
	for _, e := range in.EntriesOfType(InPartialSig) {
		out = append(out, PartialSig{PubKey: e.Key.Data(), Signature: e.Value})
	}
	return out
}

// PartialSig returns the signature recorded for pubKey.
func (in *Input) PartialSig(pubKey []byte) ([]byte, bool) {
	v, ok := in.Get(NewKey(InPartialSig, pubKey))
	return v, ok
}

// AddPartialSig records sig (DER || flag byte) for pubKey.
func (in *Input) AddPartialSig(pubKey, sig []byte) error {
	key := NewKey(InPartialSig, pubKey)
	if err := InputSchema().ValidateEntry(key, sig); err != nil {
		return err
	}
	return in.Set(key, sig)
}

// SighashType returns the requested sighash flag.
func (in *Input) SighashType() (sighash.Flag, error) {
	v, ok := in.Get(Key{InSighashType})
	if !ok {
		return 0, missing(InSighashType)
	}
	if len(v) != 4 {
		return 0, &KeyError{KeyType: InSighashType, Err: ErrValueLength}
	}
	f, err := sighash.FromUint32(binary.LittleEndian.Uint32(v))
	if err != nil {
		return 0, &KeyError{KeyType: InSighashType, Err: err}
	}
	return f, nil
}

// SetSighashType records the sighash flag signers must use.
func (in *Input) SetSighashType(f sighash.Flag) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return in.Set(Key{InSighashType}, binary.LittleEndian.AppendUint32(nil, uint32(f)))
}

// RedeemScript returns the P2SH redeem script.
func (in *Input) RedeemScript() (tx.Script, error) {
	return scriptValue(&in.Map, InRedeemScript)
}

func (in *Input) SetRedeemScript(script []byte) error {
	return in.Set(Key{InRedeemScript}, script)
}

// WitnessScript returns the P2WSH witness script.
func (in *Input) WitnessScript() (tx.Script, error) {
	return scriptValue(&in.Map, InWitnessScript)
}

func (in *Input) SetWitnessScript(script []byte) error {
	return in.Set(Key{InWitnessScript}, script)
}

// Bip32Derivations returns the key origins recorded for this input.
func (in *Input) Bip32Derivations() ([]Bip32Derivation, error) {
	return derivations(&in.Map, InBip32Derivation)
}

func (in *Input) AddBip32Derivation(d Bip32Derivation) error {
	return addDerivation(&in.Map, InBip32Derivation, d)
}

// FinalScriptSig returns the finalized scriptSig.
func (in *Input) FinalScriptSig() (tx.Script, error) {
	return scriptValue(&in.Map, InFinalScriptSig)
}

func (in *Input) SetFinalScriptSig(script []byte) error {
	return in.Set(Key{InFinalScriptSig}, script)
}

// FinalScriptWitness returns the finalized witness stack.
func (in *Input) FinalScriptWitness() (tx.Witness, error) {
	v, ok := in.Get(Key{InFinalScriptWitness})
	if !ok {
		return nil, missing(InFinalScriptWitness)
	}
	w, err := decodeFinalWitness(v)
	if err != nil {
		return nil, &KeyError{KeyType: InFinalScriptWitness, Err: fmt.Errorf("%w: %v", ErrInvalidValue, err)}
	}
	return w, nil
}

func (in *Input) SetFinalScriptWitness(w tx.Witness) error {
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return err
	}
	return in.Set(Key{InFinalScriptWitness}, buf.Bytes())
}

func decodeFinalWitness(v Value) (tx.Witness, error) {
	var w tx.Witness
	r := bytes.NewReader(v)
	if _, err := w.ReadFrom(r); err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes", r.Len())
	}
	return w, nil
}

// IsFinalized reports whether a final scriptSig or witness is present.
func (in *Input) IsFinalized() bool {
	return in.Has(Key{InFinalScriptSig}) || in.Has(Key{InFinalScriptWitness})
}

// AddPreimage records preimage under its hash for one of the hash preimage
// key types.
func (in *Input) AddPreimage(keyType byte, preimage []byte) error {
	var hash []byte
	switch keyType {
	case InRipemd160:
		hash = ripemd160Hash(preimage)
	case InSha256:
		hash = sha256Hash(preimage)
	case InHash160:
		hash = hash160Hash(preimage)
	case InHash256:
		hash = hash256Hash(preimage)
	default:
		return &KeyError{KeyType: keyType, Err: fmt.Errorf("%w: not a preimage key type", ErrInvalidValue)}
	}
	return in.Set(NewKey(keyType, hash), preimage)
}

// ClearForFinal drops everything except the UTXOs, the final fields,
// proprietary data and unknown key types.
func (in *Input) ClearForFinal() {
	in.Retain(func(t byte) bool {
		switch t {
		case InPartialSig, InSighashType, InRedeemScript, InWitnessScript, InBip32Derivation,
			InRipemd160, InSha256, InHash160, InHash256:
			return false
		default:
			return true
		}
	})
}

// SpentOutput returns the output this input spends, taken from the witness
// UTXO if present and otherwise from the non-witness UTXO at prev.
func (in *Input) SpentOutput(prev tx.Outpoint) (tx.TxOut, error) {
	if in.Has(Key{InWitnessUTXO}) {
		return in.WitnessUTXO()
	}
	prevTx, err := in.NonWitnessUTXO()
	if err != nil {
		return tx.TxOut{}, err
	}
	if prevTx.TxID() != prev.TxID {
		return tx.TxOut{}, &KeyError{KeyType: InNonWitnessUTXO,
			Err: fmt.Errorf("%w: transaction %s does not match outpoint %s", ErrInvalidValue, prevTx.TxID(), prev)}
	}
	if int(prev.Index) >= prevTx.NumOutputs() {
		return tx.TxOut{}, &KeyError{KeyType: InNonWitnessUTXO,
			Err: fmt.Errorf("%w: output %d of %d", ErrIndexOutOfRange, prev.Index, prevTx.NumOutputs())}
	}
	return prevTx.Output(int(prev.Index)), nil
}

func scriptValue(m *Map, keyType byte) (tx.Script, error) {
	v, ok := m.Get(Key{keyType})
	if !ok {
		return nil, missing(keyType)
	}
	return tx.Script(v), nil
}

func derivations(m *Map, keyType byte) ([]Bip32Derivation, error) {
	var out []Bip32Derivation
	for _, e := range m.EntriesOfType(keyType) {
		origin, err := DecodeKeyOrigin(e.Value)
		if err != nil {
			return nil, &KeyError{KeyType: keyType, Err: err}
		}
		out = append(out, Bip32Derivation{PubKey: e.Key.Data(), KeyOrigin: origin})
	}
	return out, nil
}

func addDerivation(m *Map, keyType byte, d Bip32Derivation) error {
	if len(d.PubKey) != CompressedPubKeySize {
		return &KeyError{KeyType: keyType, Err: fmt.Errorf("%w: public key of %d bytes", ErrKeyLength, len(d.PubKey))}
	}
	return m.Set(NewKey(keyType, d.PubKey), d.Encode())
}
