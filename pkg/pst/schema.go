package pst

import (
	"bytes"
	"fmt"

	"github.com/suffix-labs/btc-pst/pkg/crypto"
	"github.com/suffix-labs/btc-pst/pkg/tx"
)

// Validator checks a single key/value pair.
type Validator func(key Key, value Value) error

// Schema maps key types to ordered validator lists. Every validator
// registered for a key type must pass. Exempt key types and key types with
// no validators are accepted as-is.
type Schema struct {
	validators map[byte][]Validator
	exempt     map[byte]bool
}

// NewSchema returns an empty schema.
func NewSchema() *Schema {
	return &Schema{
		validators: make(map[byte][]Validator),
		exempt:     make(map[byte]bool),
	}
}

// Register appends validators for keyType.
func (s *Schema) Register(keyType byte, validators ...Validator) *Schema {
	s.validators[keyType] = append(s.validators[keyType], validators...)
	return s
}

// Exempt skips validation for keyType.
func (s *Schema) Exempt(keyType byte) *Schema {
	s.exempt[keyType] = true
	return s
}

// Clone returns an independent copy that can be extended.
func (s *Schema) Clone() *Schema {
	out := NewSchema()
	for t, vs := range s.validators {
		out.validators[t] = append([]Validator(nil), vs...)
	}
	for t := range s.exempt {
		out.exempt[t] = true
	}
	return out
}

// ValidateEntry runs the validators registered for the entry's key type.
func (s *Schema) ValidateEntry(key Key, value Value) error {
	t := key.Type()
	if s.exempt[t] {
		return nil
	}
	for _, v := range s.validators[t] {
		if err := v(key, value); err != nil {
			return &KeyError{KeyType: t, Err: err}
		}
	}
	return nil
}

// Validate checks every entry of m.
func (s *Schema) Validate(m *Map) error {
	for _, e := range m.entries {
		if err := s.ValidateEntry(e.Key, e.Value); err != nil {
			return err
		}
	}
	return nil
}

// Schemas groups the schemas applied to each kind of map.
type Schemas struct {
	Global *Schema
	Input  *Schema
	Output *Schema
}

// DefaultSchemas returns fresh copies of the standard schemas.
func DefaultSchemas() Schemas {
	return Schemas{
		Global: GlobalSchema(),
		Input:  InputSchema(),
		Output: OutputSchema(),
	}
}

// KeyLength requires the whole key, type byte included, to be one of sizes.
func KeyLength(sizes ...int) Validator {
	return func(key Key, _ Value) error {
		for _, n := range sizes {
			if len(key) == n {
				return nil
			}
		}
		return fmt.Errorf("%w: got %d, want %v", ErrKeyLength, len(key), sizes)
	}
}

// ValueLength requires a value of exactly n bytes.
func ValueLength(n int) Validator {
	return func(_ Key, value Value) error {
		if len(value) != n {
			return fmt.Errorf("%w: got %d, want %d", ErrValueLength, len(value), n)
		}
		return nil
	}
}

// ValueMultipleOf requires a non-empty value whose length is a multiple of n.
func ValueMultipleOf(n int) Validator {
	return func(_ Key, value Value) error {
		if len(value) == 0 || len(value)%n != 0 {
			return fmt.Errorf("%w: got %d, want non-empty multiple of %d", ErrValueLength, len(value), n)
		}
		return nil
	}
}

// NonEmptyValue rejects empty values.
func NonEmptyValue() Validator {
	return func(_ Key, value Value) error {
		if len(value) == 0 {
			return fmt.Errorf("%w: empty", ErrValueLength)
		}
		return nil
	}
}

// ValueDecodes requires decode to accept the value.
func ValueDecodes(decode func(Value) error) Validator {
	return func(_ Key, value Value) error {
		if err := decode(value); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		return nil
	}
}

// PubKeyData requires the key data to look like a serialized public key.
func PubKeyData() Validator {
	return func(key Key, _ Value) error {
		data := key.Data()
		switch {
		case len(data) == CompressedPubKeySize && (data[0] == 0x02 || data[0] == 0x03):
			return nil
		case len(data) == UncompressedPubKeySize && data[0] == 0x04:
			return nil
		default:
			return fmt.Errorf("%w: not a public key", ErrInvalidValue)
		}
	}
}

// PreimageOf requires hash(value) to equal the key data.
func PreimageOf(hash func([]byte) []byte) Validator {
	return func(key Key, value Value) error {
		if !bytes.Equal(hash(value), key.Data()) {
			return fmt.Errorf("%w: preimage does not match hash", ErrInvalidValue)
		}
		return nil
	}
}

func decodeUnsignedTx(v Value) error {
	t, err := tx.DeserializeNoWitness(v)
	if err != nil {
		return err
	}
	for i, in := range t.Inputs() {
		if len(in.ScriptSig) != 0 {
			return fmt.Errorf("input %d has a scriptSig", i)
		}
	}
	return nil
}

func decodeTx(v Value) error {
	_, err := tx.Deserialize(v)
	return err
}

func decodeTxOut(v Value) error {
	_, err := decodeWitnessUTXO(v)
	return err
}

func decodeWitness(v Value) error {
	_, err := decodeFinalWitness(v)
	return err
}

func ripemd160Hash(b []byte) []byte {
	h := crypto.RIPEMD160(b)
	return h[:]
}

func sha256Hash(b []byte) []byte {
	h := crypto.SHA256(b)
	return h[:]
}

func hash160Hash(b []byte) []byte {
	h := crypto.Hash160(b)
	return h[:]
}

func hash256Hash(b []byte) []byte {
	h := crypto.DoubleSHA256(b)
	return h[:]
}

// GlobalSchema returns the standard global map schema.
func GlobalSchema() *Schema {
	return NewSchema().
		Register(GlobalUnsignedTx, KeyLength(1), ValueDecodes(decodeUnsignedTx)).
		Register(GlobalXpub, KeyLength(1+ExtendedKeySize), ValueMultipleOf(4)).
		Register(GlobalVersion, KeyLength(1), ValueLength(4)).
		Exempt(Proprietary)
}

// InputSchema returns the standard input map schema.
func InputSchema() *Schema {
	return NewSchema().
		Register(InNonWitnessUTXO, KeyLength(1), ValueDecodes(decodeTx)).
		Register(InWitnessUTXO, KeyLength(1), ValueDecodes(decodeTxOut)).
		Register(InPartialSig, KeyLength(1+CompressedPubKeySize, 1+UncompressedPubKeySize), PubKeyData(), NonEmptyValue()).
		Register(InSighashType, KeyLength(1), ValueLength(4)).
		Register(InRedeemScript, KeyLength(1)).
		Register(InWitnessScript, KeyLength(1)).
		Register(InBip32Derivation, KeyLength(1+CompressedPubKeySize), PubKeyData(), ValueMultipleOf(4)).
		Register(InFinalScriptSig, KeyLength(1)).
		Register(InFinalScriptWitness, KeyLength(1), ValueDecodes(decodeWitness)).
		Register(InRipemd160, KeyLength(21), PreimageOf(ripemd160Hash)).
		Register(InSha256, KeyLength(33), PreimageOf(sha256Hash)).
		Register(InHash160, KeyLength(21), PreimageOf(hash160Hash)).
		Register(InHash256, KeyLength(33), PreimageOf(hash256Hash)).
		Exempt(Proprietary)
}

// OutputSchema returns the standard output map schema.
func OutputSchema() *Schema {
	return NewSchema().
		Register(OutRedeemScript, KeyLength(1)).
		Register(OutWitnessScript, KeyLength(1)).
		Register(OutBip32Derivation, KeyLength(1+CompressedPubKeySize), PubKeyData(), ValueMultipleOf(4)).
		Exempt(Proprietary)
}
