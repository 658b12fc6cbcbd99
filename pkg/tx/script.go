package tx

import (
	"bytes"

	"github.com/suffix-labs/btc-pst/pkg/crypto"
)

// Opcodes used by the standard output templates.
const (
	opFalse       = 0x00
	opData20      = 0x14
	opData32      = 0x20
	opReturn      = 0x6a
	opDup         = 0x76
	opEqual       = 0x87
	opEqualVerify = 0x88
	opHash160     = 0xa9
	opCheckSig    = 0xac
)

// ScriptClass is the standard template a locking script matches.
type ScriptClass uint8

const (
	NonStandard ScriptClass = iota
	PubKeyHash
	ScriptHash
	WitnessPubKeyHash
	WitnessScriptHash
	NullData
)

func (c ScriptClass) String() string {
	switch c {
	case PubKeyHash:
		return "pubkeyhash"
	case ScriptHash:
		return "scripthash"
	case WitnessPubKeyHash:
		return "witness_v0_keyhash"
	case WitnessScriptHash:
		return "witness_v0_scripthash"
	case NullData:
		return "nulldata"
	default:
		return "nonstandard"
	}
}

// IsWitness reports whether outputs of this class are spent with witness data.
func (c ScriptClass) IsWitness() bool {
	return c == WitnessPubKeyHash || c == WitnessScriptHash
}

// Script is an opaque byte string holding a locking or unlocking script.
type Script []byte

// Class matches s against the standard templates by exact length and fixed
// bytes. Anything unrecognized is NonStandard.
func (s Script) Class() ScriptClass {
	switch {
	case len(s) == 25 && s[0] == opDup && s[1] == opHash160 && s[2] == opData20 &&
		s[23] == opEqualVerify && s[24] == opCheckSig:
		return PubKeyHash
	case len(s) == 23 && s[0] == opHash160 && s[1] == opData20 && s[22] == opEqual:
		return ScriptHash
	case len(s) == 22 && s[0] == opFalse && s[1] == opData20:
		return WitnessPubKeyHash
	case len(s) == 34 && s[0] == opFalse && s[1] == opData32:
		return WitnessScriptHash
	case len(s) > 0 && s[0] == opReturn:
		return NullData
	default:
		return NonStandard
	}
}

// Hash returns the key or script hash committed to by a PKH, SH, WPKH or WSH
// script, or nil for every other class.
func (s Script) Hash() []byte {
	switch s.Class() {
	case PubKeyHash:
		return s[3:23]
	case ScriptHash:
		return s[2:22]
	case WitnessPubKeyHash:
		return s[2:22]
	case WitnessScriptHash:
		return s[2:34]
	default:
		return nil
	}
}

// Equal reports whether s and other hold the same bytes.
func (s Script) Equal(other Script) bool {
	return bytes.Equal(s, other)
}

// PayToPubKeyHash returns OP_DUP OP_HASH160 <hash> OP_EQUALVERIFY OP_CHECKSIG.
func PayToPubKeyHash(hash [20]byte) Script {
	s := make(Script, 0, 25)
	s = append(s, opDup, opHash160, opData20)
	s = append(s, hash[:]...)
	return append(s, opEqualVerify, opCheckSig)
}

// PayToScriptHash returns OP_HASH160 <hash> OP_EQUAL.
func PayToScriptHash(hash [20]byte) Script {
	s := make(Script, 0, 23)
	s = append(s, opHash160, opData20)
	s = append(s, hash[:]...)
	return append(s, opEqual)
}

// PayToWitnessPubKeyHash returns OP_0 <hash>.
func PayToWitnessPubKeyHash(hash [20]byte) Script {
	s := make(Script, 0, 22)
	s = append(s, opFalse, opData20)
	return append(s, hash[:]...)
}

// PayToWitnessScriptHash returns OP_0 <hash>.
func PayToWitnessScriptHash(hash [32]byte) Script {
	s := make(Script, 0, 34)
	s = append(s, opFalse, opData32)
	return append(s, hash[:]...)
}

// PayToPubKeyHashFor locks to HASH160 of a serialized public key.
func PayToPubKeyHashFor(pubKey []byte) Script {
	return PayToPubKeyHash(crypto.Hash160(pubKey))
}

// PayToWitnessPubKeyHashFor locks to HASH160 of a compressed public key.
func PayToWitnessPubKeyHashFor(pubKey []byte) Script {
	return PayToWitnessPubKeyHash(crypto.Hash160(pubKey))
}

// PayToScriptHashFor locks to HASH160 of a redeem script.
func PayToScriptHashFor(redeemScript []byte) Script {
	return PayToScriptHash(crypto.Hash160(redeemScript))
}

// PayToWitnessScriptHashFor locks to SHA-256 of a witness script.
func PayToWitnessScriptHashFor(witnessScript []byte) Script {
	return PayToWitnessScriptHash(crypto.SHA256(witnessScript))
}
