package pst

// Global key types.
const (
	GlobalUnsignedTx byte = 0x00
	GlobalXpub       byte = 0x01
	GlobalVersion    byte = 0xfb
)

// Input key types.
const (
	InNonWitnessUTXO     byte = 0x00
	InWitnessUTXO        byte = 0x01
	InPartialSig         byte = 0x02
	InSighashType        byte = 0x03
	InRedeemScript       byte = 0x04
	InWitnessScript      byte = 0x05
	InBip32Derivation    byte = 0x06
	InFinalScriptSig     byte = 0x07
	InFinalScriptWitness byte = 0x08
	InRipemd160          byte = 0x0a
	InSha256             byte = 0x0b
	InHash160            byte = 0x0c
	InHash256            byte = 0x0d
)

// Output key types.
const (
	OutRedeemScript    byte = 0x00
	OutWitnessScript   byte = 0x01
	OutBip32Derivation byte = 0x02
)

// Proprietary is reserved in every map for implementation-specific data and
// is never validated.
const Proprietary byte = 0xfc
