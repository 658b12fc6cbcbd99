package pst

import "github.com/suffix-labs/btc-pst/pkg/tx"

// Output is the map describing one transaction output.
type Output struct {
	Map
}

func (out *Output) RedeemScript() (tx.Script, error) {
	return scriptValue(&out.Map, OutRedeemScript)
}

func (out *Output) SetRedeemScript(script []byte) error {
	return out.Set(Key{OutRedeemScript}, script)
}

func (out *Output) WitnessScript() (tx.Script, error) {
	return scriptValue(&out.Map, OutWitnessScript)
}

func (out *Output) SetWitnessScript(script []byte) error {
	return out.Set(Key{OutWitnessScript}, script)
}

// Bip32Derivations returns the key origins recorded for this output, used
// to recognize change.
func (out *Output) Bip32Derivations() ([]Bip32Derivation, error) {
	return derivations(&out.Map, OutBip32Derivation)
}

func (out *Output) AddBip32Derivation(d Bip32Derivation) error {
	return addDerivation(&out.Map, OutBip32Derivation, d)
}
