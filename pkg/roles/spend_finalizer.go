package roles

import (
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"go.uber.org/zap"

	"github.com/suffix-labs/btc-pst/pkg/crypto"
	"github.com/suffix-labs/btc-pst/pkg/pst"
	"github.com/suffix-labs/btc-pst/pkg/sighash"
	"github.com/suffix-labs/btc-pst/pkg/tx"
)

// ScriptFinalizer finalizes inputs by assembling their scriptSig and
// witness from partial signatures.
//
// Supported spends:
//   - P2PKH: scriptSig <sig> <pubkey>
//   - P2WPKH: witness [<sig>, <pubkey>]
//   - P2SH-P2WPKH: as P2WPKH, scriptSig <redeemScript>
//   - Multisig or single-key scripts in P2SH, P2WSH and P2SH-P2WSH
//
// Partial signatures are only used if they verify against the input's
// sighash and carry the flag the input requests. Once an input is final,
// its signing metadata is removed.
type ScriptFinalizer struct {
	logger *zap.Logger
}

// NewScriptFinalizer creates a new ScriptFinalizer.
func NewScriptFinalizer(opts ...Option) *ScriptFinalizer {
	o := newOptions(opts)
	return &ScriptFinalizer{logger: o.logger}
}

// Finalize finalizes every input that is not final yet.
//
// Returns an error if any input cannot be finalized (missing signatures,
// unsupported scripts, etc.). Inputs before the failing one stay
// finalized.
func (f *ScriptFinalizer) Finalize(p *pst.PST) error {
	for idx := range p.Inputs {
		if err := f.FinalizeInput(p, idx); err != nil {
			return &InputError{Index: idx, Err: err}
		}
	}
	return nil
}

// FinalizeInput implements Finalizer. Inputs that are already final are
// left alone.
func (f *ScriptFinalizer) FinalizeInput(p *pst.PST, idx int) error {
	in, unsigned, err := inputOf(p, idx)
	if err != nil {
		return err
	}
	if in.IsFinalized() {
		return nil
	}
	sp, err := analyzeSpend(in, unsigned.Input(idx).PreviousOutpoint)
	if err != nil {
		return err
	}
	sigs, err := f.usableSigs(in, sp, unsigned, idx)
	if err != nil {
		return err
	}

	var (
		stack   [][]byte
		witness tx.Witness
	)
	switch sp.kind {
	case spendPubKeyHash, spendWitnessPubKeyHash:
		pub, sig, ok := keyHashSig(sp, sigs)
		if !ok {
			return fmt.Errorf("%w: need a signature for key hash %x", ErrMissingKey, sp.keyHash)
		}
		stack = [][]byte{sig, pub}
	case spendScript, spendWitnessScript:
		stack, err = satisfy(sp.script(), sigs)
		if err != nil {
			return err
		}
		stack = append(stack, sp.script())
	}

	var scriptSig tx.Script
	switch {
	case !sp.witness():
		scriptSig, err = pushAll(stack)
	case sp.nested():
		witness = stack
		scriptSig, err = pushAll([][]byte{sp.redeemScript})
	default:
		witness = stack
	}
	if err != nil {
		return err
	}

	if len(scriptSig) > 0 {
		if err := in.SetFinalScriptSig(scriptSig); err != nil {
			return err
		}
	}
	if len(witness) > 0 {
		if err := in.SetFinalScriptWitness(witness); err != nil {
			return err
		}
	}
	in.ClearForFinal()

	f.logger.Debug("finalized input",
		zap.Int("input", idx),
		zap.Int("script_sig_len", len(scriptSig)),
		zap.Int("witness_items", len(witness)),
	)
	return nil
}

// usableSigs returns the partial signatures of in that verify, keyed by
// public key.
func (f *ScriptFinalizer) usableSigs(in *pst.Input, sp *spend, unsigned *tx.Tx, idx int) (map[string][]byte, error) {
	requested, err := in.SighashType()
	hasRequested := err == nil

	mid := sighash.NewMidstate(unsigned)
	sigs := make(map[string][]byte)
	for _, ps := range in.PartialSigs() {
		log := f.logger.With(zap.Int("input", idx), zap.Binary("pubkey", ps.PubKey))
		if len(ps.Signature) < 2 {
			log.Warn("ignoring truncated signature")
			continue
		}

		flag, err := sighash.FromUint32(uint32(ps.Signature[len(ps.Signature)-1]))
		if err != nil || (hasRequested && flag != requested) {
			log.Warn("ignoring signature with unexpected sighash flag")
			continue
		}
		pub, err := crypto.ParsePublicKey(ps.PubKey)
		if err != nil {
			log.Warn("ignoring signature for malformed key", zap.Error(err))
			continue
		}
		digest, err := sp.digest(mid, unsigned, idx, flag)
		if err != nil {
			return nil, err
		}
		if !crypto.VerifySignature(pub, digest, ps.Signature[:len(ps.Signature)-1]) {
			log.Warn("ignoring signature that does not verify")
			continue
		}
		sigs[string(ps.PubKey)] = ps.Signature
	}
	return sigs, nil
}

func keyHashSig(sp *spend, sigs map[string][]byte) (pub, sig []byte, ok bool) {
	for k, s := range sigs {
		if sp.involves([]byte(k)) {
			return []byte(k), s, true
		}
	}
	return nil, nil, false
}

// satisfy returns the stack items, before the script itself, that satisfy
// script with sigs.
func satisfy(script tx.Script, sigs map[string][]byte) ([][]byte, error) {
	if isMultisig, _ := txscript.IsMultisigScript(script); isMultisig {
		_, required, err := txscript.CalcMultiSigStats(script)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedScript, err)
		}
		pubKeys, err := txscript.PushedData(script)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedScript, err)
		}

		// CHECKMULTISIG pops one element more than it uses.
		stack := [][]byte{nil}
		for _, pub := range pubKeys {
			if len(stack)-1 == required {
				break
			}
			if sig, ok := sigs[string(pub)]; ok {
				stack = append(stack, sig)
			}
		}
		if have := len(stack) - 1; have < required {
			return nil, fmt.Errorf("%w: %d of %d signatures", ErrMissingKey, have, required)
		}
		return stack, nil
	}

	if pub, ok := payToPubKey(script); ok {
		sig, found := sigs[string(pub)]
		if !found {
			return nil, fmt.Errorf("%w: need a signature for %x", ErrMissingKey, pub)
		}
		return [][]byte{sig}, nil
	}
	return nil, fmt.Errorf("%w: %x", ErrUnsupportedScript, []byte(script))
}

// payToPubKey matches <pubkey> OP_CHECKSIG.
func payToPubKey(script tx.Script) ([]byte, bool) {
	n := len(script)
	switch {
	case n == pst.CompressedPubKeySize+2 && script[0] == pst.CompressedPubKeySize,
		n == pst.UncompressedPubKeySize+2 && script[0] == pst.UncompressedPubKeySize:
	default:
		return nil, false
	}
	if script[n-1] != txscript.OP_CHECKSIG {
		return nil, false
	}
	return script[1 : n-1], true
}

func pushAll(items [][]byte) (tx.Script, error) {
	b := txscript.NewScriptBuilder()
	for _, item := range items {
		b.AddData(item)
	}
	script, err := b.Script()
	if err != nil {
		return nil, fmt.Errorf("build scriptSig: %w", err)
	}
	return script, nil
}
