package roles

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/txscript"

	"github.com/suffix-labs/btc-pst/pkg/crypto"
	"github.com/suffix-labs/btc-pst/pkg/pst"
	"github.com/suffix-labs/btc-pst/pkg/sighash"
	"github.com/suffix-labs/btc-pst/pkg/tx"
)

// spendKind is the template an input's authorization must satisfy once
// any P2SH wrapping is removed.
type spendKind uint8

const (
	spendPubKeyHash spendKind = iota
	spendWitnessPubKeyHash
	spendScript
	spendWitnessScript
)

// spend describes how one input is signed and finalized.
type spend struct {
	kind          spendKind
	prevout       tx.TxOut
	redeemScript  tx.Script
	witnessScript tx.Script
	keyHash       []byte
	// signScript is the script committed to by the sighash: the prevout
	// or redeem script for legacy spends, the BIP143 scriptCode otherwise.
	signScript []byte
}

func (s *spend) witness() bool {
	return s.kind == spendWitnessPubKeyHash || s.kind == spendWitnessScript
}

// nested reports a witness program wrapped in P2SH.
func (s *spend) nested() bool {
	return s.witness() && s.redeemScript != nil
}

// script returns the script whose keys authorize a script spend.
func (s *spend) script() tx.Script {
	if s.kind == spendWitnessScript {
		return s.witnessScript
	}
	return s.redeemScript
}

// involves reports whether pubKey can contribute a signature.
func (s *spend) involves(pubKey []byte) bool {
	switch s.kind {
	case spendPubKeyHash, spendWitnessPubKeyHash:
		h := crypto.Hash160(pubKey)
		return bytes.Equal(h[:], s.keyHash)
	default:
		pushes, err := txscript.PushedData(s.script())
		if err != nil {
			return false
		}
		for _, p := range pushes {
			if bytes.Equal(p, pubKey) {
				return true
			}
		}
		return false
	}
}

func (s *spend) digest(mid *sighash.Midstate, unsigned *tx.Tx, idx int, flag sighash.Flag) ([32]byte, error) {
	if s.witness() {
		return mid.Witness(idx, flag, s.signScript, s.prevout.Value)
	}
	return sighash.Legacy(unsigned, idx, flag, s.signScript)
}

// analyzeSpend works out the spend template of in, which spends prev.
//
// Witness UTXOs are only accepted for witness programs (native or
// P2SH-wrapped). A non-witness UTXO may describe either kind; the sighash
// algorithm follows the program, as consensus requires.
func analyzeSpend(in *pst.Input, prev tx.Outpoint) (*spend, error) {
	witnessUTXO := in.Has(pst.Key{pst.InWitnessUTXO})
	if !witnessUTXO && !in.Has(pst.Key{pst.InNonWitnessUTXO}) {
		return nil, fmt.Errorf("%w: no UTXO recorded", ErrMissingInfo)
	}
	out, err := in.SpentOutput(prev)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPrevoutMismatch, err)
	}
	if witnessUTXO && in.Has(pst.Key{pst.InNonWitnessUTXO}) {
		if err := checkUTXOsAgree(in, prev, out); err != nil {
			return nil, err
		}
	}

	s := &spend{prevout: out}
	program := out.PkScript
	if program.Class() == tx.ScriptHash {
		redeem, err := in.RedeemScript()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMissingInfo, err)
		}
		h := crypto.Hash160(redeem)
		if !bytes.Equal(h[:], program.Hash()) {
			return nil, fmt.Errorf("%w: redeem script does not hash to %x", ErrPrevoutMismatch, program.Hash())
		}
		s.redeemScript = redeem
		if !redeem.Class().IsWitness() {
			if witnessUTXO {
				return nil, fmt.Errorf("%w: witness UTXO for a non-witness P2SH spend", ErrWrongPrevoutScriptType)
			}
			s.kind = spendScript
			s.signScript = redeem
			return s, nil
		}
		program = redeem
	}

	switch program.Class() {
	case tx.PubKeyHash:
		if witnessUTXO {
			return nil, fmt.Errorf("%w: witness UTXO for %s", ErrWrongPrevoutScriptType, program.Class())
		}
		s.kind = spendPubKeyHash
		s.keyHash = program.Hash()
		s.signScript = out.PkScript
	case tx.WitnessPubKeyHash:
		s.kind = spendWitnessPubKeyHash
		s.keyHash = program.Hash()
		s.signScript, err = sighash.ScriptCode(program, nil)
		if err != nil {
			return nil, err
		}
	case tx.WitnessScriptHash:
		ws, err := in.WitnessScript()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMissingInfo, err)
		}
		code, err := sighash.ScriptCode(program, ws)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPrevoutMismatch, err)
		}
		s.kind = spendWitnessScript
		s.witnessScript = ws
		s.signScript = code
	default:
		return nil, fmt.Errorf("%w: %s", ErrWrongPrevoutScriptType, program.Class())
	}
	return s, nil
}

func checkUTXOsAgree(in *pst.Input, prev tx.Outpoint, witnessOut tx.TxOut) error {
	prevTx, err := in.NonWitnessUTXO()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPrevoutMismatch, err)
	}
	if prevTx.TxID() != prev.TxID || int(prev.Index) >= prevTx.NumOutputs() {
		return fmt.Errorf("%w: non-witness UTXO is not %s", ErrPrevoutMismatch, prev)
	}
	full := prevTx.Output(int(prev.Index))
	if full.Value != witnessOut.Value || !full.PkScript.Equal(witnessOut.PkScript) {
		return fmt.Errorf("%w: witness and non-witness UTXOs disagree", ErrPrevoutMismatch)
	}
	return nil
}

// requestedFlag returns the flag recorded on in, ALL when none is.
func requestedFlag(in *pst.Input) (sighash.Flag, error) {
	flag, err := in.SighashType()
	if errors.Is(err, pst.ErrMissingKey) {
		return sighash.All, nil
	}
	return flag, err
}

// InputSighash returns the digest input idx is signed over and the flag
// it requests, for callers that sign outside of a Signer.
func InputSighash(p *pst.PST, idx int) ([32]byte, sighash.Flag, error) {
	in, unsigned, err := inputOf(p, idx)
	if err != nil {
		return [32]byte{}, 0, err
	}
	sp, err := analyzeSpend(in, unsigned.Input(idx).PreviousOutpoint)
	if err != nil {
		return [32]byte{}, 0, err
	}
	flag, err := requestedFlag(in)
	if err != nil {
		return [32]byte{}, 0, err
	}
	digest, err := sp.digest(sighash.NewMidstate(unsigned), unsigned, idx, flag)
	if err != nil {
		return [32]byte{}, 0, err
	}
	return digest, flag, nil
}

// AddSignature records sig, a DER signature followed by a flag byte, for
// pubKey on input idx after checking that it verifies and that pubKey is
// used by the spent script.
func AddSignature(p *pst.PST, idx int, pubKey, sig []byte) error {
	in, unsigned, err := inputOf(p, idx)
	if err != nil {
		return err
	}
	if in.IsFinalized() {
		return ErrAlreadyFinalized
	}
	sp, err := analyzeSpend(in, unsigned.Input(idx).PreviousOutpoint)
	if err != nil {
		return err
	}
	if !sp.involves(pubKey) {
		return fmt.Errorf("%w: %x is not used by the spent script", ErrNoMatchingKey, pubKey)
	}
	if len(sig) < 2 {
		return fmt.Errorf("%w: signature too short", crypto.ErrInvalidSignature)
	}
	flag, err := sighash.FromUint32(uint32(sig[len(sig)-1]))
	if err != nil {
		return err
	}
	if requested, err := requestedFlag(in); err != nil || requested != flag {
		return fmt.Errorf("%w: signature uses %s", ErrUnacceptableSighash, flag)
	}
	digest, err := sp.digest(sighash.NewMidstate(unsigned), unsigned, idx, flag)
	if err != nil {
		return err
	}
	pub, err := crypto.ParsePublicKey(pubKey)
	if err != nil {
		return err
	}
	if !crypto.VerifySignature(pub, digest, sig[:len(sig)-1]) {
		return crypto.ErrInvalidSignature
	}
	return in.AddPartialSig(pubKey, sig)
}
