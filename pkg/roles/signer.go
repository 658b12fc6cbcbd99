package roles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/suffix-labs/btc-pst/pkg/crypto"
	"github.com/suffix-labs/btc-pst/pkg/pst"
	"github.com/suffix-labs/btc-pst/pkg/sighash"
	"github.com/suffix-labs/btc-pst/pkg/tx"
)

// Sign applies signer to every input it can sign and returns the indexes
// it signed.
//
// Returns an error if:
//   - The PST does not hold one map per transaction input and output
//   - Any input is already finalized (nothing is signed in that case)
//   - SignInput fails on an input that passed CanSignInput
//
// Inputs for which CanSignInput fails are skipped.
func Sign(ctx context.Context, signer Signer, p *pst.PST) ([]int, error) {
	if _, err := p.UnsignedTx(); err != nil {
		return nil, err
	}
	for idx := range p.Inputs {
		if p.Inputs[idx].IsFinalized() {
			return nil, &InputError{Index: idx, Err: ErrAlreadyFinalized}
		}
	}
	if ks, ok := signer.(*KeySigner); ok {
		return ks.Sign(ctx, p)
	}

	var signed []int
	for idx := range p.Inputs {
		if err := signer.CanSignInput(p, idx); err != nil {
			continue
		}
		if err := signer.SignInput(ctx, p, idx); err != nil {
			return signed, &InputError{Index: idx, Err: err}
		}
		signed = append(signed, idx)
	}
	return signed, nil
}

// KeySigner signs with keys drawn from a crypto.KeyProvider.
//
// An input is signed for every BIP32 derivation entry whose fingerprint
// matches the provider, whose path derives to the recorded public key and
// whose key appears in the script being spent. Signatures are DER-encoded
// and followed by the sighash flag byte.
type KeySigner struct {
	keys    crypto.KeyProvider
	allowed []sighash.Flag
	logger  *zap.Logger
}

// NewKeySigner creates a new KeySigner.
func NewKeySigner(keys crypto.KeyProvider, opts ...Option) *KeySigner {
	o := newOptions(opts)
	return &KeySigner{keys: keys, allowed: o.sighashes, logger: o.logger}
}

// IsChange implements Signer. An output is change when it carries exactly
// one derivation entry, that entry is ours, and its key hashes to the
// output script (P2PKH, P2WPKH or P2SH-wrapped P2WPKH).
func (s *KeySigner) IsChange(p *pst.PST, idx int) (bool, error) {
	out, err := p.Output(idx)
	if err != nil {
		return false, err
	}
	unsigned, err := p.UnsignedTx()
	if err != nil {
		return false, err
	}
	derivs, err := out.Bip32Derivations()
	if err != nil {
		return false, err
	}
	if len(derivs) != 1 || derivs[0].Fingerprint != s.keys.Fingerprint() {
		return false, nil
	}
	return paysToKey(unsigned.Output(idx).PkScript, derivs[0].PubKey), nil
}

func paysToKey(script tx.Script, pubKey []byte) bool {
	var want tx.Script
	switch script.Class() {
	case tx.PubKeyHash:
		want = tx.PayToPubKeyHashFor(pubKey)
	case tx.WitnessPubKeyHash:
		want = tx.PayToWitnessPubKeyHashFor(pubKey)
	case tx.ScriptHash:
		want = tx.PayToScriptHashFor(tx.PayToWitnessPubKeyHashFor(pubKey))
	default:
		return false
	}
	return script.Equal(want)
}

// AcceptableSighash implements Signer.
func (s *KeySigner) AcceptableSighash(flag sighash.Flag) bool {
	return slices.Contains(s.allowed, flag)
}

// CanSignInput implements Signer.
func (s *KeySigner) CanSignInput(p *pst.PST, idx int) error {
	in, unsigned, err := inputOf(p, idx)
	if err != nil {
		return err
	}
	_, _, err = s.prepare(in, unsigned, idx)
	return err
}

// SignInput implements Signer.
func (s *KeySigner) SignInput(ctx context.Context, p *pst.PST, idx int) error {
	in, unsigned, err := inputOf(p, idx)
	if err != nil {
		return err
	}
	return s.signInput(ctx, in, unsigned, idx, sighash.NewMidstate(unsigned))
}

// Sign signs every input it can, sharing one BIP143 midstate between them.
// It follows the rules of the package level Sign.
func (s *KeySigner) Sign(ctx context.Context, p *pst.PST) ([]int, error) {
	unsigned, err := p.UnsignedTx()
	if err != nil {
		return nil, err
	}
	for idx := range p.Inputs {
		if p.Inputs[idx].IsFinalized() {
			return nil, &InputError{Index: idx, Err: ErrAlreadyFinalized}
		}
	}

	mid := sighash.NewMidstate(unsigned)
	var signed []int
	for idx := range p.Inputs {
		in := &p.Inputs[idx]
		if _, _, err := s.prepare(in, unsigned, idx); err != nil {
			s.logger.Debug("skipping input", zap.Int("input", idx), zap.Error(err))
			continue
		}
		if err := s.signInput(ctx, in, unsigned, idx, mid); err != nil {
			return signed, &InputError{Index: idx, Err: err}
		}
		signed = append(signed, idx)
	}
	return signed, nil
}

func inputOf(p *pst.PST, idx int) (*pst.Input, *tx.Tx, error) {
	in, err := p.Input(idx)
	if err != nil {
		return nil, nil, err
	}
	unsigned, err := p.UnsignedTx()
	if err != nil {
		return nil, nil, err
	}
	return in, unsigned, nil
}

// prepare checks that input idx can be signed and returns its spend and
// the flag to sign with.
func (s *KeySigner) prepare(in *pst.Input, unsigned *tx.Tx, idx int) (*spend, sighash.Flag, error) {
	if in.IsFinalized() {
		return nil, 0, ErrAlreadyFinalized
	}
	sp, err := analyzeSpend(in, unsigned.Input(idx).PreviousOutpoint)
	if err != nil {
		return nil, 0, err
	}
	flag, err := requestedFlag(in)
	if err != nil {
		return nil, 0, err
	}
	if !s.AcceptableSighash(flag) {
		return nil, 0, fmt.Errorf("%w: %s", ErrUnacceptableSighash, flag)
	}
	derivs, err := in.Bip32Derivations()
	if err != nil {
		return nil, 0, err
	}
	fp := s.keys.Fingerprint()
	if !slices.ContainsFunc(derivs, func(d pst.Bip32Derivation) bool { return d.Fingerprint == fp }) {
		return nil, 0, fmt.Errorf("%w: fingerprint %x", ErrNoMatchingKey, fp)
	}
	return sp, flag, nil
}

func (s *KeySigner) signInput(ctx context.Context, in *pst.Input, unsigned *tx.Tx, idx int, mid *sighash.Midstate) error {
	sp, flag, err := s.prepare(in, unsigned, idx)
	if err != nil {
		return err
	}
	digest, err := sp.digest(mid, unsigned, idx, flag)
	if err != nil {
		return err
	}
	derivs, err := in.Bip32Derivations()
	if err != nil {
		return err
	}

	fp := s.keys.Fingerprint()
	signed := 0
	for _, d := range derivs {
		if d.Fingerprint != fp {
			continue
		}
		log := s.logger.With(zap.Int("input", idx), zap.String("path", crypto.FormatPath(d.Path)))

		pub, err := s.keys.PublicKey(ctx, d.Path)
		if errors.Is(err, crypto.ErrUnderivable) {
			log.Debug("path not derivable", zap.Error(err))
			continue
		}
		if err != nil {
			return err
		}
		if !bytes.Equal(pub, d.PubKey) {
			log.Warn("derived key does not match derivation entry")
			continue
		}
		if !sp.involves(pub) {
			log.Warn("key is not used by the spent script")
			continue
		}

		der, err := s.keys.SignDigest(ctx, d.Path, digest)
		if err != nil {
			return err
		}
		if err := in.AddPartialSig(pub, append(der, byte(flag))); err != nil {
			return err
		}
		signed++
		log.Debug("signed input", zap.Stringer("sighash", flag))
	}
	if signed == 0 {
		return fmt.Errorf("%w: no usable derivation entry", ErrNoMatchingKey)
	}
	return nil
}
