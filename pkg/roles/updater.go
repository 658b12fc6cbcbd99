package roles

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/suffix-labs/btc-pst/pkg/crypto"
	"github.com/suffix-labs/btc-pst/pkg/pst"
	"github.com/suffix-labs/btc-pst/pkg/tx"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_updater_test.go -package=$GOPACKAGE

// PrevTxSource returns the transaction with the given id.
type PrevTxSource interface {
	PrevTx(ctx context.Context, txid tx.TXID) (*tx.Tx, error)
}

// SourceUpdater attaches UTXO information to inputs that have none,
// looking previous transactions up in a PrevTxSource.
//
// Every updated input gets the full previous transaction. Inputs spending a
// witness program, directly or through a recorded P2SH redeem script, also
// get the spent output as witness UTXO.
type SourceUpdater struct {
	source PrevTxSource
	logger *zap.Logger
}

// NewSourceUpdater creates a new SourceUpdater.
func NewSourceUpdater(source PrevTxSource, opts ...Option) *SourceUpdater {
	o := newOptions(opts)
	return &SourceUpdater{source: source, logger: o.logger}
}

// Update implements Updater.
func (u *SourceUpdater) Update(ctx context.Context, p *pst.PST) error {
	unsigned, err := p.UnsignedTx()
	if err != nil {
		return err
	}
	for idx := range p.Inputs {
		in := &p.Inputs[idx]
		if in.IsFinalized() || in.Has(pst.Key{pst.InNonWitnessUTXO}) || in.Has(pst.Key{pst.InWitnessUTXO}) {
			continue
		}
		if err := u.updateInput(ctx, in, unsigned.Input(idx).PreviousOutpoint); err != nil {
			return &InputError{Index: idx, Err: err}
		}
	}
	return nil
}

func (u *SourceUpdater) updateInput(ctx context.Context, in *pst.Input, prev tx.Outpoint) error {
	prevTx, err := u.source.PrevTx(ctx, prev.TxID)
	if err != nil {
		return fmt.Errorf("look up %s: %w", prev.TxID, err)
	}
	if prevTx.TxID() != prev.TxID {
		return fmt.Errorf("%w: source returned %s for %s", ErrPrevoutMismatch, prevTx.TxID(), prev.TxID)
	}
	if int(prev.Index) >= prevTx.NumOutputs() {
		return fmt.Errorf("%w: %s has %d outputs", ErrPrevoutMismatch, prev.TxID, prevTx.NumOutputs())
	}
	if err := in.SetNonWitnessUTXO(prevTx); err != nil {
		return err
	}

	out := prevTx.Output(int(prev.Index))
	program := out.PkScript
	if program.Class() == tx.ScriptHash {
		if redeem, err := in.RedeemScript(); err == nil {
			program = redeem
		}
	}
	if program.Class().IsWitness() {
		if err := in.SetWitnessUTXO(out); err != nil {
			return err
		}
	}
	u.logger.Debug("attached utxo", zap.Stringer("outpoint", prev), zap.Stringer("class", out.PkScript.Class()))
	return nil
}

// KeyUpdater records BIP32 derivation entries for the keys of a
// KeyProvider at a set of candidate paths. An input gets an entry when
// the key can sign for it; an output gets one when it pays to the key,
// and a P2SH output paying to the key's P2WPKH program also gets that
// program as its redeem script.
type KeyUpdater struct {
	keys   crypto.KeyProvider
	paths  [][]uint32
	logger *zap.Logger
}

// NewKeyUpdater creates a new KeyUpdater.
func NewKeyUpdater(keys crypto.KeyProvider, paths [][]uint32, opts ...Option) *KeyUpdater {
	o := newOptions(opts)
	return &KeyUpdater{keys: keys, paths: paths, logger: o.logger}
}

type candidate struct {
	pubKey []byte
	origin pst.KeyOrigin
}

// Update implements Updater.
func (u *KeyUpdater) Update(ctx context.Context, p *pst.PST) error {
	unsigned, err := p.UnsignedTx()
	if err != nil {
		return err
	}

	candidates := make([]candidate, 0, len(u.paths))
	for _, path := range u.paths {
		pub, err := u.keys.PublicKey(ctx, path)
		if err != nil {
			return fmt.Errorf("derive %s: %w", crypto.FormatPath(path), err)
		}
		candidates = append(candidates, candidate{
			pubKey: pub,
			origin: pst.KeyOrigin{Fingerprint: u.keys.Fingerprint(), Path: path},
		})
	}

	for idx := range p.Inputs {
		in := &p.Inputs[idx]
		if in.IsFinalized() {
			continue
		}
		sp, err := analyzeSpend(in, unsigned.Input(idx).PreviousOutpoint)
		if err != nil {
			u.logger.Debug("cannot match keys to input", zap.Int("input", idx), zap.Error(err))
			continue
		}
		for _, c := range candidates {
			if !sp.involves(c.pubKey) {
				continue
			}
			if err := in.AddBip32Derivation(pst.Bip32Derivation{PubKey: c.pubKey, KeyOrigin: c.origin}); err != nil {
				return &InputError{Index: idx, Err: err}
			}
		}
	}

	for idx := range p.Outputs {
		out := &p.Outputs[idx]
		script := unsigned.Output(idx).PkScript
		for _, c := range candidates {
			if !paysToKey(script, c.pubKey) {
				continue
			}
			if script.Class() == tx.ScriptHash {
				if err := out.SetRedeemScript(tx.PayToWitnessPubKeyHashFor(c.pubKey)); err != nil {
					return err
				}
			}
			if err := out.AddBip32Derivation(pst.Bip32Derivation{PubKey: c.pubKey, KeyOrigin: c.origin}); err != nil {
				return err
			}
		}
	}
	return nil
}

// Chain runs updaters in order, stopping at the first failure.
func Chain(updaters ...Updater) Updater {
	return chain(updaters)
}

type chain []Updater

func (c chain) Update(ctx context.Context, p *pst.PST) error {
	for _, u := range c {
		if err := u.Update(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
