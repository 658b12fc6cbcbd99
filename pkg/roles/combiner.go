package roles

import (
	"bytes"
	"fmt"

	"go.uber.org/zap"

	"github.com/suffix-labs/btc-pst/pkg/pst"
)

// Combiner merges multiple PSTs into a single PST.
//
// The Combiner role enables parallel signing workflows:
//   - Multiple parties can sign different inputs in parallel
//   - Each party returns its own copy of the PST with partial signatures
//   - The Combiner merges all partial signatures into one PST
//
// Entries present in only one PST are copied. When two PSTs carry
// different values for the same key, the first PST wins, except for
// partial signatures where disagreement is an error.
type Combiner struct {
	logger *zap.Logger
}

// NewCombiner creates a new Combiner.
func NewCombiner(opts ...Option) *Combiner {
	o := newOptions(opts)
	return &Combiner{logger: o.logger}
}

// Combine merges psts into a new PST. The inputs are not modified.
//
// Returns an error if:
//   - No PSTs are given
//   - PSTs are incompatible (different unsigned transactions)
//   - Two PSTs carry different partial signatures for the same key
func (c *Combiner) Combine(psts ...*pst.PST) (*pst.PST, error) {
	if len(psts) == 0 {
		return nil, fmt.Errorf("no PSTs to combine")
	}

	result := psts[0].Clone()
	for i := 1; i < len(psts); i++ {
		if err := c.mergeInto(result, psts[i]); err != nil {
			return nil, fmt.Errorf("failed to merge PST %d: %w", i, err)
		}
	}
	c.logger.Debug("combined psts", zap.Int("count", len(psts)))
	return result, nil
}

// mergeInto merges src into dst.
func (c *Combiner) mergeInto(dst, src *pst.PST) error {
	if err := c.validateCompatible(dst, src); err != nil {
		return err
	}

	if err := mergeMap(&dst.Global.Map, &src.Global.Map, nil); err != nil {
		return err
	}
	for i := range dst.Inputs {
		err := mergeMap(&dst.Inputs[i].Map, &src.Inputs[i].Map, func(k pst.Key) error {
			if k.Type() == pst.InPartialSig {
				return fmt.Errorf("input %d: %w for pubkey %x", i, ErrConflict, k.Data())
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	for i := range dst.Outputs {
		if err := mergeMap(&dst.Outputs[i].Map, &src.Outputs[i].Map, nil); err != nil {
			return err
		}
	}
	return nil
}

// validateCompatible checks that both PSTs describe the same unsigned
// transaction and have one map per input and output.
func (c *Combiner) validateCompatible(a, b *pst.PST) error {
	aTx, err := a.UnsignedTx()
	if err != nil {
		return err
	}
	bTx, err := b.UnsignedTx()
	if err != nil {
		return err
	}
	if !bytes.Equal(aTx.BytesNoWitness(), bTx.BytesNoWitness()) {
		return fmt.Errorf("%w: %s != %s", ErrIncompatible, aTx.TxID(), bTx.TxID())
	}
	if len(a.Inputs) != len(b.Inputs) || len(a.Outputs) != len(b.Outputs) {
		return fmt.Errorf("%w: map counts differ", ErrIncompatible)
	}
	return nil
}

// mergeMap copies entries of src missing from dst. onConflict is consulted
// when both hold a key with different values.
func mergeMap(dst, src *pst.Map, onConflict func(pst.Key) error) error {
	for _, e := range src.Entries() {
		existing, ok := dst.Get(e.Key)
		if !ok {
			if err := dst.Set(e.Key, e.Value); err != nil {
				return err
			}
			continue
		}
		if !bytes.Equal(existing, e.Value) && onConflict != nil {
			if err := onConflict(e.Key); err != nil {
				return err
			}
		}
	}
	return nil
}
