package roles

import (
	"go.uber.org/zap"

	"github.com/suffix-labs/btc-pst/pkg/pst"
	"github.com/suffix-labs/btc-pst/pkg/tx"
)

// TxExtractor extracts the final transaction from a finalized PST.
//
// The Transaction Extractor role:
//   - Verifies every input is finalized
//   - Copies each input's final scriptSig and witness onto the unsigned
//     transaction
//   - Produces a witness transaction if any witness is non-empty, a legacy
//     one otherwise
//
// This is the final role in the PST workflow. After extraction, you have a
// complete, signed transaction ready for broadcast.
type TxExtractor struct {
	logger *zap.Logger
}

// NewTxExtractor creates a new Transaction Extractor.
func NewTxExtractor(opts ...Option) *TxExtractor {
	o := newOptions(opts)
	return &TxExtractor{logger: o.logger}
}

// Extract implements Extractor.
//
// Returns an *UnfinalizedInputError naming the first input without final
// authorization data.
func (e *TxExtractor) Extract(p *pst.PST) (*tx.Tx, error) {
	unsigned, err := p.UnsignedTx()
	if err != nil {
		return nil, err
	}

	b := tx.NewBuilder().
		Version(unsigned.Version()).
		LockTime(unsigned.LockTime())
	for idx := range p.Inputs {
		in := &p.Inputs[idx]
		if !in.IsFinalized() {
			return nil, &UnfinalizedInputError{Index: idx}
		}

		txIn := unsigned.Input(idx)
		if in.Has(pst.Key{pst.InFinalScriptSig}) {
			if txIn.ScriptSig, err = in.FinalScriptSig(); err != nil {
				return nil, &InputError{Index: idx, Err: err}
			}
		}
		var witness tx.Witness
		if in.Has(pst.Key{pst.InFinalScriptWitness}) {
			if witness, err = in.FinalScriptWitness(); err != nil {
				return nil, &InputError{Index: idx, Err: err}
			}
		}
		b.AddInput(txIn).AddWitness(witness)
	}
	for _, out := range unsigned.Outputs() {
		b.AddOutput(out)
	}

	final, err := b.Build()
	if err != nil {
		return nil, err
	}
	e.logger.Debug("extracted transaction",
		zap.Stringer("txid", final.TxID()),
		zap.Stringer("kind", final.Kind()),
		zap.Int("size", final.SerializedLength()),
	)
	return final, nil
}
