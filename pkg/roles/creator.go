// Package roles implements the PST role pattern.
//
// PST roles separate transaction signing into distinct responsibilities:
//   - Creator: Wraps an unsigned transaction in an empty PST
//   - Updater: Attaches UTXOs, scripts and derivation paths
//   - Signer: Adds partial signatures for the keys it controls
//   - Combiner: Merges PSTs produced in parallel
//   - Finalizer: Turns partial signatures into final scriptSigs and witnesses
//   - Extractor: Produces the network-ready transaction
//
// Each role can be executed by different parties or at different times.
// Roles mutate the PST they are given; callers that share a PST between
// goroutines must serialize access themselves.
package roles

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/suffix-labs/btc-pst/pkg/pst"
	"github.com/suffix-labs/btc-pst/pkg/tx"
)

// Creator initializes a PST for an unsigned transaction.
//
// The Creator fixes the transaction all parties sign. It may also record
// the extended public keys the participating wallets derive from, so that
// signers can recognise their own keys.
type Creator struct {
	unsigned *tx.Tx
	xpubs    []pst.Xpub
	logger   *zap.Logger
}

// NewCreator creates a new Creator for t. Any scriptSigs or witnesses in t
// are dropped.
func NewCreator(t *tx.Tx, opts ...Option) *Creator {
	o := newOptions(opts)
	return &Creator{unsigned: t, logger: o.logger}
}

// WithXpub records an extended public key and its origin in the global map.
func (c *Creator) WithXpub(x pst.Xpub) *Creator {
	c.xpubs = append(c.xpubs, x)
	return c
}

// Create creates the PST.
//
// Returns a PST with:
//   - The unsigned transaction and version in the global map
//   - Any xpubs passed to WithXpub
//   - One empty map per input and per output
func (c *Creator) Create() (*pst.PST, error) {
	p, err := pst.New(c.unsigned)
	if err != nil {
		return nil, err
	}
	for _, x := range c.xpubs {
		if err := p.Global.AddXpub(x); err != nil {
			return nil, fmt.Errorf("add xpub: %w", err)
		}
	}
	c.logger.Debug("created pst",
		zap.Stringer("txid", c.unsigned.TxID()),
		zap.Int("inputs", len(p.Inputs)),
		zap.Int("outputs", len(p.Outputs)),
		zap.Int("xpubs", len(c.xpubs)),
	)
	return p, nil
}
