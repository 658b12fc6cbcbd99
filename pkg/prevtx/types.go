// Package prevtx looks up the transactions whose outputs a PST spends, so
// that updaters can attach UTXO information to its inputs.
package prevtx

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/suffix-labs/btc-pst/pkg/tx"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

var (
	// ErrNotFound is returned when a source does not know a transaction.
	ErrNotFound = errors.New("transaction not found")

	// ErrTxIDMismatch is returned when a source hands back a transaction
	// other than the one requested.
	ErrTxIDMismatch = errors.New("transaction id mismatch")
)

type (
	// Source returns the transaction with the given id.
	Source interface {
		PrevTx(ctx context.Context, txid tx.TXID) (*tx.Tx, error)
	}

	// RawTransactionGetter is the part of a node RPC client used by
	// RPCSource. *rpcclient.Client satisfies it.
	RawTransactionGetter interface {
		GetRawTransaction(txHash *chainhash.Hash) (*btcutil.Tx, error)
	}

	// Store is a Source that can also record transactions.
	Store interface {
		Source
		Put(ctx context.Context, t *tx.Tx) error
	}
)

func checkID(t *tx.Tx, want tx.TXID) error {
	if got := t.TxID(); got != want {
		return fmt.Errorf("%w: requested %s, got %s", ErrTxIDMismatch, want, got)
	}
	return nil
}
