package prevtx

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"go.uber.org/zap"

	"github.com/suffix-labs/btc-pst/pkg/tx"
)

// RPCSource fetches transactions from a node over JSON-RPC. The node must
// index the transactions asked for (txindex, or mempool/wallet membership).
type RPCSource struct {
	client RawTransactionGetter
	logger *zap.Logger
}

// NewRPCSource wraps client.
func NewRPCSource(client RawTransactionGetter, logger *zap.Logger) *RPCSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RPCSource{client: client, logger: logger}
}

// PrevTx implements Source.
func (s *RPCSource) PrevTx(ctx context.Context, txid tx.TXID) (*tx.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash := chainhash.Hash(txid)
	res, err := s.client.GetRawTransaction(&hash)
	if err != nil {
		var rpcErr *btcjson.RPCError
		if errors.As(err, &rpcErr) && rpcErr.Code == btcjson.ErrRPCNoTxInfo {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, txid)
		}
		return nil, fmt.Errorf("getrawtransaction %s: %w", txid, err)
	}

	var buf bytes.Buffer
	if err := res.MsgTx().Serialize(&buf); err != nil {
		return nil, fmt.Errorf("serialize %s: %w", txid, err)
	}
	t, err := tx.Deserialize(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", txid, err)
	}
	if err := checkID(t, txid); err != nil {
		return nil, err
	}
	s.logger.Debug("fetched transaction", zap.Stringer("txid", txid))
	return t, nil
}

// Cached consults store before source and records what source returns.
type Cached struct {
	store  Store
	source Source
	logger *zap.Logger
}

// NewCached layers store in front of source.
func NewCached(store Store, source Source, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{store: store, source: source, logger: logger}
}

// PrevTx implements Source.
func (c *Cached) PrevTx(ctx context.Context, txid tx.TXID) (*tx.Tx, error) {
	t, err := c.store.PrevTx(ctx, txid)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	t, err = c.source.PrevTx(ctx, txid)
	if err != nil {
		return nil, err
	}
	if err := c.store.Put(ctx, t); err != nil {
		c.logger.Warn("failed to cache transaction", zap.Stringer("txid", txid), zap.Error(err))
	}
	return t, nil
}
