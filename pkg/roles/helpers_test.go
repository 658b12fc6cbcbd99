package roles

import (
	"bytes"
	"context"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/btc-pst/pkg/crypto"
	"github.com/suffix-labs/btc-pst/pkg/pst"
	"github.com/suffix-labs/btc-pst/pkg/prevtx"
	"github.com/suffix-labs/btc-pst/pkg/tx"
)

func newHD(t *testing.T, seedByte byte) *crypto.HDKeyProvider {
	t.Helper()
	hd, err := crypto.NewHDKeyProviderFromSeed(bytes.Repeat([]byte{seedByte}, 32), &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	return hd
}

func pubAt(t *testing.T, keys crypto.KeyProvider, path ...uint32) []byte {
	t.Helper()
	pub, err := keys.PublicKey(context.Background(), path)
	require.NoError(t, err)
	return pub
}

func multisig(t *testing.T, required int, pubKeys ...[]byte) tx.Script {
	t.Helper()
	b := txscript.NewScriptBuilder().AddInt64(int64(required))
	for _, pub := range pubKeys {
		b.AddData(pub)
	}
	script, err := b.AddInt64(int64(len(pubKeys))).AddOp(txscript.OP_CHECKMULTISIG).Script()
	require.NoError(t, err)
	return script
}

func checkSigScript(t *testing.T, pub []byte) tx.Script {
	t.Helper()
	script, err := txscript.NewScriptBuilder().AddData(pub).AddOp(txscript.OP_CHECKSIG).Script()
	require.NoError(t, err)
	return script
}

// fundingTx creates a transaction with outs, spending a made-up coin.
func fundingTx(t *testing.T, outs ...tx.TxOut) *tx.Tx {
	t.Helper()
	b := tx.NewBuilder().Spend(tx.Outpoint{TxID: tx.TXID{0xfe}, Index: 7}, tx.MaxSequence)
	for _, out := range outs {
		b.AddOutput(out)
	}
	built, err := b.Build()
	require.NoError(t, err)
	return built
}

// spendingPST creates a PST spending the given outputs of funding.
func spendingPST(t *testing.T, funding *tx.Tx, vouts ...uint32) *pst.PST {
	t.Helper()
	b := tx.NewBuilder()
	var total uint64
	for _, vout := range vouts {
		b.Spend(tx.Outpoint{TxID: funding.TxID(), Index: vout}, tx.MaxSequence-1)
		total += funding.Output(int(vout)).Value
	}
	b.PayTo(tx.PayToWitnessPubKeyHash([20]byte{0x42}), total-1_000)
	unsigned, err := b.Build()
	require.NoError(t, err)

	p, err := NewCreator(unsigned).Create()
	require.NoError(t, err)
	return p
}

// mapSource serves transactions from memory.
type mapSource map[tx.TXID]*tx.Tx

func newMapSource(txs ...*tx.Tx) mapSource {
	m := make(mapSource)
	for _, t := range txs {
		m[t.TxID()] = t
	}
	return m
}

func (m mapSource) PrevTx(_ context.Context, txid tx.TXID) (*tx.Tx, error) {
	if t, ok := m[txid]; ok {
		return t, nil
	}
	return nil, prevtx.ErrNotFound
}

// verifyScripts runs every input of final through the btcd script engine.
func verifyScripts(t *testing.T, final *tx.Tx, prevouts []tx.TxOut) {
	t.Helper()
	require.Len(t, prevouts, final.NumInputs())

	msg := wire.NewMsgTx(wire.TxVersion)
	require.NoError(t, msg.Deserialize(bytes.NewReader(final.Bytes())))

	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	for i, in := range msg.TxIn {
		fetcher.AddPrevOut(in.PreviousOutPoint, wire.NewTxOut(int64(prevouts[i].Value), prevouts[i].PkScript))
	}
	hashes := txscript.NewTxSigHashes(msg, fetcher)
	for i := range msg.TxIn {
		vm, err := txscript.NewEngine(prevouts[i].PkScript, msg, i, txscript.StandardVerifyFlags,
			nil, hashes, int64(prevouts[i].Value), fetcher)
		require.NoError(t, err, "input %d", i)
		require.NoError(t, vm.Execute(), "input %d", i)
	}
}
