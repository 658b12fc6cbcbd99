package tx

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullOutpoint(t *testing.T) {
	var buf bytes.Buffer
	n, err := NullOutpoint().WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(OutpointSize), n)
	assert.Equal(t, strings.Repeat("00", 32)+"ffffffff", hex.EncodeToString(buf.Bytes()))

	var decoded Outpoint
	_, err = decoded.ReadFrom(&buf)
	require.NoError(t, err)
	assert.True(t, decoded.IsNull())
}

func TestDigestHex(t *testing.T) {
	var zero TXID
	assert.Equal(t, strings.Repeat("00", 32), zero.String())

	parsed, err := NewTXIDFromHex(strings.Repeat("00", 32))
	require.NoError(t, err)
	assert.Equal(t, zero, parsed)

	// Display order is the reverse of wire order.
	display := "0100000000000000000000000000000000000000000000000000000000000002"
	id, err := NewTXIDFromHex(display)
	require.NoError(t, err)
	assert.Equal(t, byte(0x02), id[0])
	assert.Equal(t, byte(0x01), id[31])
	assert.Equal(t, display, id.String())

	text, err := id.MarshalText()
	require.NoError(t, err)
	var back WTXID
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, [HashSize]byte(id), [HashSize]byte(back))

	_, err = NewBlockHashFromHex("abcd")
	assert.Error(t, err)
	_, err = NewTXIDFromHex(strings.Repeat("zz", 32))
	assert.Error(t, err)
}

func TestGenesisCoinbase(t *testing.T) {
	genesis := chaincfg.MainNetParams.GenesisBlock.Transactions[0]

	var raw bytes.Buffer
	require.NoError(t, genesis.Serialize(&raw))

	decoded, err := Deserialize(raw.Bytes())
	require.NoError(t, err)

	assert.Equal(t, KindLegacy, decoded.Kind())
	assert.True(t, decoded.Input(0).PreviousOutpoint.IsNull())
	assert.Equal(t, "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b",
		decoded.TxID().String())
	assert.Equal(t, decoded.TxID().String(), decoded.WTxID().String())
	assert.Equal(t, raw.Bytes(), decoded.Bytes())
	assert.Equal(t, raw.Len(), decoded.SerializedLength())
}

func sampleWitnessTx(t *testing.T) *Tx {
	t.Helper()

	prev, err := NewTXIDFromHex("9b1a2d38b2ac7c9f2e4a8e4c1b0c77a5e8c3e9a1f41f2c33d5a4e1d6f0b3c2a1")
	require.NoError(t, err)

	built, err := NewBuilder().
		Version(2).
		Spend(Outpoint{TxID: prev, Index: 1}, 0xfffffffd).
		AddInput(TxIn{
			PreviousOutpoint: Outpoint{TxID: prev, Index: 7},
			ScriptSig:        Script{0x16, 0x00, 0x14, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20},
			Sequence:         MaxSequence,
		}).
		PayTo(PayToWitnessPubKeyHash([20]byte{0xaa}), 50_000).
		PayTo(PayToScriptHash([20]byte{0xbb}), 1_000_000_000).
		AddWitness(Witness{bytes.Repeat([]byte{0x30}, 71), bytes.Repeat([]byte{0x02}, 33)}).
		AddWitness(Witness{{}, bytes.Repeat([]byte{0x03}, 33)}).
		LockTime(840_000).
		Build()
	require.NoError(t, err)
	return built
}

func TestWitnessTxMatchesWire(t *testing.T) {
	built := sampleWitnessTx(t)
	assert.Equal(t, KindWitness, built.Kind())

	raw := built.Bytes()
	assert.Len(t, raw, built.SerializedLength())

	msg := wire.NewMsgTx(0)
	require.NoError(t, msg.Deserialize(bytes.NewReader(raw)))

	assert.Equal(t, msg.TxHash().String(), built.TxID().String())
	assert.Equal(t, msg.WitnessHash().String(), built.WTxID().String())
	assert.NotEqual(t, built.TxID().String(), built.WTxID().String())

	var stripped bytes.Buffer
	require.NoError(t, msg.SerializeNoWitness(&stripped))
	assert.Equal(t, stripped.Bytes(), built.BytesNoWitness())
	assert.Equal(t, chainhash.DoubleHashH(stripped.Bytes()), chainhash.Hash(built.TxID()))

	decoded, err := Deserialize(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded.Bytes())
	assert.Equal(t, KindWitness, decoded.Kind())
	assert.Equal(t, uint32(840_000), decoded.LockTime())
	assert.Len(t, decoded.Witness(0), 2)
}

func TestDeserializeErrors(t *testing.T) {
	raw := sampleWitnessTx(t).Bytes()

	_, err := Deserialize(raw[:len(raw)-1])
	assert.Error(t, err)

	_, err = Deserialize(append(append([]byte(nil), raw...), 0x00))
	assert.Error(t, err)

	bad := append([]byte(nil), raw...)
	bad[5] = 0x02
	_, err = Deserialize(bad)
	assert.ErrorIs(t, err, ErrInvalidWitnessFlag)

	_, err = NewTxFromHex("zz")
	assert.Error(t, err)
}

func TestDeserializeNoWitnessZeroInputs(t *testing.T) {
	empty, err := NewBuilder().Version(1).Build()
	require.NoError(t, err)
	raw := empty.Bytes()
	assert.Equal(t, "01000000000000000000", hex.EncodeToString(raw))

	decoded, err := DeserializeNoWitness(raw)
	require.NoError(t, err)
	assert.Equal(t, 0, decoded.NumInputs())
	assert.Equal(t, 0, decoded.NumOutputs())

	// The same bytes read as a witness marker with a bad flag.
	_, err = Deserialize(raw)
	assert.ErrorIs(t, err, ErrInvalidWitnessFlag)
}

func TestBuilderWitnessRules(t *testing.T) {
	prev := Outpoint{Index: 3}

	tests := []struct {
		name    string
		build   func() *Builder
		want    Kind
		wantErr error
	}{
		{
			name: "no witness is legacy",
			build: func() *Builder {
				return NewBuilder().Spend(prev, MaxSequence).Spend(prev, MaxSequence)
			},
			want: KindLegacy,
		},
		{
			name: "witness data selects witness kind",
			build: func() *Builder {
				return NewBuilder().Spend(prev, MaxSequence).AddWitness(Witness{{1}})
			},
			want: KindWitness,
		},
		{
			name: "count mismatch",
			build: func() *Builder {
				return NewBuilder().Spend(prev, MaxSequence).Spend(prev, MaxSequence).AddWitness(Witness{{1}})
			},
			wantErr: ErrWitnessCountMismatch,
		},
		{
			name: "empty witnesses with mismatched count are ignored",
			build: func() *Builder {
				return NewBuilder().Spend(prev, MaxSequence).Spend(prev, MaxSequence).AddWitness(nil)
			},
			want: KindLegacy,
		},
		{
			name: "explicit witness kind without witness data",
			build: func() *Builder {
				return NewBuilder().Spend(prev, MaxSequence).Kind(KindWitness)
			},
			want: KindWitness,
		},
		{
			name: "explicit legacy kind rejects witness data",
			build: func() *Builder {
				return NewBuilder().Spend(prev, MaxSequence).AddWitness(Witness{{1}}).Kind(KindLegacy)
			},
			wantErr: ErrUnexpectedWitness,
		},
		{
			name: "scriptSig for missing input",
			build: func() *Builder {
				return NewBuilder().Spend(prev, MaxSequence).SetScriptSig(1, Script{0x51})
			},
			wantErr: ErrInputIndex,
		},
		{
			name: "scriptSig for negative input",
			build: func() *Builder {
				return NewBuilder().Spend(prev, MaxSequence).SetScriptSig(-1, Script{0x51})
			},
			wantErr: ErrInputIndex,
		},
		{
			name: "witness for negative input",
			build: func() *Builder {
				return NewBuilder().Spend(prev, MaxSequence).SetWitness(-1, Witness{{1}})
			},
			wantErr: ErrInputIndex,
		},
		{
			name: "scriptSig set in range",
			build: func() *Builder {
				return NewBuilder().Spend(prev, MaxSequence).SetScriptSig(0, Script{0x51})
			},
			want: KindLegacy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.build().Build()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Kind())
		})
	}
}

func TestExplicitWitnessKindSurvivesRoundTrip(t *testing.T) {
	built, err := NewBuilder().Spend(Outpoint{Index: 1}, MaxSequence).Kind(KindWitness).Build()
	require.NoError(t, err)
	assert.False(t, built.HasWitness())

	decoded, err := Deserialize(built.Bytes())
	require.NoError(t, err)
	assert.Equal(t, KindWitness, decoded.Kind())
	assert.Equal(t, built.Bytes(), decoded.Bytes())
}

func TestStripAuthorization(t *testing.T) {
	signed := sampleWitnessTx(t)

	unsigned, err := NewBuilderFrom(signed).StripAuthorization().Build()
	require.NoError(t, err)

	assert.Equal(t, KindLegacy, unsigned.Kind())
	assert.Empty(t, unsigned.Input(1).ScriptSig)
	assert.Nil(t, unsigned.Witness(0))
	assert.NotEqual(t, signed.TxID(), unsigned.TxID())

	// Rebuilding must not alias the source transaction.
	assert.NotEmpty(t, signed.Input(1).ScriptSig)
}
