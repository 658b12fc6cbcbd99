package pst

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/btc-pst/pkg/codec"
	"github.com/suffix-labs/btc-pst/pkg/sighash"
	"github.com/suffix-labs/btc-pst/pkg/tx"
)

func testPubKey(b byte) []byte {
	return append([]byte{0x02}, bytes.Repeat([]byte{b}, 32)...)
}

func sampleTx(t *testing.T, inputs, outputs int) *tx.Tx {
	t.Helper()
	b := tx.NewBuilder()
	for i := 0; i < inputs; i++ {
		b.AddInput(tx.TxIn{
			PreviousOutpoint: tx.Outpoint{TxID: tx.TXID{byte(i + 1)}, Index: uint32(i)},
			ScriptSig:        tx.Script{0x51},
			Sequence:         tx.MaxSequence,
		})
	}
	for i := 0; i < outputs; i++ {
		b.PayTo(tx.PayToWitnessPubKeyHash([20]byte{byte(i)}), uint64(1000*(i+1)))
	}
	built, err := b.Build()
	require.NoError(t, err)
	return built
}

// checkRoundTrip serializes p, parses it back and requires identical bytes.
func checkRoundTrip(t *testing.T, p *PST) *PST {
	t.Helper()

	raw, err := p.Serialize()
	require.NoError(t, err)
	assert.Len(t, raw, p.SerializedLength())

	parsed, err := Parse(raw)
	require.NoError(t, err)

	again, err := parsed.Serialize()
	require.NoError(t, err)
	assert.Equal(t, raw, again)
	return parsed
}

func TestNewStripsAuthorization(t *testing.T) {
	p, err := New(sampleTx(t, 2, 1))
	require.NoError(t, err)

	unsigned, err := p.UnsignedTx()
	require.NoError(t, err)
	assert.Empty(t, unsigned.Input(0).ScriptSig)
	assert.Len(t, p.Inputs, 2)
	assert.Len(t, p.Outputs, 1)

	version, err := p.Global.Version()
	require.NoError(t, err)
	assert.Equal(t, Version, version)

	require.NoError(t, p.ConsistencyChecks())
	checkRoundTrip(t, p)
}

func TestRoundTripAllKeyTypes(t *testing.T) {
	p, err := New(sampleTx(t, 1, 1))
	require.NoError(t, err)

	prev := sampleTx(t, 1, 2)
	origin := KeyOrigin{Fingerprint: [4]byte{0xde, 0xad, 0xbe, 0xef}, Path: []uint32{0x80000054, 0x80000000, 0x80000000, 0, 7}}

	require.NoError(t, p.Global.AddXpub(Xpub{ExtendedKey: [78]byte{0x04, 0x88, 0xb2, 0x1e}, KeyOrigin: origin}))
	require.NoError(t, p.Global.Set(NewKey(Proprietary, []byte("acme")), Value("anything")))

	in := &p.Inputs[0]
	require.NoError(t, in.SetNonWitnessUTXO(prev))
	require.NoError(t, in.SetWitnessUTXO(prev.Output(1)))
	require.NoError(t, in.AddPartialSig(testPubKey(1), []byte{0x30, 0x01, 0x01}))
	require.NoError(t, in.SetSighashType(sighash.All|sighash.AnyoneCanPay))
	require.NoError(t, in.SetRedeemScript([]byte{0x00, 0x20}))
	require.NoError(t, in.SetWitnessScript([]byte{0x51}))
	require.NoError(t, in.AddBip32Derivation(Bip32Derivation{PubKey: testPubKey(1), KeyOrigin: origin}))
	for _, kt := range []byte{InRipemd160, InSha256, InHash160, InHash256} {
		require.NoError(t, in.AddPreimage(kt, []byte("secret")))
	}
	require.NoError(t, in.Set(Key{0x42, 0x01}, Value{0x99}))

	out := &p.Outputs[0]
	require.NoError(t, out.SetRedeemScript([]byte{0x52}))
	require.NoError(t, out.SetWitnessScript([]byte{0x53}))
	require.NoError(t, out.AddBip32Derivation(Bip32Derivation{PubKey: testPubKey(2), KeyOrigin: origin}))

	parsed := checkRoundTrip(t, p)
	require.NoError(t, parsed.ConsistencyChecks())

	xpubs, err := parsed.Global.Xpubs()
	require.NoError(t, err)
	require.Len(t, xpubs, 1)
	assert.Equal(t, origin, xpubs[0].KeyOrigin)

	pin := &parsed.Inputs[0]
	nonWitness, err := pin.NonWitnessUTXO()
	require.NoError(t, err)
	assert.Equal(t, prev.TxID(), nonWitness.TxID())

	utxo, err := pin.WitnessUTXO()
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), utxo.Value)

	flag, err := pin.SighashType()
	require.NoError(t, err)
	assert.Equal(t, sighash.All|sighash.AnyoneCanPay, flag)

	derivs, err := pin.Bip32Derivations()
	require.NoError(t, err)
	require.Len(t, derivs, 1)
	assert.Equal(t, testPubKey(1), derivs[0].PubKey)
	assert.Equal(t, origin.Path, derivs[0].Path)

	sigs := pin.PartialSigs()
	require.Len(t, sigs, 1)
	assert.Equal(t, []byte{0x30, 0x01, 0x01}, sigs[0].Signature)

	outDerivs, err := parsed.Outputs[0].Bip32Derivations()
	require.NoError(t, err)
	assert.Len(t, outDerivs, 1)

	v, ok := pin.Get(Key{0x42, 0x01})
	require.True(t, ok)
	assert.Equal(t, Value{0x99}, v)
}

func TestParseRejectsDuplicateKey(t *testing.T) {
	unsigned := sampleTx(t, 0, 0)

	var buf bytes.Buffer
	cw := codec.NewWriter(&buf)
	cw.Raw(magic)
	for i := 0; i < 2; i++ {
		cw.Bytes([]byte{GlobalUnsignedTx})
		cw.Bytes(unsigned.BytesNoWitness())
	}
	cw.VarInt(0)
	_, err := cw.Result()
	require.NoError(t, err)

	_, err = Parse(buf.Bytes())
	assert.ErrorIs(t, err, ErrDuplicateKey)

	var mapErr *MapError
	require.ErrorAs(t, err, &mapErr)
	assert.Equal(t, ScopeGlobal, mapErr.Scope)
}

func TestParseErrors(t *testing.T) {
	p, err := New(sampleTx(t, 1, 1))
	require.NoError(t, err)
	raw, err := p.Serialize()
	require.NoError(t, err)

	_, err = Parse([]byte("psbt"))
	assert.ErrorIs(t, err, ErrBadMagic)

	_, err = Parse(append([]byte("pst!"), raw[4:]...))
	assert.ErrorIs(t, err, ErrBadMagic)

	_, err = Parse(raw[:len(raw)-1])
	var mapErr *MapError
	require.ErrorAs(t, err, &mapErr)
	assert.Equal(t, ScopeOutput, mapErr.Scope)

	_, err = Parse(append(append([]byte(nil), raw...), 0x00))
	assert.Error(t, err)

	// A global map without the unsigned transaction cannot size the rest.
	_, err = Parse(append(append([]byte(nil), magic...), 0x00))
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestTextForms(t *testing.T) {
	p, err := New(sampleTx(t, 1, 2))
	require.NoError(t, err)
	raw, err := p.Serialize()
	require.NoError(t, err)

	h, err := p.Hex()
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(raw), h)
	assert.Equal(t, "70736274ff", h[:10])

	b64, err := p.Base64()
	require.NoError(t, err)
	assert.Equal(t, "cHNidP8", b64[:7])

	for name, text := range map[string][]byte{"binary": raw, "hex": []byte(h + "\n"), "base64": []byte(b64)} {
		parsed, err := ParseText(text)
		require.NoError(t, err, name)
		again, err := parsed.Serialize()
		require.NoError(t, err)
		assert.Equal(t, raw, again, name)
	}
}

func TestConsistencyChecks(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *PST)
		wantErr error
	}{
		{"valid", func(p *PST) {}, nil},
		{"extra input map", func(p *PST) { p.Inputs = append(p.Inputs, Input{}) }, ErrMapCount},
		{"missing output map", func(p *PST) { p.Outputs = p.Outputs[:0] }, ErrMapCount},
		{"missing version", func(p *PST) { p.Global.Delete(Key{GlobalVersion}) }, ErrMissingKey},
		{"missing unsigned tx", func(p *PST) { p.Global.Delete(Key{GlobalUnsignedTx}) }, ErrMissingKey},
		{
			"bad derivation value",
			func(p *PST) { _ = p.Inputs[0].Set(NewKey(InBip32Derivation, testPubKey(3)), Value{1, 2, 3}) },
			ErrValueLength,
		},
		{
			"bad derivation key",
			func(p *PST) { _ = p.Outputs[0].Set(NewKey(OutBip32Derivation, []byte{0x02, 0x01}), Value{1, 2, 3, 4}) },
			ErrKeyLength,
		},
		{
			"bad xpub key",
			func(p *PST) { _ = p.Global.Set(NewKey(GlobalXpub, make([]byte, 77)), Value{1, 2, 3, 4}) },
			ErrKeyLength,
		},
		{
			"bad witness utxo",
			func(p *PST) { _ = p.Inputs[0].Set(Key{InWitnessUTXO}, Value{1, 2}) },
			ErrInvalidValue,
		},
		{
			"bad preimage",
			func(p *PST) { _ = p.Inputs[0].Set(NewKey(InSha256, make([]byte, 32)), Value("x")) },
			ErrInvalidValue,
		},
		{
			"proprietary is exempt",
			func(p *PST) { _ = p.Inputs[0].Set(Key{Proprietary}, nil) },
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(sampleTx(t, 1, 1))
			require.NoError(t, err)
			tt.mutate(p)

			err = p.ConsistencyChecks()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSchemaValidatorsCompose(t *testing.T) {
	errCustom := errors.New("custom rule")
	calls := 0
	schemas := DefaultSchemas()
	schemas.Input = schemas.Input.Clone().Register(InRedeemScript, func(_ Key, v Value) error {
		calls++
		if len(v) > 2 {
			return errCustom
		}
		return nil
	})

	p, err := New(sampleTx(t, 1, 1))
	require.NoError(t, err)
	require.NoError(t, p.Inputs[0].SetRedeemScript([]byte{1, 2}))
	require.NoError(t, p.ConsistencyChecksWith(schemas))

	require.NoError(t, p.Inputs[0].SetRedeemScript([]byte{1, 2, 3}))
	err = p.ConsistencyChecksWith(schemas)
	assert.ErrorIs(t, err, errCustom)
	assert.Equal(t, 2, calls)

	// The standard schema is unaffected by the clone.
	assert.NoError(t, p.ConsistencyChecks())

	var keyErr *KeyError
	require.ErrorAs(t, err, &keyErr)
	assert.Equal(t, InRedeemScript, keyErr.KeyType)
}

func TestMapOrderingAndMutation(t *testing.T) {
	var m Map
	require.NoError(t, m.Set(Key{0x06, 0x02}, Value{2}))
	require.NoError(t, m.Set(Key{0x02}, Value{1}))
	require.NoError(t, m.Set(Key{0x06, 0x01}, Value{3}))
	assert.ErrorIs(t, m.Set(nil, Value{1}), ErrEmptyKey)
	assert.ErrorIs(t, m.Insert(Key{0x02}, Value{9}), ErrDuplicateKey)

	var keys []string
	for _, e := range m.Entries() {
		keys = append(keys, hex.EncodeToString(e.Key))
	}
	assert.Equal(t, []string{"02", "0601", "0602"}, keys)
	assert.Len(t, m.EntriesOfType(0x06), 2)

	require.NoError(t, m.Set(Key{0x02}, Value{7}))
	v, ok := m.Get(Key{0x02})
	require.True(t, ok)
	assert.Equal(t, Value{7}, v)

	clone := m.Clone()
	m.DeleteType(0x06)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 3, clone.Len())
	assert.True(t, m.Delete(Key{0x02}))
	assert.False(t, m.Delete(Key{0x02}))
}

func TestInputFinalization(t *testing.T) {
	var in Input
	require.NoError(t, in.AddPartialSig(testPubKey(1), []byte{0x30, 0x01}))
	require.NoError(t, in.SetRedeemScript([]byte{0x51}))
	require.NoError(t, in.SetWitnessUTXO(tx.TxOut{Value: 5, PkScript: tx.Script{0x51}}))
	require.NoError(t, in.Set(Key{Proprietary, 0x01}, Value{1}))
	assert.False(t, in.IsFinalized())

	require.NoError(t, in.SetFinalScriptWitness(tx.Witness{{1}, {2, 3}}))
	in.ClearForFinal()

	assert.True(t, in.IsFinalized())
	assert.False(t, in.HasType(InPartialSig))
	assert.False(t, in.HasType(InRedeemScript))
	assert.True(t, in.HasType(InWitnessUTXO))
	assert.True(t, in.HasType(Proprietary))

	w, err := in.FinalScriptWitness()
	require.NoError(t, err)
	assert.Equal(t, tx.Witness{{1}, {2, 3}}, w)
}

func TestSpentOutput(t *testing.T) {
	prev := sampleTx(t, 1, 2)
	var in Input
	require.NoError(t, in.SetNonWitnessUTXO(prev))

	out, err := in.SpentOutput(tx.Outpoint{TxID: prev.TxID(), Index: 1})
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), out.Value)

	_, err = in.SpentOutput(tx.Outpoint{TxID: prev.TxID(), Index: 2})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = in.SpentOutput(tx.Outpoint{Index: 0})
	assert.ErrorIs(t, err, ErrInvalidValue)

	var empty Input
	_, err = empty.SpentOutput(tx.Outpoint{})
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestKeyOrigin(t *testing.T) {
	o := KeyOrigin{Fingerprint: [4]byte{1, 2, 3, 4}, Path: []uint32{0x8000002c, 1}}
	decoded, err := DecodeKeyOrigin(o.Encode())
	require.NoError(t, err)
	assert.Equal(t, o, decoded)

	_, err = DecodeKeyOrigin(nil)
	assert.ErrorIs(t, err, ErrValueLength)
	_, err = DecodeKeyOrigin(Value{1, 2, 3, 4, 5})
	assert.ErrorIs(t, err, ErrValueLength)

	fingerprintOnly, err := DecodeKeyOrigin(Value{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Empty(t, fingerprintOnly.Path)
}
