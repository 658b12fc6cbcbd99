// Package api provides the high-level byte-oriented API for PST operations.
//
// This is the main entry point for applications using the btc-pst library.
// Every function takes and returns serialized PSTs so that each step can
// run in a different process or on a different machine:
//
//  1. ProposeTransaction - Creates a PST from inputs and outputs
//  2. UpdateTransaction - Runs updaters (UTXO lookup, key paths)
//  3. VerifyBeforeSigning - Validates a PST before signing
//  4. GetSighash - Computes the digest an input is signed over
//  5. AppendSignature / Sign - Adds signatures to inputs
//  6. Combine - Merges PSTs carrying partial signatures
//  7. FinalizeAndExtract - Finalizes and extracts the final transaction
//  8. ParsePST / SerializePST - Binary and text encodings
package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/suffix-labs/btc-pst/pkg/bip21"
	"github.com/suffix-labs/btc-pst/pkg/crypto"
	"github.com/suffix-labs/btc-pst/pkg/network"
	"github.com/suffix-labs/btc-pst/pkg/pst"
	"github.com/suffix-labs/btc-pst/pkg/roles"
	"github.com/suffix-labs/btc-pst/pkg/sighash"
	"github.com/suffix-labs/btc-pst/pkg/tx"
)

var (
	// ErrNoInputs is returned for proposals or PSTs without inputs.
	ErrNoInputs = errors.New("transaction has no inputs")

	// ErrNoOutputs is returned for proposals without outputs.
	ErrNoOutputs = errors.New("transaction has no outputs")

	// ErrInsufficientFunds is returned when outputs spend more than the
	// inputs provide.
	ErrInsufficientFunds = errors.New("outputs exceed inputs")

	// ErrValueOutOfRange is returned for amounts above the 21 million
	// bitcoin supply.
	ErrValueOutOfRange = errors.New("amount out of range")
)

// Input is a UTXO to spend.
type Input struct {
	Outpoint      tx.Outpoint
	Sequence      *uint32       // nil = 0xFFFFFFFF
	PrevTx        *tx.Tx        // full previous transaction, optional
	WitnessUTXO   *tx.TxOut     // spent output for witness programs, optional
	RedeemScript  []byte        // P2SH redeem script
	WitnessScript []byte        // P2WSH witness script
	SighashType   *sighash.Flag // nil = ALL
}

// Output pays Value to either Address or ScriptPubKey.
type Output struct {
	Address      string
	ScriptPubKey []byte
	Value        uint64
}

// TransactionProposal contains all inputs and outputs for a transaction.
type TransactionProposal struct {
	Inputs  []Input
	Outputs []Output

	// PaymentRequest is a BIP 21 URI whose payments are appended to
	// Outputs. Every payment needs an amount.
	PaymentRequest string

	Network  string // address network, defaults to mainnet
	Version  *uint32
	LockTime uint32
	Xpubs    []pst.Xpub
}

// ============================================================================
// API Function 1: ProposeTransaction
// ============================================================================

// ProposeTransaction creates a PST from a transaction proposal.
//
// This function:
//  1. Builds the unsigned transaction, resolving addresses for the network
//  2. Creates the PST using the Creator role
//  3. Records the UTXO data and scripts given for each input
func ProposeTransaction(proposal *TransactionProposal) ([]byte, error) {
	if len(proposal.Inputs) == 0 {
		return nil, ErrNoInputs
	}
	networkName := proposal.Network
	if networkName == "" {
		networkName = "mainnet"
	}
	codec, err := network.NewAddressCodec(networkName)
	if err != nil {
		return nil, err
	}

	b := tx.NewBuilder().LockTime(proposal.LockTime)
	if proposal.Version != nil {
		b.Version(*proposal.Version)
	}
	for _, in := range proposal.Inputs {
		sequence := tx.MaxSequence
		if in.Sequence != nil {
			sequence = *in.Sequence
		}
		b.Spend(in.Outpoint, sequence)
	}

	outputs := 0
	for i, out := range proposal.Outputs {
		switch {
		case out.Address != "":
			if err := codec.PayTo(b, out.Address, out.Value); err != nil {
				return nil, fmt.Errorf("output %d: %w", i, err)
			}
		case len(out.ScriptPubKey) > 0:
			b.PayTo(out.ScriptPubKey, out.Value)
		default:
			return nil, fmt.Errorf("output %d: no address or script", i)
		}
		outputs++
	}
	if proposal.PaymentRequest != "" {
		req, err := bip21.Parse(proposal.PaymentRequest)
		if err != nil {
			return nil, fmt.Errorf("invalid payment request: %w", err)
		}
		outs, err := req.Outputs(codec)
		if err != nil {
			return nil, fmt.Errorf("invalid payment request: %w", err)
		}
		for _, out := range outs {
			b.AddOutput(out)
			outputs++
		}
	}
	if outputs == 0 {
		return nil, ErrNoOutputs
	}

	unsigned, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}

	creator := roles.NewCreator(unsigned)
	for _, x := range proposal.Xpubs {
		creator.WithXpub(x)
	}
	p, err := creator.Create()
	if err != nil {
		return nil, err
	}

	for i, in := range proposal.Inputs {
		if err := recordInput(&p.Inputs[i], in); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
	}
	return p.Serialize()
}

func recordInput(dst *pst.Input, in Input) error {
	if in.PrevTx != nil {
		if in.PrevTx.TxID() != in.Outpoint.TxID {
			return fmt.Errorf("%w: previous transaction is %s", roles.ErrPrevoutMismatch, in.PrevTx.TxID())
		}
		if err := dst.SetNonWitnessUTXO(in.PrevTx); err != nil {
			return err
		}
	}
	if in.WitnessUTXO != nil {
		if err := dst.SetWitnessUTXO(*in.WitnessUTXO); err != nil {
			return err
		}
	}
	if in.RedeemScript != nil {
		if err := dst.SetRedeemScript(in.RedeemScript); err != nil {
			return err
		}
	}
	if in.WitnessScript != nil {
		if err := dst.SetWitnessScript(in.WitnessScript); err != nil {
			return err
		}
	}
	if in.SighashType != nil {
		if err := dst.SetSighashType(*in.SighashType); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================================
// API Function 2: UpdateTransaction
// ============================================================================

// UpdateTransaction runs updaters over a PST in order, for example a
// roles.SourceUpdater backed by a node and a roles.KeyUpdater per wallet.
func UpdateTransaction(ctx context.Context, pstBytes []byte, updaters ...roles.Updater) ([]byte, error) {
	p, err := pst.Parse(pstBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid PST: %w", err)
	}
	if err := roles.Chain(updaters...).Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update failed: %w", err)
	}
	return p.Serialize()
}

// ============================================================================
// API Function 3: VerifyBeforeSigning
// ============================================================================

// VerifyBeforeSigning validates a PST before signing.
//
// This function checks:
//   - The PST passes its consistency checks
//   - Every unfinalized input has a usable UTXO and the scripts it needs
//   - Outputs do not spend more than the inputs provide
//
// Wallets should call this before presenting the transaction to the
// user for signing.
func VerifyBeforeSigning(pstBytes []byte) error {
	p, err := pst.Parse(pstBytes)
	if err != nil {
		return fmt.Errorf("invalid PST: %w", err)
	}
	if err := p.ConsistencyChecks(); err != nil {
		return err
	}
	if len(p.Inputs) == 0 {
		return ErrNoInputs
	}
	for idx := range p.Inputs {
		if p.Inputs[idx].IsFinalized() {
			continue
		}
		if _, _, err := roles.InputSighash(p, idx); err != nil {
			return &roles.InputError{Index: idx, Err: err}
		}
	}
	_, err = Fee(p)
	return err
}

// Fee returns the difference between input and output values. Every
// amount must be at most btcutil.MaxSatoshi, so the sums cannot overflow.
func Fee(p *pst.PST) (uint64, error) {
	unsigned, err := p.UnsignedTx()
	if err != nil {
		return 0, err
	}
	var in, out uint64
	for idx := range p.Inputs {
		spent, err := p.Inputs[idx].SpentOutput(unsigned.Input(idx).PreviousOutpoint)
		if err != nil {
			return 0, &roles.InputError{Index: idx, Err: err}
		}
		if spent.Value > btcutil.MaxSatoshi {
			return 0, &roles.InputError{Index: idx, Err: fmt.Errorf("%w: spends %d sat", ErrValueOutOfRange, spent.Value)}
		}
		in += spent.Value
	}
	for i, o := range unsigned.Outputs() {
		if o.Value > btcutil.MaxSatoshi {
			return 0, fmt.Errorf("%w: output %d pays %d sat", ErrValueOutOfRange, i, o.Value)
		}
		out += o.Value
	}
	if out > in {
		return 0, fmt.Errorf("%w: %d > %d", ErrInsufficientFunds, out, in)
	}
	return in - out, nil
}

// ============================================================================
// API Function 4: GetSighash
// ============================================================================

// GetSighash computes the digest input inputIndex is signed over, legacy
// or BIP 143 depending on the script it spends, and the flag it uses.
func GetSighash(pstBytes []byte, inputIndex int) ([32]byte, sighash.Flag, error) {
	p, err := pst.Parse(pstBytes)
	if err != nil {
		return [32]byte{}, 0, fmt.Errorf("invalid PST: %w", err)
	}
	digest, flag, err := roles.InputSighash(p, inputIndex)
	if err != nil {
		return [32]byte{}, 0, fmt.Errorf("failed to compute sighash: %w", err)
	}
	return digest, flag, nil
}

// ============================================================================
// API Function 5: AppendSignature / Sign
// ============================================================================

// AppendSignature adds a signature produced outside this library, a DER
// signature followed by the flag byte, to an input. The signature must
// verify against GetSighash.
func AppendSignature(pstBytes []byte, inputIndex int, pubKey, signature []byte) ([]byte, error) {
	p, err := pst.Parse(pstBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid PST: %w", err)
	}
	if err := roles.AddSignature(p, inputIndex, pubKey, signature); err != nil {
		return nil, fmt.Errorf("signing failed: %w", err)
	}
	return p.Serialize()
}

// Sign signs every input keys has a derivation entry for. It returns the
// updated PST and the indexes of the signed inputs.
func Sign(ctx context.Context, pstBytes []byte, keys crypto.KeyProvider, opts ...roles.Option) ([]byte, []int, error) {
	p, err := pst.Parse(pstBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid PST: %w", err)
	}
	signed, err := roles.Sign(ctx, roles.NewKeySigner(keys, opts...), p)
	if err != nil {
		return nil, nil, fmt.Errorf("signing failed: %w", err)
	}
	out, err := p.Serialize()
	if err != nil {
		return nil, nil, err
	}
	return out, signed, nil
}

// ============================================================================
// API Function 6: Combine
// ============================================================================

// Combine merges multiple PSTs for the same transaction.
func Combine(pstBytesList [][]byte) ([]byte, error) {
	if len(pstBytesList) == 0 {
		return nil, fmt.Errorf("no PSTs to combine")
	}
	psts := make([]*pst.PST, len(pstBytesList))
	for i, b := range pstBytesList {
		p, err := pst.Parse(b)
		if err != nil {
			return nil, fmt.Errorf("invalid PST %d: %w", i, err)
		}
		psts[i] = p
	}
	combined, err := roles.NewCombiner().Combine(psts...)
	if err != nil {
		return nil, fmt.Errorf("combination failed: %w", err)
	}
	return combined.Serialize()
}

// ============================================================================
// API Function 7: FinalizeAndExtract
// ============================================================================

// FinalizeAndExtract finalizes every input and returns the network
// serialization of the final transaction, ready to broadcast.
func FinalizeAndExtract(pstBytes []byte) ([]byte, error) {
	p, err := pst.Parse(pstBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid PST: %w", err)
	}
	if err := roles.NewScriptFinalizer().Finalize(p); err != nil {
		return nil, fmt.Errorf("spend finalization failed: %w", err)
	}
	final, err := roles.NewTxExtractor().Extract(p)
	if err != nil {
		return nil, fmt.Errorf("transaction extraction failed: %w", err)
	}
	return final.Bytes(), nil
}

// ============================================================================
// API Functions 8a & 8b: ParsePST / SerializePST
// ============================================================================

// ParsePST decodes a PST given as raw bytes, hex or base64.
func ParsePST(data []byte) (*pst.PST, error) {
	return pst.ParseText(data)
}

// SerializePST encodes a PST to bytes.
func SerializePST(p *pst.PST) ([]byte, error) {
	return p.Serialize()
}

// ParsePaymentRequest parses a BIP 21 payment request URI.
func ParsePaymentRequest(uri string) (*bip21.PaymentRequest, error) {
	return bip21.Parse(uri)
}
