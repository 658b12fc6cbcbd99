// Package network maps between output scripts and the address strings of a
// Bitcoin network.
package network

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"github.com/suffix-labs/btc-pst/pkg/tx"
)

var (
	// ErrUnsupportedNetwork is returned for unknown network names.
	ErrUnsupportedNetwork = errors.New("unsupported network")

	// ErrInvalidAddress is returned for strings that do not decode to an
	// address of the codec's network.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrNoAddress is returned for scripts that have no address form.
	ErrNoAddress = errors.New("script has no address")
)

// Params returns the chain parameters for a network name.
func Params(network string) (*chaincfg.Params, error) {
	switch strings.ToLower(network) {
	case "main", "mainnet", "bitcoin":
		return &chaincfg.MainNetParams, nil
	case "test", "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedNetwork, network)
	}
}

// AddressCodec converts addresses of one network to and from scripts.
type AddressCodec struct {
	params *chaincfg.Params
}

// NewAddressCodec returns a codec for the named network.
func NewAddressCodec(network string) (*AddressCodec, error) {
	params, err := Params(network)
	if err != nil {
		return nil, err
	}
	return &AddressCodec{params: params}, nil
}

// Params returns the codec's chain parameters.
func (c *AddressCodec) Params() *chaincfg.Params {
	return c.params
}

// Decode returns the output script paying to addr.
func (c *AddressCodec) Decode(addr string) (tx.Script, error) {
	a, err := btcutil.DecodeAddress(strings.TrimSpace(addr), c.params)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidAddress, addr, err)
	}
	if !a.IsForNet(c.params) {
		return nil, fmt.Errorf("%w %q: not a %s address", ErrInvalidAddress, addr, c.params.Name)
	}
	script, err := txscript.PayToAddrScript(a)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidAddress, addr, err)
	}
	return script, nil
}

// Encode returns the address script pays to.
func (c *AddressCodec) Encode(script tx.Script) (string, error) {
	class, addrs, _, err := txscript.ExtractPkScriptAddrs(script, c.params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoAddress, err)
	}
	if class == txscript.MultiSigTy || class == txscript.PubKeyTy || len(addrs) != 1 {
		return "", fmt.Errorf("%w: %s", ErrNoAddress, class)
	}
	return addrs[0].EncodeAddress(), nil
}

// AddressForKey returns the address of class paying to pubKey. Only the
// key-hash classes and P2SH-wrapped P2WPKH (ScriptHash) are meaningful.
func (c *AddressCodec) AddressForKey(pubKey []byte, class tx.ScriptClass) (string, error) {
	var script tx.Script
	switch class {
	case tx.PubKeyHash:
		script = tx.PayToPubKeyHashFor(pubKey)
	case tx.WitnessPubKeyHash:
		script = tx.PayToWitnessPubKeyHashFor(pubKey)
	case tx.ScriptHash:
		script = tx.PayToScriptHashFor(tx.PayToWitnessPubKeyHashFor(pubKey))
	default:
		return "", fmt.Errorf("%w: no key address of class %s", ErrNoAddress, class)
	}
	return c.Encode(script)
}

// PayTo adds an output of value paying to addr.
func (c *AddressCodec) PayTo(b *tx.Builder, addr string, value uint64) error {
	script, err := c.Decode(addr)
	if err != nil {
		return err
	}
	b.PayTo(script, value)
	return nil
}
