package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/rpcclient"
	"go.uber.org/zap"

	"github.com/suffix-labs/btc-pst/pkg/api"
	"github.com/suffix-labs/btc-pst/pkg/bip21"
	"github.com/suffix-labs/btc-pst/pkg/crypto"
	"github.com/suffix-labs/btc-pst/pkg/network"
	"github.com/suffix-labs/btc-pst/pkg/prevtx"
	"github.com/suffix-labs/btc-pst/pkg/pst"
	"github.com/suffix-labs/btc-pst/pkg/roles"
	"github.com/suffix-labs/btc-pst/pkg/sighash"
	"github.com/suffix-labs/btc-pst/pkg/tx"
)

type pstIO struct {
	PST string `long:"pst" description:"PST file, - for stdin" default:"-"`
	Out string `long:"out" description:"write the base64 PST here instead of stdout"`
}

func (o pstIO) read() ([]byte, error) {
	return readFile(o.PST)
}

func (o pstIO) write(b []byte) error {
	p, err := pst.Parse(b)
	if err != nil {
		return err
	}
	text, err := p.Base64()
	if err != nil {
		return err
	}
	if o.Out == "" {
		_, err = fmt.Println(text)
		return err
	}
	return os.WriteFile(o.Out, []byte(text+"\n"), 0o600)
}

func readFile(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

type keyOptions struct {
	XPrv string `long:"xprv" env:"BTC_PST_XPRV" description:"extended private key"`
	WIF  string `long:"wif" env:"BTC_PST_WIF" description:"WIF encoded private key"`
}

func (k keyOptions) provider() (crypto.KeyProvider, error) {
	switch {
	case k.XPrv != "" && k.WIF != "":
		return nil, errors.New("--xprv and --wif are mutually exclusive")
	case k.XPrv != "":
		return crypto.NewHDKeyProviderFromString(k.XPrv)
	case k.WIF != "":
		key, compressed, err := crypto.ParsePrivateKeyWIF(k.WIF)
		if err != nil {
			return nil, err
		}
		if !compressed {
			logger.Warn("uncompressed WIF; signing with the compressed public key")
		}
		return crypto.NewSingleKeyProvider(key), nil
	default:
		return nil, nil
	}
}

type parseURICmd struct {
	Args struct {
		URI string `positional-arg-name:"uri" required:"yes"`
	} `positional-args:"yes"`
}

func (c *parseURICmd) Execute(_ []string) error {
	req, err := api.ParsePaymentRequest(c.Args.URI)
	if err != nil {
		return fmt.Errorf("failed to parse URI: %w", err)
	}

	fmt.Println("Payment Request:")
	fmt.Printf("  Payments: %d\n\n", len(req.Payments))
	for i, payment := range req.Payments {
		fmt.Printf("Payment %d:\n", i+1)
		fmt.Printf("  Address: %s\n", payment.Address)
		if payment.Amount != nil {
			fmt.Printf("  Amount:  %s BTC (%d sat)\n", bip21.FormatAmount(*payment.Amount), int64(*payment.Amount))
		} else {
			fmt.Println("  Amount:  (user specified)")
		}
		if payment.Label != nil {
			fmt.Printf("  Label:   %s\n", *payment.Label)
		}
		if payment.Message != nil {
			fmt.Printf("  Message: %s\n", *payment.Message)
		}
		fmt.Println()
	}
	fmt.Printf("Re-encoded URI:\n%s\n", req.Encode())
	return nil
}

type createCmd struct {
	Inputs   []string `long:"input" description:"outpoint to spend as txid:vout[:sequence] (repeatable)" required:"true"`
	Outputs  []string `long:"output" description:"payment as address:satoshis (repeatable)"`
	URI      string   `long:"uri" description:"BIP 21 payment request to pay"`
	LockTime uint32   `long:"locktime" description:"transaction lock time"`
	Version  uint32   `long:"tx-version" description:"transaction version" default:"2"`
	Out      string   `long:"out" description:"write the base64 PST here instead of stdout"`
}

func (c *createCmd) Execute(_ []string) error {
	proposal := &api.TransactionProposal{
		PaymentRequest: c.URI,
		Network:        opts.Network,
		Version:        &c.Version,
		LockTime:       c.LockTime,
	}
	for _, s := range c.Inputs {
		in, err := parseInput(s)
		if err != nil {
			return err
		}
		proposal.Inputs = append(proposal.Inputs, in)
	}
	for _, s := range c.Outputs {
		addr, value, found := strings.Cut(s, ":")
		if !found {
			return fmt.Errorf("output %q: want address:satoshis", s)
		}
		sats, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("output %q: %w", s, err)
		}
		proposal.Outputs = append(proposal.Outputs, api.Output{Address: addr, Value: sats})
	}

	b, err := api.ProposeTransaction(proposal)
	if err != nil {
		return err
	}
	logger.Info("created pst", zap.Int("inputs", len(proposal.Inputs)))
	return pstIO{Out: c.Out}.write(b)
}

func parseInput(s string) (api.Input, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return api.Input{}, fmt.Errorf("input %q: want txid:vout[:sequence]", s)
	}
	txid, err := tx.NewTXIDFromHex(parts[0])
	if err != nil {
		return api.Input{}, fmt.Errorf("input %q: %w", s, err)
	}
	vout, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return api.Input{}, fmt.Errorf("input %q: %w", s, err)
	}
	in := api.Input{Outpoint: tx.Outpoint{TxID: txid, Index: uint32(vout)}}
	if len(parts) == 3 {
		seq, err := strconv.ParseUint(parts[2], 0, 32)
		if err != nil {
			return api.Input{}, fmt.Errorf("input %q: %w", s, err)
		}
		sequence := uint32(seq)
		in.Sequence = &sequence
	}
	return in, nil
}

type updateCmd struct {
	pstIO
	keyOptions
	RPCURL      string   `long:"rpc-url" env:"BTC_PST_RPC_URL" description:"Bitcoin RPC URL"`
	RPCUser     string   `long:"rpc-user" env:"BTC_PST_RPC_USER" description:"Bitcoin RPC username"`
	RPCPassword string   `long:"rpc-password" env:"BTC_PST_RPC_PASSWORD" description:"Bitcoin RPC password"`
	Cache       string   `long:"cache" env:"BTC_PST_CACHE" description:"bbolt file caching previous transactions"`
	Paths       []string `long:"path" description:"derivation path to record when its key is used (repeatable)"`
}

func (c *updateCmd) Execute(_ []string) error {
	var updaters []roles.Updater

	var source prevtx.Source
	if c.RPCURL != "" {
		rpc, err := newRPCClient(c.RPCURL, c.RPCUser, c.RPCPassword)
		if err != nil {
			return fmt.Errorf("init btc rpc client: %w", err)
		}
		defer func() {
			rpc.Shutdown()
			rpc.WaitForShutdown()
		}()
		source = prevtx.NewRPCSource(rpc, logger)
	}
	if c.Cache != "" {
		store, err := prevtx.OpenBoltStore(c.Cache, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close cache", zap.Error(err))
			}
		}()
		if source == nil {
			source = store
		} else {
			source = prevtx.NewCached(store, source, logger)
		}
	}
	if source != nil {
		updaters = append(updaters, roles.NewSourceUpdater(source, roles.WithLogger(logger)))
	}

	keys, err := c.provider()
	if err != nil {
		return err
	}
	if keys != nil {
		paths := make([][]uint32, 0, len(c.Paths))
		for _, s := range c.Paths {
			path, err := crypto.ParsePath(s)
			if err != nil {
				return err
			}
			paths = append(paths, path)
		}
		if len(paths) == 0 {
			paths = append(paths, nil)
		}
		updaters = append(updaters, roles.NewKeyUpdater(keys, paths, roles.WithLogger(logger)))
	}
	if len(updaters) == 0 {
		return errors.New("nothing to update: give --rpc-url, --cache or a key")
	}

	raw, err := readPST(c.pstIO)
	if err != nil {
		return err
	}
	out, err := api.UpdateTransaction(ctx, raw, updaters...)
	if err != nil {
		return err
	}
	return c.write(out)
}

type signCmd struct {
	pstIO
	keyOptions
	Sighashes []string `long:"sighash" description:"sighash flag the signer accepts, e.g. ALL or SINGLE|ANYONECANPAY (repeatable)" default:"ALL"`
}

func (c *signCmd) Execute(_ []string) error {
	keys, err := c.provider()
	if err != nil {
		return err
	}
	if keys == nil {
		return errors.New("signing needs --xprv or --wif")
	}
	accepted := make([]sighash.Flag, 0, len(c.Sighashes))
	for _, s := range c.Sighashes {
		f, err := sighash.ParseFlag(s)
		if err != nil {
			return err
		}
		accepted = append(accepted, f)
	}

	raw, err := readPST(c.pstIO)
	if err != nil {
		return err
	}
	out, signed, err := api.Sign(ctx, raw, keys, roles.WithSighashes(accepted...), roles.WithLogger(logger))
	if err != nil {
		return err
	}
	logger.Info("signed inputs", zap.Ints("inputs", signed))
	return c.write(out)
}

type sighashCmd struct {
	pstIO
	Input int `long:"input" description:"input index" required:"true"`
}

func (c *sighashCmd) Execute(_ []string) error {
	raw, err := readPST(c.pstIO)
	if err != nil {
		return err
	}
	digest, flag, err := api.GetSighash(raw, c.Input)
	if err != nil {
		return err
	}
	fmt.Printf("%x %s\n", digest, flag)
	return nil
}

type combineCmd struct {
	Out  string `long:"out" description:"write the base64 PST here instead of stdout"`
	Args struct {
		Files []string `positional-arg-name:"pst" required:"2"`
	} `positional-args:"yes"`
}

func (c *combineCmd) Execute(_ []string) error {
	parts := make([][]byte, 0, len(c.Args.Files))
	for _, f := range c.Args.Files {
		raw, err := readPST(pstIO{PST: f})
		if err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
		parts = append(parts, raw)
	}
	out, err := api.Combine(parts)
	if err != nil {
		return err
	}
	return pstIO{Out: c.Out}.write(out)
}

type finalizeCmd struct {
	pstIO
}

func (c *finalizeCmd) Execute(_ []string) error {
	raw, err := readPST(c.pstIO)
	if err != nil {
		return err
	}
	txBytes, err := api.FinalizeAndExtract(raw)
	if err != nil {
		return err
	}
	final, err := tx.Deserialize(txBytes)
	if err != nil {
		return err
	}
	logger.Info("extracted transaction",
		zap.Stringer("txid", final.TxID()),
		zap.Stringer("wtxid", final.WTxID()),
		zap.Int("size", len(txBytes)),
	)
	fmt.Println(hex.EncodeToString(txBytes))
	return nil
}

type decodeCmd struct {
	pstIO
}

func (c *decodeCmd) Execute(_ []string) error {
	raw, err := readPST(c.pstIO)
	if err != nil {
		return err
	}
	p, err := pst.Parse(raw)
	if err != nil {
		return err
	}
	unsigned, err := p.UnsignedTx()
	if err != nil {
		return err
	}
	codec, err := network.NewAddressCodec(opts.Network)
	if err != nil {
		return err
	}

	fmt.Printf("TXID: %s\n", unsigned.TxID())
	fmt.Printf("Version: %d  LockTime: %d\n\n", unsigned.Version(), unsigned.LockTime())
	for i, txIn := range unsigned.Inputs() {
		in := &p.Inputs[i]
		fmt.Printf("Input %d: %s\n", i, txIn.PreviousOutpoint)
		if spent, err := in.SpentOutput(txIn.PreviousOutpoint); err == nil {
			fmt.Printf("  Spends:     %d sat to %s\n", spent.Value, describeScript(codec, spent.PkScript))
		}
		fmt.Printf("  Signatures: %d\n", len(in.PartialSigs()))
		fmt.Printf("  Finalized:  %t\n", in.IsFinalized())
	}
	fmt.Println()
	for i, out := range unsigned.Outputs() {
		fmt.Printf("Output %d: %d sat to %s\n", i, out.Value, describeScript(codec, out.PkScript))
	}
	if fee, err := api.Fee(p); err == nil {
		fmt.Printf("\nFee: %d sat\n", fee)
	}
	return nil
}

func describeScript(codec *network.AddressCodec, script tx.Script) string {
	if addr, err := codec.Encode(script); err == nil {
		return addr
	}
	return fmt.Sprintf("%s script %x", script.Class(), []byte(script))
}

type versionCmd struct{}

func (c *versionCmd) Execute(_ []string) error {
	fmt.Println("btc-pst " + version)
	fmt.Println("Partially signed transaction tool for Bitcoin UTXO transactions")
	return nil
}

// readPST reads a PST in any encoding and returns its binary form.
func readPST(o pstIO) ([]byte, error) {
	in, err := o.read()
	if err != nil {
		return nil, err
	}
	p, err := api.ParsePST(in)
	if err != nil {
		return nil, err
	}
	return api.SerializePST(p)
}

func newRPCClient(rawURL, user, password string) (*rpcclient.Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse rpc url: %w", err)
	}
	if parsed.Scheme != "http" {
		return nil, fmt.Errorf("rpc url scheme %q not supported, use http", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("rpc url missing host")
	}

	cfg := &rpcclient.ConnConfig{
		Host:         parsed.Host,
		User:         user,
		Pass:         password,
		HTTPPostMode: true,
		DisableTLS:   true,
	}
	return rpcclient.New(cfg, nil)
}
