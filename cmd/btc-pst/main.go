// btc-pst CLI - partially signed transaction tool
//
// Each command reads a PST (binary, hex or base64; "-" for stdin) and
// writes the result as base64 to stdout or to --out.
//
// Example usage:
//
//	# Parse a BIP 21 payment request
//	btc-pst parse-uri "bitcoin:bc1q...?amount=0.01&label=coffee"
//
//	# Create a PST spending an outpoint
//	btc-pst create --input <txid>:<vout> --output <address>:<sats> > unsigned.pst
//
//	# Attach UTXOs from a node and key paths from a wallet
//	btc-pst update --pst unsigned.pst --rpc-url http://127.0.0.1:8332 --xprv tprv... --path m/84h/1h/0h/0/0
//
//	# Sign, combine, finalize
//	btc-pst sign --pst updated.pst --xprv tprv... > a.pst
//	btc-pst combine a.pst b.pst > combined.pst
//	btc-pst finalize --pst combined.pst
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/suffix-labs/btc-pst/pkg/network"
)

const version = "v0.1.0"

type globalOptions struct {
	Network string `long:"network" env:"BTC_PST_NETWORK" description:"network name (mainnet, testnet, regtest, signet)" default:"mainnet"`
	JSONLog bool   `long:"json-log" env:"BTC_PST_JSON_LOG" description:"log JSON to stderr instead of console text"`
	Verbose bool   `short:"v" long:"verbose" description:"log debug messages"`
}

var (
	opts   globalOptions
	logger = zap.NewNop()
	ctx    = context.Background()
)

func main() {
	var stop context.CancelFunc
	ctx, stop = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	parser := flags.NewParser(&opts, flags.Default)
	addCommands(parser)
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		l, err := newLogger(opts)
		if err != nil {
			return err
		}
		logger = l
		defer func() {
			_ = logger.Sync()
		}()
		if _, err := network.Params(opts.Network); err != nil {
			return err
		}
		return cmd.Execute(args)
	}

	if _, err := parser.Parse(); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		if ferr == nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newLogger(o globalOptions) (*zap.Logger, error) {
	var cfg zap.Config
	if o.JSONLog {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	if o.Verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("can't initialize zap logger: %w", err)
	}
	return l, nil
}

func addCommands(parser *flags.Parser) {
	commands := []struct {
		name, short, long string
		data              interface{}
	}{
		{"parse-uri", "Parse a BIP 21 payment request URI", "Prints the payments of a bitcoin: URI and re-encodes it.", &parseURICmd{}},
		{"create", "Create a PST", "Builds an unsigned transaction from outpoints, outputs and payment URIs and wraps it in a PST.", &createCmd{}},
		{"update", "Add UTXOs and key paths to a PST", "Looks previous transactions up over RPC (optionally cached in a bbolt file) and records derivation paths of a wallet's keys.", &updateCmd{}},
		{"sign", "Sign the inputs a wallet can sign", "Adds partial signatures for every input with a derivation entry of the given key.", &signCmd{}},
		{"sighash", "Print the digest an input is signed over", "Computes the legacy or BIP 143 digest of one input.", &sighashCmd{}},
		{"combine", "Merge PSTs of the same transaction", "Merges partial signatures and metadata of PSTs given as arguments.", &combineCmd{}},
		{"finalize", "Finalize and extract the transaction", "Builds final scriptSigs and witnesses and prints the raw transaction as hex.", &finalizeCmd{}},
		{"decode", "Describe a PST", "Prints inputs, outputs, signatures and the fee of a PST.", &decodeCmd{}},
		{"version", "Show version information", "Show version information.", &versionCmd{}},
	}
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, c.long, c.data); err != nil {
			panic("can't register command " + c.name + ": " + err.Error())
		}
	}
}
