package roles

import (
	"context"

	"go.uber.org/zap"

	"github.com/suffix-labs/btc-pst/pkg/pst"
	"github.com/suffix-labs/btc-pst/pkg/sighash"
	"github.com/suffix-labs/btc-pst/pkg/tx"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_roles_test.go -package=$GOPACKAGE

// Signer adds partial signatures to a PST. Implementations backed by
// different key stores (software keys, hardware devices) are
// interchangeable behind it.
type Signer interface {
	// IsChange reports whether output idx pays back to this signer.
	IsChange(p *pst.PST, idx int) (bool, error)
	// AcceptableSighash reports whether policy allows signing with flag.
	AcceptableSighash(flag sighash.Flag) bool
	// CanSignInput returns nil when SignInput may be attempted on input
	// idx, or the reason it may not.
	CanSignInput(p *pst.PST, idx int) error
	// SignInput adds this signer's partial signatures to input idx.
	SignInput(ctx context.Context, p *pst.PST, idx int) error
}

// Finalizer turns the partial signatures of an input into its final
// scriptSig and witness.
type Finalizer interface {
	FinalizeInput(p *pst.PST, idx int) error
}

// Extractor produces the network-ready transaction of a finalized PST.
type Extractor interface {
	Extract(p *pst.PST) (*tx.Tx, error)
}

// Updater fills in information a PST is missing but that can be looked
// up, such as the outputs its inputs spend.
type Updater interface {
	Update(ctx context.Context, p *pst.PST) error
}

// Option configures a role.
type Option func(*options)

type options struct {
	logger    *zap.Logger
	sighashes []sighash.Flag
}

// WithLogger sets the logger a role reports progress to.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSighashes sets the flags a KeySigner agrees to sign with. The
// default is ALL only.
func WithSighashes(flags ...sighash.Flag) Option {
	return func(o *options) {
		o.sighashes = append([]sighash.Flag(nil), flags...)
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:    zap.NewNop(),
		sighashes: []sighash.Flag{sighash.All},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
