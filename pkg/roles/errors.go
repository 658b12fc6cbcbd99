package roles

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyFinalized is returned when asked to sign an input that
	// already carries final authorization data.
	ErrAlreadyFinalized = errors.New("input already finalized")

	// ErrWrongPrevoutScriptType is returned when the spent output is not a
	// script type the role supports for the recorded UTXO kind.
	ErrWrongPrevoutScriptType = errors.New("wrong prevout script type")

	// ErrMissingInfo is returned when the PST lacks data needed to sign or
	// finalize an input, such as its UTXO or redeem script.
	ErrMissingInfo = errors.New("missing input information")

	// ErrPrevoutMismatch is returned when recorded UTXO data contradicts
	// the unsigned transaction or the scripts recorded next to it.
	ErrPrevoutMismatch = errors.New("prevout does not match")

	// ErrUnacceptableSighash is returned when an input requests a sighash
	// flag the signer's policy rejects.
	ErrUnacceptableSighash = errors.New("unacceptable sighash flag")

	// ErrNoMatchingKey is returned when none of an input's derivation
	// entries belong to the signer.
	ErrNoMatchingKey = errors.New("no key for this signer")

	// ErrMissingKey is returned by finalizers when no usable partial
	// signature matches the key the script requires.
	ErrMissingKey = errors.New("no matching partial signature")

	// ErrUnsupportedScript is returned for scripts the finalizer cannot
	// satisfy.
	ErrUnsupportedScript = errors.New("unsupported script")

	// ErrIncompatible is returned when combining PSTs for different
	// transactions.
	ErrIncompatible = errors.New("psts describe different transactions")

	// ErrConflict is returned when PSTs being combined disagree about a
	// partial signature.
	ErrConflict = errors.New("conflicting partial signature")
)

// InputError attributes a failure to one input.
type InputError struct {
	Index int
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %d: %v", e.Index, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// UnfinalizedInputError is returned by extractors for the first input
// without final authorization data.
type UnfinalizedInputError struct {
	Index int
}

func (e *UnfinalizedInputError) Error() string {
	return fmt.Sprintf("input %d is not finalized", e.Index)
}
