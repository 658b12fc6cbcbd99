// Package pst implements partially signed transactions in the BIP174 wire
// format: a global map holding the unsigned transaction followed by one map
// per input and one per output.
//
// Maps are ordered key/value stores. Keys begin with a key-type byte; the
// standard key types are validated by Schemas, proprietary (0xfc) and
// unknown key types are carried through untouched.
//
// A PST is a plain value; callers mutating one from several goroutines must
// serialize access themselves.
package pst

import (
	"errors"
	"fmt"

	"github.com/suffix-labs/btc-pst/pkg/tx"
)

// Version is the container version written by New.
const Version uint32 = 0

// PST is a partially signed transaction.
type PST struct {
	Global  Global
	Inputs  []Input
	Outputs []Output
}

// New seeds a PST from t. Any scriptSig or witness data on t is stripped.
func New(t *tx.Tx) (*PST, error) {
	unsigned, err := tx.NewBuilderFrom(t).StripAuthorization().Build()
	if err != nil {
		return nil, err
	}

	p := &PST{
		Inputs:  make([]Input, unsigned.NumInputs()),
		Outputs: make([]Output, unsigned.NumOutputs()),
	}
	if err := p.Global.SetUnsignedTx(unsigned); err != nil {
		return nil, err
	}
	if err := p.Global.SetVersion(Version); err != nil {
		return nil, err
	}
	return p, nil
}

// UnsignedTx decodes the unsigned transaction from the global map. It
// fails with ErrMapCount unless p holds exactly one map per transaction
// input and output, so callers may index p.Inputs and p.Outputs by the
// transaction's input and output positions.
func (p *PST) UnsignedTx() (*tx.Tx, error) {
	t, err := p.Global.UnsignedTx()
	if err != nil {
		return nil, &MapError{Scope: ScopeGlobal, Err: err}
	}
	if err := p.checkMapCounts(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (p *PST) checkMapCounts(t *tx.Tx) error {
	if len(p.Inputs) != t.NumInputs() {
		return fmt.Errorf("%w: %d input maps for %d inputs", ErrMapCount, len(p.Inputs), t.NumInputs())
	}
	if len(p.Outputs) != t.NumOutputs() {
		return fmt.Errorf("%w: %d output maps for %d outputs", ErrMapCount, len(p.Outputs), t.NumOutputs())
	}
	return nil
}

// Input returns the map of input i.
func (p *PST) Input(i int) (*Input, error) {
	if i < 0 || i >= len(p.Inputs) {
		return nil, fmt.Errorf("%w: input %d of %d", ErrIndexOutOfRange, i, len(p.Inputs))
	}
	return &p.Inputs[i], nil
}

// Output returns the map of output i.
func (p *PST) Output(i int) (*Output, error) {
	if i < 0 || i >= len(p.Outputs) {
		return nil, fmt.Errorf("%w: output %d of %d", ErrIndexOutOfRange, i, len(p.Outputs))
	}
	return &p.Outputs[i], nil
}

// IsFinalized reports whether every input is finalized.
func (p *PST) IsFinalized() bool {
	for i := range p.Inputs {
		if !p.Inputs[i].IsFinalized() {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of p.
func (p *PST) Clone() *PST {
	out := &PST{
		Global:  Global{p.Global.Clone()},
		Inputs:  make([]Input, len(p.Inputs)),
		Outputs: make([]Output, len(p.Outputs)),
	}
	for i := range p.Inputs {
		out.Inputs[i] = Input{p.Inputs[i].Clone()}
	}
	for i := range p.Outputs {
		out.Outputs[i] = Output{p.Outputs[i].Clone()}
	}
	return out
}

// ConsistencyChecks validates p with the standard schemas.
func (p *PST) ConsistencyChecks() error {
	return p.ConsistencyChecksWith(DefaultSchemas())
}

// ConsistencyChecksWith requires the mandatory global keys, one input and
// output map per transaction input and output, and every map to pass its
// schema.
func (p *PST) ConsistencyChecksWith(s Schemas) error {
	var errs []error
	for _, keyType := range []byte{GlobalUnsignedTx, GlobalVersion} {
		if !p.Global.Has(Key{keyType}) {
			errs = append(errs, &MapError{Scope: ScopeGlobal, Err: missing(keyType)})
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if _, err := p.UnsignedTx(); err != nil {
		return err
	}
	return p.validate(s)
}

func (p *PST) validate(s Schemas) error {
	if err := s.Global.Validate(&p.Global.Map); err != nil {
		return &MapError{Scope: ScopeGlobal, Err: err}
	}
	for i := range p.Inputs {
		if err := s.Input.Validate(&p.Inputs[i].Map); err != nil {
			return &MapError{Scope: ScopeInput, Index: i, Err: err}
		}
	}
	for i := range p.Outputs {
		if err := s.Output.Validate(&p.Outputs[i].Map); err != nil {
			return &MapError{Scope: ScopeOutput, Index: i, Err: err}
		}
	}
	return nil
}
