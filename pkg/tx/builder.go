package tx

import "fmt"

// DefaultVersion is the version assigned by NewBuilder.
const DefaultVersion uint32 = 2

// Builder accumulates the parts of a transaction. Witness stacks may be
// added incrementally; Build checks the final shape.
type Builder struct {
	version   uint32
	inputs    []TxIn
	outputs   []TxOut
	witnesses []Witness
	lockTime  uint32
	kind      *Kind
	err       error
}

// NewBuilder returns an empty builder with DefaultVersion.
func NewBuilder() *Builder {
	return &Builder{version: DefaultVersion}
}

// NewBuilderFrom returns a builder holding a copy of t, including its kind.
func NewBuilderFrom(t *Tx) *Builder {
	kind := t.kind
	b := &Builder{
		version:  t.version,
		inputs:   t.Inputs(),
		outputs:  t.Outputs(),
		lockTime: t.lockTime,
		kind:     &kind,
	}
	for _, w := range t.witnesses {
		b.witnesses = append(b.witnesses, w.clone())
	}
	return b
}

func (b *Builder) Version(v uint32) *Builder {
	b.version = v
	return b
}

func (b *Builder) LockTime(lockTime uint32) *Builder {
	b.lockTime = lockTime
	return b
}

func (b *Builder) AddInput(in TxIn) *Builder {
	b.inputs = append(b.inputs, in)
	return b
}

// Spend adds an input for prev with an empty scriptSig.
func (b *Builder) Spend(prev Outpoint, sequence uint32) *Builder {
	return b.AddInput(TxIn{PreviousOutpoint: prev, Sequence: sequence})
}

func (b *Builder) AddOutput(out TxOut) *Builder {
	b.outputs = append(b.outputs, out)
	return b
}

// PayTo adds an output of value locked by script.
func (b *Builder) PayTo(script Script, value uint64) *Builder {
	return b.AddOutput(TxOut{Value: value, PkScript: script})
}

// AddWitness appends the witness stack for the next input.
func (b *Builder) AddWitness(w Witness) *Builder {
	b.witnesses = append(b.witnesses, w)
	return b
}

// SetScriptSig replaces the scriptSig of input i. Out of range indexes are
// reported by Build.
func (b *Builder) SetScriptSig(i int, script Script) *Builder {
	if i < 0 || i >= len(b.inputs) {
		b.fail(fmt.Errorf("%w: scriptSig for input %d of %d", ErrInputIndex, i, len(b.inputs)))
		return b
	}
	b.inputs[i].ScriptSig = script
	return b
}

// SetWitness replaces the witness stack of input i, growing the witness list
// with empty stacks as needed. Negative indexes are reported by Build.
func (b *Builder) SetWitness(i int, w Witness) *Builder {
	if i < 0 {
		b.fail(fmt.Errorf("%w: witness for input %d", ErrInputIndex, i))
		return b
	}
	for len(b.witnesses) <= i {
		b.witnesses = append(b.witnesses, nil)
	}
	b.witnesses[i] = w
	return b
}

// Kind fixes the kind of the built transaction. Without it, Build picks
// KindWitness exactly when some input has witness data.
func (b *Builder) Kind(k Kind) *Builder {
	b.kind = &k
	return b
}

// StripAuthorization clears every scriptSig and witness, as required for
// the unsigned transaction of a partially signed transaction.
func (b *Builder) StripAuthorization() *Builder {
	for i := range b.inputs {
		b.inputs[i].ScriptSig = nil
	}
	b.witnesses = nil
	kind := KindLegacy
	b.kind = &kind
	return b
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build validates the accumulated parts and returns the transaction. It
// fails with the first error recorded by an earlier call.
func (b *Builder) Build() (*Tx, error) {
	if b.err != nil {
		return nil, b.err
	}
	hasWitness := false
	for _, w := range b.witnesses {
		if !w.IsEmpty() {
			hasWitness = true
			break
		}
	}
	if hasWitness && len(b.witnesses) != len(b.inputs) {
		return nil, fmt.Errorf("%w: %d witnesses for %d inputs",
			ErrWitnessCountMismatch, len(b.witnesses), len(b.inputs))
	}

	kind := KindLegacy
	if hasWitness {
		kind = KindWitness
	}
	if b.kind != nil {
		if *b.kind == KindLegacy && hasWitness {
			return nil, ErrUnexpectedWitness
		}
		kind = *b.kind
	}

	t := &Tx{
		kind:     kind,
		version:  b.version,
		inputs:   append([]TxIn(nil), b.inputs...),
		outputs:  append([]TxOut(nil), b.outputs...),
		lockTime: b.lockTime,
	}
	if kind == KindWitness {
		t.witnesses = make([]Witness, len(b.inputs))
		copy(t.witnesses, b.witnesses)
	}
	return t, nil
}
