package tx

import (
	"fmt"
	"io"

	"github.com/suffix-labs/btc-pst/pkg/codec"
)

// Witness is the stack of byte strings authorizing one segwit input.
type Witness [][]byte

// IsEmpty reports whether the stack has no items.
func (w Witness) IsEmpty() bool {
	return len(w) == 0
}

func (w Witness) SerializedLength() int {
	size := codec.VarIntSize(uint64(len(w)))
	for _, item := range w {
		size += codec.BytesSize(item)
	}
	return size
}

func (w Witness) WriteTo(wr io.Writer) (int64, error) {
	cw := codec.NewWriter(wr)
	cw.VarInt(uint64(len(w)))
	for _, item := range w {
		cw.Bytes(item)
	}
	return cw.Result()
}

func (w *Witness) ReadFrom(r io.Reader) (int64, error) {
	cr := codec.NewReader(r)
	count := cr.VarInt("witness item count")
	if cr.Err() == nil && count > codec.MaxVectorLength {
		cr.Fail(fmt.Errorf("witness: %w: %d", codec.ErrVectorTooLong, count))
	}
	if err := cr.Err(); err != nil {
		return cr.Result()
	}
	if count == 0 {
		*w = nil
		return cr.Result()
	}

	stack := make(Witness, 0, min(count, 64))
	for i := uint64(0); i < count; i++ {
		item := cr.Bytes("witness item")
		if cr.Err() != nil {
			return cr.Result()
		}
		stack = append(stack, item)
	}
	*w = stack
	return cr.Result()
}

func (w Witness) clone() Witness {
	if w == nil {
		return nil
	}
	out := make(Witness, len(w))
	for i, item := range w {
		out[i] = append([]byte(nil), item...)
	}
	return out
}
