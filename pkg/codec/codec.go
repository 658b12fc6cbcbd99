package codec

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Decoding limits guarding allocations driven by untrusted length prefixes.
const (
	MaxVectorLength = 1 << 20
	MaxBytesLength  = 4_000_000
)

// Serializable is implemented by every type with a wire encoding.
type Serializable interface {
	SerializedLength() int
	io.WriterTo
}

// Writer wraps an io.Writer, accumulating the byte count and remembering the
// first error. Subsequent writes after an error are no-ops.
type Writer struct {
	w   io.Writer
	n   int64
	err error
}

// NewWriter returns a Writer writing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write implements io.Writer.
func (cw *Writer) Write(p []byte) (int, error) {
	if cw.err != nil {
		return 0, cw.err
	}
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	cw.err = err
	return n, err
}

// Raw writes p without a length prefix.
func (cw *Writer) Raw(p []byte) {
	_, _ = cw.Write(p)
}

// VarInt writes n in minimal VarInt form.
func (cw *Writer) VarInt(n uint64) {
	var buf [9]byte
	cw.Raw(AppendVarInt(buf[:0], n))
}

// Uint32 writes v as 4 little-endian bytes.
func (cw *Writer) Uint32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	cw.Raw(buf[:])
}

// Uint64 writes v as 8 little-endian bytes.
func (cw *Writer) Uint64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	cw.Raw(buf[:])
}

// Bytes writes p prefixed by its VarInt length.
func (cw *Writer) Bytes(p []byte) {
	cw.VarInt(uint64(len(p)))
	cw.Raw(p)
}

// Item writes a nested value.
func (cw *Writer) Item(item io.WriterTo) {
	if cw.err != nil {
		return
	}
	n, err := item.WriteTo(cw.w)
	cw.n += n
	cw.err = err
}

// Result returns the number of bytes written and the first error.
func (cw *Writer) Result() (int64, error) {
	return cw.n, cw.err
}

// Reader wraps an io.Reader, accumulating the byte count and remembering the
// first error. Reads after an error return zero values.
type Reader struct {
	r   io.Reader
	n   int64
	err error
}

// NewReader returns a Reader reading from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Read implements io.Reader.
func (cr *Reader) Read(p []byte) (int, error) {
	if cr.err != nil {
		return 0, cr.err
	}
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}

// Fail records err unless an earlier error is already held.
func (cr *Reader) Fail(err error) {
	if cr.err == nil {
		cr.err = err
	}
}

// Full fills p completely. what names the field for error messages.
func (cr *Reader) Full(p []byte, what string) {
	if cr.err != nil {
		return
	}
	n, err := io.ReadFull(cr.r, p)
	cr.n += int64(n)
	if err != nil {
		cr.err = readErr(what, err)
	}
}

// Raw reads exactly n bytes.
func (cr *Reader) Raw(n int, what string) []byte {
	if n == 0 {
		return nil
	}
	buf := make([]byte, n)
	cr.Full(buf, what)
	if cr.err != nil {
		return nil
	}
	return buf
}

// VarInt reads a canonical VarInt.
func (cr *Reader) VarInt(what string) uint64 {
	if cr.err != nil {
		return 0
	}
	counter := &countingReader{r: cr.r}
	v, err := ReadVarInt(counter)
	cr.n += counter.n
	if err != nil {
		cr.err = fmt.Errorf("%s: %w", what, err)
		return 0
	}
	return v
}

// Uint32 reads 4 little-endian bytes.
func (cr *Reader) Uint32(what string) uint32 {
	var buf [4]byte
	cr.Full(buf[:], what)
	return binary.LittleEndian.Uint32(buf[:])
}

// Uint64 reads 8 little-endian bytes.
func (cr *Reader) Uint64(what string) uint64 {
	var buf [8]byte
	cr.Full(buf[:], what)
	return binary.LittleEndian.Uint64(buf[:])
}

// Bytes reads a VarInt-prefixed byte string.
func (cr *Reader) Bytes(what string) []byte {
	size := cr.VarInt(what + " length")
	if cr.err != nil {
		return nil
	}
	if size > MaxBytesLength {
		cr.err = fmt.Errorf("%s: %w: %d", what, ErrBytesTooLong, size)
		return nil
	}
	return cr.Raw(int(size), what)
}

// Item decodes a nested value.
func (cr *Reader) Item(item io.ReaderFrom) {
	if cr.err != nil {
		return
	}
	n, err := item.ReadFrom(cr.r)
	cr.n += n
	cr.err = err
}

// Result returns the number of bytes consumed and the first error.
func (cr *Reader) Result() (int64, error) {
	return cr.n, cr.err
}

// Err returns the first error encountered.
func (cr *Reader) Err() error {
	return cr.err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// BytesSize returns the encoded size of a VarInt-prefixed byte string.
func BytesSize(p []byte) int {
	return VarIntSize(uint64(len(p))) + len(p)
}

// VectorSize returns the encoded size of a VarInt-prefixed vector.
func VectorSize[T Serializable](items []T) int {
	size := VarIntSize(uint64(len(items)))
	for _, item := range items {
		size += item.SerializedLength()
	}
	return size
}

// WriteVector writes VarInt(len(items)) followed by each item.
func WriteVector[T io.WriterTo](w io.Writer, items []T) (int64, error) {
	cw := NewWriter(w)
	cw.VarInt(uint64(len(items)))
	for _, item := range items {
		cw.Item(item)
	}
	return cw.Result()
}

// ReadVector reads a VarInt count followed by that many items.
func ReadVector[T any, PT interface {
	*T
	io.ReaderFrom
}](r io.Reader) ([]T, int64, error) {
	cr := NewReader(r)
	count := cr.VarInt("vector count")
	if err := cr.Err(); err != nil {
		return nil, 0, err
	}
	if count > MaxVectorLength {
		return nil, 0, fmt.Errorf("%w: %d", ErrVectorTooLong, count)
	}
	return readItems[T, PT](cr, count)
}

// ReadItems reads exactly count items with no length prefix, as used by the
// per-input witness list of a transaction.
func ReadItems[T any, PT interface {
	*T
	io.ReaderFrom
}](r io.Reader, count uint64) ([]T, int64, error) {
	if count > MaxVectorLength {
		return nil, 0, fmt.Errorf("%w: %d", ErrVectorTooLong, count)
	}
	return readItems[T, PT](NewReader(r), count)
}

func readItems[T any, PT interface {
	*T
	io.ReaderFrom
}](cr *Reader, count uint64) ([]T, int64, error) {
	items := make([]T, 0, min(count, 1024))
	for i := uint64(0); i < count; i++ {
		var item T
		cr.Item(PT(&item))
		if err := cr.Err(); err != nil {
			n, _ := cr.Result()
			return nil, n, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, item)
	}
	n, _ := cr.Result()
	return items, n, nil
}
