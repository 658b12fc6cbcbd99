package codec

import (
	"encoding/binary"
	"fmt"
	"io"
)

// VarInt discriminant bytes.
const (
	varIntMarker16 = 0xfd
	varIntMarker32 = 0xfe
	varIntMarker64 = 0xff
)

// VarIntSize returns the number of bytes the minimal encoding of n occupies.
func VarIntSize(n uint64) int {
	switch {
	case n < varIntMarker16:
		return 1
	case n <= 0xffff:
		return 3
	case n <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// AppendVarInt appends the minimal encoding of n to dst.
func AppendVarInt(dst []byte, n uint64) []byte {
	switch {
	case n < varIntMarker16:
		return append(dst, byte(n))
	case n <= 0xffff:
		dst = append(dst, varIntMarker16)
		return binary.LittleEndian.AppendUint16(dst, uint16(n))
	case n <= 0xffffffff:
		dst = append(dst, varIntMarker32)
		return binary.LittleEndian.AppendUint32(dst, uint32(n))
	default:
		dst = append(dst, varIntMarker64)
		return binary.LittleEndian.AppendUint64(dst, n)
	}
}

// WriteVarInt writes the minimal encoding of n to w.
func WriteVarInt(w io.Writer, n uint64) (int, error) {
	var buf [9]byte
	return w.Write(AppendVarInt(buf[:0], n))
}

// ReadVarInt reads a VarInt from r.
//
// Over-long encodings (for example 0xfd 0x10 0x00 for 16) are rejected with
// ErrNonCanonicalVarInt, matching the consensus rules of Bitcoin Core.
func ReadVarInt(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:1]); err != nil {
		return 0, readErr("varint", err)
	}

	var (
		v   uint64
		min uint64
	)
	switch buf[0] {
	case varIntMarker16:
		if _, err := io.ReadFull(r, buf[:2]); err != nil {
			return 0, readErr("varint", err)
		}
		v = uint64(binary.LittleEndian.Uint16(buf[:2]))
		min = varIntMarker16
	case varIntMarker32:
		if _, err := io.ReadFull(r, buf[:4]); err != nil {
			return 0, readErr("varint", err)
		}
		v = uint64(binary.LittleEndian.Uint32(buf[:4]))
		min = 0x10000
	case varIntMarker64:
		if _, err := io.ReadFull(r, buf[:8]); err != nil {
			return 0, readErr("varint", err)
		}
		v = binary.LittleEndian.Uint64(buf[:8])
		min = 0x100000000
	default:
		return uint64(buf[0]), nil
	}

	if v < min {
		return 0, fmt.Errorf("%w: 0x%02x prefix for value %d", ErrNonCanonicalVarInt, buf[0], v)
	}
	return v, nil
}

// readErr normalizes a short read into io.ErrUnexpectedEOF.
func readErr(what string, err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("reading %s: %w", what, err)
}
