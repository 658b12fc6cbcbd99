package pst

import (
	"bytes"
	"fmt"
	"io"
	"slices"

	"github.com/suffix-labs/btc-pst/pkg/codec"
)

// Key is a map key. Its first byte is the key type; the rest is key data.
type Key []byte

// NewKey returns a key of the given type followed by data.
func NewKey(keyType byte, data []byte) Key {
	k := make(Key, 0, 1+len(data))
	k = append(k, keyType)
	return append(k, data...)
}

// Type returns the key type byte.
func (k Key) Type() byte {
	if len(k) == 0 {
		return 0
	}
	return k[0]
}

// Data returns the bytes following the key type.
func (k Key) Data() []byte {
	if len(k) == 0 {
		return nil
	}
	return k[1:]
}

// Value is a map value.
type Value []byte

// Entry is one key/value pair.
type Entry struct {
	Key   Key
	Value Value
}

// Map is a set of key/value pairs kept in byte-lexicographic key order,
// without duplicate keys.
type Map struct {
	entries []Entry
}

func (m *Map) search(k Key) (int, bool) {
	return slices.BinarySearchFunc(m.entries, k, func(e Entry, target Key) int {
		return bytes.Compare(e.Key, target)
	})
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.entries)
}

// Get returns the value stored under k.
func (m *Map) Get(k Key) (Value, bool) {
	i, ok := m.search(k)
	if !ok {
		return nil, false
	}
	return m.entries[i].Value, true
}

// Has reports whether k is present.
func (m *Map) Has(k Key) bool {
	_, ok := m.search(k)
	return ok
}

// HasType reports whether any key of the given type is present.
func (m *Map) HasType(keyType byte) bool {
	for _, e := range m.entries {
		if e.Key.Type() == keyType {
			return true
		}
	}
	return false
}

// Set stores v under k, replacing any existing value.
func (m *Map) Set(k Key, v Value) error {
	if len(k) == 0 {
		return ErrEmptyKey
	}
	i, ok := m.search(k)
	if ok {
		m.entries[i].Value = slices.Clone(v)
		return nil
	}
	m.entries = slices.Insert(m.entries, i, Entry{Key: slices.Clone(k), Value: slices.Clone(v)})
	return nil
}

// Insert stores v under k, failing with ErrDuplicateKey if k is present.
func (m *Map) Insert(k Key, v Value) error {
	if m.Has(k) {
		return &KeyError{KeyType: k.Type(), Err: fmt.Errorf("%w: %x", ErrDuplicateKey, []byte(k))}
	}
	return m.Set(k, v)
}

// Delete removes k, reporting whether it was present.
func (m *Map) Delete(k Key) bool {
	i, ok := m.search(k)
	if ok {
		m.entries = slices.Delete(m.entries, i, i+1)
	}
	return ok
}

// DeleteType removes every key of the given type.
func (m *Map) DeleteType(keyType byte) {
	m.entries = slices.DeleteFunc(m.entries, func(e Entry) bool {
		return e.Key.Type() == keyType
	})
}

// Retain keeps only entries whose key type satisfies keep.
func (m *Map) Retain(keep func(keyType byte) bool) {
	m.entries = slices.DeleteFunc(m.entries, func(e Entry) bool {
		return !keep(e.Key.Type())
	})
}

// Entries returns the entries in key order. The slice is a copy; the keys
// and values are shared.
func (m *Map) Entries() []Entry {
	return slices.Clone(m.entries)
}

// EntriesOfType returns the entries of one key type in key order.
func (m *Map) EntriesOfType(keyType byte) []Entry {
	var out []Entry
	for _, e := range m.entries {
		if e.Key.Type() == keyType {
			out = append(out, e)
		}
	}
	return out
}

// Clone returns a deep copy of m.
func (m *Map) Clone() Map {
	out := Map{entries: make([]Entry, len(m.entries))}
	for i, e := range m.entries {
		out.entries[i] = Entry{Key: slices.Clone(e.Key), Value: slices.Clone(e.Value)}
	}
	return out
}

// SerializedLength returns the encoded size including the terminator.
func (m *Map) SerializedLength() int {
	size := 1
	for _, e := range m.entries {
		size += codec.BytesSize(e.Key) + codec.BytesSize(e.Value)
	}
	return size
}

// WriteTo writes each pair as length-prefixed key and value, followed by a
// zero-length key.
func (m *Map) WriteTo(w io.Writer) (int64, error) {
	cw := codec.NewWriter(w)
	for _, e := range m.entries {
		cw.Bytes(e.Key)
		cw.Bytes(e.Value)
	}
	cw.VarInt(0)
	return cw.Result()
}

// ReadFrom reads pairs up to the terminator, rejecting duplicate keys.
func (m *Map) ReadFrom(r io.Reader) (int64, error) {
	cr := codec.NewReader(r)
	var decoded Map
	for {
		key := cr.Bytes("key")
		if cr.Err() != nil {
			return cr.Result()
		}
		if len(key) == 0 {
			break
		}
		value := cr.Bytes("value")
		if cr.Err() != nil {
			return cr.Result()
		}
		if err := decoded.Insert(key, value); err != nil {
			cr.Fail(err)
			return cr.Result()
		}
	}
	*m = decoded
	return cr.Result()
}
