// Package codec implements the Bitcoin wire primitives shared by every
// serializable type in this module.
//
// Encoding conventions:
//   - Integers are little-endian and fixed width unless noted otherwise.
//   - Counts and byte-string lengths use the CompactSize variable-length
//     integer ("VarInt"), always in its minimal form.
//   - A vector is VarInt(count) followed by the concatenated item encodings.
//
// Types that can be written implement Serializable (SerializedLength plus
// io.WriterTo). Types that can be read implement io.ReaderFrom on their
// pointer receiver, which lets ReadVector decode slices of them generically.
package codec
