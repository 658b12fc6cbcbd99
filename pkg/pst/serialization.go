package pst

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/suffix-labs/btc-pst/pkg/codec"
)

// magic is "psbt" followed by the 0xff separator.
var magic = []byte{0x70, 0x73, 0x62, 0x74, 0xff}

// SerializedLength returns the encoded size of p.
func (p *PST) SerializedLength() int {
	size := len(magic) + p.Global.SerializedLength()
	for i := range p.Inputs {
		size += p.Inputs[i].SerializedLength()
	}
	for i := range p.Outputs {
		size += p.Outputs[i].SerializedLength()
	}
	return size
}

// WriteTo writes the binary encoding of p.
func (p *PST) WriteTo(w io.Writer) (int64, error) {
	cw := codec.NewWriter(w)
	cw.Raw(magic)
	cw.Item(&p.Global.Map)
	for i := range p.Inputs {
		cw.Item(&p.Inputs[i].Map)
	}
	for i := range p.Outputs {
		cw.Item(&p.Outputs[i].Map)
	}
	return cw.Result()
}

// Serialize returns the binary encoding of p.
func (p *PST) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(p.SerializedLength())
	if _, err := p.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Hex returns the hex encoding of p.
func (p *PST) Hex() (string, error) {
	raw, err := p.Serialize()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// Base64 returns the standard base64 encoding of p, the usual text form.
func (p *PST) Base64() (string, error) {
	raw, err := p.Serialize()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Parse decodes and validates a binary PST with the standard schemas.
func Parse(b []byte) (*PST, error) {
	return ParseWith(b, DefaultSchemas())
}

// ParseWith decodes b and validates every map against s. The number of
// input and output maps is taken from the unsigned transaction, which must
// be present. Trailing bytes are rejected.
func ParseWith(b []byte, s Schemas) (*PST, error) {
	if !bytes.HasPrefix(b, magic) {
		return nil, ErrBadMagic
	}
	r := bytes.NewReader(b[len(magic):])

	p := new(PST)
	if _, err := p.Global.ReadFrom(r); err != nil {
		return nil, &MapError{Scope: ScopeGlobal, Err: err}
	}
	if err := s.Global.Validate(&p.Global.Map); err != nil {
		return nil, &MapError{Scope: ScopeGlobal, Err: err}
	}
	t, err := p.Global.UnsignedTx()
	if err != nil {
		return nil, &MapError{Scope: ScopeGlobal, Err: err}
	}

	p.Inputs = make([]Input, t.NumInputs())
	for i := range p.Inputs {
		if _, err := p.Inputs[i].ReadFrom(r); err != nil {
			return nil, &MapError{Scope: ScopeInput, Index: i, Err: err}
		}
	}
	p.Outputs = make([]Output, t.NumOutputs())
	for i := range p.Outputs {
		if _, err := p.Outputs[i].ReadFrom(r); err != nil {
			return nil, &MapError{Scope: ScopeOutput, Index: i, Err: err}
		}
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after last map", r.Len())
	}

	if err := p.validate(s); err != nil {
		return nil, err
	}
	return p, nil
}

// ParseHex decodes a hex-encoded PST.
func ParseHex(s string) (*PST, error) {
	raw, err := codec.DecodeHex(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// ParseBase64 decodes a base64-encoded PST.
func ParseBase64(s string) (*PST, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("decoding base64: %w", err)
	}
	return Parse(raw)
}

// ParseText accepts the binary, hex or base64 form, as found in files.
func ParseText(b []byte) (*PST, error) {
	if bytes.HasPrefix(b, magic) {
		return Parse(b)
	}
	text := strings.TrimSpace(string(b))
	if strings.HasPrefix(text, hex.EncodeToString(magic)) {
		return ParseHex(text)
	}
	return ParseBase64(text)
}
