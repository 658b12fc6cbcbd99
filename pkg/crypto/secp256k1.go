// Package crypto holds the key material used to sign transaction inputs:
// secp256k1 keys, the hash functions scripts commit to, BIP32 derivation
// paths and the KeyProvider implementations signers draw keys from.
//
// Key formats:
//   - Private keys: WIF (Wallet Import Format) or raw 32 bytes
//   - Public keys: compressed 33-byte SEC encoding; 65-byte uncompressed
//     keys are accepted when parsing
//   - Signatures: DER-encoded, low-S
package crypto

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// WIF version bytes.
const (
	WIFMainNet byte = 0x80
	WIFTestNet byte = 0xef
)

var (
	// ErrInvalidWIF is returned for malformed WIF strings.
	ErrInvalidWIF = errors.New("invalid WIF")

	// ErrInvalidSignature is returned when a signature does not verify
	// against the key that supposedly produced it.
	ErrInvalidSignature = errors.New("invalid signature")
)

// PrivateKey wraps a secp256k1 private key.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// PublicKey wraps a secp256k1 public key.
type PublicKey struct {
	key *secp256k1.PublicKey
}

// NewPrivateKey generates a random key.
func NewPrivateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// ParsePrivateKeyWIF parses a WIF-encoded private key. The returned flag
// reports whether the key is meant to be used with a compressed public key.
func ParsePrivateKeyWIF(wif string) (*PrivateKey, bool, error) {
	raw, compressed, err := decodeWIF(wif)
	if err != nil {
		return nil, false, err
	}
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(raw)}, compressed, nil
}

// PrivateKeyFromBytes creates a private key from raw bytes.
func PrivateKeyFromBytes(keyBytes []byte) (*PrivateKey, error) {
	if len(keyBytes) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(keyBytes))
	}
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(keyBytes)}, nil
}

// Sign creates a deterministic (RFC 6979) low-S ECDSA signature over digest
// and returns its DER encoding.
func (pk *PrivateKey) Sign(digest [32]byte) []byte {
	return ecdsa.Sign(pk.key, digest[:]).Serialize()
}

// PublicKey derives the public key.
func (pk *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{key: pk.key.PubKey()}
}

// Bytes returns the raw 32-byte private key.
func (pk *PrivateKey) Bytes() []byte {
	return pk.key.Serialize()
}

// WIF encodes the key for the given version byte.
func (pk *PrivateKey) WIF(version byte, compressed bool) string {
	return EncodeWIF(pk.key.Serialize(), version, compressed)
}

// Bytes returns the compressed public key bytes.
func (pub *PublicKey) Bytes() []byte {
	return pub.key.SerializeCompressed()
}

// Uncompressed returns the 65-byte uncompressed encoding.
func (pub *PublicKey) Uncompressed() []byte {
	return pub.key.SerializeUncompressed()
}

// Hash160 returns the hash committed to by P2PKH and P2WPKH outputs paying
// to the compressed key.
func (pub *PublicKey) Hash160() [20]byte {
	return Hash160(pub.Bytes())
}

// ParsePublicKey parses a compressed or uncompressed SEC public key.
func ParsePublicKey(pubKeyBytes []byte) (*PublicKey, error) {
	if len(pubKeyBytes) != 33 && len(pubKeyBytes) != 65 {
		return nil, fmt.Errorf("public key must be 33 or 65 bytes, got %d", len(pubKeyBytes))
	}
	pubKey, err := secp256k1.ParsePubKey(pubKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return &PublicKey{key: pubKey}, nil
}

// VerifySignature verifies a DER-encoded ECDSA signature over digest.
func VerifySignature(pubkey *PublicKey, digest [32]byte, signature []byte) bool {
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false
	}
	return sig.Verify(digest[:], pubkey.key)
}

// verifyEncoded checks signature against a serialized public key.
func verifyEncoded(pubKey []byte, digest [32]byte, signature []byte) error {
	pub, err := ParsePublicKey(pubKey)
	if err != nil {
		return err
	}
	if !VerifySignature(pub, digest, signature) {
		return ErrInvalidSignature
	}
	return nil
}

// decodeWIF decodes version || key (32 bytes) || [0x01] || checksum (4 bytes).
func decodeWIF(wif string) ([]byte, bool, error) {
	decoded := base58.Decode(wif)
	if len(decoded) != 37 && len(decoded) != 38 {
		return nil, false, fmt.Errorf("%w: length %d", ErrInvalidWIF, len(decoded))
	}

	version := decoded[0]
	if version != WIFMainNet && version != WIFTestNet {
		return nil, false, fmt.Errorf("%w: version byte 0x%02x", ErrInvalidWIF, version)
	}

	checksumOffset := len(decoded) - 4
	payload := decoded[:checksumOffset]
	sum := DoubleSHA256(payload)
	if !bytes.Equal(decoded[checksumOffset:], sum[:4]) {
		return nil, false, fmt.Errorf("%w: checksum mismatch", ErrInvalidWIF)
	}

	compressed := len(payload) == 34
	if compressed && payload[33] != 0x01 {
		return nil, false, fmt.Errorf("%w: compression flag 0x%02x", ErrInvalidWIF, payload[33])
	}
	return payload[1:33], compressed, nil
}

// EncodeWIF encodes a raw 32-byte private key.
func EncodeWIF(privateKey []byte, version byte, compressed bool) string {
	payload := make([]byte, 0, 38)
	payload = append(payload, version)
	payload = append(payload, privateKey...)
	if compressed {
		payload = append(payload, 0x01)
	}
	sum := DoubleSHA256(payload)
	payload = append(payload, sum[:4]...)
	return base58.Encode(payload)
}
