package crypto

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcutil/base58"
)

var (
	// ErrPublicOnly is returned when signing is requested from a key that
	// holds no private material.
	ErrPublicOnly = errors.New("key provider holds no private key")

	// ErrUnderivable is returned when a provider cannot derive the
	// requested path.
	ErrUnderivable = errors.New("path not derivable")
)

// KeyProvider is a source of signing keys addressed by BIP32 path relative
// to the key identified by Fingerprint.
type KeyProvider interface {
	// Fingerprint identifies the root key: the first four bytes of
	// HASH160 of its compressed public key.
	Fingerprint() [4]byte
	// PublicKey returns the compressed public key at path.
	PublicKey(ctx context.Context, path []uint32) ([]byte, error)
	// SignDigest returns a DER-encoded signature over digest made with the
	// key at path.
	SignDigest(ctx context.Context, path []uint32, digest [32]byte) ([]byte, error)
}

// Fingerprint returns the BIP32 fingerprint of a serialized public key.
func Fingerprint(pubKey []byte) [4]byte {
	var fp [4]byte
	h := Hash160(pubKey)
	copy(fp[:], h[:4])
	return fp
}

// HDKeyProvider derives keys from a BIP32 master key.
type HDKeyProvider struct {
	master      *hdkeychain.ExtendedKey
	fingerprint [4]byte
}

// NewHDKeyProvider wraps an extended private key as the derivation root.
func NewHDKeyProvider(master *hdkeychain.ExtendedKey) (*HDKeyProvider, error) {
	if !master.IsPrivate() {
		return nil, ErrPublicOnly
	}
	pub, err := master.ECPubKey()
	if err != nil {
		return nil, err
	}
	return &HDKeyProvider{
		master:      master,
		fingerprint: Fingerprint(pub.SerializeCompressed()),
	}, nil
}

// NewHDKeyProviderFromSeed derives the master key from seed.
func NewHDKeyProviderFromSeed(seed []byte, net *chaincfg.Params) (*HDKeyProvider, error) {
	master, err := hdkeychain.NewMaster(seed, net)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	return NewHDKeyProvider(master)
}

// NewHDKeyProviderFromString parses a base58 extended private key (xprv,
// tprv).
func NewHDKeyProviderFromString(xprv string) (*HDKeyProvider, error) {
	master, err := hdkeychain.NewKeyFromString(xprv)
	if err != nil {
		return nil, fmt.Errorf("parse extended key: %w", err)
	}
	return NewHDKeyProvider(master)
}

// Fingerprint implements KeyProvider.
func (h *HDKeyProvider) Fingerprint() [4]byte {
	return h.fingerprint
}

func (h *HDKeyProvider) derive(path []uint32) (*hdkeychain.ExtendedKey, error) {
	k := h.master
	for _, idx := range path {
		child, err := k.Derive(idx)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnderivable, FormatPath(path), err)
		}
		k = child
	}
	return k, nil
}

// PublicKey implements KeyProvider.
func (h *HDKeyProvider) PublicKey(ctx context.Context, path []uint32) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k, err := h.derive(path)
	if err != nil {
		return nil, err
	}
	pub, err := k.ECPubKey()
	if err != nil {
		return nil, err
	}
	return pub.SerializeCompressed(), nil
}

// SignDigest implements KeyProvider.
func (h *HDKeyProvider) SignDigest(ctx context.Context, path []uint32, digest [32]byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k, err := h.derive(path)
	if err != nil {
		return nil, err
	}
	priv, err := k.ECPrivKey()
	if err != nil {
		return nil, err
	}
	return (&PrivateKey{key: priv}).Sign(digest), nil
}

// ExtendedPublicKey returns the 78-byte serialization of the extended
// public key at path, as carried in global xpub entries.
func (h *HDKeyProvider) ExtendedPublicKey(path []uint32) ([78]byte, error) {
	var out [78]byte
	k, err := h.derive(path)
	if err != nil {
		return out, err
	}
	pub, err := k.Neuter()
	if err != nil {
		return out, err
	}
	// base58check: 78 payload bytes followed by a 4 byte checksum.
	raw := base58.Decode(pub.String())
	if len(raw) != 82 {
		return out, fmt.Errorf("unexpected extended key length %d", len(raw))
	}
	copy(out[:], raw[:78])
	return out, nil
}

// SingleKeyProvider serves one key. It is addressed by the empty path.
type SingleKeyProvider struct {
	key    *PrivateKey
	pubKey []byte
}

// NewSingleKeyProvider wraps key.
func NewSingleKeyProvider(key *PrivateKey) *SingleKeyProvider {
	return &SingleKeyProvider{key: key, pubKey: key.PublicKey().Bytes()}
}

// Fingerprint implements KeyProvider.
func (s *SingleKeyProvider) Fingerprint() [4]byte {
	return Fingerprint(s.pubKey)
}

func (s *SingleKeyProvider) check(path []uint32) error {
	if len(path) != 0 {
		return fmt.Errorf("%w: single key cannot derive %s", ErrUnderivable, FormatPath(path))
	}
	return nil
}

// PublicKey implements KeyProvider.
func (s *SingleKeyProvider) PublicKey(ctx context.Context, path []uint32) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.check(path); err != nil {
		return nil, err
	}
	return s.pubKey, nil
}

// SignDigest implements KeyProvider.
func (s *SingleKeyProvider) SignDigest(ctx context.Context, path []uint32, digest [32]byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.check(path); err != nil {
		return nil, err
	}
	return s.key.Sign(digest), nil
}
