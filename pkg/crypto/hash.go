package crypto

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"golang.org/x/crypto/ripemd160"
)

// SHA256 returns SHA-256(data).
func SHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// DoubleSHA256 returns SHA-256(SHA-256(data)), the digest used for TXIDs,
// sighashes and checksums.
func DoubleSHA256(data []byte) [32]byte {
	return chainhash.DoubleHashH(data)
}

// RIPEMD160 returns RIPEMD-160(data).
func RIPEMD160(data []byte) [20]byte {
	h := ripemd160.New()
	h.Write(data)

	var digest [20]byte
	copy(digest[:], h.Sum(nil))
	return digest
}

// Hash160 returns RIPEMD-160(SHA-256(data)), the hash committed to by
// pay-to-pubkey-hash and pay-to-script-hash outputs.
func Hash160(data []byte) [20]byte {
	sum := sha256.Sum256(data)
	return RIPEMD160(sum[:])
}
