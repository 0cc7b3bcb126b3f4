package crypto

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

type Hash [HashSize]byte

// HashData returns the blake2b-256 digest of data.
func HashData(data []byte) Hash {
	return blake2b.Sum256(data)
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// DeriveKey builds a well-known key from a domain label. Derived keys have
// no private counterpart, so they can never sign.
func DeriveKey(label string) PublicKey {
	return PublicKey(HashData([]byte(label)))
}
