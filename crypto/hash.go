package crypto

import (
	"crypto/sha256"
	"hash"

	"golang.org/x/crypto/sha3"
)

// HashAlgorithm is the supported hash algorithms.
type HashAlgorithm int

const (
	// Sha256 is the SHA-256 algorithm.
	Sha256 HashAlgorithm = iota

	// Sha3_224 is the SHA3-224 algorithm.
	Sha3_224
)

// hashFactory is a hash factory that is using SHA algorithms.
//
// - implements crypto.HashFactory
type hashFactory struct {
	hashType HashAlgorithm
}

// NewHashFactory returns a new instance of the factory.
func NewHashFactory(a HashAlgorithm) HashFactory {
	return hashFactory{a}
}

// NewSha256Factory returns a factory for SHA-256 digests.
func NewSha256Factory() HashFactory {
	return hashFactory{Sha256}
}

// New implements crypto.HashFactory. It returns a new hash instance.
func (f hashFactory) New() hash.Hash {
	switch f.hashType {
	case Sha256:
		return sha256.New()
	case Sha3_224:
		return sha3.New224()
	default:
		panic("unknown hash type")
	}
}
