// Package crypto defines the abstractions of the cryptographic primitives
// used by the node: hashing, randomness and digital signatures.
package crypto

import (
	"encoding"
	"hash"
)

// HashFactory is an interface to produce a hash digest.
type HashFactory interface {
	New() hash.Hash
}

// RandGenerator is an interface to generate random values with a defined
// length.
type RandGenerator interface {
	Read(buffer []byte) (int, error)
}

// PublicKey is a public identity that can be used to verify a signature.
type PublicKey interface {
	encoding.BinaryMarshaler
	encoding.TextMarshaler

	// Equal returns true when the two public keys are equal.
	Equal(other PublicKey) bool

	// Verify returns nil when the signature matches the message for this
	// public key.
	Verify(msg []byte, signature Signature) error
}

// Signature is a verifiable element for a unique message.
type Signature interface {
	encoding.BinaryMarshaler

	// Equal returns true when the two signatures are equal.
	Equal(other Signature) bool
}

// Signer provides the primitives to sign a message.
type Signer interface {
	// GetPublicKey returns the public key of the signer.
	GetPublicKey() PublicKey

	// Sign returns a signature that will match the message for the signer
	// public key.
	Sign(msg []byte) (Signature, error)
}
