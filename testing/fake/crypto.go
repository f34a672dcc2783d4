package fake

import "github.com/kai-tanaka-dev/SecretSphere/crypto"

// Signature is a fake signature.
//
// - implements crypto.Signature
type Signature struct {
	Err error
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (sig Signature) MarshalBinary() ([]byte, error) {
	return []byte{0xfe}, sig.Err
}

// Equal implements crypto.Signature.
func (sig Signature) Equal(other crypto.Signature) bool {
	_, ok := other.(Signature)

	return ok
}

// Signer is a fake signer.
//
// - implements crypto.Signer
type Signer struct {
	PubKey PublicKey
	Err    error
}

// NewSigner returns a fake signer.
func NewSigner() Signer {
	return Signer{}
}

// NewBadSigner returns a fake signer that returns an error when appropriate.
func NewBadSigner() Signer {
	return Signer{Err: fakeErr}
}

// GetPublicKey implements crypto.Signer.
func (s Signer) GetPublicKey() crypto.PublicKey {
	return s.PubKey
}

// Sign implements crypto.Signer.
func (s Signer) Sign([]byte) (crypto.Signature, error) {
	return Signature{}, s.Err
}
