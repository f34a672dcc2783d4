// Package fhe defines the boundary to an encrypted-integer algebra.
//
// The algebra operates on opaque ciphertext handles. No plaintext ever
// crosses this boundary upward: a component using the algebra can combine,
// compare and select ciphertexts, but reading a value requires a decrypt
// capability and goes through an off-chain protocol. Conditional logic over
// ciphertexts must use Select so that the execution path never depends on an
// encrypted value.
package fhe

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/kai-tanaka-dev/SecretSphere/core/access"
	"golang.org/x/xerrors"
)

// HandleSize is the size in bytes of a ciphertext handle.
const HandleSize = 32

// Handle is an opaque reference to a ciphertext held by the algebra backend.
type Handle []byte

// MarshalText implements encoding.TextMarshaler. It returns the hexadecimal
// representation of the handle.
func (h Handle) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(h)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Handle) UnmarshalText(text []byte) error {
	data, err := hex.DecodeString(string(text))
	if err != nil {
		return xerrors.Errorf("couldn't decode handle: %v", err)
	}

	*h = data

	return nil
}

// Equal returns true when both handles reference the same ciphertext.
func (h Handle) Equal(other Handle) bool {
	return bytes.Equal(h, other)
}

// String implements fmt.Stringer. It returns a shortened hexadecimal
// representation of the handle.
func (h Handle) String() string {
	if len(h) < 4 {
		return fmt.Sprintf("handle[%x]", []byte(h))
	}

	return fmt.Sprintf("handle[%x]", []byte(h[:4]))
}

// EncryptedInt is a handle to an encrypted 32-bit unsigned integer.
type EncryptedInt struct {
	Handle Handle
}

// EncryptedBool is a handle to an encrypted boolean, the result of an
// encrypted comparison.
type EncryptedBool struct {
	Handle Handle
}

// Algebra provides the operations over encrypted integers. Every operation
// returns a fresh ciphertext; the operands are never modified.
type Algebra interface {
	// Constant returns a ciphertext of the plaintext value.
	Constant(value uint32) (EncryptedInt, error)

	// Add returns a ciphertext of the sum of both operands, modulo 2^32.
	Add(a, b EncryptedInt) (EncryptedInt, error)

	// Remainder returns a ciphertext of the remainder of the division of the
	// operand by the plaintext modulus.
	Remainder(a EncryptedInt, modulus uint32) (EncryptedInt, error)

	// Equals returns an encrypted boolean of the equality of both operands.
	Equals(a, b EncryptedInt) (EncryptedBool, error)

	// Select returns a ciphertext equal to ifTrue when the condition holds,
	// otherwise equal to ifFalse. The selection is performed over the
	// ciphertexts so the taken branch is never observable.
	Select(cond EncryptedBool, ifTrue, ifFalse EncryptedInt) (EncryptedInt, error)

	// Random returns a ciphertext of a uniform random value over the native
	// 32-bit width.
	Random() (EncryptedInt, error)

	// FromExternal validates an externally produced ciphertext against its
	// correctness proof and imports it. It returns an error containing
	// MessageProofInvalid when the proof does not match.
	FromExternal(handle, proof []byte) (EncryptedInt, error)

	// GrantSelf gives the executing system a standing decrypt capability on
	// the ciphertext.
	GrantSelf(handle Handle) error

	// Grant gives the identity a standing decrypt capability on the
	// ciphertext.
	Grant(handle Handle, ident access.Identity) error
}

// MessageProofInvalid is the failure reason returned when an external
// ciphertext does not match its correctness proof.
const MessageProofInvalid = "proof invalid"
