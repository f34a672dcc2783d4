package enclave

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/kai-tanaka-dev/SecretSphere/fhe"
	"github.com/kai-tanaka-dev/SecretSphere/testing/fake"
)

func TestEnclave_Constant(t *testing.T) {
	e := makeEnclave(t)

	ct, err := e.Constant(42)
	require.NoError(t, err)
	require.Len(t, []byte(ct.Handle), fhe.HandleSize)

	require.Equal(t, uint32(42), reveal(t, e, ct.Handle))
}

func TestEnclave_Add(t *testing.T) {
	e := makeEnclave(t)

	a, err := e.Constant(40)
	require.NoError(t, err)
	b, err := e.Constant(2)
	require.NoError(t, err)

	sum, err := e.Add(a, b)
	require.NoError(t, err)
	require.Equal(t, uint32(42), reveal(t, e, sum.Handle))

	// The operands are left untouched.
	require.Equal(t, uint32(40), reveal(t, e, a.Handle))
	require.Equal(t, uint32(2), reveal(t, e, b.Handle))

	// The addition wraps around the native width.
	max, err := e.Constant(1<<32 - 1)
	require.NoError(t, err)

	wrapped, err := e.Add(max, b)
	require.NoError(t, err)
	require.Equal(t, uint32(1), reveal(t, e, wrapped.Handle))

	_, err = e.Add(fhe.EncryptedInt{Handle: fhe.Handle("no")}, b)
	require.EqualError(t, err, "unknown ciphertext handle[6e6f]")
}

func TestEnclave_Remainder(t *testing.T) {
	e := makeEnclave(t)

	a, err := e.Constant(47)
	require.NoError(t, err)

	rem, err := e.Remainder(a, 9)
	require.NoError(t, err)
	require.Equal(t, uint32(2), reveal(t, e, rem.Handle))

	_, err = e.Remainder(a, 0)
	require.EqualError(t, err, "modulus must be positive")

	_, err = e.Remainder(fhe.EncryptedInt{}, 9)
	require.EqualError(t, err, "unknown ciphertext handle[]")
}

func TestEnclave_Equals(t *testing.T) {
	e := makeEnclave(t)

	a, err := e.Constant(7)
	require.NoError(t, err)
	b, err := e.Constant(7)
	require.NoError(t, err)
	c, err := e.Constant(8)
	require.NoError(t, err)

	eq, err := e.Equals(a, b)
	require.NoError(t, err)
	require.Equal(t, uint32(1), reveal(t, e, eq.Handle))

	ne, err := e.Equals(a, c)
	require.NoError(t, err)
	require.Equal(t, uint32(0), reveal(t, e, ne.Handle))
}

func TestEnclave_Select(t *testing.T) {
	e := makeEnclave(t)

	yes, err := e.Constant(100)
	require.NoError(t, err)
	no, err := e.Constant(200)
	require.NoError(t, err)

	a, err := e.Constant(7)
	require.NoError(t, err)
	b, err := e.Constant(7)
	require.NoError(t, err)
	c, err := e.Constant(8)
	require.NoError(t, err)

	cond, err := e.Equals(a, b)
	require.NoError(t, err)

	out, err := e.Select(cond, yes, no)
	require.NoError(t, err)
	require.Equal(t, uint32(100), reveal(t, e, out.Handle))

	cond, err = e.Equals(a, c)
	require.NoError(t, err)

	out, err = e.Select(cond, yes, no)
	require.NoError(t, err)
	require.Equal(t, uint32(200), reveal(t, e, out.Handle))
}

func TestEnclave_Random(t *testing.T) {
	e := makeEnclave(t)

	seen := map[uint32]struct{}{}

	for i := 0; i < 16; i++ {
		ct, err := e.Random()
		require.NoError(t, err)

		seen[reveal(t, e, ct.Handle)] = struct{}{}
	}

	// 16 uniform draws over 32 bits collide with negligible probability.
	require.Greater(t, len(seen), 1)
}

func TestEnclave_SealAndImport(t *testing.T) {
	e := makeEnclave(t)

	handle, proof, err := e.Seal(9, []byte("player"))
	require.NoError(t, err)

	ct, err := e.FromExternal(handle, proof)
	require.NoError(t, err)
	require.Equal(t, uint32(9), reveal(t, e, ct.Handle))

	// A handle cannot be imported twice.
	_, err = e.FromExternal(handle, proof)
	require.EqualError(t, err, fhe.MessageProofInvalid)
}

func TestEnclave_FromExternal_BadProof(t *testing.T) {
	e := makeEnclave(t)

	handle, proof, err := e.Seal(9, []byte("player"))
	require.NoError(t, err)

	tampered := append([]byte{}, proof...)
	tampered[0] ^= 0xff

	_, err = e.FromExternal(handle, tampered)
	require.EqualError(t, err, fhe.MessageProofInvalid)

	_, err = e.FromExternal([]byte("unknown"), proof)
	require.EqualError(t, err, fhe.MessageProofInvalid)
}

func TestEnclave_GrantScope(t *testing.T) {
	e := makeEnclave(t)

	owner := fake.PublicKey{Text: "owner"}
	stranger := fake.PublicKey{Text: "stranger"}

	ct, err := e.Constant(42)
	require.NoError(t, err)

	// Freshly sealed values cannot be revealed by anyone.
	_, err = e.Reveal(ct.Handle, owner)
	require.Error(t, err)
	require.Contains(t, err.Error(), "is not granted to decrypt")

	require.NoError(t, e.GrantSelf(ct.Handle))
	require.NoError(t, e.Grant(ct.Handle, owner))

	value, err := e.Reveal(ct.Handle, owner)
	require.NoError(t, err)
	require.Equal(t, uint32(42), value)

	// The grant is bound to the identity, not to the record.
	_, err = e.Reveal(ct.Handle, stranger)
	require.EqualError(t, err,
		"stranger is not granted to decrypt "+ct.Handle.String())
}

func TestEnclave_Grant_Errors(t *testing.T) {
	e := makeEnclave(t)

	err := e.GrantSelf(fhe.Handle("no"))
	require.EqualError(t, err, "unknown ciphertext handle[6e6f]")

	err = e.Grant(fhe.Handle("no"), fake.PublicKey{})
	require.EqualError(t, err, "unknown ciphertext handle[6e6f]")

	ct, err := e.Constant(1)
	require.NoError(t, err)

	err = e.Grant(ct.Handle, fake.NewBadPublicKey())
	require.EqualError(t, err, fake.Err("failed to marshal identity"))

	_, err = e.Reveal(ct.Handle, fake.NewBadPublicKey())
	require.EqualError(t, err, fake.Err("failed to marshal identity"))
}

// -----------------------------------------------------------------------------
// Utility functions

func makeEnclave(t *testing.T) *Enclave {
	e, err := NewEnclave()
	require.NoError(t, err)

	return e
}

// reveal grants the test identity on the handle and reads the value back.
func reveal(t *testing.T, e *Enclave, handle fhe.Handle) uint32 {
	ident := fake.PublicKey{Text: "tester"}

	require.NoError(t, e.Grant(handle, ident))

	value, err := e.Reveal(handle, ident)
	require.NoError(t, err)

	return value
}
