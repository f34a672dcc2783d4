package ed25519

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSigner_SignAndVerify(t *testing.T) {
	signer := NewSigner()

	sig, err := signer.Sign([]byte("deadbeef"))
	require.NoError(t, err)

	err = signer.GetPublicKey().Verify([]byte("deadbeef"), sig)
	require.NoError(t, err)

	err = signer.GetPublicKey().Verify([]byte("beefdead"), sig)
	require.Error(t, err)
}

func TestPublicKey_Equal(t *testing.T) {
	signer := NewSigner()

	pk := signer.GetPublicKey()
	require.True(t, pk.Equal(signer.GetPublicKey()))

	other := NewSigner()
	require.False(t, pk.Equal(other.GetPublicKey()))
}

func TestPublicKey_Marshal(t *testing.T) {
	signer := NewSigner()

	pk := signer.GetPublicKey().(PublicKey)

	data, err := pk.MarshalBinary()
	require.NoError(t, err)

	restored, err := NewPublicKey(data)
	require.NoError(t, err)
	require.True(t, pk.Equal(restored))

	text, err := pk.MarshalText()
	require.NoError(t, err)
	require.Contains(t, string(text), "schnorr:")

	require.Len(t, pk.String(), 8+16)
}

func TestSigner_Marshal(t *testing.T) {
	signer := NewSigner()

	data, err := signer.MarshalBinary()
	require.NoError(t, err)

	restored, err := NewSignerFromBytes(data)
	require.NoError(t, err)
	require.True(t, signer.GetPublicKey().Equal(restored.GetPublicKey()))

	sig, err := restored.Sign([]byte("deadbeef"))
	require.NoError(t, err)

	err = signer.GetPublicKey().Verify([]byte("deadbeef"), sig)
	require.NoError(t, err)

	_, err = NewSignerFromBytes([]byte{1, 2, 3})
	require.Contains(t, err.Error(), "couldn't unmarshal scalar")
}

func TestPublicKey_Verify_BadType(t *testing.T) {
	signer := NewSigner()

	err := signer.GetPublicKey().Verify([]byte{}, fakeSignature{})
	require.EqualError(t, err, "invalid signature type 'ed25519.fakeSignature'")
}

func TestSignature_Equal(t *testing.T) {
	sig := NewSignature([]byte{1, 2, 3})
	require.True(t, sig.Equal(NewSignature([]byte{1, 2, 3})))
	require.False(t, sig.Equal(NewSignature([]byte{3, 2, 1})))
	require.False(t, sig.Equal(fakeSignature{}))

	data, err := sig.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, data)
}

// -----------------------------------------------------------------------------
// Utility functions

type fakeSignature struct {
	Signature
}

func (fakeSignature) MarshalBinary() ([]byte, error) {
	return nil, nil
}
