package enclave

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/kai-tanaka-dev/SecretSphere/testing/fake"
)

func TestEnclave_MarshalBinary(t *testing.T) {
	e, err := NewEnclave()
	require.NoError(t, err)

	value, err := e.Constant(42)
	require.NoError(t, err)

	require.NoError(t, e.Grant(value.Handle, fake.PublicKey{Text: "tester"}))

	data, err := e.MarshalBinary()
	require.NoError(t, err)

	restored, err := NewEnclaveFromBytes(data)
	require.NoError(t, err)

	// The sealed table survives, grants included.
	plain, err := restored.Reveal(value.Handle, fake.PublicKey{Text: "tester"})
	require.NoError(t, err)
	require.Equal(t, uint32(42), plain)

	// Fresh handles do not collide with the restored ones.
	other, err := restored.Constant(1)
	require.NoError(t, err)
	require.False(t, other.Handle.Equal(value.Handle))
}

func TestNewEnclaveFromBytes_Malformed(t *testing.T) {
	_, err := NewEnclaveFromBytes([]byte("\x00"))
	require.Contains(t, err.Error(), "failed to unmarshal state")

	_, err = NewEnclaveFromBytes([]byte(`{"key":"AAA="}`))
	require.EqualError(t, err, "invalid sealing key length 2")

	_, err = NewEnclaveFromBytes([]byte(
		`{"key":"AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=","records":{"zz":{}}}`))
	require.Contains(t, err.Error(), "failed to decode handle")
}
