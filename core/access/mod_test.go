package access

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContractCredential(t *testing.T) {
	creds := NewContractCreds([]byte{0xaa}, "Example", "all")

	require.Equal(t, []byte{0xaa}, creds.GetID())
	require.Equal(t, "Example:all", creds.GetRule())

	// The identifier is copied so the caller cannot mutate the credential.
	id := creds.GetID()
	id[0] = 0xbb
	require.Equal(t, []byte{0xaa}, creds.GetID())
}
