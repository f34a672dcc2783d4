package mem

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/kai-tanaka-dev/SecretSphere/core/store"
	"golang.org/x/xerrors"
)

func TestTrie_GetSet(t *testing.T) {
	trie := NewTrie()

	val, err := trie.Get([]byte("ping"))
	require.NoError(t, err)
	require.Nil(t, val)

	err = trie.Set([]byte("ping"), []byte("pong"))
	require.NoError(t, err)

	val, err = trie.Get([]byte("ping"))
	require.NoError(t, err)
	require.Equal(t, []byte("pong"), val)
}

func TestTrie_Delete(t *testing.T) {
	trie := NewTrie()

	require.NoError(t, trie.Set([]byte("ping"), []byte("pong")))
	require.NoError(t, trie.Delete([]byte("ping")))

	val, err := trie.Get([]byte("ping"))
	require.NoError(t, err)
	require.Nil(t, val)
}

func TestTrie_Stage(t *testing.T) {
	trie := NewTrie()

	require.NoError(t, trie.Set([]byte("a"), []byte{1}))

	err := trie.Stage(func(snap store.Snapshot) error {
		require.NoError(t, snap.Set([]byte("b"), []byte{2}))

		// The parent value is visible from the child.
		val, err := snap.Get([]byte("a"))
		require.NoError(t, err)
		require.Equal(t, []byte{1}, val)

		return nil
	})
	require.NoError(t, err)

	val, err := trie.Get([]byte("b"))
	require.NoError(t, err)
	require.Equal(t, []byte{2}, val)
}

func TestTrie_StageRollback(t *testing.T) {
	trie := NewTrie()

	require.NoError(t, trie.Set([]byte("a"), []byte{1}))

	err := trie.Stage(func(snap store.Snapshot) error {
		require.NoError(t, snap.Set([]byte("a"), []byte{2}))
		require.NoError(t, snap.Set([]byte("b"), []byte{3}))

		return xerrors.New("rejected")
	})
	require.EqualError(t, err, "rejected")

	val, err := trie.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte{1}, val)

	val, err = trie.Get([]byte("b"))
	require.NoError(t, err)
	require.Nil(t, val)
}

func TestTrie_StageDelete(t *testing.T) {
	trie := NewTrie()

	require.NoError(t, trie.Set([]byte("a"), []byte{1}))

	err := trie.Stage(func(snap store.Snapshot) error {
		return snap.Delete([]byte("a"))
	})
	require.NoError(t, err)

	val, err := trie.Get([]byte("a"))
	require.NoError(t, err)
	require.Nil(t, val)
}
