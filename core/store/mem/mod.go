// Package mem implements an in-memory store. It keeps the writes of a staged
// snapshot separate from its parent so that a rejected execution can simply
// drop the child.
package mem

import "github.com/kai-tanaka-dev/SecretSphere/core/store"

// Trie is an in-memory key/value store. It saves the updates in an internal
// map and only keeps the updates of the current layer. When reading, it looks
// up the parent layers if the key is not found.
//
// - implements store.Snapshot
type Trie struct {
	parent  *Trie
	store   map[string][]byte
	deleted map[string]struct{}
}

// NewTrie creates a new empty in-memory trie.
func NewTrie() *Trie {
	return &Trie{
		store:   make(map[string][]byte),
		deleted: make(map[string]struct{}),
	}
}

// Get implements store.Readable. It returns nil if the key is not set.
func (t *Trie) Get(key []byte) ([]byte, error) {
	str := string(key)

	if _, ok := t.deleted[str]; ok {
		return nil, nil
	}

	val, ok := t.store[str]
	if ok {
		return val, nil
	}

	if t.parent == nil {
		return nil, nil
	}

	return t.parent.Get(key)
}

// Set implements store.Writable.
func (t *Trie) Set(key, value []byte) error {
	str := string(key)

	delete(t.deleted, str)
	t.store[str] = value

	return nil
}

// Delete implements store.Writable.
func (t *Trie) Delete(key []byte) error {
	str := string(key)

	delete(t.store, str)
	t.deleted[str] = struct{}{}

	return nil
}

// Stage runs the function over a child trie and merges the writes back only
// when the function succeeds. An error drops every write of the child.
func (t *Trie) Stage(fn func(store.Snapshot) error) error {
	child := t.makeChild()

	err := fn(child)
	if err != nil {
		return err
	}

	for key, value := range child.store {
		t.store[key] = value
		delete(t.deleted, key)
	}

	for key := range child.deleted {
		delete(t.store, key)
		t.deleted[key] = struct{}{}
	}

	return nil
}

func (t *Trie) makeChild() *Trie {
	return &Trie{
		parent:  t,
		store:   make(map[string][]byte),
		deleted: make(map[string]struct{}),
	}
}
