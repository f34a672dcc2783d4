package fake

import (
	"github.com/kai-tanaka-dev/SecretSphere/core/access"
	"github.com/kai-tanaka-dev/SecretSphere/core/store"
	"github.com/kai-tanaka-dev/SecretSphere/crypto"
)

// PublicKey is a fake identity.
//
// - implements access.Identity
// - implements crypto.PublicKey
type PublicKey struct {
	Text string
	Err  error
}

// MarshalText implements encoding.TextMarshaler.
func (pk PublicKey) MarshalText() ([]byte, error) {
	if pk.Err != nil {
		return nil, pk.Err
	}

	if pk.Text != "" {
		return []byte(pk.Text), nil
	}

	return []byte("fake.PublicKey"), nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (pk PublicKey) MarshalBinary() ([]byte, error) {
	if pk.Err != nil {
		return nil, pk.Err
	}

	return pk.MarshalText()
}

// Equal implements crypto.PublicKey.
func (pk PublicKey) Equal(other crypto.PublicKey) bool {
	o, ok := other.(PublicKey)

	return ok && o.Text == pk.Text
}

// Verify implements crypto.PublicKey.
func (pk PublicKey) Verify([]byte, crypto.Signature) error {
	return pk.Err
}

// String implements fmt.Stringer.
func (pk PublicKey) String() string {
	text, err := pk.MarshalText()
	if err != nil {
		return "fake.PublicKey[malformed]"
	}

	return string(text)
}

// NewBadPublicKey returns an identity that fails to marshal.
func NewBadPublicKey() PublicKey {
	return PublicKey{Err: fakeErr}
}

// AccessService is a fake access service.
//
// - implements access.Service
type AccessService struct {
	ErrMatch error
	ErrGrant error

	Calls *Call
}

// NewAccessService returns a fake access service that accepts everything.
func NewAccessService() AccessService {
	return AccessService{}
}

// NewBadAccessService returns a fake access service that refuses everything.
func NewBadAccessService() AccessService {
	return AccessService{ErrMatch: fakeErr, ErrGrant: fakeErr}
}

// Match implements access.Service.
func (srvc AccessService) Match(store.Readable, access.Credential, ...access.Identity) error {
	return srvc.ErrMatch
}

// Grant implements access.Service.
func (srvc AccessService) Grant(snap store.Snapshot, creds access.Credential, idents ...access.Identity) error {
	if srvc.Calls != nil {
		srvc.Calls.Add(creds, idents)
	}

	return srvc.ErrGrant
}
