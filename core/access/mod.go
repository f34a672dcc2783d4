// Package access defines the interfaces for the access rights control of the
// contracts.
package access

import (
	"encoding"
	"fmt"

	"github.com/kai-tanaka-dev/SecretSphere/core/store"
)

// Identity is an abstraction to uniquely identify a signer.
type Identity interface {
	encoding.TextMarshaler
}

// Credential is an abstraction of an access control credential: an identifier
// bound to a rule that the holder is allowed to exercise.
type Credential interface {
	// GetID returns the identifier of the credential.
	GetID() []byte

	// GetRule returns the rule of the credential.
	GetRule() string
}

// Service is an abstraction to verify and grant accesses.
type Service interface {
	// Match returns nil when the group of identities have access to the
	// given credential, otherwise a meaningful error on the reason why it
	// does not have access.
	Match(store store.Readable, creds Credential, idents ...Identity) error

	// Grant updates or creates the credential and grants the access to the
	// group of identities.
	Grant(store store.Snapshot, creds Credential, idents ...Identity) error
}

// ContractCredential defines the credential for a contract. It contains the
// name of the contract and an associated command.
//
// - implements access.Credential
type ContractCredential struct {
	id       []byte
	contract string
	command  string
}

// NewContractCreds creates new credential from the associated identifier, the
// name of the contract and its command.
func NewContractCreds(id []byte, contract, command string) ContractCredential {
	return ContractCredential{
		id:       id,
		contract: contract,
		command:  command,
	}
}

// GetID implements access.Credential. It returns the identifier of the
// credential.
func (cc ContractCredential) GetID() []byte {
	return append([]byte{}, cc.id...)
}

// GetRule implements access.Credential. It returns the scope of the
// credential.
func (cc ContractCredential) GetRule() string {
	return fmt.Sprintf("%s:%s", cc.contract, cc.command)
}
