// Package execution defines the primitives to execute a transaction on a
// contract.
package execution

import "github.com/kai-tanaka-dev/SecretSphere/core/txn"

// Step is the input of a contract execution. It gives the current transaction
// and the previous transactions of the same batch that have already been
// accepted.
type Step struct {
	Previous []txn.Transaction

	Current txn.Transaction
}

// Result is the result of a transaction execution.
type Result struct {
	// Accepted is the success state of the transaction.
	Accepted bool

	// Message gives a chance to the execution to explain why a transaction
	// has failed.
	Message string
}
