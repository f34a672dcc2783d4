// Package types defines the structures stored and emitted by the lottery
// contract.
package types

import "github.com/kai-tanaka-dev/SecretSphere/fhe"

// PlayerRecord is the per-player state of the lottery. Every ciphertext field
// is an opaque handle: the plaintext stays in the algebra backend and only
// the player and the system hold a decrypt capability on it.
type PlayerRecord struct {
	// FirstGuess and SecondGuess are the ciphertexts of the digits chosen at
	// the last ticket purchase.
	FirstGuess  fhe.Handle `json:"firstGuess,omitempty"`
	SecondGuess fhe.Handle `json:"secondGuess,omitempty"`

	// Points is the running total of the rewards. It is meaningful only when
	// HasPoints is true.
	Points fhe.Handle `json:"points,omitempty"`

	// LastWinningFirst and LastWinningSecond are the ciphertexts of the most
	// recent draw. They are meaningful only when HasResult is true.
	LastWinningFirst  fhe.Handle `json:"lastWinningFirst,omitempty"`
	LastWinningSecond fhe.Handle `json:"lastWinningSecond,omitempty"`

	// HasTicket is true between a purchase and the following draw.
	HasTicket bool `json:"hasTicket"`

	// HasResult is true once at least one draw has completed since the last
	// purchase.
	HasResult bool `json:"hasResult"`

	// HasPoints is true once at least one reward has been accrued. It
	// distinguishes zero points from never having played.
	HasPoints bool `json:"hasPoints"`
}

// Stats is the plaintext, public view of the lottery counters.
type Stats struct {
	TotalTickets uint64
	TotalDraws   uint64
	Balance      uint64
}

// TicketPurchased is the event notified after a successful ticket purchase.
// It carries no ciphertext value.
type TicketPurchased struct {
	ID     string
	Player string
}

// DrawCompleted is the event notified after a successful draw. It carries no
// ciphertext value.
type DrawCompleted struct {
	ID     string
	Player string
}
