// Package lottery implements a confidential lottery as a native contract.
//
// A player buys a ticket by submitting two encrypted digit guesses with their
// correctness proofs and the exact ticket price. A later draw generates two
// encrypted winning digits in [1,9] and accrues an encrypted reward based on
// how many guesses match: 1000 points for both, 100 for exactly one, 0
// otherwise. The reward computation never branches on a plaintext. Every
// ciphertext produced by the contract carries exactly two standing decrypt
// capabilities, the system itself and the owning player, so anyone can read
// the handles but only the player can learn the values.
package lottery

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/xid"
	secretsphere "github.com/kai-tanaka-dev/SecretSphere"
	"github.com/kai-tanaka-dev/SecretSphere/core"
	"github.com/kai-tanaka-dev/SecretSphere/core/access"
	"github.com/kai-tanaka-dev/SecretSphere/core/execution"
	"github.com/kai-tanaka-dev/SecretSphere/core/execution/native"
	"github.com/kai-tanaka-dev/SecretSphere/core/store"
	"github.com/kai-tanaka-dev/SecretSphere/contracts/lottery/types"
	"github.com/kai-tanaka-dev/SecretSphere/fhe"
	"golang.org/x/xerrors"
)

// commands defines the commands of the lottery contract. This interface helps
// in testing the contract.
type commands interface {
	buy(snap store.Snapshot, step execution.Step) error
	draw(snap store.Snapshot, step execution.Step) error
	withdraw(snap store.Snapshot, step execution.Step) error
	read(snap store.Snapshot, step execution.Step) error
	stats(snap store.Snapshot) error
}

const (
	// ContractName is the name of the contract.
	ContractName = "github.com/kai-tanaka-dev/SecretSphere.Lottery"

	// ContractUID is the unique 4-byte identifier of the contract.
	ContractUID = "LOTT"

	// TicketPrice is the exact payment required to buy a ticket, in base
	// units.
	TicketPrice uint64 = 1_000_000

	// FirstGuessArg is the argument's name in the transaction that contains
	// the handle of the first encrypted guess.
	FirstGuessArg = "lottery:first_guess"

	// FirstProofArg is the argument's name in the transaction that contains
	// the correctness proof of the first encrypted guess.
	FirstProofArg = "lottery:first_proof"

	// SecondGuessArg is the argument's name in the transaction that contains
	// the handle of the second encrypted guess.
	SecondGuessArg = "lottery:second_guess"

	// SecondProofArg is the argument's name in the transaction that contains
	// the correctness proof of the second encrypted guess.
	SecondProofArg = "lottery:second_proof"

	// PaymentArg is the argument's name in the transaction that contains the
	// payment attached to a purchase, as a big-endian uint64.
	PaymentArg = "lottery:payment"

	// RecipientArg is the argument's name in the transaction that contains
	// the recipient of a withdrawal.
	RecipientArg = "lottery:recipient"

	// AmountArg is the argument's name in the transaction that contains the
	// amount of a withdrawal, as a big-endian uint64.
	AmountArg = "lottery:amount"

	// PlayerArg is the argument's name in the transaction that contains the
	// marshaled identity of the player to read.
	PlayerArg = "lottery:player"

	// CmdArg is the argument's name to indicate the kind of command we want
	// to run on the contract. Should be one of the Command type.
	CmdArg = "lottery:command"

	// credentialAllCommand defines the credential command that is allowed to
	// perform all commands.
	credentialAllCommand = "all"
)

// Command defines a type of command for the lottery contract.
type Command string

const (
	// CmdBuy defines the command to buy a ticket.
	CmdBuy Command = "BUY"

	// CmdDraw defines the command to draw the winning digits and accrue the
	// reward of the active ticket.
	CmdDraw Command = "DRAW"

	// CmdWithdraw defines the command for the owner to withdraw funds.
	CmdWithdraw Command = "WITHDRAW"

	// CmdRead defines the command to display a player record.
	CmdRead Command = "READ"

	// CmdStats defines the command to display the plaintext counters.
	CmdStats Command = "STATS"
)

// Failure reasons of the contract. Every precondition violation aborts the
// command with one of those messages so callers can distinguish them.
const (
	messageTicketActive   = "ticket already active"
	messageNoActiveTicket = "no active ticket"
	messageNotOwner       = "only the owner can withdraw"
	messageBadRecipient   = "invalid recipient"

	notFoundInTxArg = "'%s' not found in tx arg"
)

// Storage keys of the contract. The snapshot is prefixed with the contract
// UID so those keys cannot collide with another contract.
const (
	keyTickets = "counter:tickets"
	keyDraws   = "counter:draws"
	keyBalance = "balance"

	playerPrefix = "player:"
)

// prometheus metrics
var (
	promTickets = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "secretsphere_lottery_tickets_total",
		Help: "total number of tickets sold",
	})

	promDraws = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "secretsphere_lottery_draws_total",
		Help: "total number of draws completed",
	})
)

func init() {
	secretsphere.PromCollectors = append(secretsphere.PromCollectors,
		promTickets, promDraws)
}

// Transferer moves funds out of the contract. The ledger's native value
// transfer is behind this boundary.
type Transferer interface {
	Transfer(recipient []byte, amount uint64) error
}

// NewCreds creates new credentials for a lottery contract execution.
func NewCreds(id []byte) access.Credential {
	return access.NewContractCreds(id, ContractName, credentialAllCommand)
}

// RegisterContract registers the lottery contract to the given execution
// service.
func RegisterContract(exec *native.Service, c Contract) {
	exec.Set(ContractName, c)
}

// Contract is the confidential lottery smart contract.
//
// - implements native.Contract
type Contract struct {
	// access is the access control service managing this smart contract.
	access access.Service

	// accessKey is the access identifier allowed to use this smart contract.
	accessKey []byte

	// algebra is the encrypted-integer algebra. The contract never sees a
	// plaintext guess, winning digit or reward through it.
	algebra fhe.Algebra

	// owner is the only identity allowed to withdraw the held funds.
	owner access.Identity

	// transferer executes the outgoing fund movements.
	transferer Transferer

	// watcher notifies the ticket and draw events.
	watcher core.Observable

	// cmd provides the commands that can be executed by this smart contract.
	cmd commands

	// printer is the output used by the READ and STATS commands.
	printer io.Writer
}

// NewContract creates a new lottery contract.
func NewContract(aKey []byte, srvc access.Service, algebra fhe.Algebra,
	owner access.Identity, transferer Transferer) Contract {

	contract := Contract{
		access:     srvc,
		accessKey:  aKey,
		algebra:    algebra,
		owner:      owner,
		transferer: transferer,
		watcher:    core.NewWatcher(),
		printer:    infoLog{},
	}

	contract.cmd = lotteryCommand{Contract: &contract}

	return contract
}

// UID implements native.Contract.
func (c Contract) UID() string {
	return ContractUID
}

// Watch registers the observer to be notified of the contract events.
func (c Contract) Watch(obs core.Observer) {
	c.watcher.Add(obs)
}

// Unwatch unregisters the observer.
func (c Contract) Unwatch(obs core.Observer) {
	c.watcher.Remove(obs)
}

// Execute implements native.Contract. It runs the appropriate command.
func (c Contract) Execute(snap store.Snapshot, step execution.Step) error {
	creds := NewCreds(c.accessKey)

	err := c.access.Match(snap, creds, step.Current.GetIdentity())
	if err != nil {
		return xerrors.Errorf("identity not authorized: %v (%v)",
			step.Current.GetIdentity(), err)
	}

	cmd := step.Current.GetArg(CmdArg)
	if len(cmd) == 0 {
		return xerrors.Errorf(notFoundInTxArg, CmdArg)
	}

	switch Command(cmd) {
	case CmdBuy:
		err := c.cmd.buy(snap, step)
		if err != nil {
			return xerrors.Errorf("failed to BUY: %v", err)
		}
	case CmdDraw:
		err := c.cmd.draw(snap, step)
		if err != nil {
			return xerrors.Errorf("failed to DRAW: %v", err)
		}
	case CmdWithdraw:
		err := c.cmd.withdraw(snap, step)
		if err != nil {
			return xerrors.Errorf("failed to WITHDRAW: %v", err)
		}
	case CmdRead:
		err := c.cmd.read(snap, step)
		if err != nil {
			return xerrors.Errorf("failed to READ: %v", err)
		}
	case CmdStats:
		err := c.cmd.stats(snap)
		if err != nil {
			return xerrors.Errorf("failed to STATS: %v", err)
		}
	default:
		return xerrors.Errorf("unknown command: %s", cmd)
	}

	return nil
}

// GetPlayer returns the record of the player. The handles are public: the
// privacy boundary is the decrypt capability, not the read access, so the
// caller identity is deliberately not checked here.
func (c Contract) GetPlayer(snap store.Readable, ident access.Identity) (types.PlayerRecord, error) {
	key, err := playerKey(ident)
	if err != nil {
		return types.PlayerRecord{}, err
	}

	return loadRecord(snap, key)
}

// GetStats returns the plaintext counters of the lottery.
func (c Contract) GetStats(snap store.Readable) (types.Stats, error) {
	tickets, err := loadUint64(snap, keyTickets)
	if err != nil {
		return types.Stats{}, xerrors.Errorf("failed to read tickets: %v", err)
	}

	draws, err := loadUint64(snap, keyDraws)
	if err != nil {
		return types.Stats{}, xerrors.Errorf("failed to read draws: %v", err)
	}

	balance, err := loadUint64(snap, keyBalance)
	if err != nil {
		return types.Stats{}, xerrors.Errorf("failed to read balance: %v", err)
	}

	return types.Stats{
		TotalTickets: tickets,
		TotalDraws:   draws,
		Balance:      balance,
	}, nil
}

// lotteryCommand implements the commands of the lottery contract.
//
// - implements commands
type lotteryCommand struct {
	*Contract
}

// buy implements commands. It performs the BUY command.
func (c lotteryCommand) buy(snap store.Snapshot, step execution.Step) error {
	payment := step.Current.GetArg(PaymentArg)
	if len(payment) == 0 {
		return xerrors.Errorf(notFoundInTxArg, PaymentArg)
	}

	if len(payment) != 8 {
		return xerrors.Errorf("invalid payment: expected 8 bytes, got %d",
			len(payment))
	}

	amount := binary.BigEndian.Uint64(payment)
	if amount != TicketPrice {
		return xerrors.Errorf("invalid payment: got %d, expected %d",
			amount, TicketPrice)
	}

	firstHandle := step.Current.GetArg(FirstGuessArg)
	if len(firstHandle) == 0 {
		return xerrors.Errorf(notFoundInTxArg, FirstGuessArg)
	}

	secondHandle := step.Current.GetArg(SecondGuessArg)
	if len(secondHandle) == 0 {
		return xerrors.Errorf(notFoundInTxArg, SecondGuessArg)
	}

	player := step.Current.GetIdentity()

	key, err := playerKey(player)
	if err != nil {
		return err
	}

	record, err := loadRecord(snap, key)
	if err != nil {
		return xerrors.Errorf("failed to load record: %v", err)
	}

	if record.HasTicket {
		return xerrors.New(messageTicketActive)
	}

	first, err := c.algebra.FromExternal(firstHandle, step.Current.GetArg(FirstProofArg))
	if err != nil {
		return xerrors.Errorf("failed to import first guess: %v", err)
	}

	second, err := c.algebra.FromExternal(secondHandle, step.Current.GetArg(SecondProofArg))
	if err != nil {
		return xerrors.Errorf("failed to import second guess: %v", err)
	}

	err = c.grantBoth(player, first.Handle, second.Handle)
	if err != nil {
		return xerrors.Errorf("failed to grant access: %v", err)
	}

	record.FirstGuess = first.Handle
	record.SecondGuess = second.Handle
	record.HasTicket = true
	record.HasResult = false

	err = storeRecord(snap, key, record)
	if err != nil {
		return xerrors.Errorf("failed to store record: %v", err)
	}

	err = addUint64(snap, keyBalance, amount)
	if err != nil {
		return xerrors.Errorf("failed to credit balance: %v", err)
	}

	err = addUint64(snap, keyTickets, 1)
	if err != nil {
		return xerrors.Errorf("failed to count ticket: %v", err)
	}

	promTickets.Inc()

	event := types.TicketPurchased{
		ID:     xid.New().String(),
		Player: string(key[len(playerPrefix):]),
	}

	c.watcher.Notify(event)

	secretsphere.Logger.Info().
		Str("contract", ContractName).
		Str("player", event.Player).
		Msg("ticket purchased")

	return nil
}

// draw implements commands. It performs the DRAW command. The winning digits
// and the reward are computed entirely over ciphertexts.
func (c lotteryCommand) draw(snap store.Snapshot, step execution.Step) error {
	player := step.Current.GetIdentity()

	key, err := playerKey(player)
	if err != nil {
		return err
	}

	record, err := loadRecord(snap, key)
	if err != nil {
		return xerrors.Errorf("failed to load record: %v", err)
	}

	if !record.HasTicket {
		return xerrors.New(messageNoActiveTicket)
	}

	winFirst, err := winningDigit(c.algebra)
	if err != nil {
		return xerrors.Errorf("failed to generate first digit: %v", err)
	}

	winSecond, err := winningDigit(c.algebra)
	if err != nil {
		return xerrors.Errorf("failed to generate second digit: %v", err)
	}

	reward, err := computeReward(c.algebra,
		fhe.EncryptedInt{Handle: record.FirstGuess},
		fhe.EncryptedInt{Handle: record.SecondGuess},
		winFirst, winSecond)
	if err != nil {
		return xerrors.Errorf("failed to compute reward: %v", err)
	}

	points := reward
	if record.HasPoints {
		points, err = c.algebra.Add(fhe.EncryptedInt{Handle: record.Points}, reward)
		if err != nil {
			return xerrors.Errorf("failed to accrue points: %v", err)
		}
	}

	err = c.grantBoth(player, winFirst.Handle, winSecond.Handle, points.Handle)
	if err != nil {
		return xerrors.Errorf("failed to grant access: %v", err)
	}

	record.LastWinningFirst = winFirst.Handle
	record.LastWinningSecond = winSecond.Handle
	record.Points = points.Handle
	record.HasTicket = false
	record.HasResult = true
	record.HasPoints = true

	err = storeRecord(snap, key, record)
	if err != nil {
		return xerrors.Errorf("failed to store record: %v", err)
	}

	err = addUint64(snap, keyDraws, 1)
	if err != nil {
		return xerrors.Errorf("failed to count draw: %v", err)
	}

	promDraws.Inc()

	event := types.DrawCompleted{
		ID:     xid.New().String(),
		Player: string(key[len(playerPrefix):]),
	}

	c.watcher.Notify(event)

	secretsphere.Logger.Info().
		Str("contract", ContractName).
		Str("player", event.Player).
		Msg("draw completed")

	return nil
}

// withdraw implements commands. It performs the WITHDRAW command.
func (c lotteryCommand) withdraw(snap store.Snapshot, step execution.Step) error {
	caller, err := step.Current.GetIdentity().MarshalText()
	if err != nil {
		return xerrors.Errorf("failed to marshal identity: %v", err)
	}

	owner, err := c.owner.MarshalText()
	if err != nil {
		return xerrors.Errorf("failed to marshal owner: %v", err)
	}

	if string(caller) != string(owner) {
		return xerrors.New(messageNotOwner)
	}

	recipient := step.Current.GetArg(RecipientArg)
	if len(recipient) == 0 {
		return xerrors.New(messageBadRecipient)
	}

	value := step.Current.GetArg(AmountArg)
	if len(value) == 0 {
		return xerrors.Errorf(notFoundInTxArg, AmountArg)
	}

	if len(value) != 8 {
		return xerrors.Errorf("invalid amount: expected 8 bytes, got %d",
			len(value))
	}

	amount := binary.BigEndian.Uint64(value)

	balance, err := loadUint64(snap, keyBalance)
	if err != nil {
		return xerrors.Errorf("failed to read balance: %v", err)
	}

	if amount > balance {
		return xerrors.Errorf("insufficient balance: %d > %d", amount, balance)
	}

	err = c.transferer.Transfer(recipient, amount)
	if err != nil {
		return xerrors.Errorf("transfer failed: %v", err)
	}

	err = storeUint64(snap, keyBalance, balance-amount)
	if err != nil {
		return xerrors.Errorf("failed to debit balance: %v", err)
	}

	secretsphere.Logger.Info().
		Str("contract", ContractName).
		Uint64("amount", amount).
		Msg("funds withdrawn")

	return nil
}

// read implements commands. It performs the READ command by printing the
// handles and flags of a player record. The requester identity is not
// checked: the handles are public and the decrypt capability is the privacy
// boundary.
func (c lotteryCommand) read(snap store.Snapshot, step execution.Step) error {
	player := step.Current.GetArg(PlayerArg)
	if len(player) == 0 {
		return xerrors.Errorf(notFoundInTxArg, PlayerArg)
	}

	record, err := loadRecord(snap, []byte(playerPrefix+string(player)))
	if err != nil {
		return xerrors.Errorf("failed to load record: %v", err)
	}

	fmt.Fprintf(c.printer,
		"player %s: ticket=%v result=%v points=%v guesses=[%v %v] winning=[%v %v] total=%v",
		player, record.HasTicket, record.HasResult, record.HasPoints,
		record.FirstGuess, record.SecondGuess,
		record.LastWinningFirst, record.LastWinningSecond, record.Points)

	return nil
}

// stats implements commands. It performs the STATS command.
func (c lotteryCommand) stats(snap store.Snapshot) error {
	stats, err := c.GetStats(snap)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.printer, "tickets=%d draws=%d balance=%d",
		stats.TotalTickets, stats.TotalDraws, stats.Balance)

	return nil
}

// grantBoth gives the system and the player a decrypt capability on every
// handle. No other identity is ever granted.
func (c lotteryCommand) grantBoth(player access.Identity, handles ...fhe.Handle) error {
	for _, handle := range handles {
		err := c.algebra.GrantSelf(handle)
		if err != nil {
			return xerrors.Errorf("self grant: %v", err)
		}

		err = c.algebra.Grant(handle, player)
		if err != nil {
			return xerrors.Errorf("player grant: %v", err)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------
// Storage helpers

func playerKey(ident access.Identity) ([]byte, error) {
	text, err := ident.MarshalText()
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal identity: %v", err)
	}

	return append([]byte(playerPrefix), text...), nil
}

func loadRecord(snap store.Readable, key []byte) (types.PlayerRecord, error) {
	value, err := snap.Get(key)
	if err != nil {
		return types.PlayerRecord{}, xerrors.Errorf("store failed: %v", err)
	}

	record := types.PlayerRecord{}

	if len(value) > 0 {
		err = json.Unmarshal(value, &record)
		if err != nil {
			return types.PlayerRecord{}, xerrors.Errorf("failed to unmarshal record: %v", err)
		}
	}

	return record, nil
}

func storeRecord(snap store.Snapshot, key []byte, record types.PlayerRecord) error {
	value, err := json.Marshal(record)
	if err != nil {
		return xerrors.Errorf("failed to marshal record: %v", err)
	}

	return snap.Set(key, value)
}

func loadUint64(snap store.Readable, key string) (uint64, error) {
	value, err := snap.Get([]byte(key))
	if err != nil {
		return 0, xerrors.Errorf("store failed: %v", err)
	}

	if len(value) == 0 {
		return 0, nil
	}

	return binary.BigEndian.Uint64(value), nil
}

func storeUint64(snap store.Snapshot, key string, value uint64) error {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, value)

	return snap.Set([]byte(key), buffer)
}

func addUint64(snap store.Snapshot, key string, delta uint64) error {
	value, err := loadUint64(snap, key)
	if err != nil {
		return err
	}

	return storeUint64(snap, key, value+delta)
}

// infoLog defines an output using zerolog.
//
// - implements io.Writer
type infoLog struct{}

func (h infoLog) Write(p []byte) (int, error) {
	secretsphere.Logger.Info().Msg(string(p))

	return len(p), nil
}
