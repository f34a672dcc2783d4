package controller

import (
	"encoding/binary"
	"fmt"

	"github.com/kai-tanaka-dev/SecretSphere/cli/node"
	"github.com/kai-tanaka-dev/SecretSphere/contracts/lottery"
	"github.com/kai-tanaka-dev/SecretSphere/contracts/lottery/types"
	"github.com/kai-tanaka-dev/SecretSphere/core/access"
	"github.com/kai-tanaka-dev/SecretSphere/core/execution"
	"github.com/kai-tanaka-dev/SecretSphere/core/execution/native"
	"github.com/kai-tanaka-dev/SecretSphere/core/store/kv"
	"github.com/kai-tanaka-dev/SecretSphere/core/store/prefixed"
	"github.com/kai-tanaka-dev/SecretSphere/core/txn"
	"github.com/kai-tanaka-dev/SecretSphere/crypto/ed25519"
	"github.com/kai-tanaka-dev/SecretSphere/fhe/enclave"
	"golang.org/x/xerrors"
)

// buyAction seals the two guesses and submits the purchase transaction.
//
// - implements node.ActionTemplate
type buyAction struct{}

// Execute implements node.ActionTemplate.
func (a buyAction) Execute(ctx node.Context) error {
	first := ctx.Flags.Int("first")
	second := ctx.Flags.Int("second")

	if first < 1 || first > 9 || second < 1 || second > 9 {
		return xerrors.Errorf("guesses must be in [1,9]: got %d and %d",
			first, second)
	}

	var backend *enclave.Enclave
	err := ctx.Injector.Resolve(&backend)
	if err != nil {
		return xerrors.Errorf("failed to resolve enclave: %v", err)
	}

	var signer ed25519.Signer
	err = ctx.Injector.Resolve(&signer)
	if err != nil {
		return xerrors.Errorf("failed to resolve signer: %v", err)
	}

	binder, err := signer.GetPublicKey().(access.Identity).MarshalText()
	if err != nil {
		return xerrors.Errorf("failed to marshal identity: %v", err)
	}

	firstHandle, firstProof, err := backend.Seal(uint32(first), binder)
	if err != nil {
		return xerrors.Errorf("failed to seal first guess: %v", err)
	}

	secondHandle, secondProof, err := backend.Seal(uint32(second), binder)
	if err != nil {
		return xerrors.Errorf("failed to seal second guess: %v", err)
	}

	payment := make([]byte, 8)
	binary.BigEndian.PutUint64(payment, lottery.TicketPrice)

	err = submit(ctx.Injector,
		txn.Arg{Key: lottery.CmdArg, Value: []byte(lottery.CmdBuy)},
		txn.Arg{Key: lottery.PaymentArg, Value: payment},
		txn.Arg{Key: lottery.FirstGuessArg, Value: firstHandle},
		txn.Arg{Key: lottery.FirstProofArg, Value: firstProof},
		txn.Arg{Key: lottery.SecondGuessArg, Value: secondHandle},
		txn.Arg{Key: lottery.SecondProofArg, Value: secondProof},
	)
	if err != nil {
		return xerrors.Opaque(err)
	}

	fmt.Fprintln(ctx.Out, "ticket purchased")

	return nil
}

// drawAction submits the draw transaction and reveals the outcome to the
// node identity.
//
// - implements node.ActionTemplate
type drawAction struct{}

// Execute implements node.ActionTemplate.
func (a drawAction) Execute(ctx node.Context) error {
	err := submit(ctx.Injector,
		txn.Arg{Key: lottery.CmdArg, Value: []byte(lottery.CmdDraw)},
	)
	if err != nil {
		return xerrors.Opaque(err)
	}

	record, ident, err := loadOwnRecord(ctx.Injector)
	if err != nil {
		return xerrors.Opaque(err)
	}

	var backend *enclave.Enclave
	err = ctx.Injector.Resolve(&backend)
	if err != nil {
		return xerrors.Errorf("failed to resolve enclave: %v", err)
	}

	winFirst, err := backend.Reveal(record.LastWinningFirst, ident)
	if err != nil {
		return xerrors.Errorf("failed to reveal first digit: %v", err)
	}

	winSecond, err := backend.Reveal(record.LastWinningSecond, ident)
	if err != nil {
		return xerrors.Errorf("failed to reveal second digit: %v", err)
	}

	points, err := backend.Reveal(record.Points, ident)
	if err != nil {
		return xerrors.Errorf("failed to reveal points: %v", err)
	}

	fmt.Fprintf(ctx.Out, "winning digits: %d %d - total points: %d\n",
		winFirst, winSecond, points)

	return nil
}

// withdrawAction submits the withdrawal transaction of the owner.
//
// - implements node.ActionTemplate
type withdrawAction struct{}

// Execute implements node.ActionTemplate.
func (a withdrawAction) Execute(ctx node.Context) error {
	amount := ctx.Flags.Int("amount")
	if amount <= 0 {
		return xerrors.Errorf("amount must be positive: got %d", amount)
	}

	value := make([]byte, 8)
	binary.BigEndian.PutUint64(value, uint64(amount))

	err := submit(ctx.Injector,
		txn.Arg{Key: lottery.CmdArg, Value: []byte(lottery.CmdWithdraw)},
		txn.Arg{Key: lottery.RecipientArg, Value: []byte(ctx.Flags.String("recipient"))},
		txn.Arg{Key: lottery.AmountArg, Value: value},
	)
	if err != nil {
		return xerrors.Opaque(err)
	}

	var ledger *payoutLedger
	err = ctx.Injector.Resolve(&ledger)
	if err != nil {
		return xerrors.Errorf("failed to resolve ledger: %v", err)
	}

	var db kv.DB
	err = ctx.Injector.Resolve(&db)
	if err != nil {
		return xerrors.Errorf("failed to resolve db: %v", err)
	}

	err = ledger.flush(db)
	if err != nil {
		return xerrors.Errorf("failed to record payout: %v", err)
	}

	fmt.Fprintf(ctx.Out, "withdrawn %d\n", amount)

	return nil
}

// readAction displays the record of the node identity with the values the
// identity is allowed to decrypt.
//
// - implements node.ActionTemplate
type readAction struct{}

// Execute implements node.ActionTemplate.
func (a readAction) Execute(ctx node.Context) error {
	record, ident, err := loadOwnRecord(ctx.Injector)
	if err != nil {
		return xerrors.Opaque(err)
	}

	fmt.Fprintf(ctx.Out, "ticket=%v result=%v\n",
		record.HasTicket, record.HasResult)

	if !record.HasPoints {
		return nil
	}

	var backend *enclave.Enclave
	err = ctx.Injector.Resolve(&backend)
	if err != nil {
		return xerrors.Errorf("failed to resolve enclave: %v", err)
	}

	points, err := backend.Reveal(record.Points, ident)
	if err != nil {
		return xerrors.Errorf("failed to reveal points: %v", err)
	}

	fmt.Fprintf(ctx.Out, "points=%d\n", points)

	return nil
}

// statsAction displays the plaintext counters of the lottery.
//
// - implements node.ActionTemplate
type statsAction struct{}

// Execute implements node.ActionTemplate.
func (a statsAction) Execute(ctx node.Context) error {
	var contract lottery.Contract
	err := ctx.Injector.Resolve(&contract)
	if err != nil {
		return xerrors.Errorf("failed to resolve contract: %v", err)
	}

	var db kv.DB
	err = ctx.Injector.Resolve(&db)
	if err != nil {
		return xerrors.Errorf("failed to resolve db: %v", err)
	}

	err = db.Update(stateBucket, func(bucket kv.Bucket) error {
		view := prefixed.NewReadable(lottery.ContractUID, kv.NewSnapshot(bucket))

		stats, err := contract.GetStats(view)
		if err != nil {
			return err
		}

		fmt.Fprintf(ctx.Out, "tickets=%d draws=%d balance=%d\n",
			stats.TotalTickets, stats.TotalDraws, stats.Balance)

		return nil
	})
	if err != nil {
		return xerrors.Opaque(err)
	}

	return nil
}

// submit makes a signed transaction with the arguments and executes it on
// the contract state. A rejected execution rolls the state back and returns
// the rejection reason.
func submit(inj node.Injector, args ...txn.Arg) error {
	var mgr txn.Manager
	err := inj.Resolve(&mgr)
	if err != nil {
		return xerrors.Errorf("failed to resolve manager: %v", err)
	}

	var exec *native.Service
	err = inj.Resolve(&exec)
	if err != nil {
		return xerrors.Errorf("failed to resolve execution: %v", err)
	}

	var db kv.DB
	err = inj.Resolve(&db)
	if err != nil {
		return xerrors.Errorf("failed to resolve db: %v", err)
	}

	args = append(args,
		txn.Arg{Key: native.ContractArg, Value: []byte(lottery.ContractName)})

	tx, err := mgr.Make(args...)
	if err != nil {
		return xerrors.Errorf("failed to make transaction: %v", err)
	}

	return db.Update(stateBucket, func(bucket kv.Bucket) error {
		res, err := exec.Execute(kv.NewSnapshot(bucket), execution.Step{Current: tx})
		if err != nil {
			return xerrors.Errorf("failed to execute: %v", err)
		}

		if !res.Accepted {
			return xerrors.Errorf("transaction rejected: %s", res.Message)
		}

		return nil
	})
}

// loadOwnRecord reads the player record of the node identity.
func loadOwnRecord(inj node.Injector) (types.PlayerRecord, access.Identity, error) {
	var contract lottery.Contract
	err := inj.Resolve(&contract)
	if err != nil {
		return types.PlayerRecord{}, nil, xerrors.Errorf("failed to resolve contract: %v", err)
	}

	var db kv.DB
	err = inj.Resolve(&db)
	if err != nil {
		return types.PlayerRecord{}, nil, xerrors.Errorf("failed to resolve db: %v", err)
	}

	var signer ed25519.Signer
	err = inj.Resolve(&signer)
	if err != nil {
		return types.PlayerRecord{}, nil, xerrors.Errorf("failed to resolve signer: %v", err)
	}

	ident := signer.GetPublicKey().(access.Identity)

	record := types.PlayerRecord{}

	err = db.Update(stateBucket, func(bucket kv.Bucket) error {
		view := prefixed.NewReadable(lottery.ContractUID, kv.NewSnapshot(bucket))

		record, err = contract.GetPlayer(view, ident)
		return err
	})
	if err != nil {
		return types.PlayerRecord{}, nil, xerrors.Errorf("failed to read record: %v", err)
	}

	return record, ident, nil
}
