// Package controller implements a controller for the lottery contract. It
// starts the node components, registers the contract and provides the
// commands to play from the command line.
package controller

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	secretsphere "github.com/kai-tanaka-dev/SecretSphere"
	"github.com/kai-tanaka-dev/SecretSphere/cli"
	"github.com/kai-tanaka-dev/SecretSphere/cli/node"
	"github.com/kai-tanaka-dev/SecretSphere/contracts/lottery"
	"github.com/kai-tanaka-dev/SecretSphere/core/access"
	"github.com/kai-tanaka-dev/SecretSphere/core/access/grantlist"
	"github.com/kai-tanaka-dev/SecretSphere/core/execution/native"
	"github.com/kai-tanaka-dev/SecretSphere/core/store/kv"
	"github.com/kai-tanaka-dev/SecretSphere/core/store/prefixed"
	"github.com/kai-tanaka-dev/SecretSphere/core/txn/signed"
	"github.com/kai-tanaka-dev/SecretSphere/crypto/ed25519"
	"github.com/kai-tanaka-dev/SecretSphere/fhe/enclave"
	"golang.org/x/xerrors"
)

// aKey is the access identifier of the lottery contract.
var aKey = [32]byte{2}

// stateBucket is the bucket holding the contract state.
var stateBucket = []byte("lottery")

// payoutBucket is the bucket holding the withdrawal records.
var payoutBucket = []byte("payouts")

// enclaveBucket is the bucket holding the sealed enclave state.
var enclaveBucket = []byte("enclave")

// enclaveStateKey is the key of the sealed state in the enclave bucket.
var enclaveStateKey = []byte("state")

// miniController is a CLI initializer to register and play the lottery.
//
// - implements node.Initializer
type miniController struct{}

// NewController returns a new controller initializer.
func NewController() node.Initializer {
	return miniController{}
}

// SetCommands implements node.Initializer.
func (m miniController) SetCommands(builder node.Builder) {
	cmd := builder.SetCommand("lottery")
	cmd.SetDescription("interact with the confidential lottery")

	sub := cmd.SetSubCommand("buy")
	sub.SetDescription("buy a ticket with two digit guesses in [1,9]")
	sub.SetFlags(
		cli.IntFlag{
			Name:     "first",
			Usage:    "first digit guess",
			Required: true,
		},
		cli.IntFlag{
			Name:     "second",
			Usage:    "second digit guess",
			Required: true,
		},
	)
	sub.SetAction(builder.MakeAction(buyAction{}))

	sub = cmd.SetSubCommand("draw")
	sub.SetDescription("draw the winning digits and accrue the reward")
	sub.SetAction(builder.MakeAction(drawAction{}))

	sub = cmd.SetSubCommand("withdraw")
	sub.SetDescription("withdraw funds held by the contract")
	sub.SetFlags(
		cli.StringFlag{
			Name:     "recipient",
			Usage:    "recipient of the funds",
			Required: true,
		},
		cli.IntFlag{
			Name:     "amount",
			Usage:    "amount to withdraw",
			Required: true,
		},
	)
	sub.SetAction(builder.MakeAction(withdrawAction{}))

	sub = cmd.SetSubCommand("read")
	sub.SetDescription("display the record of the node identity")
	sub.SetAction(builder.MakeAction(readAction{}))

	sub = cmd.SetSubCommand("stats")
	sub.SetDescription("display the plaintext counters")
	sub.SetAction(builder.MakeAction(statsAction{}))
}

// OnStart implements node.Initializer. It opens the database, registers the
// contract and grants the node identity on it.
func (m miniController) OnStart(flags cli.Flags, inj node.Injector) error {
	signer, err := loadSigner(filepath.Join(flags.Path("config"), "private.key"))
	if err != nil {
		return xerrors.Errorf("failed to load signer: %v", err)
	}

	db, err := kv.New(filepath.Join(flags.Path("config"), "ssphere.db"))
	if err != nil {
		return xerrors.Errorf("failed to open db: %v", err)
	}

	backend, err := loadEnclave(db)
	if err != nil {
		return xerrors.Errorf("failed to load enclave: %v", err)
	}

	accessSrvc := grantlist.NewService()
	exec := native.NewExecution()

	owner := signer.GetPublicKey().(access.Identity)

	ledger := &payoutLedger{}

	contract := lottery.NewContract(aKey[:], accessSrvc, backend, owner, ledger)

	lottery.RegisterContract(exec, contract)

	err = db.Update(stateBucket, func(bucket kv.Bucket) error {
		// The contract executes on its prefixed keyspace, so the grant must
		// live there too.
		snap := prefixed.NewSnapshot(lottery.ContractUID, kv.NewSnapshot(bucket))

		return accessSrvc.Grant(snap, lottery.NewCreds(aKey[:]), owner)
	})
	if err != nil {
		return xerrors.Errorf("failed to grant the node identity: %v", err)
	}

	for _, collector := range secretsphere.PromCollectors {
		err := prometheus.Register(collector)
		if err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return xerrors.Errorf("failed to register collector: %v", err)
			}
		}
	}

	inj.Inject(db)
	inj.Inject(backend)
	inj.Inject(exec)
	inj.Inject(contract)
	inj.Inject(ledger)
	inj.Inject(signer)
	inj.Inject(signed.NewManager(signer))

	return nil
}

// OnStop implements node.Initializer. It seals the enclave state back to the
// database and closes it.
func (m miniController) OnStop(inj node.Injector) error {
	var db kv.DB
	err := inj.Resolve(&db)
	if err != nil {
		return xerrors.Errorf("failed to resolve db: %v", err)
	}

	var backend *enclave.Enclave
	err = inj.Resolve(&backend)
	if err != nil {
		return xerrors.Errorf("failed to resolve enclave: %v", err)
	}

	err = storeEnclave(db, backend)
	if err != nil {
		return xerrors.Errorf("failed to store enclave: %v", err)
	}

	err = db.Close()
	if err != nil {
		return xerrors.Errorf("failed to close db: %v", err)
	}

	return nil
}

// loadEnclave restores the enclave from its sealed state, or creates a fresh
// one on first start.
func loadEnclave(db kv.DB) (*enclave.Enclave, error) {
	var backend *enclave.Enclave

	err := db.Update(enclaveBucket, func(bucket kv.Bucket) error {
		data := bucket.Get(enclaveStateKey)

		var err error

		if data == nil {
			backend, err = enclave.NewEnclave()
		} else {
			backend, err = enclave.NewEnclaveFromBytes(data)
		}

		return err
	})
	if err != nil {
		return nil, err
	}

	return backend, nil
}

// loadSigner reads the private key of the node, or generates it on first
// start.
func loadSigner(path string) (ed25519.Signer, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		signer := ed25519.NewSigner()

		data, err = signer.MarshalBinary()
		if err != nil {
			return ed25519.Signer{}, xerrors.Errorf("failed to marshal key: %v", err)
		}

		err = os.WriteFile(path, []byte(hex.EncodeToString(data)), 0600)
		if err != nil {
			return ed25519.Signer{}, xerrors.Errorf("failed to write key: %v", err)
		}

		return signer, nil
	}

	if err != nil {
		return ed25519.Signer{}, xerrors.Errorf("failed to read key: %v", err)
	}

	raw, err := hex.DecodeString(string(data))
	if err != nil {
		return ed25519.Signer{}, xerrors.Errorf("failed to decode key: %v", err)
	}

	signer, err := ed25519.NewSignerFromBytes(raw)
	if err != nil {
		return ed25519.Signer{}, xerrors.Errorf("failed to restore key: %v", err)
	}

	return signer, nil
}

func storeEnclave(db kv.DB, backend *enclave.Enclave) error {
	data, err := backend.MarshalBinary()
	if err != nil {
		return xerrors.Errorf("failed to marshal enclave: %v", err)
	}

	return db.Update(enclaveBucket, func(bucket kv.Bucket) error {
		return bucket.Set(enclaveStateKey, data)
	})
}

// payoutLedger records the withdrawals of the contract. The records are
// buffered while the contract is executing, the database holds a write lock
// at that point, and flushed to the payout bucket once the state transaction
// has committed.
//
// - implements lottery.Transferer
type payoutLedger struct {
	pending []payoutRecord
}

type payoutRecord struct {
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
}

// Transfer implements lottery.Transferer. It buffers the payout.
func (l *payoutLedger) Transfer(recipient []byte, amount uint64) error {
	l.pending = append(l.pending, payoutRecord{
		Recipient: string(recipient),
		Amount:    amount,
	})

	return nil
}

// flush appends the buffered payouts to the ledger bucket.
func (l *payoutLedger) flush(db kv.DB) error {
	if len(l.pending) == 0 {
		return nil
	}

	err := db.Update(payoutBucket, func(bucket kv.Bucket) error {
		count := uint64(0)

		err := bucket.ForEach(func(k, v []byte) error {
			count++
			return nil
		})
		if err != nil {
			return xerrors.Errorf("failed to walk ledger: %v", err)
		}

		for _, record := range l.pending {
			value, err := json.Marshal(record)
			if err != nil {
				return xerrors.Errorf("failed to marshal payout: %v", err)
			}

			key := make([]byte, 8)
			binary.BigEndian.PutUint64(key, count)

			err = bucket.Set(key, value)
			if err != nil {
				return xerrors.Errorf("failed to record payout: %v", err)
			}

			count++
		}

		return nil
	})
	if err != nil {
		return err
	}

	l.pending = nil

	return nil
}
