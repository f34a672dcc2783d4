// Package enclave implements the encrypted-integer algebra with a simulated
// trusted coprocessor.
//
// The enclave keeps the plaintexts in a sealed table keyed by opaque handles
// and tracks a decrypt grant list per handle, the same way a secret
// management committee keeps a secret with its access control. The
// arithmetic runs on constant-time integers so that no operation branches on
// a sealed value. This backend makes the contracts testable without a real
// homomorphic scheme while preserving the boundary: callers only ever see
// handles.
package enclave

import (
	"crypto/cipher"
	"crypto/subtle"
	"math/big"
	"sync"

	"github.com/cronokirby/saferith"
	"github.com/kai-tanaka-dev/SecretSphere/core/access"
	"github.com/kai-tanaka-dev/SecretSphere/crypto"
	"github.com/kai-tanaka-dev/SecretSphere/fhe"
	"github.com/zeebo/blake3"
	"go.dedis.ch/kyber/v3/util/random"
	"golang.org/x/xerrors"
)

// natBits is the native width of the encrypted integers.
const natBits = 32

// selfPrincipal is the grant list entry of the executing system itself.
const selfPrincipal = "#self"

var one = new(saferith.Nat).SetUint64(1)

// record is a sealed plaintext with its decrypt grant list.
type record struct {
	value  *saferith.Nat
	grants map[string]struct{}
}

// pendingImport is a ciphertext sealed by a client that has not been imported
// yet. The binder ties the ciphertext to the identity that produced it.
type pendingImport struct {
	value  *saferith.Nat
	binder []byte
}

// Enclave is a simulated trusted coprocessor holding the sealed plaintexts.
//
// - implements fhe.Algebra
type Enclave struct {
	sync.Mutex

	key     []byte
	seq     uint64
	records map[string]*record
	imports map[string]pendingImport
	rand    cipher.Stream
}

// NewEnclave creates a new enclave with a fresh random sealing key.
func NewEnclave() (*Enclave, error) {
	key := make([]byte, 32)

	_, err := crypto.CryptographicRandomGenerator{}.Read(key)
	if err != nil {
		return nil, xerrors.Errorf("failed to generate sealing key: %v", err)
	}

	return &Enclave{
		key:     key,
		records: make(map[string]*record),
		imports: make(map[string]pendingImport),
		rand:    random.New(),
	}, nil
}

// Constant implements fhe.Algebra. It seals the plaintext value and returns
// its handle.
func (e *Enclave) Constant(value uint32) (fhe.EncryptedInt, error) {
	e.Lock()
	defer e.Unlock()

	handle, err := e.store(new(saferith.Nat).SetUint64(uint64(value)))
	if err != nil {
		return fhe.EncryptedInt{}, err
	}

	return fhe.EncryptedInt{Handle: handle}, nil
}

// Add implements fhe.Algebra. It returns a fresh ciphertext of the sum of
// both operands modulo 2^32.
func (e *Enclave) Add(a, b fhe.EncryptedInt) (fhe.EncryptedInt, error) {
	e.Lock()
	defer e.Unlock()

	left, err := e.lookup(a.Handle)
	if err != nil {
		return fhe.EncryptedInt{}, err
	}

	right, err := e.lookup(b.Handle)
	if err != nil {
		return fhe.EncryptedInt{}, err
	}

	sum := new(saferith.Nat).Add(left.value, right.value, natBits)

	handle, err := e.store(sum)
	if err != nil {
		return fhe.EncryptedInt{}, err
	}

	return fhe.EncryptedInt{Handle: handle}, nil
}

// Remainder implements fhe.Algebra. It returns a fresh ciphertext of the
// remainder of the operand divided by the plaintext modulus.
func (e *Enclave) Remainder(a fhe.EncryptedInt, modulus uint32) (fhe.EncryptedInt, error) {
	if modulus == 0 {
		return fhe.EncryptedInt{}, xerrors.New("modulus must be positive")
	}

	e.Lock()
	defer e.Unlock()

	rec, err := e.lookup(a.Handle)
	if err != nil {
		return fhe.EncryptedInt{}, err
	}

	mod := saferith.ModulusFromNat(new(saferith.Nat).SetUint64(uint64(modulus)))
	rem := new(saferith.Nat).Mod(rec.value, mod)

	handle, err := e.store(rem)
	if err != nil {
		return fhe.EncryptedInt{}, err
	}

	return fhe.EncryptedInt{Handle: handle}, nil
}

// Equals implements fhe.Algebra. It returns an encrypted boolean of the
// equality of both operands. The comparison is constant time.
func (e *Enclave) Equals(a, b fhe.EncryptedInt) (fhe.EncryptedBool, error) {
	e.Lock()
	defer e.Unlock()

	left, err := e.lookup(a.Handle)
	if err != nil {
		return fhe.EncryptedBool{}, err
	}

	right, err := e.lookup(b.Handle)
	if err != nil {
		return fhe.EncryptedBool{}, err
	}

	choice := left.value.Eq(right.value)

	handle, err := e.store(new(saferith.Nat).SetUint64(uint64(choice)))
	if err != nil {
		return fhe.EncryptedBool{}, err
	}

	return fhe.EncryptedBool{Handle: handle}, nil
}

// Select implements fhe.Algebra. It returns a fresh ciphertext equal to one
// of the two operands depending on the condition. The selection is a
// constant-time conditional assignment so the taken branch is never
// observable.
func (e *Enclave) Select(cond fhe.EncryptedBool, ifTrue, ifFalse fhe.EncryptedInt) (fhe.EncryptedInt, error) {
	e.Lock()
	defer e.Unlock()

	condition, err := e.lookup(cond.Handle)
	if err != nil {
		return fhe.EncryptedInt{}, err
	}

	left, err := e.lookup(ifTrue.Handle)
	if err != nil {
		return fhe.EncryptedInt{}, err
	}

	right, err := e.lookup(ifFalse.Handle)
	if err != nil {
		return fhe.EncryptedInt{}, err
	}

	out := right.value.Clone()
	out.CondAssign(condition.value.Eq(one), left.value)

	handle, err := e.store(out)
	if err != nil {
		return fhe.EncryptedInt{}, err
	}

	return fhe.EncryptedInt{Handle: handle}, nil
}

// Random implements fhe.Algebra. It seals a uniform random value over the
// native 32-bit width.
func (e *Enclave) Random() (fhe.EncryptedInt, error) {
	e.Lock()
	defer e.Unlock()

	max := new(big.Int).Lsh(big.NewInt(1), natBits)
	value := random.Int(max, e.rand)

	handle, err := e.store(new(saferith.Nat).SetUint64(value.Uint64()))
	if err != nil {
		return fhe.EncryptedInt{}, err
	}

	return fhe.EncryptedInt{Handle: handle}, nil
}

// Seal is the client-side encryption step of the off-chain protocol. It
// seals the plaintext into the enclave and returns the handle with a
// correctness proof binding the ciphertext to the binder, usually the
// identity of the client.
func (e *Enclave) Seal(value uint32, binder []byte) (fhe.Handle, []byte, error) {
	e.Lock()
	defer e.Unlock()

	handle, err := e.nextHandle()
	if err != nil {
		return nil, nil, err
	}

	proof, err := e.proveImport(handle, binder)
	if err != nil {
		return nil, nil, err
	}

	e.imports[string(handle)] = pendingImport{
		value:  new(saferith.Nat).SetUint64(uint64(value)),
		binder: append([]byte{}, binder...),
	}

	return handle, proof, nil
}

// FromExternal implements fhe.Algebra. It validates the proof of a sealed
// client ciphertext and imports it into the enclave. The import is one time:
// a handle cannot be imported twice.
func (e *Enclave) FromExternal(handle, proof []byte) (fhe.EncryptedInt, error) {
	e.Lock()
	defer e.Unlock()

	pending, ok := e.imports[string(handle)]
	if !ok {
		return fhe.EncryptedInt{}, xerrors.New(fhe.MessageProofInvalid)
	}

	expected, err := e.proveImport(handle, pending.binder)
	if err != nil {
		return fhe.EncryptedInt{}, err
	}

	if subtle.ConstantTimeCompare(expected, proof) != 1 {
		return fhe.EncryptedInt{}, xerrors.New(fhe.MessageProofInvalid)
	}

	delete(e.imports, string(handle))

	e.records[string(handle)] = &record{
		value:  pending.value,
		grants: make(map[string]struct{}),
	}

	return fhe.EncryptedInt{Handle: fhe.Handle(handle)}, nil
}

// GrantSelf implements fhe.Algebra. It gives the executing system a standing
// decrypt capability on the ciphertext.
func (e *Enclave) GrantSelf(handle fhe.Handle) error {
	e.Lock()
	defer e.Unlock()

	rec, err := e.lookup(handle)
	if err != nil {
		return err
	}

	rec.grants[selfPrincipal] = struct{}{}

	return nil
}

// Grant implements fhe.Algebra. It gives the identity a standing decrypt
// capability on the ciphertext.
func (e *Enclave) Grant(handle fhe.Handle, ident access.Identity) error {
	e.Lock()
	defer e.Unlock()

	rec, err := e.lookup(handle)
	if err != nil {
		return err
	}

	text, err := ident.MarshalText()
	if err != nil {
		return xerrors.Errorf("failed to marshal identity: %v", err)
	}

	rec.grants[string(text)] = struct{}{}

	return nil
}

// Reveal is the user-decryption step of the off-chain protocol. It returns
// the plaintext of the ciphertext only when the identity holds a decrypt
// capability on it.
func (e *Enclave) Reveal(handle fhe.Handle, ident access.Identity) (uint32, error) {
	e.Lock()
	defer e.Unlock()

	rec, err := e.lookup(handle)
	if err != nil {
		return 0, err
	}

	text, err := ident.MarshalText()
	if err != nil {
		return 0, xerrors.Errorf("failed to marshal identity: %v", err)
	}

	_, ok := rec.grants[string(text)]
	if !ok {
		return 0, xerrors.Errorf("%s is not granted to decrypt %v", text, handle)
	}

	return uint32(rec.value.Uint64()), nil
}

// lookup returns the record of the handle. The caller must hold the lock.
func (e *Enclave) lookup(handle fhe.Handle) (*record, error) {
	rec, ok := e.records[string(handle)]
	if !ok {
		return nil, xerrors.Errorf("unknown ciphertext %v", handle)
	}

	return rec, nil
}

// store seals the value under a fresh handle with an empty grant list. The
// caller must hold the lock.
func (e *Enclave) store(value *saferith.Nat) (fhe.Handle, error) {
	handle, err := e.nextHandle()
	if err != nil {
		return nil, err
	}

	e.records[string(handle)] = &record{
		value:  value,
		grants: make(map[string]struct{}),
	}

	return handle, nil
}

// nextHandle derives a fresh handle from the sealing key and the sequence
// number. The handle is independent of the sealed value.
func (e *Enclave) nextHandle() (fhe.Handle, error) {
	hasher, err := blake3.NewKeyed(e.key)
	if err != nil {
		return nil, xerrors.Errorf("failed to create hasher: %v", err)
	}

	buffer := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buffer[i] = byte(e.seq >> (8 * i))
	}

	hasher.Write([]byte("handle"))
	hasher.Write(buffer)

	e.seq++

	return fhe.Handle(hasher.Sum(nil)[:fhe.HandleSize]), nil
}

// proveImport computes the correctness proof of a sealed client ciphertext.
func (e *Enclave) proveImport(handle, binder []byte) ([]byte, error) {
	hasher, err := blake3.NewKeyed(e.key)
	if err != nil {
		return nil, xerrors.Errorf("failed to create hasher: %v", err)
	}

	hasher.Write([]byte("import"))
	hasher.Write(handle)
	hasher.Write(binder)

	return hasher.Sum(nil)[:fhe.HandleSize], nil
}
