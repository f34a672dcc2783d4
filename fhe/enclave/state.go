package enclave

import (
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/cronokirby/saferith"
	"github.com/kai-tanaka-dev/SecretSphere/fhe"
	"go.dedis.ch/kyber/v3/util/random"
	"golang.org/x/xerrors"
)

// sealedState is the serialized form of the enclave. It contains the sealing
// key so it must only ever be written to sealed storage.
type sealedState struct {
	Key     []byte                  `json:"key"`
	Seq     uint64                  `json:"seq"`
	Records map[string]sealedRecord `json:"records"`
}

type sealedRecord struct {
	Value  uint64   `json:"value"`
	Grants []string `json:"grants"`
}

// MarshalBinary implements encoding.BinaryMarshaler. It serializes the
// sealed table so the enclave can be restored across restarts. Pending
// imports are not part of the state: a client seals again after a restart.
func (e *Enclave) MarshalBinary() ([]byte, error) {
	e.Lock()
	defer e.Unlock()

	state := sealedState{
		Key:     e.key,
		Seq:     e.seq,
		Records: make(map[string]sealedRecord, len(e.records)),
	}

	for handle, rec := range e.records {
		grants := make([]string, 0, len(rec.grants))
		for grant := range rec.grants {
			grants = append(grants, grant)
		}

		sort.Strings(grants)

		state.Records[hex.EncodeToString([]byte(handle))] = sealedRecord{
			Value:  rec.value.Uint64(),
			Grants: grants,
		}
	}

	data, err := json.Marshal(state)
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal state: %v", err)
	}

	return data, nil
}

// NewEnclaveFromBytes restores an enclave from its serialized sealed table.
func NewEnclaveFromBytes(data []byte) (*Enclave, error) {
	state := sealedState{}

	err := json.Unmarshal(data, &state)
	if err != nil {
		return nil, xerrors.Errorf("failed to unmarshal state: %v", err)
	}

	if len(state.Key) != 32 {
		return nil, xerrors.Errorf("invalid sealing key length %d", len(state.Key))
	}

	e := &Enclave{
		key:     state.Key,
		seq:     state.Seq,
		records: make(map[string]*record, len(state.Records)),
		imports: make(map[string]pendingImport),
		rand:    random.New(),
	}

	for text, rec := range state.Records {
		handle, err := hex.DecodeString(text)
		if err != nil {
			return nil, xerrors.Errorf("failed to decode handle: %v", err)
		}

		if len(handle) != fhe.HandleSize {
			return nil, xerrors.Errorf("invalid handle length %d", len(handle))
		}

		grants := make(map[string]struct{}, len(rec.Grants))
		for _, grant := range rec.Grants {
			grants[grant] = struct{}{}
		}

		e.records[string(handle)] = &record{
			value:  new(saferith.Nat).SetUint64(rec.Value),
			grants: grants,
		}
	}

	return e, nil
}
