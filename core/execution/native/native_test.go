package native

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/kai-tanaka-dev/SecretSphere/core/execution"
	"github.com/kai-tanaka-dev/SecretSphere/core/store"
	"github.com/kai-tanaka-dev/SecretSphere/core/txn/signed"
	"github.com/kai-tanaka-dev/SecretSphere/testing/fake"
)

func TestService_Execute(t *testing.T) {
	srvc := NewExecution()
	srvc.Set("abc", fakeContract{uid: "ABCD"})

	res, err := srvc.Execute(fake.NewSnapshot(), makeStep(t, "abc"))
	require.NoError(t, err)
	require.True(t, res.Accepted)

	srvc.Set("bad", fakeContract{uid: "EFGH", err: fake.GetError()})

	res, err = srvc.Execute(fake.NewSnapshot(), makeStep(t, "bad"))
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.Equal(t, fake.GetError().Error(), res.Message)

	_, err = srvc.Execute(fake.NewSnapshot(), makeStep(t, "unknown"))
	require.EqualError(t, err, "unknown contract 'unknown'")
}

func TestService_Set(t *testing.T) {
	srvc := NewExecution()
	srvc.Set("abc", fakeContract{uid: "ABCD"})

	require.PanicsWithError(t, "contract 'abc' already registered", func() {
		srvc.Set("abc", fakeContract{uid: "WXYZ"})
	})

	require.PanicsWithError(t,
		"contract UID '414243' for 'def' is not 4 bytes long", func() {
			srvc.Set("def", fakeContract{uid: "ABC"})
		})

	require.PanicsWithError(t,
		"contract UID '41424344' for 'def' already registered", func() {
			srvc.Set("def", fakeContract{uid: "ABCD"})
		})
}

// -----------------------------------------------------------------------------
// Utility functions

func makeStep(t *testing.T, contract string) execution.Step {
	tx, err := signed.NewTransaction(0, fake.PublicKey{},
		signed.WithArg(ContractArg, []byte(contract)))
	require.NoError(t, err)

	return execution.Step{Current: tx}
}

type fakeContract struct {
	uid string
	err error
}

func (c fakeContract) Execute(store.Snapshot, execution.Step) error {
	return c.err
}

func (c fakeContract) UID() string {
	return c.uid
}
