package controller

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/kai-tanaka-dev/SecretSphere/cli/node"
)

func TestBuyAction_BadGuess(t *testing.T) {
	err := buyAction{}.Execute(node.Context{
		Flags: node.FlagSet{"first": 0, "second": 5},
	})
	require.EqualError(t, err, "guesses must be in [1,9]: got 0 and 5")

	err = buyAction{}.Execute(node.Context{
		Flags: node.FlagSet{"first": 1, "second": 10},
	})
	require.EqualError(t, err, "guesses must be in [1,9]: got 1 and 10")
}

func TestBuyAction_MissingDeps(t *testing.T) {
	err := buyAction{}.Execute(node.Context{
		Injector: node.NewInjector(),
		Flags:    node.FlagSet{"first": 1, "second": 2},
	})
	require.Contains(t, err.Error(), "failed to resolve enclave")
}

func TestWithdrawAction_BadAmount(t *testing.T) {
	err := withdrawAction{}.Execute(node.Context{
		Flags: node.FlagSet{"amount": 0},
	})
	require.EqualError(t, err, "amount must be positive: got 0")
}

func TestStatsAction_MissingDeps(t *testing.T) {
	err := statsAction{}.Execute(node.Context{
		Injector: node.NewInjector(),
	})
	require.Contains(t, err.Error(), "failed to resolve contract")
}

func TestActions_RoundTrip(t *testing.T) {
	inj := node.NewInjector()

	ctrl := NewController()
	require.NoError(t, ctrl.OnStart(node.FlagSet{"config": t.TempDir()}, inj))

	defer func() {
		require.NoError(t, ctrl.OnStop(inj))
	}()

	out := &bytes.Buffer{}

	err := buyAction{}.Execute(node.Context{
		Injector: inj,
		Flags:    node.FlagSet{"first": 3, "second": 7},
		Out:      out,
	})
	require.NoError(t, err)
	require.Contains(t, out.String(), "ticket purchased")

	// A second purchase is rejected while the ticket is pending.
	err = buyAction{}.Execute(node.Context{
		Injector: inj,
		Flags:    node.FlagSet{"first": 1, "second": 1},
		Out:      out,
	})
	require.Contains(t, err.Error(), "ticket already active")

	out.Reset()

	err = drawAction{}.Execute(node.Context{
		Injector: inj,
		Flags:    node.FlagSet{},
		Out:      out,
	})
	require.NoError(t, err)
	require.Contains(t, out.String(), "winning digits")

	out.Reset()

	err = readAction{}.Execute(node.Context{
		Injector: inj,
		Flags:    node.FlagSet{},
		Out:      out,
	})
	require.NoError(t, err)
	require.Contains(t, out.String(), "ticket=false result=true")
	require.Contains(t, out.String(), "points=")

	out.Reset()

	err = statsAction{}.Execute(node.Context{
		Injector: inj,
		Flags:    node.FlagSet{},
		Out:      out,
	})
	require.NoError(t, err)
	require.Contains(t, out.String(), "tickets=1 draws=1 balance=1000000")

	out.Reset()

	err = withdrawAction{}.Execute(node.Context{
		Injector: inj,
		Flags:    node.FlagSet{"recipient": "treasury", "amount": 500},
		Out:      out,
	})
	require.NoError(t, err)
	require.Contains(t, out.String(), "withdrawn 500")
}
