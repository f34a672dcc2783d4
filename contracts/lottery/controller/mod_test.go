package controller

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/kai-tanaka-dev/SecretSphere/cli/node"
	"github.com/kai-tanaka-dev/SecretSphere/core/store/kv"
	"github.com/kai-tanaka-dev/SecretSphere/fhe/enclave"
)

func TestMiniController_SetCommands(t *testing.T) {
	ctrl := NewController()

	builder := node.NewBuilder(ctrl)

	app := builder.Build()
	require.NotNil(t, app)
}

func TestMiniController_OnStart(t *testing.T) {
	ctrl := NewController()

	inj := node.NewInjector()

	err := ctrl.OnStart(node.FlagSet{"config": t.TempDir()}, inj)
	require.NoError(t, err)

	var db kv.DB
	require.NoError(t, inj.Resolve(&db))

	var backend *enclave.Enclave
	require.NoError(t, inj.Resolve(&backend))

	require.NoError(t, ctrl.OnStop(inj))
}

func TestMiniController_OnStop_MissingDB(t *testing.T) {
	ctrl := NewController()

	err := ctrl.OnStop(node.NewInjector())
	require.Contains(t, err.Error(), "failed to resolve db")
}

func TestMiniController_Persistence(t *testing.T) {
	dir := t.TempDir()

	ctrl := NewController()

	inj := node.NewInjector()
	require.NoError(t, ctrl.OnStart(node.FlagSet{"config": dir}, inj))

	out := &bytes.Buffer{}

	err := buyAction{}.Execute(node.Context{
		Injector: inj,
		Flags:    node.FlagSet{"first": 3, "second": 7},
		Out:      out,
	})
	require.NoError(t, err)

	require.NoError(t, ctrl.OnStop(inj))

	// A restart restores the signer, the enclave and the contract state, so
	// the pending ticket can still be drawn.
	inj = node.NewInjector()
	require.NoError(t, ctrl.OnStart(node.FlagSet{"config": dir}, inj))

	out.Reset()

	err = drawAction{}.Execute(node.Context{
		Injector: inj,
		Flags:    node.FlagSet{},
		Out:      out,
	})
	require.NoError(t, err)
	require.Contains(t, out.String(), "winning digits")

	require.NoError(t, ctrl.OnStop(inj))
}
