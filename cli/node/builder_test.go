package node

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/kai-tanaka-dev/SecretSphere/cli"
	"github.com/kai-tanaka-dev/SecretSphere/testing/fake"
)

func TestCLIBuilder_Build(t *testing.T) {
	builder := NewBuilder(&fakeInitializer{})

	app := builder.Build()
	require.NotNil(t, app)
}

func TestCLIBuilder_SetStartFlags(t *testing.T) {
	builder := NewBuilder()

	builder.SetStartFlags(cli.StringFlag{Name: "first"})
	builder.SetStartFlags(cli.BoolFlag{Name: "second"})

	require.Len(t, builder.startFlags, 2)
}

func TestCLIBuilder_MakeAction(t *testing.T) {
	out := &bytes.Buffer{}

	init := &fakeInitializer{}

	builder := NewBuilderWithCfg(nil, out, init)

	action := builder.MakeAction(fakeAction{out: "hello"})

	err := action(FlagSet{})
	require.NoError(t, err)
	require.Equal(t, "hello", out.String())
	require.Equal(t, 1, init.started)
	require.Equal(t, 1, init.stopped)
}

func TestCLIBuilder_FailStart_MakeAction(t *testing.T) {
	init := &fakeInitializer{errStart: fake.GetError()}

	builder := NewBuilder(init)

	action := builder.MakeAction(fakeAction{})

	err := action(FlagSet{})
	require.EqualError(t, err, fake.Err(
		"couldn't start the node: couldn't run the controller"))
}

func TestCLIBuilder_FailAction_MakeAction(t *testing.T) {
	init := &fakeInitializer{}

	builder := NewBuilder(init)

	action := builder.MakeAction(fakeAction{err: fake.GetError()})

	err := action(FlagSet{})
	require.EqualError(t, err, fake.GetError().Error())

	// The node is stopped even when the action fails.
	require.Equal(t, 1, init.stopped)
}

func TestCLIBuilder_Start(t *testing.T) {
	sigs := make(chan os.Signal)

	init := &fakeInitializer{}

	builder := NewBuilderWithCfg(sigs, nil, init)

	close(sigs)

	err := builder.start(FlagSet{})
	require.NoError(t, err)
	require.Equal(t, 1, init.started)
	require.Equal(t, 1, init.stopped)
}

func TestCLIBuilder_FailStop_Start(t *testing.T) {
	sigs := make(chan os.Signal)

	init := &fakeInitializer{errStop: fake.GetError()}

	builder := NewBuilderWithCfg(sigs, nil, init)

	close(sigs)

	err := builder.start(FlagSet{})
	require.EqualError(t, err, fake.Err("couldn't stop controller"))
}

// -----------------------------------------------------------------------------
// Utility functions

type fakeInitializer struct {
	errStart error
	errStop  error
	started  int
	stopped  int
}

func (c *fakeInitializer) SetCommands(builder Builder) {
	cmd := builder.SetCommand("test")
	cmd.SetDescription("test command")
	cmd.SetAction(func(cli.Flags) error { return nil })
}

func (c *fakeInitializer) OnStart(flags cli.Flags, inj Injector) error {
	c.started++
	return c.errStart
}

func (c *fakeInitializer) OnStop(inj Injector) error {
	c.stopped++
	return c.errStop
}

type fakeAction struct {
	out string
	err error
}

func (a fakeAction) Execute(ctx Context) error {
	if a.err != nil {
		return a.err
	}

	ctx.Out.Write([]byte(a.out))

	return nil
}
