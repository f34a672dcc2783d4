package node

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	secretsphere "github.com/kai-tanaka-dev/SecretSphere"
	"github.com/kai-tanaka-dev/SecretSphere/cli"
	"github.com/kai-tanaka-dev/SecretSphere/cli/ucli"
	"golang.org/x/xerrors"
)

// CLIBuilder is an application builder that will build a CLI to start and
// control a node. An action built with MakeAction starts the node
// components, runs the action against them and stops the components in
// reverse order. The start command keeps the node running until a signal is
// received.
//
// - implements node.Builder
// - implements cli.Builder
type CLIBuilder struct {
	cli.Builder

	injector   Injector
	startFlags []cli.Flag
	inits      []Initializer
	writer     io.Writer

	// In production, the node is stopped via SIGTERM. In case of testing,
	// the channel will be closed instead, because of instability.
	enableSignal bool
	sigs         chan os.Signal
}

// NewBuilder returns a new empty builder.
func NewBuilder(inits ...Initializer) *CLIBuilder {
	return NewBuilderWithCfg(nil, nil, inits...)
}

// NewBuilderWithCfg returns a new empty builder with specific configurations.
func NewBuilderWithCfg(sigs chan os.Signal, out io.Writer, inits ...Initializer) *CLIBuilder {
	if out == nil {
		out = os.Stdout
	}

	enabled := false

	if sigs == nil {
		sigs = make(chan os.Signal, 1)
		enabled = true
	}

	builder := ucli.NewBuilder("ssphere", nil, cli.StringFlag{
		Name:  "config",
		Usage: "path to the config folder",
		Value: ".ssphere",
	})

	return &CLIBuilder{
		Builder:      builder,
		injector:     NewInjector(),
		enableSignal: enabled,
		sigs:         sigs,
		inits:        inits,
		writer:       out,
	}
}

// SetStartFlags implements node.Builder. It appends the given flags to the
// list of flags that will be used to create the start command.
func (b *CLIBuilder) SetStartFlags(flags ...cli.Flag) {
	b.startFlags = append(b.startFlags, flags...)
}

// MakeAction implements node.Builder. It creates a CLI action that starts
// the node components, executes the template and stops the components.
func (b *CLIBuilder) MakeAction(tmpl ActionTemplate) cli.Action {
	return func(flags cli.Flags) error {
		err := b.onStart(flags)
		if err != nil {
			return xerrors.Errorf("couldn't start the node: %v", err)
		}

		defer func() {
			err := b.onStop()
			if err != nil {
				secretsphere.Logger.Err(err).Msg("failed to stop the node")
			}
		}()

		ctx := Context{
			Injector: b.injector,
			Flags:    flags,
			Out:      b.writer,
		}

		err = tmpl.Execute(ctx)
		if err != nil {
			return xerrors.Opaque(err)
		}

		return nil
	}
}

// Build implements node.Builder. It returns the application.
func (b *CLIBuilder) Build() cli.Application {
	for _, controller := range b.inits {
		controller.SetCommands(b)
	}

	cmd := b.SetCommand("start")
	cmd.SetDescription("start the node and keep it running")
	cmd.SetFlags(b.startFlags...)
	cmd.SetAction(b.start)

	return b.Builder.Build()
}

func (b *CLIBuilder) start(flags cli.Flags) error {
	if b.enableSignal {
		signal.Notify(b.sigs, syscall.SIGINT, syscall.SIGTERM)

		defer signal.Stop(b.sigs)
	}

	err := b.onStart(flags)
	if err != nil {
		return xerrors.Opaque(err)
	}

	<-b.sigs
	signal.Stop(b.sigs)

	err = b.onStop()
	if err != nil {
		return xerrors.Opaque(err)
	}

	secretsphere.Logger.Trace().Msg("node has been stopped")

	return nil
}

func (b *CLIBuilder) onStart(flags cli.Flags) error {
	dir := flags.Path("config")
	if dir != "" {
		err := os.MkdirAll(dir, 0700)
		if err != nil {
			return xerrors.Errorf("couldn't make path: %v", err)
		}
	}

	for _, controller := range b.inits {
		err := controller.OnStart(flags, b.injector)
		if err != nil {
			return xerrors.Errorf("couldn't run the controller: %v", err)
		}
	}

	return nil
}

// onStop stops the controllers in reverse order so that high level
// components are stopped before lower level ones (i.e. stop a service before
// the database to avoid errors).
func (b *CLIBuilder) onStop() error {
	for i := len(b.inits) - 1; i >= 0; i-- {
		err := b.inits[i].OnStop(b.injector)
		if err != nil {
			return xerrors.Errorf("couldn't stop controller: %v", err)
		}
	}

	return nil
}
