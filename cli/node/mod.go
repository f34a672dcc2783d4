// Package node defines the Builder type, which builds the CLI application of
// a single node.
//
// Modules provide an Initializer that registers their commands and populates
// the dependency injector when the node starts. An action created with
// MakeAction runs against the started node with the injector resolved.
package node

import (
	"io"

	"github.com/kai-tanaka-dev/SecretSphere/cli"
)

// Builder is the builder provided to the initializers, which can create
// commands and actions.
type Builder interface {
	// SetCommand creates a new command and returns its builder.
	SetCommand(name string) cli.CommandBuilder

	// SetStartFlags appends a list of flags available to every command.
	SetStartFlags(...cli.Flag)

	// MakeAction creates a CLI action from a given template. The template is
	// executed against the started node.
	MakeAction(ActionTemplate) cli.Action
}

// ActionTemplate is an extension of the cli.Action interface to give an
// action access to the node components.
type ActionTemplate interface {
	// Execute processes a command with the node components resolved.
	Execute(Context) error
}

// Context is the context available to the action when being invoked. It
// provides the dependency injector alongside with the flags and the output.
type Context struct {
	Injector Injector
	Flags    cli.Flags
	Out      io.Writer
}

// Injector is a dependency injection abstraction.
type Injector interface {
	// Resolve populates the input with the dependency if any compatible exists.
	Resolve(interface{}) error

	// Inject stores the dependency to be resolved later on.
	Inject(interface{})
}

// Initializer is the interface that a module can implement to set its own
// commands and inject the dependencies that will be resolved in the actions.
type Initializer interface {
	// SetCommands populates the builder with the commands of the controller.
	SetCommands(Builder)

	// OnStart starts the components of the initializer and populates the
	// injector.
	OnStart(cli.Flags, Injector) error

	// OnStop stops the components and cleans the resources.
	OnStop(Injector) error
}
