// Package main implements the node CLI of the confidential lottery.
//
//  go run mod.go --config /tmp/ssphere lottery buy --first 2 --second 8
//  go run mod.go --config /tmp/ssphere lottery draw
//  go run mod.go --config /tmp/ssphere lottery stats
//
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/kai-tanaka-dev/SecretSphere/cli/node"
	"github.com/kai-tanaka-dev/SecretSphere/contracts/lottery/controller"
)

var printer io.Writer = os.Stderr

func main() {
	err := run(os.Args)
	if err != nil {
		fmt.Fprintf(printer, "%+v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	return runWithCfg(args, config{})
}

// config allows the tests to drive the signal channel and capture the
// output.
type config struct {
	Channel chan os.Signal
	Writer  io.Writer
}

func runWithCfg(args []string, cfg config) error {
	builder := node.NewBuilderWithCfg(
		cfg.Channel,
		cfg.Writer,
		controller.NewController(),
	)

	app := builder.Build()

	return app.Run(args)
}
