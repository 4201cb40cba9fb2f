package main

import (
	"fmt"

	"github.com/fwojciec/noteify/unix"
)

// Run executes the status command.
func (c *StatusCmd) Run(deps *Dependencies) error {
	status := unix.Probe(deps.Ctx, deps.Socket)
	fmt.Fprintln(deps.Stdout, status)
	fmt.Fprintln(deps.Stdout, status.Full())
	return nil
}
