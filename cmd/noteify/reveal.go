package main

import (
	"fmt"

	"github.com/fwojciec/noteify"
	"github.com/fwojciec/noteify/unix"
)

// Run executes the reveal command.
func (c *RevealCmd) Run(deps *Dependencies) error {
	client, err := unix.Dial(deps.Ctx, deps.Socket, deps.Logger)
	if err != nil {
		fmt.Fprintln(deps.Stderr, "Hint: start the server with 'noteify serve'")
		return fmt.Errorf("failed to connect to %q: %w", deps.Socket, err)
	}
	defer client.Close()

	if err := client.Reveal(noteify.SectionID(c.ID)); err != nil {
		return fmt.Errorf("failed to send reveal: %w", err)
	}

	// Wait for the server to read the request and hang up.
	client.Shutdown()
	return client.Run(deps.Ctx, nil)
}
