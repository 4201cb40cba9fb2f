package main

import (
	"fmt"

	"github.com/fwojciec/noteify"
	"github.com/fwojciec/noteify/unix"
)

// Run executes the watch command. It prints the outline of every document
// the server sends until the server disconnects or the context ends.
func (c *WatchCmd) Run(deps *Dependencies) error {
	client, err := unix.Dial(deps.Ctx, deps.Socket, deps.Logger)
	if err != nil {
		fmt.Fprintln(deps.Stderr, "Hint: start the server with 'noteify serve'")
		return fmt.Errorf("failed to connect to %q: %w", deps.Socket, err)
	}
	defer client.Close()

	return client.Run(deps.Ctx, func(msg noteify.OutboundMessage) {
		switch m := msg.(type) {
		case *noteify.SendMessage:
			fmt.Fprintln(deps.Stdout, noteify.FormatOutline(m.Doc))
		case *noteify.RemoveMessage:
			fmt.Fprintf(deps.Stdout, "removed %s\n", m.Filename)
		}
	})
}
