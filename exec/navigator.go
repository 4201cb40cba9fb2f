// Package exec navigates to source locations by running an external command.
package exec

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/fwojciec/noteify"
	"github.com/fwojciec/noteify/fs"
)

// Ensure Navigator implements noteify.Navigator at compile time.
var _ noteify.Navigator = (*Navigator)(nil)

// Navigator runs Command with the placeholders {path}, {line} and {column}
// replaced in every argument. {path} is the absolute file path. With an
// empty Command, navigation requests are only logged.
type Navigator struct {
	Root    string
	Command []string

	logger *slog.Logger
}

// NewNavigator creates a new Navigator for the vault at root.
func NewNavigator(root string, command []string, logger *slog.Logger) *Navigator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Navigator{Root: root, Command: command, logger: logger}
}

// ParseCommand splits a command template on white space.
// Example: "code --goto {path}:{line}:{column}"
func ParseCommand(s string) []string {
	return strings.Fields(s)
}

// GoTo starts the navigation command for path and returns once it has
// started. The command outlives ctx. A command that exits with an error is
// logged together with its stderr output.
func (n *Navigator) GoTo(ctx context.Context, path string, line, column int) error {
	abs, err := fs.AbsPath(n.Root, path)
	if err != nil {
		return err
	}
	if len(n.Command) == 0 {
		n.logger.Info("navigate", "path", abs, "line", line, "column", column)
		return nil
	}

	r := strings.NewReplacer(
		"{path}", abs,
		"{line}", strconv.Itoa(line),
		"{column}", strconv.Itoa(column),
	)
	args := make([]string, len(n.Command))
	for i, arg := range n.Command {
		args[i] = r.Replace(arg)
	}

	stderr := new(bytes.Buffer)
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", args[0], err)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			n.logger.Error("navigation command failed",
				"command", args[0],
				"path", abs,
				"err", err,
				"stderr", strings.TrimSpace(stderr.String()),
			)
		}
	}()
	return nil
}
