package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fwojciec/noteify"
	"github.com/fwojciec/noteify/exec"
	"github.com/fwojciec/noteify/fs"
	"github.com/fwojciec/noteify/goldmark"
	"github.com/fwojciec/noteify/index"
	"github.com/fwojciec/noteify/session"
	nslog "github.com/fwojciec/noteify/slog"
	"github.com/fwojciec/noteify/unix"
	"golang.org/x/sync/errgroup"
)

// Run executes the serve command. It indexes the vault, keeps the index in
// sync with the file system and serves sessions until the context ends.
// A socket that cannot be bound is reported but does not stop indexing.
func (c *ServeCmd) Run(deps *Dependencies) error {
	vault := c.Vault
	if vault == "" {
		vault = deps.Config.Vault
	}
	if vault == "" {
		fmt.Fprintln(deps.Stderr, "Hint: pass a vault directory, set NOTEIFY_VAULT, or set vault in the config file")
		return noteify.Errorf(noteify.EINVALID, "vault directory required")
	}
	vault, err := filepath.Abs(vault)
	if err != nil {
		return err
	}
	if info, err := os.Stat(vault); err != nil {
		return fmt.Errorf("failed to open vault: %w", err)
	} else if !info.IsDir() {
		return noteify.Errorf(noteify.EINVALID, "%s is not a directory", vault)
	}

	command := exec.ParseCommand(c.Navigate)
	if len(command) == 0 {
		command = deps.Config.Navigate
	}
	interval := c.Interval
	if interval <= 0 {
		interval = deps.Config.Interval
	}
	if interval <= 0 {
		interval = fs.DefaultInterval
	}

	logger := deps.Logger
	idx := index.New(nslog.NewLoggingParser(goldmark.NewParser(), logger))
	sections := nslog.NewLoggingIndex(idx, logger)
	navigator := nslog.NewLoggingNavigator(exec.NewNavigator(vault, command, logger), logger)

	registry := session.NewRegistry(sections, navigator, logger)
	idx.Listener = registry
	defer registry.Close()

	watcher := fs.NewWatcher(vault, index.NewChangeHandler(sections, logger), logger)
	watcher.Interval = interval

	server := unix.NewServer(deps.Socket, registry, logger)
	if err := server.Open(); err != nil {
		fmt.Fprintln(deps.Stderr, server.Status().Full())
	}
	defer server.Close()
	fmt.Fprintf(deps.Stdout, "%s: indexing %s, socket %s\n", server.Status(), vault, deps.Socket)

	g, ctx := errgroup.WithContext(deps.Ctx)
	g.Go(func() error {
		return watcher.Run(ctx)
	})
	if server.Status().Running {
		g.Go(func() error {
			if err := server.Serve(ctx); err != nil {
				fmt.Fprintln(deps.Stderr, server.Status().Full())
			}
			return nil
		})
	}
	err = g.Wait()

	docs := sections.Documents(context.WithoutCancel(deps.Ctx))
	total := 0
	for _, d := range docs {
		total += d.Sections
	}
	fmt.Fprintf(deps.Stdout, "indexed %d documents, %d sections\n", len(docs), total)
	return err
}
