package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/noteify/unix"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	Config *Config

	// Socket is the resolved socket path.
	Socket string
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config  string `short:"c" type:"path" env:"NOTEIFY_CONFIG" help:"YAML config file (default ~/.config/noteify/config.yaml)"`
	Socket  string `type:"path" env:"NOTEIFY_SOCKET" help:"Socket path"`
	Verbose bool   `short:"v" help:"Enable debug logging"`

	Serve  ServeCmd  `cmd:"" help:"Index a vault and serve its sections on the socket"`
	Watch  WatchCmd  `cmd:"" help:"Print document outlines as the server streams them"`
	Reveal RevealCmd `cmd:"" help:"Navigate to a section by identifier"`
	Status StatusCmd `cmd:"" help:"Show whether the server is running"`
}

// socketPath resolves the socket from flags, then the config file, then the
// platform default.
func (c *CLI) socketPath(cfg *Config) string {
	switch {
	case c.Socket != "":
		return c.Socket
	case cfg.Socket != "":
		return cfg.Socket
	default:
		return unix.DefaultSocketPath()
	}
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Vault    string        `arg:"" optional:"" type:"path" env:"NOTEIFY_VAULT" help:"Vault directory"`
	Interval time.Duration `short:"i" help:"Full rescan interval (default 1m)"`
	Navigate string        `short:"n" env:"NOTEIFY_NAVIGATE" help:"Navigation command with {path}, {line} and {column} placeholders"`
}

// WatchCmd is the "watch" subcommand.
type WatchCmd struct{}

// RevealCmd is the "reveal" subcommand.
type RevealCmd struct {
	ID uint64 `arg:"" help:"Section identifier"`
}

// StatusCmd is the "status" subcommand.
type StatusCmd struct{}
