// Package unix serves sessions over a Unix domain socket.
package unix

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// SocketName is the file name of the socket.
const SocketName = "noteify.sock"

// DefaultSocketPath returns $XDG_RUNTIME_DIR/noteify.sock, or a per-user
// socket in the temporary directory when XDG_RUNTIME_DIR is unset.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, SocketName)
	}
	return filepath.Join(os.TempDir(), "noteify-"+strconv.Itoa(os.Getuid())+".sock")
}

// ConnHandler serves one accepted connection until it ends.
type ConnHandler interface {
	ServeConn(ctx context.Context, conn net.Conn) error
}

// Status describes whether the server is accepting connections.
type Status struct {
	Running bool
	Err     error
}

// String returns the short status line.
func (s Status) String() string {
	if s.Running {
		return "Noteify running"
	}
	return "Noteify is down"
}

// Full returns the detailed status text.
func (s Status) Full() string {
	switch {
	case s.Running:
		return "IPC server is running."
	case s.Err != nil:
		return fmt.Sprintf("IPC server is down due to an error: %q.", s.Err.Error())
	default:
		return "IPC server is down due to an unknown error."
	}
}

// Server accepts connections on a Unix socket and hands each one to Handler.
type Server struct {
	Path    string
	Handler ConnHandler

	logger *slog.Logger

	mu  sync.Mutex
	ln  net.Listener
	err error
}

// NewServer creates a new Server.
func NewServer(path string, handler ConnHandler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{Path: path, Handler: handler, logger: logger}
}

// Open removes a stale socket file and starts listening. Returns an error
// wrapping syscall.EADDRINUSE if another server is listening on Path.
// A failure is recorded in Status.
func (s *Server) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := claimSocket(s.Path); err != nil {
		s.err = err
		s.logger.Error("socket unavailable", "path", s.Path, "err", err)
		return err
	}
	ln, err := net.Listen("unix", s.Path)
	if err != nil {
		s.err = err
		s.logger.Error("listen failed", "path", s.Path, "err", err)
		return err
	}
	s.ln = ln
	s.err = nil
	s.logger.Info("listening", "path", s.Path)
	return nil
}

// Serve accepts connections until ctx is canceled or the listener fails.
// It returns after every connection handler has returned.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return errors.New("server not open")
	}

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	var g errgroup.Group
	var err error
	for {
		conn, aerr := ln.Accept()
		if aerr != nil {
			if ctx.Err() == nil && !errors.Is(aerr, net.ErrClosed) {
				err = aerr
				s.fail(aerr)
			}
			break
		}
		g.Go(func() error {
			if err := s.Handler.ServeConn(ctx, conn); err != nil {
				s.logger.Debug("connection ended", "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return err
}

func (s *Server) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Error("accept failed", "path", s.Path, "err", err)
	s.err = err
	if s.ln != nil {
		_ = s.ln.Close()
		s.ln = nil
	}
}

// Close stops listening and removes the socket file.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ln == nil {
		return nil
	}
	err := s.ln.Close()
	s.ln = nil
	if rerr := removeSocket(s.Path); err == nil {
		err = rerr
	}
	return err
}

// Status reports whether the server is listening.
func (s *Server) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Status{Running: s.ln != nil, Err: s.err}
}

// claimSocket removes a socket file left behind by a dead server. A socket
// that still accepts connections belongs to a live server and is kept.
func claimSocket(path string) error {
	conn, err := net.DialTimeout("unix", path, time.Second)
	if err == nil {
		_ = conn.Close()
		return fmt.Errorf("listen unix %s: %w", path, syscall.EADDRINUSE)
	}
	return removeSocket(path)
}

func removeSocket(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Mode()&fs.ModeSocket == 0 {
		return fmt.Errorf("%s exists and is not a socket", path)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
