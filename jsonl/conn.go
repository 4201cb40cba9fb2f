// Package jsonl frames newline-delimited JSON over a byte stream.
package jsonl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// ErrClosing is returned by Send once the connection stopped accepting writes.
var ErrClosing = errors.New("jsonl: connection closing")

// Default limits.
const (
	DefaultDrainTimeout = 5 * time.Second
	DefaultMaxFrameSize = 16 << 20
)

const readSize = 4096

// State is the lifecycle state of a Conn.
type State int32

// Conn states. Open moves to Closing on a protocol violation and to Closed on
// peer disconnect or Close. Closing moves to Closed. Closed is terminal.
const (
	StateOpen State = iota
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "closed"
	}
}

// Handler receives decoded frames in arrival order.
type Handler interface {
	HandleFrame(frame json.RawMessage)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(frame json.RawMessage)

// HandleFrame calls f(frame).
func (f HandlerFunc) HandleFrame(frame json.RawMessage) {
	f(frame)
}

// Conn reads and writes one JSON value per line over a net.Conn.
//
// A frame that is not valid JSON puts the connection in the Closing state:
// no further frames are dispatched, writes are refused, the write side is
// shut down and remaining input is drained until the peer closes or
// DrainTimeout elapses.
type Conn struct {
	// DrainTimeout bounds the Closing state. Set before Serve.
	DrainTimeout time.Duration

	// MaxFrameSize bounds the bytes buffered for a single unterminated frame.
	// Exceeding it is treated like a malformed frame. Set before Serve.
	MaxFrameSize int

	conn    net.Conn
	handler Handler
	logger  *slog.Logger

	state     atomic.Int32
	wmu       sync.Mutex
	closeOnce sync.Once

	// buf holds the bytes after the last newline. Owned by the reader.
	buf []byte
}

// NewConn creates a new Conn dispatching frames to handler.
func NewConn(conn net.Conn, handler Handler, logger *slog.Logger) *Conn {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Conn{
		DrainTimeout: DefaultDrainTimeout,
		MaxFrameSize: DefaultMaxFrameSize,
		conn:         conn,
		handler:      handler,
		logger:       logger,
	}
}

// State returns the current lifecycle state.
func (c *Conn) State() State {
	return State(c.state.Load())
}

// Send writes v as one JSON line. Returns ErrClosing once the connection
// left the Open state.
func (c *Conn) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	c.wmu.Lock()
	defer c.wmu.Unlock()

	if c.State() != StateOpen {
		return ErrClosing
	}
	_, err = c.conn.Write(data)
	return err
}

// Feed appends p to the read buffer and dispatches every complete line.
// Bytes after the last newline are kept for the next call.
func (c *Conn) Feed(p []byte) {
	c.buf = append(c.buf, p...)

	start := 0
	for {
		i := bytes.IndexByte(c.buf[start:], '\n')
		if i < 0 {
			break
		}
		c.dispatch(c.buf[start : start+i])
		start += i + 1
	}
	c.buf = append(c.buf[:0], c.buf[start:]...)

	if c.MaxFrameSize > 0 && len(c.buf) > c.MaxFrameSize {
		c.buf = nil
		if c.State() == StateOpen {
			c.logger.Warn("frame too large, closing connection", "limit", c.MaxFrameSize)
			c.beginClose()
		}
	}
}

func (c *Conn) dispatch(line []byte) {
	if c.State() != StateOpen {
		return
	}
	if !json.Valid(line) {
		c.logger.Warn("malformed frame, closing connection", "bytes", len(line))
		c.beginClose()
		return
	}
	c.handler.HandleFrame(json.RawMessage(bytes.Clone(line)))
}

// Shutdown stops sending and lets Serve drain the peer's remaining data
// until it closes or DrainTimeout passes.
func (c *Conn) Shutdown() {
	c.beginClose()
}

// beginClose moves Open to Closing, shuts down the write side and arms the
// drain deadline.
func (c *Conn) beginClose() {
	if !c.state.CompareAndSwap(int32(StateOpen), int32(StateClosing)) {
		return
	}

	// Not under wmu: a writer blocked on a stalled peer must not hold up
	// the reader.
	if cw, ok := c.conn.(interface{ CloseWrite() error }); ok {
		_ = cw.CloseWrite()
	}

	_ = c.conn.SetReadDeadline(time.Now().Add(c.DrainTimeout))
}

// Serve reads from the connection until the peer disconnects, the drain
// deadline passes, ctx is canceled or a read fails. The connection is
// closed on return. Expected terminations return nil.
func (c *Conn) Serve(ctx context.Context) error {
	defer c.Close()
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	p := make([]byte, readSize)
	for {
		n, err := c.conn.Read(p)
		if n > 0 {
			c.Feed(p[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) || c.State() != StateOpen {
				return nil
			}
			return err
		}
	}
}

// Close closes the underlying connection. Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosed))
		err = c.conn.Close()
	})
	return err
}
