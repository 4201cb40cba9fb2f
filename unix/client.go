package unix

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"

	"github.com/fwojciec/noteify"
	"github.com/fwojciec/noteify/jsonl"
)

// Client is the consumer end of a session.
type Client struct {
	conn   *jsonl.Conn
	fn     func(noteify.OutboundMessage)
	logger *slog.Logger
}

// Dial connects to the socket at path.
func Dial(ctx context.Context, path string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, err
	}

	c := &Client{logger: logger}
	c.conn = jsonl.NewConn(conn, jsonl.HandlerFunc(c.handleFrame), logger)
	return c, nil
}

// Probe reports whether a server accepts connections at path.
func Probe(ctx context.Context, path string) Status {
	c, err := Dial(ctx, path, nil)
	if err != nil {
		return Status{Err: err}
	}
	_ = c.Close()
	return Status{Running: true}
}

// Reveal asks the server to navigate to a section.
func (c *Client) Reveal(id noteify.SectionID) error {
	return c.conn.Send(&noteify.RevealMessage{DocID: id})
}

// Run calls fn for every message received until the server disconnects or
// ctx is canceled. fn is called from a single goroutine.
func (c *Client) Run(ctx context.Context, fn func(noteify.OutboundMessage)) error {
	c.fn = fn
	return c.conn.Serve(ctx)
}

// Shutdown stops sending. A running Run returns once the server closes
// its side.
func (c *Client) Shutdown() {
	c.conn.Shutdown()
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) handleFrame(frame json.RawMessage) {
	msg, err := noteify.DecodeOutbound(frame)
	if err != nil {
		c.logger.Warn("ignoring invalid message", "err", err)
		return
	}
	if c.fn != nil {
		c.fn(msg)
	}
}
