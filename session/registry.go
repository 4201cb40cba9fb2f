// Package session tracks connected consumers and keeps each one's view of
// the section index in sync.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"slices"
	"sync"
	"time"

	"github.com/fwojciec/noteify"
	"github.com/fwojciec/noteify/jsonl"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Ensure Registry implements noteify.IndexListener at compile time.
var _ noteify.IndexListener = (*Registry)(nil)

// Default limits.
const (
	DefaultMaxPending  = 1024
	DefaultRevealRate  = 20
	DefaultRevealBurst = 20
)

// Registry is the set of live sessions. It is the index listener: every
// committed index mutation is queued to every session in registration order.
//
// Lock order is index, then registry: the index calls the listener methods
// with its lock held, and Join takes the registry lock inside an index
// snapshot. A session therefore receives the join-time replay followed by
// exactly the mutations committed after it.
type Registry struct {
	// MaxPending bounds queued broadcasts per session. A session that falls
	// further behind is disconnected. Zero means unbounded.
	MaxPending int

	// RevealRate and RevealBurst configure the per-session reveal limiter.
	RevealRate  rate.Limit
	RevealBurst int

	// DrainTimeout is passed to every session connection.
	DrainTimeout time.Duration

	index     noteify.SectionIndex
	navigator noteify.Navigator
	logger    *slog.Logger

	mu       sync.Mutex
	sessions []*Session
	closed   bool
}

// NewRegistry creates a new Registry.
func NewRegistry(index noteify.SectionIndex, navigator noteify.Navigator, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		MaxPending:   DefaultMaxPending,
		RevealRate:   DefaultRevealRate,
		RevealBurst:  DefaultRevealBurst,
		DrainTimeout: jsonl.DefaultDrainTimeout,
		index:        index,
		navigator:    navigator,
		logger:       logger,
	}
}

// ServeConn runs a session over conn until it disconnects or ctx is canceled.
func (r *Registry) ServeConn(ctx context.Context, conn net.Conn) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := newSession(uuid.New().String(), r.MaxPending, rate.NewLimiter(r.RevealRate, r.RevealBurst))
	logger := r.logger.With("session", s.ID)
	s.conn = jsonl.NewConn(conn, jsonl.HandlerFunc(func(frame json.RawMessage) {
		r.handleFrame(ctx, s, logger, frame)
	}), logger)
	s.conn.DrainTimeout = r.DrainTimeout

	if !r.Join(s) {
		return s.conn.Close()
	}
	logger.Info("session joined")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writeLoop(logger)
	}()

	err := s.conn.Serve(ctx)
	r.Leave(s)
	s.stop()
	wg.Wait()

	logger.Info("session left", "err", err)
	return err
}

// Join queues one send message per indexed document to s, then registers s
// for broadcasts. Returns false if the registry is closed.
func (r *Registry) Join(s *Session) bool {
	joined := false
	r.index.Snapshot(func(docs []*noteify.Root) {
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.closed {
			return
		}
		for _, doc := range docs {
			data, err := json.Marshal(&noteify.SendMessage{Doc: doc})
			if err != nil {
				r.logger.Error("encode document", "path", doc.Path, "err", err)
				continue
			}
			s.out.pushUnbounded(data)
		}
		r.sessions = append(r.sessions, s)
		joined = true
	})
	return joined
}

// Leave deregisters s. Safe to call more than once.
func (r *Registry) Leave(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions = slices.DeleteFunc(r.sessions, func(o *Session) bool { return o == s })
}

// DocumentReplaced queues a send message to every session.
func (r *Registry) DocumentReplaced(doc *noteify.Root) {
	r.broadcast(&noteify.SendMessage{Doc: doc})
}

// DocumentRemoved queues a remove message to every session.
func (r *Registry) DocumentRemoved(path string) {
	r.broadcast(&noteify.RemoveMessage{Filename: path})
}

func (r *Registry) broadcast(msg noteify.OutboundMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error("encode broadcast", "err", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.sessions {
		if s.conn.State() != jsonl.StateOpen {
			continue
		}
		if !s.out.push(data) {
			r.logger.Warn("session too slow, disconnecting", "session", s.ID, "pending", r.MaxPending)
			s.stop()
		}
	}
}

// Reveal resolves id and navigates to its location. Unknown or stale
// identifiers are dropped silently.
func (r *Registry) Reveal(ctx context.Context, id noteify.SectionID) {
	loc, err := r.index.Resolve(ctx, id)
	if err != nil {
		r.logger.Debug("reveal dropped", "id", id, "err", err)
		return
	}
	if ctx.Err() != nil {
		return
	}
	if err := r.navigator.GoTo(ctx, loc.Path, loc.Line, 0); err != nil {
		r.logger.Warn("navigation failed", "path", loc.Path, "line", loc.Line, "err", err)
	}
}

func (r *Registry) handleFrame(ctx context.Context, s *Session, logger *slog.Logger, frame json.RawMessage) {
	msg, err := noteify.DecodeInbound(frame)
	if err != nil {
		logger.Warn("ignoring invalid message", "err", err)
		return
	}

	switch m := msg.(type) {
	case *noteify.RevealMessage:
		if !s.limiter.Allow() {
			logger.Warn("reveal rate exceeded, dropping request", "id", m.DocID)
			return
		}
		r.Reveal(ctx, m.DocID)
	case *noteify.UnknownMessage:
		logger.Info("ignoring unrecognized message", "op", m.Op)
	}
}

// Sessions returns the number of registered sessions.
func (r *Registry) Sessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close disconnects every session and refuses new ones.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	for _, s := range r.sessions {
		s.stop()
	}
	r.sessions = nil
	return nil
}
