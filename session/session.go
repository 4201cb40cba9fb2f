package session

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/fwojciec/noteify/jsonl"
	"golang.org/x/time/rate"
)

// Session is one connected consumer. It holds connection state only.
type Session struct {
	ID string

	conn    *jsonl.Conn
	out     *outbox
	limiter *rate.Limiter

	done     chan struct{}
	stopOnce sync.Once
}

func newSession(id string, maxPending int, limiter *rate.Limiter) *Session {
	return &Session{
		ID:      id,
		out:     newOutbox(maxPending),
		limiter: limiter,
		done:    make(chan struct{}),
	}
}

// writeLoop sends queued frames in order until the session stops or a
// write fails.
func (s *Session) writeLoop(logger *slog.Logger) {
	for {
		select {
		case <-s.done:
			return
		case <-s.out.ready:
		}

		for _, frame := range s.out.drain() {
			if err := s.conn.Send(frame); err != nil {
				if !errors.Is(err, jsonl.ErrClosing) {
					logger.Warn("write failed, disconnecting", "err", err)
					s.stop()
				}
				return
			}
		}
	}
}

// stop closes the connection and ends the write loop. Safe to call more than once.
func (s *Session) stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// outbox is an ordered queue of encoded frames with a wake-up signal.
type outbox struct {
	mu    sync.Mutex
	queue []json.RawMessage
	limit int
	ready chan struct{}
}

func newOutbox(limit int) *outbox {
	return &outbox{limit: limit, ready: make(chan struct{}, 1)}
}

// push queues frame unless the queue is full.
func (o *outbox) push(frame json.RawMessage) bool {
	o.mu.Lock()
	if o.limit > 0 && len(o.queue) >= o.limit {
		o.mu.Unlock()
		return false
	}
	o.queue = append(o.queue, frame)
	o.mu.Unlock()

	o.signal()
	return true
}

// pushUnbounded queues frame regardless of the limit. Used for join replay.
func (o *outbox) pushUnbounded(frame json.RawMessage) {
	o.mu.Lock()
	o.queue = append(o.queue, frame)
	o.mu.Unlock()

	o.signal()
}

func (o *outbox) signal() {
	select {
	case o.ready <- struct{}{}:
	default:
	}
}

func (o *outbox) drain() []json.RawMessage {
	o.mu.Lock()
	defer o.mu.Unlock()

	q := o.queue
	o.queue = nil
	return q
}
