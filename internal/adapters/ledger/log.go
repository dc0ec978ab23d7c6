// Package ledger serializes every state-mutating operation through an
// in-memory command log drained by exactly one applier. This makes the
// engine's single global execution stream explicit: commands apply atomically
// in total order, and a failed command leaves all state untouched.
package ledger

import (
	"context"
	"sync"

	"github.com/WGlynn/divvy/pkg/metrics"
)

// defaultCapacity bounds the pending command backlog.
const defaultCapacity = 4096

// Command is one atomic state transition.
type Command interface {
	// Name identifies the operation for logs and metrics.
	Name() string

	// Apply validates and then mutates engine state. An error means the
	// command had no effect.
	Apply(ctx context.Context) error
}

// submission pairs a command with its caller's reply channel.
type submission struct {
	cmd  Command
	done chan error
}

// Log is the bounded in-memory command log.
type Log struct {
	subs     chan submission
	capacity int

	mu     sync.RWMutex
	closed bool
}

// Option applies a configuration option to the Log.
type Option func(*Log)

// WithCapacity bounds the pending backlog.
func WithCapacity(n int) Option {
	return func(l *Log) {
		if n > 0 {
			l.capacity = n
		}
	}
}

// NewLog creates a command log.
func NewLog(opts ...Option) *Log {
	l := &Log{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(l)
	}
	l.subs = make(chan submission, l.capacity)
	return l
}

// Submit enqueues cmd and blocks until the applier has applied it, returning
// the command's own error. The reply channel is buffered so the applier
// never blocks on a caller that gave up.
//
// If ctx is canceled after the enqueue, Submit returns ctx.Err() while the
// command still applies in its serialized slot: cancellation abandons the
// reply, it does not withdraw the command. Callers that need to know the
// outcome must not cancel before the reply arrives.
func (l *Log) Submit(ctx context.Context, cmd Command) error {
	sub := submission{cmd: cmd, done: make(chan error, 1)}

	l.mu.RLock()
	if l.closed {
		l.mu.RUnlock()
		return ErrClosed
	}
	select {
	case l.subs <- sub:
		metrics.UpdateCommandLogDepth(len(l.subs))
		l.mu.RUnlock()
	case <-ctx.Done():
		l.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case err := <-sub.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the current backlog depth.
func (l *Log) Len() int {
	return len(l.subs)
}

// Close stops accepting commands. Pending submissions still drain.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	close(l.subs)
	return nil
}

// IsClosed reports whether the log no longer accepts commands.
func (l *Log) IsClosed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.closed
}
