package ledger

import (
	"context"
	"time"

	"github.com/WGlynn/divvy/pkg/logger"
	"github.com/WGlynn/divvy/pkg/metrics"
)

// shutdownTimeout bounds the graceful drain on Shutdown.
const shutdownTimeout = 10 * time.Second

// Applier drains the command log. Exactly one Applier must run per Log:
// that single consumer is the total-order guarantee.
type Applier struct {
	log  *Log
	lg   logger.Logger
	done chan struct{}
}

// ApplierOption applies a configuration option to the Applier.
type ApplierOption func(*Applier)

// WithLogger sets a custom logger for the applier.
func WithLogger(lg logger.Logger) ApplierOption {
	return func(a *Applier) {
		if lg != nil {
			a.lg = lg
		}
	}
}

// NewApplier creates an applier for the given log.
func NewApplier(log *Log, opts ...ApplierOption) *Applier {
	a := &Applier{
		log:  log,
		lg:   logger.Get().Named("applier"),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run applies commands until the log closes or ctx is canceled. Commands
// already dequeued are always answered.
func (a *Applier) Run(ctx context.Context) {
	defer close(a.done)

	for {
		select {
		case <-ctx.Done():
			return
		case sub, ok := <-a.log.subs:
			if !ok {
				return
			}
			a.apply(ctx, sub)
		}
	}
}

func (a *Applier) apply(ctx context.Context, sub submission) {
	start := time.Now()
	err := sub.cmd.Apply(ctx)
	elapsed := time.Since(start)

	metrics.RecordCommandApplied(sub.cmd.Name(), err == nil)
	metrics.RecordApplyLatency(float64(elapsed.Microseconds()) / 1000.0)
	metrics.UpdateCommandLogDepth(a.log.Len())

	if err != nil {
		a.lg.Debug(ctx, "command rejected",
			logger.String("command", sub.cmd.Name()),
			logger.Error(err),
		)
	}
	sub.done <- err
}

// Shutdown closes the log and waits for the applier to finish draining.
func (a *Applier) Shutdown(ctx context.Context) error {
	_ = a.log.Close()

	timeout := time.NewTimer(shutdownTimeout)
	defer timeout.Stop()

	select {
	case <-a.done:
		return nil
	case <-timeout.C:
		return ErrShutdownTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}
