package recognize

import (
	"context"
	"log/slog"
	"time"

	"github.com/binsight/go-binsight/internal/log"
)

// Invoker runs a recognizer off the caller's path with an imposed
// timeout. It performs no retries; retry policy belongs to an explicit
// wrapping layer, never here.
type Invoker struct {
	rec     Recognizer
	timeout time.Duration
	logger  *slog.Logger
}

// NewInvoker wraps rec with the given per-call timeout.
func NewInvoker(rec Recognizer, timeout time.Duration) *Invoker {
	return &Invoker{
		rec:     rec,
		timeout: timeout,
		logger:  log.Component("recognize"),
	}
}

// Timeout returns the per-call timeout.
func (inv *Invoker) Timeout() time.Duration {
	return inv.timeout
}

// Invoke classifies the snapshot, returning within the timeout even if
// the underlying recognizer is stuck. The returned kind is KindNone on
// success.
func (inv *Invoker) Invoke(ctx context.Context, snapshot []byte) (Result, ErrorKind) {
	if len(snapshot) == 0 {
		return Result{}, KindModelError
	}

	ctx, cancel := context.WithTimeout(ctx, inv.timeout)
	defer cancel()

	type reply struct {
		res Result
		err error
	}
	done := make(chan reply, 1)

	go func() {
		res, err := inv.rec.Recognize(ctx, snapshot)
		done <- reply{res, err}
	}()

	select {
	case <-ctx.Done():
		// A late result from the abandoned goroutine lands in the
		// buffered channel and is garbage collected with it.
		inv.logger.Warn("recognition did not finish in time", "timeout", inv.timeout)
		return Result{}, KindTimeout

	case r := <-done:
		if r.err != nil {
			kind := Classify(r.err)
			inv.logger.Warn("recognition failed", "kind", kind, "error", r.err)
			return Result{}, kind
		}
		return r.res, KindNone
	}
}
