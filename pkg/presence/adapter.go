// Package presence turns a binary hardware level into a stream of
// presence signals. Debouncing is deliberately left to the trigger
// coordinator, which evaluates signal stability against arming state.
package presence

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/binsight/go-binsight/internal/log"
)

// Signal is one raw presence reading, pre-debounce.
type Signal struct {
	Active    bool
	Timestamp time.Time
}

// LevelReader reads the instantaneous sensor level.
type LevelReader interface {
	ReadLevel() (bool, error)
}

// Config holds presence adapter settings.
type Config struct {
	PollInterval time.Duration
}

// DefaultConfig returns the recommended polling configuration.
func DefaultConfig() Config {
	return Config{
		PollInterval: 50 * time.Millisecond,
	}
}

// Adapter polls a level reader at a fixed interval and emits one signal
// per successful read. On read failure it emits nothing and marks
// itself degraded; consumers must tolerate indefinite silence.
type Adapter struct {
	cfg    Config
	reader LevelReader
	logger *slog.Logger

	mu       sync.RWMutex
	degraded bool
	lastTS   time.Time
}

// NewAdapter creates a presence adapter over the given reader.
func NewAdapter(reader LevelReader, cfg Config) *Adapter {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	return &Adapter{
		cfg:    cfg,
		reader: reader,
		logger: log.Component("presence"),
	}
}

// Degraded reports whether the last read failed.
func (a *Adapter) Degraded() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.degraded
}

// Run polls until ctx is cancelled, calling emit for every successful
// read. Read errors are absorbed here; they only flip the degraded flag.
func (a *Adapter) Run(ctx context.Context, emit func(Signal)) error {
	ticker := time.NewTicker(a.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if sig, ok := a.Poll(time.Now()); ok {
			emit(sig)
		}
	}
}

// Poll performs one read. The second return value is false when the
// read failed and no signal should be emitted.
func (a *Adapter) Poll(now time.Time) (Signal, bool) {
	level, err := a.reader.ReadLevel()

	a.mu.Lock()
	defer a.mu.Unlock()

	if err != nil {
		if !a.degraded {
			a.logger.Warn("sensor read failed, adapter degraded", "error", err)
			a.degraded = true
		}
		return Signal{}, false
	}

	if a.degraded {
		a.logger.Info("sensor recovered")
		a.degraded = false
	}

	if !now.After(a.lastTS) {
		now = a.lastTS.Add(time.Nanosecond)
	}
	a.lastTS = now

	return Signal{Active: level, Timestamp: now}, true
}
