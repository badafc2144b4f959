// Package dispatch fans recognition outcomes out to presentation
// collaborators. It carries no state and makes no decisions; one slow
// or failing observer never affects the others.
package dispatch

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/binsight/go-binsight/internal/log"
	"github.com/binsight/go-binsight/pkg/recognize"
	"github.com/binsight/go-binsight/pkg/waste"
)

// Outcome is the single result of one completed detection cycle.
type Outcome struct {
	// RequestID correlates the outcome to its DetectionRequest.
	RequestID uint64 `json:"request_id"`

	// CycleID is a globally unique identifier for external consumers.
	CycleID uuid.UUID `json:"cycle_id"`

	// Origin names the signal source that armed the cycle.
	Origin string `json:"origin"`

	// Success payload.
	Label      string         `json:"label,omitempty"`
	Category   waste.Category `json:"category,omitempty"`
	Confidence float64        `json:"confidence,omitempty"`

	// Failure payload.
	ErrKind recognize.ErrorKind `json:"error_kind,omitempty"`
	Message string              `json:"message,omitempty"`

	// At is when the cycle completed.
	At time.Time `json:"at"`
}

// Failed reports whether the cycle ended in a recognition failure.
func (o Outcome) Failed() bool {
	return o.ErrKind != recognize.KindNone
}

// Guidance returns the disposal guidance for the outcome's category.
func (o Outcome) Guidance() waste.Info {
	if o.Failed() {
		return waste.Lookup(waste.Unknown)
	}
	return waste.Lookup(o.Category)
}

// Observer receives one outcome per completed cycle.
type Observer interface {
	HandleOutcome(Outcome)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Outcome)

// HandleOutcome implements Observer.
func (f ObserverFunc) HandleOutcome(o Outcome) {
	f(o)
}

// Dispatcher delivers each outcome to every registered observer
// exactly once.
type Dispatcher struct {
	mu        sync.RWMutex
	observers []Observer
	logger    *slog.Logger
}

// New creates an empty dispatcher.
func New() *Dispatcher {
	return &Dispatcher{
		logger: log.Component("dispatch"),
	}
}

// Register adds an observer. Observers registered mid-stream receive
// only subsequent outcomes.
func (d *Dispatcher) Register(obs Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, obs)
}

// ObserverCount returns the number of registered observers.
func (d *Dispatcher) ObserverCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.observers)
}

// Dispatch delivers the outcome to all observers. A panicking observer
// is logged and skipped; delivery to the rest continues.
func (d *Dispatcher) Dispatch(o Outcome) {
	d.mu.RLock()
	observers := make([]Observer, len(d.observers))
	copy(observers, d.observers)
	d.mu.RUnlock()

	for _, obs := range observers {
		d.deliver(obs, o)
	}
}

func (d *Dispatcher) deliver(obs Observer, o Outcome) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("observer panicked", "panic", r, "request_id", o.RequestID)
		}
	}()
	obs.HandleOutcome(o)
}

// SlogObserver logs every outcome through the structured logger.
func SlogObserver() Observer {
	logger := log.Component("outcome")
	return ObserverFunc(func(o Outcome) {
		if o.Failed() {
			logger.Warn("detection cycle failed",
				"request_id", o.RequestID,
				"origin", o.Origin,
				"kind", o.ErrKind,
				"message", o.Message)
			return
		}
		logger.Info("waste classified",
			"request_id", o.RequestID,
			"origin", o.Origin,
			"label", o.Label,
			"category", o.Category,
			"confidence", o.Confidence,
			"guidance", o.Guidance().Guidance)
	})
}
