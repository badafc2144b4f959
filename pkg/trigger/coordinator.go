package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/binsight/go-binsight/internal/log"
	"github.com/binsight/go-binsight/pkg/camera"
	"github.com/binsight/go-binsight/pkg/dispatch"
	"github.com/binsight/go-binsight/pkg/recognize"
)

// View is a read-only snapshot of coordinator state for dashboards.
type View struct {
	State            State     `json:"state"`
	Origin           Source    `json:"origin,omitempty"`
	PendingRequestID uint64    `json:"pending_request_id,omitempty"`
	LastTransition   time.Time `json:"last_transition"`
	RequestsCreated  uint64    `json:"requests_created"`
	CyclesCompleted  uint64    `json:"cycles_completed"`
	CyclesFailed     uint64    `json:"cycles_failed"`
	SignalsDropped   uint64    `json:"signals_dropped"`
}

// Coordinator is the single consumer of the merged signal queue. All
// state transitions happen on one goroutine; producers only enqueue.
type Coordinator struct {
	cfg        Config
	clock      Clock
	frames     camera.Source
	invoker    *recognize.Invoker
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger

	// events carries producer signals and operator commands; when it
	// is full new entries are dropped. cycle carries the coordinator's
	// own timer expiries and recognition results, which must never be
	// lost: a dropped expiry would strand the current state with no
	// exit path.
	events chan event
	cycle  chan event
	ctx    context.Context

	// submit hands a request to the invoker off the event loop.
	// Replaceable in tests.
	submit func(req *DetectionRequest)

	// State below is owned exclusively by the consuming goroutine.
	state          State
	origin         Source
	armedAt        time.Time
	captured       time.Time
	lastTransition time.Time
	pending  *DetectionRequest
	nextID   uint64
	timerSeq uint64
	timer    Timer

	motionActive   bool
	presenceActive bool

	// Published snapshot for concurrent readers.
	viewMu sync.RWMutex
	view   View
}

// New creates a coordinator. The dispatcher receives exactly one
// outcome per completed cycle.
func New(cfg Config, frames camera.Source, invoker *recognize.Invoker, dispatcher *dispatch.Dispatcher) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Coordinator{
		cfg:        cfg,
		clock:      realClock{},
		frames:     frames,
		invoker:    invoker,
		dispatcher: dispatcher,
		logger:     log.Component("trigger"),
		events:     make(chan event, cfg.QueueSize),
		cycle:      make(chan event, 16),
		ctx:        context.Background(),
		state:      StateIdle,
	}
	c.lastTransition = c.clock.Now()
	c.submit = c.submitAsync
	c.publishView()
	return c, nil
}

// Run consumes the event queue until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) error {
	c.ctx = ctx
	c.logger.Info("coordinator started",
		"delay", c.cfg.DetectionDelay,
		"timeout", c.cfg.DetectionTimeout,
		"cooldown", c.cfg.DetectionCooldown,
		"policy", c.cfg.Policy)

	for {
		select {
		case <-ctx.Done():
			c.stopTimer()
			return ctx.Err()
		case ev := <-c.cycle:
			c.handle(ev)
		case ev := <-c.events:
			c.handle(ev)
		}
	}
}

// Offer enqueues one signal reading. Never blocks: when the queue is
// full the signal is dropped and counted; producers outrun a stalled
// consumer rather than stalling themselves.
func (c *Coordinator) Offer(src Source, active bool, at time.Time) {
	c.enqueue(signalEvent{Source: src, Active: active, At: at})
}

// ForceTrigger starts a capture immediately if the coordinator is
// idle, bypassing the arming delay.
func (c *Coordinator) ForceTrigger() {
	c.enqueue(commandEvent{Cmd: cmdForceTrigger})
}

// ManualStop cancels a pending arming or cuts a cooldown short.
func (c *Coordinator) ManualStop() {
	c.enqueue(commandEvent{Cmd: cmdManualStop})
}

// Snapshot returns the current coordinator view.
func (c *Coordinator) Snapshot() View {
	c.viewMu.RLock()
	defer c.viewMu.RUnlock()
	return c.view
}

func (c *Coordinator) enqueue(ev event) {
	select {
	case c.events <- ev:
	default:
		c.viewMu.Lock()
		c.view.SignalsDropped++
		c.viewMu.Unlock()
		c.logger.Warn("event queue full, dropping event", "event", fmt.Sprintf("%T", ev))
	}
}

// enqueueCycle delivers a lifecycle event, blocking rather than
// dropping. Senders are the timer and invoker goroutines, never the
// consuming loop itself, so blocking cannot deadlock the coordinator.
func (c *Coordinator) enqueueCycle(ev event) {
	c.cycle <- ev
}

// handle processes exactly one event. It is only ever called from the
// consuming goroutine (or directly from tests), never concurrently.
func (c *Coordinator) handle(ev event) {
	prev := c.state

	switch ev := ev.(type) {
	case signalEvent:
		c.handleSignal(ev)
	case timerEvent:
		c.handleTimer(ev)
	case resultEvent:
		c.handleResult(ev)
	case commandEvent:
		c.handleCommand(ev)
	default:
		c.violation(fmt.Sprintf("unknown event type %T", ev))
	}

	if c.state != prev {
		c.lastTransition = c.clock.Now()
	}
	c.publishView()
}

func (c *Coordinator) handleSignal(ev signalEvent) {
	c.track(ev)

	switch c.state {
	case StateIdle:
		if c.shouldArm(ev) {
			c.enterArmed(ev)
		}

	case StateArmed:
		if c.armingCancelled(ev) {
			c.logger.Debug("arming cancelled before delay elapsed",
				"origin", c.origin, "held_for", ev.At.Sub(c.armedAt))
			c.enterIdle()
		}

	case StateAwaitingResult, StateCooldown:
		// Signals are consumed and discarded; new cycles cannot start
		// while a request is unresolved or the cooldown is running.

	case StateCapturing:
		// Capturing is transient within a single handle call; a signal
		// observed here means the machine leaked the state.
		c.violation("signal received in capturing state")
	}
}

func (c *Coordinator) track(ev signalEvent) {
	switch ev.Source {
	case SourceMotion:
		c.motionActive = ev.Active
	case SourcePresence:
		c.presenceActive = ev.Active
	}
}

func (c *Coordinator) shouldArm(ev signalEvent) bool {
	if !ev.Active {
		return false
	}
	if c.cfg.Policy == ArmBoth {
		return c.motionActive && c.presenceActive
	}
	return true
}

// armingCancelled reports whether a signal drop invalidates the
// current arming. Under OR fusion only the originating source can
// cancel; a different source's drop has no effect.
func (c *Coordinator) armingCancelled(ev signalEvent) bool {
	if ev.Active {
		return false
	}
	if c.cfg.Policy == ArmBoth {
		return ev.Source == SourceMotion || ev.Source == SourcePresence
	}
	return ev.Source == c.origin
}

func (c *Coordinator) handleTimer(ev timerEvent) {
	if ev.Seq != c.timerSeq {
		// Timer from a state already exited.
		return
	}

	switch {
	case ev.Kind == timerDelay && c.state == StateArmed:
		c.capture()
	case ev.Kind == timerTimeout && c.state == StateAwaitingResult:
		c.logger.Warn("recognition timed out",
			"request_id", c.pending.ID, "timeout", c.cfg.DetectionTimeout)
		c.finishCycle(recognize.Result{}, recognize.KindTimeout,
			fmt.Sprintf("no result within %v", c.cfg.DetectionTimeout))
	case ev.Kind == timerCooldown && c.state == StateCooldown:
		c.logger.Debug("cooldown elapsed")
		c.enterIdle()
	default:
		// Seq matched but state does not: the timer belongs to a state
		// we should still be in.
		c.violation(fmt.Sprintf("timer %d fired in state %s", ev.Kind, c.state))
	}
}

func (c *Coordinator) handleResult(ev resultEvent) {
	if c.state != StateAwaitingResult {
		c.logger.Warn("result for abandoned request ignored",
			"request_id", ev.RequestID, "state", c.state)
		return
	}
	if c.pending == nil {
		c.violation("awaiting result with no pending request")
		return
	}
	if ev.RequestID != c.pending.ID {
		c.logger.Warn("result id mismatch ignored",
			"got", ev.RequestID, "want", c.pending.ID)
		return
	}

	var msg string
	if ev.Kind != recognize.KindNone {
		msg = fmt.Sprintf("recognition failed: %s", ev.Kind)
	}
	c.finishCycle(ev.Result, ev.Kind, msg)
}

func (c *Coordinator) handleCommand(ev commandEvent) {
	switch ev.Cmd {
	case cmdForceTrigger:
		if c.state != StateIdle {
			c.logger.Warn("force trigger ignored", "state", c.state)
			return
		}
		c.logger.Info("force trigger")
		c.origin = SourceManual
		c.armedAt = c.clock.Now()
		c.capture()

	case cmdManualStop:
		switch c.state {
		case StateArmed:
			c.logger.Info("manual stop: arming cancelled")
			c.enterIdle()
		case StateCooldown:
			c.logger.Info("manual stop: cooldown cut short")
			c.enterIdle()
		default:
			c.logger.Warn("manual stop ignored", "state", c.state)
		}
	}
}

func (c *Coordinator) enterArmed(ev signalEvent) {
	c.state = StateArmed
	c.origin = ev.Source
	c.armedAt = ev.At
	c.schedule(timerDelay, c.cfg.DetectionDelay)
	c.logger.Debug("armed", "origin", c.origin, "at", c.armedAt)
}

// capture takes the latest frame, creates the cycle's DetectionRequest
// and hands it to the invoker off the event loop. Structurally at most
// one request is unresolved: this is the only place requests are
// created and it is unreachable while one is pending.
func (c *Coordinator) capture() {
	c.state = StateCapturing

	snapshot, err := c.frames.CaptureJPEG()
	if err != nil {
		c.logger.Warn("frame capture failed, cycle abandoned", "error", err)
		c.enterIdle()
		return
	}

	c.nextID++
	c.pending = &DetectionRequest{
		ID:       c.nextID,
		Snapshot: snapshot,
		Origin:   c.origin,
		ArmedAt:  c.armedAt,
	}
	c.captured = c.clock.Now()

	c.state = StateAwaitingResult
	c.schedule(timerTimeout, c.cfg.DetectionTimeout)
	c.submit(c.pending)

	c.logger.Info("detection request submitted",
		"request_id", c.pending.ID,
		"origin", c.pending.Origin,
		"snapshot_bytes", len(snapshot))
}

// submitAsync runs the invoker on its own goroutine and feeds the
// outcome back through the queue, so producers never wait on
// recognition and the state machine stays single-writer.
func (c *Coordinator) submitAsync(req *DetectionRequest) {
	go func() {
		res, kind := c.invoker.Invoke(c.ctx, req.Snapshot)
		c.enqueueCycle(resultEvent{RequestID: req.ID, Result: res, Kind: kind})
	}()
}

// finishCycle dispatches the cycle's single outcome and starts the
// cooldown window.
func (c *Coordinator) finishCycle(res recognize.Result, kind recognize.ErrorKind, msg string) {
	out := dispatch.Outcome{
		RequestID:  c.pending.ID,
		CycleID:    uuid.New(),
		Origin:     string(c.pending.Origin),
		Label:      res.Label,
		Category:   res.Category,
		Confidence: res.Confidence,
		ErrKind:    kind,
		Message:    msg,
		At:         c.clock.Now(),
	}

	c.pending = nil
	c.state = StateCooldown
	c.schedule(timerCooldown, c.cfg.DetectionCooldown)

	c.viewMu.Lock()
	c.view.CyclesCompleted++
	if kind != recognize.KindNone {
		c.view.CyclesFailed++
	}
	c.viewMu.Unlock()

	c.dispatcher.Dispatch(out)
}

func (c *Coordinator) enterIdle() {
	c.stopTimer()
	c.timerSeq++ // invalidate anything already fired but not yet handled
	c.state = StateIdle
	c.pending = nil
	c.origin = ""
}

// violation handles internal inconsistencies: logged, never fatal, and
// always followed by an unconditional reset to idle.
func (c *Coordinator) violation(msg string) {
	c.logger.Error("state invariant violation, resetting", "detail", msg, "state", c.state)
	c.enterIdle()
}

func (c *Coordinator) schedule(kind timerKind, d time.Duration) {
	c.stopTimer()
	c.timerSeq++
	seq := c.timerSeq
	c.timer = c.clock.AfterFunc(d, func() {
		c.enqueueCycle(timerEvent{Kind: kind, Seq: seq})
	})
}

func (c *Coordinator) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Coordinator) publishView() {
	c.viewMu.Lock()
	defer c.viewMu.Unlock()

	c.view.State = c.state
	c.view.Origin = c.origin
	c.view.LastTransition = c.lastTransition
	c.view.RequestsCreated = c.nextID
	if c.pending != nil {
		c.view.PendingRequestID = c.pending.ID
	} else {
		c.view.PendingRequestID = 0
	}
}
