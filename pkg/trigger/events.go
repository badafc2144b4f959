package trigger

import (
	"time"

	"github.com/binsight/go-binsight/pkg/recognize"
)

// Source identifies which signal stream produced an event.
type Source string

const (
	SourceMotion   Source = "motion"
	SourcePresence Source = "presence"
	SourceManual   Source = "manual"
)

// State is the coordinator's current phase. Exactly one state is
// active per coordinator at any time.
type State string

const (
	StateIdle           State = "idle"
	StateArmed          State = "armed"
	StateCapturing      State = "capturing"
	StateAwaitingResult State = "awaiting_result"
	StateCooldown       State = "cooldown"
)

// DetectionRequest is the unit of work submitted to the recognizer for
// exactly one candidate event. The snapshot is immutable and owned by
// the coordinator until the request resolves.
type DetectionRequest struct {
	ID       uint64
	Snapshot []byte
	Origin   Source
	ArmedAt  time.Time
}

// event is anything the coordinator consumes from its single queue.
type event interface {
	isEvent()
}

// signalEvent is one reading from either signal source.
type signalEvent struct {
	Source Source
	Active bool
	At     time.Time
}

// resultEvent carries a recognition outcome back into the queue,
// preserving single-writer semantics for the state machine.
type resultEvent struct {
	RequestID uint64
	Result    recognize.Result
	Kind      recognize.ErrorKind
}

type timerKind int

const (
	timerDelay timerKind = iota
	timerTimeout
	timerCooldown
)

// timerEvent marks the expiry of a state timer. Seq guards against
// stale timers from states already exited.
type timerEvent struct {
	Kind timerKind
	Seq  uint64
}

type command int

const (
	cmdForceTrigger command = iota
	cmdManualStop
)

// commandEvent carries an operator command.
type commandEvent struct {
	Cmd command
}

func (signalEvent) isEvent()  {}
func (resultEvent) isEvent()  {}
func (timerEvent) isEvent()   {}
func (commandEvent) isEvent() {}
