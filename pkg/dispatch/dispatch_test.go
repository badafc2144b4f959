package dispatch

import (
	"testing"

	"github.com/google/uuid"

	"github.com/binsight/go-binsight/pkg/recognize"
	"github.com/binsight/go-binsight/pkg/waste"
)

func TestDispatchReachesAllObservers(t *testing.T) {
	d := New()

	var first, second []Outcome
	d.Register(ObserverFunc(func(o Outcome) { first = append(first, o) }))
	d.Register(ObserverFunc(func(o Outcome) { second = append(second, o) }))

	out := Outcome{RequestID: 7, CycleID: uuid.New(), Category: waste.Food}
	d.Dispatch(out)

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("deliveries = %d, %d; want 1, 1", len(first), len(second))
	}
	if first[0].RequestID != 7 || second[0].RequestID != 7 {
		t.Error("outcome mutated in transit")
	}
}

func TestDispatchSurvivesPanickingObserver(t *testing.T) {
	d := New()

	d.Register(ObserverFunc(func(o Outcome) { panic("bad observer") }))

	var delivered int
	d.Register(ObserverFunc(func(o Outcome) { delivered++ }))

	d.Dispatch(Outcome{RequestID: 1})
	d.Dispatch(Outcome{RequestID: 2})

	if delivered != 2 {
		t.Errorf("second observer got %d outcomes, want 2", delivered)
	}
}

func TestDispatchNoObservers(t *testing.T) {
	// Must not panic or block.
	New().Dispatch(Outcome{RequestID: 1})
}

func TestOutcomeFailed(t *testing.T) {
	ok := Outcome{Category: waste.Recyclable}
	if ok.Failed() {
		t.Error("success outcome reported as failed")
	}

	bad := Outcome{ErrKind: recognize.KindTimeout, Message: "no result in 10s"}
	if !bad.Failed() {
		t.Error("timeout outcome reported as success")
	}
}

func TestOutcomeGuidance(t *testing.T) {
	o := Outcome{Category: waste.Hazardous}
	if got := o.Guidance().Category; got != waste.Hazardous {
		t.Errorf("guidance category = %s", got)
	}

	failed := Outcome{ErrKind: recognize.KindUnavailable}
	if got := failed.Guidance().Category; got != waste.Unknown {
		t.Errorf("failed cycle guidance = %s, want unknown", got)
	}
}
