package finalize

import (
	"testing"

	"github.com/rst0git/herdtools7/event"
	"github.com/rst0git/herdtools7/initstate"
	"github.com/rst0git/herdtools7/loc"
	"github.com/rst0git/herdtools7/rfmap"
	"github.com/rst0git/herdtools7/value"
)

func addr(n int32) loc.Location { return loc.MakeGlobal(value.Const(n)) }

// TestRunSingleStoreIsTheOnlyFinal exercises the simplest §4.5 case: one
// location with a single store reaches exactly one delivered Concrete, and
// that store is its own final value.
func TestRunSingleStoreIsTheOnlyFinal(t *testing.T) {
	s := event.New([]int{0})
	s = s.WithEvent(event.Event{ID: 0, Thread: 0, Kind: event.MemoryWrite, Loc: addr(1), HasLoc: true, WriteValue: value.Const(7), HasWrite: true})

	init := initstate.New(nil)
	rfm := rfmap.Empty

	var delivered []Concrete
	err := Run(s, rfm, init, Options{}, Callbacks{}, func(c Concrete) error {
		delivered = append(delivered, c)
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(delivered) != 1 {
		t.Fatalf("got %d concrete executions, want 1", len(delivered))
	}
	if v := delivered[0].FinalState[addr(1).String()]; !v.Equal(value.Const(7)) {
		t.Errorf("final state at addr 1 = %v, want 7", v)
	}
}

// TestRunTwoStoresProducesTwoCandidateFinals exercises §4.5's enumeration
// over which store is "the" final store absent optace pruning: two
// unordered stores to the same location each get their own candidate.
func TestRunTwoStoresProducesTwoCandidateFinals(t *testing.T) {
	s := event.New([]int{0, 1})
	s = s.WithEvent(event.Event{ID: 0, Thread: 0, Kind: event.MemoryWrite, Loc: addr(1), HasLoc: true, WriteValue: value.Const(1), HasWrite: true})
	s = s.WithEvent(event.Event{ID: 1, Thread: 1, Kind: event.MemoryWrite, Loc: addr(1), HasLoc: true, WriteValue: value.Const(2), HasWrite: true})

	init := initstate.New(nil)
	rfm := rfmap.Empty

	var finals []int32
	err := Run(s, rfm, init, Options{}, Callbacks{}, func(c Concrete) error {
		v := c.FinalState[addr(1).String()]
		finals = append(finals, v.Const())
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(finals) != 2 {
		t.Fatalf("got %d candidates, want 2 (one per possible final store)", len(finals))
	}
}

// TestRunRejectsCoherenceCycle exercises S5: the optace uniproc derivation
// orders the two stores one way from the reads' perspective (W2 before W1),
// while the forced final-store selection (W2, the sole ppoloc-maximal
// store) orders them the other way via last_store_vbf — the two together
// close a cycle in pco, so the candidate must be dropped.
func TestRunRejectsCoherenceCycle(t *testing.T) {
	s := event.New([]int{0})
	s = s.WithEvent(event.Event{ID: 0, Thread: 0, Kind: event.MemoryWrite, Loc: addr(1), HasLoc: true, WriteValue: value.Const(1), HasWrite: true})
	s = s.WithEvent(event.Event{ID: 1, Thread: 0, Kind: event.MemoryWrite, Loc: addr(1), HasLoc: true, WriteValue: value.Const(2), HasWrite: true})
	s = s.WithEvent(event.Event{ID: 2, Thread: 0, Kind: event.MemoryRead, Loc: addr(1), HasLoc: true, ReadValue: value.Const(2), HasRead: true})
	s = s.WithEvent(event.Event{ID: 3, Thread: 0, Kind: event.MemoryRead, Loc: addr(1), HasLoc: true, ReadValue: value.Const(1), HasRead: true})
	s = s.WithIntraCtrl(event.EmptyRelation.Add(0, 1).Add(1, 2).Add(2, 3))

	// event 2 (ppoloc-before event 3) reads from the later store (event 1);
	// event 3 reads from the earlier store (event 0) — the uniproc
	// derivation reads this as "event1 before event0" in pco.
	rfm := rfmap.Empty.
		WithLoad(2, rfmap.FromStore(1)).
		WithLoad(3, rfmap.FromStore(0))

	init := initstate.New(nil)

	var reasons []string
	cb := Callbacks{OnReject: func(reason string) { reasons = append(reasons, reason) }}

	delivered := 0
	err := Run(s, rfm, init, Options{Optace: true}, cb, func(c Concrete) error {
		delivered++
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if delivered != 0 {
		t.Errorf("expected the coherence-cycle candidate to be rejected, got %d delivered", delivered)
	}
	if len(reasons) != 1 || reasons[0] != "coherence cycle" {
		t.Errorf("OnReject reasons = %v, want exactly [\"coherence cycle\"]", reasons)
	}
}

// TestRunFilterRejectsCandidate exercises S6: when CheckFilter is set and
// the Filter callback rejects a candidate's final state, nothing is
// delivered for it.
func TestRunFilterRejectsCandidate(t *testing.T) {
	s := event.New([]int{0})
	s = s.WithEvent(event.Event{ID: 0, Thread: 0, Kind: event.MemoryWrite, Loc: addr(1), HasLoc: true, WriteValue: value.Const(7), HasWrite: true})

	init := initstate.New(nil)
	rfm := rfmap.Empty

	var reasons []string
	cb := Callbacks{
		Filter: func(finalState map[string]value.Value) bool {
			v, ok := finalState[addr(1).String()]
			return ok && v.Equal(value.Const(0))
		},
		OnReject: func(reason string) { reasons = append(reasons, reason) },
	}

	delivered := 0
	err := Run(s, rfm, init, Options{CheckFilter: true}, cb, func(c Concrete) error {
		delivered++
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if delivered != 0 {
		t.Errorf("expected the filter to reject the only candidate, got %d delivered", delivered)
	}
	if len(reasons) != 1 || reasons[0] != "filter rejected final state" {
		t.Errorf("OnReject reasons = %v, want exactly [\"filter rejected final state\"]", reasons)
	}
}

// TestRunOptaceNarrowsFinalCandidatesToMaximal exercises candidateFinals:
// with optace, a store strictly before another store under ppoloc is never
// offered as a final-store candidate.
func TestRunOptaceNarrowsFinalCandidatesToMaximal(t *testing.T) {
	s := event.New([]int{0})
	s = s.WithEvent(event.Event{ID: 0, Thread: 0, Kind: event.MemoryWrite, Loc: addr(1), HasLoc: true, WriteValue: value.Const(1), HasWrite: true})
	s = s.WithEvent(event.Event{ID: 1, Thread: 0, Kind: event.MemoryWrite, Loc: addr(1), HasLoc: true, WriteValue: value.Const(2), HasWrite: true})
	s = s.WithIntraCtrl(event.EmptyRelation.Add(0, 1))

	init := initstate.New(nil)
	rfm := rfmap.Empty

	var finals []int32
	err := Run(s, rfm, init, Options{Optace: true}, Callbacks{}, func(c Concrete) error {
		v := c.FinalState[addr(1).String()]
		finals = append(finals, v.Const())
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(finals) != 1 || finals[0] != 2 {
		t.Errorf("got finals %v, want exactly [2] (the ppoloc-maximal store)", finals)
	}
}
