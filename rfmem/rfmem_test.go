package rfmem

import (
	"testing"

	"github.com/rst0git/herdtools7/constraint"
	"github.com/rst0git/herdtools7/cycle"
	"github.com/rst0git/herdtools7/event"
	"github.com/rst0git/herdtools7/initstate"
	"github.com/rst0git/herdtools7/loc"
	"github.com/rst0git/herdtools7/rfmap"
	"github.com/rst0git/herdtools7/solver"
	"github.com/rst0git/herdtools7/value"
)

// TestEnumerateMessagePassing exercises S2: two writes on T0, two reads on
// T1, with no ordering between threads — every combination of Init/store
// should reach the solver and the four expected (r1, r2) pairs should all
// be reachable.
func TestEnumerateMessagePassing(t *testing.T) {
	s := event.New([]int{0, 1})
	s = s.WithEvent(event.Event{ID: 0, Thread: 0, Kind: event.MemoryWrite, Loc: loc.MakeGlobal(value.Const(100)), HasLoc: true, WriteValue: value.Const(1), HasWrite: true})
	s = s.WithEvent(event.Event{ID: 1, Thread: 0, Kind: event.MemoryWrite, Loc: loc.MakeGlobal(value.Const(200)), HasLoc: true, WriteValue: value.Const(1), HasWrite: true})
	s = s.WithEvent(event.Event{ID: 2, Thread: 1, Kind: event.MemoryRead, Loc: loc.MakeGlobal(value.Const(200)), HasLoc: true, ReadValue: value.Var("r1"), HasRead: true})
	s = s.WithEvent(event.Event{ID: 3, Thread: 1, Kind: event.MemoryRead, Loc: loc.MakeGlobal(value.Const(100)), HasLoc: true, ReadValue: value.Var("r2"), HasRead: true})
	s = s.WithIntraCtrl(event.EmptyRelation.Add(0, 1).Add(2, 3))

	init := initstate.New(map[loc.Location]value.Value{
		loc.MakeGlobal(value.Const(100)): value.Const(0),
		loc.MakeGlobal(value.Const(200)): value.Const(0),
	})

	seen := map[[2]int32]bool{}
	err := Enumerate(s, rfmap.Empty, constraint.Empty, init, Options{}, solver.New(), func(tp Tuple) error {
		if !tp.Residual.IsEmpty() {
			return nil
		}
		r1 := tp.Structure.Events[2].ReadValue
		r2 := tp.Structure.Events[3].ReadValue
		if !r1.IsDetermined() || !r2.IsDetermined() {
			return nil
		}
		seen[[2]int32{r1.Const(), r2.Const()}] = true
		return nil
	})
	if err != nil {
		t.Fatalf("Enumerate() error = %v", err)
	}

	for _, want := range [][2]int32{{0, 0}, {0, 1}, {1, 0}, {1, 1}} {
		if !seen[want] {
			t.Errorf("expected (r1=%d, r2=%d) to be reachable, got %v", want[0], want[1], seen)
		}
	}
}

// TestEnumerateOptaceExcludesIntervening exercises S4: with optace, a load
// strictly after a store to the same location on the same thread cannot
// read from Init. Enumerate itself still reports the Init tuple
// (compatible() only filters stores); cycle.CheckRFMap, which the caller
// applies to every reported tuple under optace, is what rejects it, so
// only the tuple reading from the store survives both stages.
func TestEnumerateOptaceExcludesIntervening(t *testing.T) {
	s := event.New([]int{0})
	s = s.WithEvent(event.Event{ID: 0, Thread: 0, Kind: event.MemoryWrite, Loc: loc.MakeGlobal(value.Const(1)), HasLoc: true, WriteValue: value.Const(1), HasWrite: true})
	s = s.WithEvent(event.Event{ID: 1, Thread: 0, Kind: event.MemoryRead, Loc: loc.MakeGlobal(value.Const(1)), HasLoc: true, ReadValue: value.Var("r1"), HasRead: true})
	s = s.WithIntraCtrl(event.EmptyRelation.Add(0, 1))

	init := initstate.New(map[loc.Location]value.Value{
		loc.MakeGlobal(value.Const(1)): value.Const(0),
	})

	var sawInit, sawStore bool
	err := Enumerate(s, rfmap.Empty, constraint.Empty, init, Options{Optace: true}, solver.New(), func(tp Tuple) error {
		if !cycle.CheckRFMap(tp.Structure, tp.RFMap) {
			return nil
		}
		src, _ := tp.RFMap.LoadSource(1)
		if src.IsInit() {
			sawInit = true
		} else if src.Store() == 0 {
			sawStore = true
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Enumerate() error = %v", err)
	}
	if sawInit {
		t.Error("optace should prune the Init alternative when the write is po_iico-before the read")
	}
	if !sawStore {
		t.Error("expected the tuple reading from the po_iico-earlier write to survive")
	}
}
